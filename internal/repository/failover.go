package repository

import (
	"context"
	"sync/atomic"
	"time"

	"reserba/internal/domain"
	"reserba/internal/models"

	"github.com/rs/zerolog"
)

// FailoverSessionStore uses the primary store until it errors, then serves
// from the fallback and probes the primary once a minute.
type FailoverSessionStore struct {
	primary   domain.SessionStore
	fallback  domain.SessionStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverSessionStore(primary, fallback domain.SessionStore, logger *zerolog.Logger) *FailoverSessionStore {
	return &FailoverSessionStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionStore) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary session store failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverSessionStore) shouldProbe() bool {
	return time.Since(time.Unix(0, r.lastCheck.Load())) > time.Minute
}

func (r *FailoverSessionStore) Save(ctx context.Context, session *models.Session) error {
	if !r.isDown.Load() || r.shouldProbe() {
		if err := r.primary.Save(ctx, session); err == nil {
			r.isDown.Store(false)
			// Mirror into the fallback so a later failover still sees it.
			_ = r.fallback.Save(ctx, session)
			return nil
		} else {
			r.markDown(err)
		}
	}
	return r.fallback.Save(ctx, session)
}

func (r *FailoverSessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	if !r.isDown.Load() || r.shouldProbe() {
		session, err := r.primary.Get(ctx, token)
		if err == nil {
			r.isDown.Store(false)
			return session, nil
		}
		r.markDown(err)
	}
	return r.fallback.Get(ctx, token)
}

func (r *FailoverSessionStore) Delete(ctx context.Context, token string) error {
	_ = r.fallback.Delete(ctx, token)
	if !r.isDown.Load() || r.shouldProbe() {
		if err := r.primary.Delete(ctx, token); err != nil {
			r.markDown(err)
			return nil
		}
		r.isDown.Store(false)
	}
	return nil
}

func (r *FailoverSessionStore) RevokeUser(ctx context.Context, userID int64) error {
	_ = r.fallback.RevokeUser(ctx, userID)
	if !r.isDown.Load() || r.shouldProbe() {
		if err := r.primary.RevokeUser(ctx, userID); err != nil {
			r.markDown(err)
			return nil
		}
		r.isDown.Store(false)
	}
	return nil
}
