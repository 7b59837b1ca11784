package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"reserba/internal/metrics"
	"reserba/internal/models"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type contextKey string

const contextSessionKey contextKey = "session"

func sessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(contextSessionKey).(*models.Session)
	return session, ok
}

// requireAuth validates the bearer JWT and checks that the session it names is
// still alive. A ban revokes sessions server side, so a banned user's token
// fails here even before expiry.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if err := verifyToken(tokenString, s.jwtSecret); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		session, err := s.users.GetSession(r.Context(), tokenString)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if session == nil || session.Expired(time.Now()) {
			writeError(w, http.StatusUnauthorized, "session expired or revoked")
			return
		}

		ctx := context.WithValue(r.Context(), contextSessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireOfficial(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromContext(r.Context())
		if !ok || session.Role != models.RoleOfficial {
			writeError(w, http.StatusForbidden, "barangay official access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func issueToken(session *models.Session, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   session.Email,
		IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func verifyToken(tokenString string, secret []byte) error {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty bearer token")
	}
	return token, nil
}

// clientLimiter hands out one token bucket per client host.
type clientLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientBucket
	rps      rate.Limit
	burst    int
	lastSeen time.Duration
}

type clientBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	if rps <= 0 {
		rps = models.DefaultRateLimitRPS
	}
	if burst <= 0 {
		burst = models.DefaultRateLimitBurst
	}
	return &clientLimiter{
		clients:  make(map[string]*clientBucket),
		rps:      rate.Limit(rps),
		burst:    burst,
		lastSeen: 10 * time.Minute,
	}
}

func (c *clientLimiter) allow(addr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	bucket, ok := c.clients[addr]
	if !ok {
		// Prune idle clients opportunistically instead of a background goroutine.
		for key, existing := range c.clients {
			if now.Sub(existing.seen) > c.lastSeen {
				delete(c.clients, key)
			}
		}
		bucket = &clientBucket{limiter: rate.NewLimiter(c.rps, c.burst)}
		c.clients[addr] = bucket
	}
	bucket.seen = now
	return bucket.limiter.Allow()
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey buckets requests by client host. RemoteAddr carries an ip:port
// pair for direct connections; behind a proxy RealIP has already rewritten it
// to a bare IP, which SplitHostPort cannot parse.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// requestLogger emits one structured log line per request and feeds the
// request counter.
func requestLogger(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			metrics.IncHTTP(r.Method+" "+r.URL.Path, strconv.Itoa(status))
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
