package service

import (
	"context"
	"errors"
	"fmt"

	"reserba/internal/database"
	"reserba/internal/domain"
	"reserba/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	repo     domain.Repository
	sessions domain.SessionStore
	logger   *zerolog.Logger
}

func NewUserService(repo domain.Repository, sessions domain.SessionStore, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		sessions: sessions,
		logger:   logger,
	}
}

// Register creates a new account. A banned email is refused with the banned
// outcome, not a duplicate: the ban is tied to the identity.
func (s *UserService) Register(ctx context.Context, email, password, fullName string, role models.Role) (*models.User, error) {
	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		if existing.IsBanned {
			return nil, database.ErrUserBanned
		}
		return nil, database.ErrDuplicate
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if role == "" {
		role = models.RoleResident
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         role,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

// Login verifies credentials. Banned users get the distinct banned outcome
// rather than invalid-credentials, even with a wrong password.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if user.IsBanned {
		return nil, database.ErrUserBanned
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("update last login")
	}

	return user, nil
}

func (s *UserService) SaveSession(ctx context.Context, session *models.Session) error {
	return s.sessions.Save(ctx, session)
}

func (s *UserService) GetSession(ctx context.Context, token string) (*models.Session, error) {
	return s.sessions.Get(ctx, token)
}

func (s *UserService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetUserByEmail(ctx, email)
}
