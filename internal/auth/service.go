package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/trogers1052/trade-journal/internal/database"
	"github.com/trogers1052/trade-journal/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Errors returned by the auth service
var (
	ErrUsernameConflict   = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingAuth        = errors.New("missing or invalid authorization header")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes)
)

// UserStore defines the user persistence the auth service needs
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Service implements registration, login and bearer token verification
type Service struct {
	users  UserStore
	tokens *Tokens
	log    *zap.Logger
}

// NewService creates a new auth Service
func NewService(users UserStore, tokens *Tokens, log *zap.Logger) *Service {
	return &Service{users: users, tokens: tokens, log: log}
}

// Register creates a user with a bcrypt hash of password
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	s.log.Debug("Attempting to register user", zap.String("username", username))

	if len(password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	_, err := s.users.GetUserByUsername(ctx, username)
	if err == nil {
		s.log.Debug("User already exists", zap.String("username", username))
		return nil, ErrUsernameConflict
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Username: username, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent registration of the same name.
		if errors.Is(err, database.ErrUsernameTaken) {
			return nil, ErrUsernameConflict
		}
		return nil, err
	}

	s.log.Debug("Registered user", zap.String("username", username), zap.Int64("user_id", user.ID))
	return user, nil
}

// Login verifies credentials and issues a signed token
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	s.log.Debug("Attempting login", zap.String("username", username))

	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		s.log.Debug("Failed login attempt", zap.String("username", username))
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		s.log.Debug("Failed login attempt", zap.String("username", username))
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", err
	}

	s.log.Debug("Successful login", zap.String("username", username))
	return token, nil
}

// Authenticate resolves an Authorization header value to its user
func (s *Service) Authenticate(ctx context.Context, header string) (*models.User, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, ErrMissingAuth
	}

	claims, err := s.tokens.Parse(parts[1])
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
