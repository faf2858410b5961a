package auth

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
	"github.com/hanapbahay/hanapbahay-go/internal/pkg/config"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract.
type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, user *models.User, err error)
	Register(ctx context.Context, username, email, password string) (string, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

type AuthServiceImpl struct {
	logger *zap.Logger
	repo   AuthRepo
	jwt    *JWTService
	cfg    *config.Config
}

func NewAuthService(repo AuthRepo, cfg *config.Config, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{logger: logger, repo: repo, jwt: NewJWTService(), cfg: cfg}
}

// Login validates credentials and issues an access token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	l := s.logger.With(zap.String("method", "Login"), zap.String("email", email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		l.Warn("GetUserByEmail failed")
		// Don't reveal whether the user exists or the password is wrong
		return "", nil, fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		l.Warn("Password comparison failed", zap.String("userID", user.ID.String()))
		return "", nil, fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	token, err := s.jwt.GenerateToken(s.jwtConfig(), user.ID.String(), user.Email, string(user.Role))
	if err != nil {
		return "", nil, fmt.Errorf("error generating token: %w", err)
	}

	return token, user, nil
}

func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (string, error) {
	if username == "" || email == "" || password == "" {
		return "", fmt.Errorf("username, email and password are required: %w", models.ErrBadRequest)
	}

	hashed, err := s.jwt.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}

	userID, err := s.repo.Register(ctx, username, email, hashed)
	if err != nil {
		return "", fmt.Errorf("error registering user: %w", err)
	}

	s.logger.Info("User registered", zap.String("userID", userID))
	return userID, nil
}

func (s *AuthServiceImpl) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *AuthServiceImpl) jwtConfig() JWTConfig {
	return JWTConfig{
		SecretKey:       s.cfg.JWTSecretKey,
		TokenExpiration: 24 * time.Hour,
		Logger:          s.logger,
	}
}
