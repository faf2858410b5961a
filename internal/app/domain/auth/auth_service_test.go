package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
	"github.com/hanapbahay/hanapbahay-go/internal/pkg/config"
)

type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthRepo) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthRepo) Register(ctx context.Context, username, email, hashedPassword string) (string, error) {
	args := m.Called(ctx, username, email, hashedPassword)
	return args.String(0), args.Error(1)
}

func setupAuthServiceTest() (*AuthServiceImpl, *MockAuthRepo) {
	mockRepo := new(MockAuthRepo)
	cfg := &config.Config{JWTSecretKey: "test-secret"}
	service := NewAuthService(mockRepo, cfg, zap.NewNop())
	return service, mockRepo
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{
		ID:           uuid.New(),
		Email:        "juan@example.ph",
		PasswordHash: string(hashed),
		Role:         models.RoleLessee,
	}

	t.Run("valid credentials issue a token", func(t *testing.T) {
		service, mockRepo := setupAuthServiceTest()
		mockRepo.On("GetUserByEmail", mock.Anything, user.Email).Return(user, nil).Once()

		token, loggedIn, err := service.Login(ctx, user.Email, "correct-horse")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, user.ID, loggedIn.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		service, mockRepo := setupAuthServiceTest()
		mockRepo.On("GetUserByEmail", mock.Anything, user.Email).Return(user, nil).Once()

		_, _, err := service.Login(ctx, user.Email, "wrong")
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrUnauthenticated))
	})

	t.Run("unknown email reads the same as a wrong password", func(t *testing.T) {
		service, mockRepo := setupAuthServiceTest()
		mockRepo.On("GetUserByEmail", mock.Anything, "nobody@example.ph").
			Return(nil, fmt.Errorf("not found: %w", models.ErrNotFound)).Once()

		_, _, err := service.Login(ctx, "nobody@example.ph", "whatever")
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrUnauthenticated))
		assert.False(t, errors.Is(err, models.ErrNotFound))
	})
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("password is hashed before storage", func(t *testing.T) {
		service, mockRepo := setupAuthServiceTest()
		mockRepo.On("Register", mock.Anything, "juan", "juan@example.ph", mock.MatchedBy(func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct-horse")) == nil
		})).Return(uuid.NewString(), nil).Once()

		userID, err := service.Register(ctx, "juan", "juan@example.ph", "correct-horse")
		require.NoError(t, err)
		assert.NotEmpty(t, userID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		service, mockRepo := setupAuthServiceTest()
		mockRepo.On("Register", mock.Anything, "juan", "juan@example.ph", mock.Anything).
			Return("", fmt.Errorf("email taken: %w", models.ErrConflict)).Once()

		_, err := service.Register(ctx, "juan", "juan@example.ph", "correct-horse")
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrConflict))
	})

	t.Run("missing fields", func(t *testing.T) {
		service, mockRepo := setupAuthServiceTest()

		_, err := service.Register(ctx, "juan", "", "correct-horse")
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrBadRequest))
		mockRepo.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
