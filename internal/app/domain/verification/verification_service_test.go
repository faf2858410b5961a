package verification

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

	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
)

type MockVerificationRepo struct {
	mock.Mock
}

func (m *MockVerificationRepo) SubmitID(ctx context.Context, userID uuid.UUID, front, back, idType string) (*models.User, error) {
	args := m.Called(ctx, userID, front, back, idType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockVerificationRepo) MarkVerified(ctx context.Context, userID uuid.UUID, front, back, idType string) (*models.User, error) {
	args := m.Called(ctx, userID, front, back, idType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockVerificationRepo) MarkRejected(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func setupVerificationServiceTest() (*ServiceImpl, *MockVerificationRepo) {
	mockRepo := new(MockVerificationRepo)
	service := NewService(mockRepo, zap.NewNop())
	return service, mockRepo
}

func TestVerificationService_SubmitID(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("complete documents move status to pending", func(t *testing.T) {
		service, mockRepo := setupVerificationServiceTest()
		mockRepo.On("SubmitID", mock.Anything, userID, "front.jpg", "back.jpg", "passport").
			Return(&models.User{ID: userID, IDStatus: models.IDStatusPending}, nil).Once()

		user, err := service.SubmitID(ctx, userID, "front.jpg", "back.jpg", "passport")
		require.NoError(t, err)
		assert.Equal(t, models.IDStatusPending, user.IDStatus)
		mockRepo.AssertExpectations(t)
	})

	t.Run("incomplete documents rejected", func(t *testing.T) {
		service, mockRepo := setupVerificationServiceTest()

		_, err := service.SubmitID(ctx, userID, "front.jpg", "", "passport")
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrBadRequest))
		mockRepo.AssertNotCalled(t, "SubmitID", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestVerificationService_Review(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("verified decision promotes status and role together", func(t *testing.T) {
		service, mockRepo := setupVerificationServiceTest()
		mockRepo.On("MarkVerified", mock.Anything, userID, "front.jpg", "back.jpg", "national-id").
			Return(&models.User{ID: userID, IDStatus: models.IDStatusVerified, Role: models.RoleLessor}, nil).Once()

		user, err := service.Review(ctx, userID, ReviewParams{
			Decision: models.IDStatusVerified,
			IDFront:  "front.jpg",
			IDBack:   "back.jpg",
			IDType:   "national-id",
		})
		require.NoError(t, err)
		assert.Equal(t, models.IDStatusVerified, user.IDStatus)
		assert.Equal(t, models.RoleLessor, user.Role)
		mockRepo.AssertExpectations(t)
	})

	t.Run("verifying without documents fails validation", func(t *testing.T) {
		service, mockRepo := setupVerificationServiceTest()

		_, err := service.Review(ctx, userID, ReviewParams{Decision: models.IDStatusVerified})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrValidation))
		mockRepo.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejection leaves role alone", func(t *testing.T) {
		service, mockRepo := setupVerificationServiceTest()
		mockRepo.On("MarkRejected", mock.Anything, userID).
			Return(&models.User{ID: userID, IDStatus: models.IDStatusRejected, Role: models.RoleLessee}, nil).Once()

		user, err := service.Review(ctx, userID, ReviewParams{Decision: models.IDStatusRejected})
		require.NoError(t, err)
		assert.Equal(t, models.IDStatusRejected, user.IDStatus)
		assert.Equal(t, models.RoleLessee, user.Role)
		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown decision", func(t *testing.T) {
		service, _ := setupVerificationServiceTest()

		_, err := service.Review(ctx, userID, ReviewParams{Decision: models.IDStatusPending})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrBadRequest))
	})

	t.Run("unknown user", func(t *testing.T) {
		service, mockRepo := setupVerificationServiceTest()
		mockRepo.On("MarkRejected", mock.Anything, userID).
			Return(nil, fmt.Errorf("user not found: %w", models.ErrNotFound)).Once()

		_, err := service.Review(ctx, userID, ReviewParams{Decision: models.IDStatusRejected})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})
}
