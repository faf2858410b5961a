package listings

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
)

type MockListingRepo struct {
	mock.Mock
}

func (m *MockListingRepo) Create(ctx context.Context, listing *models.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepo) Get(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}
func (m *MockListingRepo) List(ctx context.Context, includeArchived bool) ([]*models.Listing, error) {
	args := m.Called(ctx, includeArchived)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Listing), args.Error(1)
}
func (m *MockListingRepo) Update(ctx context.Context, listingID, ownerID uuid.UUID, params UpdateListingParams) error {
	args := m.Called(ctx, listingID, ownerID, params)
	return args.Error(0)
}
func (m *MockListingRepo) SetArchived(ctx context.Context, listingID uuid.UUID, archived bool) error {
	args := m.Called(ctx, listingID, archived)
	return args.Error(0)
}
func (m *MockListingRepo) Reconcile(ctx context.Context, listingID uuid.UUID) (bool, bool, error) {
	args := m.Called(ctx, listingID)
	return args.Bool(0), args.Bool(1), args.Error(2)
}
func (m *MockListingRepo) HasLiveConfirmedReservation(ctx context.Context, listingID uuid.UUID) (bool, error) {
	args := m.Called(ctx, listingID)
	return args.Bool(0), args.Error(1)
}

func setupListingServiceTest() (*ServiceImpl, *MockListingRepo) {
	mockRepo := new(MockListingRepo)
	service := NewService(mockRepo, zap.NewNop())
	return service, mockRepo
}

func TestListingService_Create(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()

	t.Run("lessor creates listing", func(t *testing.T) {
		service, mockRepo := setupListingServiceTest()
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(l *models.Listing) bool {
			return l.UserID == ownerID && l.RentalType == models.RentalTypeRent
		})).Return(nil).Once()

		listing, err := service.Create(ctx, ownerID, models.RoleLessor, CreateListingParams{
			Title:      "Studio unit near LRT",
			RentalType: models.RentalTypeRent,
			Price:      8500,
		})
		require.NoError(t, err)
		assert.Equal(t, ownerID, listing.UserID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("lessee cannot create", func(t *testing.T) {
		service, mockRepo := setupListingServiceTest()

		_, err := service.Create(ctx, ownerID, models.RoleLessee, CreateListingParams{
			Title:      "Studio unit",
			RentalType: models.RentalTypeRent,
			Price:      8500,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrForbidden))
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid rental type", func(t *testing.T) {
		service, _ := setupListingServiceTest()

		_, err := service.Create(ctx, ownerID, models.RoleLessor, CreateListingParams{
			Title:      "Studio unit",
			RentalType: "lease-to-own",
			Price:      8500,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrBadRequest))
	})
}

func TestListingService_Update(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	listingID := uuid.New()
	newTitle := "Renovated studio unit"

	t.Run("owner updates changed fields only", func(t *testing.T) {
		service, mockRepo := setupListingServiceTest()
		existing := &models.Listing{ID: listingID, UserID: ownerID, Title: "Studio unit"}
		updated := &models.Listing{ID: listingID, UserID: ownerID, Title: newTitle}
		params := UpdateListingParams{Title: &newTitle}

		mockRepo.On("Get", mock.Anything, listingID).Return(existing, nil).Once()
		mockRepo.On("Update", mock.Anything, listingID, ownerID, params).Return(nil).Once()
		mockRepo.On("Get", mock.Anything, listingID).Return(updated, nil).Once()

		result, err := service.Update(ctx, listingID, ownerID, models.RoleLessor, params)
		require.NoError(t, err)
		assert.Equal(t, newTitle, result.Title)
		mockRepo.AssertExpectations(t)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		service, mockRepo := setupListingServiceTest()
		existing := &models.Listing{ID: listingID, UserID: ownerID}
		mockRepo.On("Get", mock.Anything, listingID).Return(existing, nil).Once()

		_, err := service.Update(ctx, listingID, uuid.New(), models.RoleLessor, UpdateListingParams{Title: &newTitle})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrForbidden))
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestListingService_AdminUnarchive(t *testing.T) {
	ctx := context.Background()
	listingID := uuid.New()

	t.Run("unarchive sticks when no live reservation exists", func(t *testing.T) {
		service, mockRepo := setupListingServiceTest()
		mockRepo.On("SetArchived", mock.Anything, listingID, false).Return(nil).Once()
		mockRepo.On("Reconcile", mock.Anything, listingID).Return(false, false, nil).Once()
		mockRepo.On("Get", mock.Anything, listingID).
			Return(&models.Listing{ID: listingID, IsArchived: false}, nil).Once()

		listing, err := service.AdminUnarchive(ctx, listingID)
		require.NoError(t, err)
		assert.False(t, listing.IsArchived)
		mockRepo.AssertExpectations(t)
	})

	t.Run("live confirmed reservation forces re-archive", func(t *testing.T) {
		service, mockRepo := setupListingServiceTest()
		mockRepo.On("SetArchived", mock.Anything, listingID, false).Return(nil).Once()
		mockRepo.On("Reconcile", mock.Anything, listingID).Return(true, true, nil).Once()
		mockRepo.On("HasLiveConfirmedReservation", mock.Anything, listingID).Return(true, nil).Once()
		mockRepo.On("Get", mock.Anything, listingID).
			Return(&models.Listing{ID: listingID, IsArchived: true}, nil).Once()

		listing, err := service.AdminUnarchive(ctx, listingID)
		require.NoError(t, err)
		assert.True(t, listing.IsArchived)
		mockRepo.AssertExpectations(t)
	})
}
