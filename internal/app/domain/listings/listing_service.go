package listings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, ownerRole models.Role, params CreateListingParams) (*models.Listing, error)
	Get(ctx context.Context, listingID uuid.UUID) (*models.Listing, error)
	List(ctx context.Context) ([]*models.Listing, error)
	Update(ctx context.Context, listingID, callerID uuid.UUID, callerRole models.Role, params UpdateListingParams) (*models.Listing, error)
	AdminUnarchive(ctx context.Context, listingID uuid.UUID) (*models.Listing, error)
}

type CreateListingParams struct {
	Title       string
	Description string
	RentalType  models.RentalType
	Price       float64
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
}

func NewService(repo Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, repo: repo}
}

// Create requires the caller to be a lessor (or admin); lessees must pass
// identity verification first.
func (s *ServiceImpl) Create(ctx context.Context, ownerID uuid.UUID, ownerRole models.Role, params CreateListingParams) (*models.Listing, error) {
	if ownerRole != models.RoleLessor && ownerRole != models.RoleAdmin {
		return nil, fmt.Errorf("only lessors may create listings: %w", models.ErrForbidden)
	}
	if params.Title == "" || params.Price <= 0 {
		return nil, fmt.Errorf("title and a positive price are required: %w", models.ErrBadRequest)
	}
	if params.RentalType != models.RentalTypeRent && params.RentalType != models.RentalTypeBooking {
		return nil, fmt.Errorf("rentalType must be rent or booking: %w", models.ErrBadRequest)
	}

	listing := &models.Listing{
		UserID:      ownerID,
		Title:       params.Title,
		Description: params.Description,
		RentalType:  params.RentalType,
		Price:       params.Price,
	}
	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("error creating listing: %w", err)
	}
	return listing, nil
}

func (s *ServiceImpl) Get(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	return s.repo.Get(ctx, listingID)
}

func (s *ServiceImpl) List(ctx context.Context) ([]*models.Listing, error) {
	return s.repo.List(ctx, false)
}

func (s *ServiceImpl) Update(ctx context.Context, listingID, callerID uuid.UUID, callerRole models.Role, params UpdateListingParams) (*models.Listing, error) {
	listing, err := s.repo.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.UserID != callerID && callerRole != models.RoleAdmin {
		return nil, fmt.Errorf("caller does not own listing %s: %w", listingID, models.ErrForbidden)
	}

	if err := s.repo.Update(ctx, listingID, listing.UserID, params); err != nil {
		return nil, fmt.Errorf("error updating listing: %w", err)
	}
	return s.repo.Get(ctx, listingID)
}

// AdminUnarchive flips the archived flag off and immediately re-runs
// reconciliation rather than trusting the manual override to stick. A
// re-archive caused by a live confirmed reservation is a logged anomaly,
// not an error.
func (s *ServiceImpl) AdminUnarchive(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	if err := s.repo.SetArchived(ctx, listingID, false); err != nil {
		return nil, err
	}

	changed, archived, err := s.repo.Reconcile(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("error reconciling listing after unarchive: %w", err)
	}
	if changed && archived {
		confirmed, checkErr := s.repo.HasLiveConfirmedReservation(ctx, listingID)
		if checkErr == nil && confirmed {
			s.logger.Warn("Admin unarchive overridden: listing has a live confirmed reservation",
				zap.String("listingID", listingID.String()))
		}
	}

	return s.repo.Get(ctx, listingID)
}
