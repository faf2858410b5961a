package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/domain/listings"
	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
	"github.com/hanapbahay/hanapbahay-go/internal/app/observability/metrics"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Create(ctx context.Context, requesterID uuid.UUID, params CreateReservationParams) (*ReservationWithListing, error)
	Confirm(ctx context.Context, reservationID, callerID uuid.UUID) (*models.Reservation, error)
	Delete(ctx context.Context, reservationID, callerID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]*ReservationWithListing, error)
}

type CreateReservationParams struct {
	ListingID  uuid.UUID
	StartDate  time.Time
	EndDate    *time.Time
	TotalPrice float64
}

type ServiceImpl struct {
	logger      *zap.Logger
	repo        Repository
	listingRepo listings.Repository
}

func NewService(repo Repository, listingRepo listings.Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, repo: repo, listingRepo: listingRepo}
}

// Create books a listing. The conflict check and the archive side effect
// both live in the repository transaction; this layer only resolves the
// listing snapshot and validates input.
func (s *ServiceImpl) Create(ctx context.Context, requesterID uuid.UUID, params CreateReservationParams) (*ReservationWithListing, error) {
	if params.ListingID == uuid.Nil || params.StartDate.IsZero() {
		return nil, fmt.Errorf("listingId and startDate are required: %w", models.ErrBadRequest)
	}

	listing, err := s.listingRepo.Get(ctx, params.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.UserID == requesterID {
		return nil, fmt.Errorf("cannot reserve your own listing: %w", models.ErrForbidden)
	}

	reservation := &models.Reservation{
		ListingID:      listing.ID,
		UserID:         requesterID,
		ListingOwnerID: listing.UserID,
		StartDate:      params.StartDate,
		EndDate:        params.EndDate,
		TotalPrice:     params.TotalPrice,
	}

	if err := s.repo.CreateWithArchive(ctx, reservation, listing.RentalType); err != nil {
		if errors.Is(err, models.ErrConflict) && metrics.Get() != nil {
			metrics.Get().ReservationConflictsTotal.Add(ctx, 1)
		}
		return nil, err
	}

	if listing.RentalType == models.RentalTypeRent {
		listing.IsArchived = true
	}
	if metrics.Get() != nil {
		metrics.Get().ReservationsCreatedTotal.Add(ctx, 1)
	}

	s.logger.Info("Reservation created",
		zap.String("reservationID", reservation.ID.String()),
		zap.String("listingID", listing.ID.String()))

	return &ReservationWithListing{Reservation: *reservation, Listing: *listing}, nil
}

// Confirm moves pending -> confirmed. Only the listing owner or the
// reservation creator may confirm. A reservation carrying the epoch-zero
// end date marker models an open-ended rental: confirming it (re)archives
// the listing.
func (s *ServiceImpl) Confirm(ctx context.Context, reservationID, callerID uuid.UUID) (*models.Reservation, error) {
	reservation, err := s.repo.Get(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.ListingOwnerID != callerID && reservation.UserID != callerID {
		return nil, fmt.Errorf("caller may not confirm reservation %s: %w", reservationID, models.ErrForbidden)
	}

	if err := s.repo.Confirm(ctx, reservationID, reservation.OpenEndedRental()); err != nil {
		return nil, err
	}

	reservation.Status = models.ReservationConfirmed
	return reservation, nil
}

// Delete removes a reservation and re-derives the listing archive flag.
func (s *ServiceImpl) Delete(ctx context.Context, reservationID, callerID uuid.UUID) error {
	reservation, err := s.repo.Get(ctx, reservationID)
	if err != nil {
		return err
	}
	if reservation.UserID != callerID && reservation.ListingOwnerID != callerID {
		return fmt.Errorf("caller may not delete reservation %s: %w", reservationID, models.ErrForbidden)
	}

	if err := s.repo.DeleteWithReconcile(ctx, reservationID, reservation.ListingID); err != nil {
		return err
	}

	s.logger.Info("Reservation deleted",
		zap.String("reservationID", reservationID.String()),
		zap.String("listingID", reservation.ListingID.String()))
	return nil
}

func (s *ServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]*ReservationWithListing, error) {
	return s.repo.ListByUser(ctx, userID)
}
