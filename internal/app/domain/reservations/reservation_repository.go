package reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/domain/listings"
	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
)

var _ Repository = (*PostgresReservationRepo)(nil)

type Repository interface {
	// CreateWithArchive inserts the reservation and, for rent-type listings,
	// archives the listing in the same transaction.
	CreateWithArchive(ctx context.Context, reservation *models.Reservation, rentalType models.RentalType) error
	Get(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error)
	// Confirm moves pending -> confirmed; open-ended rentals re-archive the
	// listing in the same transaction.
	Confirm(ctx context.Context, reservationID uuid.UUID, reArchiveListing bool) error
	// DeleteWithReconcile removes the reservation and re-derives the
	// listing's archived flag inside one transaction.
	DeleteWithReconcile(ctx context.Context, reservationID, listingID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*ReservationWithListing, error)
}

// ReservationWithListing is the List read model: a reservation joined with
// its listing snapshot.
type ReservationWithListing struct {
	models.Reservation
	Listing models.Listing `json:"listing"`
}

type PostgresReservationRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresReservationRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresReservationRepo {
	return &PostgresReservationRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const reservationColumns = `id, listing_id, user_id, listing_owner_id, start_date, end_date, total_price, status, created_at`

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	var res models.Reservation
	err := row.Scan(
		&res.ID, &res.ListingID, &res.UserID, &res.ListingOwnerID,
		&res.StartDate, &res.EndDate, &res.TotalPrice, &res.Status, &res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CreateWithArchive relies on the partial unique index on live reservations
// to close the race between two simultaneous bookers: the second insert
// fails with a unique violation, never with silent double booking.
func (r *PostgresReservationRepo) CreateWithArchive(ctx context.Context, reservation *models.Reservation, rentalType models.RentalType) error {
	ctx, span := otel.Tracer("ReservationRepository").Start(ctx, "CreateWithArchive",
		trace.WithAttributes(
			attribute.String("listing_id", reservation.ListingID.String()),
			attribute.String("rental_type", string(rentalType)),
		))
	defer span.End()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("database error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	insert := `INSERT INTO reservations (listing_id, user_id, listing_owner_id, start_date, end_date, total_price, status)
	           VALUES ($1, $2, $3, $4, $5, $6, 'pending')
	           RETURNING id, status, created_at`
	err = tx.QueryRow(ctx, insert,
		reservation.ListingID, reservation.UserID, reservation.ListingOwnerID,
		reservation.StartDate, reservation.EndDate, reservation.TotalPrice,
	).Scan(&reservation.ID, &reservation.Status, &reservation.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			span.SetStatus(codes.Error, "Listing already reserved")
			return fmt.Errorf("listing %s already has a live reservation: %w", reservation.ListingID, models.ErrConflict)
		}
		span.RecordError(err)
		r.logger.Error("Failed to insert reservation", zap.Error(err), zap.String("listingID", reservation.ListingID.String()))
		return fmt.Errorf("database error creating reservation: %w", err)
	}

	if rentalType == models.RentalTypeRent {
		if _, err := tx.Exec(ctx,
			`UPDATE listings SET is_archived = TRUE, updated_at = NOW() WHERE id = $1`,
			reservation.ListingID); err != nil {
			span.RecordError(err)
			return fmt.Errorf("database error archiving listing: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("database error committing reservation: %w", err)
	}
	span.SetStatus(codes.Ok, "Reservation created")
	return nil
}

func (r *PostgresReservationRepo) Get(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	res, err := scanReservation(r.pgpool.QueryRow(ctx, query, reservationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("reservation %s not found: %w", reservationID, models.ErrNotFound)
		}
		r.logger.Error("Failed to get reservation", zap.Error(err), zap.String("reservationID", reservationID.String()))
		return nil, fmt.Errorf("database error fetching reservation: %w", err)
	}
	return res, nil
}

func (r *PostgresReservationRepo) Confirm(ctx context.Context, reservationID uuid.UUID, reArchiveListing bool) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("database error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var listingID uuid.UUID
	err = tx.QueryRow(ctx,
		`UPDATE reservations SET status = 'confirmed' WHERE id = $1 AND status = 'pending' RETURNING listing_id`,
		reservationID).Scan(&listingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either absent or not pending; the service disambiguates via Get.
			return fmt.Errorf("reservation %s is not pending: %w", reservationID, models.ErrConflict)
		}
		r.logger.Error("Failed to confirm reservation", zap.Error(err), zap.String("reservationID", reservationID.String()))
		return fmt.Errorf("database error confirming reservation: %w", err)
	}

	if reArchiveListing {
		if _, err := tx.Exec(ctx,
			`UPDATE listings SET is_archived = TRUE, updated_at = NOW() WHERE id = $1`, listingID); err != nil {
			return fmt.Errorf("database error archiving listing on confirm: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("database error committing confirmation: %w", err)
	}
	return nil
}

// DeleteWithReconcile keeps the delete and the invariant re-evaluation in
// one transaction so no second booker can slip into the gap and observe a
// stale archived flag.
func (r *PostgresReservationRepo) DeleteWithReconcile(ctx context.Context, reservationID, listingID uuid.UUID) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("database error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, reservationID)
	if err != nil {
		r.logger.Error("Failed to delete reservation", zap.Error(err), zap.String("reservationID", reservationID.String()))
		return fmt.Errorf("database error deleting reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reservation %s not found: %w", reservationID, models.ErrNotFound)
	}

	if _, _, err := listings.ReconcileArchive(ctx, tx, listingID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("database error committing deletion: %w", err)
	}
	return nil
}

func (r *PostgresReservationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*ReservationWithListing, error) {
	query := `
		SELECT r.id, r.listing_id, r.user_id, r.listing_owner_id, r.start_date, r.end_date,
		       r.total_price, r.status, r.created_at,
		       l.id, l.user_id, l.title, l.description, l.rental_type, l.price, l.is_archived,
		       l.created_at, l.updated_at
		FROM reservations r
		JOIN listings l ON l.id = r.listing_id
		WHERE r.user_id = $1 OR r.listing_owner_id = $1
		ORDER BY r.created_at DESC`

	rows, err := r.pgpool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list reservations", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("database error listing reservations: %w", err)
	}
	defer rows.Close()

	var out []*ReservationWithListing
	for rows.Next() {
		var rw ReservationWithListing
		err := rows.Scan(
			&rw.ID, &rw.ListingID, &rw.UserID, &rw.ListingOwnerID, &rw.StartDate, &rw.EndDate,
			&rw.TotalPrice, &rw.Status, &rw.CreatedAt,
			&rw.Listing.ID, &rw.Listing.UserID, &rw.Listing.Title, &rw.Listing.Description,
			&rw.Listing.RentalType, &rw.Listing.Price, &rw.Listing.IsArchived,
			&rw.Listing.CreatedAt, &rw.Listing.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning reservation row: %w", err)
		}
		out = append(out, &rw)
	}
	return out, rows.Err()
}
