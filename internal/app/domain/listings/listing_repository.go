package listings

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
)

var _ Repository = (*PostgresListingRepo)(nil)

// Querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// so archival reconciliation can run inside a caller-owned transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository interface {
	Create(ctx context.Context, listing *models.Listing) error
	Get(ctx context.Context, listingID uuid.UUID) (*models.Listing, error)
	List(ctx context.Context, includeArchived bool) ([]*models.Listing, error)
	Update(ctx context.Context, listingID, ownerID uuid.UUID, params UpdateListingParams) error
	SetArchived(ctx context.Context, listingID uuid.UUID, archived bool) error
	Reconcile(ctx context.Context, listingID uuid.UUID) (changed bool, archived bool, err error)
	HasLiveConfirmedReservation(ctx context.Context, listingID uuid.UUID) (bool, error)
}

// UpdateListingParams carries only the fields the caller wants changed; nil
// means "leave as is". The update statement is built from the diff alone.
type UpdateListingParams struct {
	Title       *string
	Description *string
	Price       *float64
	RentalType  *models.RentalType
}

type PostgresListingRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresListingRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresListingRepo {
	return &PostgresListingRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const listingColumns = `id, user_id, title, description, rental_type, price, is_archived, created_at, updated_at`

func scanListing(row pgx.Row) (*models.Listing, error) {
	var l models.Listing
	err := row.Scan(&l.ID, &l.UserID, &l.Title, &l.Description, &l.RentalType, &l.Price, &l.IsArchived, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *PostgresListingRepo) Create(ctx context.Context, listing *models.Listing) error {
	query := `INSERT INTO listings (user_id, title, description, rental_type, price)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, is_archived, created_at, updated_at`
	err := r.pgpool.QueryRow(ctx, query,
		listing.UserID, listing.Title, listing.Description, listing.RentalType, listing.Price,
	).Scan(&listing.ID, &listing.IsArchived, &listing.CreatedAt, &listing.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create listing", zap.Error(err))
		return fmt.Errorf("database error creating listing: %w", err)
	}
	return nil
}

func (r *PostgresListingRepo) Get(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	listing, err := scanListing(r.pgpool.QueryRow(ctx, query, listingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("listing %s not found: %w", listingID, models.ErrNotFound)
		}
		r.logger.Error("Failed to get listing", zap.Error(err), zap.String("listingID", listingID.String()))
		return nil, fmt.Errorf("database error fetching listing: %w", err)
	}
	return listing, nil
}

func (r *PostgresListingRepo) List(ctx context.Context, includeArchived bool) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings`
	if !includeArchived {
		query += ` WHERE is_archived = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pgpool.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list listings", zap.Error(err))
		return nil, fmt.Errorf("database error listing listings: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning listing row: %w", err)
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

// Update builds the statement from the changed fields only; an empty diff is
// a no-op, not an error.
func (r *PostgresListingRepo) Update(ctx context.Context, listingID, ownerID uuid.UUID, params UpdateListingParams) error {
	builder := sq.Update("listings").PlaceholderFormat(sq.Dollar)

	if params.Title != nil {
		builder = builder.Set("title", *params.Title)
	}
	if params.Description != nil {
		builder = builder.Set("description", *params.Description)
	}
	if params.Price != nil {
		builder = builder.Set("price", *params.Price)
	}
	if params.RentalType != nil {
		builder = builder.Set("rental_type", *params.RentalType)
	}

	query, args, err := builder.
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": listingID, "user_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building listing update: %w", err)
	}

	tag, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update listing", zap.Error(err), zap.String("listingID", listingID.String()))
		return fmt.Errorf("database error updating listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listing %s not found for owner: %w", listingID, models.ErrNotFound)
	}
	return nil
}

func (r *PostgresListingRepo) SetArchived(ctx context.Context, listingID uuid.UUID, archived bool) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE listings SET is_archived = $2, updated_at = NOW() WHERE id = $1`, listingID, archived)
	if err != nil {
		r.logger.Error("Failed to set listing archived flag", zap.Error(err), zap.String("listingID", listingID.String()))
		return fmt.Errorf("database error archiving listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listing %s not found: %w", listingID, models.ErrNotFound)
	}
	return nil
}

// Reconcile recomputes the archived flag of a rent-type listing from its
// reservation rows and writes it only when it differs.
func (r *PostgresListingRepo) Reconcile(ctx context.Context, listingID uuid.UUID) (bool, bool, error) {
	return ReconcileArchive(ctx, r.pgpool, listingID)
}

func (r *PostgresListingRepo) HasLiveConfirmedReservation(ctx context.Context, listingID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pgpool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM reservations WHERE listing_id = $1 AND status = 'confirmed')`,
		listingID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("database error checking reservations: %w", err)
	}
	return exists, nil
}

// ReconcileArchive enforces the occupancy invariant for rent-type listings:
// archived iff at least one non-cancelled reservation exists. It is
// idempotent and writes nothing when the flag already matches. Runs against
// a pool or inside a transaction.
func ReconcileArchive(ctx context.Context, q Querier, listingID uuid.UUID) (changed bool, archived bool, err error) {
	query := `
		UPDATE listings
		SET is_archived = EXISTS(
			SELECT 1 FROM reservations r WHERE r.listing_id = listings.id AND r.status <> 'cancelled'
		), updated_at = NOW()
		WHERE id = $1
		  AND rental_type = 'rent'
		  AND is_archived <> EXISTS(
			SELECT 1 FROM reservations r WHERE r.listing_id = listings.id AND r.status <> 'cancelled'
		  )
		RETURNING is_archived`
	err = q.QueryRow(ctx, query, listingID).Scan(&archived)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already consistent (or not a rent-type listing).
			return false, false, nil
		}
		return false, false, fmt.Errorf("database error reconciling listing archive state: %w", err)
	}
	return true, archived, nil
}
