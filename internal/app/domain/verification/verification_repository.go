package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
)

var _ Repository = (*PostgresVerificationRepo)(nil)

type Repository interface {
	SubmitID(ctx context.Context, userID uuid.UUID, front, back, idType string) (*models.User, error)
	// MarkVerified promotes the user in a single statement: id_status and
	// role change together, so no reader ever sees one without the other.
	MarkVerified(ctx context.Context, userID uuid.UUID, front, back, idType string) (*models.User, error)
	MarkRejected(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type PostgresVerificationRepo struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresVerificationRepo(pgpool *pgxpool.Pool, logger *zap.Logger) *PostgresVerificationRepo {
	return &PostgresVerificationRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const userColumns = `id, username, email, password_hash, role, plan, id_status, id_front, id_back, id_type, stripe_customer_id, is_archived, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Plan,
		&u.IDStatus, &u.IDFront, &u.IDBack, &u.IDType, &u.StripeCustomerID,
		&u.IsArchived, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresVerificationRepo) SubmitID(ctx context.Context, userID uuid.UUID, front, back, idType string) (*models.User, error) {
	query := `UPDATE users
	          SET id_status = 'pending', id_front = $1, id_back = $2, id_type = $3, updated_at = NOW()
	          WHERE id = $4
	          RETURNING ` + userColumns
	user, err := scanUser(r.pgpool.QueryRow(ctx, query, front, back, idType, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s not found: %w", userID, models.ErrNotFound)
		}
		r.logger.Error("Failed to submit id documents", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("database error submitting id documents: %w", err)
	}
	return user, nil
}

func (r *PostgresVerificationRepo) MarkVerified(ctx context.Context, userID uuid.UUID, front, back, idType string) (*models.User, error) {
	query := `UPDATE users
	          SET id_status = 'verified', role = 'LESSOR', id_front = $1, id_back = $2, id_type = $3, updated_at = NOW()
	          WHERE id = $4
	          RETURNING ` + userColumns
	user, err := scanUser(r.pgpool.QueryRow(ctx, query, front, back, idType, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s not found: %w", userID, models.ErrNotFound)
		}
		r.logger.Error("Failed to verify user", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("database error verifying user: %w", err)
	}
	return user, nil
}

func (r *PostgresVerificationRepo) MarkRejected(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `UPDATE users
	          SET id_status = 'rejected', updated_at = NOW()
	          WHERE id = $1
	          RETURNING ` + userColumns
	user, err := scanUser(r.pgpool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s not found: %w", userID, models.ErrNotFound)
		}
		r.logger.Error("Failed to reject user verification", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("database error rejecting user verification: %w", err)
	}
	return user, nil
}
