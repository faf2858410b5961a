package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
)

var _ Repository = (*PostgresBillingRepo)(nil)

type Repository interface {
	// Manual GCash channel.
	CreateGcashPayment(ctx context.Context, payment *models.GcashPayment) error
	GetGcashPayment(ctx context.Context, paymentID uuid.UUID) (*models.GcashPayment, error)
	ListGcashPayments(ctx context.Context, status *models.GcashStatus) ([]*models.GcashPayment, error)
	// ApproveGcashPayment runs the subscription upsert, the payment state
	// change and the user plan change as one transaction.
	ApproveGcashPayment(ctx context.Context, paymentID uuid.UUID) (*models.Subscription, error)
	DeclineGcashPayment(ctx context.Context, paymentID uuid.UUID) error

	// Webhook channel. Upserts are guarded by the provider event timestamp
	// so a stale replayed event never overwrites newer state.
	UpsertSubscriptionFromEvent(ctx context.Context, params SubscriptionEventParams) (*models.Subscription, error)
	ExpireSubscriptionsByCustomer(ctx context.Context, stripeCustomerID string, eventTS int64) error
	GetUserIDByEmail(ctx context.Context, email string) (uuid.UUID, error)

	// Ledger reads and the explicit user-driven cancellation.
	GetSubscriptionByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	CancelSubscription(ctx context.Context, userID uuid.UUID) error

	// Admin-managed plan catalog.
	ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error)
	CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error
	UpdatePlan(ctx context.Context, plan *models.SubscriptionPlan) error
}

// SubscriptionEventParams carries everything a checkout.session.completed
// event contributes to the ledger.
type SubscriptionEventParams struct {
	UserID           uuid.UUID
	Plan             models.Plan
	Period           models.BillingPeriod
	EventTS          int64
	StripeCustomerID string
}

// DB is the pool surface the repo needs. *pgxpool.Pool satisfies it, and so
// does a pgxmock pool in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresBillingRepo struct {
	logger *zap.Logger
	pgpool DB
}

func NewPostgresBillingRepo(pgpool DB, logger *zap.Logger) *PostgresBillingRepo {
	return &PostgresBillingRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const gcashColumns = `id, user_id, plan, billing_period, price, receipt_ref, status, subscription_id, created_at, reviewed_at`

func scanGcashPayment(row pgx.Row) (*models.GcashPayment, error) {
	var p models.GcashPayment
	err := row.Scan(
		&p.ID, &p.UserID, &p.Plan, &p.BillingPeriod, &p.Price, &p.ReceiptRef,
		&p.Status, &p.SubscriptionID, &p.CreatedAt, &p.ReviewedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const subscriptionColumns = `id, user_id, plan, period, status, start_date, end_date, payment_method_type, provider_event_ts, created_at, updated_at`

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var s models.Subscription
	err := row.Scan(
		&s.ID, &s.UserID, &s.Plan, &s.Period, &s.Status, &s.StartDate, &s.EndDate,
		&s.PaymentMethodType, &s.ProviderEventTS, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateGcashPayment relies on the partial unique index on pending payments:
// a second submission while one is pending fails with a unique violation
// instead of a read-then-write race.
func (r *PostgresBillingRepo) CreateGcashPayment(ctx context.Context, payment *models.GcashPayment) error {
	query := `INSERT INTO gcash_payments (user_id, plan, billing_period, price, receipt_ref, status)
	          VALUES ($1, $2, $3, $4, $5, 'PENDING')
	          RETURNING id, status, created_at`
	err := r.pgpool.QueryRow(ctx, query,
		payment.UserID, payment.Plan, payment.BillingPeriod, payment.Price, payment.ReceiptRef,
	).Scan(&payment.ID, &payment.Status, &payment.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("user %s already has a pending payment: %w", payment.UserID, models.ErrConflict)
		}
		r.logger.Error("Failed to create gcash payment", zap.Error(err), zap.String("userID", payment.UserID.String()))
		return fmt.Errorf("database error creating gcash payment: %w", err)
	}
	return nil
}

func (r *PostgresBillingRepo) GetGcashPayment(ctx context.Context, paymentID uuid.UUID) (*models.GcashPayment, error) {
	query := `SELECT ` + gcashColumns + ` FROM gcash_payments WHERE id = $1`
	p, err := scanGcashPayment(r.pgpool.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payment %s not found: %w", paymentID, models.ErrNotFound)
		}
		r.logger.Error("Failed to get gcash payment", zap.Error(err), zap.String("paymentID", paymentID.String()))
		return nil, fmt.Errorf("database error fetching gcash payment: %w", err)
	}
	return p, nil
}

func (r *PostgresBillingRepo) ListGcashPayments(ctx context.Context, status *models.GcashStatus) ([]*models.GcashPayment, error) {
	builder := sq.Select(gcashColumns).
		From("gcash_payments").
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar)
	if status != nil {
		builder = builder.Where(sq.Eq{"status": *status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building gcash payment query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list gcash payments", zap.Error(err))
		return nil, fmt.Errorf("database error listing gcash payments: %w", err)
	}
	defer rows.Close()

	var out []*models.GcashPayment
	for rows.Next() {
		p, err := scanGcashPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning gcash payment row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// periodWindow maps a billing period string to its canonical period and the
// entitlement end date.
func periodWindow(billingPeriod string, from time.Time) (models.BillingPeriod, time.Time) {
	if billingPeriod == string(models.PeriodYearly) {
		return models.PeriodYearly, from.AddDate(1, 0, 0)
	}
	return models.PeriodQuarterly, from.AddDate(0, 3, 0)
}

// ApproveGcashPayment moves a payment to COMPLETED and materializes the
// entitlement it paid for. Everything happens in one transaction: the
// subscription upsert, the payment state change with the subscription link,
// and the user plan update. COMPLETED and DECLINED are terminal, so any
// payment that already left PENDING is rejected before any write.
func (r *PostgresBillingRepo) ApproveGcashPayment(ctx context.Context, paymentID uuid.UUID) (*models.Subscription, error) {
	ctx, span := otel.Tracer("BillingRepository").Start(ctx, "ApproveGcashPayment",
		trace.WithAttributes(attribute.String("payment_id", paymentID.String())))
	defer span.End()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("database error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var payment models.GcashPayment
	err = tx.QueryRow(ctx,
		`SELECT id, user_id, plan, billing_period, status FROM gcash_payments WHERE id = $1 FOR UPDATE`,
		paymentID,
	).Scan(&payment.ID, &payment.UserID, &payment.Plan, &payment.BillingPeriod, &payment.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payment %s not found: %w", paymentID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("database error locking gcash payment: %w", err)
	}
	if payment.Status != models.GcashPending {
		span.SetStatus(codes.Error, "Payment already reviewed")
		return nil, fmt.Errorf("payment %s is already %s: %w", paymentID, payment.Status, models.ErrInvalidState)
	}

	now := time.Now()
	period, endDate := periodWindow(payment.BillingPeriod, now)

	// The approval time becomes the row's event timestamp so a redelivered
	// provider deletion event from before the approval cannot expire the
	// subscription the admin just activated.
	upsert := `INSERT INTO subscriptions (user_id, plan, period, status, start_date, end_date, payment_method_type, provider_event_ts)
	           VALUES ($1, $2, $3, 'ACTIVE', $4, $5, 'gcash', $6)
	           ON CONFLICT (user_id) DO UPDATE SET
	               plan = EXCLUDED.plan,
	               period = EXCLUDED.period,
	               status = 'ACTIVE',
	               start_date = EXCLUDED.start_date,
	               end_date = EXCLUDED.end_date,
	               payment_method_type = 'gcash',
	               provider_event_ts = EXCLUDED.provider_event_ts,
	               updated_at = NOW()
	           RETURNING ` + subscriptionColumns
	sub, err := scanSubscription(tx.QueryRow(ctx, upsert, payment.UserID, payment.Plan, period, now, endDate, now.Unix()))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error upserting subscription: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE gcash_payments SET status = 'COMPLETED', subscription_id = $1, reviewed_at = NOW() WHERE id = $2`,
		sub.ID, paymentID); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error completing gcash payment: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET plan = $1, updated_at = NOW() WHERE id = $2`,
		payment.Plan, payment.UserID); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error updating user plan: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("database error committing approval: %w", err)
	}
	span.SetStatus(codes.Ok, "Payment approved")
	return sub, nil
}

// DeclineGcashPayment marks the payment DECLINED with no ledger side effects.
// Only a PENDING payment can be declined.
func (r *PostgresBillingRepo) DeclineGcashPayment(ctx context.Context, paymentID uuid.UUID) error {
	var status models.GcashStatus
	err := r.pgpool.QueryRow(ctx,
		`SELECT status FROM gcash_payments WHERE id = $1`, paymentID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("payment %s not found: %w", paymentID, models.ErrNotFound)
		}
		return fmt.Errorf("database error fetching gcash payment: %w", err)
	}
	if status != models.GcashPending {
		return fmt.Errorf("payment %s is already %s: %w", paymentID, status, models.ErrInvalidState)
	}

	_, err = r.pgpool.Exec(ctx,
		`UPDATE gcash_payments SET status = 'DECLINED', reviewed_at = NOW() WHERE id = $1 AND status = 'PENDING'`,
		paymentID)
	if err != nil {
		r.logger.Error("Failed to decline gcash payment", zap.Error(err), zap.String("paymentID", paymentID.String()))
		return fmt.Errorf("database error declining gcash payment: %w", err)
	}
	return nil
}

// UpsertSubscriptionFromEvent applies a checkout-completed event. The upsert
// only wins when the stored provider_event_ts is not newer than the event's,
// which makes replays idempotent and keeps a stale completed event from
// resurrecting a subscription a later deletion event already expired.
// Returns (nil, nil) when the event was stale and nothing changed.
func (r *PostgresBillingRepo) UpsertSubscriptionFromEvent(ctx context.Context, params SubscriptionEventParams) (*models.Subscription, error) {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("database error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now()
	var endDate time.Time
	if params.Period == models.PeriodYearly {
		endDate = now.AddDate(1, 0, 0)
	} else {
		endDate = now.AddDate(0, 3, 0)
	}

	upsert := `INSERT INTO subscriptions (user_id, plan, period, status, start_date, end_date, payment_method_type, provider_event_ts)
	           VALUES ($1, $2, $3, 'ACTIVE', $4, $5, 'stripe', $6)
	           ON CONFLICT (user_id) DO UPDATE SET
	               plan = EXCLUDED.plan,
	               period = EXCLUDED.period,
	               status = 'ACTIVE',
	               start_date = EXCLUDED.start_date,
	               end_date = EXCLUDED.end_date,
	               payment_method_type = 'stripe',
	               provider_event_ts = EXCLUDED.provider_event_ts,
	               updated_at = NOW()
	           WHERE subscriptions.provider_event_ts <= EXCLUDED.provider_event_ts
	           RETURNING ` + subscriptionColumns
	sub, err := scanSubscription(tx.QueryRow(ctx, upsert,
		params.UserID, params.Plan, params.Period, now, endDate, params.EventTS))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A newer event already wrote this row.
			r.logger.Info("Skipping stale subscription event",
				zap.String("userID", params.UserID.String()),
				zap.Int64("eventTS", params.EventTS))
			return nil, nil
		}
		r.logger.Error("Failed to upsert subscription", zap.Error(err), zap.String("userID", params.UserID.String()))
		return nil, fmt.Errorf("database error upserting subscription: %w", err)
	}

	// Customer id is recorded on first sight only, never overwritten.
	if _, err := tx.Exec(ctx,
		`UPDATE users SET plan = $1, stripe_customer_id = COALESCE(stripe_customer_id, $2), updated_at = NOW() WHERE id = $3`,
		params.Plan, params.StripeCustomerID, params.UserID); err != nil {
		return nil, fmt.Errorf("database error updating user plan: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("database error committing subscription upsert: %w", err)
	}
	return sub, nil
}

// ExpireSubscriptionsByCustomer applies a subscription-deleted event: the
// user's subscription rows go EXPIRED and the plan drops back to free. The
// event timestamp is stamped on the row so stale completed events processed
// afterwards lose the upsert guard.
func (r *PostgresBillingRepo) ExpireSubscriptionsByCustomer(ctx context.Context, stripeCustomerID string, eventTS int64) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("database error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var userID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM users WHERE stripe_customer_id = $1`, stripeCustomerID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("no user for stripe customer %s: %w", stripeCustomerID, models.ErrNotFound)
		}
		return fmt.Errorf("database error resolving stripe customer: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE subscriptions SET status = 'EXPIRED', provider_event_ts = $1, updated_at = NOW()
		 WHERE user_id = $2 AND provider_event_ts <= $1`,
		eventTS, userID)
	if err != nil {
		return fmt.Errorf("database error expiring subscriptions: %w", err)
	}

	// The plan only drops when the expiry actually applied. A stale deletion
	// event must not strip the plan a newer event or approval granted.
	if tag.RowsAffected() > 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE users SET plan = 'free', updated_at = NOW() WHERE id = $1`, userID); err != nil {
			return fmt.Errorf("database error resetting user plan: %w", err)
		}
	} else {
		r.logger.Info("Skipping stale subscription deletion",
			zap.String("stripeCustomerID", stripeCustomerID),
			zap.Int64("eventTS", eventTS))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("database error committing expiry: %w", err)
	}
	return nil
}

func (r *PostgresBillingRepo) GetUserIDByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.pgpool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("no user with email %s: %w", email, models.ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("database error resolving user by email: %w", err)
	}
	return userID, nil
}

func (r *PostgresBillingRepo) GetSubscriptionByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1`
	sub, err := scanSubscription(r.pgpool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no subscription for user %s: %w", userID, models.ErrNotFound)
		}
		r.logger.Error("Failed to get subscription", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("database error fetching subscription: %w", err)
	}
	return sub, nil
}

// CancelSubscription is the explicit user action: status CANCELLED and plan
// back to free in one transaction.
func (r *PostgresBillingRepo) CancelSubscription(ctx context.Context, userID uuid.UUID) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("database error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var subID uuid.UUID
	err = tx.QueryRow(ctx,
		`UPDATE subscriptions SET status = 'CANCELLED', updated_at = NOW()
		 WHERE user_id = $1 AND status = 'ACTIVE' RETURNING id`,
		userID).Scan(&subID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("no active subscription for user %s: %w", userID, models.ErrNotFound)
		}
		return fmt.Errorf("database error cancelling subscription: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET plan = 'free', updated_at = NOW() WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("database error resetting user plan: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("database error committing cancellation: %w", err)
	}
	return nil
}

const planColumns = `id, name, price, annual_price, features, created_at, updated_at`

func scanPlan(row pgx.Row) (*models.SubscriptionPlan, error) {
	var p models.SubscriptionPlan
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.AnnualPrice, &p.Features, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresBillingRepo) ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT `+planColumns+` FROM subscription_plans ORDER BY price ASC`)
	if err != nil {
		r.logger.Error("Failed to list plans", zap.Error(err))
		return nil, fmt.Errorf("database error listing plans: %w", err)
	}
	defer rows.Close()

	var out []*models.SubscriptionPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning plan row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresBillingRepo) CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	query := `INSERT INTO subscription_plans (name, price, annual_price, features)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, created_at, updated_at`
	err := r.pgpool.QueryRow(ctx, query,
		plan.Name, plan.Price, plan.AnnualPrice, plan.Features,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("plan %q already exists: %w", plan.Name, models.ErrConflict)
		}
		r.logger.Error("Failed to create plan", zap.Error(err), zap.String("plan", plan.Name))
		return fmt.Errorf("database error creating plan: %w", err)
	}
	return nil
}

func (r *PostgresBillingRepo) UpdatePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	query := `UPDATE subscription_plans
	          SET name = $1, price = $2, annual_price = $3, features = $4, updated_at = NOW()
	          WHERE id = $5
	          RETURNING updated_at`
	err := r.pgpool.QueryRow(ctx, query,
		plan.Name, plan.Price, plan.AnnualPrice, plan.Features, plan.ID,
	).Scan(&plan.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("plan %s not found: %w", plan.ID, models.ErrNotFound)
		}
		r.logger.Error("Failed to update plan", zap.Error(err), zap.String("planID", plan.ID.String()))
		return fmt.Errorf("database error updating plan: %w", err)
	}
	return nil
}
