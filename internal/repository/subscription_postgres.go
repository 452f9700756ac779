package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/encanta/encanta/internal/domain"
)

var subscriptionColumns = []string{
	"id", "user_id", "stripe_customer_id", "stripe_subscription_id", "price_id", "plan",
	"status", "current_period_start", "current_period_end", "cancel_at_period_end",
	"created_at", "updated_at",
}

func scanSubscription(row rowScanner) (*domain.Subscription, error) {
	var s domain.Subscription
	var periodStart, periodEnd sql.NullTime
	err := row.Scan(
		&s.ID, &s.UserID, &s.StripeCustomerID, &s.StripeSubscriptionID, &s.PriceID, &s.Plan,
		&s.Status, &periodStart, &periodEnd, &s.CancelAtPeriodEnd,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if periodStart.Valid {
		s.CurrentPeriodStart = &periodStart.Time
	}
	if periodEnd.Valid {
		s.CurrentPeriodEnd = &periodEnd.Time
	}
	return &s, nil
}

type subscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository creates a new PostgreSQL subscription repository
func NewSubscriptionRepository(db *sql.DB) domain.SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// GetActiveByUserID reads at most two active rows so callers can tell whether
// the user unexpectedly holds more than one
func (r *subscriptionRepository) GetActiveByUserID(ctx context.Context, userID string) (*domain.Subscription, int, error) {
	query, args, err := psql.Select(subscriptionColumns...).
		From("subscriptions").
		Where(sq.Eq{
			"user_id": userID,
			"status":  []string{domain.SubscriptionStatusActive, domain.SubscriptionStatusTrialing},
		}).
		OrderBy("current_period_end DESC NULLS LAST", "updated_at DESC").
		Limit(2).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get active subscription: %w", err)
	}
	defer rows.Close()

	var first *domain.Subscription
	count := 0
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan subscription: %w", err)
		}
		if first == nil {
			first = sub
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating subscriptions: %w", err)
	}
	if first == nil {
		return nil, 0, &domain.ErrNotFound{Entity: "subscription", ID: userID}
	}
	return first, count, nil
}

func (r *subscriptionRepository) GetLatestByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	return r.getLatest(ctx, sq.Eq{"user_id": userID}, userID)
}

func (r *subscriptionRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.Subscription, error) {
	return r.getLatest(ctx, sq.Eq{"stripe_customer_id": customerID}, customerID)
}

func (r *subscriptionRepository) getLatest(ctx context.Context, where sq.Eq, key string) (*domain.Subscription, error) {
	query, args, err := psql.Select(subscriptionColumns...).
		From("subscriptions").
		Where(where).
		OrderBy("updated_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	sub, err := scanSubscription(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Entity: "subscription", ID: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

// Upsert inserts the subscription or refreshes the row with the same Stripe
// subscription id. The owning user of an existing row is never changed.
func (r *subscriptionRepository) Upsert(ctx context.Context, s *domain.Subscription) error {
	now := time.Now().UTC()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	query, args, err := psql.Insert("subscriptions").
		Columns(subscriptionColumns...).
		Values(
			s.ID, s.UserID, s.StripeCustomerID, s.StripeSubscriptionID, s.PriceID, s.Plan,
			s.Status, s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CancelAtPeriodEnd,
			s.CreatedAt, s.UpdatedAt,
		).
		Suffix(`ON CONFLICT (stripe_subscription_id) DO UPDATE SET
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			price_id = EXCLUDED.price_id,
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return writeError("upsert", "subscription", err)
	}
	return nil
}
