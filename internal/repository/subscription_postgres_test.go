package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/internal/repository/testutil"
)

var subscriptionRowColumns = []string{
	"id", "user_id", "stripe_customer_id", "stripe_subscription_id", "price_id", "plan",
	"status", "current_period_start", "current_period_end", "cancel_at_period_end",
	"created_at", "updated_at",
}

func addSubscriptionRow(rows *sqlmock.Rows, id, subID string, periodEnd interface{}) *sqlmock.Rows {
	now := time.Now().UTC()
	return rows.AddRow(id, "user_1", "cus_1", subID, "price_pro", "pro", "active", now, periodEnd, false, now, now)
}

func TestSubscriptionRepository_GetActiveByUserID(t *testing.T) {
	t.Run("returns the latest active row and the count", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		later := time.Now().Add(30 * 24 * time.Hour).UTC()
		rows := sqlmock.NewRows(subscriptionRowColumns)
		addSubscriptionRow(rows, "s1", "sub_new", later)
		addSubscriptionRow(rows, "s2", "sub_old", time.Now().UTC())

		mock.ExpectQuery(`FROM subscriptions WHERE .*status IN \(\$1,\$2\) AND user_id = \$3\)? ORDER BY current_period_end DESC NULLS LAST, updated_at DESC LIMIT 2`).
			WithArgs("active", "trialing", "user_1").
			WillReturnRows(rows)

		sub, count, err := NewSubscriptionRepository(db).GetActiveByUserID(context.Background(), "user_1")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Equal(t, "sub_new", sub.StripeSubscriptionID)
		require.NotNil(t, sub.CurrentPeriodEnd)
		assert.Equal(t, domain.PlanPro, sub.Plan)
		testutil.ExpectationsMet(t, mock)
	})

	t.Run("no active row is not found", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		mock.ExpectQuery(`FROM subscriptions`).WillReturnRows(sqlmock.NewRows(subscriptionRowColumns))

		_, count, err := NewSubscriptionRepository(db).GetActiveByUserID(context.Background(), "user_1")
		assert.True(t, domain.IsNotFound(err))
		assert.Zero(t, count)
		testutil.ExpectationsMet(t, mock)
	})

	t.Run("null period end scans as nil", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		mock.ExpectQuery(`FROM subscriptions`).
			WillReturnRows(addSubscriptionRow(sqlmock.NewRows(subscriptionRowColumns), "s1", "sub_1", nil))

		sub, count, err := NewSubscriptionRepository(db).GetActiveByUserID(context.Background(), "user_1")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Nil(t, sub.CurrentPeriodEnd)
		assert.NotNil(t, sub.CurrentPeriodStart)
	})
}

func TestSubscriptionRepository_GetByStripeCustomerID(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`FROM subscriptions WHERE stripe_customer_id = \$1 ORDER BY updated_at DESC LIMIT 1`).
		WithArgs("cus_1").
		WillReturnRows(addSubscriptionRow(sqlmock.NewRows(subscriptionRowColumns), "s1", "sub_1", nil))

	sub, err := NewSubscriptionRepository(db).GetByStripeCustomerID(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "user_1", sub.UserID)
	testutil.ExpectationsMet(t, mock)
}

func TestSubscriptionRepository_GetLatestByUserID_NotFound(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`FROM subscriptions WHERE user_id = \$1`).
		WithArgs("user_9").
		WillReturnRows(sqlmock.NewRows(subscriptionRowColumns))

	_, err := NewSubscriptionRepository(db).GetLatestByUserID(context.Background(), "user_9")
	assert.True(t, domain.IsNotFound(err))
	testutil.ExpectationsMet(t, mock)
}

func TestSubscriptionRepository_Upsert(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	end := time.Now().Add(time.Hour).UTC()
	sub := &domain.Subscription{
		UserID:               "user_1",
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: "sub_1",
		PriceID:              "price_pro",
		Plan:                 domain.PlanPro,
		Status:               domain.SubscriptionStatusActive,
		CurrentPeriodEnd:     &end,
	}

	mock.ExpectExec(`INSERT INTO subscriptions .* ON CONFLICT \(stripe_subscription_id\) DO UPDATE SET`).
		WithArgs(
			sqlmock.AnyArg(), "user_1", "cus_1", "sub_1", "price_pro", "pro",
			"active", nil, sqlmock.AnyArg(), false, sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, NewSubscriptionRepository(db).Upsert(context.Background(), sub))
	assert.NotEmpty(t, sub.ID)
	assert.False(t, sub.CreatedAt.IsZero())
	testutil.ExpectationsMet(t, mock)
}
