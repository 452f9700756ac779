package migrations

import (
	"context"
	"fmt"

	"github.com/encanta/encanta/internal/database/schema"
)

// SubscriptionPriceMigration stores the Stripe price on subscriptions and adds
// the lookup indexes used by the subscription repository
type SubscriptionPriceMigration struct{}

func (m *SubscriptionPriceMigration) Version() int { return 3 }

func (m *SubscriptionPriceMigration) Description() string {
	return "add subscriptions.price_id and lookup indexes"
}

func (m *SubscriptionPriceMigration) Up(ctx context.Context, db DBExecutor) error {
	_, err := db.ExecContext(ctx, `
		ALTER TABLE subscriptions
		ADD COLUMN IF NOT EXISTS price_id VARCHAR(255) NOT NULL DEFAULT ''
	`)
	if err != nil {
		return fmt.Errorf("failed to add price_id column to subscriptions: %w", err)
	}

	for _, stmt := range []string{schema.SubscriptionsUserIndex, schema.SubscriptionsCustomerIndex} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create subscriptions index: %w", err)
		}
	}
	return nil
}

func init() {
	Register(&SubscriptionPriceMigration{})
}
