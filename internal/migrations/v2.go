package migrations

import (
	"context"
	"fmt"

	"github.com/encanta/encanta/internal/database/schema"
)

// AgentConfigsMigration adds per-workspace agent configuration
type AgentConfigsMigration struct{}

func (m *AgentConfigsMigration) Version() int { return 2 }

func (m *AgentConfigsMigration) Description() string { return "add agent_configs" }

func (m *AgentConfigsMigration) Up(ctx context.Context, db DBExecutor) error {
	if _, err := db.ExecContext(ctx, schema.AgentConfigsTable); err != nil {
		return fmt.Errorf("failed to create agent_configs table: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema.AgentConfigsDefaultIndex); err != nil {
		return fmt.Errorf("failed to create agent_configs default index: %w", err)
	}
	return nil
}

func init() {
	Register(&AgentConfigsMigration{})
}
