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

var agentConfigMapping = tableMapping[domain.AgentConfig, domain.AgentConfigPatch]{
	entity: "agent config",
	table:  "agent_configs",
	columns: []string{
		"id", "workspace_id", "agent_type", "name", "instructions", "examples",
		"parameters", "is_default", "created_by", "created_at", "updated_at",
	},
	scope: "workspace_id",
	filters: map[string]string{
		"agent_type": "agent_type",
	},
	values: func(a *domain.AgentConfig) []interface{} {
		return []interface{}{
			a.ID, a.WorkspaceID, a.AgentType, a.Name, a.Instructions, a.Examples,
			a.Parameters, a.IsDefault, a.CreatedBy, a.CreatedAt, a.UpdatedAt,
		}
	},
	scan: func(row rowScanner) (*domain.AgentConfig, error) {
		var a domain.AgentConfig
		err := row.Scan(
			&a.ID, &a.WorkspaceID, &a.AgentType, &a.Name, &a.Instructions, &a.Examples,
			&a.Parameters, &a.IsDefault, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		return &a, nil
	},
	changes: func(p domain.AgentConfigPatch) []change {
		var cs []change
		if p.Name != nil {
			cs = append(cs, change{"name", *p.Name})
		}
		if p.Instructions != nil {
			cs = append(cs, change{"instructions", *p.Instructions})
		}
		if p.Examples != nil {
			cs = append(cs, change{"examples", *p.Examples})
		}
		if p.Parameters != nil {
			cs = append(cs, change{"parameters", *p.Parameters})
		}
		if p.IsDefault != nil {
			cs = append(cs, change{"is_default", *p.IsDefault})
		}
		return cs
	},
}

// AgentConfigRepository stores agent configs. Marking a config as default
// clears the flag on its siblings in the same transaction.
type AgentConfigRepository struct {
	*pgResource[domain.AgentConfig, domain.AgentConfigPatch]
}

func NewAgentConfigRepository(db *sql.DB) *AgentConfigRepository {
	return &AgentConfigRepository{pgResource: newPGResource(db, agentConfigMapping)}
}

func (r *AgentConfigRepository) Insert(ctx context.Context, config *domain.AgentConfig) error {
	if !config.IsDefault {
		return r.insert(ctx, r.db, config)
	}

	return withTransaction(ctx, r.db, func(tx *sql.Tx) error {
		if err := clearDefaults(ctx, tx, config.WorkspaceID, config.AgentType, ""); err != nil {
			return err
		}
		return r.insert(ctx, tx, config)
	})
}

func (r *AgentConfigRepository) Update(ctx context.Context, id string, patch domain.AgentConfigPatch) (*domain.AgentConfig, error) {
	if patch.IsDefault == nil || !*patch.IsDefault {
		return r.update(ctx, r.db, id, patch)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, r.notFound(id)
	}

	var updated *domain.AgentConfig
	err := withTransaction(ctx, r.db, func(tx *sql.Tx) error {
		query, args, err := psql.Select("workspace_id", "agent_type").
			From("agent_configs").
			Where(sq.Eq{"id": id}).
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build query: %w", err)
		}

		var workspaceID string
		var agentType domain.AgentType
		err = tx.QueryRowContext(ctx, query, args...).Scan(&workspaceID, &agentType)
		if errors.Is(err, sql.ErrNoRows) {
			return r.notFound(id)
		}
		if err != nil {
			return fmt.Errorf("failed to get agent config: %w", err)
		}

		if err := clearDefaults(ctx, tx, workspaceID, agentType, id); err != nil {
			return err
		}

		updated, err = r.update(ctx, tx, id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// clearDefaults unsets is_default on every config of the given type, except keepID
func clearDefaults(ctx context.Context, tx *sql.Tx, workspaceID string, agentType domain.AgentType, keepID string) error {
	builder := psql.Update("agent_configs").
		Set("is_default", false).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"workspace_id": workspaceID, "agent_type": agentType, "is_default": true})
	if keepID != "" {
		builder = builder.Where(sq.NotEq{"id": keepID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear default agent configs: %w", err)
	}
	return nil
}
