// Package schema holds the current database schema. Fresh installs create it
// directly; existing databases reach it through internal/migrations.
package schema

// TableDefinitions contains the statements creating every table at the latest
// schema version, in dependency order
var TableDefinitions = []string{
	`CREATE TABLE IF NOT EXISTS settings (
		key VARCHAR(255) PRIMARY KEY,
		value TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS workspaces (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(64) NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		user_id VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS team_members (
		id UUID PRIMARY KEY,
		workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		user_id VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL CHECK (role IN ('owner', 'admin', 'editor', 'viewer')),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (workspace_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_team_members_user_id ON team_members (user_id)`,
	`CREATE TABLE IF NOT EXISTS brand_profiles (
		id UUID PRIMARY KEY,
		workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		brand_voice TEXT NOT NULL DEFAULT '',
		target_audience TEXT NOT NULL DEFAULT '',
		key_messages TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_brand_profiles_workspace_id ON brand_profiles (workspace_id)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		brand_profile_id UUID REFERENCES brand_profiles(id) ON DELETE SET NULL,
		title VARCHAR(255) NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		type VARCHAR(20) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'draft',
		created_by VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_workspace_id ON documents (workspace_id)`,
	`CREATE TABLE IF NOT EXISTS content_projects (
		id UUID PRIMARY KEY,
		workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		brand_profile_id UUID REFERENCES brand_profiles(id) ON DELETE SET NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_by VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_content_projects_workspace_id ON content_projects (workspace_id)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id UUID PRIMARY KEY,
		document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		user_id VARCHAR(255) NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_document_id ON comments (document_id)`,
	`CREATE TABLE IF NOT EXISTS knowledge_files (
		id UUID PRIMARY KEY,
		workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		file_url TEXT NOT NULL,
		file_type VARCHAR(20) NOT NULL,
		uploaded_by VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_knowledge_files_workspace_id ON knowledge_files (workspace_id)`,
	AgentConfigsTable,
	AgentConfigsDefaultIndex,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id UUID PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		stripe_customer_id VARCHAR(255) NOT NULL,
		stripe_subscription_id VARCHAR(255) NOT NULL UNIQUE,
		price_id VARCHAR(255) NOT NULL DEFAULT '',
		plan VARCHAR(20) NOT NULL DEFAULT 'free',
		status VARCHAR(32) NOT NULL,
		current_period_start TIMESTAMP,
		current_period_end TIMESTAMP,
		cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	SubscriptionsUserIndex,
	SubscriptionsCustomerIndex,
}

// Statements shared with the migrations that introduced them

const AgentConfigsTable = `CREATE TABLE IF NOT EXISTS agent_configs (
		id UUID PRIMARY KEY,
		workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		agent_type VARCHAR(20) NOT NULL,
		name VARCHAR(255) NOT NULL,
		instructions TEXT NOT NULL,
		examples JSONB NOT NULL DEFAULT '[]'::jsonb,
		parameters JSONB NOT NULL DEFAULT '{}'::jsonb,
		is_default BOOLEAN NOT NULL DEFAULT FALSE,
		created_by VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`

// AgentConfigsDefaultIndex enforces a single default config per workspace and agent type
const AgentConfigsDefaultIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_agent_configs_default
		ON agent_configs (workspace_id, agent_type) WHERE is_default`

const SubscriptionsUserIndex = `CREATE INDEX IF NOT EXISTS idx_subscriptions_user_status
		ON subscriptions (user_id, status)`

const SubscriptionsCustomerIndex = `CREATE INDEX IF NOT EXISTS idx_subscriptions_customer_id
		ON subscriptions (stripe_customer_id)`

// TableNames lists tables in reverse dependency order, for cleanup
var TableNames = []string{
	"subscriptions",
	"agent_configs",
	"knowledge_files",
	"comments",
	"content_projects",
	"documents",
	"brand_profiles",
	"team_members",
	"workspaces",
	"settings",
}
