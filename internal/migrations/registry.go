package migrations

import (
	"sort"
	"sync"
)

// BaselineVersion is the schema version before any registered migration
const BaselineVersion = 1

// DefaultRegistry is the global migration registry
var DefaultRegistry = NewRegistry()

// Registry implements MigrationRegistry
type Registry struct {
	mu         sync.RWMutex
	migrations map[int]Migration
}

func NewRegistry() *Registry {
	return &Registry{migrations: make(map[int]Migration)}
}

// Register adds a migration. Registering the same version twice replaces it.
func (r *Registry) Register(migration Migration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.migrations[migration.Version()] = migration
}

// GetMigrations returns all registered migrations sorted by version
func (r *Registry) GetMigrations() []Migration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	migrations := make([]Migration, 0, len(r.migrations))
	for _, migration := range r.migrations {
		migrations = append(migrations, migration)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version() < migrations[j].Version()
	})
	return migrations
}

// LatestVersion is the highest registered version, or BaselineVersion when empty
func (r *Registry) LatestVersion() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := BaselineVersion
	for v := range r.migrations {
		if v > latest {
			latest = v
		}
	}
	return latest
}

// Register is a convenience function to register migrations with the default registry
func Register(migration Migration) {
	DefaultRegistry.Register(migration)
}
