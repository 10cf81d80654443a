package rung

import (
	"fmt"
	"sort"
	"sync"
)

// MigrationSource supplies the migrations known to the engine. ListAvailable
// must return them sorted by name with no duplicates; the engine treats the
// returned definitions as read-only.
type MigrationSource interface {
	ListAvailable() ([]*Migration, error)
}

// Registry is an in-memory MigrationSource populated by Register calls.
type Registry struct {
	mutex      sync.Mutex
	migrations []*Migration
	names      map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		names: make(map[string]struct{}),
	}
}

// Register validates and stores migrations. Registering a second migration
// under an existing name fails with ErrDuplicateMigration.
func (r *Registry) Register(migrations ...*Migration) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, m := range migrations {
		if err := m.validate(); err != nil {
			return err
		}
		if _, ok := r.names[m.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateMigration, m.Name)
		}
		r.names[m.Name] = struct{}{}
		r.migrations = append(r.migrations, m)
	}

	return nil
}

func (r *Registry) ListAvailable() ([]*Migration, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	out := make([]*Migration, len(r.migrations))
	copy(out, r.migrations)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}
