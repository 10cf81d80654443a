package rung

import (
	"log/slog"
)

type ManagerOption func(*Manager)

// WithLogger replaces the manager's logger. By default only errors are
// written to stderr.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithSource replaces the built-in registry with an external migration
// source, e.g. a DirSource over a migrations directory.
func WithSource(source MigrationSource) ManagerOption {
	return func(m *Manager) {
		m.source = source
		m.registry = nil
	}
}

// WithBackend replaces the dialect-derived SQL backend.
func WithBackend(backend SchemaBackend) ManagerOption {
	return func(m *Manager) {
		m.backend = backend
	}
}
