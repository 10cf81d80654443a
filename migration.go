package rung

import (
	"fmt"
	"regexp"
)

// Migration is a named, ordered, reversible unit of structural change.
// Migrations are immutable once registered; the engine orders them
// lexicographically by Name, so names must sort in creation order
// (the usual convention is a zero-padded counter or timestamp prefix,
// e.g. "0001_create_users").
type Migration struct {
	Name        string
	Description string

	Forward  []Operation
	Backward []Operation

	// Irreversible marks a migration that deliberately has no backward
	// sequence (a destructive change whose inverse cannot restore data).
	// Rolling such a migration back is a reported error, never a no-op.
	Irreversible bool
}

var migrationNamePattern = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z_.-]*$`)

// Reversible reports whether the migration carries a backward sequence.
func (m *Migration) Reversible() bool {
	return !m.Irreversible && len(m.Backward) > 0
}

func (m *Migration) validate() error {
	if m.Name == "" {
		return fmt.Errorf("migration without a name")
	}
	if !migrationNamePattern.MatchString(m.Name) {
		return fmt.Errorf("migration %s: name must contain only letters, digits, '_', '.' and '-'", m.Name)
	}
	if len(m.Forward) == 0 {
		return fmt.Errorf("migration %s: forward sequence is empty", m.Name)
	}
	if len(m.Backward) == 0 && !m.Irreversible {
		return fmt.Errorf("migration %s: backward sequence is empty but migration is not marked irreversible", m.Name)
	}
	if len(m.Backward) > 0 && m.Irreversible {
		return fmt.Errorf("migration %s: irreversible migration must not carry a backward sequence", m.Name)
	}

	for i := range m.Forward {
		if err := m.Forward[i].validate(); err != nil {
			return fmt.Errorf("migration %s: forward[%d]: %w", m.Name, i, err)
		}
	}
	for i := range m.Backward {
		if err := m.Backward[i].validate(); err != nil {
			return fmt.Errorf("migration %s: backward[%d]: %w", m.Name, i, err)
		}
	}

	return nil
}
