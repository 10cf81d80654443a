package rung

import (
	"errors"
	"fmt"

	"github.com/openrung/rung/internal/repository"
)

var (
	// ErrDuplicateMigration is returned when two migrations with the same
	// name are registered or discovered by a source.
	ErrDuplicateMigration = errors.New("duplicate migration name")

	// ErrLockContention is returned when another execution already holds
	// the migration lock. The caller should retry or abort; the engine
	// never waits silently.
	ErrLockContention = errors.New("another migration run holds the lock")

	// ErrMigrationNotFound is returned when the ledger records a migration
	// that no configured source provides, which makes rollback impossible.
	ErrMigrationNotFound = errors.New("migration not found in source")

	// ErrAlreadyRecorded and ErrNotRecorded signal ledger misuse: recording
	// a migration twice, or reverting one that was never recorded. Both
	// indicate a programming error rather than a recoverable condition.
	ErrAlreadyRecorded = repository.ErrAlreadyRecorded
	ErrNotRecorded     = repository.ErrNotRecorded
)

// IrreversibleMigrationError reports an attempt to roll back a migration
// that has no backward sequence. Migrations already reverted earlier in the
// same plan stay reverted.
type IrreversibleMigrationError struct {
	Name string
}

func (e *IrreversibleMigrationError) Error() string {
	return fmt.Sprintf("migration %s is irreversible and cannot be rolled back", e.Name)
}

// PartialMigrationError reports a mid-sequence failure inside one migration
// on a backend without transactional DDL. Completed lists exactly the
// operations that took effect before Failed; the engine does not attempt
// compensating rollback, because reversing a partial DDL sequence cannot be
// assumed safe.
type PartialMigrationError struct {
	Migration string
	Direction Direction
	Completed []Operation
	Failed    Operation
	Err       error
}

func (e *PartialMigrationError) Error() string {
	return fmt.Sprintf(
		"migration %s failed %s on operation %s after %d completed operation(s): %v",
		e.Migration, e.Direction, e.Failed, len(e.Completed), e.Err,
	)
}

func (e *PartialMigrationError) Unwrap() error {
	return e.Err
}
