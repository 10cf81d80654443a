package rung

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openrung/rung/internal/models"
	"github.com/openrung/rung/internal/repository"
	"gorm.io/gorm"
)

// executor applies a plan's operations strictly in plan order. Each
// migration is one atomic unit when the backend supports transactional
// DDL; otherwise operations run one by one and a mid-sequence failure
// surfaces as PartialMigrationError. Any failure halts the remainder of
// the plan, leaving the ledger consistent with exactly the migrations that
// fully completed.
type executor struct {
	db      *gorm.DB
	backend SchemaBackend
	logger  *slog.Logger
	now     func() time.Time
}

func (e *executor) runForward(ctx context.Context, plan executionPlan, batch int) ([]string, error) {
	var applied []string

	for !plan.isEmpty() {
		// cancellation takes effect only between migrations; a sequence
		// that started applying runs to completion or failure
		if err := ctx.Err(); err != nil {
			return applied, err
		}

		step := plan.popFirst()
		e.logger.Info("applying migration", "migration", step.name, "batch", batch)

		if err := e.applyForward(ctx, step.migration, batch); err != nil {
			return applied, err
		}
		applied = append(applied, step.name)
	}

	return applied, nil
}

func (e *executor) applyForward(ctx context.Context, m *Migration, batch int) error {
	db := e.db.WithContext(ctx)

	if e.backend.SupportsTransactionalDDL() {
		return db.Transaction(func(tx *gorm.DB) error {
			for _, op := range m.Forward {
				if err := e.backend.Apply(tx, op); err != nil {
					return fmt.Errorf("migration %s: %w", m.Name, err)
				}
			}
			_, err := repository.InsertEntry(tx, m.Name, batch, e.now())
			return err
		})
	}

	completed := make([]Operation, 0, len(m.Forward))
	for _, op := range m.Forward {
		if err := e.backend.Apply(db, op); err != nil {
			return &PartialMigrationError{
				Migration: m.Name,
				Direction: DirectionForward,
				Completed: completed,
				Failed:    op,
				Err:       err,
			}
		}
		completed = append(completed, op)
	}

	_, err := repository.InsertEntry(db, m.Name, batch, e.now())
	return err
}

func (e *executor) runBackward(ctx context.Context, plan executionPlan) ([]string, error) {
	var reverted []string

	for !plan.isEmpty() {
		if err := ctx.Err(); err != nil {
			return reverted, err
		}

		step := plan.popFirst()
		if step.migration == nil {
			return reverted, fmt.Errorf("%w: %s", ErrMigrationNotFound, step.name)
		}
		if !step.migration.Reversible() {
			return reverted, &IrreversibleMigrationError{Name: step.name}
		}

		e.logger.Info("reverting migration", "migration", step.name)

		if err := e.applyBackward(ctx, step.migration); err != nil {
			return reverted, err
		}
		reverted = append(reverted, step.name)
	}

	return reverted, nil
}

func (e *executor) applyBackward(ctx context.Context, m *Migration) error {
	db := e.db.WithContext(ctx)

	if e.backend.SupportsTransactionalDDL() {
		return db.Transaction(func(tx *gorm.DB) error {
			for _, op := range m.Backward {
				if err := e.backend.Apply(tx, op); err != nil {
					return fmt.Errorf("migration %s: %w", m.Name, err)
				}
			}
			return repository.DeleteEntry(tx, m.Name)
		})
	}

	completed := make([]Operation, 0, len(m.Backward))
	for _, op := range m.Backward {
		if err := e.backend.Apply(db, op); err != nil {
			return &PartialMigrationError{
				Migration: m.Name,
				Direction: DirectionBackward,
				Completed: completed,
				Failed:    op,
				Err:       err,
			}
		}
		completed = append(completed, op)
	}

	return repository.DeleteEntry(db, m.Name)
}

// dropAllTables sweeps every table except the ledger and truncates the
// ledger itself. Only fresh calls it; the sweep never consults backward
// sequences, so it cannot fail on an irreversible migration.
func (e *executor) dropAllTables(ctx context.Context) error {
	db := e.db.WithContext(ctx)

	tables, err := e.backend.Tables(db)
	if err != nil {
		return fmt.Errorf("listing tables: %w", err)
	}

	for _, table := range tables {
		if table == models.LedgerTableName {
			continue
		}
		e.logger.Info("dropping table", "table", table)
		if err = e.backend.DropTableUnconditionally(db, table); err != nil {
			return fmt.Errorf("dropping table %s: %w", table, err)
		}
	}

	return repository.DeleteAll(db)
}
