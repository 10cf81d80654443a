package rung

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/openrung/rung/internal/models"
	"github.com/openrung/rung/internal/repository"
	"gorm.io/gorm"
)

// Outcome is the definitive status a command surface call reports. Failures
// additionally carry an error with the detail (PartialMigrationError,
// IrreversibleMigrationError, ErrLockContention).
type Outcome string

const (
	OutcomeApplied     Outcome = "applied"
	OutcomeReverted    Outcome = "reverted"
	OutcomeNothingToDo Outcome = "nothing to do"
	OutcomeFailed      Outcome = "failed"
)

// Result summarizes one command surface invocation. Applied and Reverted
// list migration names in execution order; on failure they cover exactly
// the migrations that fully completed before the halt.
type Result struct {
	Outcome  Outcome
	Batch    int
	Applied  []string
	Reverted []string
}

// AppliedMigration is one ledger entry in a status report.
type AppliedMigration struct {
	Name      string
	Batch     int
	AppliedAt time.Time
}

// StatusReport describes the ledger and the pending set at one snapshot.
type StatusReport struct {
	Applied     []AppliedMigration
	Pending     []string
	LatestBatch int
}

// Manager is the facade over planner and executor. Every command acquires
// the schema lock, plans from a single ledger snapshot, executes, and
// releases the lock on all exit paths.
type Manager struct {
	db       *gorm.DB
	source   MigrationSource
	registry *Registry
	backend  SchemaBackend
	lock     schemaLock
	logger   *slog.Logger
	now      func() time.Time

	mutex sync.Mutex
}

// NewManager creates a migration manager over an open gorm connection.
// Without WithSource the manager owns an in-memory registry fed through
// Register. The backend and lock default to the connection's dialect.
func NewManager(db *gorm.DB, opts ...ManagerOption) (*Manager, error) {
	registry := NewRegistry()
	manager := &Manager{
		db:       db,
		source:   registry,
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(manager)
	}

	if manager.backend == nil {
		backend, err := newSQLBackend(db.Dialector.Name())
		if err != nil {
			return nil, err
		}
		manager.backend = backend
	}
	if manager.lock == nil {
		manager.lock = lockFor(db.Dialector.Name())
	}

	return manager, nil
}

// Register stores migrations in the manager's own registry. It is only
// available when no custom source was configured.
func (m *Manager) Register(migrations ...*Migration) error {
	if m.registry == nil {
		return fmt.Errorf("manager uses a custom migration source, register migrations there")
	}
	return m.registry.Register(migrations...)
}

// Migrate applies every pending migration in name order as one new batch.
// An empty pending set is a successful no-op.
func (m *Manager) Migrate(ctx context.Context) (Result, error) {
	result := Result{Outcome: OutcomeFailed}

	err := m.withLock(ctx, func() error {
		available, entries, err := m.snapshot()
		if err != nil {
			return err
		}

		applied := make(map[string]struct{}, len(entries))
		latest := 0
		for _, entry := range entries {
			applied[entry.Name] = struct{}{}
			if entry.Batch > latest {
				latest = entry.Batch
			}
		}

		plan := forwardPlanner{available: available, applied: applied}.makePlan()
		if plan.isEmpty() {
			m.logger.Info("no pending migrations")
			result = Result{Outcome: OutcomeNothingToDo}
			return nil
		}

		batch := latest + 1

		names, execErr := m.executor().runForward(ctx, plan, batch)
		result.Batch = batch
		result.Applied = names
		if execErr != nil {
			return execErr
		}

		result.Outcome = OutcomeApplied
		return nil
	})

	return result, err
}

// Rollback reverses the most recently applied migrations: steps individual
// migrations, or the entire latest batch when steps <= 0. Within a batch
// migrations are reversed in the opposite of their application order.
func (m *Manager) Rollback(ctx context.Context, steps int) (Result, error) {
	result := Result{Outcome: OutcomeFailed}

	err := m.withLock(ctx, func() error {
		available, entries, err := m.snapshot()
		if err != nil {
			return err
		}

		plan := rollbackPlanner{
			available: migrationsByName(available),
			entries:   entries,
			steps:     steps,
		}.makePlan()
		if plan.isEmpty() {
			m.logger.Info("nothing to roll back")
			result = Result{Outcome: OutcomeNothingToDo}
			return nil
		}

		names, execErr := m.executor().runBackward(ctx, plan)
		result.Reverted = names
		if execErr != nil {
			return execErr
		}

		result.Outcome = OutcomeReverted
		return nil
	})

	return result, err
}

// Reset rolls back every batch, newest first, until the ledger is empty.
func (m *Manager) Reset(ctx context.Context) (Result, error) {
	result := Result{Outcome: OutcomeFailed}

	err := m.withLock(ctx, func() error {
		available, entries, err := m.snapshot()
		if err != nil {
			return err
		}

		plan := resetPlanner{available: migrationsByName(available), entries: entries}.makePlan()
		if plan.isEmpty() {
			result = Result{Outcome: OutcomeNothingToDo}
			return nil
		}

		names, execErr := m.executor().runBackward(ctx, plan)
		result.Reverted = names
		if execErr != nil {
			return execErr
		}

		result.Outcome = OutcomeReverted
		return nil
	})

	return result, err
}

// Fresh drops every table except the ledger, truncates the ledger, and
// applies the full forward plan as batch one. Fresh never consults
// backward sequences, so irreversible migrations cannot make it fail.
func (m *Manager) Fresh(ctx context.Context) (Result, error) {
	result := Result{Outcome: OutcomeFailed}

	err := m.withLock(ctx, func() error {
		available, _, err := m.snapshot()
		if err != nil {
			return err
		}

		if err = m.executor().dropAllTables(ctx); err != nil {
			return err
		}

		plan := forwardPlanner{available: available, applied: map[string]struct{}{}}.makePlan()
		names, execErr := m.executor().runForward(ctx, plan, 1)
		result.Batch = 1
		result.Applied = names
		if execErr != nil {
			return execErr
		}

		result.Outcome = OutcomeApplied
		return nil
	})

	return result, err
}

// Refresh composes reset and migrate under one lock acquisition.
func (m *Manager) Refresh(ctx context.Context) (Result, error) {
	result := Result{Outcome: OutcomeFailed}

	err := m.withLock(ctx, func() error {
		available, entries, err := m.snapshot()
		if err != nil {
			return err
		}

		resetPlan := resetPlanner{available: migrationsByName(available), entries: entries}.makePlan()
		reverted, execErr := m.executor().runBackward(ctx, resetPlan)
		result.Reverted = reverted
		if execErr != nil {
			return execErr
		}

		plan := forwardPlanner{available: available, applied: map[string]struct{}{}}.makePlan()
		names, execErr := m.executor().runForward(ctx, plan, 1)
		result.Batch = 1
		result.Applied = names
		if execErr != nil {
			return execErr
		}

		result.Outcome = OutcomeApplied
		return nil
	})

	return result, err
}

// Status reports the applied ledger entries, the pending set and the
// latest batch number from one consistent snapshot.
func (m *Manager) Status(ctx context.Context) (StatusReport, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := repository.EnsureLedgerTable(m.db.WithContext(ctx)); err != nil {
		return StatusReport{}, err
	}

	available, entries, err := m.snapshot()
	if err != nil {
		return StatusReport{}, err
	}

	report := StatusReport{}
	applied := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		applied[entry.Name] = struct{}{}
		report.Applied = append(report.Applied, AppliedMigration{
			Name:      entry.Name,
			Batch:     entry.Batch,
			AppliedAt: entry.AppliedAt,
		})
		if entry.Batch > report.LatestBatch {
			report.LatestBatch = entry.Batch
		}
	}

	for _, migration := range available {
		if _, ok := applied[migration.Name]; !ok {
			report.Pending = append(report.Pending, migration.Name)
		}
	}

	return report, nil
}

func (m *Manager) withLock(ctx context.Context, fn func() error) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.lock.Acquire(ctx, m.db); err != nil {
		return err
	}
	defer func() {
		// release must run on every exit path, even after a failed plan
		if err := m.lock.Release(context.WithoutCancel(ctx), m.db); err != nil {
			m.logger.Error("releasing migration lock", "error", err)
		}
	}()

	if err := repository.EnsureLedgerTable(m.db); err != nil {
		return fmt.Errorf("ensuring ledger table: %w", err)
	}

	return fn()
}

// snapshot loads the available migrations and the full ledger once; every
// plan of one invocation is computed from this single consistent view.
func (m *Manager) snapshot() ([]*Migration, []models.LedgerEntry, error) {
	available, err := m.source.ListAvailable()
	if err != nil {
		return nil, nil, fmt.Errorf("listing migrations: %w", err)
	}

	seen := make(map[string]struct{}, len(available))
	for _, migration := range available {
		if err = migration.validate(); err != nil {
			return nil, nil, err
		}
		if _, ok := seen[migration.Name]; ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateMigration, migration.Name)
		}
		seen[migration.Name] = struct{}{}
	}
	sort.SliceStable(available, func(i, j int) bool {
		return available[i].Name < available[j].Name
	})

	entries, err := repository.AllEntries(m.db)
	if err != nil {
		return nil, nil, fmt.Errorf("reading ledger: %w", err)
	}

	return available, entries, nil
}

func (m *Manager) executor() *executor {
	return &executor{
		db:      m.db,
		backend: m.backend,
		logger:  m.logger,
		now:     m.now,
	}
}
