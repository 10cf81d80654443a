package rung

import (
	"testing"

	"github.com/openrung/rung/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(p executionPlan) []planStep {
	var steps []planStep
	for !p.isEmpty() {
		steps = append(steps, p.popFirst())
	}
	return steps
}

func entry(id uint, name string, batch int) models.LedgerEntry {
	return models.LedgerEntry{ID: id, Name: name, Batch: batch}
}

func TestForwardPlannerSkipsApplied(t *testing.T) {
	available := []*Migration{createUsers(), createPosts()}

	plan := forwardPlanner{
		available: available,
		applied:   map[string]struct{}{"0001_create_users": {}},
	}.makePlan()

	steps := drain(plan)
	require.Len(t, steps, 1)
	assert.Equal(t, "0002_create_posts", steps[0].name)
	assert.Equal(t, DirectionForward, steps[0].direction)
}

func TestForwardPlannerEmptyWhenAllApplied(t *testing.T) {
	plan := forwardPlanner{
		available: []*Migration{createUsers()},
		applied:   map[string]struct{}{"0001_create_users": {}},
	}.makePlan()

	assert.True(t, plan.isEmpty())
}

func TestRollbackPlannerDefaultsToLatestBatch(t *testing.T) {
	available := migrationsByName([]*Migration{createUsers(), createPosts()})
	entries := []models.LedgerEntry{
		entry(1, "0001_create_users", 1),
		entry(2, "0002_create_posts", 2),
	}

	plan := rollbackPlanner{available: available, entries: entries}.makePlan()

	steps := drain(plan)
	require.Len(t, steps, 1)
	assert.Equal(t, "0002_create_posts", steps[0].name)
	assert.Equal(t, DirectionBackward, steps[0].direction)
}

func TestRollbackPlannerReversesWithinBatch(t *testing.T) {
	available := migrationsByName([]*Migration{createUsers(), createPosts()})
	entries := []models.LedgerEntry{
		entry(1, "0001_create_users", 1),
		entry(2, "0002_create_posts", 1),
	}

	plan := rollbackPlanner{available: available, entries: entries}.makePlan()

	steps := drain(plan)
	require.Len(t, steps, 2)
	assert.Equal(t, "0002_create_posts", steps[0].name)
	assert.Equal(t, "0001_create_users", steps[1].name)
}

func TestRollbackPlannerSpansBatchesNewestFirst(t *testing.T) {
	migrations := []*Migration{createUsers(), createPosts()}
	third := &Migration{
		Name:     "0003_add_users_name",
		Forward:  []Operation{AddColumn("users", ColumnSpec{Name: "name", Type: "TEXT"})},
		Backward: []Operation{DropColumn("users", "name")},
	}
	available := migrationsByName(append(migrations, third))

	entries := []models.LedgerEntry{
		entry(1, "0001_create_users", 1),
		entry(2, "0002_create_posts", 1),
		entry(3, "0003_add_users_name", 2),
	}

	plan := rollbackPlanner{available: available, entries: entries, steps: 2}.makePlan()

	steps := drain(plan)
	require.Len(t, steps, 2)
	assert.Equal(t, "0003_add_users_name", steps[0].name)
	assert.Equal(t, "0002_create_posts", steps[1].name)
}

func TestRollbackPlannerMarksUnknownMigrations(t *testing.T) {
	entries := []models.LedgerEntry{entry(1, "0001_gone", 1)}

	plan := rollbackPlanner{available: map[string]*Migration{}, entries: entries}.makePlan()

	steps := drain(plan)
	require.Len(t, steps, 1)
	assert.Equal(t, "0001_gone", steps[0].name)
	assert.Nil(t, steps[0].migration)
}

func TestResetPlannerCoversEverything(t *testing.T) {
	available := migrationsByName([]*Migration{createUsers(), createPosts()})
	entries := []models.LedgerEntry{
		entry(1, "0001_create_users", 1),
		entry(2, "0002_create_posts", 2),
	}

	plan := resetPlanner{available: available, entries: entries}.makePlan()

	steps := drain(plan)
	require.Len(t, steps, 2)
	assert.Equal(t, "0002_create_posts", steps[0].name)
	assert.Equal(t, "0001_create_users", steps[1].name)
}

func TestGroupByBatchDescKeepsInsertionOrder(t *testing.T) {
	entries := []models.LedgerEntry{
		entry(1, "a", 1),
		entry(2, "b", 2),
		entry(3, "c", 1),
		entry(4, "d", 2),
	}

	groups := groupByBatchDesc(entries)
	require.Len(t, groups, 2)
	assert.Equal(t, 2, groups[0].number)
	assert.Equal(t, "b", groups[0].entries[0].Name)
	assert.Equal(t, "d", groups[0].entries[1].Name)
	assert.Equal(t, 1, groups[1].number)
	assert.Equal(t, "a", groups[1].entries[0].Name)
	assert.Equal(t, "c", groups[1].entries[1].Name)
}
