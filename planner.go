package rung

import (
	"container/list"
	"sort"

	"github.com/openrung/rung/internal/models"
)

// Direction tells the executor which operation sequence of a migration to
// run.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
)

type planStep struct {
	name      string
	direction Direction

	// nil when the ledger references a migration no source provides;
	// the executor reports that when the step's turn comes.
	migration *Migration
}

// executionPlan is the ordered queue of steps one invocation will execute.
// Plans are computed from a single ledger snapshot and never persisted.
type executionPlan struct {
	steps *list.List
}

func newExecutionPlan() executionPlan {
	return executionPlan{steps: list.New()}
}

func (p executionPlan) isEmpty() bool {
	return p.steps.Len() == 0
}

func (p executionPlan) length() int {
	return p.steps.Len()
}

func (p executionPlan) pushBack(step planStep) {
	p.steps.PushBack(step)
}

func (p executionPlan) popFirst() planStep {
	first := p.steps.Front()
	p.steps.Remove(first)
	return first.Value.(planStep)
}

// forwardPlanner plans the pending set: every known migration not yet in
// the ledger, in ascending name order. Name order equals creation order,
// so a later migration may assume every earlier one already ran.
type forwardPlanner struct {
	available []*Migration
	applied   map[string]struct{}
}

func (p forwardPlanner) makePlan() executionPlan {
	plan := newExecutionPlan()
	for _, m := range p.available {
		if _, ok := p.applied[m.Name]; ok {
			continue
		}
		plan.pushBack(planStep{name: m.Name, direction: DirectionForward, migration: m})
	}
	return plan
}

// rollbackPlanner plans a reversal: most recent batch first and, within a
// batch, the reverse of the original application order, so an operation is
// never undone before the operations that depend on it. steps <= 0 means
// the whole latest batch.
type rollbackPlanner struct {
	available map[string]*Migration
	entries   []models.LedgerEntry
	steps     int
}

func (p rollbackPlanner) makePlan() executionPlan {
	plan := newExecutionPlan()
	batches := groupByBatchDesc(p.entries)
	if len(batches) == 0 {
		return plan
	}

	steps := p.steps
	if steps <= 0 {
		steps = len(batches[0].entries)
	}

	for _, batch := range batches {
		for i := len(batch.entries) - 1; i >= 0 && steps > 0; i-- {
			name := batch.entries[i].Name
			plan.pushBack(planStep{
				name:      name,
				direction: DirectionBackward,
				migration: p.available[name],
			})
			steps--
		}
		if steps == 0 {
			break
		}
	}

	return plan
}

// resetPlanner rolls back every batch, newest first, until the ledger is
// empty.
type resetPlanner struct {
	available map[string]*Migration
	entries   []models.LedgerEntry
}

func (p resetPlanner) makePlan() executionPlan {
	return rollbackPlanner{
		available: p.available,
		entries:   p.entries,
		steps:     len(p.entries),
	}.makePlan()
}

type batchGroup struct {
	number  int
	entries []models.LedgerEntry
}

// groupByBatchDesc splits ledger entries into batches ordered newest first,
// keeping insertion order within each batch.
func groupByBatchDesc(entries []models.LedgerEntry) []batchGroup {
	byNumber := make(map[int]*batchGroup)
	var groups []*batchGroup

	for _, entry := range entries {
		group, ok := byNumber[entry.Batch]
		if !ok {
			group = &batchGroup{number: entry.Batch}
			byNumber[entry.Batch] = group
			groups = append(groups, group)
		}
		group.entries = append(group.entries, entry)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].number > groups[j].number
	})

	out := make([]batchGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	return out
}

func migrationsByName(available []*Migration) map[string]*Migration {
	byName := make(map[string]*Migration, len(available))
	for _, m := range available {
		byName[m.Name] = m
	}
	return byName
}
