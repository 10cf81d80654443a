package rung

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// fakeSchema is an in-memory structural model of the target database:
// tables with column sets, plus index and foreign key names. Good enough
// to assert the round-trip law structurally.
type fakeSchema struct {
	tables  map[string]map[string]bool
	indexes map[string]bool // "table/index"
	fks     map[string]bool // "table/constraint"
}

func newFakeSchema() *fakeSchema {
	return &fakeSchema{
		tables:  map[string]map[string]bool{},
		indexes: map[string]bool{},
		fks:     map[string]bool{},
	}
}

func (s *fakeSchema) clone() *fakeSchema {
	out := newFakeSchema()
	for table, cols := range s.tables {
		copied := make(map[string]bool, len(cols))
		for c := range cols {
			copied[c] = true
		}
		out.tables[table] = copied
	}
	for k := range s.indexes {
		out.indexes[k] = true
	}
	for k := range s.fks {
		out.fks[k] = true
	}
	return out
}

// fakeBackend records every applied operation in order and mutates the
// fake schema. failOn lets a test inject a failure at a precise operation.
type fakeBackend struct {
	schema        *fakeSchema
	journal       []string
	transactional bool
	failOn        func(op Operation) error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{schema: newFakeSchema()}
}

func (b *fakeBackend) Apply(tx *gorm.DB, op Operation) error {
	if b.failOn != nil {
		if err := b.failOn(op); err != nil {
			return err
		}
	}

	s := b.schema
	switch op.Kind {
	case OpCreateTable:
		if _, ok := s.tables[op.Table]; ok {
			return fmt.Errorf("table %s already exists", op.Table)
		}
		cols := map[string]bool{}
		for _, c := range op.Columns {
			cols[c.Name] = true
		}
		s.tables[op.Table] = cols
	case OpDropTable:
		if _, ok := s.tables[op.Table]; !ok {
			return fmt.Errorf("table %s does not exist", op.Table)
		}
		delete(s.tables, op.Table)
	case OpAddColumn:
		cols, ok := s.tables[op.Table]
		if !ok {
			return fmt.Errorf("table %s does not exist", op.Table)
		}
		cols[op.Column.Name] = true
	case OpDropColumn:
		cols, ok := s.tables[op.Table]
		if !ok || !cols[op.ColumnName] {
			return fmt.Errorf("column %s.%s does not exist", op.Table, op.ColumnName)
		}
		delete(cols, op.ColumnName)
	case OpRenameColumn:
		cols, ok := s.tables[op.Table]
		if !ok || !cols[op.ColumnName] {
			return fmt.Errorf("column %s.%s does not exist", op.Table, op.ColumnName)
		}
		delete(cols, op.ColumnName)
		cols[op.NewName] = true
	case OpAddIndex:
		s.indexes[op.Table+"/"+op.Index.Name] = true
	case OpDropIndex:
		key := op.Table + "/" + op.IndexName
		if !s.indexes[key] {
			return fmt.Errorf("index %s does not exist", key)
		}
		delete(s.indexes, key)
	case OpAddForeignKey:
		if _, ok := s.tables[op.ForeignKey.RefTable]; !ok {
			return fmt.Errorf("referenced table %s does not exist", op.ForeignKey.RefTable)
		}
		s.fks[op.Table+"/"+op.ForeignKey.Name] = true
	case OpDropForeignKey:
		key := op.Table + "/" + op.Constraint
		if !s.fks[key] {
			return fmt.Errorf("constraint %s does not exist", key)
		}
		delete(s.fks, key)
	case OpRawSQL:
		// structural no-op for the fake
	}

	b.journal = append(b.journal, op.String())
	return nil
}

func (b *fakeBackend) SupportsTransactionalDDL() bool {
	return b.transactional
}

func (b *fakeBackend) Tables(db *gorm.DB) ([]string, error) {
	var tables []string
	for t := range b.schema.tables {
		tables = append(tables, t)
	}
	return tables, nil
}

func (b *fakeBackend) DropTableUnconditionally(db *gorm.DB, table string) error {
	delete(b.schema.tables, table)
	b.journal = append(b.journal, "drop_all "+table)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	return db
}

func newTestManager(t *testing.T, backend SchemaBackend) *Manager {
	t.Helper()

	manager, err := NewManager(newTestDB(t), WithBackend(backend))
	require.NoError(t, err)
	return manager
}

func createUsers() *Migration {
	return &Migration{
		Name: "0001_create_users",
		Forward: []Operation{
			CreateTable("users",
				ColumnSpec{Name: "id", Type: "BIGINT", PrimaryKey: true, AutoIncrement: true},
				ColumnSpec{Name: "email", Type: "TEXT", Unique: true},
			),
		},
		Backward: []Operation{
			DropTable("users"),
		},
	}
}

func createPosts() *Migration {
	return &Migration{
		Name: "0002_create_posts",
		Forward: []Operation{
			CreateTable("posts",
				ColumnSpec{Name: "id", Type: "BIGINT", PrimaryKey: true, AutoIncrement: true},
				ColumnSpec{Name: "user_id", Type: "BIGINT"},
			),
			AddForeignKey("posts", ForeignKeySpec{
				Name:       "fk_posts_user",
				Columns:    []string{"user_id"},
				RefTable:   "users",
				RefColumns: []string{"id"},
				OnDelete:   ActionCascade,
			}),
		},
		Backward: []Operation{
			DropForeignKey("posts", "fk_posts_user"),
			DropTable("posts"),
		},
	}
}
