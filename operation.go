package rung

import (
	"errors"
	"fmt"
	"strings"
)

// OperationKind discriminates the variants of Operation.
type OperationKind string

const (
	OpCreateTable    OperationKind = "create_table"
	OpDropTable      OperationKind = "drop_table"
	OpAddColumn      OperationKind = "add_column"
	OpDropColumn     OperationKind = "drop_column"
	OpRenameColumn   OperationKind = "rename_column"
	OpAddIndex       OperationKind = "add_index"
	OpDropIndex      OperationKind = "drop_index"
	OpAddForeignKey  OperationKind = "add_foreign_key"
	OpDropForeignKey OperationKind = "drop_foreign_key"
	OpRawSQL         OperationKind = "raw_sql"
)

// ReferentialAction is the on-delete/on-update policy of a foreign key.
// It is carried verbatim to the backend.
type ReferentialAction string

const (
	ActionNoAction ReferentialAction = "NO ACTION"
	ActionRestrict ReferentialAction = "RESTRICT"
	ActionCascade  ReferentialAction = "CASCADE"
	ActionSetNull  ReferentialAction = "SET NULL"
)

// ColumnSpec describes a single column of a table.
type ColumnSpec struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Nullable      bool   `json:"nullable,omitempty"`
	Default       string `json:"default,omitempty"`
	PrimaryKey    bool   `json:"primary_key,omitempty"`
	Unique        bool   `json:"unique,omitempty"`
	AutoIncrement bool   `json:"auto_increment,omitempty"`
}

// IndexSpec describes a secondary index.
type IndexSpec struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique,omitempty"`
}

// ForeignKeySpec describes a named foreign key constraint.
type ForeignKeySpec struct {
	Name       string            `json:"name"`
	Columns    []string          `json:"columns"`
	RefTable   string            `json:"ref_table"`
	RefColumns []string          `json:"ref_columns"`
	OnDelete   ReferentialAction `json:"on_delete,omitempty"`
	OnUpdate   ReferentialAction `json:"on_update,omitempty"`
}

// Operation is one structural edit to the schema. Operations are plain
// data: they can be serialized, logged and replayed, and are rendered to
// SQL by the backend only at execution time.
//
// Which fields are meaningful depends on Kind. Every operation names its
// natural inverse informally (AddColumn / DropColumn and so on), but the
// engine never derives a backward sequence automatically: inversion can be
// lossy, so each migration spells out its own.
type Operation struct {
	Kind  OperationKind `json:"kind"`
	Table string        `json:"table,omitempty"`

	// CreateTable
	Columns []ColumnSpec `json:"columns,omitempty"`

	// AddColumn
	Column *ColumnSpec `json:"column,omitempty"`

	// DropColumn, RenameColumn
	ColumnName string `json:"column_name,omitempty"`
	NewName    string `json:"new_name,omitempty"`

	// AddIndex, DropIndex
	Index     *IndexSpec `json:"index,omitempty"`
	IndexName string     `json:"index_name,omitempty"`

	// AddForeignKey, DropForeignKey
	ForeignKey *ForeignKeySpec `json:"foreign_key,omitempty"`
	Constraint string          `json:"constraint,omitempty"`

	// RawSQL
	SQL string `json:"sql,omitempty"`
}

func CreateTable(table string, columns ...ColumnSpec) Operation {
	return Operation{Kind: OpCreateTable, Table: table, Columns: columns}
}

func DropTable(table string) Operation {
	return Operation{Kind: OpDropTable, Table: table}
}

func AddColumn(table string, column ColumnSpec) Operation {
	return Operation{Kind: OpAddColumn, Table: table, Column: &column}
}

func DropColumn(table, column string) Operation {
	return Operation{Kind: OpDropColumn, Table: table, ColumnName: column}
}

func RenameColumn(table, from, to string) Operation {
	return Operation{Kind: OpRenameColumn, Table: table, ColumnName: from, NewName: to}
}

func AddIndex(table string, index IndexSpec) Operation {
	return Operation{Kind: OpAddIndex, Table: table, Index: &index}
}

func DropIndex(table, name string) Operation {
	return Operation{Kind: OpDropIndex, Table: table, IndexName: name}
}

func AddForeignKey(table string, fk ForeignKeySpec) Operation {
	return Operation{Kind: OpAddForeignKey, Table: table, ForeignKey: &fk}
}

func DropForeignKey(table, constraint string) Operation {
	return Operation{Kind: OpDropForeignKey, Table: table, Constraint: constraint}
}

func RawSQL(sql string) Operation {
	return Operation{Kind: OpRawSQL, SQL: sql}
}

// String identifies the operation in logs and error detail.
func (o Operation) String() string {
	switch o.Kind {
	case OpCreateTable:
		return fmt.Sprintf("%s %s", o.Kind, o.Table)
	case OpDropTable:
		return fmt.Sprintf("%s %s", o.Kind, o.Table)
	case OpAddColumn:
		name := ""
		if o.Column != nil {
			name = o.Column.Name
		}
		return fmt.Sprintf("%s %s.%s", o.Kind, o.Table, name)
	case OpDropColumn:
		return fmt.Sprintf("%s %s.%s", o.Kind, o.Table, o.ColumnName)
	case OpRenameColumn:
		return fmt.Sprintf("%s %s.%s -> %s", o.Kind, o.Table, o.ColumnName, o.NewName)
	case OpAddIndex:
		name := ""
		if o.Index != nil {
			name = o.Index.Name
		}
		return fmt.Sprintf("%s %s on %s", o.Kind, name, o.Table)
	case OpDropIndex:
		return fmt.Sprintf("%s %s on %s", o.Kind, o.IndexName, o.Table)
	case OpAddForeignKey:
		name := ""
		if o.ForeignKey != nil {
			name = o.ForeignKey.Name
		}
		return fmt.Sprintf("%s %s on %s", o.Kind, name, o.Table)
	case OpDropForeignKey:
		return fmt.Sprintf("%s %s on %s", o.Kind, o.Constraint, o.Table)
	case OpRawSQL:
		sql := o.SQL
		if len(sql) > 40 {
			sql = sql[:40] + "..."
		}
		return fmt.Sprintf("%s %q", o.Kind, sql)
	default:
		return string(o.Kind)
	}
}

func (o Operation) validate() error {
	needTable := o.Kind != OpRawSQL
	if needTable && o.Table == "" {
		return fmt.Errorf("operation %s: table name is required", o.Kind)
	}

	switch o.Kind {
	case OpCreateTable:
		if len(o.Columns) == 0 {
			return fmt.Errorf("create_table %s: at least one column is required", o.Table)
		}
		for i := range o.Columns {
			if err := o.Columns[i].validate(); err != nil {
				return fmt.Errorf("create_table %s: %w", o.Table, err)
			}
		}
	case OpDropTable:
	case OpAddColumn:
		if o.Column == nil {
			return fmt.Errorf("add_column %s: column spec is required", o.Table)
		}
		if err := o.Column.validate(); err != nil {
			return fmt.Errorf("add_column %s: %w", o.Table, err)
		}
	case OpDropColumn:
		if o.ColumnName == "" {
			return fmt.Errorf("drop_column %s: column name is required", o.Table)
		}
	case OpRenameColumn:
		if o.ColumnName == "" || o.NewName == "" {
			return fmt.Errorf("rename_column %s: both old and new column names are required", o.Table)
		}
	case OpAddIndex:
		if o.Index == nil || o.Index.Name == "" || len(o.Index.Columns) == 0 {
			return fmt.Errorf("add_index %s: index name and columns are required", o.Table)
		}
	case OpDropIndex:
		if o.IndexName == "" {
			return fmt.Errorf("drop_index %s: index name is required", o.Table)
		}
	case OpAddForeignKey:
		fk := o.ForeignKey
		if fk == nil || fk.Name == "" || len(fk.Columns) == 0 || fk.RefTable == "" || len(fk.RefColumns) == 0 {
			return fmt.Errorf("add_foreign_key %s: constraint name, columns and referenced table/columns are required", o.Table)
		}
	case OpDropForeignKey:
		if o.Constraint == "" {
			return fmt.Errorf("drop_foreign_key %s: constraint name is required", o.Table)
		}
	case OpRawSQL:
		if strings.TrimSpace(o.SQL) == "" {
			return errors.New("raw_sql: statement is empty")
		}
	default:
		return fmt.Errorf("unknown operation kind %q", o.Kind)
	}

	return nil
}

func (c ColumnSpec) validate() error {
	if c.Name == "" {
		return errors.New("column name is required")
	}
	if c.Type == "" {
		return fmt.Errorf("column %s: type is required", c.Name)
	}
	return nil
}
