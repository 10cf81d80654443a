package rung

import (
	"fmt"

	"gorm.io/gorm"
)

// SchemaBackend applies operations to the live schema. The engine hands it
// the *gorm.DB (or transaction) the operation must run on, so that schema
// work and the matching ledger write share one atomic unit whenever the
// engine opens a transaction.
type SchemaBackend interface {
	// Apply executes a single operation on tx.
	Apply(tx *gorm.DB, op Operation) error

	// SupportsTransactionalDDL reports whether structural changes roll
	// back with the surrounding transaction. When false the executor
	// applies operations one by one and reports partial failures instead
	// of attempting compensation.
	SupportsTransactionalDDL() bool

	// Tables lists every table in the target schema. Used by fresh to
	// sweep the schema clean.
	Tables(db *gorm.DB) ([]string, error)

	// DropTableUnconditionally removes a table if it exists, ignoring
	// dependencies. Only fresh uses it; regular plans go through Apply.
	DropTableUnconditionally(db *gorm.DB, table string) error
}

// sqlBackend renders operations through a dialect and executes them on the
// engine's gorm connection.
type sqlBackend struct {
	dialect dialect
}

func newSQLBackend(dialectName string) (*sqlBackend, error) {
	d, err := dialectFor(dialectName)
	if err != nil {
		return nil, err
	}
	return &sqlBackend{dialect: d}, nil
}

func (b *sqlBackend) Apply(tx *gorm.DB, op Operation) error {
	stmt, err := b.dialect.RenderOperation(op)
	if err != nil {
		return err
	}
	if err = tx.Exec(stmt).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (b *sqlBackend) SupportsTransactionalDDL() bool {
	return b.dialect.SupportsTransactionalDDL()
}

func (b *sqlBackend) Tables(db *gorm.DB) ([]string, error) {
	var tables []string
	err := db.Raw(b.dialect.ListTablesSQL()).Scan(&tables).Error
	return tables, err
}

func (b *sqlBackend) DropTableUnconditionally(db *gorm.DB, table string) error {
	return db.Exec(b.dialect.DropTableSQL(table)).Error
}
