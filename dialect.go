package rung

import (
	"fmt"
	"strings"
)

// dialect renders operations into the SQL flavor of one database engine
// and answers its structural capabilities.
type dialect interface {
	Name() string
	RenderOperation(op Operation) (string, error)
	SupportsTransactionalDDL() bool
	ListTablesSQL() string
	DropTableSQL(table string) string
	QuoteIdent(ident string) string
}

func dialectFor(name string) (dialect, error) {
	switch name {
	case "postgres":
		return postgresDialect{}, nil
	case "mysql":
		return mysqlDialect{}, nil
	case "sqlite", "sqlite3":
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", name)
	}
}

func renderColumn(d dialect, c ColumnSpec) string {
	var b strings.Builder
	b.WriteString(d.QuoteIdent(c.Name))
	b.WriteByte(' ')

	switch {
	case c.AutoIncrement && d.Name() == "postgres":
		b.WriteString(c.Type)
		b.WriteString(" GENERATED BY DEFAULT AS IDENTITY")
	case c.AutoIncrement && d.Name() == "mysql":
		b.WriteString(c.Type)
		b.WriteString(" AUTO_INCREMENT")
	case c.AutoIncrement:
		// sqlite auto-increments any INTEGER PRIMARY KEY column
		b.WriteString(c.Type)
	default:
		b.WriteString(c.Type)
	}

	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
	}
	if !c.Nullable && !c.PrimaryKey {
		b.WriteString(" NOT NULL")
	}
	if c.Unique && !c.PrimaryKey {
		b.WriteString(" UNIQUE")
	}
	if c.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default)
	}

	return b.String()
}

func renderCreateTable(d dialect, op Operation) string {
	cols := make([]string, 0, len(op.Columns))
	for _, c := range op.Columns {
		cols = append(cols, renderColumn(d, c))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.QuoteIdent(op.Table), strings.Join(cols, ", "))
}

func renderForeignKey(d dialect, fk *ForeignKeySpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		d.QuoteIdent(fk.Name),
		quoteAll(d, fk.Columns),
		d.QuoteIdent(fk.RefTable),
		quoteAll(d, fk.RefColumns),
	)
	if fk.OnDelete != "" {
		fmt.Fprintf(&b, " ON DELETE %s", fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		fmt.Fprintf(&b, " ON UPDATE %s", fk.OnUpdate)
	}
	return b.String()
}

func renderAddIndex(d dialect, op Operation) string {
	unique := ""
	if op.Index.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
		unique, d.QuoteIdent(op.Index.Name), d.QuoteIdent(op.Table), quoteAll(d, op.Index.Columns))
}

func quoteAll(d dialect, idents []string) string {
	quoted := make([]string, 0, len(idents))
	for _, ident := range idents {
		quoted = append(quoted, d.QuoteIdent(ident))
	}
	return strings.Join(quoted, ", ")
}

type postgresDialect struct{}

func (postgresDialect) Name() string                   { return "postgres" }
func (postgresDialect) SupportsTransactionalDDL() bool { return true }

func (postgresDialect) QuoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (postgresDialect) ListTablesSQL() string {
	return "SELECT tablename FROM pg_tables WHERE schemaname = current_schema()"
}

func (d postgresDialect) DropTableSQL(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", d.QuoteIdent(table))
}

func (d postgresDialect) RenderOperation(op Operation) (string, error) {
	switch op.Kind {
	case OpCreateTable:
		return renderCreateTable(d, op), nil
	case OpDropTable:
		return fmt.Sprintf("DROP TABLE %s", d.QuoteIdent(op.Table)), nil
	case OpAddColumn:
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", d.QuoteIdent(op.Table), renderColumn(d, *op.Column)), nil
	case OpDropColumn:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", d.QuoteIdent(op.Table), d.QuoteIdent(op.ColumnName)), nil
	case OpRenameColumn:
		return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
			d.QuoteIdent(op.Table), d.QuoteIdent(op.ColumnName), d.QuoteIdent(op.NewName)), nil
	case OpAddIndex:
		return renderAddIndex(d, op), nil
	case OpDropIndex:
		return fmt.Sprintf("DROP INDEX %s", d.QuoteIdent(op.IndexName)), nil
	case OpAddForeignKey:
		return fmt.Sprintf("ALTER TABLE %s ADD %s", d.QuoteIdent(op.Table), renderForeignKey(d, op.ForeignKey)), nil
	case OpDropForeignKey:
		return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", d.QuoteIdent(op.Table), d.QuoteIdent(op.Constraint)), nil
	case OpRawSQL:
		return op.SQL, nil
	default:
		return "", fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

// MySQL commits implicitly around every DDL statement.
func (mysqlDialect) SupportsTransactionalDDL() bool { return false }

func (mysqlDialect) QuoteIdent(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (mysqlDialect) ListTablesSQL() string {
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE()"
}

func (d mysqlDialect) DropTableSQL(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdent(table))
}

func (d mysqlDialect) RenderOperation(op Operation) (string, error) {
	switch op.Kind {
	case OpCreateTable:
		return renderCreateTable(d, op), nil
	case OpDropTable:
		return fmt.Sprintf("DROP TABLE %s", d.QuoteIdent(op.Table)), nil
	case OpAddColumn:
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", d.QuoteIdent(op.Table), renderColumn(d, *op.Column)), nil
	case OpDropColumn:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", d.QuoteIdent(op.Table), d.QuoteIdent(op.ColumnName)), nil
	case OpRenameColumn:
		return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
			d.QuoteIdent(op.Table), d.QuoteIdent(op.ColumnName), d.QuoteIdent(op.NewName)), nil
	case OpAddIndex:
		return renderAddIndex(d, op), nil
	case OpDropIndex:
		return fmt.Sprintf("DROP INDEX %s ON %s", d.QuoteIdent(op.IndexName), d.QuoteIdent(op.Table)), nil
	case OpAddForeignKey:
		return fmt.Sprintf("ALTER TABLE %s ADD %s", d.QuoteIdent(op.Table), renderForeignKey(d, op.ForeignKey)), nil
	case OpDropForeignKey:
		return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s", d.QuoteIdent(op.Table), d.QuoteIdent(op.Constraint)), nil
	case OpRawSQL:
		return op.SQL, nil
	default:
		return "", fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string                   { return "sqlite" }
func (sqliteDialect) SupportsTransactionalDDL() bool { return true }

func (sqliteDialect) QuoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (sqliteDialect) ListTablesSQL() string {
	return "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'"
}

func (d sqliteDialect) DropTableSQL(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdent(table))
}

func (d sqliteDialect) RenderOperation(op Operation) (string, error) {
	switch op.Kind {
	case OpCreateTable:
		return renderCreateTable(d, op), nil
	case OpDropTable:
		return fmt.Sprintf("DROP TABLE %s", d.QuoteIdent(op.Table)), nil
	case OpAddColumn:
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", d.QuoteIdent(op.Table), renderColumn(d, *op.Column)), nil
	case OpDropColumn:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", d.QuoteIdent(op.Table), d.QuoteIdent(op.ColumnName)), nil
	case OpRenameColumn:
		return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
			d.QuoteIdent(op.Table), d.QuoteIdent(op.ColumnName), d.QuoteIdent(op.NewName)), nil
	case OpAddIndex:
		return renderAddIndex(d, op), nil
	case OpDropIndex:
		return fmt.Sprintf("DROP INDEX %s", d.QuoteIdent(op.IndexName)), nil
	case OpAddForeignKey, OpDropForeignKey:
		// sqlite cannot alter constraints on an existing table; the table
		// has to be rebuilt, which is out of reach for a single ALTER.
		return "", fmt.Errorf("sqlite does not support %s on an existing table", op.Kind)
	case OpRawSQL:
		return op.SQL, nil
	default:
		return "", fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}
