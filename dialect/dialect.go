// Package dialect compiles the query AST (package expr) into parameterised
// SQL for one of four vendor dialects.
package dialect

import "github.com/sqlkit/sqlkit/expr"

// Kind is the closed set of supported SQL dialects.
type Kind int

const (
	Postgres Kind = iota
	MySQL
	SQLite
	SQLServer
)

func (k Kind) String() string {
	switch k {
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	case SQLServer:
		return "sqlserver"
	default:
		return "unknown"
	}
}

// Capability is a bitset of optional driver-facing features a dialect (and,
// transitively, a compliant Executor) may support.
type Capability int

const (
	CapTransactions Capability = 1 << iota
	CapReturning
	CapInsertID
)

func (c Capability) Has(flag Capability) bool { return c&flag != 0 }

// Dialect is the compiler's contract with one SQL vendor: identifier
// quoting, placeholder formatting, function rendering and the handful of
// structurally different clauses (LIMIT/TOP, RETURNING/OUTPUT, upsert).
type Dialect interface {
	Kind() Kind
	Capabilities() Capability

	QuoteIdent(name string) string
	PlaceholderAt(index int) string

	SupportsSetOp(op expr.SetOp) bool
	SupportsJoinKind(k expr.JoinKind) bool

	RenderFunction(c *Compiler, fn expr.Function) (string, error)

	// SelectPrefix returns any clause inserted directly after "SELECT"
	// (and after "DISTINCT", if any) — only SQL Server's TOP n uses this.
	SelectPrefix(q *expr.SelectQuery) (string, error)
	// SelectSuffix returns the LIMIT/OFFSET (or OFFSET/FETCH) clause
	// appended at the very end of the statement.
	SelectSuffix(q *expr.SelectQuery, c *Compiler) (string, error)

	// RenderReturning renders the RETURNING/OUTPUT clause for a DML
	// statement. kind is "INSERT", "UPDATE" or "DELETE". placement is
	// "end" for dialects that append RETURNING, or "output" for SQL
	// Server's OUTPUT clause which is rendered inline by the caller.
	RenderReturning(kindName string, cols []string) (sql string, placement string, err error)

	// RenderUpsert renders the ON CONFLICT/ON DUPLICATE KEY/MERGE clause
	// appended (or, for MERGE, used as the entire statement body) when an
	// InsertQuery carries OnConflict.
	RenderUpsert(c *Compiler, table string, insertCols []string, conflict *expr.OnConflict) (string, error)
}

// Registry maps Kind to its Dialect implementation.
func ForKind(k Kind) Dialect {
	switch k {
	case Postgres:
		return postgresDialect{}
	case MySQL:
		return mysqlDialect{}
	case SQLite:
		return sqliteDialect{}
	case SQLServer:
		return sqlServerDialect{}
	default:
		panic("dialect: unknown kind")
	}
}
