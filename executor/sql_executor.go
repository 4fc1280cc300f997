package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sqlkit/sqlkit/dialect"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// driverNameFor maps a dialect.Kind to the database/sql driver name
// registered by its blank-imported package, generalizing the teacher's
// unused database.DbType-switched DSN builder (driver/database.go) into a
// live adapter.
func driverNameFor(k dialect.Kind) (string, error) {
	switch k {
	case dialect.Postgres:
		return "postgres", nil
	case dialect.MySQL:
		return "mysql", nil
	case dialect.SQLite:
		return "sqlite", nil
	case dialect.SQLServer:
		return "sqlserver", nil
	default:
		return "", fmt.Errorf("executor: no driver registered for dialect %s", k)
	}
}

// handle is the subset of *sql.DB / *sql.Tx that SQLExecutor drives.
type handle interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLExecutor is the one concrete Executor the core ships: a thin
// database/sql adapter. Opening it registers no schema introspection and
// runs no migration — only sql.Open plus driver registration.
type SQLExecutor struct {
	kind   dialect.Kind
	db     *sql.DB
	tx     *sql.Tx
	h      handle
	logger *zap.Logger
}

// NewSQLExecutor opens a connection pool for dialect k against dsn.
func NewSQLExecutor(k dialect.Kind, dsn string, logger *zap.Logger) (*SQLExecutor, error) {
	driverName, err := driverNameFor(k)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errDriver("open", err)
	}
	return &SQLExecutor{kind: k, db: db, h: db, logger: logger}, nil
}

func (e *SQLExecutor) Capabilities() Capability {
	caps := CapDispose
	if e.tx == nil {
		caps |= CapBeginTransaction
	} else {
		caps |= CapCommitTransaction | CapRollbackTransaction
	}
	return caps
}

func (e *SQLExecutor) log(sql string, params []any) {
	if e.logger == nil {
		return
	}
	e.logger.Debug("executor: statement", zap.String("sql", sql), zap.Int("params", len(params)))
}

// isRowReturning reports whether sql produces a row set the driver must
// read with Query rather than Exec: SELECTs, CTEs, and any RETURNING/OUTPUT
// clause on a DML statement.
func isRowReturning(sql string) bool {
	trimmed := strings.TrimSpace(sql)
	upper := strings.ToUpper(trimmed)
	if strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH") {
		return true
	}
	return strings.Contains(upper, " RETURNING ") || strings.Contains(upper, "OUTPUT ")
}

func (e *SQLExecutor) ExecuteSQL(ctx context.Context, stmt string, params []any) (ExecutionPayload, error) {
	e.log(stmt, params)

	if isRowReturning(stmt) {
		rows, err := e.h.QueryContext(ctx, stmt, params...)
		if err != nil {
			return ExecutionPayload{}, wrapDriverErr(ctx, err)
		}
		defer rows.Close()
		return scanRows(rows)
	}

	result, err := e.h.ExecContext(ctx, stmt, params...)
	if err != nil {
		return ExecutionPayload{}, wrapDriverErr(ctx, err)
	}
	payload := ExecutionPayload{}
	if affected, err := result.RowsAffected(); err == nil {
		payload.Meta.AffectedRows = &affected
	}
	if id, err := result.LastInsertId(); err == nil {
		payload.Meta.InsertID = &id
	}
	return payload, nil
}

func scanRows(rows *sql.Rows) (ExecutionPayload, error) {
	cols, err := rows.Columns()
	if err != nil {
		return ExecutionPayload{}, errDriver("columns", err)
	}
	payload := ExecutionPayload{Columns: cols}
	for rows.Next() {
		dest := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return ExecutionPayload{}, errDriver("scan", err)
		}
		payload.Values = append(payload.Values, dest)
	}
	if err := rows.Err(); err != nil {
		return ExecutionPayload{}, errDriver("rows", err)
	}
	return payload, nil
}

func wrapDriverErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errCancelled(ctx.Err().Error())
	}
	return errDriver("statement failed", err)
}

func (e *SQLExecutor) BeginTransaction(ctx context.Context) (Executor, error) {
	if e.tx != nil {
		return nil, errTransactionNotSupported("nested transactions are not supported")
	}
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapDriverErr(ctx, err)
	}
	return &SQLExecutor{kind: e.kind, db: e.db, tx: tx, h: tx, logger: e.logger}, nil
}

func (e *SQLExecutor) CommitTransaction(ctx context.Context) error {
	if e.tx == nil {
		return errTransactionNotSupported("not inside a transaction")
	}
	if err := e.tx.Commit(); err != nil {
		return wrapDriverErr(ctx, err)
	}
	return nil
}

func (e *SQLExecutor) RollbackTransaction(ctx context.Context) error {
	if e.tx == nil {
		return errTransactionNotSupported("not inside a transaction")
	}
	if err := e.tx.Rollback(); err != nil {
		return wrapDriverErr(ctx, err)
	}
	return nil
}

func (e *SQLExecutor) Dispose(ctx context.Context) error {
	if e.tx != nil {
		return errTransactionNotSupported("dispose called on a transaction-scoped executor; commit or rollback first")
	}
	if err := e.db.Close(); err != nil {
		return errDriver("close", err)
	}
	return nil
}

// DialectKind returns the dialect.Kind this executor was opened for, so callers
// assembling a session don't have to track it separately.
func (e *SQLExecutor) DialectKind() dialect.Kind { return e.kind }
