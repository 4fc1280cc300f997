package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sqlkit/executor"
	"github.com/sqlkit/sqlkit/schema"
)

// usersTable builds a small, bootstrapped single-table registry shared by
// this package's tests.
func usersTable(t *testing.T) (*schema.Registry, *schema.Table) {
	t.Helper()
	reg := schema.NewRegistry()
	users, err := reg.DefineTable("users", []schema.Column{
		schema.IntColumn("id").PrimaryKey().AutoIncrement(),
		schema.VarcharColumn("name", 200).NotNull(),
		schema.VarcharColumn("email", 320).NotNull(),
	})
	require.NoError(t, err)
	require.NoError(t, reg.Bootstrap())
	return reg, users
}

// usersPostsTables builds a bootstrapped two-table registry where posts has
// a foreign key to users, for tests asserting flush insert ordering.
func usersPostsTables(t *testing.T) (*schema.Registry, *schema.Table, *schema.Table) {
	t.Helper()
	reg := schema.NewRegistry()
	users, err := reg.DefineTable("users", []schema.Column{
		schema.IntColumn("id").PrimaryKey().AutoIncrement(),
		schema.VarcharColumn("name", 200).NotNull(),
	})
	require.NoError(t, err)
	posts, err := reg.DefineTable("posts", []schema.Column{
		schema.IntColumn("id").PrimaryKey().AutoIncrement(),
		schema.IntColumn("user_id").References("users", "id"),
		schema.VarcharColumn("title", 200).NotNull(),
	})
	require.NoError(t, err)
	require.NoError(t, reg.Bootstrap())
	return reg, users, posts
}

type fakeResult struct {
	payload executor.ExecutionPayload
	err     error
}

// execLedger is the shared call/result state behind a fakeExecutor and the
// transaction-scoped executor Flush opens over it, so a test can assert on
// statement order regardless of whether Flush ran inside a transaction.
type execLedger struct {
	results    []fakeResult
	calls      []string
	rolledBack bool
	committed  bool
	disposed   bool
}

// fakeExecutor is a scripted executor.Executor stub: each call to
// ExecuteSQL consumes the next entry in the ledger's results (repeating the
// last entry once exhausted), recording every statement seen.
type fakeExecutor struct {
	caps   executor.Capability
	ledger *execLedger
}

func newFakeExecutor(caps executor.Capability, results ...fakeResult) *fakeExecutor {
	return &fakeExecutor{caps: caps, ledger: &execLedger{results: results}}
}

func (f *fakeExecutor) Capabilities() executor.Capability { return f.caps }

func (f *fakeExecutor) ExecuteSQL(ctx context.Context, sql string, params []any) (executor.ExecutionPayload, error) {
	l := f.ledger
	l.calls = append(l.calls, sql)
	if len(l.results) == 0 {
		return executor.ExecutionPayload{}, nil
	}
	idx := len(l.calls) - 1
	if idx >= len(l.results) {
		idx = len(l.results) - 1
	}
	r := l.results[idx]
	return r.payload, r.err
}

func (f *fakeExecutor) BeginTransaction(ctx context.Context) (executor.Executor, error) {
	return &fakeExecutor{caps: f.caps, ledger: f.ledger}, nil
}

func (f *fakeExecutor) CommitTransaction(ctx context.Context) error {
	f.ledger.committed = true
	return nil
}

func (f *fakeExecutor) RollbackTransaction(ctx context.Context) error {
	f.ledger.rolledBack = true
	return nil
}

func (f *fakeExecutor) Dispose(ctx context.Context) error {
	f.ledger.disposed = true
	return nil
}
