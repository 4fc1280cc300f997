// Package executor provides the driver-facing contract (spec §4.H): an
// Executor runs already-compiled SQL and returns a uniform payload, a Pool
// manages connection lifetime, and an interceptor pipeline wraps both with
// logging and cross-cutting observation.
package executor

import "context"

// Capability is a bitset of optional features a concrete Executor exposes.
// It mirrors dialect.Capability in shape but is deliberately a distinct
// type: a dialect's SQL-level capabilities (RETURNING, etc.) and a driver's
// operational capabilities (transactions, dispose) are orthogonal — a
// dialect can support RETURNING while the executor bound to it lacks
// transaction support (e.g. a connectionless HTTP-tunneled driver).
type Capability int

const (
	CapBeginTransaction Capability = 1 << iota
	CapCommitTransaction
	CapRollbackTransaction
	CapDispose
)

func (c Capability) Has(flag Capability) bool { return c&flag != 0 }

// ExecutionMeta carries driver-reported side-channel results that aren't
// part of the row set itself.
type ExecutionMeta struct {
	InsertID      *int64
	AffectedRows  *int64
}

// ExecutionPayload is the uniform shape every Executor call returns,
// whether it came from a SELECT, an INSERT ... RETURNING, or a bare
// UPDATE/DELETE.
type ExecutionPayload struct {
	Columns []string
	Values  [][]any
	Meta    ExecutionMeta
}

// Executor is the contract a driver binding must satisfy (spec §4.H).
// Begin/Commit/Rollback/Dispose are only meaningful when the corresponding
// Capability bit is set; calling one the executor doesn't declare returns
// an *Error of kind TransactionNotSupported.
type Executor interface {
	Capabilities() Capability
	ExecuteSQL(ctx context.Context, sql string, params []any) (ExecutionPayload, error)
	BeginTransaction(ctx context.Context) (Executor, error)
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
	Dispose(ctx context.Context) error
}
