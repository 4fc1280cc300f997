package session

import (
	"fmt"
	"strings"

	"github.com/sqlkit/sqlkit/schema"
)

// EntityState is the closed set of lifecycle states a tracked entity can be
// in (spec §4.F).
type EntityState int

const (
	Managed EntityState = iota
	New
	Dirty
	Removed
	Detached
)

func (s EntityState) String() string {
	switch s {
	case Managed:
		return "Managed"
	case New:
		return "New"
	case Dirty:
		return "Dirty"
	case Removed:
		return "Removed"
	case Detached:
		return "Detached"
	default:
		return "Unknown"
	}
}

// TrackedEntity is one row tracked by a Session's identity map. Data holds
// the current column values; Snapshot holds the values as of the last
// successful flush (or first tracking), used to diff out an UPDATE's SET
// list. Callers hold a *TrackedEntity reference, never a copy, so that
// find_by_pk returns the same object reference across calls (spec §8
// invariant 5).
type TrackedEntity struct {
	Table    *schema.Table
	PK       string
	Data     map[string]any
	Snapshot map[string]any
	State    EntityState

	queued bool // already on the session's pending-flush list
}

func copyRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// pkKey joins a table's primary key values into the identity map's bucket
// key. Composite keys are tab-joined in declared PK order, per
// SPEC_FULL.md's §3 addition.
func pkKey(table *schema.Table, data map[string]any) (string, bool) {
	parts := make([]string, len(table.PrimaryKey))
	for i, col := range table.PrimaryKey {
		v, ok := data[col]
		if !ok || v == nil {
			return "", false
		}
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "\t"), true
}

// changedColumns returns the columns whose Data value differs from
// Snapshot, keyed by column name. The map carries no order; updateEntity
// applies it in table column-declaration order for a deterministic SET list.
func (e *TrackedEntity) changedColumns() map[string]any {
	out := map[string]any{}
	for _, col := range e.Table.Columns.Names() {
		cur, ok := e.Data[col]
		if !ok {
			continue
		}
		orig, existed := e.Snapshot[col]
		if !existed || !equalValue(orig, cur) {
			out[col] = cur
		}
	}
	return out
}

func equalValue(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
