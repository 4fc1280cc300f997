// Package session implements the unit-of-work layer of spec §4.F: an
// identity map, change tracking, a relation-change processor, hooks,
// domain events, and the saveChanges flush algorithm, all driven over a
// dialect + executor pair.
package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sqlkit/sqlkit/dialect"
	"github.com/sqlkit/sqlkit/executor"
	"github.com/sqlkit/sqlkit/hydrate"
	"github.com/sqlkit/sqlkit/schema"
)

// Session owns everything spec §4.F lists: a dialect, a driver executor, an
// optional query logger, an identity map, a unit-of-work, a relation-change
// processor, an interceptor pipeline (carried by the Executor itself, see
// package executor), and a domain event bus. Not safe for concurrent use
// from multiple goroutines (spec §5: "sessions are not safe for concurrent
// use from multiple tasks").
type Session struct {
	registry *schema.Registry
	d        dialect.Dialect
	exec     executor.Executor
	logger   *zap.Logger

	identity *identityMap
	events   *EventBus
	relChg   *relationChangeProcessor

	// txExec is the transaction executor opened by Flush, if the underlying
	// executor supports transactions; execRef() prefers it over exec so
	// every statement within a flush runs on the same connection.
	txExec executor.Executor

	pending []*TrackedEntity

	beforeFlush []func(ctx context.Context) error
	afterFlush  []func(ctx context.Context) error
}

// New opens a session bound to registry's bootstrapped metadata, compiling
// for d and running statements through exec. logger may be nil.
func New(registry *schema.Registry, d dialect.Dialect, exec executor.Executor, logger *zap.Logger) (*Session, error) {
	if !registry.Bootstrapped() {
		return nil, fmt.Errorf("session: registry must be bootstrapped before a session is created")
	}
	return &Session{
		registry: registry,
		d:        d,
		exec:     exec,
		logger:   logger,
		identity: newIdentityMap(),
		events:   newEventBus(),
		relChg:   newRelationChangeProcessor(),
	}, nil
}

// Dialect satisfies query.Session/query.Execer.
func (s *Session) Dialect() dialect.Dialect { return s.d }

// On registers a domain event handler (spec §4.F step 6).
func (s *Session) On(name string, handler EventHandler) { s.events.On(name, handler) }

// BeforeFlush/AfterFlush register flush interceptors (spec §4.F steps 2, 6).
func (s *Session) BeforeFlush(fn func(ctx context.Context) error) { s.beforeFlush = append(s.beforeFlush, fn) }
func (s *Session) AfterFlush(fn func(ctx context.Context) error)  { s.afterFlush = append(s.afterFlush, fn) }

func payloadToRows(p executor.ExecutionPayload) []hydrate.Row {
	rows := make([]hydrate.Row, len(p.Values))
	for i, vals := range p.Values {
		row := hydrate.Row{}
		for j, col := range p.Columns {
			if j < len(vals) {
				row[col] = vals[j]
			}
		}
		rows[i] = row
	}
	return rows
}

// RunSelect satisfies query.Session: runs sql and returns its rows
// unreshaped (SelectBuilder.Execute reshapes them via its hydrate.Plan).
func (s *Session) RunSelect(sql string, params []any) ([]hydrate.Row, error) {
	payload, err := s.execRef().ExecuteSQL(context.Background(), sql, params)
	if err != nil {
		return nil, err
	}
	return payloadToRows(payload), nil
}

// RunExec satisfies query.Execer: runs a mutation and returns any
// RETURNING/OUTPUT rows plus the affected row count.
func (s *Session) RunExec(sql string, params []any) ([]hydrate.Row, int64, error) {
	payload, err := s.execRef().ExecuteSQL(context.Background(), sql, params)
	if err != nil {
		return nil, 0, err
	}
	rows := payloadToRows(payload)
	if payload.Meta.AffectedRows != nil {
		return rows, *payload.Meta.AffectedRows, nil
	}
	return rows, int64(len(rows)), nil
}

// TrackManaged installs row as a Managed entity, or returns the existing
// tracked instance if row's primary key is already tracked (spec §8
// invariant 5: find_by_pk returns the same reference across calls).
func (s *Session) TrackManaged(table *schema.Table, row map[string]any) (*TrackedEntity, error) {
	key, ok := pkKey(table, row)
	if !ok {
		return nil, fmt.Errorf("session: row has no primary key value for table %q", table.Name)
	}
	if existing, found := s.identity.get(table.Name, key); found {
		return existing, nil
	}
	e := &TrackedEntity{Table: table, PK: key, Data: copyRow(row), Snapshot: copyRow(row), State: Managed}
	s.identity.track(e)
	return e, nil
}

// TrackNew stages row as a New entity; it is inserted on the next Flush.
// Flush emits statements table by table in foreign-key dependency order
// (schema.InsertOrder); within one table, registration order (the order
// TrackNew/MarkDirty/MarkRemoved are called in) is kept.
func (s *Session) TrackNew(table *schema.Table, row map[string]any) *TrackedEntity {
	e := &TrackedEntity{Table: table, Data: copyRow(row), State: New}
	s.queue(e)
	return e
}

func (s *Session) queue(e *TrackedEntity) {
	if e.queued {
		return
	}
	e.queued = true
	s.pending = append(s.pending, e)
}

// FindByPK returns the tracked instance for table/pk, if any.
func (s *Session) FindByPK(table *schema.Table, pk ...any) (*TrackedEntity, bool) {
	data := make(map[string]any, len(table.PrimaryKey))
	for i, col := range table.PrimaryKey {
		if i < len(pk) {
			data[col] = pk[i]
		}
	}
	key, ok := pkKey(table, data)
	if !ok {
		return nil, false
	}
	return s.identity.get(table.Name, key)
}

// MarkDirty assigns value to column on e and, on the first such assignment
// since the last flush, queues e for an UPDATE (spec §4.F: "assigning to a
// column-property on a managed entity marks it Dirty").
func (s *Session) MarkDirty(e *TrackedEntity, column string, value any) error {
	if e.State == Detached {
		return errEntityNotTracked(column)
	}
	e.Data[column] = value
	if e.State == Managed {
		e.State = Dirty
	}
	if e.State == Dirty || e.State == New {
		s.queue(e)
	}
	return nil
}

// MarkRemoved flags e for deletion on the next Flush. A New entity that
// has never been flushed cannot also be Removed (spec §4.F invariant).
func (s *Session) MarkRemoved(e *TrackedEntity) error {
	if e.State == New {
		return errPkConflict(e.Table.Name)
	}
	e.State = Removed
	s.queue(e)
	return nil
}

// RegisterRelationChange records a pending relation mutation (spec §4.F:
// "assigning to a relation-property registers a RelationChange").
func (s *Session) RegisterRelationChange(c *RelationChange) { s.relChg.register(c) }

// Detach removes e from the identity map without affecting storage.
func (s *Session) Detach(e *TrackedEntity) {
	if e.PK != "" {
		s.identity.remove(e.Table.Name, e.PK)
	}
	e.State = Detached
}
