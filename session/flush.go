package session

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	multierror "github.com/hashicorp/go-multierror"

	"github.com/sqlkit/sqlkit/dialect"
	"github.com/sqlkit/sqlkit/executor"
	"github.com/sqlkit/sqlkit/expr"
	"github.com/sqlkit/sqlkit/query"
	"github.com/sqlkit/sqlkit/schema"
)

// maxFlushRounds bounds the re-flush loop (spec §4.F step 5: "re-flush the
// unit-of-work so entities created as a side effect of relation changes are
// persisted"); a relation-change graph that never settles within this many
// rounds is treated as a cycle.
const maxFlushRounds = 25

func (s *Session) execRef() executor.Executor {
	if s.txExec != nil {
		return s.txExec
	}
	return s.exec
}

func (s *Session) pkPredicate(table *schema.Table, data map[string]any) expr.Expression {
	preds := make([]expr.Expression, len(table.PrimaryKey))
	for i, col := range table.PrimaryKey {
		preds[i] = expr.Eq(expr.Col(table.Name, col), data[col])
	}
	if len(preds) == 1 {
		return preds[0]
	}
	return expr.And(preds...)
}

type savedEntityState struct {
	e        *TrackedEntity
	state    EntityState
	data     map[string]any
	snapshot map[string]any
	pk       string
}

// Flush runs spec §4.F's saveChanges algorithm: open a transaction if the
// executor supports one, run beforeFlush interceptors, process tracked
// entities and relation changes (re-flushing until no new work is queued),
// run afterFlush interceptors, commit, then dispatch domain events. Any
// failure rolls back and restores every tracked entity's pre-flush status
// (spec §7/§8 invariant 7).
func (s *Session) Flush(ctx context.Context) error {
	if len(s.pending) == 0 && len(s.relChg.ordered) == 0 {
		return nil
	}

	saved := make([]savedEntityState, len(s.pending))
	for i, e := range s.pending {
		saved[i] = savedEntityState{e: e, state: e.State, data: copyRow(e.Data), snapshot: copyRow(e.Snapshot), pk: e.PK}
	}

	inTx := s.exec.Capabilities().Has(executor.CapBeginTransaction)
	if inTx {
		tx, err := s.exec.BeginTransaction(ctx)
		if err != nil {
			return err
		}
		s.txExec = tx
	}

	if err := s.runFlush(ctx, saved, inTx); err != nil {
		return err
	}
	return s.events.dispatch(ctx)
}

func (s *Session) runFlush(ctx context.Context, saved []savedEntityState, inTx bool) error {
	for _, fn := range s.beforeFlush {
		if err := fn(ctx); err != nil {
			return s.failFlush(ctx, inTx, saved, err)
		}
	}

	var result *multierror.Error
	for round := 0; ; round++ {
		if len(s.pending) == 0 && len(s.relChg.ordered) == 0 {
			break
		}
		if round >= maxFlushRounds {
			result = multierror.Append(result, errRelationCycle("flush did not settle within the round limit"))
			break
		}
		s.processEntities(ctx, &result)
		s.processRelationChanges(ctx, &result)
	}

	if err := result.ErrorOrNil(); err != nil {
		return s.failFlush(ctx, inTx, saved, err)
	}

	for _, fn := range s.afterFlush {
		if err := fn(ctx); err != nil {
			return s.failFlush(ctx, inTx, saved, err)
		}
	}

	if inTx {
		if err := s.txExec.CommitTransaction(ctx); err != nil {
			return s.failFlush(ctx, inTx, saved, err)
		}
	}
	s.txExec = nil
	return nil
}

func (s *Session) failFlush(ctx context.Context, inTx bool, saved []savedEntityState, cause error) error {
	if inTx && s.txExec != nil {
		_ = s.txExec.RollbackTransaction(ctx)
	}
	s.txExec = nil
	s.pending = nil
	for _, sv := range saved {
		sv.e.State = sv.state
		sv.e.Data = sv.data
		sv.e.Snapshot = sv.snapshot
		sv.e.PK = sv.pk
		sv.e.queued = true
		s.pending = append(s.pending, sv.e)
	}
	return cause
}

func (s *Session) processEntities(ctx context.Context, result **multierror.Error) {
	entities := s.orderedPending()
	s.pending = nil
	for _, e := range entities {
		e.queued = false
		var err error
		switch e.State {
		case New:
			err = s.insertEntity(ctx, e)
		case Dirty:
			err = s.updateEntity(ctx, e)
		case Removed:
			err = s.deleteEntity(ctx, e)
		}
		if err != nil {
			*result = multierror.Append(*result, err)
		}
	}
}

// orderedPending stable-sorts the pending queue by schema.InsertOrder so
// that, within a flush round, a table is never inserted before a table it
// has a foreign key to (spec §4.F: "emits statements in dependency order").
// Entities within the same table keep their original relative order.
func (s *Session) orderedPending() []*TrackedEntity {
	order := schema.InsertOrder(s.registry.Tables())
	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[name] = i
	}
	sorted := make([]*TrackedEntity, len(s.pending))
	copy(sorted, s.pending)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rank[sorted[i].Table.Name] < rank[sorted[j].Table.Name]
	})
	return sorted
}

func (s *Session) processRelationChanges(ctx context.Context, result **multierror.Error) {
	for _, c := range s.relChg.drain() {
		if err := s.applyRelationChange(ctx, c); err != nil {
			*result = multierror.Append(*result, err)
		}
	}
}

func (s *Session) insertEntity(ctx context.Context, e *TrackedEntity) error {
	table := e.Table
	if err := table.Hooks.Run(ctx, schema.BeforeInsert, e.Data); err != nil {
		return err
	}

	for _, pkCol := range table.PrimaryKey {
		if _, ok := e.Data[pkCol]; ok {
			continue
		}
		if col, ok := table.Column(pkCol); ok && col.Type == schema.UUID {
			e.Data[pkCol] = uuid.New().String()
		}
	}

	ib := query.Insert(table).Values(e.Data)
	if s.d.Capabilities().Has(dialect.CapReturning) {
		ib = ib.Returning(table.PrimaryKey...)
	}
	sql, params, err := ib.Compile(s.d)
	if err != nil {
		return fmt.Errorf("session: insert %s: %w", table.Name, err)
	}
	payload, err := s.execRef().ExecuteSQL(ctx, sql, params)
	if err != nil {
		return fmt.Errorf("session: insert %s: %w", table.Name, err)
	}
	rows := payloadToRows(payload)
	if len(rows) > 0 {
		for k, v := range rows[0] {
			e.Data[k] = v
		}
	} else if payload.Meta.InsertID != nil && len(table.PrimaryKey) == 1 {
		e.Data[table.PrimaryKey[0]] = *payload.Meta.InsertID
	}

	key, ok := pkKey(table, e.Data)
	if !ok {
		return fmt.Errorf("session: insert %s: primary key still unset after insert", table.Name)
	}
	e.PK = key
	e.Snapshot = copyRow(e.Data)
	e.State = Managed
	s.identity.rekey(e, "")

	return table.Hooks.Run(ctx, schema.AfterInsert, e.Data)
}

func (s *Session) updateEntity(ctx context.Context, e *TrackedEntity) error {
	table := e.Table
	changed := e.changedColumns()
	for _, pk := range table.PrimaryKey {
		delete(changed, pk)
	}
	if len(changed) == 0 {
		e.State = Managed
		return nil
	}

	if err := table.Hooks.Run(ctx, schema.BeforeUpdate, e.Data); err != nil {
		return err
	}

	ub := query.Update(table)
	for _, col := range table.Columns.Names() {
		if val, ok := changed[col]; ok {
			ub = ub.Set(col, val)
		}
	}
	ub = ub.Where(s.pkPredicate(table, e.Data))
	if _, _, err := ub.Execute(s); err != nil {
		return fmt.Errorf("session: update %s: %w", table.Name, err)
	}

	e.Snapshot = copyRow(e.Data)
	e.State = Managed
	return table.Hooks.Run(ctx, schema.AfterUpdate, e.Data)
}

func (s *Session) deleteEntity(ctx context.Context, e *TrackedEntity) error {
	table := e.Table
	if err := table.Hooks.Run(ctx, schema.BeforeDelete, e.Data); err != nil {
		return err
	}
	db := query.Delete(table).Where(s.pkPredicate(table, e.Data))
	if _, _, err := db.Execute(s); err != nil {
		return fmt.Errorf("session: delete %s: %w", table.Name, err)
	}
	s.identity.remove(table.Name, e.PK)
	return table.Hooks.Run(ctx, schema.AfterDelete, e.Data)
}

// applyRelationChange executes one drained RelationChange (spec §4.F step
// 4). Add simply queues the child entity so the surrounding re-flush loop
// inserts it with its foreign key pointed at root; the rest translate to
// direct FK writes (HasOne/HasMany/BelongsTo) or pivot-row inserts/deletes
// (BelongsToMany).
func (s *Session) applyRelationChange(ctx context.Context, c *RelationChange) error {
	rootTable := s.registry.Table(c.RootTable)
	if rootTable == nil {
		return fmt.Errorf("session: unknown table %q", c.RootTable)
	}
	rel, ok := rootTable.Relation(c.RelationName)
	if !ok {
		return fmt.Errorf("session: unknown relation %q on %q", c.RelationName, c.RootTable)
	}
	target := rel.Target.Resolved()
	rootPK := rootPrimaryValue(c.Root)

	switch c.Kind {
	case Add:
		if c.Child == nil {
			return nil
		}
		if rel.Kind != schema.BelongsToMany {
			c.Child.Data[rel.ForeignKey] = rootPK
		}
		s.queue(c.Child)
		return nil

	case Attach:
		for _, id := range c.IDs {
			if err := s.attachOne(ctx, rel, target, rootPK, id, c.PivotColumns); err != nil {
				return err
			}
		}
		return nil

	case Detach:
		for _, id := range c.IDs {
			if err := s.detachOne(ctx, rel, target, rootPK, id); err != nil {
				return err
			}
		}
		return nil

	case Remove:
		targetPKCol := firstPrimaryKeyColumn(target)
		for _, id := range c.IDs {
			db := query.Delete(target).Where(expr.Eq(expr.Col(target.Name, targetPKCol), id))
			if _, _, err := db.Execute(s); err != nil {
				return fmt.Errorf("session: remove %s via %s: %w", target.Name, c.RelationName, err)
			}
		}
		return nil

	case Sync:
		if rel.Kind != schema.BelongsToMany {
			return fmt.Errorf("session: sync is only supported on belongs-to-many relations (%s.%s)", c.RootTable, c.RelationName)
		}
		current, err := s.currentPivotIDs(ctx, rel, rootPK)
		if err != nil {
			return err
		}
		attach, detach := diffSync(current, c.IDs)
		for _, id := range attach {
			if err := s.attachOne(ctx, rel, target, rootPK, id, c.PivotColumns); err != nil {
				return err
			}
		}
		for _, id := range detach {
			if err := s.detachOne(ctx, rel, target, rootPK, id); err != nil {
				return err
			}
		}
		return nil

	case UpdateChildren:
		if rel.Kind == schema.BelongsToMany {
			return fmt.Errorf("session: update_children is not supported on belongs-to-many relations (%s.%s)", c.RootTable, c.RelationName)
		}
		ub := query.Update(target)
		for col, val := range c.Updates {
			ub = ub.Set(col, val)
		}
		ub = ub.Where(expr.Eq(expr.Col(target.Name, rel.ForeignKey), rootPK))
		if _, _, err := ub.Execute(s); err != nil {
			return fmt.Errorf("session: update_children via %s: %w", c.RelationName, err)
		}
		return nil
	}
	return nil
}

func rootPrimaryValue(root *TrackedEntity) any {
	if root == nil || len(root.Table.PrimaryKey) == 0 {
		return nil
	}
	return root.Data[root.Table.PrimaryKey[0]]
}

func firstPrimaryKeyColumn(table *schema.Table) string {
	if len(table.PrimaryKey) == 0 {
		return ""
	}
	return table.PrimaryKey[0]
}

// attachOne associates one target id with rootPK: a pivot-row insert for
// BelongsToMany, or an FK update on target otherwise.
func (s *Session) attachOne(ctx context.Context, rel schema.Relation, target *schema.Table, rootPK any, targetID string, pivotCols map[string]any) error {
	if rel.Kind == schema.BelongsToMany {
		return s.insertPivotRow(ctx, rel, rootPK, targetID, pivotCols)
	}
	targetPKCol := firstPrimaryKeyColumn(target)
	ub := query.Update(target).Set(rel.ForeignKey, rootPK).Where(expr.Eq(expr.Col(target.Name, targetPKCol), targetID))
	_, _, err := ub.Execute(s)
	return err
}

// detachOne dissociates one target id from rootPK: a pivot-row delete for
// BelongsToMany, or clearing the FK column otherwise.
func (s *Session) detachOne(ctx context.Context, rel schema.Relation, target *schema.Table, rootPK any, targetID string) error {
	if rel.Kind == schema.BelongsToMany {
		return s.deletePivotRow(ctx, rel, rootPK, targetID)
	}
	targetPKCol := firstPrimaryKeyColumn(target)
	ub := query.Update(target).Set(rel.ForeignKey, nil).Where(expr.Eq(expr.Col(target.Name, targetPKCol), targetID))
	_, _, err := ub.Execute(s)
	return err
}

func (s *Session) insertPivotRow(ctx context.Context, rel schema.Relation, rootPK any, targetID string, pivotCols map[string]any) error {
	pivot := rel.PivotTable.Resolved()
	data := map[string]any{rel.PivotForeignKeyToRoot: rootPK, rel.PivotForeignKeyToTarget: targetID}
	for k, v := range pivotCols {
		data[k] = v
	}
	ib := query.Insert(pivot).Values(data)
	_, _, err := ib.Execute(s)
	return err
}

func (s *Session) deletePivotRow(ctx context.Context, rel schema.Relation, rootPK any, targetID string) error {
	pivot := rel.PivotTable.Resolved()
	pred := expr.And(
		expr.Eq(expr.Col(pivot.Name, rel.PivotForeignKeyToRoot), rootPK),
		expr.Eq(expr.Col(pivot.Name, rel.PivotForeignKeyToTarget), targetID),
	)
	db := query.Delete(pivot).Where(pred)
	_, _, err := db.Execute(s)
	return err
}

// currentPivotIDs lists the target ids currently associated with rootPK via
// a BelongsToMany pivot table, bypassing the hydrate.Reshape path (the
// projection here is a single pivot column, not a full row keyed by the
// pivot's own primary key).
func (s *Session) currentPivotIDs(ctx context.Context, rel schema.Relation, rootPK any) ([]string, error) {
	pivot := rel.PivotTable.Resolved()
	q := &expr.SelectQuery{
		From:    expr.TableSource{Table: pivot.QualifiedName(), Alias: pivot.Name},
		Columns: []expr.Projection{{Expr: expr.Col(pivot.Name, rel.PivotForeignKeyToTarget), Alias: "target_id"}},
		Where:   expr.Eq(expr.Col(pivot.Name, rel.PivotForeignKeyToRoot), rootPK),
	}
	sql, params, err := dialect.CompileSelect(s.d, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.RunSelect(sql+";", params)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, fmt.Sprint(row["target_id"]))
	}
	return ids, nil
}
