// Package loader implements spec §4.G's batched lazy relation loader: when
// a query includes a relation marked .Lazy(), SelectBuilder leaves a
// hydrate.RelationPlan in Plan.LazyRelations with no joined columns at
// all; package loader turns that plan into a single batched SELECT across
// every row that needs it, instead of one round trip per row.
package loader

import (
	"context"
	"fmt"

	"github.com/sqlkit/sqlkit/expr"
	"github.com/sqlkit/sqlkit/hydrate"
	"github.com/sqlkit/sqlkit/query"
	"github.com/sqlkit/sqlkit/schema"
)

// Batcher runs batched fetches for lazy relations against a session.
type Batcher struct {
	sess query.Session
}

// New returns a Batcher driven by sess (package session's *Session
// satisfies query.Session structurally; loader never imports session).
func New(sess query.Session) *Batcher {
	return &Batcher{sess: sess}
}

func rowKey(row hydrate.Row, cols []string) (string, bool) {
	if len(cols) == 1 {
		v, ok := row[cols[0]]
		if !ok || v == nil {
			return "", false
		}
		return fmt.Sprint(v), true
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		v, ok := row[c]
		if !ok || v == nil {
			return "", false
		}
		parts[i] = fmt.Sprint(v)
	}
	key := ""
	for i, p := range parts {
		if i > 0 {
			key += "\t"
		}
		key += p
	}
	return key, true
}

func projectionColumns(target *schema.Table, requested []string) []string {
	if len(requested) == 0 {
		return target.Columns.Names()
	}
	have := make(map[string]bool, len(requested))
	for _, c := range requested {
		have[c] = true
	}
	cols := append([]string{}, requested...)
	for _, pk := range target.PrimaryKey {
		if !have[pk] {
			cols = append([]string{pk}, cols...)
			have[pk] = true
		}
	}
	return cols
}

// LoadAsync starts plan's batched fetch on its own goroutine and returns a
// Future that settles once rows has been mutated in place. Every row passed
// in shares this one Future; a separate LoadAsync call for the same relation
// runs its own fetch and returns its own Future.
func (b *Batcher) LoadAsync(ctx context.Context, table *schema.Table, rows []hydrate.Row, plan *hydrate.RelationPlan) *Future[struct{}] {
	fut := NewFuture[struct{}]()
	go func() {
		fut.Resolve(struct{}{}, b.Load(ctx, table, rows, plan))
	}()
	return fut
}

// Load fetches plan's relation for every row in rows and installs the
// result under row[plan.Name], mutating rows in place. table is the table
// the rows were selected from (the relation's owner).
func (b *Batcher) Load(ctx context.Context, table *schema.Table, rows []hydrate.Row, plan *hydrate.RelationPlan) error {
	if len(rows) == 0 {
		return nil
	}
	rel, ok := table.Relation(plan.Name)
	if !ok {
		return fmt.Errorf("loader: unknown relation %q on %q", plan.Name, table.Name)
	}

	switch rel.Kind {
	case schema.HasOne, schema.HasMany:
		return b.loadHasMany(ctx, rows, rel, plan)
	case schema.BelongsTo:
		return b.loadBelongsTo(ctx, table, rows, rel, plan)
	case schema.BelongsToMany:
		return b.loadBelongsToMany(ctx, rows, rel, plan)
	default:
		return fmt.Errorf("loader: unsupported relation kind for %q", plan.Name)
	}
}

// loadHasMany covers HasOne and HasMany: the foreign key lives on target,
// the local key lives on the root rows already in hand.
func (b *Batcher) loadHasMany(ctx context.Context, rows []hydrate.Row, rel schema.Relation, plan *hydrate.RelationPlan) error {
	target := rel.Target.Resolved()
	localKey := rel.LocalKey

	values, seen := []any{}, map[string]bool{}
	for _, row := range rows {
		v, ok := row[localKey]
		if !ok || v == nil {
			continue
		}
		key := fmt.Sprint(v)
		if !seen[key] {
			seen[key] = true
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil
	}

	targetRows, err := fetchIn(ctx, b.sess, target, rel.ForeignKey, projectionColumns(target, plan.Columns), values)
	if err != nil {
		return fmt.Errorf("loader: loading %q: %w", plan.Name, err)
	}

	byKey := map[string][]hydrate.Row{}
	for _, tr := range targetRows {
		if v, ok := tr[rel.ForeignKey]; ok && v != nil {
			key := fmt.Sprint(v)
			byKey[key] = append(byKey[key], tr)
		}
	}

	for _, row := range rows {
		v, ok := row[localKey]
		if !ok || v == nil {
			continue
		}
		matches := byKey[fmt.Sprint(v)]
		assign(row, plan, matches)
	}
	return nil
}

// loadBelongsTo covers the §4.G special case: the foreign key lives on the
// root row itself, and may be missing if the root was selected without it
// (e.g. a find_by_pk restricted to an id column) — those peers get a
// {pk, fk} backfill read before the batched target fetch runs.
func (b *Batcher) loadBelongsTo(ctx context.Context, table *schema.Table, rows []hydrate.Row, rel schema.Relation, plan *hydrate.RelationPlan) error {
	target := rel.Target.Resolved()
	targetKey := rel.LocalKey
	if targetKey == "" && len(target.PrimaryKey) > 0 {
		targetKey = target.PrimaryKey[0]
	}

	if len(table.PrimaryKey) == 1 {
		pk := table.PrimaryKey[0]
		var missingPKs []any
		for _, row := range rows {
			if _, ok := row[rel.ForeignKey]; !ok {
				if v, ok := row[pk]; ok && v != nil {
					missingPKs = append(missingPKs, v)
				}
			}
		}
		if len(missingPKs) > 0 {
			pairs, err := fetchIn(ctx, b.sess, table, pk, []string{pk, rel.ForeignKey}, missingPKs)
			if err != nil {
				return fmt.Errorf("loader: backfilling %q foreign key: %w", plan.Name, err)
			}
			byPK := map[string]hydrate.Row{}
			for _, p := range pairs {
				if v, ok := p[pk]; ok {
					byPK[fmt.Sprint(v)] = p
				}
			}
			for _, row := range rows {
				if _, ok := row[rel.ForeignKey]; ok {
					continue
				}
				if v, ok := row[pk]; ok {
					if p, found := byPK[fmt.Sprint(v)]; found {
						row[rel.ForeignKey] = p[rel.ForeignKey]
					}
				}
			}
		}
	}

	values, seen := []any{}, map[string]bool{}
	for _, row := range rows {
		v, ok := row[rel.ForeignKey]
		if !ok || v == nil {
			continue
		}
		key := fmt.Sprint(v)
		if !seen[key] {
			seen[key] = true
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		for _, row := range rows {
			row[plan.Name] = nil
		}
		return nil
	}

	targetRows, err := fetchIn(ctx, b.sess, target, targetKey, projectionColumns(target, plan.Columns), values)
	if err != nil {
		return fmt.Errorf("loader: loading %q: %w", plan.Name, err)
	}

	byKey := map[string]hydrate.Row{}
	for _, tr := range targetRows {
		if v, ok := tr[targetKey]; ok && v != nil {
			byKey[fmt.Sprint(v)] = tr
		}
	}

	for _, row := range rows {
		v, ok := row[rel.ForeignKey]
		if !ok || v == nil {
			row[plan.Name] = nil
			continue
		}
		if tr, found := byKey[fmt.Sprint(v)]; found {
			row[plan.Name] = tr
		} else {
			row[plan.Name] = nil
		}
	}
	return nil
}

// loadBelongsToMany batches the pivot read first, then the target read,
// per spec §4.G's two-step "issues a single SELECT" description extended
// to the many-to-many pivot hop.
func (b *Batcher) loadBelongsToMany(ctx context.Context, rows []hydrate.Row, rel schema.Relation, plan *hydrate.RelationPlan) error {
	target := rel.Target.Resolved()
	pivot := rel.PivotTable.Resolved()
	targetPK := ""
	if len(target.PrimaryKey) > 0 {
		targetPK = target.PrimaryKey[0]
	}

	rootValues, seen := []any{}, map[string]bool{}
	for _, row := range rows {
		v, ok := row[rel.LocalKey]
		if !ok || v == nil {
			continue
		}
		key := fmt.Sprint(v)
		if !seen[key] {
			seen[key] = true
			rootValues = append(rootValues, v)
		}
	}
	if len(rootValues) == 0 {
		return nil
	}

	pivotCols := []string{rel.PivotForeignKeyToRoot, rel.PivotForeignKeyToTarget}
	pivotCols = append(pivotCols, plan.PivotColumns...)
	pivotRows, err := fetchIn(ctx, b.sess, pivot, rel.PivotForeignKeyToRoot, pivotCols, rootValues)
	if err != nil {
		return fmt.Errorf("loader: loading pivot for %q: %w", plan.Name, err)
	}

	targetIDsByRoot := map[string][]string{}
	pivotExtra := map[string]hydrate.Row{} // "rootKey\ttargetID" -> extra pivot columns
	targetIDSeen := map[string]bool{}
	var targetIDs []any
	for _, pr := range pivotRows {
		rootV, okR := pr[rel.PivotForeignKeyToRoot]
		targetV, okT := pr[rel.PivotForeignKeyToTarget]
		if !okR || !okT || rootV == nil || targetV == nil {
			continue
		}
		rootKey := fmt.Sprint(rootV)
		targetID := fmt.Sprint(targetV)
		targetIDsByRoot[rootKey] = append(targetIDsByRoot[rootKey], targetID)
		if !targetIDSeen[targetID] {
			targetIDSeen[targetID] = true
			targetIDs = append(targetIDs, targetV)
		}
		if plan.HasPivot {
			extra := hydrate.Row{}
			for _, c := range plan.PivotColumns {
				extra[c] = pr[c]
			}
			pivotExtra[rootKey+"\t"+targetID] = extra
		}
	}

	var targetRows []hydrate.Row
	if len(targetIDs) > 0 {
		targetRows, err = fetchIn(ctx, b.sess, target, targetPK, projectionColumns(target, plan.Columns), targetIDs)
		if err != nil {
			return fmt.Errorf("loader: loading %q: %w", plan.Name, err)
		}
	}
	byTargetID := map[string]hydrate.Row{}
	for _, tr := range targetRows {
		if v, ok := tr[targetPK]; ok {
			byTargetID[fmt.Sprint(v)] = tr
		}
	}

	for _, row := range rows {
		v, ok := row[rel.LocalKey]
		if !ok || v == nil {
			continue
		}
		rootKey := fmt.Sprint(v)
		ids := targetIDsByRoot[rootKey]
		matches := make([]hydrate.Row, 0, len(ids))
		for _, id := range ids {
			tr, found := byTargetID[id]
			if !found {
				continue
			}
			if plan.HasPivot {
				tr = mergePivot(tr, pivotExtra[rootKey+"\t"+id], plan.PivotMerge)
			}
			matches = append(matches, tr)
		}
		assign(row, plan, matches)
	}
	return nil
}

func mergePivot(target hydrate.Row, extra hydrate.Row, merge bool) hydrate.Row {
	out := hydrate.Row{}
	for k, v := range target {
		out[k] = v
	}
	if merge {
		for k, v := range extra {
			if _, exists := out[k]; !exists {
				out[k] = v
			}
		}
		return out
	}
	out["_pivot"] = extra
	return out
}

func assign(row hydrate.Row, plan *hydrate.RelationPlan, matches []hydrate.Row) {
	if plan.Arity == hydrate.Multiple {
		row[plan.Name] = matches
		return
	}
	if len(matches) > 0 {
		row[plan.Name] = matches[0]
	} else {
		row[plan.Name] = nil
	}
}

// fetchIn runs a plain SELECT col IN (values) against table, via the
// ordinary SelectBuilder/Execute path (the target has no further includes
// here, so hydrate.Reshape just produces one flat row per match).
func fetchIn(ctx context.Context, sess query.Session, table *schema.Table, col string, columns []string, values []any) ([]hydrate.Row, error) {
	_ = ctx // statements run through query.Session, which is not yet context-aware (see executor.Executor)
	sb := query.Select(table)
	if len(columns) > 0 && len(columns) != len(table.Columns.Names()) {
		projections := make([]expr.Projection, len(columns))
		for i, c := range columns {
			projections[i] = expr.Projection{Expr: expr.Col(table.Name, c)}
		}
		sb = sb.SelectCols(projections...)
	}
	sb = sb.Where(expr.InList(expr.Col(table.Name, col), values...))
	return sb.Execute(sess)
}
