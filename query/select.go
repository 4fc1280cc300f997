package query

import (
	"fmt"

	"github.com/sqlkit/sqlkit/dialect"
	"github.com/sqlkit/sqlkit/expr"
	"github.com/sqlkit/sqlkit/hydrate"
	"github.com/sqlkit/sqlkit/schema"
)

// IncludeOptions configures one include() declaration.
type IncludeOptions struct {
	Columns      []string
	Include      map[string]IncludeOptions
	Filter       expr.Expression
	JoinKind     expr.JoinKind
	PivotColumns []string
	PivotMerge   bool
}

// SelectBuilder is an immutable SELECT query builder: every method returns
// a new value built by copy-on-write over the previous one's AST and
// hydration plan (spec §4.D).
type SelectBuilder struct {
	root     *schema.Table
	ast      *expr.SelectQuery
	plan     *hydrate.Plan
	aliasSeq int
	err      error
}

// Select starts a new query over table, aliased to its own name.
func Select(table *schema.Table) *SelectBuilder {
	return &SelectBuilder{
		root: table,
		ast: &expr.SelectQuery{
			From: expr.TableSource{Table: table.QualifiedName(), Alias: table.Name},
		},
		plan: &hydrate.Plan{RootPK: table.PrimaryKey},
	}
}

func (b *SelectBuilder) clone() *SelectBuilder {
	nb := *b
	astCopy := *b.ast
	astCopy.Columns = append([]expr.Projection{}, b.ast.Columns...)
	astCopy.Joins = append([]expr.Join{}, b.ast.Joins...)
	astCopy.GroupBy = append([]expr.Operand{}, b.ast.GroupBy...)
	astCopy.OrderBy = append([]expr.OrderTerm{}, b.ast.OrderBy...)
	astCopy.CTEs = append([]expr.CTE{}, b.ast.CTEs...)
	astCopy.SetOps = append([]expr.SetOperation{}, b.ast.SetOps...)
	astCopy.DistinctOn = append([]expr.Operand{}, b.ast.DistinctOn...)
	nb.ast = &astCopy

	planCopy := *b.plan
	planCopy.Relations = append([]*hydrate.RelationPlan{}, b.plan.Relations...)
	planCopy.LazyRelations = append([]*hydrate.RelationPlan{}, b.plan.LazyRelations...)
	nb.plan = &planCopy
	return &nb
}

// Err returns the first builder-construction error encountered, if any.
func (b *SelectBuilder) Err() error { return b.err }

// Plan exposes the hydration plan built alongside the query, for callers
// (the session package) driving Reshape after execution.
func (b *SelectBuilder) Plan() *hydrate.Plan { return b.plan }

// SelectCols replaces the projection list.
func (b *SelectBuilder) SelectCols(projections ...expr.Projection) *SelectBuilder {
	nb := b.clone()
	nb.ast.Columns = append([]expr.Projection{}, projections...)
	return nb
}

// SelectRaw replaces the projection list with an opaque SQL fragment.
func (b *SelectBuilder) SelectRaw(sql string, params ...any) *SelectBuilder {
	nb := b.clone()
	nb.ast.Columns = []expr.Projection{{Expr: expr.Raw{SQL: sql, Params: params}}}
	return nb
}

// Where conjoins pred to any existing predicate via AND.
func (b *SelectBuilder) Where(pred expr.Expression) *SelectBuilder {
	nb := b.clone()
	nb.ast.Where = conjoin(nb.ast.Where, pred)
	return nb
}

func conjoin(existing, next expr.Expression) expr.Expression {
	if existing == nil {
		return next
	}
	return expr.And(existing, next)
}

// Join adds an explicit JOIN clause. CROSS joins must not carry an ON
// predicate; every other kind must.
func (b *SelectBuilder) Join(table, alias string, kind expr.JoinKind, on expr.Expression) *SelectBuilder {
	nb := b.clone()
	if kind == expr.CrossJoin && on != nil {
		nb.err = errInvalidJoinOn(table, "CROSS JOIN must not specify an ON predicate")
		return nb
	}
	if kind != expr.CrossJoin && on == nil {
		nb.err = errInvalidJoinOn(table, "JOIN requires an ON predicate")
		return nb
	}
	nb.ast.Joins = append(nb.ast.Joins, expr.Join{Kind: kind, Source: expr.TableSource{Table: table, Alias: alias}, On: on})
	return nb
}

func arityOf(k schema.RelationKind) hydrate.Arity {
	switch k {
	case schema.HasOne, schema.BelongsTo:
		return hydrate.Single
	default:
		return hydrate.Multiple
	}
}

// JoinRelation looks up a declared relation on the root table and emits the
// join(s) needed to reach it (two joins, through the pivot, for
// BelongsToMany) without projecting any of its columns or registering a
// hydration plan; use Include for that.
func (b *SelectBuilder) JoinRelation(name string, kind expr.JoinKind) *SelectBuilder {
	nb := b.clone()
	nb.joinRelationInto(nb.ast.From.Alias, nb.root, name, kind)
	return nb
}

// joinRelationInto appends the join(s) for fromTable.name onto nb's AST and
// returns the alias assigned to the relation's target table (and, for
// BelongsToMany, the pivot alias), so callers can project aliased columns.
func (nb *SelectBuilder) joinRelationInto(fromAlias string, fromTable *schema.Table, name string, kind expr.JoinKind) (targetAlias, pivotAlias string, rel schema.Relation, target *schema.Table) {
	var ok bool
	rel, ok = fromTable.Relation(name)
	if !ok {
		nb.err = errUnknownRelation(name)
		return
	}
	target = rel.Target.Resolved()
	if target == nil {
		nb.err = errUnknownRelation(name + ": target table not resolved (call schema.Bootstrap first)")
		return
	}

	targetAlias = fmt.Sprintf("%s_%d", name, nb.aliasSeq)
	nb.aliasSeq++

	switch rel.Kind {
	case schema.HasOne, schema.HasMany:
		on := expr.Eq(expr.Col(fromAlias, rel.LocalKey), expr.Col(targetAlias, rel.ForeignKey))
		nb.ast.Joins = append(nb.ast.Joins, expr.Join{Kind: kind, Source: expr.TableSource{Table: target.QualifiedName(), Alias: targetAlias}, On: on})

	case schema.BelongsTo:
		on := expr.Eq(expr.Col(fromAlias, rel.ForeignKey), expr.Col(targetAlias, rel.LocalKey))
		nb.ast.Joins = append(nb.ast.Joins, expr.Join{Kind: kind, Source: expr.TableSource{Table: target.QualifiedName(), Alias: targetAlias}, On: on})

	case schema.BelongsToMany:
		pivot := rel.PivotTable.Resolved()
		if pivot == nil {
			nb.err = errUnknownRelation(name + ": pivot table not resolved")
			return
		}
		pivotAlias = fmt.Sprintf("%s_pivot_%d", name, nb.aliasSeq)
		nb.aliasSeq++
		pivotOn := expr.Eq(expr.Col(fromAlias, rel.LocalKey), expr.Col(pivotAlias, rel.PivotForeignKeyToRoot))
		nb.ast.Joins = append(nb.ast.Joins, expr.Join{Kind: kind, Source: expr.TableSource{Table: pivot.QualifiedName(), Alias: pivotAlias}, On: pivotOn})

		targetPK := ""
		if len(target.PrimaryKey) > 0 {
			targetPK = target.PrimaryKey[0]
		}
		targetOn := expr.Eq(expr.Col(pivotAlias, rel.PivotForeignKeyToTarget), expr.Col(targetAlias, targetPK))
		nb.ast.Joins = append(nb.ast.Joins, expr.Join{Kind: kind, Source: expr.TableSource{Table: target.QualifiedName(), Alias: targetAlias}, On: targetOn})
	}
	return
}

// Include declares a child read to be hydrated into the result, per
// spec §4.D/§4.E: either an eager LEFT JOIN (default) projecting
// alias-prefixed columns, or — when the relation was declared .Lazy() — a
// deferred batched fetch (package loader) with no join at all.
func (b *SelectBuilder) Include(name string, opts ...IncludeOptions) *SelectBuilder {
	nb := b.clone()
	var o IncludeOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.JoinKind == "" {
		o.JoinKind = expr.LeftJoin
	}
	nb.includeFrom(nb.ast.From.Alias, nb.root, name, o)
	return nb
}

// IncludePick is Include restricted to an explicit column list.
func (b *SelectBuilder) IncludePick(name string, columns []string, opts ...IncludeOptions) *SelectBuilder {
	var o IncludeOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	o.Columns = columns
	return b.Include(name, o)
}

func (nb *SelectBuilder) includeFrom(fromAlias string, fromTable *schema.Table, name string, o IncludeOptions) *hydrate.RelationPlan {
	rel, ok := fromTable.Relation(name)
	if !ok {
		nb.err = errUnknownRelation(name)
		return nil
	}

	if rel.IsLazy {
		target := rel.Target.Resolved()
		if target == nil {
			nb.err = errUnknownRelation(name + ": target table not resolved")
			return nil
		}
		pivotCols := o.PivotColumns
		if rel.Kind == schema.BelongsToMany && len(pivotCols) == 0 {
			pivotCols = rel.DefaultPivotColumns
		}
		plan := &hydrate.RelationPlan{
			Name:         name,
			Arity:        arityOf(rel.Kind),
			TargetPK:     target.PrimaryKey,
			Columns:      append([]string{}, o.Columns...),
			HasPivot:     len(pivotCols) > 0,
			PivotMerge:   o.PivotMerge,
			PivotColumns: pivotCols,
		}
		nb.plan.LazyRelations = append(nb.plan.LazyRelations, plan)
		return plan
	}

	// With no explicit projection the root columns are listed before the
	// first joined relation's, so hydrate.Reshape finds the root's
	// unprefixed primary key.
	if len(nb.ast.Columns) == 0 {
		for _, col := range fromTable.Columns.Names() {
			nb.ast.Columns = append(nb.ast.Columns, expr.Projection{Expr: expr.Col(fromAlias, col)})
		}
	}

	targetAlias, pivotAlias, rel, target := nb.joinRelationInto(fromAlias, fromTable, name, o.JoinKind)
	if nb.err != nil {
		return nil
	}

	if o.Filter != nil {
		last := len(nb.ast.Joins) - 1
		nb.ast.Joins[last].On = expr.And(nb.ast.Joins[last].On, o.Filter)
	}

	relPlan := &hydrate.RelationPlan{
		Name:        name,
		AliasPrefix: targetAlias + "__",
		Arity:       arityOf(rel.Kind),
		TargetPK:    target.PrimaryKey,
		PivotMerge:  o.PivotMerge,
	}

	if rel.Kind == schema.BelongsToMany {
		pivotCols := o.PivotColumns
		if len(pivotCols) == 0 {
			pivotCols = rel.DefaultPivotColumns
		}
		if len(pivotCols) > 0 {
			relPlan.HasPivot = true
			relPlan.PivotPrefix = pivotAlias + "__"
			for _, col := range pivotCols {
				nb.ast.Columns = append(nb.ast.Columns, expr.Projection{
					Expr:  expr.Col(pivotAlias, col),
					Alias: pivotAlias + "__" + col,
				})
			}
		}
	}

	cols := o.Columns
	if len(cols) == 0 {
		cols = target.Columns.Names()
	}
	cols = ensurePKFirst(cols, target.PrimaryKey)
	for _, col := range cols {
		if _, ok := target.Column(col); !ok {
			nb.err = errUnknownColumn(name + "." + col)
			return nil
		}
		nb.ast.Columns = append(nb.ast.Columns, expr.Projection{
			Expr:  expr.Col(targetAlias, col),
			Alias: targetAlias + "__" + col,
		})
	}

	for childName, childOpts := range o.Include {
		if childOpts.JoinKind == "" {
			childOpts.JoinKind = expr.LeftJoin
		}
		childPlan := nb.includeFrom(targetAlias, target, childName, childOpts)
		if nb.err != nil {
			return nil
		}
		relPlan.Children = append(relPlan.Children, childPlan)
	}

	nb.plan.Relations = append(nb.plan.Relations, relPlan)
	return relPlan
}

func ensurePKFirst(cols, pk []string) []string {
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}
	var missing []string
	for _, k := range pk {
		if !have[k] {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return cols
	}
	return append(append([]string{}, missing...), cols...)
}

// WhereHas emits a correlated EXISTS subquery against the named relation.
func (b *SelectBuilder) WhereHas(name string, subFilter ...expr.Expression) *SelectBuilder {
	return b.whereRelationExists(name, subFilter, false)
}

// WhereHasNot emits a correlated NOT EXISTS subquery against the named
// relation.
func (b *SelectBuilder) WhereHasNot(name string, subFilter ...expr.Expression) *SelectBuilder {
	return b.whereRelationExists(name, subFilter, true)
}

func (b *SelectBuilder) whereRelationExists(name string, subFilter []expr.Expression, negate bool) *SelectBuilder {
	nb := b.clone()
	rel, ok := nb.root.Relation(name)
	if !ok {
		nb.err = errUnknownRelation(name)
		return nb
	}
	target := rel.Target.Resolved()
	if target == nil {
		nb.err = errUnknownRelation(name + ": target table not resolved")
		return nb
	}
	rootAlias := nb.ast.From.Alias
	targetAlias := fmt.Sprintf("%s_%d", name, nb.aliasSeq)
	nb.aliasSeq++

	var correlate expr.Expression
	sub := &expr.SelectQuery{
		From: expr.TableSource{Table: target.QualifiedName(), Alias: targetAlias},
	}

	switch rel.Kind {
	case schema.HasOne, schema.HasMany:
		correlate = expr.Eq(expr.Col(rootAlias, rel.LocalKey), expr.Col(targetAlias, rel.ForeignKey))
	case schema.BelongsTo:
		correlate = expr.Eq(expr.Col(rootAlias, rel.ForeignKey), expr.Col(targetAlias, rel.LocalKey))
	case schema.BelongsToMany:
		pivot := rel.PivotTable.Resolved()
		pivotAlias := fmt.Sprintf("%s_pivot_%d", name, nb.aliasSeq)
		nb.aliasSeq++
		sub.Joins = append(sub.Joins, expr.Join{
			Kind:   expr.InnerJoin,
			Source: expr.TableSource{Table: pivot.QualifiedName(), Alias: pivotAlias},
			On:     expr.Eq(expr.Col(pivotAlias, rel.PivotForeignKeyToTarget), expr.Col(targetAlias, firstOr(target.PrimaryKey, ""))),
		})
		correlate = expr.Eq(expr.Col(rootAlias, rel.LocalKey), expr.Col(pivotAlias, rel.PivotForeignKeyToRoot))
	}

	sub.Where = correlate
	if len(subFilter) > 0 && subFilter[0] != nil {
		sub.Where = expr.And(sub.Where, subFilter[0])
	}

	existsExpr := expr.ExistsExpr(sub)
	var pred expr.Expression = existsExpr
	if negate {
		pred = expr.NotExistsExpr(sub)
	}
	nb.ast.Where = conjoin(nb.ast.Where, pred)
	return nb
}

// WhereEvery restricts the query to roots where every row of the named
// relation satisfies subFilter (spec §4.I: "`every` uses a `GROUP BY pk
// HAVING COUNT(all) = COUNT(matching)` pattern"). Unlike WhereHas/
// WhereHasNot this is not a correlated EXISTS: it builds a standalone
// aggregate query over the relation's own rows, grouped by the column that
// joins back to the root, and restricts the root to that group set via
// IN (...). Not meaningful for BelongsTo (a single row trivially satisfies
// or fails "every").
func (b *SelectBuilder) WhereEvery(name string, subFilter expr.Expression) *SelectBuilder {
	nb := b.clone()
	rel, ok := nb.root.Relation(name)
	if !ok {
		nb.err = errUnknownRelation(name)
		return nb
	}
	if rel.Kind == schema.BelongsTo {
		nb.err = errUnknownRelation(name + ": \"every\" is not defined for a belongs-to relation")
		return nb
	}
	target := rel.Target.Resolved()
	if target == nil {
		nb.err = errUnknownRelation(name + ": target table not resolved")
		return nb
	}
	rootAlias := nb.ast.From.Alias
	targetAlias := fmt.Sprintf("%s_%d", name, nb.aliasSeq)
	nb.aliasSeq++

	sub := &expr.SelectQuery{From: expr.TableSource{Table: target.QualifiedName(), Alias: targetAlias}}

	var groupCol expr.Operand
	var rootKey string
	switch rel.Kind {
	case schema.HasOne, schema.HasMany:
		groupCol = expr.Col(targetAlias, rel.ForeignKey)
		rootKey = rel.LocalKey
	case schema.BelongsToMany:
		pivot := rel.PivotTable.Resolved()
		pivotAlias := fmt.Sprintf("%s_pivot_%d", name, nb.aliasSeq)
		nb.aliasSeq++
		sub.Joins = append(sub.Joins, expr.Join{
			Kind:   expr.InnerJoin,
			Source: expr.TableSource{Table: pivot.QualifiedName(), Alias: pivotAlias},
			On:     expr.Eq(expr.Col(pivotAlias, rel.PivotForeignKeyToTarget), expr.Col(targetAlias, firstOr(target.PrimaryKey, ""))),
		})
		groupCol = expr.Col(pivotAlias, rel.PivotForeignKeyToRoot)
		rootKey = rel.LocalKey
	}

	total := expr.Raw{SQL: "COUNT(*)"}
	matching := expr.Fn("COUNT", expr.CaseWhen([]expr.CaseBranch{expr.When(subFilter, 1)}))

	sub.Columns = []expr.Projection{{Expr: groupCol}}
	sub.GroupBy = []expr.Operand{groupCol}
	sub.Having = expr.Eq(total, matching)

	nb.ast.Where = conjoin(nb.ast.Where, expr.InSubquery(expr.Col(rootAlias, rootKey), sub))
	return nb
}

func firstOr(s []string, fallback string) string {
	if len(s) == 0 {
		return fallback
	}
	return s[0]
}

func (b *SelectBuilder) GroupBy(cols ...expr.Operand) *SelectBuilder {
	nb := b.clone()
	nb.ast.GroupBy = append([]expr.Operand{}, cols...)
	return nb
}

func (b *SelectBuilder) Having(pred expr.Expression) *SelectBuilder {
	nb := b.clone()
	nb.ast.Having = conjoin(nb.ast.Having, pred)
	return nb
}

// OrderOption configures one OrderBy call beyond term/direction.
type OrderOption struct {
	Collation string
	NullsLast *bool
}

func (b *SelectBuilder) OrderBy(term expr.Operand, direction expr.Direction, opts ...OrderOption) *SelectBuilder {
	nb := b.clone()
	t := expr.OrderTerm{Term: term, Direction: direction}
	if len(opts) > 0 {
		t.Collation = opts[0].Collation
		t.NullsLast = opts[0].NullsLast
	}
	nb.ast.OrderBy = append(nb.ast.OrderBy, t)
	return nb
}

func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	nb := b.clone()
	nb.ast.Limit = &n
	return nb
}

func (b *SelectBuilder) Offset(n int) *SelectBuilder {
	nb := b.clone()
	nb.ast.Offset = &n
	return nb
}

func (b *SelectBuilder) Distinct(cols ...expr.Operand) *SelectBuilder {
	nb := b.clone()
	nb.ast.Distinct = true
	nb.ast.DistinctOn = append([]expr.Operand{}, cols...)
	return nb
}

func (b *SelectBuilder) With(name string, cteColumns []string, sub *SelectBuilder) *SelectBuilder {
	nb := b.clone()
	nb.ast.CTEs = append(nb.ast.CTEs, expr.CTE{Name: name, Columns: cteColumns, Select: sub.ast})
	return nb
}

// PartitionBy propagates a default PARTITION BY to window functions in the
// projection that don't already specify their own.
func (b *SelectBuilder) PartitionBy(cols ...expr.Operand) *SelectBuilder {
	nb := b.clone()
	for i, p := range nb.ast.Columns {
		wf, ok := p.Expr.(expr.WindowFunction)
		if !ok || len(wf.PartitionBy) > 0 {
			continue
		}
		wf.PartitionBy = cols
		nb.ast.Columns[i].Expr = wf
	}
	return nb
}

// As turns this builder into an aliased subquery TableSource, for nesting
// under another builder's Join/From.
func (b *SelectBuilder) As(alias string) expr.TableSource {
	return expr.TableSource{Subquery: b.ast, Alias: alias}
}

func (b *SelectBuilder) setOp(op expr.SetOp, other *SelectBuilder) *SelectBuilder {
	nb := b.clone()
	nb.ast.SetOps = append(nb.ast.SetOps, expr.SetOperation{Operator: op, Query: other.ast})
	return nb
}

func (b *SelectBuilder) Union(other *SelectBuilder) *SelectBuilder     { return b.setOp(expr.Union, other) }
func (b *SelectBuilder) UnionAll(other *SelectBuilder) *SelectBuilder  { return b.setOp(expr.UnionAll, other) }
func (b *SelectBuilder) Intersect(other *SelectBuilder) *SelectBuilder { return b.setOp(expr.Intersect, other) }
func (b *SelectBuilder) Except(other *SelectBuilder) *SelectBuilder    { return b.setOp(expr.Except, other) }

// Compile renders this builder's query for d. Compilation is pure and
// idempotent: calling it twice yields identical output.
func (b *SelectBuilder) Compile(d dialect.Dialect) (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	sql, params, err := dialect.CompileSelect(d, b.ast)
	if err != nil {
		return "", nil, err
	}
	return sql + ";", params, nil
}
