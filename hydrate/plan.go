// Package hydrate turns flat, denormalised SQL result rows into nested
// object graphs, driven by a HydrationPlan built alongside the query that
// produced them (spec §4.E).
package hydrate

// Arity distinguishes a single nested object (HasOne/BelongsTo) from a
// collection (HasMany/BelongsToMany) at hydration time.
type Arity int

const (
	Single Arity = iota
	Multiple
)

// RelationPlan describes how to collect the rows of one included relation
// under its parent (a root, or another relation for nested includes).
type RelationPlan struct {
	Name        string
	AliasPrefix string // e.g. "orders_0__"; every projected column for this relation is read from row[AliasPrefix+col].
	Arity       Arity
	TargetPK    []string

	HasPivot    bool
	PivotPrefix string
	PivotMerge  bool

	// Columns/PivotColumns restrict a lazy relation's batched fetch to the
	// columns requested via include options (spec §4.G: "columns requested
	// via the include options are enforced when present; the target
	// primary key is always included"). Unused by the eager join path,
	// which projects its columns directly into the SELECT instead.
	Columns      []string
	PivotColumns []string

	Children []*RelationPlan
}

// Plan is the hydration plan built alongside a SelectBuilder's query: one
// per root query, naming the root's primary key and the relation plans for
// every include() declaration.
type Plan struct {
	RootPK    []string
	Relations []*RelationPlan

	// LazyRelations lists the include() calls that named a relation marked
	// IsLazy (spec §4.G): Reshape never looks at these (no columns for them
	// were ever selected/joined), they exist only so package loader knows
	// which relations a root's rows still need fetched after Reshape runs.
	LazyRelations []*RelationPlan
}
