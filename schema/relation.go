package schema

// RelationKind is the closed tagged-union discriminant for Relation.
type RelationKind int

const (
	HasOne RelationKind = iota
	HasMany
	BelongsTo
	BelongsToMany
)

func (k RelationKind) String() string {
	switch k {
	case HasOne:
		return "HasOne"
	case HasMany:
		return "HasMany"
	case BelongsTo:
		return "BelongsTo"
	case BelongsToMany:
		return "BelongsToMany"
	default:
		return "Unknown"
	}
}

// TableRef resolves to a *Table, possibly lazily, so that relations can
// reference tables declared later (or circularly). Bootstrap resolves every
// TableRef exactly once; after that Resolved is safe to call concurrently.
type TableRef struct {
	name    string
	thunk   func() *Table
	table   *Table
}

// Ref wraps an already-declared table. Used for the common, non-circular case.
func Ref(t *Table) TableRef {
	return TableRef{name: t.Name, table: t}
}

// LazyRef wraps a thunk returning a table declared elsewhere, permitting
// circular schema references. The thunk is invoked once, during Bootstrap.
func LazyRef(name string, thunk func() *Table) TableRef {
	return TableRef{name: name, thunk: thunk}
}

func (r TableRef) Name() string {
	if r.table != nil {
		return r.table.Name
	}
	return r.name
}

func (r TableRef) Resolved() *Table { return r.table }

func (r *TableRef) resolve(registry *Registry) error {
	if r.table != nil {
		return nil
	}
	if r.thunk != nil {
		r.table = r.thunk()
	}
	if r.table == nil {
		r.table = registry.lookup(r.name)
	}
	if r.table == nil {
		return newError(UnresolvedTarget, r.name, "relation target could not be resolved")
	}
	return nil
}

// Relation is the tagged union of the four relation kinds spec §3 defines.
// Not every field applies to every kind; HasOne/HasMany/BelongsTo use
// Target/ForeignKey/LocalKey, BelongsToMany additionally uses the Pivot*
// fields.
type Relation struct {
	Kind Kind
	Target TableRef

	ForeignKey string
	LocalKey   string

	PivotTable              TableRef
	PivotForeignKeyToRoot   string
	PivotForeignKeyToTarget string
	PivotPrimaryKey         []string
	DefaultPivotColumns     []string

	// IsLazy marks this relation for deferred batched loading (spec §4.G)
	// rather than eager LEFT JOIN hydration when included.
	IsLazy bool
}

// Lazy marks a relation for deferred, batched loading instead of eager
// LEFT JOIN hydration.
func (r Relation) Lazy() Relation {
	r.IsLazy = true
	return r
}

// Kind aliases RelationKind so call sites can write schema.Kind without
// stuttering (schema.RelationKind.HasOne would be awkward); both names are
// exported for clarity at different call sites.
type Kind = RelationKind

func NewHasOne(target TableRef, foreignKey string, localKey ...string) Relation {
	r := Relation{Kind: HasOne, Target: target, ForeignKey: foreignKey}
	if len(localKey) > 0 {
		r.LocalKey = localKey[0]
	}
	return r
}

func NewHasMany(target TableRef, foreignKey string, localKey ...string) Relation {
	r := Relation{Kind: HasMany, Target: target, ForeignKey: foreignKey}
	if len(localKey) > 0 {
		r.LocalKey = localKey[0]
	}
	return r
}

func NewBelongsTo(target TableRef, foreignKey string, localKey ...string) Relation {
	r := Relation{Kind: BelongsTo, Target: target, ForeignKey: foreignKey}
	if len(localKey) > 0 {
		r.LocalKey = localKey[0]
	}
	return r
}

func NewBelongsToMany(target, pivotTable TableRef, pivotFKRoot, pivotFKTarget string) Relation {
	return Relation{
		Kind:                    BelongsToMany,
		Target:                  target,
		PivotTable:              pivotTable,
		PivotForeignKeyToRoot:   pivotFKRoot,
		PivotForeignKeyToTarget: pivotFKTarget,
	}
}

func (r Relation) WithLocalKey(key string) Relation    { r.LocalKey = key; return r }
func (r Relation) WithTargetKey(key string) Relation    { r.LocalKey = key; return r }
func (r Relation) WithPivotPrimaryKey(cols ...string) Relation {
	r.PivotPrimaryKey = cols
	return r
}
func (r Relation) WithDefaultPivotColumns(cols ...string) Relation {
	r.DefaultPivotColumns = cols
	return r
}

func (r *Relation) resolve(registry *Registry, owner *Table) error {
	if err := r.Target.resolve(registry); err != nil {
		return err
	}
	if r.Kind == BelongsToMany {
		if err := r.PivotTable.resolve(registry); err != nil {
			return err
		}
	}

	target := r.Target.Resolved()
	switch r.Kind {
	case HasOne, HasMany:
		if r.ForeignKey == "" {
			return newError(InvalidRelation, target.Name, "foreign key is required")
		}
		if r.LocalKey == "" {
			r.LocalKey = firstPrimaryKey(owner)
		}
	case BelongsTo:
		if r.ForeignKey == "" {
			return newError(InvalidRelation, target.Name, "foreign key is required")
		}
		if r.LocalKey == "" {
			r.LocalKey = firstPrimaryKey(target)
		}
	case BelongsToMany:
		if r.LocalKey == "" {
			r.LocalKey = firstPrimaryKey(owner)
		}
		if r.PivotForeignKeyToRoot == "" || r.PivotForeignKeyToTarget == "" {
			return newError(InvalidRelation, target.Name, "pivot foreign keys are required")
		}
		if len(r.PivotPrimaryKey) == 0 {
			r.PivotPrimaryKey = []string{r.PivotForeignKeyToRoot, r.PivotForeignKeyToTarget}
		}
	}
	return nil
}

func firstPrimaryKey(t *Table) string {
	if t == nil || len(t.PrimaryKey) == 0 {
		return ""
	}
	return t.PrimaryKey[0]
}
