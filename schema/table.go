package schema

// IndexDef describes a secondary index. Unlike Table.PrimaryKey, indexes
// are advisory to the compiler (it never needs to pick one) but are kept
// on the model so introspection/documentation tooling outside the core can
// read them back.
type IndexDef struct {
	Name    string
	Columns []string
	Unique  bool
}

// Table is the central, immutable value object describing one relational
// table. Tables are constructed once via DefineTable/Bootstrap and never
// mutated afterward; every other component treats *Table as read-only.
type Table struct {
	Name       string
	SchemaName string
	Columns    *ColumnSet
	PrimaryKey []string
	Relations  map[string]Relation
	Indexes    []IndexDef
	Hooks      *Hooks
}

// Column looks up a column by name, returning the zero Column and false if
// it is not declared on this table.
func (t *Table) Column(name string) (Column, bool) {
	return t.Columns.Get(name)
}

// Relation looks up a relation by name.
func (t *Table) Relation(name string) (Relation, bool) {
	r, ok := t.Relations[name]
	return r, ok
}

// QualifiedName returns "schema.table" when a schema is set, else "table".
func (t *Table) QualifiedName() string {
	if t.SchemaName == "" {
		return t.Name
	}
	return t.SchemaName + "." + t.Name
}

// TableOption configures a Table at DefineTable time.
type TableOption func(*Table)

func WithSchema(name string) TableOption {
	return func(t *Table) { t.SchemaName = name }
}

func WithRelations(relations map[string]Relation) TableOption {
	return func(t *Table) {
		if t.Relations == nil {
			t.Relations = map[string]Relation{}
		}
		for name, r := range relations {
			t.Relations[name] = r
		}
	}
}

func WithIndexes(indexes ...IndexDef) TableOption {
	return func(t *Table) { t.Indexes = append(t.Indexes, indexes...) }
}

func WithHooks(hooks *Hooks) TableOption {
	return func(t *Table) { t.Hooks = hooks }
}

// WithPrimaryKey declares a composite primary key explicitly; when omitted,
// the primary key is inferred from columns marked .PrimaryKey().
func WithPrimaryKey(columns ...string) TableOption {
	return func(t *Table) { t.PrimaryKey = columns }
}
