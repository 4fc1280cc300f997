package schema

import (
	"fmt"
	"sync"
)

// Registry is the process-wide entity-metadata registry described in spec
// §4.A/§5: define_table populates it, Bootstrap resolves lazy targets and
// freezes it. A Registry must not be mutated (via DefineTable) once
// bootstrapped, and no Session may be created against one until it has
// been bootstrapped.
type Registry struct {
	mu           sync.Mutex
	tables       []*Table
	byName       map[string]*Table
	bootstrapped bool
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Table{}}
}

// Default is the package-level registry used when callers invoke the
// package-level DefineTable/Bootstrap helpers instead of managing their own
// Registry value.
var Default = NewRegistry()

// DefineTable declares a table against the default registry.
func DefineTable(name string, columns []Column, opts ...TableOption) (*Table, error) {
	return Default.DefineTable(name, columns, opts...)
}

// Bootstrap finalizes the default registry.
func Bootstrap() error { return Default.Bootstrap() }

// Lookup returns a previously defined table from the default registry.
func Lookup(name string) *Table { return Default.lookup(name) }

// Table returns a previously defined table by name, or nil.
func (r *Registry) Table(name string) *Table { return r.lookup(name) }

func (r *Registry) DefineTable(name string, columns []Column, opts ...TableOption) (*Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bootstrapped {
		return nil, newError(InvalidRelation, name, "cannot define a table after bootstrap")
	}
	if _, exists := r.byName[name]; exists {
		return nil, newError(DuplicateTable, name, "table already defined")
	}

	set := newColumnSet()
	var primaryKey []string
	for _, c := range columns {
		c = c.withTable(name)
		set.add(c)
		if c.IsPrimary {
			primaryKey = append(primaryKey, c.Name)
		}
	}

	table := &Table{Name: name, Columns: set, PrimaryKey: primaryKey}
	for _, opt := range opts {
		opt(table)
	}
	if table.PrimaryKey == nil {
		table.PrimaryKey = primaryKey
	}

	for _, pk := range table.PrimaryKey {
		if _, ok := set.Get(pk); !ok {
			return nil, newError(InvalidRelation, name, fmt.Sprintf("primary key column %q is not declared", pk))
		}
	}
	for _, idx := range table.Indexes {
		for _, col := range idx.Columns {
			if _, ok := set.Get(col); !ok {
				return nil, newError(InvalidRelation, name, fmt.Sprintf("index %q references undeclared column %q", idx.Name, col))
			}
		}
	}

	r.tables = append(r.tables, table)
	r.byName[name] = table
	return table, nil
}

func (r *Registry) lookup(name string) *Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byName[name]
}

// Bootstrap resolves every relation's lazy target, fills in default
// foreign/local keys, validates every table has a usable primary key and
// freezes the registry against further DefineTable calls.
func (r *Registry) Bootstrap() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bootstrapped {
		return nil
	}

	for _, table := range r.tables {
		if len(table.PrimaryKey) == 0 {
			return newError(MissingPrimaryKey, table.Name, "table has no primary key column")
		}
	}

	for _, table := range r.tables {
		for name, rel := range table.Relations {
			rel := rel
			if err := rel.resolve(r, table); err != nil {
				return err
			}
			table.Relations[name] = rel
		}
	}

	r.bootstrapped = true
	return nil
}

// Bootstrapped reports whether Bootstrap has run.
func (r *Registry) Bootstrapped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bootstrapped
}

// Tables returns every defined table, in declaration order.
func (r *Registry) Tables() []*Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Table, len(r.tables))
	copy(out, r.tables)
	return out
}
