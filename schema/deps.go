package schema

// TableDependencies builds a dependency graph suitable for TopologicalSort:
// table -> names of tables it references via a foreign key. A table must be
// inserted after every table it depends on.
func TableDependencies(tables []*Table) map[string][]string {
	deps := make(map[string][]string, len(tables))
	for _, t := range tables {
		var refs []string
		for _, c := range t.Columns.All() {
			if c.Ref != nil && c.Ref.TargetTable != t.Name {
				refs = append(refs, c.Ref.TargetTable)
			}
		}
		deps[t.Name] = refs
	}
	return deps
}

// InsertOrder returns table names ordered so that a table always appears
// after every table it has a foreign key to, falling back to declaration
// order when a cycle prevents a strict ordering.
func InsertOrder(tables []*Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	sorted := TopologicalSort(names, TableDependencies(tables), func(s string) string { return s })
	if len(sorted) == 0 && len(names) > 0 {
		return names
	}
	return sorted
}
