package hydrate

import (
	"fmt"
	"strings"
)

// Row is one flat result row, or one reshaped (nested) output row: a
// mapping of column name to value.
type Row = map[string]any

// object is the mutable working form of a row during reshape; Reshape
// flattens it to a plain Row once every input row has been folded in.
type object struct {
	data    Row
	single  map[string]*object
	multi   map[string][]*object
	multiIx map[string]map[string]int
}

func newObject(base Row) *object {
	return &object{
		data:    base,
		single:  map[string]*object{},
		multi:   map[string][]*object{},
		multiIx: map[string]map[string]int{},
	}
}

// extractKey reads pk columns under prefix from row and joins them into a
// dedupe/lookup key. It returns ok=false when any column is absent or null
// (the outer-join "no matching row" case).
func extractKey(prefix string, pk []string, row Row) (string, bool) {
	parts := make([]string, len(pk))
	for i, col := range pk {
		v, ok := row[prefix+col]
		if !ok || v == nil {
			return "", false
		}
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "\x1f"), true
}

// baseColumns extracts the columns belonging to one nesting level: with an
// empty prefix, every column that isn't alias-prefixed (i.e. has no "__");
// with a prefix, every column under that prefix that doesn't itself belong
// to a deeper nested relation.
func baseColumns(prefix string, row Row) Row {
	out := Row{}
	for k, v := range row {
		name := k
		if prefix == "" {
			if strings.Contains(k, "__") {
				continue
			}
		} else {
			if !strings.HasPrefix(k, prefix) {
				continue
			}
			name = strings.TrimPrefix(k, prefix)
			if strings.Contains(name, "__") {
				continue
			}
		}
		out[name] = v
	}
	return out
}

func attachPivot(child *object, rel *RelationPlan, row Row) {
	if !rel.HasPivot {
		return
	}
	pivot := baseColumns(rel.PivotPrefix, row)
	if rel.PivotMerge {
		for k, v := range pivot {
			if _, exists := child.data[k]; !exists {
				child.data[k] = v
			}
		}
		return
	}
	child.data["_pivot"] = pivot
}

func applyRelations(o *object, row Row, plans []*RelationPlan) error {
	for _, rel := range plans {
		targetKey, ok := extractKey(rel.AliasPrefix, rel.TargetPK, row)
		if !ok {
			continue
		}

		var child *object
		switch rel.Arity {
		case Single:
			existing, exists := o.single[rel.Name]
			if !exists {
				existing = newObject(baseColumns(rel.AliasPrefix, row))
				attachPivot(existing, rel, row)
				o.single[rel.Name] = existing
			}
			child = existing

		case Multiple:
			idx, exists := o.multiIx[rel.Name]
			if !exists {
				idx = map[string]int{}
				o.multiIx[rel.Name] = idx
			}
			pos, seen := idx[targetKey]
			if !seen {
				child = newObject(baseColumns(rel.AliasPrefix, row))
				attachPivot(child, rel, row)
				o.multi[rel.Name] = append(o.multi[rel.Name], child)
				idx[targetKey] = len(o.multi[rel.Name]) - 1
			} else {
				child = o.multi[rel.Name][pos]
			}

		default:
			return errAmbiguousAlias(fmt.Sprintf("unknown relation arity for %q", rel.Name))
		}

		if err := applyRelations(child, row, rel.Children); err != nil {
			return err
		}
	}
	return nil
}

func flatten(o *object) Row {
	out := make(Row, len(o.data)+len(o.single)+len(o.multi))
	for k, v := range o.data {
		out[k] = v
	}
	for name, child := range o.single {
		out[name] = flatten(child)
	}
	for name, children := range o.multi {
		list := make([]Row, len(children))
		for i, c := range children {
			list[i] = flatten(c)
		}
		out[name] = list
	}
	return out
}

// Reshape turns a flat, denormalised row set into nested object graphs
// keyed by root primary key, per the reshape algorithm in spec §4.E:
//  1. roots are kept in first-seen order, seeded from non-alias-prefixed
//     columns on first appearance;
//  2. each relation plan contributes its alias-prefixed columns, skipping
//     rows where the relation's primary key is null (no outer-join match),
//     deduping HasMany/BelongsToMany children by target primary key;
//  3. nested include() plans recurse into the relation's own children.
//
// It returns a HydrationError-worthy failure (via the returned error) only
// once per call, never per row, matching the error-handling design in §7.
func Reshape(rows []Row, plan *Plan) ([]Row, error) {
	if len(plan.RootPK) == 0 {
		return nil, errPrimaryKeyMissing("plan has no root primary key")
	}

	var order []string
	roots := map[string]*object{}

	for _, row := range rows {
		key, ok := extractKey("", plan.RootPK, row)
		if !ok {
			return nil, errPrimaryKeyMissing("root primary key missing from row")
		}
		root, exists := roots[key]
		if !exists {
			root = newObject(baseColumns("", row))
			roots[key] = root
			order = append(order, key)
		}
		if err := applyRelations(root, row, plan.Relations); err != nil {
			return nil, err
		}
	}

	out := make([]Row, len(order))
	for i, key := range order {
		out[i] = flatten(roots[key])
	}
	return out, nil
}
