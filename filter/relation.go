package filter

import (
	"fmt"

	"github.com/sqlkit/sqlkit/expr"
	"github.com/sqlkit/sqlkit/query"
)

// RelationOp is the closed set of relation-level filter operators spec
// §4.I names: `{ some | none | every | isEmpty | isNotEmpty }`.
type RelationOp string

const (
	Some       RelationOp = "some"
	None       RelationOp = "none"
	Every      RelationOp = "every"
	IsEmpty    RelationOp = "isEmpty"
	IsNotEmpty RelationOp = "isNotEmpty"
)

// ApplyRelation dispatches a relation-level filter onto b's underlying
// query.SelectBuilder methods (spec §4.I: "some/none compile to EXISTS/NOT
// EXISTS subqueries ... every uses a GROUP BY ... HAVING COUNT pattern").
// subFilter is required for Some/None/Every and ignored (must be nil) for
// IsEmpty/IsNotEmpty, which test relation cardinality alone.
func ApplyRelation(b *query.SelectBuilder, name string, op RelationOp, subFilter ...expr.Expression) (*query.SelectBuilder, error) {
	var sub expr.Expression
	if len(subFilter) > 0 {
		sub = subFilter[0]
	}
	switch op {
	case Some:
		if sub == nil {
			return nil, fmt.Errorf("filter: %q requires a subFilter", op)
		}
		return b.WhereHas(name, sub), nil
	case None:
		if sub == nil {
			return nil, fmt.Errorf("filter: %q requires a subFilter", op)
		}
		return b.WhereHasNot(name, sub), nil
	case Every:
		if sub == nil {
			return nil, fmt.Errorf("filter: %q requires a subFilter", op)
		}
		return b.WhereEvery(name, sub), nil
	case IsEmpty:
		return b.WhereHasNot(name), nil
	case IsNotEmpty:
		return b.WhereHas(name), nil
	default:
		return nil, fmt.Errorf("filter: unrecognised relation operator %q", op)
	}
}
