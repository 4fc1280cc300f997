// Package filter translates structured filter objects into query AST
// expressions (spec §4.I): `{ fieldName: { contains|startsWith|...: value,
// mode?: 'insensitive' } }` becomes an expr.Expression usable with
// query.SelectBuilder.Where/Having, query's relation filters
// (WhereHas/WhereHasNot/WhereEvery) carry the "some/none/every/isEmpty/
// isNotEmpty" side, and Page/OffsetPage cover pagination.
package filter

import (
	"fmt"
	"strings"

	"github.com/sqlkit/sqlkit/expr"
)

// Op is the closed set of leaf comparison operators spec §4.I recognises.
type Op string

const (
	Contains   Op = "contains"
	StartsWith Op = "startsWith"
	EndsWith   Op = "endsWith"
	Equals     Op = "equals"
	Not        Op = "not"
	In         Op = "in"
	NotIn      Op = "notIn"
	Lt         Op = "lt"
	Lte        Op = "lte"
	Gt         Op = "gt"
	Gte        Op = "gte"
)

// Condition is one leaf filter entry: an operator plus its operand(s).
// Value holds a scalar for Equals/Lt/Lte/Gt/Gte/Contains/StartsWith/
// EndsWith, a []any for In/NotIn, and a Condition value for Not (negating a
// nested condition rather than testing inequality against a scalar).
type Condition struct {
	Op          Op
	Value       any
	Insensitive bool
}

// Error reports a filter that could not be translated — an unknown Op or a
// Value of the wrong shape for its Op.
type Error struct {
	Op      Op
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("filter: %s: %s", e.Op, e.Message) }

// Build translates one field's Condition into a predicate over col.
func Build(col expr.Column, c Condition) (expr.Expression, error) {
	left := expr.Operand(col)
	if c.Insensitive {
		left = expr.Fn("LOWER", col)
	}

	switch c.Op {
	case Equals:
		return expr.Eq(left, lowerIfNeeded(c.Value, c.Insensitive)), nil
	case Contains:
		return likePredicate(left, c.Value, c.Insensitive, "%", "%")
	case StartsWith:
		return likePredicate(left, c.Value, c.Insensitive, "", "%")
	case EndsWith:
		return likePredicate(left, c.Value, c.Insensitive, "%", "")
	case Lt:
		return expr.Lt(left, c.Value), nil
	case Lte:
		return expr.Lte(left, c.Value), nil
	case Gt:
		return expr.Gt(left, c.Value), nil
	case Gte:
		return expr.Gte(left, c.Value), nil
	case In:
		values, err := asSlice(c.Value)
		if err != nil {
			return nil, &Error{Op: In, Message: err.Error()}
		}
		return expr.InList(left, lowerAllIfNeeded(values, c.Insensitive)...), nil
	case NotIn:
		values, err := asSlice(c.Value)
		if err != nil {
			return nil, &Error{Op: NotIn, Message: err.Error()}
		}
		return expr.NotInList(left, lowerAllIfNeeded(values, c.Insensitive)...), nil
	case Not:
		nested, ok := c.Value.(Condition)
		if !ok {
			return nil, &Error{Op: Not, Message: "value must be a nested Condition"}
		}
		inner, err := Build(col, nested)
		if err != nil {
			return nil, err
		}
		return negate(inner)
	default:
		return nil, &Error{Op: c.Op, Message: "unrecognised operator"}
	}
}

// negate inverts a built expression in place, without a generic NOT(...)
// AST node (expr has none — every boolean shape Build ever returns is one
// of the two cases below, inverted directly instead).
func negate(e expr.Expression) (expr.Expression, error) {
	switch v := e.(type) {
	case expr.Binary:
		if op, ok := negatedCompareOp(v.Op); ok {
			return expr.Binary{Op: op, Left: v.Left, Right: v.Right}, nil
		}
	case expr.In:
		op := expr.OpNotIn
		if v.Op == expr.OpNotIn {
			op = expr.OpIn
		}
		return expr.In{Left: v.Left, Op: op, Values: v.Values, Select: v.Select}, nil
	}
	return nil, &Error{Op: Not, Message: fmt.Sprintf("cannot negate %T", e)}
}

func negatedCompareOp(op expr.CompareOp) (expr.CompareOp, bool) {
	switch op {
	case expr.OpEq:
		return expr.OpNeq, true
	case expr.OpNeq:
		return expr.OpEq, true
	case expr.OpLt:
		return expr.OpGte, true
	case expr.OpGte:
		return expr.OpLt, true
	case expr.OpGt:
		return expr.OpLte, true
	case expr.OpLte:
		return expr.OpGt, true
	case expr.OpLike:
		return expr.OpNotLike, true
	case expr.OpNotLike:
		return expr.OpLike, true
	}
	return "", false
}

func likePredicate(left expr.Operand, value any, insensitive bool, prefix, suffix string) (expr.Expression, error) {
	s, ok := value.(string)
	if !ok {
		return nil, &Error{Message: "value must be a string"}
	}
	pattern := prefix + escapeLike(s) + suffix
	if insensitive {
		pattern = strings.ToLower(pattern)
	}
	return expr.LikeExpr(left, pattern), nil
}

// escapeLike escapes LIKE's three special characters so user-supplied
// substrings are matched literally (spec §4.I: "LIKE patterns escape
// `%`, `_`, `\`").
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func lowerIfNeeded(v any, insensitive bool) any {
	if !insensitive {
		return v
	}
	if s, ok := v.(string); ok {
		return strings.ToLower(s)
	}
	return v
}

func lowerAllIfNeeded(values []any, insensitive bool) []any {
	if !insensitive {
		return values
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = lowerIfNeeded(v, true)
	}
	return out
}

func asSlice(v any) ([]any, error) {
	switch s := v.(type) {
	case []any:
		return s, nil
	case nil:
		return nil, fmt.Errorf("value must be a non-nil slice")
	default:
		return nil, fmt.Errorf("value must be a []any, got %T", v)
	}
}
