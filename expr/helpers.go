package expr

import (
	"fmt"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

// Col builds a Column operand.
func Col(table, name string) Column {
	return Column{Table: table, Name: name}
}

// ColAs builds an aliased Column operand.
func ColAs(table, name, alias string) Column {
	return Column{Table: table, Name: name, Alias: alias}
}

// ValueToOperand lifts a raw scalar into the AST, per spec §4.B. Column
// operands are passed through unchanged so joins can reuse them. Anything
// that isn't one of the accepted dynamic types panics with a descriptive
// message — this is a builder-construction error, never a runtime data
// error, so it is not modeled as a returned error.
func ValueToOperand(v any) Operand {
	switch val := v.(type) {
	case Operand:
		return val
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64,
		[]byte, time.Time, decimal.Decimal, civil.Date, civil.DateTime:
		return Literal{Value: val}
	default:
		panic(fmt.Sprintf("expr: unsupported literal type %T", v))
	}
}

func operands(values ...any) []Operand {
	out := make([]Operand, len(values))
	for i, v := range values {
		out[i] = ValueToOperand(v)
	}
	return out
}

// Eq/Neq/Gt/Gte/Lt/Lte build a Binary comparison, lifting raw scalar
// right-hand sides through ValueToOperand.
func Eq(left Operand, right any) Binary  { return Binary{Op: OpEq, Left: left, Right: ValueToOperand(right)} }
func Neq(left Operand, right any) Binary { return Binary{Op: OpNeq, Left: left, Right: ValueToOperand(right)} }
func Gt(left Operand, right any) Binary  { return Binary{Op: OpGt, Left: left, Right: ValueToOperand(right)} }
func Gte(left Operand, right any) Binary { return Binary{Op: OpGte, Left: left, Right: ValueToOperand(right)} }
func Lt(left Operand, right any) Binary  { return Binary{Op: OpLt, Left: left, Right: ValueToOperand(right)} }
func Lte(left Operand, right any) Binary { return Binary{Op: OpLte, Left: left, Right: ValueToOperand(right)} }

func LikeExpr(left Operand, pattern any) Binary {
	return Binary{Op: OpLike, Left: left, Right: ValueToOperand(pattern)}
}

func NotLikeExpr(left Operand, pattern any) Binary {
	return Binary{Op: OpNotLike, Left: left, Right: ValueToOperand(pattern)}
}

// And/Or flatten nested operands of the same operator, per spec §4.B.
func And(operands ...Expression) Logical { return flattenLogical(OpAnd, operands) }
func Or(operands ...Expression) Logical  { return flattenLogical(OpOr, operands) }

func flattenLogical(op LogicalOp, operands []Expression) Logical {
	var flat []Expression
	for _, o := range operands {
		if l, ok := o.(Logical); ok && l.Op == op {
			flat = append(flat, l.Operands...)
			continue
		}
		flat = append(flat, o)
	}
	return Logical{Op: op, Operands: flat}
}

func IsNullExpr(left Operand) Null    { return Null{Left: left, Op: OpIsNull} }
func IsNotNullExpr(left Operand) Null { return Null{Left: left, Op: OpIsNotNull} }

// InList builds an IN (...) test against a literal value list.
func InList(left Operand, values ...any) In {
	return In{Left: left, Op: OpIn, Values: operands(values...)}
}

func NotInList(left Operand, values ...any) In {
	return In{Left: left, Op: OpNotIn, Values: operands(values...)}
}

// InSubquery builds an IN (SELECT ...) test.
func InSubquery(left Operand, sub *SelectQuery) In {
	return In{Left: left, Op: OpIn, Select: sub}
}

func ExistsExpr(sub *SelectQuery) Exists    { return Exists{Select: sub, Op: OpExists} }
func NotExistsExpr(sub *SelectQuery) Exists { return Exists{Select: sub, Op: OpNotExists} }

func BetweenExpr(left, lower, upper Operand) Between {
	return Between{Left: left, Lower: lower, Upper: upper}
}

func NotBetweenExpr(left, lower, upper Operand) Between {
	return Between{Left: left, Lower: lower, Upper: upper, Negated: true}
}

// CaseWhen builds a searched CASE expression from WHEN branches plus an
// optional trailing else value.
func CaseWhen(branches []CaseBranch, elseValue ...any) Case {
	c := Case{Branches: branches}
	if len(elseValue) > 0 {
		c.Else = ValueToOperand(elseValue[0])
	}
	return c
}

func When(cond Expression, then any) CaseBranch {
	return CaseBranch{When: cond, Then: ValueToOperand(then)}
}

// Fn builds a normalized scalar function call, lifting raw args.
func Fn(name string, args ...any) Function {
	return Function{Name: name, Args: operands(args...)}
}

func WindowFn(name string, args []any, partitionBy []Operand, orderBy []OrderTerm) WindowFunction {
	return WindowFunction{Name: name, Args: operands(args...), PartitionBy: partitionBy, OrderBy: orderBy}
}

func CastExpr(operand Operand, typeName string) Cast {
	return Cast{Expr: operand, TypeName: typeName}
}

func JsonPathExpr(column Column, path ...string) JsonPath {
	return JsonPath{Column: column, Path: path}
}

func Order(term Operand, direction Direction) OrderTerm {
	return OrderTerm{Term: term, Direction: direction}
}
