package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqLiftsRawScalar(t *testing.T) {
	b := Eq(Col("users", "id"), 7)
	assert.Equal(t, OpEq, b.Op)
	assert.Equal(t, Column{Table: "users", Name: "id"}, b.Left)
	assert.Equal(t, Literal{Value: 7}, b.Right)
}

func TestValueToOperandPassesOperandThrough(t *testing.T) {
	col := Col("posts", "title")
	got := ValueToOperand(col)
	assert.Equal(t, col, got)
}

func TestValueToOperandPanicsOnUnsupportedType(t *testing.T) {
	assert.Panics(t, func() {
		ValueToOperand(struct{ X int }{X: 1})
	})
}

func TestAndFlattensNestedSameOperator(t *testing.T) {
	inner := And(Eq(Col("a", "x"), 1), Eq(Col("a", "y"), 2))
	outer := And(inner, Eq(Col("a", "z"), 3))

	require.Len(t, outer.Operands, 3)
	assert.Equal(t, OpAnd, outer.Op)
}

func TestAndDoesNotFlattenDifferentOperator(t *testing.T) {
	or := Or(Eq(Col("a", "x"), 1), Eq(Col("a", "y"), 2))
	and := And(or, Eq(Col("a", "z"), 3))

	require.Len(t, and.Operands, 2)
	assert.Equal(t, or, and.Operands[0])
}

func TestInListBuildsLiteralMembership(t *testing.T) {
	in := InList(Col("t", "status"), "a", "b")
	assert.Equal(t, OpIn, in.Op)
	require.Len(t, in.Values, 2)
	assert.Nil(t, in.Select)
}

func TestInSubqueryLeavesValuesNil(t *testing.T) {
	sub := &SelectQuery{From: TableSource{Table: "other"}}
	in := InSubquery(Col("t", "id"), sub)
	assert.Equal(t, OpIn, in.Op)
	assert.Same(t, sub, in.Select)
	assert.Nil(t, in.Values)
}

func TestCaseWhenWithElse(t *testing.T) {
	c := CaseWhen([]CaseBranch{When(Eq(Col("t", "x"), 1), "yes")}, "no")
	require.Len(t, c.Branches, 1)
	assert.Equal(t, Literal{Value: "no"}, c.Else)
}

func TestFnLiftsArgs(t *testing.T) {
	f := Fn("COUNT", Col("t", "id"))
	assert.Equal(t, "COUNT", f.Name)
	require.Len(t, f.Args, 1)
	assert.Equal(t, Col("t", "id"), f.Args[0])
}

func TestArithmeticSatisfiesBothFamilies(t *testing.T) {
	a := Arithmetic{Op: OpAdd, Left: Col("t", "x"), Right: Literal{Value: 1}}
	var _ Operand = a
	var _ Expression = a
}

func TestBetweenExprNegation(t *testing.T) {
	b := NotBetweenExpr(Col("t", "x"), Literal{Value: 1}, Literal{Value: 10})
	assert.True(t, b.Negated)
}
