package expr

// Expression is any AST node producing a boolean or compound result (the
// WHERE/HAVING/ON clause family).
type Expression interface {
	expression()
}

// Binary is a comparison between two operands, e.g. a column and a
// literal. Escape is only meaningful for LIKE/NOT LIKE.
type Binary struct {
	Op     CompareOp
	Left   Operand
	Right  Operand
	Escape *rune
}

func (Binary) expression() {}

// Logical conjoins/disjoins one or more operands of the same operator.
// Builders are responsible for flattening nested same-operator trees
// before constructing this node (see expr.And/expr.Or).
type Logical struct {
	Op       LogicalOp
	Operands []Expression
}

func (Logical) expression() {}

// Null tests a single operand for nullity.
type Null struct {
	Left Operand
	Op   NullOp
}

func (Null) expression() {}

// In tests membership of Left against either a literal list (Values) or a
// correlated subquery (Select); exactly one of the two is set.
type In struct {
	Left   Operand
	Op     MembershipOp
	Values []Operand
	Select *SelectQuery
}

func (In) expression() {}

// Exists wraps a subquery as an existence test.
type Exists struct {
	Select *SelectQuery
	Op     ExistsOp
}

func (Exists) expression() {}

// Between tests Left against an inclusive [Lower, Upper] range. Negated
// selects "NOT BETWEEN" instead of "BETWEEN"; kept as a flag (not a
// separate type) since there are only the two forms.
type Between struct {
	Left       Operand
	Lower      Operand
	Upper      Operand
	Negated    bool
}

func (Between) expression() {}
