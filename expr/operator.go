// Package expr is the query AST: a pure value type representing
// expressions, operands and full query nodes prior to dialect compilation.
package expr

// CompareOp is the closed set of binary comparison operators.
type CompareOp string

const (
	OpEq      CompareOp = "="
	OpNeq     CompareOp = "<>"
	OpLt      CompareOp = "<"
	OpLte     CompareOp = "<="
	OpGt      CompareOp = ">"
	OpGte     CompareOp = ">="
	OpLike    CompareOp = "LIKE"
	OpNotLike CompareOp = "NOT LIKE"
)

// LogicalOp is the closed set of boolean connectives.
type LogicalOp string

const (
	OpAnd LogicalOp = "AND"
	OpOr  LogicalOp = "OR"
)

// NullOp is the closed set of null tests.
type NullOp string

const (
	OpIsNull    NullOp = "IS NULL"
	OpIsNotNull NullOp = "IS NOT NULL"
)

// MembershipOp is the closed set of IN tests.
type MembershipOp string

const (
	OpIn    MembershipOp = "IN"
	OpNotIn MembershipOp = "NOT IN"
)

// ExistsOp is the closed set of EXISTS tests.
type ExistsOp string

const (
	OpExists    ExistsOp = "EXISTS"
	OpNotExists ExistsOp = "NOT EXISTS"
)

// ArithOp is the closed set of arithmetic operators.
type ArithOp string

const (
	OpAdd ArithOp = "+"
	OpSub ArithOp = "-"
	OpMul ArithOp = "*"
	OpDiv ArithOp = "/"
	OpMod ArithOp = "%"
)

// SetOp is the closed set of compound-query operators.
type SetOp string

const (
	Union     SetOp = "UNION"
	UnionAll  SetOp = "UNION ALL"
	Intersect SetOp = "INTERSECT"
	Except    SetOp = "EXCEPT"
)

// JoinKind is the closed set of join kinds.
type JoinKind string

const (
	InnerJoin JoinKind = "INNER"
	LeftJoin  JoinKind = "LEFT"
	RightJoin JoinKind = "RIGHT"
	FullJoin  JoinKind = "FULL"
	CrossJoin JoinKind = "CROSS"
)

// Direction is ORDER BY direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// LockMode is the closed set of row-locking clauses.
type LockMode string

const (
	NoLock    LockMode = ""
	ForUpdate LockMode = "FOR UPDATE"
	ForShare  LockMode = "FOR SHARE"
)
