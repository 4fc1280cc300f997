package expr

// TableSource is a FROM target: a bare table, an aliased subquery, or a
// CTE reference.
type TableSource struct {
	Table    string
	Alias    string
	Subquery *SelectQuery
}

// Projection is one SELECT list entry.
type Projection struct {
	Expr  Operand
	Alias string
}

// Join describes one JOIN clause. CROSS joins carry no On.
type Join struct {
	Kind   JoinKind
	Source TableSource
	On     Expression
}

// CTE is one WITH entry.
type CTE struct {
	Name    string
	Columns []string
	Select  *SelectQuery
}

// SetOperation is one UNION/INTERSECT/EXCEPT arm chained onto a query.
type SetOperation struct {
	Operator SetOp
	Query    *SelectQuery
}

// SelectQuery is the AST for a SELECT statement (and, via SetOps, any
// compound query built from SELECTs).
type SelectQuery struct {
	From      TableSource
	Columns   []Projection
	Joins     []Join
	Where     Expression
	GroupBy   []Operand
	Having    Expression
	OrderBy   []OrderTerm
	Limit     *int
	LimitExpr Operand
	Offset    *int
	Distinct  bool
	DistinctOn []Operand
	CTEs      []CTE
	SetOps    []SetOperation
	LockMode  LockMode
}

// ConflictAction is the closed set of ON CONFLICT behaviors.
type ConflictAction int

const (
	ConflictNone ConflictAction = iota
	ConflictDoNothing
	ConflictDoUpdate
)

// OnConflict describes upsert behavior.
type OnConflict struct {
	Columns []string
	Action  ConflictAction
	Updates map[string]Operand
}

// InsertQuery is the AST for INSERT ... VALUES or INSERT ... SELECT.
type InsertQuery struct {
	Into       string
	Columns    []string
	Rows       [][]Operand
	Select     *SelectQuery
	Returning  []string
	OnConflict *OnConflict
}

// UpdateQuery is the AST for UPDATE.
type UpdateQuery struct {
	Table     string
	Set       map[string]Operand
	SetOrder  []string
	Where     Expression
	Returning []string
}

// DeleteQuery is the AST for DELETE.
type DeleteQuery struct {
	From      string
	Where     Expression
	Returning []string
}
