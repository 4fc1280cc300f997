package expr

// Operand is any AST node that produces a scalar value. It is one of the
// two node families in the AST (the other being Expression, which produces
// a boolean/compound result).
type Operand interface {
	operand()
}

// Literal lifts a raw Go scalar into the AST. Accepted dynamic types are
// string, the numeric kinds, bool, nil, time.Time, []byte,
// github.com/shopspring/decimal.Decimal and
// github.com/golang-sql/civil.Date/DateTime — anything else is a builder
// error at construction time, not a silent passthrough.
type Literal struct {
	Value any
}

func (Literal) operand() {}

// Column references a column by table and name, optionally under an alias.
// Carrying the table name (rather than just the bare column name) lets
// joins disambiguate identically-named columns without extra bookkeeping.
type Column struct {
	Table string
	Name  string
	Alias string
}

func (Column) operand() {}

// AliasRef refers back to a projection alias (e.g. in ORDER BY or GROUP BY).
type AliasRef struct {
	Name string
}

func (AliasRef) operand() {}

// Function is a scalar function call, normalized to an uppercase name the
// dialect's function registry knows how to render.
type Function struct {
	Name string
	Args []Operand
}

func (Function) operand() {}

// WindowFunction is a function applied OVER a window spec.
type WindowFunction struct {
	Name        string
	Args        []Operand
	PartitionBy []Operand
	OrderBy     []OrderTerm
}

func (WindowFunction) operand() {}

// OrderTerm is one ORDER BY entry, shared between window specs and query
// ORDER BY clauses.
type OrderTerm struct {
	Term      Operand
	Direction Direction
	Collation string
	NullsLast *bool
}

// CaseBranch is one WHEN/THEN arm of a Case expression.
type CaseBranch struct {
	When Expression
	Then Operand
}

// Case is a searched CASE expression.
type Case struct {
	Branches []CaseBranch
	Else     Operand
}

func (Case) operand() {}

// Cast renders CAST(expr AS type), with TypeName left dialect-specific
// (e.g. callers write "NUMERIC(10,2)" verbatim; the compiler does not
// re-derive type names from schema.ColumnType here, since CAST targets do
// not always correspond to a declared column).
type Cast struct {
	Expr     Operand
	TypeName string
}

func (Cast) operand() {}

// ScalarSubquery is a SELECT used where a single value is expected.
type ScalarSubquery struct {
	Select *SelectQuery
}

func (ScalarSubquery) operand() {}

// JsonPath extracts a value at Path from a JSON/JSONB column.
type JsonPath struct {
	Column Column
	Path   []string
}

func (JsonPath) operand() {}

// Arithmetic is shared between the Operand and Expression families: it
// produces a value but is frequently used directly as a predicate operand
// (e.g. in a WHERE clause testing a computed value).
type Arithmetic struct {
	Op    ArithOp
	Left  Operand
	Right Operand
}

func (Arithmetic) operand()    {}
func (Arithmetic) expression() {}

// Collate wraps an operand with an explicit collation.
type Collate struct {
	Expr      Operand
	Collation string
}

func (Collate) operand() {}

// Raw is an opaque, pre-rendered SQL fragment with its own positional
// parameters. It is never re-parsed; select_raw/whereRaw builder methods
// produce it directly, matching the rest of this codebase's rule that
// already-validated SQL text is passed through verbatim rather than
// re-interpreted.
type Raw struct {
	SQL    string
	Params []any
}

func (Raw) operand()    {}
func (Raw) expression() {}
