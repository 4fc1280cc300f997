package dialect

// Compiler owns the append-only parameter list and placeholder counter for
// one compile() call, per spec §4.C. It is not safe for concurrent use and
// is never reused across statements.
type Compiler struct {
	Dialect Dialect
	params  []any
}

func NewCompiler(d Dialect) *Compiler {
	return &Compiler{Dialect: d}
}

// Bind appends a parameter and returns the placeholder text for it. Every
// Literal encountered during compilation calls this exactly once,
// preserving left-to-right parameter order.
func (c *Compiler) Bind(v any) string {
	c.params = append(c.params, v)
	return c.Dialect.PlaceholderAt(len(c.params))
}

func (c *Compiler) Params() []any {
	out := make([]any, len(c.params))
	copy(out, c.params)
	return out
}

func (c *Compiler) Quote(name string) string {
	return c.Dialect.QuoteIdent(name)
}

// QuoteQualified quotes a possibly table-qualified identifier, e.g.
// "users"."id".
func (c *Compiler) QuoteQualified(table, name string) string {
	if table == "" {
		return c.Quote(name)
	}
	return c.Quote(table) + "." + c.Quote(name)
}
