package dialect

import (
	"fmt"
	"strings"

	"github.com/sqlkit/sqlkit/expr"
)

// jsonPathRenderer is implemented by dialects whose JSON path syntax the
// shared compiler cannot express generically (every dialect differs here:
// ->>/#>> chains, JSON_EXTRACT, JSON_VALUE).
type jsonPathRenderer interface {
	RenderJSONPath(c *Compiler, col expr.Column, path []string) (string, error)
}

func compileOperand(c *Compiler, op expr.Operand) (string, error) {
	switch v := op.(type) {
	case expr.Literal:
		return c.Bind(v.Value), nil

	case expr.Column:
		return c.QuoteQualified(v.Table, v.Name), nil

	case expr.AliasRef:
		return c.Quote(v.Name), nil

	case expr.Function:
		return c.Dialect.RenderFunction(c, v)

	case expr.WindowFunction:
		return compileWindowFunction(c, v)

	case expr.Case:
		return compileCase(c, v)

	case expr.Cast:
		inner, err := compileOperand(c, v.Expr)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("CAST(%s AS %s)", inner, v.TypeName), nil

	case expr.ScalarSubquery:
		inner, err := compileSelectBody(c, v.Select, false)
		if err != nil {
			return "", err
		}
		return "(" + inner + ")", nil

	case expr.JsonPath:
		renderer, ok := c.Dialect.(jsonPathRenderer)
		if !ok {
			return "", errFeatureUnsupported("JSON path expressions")
		}
		return renderer.RenderJSONPath(c, v.Column, v.Path)

	case expr.Arithmetic:
		return compileArithmetic(c, v)

	case expr.Collate:
		inner, err := compileOperand(c, v.Expr)
		if err != nil {
			return "", err
		}
		return inner + " COLLATE " + v.Collation, nil

	case expr.Raw:
		return compileRaw(c, v)

	default:
		return "", errUnsupportedNode(fmt.Sprintf("unknown operand node %T", op))
	}
}

func compileArithmetic(c *Compiler, a expr.Arithmetic) (string, error) {
	left, err := compileOperand(c, a.Left)
	if err != nil {
		return "", err
	}
	right, err := compileOperand(c, a.Right)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s %s %s)", left, a.Op, right), nil
}

func compileWindowFunction(c *Compiler, w expr.WindowFunction) (string, error) {
	base, err := c.Dialect.RenderFunction(c, expr.Function{Name: w.Name, Args: w.Args})
	if err != nil {
		return "", err
	}
	var over []string
	if len(w.PartitionBy) > 0 {
		parts := make([]string, len(w.PartitionBy))
		for i, p := range w.PartitionBy {
			s, err := compileOperand(c, p)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		over = append(over, "PARTITION BY "+strings.Join(parts, ", "))
	}
	if len(w.OrderBy) > 0 {
		terms, err := compileOrderTerms(c, w.OrderBy)
		if err != nil {
			return "", err
		}
		over = append(over, "ORDER BY "+strings.Join(terms, ", "))
	}
	return fmt.Sprintf("%s OVER (%s)", base, strings.Join(over, " ")), nil
}

func compileCase(c *Compiler, cs expr.Case) (string, error) {
	var b strings.Builder
	b.WriteString("CASE")
	for _, branch := range cs.Branches {
		cond, err := compileExpression(c, branch.When)
		if err != nil {
			return "", err
		}
		then, err := compileOperand(c, branch.Then)
		if err != nil {
			return "", err
		}
		b.WriteString(" WHEN " + cond + " THEN " + then)
	}
	if cs.Else != nil {
		elseSQL, err := compileOperand(c, cs.Else)
		if err != nil {
			return "", err
		}
		b.WriteString(" ELSE " + elseSQL)
	}
	b.WriteString(" END")
	return b.String(), nil
}

// compileRaw rewrites the '?' placeholder markers in a Raw fragment's SQL
// text (the only placeholder spelling select_raw/whereRaw builders accept)
// into the target dialect's native placeholder syntax, binding each
// corresponding parameter in order.
func compileRaw(c *Compiler, r expr.Raw) (string, error) {
	var b strings.Builder
	paramIdx := 0
	inQuote := rune(0)
	runes := []rune(r.SQL)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if inQuote != 0 {
			b.WriteRune(ch)
			if ch == inQuote {
				inQuote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			inQuote = ch
			b.WriteRune(ch)
		case '?':
			if paramIdx >= len(r.Params) {
				return "", errUnsupportedNode("raw fragment has more '?' placeholders than bound params")
			}
			b.WriteString(c.Bind(r.Params[paramIdx]))
			paramIdx++
		default:
			b.WriteRune(ch)
		}
	}
	if paramIdx != len(r.Params) {
		return "", errUnsupportedNode("raw fragment has more bound params than '?' placeholders")
	}
	return b.String(), nil
}

func compileOrderTerms(c *Compiler, terms []expr.OrderTerm) ([]string, error) {
	out := make([]string, len(terms))
	for i, t := range terms {
		s, err := compileOperand(c, t.Term)
		if err != nil {
			return nil, err
		}
		if t.Direction != "" {
			s += " " + string(t.Direction)
		}
		if t.Collation != "" {
			s += " COLLATE " + t.Collation
		}
		if t.NullsLast != nil && (c.Dialect.Kind() == Postgres || c.Dialect.Kind() == SQLite) {
			if *t.NullsLast {
				s += " NULLS LAST"
			} else {
				s += " NULLS FIRST"
			}
		}
		out[i] = s
	}
	return out, nil
}

func compileExpression(c *Compiler, e expr.Expression) (string, error) {
	switch v := e.(type) {
	case expr.Binary:
		return compileBinary(c, v)

	case expr.Logical:
		return compileLogical(c, v)

	case expr.Null:
		left, err := compileOperand(c, v.Left)
		if err != nil {
			return "", err
		}
		return left + " " + string(v.Op), nil

	case expr.In:
		return compileIn(c, v)

	case expr.Exists:
		inner, err := compileExistsSubquery(c, v.Select)
		if err != nil {
			return "", err
		}
		return string(v.Op) + " (" + inner + ")", nil

	case expr.Between:
		left, err := compileOperand(c, v.Left)
		if err != nil {
			return "", err
		}
		lower, err := compileOperand(c, v.Lower)
		if err != nil {
			return "", err
		}
		upper, err := compileOperand(c, v.Upper)
		if err != nil {
			return "", err
		}
		kw := "BETWEEN"
		if v.Negated {
			kw = "NOT BETWEEN"
		}
		return fmt.Sprintf("%s %s %s AND %s", left, kw, lower, upper), nil

	case expr.Arithmetic:
		return compileArithmetic(c, v)

	case expr.Raw:
		return compileRaw(c, v)

	default:
		return "", errUnsupportedNode(fmt.Sprintf("unknown expression node %T", e))
	}
}

func compileBinary(c *Compiler, b expr.Binary) (string, error) {
	left, err := compileOperand(c, b.Left)
	if err != nil {
		return "", err
	}
	right, err := compileOperand(c, b.Right)
	if err != nil {
		return "", err
	}
	sql := fmt.Sprintf("%s %s %s", left, b.Op, right)
	if b.Escape != nil && (b.Op == expr.OpLike || b.Op == expr.OpNotLike) {
		sql += fmt.Sprintf(" ESCAPE '%c'", *b.Escape)
	}
	return sql, nil
}

func compileLogical(c *Compiler, l expr.Logical) (string, error) {
	parts := make([]string, len(l.Operands))
	for i, o := range l.Operands {
		s, err := compileExpression(c, o)
		if err != nil {
			return "", err
		}
		if _, nested := o.(expr.Logical); nested {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	sep := " " + string(l.Op) + " "
	return strings.Join(parts, sep), nil
}

func compileIn(c *Compiler, in expr.In) (string, error) {
	left, err := compileOperand(c, in.Left)
	if err != nil {
		return "", err
	}
	if in.Select != nil {
		inner, err := compileSelectBody(c, in.Select, false)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s (%s)", left, in.Op, inner), nil
	}
	if len(in.Values) == 0 {
		// An empty literal list is never true/false-safe to render as
		// "IN ()"; fold to the always-false/always-true equivalent.
		if in.Op == expr.OpIn {
			return "1 = 0", nil
		}
		return "1 = 1", nil
	}
	vals := make([]string, len(in.Values))
	for i, v := range in.Values {
		s, err := compileOperand(c, v)
		if err != nil {
			return "", err
		}
		vals[i] = s
	}
	return fmt.Sprintf("%s %s (%s)", left, in.Op, strings.Join(vals, ", ")), nil
}
