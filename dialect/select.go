package dialect

import (
	"strings"

	"github.com/sqlkit/sqlkit/expr"
)

// CompileSelect compiles a complete SELECT (or compound SELECT) into
// dialect-specific SQL and its positional parameter list.
func CompileSelect(d Dialect, q *expr.SelectQuery) (string, []any, error) {
	c := NewCompiler(d)
	sql, err := compileSelectBody(c, q, false)
	if err != nil {
		return "", nil, err
	}
	return sql, c.Params(), nil
}

// compileSelectBody compiles q (and, transitively, any nested subquery) by
// reusing the caller's Compiler, so all placeholders in a statement share
// one parameter list regardless of nesting depth. literalOne forces the
// projection list to the bare literal "1" instead of q's own columns; it is
// set only by compileExistsSubquery, which never has set operations to
// recurse into (those take the derived-table path instead).
func compileSelectBody(c *Compiler, q *expr.SelectQuery, literalOne bool) (string, error) {
	norm, err := normalizeSelect(q)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if len(norm.CTEs) > 0 {
		b.WriteString("WITH ")
		parts := make([]string, len(norm.CTEs))
		for i, cte := range norm.CTEs {
			inner, err := compileSelectBody(c, cte.Select, false)
			if err != nil {
				return "", err
			}
			part := c.Quote(cte.Name)
			if len(cte.Columns) > 0 {
				cols := make([]string, len(cte.Columns))
				for j, col := range cte.Columns {
					cols[j] = c.Quote(col)
				}
				part += " (" + strings.Join(cols, ", ") + ")"
			}
			part += " AS (" + inner + ")"
			parts[i] = part
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(" ")
	}

	core, err := compileSelectCore(c, norm, literalOne)
	if err != nil {
		return "", err
	}
	b.WriteString(core)

	for _, so := range norm.SetOps {
		if !c.Dialect.SupportsSetOp(so.Operator) {
			return "", errFeatureUnsupported(string(so.Operator))
		}
		armCore, err := compileSelectCore(c, so.Query, false)
		if err != nil {
			return "", err
		}
		b.WriteString(" " + string(so.Operator) + " " + armCore)
	}

	if len(norm.OrderBy) > 0 {
		terms, err := compileOrderTerms(c, norm.OrderBy)
		if err != nil {
			return "", err
		}
		b.WriteString(" ORDER BY " + strings.Join(terms, ", "))
	}

	suffix, err := c.Dialect.SelectSuffix(norm, c)
	if err != nil {
		return "", err
	}
	if suffix != "" {
		b.WriteString(" " + suffix)
	}

	return b.String(), nil
}

func compileSelectCore(c *Compiler, q *expr.SelectQuery, literalOne bool) (string, error) {
	var b strings.Builder
	b.WriteString("SELECT ")

	prefix, err := c.Dialect.SelectPrefix(q)
	if err != nil {
		return "", err
	}
	if prefix != "" {
		b.WriteString(prefix + " ")
	}

	if q.Distinct {
		if len(q.DistinctOn) > 0 {
			ons := make([]string, len(q.DistinctOn))
			for i, o := range q.DistinctOn {
				s, err := compileOperand(c, o)
				if err != nil {
					return "", err
				}
				ons[i] = s
			}
			b.WriteString("DISTINCT ON (" + strings.Join(ons, ", ") + ") ")
		} else {
			b.WriteString("DISTINCT ")
		}
	}

	if literalOne {
		b.WriteString("1")
	} else if len(q.Columns) == 0 {
		b.WriteString("*")
	} else {
		cols := make([]string, len(q.Columns))
		for i, p := range q.Columns {
			s, err := compileOperand(c, p.Expr)
			if err != nil {
				return "", err
			}
			if p.Alias != "" {
				s += " AS " + c.Quote(p.Alias)
			}
			cols[i] = s
		}
		b.WriteString(strings.Join(cols, ", "))
	}

	b.WriteString(" FROM ")
	fromSQL, err := compileTableSource(c, q.From)
	if err != nil {
		return "", err
	}
	b.WriteString(fromSQL)

	for _, j := range q.Joins {
		if j.Kind != expr.CrossJoin && !c.Dialect.SupportsJoinKind(j.Kind) {
			return "", errFeatureUnsupported(string(j.Kind) + " JOIN")
		}
		joinSQL, err := compileTableSource(c, j.Source)
		if err != nil {
			return "", err
		}
		b.WriteString(" " + string(j.Kind) + " JOIN " + joinSQL)
		if j.On != nil {
			onSQL, err := compileExpression(c, j.On)
			if err != nil {
				return "", err
			}
			b.WriteString(" ON " + onSQL)
		}
	}

	if q.Where != nil {
		whereSQL, err := compileExpression(c, q.Where)
		if err != nil {
			return "", err
		}
		b.WriteString(" WHERE " + whereSQL)
	}

	if len(q.GroupBy) > 0 {
		parts := make([]string, len(q.GroupBy))
		for i, g := range q.GroupBy {
			s, err := compileOperand(c, g)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		b.WriteString(" GROUP BY " + strings.Join(parts, ", "))
	}

	if q.Having != nil {
		havingSQL, err := compileExpression(c, q.Having)
		if err != nil {
			return "", err
		}
		b.WriteString(" HAVING " + havingSQL)
	}

	if q.LockMode != expr.NoLock {
		b.WriteString(" " + string(q.LockMode))
	}

	return b.String(), nil
}

// compileExistsSubquery compiles the inner query of an EXISTS/NOT EXISTS
// predicate. EXISTS never needs any projected value, only row presence, so
// the projection is always rewritten to the literal "SELECT 1" regardless
// of what columns sub's builder set, preserving FROM/JOINS/WHERE/GROUP
// BY/ORDER BY/LIMIT. A subquery built from set operations (UNION/
// INTERSECT/EXCEPT) can't have its projection rewritten per-arm without
// touching every arm, so it's wrapped as a derived table instead:
// "SELECT 1 FROM (<original query>) AS ...".
func compileExistsSubquery(c *Compiler, sub *expr.SelectQuery) (string, error) {
	if len(sub.SetOps) > 0 {
		inner, err := compileSelectBody(c, sub, false)
		if err != nil {
			return "", err
		}
		return "SELECT 1 FROM (" + inner + ") AS " + c.Quote("exists_set"), nil
	}

	rewritten := *sub
	rewritten.Columns = nil
	return compileSelectBody(c, &rewritten, true)
}

func compileTableSource(c *Compiler, ts expr.TableSource) (string, error) {
	if ts.Subquery != nil {
		inner, err := compileSelectBody(c, ts.Subquery, false)
		if err != nil {
			return "", err
		}
		sql := "(" + inner + ")"
		if ts.Alias != "" {
			sql += " AS " + c.Quote(ts.Alias)
		}
		return sql, nil
	}
	sql := c.Quote(ts.Table)
	if ts.Alias != "" && ts.Alias != unqualifiedTableName(ts.Table) {
		sql += " AS " + c.Quote(ts.Alias)
	}
	return sql, nil
}

// unqualifiedTableName strips a "schema." prefix, if any, so a root table's
// default self-alias (the bare table name) can be recognized and elided
// instead of compiled as a redundant "FROM \"t\" AS \"t\"".
func unqualifiedTableName(table string) string {
	if i := strings.LastIndex(table, "."); i >= 0 {
		return table[i+1:]
	}
	return table
}
