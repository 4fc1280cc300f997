package dialect

import (
	"strings"

	"github.com/sqlkit/sqlkit/expr"
)

// upsertStatementDialect is implemented by dialects whose upsert form
// cannot be expressed as a clause appended to a normal INSERT statement
// (SQL Server's MERGE rewrites the entire statement shape).
type upsertStatementDialect interface {
	RenderUpsertStatement(c *Compiler, q *expr.InsertQuery) (string, error)
}

// CompileInsert compiles an InsertQuery (VALUES or INSERT ... SELECT form,
// including any upsert clause) into dialect-specific SQL.
func CompileInsert(d Dialect, q *expr.InsertQuery) (string, []any, error) {
	c := NewCompiler(d)

	if q.OnConflict != nil {
		if full, ok := d.(upsertStatementDialect); ok {
			sql, err := full.RenderUpsertStatement(c, q)
			if err != nil {
				return "", nil, err
			}
			return sql, c.Params(), nil
		}
	}

	var b strings.Builder

	b.WriteString("INSERT INTO " + c.Quote(q.Into))
	if len(q.Columns) > 0 {
		cols := make([]string, len(q.Columns))
		for i, col := range q.Columns {
			cols[i] = c.Quote(col)
		}
		b.WriteString(" (" + strings.Join(cols, ", ") + ")")
	}

	var outputSQL string
	if len(q.Returning) > 0 {
		sql, placement, err := d.RenderReturning("INSERT", q.Returning)
		if err != nil {
			return "", nil, err
		}
		if placement == "output" {
			outputSQL = sql
		}
		if outputSQL != "" {
			b.WriteString(" " + outputSQL)
		}
	}

	switch {
	case q.Select != nil:
		inner, err := compileSelectBody(c, q.Select, false)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" " + inner)
	default:
		rows := make([]string, len(q.Rows))
		for i, row := range q.Rows {
			vals := make([]string, len(row))
			for j, v := range row {
				s, err := compileOperand(c, v)
				if err != nil {
					return "", nil, err
				}
				vals[j] = s
			}
			rows[i] = "(" + strings.Join(vals, ", ") + ")"
		}
		b.WriteString(" VALUES " + strings.Join(rows, ", "))
	}

	if q.OnConflict != nil {
		upsertSQL, err := d.RenderUpsert(c, q.Into, q.Columns, q.OnConflict)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" " + upsertSQL)
	}

	if len(q.Returning) > 0 && outputSQL == "" {
		sql, _, err := d.RenderReturning("INSERT", q.Returning)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" " + sql)
	}

	return b.String(), c.Params(), nil
}

// CompileUpdate compiles an UpdateQuery into dialect-specific SQL.
func CompileUpdate(d Dialect, q *expr.UpdateQuery) (string, []any, error) {
	c := NewCompiler(d)
	var b strings.Builder
	b.WriteString("UPDATE " + c.Quote(q.Table) + " SET ")

	assigns := make([]string, len(q.SetOrder))
	for i, col := range q.SetOrder {
		v, ok := q.Set[col]
		if !ok {
			return "", nil, errUnsupportedNode("UpdateQuery.SetOrder references a column missing from Set: " + col)
		}
		s, err := compileOperand(c, v)
		if err != nil {
			return "", nil, err
		}
		assigns[i] = c.Quote(col) + " = " + s
	}
	b.WriteString(strings.Join(assigns, ", "))

	var outputSQL string
	if len(q.Returning) > 0 {
		sql, placement, err := d.RenderReturning("UPDATE", q.Returning)
		if err != nil {
			return "", nil, err
		}
		if placement == "output" {
			outputSQL = sql
			b.WriteString(" " + outputSQL)
		}
	}

	if q.Where != nil {
		whereSQL, err := compileExpression(c, q.Where)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" WHERE " + whereSQL)
	}

	if len(q.Returning) > 0 && outputSQL == "" {
		sql, _, err := d.RenderReturning("UPDATE", q.Returning)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" " + sql)
	}

	return b.String(), c.Params(), nil
}

// CompileDelete compiles a DeleteQuery into dialect-specific SQL.
func CompileDelete(d Dialect, q *expr.DeleteQuery) (string, []any, error) {
	c := NewCompiler(d)
	var b strings.Builder
	b.WriteString("DELETE FROM " + c.Quote(q.From))

	var outputSQL string
	if len(q.Returning) > 0 {
		sql, placement, err := d.RenderReturning("DELETE", q.Returning)
		if err != nil {
			return "", nil, err
		}
		if placement == "output" {
			outputSQL = sql
			b.WriteString(" " + outputSQL)
		}
	}

	if q.Where != nil {
		whereSQL, err := compileExpression(c, q.Where)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" WHERE " + whereSQL)
	}

	if len(q.Returning) > 0 && outputSQL == "" {
		sql, _, err := d.RenderReturning("DELETE", q.Returning)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" " + sql)
	}

	return b.String(), c.Params(), nil
}
