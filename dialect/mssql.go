package dialect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sqlkit/sqlkit/expr"
)

type sqlServerDialect struct{}

func (sqlServerDialect) Kind() Kind { return SQLServer }

func (sqlServerDialect) Capabilities() Capability {
	return CapTransactions | CapReturning | CapInsertID
}

func (sqlServerDialect) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (sqlServerDialect) PlaceholderAt(index int) string {
	return "@p" + strconv.Itoa(index)
}

func (sqlServerDialect) SupportsSetOp(op expr.SetOp) bool {
	switch op {
	case expr.Union, expr.UnionAll, expr.Intersect, expr.Except:
		return true
	}
	return false
}

func (sqlServerDialect) SupportsJoinKind(k expr.JoinKind) bool {
	switch k {
	case expr.InnerJoin, expr.LeftJoin, expr.RightJoin, expr.FullJoin, expr.CrossJoin:
		return true
	}
	return false
}

func (sqlServerDialect) RenderFunction(c *Compiler, fn expr.Function) (string, error) {
	switch fn.Name {
	case "LENGTH":
		return callFunction(c, "LEN", fn.Args)

	case "SUBSTRING":
		if len(fn.Args) != 3 {
			return "", errUnsupportedNode("SUBSTRING requires (string, start, length)")
		}
		return callFunction(c, "SUBSTRING", fn.Args)

	case "POSITION":
		if len(fn.Args) != 2 {
			return "", errUnsupportedNode("POSITION requires (substring, string)")
		}
		sub, err := compileOperand(c, fn.Args[0])
		if err != nil {
			return "", err
		}
		str, err := compileOperand(c, fn.Args[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("CHARINDEX(%s, %s)", sub, str), nil

	case "CONCAT":
		return callFunction(c, "CONCAT", fn.Args)

	default:
		name, ok := commonFunctionNames[fn.Name]
		if !ok {
			name = fn.Name
		}
		return callFunction(c, name, fn.Args)
	}
}

// SelectPrefix emits TOP n when a simple (offset-less) limit is set; once
// an offset is present the statement must use OFFSET/FETCH instead, which
// SelectSuffix renders.
func (sqlServerDialect) SelectPrefix(q *expr.SelectQuery) (string, error) {
	if q.Offset == nil && q.Limit != nil {
		return fmt.Sprintf("TOP %d", *q.Limit), nil
	}
	return "", nil
}

// SelectSuffix renders OFFSET/FETCH once an offset is present. Unlike TOP
// (always a literal, per this dialect's own syntax restriction), OFFSET and
// FETCH NEXT accept parameters, so both are bound like every other
// dialect's LIMIT/OFFSET — see DESIGN.md for this open-question decision.
func (sqlServerDialect) SelectSuffix(q *expr.SelectQuery, c *Compiler) (string, error) {
	if q.Offset == nil {
		return "", nil
	}
	if len(q.OrderBy) == 0 {
		return "", errFeatureUnsupported("OFFSET without ORDER BY")
	}
	offset := c.Bind(*q.Offset)
	var limit string
	if q.Limit != nil {
		limit = c.Bind(*q.Limit)
	} else {
		limit = c.Bind(int64(9223372036854775807))
	}
	return fmt.Sprintf("OFFSET %s ROWS FETCH NEXT %s ROWS ONLY", offset, limit), nil
}

func (sqlServerDialect) outputPrefix(kindName string) string {
	if kindName == "DELETE" {
		return "DELETED"
	}
	return "INSERTED"
}

func (d sqlServerDialect) RenderReturning(kindName string, cols []string) (string, string, error) {
	prefix := d.outputPrefix(kindName)
	refs := make([]string, len(cols))
	for i, col := range cols {
		refs[i] = prefix + "." + d.QuoteIdent(col)
	}
	return "OUTPUT " + strings.Join(refs, ", "), "output", nil
}

// RenderUpsert is unreachable: OnConflict on SQL Server is always handled
// by RenderUpsertStatement, which rewrites the whole statement as a MERGE.
func (sqlServerDialect) RenderUpsert(c *Compiler, table string, insertCols []string, conflict *expr.OnConflict) (string, error) {
	return "", errFeatureUnsupported("ON CONFLICT clause (use MERGE)")
}

// RenderUpsertStatement rewrites an upserting InsertQuery as a MERGE
// statement, SQL Server's only upsert mechanism.
func (d sqlServerDialect) RenderUpsertStatement(c *Compiler, q *expr.InsertQuery) (string, error) {
	if q.Select != nil {
		return "", errFeatureUnsupported("MERGE upsert from INSERT ... SELECT")
	}
	if len(q.Rows) == 0 {
		return "", errUnsupportedNode("MERGE upsert requires at least one row")
	}

	rowSQL := make([]string, len(q.Rows))
	for i, row := range q.Rows {
		vals := make([]string, len(row))
		for j, v := range row {
			s, err := compileOperand(c, v)
			if err != nil {
				return "", err
			}
			vals[j] = s
		}
		rowSQL[i] = "(" + strings.Join(vals, ", ") + ")"
	}

	srcCols := make([]string, len(q.Columns))
	srcRefs := make([]string, len(q.Columns))
	for i, col := range q.Columns {
		srcCols[i] = d.QuoteIdent(col)
		srcRefs[i] = "src." + d.QuoteIdent(col)
	}

	conflict := q.OnConflict
	onParts := make([]string, len(conflict.Columns))
	for i, col := range conflict.Columns {
		ident := d.QuoteIdent(col)
		onParts[i] = "tgt." + ident + " = src." + ident
	}
	if len(onParts) == 0 {
		return "", errUnsupportedNode("MERGE upsert requires at least one conflict column")
	}

	var b strings.Builder
	b.WriteString("MERGE INTO " + d.QuoteIdent(q.Into) + " AS tgt USING (VALUES ")
	b.WriteString(strings.Join(rowSQL, ", "))
	b.WriteString(") AS src (" + strings.Join(srcCols, ", ") + ")")
	b.WriteString(" ON " + strings.Join(onParts, " AND "))

	if conflict.Action == expr.ConflictDoUpdate {
		keys := make([]string, 0, len(conflict.Updates))
		for k := range conflict.Updates {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		assigns := make([]string, 0, len(keys))
		for _, k := range keys {
			s, err := compileOperand(c, conflict.Updates[k])
			if err != nil {
				return "", err
			}
			assigns = append(assigns, d.QuoteIdent(k)+" = "+s)
		}
		b.WriteString(" WHEN MATCHED THEN UPDATE SET " + strings.Join(assigns, ", "))
	}

	b.WriteString(" WHEN NOT MATCHED THEN INSERT (" + strings.Join(srcCols, ", ") + ") VALUES (" + strings.Join(srcRefs, ", ") + ")")

	if len(q.Returning) > 0 {
		refs := make([]string, len(q.Returning))
		prefix := d.outputPrefix("INSERT")
		for i, col := range q.Returning {
			refs[i] = prefix + "." + d.QuoteIdent(col)
		}
		b.WriteString(" OUTPUT " + strings.Join(refs, ", "))
	}
	b.WriteString(";")

	return b.String(), nil
}

// RenderJSONPath renders JSON_VALUE(col, '$.a.b').
func (sqlServerDialect) RenderJSONPath(c *Compiler, col expr.Column, path []string) (string, error) {
	if len(path) == 0 {
		return "", errUnsupportedNode("JSON path requires at least one segment")
	}
	base := c.QuoteQualified(col.Table, col.Name)
	return fmt.Sprintf("JSON_VALUE(%s, '$.%s')", base, strings.Join(path, ".")), nil
}
