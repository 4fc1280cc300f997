package dialect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sqlkit/sqlkit/expr"
)

type sqliteDialect struct{}

func (sqliteDialect) Kind() Kind { return SQLite }

func (sqliteDialect) Capabilities() Capability {
	return CapTransactions | CapReturning | CapInsertID
}

func (sqliteDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (sqliteDialect) PlaceholderAt(index int) string {
	return "?"
}

func (sqliteDialect) SupportsSetOp(op expr.SetOp) bool {
	switch op {
	case expr.Union, expr.UnionAll, expr.Intersect, expr.Except:
		return true
	}
	return false
}

func (sqliteDialect) SupportsJoinKind(k expr.JoinKind) bool {
	switch k {
	case expr.InnerJoin, expr.LeftJoin, expr.CrossJoin:
		return true
	}
	return false
}

func (sqliteDialect) RenderFunction(c *Compiler, fn expr.Function) (string, error) {
	switch fn.Name {
	case "SUBSTRING":
		if len(fn.Args) != 3 {
			return "", errUnsupportedNode("SUBSTRING requires (string, start, length)")
		}
		return callFunction(c, "SUBSTR", fn.Args)

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
		return fmt.Sprintf("INSTR(%s, %s)", str, sub), nil

	case "CONCAT":
		parts, err := compileArgs(c, fn.Args)
		if err != nil {
			return "", err
		}
		return "(" + strings.Join(parts, " || ") + ")", nil

	default:
		name, ok := commonFunctionNames[fn.Name]
		if !ok {
			name = fn.Name
		}
		return callFunction(c, name, fn.Args)
	}
}

func (sqliteDialect) SelectPrefix(q *expr.SelectQuery) (string, error) {
	return "", nil
}

func (sqliteDialect) SelectSuffix(q *expr.SelectQuery, c *Compiler) (string, error) {
	var b strings.Builder
	switch {
	case q.LimitExpr != nil:
		s, err := compileOperand(c, q.LimitExpr)
		if err != nil {
			return "", err
		}
		b.WriteString("LIMIT " + s)
	case q.Limit != nil:
		b.WriteString("LIMIT " + c.Bind(*q.Limit))
	case q.Offset != nil:
		// SQLite requires LIMIT before OFFSET; -1 means "unlimited".
		b.WriteString("LIMIT -1")
	}
	if q.Offset != nil {
		b.WriteString(" OFFSET " + c.Bind(*q.Offset))
	}
	return b.String(), nil
}

func (sqliteDialect) RenderReturning(kindName string, cols []string) (string, string, error) {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = sqliteDialect{}.QuoteIdent(col)
	}
	return "RETURNING " + strings.Join(quoted, ", "), "end", nil
}

func (d sqliteDialect) RenderUpsert(c *Compiler, table string, insertCols []string, conflict *expr.OnConflict) (string, error) {
	var b strings.Builder
	b.WriteString("ON CONFLICT")
	if len(conflict.Columns) > 0 {
		cols := make([]string, len(conflict.Columns))
		for i, col := range conflict.Columns {
			cols[i] = d.QuoteIdent(col)
		}
		b.WriteString(" (" + strings.Join(cols, ", ") + ")")
	}

	switch conflict.Action {
	case expr.ConflictDoNothing:
		b.WriteString(" DO NOTHING")
	case expr.ConflictDoUpdate:
		b.WriteString(" DO UPDATE SET ")
		keys := make([]string, 0, len(conflict.Updates))
		for k := range conflict.Updates {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		assigns := make([]string, len(keys))
		for i, k := range keys {
			s, err := compileOperand(c, conflict.Updates[k])
			if err != nil {
				return "", err
			}
			assigns[i] = d.QuoteIdent(k) + " = " + s
		}
		b.WriteString(strings.Join(assigns, ", "))
	default:
		return "", errUnsupportedNode("unknown ConflictAction")
	}
	return b.String(), nil
}

// RenderJSONPath renders json_extract(col, '$.a.b').
func (sqliteDialect) RenderJSONPath(c *Compiler, col expr.Column, path []string) (string, error) {
	if len(path) == 0 {
		return "", errUnsupportedNode("JSON path requires at least one segment")
	}
	base := c.QuoteQualified(col.Table, col.Name)
	return fmt.Sprintf("json_extract(%s, '$.%s')", base, strings.Join(path, ".")), nil
}
