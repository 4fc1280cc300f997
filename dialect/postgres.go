package dialect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sqlkit/sqlkit/expr"
)

type postgresDialect struct{}

func (postgresDialect) Kind() Kind { return Postgres }

func (postgresDialect) Capabilities() Capability {
	return CapTransactions | CapReturning
}

func (postgresDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (postgresDialect) PlaceholderAt(index int) string {
	return "$" + strconv.Itoa(index)
}

func (postgresDialect) SupportsSetOp(op expr.SetOp) bool {
	switch op {
	case expr.Union, expr.UnionAll, expr.Intersect, expr.Except:
		return true
	}
	return false
}

func (postgresDialect) SupportsJoinKind(k expr.JoinKind) bool {
	switch k {
	case expr.InnerJoin, expr.LeftJoin, expr.RightJoin, expr.FullJoin, expr.CrossJoin:
		return true
	}
	return false
}

func (postgresDialect) RenderFunction(c *Compiler, fn expr.Function) (string, error) {
	switch fn.Name {
	case "SUBSTRING":
		if len(fn.Args) != 3 {
			return "", errUnsupportedNode("SUBSTRING requires (string, start, length)")
		}
		str, err := compileOperand(c, fn.Args[0])
		if err != nil {
			return "", err
		}
		start, err := compileOperand(c, fn.Args[1])
		if err != nil {
			return "", err
		}
		length, err := compileOperand(c, fn.Args[2])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("SUBSTRING(%s FROM %s FOR %s)", str, start, length), nil

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
		return fmt.Sprintf("POSITION(%s IN %s)", sub, str), nil

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

func (postgresDialect) SelectPrefix(q *expr.SelectQuery) (string, error) {
	return "", nil
}

func (postgresDialect) SelectSuffix(q *expr.SelectQuery, c *Compiler) (string, error) {
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
	}
	if q.Offset != nil {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("OFFSET " + c.Bind(*q.Offset))
	}
	return b.String(), nil
}

func (postgresDialect) RenderReturning(kindName string, cols []string) (string, string, error) {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = postgresDialect{}.QuoteIdent(col)
	}
	return "RETURNING " + strings.Join(quoted, ", "), "end", nil
}

func (d postgresDialect) RenderUpsert(c *Compiler, table string, insertCols []string, conflict *expr.OnConflict) (string, error) {
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

// RenderJSONPath chains -> for every intermediate segment and ->> for the
// last, matching Postgres's jsonb text-extraction operators.
func (d postgresDialect) RenderJSONPath(c *Compiler, col expr.Column, path []string) (string, error) {
	if len(path) == 0 {
		return "", errUnsupportedNode("JSON path requires at least one segment")
	}
	base := c.QuoteQualified(col.Table, col.Name)
	var b strings.Builder
	b.WriteString(base)
	for i, seg := range path {
		op := "->"
		if i == len(path)-1 {
			op = "->>"
		}
		b.WriteString(fmt.Sprintf("%s'%s'", op, strings.ReplaceAll(seg, "'", "''")))
	}
	return b.String(), nil
}
