package dialect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sqlkit/sqlkit/expr"
)

type mysqlDialect struct{}

func (mysqlDialect) Kind() Kind { return MySQL }

func (mysqlDialect) Capabilities() Capability {
	return CapTransactions | CapInsertID
}

func (mysqlDialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (mysqlDialect) PlaceholderAt(index int) string {
	return "?"
}

func (mysqlDialect) SupportsSetOp(op expr.SetOp) bool {
	switch op {
	case expr.Union, expr.UnionAll:
		return true
	}
	// MySQL added INTERSECT/EXCEPT only in 8.0.31; the driver stack this
	// module targets predates that, so neither is advertised here.
	return false
}

func (mysqlDialect) SupportsJoinKind(k expr.JoinKind) bool {
	switch k {
	case expr.InnerJoin, expr.LeftJoin, expr.RightJoin, expr.CrossJoin:
		return true
	}
	return false
}

func (mysqlDialect) RenderFunction(c *Compiler, fn expr.Function) (string, error) {
	switch fn.Name {
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
		return fmt.Sprintf("INSTR(%s, %s)", str, sub), nil

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

func (mysqlDialect) SelectPrefix(q *expr.SelectQuery) (string, error) {
	return "", nil
}

func (mysqlDialect) SelectSuffix(q *expr.SelectQuery, c *Compiler) (string, error) {
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
		// MySQL has no bare OFFSET without LIMIT; the maximum row count
		// stands in for "no limit".
		b.WriteString("LIMIT 18446744073709551615")
	}
	if q.Offset != nil {
		b.WriteString(" OFFSET " + c.Bind(*q.Offset))
	}
	return b.String(), nil
}

func (mysqlDialect) RenderReturning(kindName string, cols []string) (string, string, error) {
	return "", "", errFeatureUnsupported("RETURNING")
}

func (d mysqlDialect) RenderUpsert(c *Compiler, table string, insertCols []string, conflict *expr.OnConflict) (string, error) {
	var b strings.Builder
	b.WriteString("ON DUPLICATE KEY UPDATE ")

	switch conflict.Action {
	case expr.ConflictDoNothing:
		// MySQL has no clause-level no-op upsert; reassigning the first
		// column to itself is the idiomatic way to make the statement a
		// no-op on a duplicate key without changing any data.
		if len(insertCols) == 0 {
			return "", errUnsupportedNode("DO NOTHING upsert requires at least one insert column")
		}
		col := d.QuoteIdent(insertCols[0])
		b.WriteString(col + " = " + col)

	case expr.ConflictDoUpdate:
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

// RenderJSONPath renders JSON_UNQUOTE(JSON_EXTRACT(col, '$.a.b')).
func (mysqlDialect) RenderJSONPath(c *Compiler, col expr.Column, path []string) (string, error) {
	if len(path) == 0 {
		return "", errUnsupportedNode("JSON path requires at least one segment")
	}
	base := c.QuoteQualified(col.Table, col.Name)
	return fmt.Sprintf("JSON_UNQUOTE(JSON_EXTRACT(%s, '$.%s'))", base, strings.Join(path, ".")), nil
}
