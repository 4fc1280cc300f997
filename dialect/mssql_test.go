package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sqlkit/expr"
)

func TestSQLServerTopWithoutOffset(t *testing.T) {
	limit := 5
	q := simpleSelect()
	q.Limit = &limit

	sql, _, err := CompileSelect(ForKind(SQLServer), q)
	require.NoError(t, err)
	assert.Contains(t, sql, "SELECT TOP 5")
}

func TestSQLServerOffsetRequiresOrderBy(t *testing.T) {
	offset := 5
	q := simpleSelect()
	q.Offset = &offset

	_, _, err := CompileSelect(ForKind(SQLServer), q)
	require.Error(t, err)
}

func TestSQLServerOffsetFetchWithOrderBy(t *testing.T) {
	limit, offset := 10, 20
	q := simpleSelect()
	q.Limit = &limit
	q.Offset = &offset
	q.OrderBy = []expr.OrderTerm{expr.Order(expr.Col("users", "id"), expr.Asc)}

	sql, params, err := CompileSelect(ForKind(SQLServer), q)
	require.NoError(t, err)
	assert.Contains(t, sql, "OFFSET @p2 ROWS FETCH NEXT @p3 ROWS ONLY")
	assert.Equal(t, []any{1, 20, 10}, params)
}

func TestSQLServerInsertOutputClause(t *testing.T) {
	q := &expr.InsertQuery{
		Into:      "users",
		Columns:   []string{"name"},
		Rows:      [][]expr.Operand{{expr.Literal{Value: "ada"}}},
		Returning: []string{"id"},
	}
	sql, _, err := CompileInsert(ForKind(SQLServer), q)
	require.NoError(t, err)
	assert.Contains(t, sql, "OUTPUT INSERTED.[id]")
}
