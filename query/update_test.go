package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sqlkit/dialect"
	"github.com/sqlkit/sqlkit/expr"
)

func TestUpdateSetAndWhere(t *testing.T) {
	users, _, _ := testSchema(t)
	sql, params, err := Update(users).
		Set("name", "ada2").
		Where(expr.Eq(expr.Col("users", "id"), 1)).
		Compile(dialect.ForKind(dialect.Postgres))
	require.NoError(t, err)
	assert.Contains(t, sql, `UPDATE "users" SET "name" = $1 WHERE "users"."id" = $2`)
	assert.Equal(t, []any{"ada2", 1}, params)
}

func TestUpdateSetOrderIsFirstSeen(t *testing.T) {
	users, _, _ := testSchema(t)
	sql, _, err := Update(users).
		Set("email", "a@x.com").
		Set("name", "ada2").
		Where(expr.Eq(expr.Col("users", "id"), 1)).
		Compile(dialect.ForKind(dialect.Postgres))
	require.NoError(t, err)
	assert.Contains(t, sql, `SET "email" = $1, "name" = $2`)
}

func TestUpdateSetOverwritesSameColumnKeepsPosition(t *testing.T) {
	users, _, _ := testSchema(t)
	sql, params, err := Update(users).
		Set("email", "first@x.com").
		Set("name", "ada").
		Set("email", "second@x.com").
		Where(expr.Eq(expr.Col("users", "id"), 1)).
		Compile(dialect.ForKind(dialect.Postgres))
	require.NoError(t, err)
	assert.Contains(t, sql, `SET "email" = $1, "name" = $2`)
	assert.Equal(t, []any{"second@x.com", "ada", 1}, params)
}

func TestUpdateUnknownColumnErrors(t *testing.T) {
	users, _, _ := testSchema(t)
	b := Update(users).Set("bogus", "x")
	require.Error(t, b.Err())
}

func TestUpdateInvalidValueErrors(t *testing.T) {
	users, _, _ := testSchema(t)
	b := Update(users).Set("name", struct{}{})
	require.Error(t, b.Err())
}

func TestUpdateNoSetAssignmentsErrors(t *testing.T) {
	users, _, _ := testSchema(t)
	_, _, err := Update(users).Where(expr.Eq(expr.Col("users", "id"), 1)).Compile(dialect.ForKind(dialect.Postgres))
	require.Error(t, err)
}

func TestUpdateWithoutWhereRequiresAllowUnconstrained(t *testing.T) {
	users, _, _ := testSchema(t)
	_, _, err := Update(users).Set("name", "ada2").Compile(dialect.ForKind(dialect.Postgres))
	require.Error(t, err)

	sql, _, err := Update(users).Set("name", "ada2").AllowUnconstrained().Compile(dialect.ForKind(dialect.Postgres))
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
}

func TestUpdateReturning(t *testing.T) {
	users, _, _ := testSchema(t)
	sql, _, err := Update(users).
		Set("name", "ada2").
		Where(expr.Eq(expr.Col("users", "id"), 1)).
		Returning("id", "name").
		Compile(dialect.ForKind(dialect.Postgres))
	require.NoError(t, err)
	assert.Contains(t, sql, `RETURNING "id", "name"`)
}
