package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sqlkit/expr"
	"github.com/sqlkit/sqlkit/query"
	"github.com/sqlkit/sqlkit/schema"
)

func relationTestTables(t *testing.T) (*schema.Table, *schema.Table) {
	t.Helper()
	reg := schema.NewRegistry()

	posts, err := reg.DefineTable("posts", []schema.Column{
		schema.IntColumn("id").PrimaryKey(),
		schema.VarcharColumn("title", 200),
	})
	require.NoError(t, err)

	comments, err := reg.DefineTable("comments", []schema.Column{
		schema.IntColumn("id").PrimaryKey(),
		schema.IntColumn("post_id").NotNull(),
		schema.BooleanColumn("published"),
	})
	require.NoError(t, err)

	_, err = reg.DefineTable("posts_with_comments", []schema.Column{
		schema.IntColumn("id").PrimaryKey(),
	}, schema.WithRelations(map[string]schema.Relation{
		"comments": schema.NewHasMany(schema.Ref(comments), "post_id"),
	}))
	require.NoError(t, err)

	require.NoError(t, reg.Bootstrap())
	return posts, reg.Table("posts_with_comments")
}

func TestApplyRelationSomeUsesWhereHas(t *testing.T) {
	_, withComments := relationTestTables(t)
	b := query.Select(withComments)
	sub := expr.Eq(expr.Col("comments", "published"), true)

	nb, err := ApplyRelation(b, "comments", Some, sub)
	require.NoError(t, err)
	assert.NotNil(t, nb)
	require.NoError(t, nb.Err())
}

func TestApplyRelationSomeRequiresSubFilter(t *testing.T) {
	_, withComments := relationTestTables(t)
	b := query.Select(withComments)
	_, err := ApplyRelation(b, "comments", Some)
	require.Error(t, err)
}

func TestApplyRelationIsEmptyNeedsNoSubFilter(t *testing.T) {
	_, withComments := relationTestTables(t)
	b := query.Select(withComments)
	nb, err := ApplyRelation(b, "comments", IsEmpty)
	require.NoError(t, err)
	require.NoError(t, nb.Err())
}

func TestApplyRelationEveryUsesWhereEvery(t *testing.T) {
	_, withComments := relationTestTables(t)
	b := query.Select(withComments)
	sub := expr.Eq(expr.Col("comments", "published"), true)
	nb, err := ApplyRelation(b, "comments", Every, sub)
	require.NoError(t, err)
	require.NoError(t, nb.Err())
}

func TestApplyRelationUnknownOperator(t *testing.T) {
	_, withComments := relationTestTables(t)
	b := query.Select(withComments)
	_, err := ApplyRelation(b, "comments", RelationOp("bogus"))
	require.Error(t, err)
}
