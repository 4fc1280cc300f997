package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sqlkit/schema"
)

// testSchema builds a small, bootstrapped users/posts/tags registry shared
// by this package's tests.
func testSchema(t *testing.T) (users, posts, tags *schema.Table) {
	t.Helper()
	reg := schema.NewRegistry()

	var postTags *schema.Table
	var err error
	users, err = reg.DefineTable("users", []schema.Column{
		schema.IntColumn("id").PrimaryKey().AutoIncrement(),
		schema.VarcharColumn("name", 200).NotNull(),
		schema.VarcharColumn("email", 320).NotNull(),
	}, schema.WithRelations(map[string]schema.Relation{
		"posts": schema.NewHasMany(schema.LazyRef("posts", func() *schema.Table { return posts }), "user_id"),
	}))
	require.NoError(t, err)

	posts, err = reg.DefineTable("posts", []schema.Column{
		schema.IntColumn("id").PrimaryKey().AutoIncrement(),
		schema.IntColumn("user_id").NotNull(),
		schema.VarcharColumn("title", 200).NotNull(),
	}, schema.WithRelations(map[string]schema.Relation{
		"author": schema.NewBelongsTo(schema.Ref(users), "user_id"),
		"tags": schema.NewBelongsToMany(
			schema.LazyRef("tags", func() *schema.Table { return tags }),
			schema.LazyRef("post_tags", func() *schema.Table { return postTags }),
			"post_id", "tag_id",
		),
	}))
	require.NoError(t, err)

	tags, err = reg.DefineTable("tags", []schema.Column{
		schema.IntColumn("id").PrimaryKey().AutoIncrement(),
		schema.VarcharColumn("label", 50).NotNull(),
	})
	require.NoError(t, err)

	postTags, err = reg.DefineTable("post_tags", []schema.Column{
		schema.IntColumn("post_id").PrimaryKey(),
		schema.IntColumn("tag_id").PrimaryKey(),
	})
	require.NoError(t, err)

	require.NoError(t, reg.Bootstrap())
	return users, posts, tags
}
