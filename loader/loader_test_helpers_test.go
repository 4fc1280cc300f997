package loader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sqlkit/dialect"
	"github.com/sqlkit/sqlkit/hydrate"
	"github.com/sqlkit/sqlkit/schema"
)

// loaderSchema builds a bootstrapped users/posts/tags/post_tags registry
// covering HasMany, BelongsTo, and BelongsToMany, mirroring the query
// package's shared fixture.
func loaderSchema(t *testing.T) (users, posts, tags *schema.Table) {
	t.Helper()
	reg := schema.NewRegistry()

	var postTags *schema.Table
	var err error
	users, err = reg.DefineTable("users", []schema.Column{
		schema.IntColumn("id").PrimaryKey(),
		schema.VarcharColumn("name", 200).NotNull(),
	}, schema.WithRelations(map[string]schema.Relation{
		"posts": schema.NewHasMany(schema.LazyRef("posts", func() *schema.Table { return posts }), "user_id"),
	}))
	require.NoError(t, err)

	posts, err = reg.DefineTable("posts", []schema.Column{
		schema.IntColumn("id").PrimaryKey(),
		schema.IntColumn("user_id"),
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
		schema.IntColumn("id").PrimaryKey(),
		schema.VarcharColumn("label", 50).NotNull(),
	})
	require.NoError(t, err)

	postTags, err = reg.DefineTable("post_tags", []schema.Column{
		schema.IntColumn("post_id").PrimaryKey(),
		schema.IntColumn("tag_id").PrimaryKey(),
		schema.VarcharColumn("tagged_at", 32),
	})
	require.NoError(t, err)

	require.NoError(t, reg.Bootstrap())
	return users, posts, tags
}

// fakeSession is a scripted query.Session: it dispatches RunSelect calls by
// matching a substring of the compiled SQL against a table, independent of
// call order, since loader issues one SELECT per distinct relation/pivot
// fetch rather than in a fixed sequence.
type fakeSession struct {
	byTableHint map[string][]hydrate.Row
}

func newFakeSession() *fakeSession {
	return &fakeSession{byTableHint: map[string][]hydrate.Row{}}
}

func (s *fakeSession) stub(tableHint string, rows []hydrate.Row) {
	s.byTableHint[tableHint] = rows
}

func (s *fakeSession) Dialect() dialect.Dialect { return dialect.ForKind(dialect.Postgres) }

func (s *fakeSession) RunSelect(sql string, params []any) ([]hydrate.Row, error) {
	for hint, rows := range s.byTableHint {
		if strings.Contains(sql, hint) {
			return rows, nil
		}
	}
	return nil, nil
}
