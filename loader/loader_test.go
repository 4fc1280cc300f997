package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sqlkit/hydrate"
)

func TestLoadHasManyAssignsMatchesByForeignKey(t *testing.T) {
	users, posts, _ := loaderSchema(t)
	sess := newFakeSession()
	sess.stub(`"posts"`, []hydrate.Row{
		{"id": 10, "user_id": 1, "title": "first"},
		{"id": 11, "user_id": 1, "title": "second"},
		{"id": 12, "user_id": 2, "title": "other"},
	})

	rows := []hydrate.Row{{"id": 1, "name": "ada"}, {"id": 2, "name": "grace"}}
	b := New(sess)
	plan := &hydrate.RelationPlan{Name: "posts", Arity: hydrate.Multiple}

	require.NoError(t, b.Load(context.Background(), users, rows, plan))

	adaPosts := rows[0]["posts"].([]hydrate.Row)
	require.Len(t, adaPosts, 2)
	gracePosts := rows[1]["posts"].([]hydrate.Row)
	require.Len(t, gracePosts, 1)
}

func TestLoadHasManySkipsRowsWithoutLocalKey(t *testing.T) {
	users, _, _ := loaderSchema(t)
	sess := newFakeSession()
	rows := []hydrate.Row{{"name": "no-id"}}
	b := New(sess)
	plan := &hydrate.RelationPlan{Name: "posts", Arity: hydrate.Multiple}

	require.NoError(t, b.Load(context.Background(), users, rows, plan))
	_, has := rows[0]["posts"]
	assert.False(t, has)
}

func TestLoadBelongsToAssignsSingleMatch(t *testing.T) {
	_, posts, _ := loaderSchema(t)
	sess := newFakeSession()
	sess.stub(`"users"`, []hydrate.Row{
		{"id": 1, "name": "ada"},
	})

	rows := []hydrate.Row{{"id": 10, "user_id": 1, "title": "first"}}
	b := New(sess)
	plan := &hydrate.RelationPlan{Name: "author", Arity: hydrate.Single}

	require.NoError(t, b.Load(context.Background(), posts, rows, plan))
	author := rows[0]["author"].(hydrate.Row)
	assert.Equal(t, "ada", author["name"])
}

func TestLoadBelongsToNilForeignKeyAssignsNil(t *testing.T) {
	_, posts, _ := loaderSchema(t)
	sess := newFakeSession()
	rows := []hydrate.Row{{"id": 10, "user_id": nil, "title": "orphaned"}}
	b := New(sess)
	plan := &hydrate.RelationPlan{Name: "author", Arity: hydrate.Single}

	require.NoError(t, b.Load(context.Background(), posts, rows, plan))
	assert.Nil(t, rows[0]["author"])
}

func TestLoadBelongsToBackfillsMissingForeignKeyFromPK(t *testing.T) {
	_, posts, _ := loaderSchema(t)
	sess := newFakeSession()
	sess.stub(`"posts"`, []hydrate.Row{{"id": 10, "user_id": 1}})
	sess.stub(`"users"`, []hydrate.Row{{"id": 1, "name": "ada"}})

	rows := []hydrate.Row{{"id": 10, "title": "first"}} // no user_id projected
	b := New(sess)
	plan := &hydrate.RelationPlan{Name: "author", Arity: hydrate.Single}

	require.NoError(t, b.Load(context.Background(), posts, rows, plan))
	author := rows[0]["author"].(hydrate.Row)
	assert.Equal(t, "ada", author["name"])
}

func TestLoadBelongsToManyMergesPivotColumns(t *testing.T) {
	_, posts, _ := loaderSchema(t)
	sess := newFakeSession()
	sess.stub(`"post_tags"`, []hydrate.Row{
		{"post_id": 10, "tag_id": 5, "tagged_at": "2026-01-01"},
	})
	sess.stub(`"tags"`, []hydrate.Row{
		{"id": 5, "label": "go"},
	})

	rows := []hydrate.Row{{"id": 10, "title": "first"}}
	b := New(sess)
	plan := &hydrate.RelationPlan{
		Name: "tags", Arity: hydrate.Multiple,
		HasPivot: true, PivotMerge: true, PivotColumns: []string{"tagged_at"},
	}

	require.NoError(t, b.Load(context.Background(), posts, rows, plan))
	tags := rows[0]["tags"].([]hydrate.Row)
	require.Len(t, tags, 1)
	assert.Equal(t, "go", tags[0]["label"])
	assert.Equal(t, "2026-01-01", tags[0]["tagged_at"])
}

func TestLoadUnknownRelationErrors(t *testing.T) {
	users, _, _ := loaderSchema(t)
	b := New(newFakeSession())
	err := b.Load(context.Background(), users, []hydrate.Row{{"id": 1}}, &hydrate.RelationPlan{Name: "nope"})
	require.Error(t, err)
}

func TestLoadEmptyRowsIsNoOp(t *testing.T) {
	users, _, _ := loaderSchema(t)
	b := New(newFakeSession())
	err := b.Load(context.Background(), users, nil, &hydrate.RelationPlan{Name: "posts"})
	require.NoError(t, err)
}

func TestLoadAsyncResolvesFuture(t *testing.T) {
	users, _, _ := loaderSchema(t)
	sess := newFakeSession()
	sess.stub(`"posts"`, []hydrate.Row{{"id": 10, "user_id": 1, "title": "first"}})
	rows := []hydrate.Row{{"id": 1, "name": "ada"}}
	b := New(sess)

	fut := b.LoadAsync(context.Background(), users, rows, &hydrate.RelationPlan{Name: "posts", Arity: hydrate.Multiple})
	_, err := fut.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows[0]["posts"].([]hydrate.Row), 1)
}

func TestCollectionLoadRunsAllRequests(t *testing.T) {
	users, posts, _ := loaderSchema(t)
	sess := newFakeSession()
	sess.stub(`"posts"`, []hydrate.Row{{"id": 10, "user_id": 1, "title": "first"}})
	sess.stub(`"users"`, []hydrate.Row{{"id": 1, "name": "ada"}})

	userRows := []hydrate.Row{{"id": 1, "name": "ada"}}
	postRows := []hydrate.Row{{"id": 10, "user_id": 1, "title": "first"}}

	b := New(sess)
	c := NewCollection(b)
	err := c.Load(context.Background(), []Request{
		{Table: users, Rows: userRows, Plan: &hydrate.RelationPlan{Name: "posts", Arity: hydrate.Multiple}},
		{Table: posts, Rows: postRows, Plan: &hydrate.RelationPlan{Name: "author", Arity: hydrate.Single}},
	})
	require.NoError(t, err)
	assert.Len(t, userRows[0]["posts"].([]hydrate.Row), 1)
	assert.Equal(t, "ada", postRows[0]["author"].(hydrate.Row)["name"])
}

func TestCollectionLoadAllSkipsWhenNoLazyRelations(t *testing.T) {
	users, _, _ := loaderSchema(t)
	b := New(newFakeSession())
	c := NewCollection(b)
	err := c.LoadAll(context.Background(), users, nil, &hydrate.Plan{})
	require.NoError(t, err)
}

func TestFutureGetBeforeAndAfterResolveObserveSameValue(t *testing.T) {
	fut := NewFuture[int]()
	go fut.Resolve(42, nil)

	v, err := fut.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v2, err := fut.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v2)
}

func TestFutureSecondResolveIsIgnored(t *testing.T) {
	fut := NewFuture[int]()
	fut.Resolve(1, nil)
	fut.Resolve(2, nil)

	v, err := fut.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFutureGetRespectsContextCancellation(t *testing.T) {
	fut := NewFuture[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fut.Get(ctx)
	require.Error(t, err)
}
