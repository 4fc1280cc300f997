package hydrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReshapeFlatRowsNoRelations(t *testing.T) {
	rows := []Row{
		{"id": 1, "name": "ada"},
		{"id": 2, "name": "grace"},
	}
	plan := &Plan{RootPK: []string{"id"}}

	out, err := Reshape(rows, plan)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "ada", out[0]["name"])
	assert.Equal(t, "grace", out[1]["name"])
}

func TestReshapeHasManyDedupesByTargetPK(t *testing.T) {
	rows := []Row{
		{"id": 1, "name": "ada", "posts__id": 10, "posts__title": "first"},
		{"id": 1, "name": "ada", "posts__id": 11, "posts__title": "second"},
		{"id": 1, "name": "ada", "posts__id": 10, "posts__title": "first"},
	}
	plan := &Plan{
		RootPK: []string{"id"},
		Relations: []*RelationPlan{
			{Name: "posts", AliasPrefix: "posts__", Arity: Multiple, TargetPK: []string{"id"}},
		},
	}

	out, err := Reshape(rows, plan)
	require.NoError(t, err)
	require.Len(t, out, 1)
	posts := out[0]["posts"].([]Row)
	require.Len(t, posts, 2)
	assert.Equal(t, "first", posts[0]["title"])
	assert.Equal(t, "second", posts[1]["title"])
}

func TestReshapeHasOneNullMatchSkipped(t *testing.T) {
	rows := []Row{
		{"id": 1, "name": "ada", "profile__id": nil},
	}
	plan := &Plan{
		RootPK: []string{"id"},
		Relations: []*RelationPlan{
			{Name: "profile", AliasPrefix: "profile__", Arity: Single, TargetPK: []string{"id"}},
		},
	}

	out, err := Reshape(rows, plan)
	require.NoError(t, err)
	require.Len(t, out, 1)
	_, hasProfile := out[0]["profile"]
	assert.False(t, hasProfile)
}

func TestReshapeNestedIncludeRecurses(t *testing.T) {
	rows := []Row{
		{
			"id": 1, "name": "ada",
			"posts__id": 10, "posts__title": "first",
			"posts__comments__id": 100, "posts__comments__body": "nice",
		},
	}
	plan := &Plan{
		RootPK: []string{"id"},
		Relations: []*RelationPlan{
			{
				Name: "posts", AliasPrefix: "posts__", Arity: Multiple, TargetPK: []string{"id"},
				Children: []*RelationPlan{
					{Name: "comments", AliasPrefix: "posts__comments__", Arity: Multiple, TargetPK: []string{"id"}},
				},
			},
		},
	}

	out, err := Reshape(rows, plan)
	require.NoError(t, err)
	posts := out[0]["posts"].([]Row)
	require.Len(t, posts, 1)
	comments := posts[0]["comments"].([]Row)
	require.Len(t, comments, 1)
	assert.Equal(t, "nice", comments[0]["body"])
}

func TestReshapePivotMerge(t *testing.T) {
	rows := []Row{
		{
			"id": 1, "name": "ada",
			"tags__id": 5, "tags__label": "go",
			"tags__pivot__tagged_at": "2026-01-01",
		},
	}
	plan := &Plan{
		RootPK: []string{"id"},
		Relations: []*RelationPlan{
			{
				Name: "tags", AliasPrefix: "tags__", Arity: Multiple, TargetPK: []string{"id"},
				HasPivot: true, PivotPrefix: "tags__pivot__", PivotMerge: true,
			},
		},
	}

	out, err := Reshape(rows, plan)
	require.NoError(t, err)
	tags := out[0]["tags"].([]Row)
	require.Len(t, tags, 1)
	assert.Equal(t, "2026-01-01", tags[0]["tagged_at"])
	_, hasPivotKey := tags[0]["_pivot"]
	assert.False(t, hasPivotKey)
}

func TestReshapePivotNonMergeAttachesUnderscorePivot(t *testing.T) {
	rows := []Row{
		{
			"id": 1,
			"tags__id": 5,
			"tags__pivot__tagged_at": "2026-01-01",
		},
	}
	plan := &Plan{
		RootPK: []string{"id"},
		Relations: []*RelationPlan{
			{
				Name: "tags", AliasPrefix: "tags__", Arity: Multiple, TargetPK: []string{"id"},
				HasPivot: true, PivotPrefix: "tags__pivot__", PivotMerge: false,
			},
		},
	}

	out, err := Reshape(rows, plan)
	require.NoError(t, err)
	tags := out[0]["tags"].([]Row)
	pivot := tags[0]["_pivot"].(Row)
	assert.Equal(t, "2026-01-01", pivot["tagged_at"])
}

func TestReshapeMissingRootPrimaryKeyErrors(t *testing.T) {
	rows := []Row{{"name": "ada"}}
	plan := &Plan{RootPK: []string{"id"}}

	_, err := Reshape(rows, plan)
	require.Error(t, err)
	var hydErr *Error
	require.ErrorAs(t, err, &hydErr)
	assert.Equal(t, PrimaryKeyMissing, hydErr.Kind)
}

func TestReshapeEmptyPlanPrimaryKeyErrors(t *testing.T) {
	_, err := Reshape(nil, &Plan{})
	require.Error(t, err)
}

func TestReshapePreservesFirstSeenRootOrder(t *testing.T) {
	rows := []Row{
		{"id": 2, "name": "grace"},
		{"id": 1, "name": "ada"},
		{"id": 2, "name": "grace"},
	}
	plan := &Plan{RootPK: []string{"id"}}

	out, err := Reshape(rows, plan)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "grace", out[0]["name"])
	assert.Equal(t, "ada", out[1]["name"])
}
