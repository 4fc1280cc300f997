package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildUsersPosts(t *testing.T) (*Registry, *Table, *Table) {
	t.Helper()
	reg := NewRegistry()
	users, err := reg.DefineTable("users", []Column{IntColumn("id").PrimaryKey()})
	require.NoError(t, err)
	posts, err := reg.DefineTable("posts", []Column{
		IntColumn("id").PrimaryKey(),
		IntColumn("user_id").NotNull(),
	}, WithRelations(map[string]Relation{
		"author": NewBelongsTo(Ref(users), "user_id"),
	}))
	require.NoError(t, err)
	return reg, users, posts
}

func TestBelongsToDefaultLocalKey(t *testing.T) {
	reg, users, posts := buildUsersPosts(t)
	require.NoError(t, reg.Bootstrap())

	rel, ok := posts.Relation("author")
	require.True(t, ok)
	assert.Equal(t, "id", rel.LocalKey, "BelongsTo defaults LocalKey to the target's primary key")
	assert.Same(t, users, rel.Target.Resolved())
}

func TestHasManyRequiresForeignKey(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.DefineTable("users", []Column{IntColumn("id").PrimaryKey()})
	require.NoError(t, err)
	users := reg.Table("users")
	_, err = reg.DefineTable("posts", []Column{IntColumn("id").PrimaryKey()}, WithRelations(map[string]Relation{
		"bad": NewHasMany(Ref(users), ""),
	}))
	require.NoError(t, err)

	err = reg.Bootstrap()
	require.Error(t, err)
	var schemaErr *Error
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, InvalidRelation, schemaErr.Kind)
}

func TestBelongsToManyDefaultsPivotPrimaryKey(t *testing.T) {
	reg := NewRegistry()
	posts, err := reg.DefineTable("posts", []Column{IntColumn("id").PrimaryKey()})
	require.NoError(t, err)
	tags, err := reg.DefineTable("tags", []Column{IntColumn("id").PrimaryKey()})
	require.NoError(t, err)
	pivot, err := reg.DefineTable("post_tags", []Column{
		IntColumn("post_id").PrimaryKey(),
		IntColumn("tag_id").PrimaryKey(),
	})
	require.NoError(t, err)

	_, err = reg.DefineTable("annotated_posts", []Column{IntColumn("id").PrimaryKey()}, WithRelations(map[string]Relation{
		"tags": NewBelongsToMany(Ref(tags), Ref(pivot), "post_id", "tag_id"),
	}))
	require.NoError(t, err)
	_ = posts

	require.NoError(t, reg.Bootstrap())
	rel, ok := reg.Table("annotated_posts").Relation("tags")
	require.True(t, ok)
	assert.Equal(t, []string{"post_id", "tag_id"}, rel.PivotPrimaryKey)
}

func TestUnresolvedTargetError(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.DefineTable("posts", []Column{IntColumn("id").PrimaryKey()}, WithRelations(map[string]Relation{
		"author": NewBelongsTo(LazyRef("ghost", func() *Table { return nil }), "user_id"),
	}))
	require.NoError(t, err)

	err = reg.Bootstrap()
	require.Error(t, err)
	var schemaErr *Error
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, UnresolvedTarget, schemaErr.Kind)
}

func TestRelationKindString(t *testing.T) {
	assert.Equal(t, "HasOne", HasOne.String())
	assert.Equal(t, "BelongsToMany", BelongsToMany.String())
	assert.Equal(t, "Unknown", RelationKind(99).String())
}

func TestRelationLazyMarksDeferredLoad(t *testing.T) {
	rel := NewHasMany(TableRef{}, "user_id").Lazy()
	assert.True(t, rel.IsLazy)
}
