package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopologicalSortOrdersDependenciesFirst(t *testing.T) {
	deps := map[string][]string{
		"posts":   {"users"},
		"users":   nil,
		"comments": {"posts", "users"},
	}
	sorted := TopologicalSort([]string{"comments", "posts", "users"}, deps, func(s string) string { return s })

	index := map[string]int{}
	for i, name := range sorted {
		index[name] = i
	}
	assert.Less(t, index["users"], index["posts"])
	assert.Less(t, index["posts"], index["comments"])
}

func TestTopologicalSortDetectsCycle(t *testing.T) {
	deps := map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}
	sorted := TopologicalSort([]string{"a", "b"}, deps, func(s string) string { return s })
	assert.Empty(t, sorted)
}

func TestInsertOrderFollowsForeignKeys(t *testing.T) {
	reg := NewRegistry()
	users, err := reg.DefineTable("users", []Column{IntColumn("id").PrimaryKey()})
	assert.NoError(t, err)
	_, err = reg.DefineTable("posts", []Column{
		IntColumn("id").PrimaryKey(),
		IntColumn("user_id").References("users", "id"),
	})
	assert.NoError(t, err)
	_ = users

	order := InsertOrder(reg.Tables())
	index := map[string]int{}
	for i, name := range order {
		index[name] = i
	}
	assert.Less(t, index["users"], index["posts"])
}

func TestInsertOrderFallsBackOnCycle(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.DefineTable("a", []Column{
		IntColumn("id").PrimaryKey(),
		IntColumn("b_id").References("b", "id"),
	})
	assert.NoError(t, err)
	_, err = reg.DefineTable("b", []Column{
		IntColumn("id").PrimaryKey(),
		IntColumn("a_id").References("a", "id"),
	})
	assert.NoError(t, err)

	order := InsertOrder(reg.Tables())
	assert.Equal(t, []string{"a", "b"}, order, "falls back to declaration order when a cycle prevents a strict sort")
}
