package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnSetPreservesInsertionOrder(t *testing.T) {
	s := newColumnSet()
	s.add(IntColumn("id"))
	s.add(VarcharColumn("name", 10))
	s.add(IntColumn("age"))

	assert.Equal(t, []string{"id", "name", "age"}, s.Names())
	assert.Equal(t, 3, s.Len())
}

func TestColumnSetAddOverwriteKeepsPosition(t *testing.T) {
	s := newColumnSet()
	s.add(IntColumn("id"))
	s.add(VarcharColumn("name", 10))
	s.add(VarcharColumn("name", 20))

	assert.Equal(t, []string{"id", "name"}, s.Names())
	col, ok := s.Get("name")
	assert.True(t, ok)
	assert.Equal(t, 20, col.Length)
}

func TestColumnSetGetMissing(t *testing.T) {
	s := newColumnSet()
	_, ok := s.Get("nope")
	assert.False(t, ok)
}
