package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlkit/sqlkit/dialect"
	"github.com/sqlkit/sqlkit/executor"
	"github.com/sqlkit/sqlkit/schema"
)

func TestNewRejectsUnbootstrappedRegistry(t *testing.T) {
	reg := schema.NewRegistry()
	_, err := New(reg, dialect.ForKind(dialect.Postgres), newFakeExecutor(0), nil)
	require.Error(t, err)
}

func TestNewSucceedsOnBootstrappedRegistry(t *testing.T) {
	reg, _ := usersTable(t)
	s, err := New(reg, dialect.ForKind(dialect.Postgres), newFakeExecutor(0), nil)
	require.NoError(t, err)
	assert.Equal(t, dialect.Postgres, s.Dialect().Kind())
}

func TestTrackManagedReturnsSameReferenceForSamePK(t *testing.T) {
	reg, users := usersTable(t)
	s, err := New(reg, dialect.ForKind(dialect.Postgres), newFakeExecutor(0), nil)
	require.NoError(t, err)

	e1, err := s.TrackManaged(users, map[string]any{"id": 1, "name": "ada"})
	require.NoError(t, err)
	e2, err := s.TrackManaged(users, map[string]any{"id": 1, "name": "ada-stale-copy"})
	require.NoError(t, err)
	assert.Same(t, e1, e2)
}

func TestTrackManagedMissingPrimaryKeyErrors(t *testing.T) {
	reg, users := usersTable(t)
	s, err := New(reg, dialect.ForKind(dialect.Postgres), newFakeExecutor(0), nil)
	require.NoError(t, err)

	_, err = s.TrackManaged(users, map[string]any{"name": "ada"})
	require.Error(t, err)
}

func TestTrackNewQueuesForFlush(t *testing.T) {
	reg, users := usersTable(t)
	s, err := New(reg, dialect.ForKind(dialect.Postgres), newFakeExecutor(0), nil)
	require.NoError(t, err)

	e := s.TrackNew(users, map[string]any{"name": "ada"})
	assert.Equal(t, New, e.State)
	assert.Len(t, s.pending, 1)
}

func TestMarkDirtyTransitionsManagedToDirtyAndQueues(t *testing.T) {
	reg, users := usersTable(t)
	s, err := New(reg, dialect.ForKind(dialect.Postgres), newFakeExecutor(0), nil)
	require.NoError(t, err)

	e, err := s.TrackManaged(users, map[string]any{"id": 1, "name": "ada"})
	require.NoError(t, err)

	require.NoError(t, s.MarkDirty(e, "name", "ada2"))
	assert.Equal(t, Dirty, e.State)
	assert.Equal(t, "ada2", e.Data["name"])
	assert.Len(t, s.pending, 1)
}

func TestMarkDirtyOnDetachedErrors(t *testing.T) {
	reg, users := usersTable(t)
	s, err := New(reg, dialect.ForKind(dialect.Postgres), newFakeExecutor(0), nil)
	require.NoError(t, err)

	e, err := s.TrackManaged(users, map[string]any{"id": 1, "name": "ada"})
	require.NoError(t, err)
	s.Detach(e)

	err = s.MarkDirty(e, "name", "ada2")
	require.Error(t, err)
}

func TestMarkRemovedOnNewEntityIsPkConflict(t *testing.T) {
	reg, users := usersTable(t)
	s, err := New(reg, dialect.ForKind(dialect.Postgres), newFakeExecutor(0), nil)
	require.NoError(t, err)

	e := s.TrackNew(users, map[string]any{"name": "ada"})
	err = s.MarkRemoved(e)
	require.Error(t, err)
}

func TestMarkRemovedQueuesManagedEntity(t *testing.T) {
	reg, users := usersTable(t)
	s, err := New(reg, dialect.ForKind(dialect.Postgres), newFakeExecutor(0), nil)
	require.NoError(t, err)

	e, err := s.TrackManaged(users, map[string]any{"id": 1, "name": "ada"})
	require.NoError(t, err)

	require.NoError(t, s.MarkRemoved(e))
	assert.Equal(t, Removed, e.State)
	assert.Len(t, s.pending, 1)
}

func TestFindByPKReturnsTrackedEntity(t *testing.T) {
	reg, users := usersTable(t)
	s, err := New(reg, dialect.ForKind(dialect.Postgres), newFakeExecutor(0), nil)
	require.NoError(t, err)

	e, err := s.TrackManaged(users, map[string]any{"id": 1, "name": "ada"})
	require.NoError(t, err)

	found, ok := s.FindByPK(users, 1)
	require.True(t, ok)
	assert.Same(t, e, found)

	_, ok = s.FindByPK(users, 2)
	assert.False(t, ok)
}

func TestDetachRemovesFromIdentityMap(t *testing.T) {
	reg, users := usersTable(t)
	s, err := New(reg, dialect.ForKind(dialect.Postgres), newFakeExecutor(0), nil)
	require.NoError(t, err)

	e, err := s.TrackManaged(users, map[string]any{"id": 1, "name": "ada"})
	require.NoError(t, err)

	s.Detach(e)
	assert.Equal(t, Detached, e.State)
	_, ok := s.FindByPK(users, 1)
	assert.False(t, ok)
}

func TestRunSelectConvertsPayloadToRows(t *testing.T) {
	reg, _ := usersTable(t)
	exec := newFakeExecutor(0, fakeResult{payload: executor.ExecutionPayload{
		Columns: []string{"id", "name"},
		Values:  [][]any{{1, "ada"}, {2, "grace"}},
	}})
	s, err := New(reg, dialect.ForKind(dialect.Postgres), exec, nil)
	require.NoError(t, err)

	rows, err := s.RunSelect("SELECT id, name FROM users;", nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ada", rows[0]["name"])
}

func TestRunExecReturnsAffectedRowCount(t *testing.T) {
	reg, _ := usersTable(t)
	affected := int64(3)
	exec := newFakeExecutor(0, fakeResult{payload: executor.ExecutionPayload{
		Meta: executor.ExecutionMeta{AffectedRows: &affected},
	}})
	s, err := New(reg, dialect.ForKind(dialect.Postgres), exec, nil)
	require.NoError(t, err)

	_, n, err := s.RunExec("DELETE FROM users WHERE id = $1;", []any{1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
