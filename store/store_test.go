package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/soql"
	"github.com/rlch/soql/store"
)

func open(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "cache", store.FileName))
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestObjectMeta(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := open(t)

	_, _, ok, err := s.ObjectMeta(ctx, "Account", false)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.UnixMilli(1700000000000)
	desc := &soql.SchemaDescriptor{Name: "Account", Fields: []soql.FieldDescriptor{{Name: "Id", Type: "id"}}}
	require.NoError(t, s.PutObjectMeta(ctx, desc, false, at))

	got, fetched, ok, err := s.ObjectMeta(ctx, "account", false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, desc, got)
	assert.True(t, at.Equal(fetched))

	_, _, ok, err = s.ObjectMeta(ctx, "Account", true)
	require.NoError(t, err)
	assert.False(t, ok, "tooling entries are separate")

	desc.Label = "Account"
	require.NoError(t, s.PutObjectMeta(ctx, desc, false, at.Add(time.Hour)))

	got, fetched, _, err = s.ObjectMeta(ctx, "Account", false)
	require.NoError(t, err)
	assert.Equal(t, "Account", got.Label)
	assert.True(t, at.Add(time.Hour).Equal(fetched))
}

func TestObjectList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := open(t)
	at := time.UnixMilli(1700000000000)

	objects := []soql.SchemaDescriptor{{Name: "Account", KeyPrefix: "001"}, {Name: "Contact"}}
	require.NoError(t, s.PutObjectList(ctx, false, objects, at))

	got, _, ok, err := s.ObjectList(ctx, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, objects, got)

	_, _, ok, err = s.ObjectList(ctx, true)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.ClearCache(ctx))

	_, _, ok, err = s.ObjectList(ctx, false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSavedQueries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := open(t)

	got, err := s.SavedQueries(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.SaveQuery(ctx, "accounts", "SELECT Id FROM Account"))
	require.NoError(t, s.SaveQuery(ctx, "contacts", "SELECT Id FROM Contact"))

	err = s.SaveQuery(ctx, "accounts", "SELECT Name FROM Account")
	assert.ErrorIs(t, err, soql.ErrDuplicateLabel)

	assert.ErrorIs(t, s.SaveQuery(ctx, " ", "SELECT Id FROM Account"), soql.ErrEmptyLabel)
	assert.ErrorIs(t, s.SaveQuery(ctx, "empty", "  "), soql.ErrEmptyQuery)

	got, err = s.SavedQueries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.SavedQuery{
		{Label: "accounts", Query: "SELECT Id FROM Account"},
		{Label: "contacts", Query: "SELECT Id FROM Contact"},
	}, got)

	require.NoError(t, s.DeleteQuery(ctx, "accounts"))
	require.NoError(t, s.DeleteQuery(ctx, "missing"))

	got, err = s.SavedQueries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.SavedQuery{{Label: "contacts", Query: "SELECT Id FROM Contact"}}, got)

	require.NoError(t, s.ClearCache(ctx))

	got, err = s.SavedQueries(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1, "clearing the cache keeps saved queries")
}

func TestState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := open(t)

	_, ok, err := s.State(ctx, store.KeyLastQuery)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetState(ctx, store.KeyLastQuery, "SELECT Id FROM Account"))
	require.NoError(t, s.SetState(ctx, store.KeyLastQuery, "SELECT Name FROM Account"))

	v, ok, err := s.State(ctx, store.KeyLastQuery)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "SELECT Name FROM Account", v)
}

func TestReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), store.FileName)

	s, err := store.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.SaveQuery(ctx, "q", "SELECT Id FROM Account"))
	require.NoError(t, s.Close())

	s, err = store.Open(ctx, path)
	require.NoError(t, err)

	defer func() { _ = s.Close() }()

	got, err := s.SavedQueries(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
