package metadata_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/soql"
	"github.com/rlch/soql/complete"
	"github.com/rlch/soql/metadata"
)

var _ complete.Catalog = (*metadata.Cache)(nil)

var _ complete.SchemaEnsurer = (*metadata.Resolver)(nil)

type request struct {
	name    string
	tooling bool
}

type recordingRequester struct {
	requests []request
}

func (r *recordingRequester) RequestObjectMeta(name string, tooling bool) {
	r.requests = append(r.requests, request{name, tooling})
}

func account() *soql.SchemaDescriptor {
	return &soql.SchemaDescriptor{
		Name:   "Account",
		Fields: []soql.FieldDescriptor{{Name: "Id", Type: "id"}},
	}
}

func TestCache_Schema(t *testing.T) {
	t.Parallel()

	c := metadata.NewCache(0)

	_, ok := c.Schema("Account")
	assert.False(t, ok)

	c.Put(account())

	s, ok := c.Schema("ACCOUNT")
	require.True(t, ok)
	assert.Equal(t, "Account", s.Name)

	c.Put(&soql.SchemaDescriptor{})
	assert.Equal(t, 1, c.Len())

	c.Evict("account")
	_, ok = c.Schema("Account")
	assert.False(t, ok)
}

func TestCache_TTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := metadata.NewCache(time.Hour, metadata.WithCacheClock(func() time.Time { return now }))

	c.Put(account())
	c.SetObjects(false, []soql.SchemaDescriptor{{Name: "Account"}})

	now = now.Add(59 * time.Minute)
	_, ok := c.Schema("Account")
	assert.True(t, ok)
	assert.Len(t, c.Objects(false), 1)

	now = now.Add(time.Minute)
	_, ok = c.Schema("Account")
	assert.False(t, ok)
	assert.Nil(t, c.Objects(false))
}

func TestCache_ObjectsPerMode(t *testing.T) {
	t.Parallel()

	c := metadata.NewCache(0)
	c.SetObjects(false, []soql.SchemaDescriptor{{Name: "Account"}})
	c.SetObjects(true, []soql.SchemaDescriptor{{Name: "ApexClass"}})

	assert.Equal(t, "Account", c.Objects(false)[0].Name)
	assert.Equal(t, "ApexClass", c.Objects(true)[0].Name)

	c.Clear()
	assert.Nil(t, c.Objects(false))
	assert.Zero(t, c.Len())
}

func TestResolver_EnsureSchemaIsIdempotent(t *testing.T) {
	t.Parallel()

	req := &recordingRequester{}
	r := metadata.NewResolver(metadata.NewCache(0), req, nil)

	r.EnsureSchema("Account")
	r.EnsureSchema("account")
	r.EnsureSchema("")

	assert.Equal(t, []request{{"Account", false}}, req.requests)
	assert.Equal(t, []string{"account"}, r.Pending())
}

func TestResolver_Deliver(t *testing.T) {
	t.Parallel()

	req := &recordingRequester{}
	r := metadata.NewResolver(metadata.NewCache(0), req, nil)

	r.EnsureSchema("Account")
	assert.True(t, r.Deliver(account()))
	assert.Empty(t, r.Pending())

	r.EnsureSchema("Account")
	assert.Len(t, req.requests, 1, "cached schemas are not requested again")

	assert.False(t, r.Deliver(&soql.SchemaDescriptor{}))
	assert.False(t, r.Deliver(nil))
}

func TestResolver_FailAllowsRetry(t *testing.T) {
	t.Parallel()

	req := &recordingRequester{}
	r := metadata.NewResolver(metadata.NewCache(0), req, nil)
	r.SetTooling(true)

	r.EnsureSchema("ApexClass")
	r.Fail()
	r.EnsureSchema("ApexClass")

	assert.Equal(t, []request{{"ApexClass", true}, {"ApexClass", true}}, req.requests)
}

func TestResolver_WithEngine(t *testing.T) {
	t.Parallel()

	cache := metadata.NewCache(0)
	cache.SetObjects(false, []soql.SchemaDescriptor{{Name: "Account"}})

	req := &recordingRequester{}
	r := metadata.NewResolver(cache, req, nil)
	e := complete.NewEngine(cache, r, nil)

	res := e.Pass("SELECT Id FROM Account WHERE ", 29)
	assert.Equal(t, complete.ListLoading, res.Suggestions.State)

	e.Pass("SELECT Id FROM Account WHERE ", 29)
	assert.Len(t, req.requests, 1)

	require.True(t, r.Deliver(account()))
	require.True(t, e.Relevant("Account"))

	res = e.Rerun()
	assert.Equal(t, complete.ListReady, res.Suggestions.State)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	writeFile(t, filepath.Join(root, "Account.json"), `{
	"name": "Account",
	"label": "Account",
	"keyPrefix": "001",
	"fields": [
		{"name": "Id", "type": "id"},
		{"name": "Industry", "type": "picklist", "picklistValues": [{"label": "Energy", "value": "Energy", "active": true}]}
	],
	"childRelationships": [{"relationshipName": "Contacts", "childSObject": "Contact"}]
}`)
	writeFile(t, filepath.Join(root, "contact.yaml"), `
name: Contact
label: Contact
keyPrefix: "003"
fields:
  - name: AccountId
    type: reference
    referenceTo: [Account]
    relationshipName: Account
`)
	writeFile(t, filepath.Join(root, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(root, metadata.ToolingDir, "ApexClass.yml"), "label: Apex Class\n")

	d := metadata.NewDir(root)
	ctx := context.Background()

	objects, err := d.ListObjects(ctx, false)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "Account", objects[0].Name)
	assert.Nil(t, objects[0].Fields)
	assert.Equal(t, "003", objects[1].KeyPrefix)

	tooling, err := d.ListObjects(ctx, true)
	require.NoError(t, err)
	require.Len(t, tooling, 1)
	assert.Equal(t, "ApexClass", tooling[0].Name)

	s, err := d.Describe(ctx, "account", false)
	require.NoError(t, err)
	assert.Len(t, s.Fields, 2)
	assert.Equal(t, []string{"Energy"}, []string{s.Fields[1].ActivePicklistValues()[0].Value})

	s, err = d.Describe(ctx, "Contact", false)
	require.NoError(t, err)
	assert.True(t, s.Fields[0].IsRelationship())

	s, err = d.Describe(ctx, "ApexClass", true)
	require.NoError(t, err)
	assert.True(t, s.Described())

	_, err = d.Describe(ctx, "Widget", false)
	assert.ErrorIs(t, err, soql.ErrUnknownObject)

	_, err = d.Query(ctx, "SELECT Id FROM Account", false)
	assert.ErrorIs(t, err, soql.ErrQueryUnsupported)
}

func TestDir_Missing(t *testing.T) {
	t.Parallel()

	d := metadata.NewDir(filepath.Join(t.TempDir(), "nope"))

	objects, err := d.ListObjects(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, objects)
}
