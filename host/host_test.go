package host_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/soql"
	"github.com/rlch/soql/host"
	"github.com/rlch/soql/results"
	"github.com/rlch/soql/store"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeBackend struct {
	clock       *clock
	validateErr error
	objects     map[bool][]soql.SchemaDescriptor
	schemas     map[string]*soql.SchemaDescriptor
	result      *results.Result
	queryTime   time.Duration

	mu            sync.Mutex
	listCalls     int
	describeCalls int
	queries       []string
}

func (b *fakeBackend) Validate(context.Context) error {
	return b.validateErr
}

func (b *fakeBackend) OrgInfo(context.Context) (*soql.OrgInfo, error) {
	return &soql.OrgInfo{Username: "me@example.com", AccessToken: "secret"}, nil
}

func (b *fakeBackend) ListObjects(_ context.Context, tooling bool) ([]soql.SchemaDescriptor, error) {
	b.mu.Lock()
	b.listCalls++
	b.mu.Unlock()

	return b.objects[tooling], nil
}

func (b *fakeBackend) Describe(_ context.Context, name string, _ bool) (*soql.SchemaDescriptor, error) {
	b.mu.Lock()
	b.describeCalls++
	b.mu.Unlock()

	s, ok := b.schemas[name]
	if !ok {
		return nil, soql.ErrUnknownObject
	}

	return s, nil
}

func (b *fakeBackend) Query(_ context.Context, q string, _ bool) (*results.Result, error) {
	b.mu.Lock()
	b.queries = append(b.queries, q)
	b.mu.Unlock()

	b.clock.Advance(b.queryTime)

	if b.result == nil {
		return nil, errors.New("MALFORMED_QUERY: unexpected token")
	}

	return b.result, nil
}

type recorder struct {
	mu   sync.Mutex
	msgs []host.Message
}

func (r *recorder) sink(m host.Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
}

func (r *recorder) take() []host.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.msgs
	r.msgs = nil

	return out
}

func commands(msgs []host.Message) []host.Command {
	out := make([]host.Command, len(msgs))
	for i, m := range msgs {
		out[i] = m.Command
	}

	return out
}

type fixture struct {
	host    *host.Host
	backend *fakeBackend
	rec     *recorder
	clock   *clock
	store   *store.Store
	dir     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()

	st, err := store.Open(context.Background(), filepath.Join(dir, store.FileName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	clk := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	b := &fakeBackend{
		clock: clk,
		objects: map[bool][]soql.SchemaDescriptor{
			false: {{Name: "Account"}, {Name: "Contact"}},
			true:  {{Name: "ApexClass"}},
		},
		schemas: map[string]*soql.SchemaDescriptor{
			"Account": {Name: "Account", Fields: []soql.FieldDescriptor{{Name: "Id", Type: "id"}}},
		},
	}
	rec := &recorder{}

	h := host.New(b, st, rec.sink, host.Options{
		TTL:       12 * time.Hour,
		Workspace: dir,
		Now:       clk.Now,
	}, nil)

	return &fixture{host: h, backend: b, rec: rec, clock: clk, store: st, dir: dir}
}

func TestStart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.host.Start(context.Background(), soql.PageQuery)

	msgs := f.rec.take()
	assert.Equal(t, []host.Command{
		host.CmdOrgInfo,
		host.CmdObjectsList,
		host.CmdIconMap,
		host.CmdInjectPage,
		host.CmdSavedQueries,
		host.CmdRestoreState,
		host.CmdObjectsList,
	}, commands(msgs))

	assert.Equal(t, "date", msgs[2].IconMap["datetime"])
	assert.Equal(t, "picklist", msgs[2].IconMap["multipicklist"])
	assert.Equal(t, soql.PageQuery, msgs[3].PageName)
	assert.Len(t, msgs[6].Objects, 2)
	assert.Equal(t, 1, f.backend.listCalls, "second list is served from memory")
}

func TestStart_ValidationFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.backend.validateErr = soql.ErrNoDefaultOrg

	f.host.Start(context.Background(), soql.PageQuery)

	msgs := f.rec.take()
	require.Equal(t, []host.Command{host.CmdError, host.CmdIconMap}, commands(msgs))
	assert.Equal(t, host.ValidationFailed, msgs[0].Message)

	require.NoError(t, f.host.Handle(context.Background(), host.Message{Command: host.CmdRequestObjectList}))
	assert.Equal(t, []host.Command{host.CmdError}, commands(f.rec.take()), "requests are gated until validation passes")

	f.backend.validateErr = nil

	require.NoError(t, f.host.Handle(context.Background(), host.Message{Command: host.CmdRequestToolingObjectList, IsTooling: true}))
	assert.Equal(t, []host.Command{host.CmdOrgInfo, host.CmdObjectsList, host.CmdToolingObjectsList}, commands(f.rec.take()))
}

func TestOrgInfoHidesToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.host.Start(context.Background(), "")

	msgs := f.rec.take()
	require.Equal(t, host.CmdOrgInfo, msgs[0].Command)

	b, err := json.Marshal(msgs[0])
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
}

func TestRequestObjectMeta(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.host.Start(ctx, "")
	f.rec.take()

	require.NoError(t, f.host.Handle(ctx, host.Message{Command: host.CmdRequestObjectMeta}))
	msgs := f.rec.take()
	require.Len(t, msgs, 1)
	assert.Equal(t, host.CmdObjectMeta, msgs[0].Command)
	assert.Equal(t, &soql.SchemaDescriptor{}, msgs[0].ObjMeta)

	for range 2 {
		require.NoError(t, f.host.Handle(ctx, host.Message{Command: host.CmdRequestObjectMeta, ObjectType: "Account"}))
	}

	msgs = f.rec.take()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Account", msgs[1].ObjMeta.Name)
	assert.Equal(t, 1, f.backend.describeCalls)

	require.NoError(t, f.host.Handle(ctx, host.Message{Command: host.CmdRequestObjectMeta, ObjectType: "Widget"}))
	msgs = f.rec.take()
	require.Len(t, msgs, 1)
	assert.Equal(t, host.CmdError, msgs[0].Command)
	assert.Equal(t, `Failed to describe object "Widget"`, msgs[0].Message)
}

func TestDescribeCacheExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	_, err := f.host.Describe(ctx, "Account", false)
	require.NoError(t, err)

	f.clock.Advance(11 * time.Hour)

	_, err = f.host.Describe(ctx, "account", false)
	require.NoError(t, err)
	assert.Equal(t, 1, f.backend.describeCalls)

	f.clock.Advance(time.Hour)

	_, err = f.host.Describe(ctx, "Account", false)
	require.NoError(t, err)
	assert.Equal(t, 2, f.backend.describeCalls)
}

func TestDiskCacheSurvivesHost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	_, err := f.host.Describe(ctx, "Account", false)
	require.NoError(t, err)
	_, err = f.host.ObjectList(ctx, false)
	require.NoError(t, err)

	again := host.New(f.backend, f.store, f.rec.sink, host.Options{TTL: time.Hour, Now: f.clock.Now}, nil)

	_, err = again.Describe(ctx, "Account", false)
	require.NoError(t, err)
	_, err = again.ObjectList(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 1, f.backend.describeCalls)
	assert.Equal(t, 1, f.backend.listCalls)

	require.NoError(t, again.ClearCache(ctx))

	_, err = again.Describe(ctx, "Account", false)
	require.NoError(t, err)
	assert.Equal(t, 2, f.backend.describeCalls)
}

func TestRunQuery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.backend.queryTime = 1500 * time.Millisecond

	res, err := results.Decode([]byte(`{"totalSize":2,"done":true,"records":[{"Id":"1"},{"Id":"2"}]}`))
	require.NoError(t, err)

	f.backend.result = res

	f.host.Start(ctx, "")
	f.rec.take()

	require.NoError(t, f.host.Handle(ctx, host.Message{Command: host.CmdRunQuery, Query: "SELECT Id FROM ApexClass", IsTooling: true}))

	msgs := f.rec.take()
	require.Equal(t, []host.Command{host.CmdShowResult, host.CmdExecutionFeedback}, commands(msgs))
	assert.Same(t, res, msgs[0].Data)
	assert.Equal(t, 2, msgs[1].RowCount)
	assert.Equal(t, "1.50", msgs[1].Time)

	require.NoError(t, f.host.Handle(ctx, host.Message{Command: host.CmdLoadPage, PageName: soql.PageQuery}))

	msgs = f.rec.take()
	require.Len(t, msgs, 4)
	assert.Equal(t, host.CmdRestoreState, msgs[2].Command)
	assert.Equal(t, "SELECT Id FROM ApexClass", msgs[2].Query)
	assert.True(t, msgs[2].IsTooling)
	assert.Equal(t, host.CmdToolingObjectsList, msgs[3].Command)
}

func TestRunQuery_Error(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.host.Start(ctx, "")
	f.rec.take()

	require.NoError(t, f.host.Handle(ctx, host.Message{Command: host.CmdRunQuery, Query: "SELECT FROM"}))

	msgs := f.rec.take()
	require.Len(t, msgs, 1)
	assert.Equal(t, host.CmdError, msgs[0].Command)
	assert.Contains(t, msgs[0].Message, "MALFORMED_QUERY")
}

func TestSavedQueries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.host.Start(ctx, "")
	f.rec.take()

	save := host.Message{Command: host.CmdSaveQuery, Label: "accounts", Query: "SELECT Id FROM Account"}

	require.NoError(t, f.host.Handle(ctx, save))
	msgs := f.rec.take()
	require.Len(t, msgs, 1)
	assert.Equal(t, []store.SavedQuery{{Label: "accounts", Query: "SELECT Id FROM Account"}}, msgs[0].Queries)

	require.NoError(t, f.host.Handle(ctx, save))
	msgs = f.rec.take()
	require.Len(t, msgs, 1)
	assert.Equal(t, `Label "accounts" already exists`, msgs[0].Message)

	require.NoError(t, f.host.Handle(ctx, host.Message{Command: host.CmdDeleteQuery, Label: "accounts"}))
	msgs = f.rec.take()
	require.Len(t, msgs, 1)
	assert.Equal(t, host.CmdSavedQueries, msgs[0].Command)
	assert.Empty(t, msgs[0].Queries)
}

func TestExport(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	path, err := f.host.Export(host.TextContent("\"Id\"\n\"001\""), results.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.dir, "soql_result_1709294400000.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\"Id\"\n\"001\"", string(data))

	path, err = f.host.Export(json.RawMessage(`[{"Id":"001"}]`), results.FormatJSON)
	require.NoError(t, err)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"Id\": \"001\"\n  }\n]", string(data))

	_, err = f.host.Export(json.RawMessage(`[1]`), results.FormatCSV)
	assert.Error(t, err)
}

func TestHandle_RejectsInbound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	err := f.host.Handle(context.Background(), host.Message{Command: host.CmdObjectsList})
	assert.ErrorIs(t, err, host.ErrUnknownCommand)
}

func TestLoadPage_Fragment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	pages := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pages, "meta-explorer.html"), []byte("<div>meta</div>"), 0o644))

	h := host.New(f.backend, f.store, f.rec.sink, host.Options{Pages: pages, Now: f.clock.Now}, nil)

	require.NoError(t, h.Handle(ctx, host.Message{Command: host.CmdLoadPage, PageName: soql.PageMetaExplorer}))

	msgs := f.rec.take()
	require.Equal(t, []host.Command{host.CmdOrgInfo, host.CmdObjectsList, host.CmdInjectPage, host.CmdObjectsList}, commands(msgs))
	assert.Equal(t, "<div>meta</div>", msgs[2].HTML)
}
