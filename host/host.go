package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rlch/soql"
	"github.com/rlch/soql/results"
	"github.com/rlch/soql/store"
)

// Backend is an org the host can describe and query.
type Backend interface {
	soql.SchemaProvider
	OrgInfo(ctx context.Context) (*soql.OrgInfo, error)
	Query(ctx context.Context, query string, tooling bool) (*results.Result, error)
}

// Validator is implemented by backends that must be checked before use.
type Validator interface {
	Validate(ctx context.Context) error
}

// Sink receives inbound messages. It must not block for long.
type Sink func(Message)

// ValidationFailed is the error event sent when the backend cannot be used.
const ValidationFailed = "Salesforce CLI not installed or default org not set."

// Options tune a Host.
type Options struct {
	TTL       time.Duration // cache lifetime, zero disables expiry
	Workspace string        // export directory
	Pages     string        // directory of <page>.html fragments, optional
	Now       func() time.Time
}

type cached[T any] struct {
	value T
	at    time.Time
}

// Host dispatches outbound messages against a backend.
type Host struct {
	backend Backend
	store   *store.Store
	sink    Sink
	opts    Options
	logger  *zap.Logger

	mu        sync.Mutex
	validated bool
	org       *cached[*soql.OrgInfo]
	objects   map[bool]cached[[]soql.SchemaDescriptor]
	meta      map[string]cached[*soql.SchemaDescriptor]
}

// New creates a host. Inbound messages are delivered to sink. st holds the
// on-disk caches, saved queries and workspace state.
func New(backend Backend, st *store.Store, sink Sink, opts Options, logger *zap.Logger) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.Workspace == "" {
		opts.Workspace = "."
	}

	return &Host{
		backend: backend,
		store:   st,
		sink:    sink,
		opts:    opts,
		logger:  logger,
		objects: map[bool]cached[[]soql.SchemaDescriptor]{},
		meta:    map[string]cached[*soql.SchemaDescriptor]{},
	}
}

func (h *Host) emit(m Message) {
	h.sink(m)
}

func (h *Host) emitErr(err error) {
	h.logger.Warn("Host request failed", zap.Error(err))
	h.emit(Message{Command: CmdError, Message: err.Error()})
}

func (h *Host) fresh(at time.Time) bool {
	return h.opts.TTL <= 0 || h.opts.Now().Sub(at) < h.opts.TTL
}

// Start validates the backend, sends the icon map and loads the initial page.
// The page is not loaded when validation fails.
func (h *Host) Start(ctx context.Context, page string) {
	ok := h.validate(ctx)
	h.emit(Message{Command: CmdIconMap, IconMap: soql.IconMap()})

	if ok && page != "" {
		h.loadPage(ctx, page)
	}
}

// validate checks the backend once. On success it pushes the org info and
// the standard object list.
func (h *Host) validate(ctx context.Context) bool {
	if v, ok := h.backend.(Validator); ok {
		if err := v.Validate(ctx); err != nil {
			h.logger.Warn("Backend validation failed", zap.Error(err))
			h.emit(ErrorMessage(ValidationFailed))

			return false
		}
	}

	h.mu.Lock()
	h.validated = true
	h.mu.Unlock()

	h.loadOrgInfo(ctx)
	h.fetchObjectList(ctx, false)

	return true
}

// Handle dispatches one outbound message. Failures are reported through the
// sink; the returned error is only for messages the host does not accept.
func (h *Host) Handle(ctx context.Context, m Message) error {
	if !m.Outbound() {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, m.Command)
	}

	h.mu.Lock()
	validated := h.validated
	h.mu.Unlock()

	if !validated && !h.validate(ctx) {
		return nil
	}

	h.logger.Debug("Handling message", zap.String("command", string(m.Command)))

	switch m.Command {
	case CmdLoadPage:
		h.loadPage(ctx, m.PageName)
	case CmdRequestObjectList:
		h.fetchObjectList(ctx, false)
	case CmdRequestToolingObjectList:
		h.fetchObjectList(ctx, true)
	case CmdRequestObjectMeta:
		h.objectMeta(ctx, m.ObjectType, m.IsTooling)
	case CmdRunQuery:
		h.runQuery(ctx, m.Query, m.IsTooling)
	case CmdSaveQuery:
		h.saveQuery(ctx, m.Label, m.Query)
	case CmdDeleteQuery:
		h.deleteQuery(ctx, m.Label)
	case CmdExportCSV:
		h.export(m.Content, results.FormatCSV)
	case CmdExportJSON:
		h.export(m.Content, results.FormatJSON)
	}

	return nil
}

func (h *Host) loadOrgInfo(ctx context.Context) *soql.OrgInfo {
	h.mu.Lock()
	c := h.org
	h.mu.Unlock()

	if c != nil && h.fresh(c.at) {
		h.emit(Message{Command: CmdOrgInfo, OrgInfo: c.value})
		return c.value
	}

	org, err := h.backend.OrgInfo(ctx)
	if err != nil {
		h.emitErr(err)
		return nil
	}

	h.mu.Lock()
	h.org = &cached[*soql.OrgInfo]{value: org, at: h.opts.Now()}
	h.mu.Unlock()

	h.emit(Message{Command: CmdOrgInfo, OrgInfo: org})

	return org
}

func listCommand(tooling bool) Command {
	if tooling {
		return CmdToolingObjectsList
	}

	return CmdObjectsList
}

// ObjectList returns the catalog from memory, disk or the backend, in that
// order, refreshing the caches on a miss.
func (h *Host) ObjectList(ctx context.Context, tooling bool) ([]soql.SchemaDescriptor, error) {
	h.mu.Lock()
	c, ok := h.objects[tooling]
	h.mu.Unlock()

	if ok && len(c.value) > 0 && h.fresh(c.at) {
		return c.value, nil
	}

	objects, at, ok, err := h.store.ObjectList(ctx, tooling)
	if err != nil {
		h.logger.Warn("Reading cached object list failed", zap.Error(err))
	} else if ok && len(objects) > 0 && h.fresh(at) {
		h.remember(tooling, objects, at)

		return objects, nil
	}

	objects, err = h.backend.ListObjects(ctx, tooling)
	if err != nil {
		return nil, err
	}

	now := h.opts.Now()
	h.remember(tooling, objects, now)

	if err := h.store.PutObjectList(ctx, tooling, objects, now); err != nil {
		h.logger.Warn("Caching object list failed", zap.Error(err))
	}

	return objects, nil
}

func (h *Host) remember(tooling bool, objects []soql.SchemaDescriptor, at time.Time) {
	h.mu.Lock()
	h.objects[tooling] = cached[[]soql.SchemaDescriptor]{value: objects, at: at}
	h.mu.Unlock()
}

func (h *Host) fetchObjectList(ctx context.Context, tooling bool) {
	objects, err := h.ObjectList(ctx, tooling)
	if err != nil {
		h.emitErr(err)
		return
	}

	h.emit(Message{Command: listCommand(tooling), Objects: objects})
}

func metaKey(name string, tooling bool) string {
	return strconv.FormatBool(tooling) + ":" + strings.ToLower(name)
}

// Describe returns a schema from memory, disk or the backend.
func (h *Host) Describe(ctx context.Context, name string, tooling bool) (*soql.SchemaDescriptor, error) {
	key := metaKey(name, tooling)

	h.mu.Lock()
	c, ok := h.meta[key]
	h.mu.Unlock()

	if ok && h.fresh(c.at) {
		return c.value, nil
	}

	desc, at, ok, err := h.store.ObjectMeta(ctx, name, tooling)
	if err != nil {
		h.logger.Warn("Reading cached describe failed", zap.String("object", name), zap.Error(err))
	} else if ok && h.fresh(at) {
		h.mu.Lock()
		h.meta[key] = cached[*soql.SchemaDescriptor]{value: desc, at: at}
		h.mu.Unlock()

		return desc, nil
	}

	desc, err = h.backend.Describe(ctx, name, tooling)
	if err != nil {
		return nil, err
	}

	if desc == nil {
		return nil, fmt.Errorf("%w: %s", soql.ErrUnknownObject, name)
	}

	now := h.opts.Now()

	h.mu.Lock()
	h.meta[key] = cached[*soql.SchemaDescriptor]{value: desc, at: now}
	h.mu.Unlock()

	if err := h.store.PutObjectMeta(ctx, desc, tooling, now); err != nil {
		h.logger.Warn("Caching describe failed", zap.String("object", name), zap.Error(err))
	}

	return desc, nil
}

func (h *Host) objectMeta(ctx context.Context, name string, tooling bool) {
	if name == "" {
		h.emit(Message{Command: CmdObjectMeta, ObjMeta: &soql.SchemaDescriptor{}})
		return
	}

	desc, err := h.Describe(ctx, name, tooling)
	if err != nil {
		h.logger.Warn("Describe failed", zap.String("object", name), zap.Error(err))
		h.emit(ErrorMessage("Failed to describe object %q", name))

		return
	}

	h.emit(Message{Command: CmdObjectMeta, ObjMeta: desc})
}

func (h *Host) runQuery(ctx context.Context, query string, tooling bool) {
	if err := h.store.SetState(ctx, store.KeyLastQuery, query); err != nil {
		h.logger.Warn("Saving last query failed", zap.Error(err))
	}

	if err := h.store.SetState(ctx, store.KeyIsTooling, strconv.FormatBool(tooling)); err != nil {
		h.logger.Warn("Saving tooling mode failed", zap.Error(err))
	}

	start := h.opts.Now()

	res, err := h.backend.Query(ctx, query, tooling)
	if err != nil {
		h.emitErr(err)
		return
	}

	elapsed := h.opts.Now().Sub(start).Seconds()

	h.emit(Message{Command: CmdShowResult, Data: res})
	h.emit(Message{
		Command:  CmdExecutionFeedback,
		RowCount: res.Len(),
		Time:     strconv.FormatFloat(elapsed, 'f', 2, 64),
	})
}

func (h *Host) savedQueries(ctx context.Context) {
	saved, err := h.store.SavedQueries(ctx)
	if err != nil {
		h.emitErr(err)
		return
	}

	h.emit(Message{Command: CmdSavedQueries, Queries: saved})
}

func (h *Host) saveQuery(ctx context.Context, label, query string) {
	err := h.store.SaveQuery(ctx, label, query)

	switch {
	case errors.Is(err, soql.ErrDuplicateLabel):
		h.emit(ErrorMessage("Label %q already exists", label))
		return
	case err != nil:
		h.emitErr(err)
		return
	}

	h.savedQueries(ctx)
}

func (h *Host) deleteQuery(ctx context.Context, label string) {
	if err := h.store.DeleteQuery(ctx, label); err != nil {
		h.emitErr(err)
		return
	}

	h.savedQueries(ctx)
}

// export writes a CSV string or a JSON value into the workspace.
func (h *Host) export(content json.RawMessage, format results.Format) {
	path, err := h.Export(content, format)
	if err != nil {
		h.emitErr(err)
		return
	}

	h.logger.Info("Exported results", zap.String("path", path))
}

// Export writes content to a new soql_result_<ms> file and returns its path.
// CSV content is a JSON string; JSON content is re-indented.
func (h *Host) Export(content json.RawMessage, format results.Format) (string, error) {
	var data []byte

	switch format {
	case results.FormatCSV:
		var s string
		if err := json.Unmarshal(content, &s); err != nil {
			return "", fmt.Errorf("export content must be a string: %w", err)
		}

		data = []byte(s)
	default:
		var v any
		if err := json.Unmarshal(content, &v); err != nil {
			return "", fmt.Errorf("invalid export content: %w", err)
		}

		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}

		data = b
	}

	path := results.ExportName(h.opts.Workspace, h.opts.Now(), format)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}

	return path, nil
}

func (h *Host) pageHTML(page string) string {
	if h.opts.Pages == "" {
		return ""
	}

	b, err := os.ReadFile(filepath.Join(h.opts.Pages, filepath.Base(page)+".html"))
	if err != nil {
		h.logger.Debug("No page fragment", zap.String("page", page), zap.Error(err))
		return ""
	}

	return string(b)
}

func (h *Host) loadPage(ctx context.Context, page string) {
	h.emit(Message{Command: CmdInjectPage, PageName: page, HTML: h.pageHTML(page)})

	switch page {
	case soql.PageQuery:
		h.savedQueries(ctx)

		query, _, err := h.store.State(ctx, store.KeyLastQuery)
		if err != nil {
			h.logger.Warn("Reading last query failed", zap.Error(err))
		}

		mode, _, err := h.store.State(ctx, store.KeyIsTooling)
		if err != nil {
			h.logger.Warn("Reading tooling mode failed", zap.Error(err))
		}

		tooling := mode == "true"

		h.emit(Message{Command: CmdRestoreState, Query: query, IsTooling: tooling})
		h.fetchObjectList(ctx, tooling)
	case soql.PageMetaExplorer:
		h.fetchObjectList(ctx, false)
	}
}

// ClearCache drops the org, object list and describe caches in memory and
// on disk.
func (h *Host) ClearCache(ctx context.Context) error {
	h.mu.Lock()
	h.org = nil
	h.objects = map[bool]cached[[]soql.SchemaDescriptor]{}
	h.meta = map[string]cached[*soql.SchemaDescriptor]{}
	h.mu.Unlock()

	if f, ok := h.backend.(interface{ Forget() }); ok {
		f.Forget()
	}

	return h.store.ClearCache(ctx)
}
