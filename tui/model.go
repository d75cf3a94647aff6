// Package tui is a terminal query editor with as-you-type completion.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/rlch/soql"
	"github.com/rlch/soql/complete"
	"github.com/rlch/soql/host"
	"github.com/rlch/soql/metadata"
	"github.com/rlch/soql/results"
	"github.com/rlch/soql/store"
)

// maxRows bounds the visible suggestion window.
const maxRows = 8

// Host is the side of the message protocol the editor talks to.
type Host interface {
	Start(ctx context.Context, page string)
	Handle(ctx context.Context, m host.Message) error
}

// Config tunes the editor.
type Config struct {
	Debounce time.Duration
	Tooling  bool
	// TTL bounds the in-memory schema cache; zero keeps entries forever.
	TTL    time.Duration
	Now    func() time.Time
	Logger *zap.Logger
}

// InboundMsg carries a host message into the program.
type InboundMsg host.Message

type (
	passMsg struct{ seq int }
	errMsg  struct{ err error }
)

// Model is the bubbletea model of the editor.
type Model struct {
	ctx    context.Context
	host   Host
	logger *zap.Logger

	engine   *complete.Engine
	resolver *metadata.Resolver
	receiver host.Receiver
	// outbox collects requests made during a pass; they are sent afterwards.
	outbox   *[]host.Message
	requests host.Outbox

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	results  viewport.Model
	debounce time.Duration

	editor  editor
	seq     int
	list    complete.Suggestions
	state   complete.Interaction
	focused bool
	tooling bool

	org       *soql.OrgInfo
	lastQuery string
	saved     []store.SavedQuery
	running   bool
	hasResult bool
	status    string
	statusErr bool
	width     int
	height    int
}

// New creates an editor that fetches metadata and runs queries through h.
func New(ctx context.Context, h Host, cfg Config) *Model {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var cacheOpts []metadata.CacheOption
	if cfg.Now != nil {
		cacheOpts = append(cacheOpts, metadata.WithCacheClock(cfg.Now))
	}

	outbox := &[]host.Message{}
	queue := host.Outbox(func(m host.Message) { *outbox = append(*outbox, m) })

	resolver := metadata.NewResolver(metadata.NewCache(cfg.TTL, cacheOpts...), queue, logger.Named("resolver"))
	resolver.SetTooling(cfg.Tooling)

	engineOpts := []complete.EngineOption{complete.WithTooling(cfg.Tooling)}
	if cfg.Now != nil {
		engineOpts = append(engineOpts, complete.WithClock(cfg.Now))
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = selectedStyle

	return &Model{
		ctx:      ctx,
		host:     h,
		logger:   logger,
		engine:   complete.NewEngine(resolver.Cache(), resolver, logger.Named("complete"), engineOpts...),
		resolver: resolver,
		receiver: host.Receiver{Resolver: resolver},
		outbox:   outbox,
		requests: queue,
		keys:     defaultKeys(),
		help:     help.New(),
		spinner:  s,
		results:  viewport.New(80, 10),
		debounce: cfg.Debounce,
		editor:   newEditor(),
		state:    complete.Hidden(),
		tooling:  cfg.Tooling,
	}
}

// Text returns the editor contents.
func (m *Model) Text() string {
	return m.editor.Value()
}

// Init starts the host on the query page.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			m.host.Start(m.ctx, soql.PageQuery)
			return nil
		},
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.editor.SetWidth(max(msg.Width-4, 10))
		m.results.Width = msg.Width
		m.results.Height = max(msg.Height-20, 3)

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case passMsg:
		// Only the latest edit runs a pass.
		if msg.seq != m.seq {
			return m, nil
		}

		return m, m.pass()

	case InboundMsg:
		return m, m.receive(host.Message(msg))

	case errMsg:
		m.setError(msg.err.Error())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	default:
		// Paste and other textarea messages.
		return m, m.updateEditor(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Run):
		return m.run()
	case key.Matches(msg, m.keys.Tooling):
		return m.toggleTooling()
	case key.Matches(msg, m.keys.Save):
		return m.save()
	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)

		return cmd
	}

	if k, ok := m.keys.listKey(msg); ok {
		if cmd, handled := m.listKey(k); handled {
			return cmd
		}
	}

	return m.editKey(msg)
}

// listKey applies a list key. It reports false when the key should fall
// through to the editor.
func (m *Model) listKey(k complete.Key) (tea.Cmd, bool) {
	if !m.state.Visible {
		if k == complete.KeySelectAll {
			// Ctrl+Space on a hidden list asks for suggestions right away.
			return m.pass(), true
		}

		return nil, false
	}

	all, canSelectAll := m.engine.SelectAll()

	state, action := m.state.HandleKey(k, m.list, canSelectAll)
	m.state = state

	switch action.Kind {
	case complete.ActionFocus:
		m.focused = true
		return nil, true
	case complete.ActionHide:
		m.focused = false
		return nil, true
	case complete.ActionInsert:
		ins := complete.Apply(m.editor.Value(), m.editor.offset(), action.Item.InsertValue)
		m.editor.set(ins.Text, ins.Cursor)

		return m.edited(), true
	case complete.ActionInsertAll:
		m.editor.set(all.Text, all.Cursor)
		return m.edited(), true
	}

	switch k {
	case complete.KeyUp, complete.KeyDown:
		return nil, m.state.Count() > 0
	case complete.KeySelectAll:
		return nil, true
	}

	return nil, false
}

func (m *Model) editKey(msg tea.KeyMsg) tea.Cmd {
	return m.updateEditor(msg)
}

// updateEditor forwards msg to the textarea and schedules a pass when the
// text or the cursor moved.
func (m *Model) updateEditor(msg tea.Msg) tea.Cmd {
	text, at := m.editor.Value(), m.editor.offset()

	var cmd tea.Cmd
	m.editor.Model, cmd = m.editor.Update(msg)

	if m.editor.Value() == text && m.editor.offset() == at {
		return cmd
	}

	return tea.Batch(cmd, m.edited())
}

// edited schedules a debounced pass for the current buffer.
func (m *Model) edited() tea.Cmd {
	m.seq++
	seq := m.seq

	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return passMsg{seq: seq}
	})
}

func (m *Model) pass() tea.Cmd {
	res := m.engine.Pass(m.editor.Value(), m.editor.offset())
	m.show(res.Suggestions)

	return m.flush()
}

func (m *Model) rerun() tea.Cmd {
	res := m.engine.Rerun()
	m.show(res.Suggestions)

	return m.flush()
}

func (m *Model) show(list complete.Suggestions) {
	m.list = list
	m.state = m.state.Show(list)
	m.focused = false
}

// flush sends the requests queued by the last pass.
func (m *Model) flush() tea.Cmd {
	queued := *m.outbox
	*m.outbox = nil

	cmds := make([]tea.Cmd, 0, len(queued))
	for _, msg := range queued {
		cmds = append(cmds, m.send(msg))
	}

	return tea.Batch(cmds...)
}

func (m *Model) send(msg host.Message) tea.Cmd {
	return func() tea.Msg {
		if err := m.host.Handle(m.ctx, msg); err != nil {
			return errMsg{err: err}
		}

		return nil
	}
}

func (m *Model) receive(msg host.Message) tea.Cmd {
	u := m.receiver.Receive(msg)

	switch u.Kind {
	case host.UpdateSchema:
		// Late schemas only matter to the pass that asked for them.
		if m.engine.Relevant(u.Object) {
			return m.rerun()
		}
	case host.UpdateObjects:
		if m.engine.CatalogChanged() {
			return m.rerun()
		}
	case host.UpdateError:
		// A failed fetch leaves nothing to load.
		m.state = m.state.Hide()
		m.focused = false
		m.running = false
		m.setError(u.Message)
	case host.UpdateNone:
		return m.apply(msg)
	}

	return nil
}

func (m *Model) apply(msg host.Message) tea.Cmd {
	switch msg.Command {
	case host.CmdOrgInfo:
		m.org = msg.OrgInfo
	case host.CmdSavedQueries:
		m.saved = msg.Queries
	case host.CmdRestoreState:
		if m.editor.Value() == "" && msg.Query != "" {
			m.editor.set(msg.Query, len(msg.Query))
		}

		if msg.IsTooling != m.tooling {
			return m.setTooling(msg.IsTooling)
		}
	case host.CmdShowResult:
		m.showResult(msg.Data)
	case host.CmdExecutionFeedback:
		m.running = false
		m.setStatus(fmt.Sprintf("%d rows in %ss", msg.RowCount, msg.Time))
	}

	return nil
}

func (m *Model) showResult(data *results.Result) {
	if data == nil {
		data = &results.Result{}
	}

	var b strings.Builder
	if err := results.Render(&b, results.Flatten(data.Records), results.FormatTable); err != nil {
		m.setError(err.Error())
		return
	}

	m.results.SetContent(b.String())
	m.results.GotoTop()
	m.hasResult = true
}

func (m *Model) run() tea.Cmd {
	query := strings.TrimSpace(m.editor.Value())
	if query == "" {
		m.setError("Nothing to run")
		return nil
	}

	m.lastQuery = query
	m.running = true
	m.setStatus("Running query...")

	return m.send(host.Message{Command: host.CmdRunQuery, Query: query, IsTooling: m.tooling})
}

func (m *Model) save() tea.Cmd {
	label := firstLine(m.editor.Value())
	if label == "" {
		m.setError("Nothing to save")
		return nil
	}

	m.setStatus(fmt.Sprintf("Saved %q", label))

	return m.send(host.Message{Command: host.CmdSaveQuery, Label: label, Query: m.editor.Value()})
}

func (m *Model) toggleTooling() tea.Cmd {
	return m.setTooling(!m.tooling)
}

// setTooling switches catalogs, requesting the new one when it is not
// cached, and re-runs the pass against it.
func (m *Model) setTooling(tooling bool) tea.Cmd {
	m.tooling = tooling
	m.engine.SetTooling(tooling)
	m.resolver.SetTooling(tooling)

	if len(m.resolver.Cache().Objects(tooling)) == 0 {
		m.requests.RequestObjectList(tooling)
	}

	return m.pass()
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(editorStyle.Render(m.editor.View()))
	b.WriteString("\n")

	if m.state.Visible {
		b.WriteString(m.renderList())
		b.WriteString("\n")
	}

	if m.status != "" || m.running {
		b.WriteString(m.renderStatus())
		b.WriteString("\n")
	}

	if m.hasResult {
		b.WriteString(highlight(m.lastQuery))
		b.WriteString("\n")
		b.WriteString(m.results.View())
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m *Model) renderHeader() string {
	mode := "Standard"
	if m.tooling {
		mode = "Tooling"
	}

	org := "not connected"
	if m.org != nil {
		org = firstNonEmpty(m.org.Alias, m.org.Username, m.org.InstanceURL)
	}

	return titleStyle.Render("SOQL") + " " + dimStyle.Render(fmt.Sprintf("%s · %s · %d saved", org, mode, len(m.saved)))
}

func (m *Model) renderList() string {
	var b strings.Builder

	b.WriteString(dimStyle.Render(m.list.Title))
	b.WriteString("\n")

	if m.list.State == complete.ListLoading {
		b.WriteString(m.spinner.View() + " " + dimStyle.Render(m.list.Placeholder))
		return b.String()
	}

	start := 0
	if m.state.Selected >= maxRows {
		start = m.state.Selected - maxRows + 1
	}

	end := min(start+maxRows, len(m.list.Items))

	for i := start; i < end; i++ {
		it := m.list.Items[i]
		row := it.DisplayLabel

		if it.DisplayLabel != it.InsertValue {
			row += " " + dimStyle.Render(it.InsertValue)
		}

		if it.IconKey != "" {
			row = dimStyle.Render("["+it.IconKey+"]") + " " + row
		}

		switch {
		case i == m.state.Selected && m.focused:
			b.WriteString(focusedStyle.Render("> " + row))
		case i == m.state.Selected:
			b.WriteString(selectedStyle.Render("> ") + normalStyle.Render(row))
		default:
			b.WriteString("  " + normalStyle.Render(row))
		}

		if i < end-1 {
			b.WriteString("\n")
		}
	}

	if more := len(m.list.Items) - end; more > 0 {
		b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("  %d more", more)))
	}

	return b.String()
}

func (m *Model) renderStatus() string {
	if m.running {
		return m.spinner.View() + " " + dimStyle.Render(m.status)
	}

	if m.statusErr {
		return errorStyle.Render(m.status)
	}

	return successStyle.Render(m.status)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
