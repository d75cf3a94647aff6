package complete

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SchemaEnsurer lazily requests schemas. EnsureSchema must return without
// waiting and be a no-op for names already cached or in flight.
type SchemaEnsurer interface {
	EnsureSchema(name string)
}

// Result is everything one pass produced.
type Result struct {
	Context        ActiveContext
	Classification Classification
	Suggestions    Suggestions
}

// Engine runs passes for a single editor. It is not safe for concurrent use;
// passes are expected to run one at a time.
type Engine struct {
	catalog  Catalog
	ensurer  SchemaEnsurer
	logger   *zap.Logger
	now      func() time.Time
	session  Session
	last     Result
	lastText string
	lastPos  int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock replaces time.Now for date literals.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithTooling starts the engine in tooling mode.
func WithTooling(tooling bool) EngineOption {
	return func(e *Engine) { e.session.Tooling = tooling }
}

// NewEngine creates an engine over a catalog. ensurer may be nil when schemas
// are loaded up front.
func NewEngine(catalog Catalog, ensurer SchemaEnsurer, logger *zap.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		catalog: catalog,
		ensurer: ensurer,
		logger:  logger,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Pass resolves, classifies and builds the list for text at cursor. A panic
// anywhere in the pipeline is logged and yields a hidden list.
func (e *Engine) Pass(text string, cursor int) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Completion pass failed",
				zap.String("panic", fmt.Sprint(r)),
				zap.Int("length", len(text)),
				zap.Int("cursor", cursor))

			res = Result{Suggestions: Suggestions{Category: CategoryNone}}
			e.last = res
		}
	}()

	ctx := Resolve(text, cursor)
	c := Classify(text, cursor, ctx, e.session, e.catalog)

	if e.ensurer != nil {
		for _, name := range c.Requests {
			e.ensurer.EnsureSchema(name)
		}
	}

	list := Build(c, e.catalog, c.Session, e.now())

	e.session = c.Session
	e.last = Result{Context: ctx, Classification: c, Suggestions: list}
	e.lastText, e.lastPos = text, cursor

	e.logger.Debug("Completion pass",
		zap.String("category", string(c.Category)),
		zap.String("object", c.Object),
		zap.String("token", c.Token),
		zap.Stringer("state", list.State),
		zap.Int("items", len(list.Items)))

	return e.last
}

// Rerun repeats the last pass against the current catalog.
func (e *Engine) Rerun() Result {
	return e.Pass(e.lastText, e.lastPos)
}

// Last returns the most recent pass result.
func (e *Engine) Last() Result {
	return e.last
}

// Session returns the state carried into the next pass.
func (e *Engine) Session() Session {
	return e.session
}

// SetTooling switches the catalog mode for subsequent passes.
func (e *Engine) SetTooling(tooling bool) {
	e.session.Tooling = tooling
}

// Relevant reports whether a schema that just arrived affects the last pass:
// it must be the current object, the parent source, or one of the schemas
// the pass requested. Late responses for anything else are cached but do not
// trigger a rerun.
func (e *Engine) Relevant(name string) bool {
	if name == "" {
		return false
	}

	if strings.EqualFold(name, e.session.CurrentObject) || strings.EqualFold(name, e.last.Context.Parent) {
		return true
	}

	for _, r := range e.last.Classification.Requests {
		if strings.EqualFold(name, r) {
			return true
		}
	}

	return false
}

// CatalogChanged reports whether a new object list should rerun the last
// pass: only source suggestions and unvalidated sources depend on it.
func (e *Engine) CatalogChanged() bool {
	return e.last.Classification.Category == CategorySource
}

// SelectAll returns the insertion for the select-all-matching-fields
// shortcut, if it applies to the last pass.
func (e *Engine) SelectAll() (Insertion, bool) {
	names, ok := MatchingFields(e.last.Classification, e.catalog)
	if !ok {
		return Insertion{}, false
	}

	return ApplyAll(e.lastText, e.lastPos, names), true
}
