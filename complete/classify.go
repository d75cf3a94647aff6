package complete

import (
	"regexp"
	"strings"

	"github.com/rlch/soql"
)

// Category is the kind of suggestion that fits at the cursor.
type Category string

const (
	CategoryNone     Category = "none"
	CategorySource   Category = "source"
	CategoryField    Category = "field"
	CategoryOperator Category = "operator"
	CategoryValue    Category = "value"
)

// Catalog is the read side of the schema cache.
type Catalog interface {
	// Objects returns the known sources for the given mode.
	Objects(tooling bool) []soql.SchemaDescriptor
	// Schema returns a described source, matched case-insensitively.
	Schema(name string) (*soql.SchemaDescriptor, bool)
}

// Session is the state carried from one pass to the next.
type Session struct {
	// CurrentObject is the object the previous pass resolved, or "".
	CurrentObject string
	Tooling       bool
}

// Classification is the outcome of Classify.
type Classification struct {
	Category Category
	Token    string
	// Field drives operator and value vocabularies.
	Field *soql.FieldDescriptor
	// Object scopes field, operator and value suggestions.
	Object string
	// Requests lists schemas the pass needs, in request order.
	Requests []string
	// Session is the state for the next pass.
	Session Session
}

// Clause detection patterns. Each rule below uses exactly one of them.
var (
	sourceTokenRe   = regexp.MustCompile(`(?i)\bfrom\s+(\w*)$`)
	sourceFinalRe   = regexp.MustCompile(`(?i)\bfrom\s+\w+\s+`)
	dotChainRe      = regexp.MustCompile(`(\w+(?:\.\w+)*\.?)$`)
	whereFieldRe    = regexp.MustCompile(`(?i)\b(WHERE)\s+([\w.]+)\s*([\w.]+)*\s+$`)
	andOrFieldRe    = regexp.MustCompile(`(?i)\b(AND|OR)\s+([\w.]+)\s*([\w.]+)*\s+$`)
	afterOperatorRe = regexp.MustCompile(`(?i)\b([\w.]+)\s*(=|!=|LIKE|IN|NOT\s+IN|>|<|>=|<=|INCLUDES|EXCLUDES)\s*([\w.]+)*$`)
	clauseRe        = regexp.MustCompile(`(?i)\b(select|where|and|or|order\s+by|group\s+by|having)\s+[^\n]*$`)
	trailingPathRe  = regexp.MustCompile(`[\w.]*$`)
)

// Classify decides the suggestion category for the text before the cursor.
// The first matching rule wins.
func Classify(text string, cursor int, ctx ActiveContext, prev Session, catalog Catalog) Classification {
	before := text[:clamp(cursor, 0, len(text))]
	next := Session{Tooling: prev.Tooling}

	object := sourceObject(ctx, prev, catalog)
	if object == "" || stillTypingSource(before) {
		return sourceClassification(before, next)
	}

	desc, ok := soql.FindObject(catalog.Objects(prev.Tooling), object)
	if !ok {
		return sourceClassification(before, next)
	}

	next.CurrentObject = desc.Name

	c := Classification{
		Category: CategoryNone,
		Object:   desc.Name,
		Requests: []string{desc.Name},
		Session:  next,
	}

	if ctx.Parent != "" && ctx.Parent != desc.Name {
		c.Requests = appendUnique(c.Requests, ctx.Parent)
	}

	if segments, ok := relationshipPath(before); ok {
		chain := WalkRelationships(desc.Name, segments[:len(segments)-1], catalog)

		c.Category = CategoryField
		c.Token = segments[len(segments)-1]
		c.Object = chain.Object
		c.Requests = appendUnique(c.Requests, chain.Missing...)
		c.Session.CurrentObject = chain.Object

		return c
	}

	schema, _ := catalog.Schema(desc.Name)

	if field, token, ok := operatorPosition(before, schema); ok {
		c.Category = CategoryOperator
		c.Field = field
		c.Token = token

		return c
	}

	if field, token, ok := valuePosition(before, schema); ok {
		c.Category = CategoryValue
		c.Field = field
		c.Token = token

		return c
	}

	if clauseRe.MatchString(before) {
		c.Category = CategoryField
		c.Token = trailingPathRe.FindString(before)
	}

	return c
}

// sourceObject maps the active declaration to an object name. Inside a
// sub-query the name is a child relationship of the parent when the parent's
// schema lists it.
func sourceObject(ctx ActiveContext, prev Session, catalog Catalog) string {
	if ctx.Active == "" || ctx.Depth == 0 {
		return ctx.Active
	}

	parent := ctx.Parent
	if parent == "" {
		parent = prev.CurrentObject
	}

	schema, ok := catalog.Schema(parent)
	if !ok {
		return ctx.Active
	}

	if child, ok := schema.ChildObject(ctx.Active); ok && child != "" {
		return child
	}

	return ctx.Active
}

// stillTypingSource reports a FROM whose source name is not yet followed by
// whitespace.
func stillTypingSource(before string) bool {
	return strings.Contains(strings.ToLower(before), "from") && !sourceFinalRe.MatchString(before)
}

func sourceClassification(before string, next Session) Classification {
	c := Classification{Category: CategorySource, Session: next}
	if m := sourceTokenRe.FindStringSubmatch(before); m != nil {
		c.Token = m[1]
	}

	return c
}

// relationshipPath splits a trailing dotted identifier chain. The last segment
// is the partial token and may be empty.
func relationshipPath(before string) ([]string, bool) {
	m := dotChainRe.FindString(before)
	if !strings.Contains(m, ".") {
		return nil, false
	}

	return strings.Split(m, "."), true
}

func operatorPosition(before string, schema *soql.SchemaDescriptor) (*soql.FieldDescriptor, string, bool) {
	m := whereFieldRe.FindStringSubmatch(before)
	if m == nil {
		m = andOrFieldRe.FindStringSubmatch(before)
	}

	if m == nil {
		return nil, "", false
	}

	field, ok := schema.Field(lastSegment(m[2]))

	return field, m[3], ok
}

func valuePosition(before string, schema *soql.SchemaDescriptor) (*soql.FieldDescriptor, string, bool) {
	m := afterOperatorRe.FindStringSubmatch(before)
	if m == nil {
		return nil, "", false
	}

	field, ok := schema.Field(lastSegment(m[1]))

	return field, m[3], ok
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}

	return path
}

func appendUnique(list []string, names ...string) []string {
	for _, n := range names {
		dup := false

		for _, have := range list {
			if strings.EqualFold(have, n) {
				dup = true

				break
			}
		}

		if !dup {
			list = append(list, n)
		}
	}

	return list
}
