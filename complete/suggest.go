package complete

import (
	"fmt"
	"strings"
	"time"

	"github.com/rlch/soql"
)

// ListState distinguishes a list that has entries, one still waiting on
// metadata, and one with nothing to show.
type ListState int

const (
	ListHidden ListState = iota
	ListLoading
	ListReady
)

func (s ListState) String() string {
	switch s {
	case ListLoading:
		return "loading"
	case ListReady:
		return "ready"
	default:
		return "hidden"
	}
}

// Placeholder texts shown while a backing list is still empty.
const (
	LoadingFields  = "Loading fields..."
	LoadingObjects = "Loading objects..."
)

// Suggestions is a built list.
type Suggestions struct {
	Category    Category
	State       ListState
	Title       string
	Placeholder string
	Token       string
	Items       []Item
}

// Build turns a classification into a filtered list. Filtering keeps the
// backing list's order. A backing list that is empty because metadata has not
// arrived yields ListLoading; an empty filter result yields ListHidden.
func Build(c Classification, catalog Catalog, session Session, now time.Time) Suggestions {
	s := Suggestions{Category: c.Category, Token: c.Token}

	var candidates []Candidate

	switch c.Category {
	case CategorySource:
		s.Title = "Object Suggestions:"

		for _, o := range catalog.Objects(session.Tooling) {
			candidates = append(candidates, SourceCandidate{Object: o})
		}

		if len(candidates) == 0 {
			return s.loading(LoadingObjects)
		}
	case CategoryField:
		if c.Object == "" {
			return s
		}

		s.Title = c.Object + " Field Suggestions:"

		schema, ok := catalog.Schema(c.Object)
		if !ok || len(schema.Fields) == 0 {
			return s.loading(LoadingFields)
		}

		for _, f := range schema.Fields {
			candidates = append(candidates, FieldCandidate{Field: f})
		}
	case CategoryOperator:
		s.Title = fmt.Sprintf("Operator Suggestions for %s:", fieldName(c))

		if c.Field == nil {
			return s
		}

		ops, _ := Operators(c.Field.Type)
		for _, op := range ops {
			candidates = append(candidates, OperatorCandidate{Operator: op})
		}
	case CategoryValue:
		s.Title = fmt.Sprintf("Value Suggestions for %s:", fieldName(c))
		candidates = valueCandidates(c, now)
	default:
		return s
	}

	filtered := filterCandidates(candidates, c.Token)
	if len(filtered) == 0 {
		return s
	}

	s.State = ListReady
	s.Items = expand(filtered)

	return s
}

func (s Suggestions) loading(text string) Suggestions {
	s.State = ListLoading
	s.Placeholder = text

	return s
}

func valueCandidates(c Classification, now time.Time) []Candidate {
	if c.Field == nil {
		return nil
	}

	var out []Candidate

	switch {
	case soql.IsPicklist(c.Field.Type):
		for _, pv := range c.Field.ActivePicklistValues() {
			out = append(out, ValueCandidate{Literal: "'" + pv.Value + "'", Label: "'" + pv.Label + "'"})
		}
	case soql.IsTemporal(c.Field.Type):
		for _, lit := range DateLiterals(now) {
			out = append(out, ValueCandidate{Literal: lit})
		}
	}

	return out
}

func filterCandidates(candidates []Candidate, token string) []Candidate {
	needle := strings.ToLower(token)
	out := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.filterKey()), needle) {
			out = append(out, c)
		}
	}

	return out
}

func expand(candidates []Candidate) []Item {
	items := make([]Item, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, c.entries()...)
	}

	return items
}

// MatchingFields returns every field name of the classified object that
// contains the partial token. It is only valid in the field category with a
// described object.
func MatchingFields(c Classification, catalog Catalog) ([]string, bool) {
	if c.Category != CategoryField || c.Object == "" {
		return nil, false
	}

	schema, ok := catalog.Schema(c.Object)
	if !ok || !schema.Described() {
		return nil, false
	}

	needle := strings.ToLower(c.Token)

	var names []string

	for _, f := range schema.Fields {
		if strings.Contains(strings.ToLower(f.Name), needle) {
			names = append(names, f.Name)
		}
	}

	return names, len(names) > 0
}

func fieldName(c Classification) string {
	if c.Field == nil || c.Field.Name == "" {
		return "field"
	}

	return c.Field.Name
}
