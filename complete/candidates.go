package complete

import (
	"github.com/rlch/soql"
)

// Item is the uniform projection of a candidate that UIs render and apply.
type Item struct {
	InsertValue  string `json:"insertValue"`
	DisplayLabel string `json:"displayLabel"`
	IconKey      string `json:"iconKey,omitempty"`
}

// Candidate is one entry of a category's backing list.
type Candidate interface {
	// Item projects the candidate for display and insertion.
	Item() Item
	// filterKey is the text the partial token is matched against.
	filterKey() string
	// entries are the rows the candidate contributes to a list.
	entries() []Item
}

// SourceCandidate is a queryable object.
type SourceCandidate struct {
	Object soql.SchemaDescriptor
}

func (c SourceCandidate) Item() Item {
	return Item{InsertValue: c.Object.Name, DisplayLabel: firstNonEmpty(c.Object.Label, c.Object.Name), IconKey: soql.IconObject}
}

func (c SourceCandidate) filterKey() string {
	return firstNonEmpty(c.Object.Name, c.Object.Label)
}

func (c SourceCandidate) entries() []Item { return []Item{c.Item()} }

// FieldCandidate is a field, or the relationship path prefix of a reference
// field when Prefix is set.
type FieldCandidate struct {
	Field  soql.FieldDescriptor
	Prefix bool
}

func (c FieldCandidate) Item() Item {
	if c.Prefix {
		return Item{InsertValue: c.Field.RelationshipName + ".", DisplayLabel: c.Field.RelationshipName, IconKey: soql.IconKey(c.Field.Type)}
	}

	return Item{InsertValue: c.Field.Name, DisplayLabel: firstNonEmpty(c.Field.Label, c.Field.Name), IconKey: soql.IconKey(c.Field.Type)}
}

func (c FieldCandidate) filterKey() string {
	return c.Field.Name
}

// entries places the relationship prefix immediately before the field itself.
func (c FieldCandidate) entries() []Item {
	if c.Prefix || !c.Field.IsRelationship() {
		return []Item{c.Item()}
	}

	return []Item{FieldCandidate{Field: c.Field, Prefix: true}.Item(), c.Item()}
}

// OperatorCandidate is a comparison operator.
type OperatorCandidate struct {
	Operator string
}

func (c OperatorCandidate) Item() Item {
	return Item{InsertValue: c.Operator, DisplayLabel: c.Operator}
}

func (c OperatorCandidate) filterKey() string {
	return c.Operator
}

func (c OperatorCandidate) entries() []Item { return []Item{c.Item()} }

// ValueCandidate is a literal: a quoted picklist value or a date literal.
type ValueCandidate struct {
	Literal string
	Label   string
}

func (c ValueCandidate) Item() Item {
	return Item{InsertValue: c.Literal, DisplayLabel: firstNonEmpty(c.Label, c.Literal)}
}

func (c ValueCandidate) filterKey() string {
	return c.Literal
}

func (c ValueCandidate) entries() []Item { return []Item{c.Item()} }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
