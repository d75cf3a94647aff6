package soql

import (
	"context"
	"strings"
)

// SchemaProvider is implemented by backends that can describe an org's objects.
type SchemaProvider interface {
	// ListObjects returns the catalog of queryable objects (name, label, key prefix).
	ListObjects(ctx context.Context, tooling bool) ([]SchemaDescriptor, error)

	// Describe returns the full description of a single object.
	Describe(ctx context.Context, name string, tooling bool) (*SchemaDescriptor, error)
}

// SchemaDescriptor describes a query source. Catalog entries only carry the
// scalar properties; described entries also carry fields and child relationships.
type SchemaDescriptor struct {
	Name        string `json:"name" yaml:"name"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	LabelPlural string `json:"labelPlural,omitempty" yaml:"labelPlural,omitempty"`
	KeyPrefix   string `json:"keyPrefix,omitempty" yaml:"keyPrefix,omitempty"`
	Custom      bool   `json:"custom,omitempty" yaml:"custom,omitempty"`
	Queryable   bool   `json:"queryable,omitempty" yaml:"queryable,omitempty"`
	Createable  bool   `json:"createable,omitempty" yaml:"createable,omitempty"`
	Updateable  bool   `json:"updateable,omitempty" yaml:"updateable,omitempty"`
	Deletable   bool   `json:"deletable,omitempty" yaml:"deletable,omitempty"`
	Searchable  bool   `json:"searchable,omitempty" yaml:"searchable,omitempty"`

	Fields             []FieldDescriptor   `json:"fields,omitempty" yaml:"fields,omitempty"`
	ChildRelationships []ChildRelationship `json:"childRelationships,omitempty" yaml:"childRelationships,omitempty"`
}

// FieldDescriptor describes one field of an object.
type FieldDescriptor struct {
	Name              string          `json:"name" yaml:"name"`
	Label             string          `json:"label,omitempty" yaml:"label,omitempty"`
	Type              string          `json:"type" yaml:"type"`
	Length            int             `json:"length,omitempty" yaml:"length,omitempty"`
	Calculated        bool            `json:"calculated,omitempty" yaml:"calculated,omitempty"`
	CalculatedFormula string          `json:"calculatedFormula,omitempty" yaml:"calculatedFormula,omitempty"`
	Nillable          bool            `json:"nillable,omitempty" yaml:"nillable,omitempty"`
	Custom            bool            `json:"custom,omitempty" yaml:"custom,omitempty"`
	PicklistValues    []PicklistValue `json:"picklistValues,omitempty" yaml:"picklistValues,omitempty"`
	ReferenceTo       []string        `json:"referenceTo,omitempty" yaml:"referenceTo,omitempty"`
	RelationshipName  string          `json:"relationshipName,omitempty" yaml:"relationshipName,omitempty"`
}

// PicklistValue is one entry of a picklist field's value set.
type PicklistValue struct {
	Label  string `json:"label" yaml:"label"`
	Value  string `json:"value" yaml:"value"`
	Active bool   `json:"active" yaml:"active"`
}

// ChildRelationship is a reverse link from a parent object to a child object.
type ChildRelationship struct {
	RelationshipName string `json:"relationshipName,omitempty" yaml:"relationshipName,omitempty"`
	ChildSObject     string `json:"childSObject" yaml:"childSObject"`
	Field            string `json:"field,omitempty" yaml:"field,omitempty"`
	Label            string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Described reports whether the descriptor carries a field list.
func (s *SchemaDescriptor) Described() bool {
	return s != nil && s.Fields != nil
}

// Field returns the field with the given name, compared case-insensitively.
func (s *SchemaDescriptor) Field(name string) (*FieldDescriptor, bool) {
	if s == nil {
		return nil, false
	}

	for i := range s.Fields {
		if strings.EqualFold(s.Fields[i].Name, name) {
			return &s.Fields[i], true
		}
	}

	return nil, false
}

// FieldByRelationship returns the reference field whose relationship name is
// exactly rel. Relationship names are matched case-sensitively.
func (s *SchemaDescriptor) FieldByRelationship(rel string) (*FieldDescriptor, bool) {
	if s == nil || rel == "" {
		return nil, false
	}

	for i := range s.Fields {
		if s.Fields[i].RelationshipName == rel {
			return &s.Fields[i], true
		}
	}

	return nil, false
}

// ChildObject maps a child relationship name (case-insensitive) to the child
// object's API name.
func (s *SchemaDescriptor) ChildObject(rel string) (string, bool) {
	if s == nil {
		return "", false
	}

	for _, cr := range s.ChildRelationships {
		if cr.RelationshipName != "" && strings.EqualFold(cr.RelationshipName, rel) {
			return cr.ChildSObject, true
		}
	}

	return "", false
}

// ActivePicklistValues returns the field's active picklist entries in order.
func (f *FieldDescriptor) ActivePicklistValues() []PicklistValue {
	var out []PicklistValue

	for _, pv := range f.PicklistValues {
		if pv.Active {
			out = append(out, pv)
		}
	}

	return out
}

// IsRelationship reports whether the field can be used as a path segment.
func (f *FieldDescriptor) IsRelationship() bool {
	return f.Type == FieldTypeReference && f.RelationshipName != ""
}

// FindObject returns the catalog entry whose name matches case-insensitively.
func FindObject(objects []SchemaDescriptor, name string) (*SchemaDescriptor, bool) {
	for i := range objects {
		if strings.EqualFold(objects[i].Name, name) {
			return &objects[i], true
		}
	}

	return nil, false
}

// FilterObjects returns the entries whose label, name or key prefix contains
// search, compared case-insensitively. An empty search returns all entries.
func FilterObjects(objects []SchemaDescriptor, search string) []SchemaDescriptor {
	if search == "" {
		return objects
	}

	needle := strings.ToLower(search)
	out := make([]SchemaDescriptor, 0, len(objects))

	for _, o := range objects {
		if strings.Contains(strings.ToLower(o.Label), needle) ||
			strings.Contains(strings.ToLower(o.Name), needle) ||
			strings.Contains(strings.ToLower(o.KeyPrefix), needle) {
			out = append(out, o)
		}
	}

	return out
}
