package results

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rlch/soql"
)

// Describe renders the object property, field and child relationship
// tables for a described object.
func Describe(w io.Writer, s *soql.SchemaDescriptor) error {
	props := table.NewWriter()
	props.SetTitle(s.Name)
	props.SetStyle(table.StyleLight)
	props.AppendHeader(table.Row{"Property", "Value"})

	for _, p := range []struct{ key, value string }{
		{"name", s.Name},
		{"label", s.Label},
		{"labelPlural", s.LabelPlural},
		{"keyPrefix", s.KeyPrefix},
	} {
		if p.value != "" {
			props.AppendRow(table.Row{p.key, p.value})
		}
	}

	for _, p := range []struct {
		key   string
		value bool
	}{
		{"custom", s.Custom},
		{"queryable", s.Queryable},
		{"createable", s.Createable},
		{"updateable", s.Updateable},
		{"deletable", s.Deletable},
		{"searchable", s.Searchable},
	} {
		props.AppendRow(table.Row{p.key, strconv.FormatBool(p.value)})
	}

	if _, err := fmt.Fprintln(w, props.Render()); err != nil {
		return err
	}

	fields := table.NewWriter()
	fields.SetTitle("Fields (" + strconv.Itoa(len(s.Fields)) + ")")
	fields.SetStyle(table.StyleLight)
	fields.AppendHeader(table.Row{"Field API", "Label", "Type", "Picklist/Formula"})

	for i := range s.Fields {
		f := &s.Fields[i]
		fields.AppendRow(table.Row{f.Name, f.Label, soql.TypeSummary(f), soql.FieldDetails(f)})
	}

	if _, err := fmt.Fprintln(w, fields.Render()); err != nil {
		return err
	}

	if len(s.ChildRelationships) == 0 {
		return nil
	}

	rels := table.NewWriter()
	rels.SetTitle("Child Relationships (" + strconv.Itoa(len(s.ChildRelationships)) + ")")
	rels.SetStyle(table.StyleLight)
	rels.AppendHeader(table.Row{"Relationship Name", "Child Object", "Field", "Label"})

	for _, r := range s.ChildRelationships {
		name := r.RelationshipName
		if name == "" {
			name = "(none)"
		}

		rels.AppendRow(table.Row{name, r.ChildSObject, r.Field, r.Label})
	}

	_, err := fmt.Fprintln(w, rels.Render())

	return err
}

// Objects renders a catalog listing.
func Objects(w io.Writer, objects []soql.SchemaDescriptor) error {
	if len(objects) == 0 {
		_, err := fmt.Fprintln(w, "No objects found")

		return err
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"API Name", "Label", "Key Prefix"})

	for _, o := range objects {
		prefix := o.KeyPrefix
		if prefix == "" {
			prefix = "N/A"
		}

		tw.AppendRow(table.Row{o.Name, o.Label, prefix})
	}

	_, err := fmt.Fprintln(w, tw.Render())

	return err
}
