package complete_test

import (
	"strings"

	"github.com/rlch/soql"
)

// fakeCatalog is an in-memory catalog keyed by lower-case object name.
type fakeCatalog struct {
	objects []soql.SchemaDescriptor
	tooling []soql.SchemaDescriptor
	schemas map[string]*soql.SchemaDescriptor
}

func (c *fakeCatalog) Objects(tooling bool) []soql.SchemaDescriptor {
	if tooling {
		return c.tooling
	}

	return c.objects
}

func (c *fakeCatalog) Schema(name string) (*soql.SchemaDescriptor, bool) {
	s, ok := c.schemas[strings.ToLower(name)]

	return s, ok
}

func (c *fakeCatalog) without(names ...string) *fakeCatalog {
	out := &fakeCatalog{objects: c.objects, tooling: c.tooling, schemas: map[string]*soql.SchemaDescriptor{}}
	for k, v := range c.schemas {
		out.schemas[k] = v
	}

	for _, n := range names {
		delete(out.schemas, strings.ToLower(n))
	}

	return out
}

// recordingEnsurer counts schema requests.
type recordingEnsurer struct {
	names []string
}

func (r *recordingEnsurer) EnsureSchema(name string) {
	r.names = append(r.names, name)
}

func newCatalog() *fakeCatalog {
	account := &soql.SchemaDescriptor{
		Name: "Account", Label: "Account", KeyPrefix: "001",
		Fields: []soql.FieldDescriptor{
			{Name: "Id", Label: "Account ID", Type: "id"},
			{Name: "Name", Label: "Account Name", Type: "string"},
			{Name: "OwnerId", Label: "Owner ID", Type: "reference", ReferenceTo: []string{"User"}, RelationshipName: "Owner"},
			{Name: "ParentId", Label: "Parent Account ID", Type: "reference", ReferenceTo: []string{"Account"}, RelationshipName: "Parent"},
			{Name: "Industry", Label: "Industry", Type: "picklist", PicklistValues: []soql.PicklistValue{
				{Label: "Banking", Value: "Banking", Active: true},
				{Label: "Energy", Value: "Energy", Active: true},
			}},
			{Name: "Status__c", Label: "Status", Type: "picklist", PicklistValues: []soql.PicklistValue{
				{Label: "Open", Value: "Open", Active: true},
				{Label: "Closed", Value: "Closed", Active: false},
			}},
			{Name: "CreatedDate", Label: "Created Date", Type: "datetime"},
			{Name: "AnnualRevenue", Label: "Annual Revenue", Type: "currency"},
			{Name: "Tags__c", Label: "Tags", Type: "multipicklist", PicklistValues: []soql.PicklistValue{
				{Label: "VIP", Value: "vip", Active: true},
			}},
			{Name: "Location__c", Label: "Location", Type: "location"},
		},
		ChildRelationships: []soql.ChildRelationship{
			{RelationshipName: "Contacts", ChildSObject: "Contact", Field: "AccountId"},
			{RelationshipName: "Opportunities", ChildSObject: "Opportunity", Field: "AccountId"},
		},
	}

	contact := &soql.SchemaDescriptor{
		Name: "Contact", Label: "Contact", KeyPrefix: "003",
		Fields: []soql.FieldDescriptor{
			{Name: "Id", Type: "id"},
			{Name: "LastName", Type: "string"},
			{Name: "Email", Type: "email"},
			{Name: "AccountId", Type: "reference", ReferenceTo: []string{"Account"}, RelationshipName: "Account"},
		},
	}

	user := &soql.SchemaDescriptor{
		Name: "User", Label: "User", KeyPrefix: "005",
		Fields: []soql.FieldDescriptor{
			{Name: "Id", Type: "id"},
			{Name: "Name", Type: "string"},
			{Name: "ManagerId", Type: "reference", ReferenceTo: []string{"User"}, RelationshipName: "Manager"},
			{Name: "ProfileId", Type: "reference", ReferenceTo: []string{"Profile"}, RelationshipName: "Profile"},
		},
	}

	task := &soql.SchemaDescriptor{
		Name: "Task", Label: "Task", KeyPrefix: "00T",
		Fields: []soql.FieldDescriptor{
			{Name: "Id", Type: "id"},
			{Name: "Subject", Type: "string"},
			{Name: "WhoId", Type: "reference", ReferenceTo: []string{"Contact", "Lead"}, RelationshipName: "Who"},
		},
	}

	return &fakeCatalog{
		objects: []soql.SchemaDescriptor{
			{Name: "Account", Label: "Account", KeyPrefix: "001"},
			{Name: "Contact", Label: "Contact", KeyPrefix: "003"},
			{Name: "User", Label: "User", KeyPrefix: "005"},
			{Name: "Opportunity", Label: "Opportunity", KeyPrefix: "006"},
			{Name: "Task", Label: "Task", KeyPrefix: "00T"},
			{Name: "Profile", Label: "Profile", KeyPrefix: "00e"},
		},
		tooling: []soql.SchemaDescriptor{
			{Name: "ApexClass", Label: "Apex Class", KeyPrefix: "01p"},
		},
		schemas: map[string]*soql.SchemaDescriptor{
			"account": account,
			"contact": contact,
			"user":    user,
			"task":    task,
		},
	}
}

// at returns text without the | marker and the marker's offset.
func at(marked string) (string, int) {
	i := strings.Index(marked, "|")
	if i < 0 {
		return marked, len(marked)
	}

	return marked[:i] + marked[i+1:], i
}
