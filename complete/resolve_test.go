package complete_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/rlch/soql/complete"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		depth  int
		active string
		parent string
	}{
		{
			name:   "top level",
			input:  "SELECT Id FROM Account WHERE |",
			active: "Account",
		},
		{
			name:   "projection before FROM picks the next declaration",
			input:  "SELECT Na| FROM Account",
			active: "Account",
		},
		{
			name:  "FROM without a name yet",
			input: "SELECT Id FROM |",
		},
		{
			name:   "sub-query without parent declaration",
			input:  "SELECT (SELECT Id FROM Contacts WHERE |",
			depth:  1,
			active: "Contacts",
		},
		{
			name:   "sub-query with parent",
			input:  "SELECT Id, (SELECT Id FROM Contacts WHERE |) FROM Account",
			depth:  1,
			active: "Contacts",
			parent: "Account",
		},
		{
			name:   "back at the top after a sub-query",
			input:  "SELECT Id, (SELECT Id FROM Contacts) FROM Account WHERE |",
			active: "Account",
		},
		{
			name:   "identifiers starting with from are not declarations",
			input:  "SELECT fromDate__c FROM Account WHERE |",
			active: "Account",
		},
		{
			name:   "keyword is case-insensitive",
			input:  "select id from contact where |",
			active: "contact",
		},
		{
			name:   "unbalanced text after the cursor is ignored",
			input:  "SELECT Id FROM Account WHERE | (((",
			active: "Account",
		},
		{
			name:   "stray closing parens floor the depth",
			input:  ")) SELECT Id FROM Account |",
			active: "Account",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			text, cursor := at(tt.input)
			ctx := complete.Resolve(text, cursor)

			assert.Equal(t, tt.depth, ctx.Depth, "depth")
			assert.Equal(t, tt.active, ctx.Active, "active")
			assert.Equal(t, tt.parent, ctx.Parent, "parent")
		})
	}
}

func TestResolve_Declarations(t *testing.T) {
	t.Parallel()

	text := "SELECT Id, (SELECT Id FROM Contacts) FROM Account"
	ctx := complete.Resolve(text, len(text))

	want := []complete.SourceDeclaration{
		{Name: "Contacts", Index: 22, Depth: 1, EnclosingGroup: 11},
		{Name: "Account", Index: 37, Depth: 0, EnclosingGroup: -1},
	}
	if diff := cmp.Diff(want, ctx.Declarations); diff != "" {
		t.Errorf("Declarations mismatch (-want +got):\n%s", diff)
	}
}

// Parent selection matches on depth only. With sibling groups the parent is
// the last declaration one level up anywhere in the text, even when it belongs
// to a different group than the cursor.
func TestResolve_ParentIsChosenByDepthOnly(t *testing.T) {
	t.Parallel()

	text, cursor := at("SELECT (SELECT (SELECT Id FROM A1 |) FROM P1), (SELECT Id FROM P2) FROM X")
	ctx := complete.Resolve(text, cursor)

	assert.Equal(t, 2, ctx.Depth)
	assert.Equal(t, "A1", ctx.Active)
	assert.Equal(t, "P2", ctx.Parent)
}

func TestResolve_DepthInvariants(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"SELECT Id FROM Account",
		"SELECT Id, (SELECT Id FROM Contacts), (SELECT Id FROM Opportunities) FROM Account WHERE Id IN (SELECT AccountId FROM Contact)",
		"SELECT (SELECT (SELECT Id FROM A) FROM B) FROM C",
	}

	for _, text := range inputs {
		for cursor := 0; cursor <= len(text); cursor++ {
			ctx := complete.Resolve(text, cursor)
			assert.GreaterOrEqual(t, ctx.Depth, 0)

			if ctx.Depth == 0 {
				assert.Empty(t, ctx.Parent, "cursor %d in %q", cursor, text)
			}
		}
	}
}

func TestResolve_ClampsCursor(t *testing.T) {
	t.Parallel()

	ctx := complete.Resolve("SELECT Id FROM Account", 500)
	assert.Equal(t, "Account", ctx.Active)

	ctx = complete.Resolve("SELECT Id FROM Account", -3)
	assert.Equal(t, "Account", ctx.Active)
}
