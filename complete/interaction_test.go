package complete_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rlch/soql/complete"
)

func readyList(labels ...string) complete.Suggestions {
	s := complete.Suggestions{State: complete.ListReady}
	for _, l := range labels {
		s.Items = append(s.Items, complete.Item{InsertValue: l, DisplayLabel: l})
	}

	return s
}

func TestInteraction_Show(t *testing.T) {
	t.Parallel()

	s := complete.Hidden().Show(readyList("Id", "Name"))
	assert.True(t, s.Visible)
	assert.Equal(t, 0, s.Selected)
	assert.Equal(t, 2, s.Count())

	s = s.Show(complete.Suggestions{State: complete.ListLoading, Placeholder: complete.LoadingFields})
	assert.True(t, s.Visible)
	assert.Equal(t, -1, s.Selected)

	s = s.Show(complete.Suggestions{State: complete.ListHidden})
	assert.False(t, s.Visible)

	s = s.Show(complete.Suggestions{State: complete.ListReady})
	assert.False(t, s.Visible, "empty ready list is hidden")
}

func TestInteraction_Navigation(t *testing.T) {
	t.Parallel()

	list := readyList("Id", "Name", "OwnerId")
	s := complete.Hidden().Show(list)

	s, act := s.HandleKey(complete.KeyDown, list, false)
	assert.Equal(t, complete.ActionNone, act.Kind)
	assert.Equal(t, 1, s.Selected)

	s, _ = s.HandleKey(complete.KeyDown, list, false)
	s, _ = s.HandleKey(complete.KeyDown, list, false)
	assert.Equal(t, 2, s.Selected, "clamped at the last row")

	s, _ = s.HandleKey(complete.KeyUp, list, false)
	s, _ = s.HandleKey(complete.KeyUp, list, false)
	s, _ = s.HandleKey(complete.KeyUp, list, false)
	assert.Equal(t, 0, s.Selected, "clamped at the first row")

	s, act = s.HandleKey(complete.KeyTab, list, false)
	assert.Equal(t, complete.ActionFocus, act.Kind)
	assert.Equal(t, "Id", act.Item.InsertValue)
	assert.True(t, s.Visible)

	s, _ = s.HandleKey(complete.KeyDown, list, false)
	s, act = s.HandleKey(complete.KeyEnter, list, false)
	assert.Equal(t, complete.ActionInsert, act.Kind)
	assert.Equal(t, "Name", act.Item.InsertValue)
	assert.False(t, s.Visible)
}

func TestInteraction_Escape(t *testing.T) {
	t.Parallel()

	list := readyList("Id")
	s, act := complete.Hidden().Show(list).HandleKey(complete.KeyEscape, list, false)

	assert.Equal(t, complete.ActionHide, act.Kind)
	assert.False(t, s.Visible)
	assert.Equal(t, -1, s.Selected)
}

func TestInteraction_SelectAll(t *testing.T) {
	t.Parallel()

	list := readyList("Id", "Name")
	s := complete.Hidden().Show(list)

	same, act := s.HandleKey(complete.KeySelectAll, list, false)
	assert.Equal(t, complete.ActionNone, act.Kind)
	assert.Equal(t, s, same)

	s, act = s.HandleKey(complete.KeySelectAll, list, true)
	assert.Equal(t, complete.ActionInsertAll, act.Kind)
	assert.False(t, s.Visible)
}

func TestInteraction_IgnoredKeys(t *testing.T) {
	t.Parallel()

	list := readyList("Id", "Name")

	s, act := complete.Hidden().HandleKey(complete.KeyEnter, list, true)
	assert.Equal(t, complete.ActionNone, act.Kind)
	assert.False(t, s.Visible)

	loading := complete.Suggestions{State: complete.ListLoading}
	s = complete.Hidden().Show(loading)

	s, act = s.HandleKey(complete.KeyEnter, loading, false)
	assert.Equal(t, complete.ActionNone, act.Kind)
	assert.True(t, s.Visible)

	s, act = s.HandleKey(complete.KeyTab, loading, false)
	assert.Equal(t, complete.ActionNone, act.Kind)

	// A list that changed under the state is not indexed.
	s = complete.Hidden().Show(list)
	_, act = s.HandleKey(complete.KeyEnter, readyList("Id"), false)
	assert.Equal(t, complete.ActionNone, act.Kind)
}
