package complete

// Key is a navigation key the suggestion list reacts to.
type Key int

const (
	KeyTab Key = iota
	KeyEscape
	KeyUp
	KeyDown
	KeyEnter
	KeySelectAll
)

// ActionKind is what the editor must do after a key.
type ActionKind int

const (
	ActionNone ActionKind = iota
	// ActionFocus moves input focus to the selected row.
	ActionFocus
	// ActionInsert applies the selected item through Apply.
	ActionInsert
	// ActionInsertAll applies every matching field through ApplyAll.
	ActionInsertAll
	// ActionHide closes the list.
	ActionHide
)

// Action is the result of a key press.
type Action struct {
	Kind ActionKind
	Item Item
}

// Interaction tracks list visibility and the highlighted row. Selected is -1
// or an index into the rows the list was shown with.
type Interaction struct {
	Visible  bool
	Selected int
	count    int
}

// Hidden returns the initial state.
func Hidden() Interaction {
	return Interaction{Selected: -1}
}

// Show transitions on a freshly built list: a ready list selects its first
// row, a loading list is visible with no selection, anything else hides.
func (s Interaction) Show(list Suggestions) Interaction {
	switch list.State {
	case ListReady:
		if len(list.Items) == 0 {
			return Hidden()
		}

		return Interaction{Visible: true, Selected: 0, count: len(list.Items)}
	case ListLoading:
		return Interaction{Visible: true, Selected: -1}
	default:
		return Hidden()
	}
}

// Hide closes the list.
func (s Interaction) Hide() Interaction {
	return Hidden()
}

// Count is the number of selectable rows.
func (s Interaction) Count() int {
	return s.count
}

// Move shifts the selection by delta, clamped to the list.
func (s Interaction) Move(delta int) Interaction {
	if !s.Visible || s.count == 0 {
		return s
	}

	s.Selected = clamp(s.Selected+delta, 0, s.count-1)

	return s
}

// HandleKey applies a key to the state. list must be the list the state was
// shown with. canSelectAll reports whether the select-all shortcut applies.
func (s Interaction) HandleKey(k Key, list Suggestions, canSelectAll bool) (Interaction, Action) {
	if !s.Visible {
		return s, Action{}
	}

	switch k {
	case KeyEscape:
		return Hidden(), Action{Kind: ActionHide}
	case KeySelectAll:
		if canSelectAll {
			return Hidden(), Action{Kind: ActionInsertAll}
		}

		return s, Action{}
	}

	if s.count == 0 || s.count != len(list.Items) {
		return s, Action{}
	}

	switch k {
	case KeyTab:
		s.Selected = clamp(s.Selected, 0, s.count-1)

		return s, Action{Kind: ActionFocus, Item: list.Items[s.Selected]}
	case KeyUp:
		return s.Move(-1), Action{}
	case KeyDown:
		return s.Move(1), Action{}
	case KeyEnter:
		if s.Selected < 0 {
			return s, Action{}
		}

		return Hidden(), Action{Kind: ActionInsert, Item: list.Items[s.Selected]}
	}

	return s, Action{}
}
