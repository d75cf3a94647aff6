package tui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// editor is the query textarea. The completion engine works on byte
// offsets, so it also converts between those and the textarea's row/column.
type editor struct {
	textarea.Model
}

func newEditor() editor {
	ta := textarea.New()
	ta.Placeholder = "SELECT Id FROM Account"
	ta.Prompt = ""
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ta.Cursor.SetMode(cursor.CursorStatic)
	ta.SetWidth(80)
	ta.SetHeight(6)
	ta.Focus()

	return editor{Model: ta}
}

// offset is the cursor as a byte offset into Value.
func (e *editor) offset() int {
	lines := strings.Split(e.Value(), "\n")
	row := min(e.Line(), len(lines)-1)

	li := e.LineInfo()
	col := li.StartColumn + li.ColumnOffset

	off := 0
	for _, l := range lines[:row] {
		off += len(l) + 1
	}

	line := lines[row]

	i := 0
	for ; col > 0 && i < len(line); col-- {
		_, size := utf8.DecodeRuneInString(line[i:])
		i += size
	}

	return off + i
}

// set replaces the contents and puts the cursor at a byte offset.
func (e *editor) set(text string, at int) {
	at = min(max(at, 0), len(text))

	e.SetValue(text[:at])
	target := len(e.Value())

	rest := text[at:]
	if rest == "" {
		return
	}

	e.InsertString(rest)

	for n := utf8.RuneCountInString(e.Value()); n > 0 && e.offset() > target; n-- {
		e.Model, _ = e.Update(tea.KeyMsg{Type: tea.KeyLeft})
	}
}

// firstLine is the trimmed first non-empty line, used as a save label.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			return l
		}
	}

	return ""
}
