package tui

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/charmbracelet/lipgloss"

	"github.com/rlch/soql"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	editorStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	focusedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DDDDDD"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	keywordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C678DD")).Bold(true)
	stringStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#98C379"))
	numberStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#D19A66"))
	bindStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#56B6C2"))
)

func tokenStyle(tok lexer.Token) (lipgloss.Style, bool) {
	switch tok.Type {
	case soql.TokenString:
		return stringStyle, true
	case soql.TokenNumber:
		return numberStyle, true
	case soql.TokenBind:
		return bindStyle, true
	case soql.TokenIdent:
		if soql.IsKeyword(tok.Value) {
			return keywordStyle, true
		}
	}

	return lipgloss.Style{}, false
}

// paint styles s line by line so that embedded newlines survive.
func paint(style lipgloss.Style, styled bool, s string) string {
	if !styled || s == "" {
		return s
	}

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = style.Render(l)
		}
	}

	return strings.Join(lines, "\n")
}

// highlight renders a query with syntax colours.
func highlight(text string) string {
	var b strings.Builder

	for _, tok := range soql.Tokenize(text) {
		style, styled := tokenStyle(tok)
		b.WriteString(paint(style, styled, tok.Value))
	}

	return b.String()
}
