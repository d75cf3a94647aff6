package complete

import (
	"regexp"
	"strings"
)

// ListSeparator is appended after a field inserted into a projection list.
const ListSeparator = ", "

// Insertion describes the text edit that applying a suggestion produces.
type Insertion struct {
	Text   string // full text after the edit
	Cursor int    // cursor after the edit
	Start  int    // replaced range in the original text
	End    int
	// Inserted is the replacement text, separator included.
	Inserted string
}

var (
	selectPrefixRe = regexp.MustCompile(`(?i)^select\s+`)
	fromKeywordRe  = regexp.MustCompile(`(?i)\bfrom\b`)
)

// Apply replaces the partial segment before the cursor with value. Only the
// final unqualified segment is replaced, so a dotted prefix is kept.
//
// A list separator is appended when the text starts with SELECT, the first
// FROM lies after the cursor, value is not a relationship prefix, and the text
// after the cursor does not already start with a comma.
func Apply(text string, cursor int, value string) Insertion {
	cursor = clamp(cursor, 0, len(text))
	before, after := text[:cursor], text[cursor:]

	insert := value
	if needsSeparator(text, cursor, value) {
		insert += ListSeparator
	}

	return replaceToken(before, after, insert)
}

// ApplyAll inserts every name as one comma-joined replacement of the partial
// segment. No trailing separator is added.
func ApplyAll(text string, cursor int, names []string) Insertion {
	cursor = clamp(cursor, 0, len(text))

	return replaceToken(text[:cursor], text[cursor:], strings.Join(names, ListSeparator))
}

// TrailingToken returns the replaceable segment that ends at cursor.
func TrailingToken(text string, cursor int) string {
	before := text[:clamp(cursor, 0, len(text))]

	i := len(before)
	for i > 0 && isWordByte(before[i-1]) {
		i--
	}

	return before[i:]
}

func replaceToken(before, after, insert string) Insertion {
	token := TrailingToken(before, len(before))
	start := len(before) - len(token)

	return Insertion{
		Text:     before[:start] + insert + after,
		Cursor:   start + len(insert),
		Start:    start,
		End:      len(before),
		Inserted: insert,
	}
}

func needsSeparator(text string, cursor int, value string) bool {
	if strings.HasSuffix(value, ".") {
		return false
	}

	if !selectPrefixRe.MatchString(text[:cursor]) {
		return false
	}

	loc := fromKeywordRe.FindStringIndex(text)
	if loc == nil || loc[0] <= cursor {
		return false
	}

	return !strings.HasPrefix(strings.TrimLeft(text[cursor:], " \t\r\n"), ",")
}
