package complete

import (
	"regexp"
	"strings"
)

// SourceDeclaration is one FROM occurrence in the query text.
type SourceDeclaration struct {
	Name  string
	Index int // offset of the FROM keyword
	Depth int
	// EnclosingGroup is the offset of the innermost open parenthesis, or -1
	// at the top level.
	EnclosingGroup int
}

// ActiveContext is the resolved source context at the cursor.
type ActiveContext struct {
	Depth        int
	Active       string // empty when no source is declared at this depth
	Parent       string // only set when Depth > 0
	Declarations []SourceDeclaration
}

var fromIdentRe = regexp.MustCompile(`^(?i:from)\s+([A-Za-z0-9_]+)`)

// Resolve scans text for source declarations and picks the one governing the
// cursor offset.
//
// The parent is the last declaration one level up, chosen by depth alone. With
// sibling sub-queries it can name a source from a different group.
func Resolve(text string, cursor int) ActiveContext {
	cursor = clamp(cursor, 0, len(text))
	decls := scanDeclarations(text)
	depth := depthAt(text, cursor)

	ctx := ActiveContext{Depth: depth, Declarations: decls}

	var active *SourceDeclaration

	for i := len(decls) - 1; i >= 0; i-- {
		if decls[i].Depth == depth && decls[i].Index <= cursor {
			active = &decls[i]

			break
		}
	}

	if active == nil {
		for i := range decls {
			if decls[i].Depth == depth && decls[i].Index > cursor {
				active = &decls[i]

				break
			}
		}
	}

	if active == nil {
		return ctx
	}

	ctx.Active = active.Name

	if depth > 0 && active.EnclosingGroup >= 0 {
		for i := len(decls) - 1; i >= 0; i-- {
			if decls[i].Depth == depth-1 {
				ctx.Parent = decls[i].Name

				break
			}
		}
	}

	return ctx
}

func scanDeclarations(text string) []SourceDeclaration {
	var (
		decls []SourceDeclaration
		stack []int
	)

	for i := 0; i < len(text); i++ {
		switch ch := text[i]; ch {
		case '(':
			stack = append(stack, i)

			continue
		case ')':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

			continue
		case 'F', 'f':
		default:
			continue
		}

		if i+4 > len(text) || !strings.EqualFold(text[i:i+4], "FROM") {
			continue
		}

		if i > 0 && isWordByte(text[i-1]) {
			continue
		}

		if i+4 < len(text) && !isSpaceByte(text[i+4]) {
			continue
		}

		m := fromIdentRe.FindStringSubmatch(text[i:])
		if m == nil {
			continue
		}

		enclosing := -1
		if len(stack) > 0 {
			enclosing = stack[len(stack)-1]
		}

		decls = append(decls, SourceDeclaration{
			Name:           m[1],
			Index:          i,
			Depth:          len(stack),
			EnclosingGroup: enclosing,
		})
	}

	return decls
}

// depthAt replays parentheses up to cursor. It ignores the full-text stack so
// unbalanced text after the cursor cannot shift the result.
func depthAt(text string, cursor int) int {
	depth := 0

	for i := range cursor {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth = max(0, depth-1)
		}
	}

	return depth
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func isSpaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	default:
		return false
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
