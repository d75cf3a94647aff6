package lsp

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"go.lsp.dev/protocol"
)

// OffsetAt converts an LSP position, whose character is counted in UTF-16
// code units, into a byte offset into text. Positions past the end of a line
// clamp to the line end.
func OffsetAt(text string, pos protocol.Position) int {
	i := 0

	for line := uint32(0); line < pos.Line; line++ {
		j := strings.IndexByte(text[i:], '\n')
		if j < 0 {
			return len(text)
		}

		i += j + 1
	}

	col := uint32(0)

	for k, r := range text[i:] {
		if r == '\n' || col >= pos.Character {
			return i + k
		}

		col += uint32(utf16.RuneLen(r))
	}

	return len(text)
}

// PositionAt converts a byte offset into an LSP position.
func PositionAt(text string, offset int) protocol.Position {
	offset = min(max(offset, 0), len(text))
	before := text[:offset]

	line := strings.Count(before, "\n")
	start := strings.LastIndexByte(before, '\n') + 1

	col := 0

	for rest := before[start:]; rest != ""; {
		r, size := utf8.DecodeRuneInString(rest)
		col += utf16.RuneLen(r)
		rest = rest[size:]
	}

	return protocol.Position{Line: uint32(line), Character: uint32(col)}
}
