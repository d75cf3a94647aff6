package soql

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// clauseKeywords start a new line when they appear outside sub-queries.
var clauseKeywords = map[string]bool{
	"FROM": true, "WHERE": true, "GROUP": true, "ORDER": true, "HAVING": true,
	"LIMIT": true, "OFFSET": true, "WITH": true, "FOR": true, "USING": true,
}

// NormalizeQuery collapses whitespace runs outside string literals into a
// single space and trims the result. Queries are run in this form.
func NormalizeQuery(q string) string {
	var b strings.Builder

	for _, tok := range Tokenize(q) {
		if tok.Type == TokenWhitespace {
			b.WriteByte(' ')

			continue
		}

		b.WriteString(tok.Value)
	}

	return strings.TrimSpace(b.String())
}

// Format rewrites a query with upper-case keywords and one top-level clause
// per line. Sub-queries stay on the line of their enclosing clause.
func Format(q string) string {
	f := &formatter{}
	f.format(Tokenize(q))

	return strings.TrimSpace(f.b.String()) + "\n"
}

type formatter struct {
	b     strings.Builder
	depth int
	prev  lexer.Token
}

func (f *formatter) write(s string) {
	f.b.WriteString(s)
}

func (f *formatter) format(tokens []lexer.Token) {
	pendingSpace := false

	for _, tok := range tokens {
		if tok.Type == TokenWhitespace {
			pendingSpace = true

			continue
		}

		value := tok.Value
		keyword := tok.Type == TokenIdent && f.prev.Type != TokenDot && IsKeyword(value)

		if keyword {
			value = strings.ToUpper(value)
		}

		switch {
		case f.prev.Value == "":
		case keyword && f.depth == 0 && clauseKeywords[value]:
			f.write("\n")
		case f.glued(tok):
		case pendingSpace || f.needsSpace(tok):
			f.write(" ")
		}

		f.write(value)

		switch tok.Type {
		case TokenLParen:
			f.depth++
		case TokenRParen:
			if f.depth > 0 {
				f.depth--
			}
		}

		f.prev = lexer.Token{Type: tok.Type, Value: value}
		pendingSpace = false
	}
}

// glued reports tokens that never take a leading space.
func (f *formatter) glued(tok lexer.Token) bool {
	switch {
	case tok.Type == TokenDot, tok.Type == TokenComma, tok.Type == TokenRParen:
		return true
	case f.prev.Type == TokenDot, f.prev.Type == TokenLParen:
		return true
	default:
		return false
	}
}

func (f *formatter) needsSpace(tok lexer.Token) bool {
	return f.prev.Type == TokenComma || tok.Type == TokenOp || f.prev.Type == TokenOp
}
