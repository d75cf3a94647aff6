package soql_test

import (
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/rlch/soql"
)

// cmpIgnorePos compares tokens by type and value only.
var cmpIgnorePos = cmp.Options{
	cmpopts.IgnoreFields(lexer.Token{}, "Pos"),
}

// significant drops whitespace tokens.
func significant(tokens []lexer.Token) []lexer.Token {
	out := make([]lexer.Token, 0, len(tokens))

	for _, tok := range tokens {
		if tok.Type != soql.TokenWhitespace {
			out = append(out, tok)
		}
	}

	return out
}

func tok(typ lexer.TokenType, value string) lexer.Token {
	return lexer.Token{Type: typ, Value: value}
}
