package soql

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer is the participle lexer definition for the query language. The
// trailing Other rule matches any single rune, so lexing never fails:
// malformed input degrades to Other tokens and unterminated strings.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},

	// Unterminated literals run to the end of input.
	{Name: "String", Pattern: `(?s)'(?:\\.|[^'\\])*(?:'|\\?$)`},

	// ISO dates and datetimes before plain numbers: 2024-01-31T10:00:00.000Z
	{Name: "Number", Pattern: `\d+-\d[-\d:T.Z+]*|\d+(?:\.\d+)?`},

	{Name: "Bind", Pattern: `:[\p{L}_][\p{L}\p{Nd}_]*`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{Nd}_]*`},
	{Name: "Op", Pattern: `!=|<>|<=|>=|[=<>]`},
	{Name: "Dot", Pattern: `\.`},
	{Name: "Comma", Pattern: `,`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Other", Pattern: `(?s:.)`},
})

// Token types, as assigned by Lexer.
var (
	TokenEOF        = lexer.EOF
	TokenWhitespace = Lexer.Symbols()["Whitespace"]
	TokenString     = Lexer.Symbols()["String"]
	TokenNumber     = Lexer.Symbols()["Number"] // numbers and date/datetime literals
	TokenBind       = Lexer.Symbols()["Bind"]   // :variable
	TokenIdent      = Lexer.Symbols()["Ident"]  // identifiers and keywords
	TokenOp         = Lexer.Symbols()["Op"]
	TokenDot        = Lexer.Symbols()["Dot"]
	TokenComma      = Lexer.Symbols()["Comma"]
	TokenLParen     = Lexer.Symbols()["LParen"]
	TokenRParen     = Lexer.Symbols()["RParen"]
	TokenOther      = Lexer.Symbols()["Other"]
)

// keywords recognised for highlighting and normalisation.
var keywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "AND": true, "OR": true, "NOT": true,
	"IN": true, "LIKE": true, "INCLUDES": true, "EXCLUDES": true, "ORDER": true,
	"GROUP": true, "BY": true, "HAVING": true, "LIMIT": true, "OFFSET": true,
	"ASC": true, "DESC": true, "NULLS": true, "FIRST": true, "LAST": true,
	"NULL": true, "TRUE": true, "FALSE": true, "WITH": true, "TYPEOF": true,
	"WHEN": true, "THEN": true, "ELSE": true, "END": true, "USING": true,
	"SCOPE": true, "FOR": true, "VIEW": true, "REFERENCE": true, "UPDATE": true,
	"ROLLUP": true, "CUBE": true, "ALL": true, "ROWS": true,
}

// IsKeyword reports whether word is a query keyword, ignoring case.
func IsKeyword(word string) bool {
	return keywords[strings.ToUpper(word)]
}

// Tokenize splits text into tokens, whitespace included, without the EOF token.
func Tokenize(text string) []lexer.Token {
	lex, err := Lexer.LexString("", text)
	if err != nil {
		return nil
	}

	var out []lexer.Token

	for {
		tok, err := lex.Next()
		if err != nil || tok.EOF() {
			return out
		}

		out = append(out, tok)
	}
}
