package parser

import (
	"strings"
	"unicode"
)

// TokenKind classifies a query token.
type TokenKind int

const (
	TokenTerm TokenKind = iota
	TokenAnd
	TokenOr
	TokenNot
	TokenLParen
	TokenRParen
	TokenEOF
)

func (k TokenKind) String() string {
	switch k {
	case TokenTerm:
		return "term"
	case TokenAnd:
		return "AND"
	case TokenOr:
		return "OR"
	case TokenNot:
		return "NOT"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	default:
		return "end of query"
	}
}

// Token is one lexical unit of a query. Pos is the byte offset of the token
// in the query string.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

// Lex splits a query on whitespace and around parentheses. AND, OR and NOT
// are recognised in any letter case; everything else is a term. The
// returned slice always ends with a TokenEOF.
func Lex(query string) []Token {
	var tokens []Token
	start := -1

	flush := func(end int) {
		if start < 0 {
			return
		}
		text := query[start:end]
		tokens = append(tokens, Token{Kind: wordKind(text), Text: text, Pos: start})
		start = -1
	}

	for i, r := range query {
		switch {
		case r == '(' || r == ')':
			flush(i)
			kind := TokenLParen
			if r == ')' {
				kind = TokenRParen
			}
			tokens = append(tokens, Token{Kind: kind, Text: string(r), Pos: i})
		case unicode.IsSpace(r):
			flush(i)
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(query))
	return append(tokens, Token{Kind: TokenEOF, Pos: len(query)})
}

func wordKind(word string) TokenKind {
	switch strings.ToUpper(word) {
	case "AND":
		return TokenAnd
	case "OR":
		return TokenOr
	case "NOT":
		return TokenNot
	default:
		return TokenTerm
	}
}
