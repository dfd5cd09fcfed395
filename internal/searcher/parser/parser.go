// Package parser turns boolean query strings into expression trees.
//
// Grammar, loosest binding first:
//
//	query   = orExpr EOF
//	orExpr  = andExpr { "OR" andExpr }
//	andExpr = notExpr { ["AND"] notExpr }
//	notExpr = "NOT" notExpr | primary
//	primary = TERM | "(" orExpr ")"
//
// Two operands written side by side are joined with AND.
package parser

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/errors"
)

// SyntaxError describes a malformed query. Token is the offending token
// text (empty at end of query) and Pos its byte offset.
type SyntaxError struct {
	Query string
	Token string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("syntax error at position %d near %q: %s", e.Pos, e.Token, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return apperrors.ErrInvalidQuery
}

// Query is a parsed query.
type Query struct {
	Raw  string
	Root *Node
}

// Canonical returns the canonical form of the expression.
func (q *Query) Canonical() string {
	return q.Root.String()
}

// Parser normalises query terms with the same preprocessor used for the
// corpus, so that "Cats" finds documents indexed under "cat".
type Parser struct {
	pre *tokenizer.Preprocessor
}

// New returns a Parser. A nil preprocessor selects the Porter default.
func New(pre *tokenizer.Preprocessor) *Parser {
	if pre == nil {
		pre = tokenizer.Default()
	}
	return &Parser{pre: pre}
}

// Parse parses query. Malformed input yields a *SyntaxError and no tree.
func (p *Parser) Parse(query string) (*Query, error) {
	s := &state{query: query, tokens: Lex(query), pre: p.pre}
	if s.peek().Kind == TokenEOF {
		return nil, s.errorf(s.peek(), "empty query")
	}
	root, err := s.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := s.peek(); tok.Kind != TokenEOF {
		if tok.Kind == TokenRParen {
			return nil, s.errorf(tok, "unbalanced ')' with no matching '('")
		}
		return nil, s.errorf(tok, "unexpected %s", tok.Kind)
	}
	return &Query{Raw: query, Root: root}, nil
}

type state struct {
	query  string
	tokens []Token
	pos    int
	pre    *tokenizer.Preprocessor
}

func (s *state) peek() Token {
	return s.tokens[s.pos]
}

func (s *state) next() Token {
	tok := s.tokens[s.pos]
	if tok.Kind != TokenEOF {
		s.pos++
	}
	return tok
}

func (s *state) errorf(tok Token, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Query: s.query,
		Token: tok.Text,
		Pos:   tok.Pos,
		Msg:   fmt.Sprintf(format, args...),
	}
}

func (s *state) parseOr() (*Node, error) {
	left, err := s.parseAnd()
	if err != nil {
		return nil, err
	}
	for s.peek().Kind == TokenOr {
		op := s.next()
		right, err := s.parseOperand(op, s.parseAnd)
		if err != nil {
			return nil, err
		}
		left = Or(left, right)
	}
	return left, nil
}

func (s *state) parseAnd() (*Node, error) {
	left, err := s.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		switch s.peek().Kind {
		case TokenAnd:
			op := s.next()
			right, err := s.parseOperand(op, s.parseNot)
			if err != nil {
				return nil, err
			}
			left = And(left, right)
		case TokenTerm, TokenNot, TokenLParen:
			right, err := s.parseNot()
			if err != nil {
				return nil, err
			}
			left = And(left, right)
		default:
			return left, nil
		}
	}
}

func (s *state) parseNot() (*Node, error) {
	if s.peek().Kind == TokenNot {
		op := s.next()
		operand, err := s.parseOperand(op, s.parseNot)
		if err != nil {
			return nil, err
		}
		return Not(operand), nil
	}
	return s.parsePrimary()
}

// parseOperand parses the operand that must follow op, reporting a
// missing operand against op.
func (s *state) parseOperand(op Token, parse func() (*Node, error)) (*Node, error) {
	switch tok := s.peek(); tok.Kind {
	case TokenEOF:
		return nil, s.errorf(op, "missing operand after %s", op.Kind)
	case TokenAnd, TokenOr, TokenRParen:
		return nil, s.errorf(tok, "missing operand after %s", op.Kind)
	}
	return parse()
}

func (s *state) parsePrimary() (*Node, error) {
	tok := s.next()
	switch tok.Kind {
	case TokenTerm:
		return Term(s.pre.Term(tok.Text), tok.Text), nil
	case TokenLParen:
		if s.peek().Kind == TokenRParen {
			return nil, s.errorf(tok, "empty parentheses")
		}
		inner, err := s.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := s.peek(); closing.Kind != TokenRParen {
			return nil, s.errorf(tok, "missing ')' for '(' opened here")
		}
		s.next()
		return inner, nil
	case TokenEOF:
		return nil, s.errorf(tok, "expected a term, NOT or '('")
	case TokenRParen:
		return nil, s.errorf(tok, "unbalanced ')' with no matching '('")
	default:
		return nil, s.errorf(tok, "missing operand before %s", tok.Kind)
	}
}
