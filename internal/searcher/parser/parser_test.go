package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/errors"
)

func TestLex(t *testing.T) {
	tokens := Lex("(dog OR cats)and not  mouse")
	kinds := make([]TokenKind, len(tokens))
	texts := make([]string, len(tokens))
	for i, tok := range tokens {
		kinds[i] = tok.Kind
		texts[i] = tok.Text
	}
	assert.Equal(t, []TokenKind{
		TokenLParen, TokenTerm, TokenOr, TokenTerm, TokenRParen,
		TokenAnd, TokenNot, TokenTerm, TokenEOF,
	}, kinds)
	assert.Equal(t, []string{"(", "dog", "OR", "cats", ")", "and", "not", "mouse", ""}, texts)
	assert.Equal(t, 0, tokens[0].Pos)
	assert.Equal(t, 1, tokens[1].Pos)
	assert.Equal(t, 12, tokens[4].Pos)
	assert.Equal(t, 13, tokens[5].Pos)
	assert.Equal(t, 22, tokens[7].Pos)
	assert.Equal(t, 27, tokens[8].Pos)
}

func TestParse_Canonical(t *testing.T) {
	p := New(tokenizer.Default())
	tests := []struct {
		query string
		want  string
	}{
		{"dog", "dog"},
		{"Dogs", "dog"},
		{"dog AND cat", "(dog AND cat)"},
		{"dog and cat", "(dog AND cat)"},
		{"dog OR cat AND sofa", "(dog OR (cat AND sofa))"},
		{"dog AND cat OR sofa", "((dog AND cat) OR sofa)"},
		{"NOT dog AND cat", "(NOT dog AND cat)"},
		{"NOT NOT dog", "NOT NOT dog"},
		{"dog cat", "(dog AND cat)"},
		{"dog NOT cat", "(dog AND NOT cat)"},
		{"(dog OR cat) AND NOT sofa", "((dog OR cat) AND NOT sofa)"},
		{"(dog OR(cat))", "(dog OR cat)"},
		{"(dog)", "dog"},
		{"((dog))", "dog"},
		{"the OR dog OR cat", `(("the" OR dog) OR cat)`},
		{"dog AND ...", `(dog AND "...")`},
		{"dog AND the", `(dog AND "the")`},
		{"NOT (dog AND cat)", "NOT (dog AND cat)"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := p.Parse(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Canonical())
			assert.Equal(t, tt.query, q.Raw)
		})
	}
}

func TestParse_CanonicalIsStable(t *testing.T) {
	p := New(tokenizer.Default())
	for _, query := range []string{
		"dog AND cat",
		"(dog OR cat) AND NOT mouse",
		"NOT NOT dog OR cat mouse",
	} {
		q, err := p.Parse(query)
		require.NoError(t, err)
		again, err := p.Parse(q.Canonical())
		require.NoError(t, err)
		assert.Equal(t, q.Canonical(), again.Canonical(), query)
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	p := New(nil)
	tests := []struct {
		query string
		token string
		pos   int
	}{
		{"", "", 0},
		{"   ", "", 3},
		{"dog AND", "AND", 4},
		{"AND dog", "AND", 0},
		{"dog OR OR cat", "OR", 7},
		{"NOT", "NOT", 0},
		{"dog AND )", ")", 8},
		{"(dog AND cat", "(", 0},
		{"dog AND cat)", ")", 11},
		{"()", "(", 0},
		{"dog ()", "(", 4},
		{"(dog OR) cat", ")", 7},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := p.Parse(tt.query)
			require.Error(t, err)
			assert.Nil(t, q)

			var syn *SyntaxError
			require.True(t, errors.As(err, &syn), "want *SyntaxError, got %T", err)
			assert.Equal(t, tt.token, syn.Token)
			assert.Equal(t, tt.pos, syn.Pos)
			assert.ErrorIs(t, err, apperrors.ErrInvalidQuery)
			assert.Equal(t, apperrors.ExitUsage, apperrors.ExitCode(err))
		})
	}
}

func TestSyntaxError_MessageNamesToken(t *testing.T) {
	_, err := New(nil).Parse("dog AND cat)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `")"`)
	assert.Contains(t, err.Error(), "position 11")
}

func TestNode_Terms(t *testing.T) {
	q, err := New(nil).Parse("(dog OR cats) AND NOT dog AND the")
	require.NoError(t, err)
	assert.Equal(t, []string{"dog", "cat"}, q.Root.Terms())
	assert.True(t, q.Root.HasNot())
}

func TestNode_Eval(t *testing.T) {
	q, err := New(nil).Parse("(dog OR cat) AND NOT mouse")
	require.NoError(t, err)

	terms := func(ts ...string) func(string) bool {
		set := make(map[string]bool)
		for _, term := range ts {
			set[term] = true
		}
		return func(term string) bool { return set[term] }
	}
	assert.True(t, q.Root.Eval(terms("dog")))
	assert.True(t, q.Root.Eval(terms("cat", "sofa")))
	assert.False(t, q.Root.Eval(terms("cat", tokenizer.Default().Term("mouse"))))
	assert.False(t, q.Root.Eval(terms("sofa")))
}
