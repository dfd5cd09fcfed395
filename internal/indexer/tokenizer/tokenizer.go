// Package tokenizer provides text preprocessing for the boolean retrieval
// pipeline. It lower-cases input, strips punctuation, collapses whitespace,
// removes English stop-words and stems what remains.
package tokenizer

import (
	"fmt"
	"strings"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
	snowballeng "github.com/kljensen/snowball/english"
)

// maxStemPasses bounds the fixpoint loop in stem. Porter and Snowball both
// settle within two or three passes on English words.
const maxStemPasses = 5

// punctuation is the ASCII punctuation set stripped from text before
// tokenisation.
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Token represents a single normalised term and its position in the
// processed text.
type Token struct {
	Term     string
	Position int
}

// Stemmer reduces a lower-case word to its root form.
type Stemmer func(word string) string

// Preprocessor applies the full normalisation pipeline. It is stateless and
// safe to share.
type Preprocessor struct {
	name string
	stem Stemmer
}

// New returns a Preprocessor using the named stemmer: "porter", "snowball"
// or "none".
func New(stemmer string) (*Preprocessor, error) {
	var fn Stemmer
	switch stemmer {
	case "porter", "":
		stemmer = "porter"
		fn = porterstemmer.StemString
	case "snowball":
		fn = func(word string) string { return snowballeng.Stem(word, false) }
	case "none":
		fn = func(word string) string { return word }
	default:
		return nil, fmt.Errorf("unknown stemmer %q", stemmer)
	}
	return &Preprocessor{name: stemmer, stem: fn}, nil
}

// Default returns the Porter preprocessor.
func Default() *Preprocessor {
	p, _ := New("porter")
	return p
}

func (p *Preprocessor) StemmerName() string {
	return p.name
}

// Process turns raw text into its list of index terms.
func (p *Preprocessor) Process(text string) []string {
	return p.Trace(text).Stemmed
}

// ProcessText is Process joined by single spaces, the form stored in the
// "contents" field of the JSON-lines corpus.
func (p *Preprocessor) ProcessText(text string) string {
	return strings.Join(p.Process(text), " ")
}

// Term normalises a single query word. It returns "" when the word is a
// stop-word or consists only of punctuation.
func (p *Preprocessor) Term(word string) string {
	terms := p.Process(word)
	if len(terms) == 0 {
		return ""
	}
	return terms[0]
}

// Trace records the output of every pipeline step.
type Trace struct {
	Original         string
	Lowercased       string
	NoPunctuation    string
	Cleaned          string
	Tokens           []string
	WithoutStopwords []string
	Stemmed          []string
}

// Processed returns the final space-joined text.
func (t Trace) Processed() string {
	return strings.Join(t.Stemmed, " ")
}

// Trace runs the pipeline and keeps each intermediate result.
func (p *Preprocessor) Trace(text string) Trace {
	t := Trace{Original: text}
	t.Lowercased = strings.ToLower(text)
	t.NoPunctuation = RemovePunctuation(t.Lowercased)
	t.Cleaned = CleanWhitespace(t.NoPunctuation)
	t.Tokens = strings.Fields(t.Cleaned)
	t.WithoutStopwords = RemoveStopwords(t.Tokens)

	stemmed := make([]string, 0, len(t.WithoutStopwords))
	for _, word := range t.WithoutStopwords {
		root := p.stemFixpoint(word)
		if root == "" || IsStopword(root) {
			continue
		}
		stemmed = append(stemmed, root)
	}
	t.Stemmed = stemmed
	return t
}

// stemFixpoint re-applies the stemmer until the word stops changing, so
// reprocessing already processed text is a no-op.
func (p *Preprocessor) stemFixpoint(word string) string {
	for i := 0; i < maxStemPasses; i++ {
		next := strings.ToLower(p.stem(word))
		if next == word {
			break
		}
		word = next
	}
	return word
}

// RemovePunctuation deletes every ASCII punctuation character.
func RemovePunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, text)
}

// CleanWhitespace collapses runs of whitespace into single spaces and trims
// both ends.
func CleanWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// RemoveStopwords drops English stop-words, comparing case-insensitively.
func RemoveStopwords(words []string) []string {
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if IsStopword(w) {
			continue
		}
		kept = append(kept, w)
	}
	return kept
}

func IsStopword(word string) bool {
	_, ok := stopWords[strings.ToLower(word)]
	return ok
}

// Analyze splits already processed text into positioned tokens. Index
// backends use it so that stored terms match the preprocessed corpus exactly.
func Analyze(processed string) []Token {
	words := strings.Fields(strings.ToLower(processed))
	tokens := make([]Token, 0, len(words))
	for pos, word := range words {
		tokens = append(tokens, Token{Term: word, Position: pos})
	}
	return tokens
}
