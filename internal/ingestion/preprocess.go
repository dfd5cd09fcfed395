package ingestion

import (
	"log/slog"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer/tokenizer"
)

// DocSummary reports word counts for one document before and after
// preprocessing.
type DocSummary struct {
	ID          string `json:"id"`
	WordsBefore int    `json:"words_before"`
	WordsAfter  int    `json:"words_after"`
}

// Summary aggregates a preprocessing run.
type Summary struct {
	Documents   int          `json:"documents"`
	WordsBefore int          `json:"words_before"`
	WordsAfter  int          `json:"words_after"`
	Empty       []string     `json:"empty,omitempty"`
	PerDocument []DocSummary `json:"per_document"`
}

// Reduction is the share of words removed by preprocessing, in [0,1].
func (s Summary) Reduction() float64 {
	if s.WordsBefore == 0 {
		return 0
	}
	return 1 - float64(s.WordsAfter)/float64(s.WordsBefore)
}

// PreprocessAll runs p over every raw document, preserving order.
// Documents that reduce to no terms are kept (with empty contents) and
// listed in Summary.Empty.
func PreprocessAll(p *tokenizer.Preprocessor, raws []RawDocument) ([]Document, Summary) {
	logger := slog.Default().With("component", "preprocess")

	docs := make([]Document, 0, len(raws))
	summary := Summary{PerDocument: make([]DocSummary, 0, len(raws))}
	for _, raw := range raws {
		terms := p.Process(raw.Contents)
		before := len(strings.Fields(raw.Contents))

		docs = append(docs, Document{
			ID:       raw.ID,
			Contents: strings.Join(terms, " "),
			Raw:      raw.Contents,
		})
		summary.PerDocument = append(summary.PerDocument, DocSummary{
			ID:          raw.ID,
			WordsBefore: before,
			WordsAfter:  len(terms),
		})
		summary.WordsBefore += before
		summary.WordsAfter += len(terms)
		if len(terms) == 0 {
			summary.Empty = append(summary.Empty, raw.ID)
		}
		logger.Debug("document preprocessed", "doc_id", raw.ID, "words_before", before, "words_after", len(terms))
	}
	summary.Documents = len(docs)
	return docs, summary
}
