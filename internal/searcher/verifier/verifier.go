// Package verifier cross-checks query results by evaluating the expression
// against each document's own terms, independently of the inverted index.
package verifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/parser"
)

// DocTerms maps a document id to the set of terms it contains.
type DocTerms map[string]map[string]struct{}

// DocumentSource lists stored documents. indexer.Store satisfies it.
type DocumentSource interface {
	DocIDs(ctx context.Context) ([]string, error)
	Document(ctx context.Context, id string) (ingestion.Document, error)
}

// LoadDocTerms builds the per-document term sets from the stored,
// already processed contents.
func LoadDocTerms(ctx context.Context, src DocumentSource) (DocTerms, error) {
	ids, err := src.DocIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	terms := make(DocTerms, len(ids))
	for _, id := range ids {
		doc, err := src.Document(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading document %s: %w", id, err)
		}
		terms[id] = TermSet(doc.Contents)
	}
	return terms, nil
}

// TermSet splits processed contents into a set.
func TermSet(contents string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, term := range strings.Fields(contents) {
		set[term] = struct{}{}
	}
	return set
}

// Report is the outcome of verifying one result set.
type Report struct {
	Query          string   `json:"query"`
	Canonical      string   `json:"canonical"`
	Correct        bool     `json:"correct"`
	Checked        int      `json:"checked"`
	FalsePositives []string `json:"false_positives,omitempty"`
	FalseNegatives []string `json:"false_negatives,omitempty"`
	Issues         []string `json:"issues,omitempty"`
}

// Verify evaluates q for every document in docs and compares the outcome
// with results, which must be the complete (untruncated) result set.
func Verify(q *parser.Query, results []string, docs DocTerms) Report {
	report := Report{
		Query:     q.Raw,
		Canonical: q.Canonical(),
		Checked:   len(docs),
	}
	returned := executor.NewDocSet(results...)

	for _, id := range returned.Sorted() {
		terms, ok := docs[id]
		if !ok {
			report.FalsePositives = append(report.FalsePositives, id)
			report.Issues = append(report.Issues, fmt.Sprintf("Document %s is not in the corpus", id))
			continue
		}
		if !q.Root.Eval(has(terms)) {
			report.FalsePositives = append(report.FalsePositives, id)
			report.Issues = append(report.Issues, describeMismatch(id, q.Root, terms, true))
		}
	}

	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	ingestion.SortIDs(ids)
	for _, id := range ids {
		if returned.Contains(id) {
			continue
		}
		if q.Root.Eval(has(docs[id])) {
			report.FalseNegatives = append(report.FalseNegatives, id)
			report.Issues = append(report.Issues, describeMismatch(id, q.Root, docs[id], false))
		}
	}

	report.Correct = len(report.Issues) == 0
	return report
}

func has(terms map[string]struct{}) func(string) bool {
	return func(term string) bool {
		_, ok := terms[term]
		return ok
	}
}

// describeMismatch names the query terms a document has and lacks.
func describeMismatch(id string, root *parser.Node, terms map[string]struct{}, returned bool) string {
	var present, absent []string
	for _, term := range root.Terms() {
		if _, ok := terms[term]; ok {
			present = append(present, term)
		} else {
			absent = append(absent, term)
		}
	}
	verb := "was returned but does not satisfy"
	if !returned {
		verb = "satisfies the query but was not returned for"
	}
	return fmt.Sprintf("Document %s %s %s (contains %s; lacks %s)",
		id, verb, root, listOrNone(present), listOrNone(absent))
}

func listOrNone(terms []string) string {
	if len(terms) == 0 {
		return "none"
	}
	return "[" + strings.Join(terms, ", ") + "]"
}
