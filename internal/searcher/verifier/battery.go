package verifier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/parser"
)

// Runner parses and executes battery queries and supplies the per-document
// term sets used to check them.
type Runner interface {
	Parse(query string) (*parser.Query, error)
	Execute(ctx context.Context, q *parser.Query, limit int) (*executor.Result, error)
	DocTerms(ctx context.Context) (DocTerms, error)
}

// BatteryResult is the outcome of one battery query. A query passes when
// it parses, its results verify, and they equal Expected (when given).
type BatteryResult struct {
	Query           string           `json:"query"`
	Expected        []string         `json:"expected,omitempty"`
	Result          *executor.Result `json:"result,omitempty"`
	Verification    Report           `json:"verification"`
	Explanation     string           `json:"explanation,omitempty"`
	MatchesExpected bool             `json:"matches_expected"`
	Passed          bool             `json:"passed"`
	Error           string           `json:"error,omitempty"`
}

// BatteryReport summarises a battery run.
type BatteryReport struct {
	Results []BatteryResult `json:"results"`
	Passed  int             `json:"passed"`
	Total   int             `json:"total"`
}

// SuccessRate is the percentage of passing queries.
func (r *BatteryReport) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Passed) / float64(r.Total) * 100
}

// RunBattery runs every query in order. Malformed queries fail their
// entry and the run continues; index errors abort it.
func RunBattery(ctx context.Context, runner Runner, queries []ingestion.TestQuery) (*BatteryReport, error) {
	docs, err := runner.DocTerms(ctx)
	if err != nil {
		return nil, err
	}
	report := &BatteryReport{Total: len(queries)}
	for _, tq := range queries {
		br := BatteryResult{Query: tq.Query, Expected: tq.Expected}

		q, err := runner.Parse(tq.Query)
		if err != nil {
			var syn *parser.SyntaxError
			if !errors.As(err, &syn) {
				return nil, err
			}
			br.Error = err.Error()
			report.Results = append(report.Results, br)
			continue
		}
		res, err := runner.Execute(ctx, q, -1)
		if err != nil {
			return nil, fmt.Errorf("running %q: %w", tq.Query, err)
		}
		br.Result = res
		br.Verification = Verify(q, res.DocIDs, docs)
		br.Explanation = Explain(q, res.TermStats, res.TotalHits)
		br.MatchesExpected = tq.Expected == nil || slices.Equal(tq.Expected, res.DocIDs)
		br.Passed = br.Verification.Correct && br.MatchesExpected
		if br.Passed {
			report.Passed++
		}
		report.Results = append(report.Results, br)
	}
	return report, nil
}

// LoadBattery reads test queries from a YAML or JSON file: a list of
// {query, expected} objects. expected may be omitted.
func LoadBattery(path string) ([]ingestion.TestQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading battery %s: %w", path, err)
	}
	var queries []ingestion.TestQuery
	if err := yaml.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("parsing battery %s: %w", path, err)
	}
	for i, q := range queries {
		if q.Query == "" {
			return nil, fmt.Errorf("battery %s: entry %d has no query", path, i+1)
		}
		if q.Expected != nil {
			ingestion.SortIDs(queries[i].Expected)
		}
	}
	return queries, nil
}
