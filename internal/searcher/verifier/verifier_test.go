package verifier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/parser"
)

func toyDocs() DocTerms {
	return DocTerms{
		"d1":  TermSet("dog cat"),
		"d2":  TermSet("cat fish"),
		"d3":  TermSet("fish"),
		"d10": TermSet("dog fish"),
	}
}

func mustParse(t *testing.T, query string) *parser.Query {
	t.Helper()
	q, err := parser.New(nil).Parse(query)
	require.NoError(t, err)
	return q
}

func TestTermSet(t *testing.T) {
	set := TermSet("  dog cat\tdog\n")
	assert.Len(t, set, 2)
	assert.Contains(t, set, "dog")
	assert.Contains(t, set, "cat")
	assert.Empty(t, TermSet(""))
}

func TestVerify(t *testing.T) {
	docs := toyDocs()

	t.Run("correct", func(t *testing.T) {
		report := Verify(mustParse(t, "dog AND NOT cat"), []string{"d10"}, docs)
		assert.True(t, report.Correct)
		assert.Equal(t, 4, report.Checked)
		assert.Empty(t, report.Issues)
	})

	t.Run("false positive", func(t *testing.T) {
		report := Verify(mustParse(t, "dog AND fish"), []string{"d1", "d10"}, docs)
		assert.False(t, report.Correct)
		assert.Equal(t, []string{"d1"}, report.FalsePositives)
		require.Len(t, report.Issues, 1)
		assert.Equal(t,
			"Document d1 was returned but does not satisfy (dog AND fish) (contains [dog]; lacks [fish])",
			report.Issues[0])
	})

	t.Run("false negative", func(t *testing.T) {
		report := Verify(mustParse(t, "fish"), []string{"d2", "d3"}, docs)
		assert.False(t, report.Correct)
		assert.Equal(t, []string{"d10"}, report.FalseNegatives)
		assert.Contains(t, report.Issues[0], "d10 satisfies the query but was not returned")
	})

	t.Run("unknown document", func(t *testing.T) {
		report := Verify(mustParse(t, "dog"), []string{"d1", "d10", "d99"}, docs)
		assert.False(t, report.Correct)
		assert.Equal(t, []string{"d99"}, report.FalsePositives)
		assert.Equal(t, "Document d99 is not in the corpus", report.Issues[0])
	})

	t.Run("empty result for absent term", func(t *testing.T) {
		report := Verify(mustParse(t, "zzz OR the"), nil, docs)
		assert.True(t, report.Correct)
	})
}

func TestExplain(t *testing.T) {
	q := mustParse(t, "(dogs OR cat) AND NOT the")
	out := Explain(q, map[string]int{"dog": 3, "cat": 1}, 2)

	assert.Equal(t, `Canonical form: ((dog OR cat) AND NOT "the")
Terms:
  dog (from "dogs") appears in 3 documents
  cat (from "cat") appears in 1 document
  "the" normalises to nothing (stop-word or punctuation) and matches no document
Query requires ALL of [ANY of ['dog', 'cat'], NOT "the"].
2 documents match the query.`, out)

	out = Explain(mustParse(t, "zzz"), map[string]int{"zzz": 0}, 0)
	assert.Contains(t, out, "zzz (from \"zzz\") appears in 0 documents")
	assert.Contains(t, out, "No documents match the query.")
}

// fakeRunner evaluates queries directly against DocTerms.
type fakeRunner struct {
	docs    DocTerms
	corrupt string
	err     error
}

func (f *fakeRunner) Parse(query string) (*parser.Query, error) {
	return parser.New(nil).Parse(query)
}

func (f *fakeRunner) Execute(_ context.Context, q *parser.Query, _ int) (*executor.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	var ids []string
	for id, terms := range f.docs {
		if q.Root.Eval(has(terms)) {
			ids = append(ids, id)
		}
	}
	if f.corrupt != "" {
		ids = append(ids, f.corrupt)
	}
	ingestion.SortIDs(ids)
	if ids == nil {
		ids = []string{}
	}
	return &executor.Result{Query: q.Raw, Canonical: q.Canonical(), DocIDs: ids, TotalHits: len(ids)}, nil
}

func (f *fakeRunner) DocTerms(context.Context) (DocTerms, error) {
	return f.docs, nil
}

func TestRunBattery(t *testing.T) {
	queries := []ingestion.TestQuery{
		{Query: "dog AND fish", Expected: []string{"d10"}},
		{Query: "cat OR fish", Expected: []string{"d1", "d2", "d3", "d10"}},
		{Query: "NOT fish", Expected: []string{"d2"}},
		{Query: "dog AND"},
		{Query: "fish AND NOT dog"},
	}
	report, err := RunBattery(context.Background(), &fakeRunner{docs: toyDocs()}, queries)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 3, report.Passed)
	assert.InDelta(t, 60.0, report.SuccessRate(), 0.001)

	byQuery := make(map[string]BatteryResult)
	for _, r := range report.Results {
		byQuery[r.Query] = r
	}
	assert.True(t, byQuery["dog AND fish"].Passed)
	assert.NotEmpty(t, byQuery["dog AND fish"].Explanation)

	wrong := byQuery["NOT fish"]
	assert.True(t, wrong.Verification.Correct)
	assert.False(t, wrong.MatchesExpected)
	assert.False(t, wrong.Passed)

	malformed := byQuery["dog AND"]
	assert.False(t, malformed.Passed)
	assert.Contains(t, malformed.Error, "syntax error")
	assert.Nil(t, malformed.Result)

	assert.True(t, byQuery["fish AND NOT dog"].Passed, "no expectation means verification alone decides")
}

func TestRunBattery_IndexMismatch(t *testing.T) {
	runner := &fakeRunner{docs: toyDocs(), corrupt: "d3"}
	report, err := RunBattery(context.Background(), runner, []ingestion.TestQuery{{Query: "dog"}})
	require.NoError(t, err)
	assert.Zero(t, report.Passed)
	assert.Equal(t, []string{"d3"}, report.Results[0].Verification.FalsePositives)
}

func TestRunBattery_ExecutionErrorAborts(t *testing.T) {
	boom := errors.New("index unavailable")
	_, err := RunBattery(context.Background(), &fakeRunner{docs: toyDocs(), err: boom}, []ingestion.TestQuery{{Query: "dog"}})
	assert.ErrorIs(t, err, boom)
}

func TestLoadBattery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "battery.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- query: dog AND cat
  expected: [d12, d4]
- query: NOT mouse
`), 0o644))

	queries, err := LoadBattery(path)
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, "dog AND cat", queries[0].Query)
	assert.Equal(t, []string{"d4", "d12"}, queries[0].Expected)
	assert.Nil(t, queries[1].Expected)

	require.NoError(t, os.WriteFile(path, []byte("- expected: [d1]\n"), 0o644))
	_, err = LoadBattery(path)
	assert.ErrorContains(t, err, "entry 1 has no query")

	_, err = LoadBattery(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
