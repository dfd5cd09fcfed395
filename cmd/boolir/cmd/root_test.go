package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/errors"
)

// workspace points the corpus and index paths at a fresh directory.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("BOOLIR_CORPUS_JSONL_PATH", filepath.Join(dir, "data", "documents.jsonl"))
	t.Setenv("BOOLIR_INDEX_DIR", filepath.Join(dir, "index"))
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--no-color"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func buildIndex(t *testing.T, extra ...string) {
	t.Helper()
	_, err := execute(t, "", "preprocess")
	require.NoError(t, err)
	_, err = execute(t, "", append([]string{"index"}, extra...)...)
	require.NoError(t, err)
}

func TestPreprocessCmd_WritesCollection(t *testing.T) {
	dir := workspace(t)

	out, err := execute(t, "", "preprocess")
	require.NoError(t, err)
	assert.Contains(t, out, "Preprocessing summary")
	assert.Contains(t, out, "documents: 15")
	assert.Contains(t, out, "... and 12 more documents")

	docs, report, err := ingestion.ReadJSONLFile(filepath.Join(dir, "data", "documents.jsonl"))
	require.NoError(t, err)
	assert.Len(t, docs, 15)
	assert.Empty(t, report.Skipped)
}

func TestPreprocessCmd_Verbose(t *testing.T) {
	workspace(t)

	out, err := execute(t, "", "preprocess", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "Document d1")
	assert.Contains(t, out, "without stopwords:")
	assert.Contains(t, out, "stemmed:")
}

func TestPreprocessCmd_InputFile(t *testing.T) {
	dir := workspace(t)
	input := filepath.Join(dir, "raw.jsonl")
	require.NoError(t, os.WriteFile(input, []byte(
		`{"id": "a1", "contents": "The Dogs were running"}`+"\n"+
			`not json`+"\n"+
			`{"id": "a2", "contents": "Cats sleep"}`+"\n"), 0o644))

	out, err := execute(t, "", "preprocess", "--input", input)
	require.NoError(t, err)
	assert.Contains(t, out, "skipped line 2")
	assert.Contains(t, out, "documents: 2")
}

func TestSearchCmd(t *testing.T) {
	workspace(t)
	buildIndex(t)

	out, err := execute(t, "", "search", "dog AND cat")
	require.NoError(t, err)
	assert.Contains(t, out, "Results: [d4, d12]")
	assert.Contains(t, out, "Total matches: 2")

	out, err = execute(t, "", "search", "cat", "AND", "mouse")
	require.NoError(t, err)
	assert.Contains(t, out, "Results: [d1, d14]")

	out, err = execute(t, "", "search", "unicorn")
	require.NoError(t, err)
	assert.Contains(t, out, "No matches found")
}

func TestSearchCmd_JSON(t *testing.T) {
	workspace(t)
	buildIndex(t)

	out, err := execute(t, "", "search", "--format", "json", "--explain", "--verify", "(dog OR cat) AND NOT mouse")
	require.NoError(t, err)

	var got struct {
		Canonical    string   `json:"canonical"`
		DocIDs       []string `json:"doc_ids"`
		TotalHits    int      `json:"total_hits"`
		Explanation  string   `json:"explanation"`
		Verification struct {
			Correct bool `json:"correct"`
		} `json:"verification"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"d4", "d7", "d9", "d12"}, got.DocIDs)
	assert.Equal(t, 4, got.TotalHits)
	assert.Contains(t, got.Explanation, "Canonical form:")
	assert.True(t, got.Verification.Correct)
}

func TestSearchCmd_Errors(t *testing.T) {
	workspace(t)

	_, err := execute(t, "", "search", "dog")
	require.Error(t, err)
	assert.Equal(t, apperrors.ExitIndex, ExitCode(err), "no index built yet")

	buildIndex(t)

	_, err = execute(t, "", "search", "dog AND")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax error")
	assert.Equal(t, apperrors.ExitUsage, ExitCode(err))

	_, err = execute(t, "", "search", "--format", "xml", "dog")
	assert.Equal(t, apperrors.ExitUsage, ExitCode(err))

	_, err = execute(t, "", "search")
	assert.Error(t, err)
}

func TestSegmentBackend(t *testing.T) {
	workspace(t)
	buildIndex(t, "--backend", "segment")

	out, err := execute(t, "", "search", "dog AND cat")
	require.NoError(t, err)
	assert.Contains(t, out, "Results: [d4, d12]")

	out, err = execute(t, "", "status", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"backend": "segment"`)
}

func TestVerifyCmd(t *testing.T) {
	dir := workspace(t)
	buildIndex(t)

	out, err := execute(t, "", "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "7/7 queries passed (100.0%)")

	battery := filepath.Join(dir, "battery.yaml")
	require.NoError(t, os.WriteFile(battery, []byte("- query: dog AND cat\n  expected: [d4]\n"), 0o644))
	out, err = execute(t, "", "verify", "--battery", battery)
	require.Error(t, err)
	assert.Contains(t, out, "results differ from expected")
}

func TestTermsCmd(t *testing.T) {
	workspace(t)
	buildIndex(t)

	out, err := execute(t, "", "terms", "Dogs")
	require.NoError(t, err)
	assert.Contains(t, out, "dog -> [")

	out, err = execute(t, "", "terms", "the")
	require.NoError(t, err)
	assert.Contains(t, out, "removed by preprocessing")

	out, err = execute(t, "", "terms", "--format", "json", "--postings", "--prefix", "cat")
	require.NoError(t, err)
	var entries []termEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.True(t, strings.HasPrefix(e.Term, "cat"))
		assert.Len(t, e.Postings, e.DocFreq)
	}
}

func TestStatusCmd(t *testing.T) {
	workspace(t)
	buildIndex(t)

	out, err := execute(t, "", "status", "--format", "json")
	require.NoError(t, err)

	var got statusOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "up", string(got.Health.Status))
	assert.Equal(t, "up", string(got.Health.Components["index"].Status))
	for _, name := range []string{"redis", "kafka", "postgres"} {
		assert.Equal(t, "disabled", string(got.Health.Components[name].Status), name)
	}
	require.NotNil(t, got.Index)
	assert.Equal(t, 15, got.Index.Documents)
}

func TestStatusCmd_NoIndex(t *testing.T) {
	workspace(t)

	out, err := execute(t, "", "status")
	require.Error(t, err)
	assert.Contains(t, out, "Health: down")
}

func TestRunPipeline(t *testing.T) {
	workspace(t)

	stdin := "dog AND cat\n\ndog AND\n:stats\n:nope\nQUIT\nnever read\n"
	out, err := execute(t, stdin)
	require.NoError(t, err)

	assert.Contains(t, out, "Step 1: document preprocessing")
	assert.Contains(t, out, "Step 2: indexing")
	assert.Contains(t, out, "7/7 queries passed")
	assert.Contains(t, out, "Searching for: dog AND cat")
	assert.Contains(t, out, "Results: [d4, d12]")
	assert.Contains(t, out, "syntax error")
	assert.Contains(t, out, "Session statistics")
	assert.Contains(t, out, "unknown command :nope")
	assert.NotContains(t, out, "never read")
}

func TestReplCmd_EndOfInput(t *testing.T) {
	workspace(t)
	buildIndex(t)

	out, err := execute(t, ":explain\nnot dog\n", "repl")
	require.NoError(t, err)
	assert.Contains(t, out, "explanations on")
	assert.Contains(t, out, "Query requires NOT 'dog'.")
}

func writeRaw(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, "raw.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestSearchCmd_FollowsIndexStemmer(t *testing.T) {
	dir := workspace(t)
	input := writeRaw(t, dir,
		`{"id": "a1", "contents": "She gave generously to the shelter."}`,
		`{"id": "a2", "contents": "The dogs slept."}`)

	_, err := execute(t, "", "preprocess", "--stemmer", "snowball", "--input", input)
	require.NoError(t, err)
	_, err = execute(t, "", "index", "--stemmer", "snowball")
	require.NoError(t, err)

	out, err := execute(t, "", "search", "generously")
	require.NoError(t, err)
	assert.Contains(t, out, "Results: [a1]")

	out, err = execute(t, "", "status", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"stemmer": "snowball"`)

	// Indexing with the default stemmer renormalises the snowball output.
	_, err = execute(t, "", "index")
	require.NoError(t, err)
	out, err = execute(t, "", "search", "generously")
	require.NoError(t, err)
	assert.Contains(t, out, "Results: [a1]")
}

func TestIndexCmd_PreprocessesRawInput(t *testing.T) {
	dir := workspace(t)
	input := writeRaw(t, dir,
		`{"id": "a1", "contents": "The Dogs were barking."}`,
		`{"id": "a2", "contents": "A cat."}`)

	_, err := execute(t, "", "index", "--input", input)
	require.NoError(t, err)

	out, err := execute(t, "", "search", "dogs")
	require.NoError(t, err)
	assert.Contains(t, out, "Results: [a1]")

	out, err = execute(t, "", "search", "Barking AND NOT cat")
	require.NoError(t, err)
	assert.Contains(t, out, "Results: [a1]")

	out, err = execute(t, "", "terms")
	require.NoError(t, err)
	assert.NotContains(t, out, "barking.")
	assert.NotContains(t, out, " the ")
}

func TestReplCmd_OverlongLine(t *testing.T) {
	workspace(t)
	buildIndex(t)

	_, err := execute(t, strings.Repeat("x", maxQueryBytes+1)+"\n", "repl")
	require.Error(t, err)
	assert.ErrorIs(t, err, bufio.ErrTooLong)
	assert.Contains(t, err.Error(), "reading queries")
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	workspace(t)

	_, err := execute(t, "", "--backend", "lucene", "status")
	require.Error(t, err)
	assert.Equal(t, apperrors.ExitUsage, ExitCode(err))
}
