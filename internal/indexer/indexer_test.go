package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/metrics"
)

func sampleDocs(t *testing.T) []ingestion.Document {
	t.Helper()
	docs, _ := ingestion.PreprocessAll(tokenizer.Default(), ingestion.SampleCorpus)
	return docs
}

func buildSample(t *testing.T, backend string) (Store, *BuildReport) {
	t.Helper()
	cfg := config.IndexerConfig{
		DataDir:   filepath.Join(t.TempDir(), "index"),
		Backend:   backend,
		Overwrite: true,
	}
	report, err := BuildDocuments(context.Background(), cfg, sampleDocs(t))
	require.NoError(t, err)

	store, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, report
}

func TestBuild_SampleCorpus(t *testing.T) {
	for _, backend := range []string{config.BackendBleve, config.BackendSegment} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			store, report := buildSample(t, backend)

			assert.Equal(t, 15, report.Documents)
			assert.Equal(t, backend, report.Backend)
			assert.NotEmpty(t, report.Generation)
			assert.Greater(t, report.UniqueTerms, 30)
			assert.Len(t, report.Samples, sampleDocCount)
			assert.Equal(t, "d1", report.Samples[0].ID)
			assert.Equal(t, ingestion.SampleCorpus[0].Contents, report.Samples[0].Raw)

			assert.Equal(t, backend, store.Backend())
			assert.Equal(t, report.Generation, store.Generation())

			ids, err := store.DocIDs(ctx)
			require.NoError(t, err)
			require.Len(t, ids, 15)
			assert.Equal(t, "d1", ids[0])
			assert.Equal(t, "d2", ids[1])
			assert.Equal(t, "d15", ids[14])

			dog, err := store.Postings(ctx, "dog")
			require.NoError(t, err)
			assert.Equal(t, []string{"d4", "d7", "d12"}, dog)

			cat, err := store.Postings(ctx, "cat")
			require.NoError(t, err)
			assert.Equal(t, []string{"d1", "d4", "d9", "d12", "d14"}, cat)

			none, err := store.Postings(ctx, "unicorn")
			require.NoError(t, err)
			assert.Empty(t, none)

			empty, err := store.Postings(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, empty)

			doc, err := store.Document(ctx, "d4")
			require.NoError(t, err)
			assert.Equal(t, "My dog and my cat sleep together on the sofa.", doc.Raw)
			assert.Contains(t, strings.Fields(doc.Contents), "sofa")

			_, err = store.Document(ctx, "d99")
			assert.ErrorIs(t, err, ErrDocumentNotFound)

			stats, err := store.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, 15, stats.Documents)
			assert.Equal(t, report.UniqueTerms, stats.UniqueTerms)
			assert.Equal(t, report.TotalTerms, stats.TotalTerms)
		})
	}
}

func TestBackends_AgreeOnEveryTerm(t *testing.T) {
	ctx := context.Background()
	bleveStore, _ := buildSample(t, config.BackendBleve)
	segStore, _ := buildSample(t, config.BackendSegment)

	bleveTerms, err := bleveStore.Terms(ctx)
	require.NoError(t, err)
	segTerms, err := segStore.Terms(ctx)
	require.NoError(t, err)
	require.Equal(t, segTerms, bleveTerms)

	for _, ti := range segTerms {
		a, err := bleveStore.Postings(ctx, ti.Term)
		require.NoError(t, err)
		b, err := segStore.Postings(ctx, ti.Term)
		require.NoError(t, err)
		assert.Equal(t, b, a, "term %q", ti.Term)
		assert.Len(t, a, ti.DocFreq, "term %q", ti.Term)
	}
}

func TestOpen_MissingIndex(t *testing.T) {
	_, err := Open(config.IndexerConfig{DataDir: filepath.Join(t.TempDir(), "absent")})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrIndexNotFound)
	assert.Equal(t, apperrors.ExitIndex, apperrors.ExitCode(err))
}

func TestOpen_CorruptManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte("{nope"), 0o644))

	_, err := Open(config.IndexerConfig{DataDir: dir})
	assert.ErrorIs(t, err, apperrors.ErrIndexCorrupt)
}

func TestBuild_OverwriteDisabled(t *testing.T) {
	cfg := config.IndexerConfig{DataDir: filepath.Join(t.TempDir(), "idx"), Backend: config.BackendSegment, Overwrite: true}
	docs := sampleDocs(t)
	first, err := BuildDocuments(context.Background(), cfg, docs)
	require.NoError(t, err)

	cfg.Overwrite = false
	_, err = BuildDocuments(context.Background(), cfg, docs)
	assert.ErrorIs(t, err, apperrors.ErrIndexExists)

	cfg.Overwrite = true
	second, err := BuildDocuments(context.Background(), cfg, docs)
	require.NoError(t, err)
	assert.NotEqual(t, first.Generation, second.Generation)
}

func TestBuild_RefusesForeignDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep me"), 0o644))

	_, err := BuildDocuments(context.Background(), config.IndexerConfig{DataDir: dir, Overwrite: true}, sampleDocs(t))
	assert.ErrorIs(t, err, apperrors.ErrIndexExists)
	_, statErr := os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, statErr)
}

func TestBuild_LockedByAnotherBuilder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "idx")
	held := flock.New(LockPath(dir))
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer held.Unlock()

	_, err = BuildDocuments(context.Background(), config.IndexerConfig{DataDir: dir}, sampleDocs(t))
	assert.ErrorIs(t, err, apperrors.ErrIndexLocked)
}

func TestBuild_FromJSONLSkipsBadLines(t *testing.T) {
	dir := t.TempDir()
	jsonl := filepath.Join(dir, "docs.jsonl")
	content := strings.Join([]string{
		`{"id": "a", "contents": "cat dog"}`,
		`not json`,
		`{"id": "b", "contents": "dog"}`,
		`{"id": "a", "contents": "dup"}`,
	}, "\n")
	require.NoError(t, os.WriteFile(jsonl, []byte(content), 0o644))

	m := metrics.New()
	cfg := config.IndexerConfig{DataDir: filepath.Join(dir, "idx"), Backend: config.BackendBleve, Overwrite: true}
	report, err := Build(context.Background(), cfg, jsonl, WithMetrics(m))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Documents)
	require.Len(t, report.Skipped, 2)
	assert.Equal(t, 2, report.Skipped[0].Line)
	assert.Equal(t, 4, report.Skipped[1].Line)

	manifest, err := ReadManifest(cfg.DataDir)
	require.NoError(t, err)
	assert.Equal(t, jsonl, manifest.Source)
	assert.EqualValues(t, 3, manifest.TotalTerms)
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := config.IndexerConfig{DataDir: filepath.Join(t.TempDir(), "idx"), Backend: config.BackendSegment}
	_, err := BuildDocuments(ctx, cfg, sampleDocs(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_EmptyDocumentIsListed(t *testing.T) {
	docs := []ingestion.Document{{ID: "x", Contents: ""}, {ID: "y", Contents: "cat"}}
	for _, backend := range []string{config.BackendBleve, config.BackendSegment} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.IndexerConfig{DataDir: filepath.Join(t.TempDir(), "idx"), Backend: backend}
			_, err := BuildDocuments(context.Background(), cfg, docs)
			require.NoError(t, err)

			store, err := Open(cfg)
			require.NoError(t, err)
			defer store.Close()
			ids, err := store.DocIDs(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"x", "y"}, ids)
		})
	}
}

func TestBuild_NormalisesRawContents(t *testing.T) {
	docs := []ingestion.Document{
		{ID: "a1", Contents: "The Dogs were barking."},
		{ID: "a2", Contents: "cat"},
	}
	snowball, err := tokenizer.New(config.StemmerSnowball)
	require.NoError(t, err)

	for _, backend := range []string{config.BackendBleve, config.BackendSegment} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := config.IndexerConfig{DataDir: filepath.Join(t.TempDir(), "idx"), Backend: backend}
			report, err := BuildDocuments(ctx, cfg, docs, WithPreprocessor(snowball))
			require.NoError(t, err)
			assert.Equal(t, 3, report.UniqueTerms, "dog, bark and cat")

			store, err := Open(cfg)
			require.NoError(t, err)
			defer store.Close()

			dog, err := store.Postings(ctx, snowball.Term("Dogs"))
			require.NoError(t, err)
			assert.Equal(t, []string{"a1"}, dog)

			doc, err := store.Document(ctx, "a1")
			require.NoError(t, err)
			assert.Equal(t, "dog bark", doc.Contents)
			assert.Equal(t, "The Dogs were barking.", doc.Raw)

			stats, err := store.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, config.StemmerSnowball, stats.Stemmer)

			m, err := ReadManifest(cfg.DataDir)
			require.NoError(t, err)
			assert.Equal(t, config.StemmerSnowball, m.Stemmer)
		})
	}
}

func TestNewMemoryStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore(ctx, sampleDocs(t))
	require.NoError(t, err)
	defer store.Close()

	assert.True(t, strings.HasPrefix(store.Generation(), "mem-"))
	mouse, err := store.Postings(ctx, tokenizer.Default().Term("mouse"))
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d14"}, mouse)
}

// BenchmarkStorePostings looks up one term in a reopened sample index.
func BenchmarkStorePostings(b *testing.B) {
	docs, _ := ingestion.PreprocessAll(tokenizer.Default(), ingestion.SampleCorpus)
	for _, backend := range []string{config.BackendBleve, config.BackendSegment} {
		b.Run(backend, func(b *testing.B) {
			cfg := config.IndexerConfig{DataDir: filepath.Join(b.TempDir(), "idx"), Backend: backend}
			if _, err := BuildDocuments(context.Background(), cfg, docs); err != nil {
				b.Fatal(err)
			}
			store, err := Open(cfg)
			if err != nil {
				b.Fatal(err)
			}
			defer store.Close()
			ctx := context.Background()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := store.Postings(ctx, "cat"); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
