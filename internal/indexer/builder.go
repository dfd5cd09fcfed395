package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/metrics"
)

// sampleDocCount is how many stored documents a build report echoes back.
const sampleDocCount = 3

// BuildReport summarises an index build.
type BuildReport struct {
	IndexDir    string                `json:"index_dir"`
	Backend     string                `json:"backend"`
	Generation  string                `json:"generation"`
	Documents   int                   `json:"documents"`
	Skipped     []ingestion.LineError `json:"skipped,omitempty"`
	UniqueTerms int                   `json:"unique_terms"`
	TotalTerms  int64                 `json:"total_terms"`
	Samples     []ingestion.Document  `json:"samples,omitempty"`
	Duration    time.Duration         `json:"duration"`
}

// buildTarget receives documents during a build. Commit persists and
// releases the target; Abort releases it after a failure.
type buildTarget interface {
	Add(ctx context.Context, doc ingestion.Document) error
	Commit(ctx context.Context, generation string) error
	Abort() error
}

type buildOptions struct {
	metrics *metrics.Metrics
	pre     *tokenizer.Preprocessor
	source  string
}

// BuildOption adjusts a build.
type BuildOption func(*buildOptions)

// WithMetrics records build counters on m.
func WithMetrics(m *metrics.Metrics) BuildOption {
	return func(o *buildOptions) { o.metrics = m }
}

// WithPreprocessor normalises document contents with pre instead of the
// default Porter pipeline.
func WithPreprocessor(pre *tokenizer.Preprocessor) BuildOption {
	return func(o *buildOptions) { o.pre = pre }
}

// Build indexes the JSON-lines collection at jsonlPath into cfg.DataDir.
// Malformed lines are skipped and listed in the report.
func Build(ctx context.Context, cfg config.IndexerConfig, jsonlPath string, opts ...BuildOption) (*BuildReport, error) {
	docs, readReport, err := ingestion.ReadJSONLFile(jsonlPath)
	if err != nil {
		return nil, err
	}
	opts = append([]BuildOption{func(o *buildOptions) { o.source = jsonlPath }}, opts...)
	report, err := BuildDocuments(ctx, cfg, docs, opts...)
	if err != nil {
		return nil, err
	}
	report.Skipped = readReport.Skipped
	if o := resolve(opts); o.metrics != nil {
		o.metrics.DocsSkippedTotal.Add(float64(len(readReport.Skipped)))
	}
	return report, nil
}

func resolve(opts []BuildOption) buildOptions {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// BuildDocuments indexes docs into cfg.DataDir. Contents go through the
// preprocessor first, so raw text and already processed text index alike,
// and the manifest records which stemmer was used. The directory is locked
// for the duration of the build; an existing index is replaced only when
// cfg.Overwrite is set. The result is reopened and checked before the
// report is returned.
func BuildDocuments(ctx context.Context, cfg config.IndexerConfig, docs []ingestion.Document, opts ...BuildOption) (report *BuildReport, err error) {
	o := resolve(opts)
	logger := slog.Default().With("component", "index-builder")
	start := time.Now()
	if o.pre == nil {
		o.pre = tokenizer.Default()
	}

	backend := cfg.Backend
	if backend == "" {
		backend = config.BackendBleve
	}
	defer func() {
		if o.metrics == nil {
			return
		}
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.IndexBuildsTotal.WithLabelValues(backend, status).Inc()
	}()

	dir := filepath.Clean(cfg.DataDir)
	lock, err := acquireLock(dir)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	if err := prepareDir(dir, cfg.Overwrite, logger); err != nil {
		return nil, err
	}

	docs = normalize(dedupe(docs, logger), o.pre, logger)
	generation := uuid.NewString()
	target, err := newBuildTarget(backend, dir, generation)
	if err != nil {
		return nil, err
	}

	logger.Info("building index",
		"index_dir", dir,
		"backend", backend,
		"generation", generation,
		"documents", len(docs),
	)
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			target.Abort()
			return nil, fmt.Errorf("build cancelled after %d documents: %w", i, err)
		}
		if err := target.Add(ctx, doc); err != nil {
			target.Abort()
			return nil, err
		}
	}
	if err := target.Commit(ctx, generation); err != nil {
		return nil, fmt.Errorf("committing index: %w", err)
	}

	unique, total := countTerms(docs)
	manifest := &Manifest{
		Backend:     backend,
		Generation:  generation,
		Stemmer:     o.pre.StemmerName(),
		Documents:   len(docs),
		UniqueTerms: unique,
		TotalTerms:  total,
		Source:      o.source,
		BuiltAt:     time.Now().UTC(),
	}
	if err := writeManifest(dir, manifest); err != nil {
		return nil, err
	}
	if o.metrics != nil {
		o.metrics.DocsIndexedTotal.Add(float64(len(docs)))
	}

	samples, err := verifyBuild(ctx, config.IndexerConfig{DataDir: dir, Backend: backend}, manifest)
	if err != nil {
		return nil, err
	}

	report = &BuildReport{
		IndexDir:    dir,
		Backend:     backend,
		Generation:  generation,
		Documents:   len(docs),
		UniqueTerms: unique,
		TotalTerms:  total,
		Samples:     samples,
		Duration:    time.Since(start),
	}
	logger.Info("index built",
		"index_dir", dir,
		"documents", report.Documents,
		"unique_terms", report.UniqueTerms,
		"total_terms", report.TotalTerms,
		"duration", report.Duration,
	)
	return report, nil
}

func newBuildTarget(backend, dir, generation string) (buildTarget, error) {
	switch backend {
	case config.BackendBleve:
		return newBleveWriter(dir)
	case config.BackendSegment:
		return NewEngine(dir, generation)
	default:
		return nil, fmt.Errorf("unknown index backend %q", backend)
	}
}

// acquireLock takes an exclusive lock on a file next to dir, so that the
// lock survives removal of dir itself.
func acquireLock(dir string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, fmt.Errorf("creating index parent directory: %w", err)
	}
	lock := flock.New(LockPath(dir))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking index: %w", err)
	}
	if !locked {
		return nil, apperrors.Newf(apperrors.ErrIndexLocked, apperrors.ExitIndex,
			"%s is being built by another process", dir)
	}
	return lock, nil
}

// LockPath returns the lock file guarding builds of dir.
func LockPath(dir string) string {
	return filepath.Clean(dir) + ".lock"
}

// prepareDir makes dir ready for a fresh build. Only directories holding a
// manifest, or empty ones, are ever removed.
func prepareDir(dir string, overwrite bool, logger *slog.Logger) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return fmt.Errorf("reading index directory: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err != nil {
		return apperrors.Newf(apperrors.ErrIndexExists, apperrors.ExitIndex,
			"%s is not empty and holds no index manifest; refusing to overwrite", dir)
	}
	if !overwrite {
		return apperrors.Newf(apperrors.ErrIndexExists, apperrors.ExitIndex,
			"%s already holds an index (enable overwrite to rebuild)", dir)
	}
	logger.Info("removing existing index", "index_dir", dir)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing existing index: %w", err)
	}
	return os.MkdirAll(dir, 0o755)
}

// verifyBuild reopens the index and checks that every document is
// retrievable, returning a few stored documents for display.
func verifyBuild(ctx context.Context, cfg config.IndexerConfig, m *Manifest) ([]ingestion.Document, error) {
	store, err := Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("verifying index: %w", err)
	}
	defer store.Close()

	ids, err := store.DocIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("verifying index: %w", err)
	}
	if len(ids) != m.Documents {
		return nil, fmt.Errorf("%w: index holds %d documents, expected %d",
			apperrors.ErrIndexCorrupt, len(ids), m.Documents)
	}
	samples := make([]ingestion.Document, 0, sampleDocCount)
	for _, id := range ids {
		if len(samples) == sampleDocCount {
			break
		}
		doc, err := store.Document(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("verifying index: %w", err)
		}
		samples = append(samples, doc)
	}
	return samples, nil
}

// countTerms returns the number of distinct terms and the total number of
// term occurrences across docs.
func countTerms(docs []ingestion.Document) (int, int64) {
	unique := make(map[string]struct{})
	var total int64
	for _, doc := range docs {
		for _, tok := range tokenizer.Analyze(doc.Contents) {
			unique[tok.Term] = struct{}{}
			total++
		}
	}
	return len(unique), total
}

// dedupe keeps the first document for every id.
func dedupe(docs []ingestion.Document, logger *slog.Logger) []ingestion.Document {
	seen := make(map[string]struct{}, len(docs))
	out := make([]ingestion.Document, 0, len(docs))
	for _, doc := range docs {
		if _, dup := seen[doc.ID]; dup {
			logger.Warn("dropping duplicate document id", "doc_id", doc.ID)
			continue
		}
		seen[doc.ID] = struct{}{}
		out = append(out, doc)
	}
	return out
}

// normalize preprocesses every document's contents. Text that changes
// keeps its original form in Raw unless Raw is already set.
func normalize(docs []ingestion.Document, pre *tokenizer.Preprocessor, logger *slog.Logger) []ingestion.Document {
	out := make([]ingestion.Document, len(docs))
	rewritten := 0
	for i, doc := range docs {
		processed := pre.ProcessText(doc.Contents)
		if processed != doc.Contents {
			if doc.Raw == "" {
				doc.Raw = doc.Contents
			}
			doc.Contents = processed
			rewritten++
		}
		out[i] = doc
	}
	if rewritten > 0 {
		logger.Info("preprocessed document contents at index time",
			"documents", rewritten,
			"stemmer", pre.StemmerName(),
		)
	}
	return out
}
