package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/whitespace"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/errors"
)

const (
	// ProcessedAnalyzerName splits preprocessed text on whitespace and
	// lower-cases it. Stemming and stop-word removal have already happened.
	ProcessedAnalyzerName = "processed_text"

	bleveSubdir   = "bleve"
	fieldContents = "contents"
	fieldRaw      = "raw"

	bleveBatchSize = 100
)

type bleveDocument struct {
	Contents string `json:"contents"`
	Raw      string `json:"raw"`
}

// createIndexMapping indexes contents with term vectors and stores raw
// without indexing it.
func createIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()
	err := indexMapping.AddCustomAnalyzer(ProcessedAnalyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     whitespace.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("adding analyzer: %w", err)
	}
	indexMapping.DefaultAnalyzer = ProcessedAnalyzerName

	contents := bleve.NewTextFieldMapping()
	contents.Analyzer = ProcessedAnalyzerName
	contents.Store = true
	contents.IncludeTermVectors = true
	contents.IncludeInAll = false

	raw := bleve.NewTextFieldMapping()
	raw.Index = false
	raw.Store = true
	raw.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false
	doc.AddFieldMappingsAt(fieldContents, contents)
	doc.AddFieldMappingsAt(fieldRaw, raw)

	indexMapping.DefaultMapping = doc
	indexMapping.IndexDynamic = false
	indexMapping.StoreDynamic = false
	return indexMapping, nil
}

// bleveWriter streams documents into a new Bleve index in batches.
type bleveWriter struct {
	idx   bleve.Index
	batch *bleve.Batch
}

func newBleveWriter(dir string) (*bleveWriter, error) {
	indexMapping, err := createIndexMapping()
	if err != nil {
		return nil, err
	}
	var idx bleve.Index
	if dir == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		idx, err = bleve.New(filepath.Join(dir, bleveSubdir), indexMapping)
	}
	if err != nil {
		return nil, fmt.Errorf("creating bleve index: %w", err)
	}
	return &bleveWriter{idx: idx, batch: idx.NewBatch()}, nil
}

func (w *bleveWriter) Add(_ context.Context, doc ingestion.Document) error {
	if err := w.batch.Index(doc.ID, bleveDocument{Contents: doc.Contents, Raw: doc.Raw}); err != nil {
		return fmt.Errorf("indexing document %s: %w", doc.ID, err)
	}
	if w.batch.Size() >= bleveBatchSize {
		return w.flush()
	}
	return nil
}

func (w *bleveWriter) flush() error {
	if w.batch.Size() == 0 {
		return nil
	}
	if err := w.idx.Batch(w.batch); err != nil {
		return fmt.Errorf("executing batch: %w", err)
	}
	w.batch.Reset()
	return nil
}

func (w *bleveWriter) Commit(_ context.Context, _ string) error {
	if err := w.flush(); err != nil {
		return err
	}
	return w.idx.Close()
}

func (w *bleveWriter) Abort() error {
	return w.idx.Close()
}

// bleveStore answers term lookups with Bleve term queries.
type bleveStore struct {
	mu       sync.RWMutex
	idx      bleve.Index
	manifest *Manifest
	dir      string
	closed   bool
	logger   *slog.Logger
}

func openBleveStore(dir string, manifest *Manifest) (*bleveStore, error) {
	path := filepath.Join(dir, bleveSubdir)
	idx, err := bleve.OpenUsing(path, map[string]interface{}{"read_only": true})
	if err != nil {
		if err == bleve.ErrorIndexPathDoesNotExist {
			return nil, fmt.Errorf("%w: bleve index missing at %s", apperrors.ErrIndexCorrupt, path)
		}
		return nil, fmt.Errorf("%w: opening bleve index: %v", apperrors.ErrIndexCorrupt, err)
	}
	return &bleveStore{
		idx:      idx,
		manifest: manifest,
		dir:      dir,
		logger:   slog.Default().With("component", "bleve-store"),
	}, nil
}

// NewMemoryStore indexes docs into an in-memory Bleve index. It backs
// one-off evaluations that need no persisted index.
func NewMemoryStore(ctx context.Context, docs []ingestion.Document) (Store, error) {
	w, err := newBleveWriter("")
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if err := w.Add(ctx, doc); err != nil {
			w.Abort()
			return nil, err
		}
	}
	if err := w.flush(); err != nil {
		w.Abort()
		return nil, err
	}
	unique, total := countTerms(docs)
	return &bleveStore{
		idx: w.idx,
		manifest: &Manifest{
			Backend:     config.BackendBleve,
			Generation:  "mem-" + uuid.NewString(),
			Documents:   len(docs),
			UniqueTerms: unique,
			TotalTerms:  total,
		},
		logger: slog.Default().With("component", "bleve-store"),
	}, nil
}

func (s *bleveStore) docCount() (int, error) {
	n, err := s.idx.DocCount()
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return int(n), nil
}

func (s *bleveStore) Postings(ctx context.Context, term string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if term == "" {
		return nil, nil
	}
	size, err := s.docCount()
	if err != nil || size == 0 {
		return nil, err
	}

	q := bleve.NewTermQuery(term)
	q.SetField(fieldContents)
	req := bleve.NewSearchRequestOptions(q, size, 0, false)
	res, err := s.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("term query %q: %w", term, err)
	}
	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	ingestion.SortIDs(ids)
	s.logger.Debug("term lookup", "term", term, "postings", len(ids))
	return ids, nil
}

func (s *bleveStore) DocIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("index is closed")
	}
	size, err := s.docCount()
	if err != nil || size == 0 {
		return nil, err
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), size, 0, false)
	res, err := s.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	ingestion.SortIDs(ids)
	return ids, nil
}

func (s *bleveStore) Document(ctx context.Context, id string) (ingestion.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ingestion.Document{}, fmt.Errorf("index is closed")
	}
	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{id}))
	req.Fields = []string{fieldContents, fieldRaw}
	res, err := s.idx.SearchInContext(ctx, req)
	if err != nil {
		return ingestion.Document{}, fmt.Errorf("loading document %s: %w", id, err)
	}
	if len(res.Hits) == 0 {
		return ingestion.Document{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	hit := res.Hits[0]
	doc := ingestion.Document{ID: hit.ID}
	if v, ok := hit.Fields[fieldContents].(string); ok {
		doc.Contents = v
	}
	if v, ok := hit.Fields[fieldRaw].(string); ok {
		doc.Raw = v
	}
	return doc, nil
}

func (s *bleveStore) Terms(_ context.Context) ([]TermInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("index is closed")
	}
	dict, err := s.idx.FieldDict(fieldContents)
	if err != nil {
		return nil, fmt.Errorf("opening term dictionary: %w", err)
	}
	defer dict.Close()

	var terms []TermInfo
	for {
		entry, err := dict.Next()
		if err != nil {
			return nil, fmt.Errorf("reading term dictionary: %w", err)
		}
		if entry == nil {
			break
		}
		if entry.Count == 0 {
			continue
		}
		terms = append(terms, TermInfo{Term: entry.Term, DocFreq: int(entry.Count)})
	}
	return terms, nil
}

func (s *bleveStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Stats{}, fmt.Errorf("index is closed")
	}
	n, err := s.docCount()
	if err != nil {
		return Stats{}, err
	}
	return statsFromManifest(s.manifest, s.dir, n), nil
}

func (s *bleveStore) Generation() string {
	return s.manifest.Generation
}

func (s *bleveStore) Backend() string {
	return config.BackendBleve
}

func (s *bleveStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.idx.Close()
}

var _ Store = (*bleveStore)(nil)
