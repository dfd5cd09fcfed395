package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/errors"
)

// DocsFile is the stored-documents side file of the segment backend.
const DocsFile = "docs.jsonl"

// Engine is the native segment backend. While building, documents collect
// in a memory index; Flush writes them as the single segment of the build
// generation and switches lookups over to the segment reader.
type Engine struct {
	memIndex   *index.MemoryIndex
	writer     *segment.Writer
	reader     *segment.Reader
	readerMu   sync.RWMutex
	dataDir    string
	generation string
	manifest   *Manifest

	docs   map[string]ingestion.Document
	order  []string
	docsMu sync.RWMutex

	logger *slog.Logger
}

// NewEngine prepares an empty engine that will write generation's segment
// into dataDir.
func NewEngine(dataDir string, generation string) (*Engine, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating index data directory: %w", err)
	}
	return &Engine{
		memIndex:   index.NewMemoryIndex(),
		writer:     segment.NewWriter(dataDir),
		dataDir:    dataDir,
		generation: generation,
		docs:       make(map[string]ingestion.Document),
		logger:     slog.Default().With("component", "segment-engine"),
	}, nil
}

// OpenEngine loads the segment and stored documents of a built index.
func OpenEngine(dataDir string, manifest *Manifest) (*Engine, error) {
	e := &Engine{
		memIndex:   index.NewMemoryIndex(),
		dataDir:    dataDir,
		generation: manifest.Generation,
		manifest:   manifest,
		docs:       make(map[string]ingestion.Document),
		logger:     slog.Default().With("component", "segment-engine"),
	}

	segPath := filepath.Join(dataDir, segment.FileName(manifest.Generation))
	reader, err := segment.OpenReader(segPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: segment %s missing", apperrors.ErrIndexCorrupt, segPath)
		}
		return nil, fmt.Errorf("loading segment: %w", err)
	}
	e.reader = reader

	docs, report, err := ingestion.ReadJSONLFile(filepath.Join(dataDir, DocsFile))
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("%w: loading stored documents: %v", apperrors.ErrIndexCorrupt, err)
	}
	if len(report.Skipped) > 0 {
		reader.Close()
		return nil, fmt.Errorf("%w: %d unreadable stored documents", apperrors.ErrIndexCorrupt, len(report.Skipped))
	}
	for _, doc := range docs {
		e.docs[doc.ID] = doc
		e.order = append(e.order, doc.ID)
	}
	ingestion.SortIDs(e.order)

	e.logger.Debug("loaded segment",
		"segment", filepath.Base(segPath),
		"terms", reader.Terms(),
		"docs", len(e.order),
	)
	return e, nil
}

// IndexDocument adds doc to the memory index.
func (e *Engine) IndexDocument(doc ingestion.Document) {
	e.memIndex.AddDocument(doc.ID, doc.Contents)

	e.docsMu.Lock()
	if _, exists := e.docs[doc.ID]; !exists {
		e.order = append(e.order, doc.ID)
	}
	e.docs[doc.ID] = doc
	e.docsMu.Unlock()

	e.logger.Debug("document indexed in memory",
		"doc_id", doc.ID,
		"mem_docs", e.memIndex.DocCount(),
	)
}

// Flush writes the memory index as this generation's segment, writes the
// stored documents, and opens the segment for reading. A generation has
// exactly one segment, so a second flush with new documents is an error.
func (e *Engine) Flush() error {
	e.readerMu.Lock()
	defer e.readerMu.Unlock()
	if e.reader != nil {
		if e.memIndex.DocCount() == 0 {
			return nil
		}
		return fmt.Errorf("segment for generation %s already written", e.generation)
	}
	if e.writer == nil {
		return fmt.Errorf("engine is read-only")
	}

	tokens := e.memIndex.TotalTokens()
	segmentName, err := e.writer.Write(e.generation, e.memIndex.Snapshot())
	if err != nil {
		return fmt.Errorf("writing segment: %w", err)
	}

	e.docsMu.Lock()
	ingestion.SortIDs(e.order)
	stored := make([]ingestion.Document, 0, len(e.order))
	for _, id := range e.order {
		stored = append(stored, e.docs[id])
	}
	e.docsMu.Unlock()
	if err := ingestion.WriteJSONLFile(filepath.Join(e.dataDir, DocsFile), stored); err != nil {
		return fmt.Errorf("writing stored documents: %w", err)
	}

	reader, err := segment.OpenReader(filepath.Join(e.dataDir, segmentName))
	if err != nil {
		return fmt.Errorf("opening new segment for reading: %w", err)
	}
	e.reader = reader
	e.memIndex.Reset()
	e.logger.Info("segment flushed",
		"segment", segmentName,
		"terms", reader.Terms(),
		"docs", reader.DocCount(),
		"tokens", tokens,
	)
	return nil
}

// Add and Commit let the engine act as a build target.
func (e *Engine) Add(_ context.Context, doc ingestion.Document) error {
	e.IndexDocument(doc)
	return nil
}

func (e *Engine) Commit(_ context.Context, _ string) error {
	if err := e.Flush(); err != nil {
		return err
	}
	return e.Close()
}

func (e *Engine) Abort() error {
	return e.Close()
}

// Postings merges memory and segment postings for term.
func (e *Engine) Postings(_ context.Context, term string) ([]string, error) {
	if term == "" {
		return nil, nil
	}
	all := e.memIndex.Search(term)

	e.readerMu.RLock()
	reader := e.reader
	e.readerMu.RUnlock()
	if reader != nil {
		postings, err := reader.Search(term)
		if err != nil {
			return nil, fmt.Errorf("segment search %q: %w", term, err)
		}
		all = append(all, postings...)
	}
	ids := deduplicatePostings(all).DocIDs()
	ingestion.SortIDs(ids)
	return ids, nil
}

func (e *Engine) DocIDs(_ context.Context) ([]string, error) {
	e.docsMu.RLock()
	defer e.docsMu.RUnlock()
	ids := make([]string, len(e.order))
	copy(ids, e.order)
	ingestion.SortIDs(ids)
	return ids, nil
}

func (e *Engine) Document(_ context.Context, id string) (ingestion.Document, error) {
	e.docsMu.RLock()
	defer e.docsMu.RUnlock()
	doc, ok := e.docs[id]
	if !ok {
		return ingestion.Document{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return doc, nil
}

func (e *Engine) Terms(_ context.Context) ([]TermInfo, error) {
	freq := make(map[string]int)
	for _, entry := range e.memIndex.Snapshot() {
		freq[entry.Term] += len(entry.Postings)
	}
	e.readerMu.RLock()
	if e.reader != nil {
		for _, entry := range e.reader.Dictionary() {
			freq[entry.Term] += entry.DocFreq
		}
	}
	e.readerMu.RUnlock()

	terms := make([]TermInfo, 0, len(freq))
	for term, n := range freq {
		terms = append(terms, TermInfo{Term: term, DocFreq: n})
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Term < terms[j].Term })
	return terms, nil
}

func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	ids, _ := e.DocIDs(ctx)
	if e.manifest != nil {
		return statsFromManifest(e.manifest, e.dataDir, len(ids)), nil
	}
	terms, _ := e.Terms(ctx)
	var total int64
	for _, ds := range e.memIndex.DocStats() {
		total += int64(ds.DocLen)
	}
	return Stats{
		Backend:     config.BackendSegment,
		Generation:  e.generation,
		Documents:   len(ids),
		UniqueTerms: len(terms),
		TotalTerms:  total,
		Path:        e.dataDir,
	}, nil
}

func (e *Engine) Generation() string {
	return e.generation
}

func (e *Engine) Backend() string {
	return config.BackendSegment
}

func (e *Engine) Close() error {
	e.readerMu.Lock()
	defer e.readerMu.Unlock()
	if e.reader == nil {
		return nil
	}
	err := e.reader.Close()
	e.reader = nil
	if err != nil {
		e.logger.Error("closing segment reader", "error", err)
	}
	return err
}

func deduplicatePostings(postings index.PostingList) index.PostingList {
	if len(postings) <= 1 {
		return postings
	}
	seen := make(map[string]int)
	result := make(index.PostingList, 0, len(postings))
	for _, p := range postings {
		if idx, exists := seen[p.DocID]; exists {
			if p.Frequency > result[idx].Frequency {
				result[idx] = p
			}
		} else {
			seen[p.DocID] = len(result)
			result = append(result, p)
		}
	}
	return result
}

var _ Store = (*Engine)(nil)
