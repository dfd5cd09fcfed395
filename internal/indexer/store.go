// Package indexer builds and opens the on-disk document index. Two backends
// sit behind the Store interface: a Bleve index (the default) and a native
// single-segment inverted index.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/errors"
)

// ErrDocumentNotFound is returned by Store.Document for unknown ids.
var ErrDocumentNotFound = errors.New("document not found")

// TermInfo is one entry of the term dictionary.
type TermInfo struct {
	Term    string `json:"term"`
	DocFreq int    `json:"doc_freq"`
}

// Stats describes an open index.
type Stats struct {
	Backend     string    `json:"backend"`
	Generation  string    `json:"generation"`
	Stemmer     string    `json:"stemmer,omitempty"`
	Documents   int       `json:"documents"`
	UniqueTerms int       `json:"unique_terms"`
	TotalTerms  int64     `json:"total_terms"`
	BuiltAt     time.Time `json:"built_at"`
	Path        string    `json:"path"`
}

// Store is read access to a built index. Term lookups take the already
// normalised term and return document ids in natural order; an unknown
// term yields an empty result, never an error.
type Store interface {
	Postings(ctx context.Context, term string) ([]string, error)
	DocIDs(ctx context.Context) ([]string, error)
	Document(ctx context.Context, id string) (ingestion.Document, error)
	Terms(ctx context.Context) ([]TermInfo, error)
	Stats(ctx context.Context) (Stats, error)
	Generation() string
	Backend() string
	Close() error
}

// Open opens the index in cfg.DataDir for reading. The backend is taken from
// the index manifest; a mismatch with cfg.Backend is logged, not fatal.
func Open(cfg config.IndexerConfig) (Store, error) {
	logger := slog.Default().With("component", "indexer")

	info, err := os.Stat(cfg.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Newf(apperrors.ErrIndexNotFound, apperrors.ExitIndex,
				"no index at %s (run the index command first)", cfg.DataDir)
		}
		return nil, fmt.Errorf("stat index directory: %w", err)
	}
	if !info.IsDir() {
		return nil, apperrors.Newf(apperrors.ErrIndexNotFound, apperrors.ExitIndex, "%s is not a directory", cfg.DataDir)
	}

	manifest, err := ReadManifest(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if cfg.Backend != "" && cfg.Backend != manifest.Backend {
		logger.Warn("configured backend differs from index manifest, using manifest",
			"configured", cfg.Backend,
			"manifest", manifest.Backend,
		)
	}

	var store Store
	switch manifest.Backend {
	case config.BackendBleve:
		store, err = openBleveStore(cfg.DataDir, manifest)
	case config.BackendSegment:
		store, err = OpenEngine(cfg.DataDir, manifest)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q in manifest", apperrors.ErrIndexCorrupt, manifest.Backend)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("index opened",
		"index_dir", cfg.DataDir,
		"backend", manifest.Backend,
		"generation", manifest.Generation,
		"documents", manifest.Documents,
	)
	return store, nil
}

func statsFromManifest(m *Manifest, dir string, docs int) Stats {
	return Stats{
		Backend:     m.Backend,
		Generation:  m.Generation,
		Stemmer:     m.Stemmer,
		Documents:   docs,
		UniqueTerms: m.UniqueTerms,
		TotalTerms:  m.TotalTerms,
		BuiltAt:     m.BuiltAt,
		Path:        dir,
	}
}
