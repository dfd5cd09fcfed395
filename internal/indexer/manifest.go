package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/errors"
)

// ManifestFile marks a complete index. It is written last during a build.
const ManifestFile = "manifest.json"

// Manifest records how and when an index was built.
type Manifest struct {
	Backend     string    `json:"backend"`
	Generation  string    `json:"generation"`
	// Stemmer names the preprocessor that produced the indexed terms.
	// Queries must be normalised with the same one.
	Stemmer     string    `json:"stemmer,omitempty"`
	Documents   int       `json:"documents"`
	UniqueTerms int       `json:"unique_terms"`
	TotalTerms  int64     `json:"total_terms"`
	Source      string    `json:"source,omitempty"`
	BuiltAt     time.Time `json:"built_at"`
}

// ReadManifest loads dir/manifest.json.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Newf(apperrors.ErrIndexNotFound, apperrors.ExitIndex,
				"%s has no %s (incomplete or foreign directory)", dir, ManifestFile)
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parsing manifest: %v", apperrors.ErrIndexCorrupt, err)
	}
	if m.Generation == "" || m.Backend == "" {
		return nil, fmt.Errorf("%w: manifest lacks backend or generation", apperrors.ErrIndexCorrupt)
	}
	return &m, nil
}

func writeManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	tmp := filepath.Join(dir, ManifestFile+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, ManifestFile)); err != nil {
		return fmt.Errorf("renaming manifest: %w", err)
	}
	return nil
}
