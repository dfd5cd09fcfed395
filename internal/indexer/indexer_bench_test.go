package indexer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/config"
)

var benchVocabulary = strings.Fields("dog cat mous bird fish index queri term stem retriev rank document boolean search")

func benchDocs(n int) []ingestion.Document {
	docs := make([]ingestion.Document, n)
	for i := range docs {
		words := make([]string, 0, 8)
		for j := 0; j < 8; j++ {
			words = append(words, benchVocabulary[(i*7+j*3)%len(benchVocabulary)])
		}
		docs[i] = ingestion.Document{ID: fmt.Sprintf("d%d", i+1), Contents: strings.Join(words, " ")}
	}
	return docs
}

// BenchmarkBuildDocuments measures a full build, including the manifest and
// the verification pass, for both backends.
func BenchmarkBuildDocuments(b *testing.B) {
	for _, backend := range []string{config.BackendBleve, config.BackendSegment} {
		for _, n := range []int{100, 1000} {
			docs := benchDocs(n)
			b.Run(fmt.Sprintf("%s_docs_%d", backend, n), func(b *testing.B) {
				dir := b.TempDir()
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					cfg := config.IndexerConfig{
						DataDir:   filepath.Join(dir, fmt.Sprintf("run-%d", i)),
						Backend:   backend,
						Overwrite: true,
					}
					if _, err := BuildDocuments(context.Background(), cfg, docs); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkPostings(b *testing.B) {
	store, err := NewMemoryStore(context.Background(), benchDocs(1000))
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.Postings(context.Background(), benchVocabulary[i%len(benchVocabulary)]); err != nil {
			b.Fatal(err)
		}
	}
}
