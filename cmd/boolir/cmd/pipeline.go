package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ingestion"
)

// previewCount is how many documents the pipeline echoes before and after
// preprocessing.
const previewCount = 3

// loadRaw reads the raw corpus from input, or returns the embedded sample
// corpus when input is empty.
func loadRaw(a *app, input string) ([]ingestion.RawDocument, error) {
	if input == "" {
		return ingestion.SampleCorpus, nil
	}
	raws, report, err := ingestion.ReadRawJSONLFile(input)
	if err != nil {
		return nil, err
	}
	for _, skipped := range report.Skipped {
		a.out.Warn("skipped line %d of %s: %s", skipped.Line, input, skipped.Reason)
	}
	return raws, nil
}

// preprocessStep normalises raws and writes them to output as JSON lines.
func preprocessStep(a *app, raws []ingestion.RawDocument, output string, verbose bool) ([]ingestion.Document, error) {
	p := a.out
	p.Header("Original documents")
	for _, raw := range raws[:min(previewCount, len(raws))] {
		p.Printf("  %s: %s\n", p.Styles().DocID.Render(raw.ID), raw.Contents)
	}
	if len(raws) > previewCount {
		p.Dim("  ... and %d more documents", len(raws)-previewCount)
	}

	if verbose {
		for _, raw := range raws {
			printTrace(a, raw)
		}
	}

	docs, summary := ingestion.PreprocessAll(a.pre, raws)
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if err := ingestion.WriteJSONLFile(output, docs); err != nil {
		return nil, err
	}

	p.Println()
	p.Header("Preprocessing summary")
	p.KV("stemmer", a.pre.StemmerName())
	p.KV("documents", summary.Documents)
	p.KV("words before", summary.WordsBefore)
	p.KV("words after", summary.WordsAfter)
	p.KV("reduction", fmt.Sprintf("%.1f%%", summary.Reduction()*100))
	p.KV("written to", output)
	for _, id := range summary.Empty {
		p.Warn("  document %s has no terms left after preprocessing", id)
	}
	p.Header("Processed documents")
	for _, doc := range docs[:min(previewCount, len(docs))] {
		p.Printf("  %s: %s\n", p.Styles().DocID.Render(doc.ID), doc.Contents)
	}
	return docs, nil
}

func printTrace(a *app, raw ingestion.RawDocument) {
	p := a.out
	t := a.pre.Trace(raw.Contents)
	p.Println()
	p.Header("Document " + raw.ID)
	p.KV("original", t.Original)
	p.KV("lowercased", t.Lowercased)
	p.KV("no punctuation", t.NoPunctuation)
	p.KV("cleaned", t.Cleaned)
	p.KV("tokens", strings.Join(t.Tokens, " "))
	p.KV("without stopwords", strings.Join(t.WithoutStopwords, " "))
	p.KV("stemmed", t.Processed())
}

// indexStep builds the index from jsonlPath and reports the build to
// analytics.
func indexStep(ctx context.Context, a *app, jsonlPath string) (*indexer.BuildReport, error) {
	a.connect(ctx)
	start := time.Now()
	report, err := indexer.Build(ctx, a.cfg.Indexer, jsonlPath,
		indexer.WithMetrics(a.metrics),
		indexer.WithPreprocessor(a.pre),
	)
	if err != nil {
		return nil, err
	}
	a.collector.Track(ctx, analytics.IndexEvent{
		Type:        analytics.EventIndexBuild,
		Backend:     report.Backend,
		Generation:  report.Generation,
		Documents:   report.Documents,
		Skipped:     len(report.Skipped),
		UniqueTerms: report.UniqueTerms,
		LatencyMs:   time.Since(start).Milliseconds(),
		Timestamp:   time.Now().UTC(),
	})
	printBuildReport(a, report)
	return report, nil
}

func printBuildReport(a *app, r *indexer.BuildReport) {
	p := a.out
	p.Header("Index")
	p.KV("directory", r.IndexDir)
	p.KV("backend", r.Backend)
	p.KV("generation", r.Generation)
	p.KV("documents", r.Documents)
	p.KV("unique terms", r.UniqueTerms)
	p.KV("total terms", r.TotalTerms)
	p.KV("build time", r.Duration.Round(time.Millisecond))
	for _, skipped := range r.Skipped {
		p.Warn("  skipped line %d: %s", skipped.Line, skipped.Reason)
	}
	if len(r.Samples) > 0 {
		p.Header("Sample stored documents")
		for _, doc := range r.Samples {
			p.Printf("  %s: %s\n", p.Styles().DocID.Render(doc.ID), doc.Contents)
		}
	}
}
