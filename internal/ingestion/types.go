// Package ingestion defines the document types of the retrieval pipeline and
// moves them between the raw corpus, the preprocessor and the JSON-lines
// collection consumed by the indexer.
package ingestion

// RawDocument is one entry of the unprocessed corpus.
type RawDocument struct {
	ID       string `json:"id"`
	Contents string `json:"contents"`
}

// Document is a preprocessed corpus entry. Contents holds the processed
// (lower-cased, stop-word free, stemmed) text; Raw keeps the original.
type Document struct {
	ID       string `json:"id"`
	Contents string `json:"contents"`
	Raw      string `json:"raw,omitempty"`
}

// LineError describes a JSON-lines record that was skipped.
type LineError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ReadReport summarises a JSON-lines read.
type ReadReport struct {
	Read    int         `json:"read"`
	Skipped []LineError `json:"skipped,omitempty"`
}
