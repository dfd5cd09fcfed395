package ingestion

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/ingestion/validator"
)

// maxLineBytes bounds a single JSON-lines record.
const maxLineBytes = 4 << 20

// record is the on-disk shape of a JSON-lines entry. The id may be written
// as a string or a number.
type record struct {
	ID       json.RawMessage `json:"id"`
	Contents *string         `json:"contents"`
	Raw      string          `json:"raw"`
}

// ReadJSONL decodes one document per line. Blank lines are ignored; lines
// that are not valid JSON, lack id or contents, or repeat an earlier id are
// skipped and listed in the report. Only I/O failures are returned as errors.
func ReadJSONL(r io.Reader) ([]Document, ReadReport, error) {
	logger := slog.Default().With("component", "ingestion")

	var (
		docs   []Document
		report ReadReport
		seen   = make(map[string]int)
	)
	skip := func(line int, reason string) {
		report.Skipped = append(report.Skipped, LineError{Line: line, Reason: reason})
		logger.Warn("skipping document line", "line", line, "reason", reason)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			skip(lineNo, fmt.Sprintf("invalid JSON: %v", err))
			continue
		}

		id, err := decodeID(rec.ID)
		if err != nil {
			skip(lineNo, err.Error())
			continue
		}
		present := map[string]bool{"id": rec.ID != nil, "contents": rec.Contents != nil}
		contents := ""
		if rec.Contents != nil {
			contents = *rec.Contents
		}
		if err := validator.ValidateDocument(id, contents, present); err != nil {
			skip(lineNo, err.Error())
			continue
		}
		if first, dup := seen[id]; dup {
			skip(lineNo, fmt.Sprintf("duplicate id %q (first seen on line %d)", id, first))
			continue
		}
		seen[id] = lineNo

		docs = append(docs, Document{ID: id, Contents: contents, Raw: rec.Raw})
		report.Read++
	}
	if err := scanner.Err(); err != nil {
		return docs, report, fmt.Errorf("reading line %d: %w", lineNo+1, err)
	}
	return docs, report, nil
}

func decodeID(raw json.RawMessage) (string, error) {
	if raw == nil || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("id must be a string or number, got %s", string(raw))
}

// ReadJSONLFile opens path and reads it with ReadJSONL.
func ReadJSONLFile(path string) ([]Document, ReadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ReadReport{}, fmt.Errorf("opening documents file: %w", err)
	}
	defer f.Close()
	return ReadJSONL(f)
}

// WriteJSONL writes one {id, contents, raw} object per document.
func WriteJSONL(w io.Writer, docs []Document) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding document %s: %w", doc.ID, err)
		}
	}
	return bw.Flush()
}

// WriteJSONLFile creates path (and its parent directory) and writes docs.
func WriteJSONLFile(path string, docs []Document) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating documents file: %w", err)
	}
	if err := WriteJSONL(f, docs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadRawJSONLFile reads an unprocessed corpus in the same line format.
// The contents field carries the original text.
func ReadRawJSONLFile(path string) ([]RawDocument, ReadReport, error) {
	docs, report, err := ReadJSONLFile(path)
	raws := make([]RawDocument, 0, len(docs))
	for _, d := range docs {
		raws = append(raws, RawDocument{ID: d.ID, Contents: d.Contents})
	}
	return raws, report, err
}
