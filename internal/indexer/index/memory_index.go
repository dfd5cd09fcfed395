package index

import (
	"cmp"
	"maps"
	"slices"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer/tokenizer"
)

// MemoryIndex is an in-memory inverted index over already preprocessed
// text. It is the staging area for segment files.
//
// Next to the inverted map it keeps each document's distinct terms, so
// replacing a document only touches the terms it actually used.
type MemoryIndex struct {
	mu       sync.RWMutex
	inverted map[string]map[string]*Posting
	forward  map[string]document
	tokens   int64
}

type document struct {
	terms  []string
	length int
}

func NewMemoryIndex() *MemoryIndex {
	m := &MemoryIndex{}
	m.clear()
	return m
}

func (m *MemoryIndex) clear() {
	m.inverted = make(map[string]map[string]*Posting)
	m.forward = make(map[string]document)
	m.tokens = 0
}

// AddDocument indexes the whitespace-separated terms of processed. Adding
// an id twice replaces the earlier postings.
func (m *MemoryIndex) AddDocument(docID string, processed string) {
	tokens := tokenizer.Analyze(processed)
	byTerm := make(map[string]*Posting, len(tokens))
	for _, tok := range tokens {
		p := byTerm[tok.Term]
		if p == nil {
			p = &Posting{DocID: docID}
			byTerm[tok.Term] = p
		}
		p.Frequency++
		p.Positions = append(p.Positions, tok.Position)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLocked(docID)
	for term, p := range byTerm {
		docs := m.inverted[term]
		if docs == nil {
			docs = make(map[string]*Posting)
			m.inverted[term] = docs
		}
		docs[docID] = p
	}
	m.forward[docID] = document{terms: slices.Collect(maps.Keys(byTerm)), length: len(tokens)}
	m.tokens += int64(len(tokens))
}

func (m *MemoryIndex) dropLocked(docID string) {
	prev, ok := m.forward[docID]
	if !ok {
		return
	}
	for _, term := range prev.terms {
		docs := m.inverted[term]
		delete(docs, docID)
		if len(docs) == 0 {
			delete(m.inverted, term)
		}
	}
	delete(m.forward, docID)
	m.tokens -= int64(prev.length)
}

// Search returns the postings for term ordered by document id, or nil
// when no document contains it.
func (m *MemoryIndex) Search(term string) PostingList {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return postingList(m.inverted[term])
}

// Snapshot returns every term with its postings, sorted by term.
func (m *MemoryIndex) Snapshot() []TermEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]TermEntry, 0, len(m.inverted))
	for _, term := range slices.Sorted(maps.Keys(m.inverted)) {
		entries = append(entries, TermEntry{Term: term, Postings: postingList(m.inverted[term])})
	}
	return entries
}

func postingList(docs map[string]*Posting) PostingList {
	if len(docs) == 0 {
		return nil
	}
	pl := make(PostingList, 0, len(docs))
	for _, p := range docs {
		pl = append(pl, *p)
	}
	slices.SortFunc(pl, func(a, b Posting) int { return cmp.Compare(a.DocID, b.DocID) })
	return pl
}

// DocStats returns the token count of every indexed document, including
// documents that contributed no terms.
func (m *MemoryIndex) DocStats() []DocStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := make([]DocStats, 0, len(m.forward))
	for _, id := range slices.Sorted(maps.Keys(m.forward)) {
		stats = append(stats, DocStats{DocID: id, DocLen: m.forward[id].length})
	}
	return stats
}

func (m *MemoryIndex) DocCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.forward)
}

func (m *MemoryIndex) TermCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.inverted)
}

func (m *MemoryIndex) TotalTokens() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens
}

// Reset empties the index after a flush.
func (m *MemoryIndex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clear()
}
