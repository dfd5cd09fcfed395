package index

// Posting records one document's occurrences of a term.
type Posting struct {
	DocID     string `json:"doc"`
	Frequency int    `json:"tf"`
	Positions []int  `json:"pos,omitempty"`
}

type PostingList []Posting

// DocIDs returns the document ids of the list in stored order.
func (pl PostingList) DocIDs() []string {
	ids := make([]string, len(pl))
	for i, p := range pl {
		ids[i] = p.DocID
	}
	return ids
}

// TermEntry is one dictionary term with its postings, as written to a
// segment.
type TermEntry struct {
	Term     string
	Postings PostingList
}

// DocStats holds per-document term counts gathered while indexing.
type DocStats struct {
	DocID  string
	DocLen int
}
