package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer/index"
)

// MagicBytes identifies a valid .spdx segment file.
const (
	MagicBytes    uint32 = 0x53504458
	FormatVersion uint32 = 2
	HeaderSize    int    = 64
	FooterSize    int    = 32
	FileExt              = ".spdx"
)

// SegmentHeader is the 64-byte header written at the start of every segment.
type SegmentHeader struct {
	Magic      uint32
	Version    uint32
	TermCount  uint32
	DocCount   uint32
	DictOffset int64
	DictSize   int64
	PostOffset int64
	PostSize   int64
	CreatedAt  int64
}

var le = binary.LittleEndian

func (h SegmentHeader) encode() []byte {
	b := make([]byte, HeaderSize)
	le.PutUint32(b[0:4], h.Magic)
	le.PutUint32(b[4:8], h.Version)
	le.PutUint32(b[8:12], h.TermCount)
	le.PutUint32(b[12:16], h.DocCount)
	for i, v := range []int64{h.DictOffset, h.DictSize, h.PostOffset, h.PostSize, h.CreatedAt} {
		le.PutUint64(b[16+8*i:24+8*i], uint64(v))
	}
	return b
}

func decodeHeader(b []byte) SegmentHeader {
	field := func(i int) int64 { return int64(le.Uint64(b[16+8*i : 24+8*i])) }
	return SegmentHeader{
		Magic:      le.Uint32(b[0:4]),
		Version:    le.Uint32(b[4:8]),
		TermCount:  le.Uint32(b[8:12]),
		DocCount:   le.Uint32(b[12:16]),
		DictOffset: field(0),
		DictSize:   field(1),
		PostOffset: field(2),
		PostSize:   field(3),
		CreatedAt:  field(4),
	}
}

// footer closes a segment. Checksum covers the postings and the dictionary.
type footer struct {
	Checksum   uint32
	DocCount   uint32
	DictOffset int64
	DictSize   int64
	PostSize   int64
}

func (f footer) encode() []byte {
	b := make([]byte, FooterSize)
	le.PutUint32(b[0:4], f.Checksum)
	le.PutUint32(b[4:8], f.DocCount)
	le.PutUint64(b[8:16], uint64(f.DictOffset))
	le.PutUint64(b[16:24], uint64(f.DictSize))
	le.PutUint64(b[24:32], uint64(f.PostSize))
	return b
}

func decodeFooter(b []byte) footer {
	return footer{
		Checksum:   le.Uint32(b[0:4]),
		DocCount:   le.Uint32(b[4:8]),
		DictOffset: int64(le.Uint64(b[8:16])),
		DictSize:   int64(le.Uint64(b[16:24])),
		PostSize:   int64(le.Uint64(b[24:32])),
	}
}

// DictEntry maps a term to its postings offset, length, and document frequency
// in the segment file.
type DictEntry struct {
	Term       string `json:"t"`
	PostOffset int64  `json:"o"`
	PostLen    int    `json:"l"`
	DocFreq    int    `json:"d"`
}

// Writer serialises TermEntry slices into .spdx segment files.
type Writer struct {
	dataDir string
}

// NewWriter creates a Writer that writes segments into the given directory.
func NewWriter(dataDir string) *Writer {
	return &Writer{dataDir: dataDir}
}

// FileName returns the segment file name for a build generation.
func FileName(generation string) string {
	return "seg_" + generation + FileExt
}

// Write atomically creates the segment file for generation. Entries must
// be sorted by term. It writes to a .tmp file first and renames on success.
// An empty entry list yields a valid segment with an empty dictionary.
func (w *Writer) Write(generation string, entries []index.TermEntry) (string, error) {
	segmentName := FileName(generation)
	finalPath := filepath.Join(w.dataDir, segmentName)
	tmpPath := finalPath + ".tmp"

	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return "", fmt.Errorf("creating segment directory: %w", err)
	}
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp segment file: %w", err)
	}
	defer f.Close()

	// The header is rewritten once the section sizes are known.
	if _, err := f.Write(make([]byte, HeaderSize)); err != nil {
		return "", fmt.Errorf("writing header: %w", err)
	}

	crc := crc32.NewIEEE()
	out := io.MultiWriter(f, crc)

	postingsStart := int64(HeaderSize)
	offset := int64(0)
	dict := make([]DictEntry, 0, len(entries))
	docIDs := make(map[string]struct{})
	prev := ""
	for i, entry := range entries {
		if i > 0 && entry.Term <= prev {
			return "", fmt.Errorf("entries out of order at term %q", entry.Term)
		}
		prev = entry.Term
		postingsData, err := json.Marshal(entry.Postings)
		if err != nil {
			return "", fmt.Errorf("marshaling postings for term %q: %w", entry.Term, err)
		}
		if _, err := out.Write(postingsData); err != nil {
			return "", fmt.Errorf("writing postings for term %q: %w", entry.Term, err)
		}
		dict = append(dict, DictEntry{
			Term:       entry.Term,
			PostOffset: offset,
			PostLen:    len(postingsData),
			DocFreq:    len(entry.Postings),
		})
		offset += int64(len(postingsData))
		for _, p := range entry.Postings {
			docIDs[p.DocID] = struct{}{}
		}
	}

	postingsSize := offset
	dictStart := postingsStart + postingsSize
	dictData, err := json.Marshal(dict)
	if err != nil {
		return "", fmt.Errorf("marshaling dictionary: %w", err)
	}
	if _, err := out.Write(dictData); err != nil {
		return "", fmt.Errorf("writing dictionary: %w", err)
	}
	dictSize := int64(len(dictData))

	tail := footer{
		Checksum:   crc.Sum32(),
		DocCount:   uint32(len(docIDs)),
		DictOffset: dictStart,
		DictSize:   dictSize,
		PostSize:   postingsSize,
	}
	if _, err := f.Write(tail.encode()); err != nil {
		return "", fmt.Errorf("writing footer: %w", err)
	}

	header := SegmentHeader{
		Magic:      MagicBytes,
		Version:    FormatVersion,
		TermCount:  uint32(len(entries)),
		DocCount:   uint32(len(docIDs)),
		DictOffset: dictStart,
		DictSize:   dictSize,
		PostOffset: postingsStart,
		PostSize:   postingsSize,
		CreatedAt:  time.Now().Unix(),
	}
	if _, err := f.WriteAt(header.encode(), 0); err != nil {
		return "", fmt.Errorf("updating header: %w", err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("syncing segment file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing segment file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("renaming segment file: %w", err)
	}
	return segmentName, nil
}
