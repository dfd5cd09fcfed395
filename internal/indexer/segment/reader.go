package segment

import (
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/errors"
)

// Reader serves term lookups from one segment file. The dictionary is held
// in memory; postings are read on demand.
type Reader struct {
	file     *os.File
	filePath string
	header   SegmentHeader
	dict     []DictEntry
	postBase int64
}

// OpenReader opens path, checks the header and footer checksum, and loads
// the dictionary. Structural problems are reported as ErrIndexCorrupt.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	r, err := load(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func load(f *os.File, path string) (*Reader, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat segment file: %w", err)
	}
	if info.Size() < int64(HeaderSize+FooterSize) {
		return nil, fmt.Errorf("%w: segment %s is truncated", apperrors.ErrIndexCorrupt, path)
	}

	headerBytes := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		return nil, fmt.Errorf("reading segment header: %w", err)
	}
	header := decodeHeader(headerBytes)
	if header.Magic != MagicBytes {
		return nil, fmt.Errorf("%w: bad magic bytes %x", apperrors.ErrIndexCorrupt, header.Magic)
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported segment version %d", apperrors.ErrIndexCorrupt, header.Version)
	}
	bodySize := header.PostSize + header.DictSize
	if header.PostOffset != int64(HeaderSize) || header.DictOffset != header.PostOffset+header.PostSize ||
		int64(HeaderSize)+bodySize+int64(FooterSize) != info.Size() {
		return nil, fmt.Errorf("%w: segment layout does not match file size", apperrors.ErrIndexCorrupt)
	}

	tailBytes := make([]byte, FooterSize)
	if _, err := f.ReadAt(tailBytes, info.Size()-int64(FooterSize)); err != nil {
		return nil, fmt.Errorf("reading segment footer: %w", err)
	}
	tail := decodeFooter(tailBytes)
	if tail.DictOffset != header.DictOffset || tail.DictSize != header.DictSize || tail.DocCount != header.DocCount {
		return nil, fmt.Errorf("%w: header and footer disagree", apperrors.ErrIndexCorrupt)
	}
	crc := crc32.NewIEEE()
	if _, err := io.Copy(crc, io.NewSectionReader(f, header.PostOffset, bodySize)); err != nil {
		return nil, fmt.Errorf("checksumming segment: %w", err)
	}
	if got := crc.Sum32(); got != tail.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch (got %08x, want %08x)", apperrors.ErrIndexCorrupt, got, tail.Checksum)
	}

	dictBytes := make([]byte, header.DictSize)
	if _, err := f.ReadAt(dictBytes, header.DictOffset); err != nil {
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	var dict []DictEntry
	if err := json.Unmarshal(dictBytes, &dict); err != nil {
		return nil, fmt.Errorf("%w: parsing dictionary: %v", apperrors.ErrIndexCorrupt, err)
	}
	return &Reader{
		file:     f,
		filePath: path,
		header:   header,
		dict:     dict,
		postBase: header.PostOffset,
	}, nil
}

// Search returns the postings of term, or nil when the term is absent.
func (r *Reader) Search(term string) (index.PostingList, error) {
	idx := sort.Search(len(r.dict), func(i int) bool {
		return r.dict[i].Term >= term
	})
	if idx >= len(r.dict) || r.dict[idx].Term != term {
		return nil, nil
	}
	entry := r.dict[idx]
	postingsBytes := make([]byte, entry.PostLen)
	if _, err := r.file.ReadAt(postingsBytes, r.postBase+entry.PostOffset); err != nil {
		return nil, fmt.Errorf("reading postings: %w", err)
	}
	var postings index.PostingList
	if err := json.Unmarshal(postingsBytes, &postings); err != nil {
		return nil, fmt.Errorf("%w: parsing postings for %q: %v", apperrors.ErrIndexCorrupt, term, err)
	}
	return postings, nil
}

// Dictionary returns the sorted term dictionary. Callers must not modify it.
func (r *Reader) Dictionary() []DictEntry {
	return r.dict
}

func (r *Reader) Terms() int {
	return len(r.dict)
}

func (r *Reader) DocCount() uint32 {
	return r.header.DocCount
}

func (r *Reader) Header() SegmentHeader {
	return r.header
}

func (r *Reader) Path() string {
	return r.filePath
}

func (r *Reader) Close() error {
	return r.file.Close()
}
