package segment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/errors"
)

func writeSample(t *testing.T, dir string) string {
	t.Helper()
	m := index.NewMemoryIndex()
	m.AddDocument("d1", "cat chase mou")
	m.AddDocument("d4", "dog cat sleep")
	m.AddDocument("d7", "dog bark")

	name, err := NewWriter(dir).Write("gen1", m.Snapshot())
	require.NoError(t, err)
	return filepath.Join(dir, name)
}

func TestWriteAndRead(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir)
	assert.Equal(t, "seg_gen1.spdx", filepath.Base(path))

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 6, r.Terms())
	assert.EqualValues(t, 3, r.DocCount())
	assert.NotZero(t, r.Header().CreatedAt)

	cat, err := r.Search("cat")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d4"}, cat.DocIDs())

	missing, err := r.Search("bird")
	require.NoError(t, err)
	assert.Nil(t, missing)

	dict := r.Dictionary()
	require.Len(t, dict, 6)
	assert.Equal(t, "bark", dict[0].Term)
	assert.Equal(t, 1, dict[0].DocFreq)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWrite_EmptySegment(t *testing.T) {
	dir := t.TempDir()
	name, err := NewWriter(dir).Write("empty", nil)
	require.NoError(t, err)

	r, err := OpenReader(filepath.Join(dir, name))
	require.NoError(t, err)
	defer r.Close()
	assert.Zero(t, r.Terms())
}

func TestWrite_RejectsUnsortedEntries(t *testing.T) {
	entries := []index.TermEntry{
		{Term: "dog", Postings: index.PostingList{{DocID: "d1", Frequency: 1}}},
		{Term: "cat", Postings: index.PostingList{{DocID: "d1", Frequency: 1}}},
	}
	_, err := NewWriter(t.TempDir()).Write("bad", entries)
	require.Error(t, err)
}

func TestOpenReader_DetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[HeaderSize+2] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = OpenReader(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrIndexCorrupt)
}

func TestOpenReader_Truncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.spdx")
	require.NoError(t, os.WriteFile(path, []byte("SPDX"), 0o644))

	_, err := OpenReader(path)
	assert.ErrorIs(t, err, apperrors.ErrIndexCorrupt)
}

func TestOpenReader_FooterMismatch(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// footer doc count
	data[len(data)-FooterSize+4]++
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = OpenReader(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrIndexCorrupt)
	assert.Contains(t, err.Error(), "header and footer disagree")
}

func TestHeaderEncoding(t *testing.T) {
	h := SegmentHeader{
		Magic:      MagicBytes,
		Version:    FormatVersion,
		TermCount:  7,
		DocCount:   3,
		DictOffset: 200,
		DictSize:   90,
		PostOffset: int64(HeaderSize),
		PostSize:   136,
		CreatedAt:  1700000000,
	}
	b := h.encode()
	require.Len(t, b, HeaderSize)
	assert.Equal(t, h, decodeHeader(b))
}
