package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cmu-sei/biggrep/internal/batch"
	"github.com/cmu-sei/biggrep/internal/bgformat"
	"github.com/cmu-sei/biggrep/internal/compress"
	"github.com/cmu-sei/biggrep/internal/ngram"
	"github.com/cmu-sei/biggrep/internal/varbyte"
	"github.com/stretchr/testify/require"
)

func testHeader() bgformat.Header {
	return bgformat.Header{
		FmtMajor:      2,
		FmtMinor:      1,
		N:             ngram.N3,
		HintType:      bgformat.HintTrimByte,
		PforBlocksize: 32,
	}
}

func TestWriteSmallIndexRoundTrip(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bgi")
	w, err := Open(dest, testHeader())
	require.NoError(t, err)

	c := compress.New(32, 3, 8)
	groups := []batch.Group{
		{Ngram: 2, IDs: []uint32{0, 1}, SeqNo: 0},
		{Ngram: 5, IDs: []uint32{2}, SeqNo: 1},
	}
	for _, g := range groups {
		cp, err := c.Compress(g)
		require.NoError(t, err)
		require.NoError(t, w.Accept(cp))
	}

	files := bgformat.FileIDMap{"/bin/a", "/bin/b", "/bin/c"}
	require.NoError(t, w.Finalize(files, false))

	raw, err := os.ReadFile(dest)
	require.NoError(t, err)

	h, err := bgformat.ReadHeader(raw)
	require.NoError(t, err)
	require.Equal(t, uint32(2), h.NumNgrams)
	require.Equal(t, uint32(3), h.NumFiles)
	require.NoError(t, h.CheckFinalized(int64(len(raw))))

	hintsStart := h.Size()
	hints, err := bgformat.ReadHintTable(raw[hintsStart:], h.NumHints())
	require.NoError(t, err)

	postingsStart := hintsStart + int(h.HintsSize())
	require.Equal(t, uint64(postingsStart), hints[0])

	// walk the posting stream from the start, expecting: two padding bytes
	// (ngram 0, 1), then ngram 2's posting, then two padding bytes (3, 4),
	// then ngram 5's posting.
	off := postingsStart
	require.Equal(t, byte(0), raw[off]) // ngram 0
	off++
	require.Equal(t, byte(0), raw[off]) // ngram 1
	off++

	size2, n, ok := varbyte.Decode(raw[off:])
	require.True(t, ok)
	off += n
	plen2 := int(size2 >> 1)
	off += plen2

	require.Equal(t, byte(0), raw[off]) // ngram 3
	off++
	require.Equal(t, byte(0), raw[off]) // ngram 4
	off++

	size5, n, ok := varbyte.Decode(raw[off:])
	require.True(t, ok)
	off += n
	plen5 := int(size5 >> 1)
	off += plen5

	require.Equal(t, int(h.FileIDMapOffset), off)

	gotMap, err := bgformat.ParseFileIDMap(raw[h.FileIDMapOffset:], false)
	require.NoError(t, err)
	require.Equal(t, files, gotMap)

	// hint index for ngram 2 and 5 (hint_type byte trim: g>>8) is 0 for
	// both (2>>8==0, 5>>8==0), so hints[0] should point at the very start
	// of the posting stream, not the first real posting.
	require.Equal(t, uint64(postingsStart), hints[0])
}

func TestAbortCleansUpWithoutFinalize(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.bgi")
	w, err := Open(dest, testHeader())
	require.NoError(t, err)
	w.Abort()
	_, err = os.Stat(dest)
	require.True(t, os.IsNotExist(err))
}
