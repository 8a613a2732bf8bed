package compress

import (
	"testing"

	"github.com/cmu-sei/biggrep/internal/batch"
	"github.com/cmu-sei/biggrep/internal/pfor"
	"github.com/cmu-sei/biggrep/internal/varbyte"
	"github.com/stretchr/testify/require"
)

func decodeAll(t *testing.T, c *Compressor, cp *CompressedPosting, count int) []uint32 {
	t.Helper()
	out := make([]uint32, count)
	first, n, ok := varbyte.Decode(cp.Bytes)
	require.True(t, ok)
	out[0] = uint32(first)
	off := n

	if cp.PFOR {
		remaining := count - 1
		for i := 1; i < count; {
			block, consumed, err := c.codec.DecodeBlock(cp.Bytes[off:])
			require.NoError(t, err)
			off += consumed
			for _, d := range block {
				if i >= count {
					break
				}
				out[i] = d
				i++
			}
		}
		_ = remaining
	} else {
		for i := 1; i < count; i++ {
			v, n, ok := varbyte.Decode(cp.Bytes[off:])
			require.True(t, ok)
			out[i] = uint32(v)
			off += n
		}
	}
	pfor.FromDeltas(out, 0)
	return out
}

func TestCompressSmallListUsesVarByte(t *testing.T) {
	c := New(32, 3, 8)
	g := batch.Group{Ngram: 7, IDs: []uint32{1, 2, 3}, SeqNo: 0}
	cp, err := c.Compress(g)
	require.NoError(t, err)
	require.False(t, cp.PFOR)
	require.Equal(t, 12, cp.UncompressedSize)

	got := decodeAll(t, c, cp, 3)
	require.Equal(t, g.IDs, got)
}

func TestCompressLargeClusteredListUsesPFOR(t *testing.T) {
	c := New(32, 3, 8)
	ids := make([]uint32, 40)
	for i := range ids {
		ids[i] = uint32(i) * 2
	}
	g := batch.Group{Ngram: 1, IDs: ids, SeqNo: 5}
	cp, err := c.Compress(g)
	require.NoError(t, err)
	require.True(t, cp.PFOR)

	got := decodeAll(t, c, cp, len(ids))
	require.Equal(t, ids, got)
}

func TestCompressFallsBackOnWidthOverflow(t *testing.T) {
	c := New(8, 1, 4)
	ids := []uint32{0, 1, 1000000, 2000000, 3000000, 4000000, 5000000, 6000000, 7000000}
	g := batch.Group{Ngram: 2, IDs: ids, SeqNo: 0}
	cp, err := c.Compress(g)
	require.NoError(t, err)
	require.False(t, cp.PFOR)

	got := decodeAll(t, c, cp, len(ids))
	require.Equal(t, ids, got)
}
