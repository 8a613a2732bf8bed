package bgformat

import (
	"testing"

	"github.com/cmu-sei/biggrep/internal/ngram"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := &Header{
		FmtMajor:        2,
		FmtMinor:        1,
		N:               ngram.N4,
		HintType:        HintTrimNybble,
		PforBlocksize:   32,
		NumNgrams:       1234,
		NumFiles:        7,
		FileIDMapOffset: 999999,
	}
	require.NoError(t, h.Validate())
	require.Equal(t, 29, h.Size())

	buf := h.WriteTo(nil)
	require.Len(t, buf, 29)

	got, err := ReadHeader(buf)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestHeaderV1NoHintType(t *testing.T) {
	h := &Header{FmtMajor: 2, FmtMinor: 0, N: ngram.N3, PforBlocksize: 32}
	require.False(t, h.HasHintType())
	require.Equal(t, 28, h.Size())
	buf := h.WriteTo(nil)
	require.Len(t, buf, 28)
}

func TestNumHints(t *testing.T) {
	cases := []struct {
		n    ngram.N
		ht   HintType
		want uint64
	}{
		{ngram.N3, HintTrimByte, 1 << 16},
		{ngram.N4, HintTrimByte, 1 << 24},
		{ngram.N3, HintTrimNybble, 1 << 20},
		{ngram.N4, HintTrimNybble, 1 << 28},
		{ngram.N3, HintFull, 1 << 24},
		{ngram.N4, HintFull, 1 << 32},
	}
	for _, c := range cases {
		h := &Header{N: c.n, HintType: c.ht}
		require.Equal(t, c.want, h.NumHints(), "N=%d hint_type=%d", c.n, c.ht)
	}
}

func TestHintMaskAndShift(t *testing.T) {
	h := &Header{N: ngram.N4, HintType: HintTrimByte}
	require.Equal(t, uint32(0xFF), h.HintTypeMask())
	require.Equal(t, uint64(0x123456), h.ToHint(ngram.Ngram(0x12345678)))

	h.HintType = HintTrimNybble
	require.Equal(t, uint32(0x0F), h.HintTypeMask())
	require.Equal(t, uint64(0x1234567), h.ToHint(ngram.Ngram(0x12345678)))

	h.HintType = HintFull
	require.Equal(t, uint32(0x00), h.HintTypeMask())
	require.Equal(t, uint64(0x12345678), h.ToHint(ngram.Ngram(0x12345678)))
}

func TestBadMagic(t *testing.T) {
	buf := make([]byte, 28)
	copy(buf, "NOTBIGGR")
	_, err := ReadHeader(buf)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestCheckFinalized(t *testing.T) {
	h := &Header{FileIDMapOffset: 0}
	require.ErrorIs(t, h.CheckFinalized(100), ErrUnfinalized)

	h.FileIDMapOffset = 1000
	require.ErrorIs(t, h.CheckFinalized(100), ErrOffsetOverrun)

	h.FileIDMapOffset = 50
	require.NoError(t, h.CheckFinalized(100))
}
