package pfor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func defaultCodec() *Codec {
	return New(DefaultBlockSize, DefaultMaxExceptions)
}

func TestRoundTripTightlyClustered(t *testing.T) {
	c := defaultCodec()
	vals := make([]uint32, c.BlockSize)
	for i := range vals {
		vals[i] = uint32(i % 3) // small deltas, well within a narrow b
	}
	enc, err := c.EncodeBlock(nil, vals)
	require.NoError(t, err)

	got, n, err := c.DecodeBlock(enc)
	require.NoError(t, err)
	require.Equal(t, len(enc), n)
	require.Equal(t, vals, got)
}

func TestSpecialAllOnes(t *testing.T) {
	c := defaultCodec()
	vals := make([]uint32, c.BlockSize)
	for i := range vals {
		vals[i] = 1
	}
	enc, err := c.EncodeBlock(nil, vals)
	require.NoError(t, err)
	require.Len(t, enc, 1, "special block must be exactly one header byte")
	require.Equal(t, byte(0), enc[0]&0x0f, "b-nybble must be 0 for special block")

	got, n, err := c.DecodeBlock(enc)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, vals, got)
}

func TestWithExceptions(t *testing.T) {
	c := defaultCodec()
	vals := make([]uint32, c.BlockSize)
	for i := range vals {
		vals[i] = 1
	}
	// introduce MaxExceptions outliers that need far more than 1 bit.
	vals[3] = 500
	vals[10] = 70000
	vals[20] = 9

	enc, err := c.EncodeBlock(nil, vals)
	require.NoError(t, err)

	got, _, err := c.DecodeBlock(enc)
	require.NoError(t, err)
	require.Equal(t, vals, got)
}

func TestWidthOverflow(t *testing.T) {
	c := New(32, 3)
	vals := make([]uint32, c.BlockSize)
	// every value distinct and large: no b keeps exceptions <= 3.
	for i := range vals {
		vals[i] = uint32(i) * 104729
	}
	_, err := c.EncodeBlock(nil, vals)
	require.ErrorIs(t, err, ErrWidthOverflow)
}

func TestBlockSizeMismatch(t *testing.T) {
	c := defaultCodec()
	_, err := c.EncodeBlock(nil, make([]uint32, c.BlockSize-1))
	require.ErrorIs(t, err, ErrBlockSizeMismatch)
}

func TestDeltaRoundTrip(t *testing.T) {
	xs := []uint32{5, 8, 9, 20, 21, 1000}
	orig := append([]uint32(nil), xs...)
	ToDeltas(xs, 0)
	FromDeltas(xs, 0)
	require.Equal(t, orig, xs)
}

func TestEncodeAppendsToDst(t *testing.T) {
	c := defaultCodec()
	vals := make([]uint32, c.BlockSize)
	prefix := []byte{0xAA, 0xBB}
	enc, err := c.EncodeBlock(append([]byte(nil), prefix...), vals)
	require.NoError(t, err)
	require.Equal(t, prefix, enc[:2])
}
