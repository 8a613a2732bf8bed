package ngram

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractN4(t *testing.T) {
	grams, err := Extract(N4, []byte{0x01, 0x02, 0x03, 0x04, 0x05}, nil)
	require.NoError(t, err)
	require.Equal(t, []Ngram{
		Ngram(le32([]byte{1, 2, 3, 4})),
		Ngram(le32([]byte{2, 3, 4, 5})),
	}, grams)
}

func TestExtractN3MinimalBuffer(t *testing.T) {
	// Exactly N bytes: the minimum valid input. Regression test for a
	// buffer-underflow in the last-position rule when len(buf) < 4.
	grams, err := Extract(N3, []byte{0xAA, 0xBB, 0xCC}, nil)
	require.NoError(t, err)
	require.Equal(t, []Ngram{Ngram(0xAA) | Ngram(0xBB)<<8 | Ngram(0xCC)<<16}, grams)
}

func TestExtractN3LastPositionRule(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04}
	grams, err := Extract(N3, buf, nil)
	require.NoError(t, err)
	require.Len(t, grams, 2)
	// position 0: bytes 0,1,2
	require.Equal(t, Ngram(0x01)|Ngram(0x02)<<8|Ngram(0x03)<<16, grams[0])
	// final position: bytes 1,2,3 (top three bytes of the last four-byte window)
	require.Equal(t, Ngram(0x02)|Ngram(0x03)<<8|Ngram(0x04)<<16, grams[1])
}

func TestExtractTooShort(t *testing.T) {
	grams, err := Extract(N4, []byte{1, 2}, nil)
	require.NoError(t, err)
	require.Empty(t, grams)
}

func TestExtractInvalidN(t *testing.T) {
	_, err := Extract(N(5), []byte{1, 2, 3, 4, 5}, nil)
	require.Error(t, err)
}

func TestFromHex(t *testing.T) {
	grams, err := FromHex(N4, "deadbeef")
	require.NoError(t, err)
	require.Equal(t, []Ngram{Ngram(le32([]byte{0xde, 0xad, 0xbe, 0xef}))}, grams)
}

func TestFromHexOddLength(t *testing.T) {
	_, err := FromHex(N4, "abc")
	require.Error(t, err)
}

func TestFromHexTooShort(t *testing.T) {
	_, err := FromHex(N4, "aabb")
	require.Error(t, err)
}

func TestSortUnique(t *testing.T) {
	got := SortUnique([]Ngram{5, 1, 3, 1, 5, 2})
	require.Equal(t, []Ngram{1, 2, 3, 5}, got)
}
