package losertree

import (
	"testing"

	"github.com/cmu-sei/biggrep/internal/ngram"
	"github.com/cmu-sei/biggrep/internal/shingle"
	"github.com/stretchr/testify/require"
)

func fd(id uint32, grams ...ngram.Ngram) *shingle.FileData {
	return &shingle.FileData{ID: id, Ngrams: grams, HasValues: len(grams) > 0}
}

func TestMergeAscendingOrder(t *testing.T) {
	files := []*shingle.FileData{
		fd(0, 1, 3, 5),
		fd(1, 2, 3, 6),
		fd(2, 3, 4),
	}
	tr := New(files)

	var got []uint32
	for !tr.Empty() {
		g, _ := tr.Pop()
		got = append(got, g)
	}
	require.Len(t, got, 8)
	for i := 1; i < len(got); i++ {
		require.LessOrEqual(t, got[i-1], got[i])
	}
}

func TestTieBrokenByFileID(t *testing.T) {
	files := []*shingle.FileData{
		fd(0, 5),
		fd(1, 5),
	}
	tr := New(files)
	g, id := tr.Pop()
	require.Equal(t, uint32(5), g)
	require.Equal(t, uint32(0), id)
	g, id = tr.Pop()
	require.Equal(t, uint32(5), g)
	require.Equal(t, uint32(1), id)
	require.True(t, tr.Empty())
}

func TestSingleFileRoundsUpLeaves(t *testing.T) {
	files := []*shingle.FileData{fd(0, 9, 10)}
	tr := New(files)
	require.False(t, tr.Empty())
	g, id := tr.Pop()
	require.Equal(t, uint32(9), g)
	require.Equal(t, uint32(0), id)
	g, id = tr.Pop()
	require.Equal(t, uint32(10), g)
	require.Equal(t, uint32(0), id)
	require.True(t, tr.Empty())
}

func TestEmptyFilesNeverWin(t *testing.T) {
	files := []*shingle.FileData{
		fd(0),
		fd(1, 42),
	}
	tr := New(files)
	g, id := tr.Pop()
	require.Equal(t, uint32(42), g)
	require.Equal(t, uint32(1), id)
	require.True(t, tr.Empty())
}
