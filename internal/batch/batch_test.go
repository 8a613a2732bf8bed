package batch

import (
	"context"
	"testing"

	"github.com/cmu-sei/biggrep/internal/losertree"
	"github.com/cmu-sei/biggrep/internal/ngram"
	"github.com/cmu-sei/biggrep/internal/shingle"
	"github.com/stretchr/testify/require"
)

func fd(id uint32, grams ...ngram.Ngram) *shingle.FileData {
	return &shingle.FileData{ID: id, Ngrams: grams, HasValues: len(grams) > 0}
}

func TestGroupsByNgramWithIncreasingSeq(t *testing.T) {
	tree := losertree.New([]*shingle.FileData{
		fd(0, 1, 3, 5),
		fd(1, 3, 6),
		fd(2, 3, 4),
	})

	out := make(chan Group, 16)
	err := Run(context.Background(), tree, out)
	require.NoError(t, err)

	var groups []Group
	for g := range out {
		groups = append(groups, g)
	}

	require.Equal(t, []Group{
		{Ngram: 1, IDs: []uint32{0}, SeqNo: 0},
		{Ngram: 3, IDs: []uint32{0, 1, 2}, SeqNo: 1},
		{Ngram: 4, IDs: []uint32{2}, SeqNo: 2},
		{Ngram: 5, IDs: []uint32{0}, SeqNo: 3},
		{Ngram: 6, IDs: []uint32{1}, SeqNo: 4},
	}, groups)
}

func TestRunRespectsCancellation(t *testing.T) {
	tree := losertree.New([]*shingle.FileData{fd(0, 1, 2, 3)})
	out := make(chan Group)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, tree, out)
	require.Error(t, err)
}
