// Package batch groups the LoserTree's (ngram, file-id) stream into
// per-ngram posting lists and assigns them a monotonic sequence number, per
// spec.md §4.5. It is grounded on the teacher's merge.go postHeap drain
// loop, generalized to push groups onto a channel instead of writing
// directly, so the compressor pool downstream can run concurrently.
package batch

import (
	"context"

	"github.com/cmu-sei/biggrep/internal/losertree"
)

// Group is one completed posting list: all file ids sharing Ngram, in
// ascending order, tagged with the order it was produced in.
type Group struct {
	Ngram uint32
	IDs   []uint32
	SeqNo uint64
}

// SoftBackpressureBound caps how far the compressor queue may lag behind
// the writer before the batcher pauses (spec.md §4.5: "compress_counter −
// write_counter exceeds a soft bound (≈50000)").
const SoftBackpressureBound = 50000

// Run drains tree, emitting one Group per distinct ngram value to out, in
// ascending ngram order with strictly increasing seq numbers starting at 0.
// It blocks sending when out is full, which is itself the backpressure
// mechanism: out should be sized so its capacity reflects
// SoftBackpressureBound rather than the batcher tracking counters
// independently. Run returns when the tree is empty or ctx is canceled.
func Run(ctx context.Context, tree *losertree.Tree, out chan<- Group) error {
	defer close(out)

	var (
		have    bool
		current Group
	)
	seq := uint64(0)

	flush := func() error {
		if !have {
			return nil
		}
		current.SeqNo = seq
		seq++
		select {
		case out <- current:
		case <-ctx.Done():
			return ctx.Err()
		}
		have = false
		return nil
	}

	for !tree.Empty() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		g, id := tree.Pop()
		if have && current.Ngram == g {
			current.IDs = append(current.IDs, id)
			continue
		}
		if err := flush(); err != nil {
			return err
		}
		current = Group{Ngram: g, IDs: []uint32{id}}
		have = true
	}
	return flush()
}
