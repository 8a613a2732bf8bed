// Package compress turns batched posting groups into their final on-disk
// byte encoding: a VarByte-encoded first id, then either a run of PFOR
// blocks or a VarByte fallback for the remaining delta-encoded ids, per
// spec.md §4.6. Grounded on the teacher's index write.go encoder (which
// also VarByte-encodes a delta-encoded postlist per file) generalized with
// the PFOR attempt/fallback step the teacher never needed.
package compress

import (
	"fmt"
	"io"

	"github.com/orcaman/writerseeker"

	"github.com/cmu-sei/biggrep/internal/batch"
	"github.com/cmu-sei/biggrep/internal/pfor"
	"github.com/cmu-sei/biggrep/internal/varbyte"
)

// CompressedPosting is one compressor output, ready to be ordered and
// flushed by the writer.
type CompressedPosting struct {
	Ngram            uint32
	SeqNo            uint64
	UncompressedSize int
	Bytes            []byte
	PFOR             bool
}

// Compressor encodes batch.Groups using a configured PFOR codec and
// threshold. It holds no mutable state and is safe to share across the
// compressor worker pool.
type Compressor struct {
	codec     *pfor.Codec
	threshold int
}

// New returns a Compressor. threshold is PFOR_threshold from spec.md §4.6
// step 3: lists shorter than this after the first id always fall back to
// plain VarByte.
func New(blockSize, maxExceptions, threshold int) *Compressor {
	return &Compressor{codec: pfor.New(blockSize, maxExceptions), threshold: threshold}
}

// Compress converts g's sorted file ids to deltas and encodes them,
// attempting PFOR for the tail when it is long enough and falling back to
// VarByte per value on any PFOR width overflow.
func (c *Compressor) Compress(g batch.Group) (*CompressedPosting, error) {
	ids := append([]uint32(nil), g.IDs...)
	pfor.ToDeltas(ids, 0)

	ws := &writerseeker.WriterSeeker{}
	prefix := varbyte.Encode(nil, uint64(ids[0]))
	n, err := ws.Write(prefix)
	if err != nil {
		return nil, fmt.Errorf("compress: write prefix: %w", err)
	}
	length := n
	usedPFOR := false

	tail := ids[1:]
	if len(tail) >= c.threshold {
		ok, newLength, err := c.tryPFOR(ws, length, tail)
		if err != nil {
			return nil, err
		}
		usedPFOR = ok
		length = newLength
	}

	if !usedPFOR {
		var buf []byte
		for _, v := range tail {
			buf = varbyte.Encode(buf, uint64(v))
		}
		n, err := ws.Write(buf)
		if err != nil {
			return nil, fmt.Errorf("compress: write fallback: %w", err)
		}
		length += n
	}

	out := ws.Bytes()
	if len(out) > length {
		out = out[:length]
	}
	return &CompressedPosting{
		Ngram:            g.Ngram,
		SeqNo:            g.SeqNo,
		UncompressedSize: 4 * len(g.IDs),
		Bytes:            out,
		PFOR:             usedPFOR,
	}, nil
}

// tryPFOR encodes tail as a sequence of fixed-size PFOR blocks, padding the
// last block with zero deltas. If any block reports a width overflow it
// seeks ws back to prefixEnd (spec.md §4.6 step 3's "truncate the padding,
// clear the byte buffer back to the prefix") and reports ok=false so the
// caller falls through to the VarByte path.
func (c *Compressor) tryPFOR(ws *writerseeker.WriterSeeker, prefixEnd int, tail []uint32) (ok bool, length int, err error) {
	blockSize := c.codec.BlockSize
	numBlocks := (len(tail) + blockSize - 1) / blockSize
	pos := prefixEnd
	for i := 0; i < numBlocks; i++ {
		start := i * blockSize
		end := start + blockSize
		block := make([]uint32, blockSize)
		if end <= len(tail) {
			copy(block, tail[start:end])
		} else {
			copy(block, tail[start:])
		}

		enc, eerr := c.codec.EncodeBlock(nil, block)
		if eerr != nil {
			if _, serr := ws.Seek(int64(prefixEnd), io.SeekStart); serr != nil {
				return false, 0, fmt.Errorf("compress: rewind after width overflow: %w", serr)
			}
			return false, prefixEnd, nil
		}
		n, werr := ws.Write(enc)
		if werr != nil {
			return false, 0, fmt.Errorf("compress: write pfor block: %w", werr)
		}
		pos += n
	}
	return true, pos, nil
}
