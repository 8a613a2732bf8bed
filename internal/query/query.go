// Package query implements BigGrep's read side: given one or more hex byte
// patterns, it extracts their N-grams, probes the hint table, decodes the
// matching posting lists, and intersects them into a surviving file set,
// per spec.md §4.8. Grounded on the teacher's index read.go (postinglist
// decode-and-intersect loop in csearch.go) generalized to BigGrep's
// hint-skip seek and PFOR/VarByte dual posting format.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cmu-sei/biggrep/internal/bgformat"
	"github.com/cmu-sei/biggrep/internal/ngram"
	"github.com/cmu-sei/biggrep/internal/pfor"
	"github.com/cmu-sei/biggrep/internal/varbyte"
)

// ErrTruncatedPosting is a Format-class error (spec.md §7): the posting
// stream ends, or a size field claims more bytes than remain, before a
// read completes. Fatal to query callers, distinct from Invariant errors.
var ErrTruncatedPosting = errors.New("query: truncated posting stream")

// Index is an opened, finalized .bgi file ready for querying. raw is
// expected to be the whole file's bytes, typically a read-only mmap.
type Index struct {
	raw     []byte
	header  *bgformat.Header
	hints   bgformat.HintTable
	fileMap bgformat.FileIDMap
	codec   *pfor.Codec
}

// Open parses raw as a finalized .bgi file.
func Open(raw []byte) (*Index, error) {
	h, err := bgformat.ReadHeader(raw)
	if err != nil {
		return nil, err
	}
	if err := h.CheckFinalized(int64(len(raw))); err != nil {
		return nil, err
	}

	hintsStart := h.Size()
	hints, err := bgformat.ReadHintTable(raw[hintsStart:], h.NumHints())
	if err != nil {
		return nil, fmt.Errorf("query: read hint table: %w", err)
	}

	compressed := h.FmtMinor >= 2
	fileMap, err := bgformat.ParseFileIDMap(raw[h.FileIDMapOffset:], compressed)
	if err != nil {
		return nil, fmt.Errorf("query: parse fileid map: %w", err)
	}

	return &Index{
		raw:     raw,
		header:  h,
		hints:   hints,
		fileMap: fileMap,
		codec:   pfor.New(int(h.PforBlocksize), pfor.DefaultMaxExceptions),
	}, nil
}

// Header returns the index's parsed header.
func (idx *Index) Header() *bgformat.Header {
	return idx.header
}

// Search resolves every hex pattern to its N-gram set, intersects their
// posting lists, and returns the surviving file paths (metadata suffixes
// stripped). An empty, non-error result means no file matches.
func (idx *Index) Search(patterns []string) ([]string, error) {
	var all []ngram.Ngram
	for _, p := range patterns {
		grams, err := ngram.FromHex(idx.header.N, p)
		if err != nil {
			return nil, fmt.Errorf("query: pattern %q: %w", p, err)
		}
		all = append(all, grams...)
	}
	all = ngram.SortUnique(all)
	if len(all) == 0 {
		return nil, fmt.Errorf("query: no ngrams extracted from input patterns")
	}

	var found []uint32
	for i, g := range all {
		ids, empty, err := idx.postingFor(g)
		if err != nil {
			return nil, err
		}
		if empty {
			return nil, nil
		}
		if i == 0 {
			found = ids
		} else {
			found = intersectSorted(found, ids)
		}
		if len(found) == 0 {
			return nil, nil
		}
	}

	paths := make([]string, len(found))
	for i, id := range found {
		if int(id) >= len(idx.fileMap) {
			return nil, fmt.Errorf("query: posting references file id %d beyond fileid map (%d entries)", id, len(idx.fileMap))
		}
		paths[i] = stripMeta(idx.fileMap[id])
	}
	return paths, nil
}

// postingFor looks up g's hint, skips to its posting by scanning
// size-prefixed entries, and decodes the id list. empty is true when the
// hint itself is the "no postings" sentinel or the posting's size field is
// zero (an explicit padding/empty entry).
func (idx *Index) postingFor(g ngram.Ngram) (ids []uint32, empty bool, err error) {
	h := idx.header.ToHint(g)
	if h >= uint64(len(idx.hints)) {
		return nil, false, fmt.Errorf("query: hint index %d out of range", h)
	}
	pos := idx.hints[h]
	if pos == bgformat.NoPosting {
		return nil, true, nil
	}

	skip := uint32(g) & idx.header.HintTypeMask()
	for i := uint32(0); i < skip; i++ {
		size, n, ok := idx.decodeSizeField(pos)
		if !ok {
			return nil, false, ErrTruncatedPosting
		}
		pos += uint64(n) + uint64(size)
	}

	buf, ok := idx.sliceFrom(pos)
	if !ok {
		return nil, false, ErrTruncatedPosting
	}
	sizeField, n, ok := varbyte.Decode(buf)
	if !ok {
		return nil, false, ErrTruncatedPosting
	}
	pos += uint64(n)
	size := sizeField >> 1
	if size == 0 {
		return nil, true, nil
	}
	usePFOR := sizeField&1 == 1
	payload, ok := idx.sliceRange(pos, size)
	if !ok {
		return nil, false, ErrTruncatedPosting
	}

	ids, err = decodePosting(idx.codec, payload, usePFOR)
	if err != nil {
		return nil, false, err
	}
	return ids, false, nil
}

// decodeSizeField reads a posting's size field at file offset pos and
// returns the payload length (the stored len<<1|pfor value shifted right
// by one, dropping the PFOR flag) and the number of bytes the size field itself
// occupied, for the hint-skip loop's "advance by size + size_of_size_field"
// rule. A zero-size field (empty posting/padding) still counts as one
// skipped entry with a zero-length payload.
func (idx *Index) decodeSizeField(pos uint64) (size uint64, n int, ok bool) {
	buf, ok := idx.sliceFrom(pos)
	if !ok {
		return 0, 0, false
	}
	v, n, ok := varbyte.Decode(buf)
	if !ok {
		return 0, 0, false
	}
	return v >> 1, n, true
}

// sliceFrom returns idx.raw[pos:], or ok=false if pos lies beyond the end
// of the mapped file (a direct Go slice expression would panic instead).
func (idx *Index) sliceFrom(pos uint64) (buf []byte, ok bool) {
	if pos > uint64(len(idx.raw)) {
		return nil, false
	}
	return idx.raw[pos:], true
}

// sliceRange returns idx.raw[pos:pos+size], or ok=false if that range runs
// past the end of the mapped file.
func (idx *Index) sliceRange(pos, size uint64) (buf []byte, ok bool) {
	end := pos + size
	if end < pos || end > uint64(len(idx.raw)) {
		return nil, false
	}
	return idx.raw[pos:end], true
}

// decodePosting reconstructs a posting's ascending file-id list from its
// payload: a VarByte-encoded first id, then either a VarByte or PFOR tail
// of deltas. PFOR blocks are decoded until the whole payload is consumed;
// any trailing zero deltas are padding and are stripped before the
// cumulative sum is taken, since real deltas are always >= 1 (ids are
// strictly increasing).
func decodePosting(codec *pfor.Codec, payload []byte, usePFOR bool) ([]uint32, error) {
	first, n, ok := varbyte.Decode(payload)
	if !ok {
		return nil, fmt.Errorf("query: truncated posting payload")
	}
	off := n

	var deltas []uint32
	if usePFOR {
		for off < len(payload) {
			block, consumed, err := codec.DecodeBlock(payload[off:])
			if err != nil {
				return nil, fmt.Errorf("query: decode pfor block: %w", err)
			}
			deltas = append(deltas, block...)
			off += consumed
		}
		for len(deltas) > 0 && deltas[len(deltas)-1] == 0 {
			deltas = deltas[:len(deltas)-1]
		}
	} else {
		for off < len(payload) {
			v, n, ok := varbyte.Decode(payload[off:])
			if !ok {
				return nil, fmt.Errorf("query: truncated varbyte posting tail")
			}
			deltas = append(deltas, uint32(v))
			off += n
		}
	}

	ids := make([]uint32, 1+len(deltas))
	ids[0] = uint32(first)
	copy(ids[1:], deltas)
	pfor.FromDeltas(ids, 0)
	return ids, nil
}

// intersectSorted returns the sorted intersection of two sorted, duplicate-
// free uint32 slices.
func intersectSorted(a, b []uint32) []uint32 {
	out := make([]uint32, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// stripMeta removes a fileid map entry's optional ",key=value" suffixes,
// leaving just the path.
func stripMeta(entry string) string {
	if i := strings.IndexByte(entry, ','); i >= 0 {
		return entry[:i]
	}
	return entry
}
