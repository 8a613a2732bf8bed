// Package pfor implements the Patched Frame Of Reference codec used to
// compress the bulk of each posting list's delta-encoded file-ids.
//
// A block of B unsigned 32-bit values is bit-packed at a single width b
// (1..15) chosen so that at most M values ("exceptions") need more than b
// bits; those exceptions are patched back in after decode from a VarByte-
// encoded tail. An all-ones block (every non-exception value equal to 1,
// b==1) is special-cased to a bare header byte with no payload at all,
// since delta lists of densely-adjacent ids produce long runs of these.
//
// Wire format per block:
//
//	[1 byte: exceptions<<4 | b (b==0 means "special all-ones")]
//	[payload: ceil(B*b/8) bytes, omitted when special]
//	[exceptions: varbyte(index) varbyte(value), ascending index order]
//
// Grounded on the original PFORUInt<T>::encode/decode algorithm
// (original_source/src/PFOR.hpp), adapted to plain uint32 (BigGrep only
// ever PFOR-encodes ngram deltas and file-ids, never the wider T the C++
// template supported) and to a byte-accumulator bit packer in the style of
// the pack's own Go PFOR-family codec (see the fastpfor-go reference in
// other_examples), rather than the original's 32-bit-pointer-cast packing.
package pfor

import (
	"errors"
	"math/bits"

	"github.com/cmu-sei/biggrep/internal/varbyte"
)

const (
	// DefaultBlockSize is PFOR_BLOCKSIZE from bgindex_th.cpp.
	DefaultBlockSize = 32
	// DefaultMaxExceptions is PFOR_MAXEXCEPTIONS from bgindex_th.cpp.
	DefaultMaxExceptions = 3

	maxWidth         = 15 // b is stored in a nybble; 0 is reserved for "special"
	maxExceptionsNib = 15 // exception count is stored in a nybble
)

var (
	// ErrBlockSizeMismatch is returned by EncodeBlock when the input slice
	// length does not equal the codec's configured block size.
	ErrBlockSizeMismatch = errors.New("pfor: block size mismatch")
	// ErrWidthOverflow is returned by EncodeBlock when no b in 1..15 keeps
	// the exception count at or below MaxExceptions. Expected during
	// compression; the caller falls back to VarByte for the whole list.
	ErrWidthOverflow = errors.New("pfor: width overflow")
	// ErrTruncatedInput is returned by DecodeBlock when buf is too short
	// to hold the header, payload, or exception tail it claims to have.
	ErrTruncatedInput = errors.New("pfor: truncated input")
)

// Codec holds the block-size/max-exceptions configuration used to encode
// and decode PFOR blocks. The zero value is not usable; use New.
type Codec struct {
	BlockSize     int
	MaxExceptions int
}

// New returns a Codec with the given block size and exception cap.
func New(blockSize, maxExceptions int) *Codec {
	return &Codec{BlockSize: blockSize, MaxExceptions: maxExceptions}
}

// minBits returns the number of bits needed to store v, following the
// ground-truth source's 1+ilog2(v) rule, under which ilog2(0)==0: both 0
// and 1 require a single bit. This differs from spec.md's literal
// "width(0)=0" text; the source's table-driven ilog2 never returns a
// sentinel for zero, and treating 0 as needing zero bits would make it
// indistinguishable from "no value stored" while still being a real,
// storable delta (a repeated file-id delta of 0 cannot occur since
// postings are stored strictly increasing, but a first-delta of 0 can).
func minBits(v uint32) int {
	if v == 0 {
		return 1
	}
	return bits.Len32(v)
}

// EncodeBlock compresses exactly c.BlockSize values, appending the encoded
// block to dst. It returns ErrBlockSizeMismatch if len(vals) != BlockSize,
// and ErrWidthOverflow if no bit width keeps exceptions within MaxExceptions
// (1-15 nybble range) -- the caller is expected to fall back to VarByte
// encoding of the whole list in that case.
func (c *Codec) EncodeBlock(dst []byte, vals []uint32) ([]byte, error) {
	if len(vals) != c.BlockSize {
		return dst, ErrBlockSizeMismatch
	}

	var bitcounts [33]int
	minbits := make([]int, len(vals))
	for i, v := range vals {
		w := minBits(v)
		minbits[i] = w
		if w <= maxWidth {
			bitcounts[w]++
		}
	}

	b := -1
	exceptions := len(vals)
	for width := 1; width <= maxWidth; width++ {
		exceptions -= bitcounts[width]
		if exceptions <= c.MaxExceptions {
			b = width
			break
		}
	}
	if b < 0 || exceptions > maxExceptionsNib {
		return dst, ErrWidthOverflow
	}

	special := b == 1
	if special {
		for i, v := range vals {
			if minbits[i] == 1 && v != 1 {
				special = false
				break
			}
		}
	}

	header := byte(exceptions<<4) | func() byte {
		if special {
			return 0
		}
		return byte(b)
	}()
	dst = append(dst, header)

	if !special {
		payloadLen := (c.BlockSize*b + 7) / 8
		start := len(dst)
		dst = append(dst, make([]byte, payloadLen)...)
		packBits(dst[start:start+payloadLen], vals, b)
	}

	if exceptions > 0 {
		for i, v := range vals {
			if minbits[i] > b {
				dst = varbyte.Encode(dst, uint64(i))
				dst = varbyte.Encode(dst, uint64(v))
			}
		}
	}
	return dst, nil
}

// DecodeBlock decodes one PFOR block from the start of buf, returning the
// BlockSize values, the number of input bytes consumed, and any error.
func (c *Codec) DecodeBlock(buf []byte) (vals []uint32, consumed int, err error) {
	if len(buf) < 1 {
		return nil, 0, ErrTruncatedInput
	}
	header := buf[0]
	exceptions := int(header >> 4)
	b := int(header & 0x0f)
	special := b == 0

	vals = make([]uint32, c.BlockSize)
	if special {
		for i := range vals {
			vals[i] = 1
		}
	}

	off := 1
	if !special {
		payloadLen := (c.BlockSize*b + 7) / 8
		if len(buf) < off+payloadLen {
			return nil, 0, ErrTruncatedInput
		}
		unpackBits(vals, buf[off:off+payloadLen], b)
		off += payloadLen
	}

	for i := 0; i < exceptions; i++ {
		idx, n, ok := varbyte.Decode(buf[off:])
		if !ok {
			return nil, 0, ErrTruncatedInput
		}
		off += n
		val, n, ok := varbyte.Decode(buf[off:])
		if !ok {
			return nil, 0, ErrTruncatedInput
		}
		off += n
		if int(idx) >= c.BlockSize {
			return nil, 0, ErrTruncatedInput
		}
		vals[idx] = uint32(val)
	}
	return vals, off, nil
}

// packBits bit-packs vals (len(vals)*b bits) least-significant-bit first
// within each value, values laid end to end, into dst.
func packBits(dst []byte, vals []uint32, b int) {
	mask := uint64(1)<<uint(b) - 1
	var acc uint64
	var bitsInAcc int
	out := 0
	for _, v := range vals {
		acc |= (uint64(v) & mask) << uint(bitsInAcc)
		bitsInAcc += b
		for bitsInAcc >= 8 {
			dst[out] = byte(acc)
			acc >>= 8
			bitsInAcc -= 8
			out++
		}
	}
	if bitsInAcc > 0 {
		dst[out] = byte(acc)
	}
}

// unpackBits reverses packBits into vals (len(vals) values of width b).
func unpackBits(vals []uint32, buf []byte, b int) {
	mask := uint32(1)<<uint(b) - 1
	var acc uint64
	var bitsInAcc int
	in := 0
	for i := range vals {
		for bitsInAcc < b {
			var next byte
			if in < len(buf) {
				next = buf[in]
			}
			acc |= uint64(next) << uint(bitsInAcc)
			bitsInAcc += 8
			in++
		}
		vals[i] = uint32(acc) & mask
		acc >>= uint(b)
		bitsInAcc -= b
	}
}

// ToDeltas replaces vec in place with its successive differences:
// vec[i] -= vec[i-1] for i>0, vec[0] -= start.
func ToDeltas(vec []uint32, start uint32) {
	for i := len(vec) - 1; i > 0; i-- {
		vec[i] = vec[i] - vec[i-1]
	}
	if len(vec) > 0 {
		vec[0] = vec[0] - start
	}
}

// FromDeltas reverses ToDeltas in place.
func FromDeltas(vec []uint32, start uint32) {
	if len(vec) == 0 {
		return
	}
	vec[0] = vec[0] + start
	for i := 1; i < len(vec); i++ {
		vec[i] = vec[i] + vec[i-1]
	}
}
