package bgformat

import "encoding/binary"

// HintTable is the in-memory form of the on-disk hint array: one absolute
// byte offset per hint index, NoPosting where nothing shares that prefix.
type HintTable []uint64

// NewHintTable returns a hint table with n entries, all initialized to
// NoPosting, matching the Writer's startup state (spec.md §4.7).
func NewHintTable(n uint64) HintTable {
	t := make(HintTable, n)
	for i := range t {
		t[i] = NoPosting
	}
	return t
}

// WriteTo appends the table's binary encoding (little-endian u64 per
// entry) to dst and returns the grown slice.
func (t HintTable) WriteTo(dst []byte) []byte {
	var buf [8]byte
	for _, v := range t {
		binary.LittleEndian.PutUint64(buf[:], v)
		dst = append(dst, buf[:]...)
	}
	return dst
}

// ReadHintTable parses n hint entries from the start of buf.
func ReadHintTable(buf []byte, n uint64) (HintTable, error) {
	need := n * 8
	if uint64(len(buf)) < need {
		return nil, ErrShortHeader
	}
	t := make(HintTable, n)
	for i := range t {
		t[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	return t, nil
}
