// Package varbyte implements the VarByte unsigned-integer codec used for
// posting-list size fields, first-ids, PFOR fallback values, and exception
// offsets/values inside PFOR blocks.
//
// Groups of 7 payload bits are emitted least-significant-group first; every
// byte but the last has its high bit set to mean "more bytes follow", and
// the terminating byte clears it. This is exactly the wire format
// encoding/binary's Uvarint/AppendUvarint already implement (confirmed
// against the ground-truth test vector for 349156737: the byte stream
// 0x81 0xeb 0xbe 0xa6 0x01 has its continuation bit set on every byte but
// the last), so this package is a thin, explicitly-named wrapper around
// them rather than a hand-rolled reimplementation.
package varbyte

import "encoding/binary"

// Encode appends the VarByte encoding of v to dst and returns the grown
// slice. Zero encodes to the single byte 0x00.
func Encode(dst []byte, v uint64) []byte {
	return binary.AppendUvarint(dst, v)
}

// Decode reads a VarByte-encoded value starting at buf[0] and returns the
// value plus the number of bytes consumed. It returns ok=false if buf runs
// out before a terminator byte (high bit clear) is found, or the encoding
// overflows 64 bits.
func Decode(buf []byte) (value uint64, n int, ok bool) {
	v, consumed := binary.Uvarint(buf)
	if consumed <= 0 {
		return 0, 0, false
	}
	return v, consumed, true
}

// Size returns the number of bytes Encode(nil, v) would produce.
func Size(v uint64) int {
	n := 1
	v >>= 7
	for v > 0 {
		n++
		v >>= 7
	}
	return n
}
