package bgformat

import "github.com/cespare/xxhash/v2"

// StreamChecksum returns an xxhash-64 digest of the posting-stream region
// of an index (from the end of the hint table through fileid_map_offset).
// It gives bgdump -sum an O(1)-to-compare fingerprint for checking that two
// builds of the same input produced the same posting stream (spec.md §8),
// instead of a full byte diff.
func StreamChecksum(postingStream []byte) uint64 {
	return xxhash.Sum64(postingStream)
}
