package bgformat

import "fmt"

// Dump renders the header fields the way bgdump reports them: magic,
// format version, N, hint_type, computed hint-table size, pfor_blocksize,
// num_ngrams, num_files, and fileid_map_offset in hex. Grounded on
// original_source/src/bgdump.cpp's LDEBUG field dump, reconstructed here as
// the full field report since the distilled spec.md names "prints header
// fields" without listing them.
func (h *Header) Dump() string {
	return fmt.Sprintf(
		"BGI Header:\n"+
			"  magic == %s\n"+
			"  fmt_major == %d\n"+
			"  fmt_minor == %d\n"+
			"  N == %d\n"+
			"    hint_type == %d\n"+
			"    num_hints == %d\n"+
			"    hints size == %d\n"+
			"  pfor_blocksize == %d\n"+
			"  num_ngrams == %d\n"+
			"  num_files == %d\n"+
			"  fileid_map_offset == 0x%x\n",
		Magic, h.FmtMajor, h.FmtMinor, h.N, h.HintType,
		h.NumHints(), h.HintsSize(), h.PforBlocksize,
		h.NumNgrams, h.NumFiles, h.FileIDMapOffset)
}
