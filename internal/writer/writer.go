// Package writer produces the final .bgi file in a single forward pass,
// reordering CompressedPostings back into ngram order by sequence number
// and padding every ngram the stream skips with a single zero byte, per
// spec.md §4.7. Grounded on the teacher's index write.go (header-placeholder
// + seek-back-and-rewrite finalize idiom) adapted to BigGrep's hint table
// and atomic rename via github.com/google/renameio instead of the
// teacher's plain os.Rename.
package writer

import (
	"fmt"

	"github.com/google/renameio"

	"github.com/cmu-sei/biggrep/internal/bgformat"
	"github.com/cmu-sei/biggrep/internal/compress"
	"github.com/cmu-sei/biggrep/internal/ngram"
	"github.com/cmu-sei/biggrep/internal/varbyte"
)

// Writer assembles one .bgi file from an ordered stream of
// compress.CompressedPostings. It is not safe for concurrent use; spec.md
// calls for a single writer goroutine.
type Writer struct {
	pending *renameio.PendingFile
	header  bgformat.Header
	hints   bgformat.HintTable

	offset       uint64
	writeCounter uint32

	lastNgram   int64 // -1: no posting written yet
	lastHintIdx int64 // -1: no hint recorded yet
	bufferedSeq map[uint64]*compress.CompressedPosting
	nextSeq     uint64
	destPath    string
	closed      bool
}

// Open creates the output file's temp-and-rename pair at destPath, writes a
// zero-filled header placeholder and a hint table initialized to "no
// postings", and records hints[0] at the post-header offset.
func Open(destPath string, header bgformat.Header) (*Writer, error) {
	if err := header.Validate(); err != nil {
		return nil, fmt.Errorf("writer: %w", err)
	}
	pf, err := renameio.TempFile("", destPath)
	if err != nil {
		return nil, fmt.Errorf("writer: create temp file: %w", err)
	}

	w := &Writer{
		pending:     pf,
		header:      header,
		hints:       bgformat.NewHintTable(header.NumHints()),
		lastNgram:   -1,
		lastHintIdx: -1,
		bufferedSeq: make(map[uint64]*compress.CompressedPosting),
		destPath:    destPath,
	}

	placeholder := make([]byte, header.Size())
	if _, err := pf.Write(placeholder); err != nil {
		pf.Cleanup()
		return nil, fmt.Errorf("writer: write header placeholder: %w", err)
	}
	hintBytes := w.hints.WriteTo(nil)
	if _, err := pf.Write(hintBytes); err != nil {
		pf.Cleanup()
		return nil, fmt.Errorf("writer: write hint table: %w", err)
	}
	w.offset = uint64(header.Size()) + uint64(len(hintBytes))
	w.hints[0] = w.offset

	return w, nil
}

// Accept buffers cp by sequence number and flushes every posting that is
// now next in order.
func (w *Writer) Accept(cp *compress.CompressedPosting) error {
	w.bufferedSeq[cp.SeqNo] = cp
	for {
		next, ok := w.bufferedSeq[w.nextSeq]
		if !ok {
			return nil
		}
		delete(w.bufferedSeq, w.nextSeq)
		w.nextSeq++
		if err := w.flush(next); err != nil {
			return err
		}
	}
}

// flush pads any ngrams skipped since the last written posting, then
// writes cp's size field and payload.
func (w *Writer) flush(cp *compress.CompressedPosting) error {
	for g := w.lastNgram + 1; g < int64(cp.Ngram); g++ {
		if err := w.recordHint(uint32(g)); err != nil {
			return err
		}
		if _, err := w.pending.Write([]byte{0}); err != nil {
			return fmt.Errorf("writer: write padding byte: %w", err)
		}
		w.offset++
	}

	if err := w.recordHint(cp.Ngram); err != nil {
		return err
	}

	sizeField := uint64(len(cp.Bytes))<<1 | boolBit(cp.PFOR)
	sizeBytes := varbyte.Encode(nil, sizeField)
	if _, err := w.pending.Write(sizeBytes); err != nil {
		return fmt.Errorf("writer: write size field: %w", err)
	}
	if _, err := w.pending.Write(cp.Bytes); err != nil {
		return fmt.Errorf("writer: write posting payload: %w", err)
	}
	w.offset += uint64(len(sizeBytes)) + uint64(len(cp.Bytes))
	w.writeCounter++
	w.lastNgram = int64(cp.Ngram)
	return nil
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// recordHint updates the hint table if g falls under a new hint index,
// pointing it at the current offset (the start of g's entry, whether a
// real posting or a padding byte).
func (w *Writer) recordHint(g uint32) error {
	h := w.header.ToHint(ngram.Ngram(g))
	if int64(h) == w.lastHintIdx {
		return nil
	}
	if h >= uint64(len(w.hints)) {
		return fmt.Errorf("writer: hint index %d out of range (table size %d)", h, len(w.hints))
	}
	w.hints[h] = w.offset
	w.lastHintIdx = int64(h)
	return nil
}

// Finalize writes the file-id map, patches num_ngrams/num_files/
// fileid_map_offset into the header, seeks back and rewrites the header
// and hint table, then atomically replaces the destination path.
func (w *Writer) Finalize(files bgformat.FileIDMap, compressMap bool) error {
	if len(w.bufferedSeq) > 0 {
		return fmt.Errorf("writer: finalize called with %d postings still buffered out of order", len(w.bufferedSeq))
	}

	var mapBytes []byte
	var err error
	if compressMap {
		mapBytes, err = files.SerializeCompressed()
	} else {
		mapBytes = files.Serialize()
	}
	if err != nil {
		w.pending.Cleanup()
		return fmt.Errorf("writer: serialize fileid map: %w", err)
	}
	if _, err := w.pending.Write(mapBytes); err != nil {
		w.pending.Cleanup()
		return fmt.Errorf("writer: write fileid map: %w", err)
	}

	w.header.FileIDMapOffset = w.offset
	w.header.NumNgrams = w.writeCounter
	w.header.NumFiles = uint32(len(files))
	if compressMap {
		w.header.FmtMinor = 2
	}

	if _, err := w.pending.Seek(0, 0); err != nil {
		w.pending.Cleanup()
		return fmt.Errorf("writer: seek to header: %w", err)
	}
	headerBytes := w.header.WriteTo(nil)
	if _, err := w.pending.Write(headerBytes); err != nil {
		w.pending.Cleanup()
		return fmt.Errorf("writer: rewrite header: %w", err)
	}
	if _, err := w.pending.Write(w.hints.WriteTo(nil)); err != nil {
		w.pending.Cleanup()
		return fmt.Errorf("writer: rewrite hint table: %w", err)
	}

	w.closed = true
	return w.pending.CloseAtomicallyReplace()
}

// Abort discards the in-progress output file without touching destPath.
func (w *Writer) Abort() {
	if !w.closed {
		w.pending.Cleanup()
	}
}
