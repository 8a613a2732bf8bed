// Package shingle turns input files into sorted, deduplicated N-gram sets.
// It is grounded on the teacher's index package (which walks and hashes
// file trees for a trigram index) generalized to BigGrep's arbitrary N and
// mmap-based extraction, using internal/mmap and internal/ngram.
package shingle

import (
	"fmt"
	"os"

	"github.com/cmu-sei/biggrep/internal/mmap"
	"github.com/cmu-sei/biggrep/internal/ngram"
)

// FileData is one input file's shingling result: its densely sorted,
// deduplicated ngram set plus the flags the merger and writer need.
type FileData struct {
	ID     uint32
	Path   string
	Ngrams []ngram.Ngram // sorted ascending, unique
	cursor int

	// HasValues is true while Ngrams[cursor:] is non-empty; the LoserTree
	// treats a FileData with HasValues false as permanently "not in the
	// running" for the tournament.
	HasValues bool

	// Missing is set when the file could not be stat'd, opened, or mapped,
	// or its size falls outside [N, 2^32). Missing files are dropped before
	// densely renumbering ids for the merge.
	Missing bool

	// HitLimit is set when the file's unique ngram count reached the
	// configured ceiling; its ngrams are discarded and it is omitted from
	// the index.
	HitLimit bool

	// UniqueNgrams is the count recorded before any HitLimit discard, used
	// to build the ",unique_ngrams=<count>" fileid-map metadata suffix.
	UniqueNgrams int
}

// Meta returns the fileid-map metadata suffix for this file: empty for a
// hit-limited file (no count is recorded), otherwise ",unique_ngrams=<n>".
func (fd *FileData) Meta() string {
	if fd.HitLimit {
		return ""
	}
	return fmt.Sprintf(",unique_ngrams=%d", fd.UniqueNgrams)
}

// Head returns the current ngram at the cursor. Callers must check
// HasValues first.
func (fd *FileData) Head() ngram.Ngram {
	return fd.Ngrams[fd.cursor]
}

// Advance moves past the current head, clearing HasValues once exhausted.
func (fd *FileData) Advance() {
	fd.cursor++
	fd.HasValues = fd.cursor < len(fd.Ngrams)
}

// Sentinel returns a permanently-empty FileData used to pad the LoserTree's
// leaf count up to a power of two (spec.md's resolved Open Question: always
// round up by adding empty sentinel leaves rather than special-casing a
// single real leaf).
func Sentinel(id uint32) *FileData {
	return &FileData{ID: id, HasValues: false, Missing: true}
}

// Policy bounds a Shingler's per-file behavior.
type Policy struct {
	N               ngram.N
	MaxUniqueNgrams int // 0 disables the limit
}

// Shingler extracts a FileData from one file. It is safe to run many
// Shinglers concurrently, one per worker, as required by spec.md's S
// shingler workers; each call only touches the FileData it returns.
type Shingler struct {
	policy Policy
}

// New returns a Shingler bound to policy.
func New(policy Policy) *Shingler {
	return &Shingler{policy: policy}
}

// Shingle reads path, extracts its overlapping N-grams, and returns a
// FileData assigned id. It never returns an error: failures are recorded
// as FileData.Missing so one bad input never aborts the build.
func (s *Shingler) Shingle(path string, id uint32) *FileData {
	fd := &FileData{ID: id, Path: path}

	f, err := os.Open(path)
	if err != nil {
		fd.Missing = true
		return fd
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		fd.Missing = true
		return fd
	}
	size := st.Size()
	if size < int64(s.policy.N) || size >= 1<<32 {
		fd.Missing = true
		return fd
	}

	view, err := mmap.Open(f)
	if err != nil {
		fd.Missing = true
		return fd
	}
	defer view.Close()

	grams, err := ngram.Extract(s.policy.N, view.Data(), nil)
	if err != nil {
		fd.Missing = true
		return fd
	}
	grams = ngram.SortUnique(grams)

	fd.UniqueNgrams = len(grams)
	if s.policy.MaxUniqueNgrams > 0 && len(grams) >= s.policy.MaxUniqueNgrams {
		fd.HitLimit = true
		fd.Ngrams = nil
		fd.HasValues = false
		return fd
	}

	fd.Ngrams = grams
	fd.HasValues = len(grams) > 0
	return fd
}
