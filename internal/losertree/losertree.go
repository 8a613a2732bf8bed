// Package losertree implements the tournament tree that merges many
// per-file sorted ngram sequences into one ascending (ngram, file-id)
// stream, grounded on the teacher's index merge machinery (which drives a
// heap of postMapReaders) but restructured as a flat-array tournament tree
// per spec.md §4.4.
package losertree

import "github.com/cmu-sei/biggrep/internal/shingle"

// Tree is a binary tournament tree over a fixed set of FileData leaves. It
// is not safe for concurrent use; the merger is single-threaded by design.
type Tree struct {
	leaves int
	// nodes holds leaf indices; nodes[0] is unused, nodes[1] is the root.
	// Leaves occupy nodes[leaves:2*leaves], labeled by their position in
	// data. Internal node i's children are 2i and 2i+1.
	nodes []int
	data  []*shingle.FileData
}

// New builds a tournament tree over files. The leaf count is rounded up to
// the next power of two of at least 2 (spec.md's resolved Open Question),
// padding with permanently-empty sentinel FileData so every internal node
// has two real children.
func New(files []*shingle.FileData) *Tree {
	leaves := nextPow2(len(files))
	if leaves < 2 {
		leaves = 2
	}
	data := make([]*shingle.FileData, leaves)
	copy(data, files)
	for i := len(files); i < leaves; i++ {
		data[i] = shingle.Sentinel(uint32(i))
	}

	t := &Tree{
		leaves: leaves,
		nodes:  make([]int, 2*leaves),
		data:   data,
	}
	t.build()
	return t
}

func nextPow2(n int) int {
	if n <= 1 {
		return n
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// build computes every internal node bottom-up from scratch.
func (t *Tree) build() {
	for i := 0; i < t.leaves; i++ {
		t.nodes[t.leaves+i] = i
	}
	for i := t.leaves - 1; i >= 1; i-- {
		t.nodes[i] = t.minWithValues(t.nodes[2*i], t.nodes[2*i+1])
	}
}

// minWithValues returns whichever of leaf indices a, b has the smaller
// current head ngram, treating a leaf with no remaining values as losing
// unconditionally. Ties are broken by leaf id (file id), the lower wins.
func (t *Tree) minWithValues(a, b int) int {
	da, db := t.data[a], t.data[b]
	if !da.HasValues && !db.HasValues {
		if a <= b {
			return a
		}
		return b
	}
	if !da.HasValues {
		return b
	}
	if !db.HasValues {
		return a
	}
	ga, gb := da.Head(), db.Head()
	switch {
	case ga < gb:
		return a
	case gb < ga:
		return b
	default:
		if da.ID <= db.ID {
			return a
		}
		return b
	}
}

// Empty reports whether every leaf is exhausted.
func (t *Tree) Empty() bool {
	return !t.data[t.nodes[1]].HasValues
}

// Pop returns the winning leaf's current (ngram, file id), advances that
// leaf's cursor, and restores the tournament invariant by recomputing every
// ancestor on the path from the popped leaf to the root. Callers must check
// Empty first.
func (t *Tree) Pop() (g uint32, fileID uint32) {
	winner := t.nodes[1]
	fd := t.data[winner]
	head := fd.Head()
	fd.Advance()

	leaf := t.leaves + winner
	for parent := leaf / 2; parent >= 1; parent /= 2 {
		left, right := 2*parent, 2*parent+1
		t.nodes[parent] = t.minWithValues(t.nodes[left], t.nodes[right])
	}

	return uint32(head), fd.ID
}
