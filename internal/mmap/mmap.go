// Copyright 2011 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mmap memory-maps files read-only for the shingler, and exposes
// an explicit Close so a mapping can be released as soon as a file's ngram
// extraction finishes (spec.md §5) instead of living until process exit,
// which is what the teacher's index/mmap_*.go relied on.
package mmap

import "os"

// File is a read-only memory-mapped view of an open file's contents.
type File struct {
	f    *os.File
	data []byte
	plat platformState
}

// Data returns the mapped bytes, sized to the file's length.
func (m *File) Data() []byte {
	return m.data
}

// Open memory-maps f read-only. Close on the returned File unmaps the view
// and also closes f.
func Open(f *os.File) (*File, error) {
	return mmapFile(f)
}
