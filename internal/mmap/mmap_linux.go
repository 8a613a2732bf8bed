// Copyright 2011 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mmap

import (
	"fmt"
	"os"
	"syscall"
)

type platformState struct{}

func mmapFile(f *os.File) (*File, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := st.Size()
	if int64(int(size+4095)) != size+4095 {
		return nil, fmt.Errorf("%s: too large for mmap", f.Name())
	}
	n := int(size)
	if n == 0 {
		return &File{f: f}, nil
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, (n+4095)&^4095, syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", f.Name(), err)
	}
	return &File{f: f, data: data[:n]}, nil
}

// Close unmaps the view and closes the underlying file descriptor.
func (m *File) Close() error {
	var err error
	if m.data != nil {
		full := m.data[:cap(m.data)]
		if uerr := syscall.Munmap(full); uerr != nil {
			err = fmt.Errorf("munmap %s: %w", m.f.Name(), uerr)
		}
	}
	if cerr := m.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
