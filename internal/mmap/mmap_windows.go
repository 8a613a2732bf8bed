// Copyright 2011 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mmap

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

type platformState struct {
	handle syscall.Handle
	addr   uintptr
}

func mmapFile(f *os.File) (*File, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := st.Size()
	if int64(int(size+4095)) != size+4095 {
		return nil, fmt.Errorf("%s: too large for mmap", f.Name())
	}
	if size == 0 {
		return &File{f: f}, nil
	}
	h, err := syscall.CreateFileMapping(syscall.Handle(f.Fd()), nil, syscall.PAGE_READONLY, uint32(size>>32), uint32(size), nil)
	if err != nil {
		return nil, fmt.Errorf("CreateFileMapping %s: %w", f.Name(), err)
	}

	addr, err := syscall.MapViewOfFile(h, syscall.FILE_MAP_READ, 0, 0, 0)
	if err != nil {
		syscall.CloseHandle(h)
		return nil, fmt.Errorf("MapViewOfFile %s: %w", f.Name(), err)
	}
	data := (*[1 << 30]byte)(unsafe.Pointer(addr))
	return &File{f: f, data: data[:size], plat: platformState{handle: h, addr: addr}}, nil
}

// Close unmaps the view, releases the mapping handle, and closes the
// underlying file descriptor.
func (m *File) Close() error {
	var err error
	if m.plat.addr != 0 {
		if uerr := syscall.UnmapViewOfFile(m.plat.addr); uerr != nil {
			err = fmt.Errorf("UnmapViewOfFile %s: %w", m.f.Name(), uerr)
		}
		if herr := syscall.CloseHandle(m.plat.handle); herr != nil && err == nil {
			err = herr
		}
	}
	if cerr := m.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
