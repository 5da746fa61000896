// Copyright (c) 2025 Niema Moshiri and The Zaparoo Project.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of go-romprops.
//
// go-romprops is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-romprops is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-romprops.  If not, see <https://www.gnu.org/licenses/>.

// Package source provides reference-counted, read-only byte sources and
// bounded sub-ranges over them.
//
// Every Handle is an independent reference to a shared backing store. Handles
// are closed individually; the backing store is released when the last handle
// onto it is closed. Handles are safe for concurrent ReadAt calls when the
// backing reader is.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	// ErrClosed is returned when reading from a closed handle.
	ErrClosed = errors.New("source closed")

	// ErrOutOfRange is returned when a sub-range does not fit its parent.
	ErrOutOfRange = errors.New("range outside source")

	// ErrNegativeOffset is returned for reads at negative offsets.
	ErrNegativeOffset = errors.New("negative offset")
)

// backing is the shared store behind one or more handles.
type backing struct {
	r      io.ReaderAt
	closer io.Closer
	name   string
	id     uint64
	mu     sync.Mutex
	refs   int
}

func (b *backing) acquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refs <= 0 {
		return false
	}
	b.refs++
	return true
}

func (b *backing) release() error {
	b.mu.Lock()
	b.refs--
	last := b.refs == 0
	b.mu.Unlock()
	if last && b.closer != nil {
		if err := b.closer.Close(); err != nil {
			return fmt.Errorf("close %s: %w", b.name, err)
		}
	}
	return nil
}

// Handle is one reference to a byte region of a backing store.
type Handle struct {
	b      *backing
	name   string
	off    int64
	length int64
	closed atomic.Bool
}

// New wraps r as a new backing store of the given size. closer, if non-nil,
// is called when the last handle is closed.
func New(name string, r io.ReaderAt, size int64, closer io.Closer) *Handle {
	b := &backing{r: r, closer: closer, name: name, id: hashName(name), refs: 1}
	return &Handle{b: b, name: name, length: size}
}

// FromBytes wraps an in-memory buffer.
func FromBytes(name string, data []byte) *Handle {
	return New(name, byteReader(data), int64(len(data)), nil)
}

// Open opens a regular file or block device read-only.
func Open(path string) (*Handle, error) {
	f, err := os.Open(path) //nolint:gosec // Path from user input is expected
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	size, err := fileSize(f, path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	name := path
	if abs, absErr := filepath.Abs(path); absErr == nil {
		name = abs
	}
	return New(name, f, size, f), nil
}

func fileSize(f *os.File, path string) (int64, error) {
	if isBlockDevice(path) {
		size, err := f.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, fmt.Errorf("size block device: %w", err)
		}
		return size, nil
	}
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("open source: %s is a directory", path)
	}
	return info.Size(), nil
}

// Derive creates a new backing store layered on top of parent, such as a
// decompressed or decrypted view. build receives a reference to parent that
// the derived store owns; it is released when the derived store is released.
// If the returned reader implements io.Closer it is closed first.
func Derive(parent *Handle, tag string, build func(ref *Handle) (io.ReaderAt, int64, error)) (*Handle, error) {
	ref, err := parent.Acquire()
	if err != nil {
		return nil, err
	}
	r, size, err := build(ref)
	if err != nil {
		_ = ref.Close()
		return nil, err
	}
	closer := &chainCloser{then: ref}
	if c, ok := r.(io.Closer); ok {
		closer.first = c
	}
	h := New(parent.Name(), r, size, closer)
	h.b.id = hashDerived(tag, parent.Identity())
	return h, nil
}

type chainCloser struct {
	first io.Closer
	then  io.Closer
}

func (c *chainCloser) Close() error {
	var errs []error
	if c.first != nil {
		errs = append(errs, c.first.Close())
	}
	errs = append(errs, c.then.Close())
	return errors.Join(errs...)
}

// Sub returns a handle onto [off, off+length) of parent.
func Sub(parent *Handle, off, length int64, name string) (*Handle, error) {
	if off < 0 || length < 0 || off > parent.length || length > parent.length-off {
		return nil, fmt.Errorf("%w: [%d, +%d) of %d", ErrOutOfRange, off, length, parent.length)
	}
	if parent.closed.Load() || !parent.b.acquire() {
		return nil, ErrClosed
	}
	if name == "" {
		name = parent.name
	}
	return &Handle{b: parent.b, name: name, off: parent.off + off, length: length}, nil
}

// Acquire returns a new handle onto the same region.
func (h *Handle) Acquire() (*Handle, error) {
	return Sub(h, 0, h.length, h.name)
}

// ReadAt implements io.ReaderAt within the handle's bounds.
func (h *Handle) ReadAt(p []byte, off int64) (int, error) {
	if h.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrNegativeOffset
	}
	if off >= h.length {
		return 0, io.EOF
	}
	want := len(p)
	if remain := h.length - off; int64(want) > remain {
		p = p[:remain]
	}
	n, err := h.b.r.ReadAt(p, h.off+off)
	if err == nil && n < want {
		err = io.EOF
	}
	return n, err
}

// Size returns the length of the region in bytes.
func (h *Handle) Size() int64 { return h.length }

// Name returns the display name of the handle.
func (h *Handle) Name() string { return h.name }

// Ext returns the lowercased file extension of the handle name, including the dot.
func (h *Handle) Ext() string { return strings.ToLower(filepath.Ext(h.name)) }

// Identity returns the structural identity of the region.
func (h *Handle) Identity() Identity {
	return Identity{Backing: h.b.id, Offset: h.off, Length: h.length}
}

// Closed reports whether Close has been called on this handle.
func (h *Handle) Closed() bool { return h.closed.Load() }

// Close releases this reference. Repeated calls are no-ops.
func (h *Handle) Close() error {
	if h == nil || !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	return h.b.release()
}

// Refs returns the number of open handles on the backing store.
func (h *Handle) Refs() int {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	return h.b.refs
}

type byteReader []byte

func (b byteReader) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
