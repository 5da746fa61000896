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

// Package binary provides offset-based helpers for reading fixed-layout
// structures out of byte windows and io.ReaderAt sources.
package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrShortRead is returned when a source ends before a fixed-size structure.
var ErrShortRead = errors.New("short read")

// ReadAt fills buf from r at offset. A partial read is reported as ErrShortRead
// even when the underlying reader returned io.EOF alongside it.
func ReadAt(r io.ReaderAt, offset int64, buf []byte) error {
	n, err := r.ReadAt(buf, offset)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: got %d of %d bytes at 0x%X", ErrShortRead, n, len(buf), offset)
	}
	return err
}

// ReadBytesAt reads exactly n bytes from r at offset.
func ReadBytesAt(r io.ReaderAt, offset int64, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrShortRead, n)
	}
	buf := make([]byte, n)
	if err := ReadAt(r, offset, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadUpTo reads at most n bytes from r at offset and returns what was available.
// Only errors other than io.EOF are reported.
func ReadUpTo(r io.ReaderAt, offset int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := r.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:got], nil
}

// ReadUint32BEAt reads a big-endian uint32 from r at offset.
func ReadUint32BEAt(r io.ReaderAt, offset int64) (uint32, error) {
	var buf [4]byte
	if err := ReadAt(r, offset, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// ReadUint32LEAt reads a little-endian uint32 from r at offset.
func ReadUint32LEAt(r io.ReaderAt, offset int64) (uint32, error) {
	var buf [4]byte
	if err := ReadAt(r, offset, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// HasAt reports whether b contains magic at offset.
func HasAt(b []byte, offset int, magic []byte) bool {
	if offset < 0 || offset > len(b) || len(magic) > len(b)-offset {
		return false
	}
	return bytes.Equal(b[offset:offset+len(magic)], magic)
}

// Window returns b[offset:offset+n], or nil when the range does not fit.
func Window(b []byte, offset, n int) []byte {
	if offset < 0 || n < 0 || offset > len(b) || n > len(b)-offset {
		return nil
	}
	return b[offset : offset+n]
}

// CleanString converts bytes to a string, cutting at the first NUL and
// trimming surrounding whitespace.
func CleanString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

// TrimPadding trims trailing NUL and space padding without cutting at
// embedded NULs.
func TrimPadding(b []byte) string {
	return strings.TrimRight(string(b), "\x00 ")
}

// ExtractPrintable keeps only printable ASCII characters (0x20-0x7E).
func ExtractPrintable(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c >= 0x20 && c <= 0x7E {
			sb.WriteByte(c)
		}
	}
	return strings.TrimSpace(sb.String())
}

// IsAlnum reports whether every byte of b is an ASCII letter or digit.
func IsAlnum(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		isDigit := c >= '0' && c <= '9'
		isUpper := c >= 'A' && c <= 'Z'
		isLower := c >= 'a' && c <= 'z'
		if !isDigit && !isUpper && !isLower {
			return false
		}
	}
	return true
}

// FindBytesInRange searches for needle in r between start and end offsets.
// Returns the absolute offset or -1 if not found.
func FindBytesInRange(r io.ReaderAt, start, end int64, needle []byte) (int64, error) {
	size := end - start
	if size <= 0 {
		return -1, nil
	}
	buf, err := ReadUpTo(r, start, int(size))
	if err != nil {
		return -1, err
	}
	idx := bytes.Index(buf, needle)
	if idx == -1 {
		return -1, nil
	}
	return start + int64(idx), nil
}
