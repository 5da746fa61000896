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

// Package archive lists and extracts members of ZIP, 7z and RAR archives
// read through an io.ReaderAt.
package archive

import (
	"fmt"
	"io"
	"strings"
)

// MaxMemberSize bounds how much of a single member is buffered in memory.
const MaxMemberSize = 64 * 1024 * 1024

// FileInfo describes one archive member.
type FileInfo struct {
	Name string // full path within the archive
	Size int64  // uncompressed size
}

// Archive provides read access to the members of an archive.
type Archive interface {
	Format() Format

	// List returns every non-directory member in archive order.
	List() ([]FileInfo, error)

	// Open opens a member for sequential reading. Names match
	// case-insensitively.
	Open(name string) (io.ReadCloser, int64, error)

	Close() error
}

// Open detects the archive format from its signature and opens it. name is
// used in error messages.
func Open(r io.ReaderAt, size int64, name string) (Archive, error) {
	header := make([]byte, signatureLen)
	n, err := r.ReadAt(header, 0)
	if err != nil && n < len(header) && err != io.EOF {
		return nil, fmt.Errorf("read archive signature: %w", err)
	}
	format, ok := DetectFormat(header[:n])
	if !ok {
		return nil, &FormatError{Name: name, Reason: "unknown signature"}
	}
	var (
		arc  Archive
		oerr error
	)
	switch format {
	case FormatZIP:
		arc, oerr = openZIP(r, size, name)
	case FormatSevenZip:
		arc, oerr = openSevenZip(r, size, name)
	case FormatRAR:
		arc, oerr = openRAR(r, size, name)
	default:
		return nil, &FormatError{Name: format.String()}
	}
	if oerr != nil {
		return nil, oerr
	}
	return arc, nil
}

// ReadFile reads up to limit bytes of a member; limit <= 0 means
// MaxMemberSize. Members larger than the limit fail with ErrTooLarge.
func ReadFile(arc Archive, name string, limit int64) ([]byte, error) {
	if limit <= 0 || limit > MaxMemberSize {
		limit = MaxMemberSize
	}
	rc, size, err := arc.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	if size > limit {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, name, size)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(rc, data); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func matchName(member, want string) bool {
	return strings.EqualFold(strings.TrimPrefix(member, "/"), strings.TrimPrefix(want, "/"))
}

// normalize turns backslash separators into slashes.
func normalize(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}
