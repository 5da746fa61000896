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

// Package iso9660 reads ISO-9660 filesystems from 2048-byte sector images:
// the primary volume descriptor, directory records, and file extents as
// bounded sub-range sources.
package iso9660

import "errors"

// Allocation limits against hostile images.
const (
	// MaxDirSize bounds the size of a single directory extent.
	MaxDirSize = 4 * 1024 * 1024
	// MaxPathDepth bounds the number of path components resolved.
	MaxPathDepth = 32
)

var (
	// ErrPVDNotFound indicates no primary volume descriptor at sector 16.
	ErrPVDNotFound = errors.New("ISO-9660 primary volume descriptor not found")

	// ErrInvalidPVD indicates a malformed primary volume descriptor.
	ErrInvalidPVD = errors.New("invalid primary volume descriptor")

	// ErrNotFound indicates a path does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrNotDir indicates a path component is not a directory.
	ErrNotDir = errors.New("not a directory")

	// ErrIsDir indicates a directory was opened as a file.
	ErrIsDir = errors.New("is a directory")

	// ErrTooLarge indicates a structure exceeds an allocation limit.
	ErrTooLarge = errors.New("structure exceeds size limit")
)
