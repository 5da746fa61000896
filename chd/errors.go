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

package chd

import "errors"

// Limits on sizes read from the file.
const (
	maxCompMapLen      = 100 << 20 // compressed V5 hunk map
	maxHunks           = 10_000_000
	maxTracks          = 200
	maxMetadataEntries = 1000
)

// Errors returned while parsing.
var (
	ErrInvalidMagic       = errors.New("not a CHD file")
	ErrInvalidHeader      = errors.New("invalid CHD header")
	ErrUnsupportedVersion = errors.New("unsupported CHD version")
	ErrUnsupportedCodec   = errors.New("unsupported CHD codec")
	ErrInvalidHunk        = errors.New("invalid hunk")
	ErrDecompressFailed   = errors.New("hunk decompression failed")
	ErrCorruptData        = errors.New("corrupt hunk data")
	ErrInvalidMetadata    = errors.New("invalid CHD metadata")
)
