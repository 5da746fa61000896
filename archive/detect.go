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

package archive

import "bytes"

// Format identifies an archive container.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatZIP
	FormatSevenZip
	FormatRAR
)

func (f Format) String() string {
	switch f {
	case FormatZIP:
		return "ZIP"
	case FormatSevenZip:
		return "7z"
	case FormatRAR:
		return "RAR"
	default:
		return "unknown"
	}
}

const signatureLen = 8

var (
	zipLocalMagic = []byte("PK\x03\x04")
	zipEmptyMagic = []byte("PK\x05\x06")
	sevenZipMagic = []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}
	// Covers both RAR 4 (…\x07\x00) and RAR 5 (…\x07\x01\x00).
	rarMagic = []byte("Rar!\x1A\x07")
)

// DetectFormat identifies an archive from its leading bytes.
func DetectFormat(header []byte) (Format, bool) {
	switch {
	case bytes.HasPrefix(header, zipLocalMagic), bytes.HasPrefix(header, zipEmptyMagic):
		return FormatZIP, true
	case bytes.HasPrefix(header, sevenZipMagic):
		return FormatSevenZip, true
	case bytes.HasPrefix(header, rarMagic):
		return FormatRAR, true
	default:
		return FormatUnknown, false
	}
}
