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

import (
	"encoding/binary"
	"fmt"
	"io"
)

// chdMagic is the CHD magic word.
var chdMagic = [8]byte{'M', 'C', 'o', 'm', 'p', 'r', 'H', 'D'}

// Header sizes for the supported CHD versions.
const (
	headerSizeV3 = 120
	headerSizeV4 = 108
	headerSizeV5 = 124

	// maxHunkBytes bounds the hunk allocation (MAME never exceeds 1 MiB).
	maxHunkBytes = 16 * 1024 * 1024
)

// Header is a parsed CHD header. V3/V4-only fields are zero for V5 and
// vice versa.
type Header struct {
	Magic        [8]byte
	HeaderSize   uint32
	Version      uint32
	Compressors  [4]uint32 // V5 codec tags
	LogicalBytes uint64
	MapOffset    uint64
	MetaOffset   uint64
	HunkBytes    uint32
	UnitBytes    uint32
	RawSHA1      [20]byte
	SHA1         [20]byte
	ParentSHA1   [20]byte

	Flags       uint32 // V3/V4
	Compression uint32 // V3/V4
	TotalHunks  uint32 // V3/V4
}

// parseHeader reads the CHD header at the start of r.
func parseHeader(r io.ReaderAt) (*Header, error) {
	prefix := make([]byte, 16)
	if _, err := r.ReadAt(prefix, 0); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}

	var h Header
	copy(h.Magic[:], prefix[:8])
	if h.Magic != chdMagic {
		return nil, ErrInvalidMagic
	}
	h.HeaderSize = binary.BigEndian.Uint32(prefix[8:12])
	h.Version = binary.BigEndian.Uint32(prefix[12:16])

	var want uint32
	switch h.Version {
	case 5:
		want = headerSizeV5
	case 4:
		want = headerSizeV4
	case 3:
		want = headerSizeV3
	default:
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, h.Version)
	}
	if h.HeaderSize < want {
		return nil, fmt.Errorf("%w: header size %d < %d for V%d", ErrInvalidHeader, h.HeaderSize, want, h.Version)
	}

	buf := make([]byte, want)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	switch h.Version {
	case 5:
		h.parseV5(buf)
	case 4:
		h.parseV4(buf)
	default:
		h.parseV3(buf)
	}

	if h.HunkBytes == 0 || h.HunkBytes > maxHunkBytes {
		return nil, fmt.Errorf("%w: hunk size %d", ErrInvalidHeader, h.HunkBytes)
	}
	if h.UnitBytes == 0 || h.UnitBytes > h.HunkBytes {
		return nil, fmt.Errorf("%w: unit size %d", ErrInvalidHeader, h.UnitBytes)
	}
	return &h, nil
}

// parseV5 decodes a V5 header. Offsets are from the start of the file:
//
//	0x10 compressors[4]  0x20 logical bytes  0x28 map offset
//	0x30 meta offset     0x38 hunk bytes     0x3C unit bytes
//	0x40 raw SHA1        0x54 SHA1           0x68 parent SHA1
func (h *Header) parseV5(buf []byte) {
	for i := range h.Compressors {
		h.Compressors[i] = binary.BigEndian.Uint32(buf[0x10+4*i:])
	}
	h.LogicalBytes = binary.BigEndian.Uint64(buf[0x20:])
	h.MapOffset = binary.BigEndian.Uint64(buf[0x28:])
	h.MetaOffset = binary.BigEndian.Uint64(buf[0x30:])
	h.HunkBytes = binary.BigEndian.Uint32(buf[0x38:])
	h.UnitBytes = binary.BigEndian.Uint32(buf[0x3C:])
	copy(h.RawSHA1[:], buf[0x40:0x54])
	copy(h.SHA1[:], buf[0x54:0x68])
	copy(h.ParentSHA1[:], buf[0x68:0x7C])
}

// parseV4 decodes a V4 header:
//
//	0x10 flags  0x14 compression  0x18 total hunks  0x1C logical bytes
//	0x24 meta offset  0x2C hunk bytes  0x30 SHA1  0x44 parent SHA1  0x58 raw SHA1
func (h *Header) parseV4(buf []byte) {
	h.parseLegacyCommon(buf)
	h.HunkBytes = binary.BigEndian.Uint32(buf[0x2C:])
	copy(h.SHA1[:], buf[0x30:0x44])
	copy(h.ParentSHA1[:], buf[0x44:0x58])
	copy(h.RawSHA1[:], buf[0x58:0x6C])
}

// parseV3 decodes a V3 header; MD5 sums at 0x2C and 0x3C are skipped:
//
//	0x4C hunk bytes  0x50 SHA1  0x64 parent SHA1
func (h *Header) parseV3(buf []byte) {
	h.parseLegacyCommon(buf)
	h.HunkBytes = binary.BigEndian.Uint32(buf[0x4C:])
	copy(h.SHA1[:], buf[0x50:0x64])
	copy(h.ParentSHA1[:], buf[0x64:0x78])
}

func (h *Header) parseLegacyCommon(buf []byte) {
	h.Flags = binary.BigEndian.Uint32(buf[0x10:])
	h.Compression = binary.BigEndian.Uint32(buf[0x14:])
	h.TotalHunks = binary.BigEndian.Uint32(buf[0x18:])
	h.LogicalBytes = binary.BigEndian.Uint64(buf[0x1C:])
	h.MetaOffset = binary.BigEndian.Uint64(buf[0x24:])
	// Legacy headers carry no unit size; the map follows the header directly.
	h.UnitBytes = defaultUnitBytes
	h.MapOffset = uint64(h.HeaderSize)
}

// NumHunks returns the total number of hunks.
func (h *Header) NumHunks() uint32 {
	if h.TotalHunks > 0 {
		return h.TotalHunks
	}
	if h.HunkBytes == 0 {
		return 0
	}
	n := (h.LogicalBytes + uint64(h.HunkBytes) - 1) / uint64(h.HunkBytes)
	if n > maxHunks {
		return maxHunks + 1
	}
	return uint32(n) //nolint:gosec // Bounded above
}

// IsCompressed reports whether any codec is configured.
func (h *Header) IsCompressed() bool {
	if h.Version == 5 {
		return h.Compressors[0] != CodecNone
	}
	return h.Compression != 0
}

// CodecNames returns the configured V5 codec tags as strings, skipping
// empty slots.
func (h *Header) CodecNames() []string {
	var names []string
	for _, tag := range h.Compressors {
		if tag != CodecNone {
			names = append(names, tagString(tag))
		}
	}
	return names
}
