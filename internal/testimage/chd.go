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

package testimage

import (
	"encoding/binary"
	"fmt"
)

const (
	chdUnitBytes     = 2448
	chdFramesPerHunk = 8
	chdHunkBytes     = chdUnitBytes * chdFramesPerHunk
	chdHeaderV4      = 108
)

// CHD wraps 2048-byte sectors in an uncompressed V4 CHD of raw Mode 1
// frames described by one CHT2 track.
func CHD(plain []byte) []byte {
	frames := (len(plain) + 2047) / 2048
	hunks := (frames + chdFramesPerHunk - 1) / chdFramesPerHunk

	header := make([]byte, chdHeaderV4)
	copy(header, "MComprHD")
	binary.BigEndian.PutUint32(header[8:], chdHeaderV4)
	binary.BigEndian.PutUint32(header[12:], 4)
	binary.BigEndian.PutUint32(header[0x18:], uint32(hunks))
	binary.BigEndian.PutUint64(header[0x1C:], uint64(hunks*chdHunkBytes))
	binary.BigEndian.PutUint32(header[0x2C:], chdHunkBytes)

	hunkMap := make([]byte, hunks*16)
	dataStart := len(header) + len(hunkMap)
	for i := range hunks {
		e := hunkMap[i*16:]
		binary.BigEndian.PutUint64(e, uint64(dataStart+i*chdHunkBytes))
		binary.BigEndian.PutUint16(e[12:], chdHunkBytes)
	}

	data := make([]byte, hunks*chdHunkBytes)
	for f := range frames {
		unit := data[f*chdUnitBytes:]
		unit[0] = 0x00
		for i := 1; i < 11; i++ {
			unit[i] = 0xFF
		}
		unit[15] = 1
		copy(unit[16:16+2048], plain[f*2048:min((f+1)*2048, len(plain))])
	}

	out := append(header, hunkMap...)
	out = append(out, data...)
	binary.BigEndian.PutUint64(out[0x24:], uint64(len(out)))

	text := fmt.Sprintf("TRACK:1 TYPE:MODE1_RAW SUBTYPE:NONE FRAMES:%d PREGAP:0 PGTYPE:MODE1 PGSUB:RW POSTGAP:0\x00", frames)
	entry := make([]byte, 16)
	copy(entry, "CHT2")
	entry[5], entry[6], entry[7] = byte(len(text)>>16), byte(len(text)>>8), byte(len(text))
	out = append(out, entry...)
	return append(out, text...)
}
