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
	"slices"
)

// SFO builds a PARAM.SFO table. String values are stored as UTF-8 and
// int values as 32-bit integers; other types are ignored.
func SFO(entries map[string]any) []byte {
	le := binary.LittleEndian
	keys := make([]string, 0, len(entries))
	for k, v := range entries {
		switch v.(type) {
		case string, int:
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var keyTable, dataTable []byte
	index := make([]byte, len(keys)*0x10)
	for i, k := range keys {
		e := index[i*0x10:]
		le.PutUint16(e[0:], uint16(len(keyTable)))
		le.PutUint32(e[12:], uint32(len(dataTable)))
		keyTable = append(keyTable, k+"\x00"...)
		switch v := entries[k].(type) {
		case string:
			val := append([]byte(v), 0)
			le.PutUint16(e[2:], 0x0204)
			le.PutUint32(e[4:], uint32(len(val)))
			le.PutUint32(e[8:], uint32(len(val)))
			dataTable = append(dataTable, val...)
		case int:
			le.PutUint16(e[2:], 0x0404)
			le.PutUint32(e[4:], 4)
			le.PutUint32(e[8:], 4)
			dataTable = le.AppendUint32(dataTable, uint32(v))
		}
	}
	for len(keyTable)%4 != 0 {
		keyTable = append(keyTable, 0)
	}

	header := make([]byte, 0x14)
	copy(header, "\x00PSF")
	le.PutUint32(header[4:], 0x0101)
	le.PutUint32(header[8:], uint32(0x14+len(index)))
	le.PutUint32(header[12:], uint32(0x14+len(index)+len(keyTable)))
	le.PutUint32(header[16:], uint32(len(keys)))

	out := append(header, index...)
	out = append(out, keyTable...)
	return append(out, dataTable...)
}
