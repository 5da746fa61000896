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
	"bytes"
	"encoding/binary"
	"slices"

	"github.com/klauspost/compress/zlib"
)

const (
	daxHeaderSize = 0x20
	daxBlockSize  = 0x2000
)

// DAX compresses plain into a version 1 DAX image of zlib blocks. Blocks
// listed in stored are written raw and each gets its own uncompressed area.
func DAX(plain []byte, stored ...int) []byte {
	le := binary.LittleEndian
	nblocks := (len(plain) + daxBlockSize - 1) / daxBlockSize

	header := make([]byte, daxHeaderSize)
	copy(header, "DAX\x00")
	le.PutUint32(header[4:], uint32(len(plain)))
	le.PutUint32(header[8:], 1)
	le.PutUint32(header[12:], uint32(len(stored)))

	offsets := make([]byte, nblocks*4)
	lengths := make([]byte, nblocks*2)
	areas := make([]byte, len(stored)*8)
	for i, b := range stored {
		le.PutUint32(areas[i*8:], uint32(b))
		le.PutUint32(areas[i*8+4:], 1)
	}

	var data bytes.Buffer
	pos := daxHeaderSize + len(offsets) + len(lengths) + len(areas)
	for b := range nblocks {
		chunk := plain[b*daxBlockSize : min((b+1)*daxBlockSize, len(plain))]
		payload := chunk
		if !slices.Contains(stored, b) {
			var buf bytes.Buffer
			w := zlib.NewWriter(&buf)
			_, _ = w.Write(chunk)
			_ = w.Close()
			payload = buf.Bytes()
		}
		le.PutUint32(offsets[b*4:], uint32(pos))
		le.PutUint16(lengths[b*2:], uint16(len(payload)))
		pos += len(payload)
		data.Write(payload)
	}

	out := slices.Concat(header, offsets, lengths, areas)
	return append(out, data.Bytes()...)
}
