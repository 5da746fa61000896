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

	"github.com/klauspost/compress/flate"
)

const cisoHeaderSize = 0x18

// CISO compresses plain into a version 1 CISO image with raw deflate
// blocks of blockSize bytes.
func CISO(plain []byte, blockSize int) []byte {
	le := binary.LittleEndian
	nblocks := (len(plain) + blockSize - 1) / blockSize

	header := make([]byte, cisoHeaderSize)
	copy(header, "CISO")
	le.PutUint32(header[4:], cisoHeaderSize)
	le.PutUint64(header[8:], uint64(len(plain)))
	le.PutUint32(header[16:], uint32(blockSize))
	header[20] = 1

	index := make([]byte, (nblocks+1)*4)
	var data bytes.Buffer
	pos := cisoHeaderSize + len(index)
	for b := range nblocks {
		chunk := plain[b*blockSize : min((b+1)*blockSize, len(plain))]
		var buf bytes.Buffer
		w, err := flate.NewWriter(&buf, flate.BestCompression)
		if err != nil {
			panic(err)
		}
		_, _ = w.Write(chunk)
		_ = w.Close()
		le.PutUint32(index[b*4:], uint32(pos))
		pos += buf.Len()
		data.Write(buf.Bytes())
	}
	le.PutUint32(index[nblocks*4:], uint32(pos))

	out := append(header, index...)
	return append(out, data.Bytes()...)
}
