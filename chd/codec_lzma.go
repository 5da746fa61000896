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
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// lzmaPropsLcLpPb encodes lc=3, lp=0, pb=2, the properties MAME always uses.
const lzmaPropsLcLpPb = 0x5D

// lzmaDictSize reproduces the dictionary size MAME derives from the hunk
// size: the smallest 2<<i or 3<<i not below it.
func lzmaDictSize(size uint32) uint32 {
	for i := uint32(11); i <= 30; i++ {
		if size <= 2<<i {
			return 2 << i
		}
		if size <= 3<<i {
			return 3 << i
		}
	}
	return 1 << 26
}

// decodeLZMA decodes a headerless CHD LZMA stream into dst. The stream's
// properties are implied by len(dst), so a classic 13-byte header is
// synthesized in front of it.
func decodeLZMA(dst, src []byte) (int, error) {
	if len(src) == 0 {
		return 0, fmt.Errorf("%w: lzma: empty source", ErrDecompressFailed)
	}
	var header [13]byte
	header[0] = lzmaPropsLcLpPb
	binary.LittleEndian.PutUint32(header[1:5], lzmaDictSize(uint32(len(dst)))) //nolint:gosec // Hunk sized
	binary.LittleEndian.PutUint64(header[5:13], uint64(len(dst)))

	r, err := lzma.NewReader(io.MultiReader(bytes.NewReader(header[:]), bytes.NewReader(src)))
	if err != nil {
		return 0, fmt.Errorf("%w: lzma init: %w", ErrDecompressFailed, err)
	}
	n, err := io.ReadFull(r, dst)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return n, fmt.Errorf("%w: lzma: %w", ErrDecompressFailed, err)
	}
	return n, nil
}

// lzmaCodec decodes "lzma" hunks.
type lzmaCodec struct{}

func (lzmaCodec) Decompress(dst, src []byte) (int, error) { return decodeLZMA(dst, src) }

// cdLZMACodec decodes "cdlz" hunks: LZMA sectors plus deflate subchannel.
type cdLZMACodec struct{}

func (c cdLZMACodec) Decompress(dst, src []byte) (int, error) {
	return c.DecompressCD(dst, src, len(dst), len(dst)/defaultUnitBytes)
}

func (cdLZMACodec) DecompressCD(dst, src []byte, destLen, frames int) (int, error) {
	return decompressCDFrames("cdlz", dst, src, destLen, frames, decodeLZMA)
}
