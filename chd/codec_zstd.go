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
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdDecoder is shared by all zstd codecs; DecodeAll is safe for concurrent use.
var zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
	return zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
})

func decodeZstd(dst, src []byte) (int, error) {
	dec, err := zstdDecoder()
	if err != nil {
		return 0, fmt.Errorf("%w: zstd init: %w", ErrDecompressFailed, err)
	}
	out, err := dec.DecodeAll(src, make([]byte, 0, len(dst)))
	if err != nil {
		return 0, fmt.Errorf("%w: zstd: %w", ErrDecompressFailed, err)
	}
	if len(out) > len(dst) {
		return 0, fmt.Errorf("%w: zstd: output exceeds hunk", ErrDecompressFailed)
	}
	return copy(dst, out), nil
}

// zstdCodec decodes "zstd" hunks.
type zstdCodec struct{}

func (zstdCodec) Decompress(dst, src []byte) (int, error) { return decodeZstd(dst, src) }

// cdZstdCodec decodes "cdzs" hunks: zstd sectors plus deflate subchannel.
type cdZstdCodec struct{}

func (c cdZstdCodec) Decompress(dst, src []byte) (int, error) {
	return c.DecompressCD(dst, src, len(dst), len(dst)/defaultUnitBytes)
}

func (cdZstdCodec) DecompressCD(dst, src []byte, destLen, frames int) (int, error) {
	return decompressCDFrames("cdzs", dst, src, destLen, frames, decodeZstd)
}
