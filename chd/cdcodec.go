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
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// CD frame geometry.
const (
	cdSectorSize = 2352
	cdSubSize    = 96
)

// cdSyncHeader is the sync pattern that starts every raw data sector.
var cdSyncHeader = [12]byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}

// baseDecoder decompresses the sector portion of a CD hunk into dst.
type baseDecoder func(dst, src []byte) (int, error)

// decompressCDFrames implements the framing shared by the cdzl, cdlz and cdzs
// codecs: an ECC bitmap of (frames+7)/8 bytes, a 2- or 3-byte big-endian
// length of the base stream, the base stream, then a deflate subchannel stream.
func decompressCDFrames(name string, dst, src []byte, destLen, frames int, base baseDecoder) (int, error) {
	compLenBytes := 2
	if destLen >= 65536 {
		compLenBytes = 3
	}
	eccBytes := (frames + 7) / 8
	headerBytes := eccBytes + compLenBytes
	if len(src) < headerBytes {
		return 0, fmt.Errorf("%w: %s: source too small for header", ErrDecompressFailed, name)
	}

	eccBitmap := src[:eccBytes]
	compLenBase := 0
	for _, b := range src[eccBytes:headerBytes] {
		compLenBase = compLenBase<<8 | int(b)
	}
	if headerBytes+compLenBase > len(src) {
		return 0, fmt.Errorf("%w: %s: invalid base length %d", ErrDecompressFailed, name, compLenBase)
	}

	sectors := make([]byte, frames*cdSectorSize)
	n, err := base(sectors, src[headerBytes:headerBytes+compLenBase])
	if err != nil {
		return 0, fmt.Errorf("%s sector: %w", name, err)
	}
	subchannel := inflateSubchannel(src[headerBytes+compLenBase:], frames*cdSubSize)

	out := interleaveCDData(dst, sectors[:n], subchannel, frames)
	for i := range frames {
		// Frames flagged in the bitmap had their sync header stripped before
		// compression. ECC is not regenerated; only user data is consumed.
		frameOff := i * (cdSectorSize + cdSubSize)
		if eccBitmap[i/8]&(1<<(i%8)) != 0 && frameOff < len(dst) {
			copy(dst[frameOff:], cdSyncHeader[:])
		}
	}
	return out, nil
}

// inflateDeflate fills dst from a raw deflate stream. Streams that end early
// are accepted; the remainder of dst stays zero.
func inflateDeflate(dst, src []byte) (int, error) {
	r := flate.NewReader(bytes.NewReader(src))
	defer func() { _ = r.Close() }()
	n, err := io.ReadFull(r, dst)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return n, fmt.Errorf("%w: deflate: %w", ErrDecompressFailed, err)
	}
	return len(dst), nil
}

// inflateSubchannel decompresses subchannel data, zero-filling on failure.
func inflateSubchannel(src []byte, size int) []byte {
	out := make([]byte, size)
	if len(src) == 0 || size == 0 {
		return out
	}
	if _, err := inflateDeflate(out, src); err != nil {
		clear(out)
	}
	return out
}

// interleaveCDData writes sector and subchannel data frame by frame into dst.
func interleaveCDData(dst, sectors, subchannel []byte, frames int) int {
	off := 0
	for i := range frames {
		s := i * cdSectorSize
		if s+cdSectorSize <= len(sectors) && off+cdSectorSize <= len(dst) {
			copy(dst[off:], sectors[s:s+cdSectorSize])
		}
		off += cdSectorSize

		sub := i * cdSubSize
		if sub+cdSubSize <= len(subchannel) && off+cdSubSize <= len(dst) {
			copy(dst[off:], subchannel[sub:sub+cdSubSize])
		}
		off += cdSubSize
	}
	return min(off, len(dst))
}
