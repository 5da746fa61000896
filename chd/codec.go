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

import "fmt"

// Codec tags are four ASCII characters stored as a big-endian word. The
// cd* codecs compress sector data and subchannel data separately.
const (
	CodecNone   uint32 = 0
	CodecZlib   uint32 = 'z'<<24 | 'l'<<16 | 'i'<<8 | 'b'
	CodecLZMA   uint32 = 'l'<<24 | 'z'<<16 | 'm'<<8 | 'a'
	CodecHuff   uint32 = 'h'<<24 | 'u'<<16 | 'f'<<8 | 'f'
	CodecFLAC   uint32 = 'f'<<24 | 'l'<<16 | 'a'<<8 | 'c'
	CodecZstd   uint32 = 'z'<<24 | 's'<<16 | 't'<<8 | 'd'
	CodecCDZlib uint32 = 'c'<<24 | 'd'<<16 | 'z'<<8 | 'l'
	CodecCDLZMA uint32 = 'c'<<24 | 'd'<<16 | 'l'<<8 | 'z'
	CodecCDFLAC uint32 = 'c'<<24 | 'd'<<16 | 'f'<<8 | 'l'
	CodecCDZstd uint32 = 'c'<<24 | 'd'<<16 | 'z'<<8 | 's'
)

// Codec decompresses one hunk. dst is sized to the hunk; the result is the
// number of bytes written.
type Codec interface {
	Decompress(dst, src []byte) (int, error)
}

// CDCodec is a codec that splits a hunk into frames of sector data followed
// by subchannel data.
type CDCodec interface {
	Codec
	DecompressCD(dst, src []byte, hunkBytes, frames int) (int, error)
}

// codecs holds the supported codecs. They are stateless and shared.
var codecs = map[uint32]Codec{
	CodecZlib:   zlibCodec{},
	CodecLZMA:   lzmaCodec{},
	CodecFLAC:   flacCodec{},
	CodecZstd:   zstdCodec{},
	CodecCDZlib: cdZlibCodec{},
	CodecCDLZMA: cdLZMACodec{},
	CodecCDFLAC: cdFLACCodec{},
	CodecCDZstd: cdZstdCodec{},
}

// lookupCodec returns the codec for tag.
func lookupCodec(tag uint32) (Codec, error) {
	if c, ok := codecs[tag]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedCodec, tagString(tag))
}

// tagString renders a codec tag as its four characters, or "none".
func tagString(tag uint32) string {
	if tag == CodecNone {
		return "none"
	}
	return string([]byte{byte(tag >> 24), byte(tag >> 16), byte(tag >> 8), byte(tag)})
}
