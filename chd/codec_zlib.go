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

// zlibCodec decodes "zlib" hunks, which are raw deflate streams without the
// zlib wrapper.
type zlibCodec struct{}

func (zlibCodec) Decompress(dst, src []byte) (int, error) {
	return inflateDeflate(dst, src)
}

// cdZlibCodec decodes "cdzl" hunks: deflate sectors plus deflate subchannel.
type cdZlibCodec struct{}

func (c cdZlibCodec) Decompress(dst, src []byte) (int, error) {
	return c.DecompressCD(dst, src, len(dst), len(dst)/defaultUnitBytes)
}

func (cdZlibCodec) DecompressCD(dst, src []byte, destLen, frames int) (int, error) {
	return decompressCDFrames("cdzl", dst, src, destLen, frames, inflateDeflate)
}
