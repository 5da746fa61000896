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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitReader(t *testing.T) {
	t.Parallel()

	br := newBitReader([]byte{0b1011_0010, 0xFF})
	assert.Equal(t, uint32(0b101), br.peek(3))
	assert.Equal(t, uint32(0b101), br.read(3))
	assert.Equal(t, uint32(0b10010), br.read(5))
	assert.Equal(t, uint32(0xFF), br.read(8))
	assert.Zero(t, br.read(12), "reads past the end are zero")
}

func TestHuffmanTree(t *testing.T) {
	t.Parallel()

	// Escape, length 4, repeat 13+3 times; then symbols 7, 2 and 9.
	br := newBitReader([]byte{0x14, 0xD7, 0x29})
	h := newHuffman(16, 8)
	require.NoError(t, h.readTree(br))
	for _, l := range h.lengths {
		require.Equal(t, uint8(4), l)
	}
	assert.Equal(t, uint8(7), h.decode(br))
	assert.Equal(t, uint8(2), h.decode(br))
	assert.Equal(t, uint8(9), h.decode(br))
	assert.Equal(t, uint8(0), h.decode(br))
}

func TestHuffmanTreeTooLong(t *testing.T) {
	t.Parallel()

	// Every code 15 bits long, wider than the 8-bit table.
	h := newHuffman(16, 8)
	require.ErrorIs(t, h.readTree(newBitReader([]byte{0x1F, 0xD0})), ErrCorruptData)
}

func TestFLACBlockSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint16(1000), flacBlockSize(4000, 2048))
	assert.Equal(t, uint16(4896), flacBlockSize(8*defaultUnitBytes, 2448*2))
	assert.Equal(t, uint16(1224), flacBlockSize(8*defaultUnitBytes, cdSectorSize))
}

func TestStreamHeader(t *testing.T) {
	t.Parallel()

	h := streamHeader(588)
	require.Len(t, h, 42)
	assert.Equal(t, "fLaC", string(h[:4]))
	assert.Equal(t, []byte{0x02, 0x4C, 0x02, 0x4C}, h[8:12])
	assert.Equal(t, []byte{0x0A, 0xC4, 0x42, 0xF0}, h[18:22])
}
