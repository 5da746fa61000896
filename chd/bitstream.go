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

// bitReader reads MSB-first bit fields. Reading past the end yields zero
// bits.
type bitReader struct {
	data  []byte
	pos   int    // next byte to buffer
	acc   uint64 // buffered bits, right-aligned
	nbits int    // number of valid bits in acc
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

func (r *bitReader) fill(n int) {
	for r.nbits < n {
		var b byte
		if r.pos < len(r.data) {
			b = r.data[r.pos]
			r.pos++
		}
		r.acc = r.acc<<8 | uint64(b)
		r.nbits += 8
	}
}

// peek returns the next n bits, n <= 32, without consuming them.
func (r *bitReader) peek(n int) uint32 {
	r.fill(n)
	return uint32(r.acc>>(r.nbits-n)) & (uint32(1)<<n - 1) //nolint:gosec // Masked to n bits
}

func (r *bitReader) skip(n int) {
	r.fill(n)
	r.nbits -= n
}

func (r *bitReader) read(n int) uint32 {
	v := r.peek(n)
	r.nbits -= n
	return v
}

// huffman decodes the canonical Huffman codes of V5 hunk maps. Table
// entries pack symbol<<5 | code length, indexed by the next maxBits bits.
type huffman struct {
	lengths []uint8
	table   []uint16
	maxBits int
}

func newHuffman(numCodes, maxBits int) *huffman {
	return &huffman{
		lengths: make([]uint8, numCodes),
		table:   make([]uint16, 1<<maxBits),
		maxBits: maxBits,
	}
}

// readTree reads run-length coded code lengths and builds the table. A
// length of 1 is an escape: 1 again is a literal 1, anything else is a
// length repeated 3 or more times.
func (h *huffman) readTree(r *bitReader) error {
	width := 3
	switch {
	case h.maxBits >= 16:
		width = 5
	case h.maxBits >= 8:
		width = 4
	}

	for i := 0; i < len(h.lengths); {
		v := r.read(width)
		if v == 1 {
			if v = r.read(width); v != 1 {
				for n := int(r.read(width)) + 3; n > 0 && i < len(h.lengths); n-- {
					h.lengths[i] = uint8(v) //nolint:gosec // At most 5 bits wide
					i++
				}
				continue
			}
		}
		h.lengths[i] = uint8(v) //nolint:gosec // At most 5 bits wide
		i++
	}
	return h.buildTable()
}

// buildTable assigns codes the way MAME does, handing out the longest
// codes first.
func (h *huffman) buildTable() error {
	var start [33]uint32
	for _, l := range h.lengths {
		if int(l) > h.maxBits {
			return fmt.Errorf("%w: huffman code length %d exceeds %d", ErrCorruptData, l, h.maxBits)
		}
		start[l]++
	}
	var next uint32
	for l := 32; l > 0; l-- {
		count := start[l]
		start[l] = next
		next = (next + count) >> 1
	}

	for sym, l := range h.lengths {
		if l == 0 {
			continue
		}
		code := start[l]
		start[l]++
		shift := h.maxBits - int(l)
		lo, hi := int(code)<<shift, int(code+1)<<shift
		if hi > len(h.table) {
			return fmt.Errorf("%w: huffman code overflows lookup table", ErrCorruptData)
		}
		entry := uint16(sym<<5 | int(l)) //nolint:gosec // Symbols and lengths are small
		for j := lo; j < hi; j++ {
			h.table[j] = entry
		}
	}
	return nil
}

func (h *huffman) decode(r *bitReader) uint8 {
	entry := h.table[r.peek(h.maxBits)]
	r.skip(int(entry & 0x1F))
	return uint8(entry >> 5) //nolint:gosec // Symbols are below 32
}
