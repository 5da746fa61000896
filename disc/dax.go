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

package disc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/ZaparooProject/go-romprops/source"
)

// DAX layout (little-endian): a 0x20-byte header, one u32 file offset and
// one u16 compressed length per 8 KiB block, then for version 1 a table of
// (first block, block count) pairs naming blocks stored uncompressed.
const (
	DAXHeaderSize = 0x20
	DAXBlockSize  = 0x2000

	daxMaxVersion = 1
)

var daxMagic = []byte("DAX\x00")

// DAXHeader is the parsed DAX file header.
type DAXHeader struct {
	TotalBytes uint32
	Version    uint32
	NCAreas    uint32
}

// NumBlocks returns the number of 8 KiB blocks covering TotalBytes.
func (h DAXHeader) NumBlocks() uint64 {
	return (uint64(h.TotalBytes) + DAXBlockSize - 1) / DAXBlockSize
}

// tableBytes is the size of the block and NC-area tables after the header.
func (h DAXHeader) tableBytes() uint64 {
	n := h.NumBlocks() * 6
	if h.Version >= 1 {
		n += uint64(h.NCAreas) * 8
	}
	return n
}

func parseDAXHeader(header []byte) (DAXHeader, bool) {
	if len(header) < DAXHeaderSize || !bytes.HasPrefix(header, daxMagic) {
		return DAXHeader{}, false
	}
	return DAXHeader{
		TotalBytes: binary.LittleEndian.Uint32(header[4:]),
		Version:    binary.LittleEndian.Uint32(header[8:]),
		NCAreas:    binary.LittleEndian.Uint32(header[12:]),
	}, true
}

// IsDAX reports whether header (the first bytes of a file of the given size)
// is a plausible DAX image. It is a pure function of its inputs.
func IsDAX(header []byte, size int64) bool {
	h, ok := parseDAXHeader(header)
	if !ok || h.TotalBytes == 0 || h.Version > daxMaxVersion || size < DAXHeaderSize {
		return false
	}
	if h.Version >= 1 && uint64(h.NCAreas) > h.NumBlocks() {
		return false
	}
	return h.tableBytes() <= uint64(size)-DAXHeaderSize //nolint:gosec // size >= DAXHeaderSize checked above
}

// DAXReader decompresses a DAX image block by block on demand.
type DAXReader struct {
	src     io.ReaderAt
	blocks  *blockCache
	offsets []uint32
	lengths []uint16
	stored  []bool
	header  DAXHeader
}

// NewDAX parses the header and tables of a DAX image. The reader does not
// take ownership of src.
func NewDAX(src *source.Handle, cacheBlocks int) (*DAXReader, error) {
	head := make([]byte, DAXHeaderSize)
	if _, err := src.ReadAt(head, 0); err != nil {
		return nil, fmt.Errorf("read DAX header: %w", err)
	}
	if !IsDAX(head, src.Size()) {
		return nil, ErrNotDAX
	}
	hdr, _ := parseDAXHeader(head)

	nblocks := hdr.NumBlocks()
	raw := make([]byte, hdr.tableBytes())
	if _, err := src.ReadAt(raw, DAXHeaderSize); err != nil {
		return nil, fmt.Errorf("read DAX tables: %w", err)
	}

	d := &DAXReader{
		src:     src,
		header:  hdr,
		offsets: make([]uint32, nblocks),
		lengths: make([]uint16, nblocks),
		stored:  make([]bool, nblocks),
	}
	lengths := raw[nblocks*4:]
	for i := range d.offsets {
		d.offsets[i] = binary.LittleEndian.Uint32(raw[i*4:])
		d.lengths[i] = binary.LittleEndian.Uint16(lengths[i*2:])
		if end := uint64(d.offsets[i]) + uint64(d.lengths[i]); end > uint64(src.Size()) { //nolint:gosec // Size is non-negative
			return nil, fmt.Errorf("%w: block %d ends at 0x%X", ErrCorruptIndex, i, end)
		}
	}
	if hdr.Version >= 1 {
		areas := raw[nblocks*6:]
		for i := range uint64(hdr.NCAreas) {
			first := uint64(binary.LittleEndian.Uint32(areas[i*8:]))
			count := uint64(binary.LittleEndian.Uint32(areas[i*8+4:]))
			if first+count > nblocks {
				return nil, fmt.Errorf("%w: uncompressed area %d past the last block", ErrCorruptIndex, i)
			}
			for b := first; b < first+count; b++ {
				d.stored[b] = true
			}
		}
	}

	blocks, err := newBlockCache(cacheBlocks, d.decodeBlock)
	if err != nil {
		return nil, err
	}
	d.blocks = blocks
	return d, nil
}

// OpenDAX returns a handle exposing the decompressed contents of h together
// with the reader backing it.
func OpenDAX(h *source.Handle, cacheBlocks int) (*source.Handle, *DAXReader, error) {
	var reader *DAXReader
	out, err := source.Derive(h, "dax", func(ref *source.Handle) (io.ReaderAt, int64, error) {
		r, err := NewDAX(ref, cacheBlocks)
		if err != nil {
			return nil, 0, err
		}
		reader = r
		return r, r.Size(), nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, reader, nil
}

// Header returns the parsed file header.
func (d *DAXReader) Header() DAXHeader { return d.header }

// Size returns the decompressed size.
func (d *DAXReader) Size() int64 { return int64(d.header.TotalBytes) }

// Stats returns a snapshot of the access counters.
func (d *DAXReader) Stats() Stats { return d.blocks.stats() }

// ReadAt implements io.ReaderAt over the decompressed image.
func (d *DAXReader) ReadAt(p []byte, off int64) (int, error) {
	return d.blocks.readBlocks(p, off, d.Size(), DAXBlockSize)
}

func (d *DAXReader) decodeBlock(n uint64) ([]byte, error) {
	if n >= uint64(len(d.offsets)) {
		return nil, fmt.Errorf("%w: block %d", ErrCorruptIndex, n)
	}
	want := min(uint64(d.header.TotalBytes)-n*DAXBlockSize, DAXBlockSize)
	readLen := uint64(d.lengths[n])
	if d.stored[n] {
		readLen = want
	}
	comp := make([]byte, readLen)
	got, err := d.src.ReadAt(comp, int64(d.offsets[n]))
	if err != nil && !(errors.Is(err, io.EOF) && got > 0) {
		return nil, fmt.Errorf("read block %d: %w", n, err)
	}
	comp = comp[:got]

	dst := make([]byte, want)
	var out int
	if d.stored[n] {
		out = copy(dst, comp)
	} else {
		zr, err := zlib.NewReader(bytes.NewReader(comp))
		if err != nil {
			return nil, fmt.Errorf("%w: zlib block %d: %w", ErrDecompress, n, err)
		}
		out, err = io.ReadFull(zr, dst)
		_ = zr.Close()
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: zlib block %d: %w", ErrDecompress, n, err)
		}
	}
	if uint64(out) < want { //nolint:gosec // out is non-negative
		return nil, fmt.Errorf("%w: block %d decoded to %d of %d bytes", ErrDecompress, n, out, want)
	}
	return dst, nil
}
