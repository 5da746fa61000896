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
	"math/bits"

	"github.com/klauspost/compress/flate"
	"github.com/pierrec/lz4/v4"

	"github.com/ZaparooProject/go-romprops/source"
)

// CISO/ZISO header layout (little-endian).
const (
	CISOHeaderSize = 0x18

	cisoMagicOffset      = 0x00
	cisoHeaderSizeOffset = 0x04
	cisoTotalBytesOffset = 0x08
	cisoBlockSizeOffset  = 0x10
	cisoVersionOffset    = 0x14
	cisoAlignOffset      = 0x15

	cisoMinBlockSize = 0x800
	cisoMaxBlockSize = 0x100000
	cisoMaxVersion   = 2
	cisoFlagBit      = 0x80000000
)

var (
	cisoMagic = []byte("CISO")
	zisoMagic = []byte("ZISO")
)

// CISOHeader is the parsed CISO/ZISO file header.
type CISOHeader struct {
	Magic      [4]byte
	HeaderSize uint32
	TotalBytes uint64
	BlockSize  uint32
	Version    uint8
	Align      uint8
}

// IsZISO reports whether the header describes an LZ4-compressed ZISO image.
func (h CISOHeader) IsZISO() bool { return bytes.Equal(h.Magic[:], zisoMagic) }

// NumBlocks returns the number of blocks covering TotalBytes.
func (h CISOHeader) NumBlocks() uint64 {
	return (h.TotalBytes + uint64(h.BlockSize) - 1) / uint64(h.BlockSize)
}

func parseCISOHeader(header []byte) (CISOHeader, bool) {
	var h CISOHeader
	if len(header) < CISOHeaderSize {
		return h, false
	}
	copy(h.Magic[:], header[cisoMagicOffset:cisoMagicOffset+4])
	h.HeaderSize = binary.LittleEndian.Uint32(header[cisoHeaderSizeOffset:])
	h.TotalBytes = binary.LittleEndian.Uint64(header[cisoTotalBytesOffset:])
	h.BlockSize = binary.LittleEndian.Uint32(header[cisoBlockSizeOffset:])
	h.Version = header[cisoVersionOffset]
	h.Align = header[cisoAlignOffset]
	return h, true
}

// IsCISO reports whether header (the first bytes of a file of the given size)
// is a plausible CISO or ZISO image. It is a pure function of its inputs.
func IsCISO(header []byte, size int64) bool {
	h, ok := parseCISOHeader(header)
	if !ok {
		return false
	}
	if !bytes.Equal(h.Magic[:], cisoMagic) && !h.IsZISO() {
		return false
	}
	if h.HeaderSize != 0 && h.HeaderSize != CISOHeaderSize {
		return false
	}
	if h.Version > cisoMaxVersion || h.Align > 31 {
		return false
	}
	if h.BlockSize < cisoMinBlockSize || h.BlockSize > cisoMaxBlockSize || bits.OnesCount32(h.BlockSize) != 1 {
		return false
	}
	if h.TotalBytes == 0 || size < CISOHeaderSize {
		return false
	}
	indexBytes := (h.NumBlocks() + 1) * 4
	return indexBytes <= uint64(size)-CISOHeaderSize //nolint:gosec // size >= CISOHeaderSize checked above
}

// CISOReader decompresses a CISO/ZISO image block by block on demand.
type CISOReader struct {
	src     io.ReaderAt
	blocks  *blockCache
	index   []uint32
	header  CISOHeader
	srcSize int64
}

// NewCISO parses the header and block index of a CISO/ZISO image.
// The reader does not take ownership of src.
func NewCISO(src *source.Handle, cacheBlocks int) (*CISOReader, error) {
	head := make([]byte, CISOHeaderSize)
	if _, err := src.ReadAt(head, 0); err != nil {
		return nil, fmt.Errorf("read CISO header: %w", err)
	}
	if !IsCISO(head, src.Size()) {
		return nil, ErrNotCISO
	}
	hdr, _ := parseCISOHeader(head)

	nblocks := hdr.NumBlocks()
	if nblocks > MaxCISOBlocks {
		return nil, fmt.Errorf("%w: %d blocks", ErrCorruptIndex, nblocks)
	}
	raw := make([]byte, (nblocks+1)*4)
	if _, err := src.ReadAt(raw, CISOHeaderSize); err != nil {
		return nil, fmt.Errorf("read CISO index: %w", err)
	}
	index := make([]uint32, nblocks+1)
	var prev uint64
	for i := range index {
		index[i] = binary.LittleEndian.Uint32(raw[i*4:])
		pos := uint64(index[i]&^cisoFlagBit) << hdr.Align
		if pos < prev || pos > uint64(src.Size()) { //nolint:gosec // Size is non-negative
			return nil, fmt.Errorf("%w: entry %d at 0x%X", ErrCorruptIndex, i, pos)
		}
		prev = pos
	}

	c := &CISOReader{src: src, header: hdr, index: index, srcSize: src.Size()}
	blocks, err := newBlockCache(cacheBlocks, c.decodeBlock)
	if err != nil {
		return nil, err
	}
	c.blocks = blocks
	return c, nil
}

// OpenCISO returns a handle exposing the decompressed contents of h together
// with the reader backing it.
func OpenCISO(h *source.Handle, cacheBlocks int) (*source.Handle, *CISOReader, error) {
	var reader *CISOReader
	out, err := source.Derive(h, "ciso", func(ref *source.Handle) (io.ReaderAt, int64, error) {
		r, err := NewCISO(ref, cacheBlocks)
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
func (c *CISOReader) Header() CISOHeader { return c.header }

// Size returns the decompressed size.
func (c *CISOReader) Size() int64 {
	return int64(c.header.TotalBytes) //nolint:gosec // Bounded by MaxCISOBlocks * block size
}

// Stats returns a snapshot of the access counters.
func (c *CISOReader) Stats() Stats { return c.blocks.stats() }

// ReadAt implements io.ReaderAt over the decompressed image.
func (c *CISOReader) ReadAt(p []byte, off int64) (int, error) {
	return c.blocks.readBlocks(p, off, c.Size(), int64(c.header.BlockSize))
}

func (c *CISOReader) blockLength(n uint64) int {
	bs := uint64(c.header.BlockSize)
	if remain := c.header.TotalBytes - n*bs; remain < bs {
		return int(remain) //nolint:gosec // Less than block size
	}
	return int(bs)
}

func (c *CISOReader) decodeBlock(n uint64) ([]byte, error) {
	if n+1 >= uint64(len(c.index)) {
		return nil, fmt.Errorf("%w: block %d", ErrCorruptIndex, n)
	}
	entry := c.index[n]
	start := uint64(entry&^cisoFlagBit) << c.header.Align
	end := uint64(c.index[n+1]&^cisoFlagBit) << c.header.Align
	compLen := end - start
	if compLen > uint64(c.header.BlockSize)*2 {
		return nil, fmt.Errorf("%w: block %d spans %d bytes", ErrCorruptIndex, n, compLen)
	}

	want := c.blockLength(n)
	flagged := entry&cisoFlagBit != 0
	method := c.blockMethod(flagged, compLen)

	readLen := compLen
	if method == methodStored {
		readLen = uint64(want)
	}
	comp := make([]byte, readLen)
	//nolint:gosec // start validated against source size when the index was parsed
	if got, err := c.src.ReadAt(comp, int64(start)); err != nil && !(errors.Is(err, io.EOF) && got > 0) {
		return nil, fmt.Errorf("read block %d: %w", n, err)
	} else if got < len(comp) {
		comp = comp[:got]
	}

	dst := make([]byte, want)
	var got int
	switch method {
	case methodStored:
		got = copy(dst, comp)
	case methodLZ4:
		var err error
		if got, err = lz4.UncompressBlock(comp, dst); err != nil {
			return nil, fmt.Errorf("%w: lz4 block %d: %w", ErrDecompress, n, err)
		}
	default:
		var err error
		got, err = inflate(dst, comp)
		if err != nil {
			return nil, fmt.Errorf("%w: deflate block %d: %w", ErrDecompress, n, err)
		}
	}
	if got < want {
		return nil, fmt.Errorf("%w: block %d decoded to %d of %d bytes", ErrDecompress, n, got, want)
	}
	return dst, nil
}

// inflate decodes a raw deflate stream into dst. A stream that ends before
// dst is full reports how far it got without an error.
func inflate(dst, comp []byte) (int, error) {
	r := flate.NewReader(bytes.NewReader(comp))
	defer func() { _ = r.Close() }()
	n, err := io.ReadFull(r, dst)
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return n, nil
	}
	return n, err
}

type blockMethod int

const (
	methodDeflate blockMethod = iota
	methodLZ4
	methodStored
)

func (c *CISOReader) blockMethod(flagged bool, compLen uint64) blockMethod {
	switch {
	case c.header.IsZISO():
		if flagged {
			return methodStored
		}
		return methodLZ4
	case c.header.Version >= 2:
		if compLen >= uint64(c.header.BlockSize) {
			return methodStored
		}
		if flagged {
			return methodLZ4
		}
		return methodDeflate
	default:
		if flagged {
			return methodStored
		}
		return methodDeflate
	}
}
