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
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// entryKind is how a hunk is stored. Values below kindRLESmall appear
// literally in V5 maps; the rest are shorthands resolved while parsing.
type entryKind uint8

const (
	kindCodec0 entryKind = iota
	kindCodec1
	kindCodec2
	kindCodec3
	kindRaw
	kindSelf
	kindParent
	kindRLESmall
	kindRLELarge
	kindSelfSame
	kindSelfNext
	kindParentSelf
	kindParentSame
	kindParentNext
)

// V3 and V4 compression identifiers. Both are raw deflate.
const (
	legacyCompressionZlib     = 1
	legacyCompressionZlibPlus = 2
)

// HunkCacheSize is the number of decompressed hunks kept per image.
const HunkCacheSize = 16

const (
	maxSelfRefDepth = 8
	v4EntrySize     = 16
	v5MapHeaderSize = 16
)

type hunkEntry struct {
	offset uint64 // file offset, or hunk index for references
	length uint32
	kind   entryKind
}

// HunkMap resolves hunk indices to decompressed data.
type HunkMap struct {
	reader  io.ReaderAt
	header  *Header
	cache   *lru.Cache[uint32, []byte]
	entries []hunkEntry
	codecs  []Codec
	decoded atomic.Uint64
	hits    atomic.Uint64
}

// NewHunkMap parses the hunk map described by header.
func NewHunkMap(reader io.ReaderAt, header *Header) (*HunkMap, error) {
	n := header.NumHunks()
	if n > maxHunks {
		return nil, fmt.Errorf("%w: %d hunks exceeds %d", ErrInvalidHeader, n, maxHunks)
	}
	cache, err := lru.New[uint32, []byte](HunkCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create hunk cache: %w", err)
	}
	hm := &HunkMap{reader: reader, header: header, cache: cache, codecs: resolveCodecs(header)}

	switch header.Version {
	case 5:
		hm.entries, err = hm.readV5Map(n)
	case 3, 4:
		hm.entries, err = hm.readV4Map(n)
	default:
		err = fmt.Errorf("%w: version %d", ErrUnsupportedVersion, header.Version)
	}
	if err != nil {
		return nil, fmt.Errorf("parse hunk map: %w", err)
	}
	return hm, nil
}

// resolveCodecs maps compressor slots to codec instances. Unknown codecs
// leave a nil slot; hunks using them fail with ErrUnsupportedCodec.
func resolveCodecs(header *Header) []Codec {
	if header.Version < 5 {
		if header.Compression == legacyCompressionZlib || header.Compression == legacyCompressionZlibPlus {
			return []Codec{codecs[CodecZlib]}
		}
		return nil
	}
	slots := make([]Codec, len(header.Compressors))
	for i, tag := range header.Compressors {
		if tag == CodecNone {
			continue
		}
		if codec, err := lookupCodec(tag); err == nil {
			slots[i] = codec
		}
	}
	return slots
}

// readV4Map reads the flat V3/V4 map: per hunk an 8-byte offset, a CRC32,
// a 2-byte length and 2 bytes of flags where bit 0 marks compression.
func (hm *HunkMap) readV4Map(n uint32) ([]hunkEntry, error) {
	raw := make([]byte, int(n)*v4EntrySize)
	//nolint:gosec // MapOffset was validated with the header
	if _, err := hm.reader.ReadAt(raw, int64(hm.header.MapOffset)); err != nil {
		return nil, fmt.Errorf("read V4 map: %w", err)
	}

	entries := make([]hunkEntry, n)
	for i := range entries {
		e := raw[i*v4EntrySize : (i+1)*v4EntrySize]
		entries[i] = hunkEntry{
			offset: binary.BigEndian.Uint64(e),
			length: uint32(binary.BigEndian.Uint16(e[12:])),
			kind:   kindRaw,
		}
		if binary.BigEndian.Uint16(e[14:])&1 != 0 {
			entries[i].kind = kindCodec0
		}
	}
	return entries, nil
}

// v5MapHeader precedes the Huffman coded V5 map.
type v5MapHeader struct {
	mapLen     uint32 // bytes of coded map after the header
	firstOffs  uint64 // file offset of the first compressed hunk
	lengthBits int
	selfBits   int
	parentBits int
}

func parseV5MapHeader(b []byte) (v5MapHeader, error) {
	var mh v5MapHeader
	mh.mapLen = binary.BigEndian.Uint32(b)
	if mh.mapLen > maxCompMapLen {
		return mh, fmt.Errorf("%w: coded map of %d bytes exceeds %d", ErrInvalidHeader, mh.mapLen, maxCompMapLen)
	}
	// 48-bit offset at 4, CRC16 at 10
	mh.firstOffs = binary.BigEndian.Uint64(b[2:]) & (1<<48 - 1)
	mh.lengthBits, mh.selfBits, mh.parentBits = int(b[12]), int(b[13]), int(b[14])
	if mh.lengthBits > 32 || mh.selfBits > 32 || mh.parentBits > 32 {
		return mh, fmt.Errorf("%w: map field widths %d/%d/%d", ErrInvalidHeader,
			mh.lengthBits, mh.selfBits, mh.parentBits)
	}
	return mh, nil
}

// readV5Map decodes the V5 map. The coded map holds a Huffman tree, the
// run-length coded kind of every hunk, then per-kind bit fields in hunk
// order.
func (hm *HunkMap) readV5Map(n uint32) ([]hunkEntry, error) {
	//nolint:gosec // MapOffset was validated with the header
	base := int64(hm.header.MapOffset)
	head := make([]byte, v5MapHeaderSize)
	if _, err := hm.reader.ReadAt(head, base); err != nil {
		return nil, fmt.Errorf("read map header: %w", err)
	}
	mh, err := parseV5MapHeader(head)
	if err != nil {
		return nil, err
	}

	coded := make([]byte, mh.mapLen)
	if _, err := hm.reader.ReadAt(coded, base+v5MapHeaderSize); err != nil {
		return nil, fmt.Errorf("read coded map: %w", err)
	}
	br := newBitReader(coded)
	tree := newHuffman(16, 8)
	if err := tree.readTree(br); err != nil {
		return nil, fmt.Errorf("read map tree: %w", err)
	}

	kinds := decodeKinds(tree, br, n)
	return hm.resolveEntries(mh, br, kinds), nil
}

// decodeKinds expands the run-length coded kinds. Runs repeat the previous
// literal kind.
func decodeKinds(tree *huffman, br *bitReader, n uint32) []entryKind {
	kinds := make([]entryKind, n)
	var last entryKind
	run := 0
	for i := range kinds {
		if run > 0 {
			kinds[i] = last
			run--
			continue
		}
		switch k := entryKind(tree.decode(br)); k {
		case kindRLESmall:
			kinds[i] = last
			run = 2 + int(tree.decode(br))
		case kindRLELarge:
			kinds[i] = last
			hi := int(tree.decode(br))
			run = 2 + 16 + hi<<4 + int(tree.decode(br))
		default:
			kinds[i] = k
			last = k
		}
	}
	return kinds
}

// resolveEntries reads each hunk's fields and turns the self and parent
// shorthands into plain references.
func (hm *HunkMap) resolveEntries(mh v5MapHeader, br *bitReader, kinds []entryKind) []hunkEntry {
	hunkBytes, unitBytes := uint64(hm.header.HunkBytes), uint64(max(hm.header.UnitBytes, 1))
	next := mh.firstOffs
	var lastSelf, lastParent uint64

	entries := make([]hunkEntry, len(kinds))
	for i, kind := range kinds {
		e := &entries[i]
		e.kind = kind
		switch kind {
		case kindCodec0, kindCodec1, kindCodec2, kindCodec3, kindRaw:
			if kind == kindRaw {
				e.length = hm.header.HunkBytes
			} else {
				e.length = br.read(mh.lengthBits)
			}
			e.offset = next
			next += uint64(e.length)
			br.skip(16) // CRC16
		case kindSelf:
			lastSelf = uint64(br.read(mh.selfBits))
			e.offset = lastSelf
		case kindSelfSame, kindSelfNext:
			if kind == kindSelfNext {
				lastSelf++
			}
			e.kind, e.offset = kindSelf, lastSelf
		case kindParent:
			lastParent = uint64(br.read(mh.parentBits))
			e.offset = lastParent
		case kindParentSelf:
			lastParent = uint64(i) * hunkBytes / unitBytes
			e.kind, e.offset = kindParent, lastParent
		case kindParentSame, kindParentNext:
			if kind == kindParentNext {
				lastParent += hunkBytes / unitBytes
			}
			e.kind, e.offset = kindParent, lastParent
		}
	}
	return entries
}

// ReadHunk returns the decompressed contents of a hunk. The returned slice
// is shared with the cache and must not be modified.
func (hm *HunkMap) ReadHunk(index uint32) ([]byte, error) {
	return hm.readHunk(index, 0)
}

func (hm *HunkMap) readHunk(index uint32, depth int) ([]byte, error) {
	if index >= hm.NumHunks() {
		return nil, fmt.Errorf("%w: %d >= %d", ErrInvalidHunk, index, len(hm.entries))
	}
	if data, ok := hm.cache.Get(index); ok {
		hm.hits.Add(1)
		return data, nil
	}

	e := hm.entries[index]
	if e.kind == kindSelf {
		if depth >= maxSelfRefDepth || e.offset >= uint64(len(hm.entries)) || e.offset == uint64(index) {
			return nil, fmt.Errorf("%w: self-ref %d from %d", ErrInvalidHunk, e.offset, index)
		}
		return hm.readHunk(uint32(e.offset), depth+1) //nolint:gosec // Checked above
	}

	var (
		data []byte
		err  error
	)
	switch {
	case e.kind == kindRaw:
		data = make([]byte, hm.header.HunkBytes)
		//nolint:gosec // Offset from the map; reads past EOF fail
		if _, err = hm.reader.ReadAt(data, int64(e.offset)); err != nil {
			err = fmt.Errorf("read uncompressed: %w", err)
		}
	case e.kind <= kindCodec3:
		data, err = hm.decompress(e)
	default:
		err = fmt.Errorf("%w: hunk kind %d", ErrUnsupportedCodec, e.kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decompress hunk %d: %w", index, err)
	}

	hm.decoded.Add(1)
	hm.cache.Add(index, data)
	return data, nil
}

func (hm *HunkMap) decompress(e hunkEntry) ([]byte, error) {
	slot := int(e.kind)
	if slot >= len(hm.codecs) || hm.codecs[slot] == nil {
		return nil, fmt.Errorf("%w: codec slot %d not available", ErrUnsupportedCodec, slot)
	}
	if e.length > hm.header.HunkBytes*2 {
		return nil, fmt.Errorf("%w: compressed hunk of %d bytes", ErrCorruptData, e.length)
	}

	src := make([]byte, e.length)
	//nolint:gosec // Offset from the map; reads past EOF fail
	if _, err := hm.reader.ReadAt(src, int64(e.offset)); err != nil {
		return nil, fmt.Errorf("read compressed: %w", err)
	}

	size := int(hm.header.HunkBytes)
	dst := make([]byte, size)
	var (
		n   int
		err error
	)
	switch codec := hm.codecs[slot].(type) {
	case CDCodec:
		unit := int(hm.header.UnitBytes)
		if unit == 0 {
			unit = defaultUnitBytes
		}
		n, err = codec.DecompressCD(dst, src, size, size/unit)
	default:
		n, err = codec.Decompress(dst, src)
	}
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// NumHunks returns the total number of hunks.
func (hm *HunkMap) NumHunks() uint32 {
	return uint32(len(hm.entries)) //nolint:gosec // Bounded by maxHunks
}

// HunkBytes returns the size of each hunk in bytes.
func (hm *HunkMap) HunkBytes() uint32 { return hm.header.HunkBytes }

// Stats returns the number of hunks decompressed and cache hits.
func (hm *HunkMap) Stats() (decoded, hits uint64) {
	return hm.decoded.Load(), hm.hits.Load()
}
