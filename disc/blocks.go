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
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ZaparooProject/go-romprops/source"
)

// DefaultBlockCache is the number of decoded blocks kept per reader.
const DefaultBlockCache = 16

// Stats counts block accesses of a block-compressed reader.
type Stats struct {
	// BlockReads is the number of blocks read and decoded from the source.
	BlockReads uint64
	// CacheHits is the number of block lookups served from the cache.
	CacheHits uint64
}

// BlockReader is a decompressing view over a block-compressed image.
type BlockReader interface {
	io.ReaderAt
	Size() int64
	Stats() Stats
}

// blockCache keeps decoded blocks of one image and counts how each lookup
// was served.
type blockCache struct {
	lru        *lru.Cache[uint64, []byte]
	decode     func(n uint64) ([]byte, error)
	mu         sync.Mutex
	blockReads atomic.Uint64
	cacheHits  atomic.Uint64
}

func newBlockCache(size int, decode func(n uint64) ([]byte, error)) (*blockCache, error) {
	if size <= 0 {
		size = DefaultBlockCache
	}
	c, err := lru.New[uint64, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create block cache: %w", err)
	}
	return &blockCache{lru: c, decode: decode}, nil
}

func (b *blockCache) block(n uint64) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if data, ok := b.lru.Get(n); ok {
		b.cacheHits.Add(1)
		return data, nil
	}
	data, err := b.decode(n)
	if err != nil {
		return nil, err
	}
	b.blockReads.Add(1)
	b.lru.Add(n, data)
	return data, nil
}

func (b *blockCache) stats() Stats {
	return Stats{BlockReads: b.blockReads.Load(), CacheHits: b.cacheHits.Load()}
}

// readBlocks fills p from an image of size bytes split into blockSize
// blocks, decoding only the blocks the range covers.
func (b *blockCache) readBlocks(p []byte, off, size, blockSize int64) (int, error) {
	if off < 0 {
		return 0, source.ErrNegativeOffset
	}
	if off >= size {
		return 0, io.EOF
	}
	total := 0
	for total < len(p) && off < size {
		data, err := b.block(uint64(off / blockSize)) //nolint:gosec // off is non-negative
		if err != nil {
			return total, err
		}
		inBlock := off % blockSize
		if inBlock >= int64(len(data)) {
			break
		}
		n := copy(p[total:], data[inBlock:])
		total += n
		off += int64(n)
	}
	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}
