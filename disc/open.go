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

	"github.com/ZaparooProject/go-romprops/chd"
	"github.com/ZaparooProject/go-romprops/source"
)

// Format identifies the container a disc image was opened through.
type Format int

// Container formats recognized by Open.
const (
	FormatPlain Format = iota
	FormatCISO
	FormatZISO
	FormatDAX
	FormatCHD
	FormatRaw2352
)

func (f Format) String() string {
	switch f {
	case FormatCISO:
		return "CISO"
	case FormatZISO:
		return "ZISO"
	case FormatDAX:
		return "DAX"
	case FormatCHD:
		return "CHD"
	case FormatRaw2352:
		return "Raw 2352"
	default:
		return "Plain"
	}
}

// Options tunes the readers created by Open.
type Options struct {
	// CacheBlocks is the decoded block cache size of CISO, ZISO and DAX readers.
	CacheBlocks int
}

// Opened describes the result of Open.
type Opened struct {
	// Handle exposes 2048-byte user sectors. The caller owns it.
	Handle *source.Handle
	// Blocks is set for every block-compressed image.
	Blocks BlockReader
	// CISO is set for CISO/ZISO images.
	CISO *CISOReader
	// DAX is set for DAX images.
	DAX *DAXReader
	// CHD is set for CHD images.
	CHD    *chd.CHD
	Format Format
}

// Open probes h for a compressed or raw container and returns a handle onto
// the logical 2048-byte sector stream. Images in no known container come
// back as a new reference to h. header holds the first bytes of h.
func Open(h *source.Handle, header []byte, opts Options) (*Opened, error) {
	switch {
	case IsCISO(header, h.Size()):
		out, r, err := OpenCISO(h, opts.CacheBlocks)
		if err != nil {
			return nil, err
		}
		format := FormatCISO
		if r.Header().IsZISO() {
			format = FormatZISO
		}
		return &Opened{Handle: out, Format: format, Blocks: r, CISO: r}, nil

	case IsDAX(header, h.Size()):
		out, r, err := OpenDAX(h, opts.CacheBlocks)
		if err != nil {
			return nil, err
		}
		return &Opened{Handle: out, Format: FormatDAX, Blocks: r, DAX: r}, nil

	case chd.IsCHD(header):
		out, c, err := OpenCHD(h)
		if err != nil {
			return nil, err
		}
		return &Opened{Handle: out, Format: FormatCHD, CHD: c}, nil

	case IsRaw2352(header, h.Size()):
		out, err := OpenRaw2352(h)
		if err != nil {
			return nil, err
		}
		return &Opened{Handle: out, Format: FormatRaw2352}, nil

	default:
		out, err := h.Acquire()
		if err != nil {
			return nil, err
		}
		return &Opened{Handle: out, Format: FormatPlain}, nil
	}
}

// OpenCHD returns a handle onto the first data track of a CHD image.
func OpenCHD(h *source.Handle) (*source.Handle, *chd.CHD, error) {
	var image *chd.CHD
	out, err := source.Derive(h, "chd", func(ref *source.Handle) (io.ReaderAt, int64, error) {
		c, err := chd.Open(ref)
		if err != nil {
			return nil, 0, fmt.Errorf("open CHD: %w", err)
		}
		image = c
		return c.DataTrackReader(), c.DataTrackSize(), nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, image, nil
}
