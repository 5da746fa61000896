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

package handler

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ZaparooProject/go-romprops/fields"
	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
	"github.com/ZaparooProject/go-romprops/source"
)

const (
	n64HeaderSize      = 0x40
	n64ClockRateOffset = 0x04
	n64EntryOffset     = 0x08
	n64ReleaseOffset   = 0x0C
	n64CRCOffset       = 0x10
	n64TitleOffset     = 0x20
	n64TitleSize       = 20
	n64CartIDOffset    = 0x3B
	n64RegionOffset    = 0x3E
	n64VersionOffset   = 0x3F
)

// n64Order is the byte order of a dump: .z64, .v64 or .n64.
type n64Order uint8

const (
	n64BigEndian n64Order = iota
	n64ByteSwapped
	n64LittleEndian
)

func (o n64Order) String() string {
	switch o {
	case n64ByteSwapped:
		return "Byteswapped (V64)"
	case n64LittleEndian:
		return "Little-endian (N64)"
	default:
		return "Big-endian (Z64)"
	}
}

var n64Magic = []byte{0x80, 0x37, 0x12, 0x40}

var n64Regions = map[byte]string{
	'7': "Beta", 'A': "Asia", 'B': "Brazil", 'C': "China", 'D': "Germany",
	'E': "North America", 'F': "France", 'G': "Gateway 64 (NTSC)", 'H': "Netherlands",
	'I': "Italy", 'J': "Japan", 'K': "Korea", 'L': "Gateway 64 (PAL)", 'N': "Canada",
	'P': "Europe", 'S': "Spain", 'U': "Australia", 'W': "Scandinavia", 'X': "Europe",
	'Y': "Europe",
}

func n64Descriptor() Descriptor {
	return Descriptor{
		Name:       "N64",
		Probe:      probeN64,
		New:        newN64,
		Extensions: []string{".z64", ".n64", ".v64"},
		MIMETypes:  []string{"application/x-n64-rom"},
		FileType:   FileTypeROMImage,
	}
}

func detectN64Order(first []byte) (n64Order, bool) {
	if len(first) < 4 {
		return 0, false
	}
	switch {
	case bytes.Equal(first[:4], n64Magic):
		return n64BigEndian, true
	case bytes.Equal(first[:4], []byte{0x37, 0x80, 0x40, 0x12}):
		return n64ByteSwapped, true
	case bytes.Equal(first[:4], []byte{0x40, 0x12, 0x37, 0x80}):
		return n64LittleEndian, true
	}
	return 0, false
}

// normalizeN64 returns a big-endian copy of b.
func normalizeN64(b []byte, order n64Order) []byte {
	out := bytes.Clone(b)
	switch order {
	case n64ByteSwapped:
		for i := 0; i+1 < len(out); i += 2 {
			out[i], out[i+1] = out[i+1], out[i]
		}
	case n64LittleEndian:
		for i := 0; i+3 < len(out); i += 4 {
			out[i], out[i+1], out[i+2], out[i+3] = out[i+3], out[i+2], out[i+1], out[i]
		}
	case n64BigEndian:
	}
	return out
}

func probeN64(info *Info) int {
	if len(info.Header) < n64HeaderSize {
		return ScoreNone
	}
	if _, ok := detectN64Order(info.Header); ok {
		return ScoreConfident
	}
	return ScoreNone
}

// N64 reads Nintendo 64 cartridge dumps in any of the three byte orders.
type N64 struct {
	header []byte // normalized to big-endian
	order  n64Order
	base
}

func newN64(ctx *Context, src *source.Handle) Handler {
	h := &N64{}
	h.construct(ctx, src, h, "N64", FileTypeROMImage, h.parse)
	return h
}

func (h *N64) parse() error {
	raw, err := ibinary.ReadBytesAt(h.src, 0, n64HeaderSize)
	if err != nil {
		return err
	}
	order, ok := detectN64Order(raw)
	if !ok {
		return formatErr("N64", "bad first word")
	}
	h.order = order
	h.header = normalizeN64(raw, order)
	h.setNames("Nintendo 64", "Nintendo 64", "N64")
	return nil
}

// GameID returns the cartridge type, ID and region, e.g. "NSME".
func (h *N64) GameID() string {
	id := h.header[n64CartIDOffset : n64RegionOffset+1]
	if !ibinary.IsAlnum(id) {
		return ""
	}
	return string(id)
}

func (h *N64) loadFields(f *fields.Fields) error {
	hdr := h.header
	be := binary.BigEndian
	f.AddTab("N64")
	f.AddString("Title", ibinary.CleanString(hdr[n64TitleOffset:n64TitleOffset+n64TitleSize]))
	if id := h.GameID(); id != "" {
		f.AddString("Game ID", id)
	}
	region := hdr[n64RegionOffset]
	if name, ok := n64Regions[region]; ok {
		f.AddString("Region", name)
	} else {
		f.AddString("Region", fmt.Sprintf("Unknown (0x%02X)", region))
	}
	f.AddNumber("Revision", int64(hdr[n64VersionOffset]))
	f.AddString("ROM Format", h.order.String())
	f.AddHex("Clock Rate", int64(be.Uint32(hdr[n64ClockRateOffset:])), 8, fields.Monospace)
	f.AddHex("Entry Point", int64(be.Uint32(hdr[n64EntryOffset:])), 8, fields.Monospace)
	// libultra release: version times ten, then a revision letter.
	if ver, rev := hdr[n64ReleaseOffset+2], hdr[n64ReleaseOffset+3]; ver != 0 && rev >= 'A' && rev <= 'Z' {
		f.AddString("OS Version", fmt.Sprintf("%d.%d%c", ver/10, ver%10, rev))
	}
	f.AddString("Check Code", fmt.Sprintf("%08X %08X",
		be.Uint32(hdr[n64CRCOffset:]), be.Uint32(hdr[n64CRCOffset+4:])), fields.Monospace)
	h.addDigest(f)
	return nil
}
