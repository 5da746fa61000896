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
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ZaparooProject/go-romprops/fields"
	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
	"github.com/ZaparooProject/go-romprops/source"
)

// Mega Drive header fields, relative to the system name.
const (
	mdSearchStart   = 0x100
	mdSearchEnd     = 0x200
	mdHeaderSize    = 0x100
	mdPublisher     = 0x13
	mdDate          = 0x18
	mdTitleDomestic = 0x20
	mdTitleExport   = 0x50
	mdTitleSize     = 0x30
	mdSerial        = 0x80
	mdSerialSize    = 0x0E
	mdChecksum      = 0x8E
	mdDevices       = 0x90
	mdROMStart      = 0xA0
	mdRAMStart      = 0xA8
	mdRegions       = 0xF0
)

var mdSystemNames = [][]byte{
	[]byte("SEGA GENESIS"),
	[]byte("SEGA MEGA DRIVE"),
	[]byte("SEGA 32X"),
	[]byte("SEGA EVERDRIVE"),
	[]byte("SEGA SSF"),
	[]byte("SEGA MEGAWIFI"),
	[]byte("SEGA PICO"),
	[]byte("SEGA TERA68K"),
	[]byte("SEGA TERA286"),
}

var mdSoftwareTypes = map[string]string{
	"GM": "Game",
	"AI": "Aid",
	"OS": "Boot ROM (TMSS)",
	"BR": "Boot ROM (Sega CD)",
}

func genesisDescriptor() Descriptor {
	return Descriptor{
		Name:       "MegaDrive",
		Probe:      probeGenesis,
		New:        newGenesis,
		Extensions: []string{".gen", ".md", ".bin", ".32x", ".pco", ".sg"},
		MIMETypes:  []string{"application/x-genesis-rom", "application/x-sega-32x-rom"},
		FileType:   FileTypeROMImage,
	}
}

// findMDHeader returns the offset of the system name, or -1.
func findMDHeader(header []byte) int {
	area := ibinary.Window(header, mdSearchStart, mdSearchEnd-mdSearchStart)
	if area == nil {
		return -1
	}
	for _, magic := range mdSystemNames {
		if i := bytes.Index(area, magic); i >= 0 {
			return mdSearchStart + i
		}
	}
	return -1
}

func probeGenesis(info *Info) int {
	if findMDHeader(info.Header) < 0 {
		return ScoreNone
	}
	return ScoreConfident
}

// Genesis reads Mega Drive, Genesis, 32X and Pico cartridge dumps.
type Genesis struct {
	header []byte
	offset int
	base
}

func newGenesis(ctx *Context, src *source.Handle) Handler {
	h := &Genesis{}
	h.construct(ctx, src, h, "MegaDrive", FileTypeROMImage, h.parse)
	return h
}

func (h *Genesis) parse() error {
	window, err := ibinary.ReadUpTo(h.src, 0, mdSearchEnd)
	if err != nil {
		return err
	}
	off := findMDHeader(window)
	if off < 0 {
		return formatErr("Mega Drive", "system name not found")
	}
	header, err := ibinary.ReadUpTo(h.src, int64(off), mdHeaderSize)
	if err != nil {
		return err
	}
	if len(header) < mdRegions {
		return formatErr("Mega Drive", "truncated header")
	}
	h.header, h.offset = header, off

	system := string(header[:16])
	switch {
	case strings.Contains(system, "32X"):
		h.setNames("Sega 32X", "32X", "32X")
	case strings.Contains(system, "PICO"):
		h.setNames("Sega Pico", "Pico", "Pico")
	case segaRegionBits(ibinary.Window(header, mdRegions, 3))&^segaRegionUSA == 0 &&
		strings.Contains(system, "GENESIS"):
		h.setNames("Sega Genesis", "Genesis", "GEN")
	default:
		h.setNames("Sega Mega Drive", "Mega Drive", "MD")
	}
	return nil
}

// Serial returns the product code without the software type prefix.
func (h *Genesis) Serial() string {
	raw := ibinary.CleanString(h.header[mdSerial+3 : mdSerial+mdSerialSize])
	return strings.TrimSpace(raw)
}

// wordChecksum sums the big-endian words from 0x200 to the end.
func (h *Genesis) wordChecksum() (uint16, error) {
	r := io.NewSectionReader(h.src, mdSearchEnd, max(0, h.src.Size()-mdSearchEnd))
	buf := make([]byte, 64*1024)
	var sum uint16
	for {
		n, err := io.ReadFull(r, buf)
		for i := 0; i+1 < n; i += 2 {
			sum += binary.BigEndian.Uint16(buf[i:])
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return sum, nil
		}
		if err != nil {
			return 0, err
		}
	}
}

func (h *Genesis) loadFields(f *fields.Fields) error {
	hdr := h.header
	be := binary.BigEndian
	f.AddTab("Mega Drive")
	f.AddString("System", ibinary.CleanString(hdr[:16]))
	f.AddString("Publisher", segaPublisher(string(hdr[mdPublisher:mdPublisher+4])))
	f.AddString("Build Date", ibinary.CleanString(hdr[mdDate:mdDate+8]))
	f.AddString("Domestic Title", ibinary.ShiftJIS(hdr[mdTitleDomestic:mdTitleDomestic+mdTitleSize]))
	f.AddString("Export Title", ibinary.Latin1(hdr[mdTitleExport:mdTitleExport+mdTitleSize]))

	kind := string(hdr[mdSerial : mdSerial+2])
	if name, ok := mdSoftwareTypes[kind]; ok {
		f.AddString("Type", name)
	} else if kind = strings.TrimSpace(kind); kind != "" {
		f.AddString("Type", kind)
	}
	f.AddString("Serial Number", h.Serial())

	stored := be.Uint16(hdr[mdChecksum:])
	if actual, err := h.wordChecksum(); err == nil {
		f.AddString("Checksum", checksumStatus(uint32(stored), uint32(actual), 4), fields.Monospace)
	} else {
		f.AddHex("Checksum", int64(stored), 4, fields.Monospace)
	}

	addSegaDevices(f, hdr[mdDevices:mdDevices+16])
	f.AddString("ROM Range", fmt.Sprintf("0x%08X - 0x%08X",
		be.Uint32(hdr[mdROMStart:]), be.Uint32(hdr[mdROMStart+4:])), fields.Monospace)
	f.AddString("RAM Range", fmt.Sprintf("0x%08X - 0x%08X",
		be.Uint32(hdr[mdRAMStart:]), be.Uint32(hdr[mdRAMStart+4:])), fields.Monospace)
	if len(hdr) >= mdRegions+3 {
		addSegaRegions(f, hdr[mdRegions:mdRegions+3])
	}
	h.addDigest(f)
	return nil
}
