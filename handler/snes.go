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
	"encoding/binary"
	"fmt"

	"github.com/ZaparooProject/go-romprops/fields"
	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
	"github.com/ZaparooProject/go-romprops/source"
)

// Super NES internal header, relative to its start.
const (
	snesLoROMHeader = 0x7FC0
	snesHiROMHeader = 0xFFC0
	snesHeaderSize  = 0x20
	snesCopierSize  = 512

	snesTitleSize      = 21
	snesMapModeOffset  = 0x15
	snesROMTypeOffset  = 0x16
	snesROMSizeOffset  = 0x17
	snesRAMSizeOffset  = 0x18
	snesRegionOffset   = 0x19
	snesMakerOffset    = 0x1A
	snesVersionOffset  = 0x1B
	snesComplementOff  = 0x1C
	snesChecksumOffset = 0x1E
)

var snesRegions = []string{
	"Japan", "North America", "Europe", "Sweden/Scandinavia", "Finland", "Denmark",
	"France", "Netherlands", "Spain", "Germany", "Italy", "China", "Indonesia",
	"South Korea", "International", "Canada", "Brazil", "Australia",
}

var snesHardware = []string{
	"ROM",
	"ROM + RAM",
	"ROM + RAM + Battery",
	"ROM + Coprocessor",
	"ROM + Coprocessor + RAM",
	"ROM + Coprocessor + RAM + Battery",
	"ROM + Coprocessor + Battery",
}

var snesCoprocessors = map[byte]string{
	0x0: "DSP",
	0x1: "Super FX",
	0x2: "OBC1",
	0x3: "SA-1",
	0x4: "S-DD1",
	0x5: "S-RTC",
	0xE: "Super Game Boy / Satellaview",
}

// snesCustomChips applies to coprocessor nibble 0xF, keyed by the low
// nibble of the byte before the header.
var snesCustomChips = map[byte]string{
	0x0: "SPC7110",
	0x1: "ST010 / ST011",
	0x2: "ST018",
	0x3: "CX4",
}

func snesDescriptor() Descriptor {
	return Descriptor{
		Name:       "SNES",
		Probe:      probeSNES,
		New:        newSNES,
		Extensions: []string{".sfc", ".smc", ".swc", ".fig", ".bs"},
		MIMETypes:  []string{"application/x-snes-rom"},
		FileType:   FileTypeROMImage,
	}
}

// snesCopierOffset returns the size of a copier header, inferred from
// the file size.
func snesCopierOffset(size int64) int {
	if size%1024 == snesCopierSize {
		return snesCopierSize
	}
	return 0
}

// findSNESHeader returns the offset of the internal header within rom,
// which excludes any copier header.
func findSNESHeader(rom []byte) (int, bool) {
	for _, start := range []int{snesLoROMHeader, snesHiROMHeader} {
		hdr := ibinary.Window(rom, start, snesHeaderSize)
		if hdr == nil {
			continue
		}
		sum := binary.LittleEndian.Uint16(hdr[snesChecksumOffset:])
		complement := binary.LittleEndian.Uint16(hdr[snesComplementOff:])
		if sum+complement == 0xFFFF && validSNESMapMode(hdr[snesMapModeOffset]) {
			return start, true
		}
	}
	return 0, false
}

func validSNESMapMode(mode byte) bool {
	if mode&0xE0 != 0x20 {
		return false
	}
	switch mode & 0x0F {
	case 0x0, 0x1, 0x2, 0x3, 0x5, 0xA:
		return true
	}
	return false
}

func probeSNES(info *Info) int {
	skip := snesCopierOffset(info.Size)
	if len(info.Header) <= skip {
		return ScoreNone
	}
	if _, ok := findSNESHeader(info.Header[skip:]); ok {
		return ScoreConfident
	}
	return ScoreNone
}

// SNES reads Super NES cartridge dumps, with or without a copier header.
type SNES struct {
	header []byte
	prev   byte // byte before the header, for custom chip detection
	copier int
	base
}

func newSNES(ctx *Context, src *source.Handle) Handler {
	h := &SNES{}
	h.construct(ctx, src, h, "SNES", FileTypeROMImage, h.parse)
	return h
}

func (h *SNES) parse() error {
	h.copier = snesCopierOffset(h.src.Size())
	rom, err := ibinary.ReadUpTo(h.src, int64(h.copier), snesHiROMHeader+snesHeaderSize)
	if err != nil {
		return err
	}
	start, ok := findSNESHeader(rom)
	if !ok {
		return formatErr("SNES", "no internal header")
	}
	h.header = rom[start : start+snesHeaderSize]
	h.prev = rom[start-1]
	h.setNames("Super Nintendo Entertainment System", "Super NES", "SNES")
	if h.header[snesRegionOffset] == 0 {
		h.setNames("Nintendo Super Famicom", "Super Famicom", "SFC")
	}
	return nil
}

func (h *SNES) mapping() string {
	mode := h.header[snesMapModeOffset]
	name := "LoROM"
	switch mode & 0x0F {
	case 0x1:
		name = "HiROM"
	case 0x2:
		name = "ExLoROM"
	case 0x3:
		name = "SA-1"
	case 0x5:
		name = "ExHiROM"
	case 0xA:
		name = "SPC7110"
	}
	if mode&0x10 != 0 {
		return name + ", FastROM"
	}
	return name + ", SlowROM"
}

func (h *SNES) hardware() string {
	romType := h.header[snesROMTypeOffset]
	kind := int(romType & 0x0F)
	if kind >= len(snesHardware) {
		return fmt.Sprintf("Unknown (0x%02X)", romType)
	}
	hw := snesHardware[kind]
	if kind < 3 {
		return hw
	}
	chip := romType >> 4
	name, ok := snesCoprocessors[chip]
	if chip == 0xF {
		name, ok = snesCustomChips[h.prev&0x0F]
	}
	if !ok {
		return hw
	}
	return hw + " (" + name + ")"
}

func (h *SNES) loadFields(f *fields.Fields) error {
	hdr := h.header
	f.AddTab("SNES")
	f.AddString("Title", ibinary.Latin1(hdr[:snesTitleSize]))
	f.AddString("ROM Mapping", h.mapping())
	f.AddString("Cartridge HW", h.hardware())
	if n := hdr[snesROMSizeOffset]; n > 0 && n < 16 {
		f.AddString("ROM Size", fmt.Sprintf("%d KiB", 1<<n))
	}
	if n := hdr[snesRAMSizeOffset]; n > 0 && n < 16 {
		f.AddString("SRAM Size", fmt.Sprintf("%d KiB", 1<<n))
	}
	if r := int(hdr[snesRegionOffset]); r < len(snesRegions) {
		f.AddString("Region", snesRegions[r])
	} else {
		f.AddString("Region", fmt.Sprintf("Unknown (0x%02X)", r))
	}
	f.AddHex("Publisher Code", int64(hdr[snesMakerOffset]), 2)
	f.AddNumber("Revision", int64(hdr[snesVersionOffset]))
	f.AddHex("Checksum", int64(binary.LittleEndian.Uint16(hdr[snesChecksumOffset:])), 4, fields.Monospace)
	if h.copier > 0 {
		f.AddString("Copier Header", fmt.Sprintf("%d bytes", h.copier))
	}
	h.addDigest(f)
	return nil
}
