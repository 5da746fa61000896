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
	"slices"

	"github.com/ZaparooProject/go-romprops/fields"
	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
	"github.com/ZaparooProject/go-romprops/source"
)

// Game Boy Advance cartridge header.
const (
	gbaHeaderSize     = 0xC0
	gbaLogoOffset     = 0x04
	gbaTitleOffset    = 0xA0
	gbaGameCodeOffset = 0xAC
	gbaMakerOffset    = 0xB0
	gbaFixedOffset    = 0xB2
	gbaUnitOffset     = 0xB3
	gbaDeviceOffset   = 0xB4
	gbaVersionOffset  = 0xBC
	gbaChecksumOffset = 0xBD

	gbaFixedValue = 0x96
)

var gbaNintendoLogo = []byte{
	0x24, 0xFF, 0xAE, 0x51, 0x69, 0x9A, 0xA2, 0x21, 0x3D, 0x84, 0x82, 0x0A,
	0x84, 0xE4, 0x09, 0xAD, 0x11, 0x24, 0x8B, 0x98, 0xC0, 0x81, 0x7F, 0x21,
	0xA3, 0x52, 0xBE, 0x19, 0x93, 0x09, 0xCE, 0x20, 0x10, 0x46, 0x4A, 0x4A,
	0xF8, 0x27, 0x31, 0xEC, 0x58, 0xC7, 0xE8, 0x33, 0x82, 0xE3, 0xCE, 0xBF,
	0x85, 0xF4, 0xDF, 0x94, 0xCE, 0x4B, 0x09, 0xC1, 0x94, 0x56, 0x8A, 0xC0,
	0x13, 0x72, 0xA7, 0xFC, 0x9F, 0x84, 0x4D, 0x73, 0xA3, 0xCA, 0x9A, 0x61,
	0x58, 0x97, 0xA3, 0x27, 0xFC, 0x03, 0x98, 0x76, 0x23, 0x1D, 0xC7, 0x61,
	0x03, 0x04, 0xAE, 0x56, 0xBF, 0x38, 0x84, 0x00, 0x40, 0xA7, 0x0E, 0xFD,
	0xFF, 0x52, 0xFE, 0x03, 0x6F, 0x95, 0x30, 0xF1, 0x97, 0xFB, 0xC0, 0x85,
	0x60, 0xD6, 0x80, 0x25, 0xA9, 0x63, 0xBE, 0x03, 0x01, 0x4E, 0x38, 0xE2,
	0xF9, 0xA2, 0x34, 0xFF, 0xBB, 0x3E, 0x03, 0x44, 0x78, 0x00, 0x90, 0xCB,
	0x88, 0x11, 0x3A, 0x94, 0x65, 0xC0, 0x7C, 0x63, 0x87, 0xF0, 0x3C, 0xAF,
	0xD6, 0x25, 0xE4, 0x8B, 0x38, 0x0A, 0xAC, 0x72, 0x21, 0xD4, 0xF8, 0x07,
}

var gbaExtensions = []string{".gba", ".agb", ".mb", ".srl"}

func gbaDescriptor() Descriptor {
	return Descriptor{
		Name:       "GameBoyAdvance",
		Probe:      probeGBA,
		New:        newGBA,
		Extensions: slices.Clone(gbaExtensions),
		MIMETypes:  []string{"application/x-gba-rom"},
		FileType:   FileTypeROMImage,
	}
}

// probeGBA is confident on the boot logo. Homebrew often ships without it,
// so the fixed header byte is accepted only under a GBA file extension.
func probeGBA(info *Info) int {
	if len(info.Header) < gbaHeaderSize {
		return ScoreNone
	}
	if ibinary.HasAt(info.Header, gbaLogoOffset, gbaNintendoLogo) {
		return ScoreConfident
	}
	if info.Header[gbaFixedOffset] == gbaFixedValue && slices.Contains(gbaExtensions, info.Ext) {
		return ScoreWeak
	}
	return ScoreNone
}

// hasGBAHeader reports whether header carries the boot logo or the fixed
// header byte.
func hasGBAHeader(header []byte) bool {
	if len(header) < gbaHeaderSize {
		return false
	}
	return ibinary.HasAt(header, gbaLogoOffset, gbaNintendoLogo) || header[gbaFixedOffset] == gbaFixedValue
}

// gbaHeaderChecksum computes the complement check over 0xA0-0xBC.
func gbaHeaderChecksum(header []byte) uint8 {
	var sum uint8
	for _, c := range header[gbaTitleOffset:gbaChecksumOffset] {
		sum -= c
	}
	return sum - 0x19
}

// GBA reads Game Boy Advance cartridge dumps.
type GBA struct {
	header []byte
	base
}

func newGBA(ctx *Context, src *source.Handle) Handler {
	h := &GBA{}
	h.construct(ctx, src, h, "GameBoyAdvance", FileTypeROMImage, h.parse)
	return h
}

func (h *GBA) parse() error {
	header, err := ibinary.ReadBytesAt(h.src, 0, gbaHeaderSize)
	if err != nil {
		return err
	}
	if !hasGBAHeader(header) {
		return formatErr("GBA", "no cartridge header")
	}
	h.header = header
	h.setNames("Nintendo Game Boy Advance", "Game Boy Advance", "GBA")
	return nil
}

// GameCode returns the four-character game code, e.g. "AXVE".
func (h *GBA) GameCode() string {
	return ibinary.ExtractPrintable(h.header[gbaGameCodeOffset : gbaGameCodeOffset+4])
}

func (h *GBA) loadFields(f *fields.Fields) error {
	hdr := h.header
	f.AddTab("GBA")
	f.AddString("Title", ibinary.ExtractPrintable(hdr[gbaTitleOffset:gbaTitleOffset+12]))
	f.AddString("Game ID", h.GameCode()+ibinary.ExtractPrintable(hdr[gbaMakerOffset:gbaMakerOffset+2]))
	f.AddString("Publisher Code", ibinary.ExtractPrintable(hdr[gbaMakerOffset:gbaMakerOffset+2]))
	f.AddHex("Main Unit", int64(hdr[gbaUnitOffset]), 2)
	f.AddHex("Device Type", int64(hdr[gbaDeviceOffset]), 2)
	f.AddNumber("Revision", int64(hdr[gbaVersionOffset]))

	// The first word is an ARM branch over the header.
	branch := binary.LittleEndian.Uint32(hdr[0:4])
	if branch>>24 == 0xEA {
		entry := 0x08000000 + 8 + (branch&0x00FFFFFF)<<2
		f.AddHex("Entry Point", int64(entry), 8, fields.Monospace)
	} else {
		f.AddString("Entry Point", fmt.Sprintf("Non-standard (0x%08X)", branch), fields.Monospace)
	}

	f.AddString("Header Checksum",
		checksumStatus(uint32(hdr[gbaChecksumOffset]), uint32(gbaHeaderChecksum(hdr)), 2), fields.Monospace)
	if !ibinary.HasAt(hdr, gbaLogoOffset, gbaNintendoLogo) {
		f.AddWarning("Nintendo Logo", "Missing or modified")
	}
	h.addDigest(f)
	return nil
}
