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
	"fmt"

	"github.com/ZaparooProject/go-romprops/fields"
	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
	"github.com/ZaparooProject/go-romprops/source"
)

const (
	inesHeaderSize  = 16
	inesTrainerSize = 512
	inesPRGUnit     = 16 * 1024
	inesCHRUnit     = 8 * 1024
)

var (
	inesMagic = []byte("NES\x1A")
	fdsMagic  = []byte("FDS\x1A")
)

func nesDescriptor() Descriptor {
	return Descriptor{
		Name:       "NES",
		Probe:      probeNES,
		New:        newNES,
		Extensions: []string{".nes", ".fds", ".unf", ".unif"},
		MIMETypes:  []string{"application/x-nes-rom", "application/x-fds-disk"},
		FileType:   FileTypeROMImage,
	}
}

func probeNES(info *Info) int {
	if len(info.Header) < inesHeaderSize {
		return ScoreNone
	}
	if ibinary.HasAt(info.Header, 0, inesMagic) || ibinary.HasAt(info.Header, 0, fdsMagic) {
		return ScoreConfident
	}
	return ScoreNone
}

// NES reads iNES, NES 2.0 and fwNES disk dumps. Headerless dumps are
// not recognized.
type NES struct {
	header []byte
	base
}

func newNES(ctx *Context, src *source.Handle) Handler {
	h := &NES{}
	h.construct(ctx, src, h, "NES", FileTypeROMImage, h.parse)
	return h
}

func (h *NES) parse() error {
	header, err := ibinary.ReadBytesAt(h.src, 0, inesHeaderSize)
	if err != nil {
		return err
	}
	if probeNES(&Info{Header: header}) < ScoreConfident {
		return formatErr("NES", "no iNES or fwNES header")
	}
	h.header = header
	if h.isFDS() {
		h.setNames("Nintendo Famicom Disk System", "Famicom Disk System", "FDS")
		h.ftype = FileTypeDiscImage
	} else {
		h.setNames("Nintendo Entertainment System", "NES", "NES")
	}
	return nil
}

func (h *NES) isFDS() bool { return ibinary.HasAt(h.header, 0, fdsMagic) }

func (h *NES) isNES2() bool { return h.header[7]&0x0C == 0x08 }

// Mapper returns the iNES mapper number.
func (h *NES) Mapper() int {
	m := int(h.header[6]>>4) | int(h.header[7]&0xF0)
	if h.isNES2() {
		m |= int(h.header[8]&0x0F) << 8
	}
	return m
}

func (h *NES) loadFields(f *fields.Fields) error {
	hdr := h.header
	if h.isFDS() {
		f.AddTab("FDS")
		f.AddNumber("Disk Sides", int64(hdr[4]))
		h.addDigest(f)
		return nil
	}

	f.AddTab("NES")
	if h.isNES2() {
		f.AddString("Format", "NES 2.0")
	} else {
		f.AddString("Format", "iNES")
	}
	prg, chr := int(hdr[4]), int(hdr[5])
	if h.isNES2() {
		prg |= int(hdr[9]&0x0F) << 8
		chr |= int(hdr[9]>>4) << 8
	}
	f.AddString("PRG ROM", fmt.Sprintf("%d KiB", prg*inesPRGUnit/1024))
	if chr == 0 {
		f.AddString("CHR ROM", "None (CHR RAM)")
	} else {
		f.AddString("CHR ROM", fmt.Sprintf("%d KiB", chr*inesCHRUnit/1024))
	}
	f.AddNumber("Mapper", int64(h.Mapper()))
	if h.isNES2() {
		f.AddNumber("Submapper", int64(hdr[8]>>4))
	}

	mirroring := "Horizontal"
	switch {
	case hdr[6]&0x08 != 0:
		mirroring = "Four-screen"
	case hdr[6]&0x01 != 0:
		mirroring = "Vertical"
	}
	f.AddString("Mirroring", mirroring)
	f.AddBitfield("Features", []string{"Battery", "Trainer", "Four-screen VRAM"}, 0, uint32(hdr[6]>>1&0x07))

	tv := "NTSC"
	if h.isNES2() {
		tv = [...]string{"NTSC", "PAL", "Multi-region", "Dendy"}[hdr[12]&0x03]
	} else if hdr[9]&0x01 != 0 {
		tv = "PAL"
	}
	f.AddString("TV System", tv)

	// ROM databases hash the dump without its header and trainer.
	skip := int64(inesHeaderSize)
	if hdr[6]&0x04 != 0 {
		skip += inesTrainerSize
	}
	if skip < h.src.Size() {
		body, err := source.Sub(h.src, skip, h.src.Size()-skip, "")
		if err != nil {
			return err
		}
		defer func() { _ = body.Close() }()
		if d, err := digest(body); err == nil {
			d.addFields(f)
		}
	}
	return nil
}
