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
	"fmt"
	"strings"

	"github.com/ZaparooProject/go-romprops/fields"
	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
	"github.com/ZaparooProject/go-romprops/source"
)

// Saturn system area fields, relative to the hardware ID.
const (
	saturnSearchSize   = 0x200
	saturnHeaderSize   = 0x100
	saturnMaker        = 0x10
	saturnProductNo    = 0x20
	saturnVersion      = 0x2A
	saturnReleaseDate  = 0x30
	saturnDeviceInfo   = 0x38
	saturnAreaCodes    = 0x40
	saturnPeripherals  = 0x50
	saturnTitle        = 0x60
	saturnTitleSize    = 0x70
	saturnProductNoLen = 10
)

var saturnMagic = []byte("SEGA SEGASATURN")

var saturnPeripheralList = []codeName{
	{'J', "Control Pad"},
	{'A', "Analog Controller"},
	{'M', "Mouse"},
	{'K', "Keyboard"},
	{'S', "Steering Wheel"},
	{'T', "Multi-Tap"},
	{'G', "Light Gun"},
	{'W', "RAM Cartridge"},
	{'E', "3D Control Pad"},
	{'C', "Link Cable"},
	{'D', "Link Cable (Direct Link)"},
	{'X', "Modem"},
	{'Q', "Pachinko Controller"},
	{'F', "Floppy Drive"},
	{'R', "ROM Cartridge"},
	{'P', "Video CD Card"},
}

var saturnAreaList = []codeName{
	{'J', "Japan"},
	{'T', "Asia (NTSC)"},
	{'U', "North America"},
	{'B', "Brazil"},
	{'K', "South Korea"},
	{'A', "Asia (PAL)"},
	{'E', "Europe"},
	{'L', "Latin America"},
}

func saturnDescriptor() Descriptor {
	return Descriptor{
		Name:       "SegaSaturn",
		Probe:      probeSaturn,
		New:        newSaturn,
		Extensions: []string{".iso", ".bin", ".img"},
		MIMETypes:  []string{"application/x-saturn-rom"},
		FileType:   FileTypeDiscImage,
	}
}

// probeSaturn looks for the hardware ID in sector 0, cooked or after the
// sync and header bytes of a raw sector.
func probeSaturn(info *Info) int {
	if bytes.Contains(ibinary.Window(info.Header, 0, min(len(info.Header), saturnSearchSize)), saturnMagic) {
		return ScoreConfident
	}
	return ScoreNone
}

// Saturn reads Sega Saturn disc images.
type Saturn struct {
	cooked *source.Handle
	header []byte
	base
}

func newSaturn(ctx *Context, src *source.Handle) Handler {
	h := &Saturn{}
	h.construct(ctx, src, h, "SegaSaturn", FileTypeDiscImage, h.parse)
	return h
}

func (h *Saturn) parse() error {
	opened, err := h.openDisc()
	if err != nil {
		return err
	}
	window, err := ibinary.ReadUpTo(opened.Handle, 0, saturnSearchSize)
	if err != nil {
		return err
	}
	i := bytes.Index(window, saturnMagic)
	if i < 0 {
		return formatErr("Saturn", "hardware ID not found")
	}
	header, err := ibinary.ReadBytesAt(opened.Handle, int64(i), saturnHeaderSize)
	if err != nil {
		return err
	}
	h.cooked, h.header = opened.Handle, header
	h.setNames("Sega Saturn", "Saturn", "Sat")
	return nil
}

// ProductNumber returns the product number, e.g. "MK-81086".
func (h *Saturn) ProductNumber() string {
	id := ibinary.CleanString(h.header[saturnProductNo : saturnProductNo+saturnProductNoLen])
	if i := strings.IndexByte(id, ' '); i >= 0 {
		id = id[:i]
	}
	return id
}

func (h *Saturn) loadFields(f *fields.Fields) error {
	hdr := h.header
	f.AddTab("Saturn")
	f.AddString("Title", ibinary.ShiftJIS(hdr[saturnTitle:saturnTitle+saturnTitleSize]))
	f.AddString("Publisher", segaPublisher(string(hdr[saturnMaker:saturnMaker+16])))
	f.AddString("Product Number", h.ProductNumber())
	f.AddString("Version", ibinary.CleanString(hdr[saturnVersion:saturnVersion+6]))

	date := ibinary.CleanString(hdr[saturnReleaseDate : saturnReleaseDate+8])
	if len(date) == 8 {
		date = fmt.Sprintf("%s-%s-%s", date[0:4], date[4:6], date[6:8])
	}
	f.AddString("Release Date", date)

	// "CD-1/2" style disc numbering.
	if info := ibinary.CleanString(hdr[saturnDeviceInfo : saturnDeviceInfo+8]); strings.HasPrefix(info, "CD-") {
		f.AddString("Disc Number", strings.TrimPrefix(info, "CD-"))
	}

	names, bits := codeBits(hdr[saturnAreaCodes:saturnAreaCodes+16], saturnAreaList)
	f.AddBitfield("Region Code", names, 0, bits)
	names, bits = codeBits(hdr[saturnPeripherals:saturnPeripherals+16], saturnPeripheralList)
	f.AddBitfield("Peripherals", names, 3, bits)

	h.addISOFields(f, h.cooked)
	return nil
}
