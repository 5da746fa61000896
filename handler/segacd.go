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

	"github.com/ZaparooProject/go-romprops/fields"
	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
	"github.com/ZaparooProject/go-romprops/source"
)

// Mega CD disc header fields, relative to the disc type.
const (
	mcdSearchSize = 0x200
	mcdHeaderSize = 0x200
	mcdVolume     = 0x10
	mcdSystemName = 0x20
	mcdBuildDate  = 0x50
	mcdMDHeader   = 0x100 // Mega Drive style header follows
)

var mcdDiscTypes = [][]byte{
	[]byte("SEGADISCSYSTEM"),
	[]byte("SEGABOOTDISC"),
	[]byte("SEGADISC"),
	[]byte("SEGADATADISC"),
}

func segaCDDescriptor() Descriptor {
	return Descriptor{
		Name:       "MegaCD",
		Probe:      probeSegaCD,
		New:        newSegaCD,
		Extensions: []string{".iso", ".bin", ".img"},
		MIMETypes:  []string{"application/x-sega-cd-rom"},
		FileType:   FileTypeDiscImage,
	}
}

func findMCDHeader(b []byte) int {
	area := ibinary.Window(b, 0, min(len(b), mcdSearchSize))
	for _, magic := range mcdDiscTypes {
		if i := bytes.Index(area, magic); i >= 0 {
			return i
		}
	}
	return -1
}

func probeSegaCD(info *Info) int {
	if findMCDHeader(info.Header) < 0 {
		return ScoreNone
	}
	return ScoreConfident
}

// SegaCD reads Mega CD and Sega CD disc images.
type SegaCD struct {
	cooked *source.Handle
	header []byte
	base
}

func newSegaCD(ctx *Context, src *source.Handle) Handler {
	h := &SegaCD{}
	h.construct(ctx, src, h, "MegaCD", FileTypeDiscImage, h.parse)
	return h
}

func (h *SegaCD) parse() error {
	opened, err := h.openDisc()
	if err != nil {
		return err
	}
	window, err := ibinary.ReadUpTo(opened.Handle, 0, mcdSearchSize)
	if err != nil {
		return err
	}
	off := findMCDHeader(window)
	if off < 0 {
		return formatErr("Mega CD", "disc type not found")
	}
	header, err := ibinary.ReadBytesAt(opened.Handle, int64(off), mcdHeaderSize)
	if err != nil {
		return err
	}
	h.cooked, h.header = opened.Handle, header
	if segaRegionBits(header[mcdMDHeader+mdRegions:mcdMDHeader+mdRegions+3]) == segaRegionUSA {
		h.setNames("Sega CD", "Sega CD", "SCD")
	} else {
		h.setNames("Sega Mega CD", "Mega CD", "MCD")
	}
	return nil
}

// Serial returns the product code from the Mega Drive style header.
func (h *SegaCD) Serial() string {
	md := h.header[mcdMDHeader:]
	return ibinary.CleanString(md[mdSerial+3 : mdSerial+mdSerialSize])
}

func (h *SegaCD) loadFields(f *fields.Fields) error {
	hdr := h.header
	md := hdr[mcdMDHeader:]
	f.AddTab("Mega CD")
	f.AddString("Disc Type", ibinary.CleanString(hdr[:16]))
	f.AddString("Volume Name", ibinary.CleanString(hdr[mcdVolume:mcdVolume+11]))
	f.AddString("System Name", ibinary.CleanString(hdr[mcdSystemName:mcdSystemName+11]))

	// MMDDYYYY
	if date := ibinary.CleanString(hdr[mcdBuildDate : mcdBuildDate+8]); len(date) == 8 {
		f.AddString("Build Date", date[4:8]+"-"+date[0:2]+"-"+date[2:4])
	}

	f.AddString("System", ibinary.CleanString(md[:16]))
	f.AddString("Publisher", segaPublisher(string(md[mdPublisher:mdPublisher+4])))
	f.AddString("Domestic Title", ibinary.ShiftJIS(md[mdTitleDomestic:mdTitleDomestic+mdTitleSize]))
	f.AddString("Export Title", ibinary.Latin1(md[mdTitleExport:mdTitleExport+mdTitleSize]))
	f.AddString("Serial Number", h.Serial())
	addSegaDevices(f, md[mdDevices:mdDevices+16])
	addSegaRegions(f, md[mdRegions:mdRegions+3])

	h.addISOFields(f, h.cooked)
	return nil
}
