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
	"strings"

	"github.com/ZaparooProject/go-romprops/fields"
	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
	"github.com/ZaparooProject/go-romprops/source"
)

const (
	psxExeHeaderSize = 0x800
	psxExePC         = 0x10
	psxExeGP         = 0x14
	psxExeText       = 0x18
	psxExeData       = 0x20
	psxExeBSS        = 0x28
	psxExeStack      = 0x30
	psxExeMarker     = 0x4C
	psxExeMarkerSize = 0x7B4
)

var psxExeMagic = []byte("PS-X EXE")

func psxExeDescriptor() Descriptor {
	return Descriptor{
		Name:       "PlayStationEXE",
		Probe:      probePSXExe,
		New:        newPSXExe,
		Extensions: []string{".exe", ".psx", ".psf"},
		MIMETypes:  []string{"application/x-ps1-executable"},
		FileType:   FileTypeExecutable,
	}
}

func probePSXExe(info *Info) int {
	if ibinary.HasAt(info.Header, 0, psxExeMagic) {
		return ScoreConfident
	}
	return ScoreNone
}

// PSXExe reads PlayStation executables.
type PSXExe struct {
	header []byte
	base
}

func newPSXExe(ctx *Context, src *source.Handle) Handler {
	h := &PSXExe{}
	h.construct(ctx, src, h, "PlayStationEXE", FileTypeExecutable, h.parse)
	return h
}

func (h *PSXExe) parse() error {
	header, err := ibinary.ReadUpTo(h.src, 0, psxExeHeaderSize)
	if err != nil {
		return err
	}
	if !ibinary.HasAt(header, 0, psxExeMagic) || len(header) < psxExeMarker {
		return formatErr("PS-X EXE", "bad header")
	}
	h.header = header
	h.setNames("Sony PlayStation Executable", "PS-X EXE", "PSX")
	return nil
}

// Region returns the region named by the license marker, or "".
func (h *PSXExe) Region() string {
	marker := ibinary.CleanString(ibinary.Window(h.header, psxExeMarker, min(psxExeMarkerSize, len(h.header)-psxExeMarker)))
	switch {
	case strings.Contains(marker, "North America"):
		return "North America"
	case strings.Contains(marker, "Europe"):
		return "Europe"
	case strings.Contains(marker, "Japan"):
		return "Japan"
	}
	return ""
}

func (h *PSXExe) loadFields(f *fields.Fields) error {
	le := binary.LittleEndian
	hdr := h.header
	f.AddTab("PS-X EXE")
	f.AddHex("Initial PC", int64(le.Uint32(hdr[psxExePC:])), 8, fields.Monospace)
	f.AddHex("Initial GP", int64(le.Uint32(hdr[psxExeGP:])), 8, fields.Monospace)
	f.AddHex("Text Address", int64(le.Uint32(hdr[psxExeText:])), 8, fields.Monospace)
	f.AddNumber("Text Size", int64(le.Uint32(hdr[psxExeText+4:])))
	if size := le.Uint32(hdr[psxExeData+4:]); size != 0 {
		f.AddHex("Data Address", int64(le.Uint32(hdr[psxExeData:])), 8, fields.Monospace)
		f.AddNumber("Data Size", int64(size))
	}
	if size := le.Uint32(hdr[psxExeBSS+4:]); size != 0 {
		f.AddHex("BSS Address", int64(le.Uint32(hdr[psxExeBSS:])), 8, fields.Monospace)
		f.AddNumber("BSS Size", int64(size))
	}
	stack := le.Uint32(hdr[psxExeStack:]) + le.Uint32(hdr[psxExeStack+4:])
	if stack != 0 {
		f.AddHex("Initial SP", int64(stack), 8, fields.Monospace)
	}
	if region := h.Region(); region != "" {
		f.AddString("Region", region)
	}
	return nil
}
