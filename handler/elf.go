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
	"debug/elf"
	"fmt"
	"io"

	"github.com/ZaparooProject/go-romprops/fields"
	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
	"github.com/ZaparooProject/go-romprops/source"
)

const (
	elfIdentSize     = 16
	elfModuleInfo    = ".rodata.sceModuleInfo"
	elfModNameOffset = 4
	elfModNameSize   = 28
	// Section tables larger than this are not listed.
	elfMaxListedSections = 256
)

var elfMagic = []byte{0x7F, 'E', 'L', 'F'}

func elfDescriptor() Descriptor {
	return Descriptor{
		Name:       "ELF",
		Probe:      probeELF,
		New:        newELF,
		Extensions: []string{".elf", ".prx", ".bin", ".so", ".o", ".irx"},
		MIMETypes:  []string{"application/x-executable", "application/x-sharedlib"},
		FileType:   FileTypeExecutable,
	}
}

func probeELF(info *Info) int {
	h := info.Header
	if len(h) < elfIdentSize || !bytes.HasPrefix(h, elfMagic) {
		return ScoreNone
	}
	class, data, version := elf.Class(h[elf.EI_CLASS]), elf.Data(h[elf.EI_DATA]), h[elf.EI_VERSION]
	if (class != elf.ELFCLASS32 && class != elf.ELFCLASS64) ||
		(data != elf.ELFDATA2LSB && data != elf.ELFDATA2MSB) ||
		version != byte(elf.EV_CURRENT) {
		return ScoreNone
	}
	return ScoreConfident
}

// ELF reads executables and shared objects.
type ELF struct {
	file       *elf.File
	moduleName string
	base
}

func newELF(ctx *Context, src *source.Handle) Handler {
	h := &ELF{}
	h.construct(ctx, src, h, "ELF", FileTypeExecutable, h.parse)
	return h
}

func (h *ELF) parse() error {
	f, err := elf.NewFile(h.src)
	if err != nil {
		return formatErr("ELF", "%v", err)
	}
	h.file = f

	switch f.Type {
	case elf.ET_DYN:
		h.ftype = FileTypeSharedLibrary
	case elf.ET_EXEC, elf.ET_REL:
		h.ftype = FileTypeExecutable
	}

	if sec := f.Section(elfModuleInfo); sec != nil {
		if name, err := readSection(sec, elfModNameOffset, elfModNameSize); err == nil {
			h.moduleName = ibinary.CleanString(name)
		}
	}

	switch {
	case h.moduleName != "" && f.Machine == elf.EM_MIPS:
		h.setNames("Sony PlayStation Portable", "PlayStation Portable", "PSP")
	default:
		h.setNames("Executable and Linkable Format", "ELF", "ELF")
	}
	return nil
}

func readSection(sec *elf.Section, off, n int) ([]byte, error) {
	if sec.Type == elf.SHT_NOBITS || uint64(off+n) > sec.Size { //nolint:gosec // Small constants
		return nil, io.ErrUnexpectedEOF
	}
	buf := make([]byte, n)
	if _, err := sec.ReadAt(buf, int64(off)); err != nil {
		return nil, fmt.Errorf("read section %s: %w", sec.Name, err)
	}
	return buf, nil
}

// ModuleName returns the PSP module name, or "".
func (h *ELF) ModuleName() string { return h.moduleName }

// Entry returns the entry point address.
func (h *ELF) Entry() uint64 {
	if h.file == nil {
		return 0
	}
	return h.file.Entry
}

func (h *ELF) loadFields(f *fields.Fields) error {
	hdr := h.file.FileHeader
	f.AddTab("ELF")
	f.AddString("Class", hdr.Class.String())
	f.AddString("Data", hdr.Data.String())
	f.AddString("OS ABI", hdr.OSABI.String())
	f.AddString("Type", hdr.Type.String())
	f.AddString("Machine", hdr.Machine.String())
	digits := 8
	if hdr.Class == elf.ELFCLASS64 {
		digits = 16
	}
	f.AddHex("Entry Point", int64(hdr.Entry), digits) //nolint:gosec // Displayed as bits
	f.AddNumber("Program Headers", int64(len(h.file.Progs)))
	f.AddNumber("Sections", int64(len(h.file.Sections)))
	if h.moduleName != "" {
		f.AddString("Module Name", h.moduleName)
	}

	if len(h.file.Sections) == 0 {
		return nil
	}
	f.AddTab("Sections")
	rows := make([][]string, 0, min(len(h.file.Sections), elfMaxListedSections))
	for i, sec := range h.file.Sections {
		if i >= elfMaxListedSections {
			break
		}
		if sec.Type == elf.SHT_NULL {
			continue
		}
		rows = append(rows, []string{
			sec.Name,
			sec.Type.String(),
			fmt.Sprintf("0x%0*X", digits, sec.Addr),
			fmt.Sprintf("%d", sec.Size),
		})
	}
	f.AddListData("Section Headers", []string{"Name", "Type", "Address", "Size"}, rows)
	return nil
}
