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

package testimage

import "encoding/binary"

// ELFOptions describes a minimal 32-bit little-endian MIPS executable.
type ELFOptions struct {
	ModuleName string // written to .rodata.sceModuleInfo when set
	Entry      uint32
}

const (
	elfHeaderSize  = 52
	elfSectionSize = 40
	elfModInfoSize = 52
)

// ELF builds an executable with a null section, an optional PSP module
// info section and a section name table.
func ELF(opts ELFOptions) []byte {
	le := binary.LittleEndian

	shstrtab := []byte("\x00.shstrtab\x00")
	modNameOff := uint32(len(shstrtab))
	if opts.ModuleName != "" {
		shstrtab = append(shstrtab, ".rodata.sceModuleInfo\x00"...)
	}

	var modInfo []byte
	if opts.ModuleName != "" {
		modInfo = make([]byte, elfModInfoSize)
		modInfo[2], modInfo[3] = 1, 1
		copy(modInfo[4:32], opts.ModuleName)
	}

	modInfoOff := uint32(elfHeaderSize)
	strOff := modInfoOff + uint32(len(modInfo))
	shOff := (strOff + uint32(len(shstrtab)) + 3) &^ 3

	type section struct {
		name, typ, addr, off, size uint32
	}
	sections := []section{{}}
	if modInfo != nil {
		sections = append(sections, section{name: modNameOff, typ: 1, addr: 0x1000, off: modInfoOff, size: uint32(len(modInfo))})
	}
	sections = append(sections, section{name: 1, typ: 3, off: strOff, size: uint32(len(shstrtab))})

	out := make([]byte, int(shOff)+len(sections)*elfSectionSize)
	copy(out, []byte{0x7F, 'E', 'L', 'F', 1, 1, 1, 0})
	le.PutUint16(out[16:], 2) // ET_EXEC
	le.PutUint16(out[18:], 8) // EM_MIPS
	le.PutUint32(out[20:], 1) // EV_CURRENT
	le.PutUint32(out[24:], opts.Entry)
	le.PutUint32(out[32:], shOff)
	le.PutUint16(out[40:], elfHeaderSize)
	le.PutUint16(out[46:], elfSectionSize)
	le.PutUint16(out[48:], uint16(len(sections)))
	le.PutUint16(out[50:], uint16(len(sections)-1))

	copy(out[modInfoOff:], modInfo)
	copy(out[strOff:], shstrtab)
	for i, s := range sections {
		sh := out[int(shOff)+i*elfSectionSize:]
		le.PutUint32(sh[0:], s.name)
		le.PutUint32(sh[4:], s.typ)
		le.PutUint32(sh[12:], s.addr)
		le.PutUint32(sh[16:], s.off)
		le.PutUint32(sh[20:], s.size)
		le.PutUint32(sh[32:], 1)
	}
	return out
}
