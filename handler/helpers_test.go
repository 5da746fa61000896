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
	"archive/zip"
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-romprops/fields"
	"github.com/ZaparooProject/go-romprops/internal/testimage"
	"github.com/ZaparooProject/go-romprops/source"
)

func newSource(t *testing.T, name string, data []byte) *source.Handle {
	t.Helper()
	src := source.FromBytes(name, data)
	t.Cleanup(func() { _ = src.Close() })
	return src
}

// detect runs detection with a default context and requires a match.
func detect(t *testing.T, name string, data []byte) Handler {
	t.Helper()
	return detectWith(t, NewContext(nil, nil), name, data)
}

func detectWith(t *testing.T, ctx *Context, name string, data []byte) Handler {
	t.Helper()
	h, err := Detect(ctx, newSource(t, name, data), "")
	require.NoError(t, err)
	require.True(t, h.IsValid())
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func loadFields(t *testing.T, h Handler) *fields.Fields {
	t.Helper()
	_, err := h.LoadFields()
	require.NoError(t, err)
	return h.Fields()
}

func fieldText(t *testing.T, f *fields.Fields, name string) string {
	t.Helper()
	fld, ok := f.Find(name)
	require.True(t, ok, "field %q missing", name)
	return fld.Text()
}

func bitfieldValue(t *testing.T, f *fields.Fields, name string) uint32 {
	t.Helper()
	fld, ok := f.Find(name)
	require.True(t, ok, "field %q missing", name)
	require.Equal(t, fields.KindBitfield, fld.Kind)
	return fld.Bitfield.Value
}

func tabNames(f *fields.Fields) []string {
	out := make([]string, f.TabCount())
	for i := range out {
		out[i] = f.TabName(i)
	}
	return out
}

func names(h Handler) [numNameVariants]string {
	return [numNameVariants]string{h.SystemName(NameLong), h.SystemName(NameShort), h.SystemName(NameAbbrev)}
}

func pad(s string, n int) []byte {
	out := bytes.Repeat([]byte{' '}, n)
	copy(out, s)
	return out
}

// gbaROM builds a cartridge with the boot logo, an ARM branch to 0x080000C0
// and a correct header checksum.
func gbaROM(title, code, maker string) []byte {
	rom := make([]byte, 0x400)
	binary.LittleEndian.PutUint32(rom, 0xEA00002E)
	copy(rom[gbaLogoOffset:], gbaNintendoLogo)
	copy(rom[gbaTitleOffset:gbaTitleOffset+12], title)
	copy(rom[gbaGameCodeOffset:], code)
	copy(rom[gbaMakerOffset:], maker)
	rom[gbaFixedOffset] = gbaFixedValue
	rom[gbaChecksumOffset] = gbaHeaderChecksum(rom)
	return rom
}

// gbROM builds a 32 KiB cartridge with valid header and global checksums.
func gbROM(title string, cgb byte, maker string) []byte {
	rom := make([]byte, 0x8000)
	for i := 0x150; i < len(rom); i++ {
		rom[i] = byte(i * 7)
	}
	copy(rom[gbLogoOffset:], gbNintendoLogo)
	copy(rom[gbTitleOffset:], title)
	copy(rom[gbMakerOffset:], maker)
	rom[gbCGBOffset] = cgb
	rom[gbSGBOffset] = 0x03
	rom[gbCartTypeOffset] = 0x13
	rom[gbROMSizeOffset] = 0x00
	rom[gbRAMSizeOffset] = 0x03
	rom[gbRegionOffset] = 0x01
	rom[gbOldLicensee] = 0x01
	rom[gbHeaderChkOffset] = gbHeaderChecksum(rom)
	var sum uint16
	for i, c := range rom {
		if i != gbGlobalChkOffset && i != gbGlobalChkOffset+1 {
			sum += uint16(c)
		}
	}
	binary.BigEndian.PutUint16(rom[gbGlobalChkOffset:], sum)
	return rom
}

// n64ROM builds a big-endian (.z64) cartridge.
func n64ROM() []byte {
	rom := make([]byte, 0x1000)
	be := binary.BigEndian
	copy(rom, n64Magic)
	be.PutUint32(rom[n64ClockRateOffset:], 0x0000000F)
	be.PutUint32(rom[n64EntryOffset:], 0x80000400)
	rom[n64ReleaseOffset+2] = 20
	rom[n64ReleaseOffset+3] = 'L'
	be.PutUint32(rom[n64CRCOffset:], 0x635A2BFF)
	be.PutUint32(rom[n64CRCOffset+4:], 0x8B022326)
	copy(rom[n64TitleOffset:], pad("ZAPAROO TEST", n64TitleSize))
	copy(rom[n64CartIDOffset:], "NZPE")
	rom[n64VersionOffset] = 1
	return rom
}

// nesROM builds an iNES dump with prg 16 KiB and chr 8 KiB units.
func nesROM(prg, chr, flags6, flags7 byte) []byte {
	header := make([]byte, inesHeaderSize)
	copy(header, inesMagic)
	header[4], header[5], header[6], header[7] = prg, chr, flags6, flags7
	body := make([]byte, int(prg)*inesPRGUnit+int(chr)*inesCHRUnit)
	for i := range body {
		body[i] = byte(i)
	}
	return append(header, body...)
}

// snesROM builds a 64 KiB LoROM or HiROM cartridge.
func snesROM(title string, mapMode, region byte) []byte {
	rom := make([]byte, 0x10000)
	start := snesLoROMHeader
	if mapMode&0x0F == 0x1 {
		start = snesHiROMHeader
	}
	hdr := rom[start : start+snesHeaderSize]
	copy(hdr, pad(title, snesTitleSize))
	hdr[snesMapModeOffset] = mapMode
	hdr[snesROMTypeOffset] = 0x02
	hdr[snesROMSizeOffset] = 0x06
	hdr[snesRAMSizeOffset] = 0x03
	hdr[snesRegionOffset] = region
	hdr[snesMakerOffset] = 0x01
	binary.LittleEndian.PutUint16(hdr[snesComplementOff:], 0xEDCB)
	binary.LittleEndian.PutUint16(hdr[snesChecksumOffset:], 0x1234)
	return rom
}

// mdHeader fills a Mega Drive style header at the start of b.
func mdHeader(b []byte, system, title, serial, regions string) {
	copy(b, pad(system, 16))
	copy(b[0x10:], "(C)SEGA 1991.APR")
	copy(b[mdTitleDomestic:], pad(title, mdTitleSize))
	copy(b[mdTitleExport:], pad(title, mdTitleSize))
	copy(b[mdSerial:], pad(serial, mdSerialSize))
	copy(b[mdDevices:], pad("J6", 16))
	be := binary.BigEndian
	be.PutUint32(b[mdROMStart+4:], 0x0007FFFF)
	be.PutUint32(b[mdRAMStart:], 0x00FF0000)
	be.PutUint32(b[mdRAMStart+4:], 0x00FFFFFF)
	copy(b[mdRegions:], pad(regions, 3))
}

// genesisROM builds a cartridge with a correct word checksum.
func genesisROM(system, regions string) []byte {
	rom := make([]byte, 0x1000)
	for i := mdSearchEnd; i < len(rom); i++ {
		rom[i] = byte(i * 3)
	}
	mdHeader(rom[mdSearchStart:], system, "ZAPAROO TEST", "GM 00001009-00", regions)
	var sum uint16
	for i := mdSearchEnd; i+1 < len(rom); i += 2 {
		sum += binary.BigEndian.Uint16(rom[i:])
	}
	binary.BigEndian.PutUint16(rom[mdSearchStart+mdChecksum:], sum)
	return rom
}

// gameCubeDisc builds a disc header; wii selects the Wii magic.
func gameCubeDisc(id string, title []byte, wii bool) []byte {
	disc := make([]byte, 0x2000)
	be := binary.BigEndian
	copy(disc, id)
	disc[gcnRevision] = 1
	if wii {
		copy(disc[gcnWiiMagicOff:], wiiMagic)
	} else {
		copy(disc[gcnMagicOff:], gcnMagic)
	}
	copy(disc[gcnTitleOffset:], title)
	be.PutUint32(disc[gcnDOLOffset:], 0x1E800)
	be.PutUint32(disc[gcnFSTOffset:], 0x30000)
	be.PutUint32(disc[gcnFSTSize:], 0x1000)
	be.PutUint32(disc[gcnBI2Region:], gcnRegionUSA)
	return disc
}

// psxExe builds a PS-X EXE with a North American license marker.
func psxExe() []byte {
	exe := make([]byte, psxExeHeaderSize+0x800)
	le := binary.LittleEndian
	copy(exe, psxExeMagic)
	le.PutUint32(exe[psxExePC:], 0x80010000)
	le.PutUint32(exe[psxExeText:], 0x80010000)
	le.PutUint32(exe[psxExeText+4:], 0x800)
	le.PutUint32(exe[psxExeStack:], 0x801FFFF0)
	copy(exe[psxExeMarker:], "Sony Computer Entertainment Inc. for North America area")
	return exe
}

func zipOf(t *testing.T, files ...testimage.File) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range files {
		fw, err := w.Create(f.Path)
		require.NoError(t, err)
		_, err = fw.Write(f.Data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}
