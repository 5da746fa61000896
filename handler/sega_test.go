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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-romprops/internal/testimage"
)

func TestGenesis(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		system  string
		regions string
		want    [numNameVariants]string
		bits    uint32
	}{
		{"genesis", "SEGA GENESIS", "U", [numNameVariants]string{"Sega Genesis", "Genesis", "GEN"}, segaRegionUSA},
		{"mega drive", "SEGA MEGA DRIVE", "JUE", [numNameVariants]string{"Sega Mega Drive", "Mega Drive", "MD"},
			segaRegionJapan | segaRegionUSA | segaRegionEurope},
		{"hex regions", "SEGA MEGA DRIVE", "F", [numNameVariants]string{"Sega Mega Drive", "Mega Drive", "MD"}, 0xF},
		{"32X", "SEGA 32X", "U", [numNameVariants]string{"Sega 32X", "32X", "32X"}, segaRegionUSA},
		{"pico", "SEGA PICO", "J", [numNameVariants]string{"Sega Pico", "Pico", "Pico"}, segaRegionJapan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := detect(t, "zaparoo.md", genesisROM(tt.system, tt.regions))
			assert.Equal(t, tt.want, names(h))
			f := loadFields(t, h)
			assert.Equal(t, tt.bits, bitfieldValue(t, f, "Region Code"))
		})
	}
}

func TestGenesisFields(t *testing.T) {
	t.Parallel()

	rom := genesisROM("SEGA MEGA DRIVE", "JUE")
	h := detect(t, "zaparoo.md", rom)
	gen, ok := h.(*Genesis)
	require.True(t, ok)
	assert.Equal(t, "00001009-00", gen.Serial())

	f := loadFields(t, h)
	assert.Equal(t, []string{"Mega Drive"}, tabNames(f))
	assert.Equal(t, "SEGA MEGA DRIVE", fieldText(t, f, "System"))
	assert.Equal(t, "Sega", fieldText(t, f, "Publisher"))
	assert.Equal(t, "1991.APR", fieldText(t, f, "Build Date"))
	assert.Equal(t, "ZAPAROO TEST", fieldText(t, f, "Domestic Title"))
	assert.Equal(t, "ZAPAROO TEST", fieldText(t, f, "Export Title"))
	assert.Equal(t, "Game", fieldText(t, f, "Type"))
	assert.Contains(t, fieldText(t, f, "Checksum"), "(valid)")
	assert.Equal(t, "3-button Controller, 6-button Controller", fieldText(t, f, "I/O Support"))
	assert.Equal(t, "0x00000000 - 0x0007FFFF", fieldText(t, f, "ROM Range"))
	assert.Equal(t, "0x00FF0000 - 0x00FFFFFF", fieldText(t, f, "RAM Range"))
	assert.Equal(t, crcText(rom), fieldText(t, f, "CRC32"))

	rom[0x800]++
	f = loadFields(t, detect(t, "zaparoo.md", rom))
	assert.Contains(t, fieldText(t, f, "Checksum"), "invalid")
}

func TestSegaPublisher(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Sega", segaPublisher("SEGA"))
	assert.Equal(t, "Third party 12", segaPublisher("T-12"))
	assert.Equal(t, "ACME", segaPublisher(" ACME "))
}

func saturnDisc() []byte {
	img := testimage.ISO(testimage.ISOOptions{SystemID: "SEGA SEGASATURN", VolumeID: "ZAPAROO"}, []testimage.File{
		{Path: "0.BIN", Data: []byte("boot")},
	})
	hdr := img[:saturnHeaderSize]
	copy(hdr, "SEGA SEGASATURN ")
	copy(hdr[saturnMaker:], "SEGA ENTERPRISES")
	copy(hdr[saturnProductNo:], "MK-81086  ")
	copy(hdr[saturnVersion:], "V1.000")
	copy(hdr[saturnReleaseDate:], "19941122")
	copy(hdr[saturnDeviceInfo:], "CD-1/1  ")
	copy(hdr[saturnAreaCodes:], pad("JTUE", 16))
	copy(hdr[saturnPeripherals:], pad("JAG", 16))
	copy(hdr[saturnTitle:], pad("ZAPAROO TEST", saturnTitleSize))
	return img
}

func TestSaturn(t *testing.T) {
	t.Parallel()

	h := detect(t, "zaparoo.iso", saturnDisc())
	sat, ok := h.(*Saturn)
	require.True(t, ok)
	assert.Equal(t, "MK-81086", sat.ProductNumber())
	assert.Equal(t, [numNameVariants]string{"Sega Saturn", "Saturn", "Sat"}, names(h))

	f := loadFields(t, h)
	assert.Equal(t, []string{"Saturn", "ISO-9660"}, tabNames(f))
	assert.Equal(t, "ZAPAROO TEST", fieldText(t, f, "Title"))
	assert.Equal(t, "Sega", fieldText(t, f, "Publisher"))
	assert.Equal(t, "V1.000", fieldText(t, f, "Version"))
	assert.Equal(t, "1994-11-22", fieldText(t, f, "Release Date"))
	assert.Equal(t, "1/1", fieldText(t, f, "Disc Number"))
	assert.Equal(t, "Japan, Asia (NTSC), North America, Europe", fieldText(t, f, "Region Code"))
	assert.Equal(t, "Control Pad, Analog Controller, Light Gun", fieldText(t, f, "Peripherals"))
	assert.Equal(t, "ZAPAROO", fieldText(t, f, "Volume ID"))
}

func segaCDDisc(regions string) []byte {
	img := testimage.ISO(testimage.ISOOptions{VolumeID: "ZAPAROO"}, []testimage.File{
		{Path: "FILE.DAT", Data: []byte("data")},
	})
	hdr := img[:mcdHeaderSize]
	copy(hdr, "SEGADISCSYSTEM  ")
	copy(hdr[mcdVolume:], "ZAPAROO    ")
	copy(hdr[mcdSystemName:], "ZAPAROO SYS")
	copy(hdr[mcdBuildDate:], "01021994")
	mdHeader(hdr[mcdMDHeader:], "SEGA MEGA DRIVE", "ZAPAROO CD", "GM T-12345-00", regions)
	return img
}

func TestSegaCD(t *testing.T) {
	t.Parallel()

	t.Run("Sega CD", func(t *testing.T) {
		t.Parallel()
		h := detect(t, "zaparoo.iso", segaCDDisc("U"))
		scd, ok := h.(*SegaCD)
		require.True(t, ok)
		assert.Equal(t, "T-12345-00", scd.Serial())
		assert.Equal(t, [numNameVariants]string{"Sega CD", "Sega CD", "SCD"}, names(h))

		f := loadFields(t, h)
		assert.Equal(t, []string{"Mega CD", "ISO-9660"}, tabNames(f))
		assert.Equal(t, "SEGADISCSYSTEM", fieldText(t, f, "Disc Type"))
		assert.Equal(t, "ZAPAROO", fieldText(t, f, "Volume Name"))
		assert.Equal(t, "ZAPAROO SYS", fieldText(t, f, "System Name"))
		assert.Equal(t, "1994-01-02", fieldText(t, f, "Build Date"))
		assert.Equal(t, "ZAPAROO CD", fieldText(t, f, "Export Title"))
		assert.Equal(t, "Sega", fieldText(t, f, "Publisher"))
		assert.Equal(t, uint32(segaRegionUSA), bitfieldValue(t, f, "Region Code"))
	})

	t.Run("Mega CD", func(t *testing.T) {
		t.Parallel()
		h := detect(t, "zaparoo.iso", segaCDDisc("JE"))
		assert.Equal(t, "Mega CD", h.SystemName(NameShort))
	})
}
