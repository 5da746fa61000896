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

func TestPSXExe(t *testing.T) {
	t.Parallel()

	h := detect(t, "PSX.EXE", psxExe())
	exe, ok := h.(*PSXExe)
	require.True(t, ok)
	assert.Equal(t, "North America", exe.Region())
	assert.Equal(t, FileTypeExecutable, h.FileType())

	f := loadFields(t, h)
	assert.Equal(t, []string{"PS-X EXE"}, tabNames(f))
	assert.Equal(t, "0x80010000", fieldText(t, f, "Initial PC"))
	assert.Equal(t, "2048", fieldText(t, f, "Text Size"))
	assert.Equal(t, "0x801FFFF0", fieldText(t, f, "Initial SP"))
	_, hasBSS := f.Find("BSS Address")
	assert.False(t, hasBSS)
}

func TestPlayStation1Disc(t *testing.T) {
	t.Parallel()

	img := testimage.ISO(testimage.ISOOptions{SystemID: "PLAYSTATION", VolumeID: "SLUS_00594"}, []testimage.File{
		{Path: "SYSTEM.CNF", Data: []byte("BOOT = cdrom:\\SLUS_005.94;1\r\nTCB = 4\r\nEVENT = 10\r\nSTACK = 801FFFF0\r\n")},
		{Path: "SLUS_005.94", Data: psxExe()},
	})
	h := detect(t, "zaparoo.bin", img)
	ps, ok := h.(*PlayStation)
	require.True(t, ok)
	assert.False(t, ps.IsPS2())
	assert.Equal(t, "SLUS-00594", ps.GameID())
	assert.Equal(t, [numNameVariants]string{"Sony PlayStation", "PlayStation", "PS1"}, names(h))

	f := loadFields(t, h)
	assert.Equal(t, []string{"PS1", "PS-X EXE", "ISO-9660"}, tabNames(f))
	assert.Equal(t, "SLUS-00594", fieldText(t, f, "Game ID"))
	assert.Equal(t, "SLUS_005.94", fieldText(t, f, "Boot File"))
	assert.Equal(t, "4", fieldText(t, f, "TCB"))
	assert.Equal(t, "801FFFF0", fieldText(t, f, "Stack"))
	assert.Equal(t, "North America", fieldText(t, f, "Region"))
	assert.Equal(t, "PlayStation", fieldText(t, f, "Platform"))
}

func TestPlayStation2Disc(t *testing.T) {
	t.Parallel()

	img := testimage.ISO(testimage.ISOOptions{SystemID: "PLAYSTATION", VolumeID: "ZAPAROO"}, []testimage.File{
		{Path: "SYSTEM.CNF", Data: []byte("BOOT2 = cdrom0:\\SLUS_203.12;1\nVER = 1.00\nVMODE = NTSC\n")},
		{Path: "SLUS_203.12", Data: testimage.ELF(testimage.ELFOptions{Entry: 0x100008})},
	})
	h := detect(t, "zaparoo.iso", img)
	ps, ok := h.(*PlayStation)
	require.True(t, ok)
	assert.True(t, ps.IsPS2())
	assert.Equal(t, "PS2", h.SystemName(NameAbbrev))

	f := loadFields(t, h)
	assert.Equal(t, []string{"PS2", "ELF", "Sections", "ISO-9660"}, tabNames(f))
	assert.Equal(t, "SLUS-20312", fieldText(t, f, "Game ID"))
	assert.Equal(t, "1.00", fieldText(t, f, "Version"))
	assert.Equal(t, "NTSC", fieldText(t, f, "Video Mode"))
	assert.Equal(t, "0x00100008", fieldText(t, f, "Entry Point"))
	assert.Equal(t, "PlayStation 2", fieldText(t, f, "Platform"))
}

func TestPlayStationWithoutSystemCNF(t *testing.T) {
	t.Parallel()

	img := testimage.ISO(testimage.ISOOptions{SystemID: "PLAYSTATION", VolumeID: "SCES_012.34"}, []testimage.File{
		{Path: "PSX.EXE", Data: psxExe()},
	})
	h := detect(t, "zaparoo.iso", img)
	ps, ok := h.(*PlayStation)
	require.True(t, ok)
	assert.Equal(t, "SCES-012.34", ps.GameID())
	assert.NotNil(t, ps.BootExe())
	assert.Equal(t, "PSX.EXE", fieldText(t, loadFields(t, h), "Boot File"))
}

func TestBootPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line, path, serial string
	}{
		{`cdrom0:\SLUS_203.12;1`, "/SLUS_203.12", "SLUS-20312"},
		{`cdrom:\SCES_012.34;1 arg`, "/SCES_012.34", "SCES-01234"},
		{`cdrom:\GAME\MAIN.EXE;1`, "/GAME/MAIN.EXE", ""},
		{`PSX.EXE`, "/PSX.EXE", ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			p := bootPath(tt.line)
			assert.Equal(t, tt.path, p)
			assert.Equal(t, tt.serial, serialFromBoot(p))
		})
	}
}

func TestISO(t *testing.T) {
	t.Parallel()

	img := testimage.ISO(testimage.ISOOptions{
		SystemID:  "LINUX",
		VolumeID:  "ZAPAROO",
		Publisher: "ZAPAROO PROJECT",
	}, []testimage.File{
		{Path: "IPL.TXT", Data: []byte("ipl")},
	})
	h := detect(t, "zaparoo.iso", img)
	iso, ok := h.(*ISO)
	require.True(t, ok)
	assert.Equal(t, "ZAPAROO", iso.PVD().VolumeID)

	f := loadFields(t, h)
	assert.Equal(t, []string{"ISO-9660"}, tabNames(f))
	assert.Equal(t, "LINUX", fieldText(t, f, "System ID"))
	assert.Equal(t, "ZAPAROO PROJECT", fieldText(t, f, "Publisher"))
	assert.Equal(t, "2048", fieldText(t, f, "Block Size"))
	assert.Equal(t, "Neo Geo CD", fieldText(t, f, "Platform"))
	_, hasContainer := f.Find("Container")
	assert.False(t, hasContainer)
}
