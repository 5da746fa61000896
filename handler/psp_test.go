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
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-romprops/fields"
	"github.com/ZaparooProject/go-romprops/internal/testimage"
	"github.com/ZaparooProject/go-romprops/iso9660"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func pspImage(t *testing.T) []byte {
	t.Helper()
	return testimage.ISO(testimage.ISOOptions{SystemID: "PSP GAME", VolumeID: "ZAPAROO"}, []testimage.File{
		{Path: "UMD_DATA.BIN", Data: []byte("ULUS-10041|0000000000000001|0001|G")},
		{Path: "PSP_GAME/PARAM.SFO", Data: testimage.SFO(map[string]any{
			"TITLE":          "Zaparoo Portable",
			"DISC_ID":        "ULUS10041",
			"DISC_VERSION":   "1.00",
			"PARENTAL_LEVEL": 3,
		})},
		{Path: "PSP_GAME/SYSDIR/EBOOT.BIN", Data: testimage.ELF(testimage.ELFOptions{
			ModuleName: "ZaparooModule",
			Entry:      0x08804000,
		})},
		{Path: "PSP_GAME/ICON0.PNG", Data: pngOf(t, 144, 80)},
	})
}

func TestPSPPlain(t *testing.T) {
	t.Parallel()

	h := detect(t, "game.iso", pspImage(t))
	psp, ok := h.(*PSP)
	require.True(t, ok)
	assert.Equal(t, [numNameVariants]string{"Sony PlayStation Portable", "PlayStation Portable", "PSP"}, names(h))
	assert.Equal(t, FileTypeDiscImage, h.FileType())
	_, compressed := psp.BlockStats()
	assert.False(t, compressed)

	f := loadFields(t, h)
	assert.Equal(t, "ULUS-10041", fieldText(t, f, "Game ID"))
	assert.Equal(t, "Zaparoo Portable", fieldText(t, f, "Title"))
	assert.Equal(t, "ULUS10041", fieldText(t, f, "Disc ID"))
	assert.Equal(t, "3", fieldText(t, f, "Parental Level"))

	// The boot executable's header joins the first tab and its section
	// table becomes the second.
	assert.Equal(t, []string{"PSP", "Sections", "ISO-9660"}, tabNames(f))
	inFirst := map[string]bool{}
	for _, fld := range f.InTab(0) {
		inFirst[fld.Name] = true
	}
	assert.True(t, inFirst["Game ID"])
	assert.True(t, inFirst["Module Name"])
	assert.Equal(t, "ZaparooModule", fieldText(t, f, "Module Name"))
	assert.Equal(t, "0x08804000", fieldText(t, f, "Entry Point"))
	assert.Equal(t, "PSP GAME", fieldText(t, f, "System ID"))

	exe := psp.BootExe()
	require.NotNil(t, exe)
	assert.Equal(t, "PSP", exe.SystemName(NameAbbrev))
}

func TestPSPCompressed(t *testing.T) {
	t.Parallel()

	h := detect(t, "game.cso", testimage.CISO(pspImage(t), iso9660.SectorSize))
	psp, ok := h.(*PSP)
	require.True(t, ok)

	stats, compressed := psp.BlockStats()
	require.True(t, compressed)
	assert.Positive(t, stats.BlockReads)

	n, err := h.LoadFields()
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.Equal(t, "ULUS-10041", fieldText(t, h.Fields(), "Game ID"))
	after, _ := psp.BlockStats()

	// A second load is served from the cache.
	again, err := h.LoadFields()
	require.NoError(t, err)
	assert.Equal(t, n, again)
	cached, _ := psp.BlockStats()
	assert.Equal(t, after, cached)
}

func TestPSPDAX(t *testing.T) {
	t.Parallel()

	h := detect(t, "game.dax", testimage.DAX(pspImage(t)))
	psp, ok := h.(*PSP)
	require.True(t, ok)

	stats, compressed := psp.BlockStats()
	require.True(t, compressed)
	assert.Positive(t, stats.BlockReads)

	f := loadFields(t, h)
	assert.Equal(t, "ULUS-10041", fieldText(t, f, "Game ID"))
	assert.Equal(t, "Zaparoo Portable", fieldText(t, f, "Title"))
	assert.Equal(t, "PSP GAME", fieldText(t, f, "System ID"))
}

func TestPSPBootExeAfterClose(t *testing.T) {
	t.Parallel()

	h := detect(t, "game.iso", pspImage(t))
	psp, ok := h.(*PSP)
	require.True(t, ok)
	exe := psp.BootExe()
	require.NotNil(t, exe)

	require.NoError(t, h.Close())
	assert.Nil(t, psp.BootExe())
}

func TestPSPImages(t *testing.T) {
	t.Parallel()

	h := detect(t, "game.iso", pspImage(t))
	assert.Equal(t, []fields.ImageRole{fields.RoleIcon, fields.RoleTitleScreen}, h.SupportedImages())
	assert.Equal(t, []fields.ImageSize{{Width: 144, Height: 80}}, h.ImageSizes(fields.RoleIcon))

	icon := h.LoadImage(fields.RoleIcon)
	require.NotNil(t, icon)
	assert.Equal(t, fields.ImageSize{Width: 144, Height: 80}, icon.Size)
	assert.Same(t, icon, h.LoadImage(fields.RoleIcon))

	assert.Nil(t, h.LoadImage(fields.RoleTitleScreen))
}

func TestPSPCloseKeepsFields(t *testing.T) {
	t.Parallel()

	src := newSource(t, "game.iso", pspImage(t))
	h, err := Detect(nil, src, "")
	require.NoError(t, err)
	assert.Greater(t, src.Refs(), 1)

	n, err := h.LoadFields()
	require.NoError(t, err)
	require.NoError(t, h.Close())
	assert.Equal(t, 1, src.Refs())

	again, err := h.LoadFields()
	require.NoError(t, err)
	assert.Equal(t, n, again)
	assert.Equal(t, "ULUS-10041", fieldText(t, h.Fields(), "Game ID"))
}

func TestPSPNotLoadedAfterClose(t *testing.T) {
	t.Parallel()

	h := detect(t, "game.iso", pspImage(t))
	require.NoError(t, h.Close())
	_, err := h.LoadFields()
	require.ErrorIs(t, err, ErrNotOpen)
	assert.Equal(t, 0, h.Fields().Len())
	assert.Nil(t, h.LoadImage(fields.RoleIcon))
}

func TestParseSFO(t *testing.T) {
	t.Parallel()

	sfo, err := parseSFO(testimage.SFO(map[string]any{"TITLE": "Zaparoo", "REGION": 32768}))
	require.NoError(t, err)
	assert.Equal(t, "Zaparoo", sfo["TITLE"].String())
	assert.True(t, sfo["REGION"].IsInt)
	assert.Equal(t, "32768", sfo["REGION"].String())

	_, err = parseSFO([]byte("\x00PSF"))
	require.Error(t, err)
	_, err = parseSFO([]byte("not an sfo table"))
	require.Error(t, err)
}
