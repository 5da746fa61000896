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

func TestCHDContainer(t *testing.T) {
	t.Parallel()

	iso := testimage.ISO(testimage.ISOOptions{SystemID: "LINUX", VolumeID: "INSIDE"}, []testimage.File{
		{Path: "README.TXT", Data: []byte("hello")},
	})
	h := detect(t, "disc.chd", testimage.CHD(iso))
	c, ok := h.(*CHDImage)
	require.True(t, ok)
	assert.Equal(t, FileTypeContainer, h.FileType())
	assert.Equal(t, uint32(4), c.Header().Version)
	_, innerISO := c.Inner().(*ISO)
	assert.True(t, innerISO)

	f := loadFields(t, h)
	assert.Equal(t, []string{"CHD", "ISO-9660"}, tabNames(f))
	assert.Equal(t, "None", fieldText(t, f, "Compression"))
	assert.Equal(t, "INSIDE", fieldText(t, f, "Volume ID"))

	tracks, ok := f.Find("Tracks")
	require.True(t, ok)
	require.NotNil(t, tracks.List)
	require.Len(t, tracks.List.Rows, 1)
	assert.Equal(t, "MODE1_RAW", tracks.List.Rows[0][1])
}

func TestCHDUnknownPayload(t *testing.T) {
	t.Parallel()

	h := detect(t, "blank.chd", testimage.CHD(make([]byte, 40*2048)))
	c, ok := h.(*CHDImage)
	require.True(t, ok)
	assert.Nil(t, c.Inner())
	assert.Equal(t, [numNameVariants]string{"MAME Compressed Hunks of Data", "CHD", "CHD"}, names(h))

	f := loadFields(t, h)
	assert.Equal(t, []string{"CHD"}, tabNames(f))
}
