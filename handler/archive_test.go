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

	"github.com/ZaparooProject/go-romprops/archive"
	"github.com/ZaparooProject/go-romprops/internal/testimage"
)

func TestArchiveIdentifiesMember(t *testing.T) {
	t.Parallel()

	rom := gbaROM("ZAPAROO", "AZPE", "01")
	data := zipOf(t,
		testimage.File{Path: "readme.txt", Data: []byte("read me")},
		testimage.File{Path: "game.gba", Data: rom},
	)
	h := detect(t, "games.zip", data)
	arc, ok := h.(*Archive)
	require.True(t, ok)
	assert.Equal(t, "game.gba", arc.Member())
	assert.Equal(t, "Game Boy Advance", h.SystemName(NameShort))
	assert.Equal(t, FileTypeArchive, h.FileType())
	require.NotNil(t, arc.Inner())

	f := loadFields(t, h)
	assert.Equal(t, []string{"Archive", "GBA"}, tabNames(f))
	assert.Equal(t, "ZIP", fieldText(t, f, "Format"))
	assert.Equal(t, "2", fieldText(t, f, "Members"))
	assert.Equal(t, "game.gba", fieldText(t, f, "Identified Member"))
	assert.Equal(t, "AZPE01", fieldText(t, f, "Game ID"))

	contents, ok := f.Find("Contents")
	require.True(t, ok)
	assert.Equal(t, [][]string{{"readme.txt", "7"}, {"game.gba", "1024"}}, contents.List.Rows)
}

func TestArchiveWithoutKnownMember(t *testing.T) {
	t.Parallel()

	h := detect(t, "docs.zip", zipOf(t, testimage.File{Path: "readme.txt", Data: []byte("read me")}))
	arc, ok := h.(*Archive)
	require.True(t, ok)
	assert.Nil(t, arc.Inner())
	assert.Empty(t, arc.Member())
	assert.Equal(t, [numNameVariants]string{"ZIP Archive", "ZIP", "ZIP"}, names(h))

	f := loadFields(t, h)
	assert.Equal(t, []string{"Archive"}, tabNames(f))
	assert.Equal(t, "None", fieldText(t, f, "Identified Member"))
}

func TestArchiveCandidates(t *testing.T) {
	t.Parallel()

	members := []archive.FileInfo{
		{Name: "notes.txt", Size: 10},
		{Name: "empty.gba", Size: 0},
		{Name: "huge.iso", Size: archive.MaxMemberSize + 1},
		{Name: "game.SFC", Size: 10},
		{Name: "other.bin", Size: 10},
	}
	var got []string
	for _, m := range candidates(members) {
		got = append(got, m.Name)
	}
	assert.Equal(t, []string{"game.SFC", "other.bin", "notes.txt"}, got)

	many := make([]archive.FileInfo, maxArchiveTries*2)
	for i := range many {
		many[i] = archive.FileInfo{Name: "x.bin", Size: 1}
	}
	assert.Len(t, candidates(many), maxArchiveTries)
}
