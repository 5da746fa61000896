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
	"github.com/ZaparooProject/go-romprops/keys"
)

var (
	testCommonKey = []byte("0123456789abcdef")
	testTitleKey  = []byte("zaparoo-title-ky")
)

func wadImage() []byte {
	return testimage.WAD(testimage.WADOptions{
		CommonKey:    testCommonKey,
		TitleKey:     testTitleKey,
		Content:      testimage.Banner("Zaparoo Channel"),
		TitleID:      0x00010001_5A505245,
		SysVersion:   0x00000001_00000024,
		AccessRights: 0x1,
		ContentID:    0x0000002A,
		TitleVersion: 0x0102,
		Region:       1,
	})
}

// commonKeyStore holds key under the common key name, verified against
// the real common key.
func commonKeyStore(t *testing.T, key []byte) *keys.Memory {
	t.Helper()
	pair, err := keys.Encrypt(testCommonKey, nil)
	require.NoError(t, err)
	store := keys.NewMemory()
	store.Set(CommonKeyName, key)
	store.SetVerification(CommonKeyName, pair)
	return store
}

func TestWiiWADWithKey(t *testing.T) {
	t.Parallel()

	ctx := NewContext(commonKeyStore(t, testCommonKey), nil)
	h := detectWith(t, ctx, "channel.wad", wadImage())
	wad, ok := h.(*WiiWAD)
	require.True(t, ok)
	assert.Equal(t, FileTypeApplicationPackage, h.FileType())
	assert.Equal(t, "Wii", h.SystemName(NameShort))
	assert.Equal(t, keys.VerifyOK, wad.KeyStatus())
	assert.Equal(t, testTitleKey, wad.TitleKey())
	assert.Equal(t, uint64(0x000100015A505245), wad.TitleID())

	f := loadFields(t, h)
	assert.Equal(t, []string{"WAD"}, tabNames(f))
	_, warned := f.Find("Warning")
	assert.False(t, warned)
	assert.Equal(t, "00010001-5A505245", fieldText(t, f, "Title ID"))
	assert.Equal(t, "ZPRE", fieldText(t, f, "Game ID"))
	assert.Equal(t, "IOS36", fieldText(t, f, "IOS Version"))
	assert.Equal(t, "1.2 (v258)", fieldText(t, f, "Title Version"))
	assert.Equal(t, "USA", fieldText(t, f, "Region"))
	assert.Equal(t, uint32(1), bitfieldValue(t, f, "Access Rights"))
	assert.Equal(t, "Zaparoo Channel", fieldText(t, f, "Title (English)"))

	contents, ok := f.Find("Contents")
	require.True(t, ok)
	assert.Equal(t, [][]string{{"0", "0000002A", "Normal", "1536"}}, contents.List.Rows)
}

func TestWiiWADKeyFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		store keys.Store
		want  keys.VerifyResult
	}{
		{"no keys file", nil, keys.VerifyStoreNotLoaded},
		{"missing key", keys.NewMemory(), keys.VerifyKeyNotFound},
		{"wrong key", commonKeyStore(t, []byte("fedcba9876543210")), keys.VerifyWrongKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := detectWith(t, NewContext(tt.store, nil), "channel.wad", wadImage())
			wad, ok := h.(*WiiWAD)
			require.True(t, ok)
			assert.Equal(t, tt.want, wad.KeyStatus())
			assert.Nil(t, wad.TitleKey())

			// Identification does not depend on the key.
			f := loadFields(t, h)
			warning, ok := f.Find("Warning")
			require.True(t, ok)
			assert.Equal(t, tt.want.String(), warning.Str)
			assert.NotZero(t, warning.Flags)
			assert.Equal(t, "00010001-5A505245", fieldText(t, f, "Title ID"))
			_, hasTitle := f.Find("Title (English)")
			assert.False(t, hasTitle)
		})
	}
}

func TestWiiWADRejectsBadHeader(t *testing.T) {
	t.Parallel()

	data := wadImage()
	data[4] = 'X' // unknown package type

	src := newSource(t, "channel.wad", data)
	h := newWiiWAD(nil, src)
	assert.False(t, h.IsValid())
	assert.Equal(t, 1, src.Refs())
}
