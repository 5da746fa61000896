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

package iso9660

import (
	"testing"
	"time"

	"github.com/ZaparooProject/go-romprops/internal/testimage"
	"github.com/ZaparooProject/go-romprops/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2005, time.March, 24, 12, 30, 45, 0, time.UTC)

func testImage(t *testing.T) *source.Handle {
	t.Helper()
	img := testimage.ISO(testimage.ISOOptions{
		SystemID:  "PSP GAME",
		VolumeID:  "UCUS98615",
		Publisher: "SONY",
		Created:   created,
	}, []testimage.File{
		{Path: "UMD_DATA.BIN", Data: []byte("UCUS-98615|0001|G")},
		{Path: "PSP_GAME/ICON0.PNG", Data: []byte("\x89PNG icon")},
		{Path: "PSP_GAME/SYSDIR/EBOOT.BIN", Data: make([]byte, 3000)},
	})
	src := source.FromBytes("game.iso", img)
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestParsePVD(t *testing.T) {
	t.Parallel()

	src := testImage(t)
	part, err := Open(src)
	require.NoError(t, err)
	defer func() { _ = part.Close() }()

	pvd := part.PVD()
	assert.Equal(t, "PSP GAME", pvd.SystemID)
	assert.Equal(t, "UCUS98615", pvd.VolumeID)
	assert.Equal(t, "SONY", pvd.Publisher)
	assert.Equal(t, uint16(SectorSize), pvd.LogicalBlockSize)
	assert.Len(t, pvd.RawSystemID, 32)
	assert.True(t, created.Equal(pvd.Created), "created %v", pvd.Created)
	assert.True(t, pvd.Modified.IsZero())
	assert.Equal(t, "2005-03-24-12-30-45-00", pvd.UUID())
}

func TestParsePVDRejects(t *testing.T) {
	t.Parallel()

	_, err := ParsePVD(make([]byte, 100))
	require.ErrorIs(t, err, ErrInvalidPVD)

	_, err = ParsePVD(make([]byte, SectorSize))
	require.ErrorIs(t, err, ErrPVDNotFound)
}

func TestOpenWithoutPVD(t *testing.T) {
	t.Parallel()

	src := source.FromBytes("blank.iso", make([]byte, 20*SectorSize))
	defer func() { _ = src.Close() }()
	_, err := Open(src)
	require.ErrorIs(t, err, ErrPVDNotFound)

	short := source.FromBytes("short.iso", make([]byte, 1000))
	defer func() { _ = short.Close() }()
	_, err = Open(short)
	require.Error(t, err)
}

func TestStat(t *testing.T) {
	t.Parallel()

	part, err := Open(testImage(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = part.Close() })

	tests := []struct {
		name    string
		path    string
		wantErr error
		size    uint32
		isDir   bool
	}{
		{name: "root file", path: "/UMD_DATA.BIN", size: 17},
		{name: "case insensitive", path: "/psp_game/icon0.png", size: 9},
		{name: "no leading slash", path: "PSP_GAME/SYSDIR/EBOOT.BIN", size: 3000},
		{name: "directory", path: "/PSP_GAME", isDir: true},
		{name: "missing", path: "/PSP_GAME/PIC1.PNG", wantErr: ErrNotFound},
		{name: "file as dir", path: "/UMD_DATA.BIN/X", wantErr: ErrNotDir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, err := part.Stat(tt.path)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.isDir, e.IsDir)
			if !tt.isDir {
				assert.Equal(t, tt.size, e.Size)
			}
		})
	}
}

func TestReadDir(t *testing.T) {
	t.Parallel()

	part, err := Open(testImage(t))
	require.NoError(t, err)
	defer func() { _ = part.Close() }()

	entries, err := part.ReadDir("/")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{"PSP_GAME", "UMD_DATA.BIN"}, names)

	_, err = part.ReadDir("/UMD_DATA.BIN")
	require.ErrorIs(t, err, ErrNotDir)
}

func TestOpenFile(t *testing.T) {
	t.Parallel()

	src := testImage(t)
	part, err := Open(src)
	require.NoError(t, err)

	h, err := part.Open("/UMD_DATA.BIN")
	require.NoError(t, err)
	assert.Equal(t, int64(17), h.Size())
	assert.Equal(t, "game.iso!/UMD_DATA.BIN", h.Name())

	buf := make([]byte, 32)
	n, err := h.ReadAt(buf, 0)
	assert.Equal(t, 17, n)
	require.Error(t, err)
	assert.Equal(t, "UCUS-98615|0001|G", string(buf[:n]))

	_, err = part.Open("/PSP_GAME")
	require.ErrorIs(t, err, ErrIsDir)

	// The sub-handle keeps the image alive after the partition closes.
	require.NoError(t, part.Close())
	require.NoError(t, src.Close())
	n, err = h.ReadAt(buf[:4], 0)
	require.NoError(t, err)
	assert.Equal(t, "UCUS", string(buf[:n]))
	assert.Equal(t, 1, h.Refs())
	require.NoError(t, h.Close())
}

func TestReadFileLimit(t *testing.T) {
	t.Parallel()

	part, err := Open(testImage(t))
	require.NoError(t, err)
	defer func() { _ = part.Close() }()

	data, err := part.ReadFile("/UMD_DATA.BIN", 10)
	require.NoError(t, err)
	assert.Equal(t, "UCUS-98615", string(data))

	data, err = part.ReadFile("/PSP_GAME/SYSDIR/EBOOT.BIN", 0)
	require.NoError(t, err)
	assert.Len(t, data, 3000)
}

func TestDirectoryTooLarge(t *testing.T) {
	t.Parallel()

	img := testimage.ISO(testimage.ISOOptions{SystemID: "X"}, nil)
	root := img[PVDAddress+rootRecordOffset : PVDAddress+rootRecordOffset+rootRecordSize]
	testimage.Record(root, "\x00", 18, MaxDirSize+1, true)

	src := source.FromBytes("big.iso", img)
	defer func() { _ = src.Close() }()
	part, err := Open(src)
	require.NoError(t, err)
	defer func() { _ = part.Close() }()

	_, err = part.ReadDir("/")
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "README.TXT", displayName("README.TXT;1"))
	assert.Equal(t, "NOEXT", displayName("NOEXT.;1"))
	assert.Equal(t, "DIR", displayName("DIR"))
}
