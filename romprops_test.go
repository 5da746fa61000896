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

package romprops

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-romprops/handler"
	"github.com/ZaparooProject/go-romprops/internal/testimage"
	"github.com/ZaparooProject/go-romprops/keys"
	"github.com/ZaparooProject/go-romprops/source"
)

func testISO() []byte {
	return testimage.ISO(testimage.ISOOptions{SystemID: "LINUX", VolumeID: "ZAPAROO"}, []testimage.File{
		{Path: "README.TXT", Data: []byte("hello")},
	})
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func zipFile(t *testing.T, name string, files ...testimage.File) string {
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
	return writeFile(t, name, buf.Bytes())
}

func volumeID(t *testing.T, h Handler) string {
	t.Helper()
	_, err := h.LoadFields()
	require.NoError(t, err)
	f, ok := h.Fields().Find("Volume ID")
	require.True(t, ok)
	return f.Text()
}

func TestOpen(t *testing.T) {
	t.Parallel()

	h, err := Open(writeFile(t, "disc.iso", testISO()), WithKeyStore(keys.Unloaded()))
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	assert.Equal(t, "ISO", h.ClassName())
	assert.Equal(t, handler.FileTypeDiscImage, h.FileType())
	assert.Equal(t, "ZAPAROO", volumeID(t, h))
}

func TestOpenArchiveMember(t *testing.T) {
	t.Parallel()

	zipPath := zipFile(t, "pack.zip",
		testimage.File{Path: "notes.txt", Data: []byte("notes")},
		testimage.File{Path: "discs/disc.iso", Data: testISO()},
	)

	h, err := Open(filepath.Join(zipPath, "discs", "disc.iso"), WithKeyStore(keys.Unloaded()))
	require.NoError(t, err)
	defer func() { _ = h.Close() }()
	assert.Equal(t, "ISO", h.ClassName())
	assert.Equal(t, "ZAPAROO", volumeID(t, h))

	_, err = Open(filepath.Join(zipPath, "missing.iso"), WithKeyStore(keys.Unloaded()))
	require.Error(t, err)

	// The archive itself is detected as an archive holding the disc.
	arc, err := Open(zipPath, WithKeyStore(keys.Unloaded()))
	require.NoError(t, err)
	defer func() { _ = arc.Close() }()
	assert.Equal(t, "Archive", arc.ClassName())
	assert.Equal(t, "ISO", arc.SystemName(handler.NameShort))
}

func TestOpenNotRecognized(t *testing.T) {
	t.Parallel()

	_, err := Open(writeFile(t, "notes.txt", []byte("just some text")), WithKeyStore(keys.Unloaded()))
	require.ErrorIs(t, err, ErrNotRecognized)
	assert.Contains(t, err.Error(), "notes.txt")

	_, err = Open(filepath.Join(t.TempDir(), "missing.iso"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotRecognized)
}

func TestOpenSource(t *testing.T) {
	t.Parallel()

	src := source.FromBytes("disc", testISO())
	h, err := OpenSource(src, "iso", WithKeyStore(keys.Unloaded()))
	require.NoError(t, err)
	require.NoError(t, src.Close())
	defer func() { _ = h.Close() }()

	// The handler keeps its own reference after the caller's is closed.
	assert.Equal(t, "ZAPAROO", volumeID(t, h))
}

func TestOpenMaxDepth(t *testing.T) {
	t.Parallel()

	zipPath := zipFile(t, "pack.zip", testimage.File{Path: "disc.iso", Data: testISO()})

	h, err := Open(zipPath, WithKeyStore(keys.Unloaded()), WithMaxDepth(1))
	require.NoError(t, err)
	defer func() { _ = h.Close() }()
	assert.Equal(t, "ZIP", h.SystemName(handler.NameShort))

	_, err = Open(zipPath, WithMaxDepth(0))
	require.Error(t, err)
}

func TestOpenMany(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "disc.iso")
	bad := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(good, testISO(), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte("just some text"), 0o600))
	paths := []string{good, bad, good}

	results, err := OpenMany(context.Background(), paths, WithKeyStore(keys.Unloaded()))
	require.NoError(t, err)
	defer CloseAll(results)
	require.Len(t, results, len(paths))

	for i, r := range results {
		assert.Equal(t, paths[i], r.Path)
	}
	require.NoError(t, results[0].Err)
	require.NoError(t, results[2].Err)
	require.ErrorIs(t, results[1].Err, ErrNotRecognized)
	assert.Nil(t, results[1].Handler)

	// Each path gets an independent handler.
	assert.NotSame(t, results[0].Handler, results[2].Handler)
	require.NoError(t, results[0].Handler.Close())
	assert.Equal(t, "ZAPAROO", volumeID(t, results[2].Handler))
}

func TestOpenManyCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := OpenMany(ctx, []string{writeFile(t, "disc.iso", testISO())}, WithKeyStore(keys.Unloaded()))
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)

	results, err = OpenMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestOpenWADWithKeysFile(t *testing.T) {
	t.Parallel()

	commonKey := []byte("0123456789abcdef")
	pair, err := keys.Encrypt(commonKey, nil)
	require.NoError(t, err)
	keysFile := writeFile(t, "keys.conf", []byte(
		"[Keys]\n"+handler.CommonKeyName+"="+hex.EncodeToString(commonKey)+"\n"+
			"[Verify]\n"+handler.CommonKeyName+"="+hex.EncodeToString(pair.Ciphertext)+"\n"))
	wadPath := writeFile(t, "channel.wad", testimage.WAD(testimage.WADOptions{
		CommonKey: commonKey,
		TitleKey:  []byte("zaparoo-title-ky"),
		Content:   testimage.Banner("Zaparoo Channel"),
		TitleID:   0x00010001_5A505245,
		Region:    1,
	}))

	h, err := Open(wadPath, WithConfig(&Config{KeysFile: keysFile}))
	require.NoError(t, err)
	defer func() { _ = h.Close() }()
	wad, ok := h.(*handler.WiiWAD)
	require.True(t, ok)
	assert.Equal(t, keys.VerifyOK, wad.KeyStatus())

	// An unreadable keys file leaves the store unloaded.
	h2, err := Open(wadPath, WithConfig(&Config{KeysFile: filepath.Join(t.TempDir(), "none.conf")}))
	require.NoError(t, err)
	defer func() { _ = h2.Close() }()
	wad2, ok := h2.(*handler.WiiWAD)
	require.True(t, ok)
	assert.Equal(t, keys.VerifyStoreNotLoaded, wad2.KeyStatus())
}

func TestFormats(t *testing.T) {
	t.Parallel()

	formats := Formats()
	require.Len(t, formats, len(handler.Registry()))
	assert.Equal(t, "WiiWAD", formats[0].Name)
	assert.Equal(t, "Application Package", formats[0].FileType)

	gba, ok := LookupFormat(" gameboyadvance ")
	require.True(t, ok)
	assert.Equal(t, "GameBoyAdvance", gba.Name)
	assert.Contains(t, gba.Extensions, ".gba")
	_, ok = LookupFormat("Dreamcast")
	assert.False(t, ok)

	// Lists are copies.
	formats[0].Extensions[0] = ".xyz"
	assert.NotEqual(t, ".xyz", Formats()[0].Extensions[0])
}

func TestFormatsForExtension(t *testing.T) {
	t.Parallel()

	names := func(infos []FormatInfo) []string {
		var out []string
		for _, f := range infos {
			out = append(out, f.Name)
		}
		return out
	}
	assert.Equal(t, []string{"GameBoyAdvance"}, names(FormatsForExtension("game.GBA")))
	assert.Equal(t,
		[]string{"GameCube", "SegaSaturn", "MegaCD", "PSP", "PlayStationDisc", "ISO"},
		names(FormatsForExtension("/roms/disc.iso")))
	assert.Empty(t, FormatsForExtension("README"))
	assert.Empty(t, FormatsForExtension("notes.txt"))
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    slog.Level
		wantErr bool
	}{
		{name: "debug", want: slog.LevelDebug},
		{name: "WARN", want: slog.LevelWarn},
		{name: " error ", want: slog.LevelError},
		{name: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLogLevel(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("ROMPROPS_KEYS_FILE", "/tmp/keys.conf")
	t.Setenv("ROMPROPS_MAX_DEPTH", "2")
	t.Setenv("ROMPROPS_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/keys.conf", cfg.KeysFile)
	assert.Equal(t, 2, cfg.MaxDepth)
	assert.Equal(t, "debug", cfg.LogLevel)

	s, err := newSettings([]Option{WithConfig(cfg)})
	require.NoError(t, err)
	assert.Equal(t, 2, s.maxDepth)
}

func TestSettingsDefaults(t *testing.T) {
	t.Parallel()

	s, err := newSettings(nil)
	require.NoError(t, err)
	assert.Equal(t, handler.DefaultMaxDepth, s.maxDepth)
	assert.NotNil(t, s.keys)
	assert.NotNil(t, s.logger)

	s, err = newSettings([]Option{WithConfig(nil), WithMaxDepth(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, s.maxDepth)
}
