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

package binary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBytesAt(t *testing.T) {
	t.Parallel()

	r := bytes.NewReader([]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05})

	tests := []struct {
		name    string
		want    []byte
		offset  int64
		length  int
		wantErr bool
	}{
		{name: "from start", offset: 0, length: 3, want: []byte{0x00, 0x01, 0x02}},
		{name: "to end", offset: 3, length: 3, want: []byte{0x03, 0x04, 0x05}},
		{name: "past end", offset: 4, length: 5, wantErr: true},
		{name: "negative length", offset: 0, length: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ReadBytesAt(r, tt.offset, tt.length)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrShortRead)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadUpTo(t *testing.T) {
	t.Parallel()

	r := bytes.NewReader([]byte("abcdef"))
	got, err := ReadUpTo(r, 4, 10)
	require.NoError(t, err)
	assert.Equal(t, []byte("ef"), got)
}

func TestReadUint32At(t *testing.T) {
	t.Parallel()

	r := bytes.NewReader([]byte{0x12, 0x34, 0x56, 0x78})
	be, err := ReadUint32BEAt(r, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), be)

	le, err := ReadUint32LEAt(r, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x78563412), le)

	_, err = ReadUint32BEAt(r, 2)
	require.ErrorIs(t, err, ErrShortRead)
}

func TestHasAtAndWindow(t *testing.T) {
	t.Parallel()

	b := []byte("xxCD001yy")
	assert.True(t, HasAt(b, 2, []byte("CD001")))
	assert.False(t, HasAt(b, 5, []byte("CD001")))
	assert.False(t, HasAt(b, -1, []byte("x")))
	assert.Equal(t, []byte("CD"), Window(b, 2, 2))
	assert.Nil(t, Window(b, 8, 2))
}

func TestCleanString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "plain", input: []byte("HELLO"), want: "HELLO"},
		{name: "nul terminated", input: []byte("HELLO\x00WORLD"), want: "HELLO"},
		{name: "padded", input: []byte("  HELLO  "), want: "HELLO"},
		{name: "empty", input: []byte{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CleanString(tt.input))
		})
	}
}

func TestTrimPaddingAndPrintable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "PSP GAME", TrimPadding([]byte("PSP GAME    \x00\x00")))
	assert.Equal(t, "ABC", ExtractPrintable([]byte{0x01, 'A', 0xFF, 'B', 'C', 0x7F}))
}

func TestIsAlnum(t *testing.T) {
	t.Parallel()

	assert.True(t, IsAlnum([]byte("RMCE")))
	assert.True(t, IsAlnum([]byte("a1Z9")))
	assert.False(t, IsAlnum([]byte("HA-B")))
	assert.False(t, IsAlnum(nil))
}

func TestFindBytesInRange(t *testing.T) {
	t.Parallel()

	r := bytes.NewReader([]byte("....\x01CD001...."))
	off, err := FindBytesInRange(r, 0, 14, []byte("\x01CD001"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), off)

	off, err = FindBytesInRange(r, 6, 14, []byte("\x01CD001"))
	require.NoError(t, err)
	assert.Equal(t, int64(-1), off)
}

func TestTextDecoders(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Café", Latin1([]byte{'C', 'a', 'f', 0xE9, 0x00, 'x'}))
	assert.Equal(t, "ゲーム", ShiftJIS([]byte{0x83, 0x51, 0x81, 0x5B, 0x83, 0x80}))
	assert.Equal(t, "Wii", UTF16BE([]byte{0x00, 'W', 0x00, 'i', 0x00, 'i', 0x00, 0x00, 0x00, 'X'}))
}
