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

package fields

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertionOrder(t *testing.T) {
	t.Parallel()

	f := New()
	f.AddTab("Main")
	f.AddString("Title", "Game")
	f.AddNumber("Size", 42)
	f.AddString("Title", "Duplicate")

	all := f.All()
	require.Len(t, all, 3)
	assert.Equal(t, "Game", all[0].Str)
	assert.Equal(t, "42", all[1].Text())
	assert.Equal(t, "Duplicate", all[2].Str)

	first, ok := f.Find("Title")
	require.True(t, ok)
	assert.Equal(t, "Game", first.Str)
	_, ok = f.Find("Missing")
	assert.False(t, ok)
}

func TestAllReturnsCopy(t *testing.T) {
	t.Parallel()

	f := New()
	f.AddString("Title", "Game")

	all := f.All()
	all[0].Str = "Changed"

	assert.Equal(t, "Game", f.All()[0].Str)
	fld, ok := f.Find("Title")
	require.True(t, ok)
	assert.Equal(t, "Game", fld.Str)
	assert.Equal(t, 1, f.Len())
}

func TestAddTabReusesUnnamedFirstTab(t *testing.T) {
	t.Parallel()

	f := New()
	assert.Equal(t, 0, f.AddTab("First"))
	assert.Equal(t, 1, f.AddTab("Second"))
	assert.Equal(t, 2, f.TabCount())
	assert.Equal(t, "Second", f.TabName(1))
	assert.Empty(t, f.TabName(5))
}

func TestAddFieldsFromIgnore(t *testing.T) {
	t.Parallel()

	inner := New()
	inner.AddTab("A")
	inner.AddString("a", "1")
	inner.AddTab("B")
	inner.AddString("b", "2")

	outer := New()
	outer.AddTab("Outer")
	outer.AddString("o", "0")
	n := outer.AddFieldsFrom(inner, TabOffsetIgnore)

	assert.Equal(t, 2, n)
	assert.Equal(t, 1, outer.TabCount())
	assert.Len(t, outer.InTab(0), 3)
}

func TestAddFieldsFromAddTabs(t *testing.T) {
	t.Parallel()

	inner := New()
	inner.AddTab("ISO-9660")
	inner.AddString("Volume ID", "VOL")
	inner.AddTab("Extra")
	inner.AddString("x", "y")

	outer := New()
	outer.AddTab("PSP")
	outer.AddString("Game ID", "UCUS-98615")
	outer.AddFieldsFrom(inner, TabOffsetAddTabs)

	require.Equal(t, 3, outer.TabCount())
	assert.Equal(t, "ISO-9660", outer.TabName(1))
	assert.Equal(t, "Extra", outer.TabName(2))
	assert.Equal(t, 2, outer.TabIndex())

	vol, ok := outer.Find("Volume ID")
	require.True(t, ok)
	assert.Equal(t, 1, vol.Tab)
	x, _ := outer.Find("x")
	assert.Equal(t, 2, x.Tab)

	// The source set is unchanged.
	v, _ := inner.Find("Volume ID")
	assert.Equal(t, 0, v.Tab)
}

func TestAddFieldsFromExplicitOffset(t *testing.T) {
	t.Parallel()

	exe := New()
	exe.AddTab("ELF")
	exe.AddString("Machine", "MIPS")
	exe.AddTab("Sections")
	exe.AddListData("Sections", []string{"Name"}, [][]string{{".text"}})

	outer := New()
	outer.AddTab("PSP")
	outer.AddString("Game ID", "ULUS")
	for i := 1; i < exe.TabCount(); i++ {
		outer.SetTabName(i, exe.TabName(i))
	}
	outer.SetTabIndex(0)
	outer.AddFieldsFrom(exe, 0)

	assert.Equal(t, 0, outer.TabIndex())
	assert.Equal(t, "PSP", outer.TabName(0))
	assert.Equal(t, "Sections", outer.TabName(1))
	assert.Len(t, outer.InTab(0), 2)
	assert.Len(t, outer.InTab(1), 1)
}

func TestAddFieldsFromSelf(t *testing.T) {
	t.Parallel()

	f := New()
	f.AddString("a", "b")
	assert.Equal(t, 0, f.AddFieldsFrom(f, TabOffsetAddTabs))
	assert.Equal(t, 0, f.AddFieldsFrom(nil, 0))
	assert.Equal(t, 1, f.Len())
}

func TestFieldText(t *testing.T) {
	t.Parallel()

	when := time.Date(2006, time.May, 4, 3, 2, 1, 0, time.UTC)
	tests := []struct {
		name  string
		field Field
		want  string
	}{
		{"string", Field{Kind: KindString, Str: "abc  "}, "abc  "},
		{"trim end", Field{Kind: KindString, Str: "abc  ", Flags: TrimEnd}, "abc"},
		{"decimal", Field{Kind: KindNumber, Number: Number{Value: 7, Base: 10}}, "7"},
		{"hex", Field{Kind: KindNumber, Number: Number{Value: 0x1F, Base: 16, Digits: 8}}, "0x0000001F"},
		{"date", Field{Kind: KindDateTime, DateTime: &DateTime{Time: when, Flags: HasDate}}, "2006-05-04"},
		{"datetime", Field{Kind: KindDateTime, DateTime: &DateTime{Time: when, Flags: HasDate | HasTime | IsUTC}}, "2006-05-04 03:02:01"},
		{"bitfield", Field{Kind: KindBitfield, Bitfield: &Bitfield{Names: []string{"A", "", "C"}, Value: 0b101}}, "A, C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.field.Text())
		})
	}
}

func TestAddDateTimeSkipsZero(t *testing.T) {
	t.Parallel()

	f := New()
	assert.Equal(t, -1, f.AddDateTime("Created", time.Time{}, HasDate))
	assert.Equal(t, 0, f.Len())
}

func TestAddListDataPadsRows(t *testing.T) {
	t.Parallel()

	f := New()
	f.AddListData("Contents", []string{"A", "B"}, [][]string{{"1"}})
	fld, _ := f.Find("Contents")
	assert.Equal(t, []string{"1", ""}, fld.List.Rows[0])
}

func TestRender(t *testing.T) {
	t.Parallel()

	f := New()
	f.AddTab("WAD")
	f.AddWarning("Warning", "no key")
	f.AddString("Title ID", "00010001-52414241")
	f.AddBitfield("Access", []string{"AHBPROT", "DVD Video"}, 0, 1)
	f.AddListData("Contents", []string{"#", "Type"}, [][]string{{"0", "Normal"}, {"1", "Shared"}})
	f.AddTab("Empty")

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, f))
	out := buf.String()

	assert.Contains(t, out, "-- WAD --")
	assert.NotContains(t, out, "-- Empty --")
	assert.Contains(t, out, "WARNING: Warning")
	assert.Contains(t, out, "'00010001-52414241'")
	assert.Contains(t, out, "[*] AHBPROT")
	assert.Contains(t, out, "[ ] DVD Video")
	assert.Contains(t, out, "|#|Type  |")
	assert.Contains(t, out, "|1|Shared|")
	assert.Equal(t, 8, strings.Count(out, "\n"))
}
