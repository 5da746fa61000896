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
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const defaultPerRow = 4

// Render writes f as aligned text, one section per non-empty tab.
func Render(w io.Writer, f *Fields) error {
	bw := bufio.NewWriter(w)
	renderFields(bw, f, "")
	return bw.Flush()
}

func renderFields(w *bufio.Writer, f *Fields, indent string) {
	width := 0
	for _, fld := range f.fields {
		width = max(width, utf8.RuneCountInString(fld.Name))
	}
	width += 2

	for tab := 0; tab < f.TabCount(); tab++ {
		tabFields := f.InTab(tab)
		if len(tabFields) == 0 {
			continue
		}
		if name := f.TabName(tab); name != "" {
			fmt.Fprintf(w, "%s-- %s --\n", indent, name)
		}
		for i := range tabFields {
			renderField(w, &tabFields[i], width, indent)
		}
	}
}

func label(name string, width int) string {
	return name + strings.Repeat(" ", max(0, width-utf8.RuneCountInString(name))) + ":"
}

func renderField(w *bufio.Writer, fld *Field, width int, indent string) {
	prefix := ""
	if fld.Flags&Warning != 0 {
		prefix = "WARNING: "
	}
	fmt.Fprintf(w, "%s%s%s", indent, prefix, label(fld.Name, width))

	switch fld.Kind {
	case KindBitfield:
		renderBitfield(w, fld.Bitfield, indent+strings.Repeat(" ", len(prefix)+width+1))
	case KindListData:
		renderList(w, fld.List, indent+strings.Repeat(" ", width+1))
	case KindNested:
		fmt.Fprintln(w)
		renderFields(w, fld.Nested, indent+"  ")
	case KindString:
		fmt.Fprintf(w, " '%s'\n", fld.Text())
	default:
		fmt.Fprintf(w, " %s\n", fld.Text())
	}
}

func renderBitfield(w *bufio.Writer, b *Bitfield, pad string) {
	perRow := b.PerRow
	if perRow <= 0 {
		perRow = defaultPerRow
	}
	var names []string
	var set []bool
	for i, name := range b.Names {
		if name == "" {
			continue
		}
		names = append(names, name)
		set = append(set, b.Set(i))
	}
	cols := make([]int, perRow)
	for i, name := range names {
		cols[i%perRow] = max(cols[i%perRow], utf8.RuneCountInString(name))
	}
	for i, name := range names {
		if i > 0 && i%perRow == 0 {
			fmt.Fprintf(w, "\n%s", pad)
		}
		mark := ' '
		if set[i] {
			mark = '*'
		}
		fmt.Fprintf(w, " [%c] %-*s", mark, cols[i%perRow], name)
	}
	fmt.Fprintln(w)
}

func renderList(w *bufio.Writer, l *ListData, pad string) {
	cols := make([]int, len(l.Columns))
	for i, c := range l.Columns {
		cols[i] = utf8.RuneCountInString(c)
	}
	for _, row := range l.Rows {
		for i, cell := range row {
			if i < len(cols) {
				cols[i] = max(cols[i], utf8.RuneCountInString(cell))
			}
		}
	}
	total := len(cols) + 1
	for _, c := range cols {
		total += c
	}

	writeRow := func(cells []string) {
		for i, c := range cols {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			fmt.Fprintf(w, "|%-*s", c, cell)
		}
		fmt.Fprintln(w, "|")
	}
	fmt.Fprint(w, " ")
	writeRow(l.Columns)
	fmt.Fprintf(w, "%s %s\n", pad, strings.Repeat("-", total))
	for _, row := range l.Rows {
		fmt.Fprintf(w, "%s ", pad)
		writeRow(row)
	}
}
