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

// Package fields holds the normalized result of parsing a file: typed,
// named fields grouped into ordered tabs, plus decoded images.
package fields

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Kind is the type of a field's value.
type Kind uint8

const (
	KindString Kind = iota
	KindNumber
	KindBitfield
	KindListData
	KindDateTime
	KindNested
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBitfield:
		return "bitfield"
	case KindListData:
		return "list"
	case KindDateTime:
		return "datetime"
	case KindNested:
		return "nested"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Flags alter how a field is presented.
type Flags uint8

const (
	// Warning highlights the field.
	Warning Flags = 1 << iota
	// Monospace asks for a fixed-width font.
	Monospace
	// TrimEnd trims trailing whitespace from string values.
	TrimEnd
)

// Tab offsets for AddFieldsFrom.
const (
	// TabOffsetIgnore places every merged field in the current tab.
	TabOffsetIgnore = -1
	// TabOffsetAddTabs appends the other set's tabs as new tabs.
	TabOffsetAddTabs = -2
)

// Bitfield is a set of named bits.
type Bitfield struct {
	Names []string // bit i is named Names[i]; empty names are skipped
	// PerRow is the number of bits per display row; 0 means 4.
	PerRow int
	Value  uint32
}

// Set reports whether bit i is set.
func (b *Bitfield) Set(i int) bool {
	return i >= 0 && i < 32 && b.Value&(1<<uint(i)) != 0
}

// ListData is a table of strings with named columns.
type ListData struct {
	Columns []string
	Rows    [][]string
}

// DateTimeFlags select which parts of a timestamp are meaningful.
type DateTimeFlags uint8

const (
	HasDate DateTimeFlags = 1 << iota
	HasTime
	// IsUTC marks values with no meaningful local zone.
	IsUTC
)

// DateTime is a timestamp with display flags.
type DateTime struct {
	Time  time.Time
	Flags DateTimeFlags
}

// Number is an integer with display formatting.
type Number struct {
	Value  int64
	Base   int // 10 or 16
	Digits int // minimum digits, zero padded
}

// Field is one named, typed datum.
type Field struct {
	Bitfield *Bitfield
	List     *ListData
	Nested   *Fields
	DateTime *DateTime
	Name     string
	Str      string
	Number   Number
	Tab      int
	Kind     Kind
	Flags    Flags
}

// Text formats scalar values. Bitfields, lists and nested sets have no
// single-line form and render as a summary.
func (f *Field) Text() string {
	switch f.Kind {
	case KindString:
		if f.Flags&TrimEnd != 0 {
			return strings.TrimRight(f.Str, " \t\r\n")
		}
		return f.Str
	case KindNumber:
		if f.Number.Base == 16 {
			return fmt.Sprintf("0x%0*X", f.Number.Digits, f.Number.Value)
		}
		return fmt.Sprintf("%0*d", f.Number.Digits, f.Number.Value)
	case KindDateTime:
		return formatDateTime(f.DateTime)
	case KindBitfield:
		var set []string
		for i, name := range f.Bitfield.Names {
			if name != "" && f.Bitfield.Set(i) {
				set = append(set, name)
			}
		}
		return strings.Join(set, ", ")
	case KindListData:
		return fmt.Sprintf("%d rows", len(f.List.Rows))
	case KindNested:
		return fmt.Sprintf("%d fields", f.Nested.Len())
	default:
		return ""
	}
}

func formatDateTime(dt *DateTime) string {
	if dt == nil || dt.Time.IsZero() {
		return ""
	}
	t := dt.Time
	if dt.Flags&IsUTC != 0 {
		t = t.UTC()
	}
	switch {
	case dt.Flags&HasDate != 0 && dt.Flags&HasTime != 0:
		return t.Format("2006-01-02 15:04:05")
	case dt.Flags&HasTime != 0:
		return t.Format("15:04:05")
	default:
		return t.Format("2006-01-02")
	}
}

// Fields is an ordered collection of fields grouped into tabs. The zero
// value is not usable; call New.
type Fields struct {
	tabs   []string
	fields []Field
	tab    int
}

// New returns an empty collection with one unnamed tab.
func New() *Fields {
	return &Fields{tabs: []string{""}}
}

// Len returns the number of fields.
func (f *Fields) Len() int { return len(f.fields) }

// All returns a copy of the fields in insertion order.
func (f *Fields) All() []Field { return slices.Clone(f.fields) }

// InTab returns the fields of tab i in insertion order.
func (f *Fields) InTab(i int) []Field {
	var out []Field
	for _, fld := range f.fields {
		if fld.Tab == i {
			out = append(out, fld)
		}
	}
	return out
}

// Find returns the first field with the given name.
func (f *Fields) Find(name string) (Field, bool) {
	for _, fld := range f.fields {
		if fld.Name == name {
			return fld, true
		}
	}
	return Field{}, false
}

// TabCount returns the number of tabs.
func (f *Fields) TabCount() int { return len(f.tabs) }

// TabIndex returns the tab new fields are added to.
func (f *Fields) TabIndex() int { return f.tab }

// TabName returns the name of tab i, or "" when out of range.
func (f *Fields) TabName(i int) string {
	if i < 0 || i >= len(f.tabs) {
		return ""
	}
	return f.tabs[i]
}

// ReserveTabs grows the tab list to at least n tabs.
func (f *Fields) ReserveTabs(n int) {
	for len(f.tabs) < n {
		f.tabs = append(f.tabs, "")
	}
}

// SetTabName names tab i, creating tabs up to i as needed.
func (f *Fields) SetTabName(i int, name string) {
	if i < 0 {
		return
	}
	f.ReserveTabs(i + 1)
	f.tabs[i] = name
}

// SetTabIndex selects the tab new fields are added to, creating it if needed.
func (f *Fields) SetTabIndex(i int) {
	if i < 0 {
		return
	}
	f.ReserveTabs(i + 1)
	f.tab = i
}

// AddTab appends a named tab, selects it and returns its index. An unused
// unnamed first tab is reused.
func (f *Fields) AddTab(name string) int {
	if len(f.tabs) == 1 && f.tabs[0] == "" && len(f.fields) == 0 {
		f.tabs[0] = name
		f.tab = 0
		return 0
	}
	f.tabs = append(f.tabs, name)
	f.tab = len(f.tabs) - 1
	return f.tab
}

func (f *Fields) add(fld Field) int {
	fld.Tab = f.tab
	f.fields = append(f.fields, fld)
	return len(f.fields) - 1
}

// AddString appends a string field.
func (f *Fields) AddString(name, value string, flags ...Flags) int {
	return f.add(Field{Name: name, Kind: KindString, Str: value, Flags: joinFlags(flags)})
}

// AddWarning appends a string field flagged as a warning.
func (f *Fields) AddWarning(name, value string) int {
	return f.AddString(name, value, Warning)
}

// AddNumber appends a decimal number field.
func (f *Fields) AddNumber(name string, value int64, flags ...Flags) int {
	return f.add(Field{Name: name, Kind: KindNumber, Number: Number{Value: value, Base: 10}, Flags: joinFlags(flags)})
}

// AddHex appends a hexadecimal number field zero-padded to digits.
func (f *Fields) AddHex(name string, value int64, digits int, flags ...Flags) int {
	return f.add(Field{
		Name: name, Kind: KindNumber,
		Number: Number{Value: value, Base: 16, Digits: digits},
		Flags:  joinFlags(flags) | Monospace,
	})
}

// AddBitfield appends a bitfield field.
func (f *Fields) AddBitfield(name string, names []string, perRow int, value uint32) int {
	return f.add(Field{Name: name, Kind: KindBitfield, Bitfield: &Bitfield{Names: names, PerRow: perRow, Value: value}})
}

// AddListData appends a table field. Rows shorter than columns are padded.
func (f *Fields) AddListData(name string, columns []string, rows [][]string) int {
	norm := make([][]string, len(rows))
	for i, row := range rows {
		r := make([]string, len(columns))
		copy(r, row)
		norm[i] = r
	}
	return f.add(Field{Name: name, Kind: KindListData, List: &ListData{Columns: columns, Rows: norm}})
}

// AddDateTime appends a timestamp field. Zero times are skipped and -1 is
// returned.
func (f *Fields) AddDateTime(name string, t time.Time, flags DateTimeFlags) int {
	if t.IsZero() {
		return -1
	}
	return f.add(Field{Name: name, Kind: KindDateTime, DateTime: &DateTime{Time: t, Flags: flags}})
}

// AddNested appends another collection as a single field.
func (f *Fields) AddNested(name string, other *Fields) int {
	return f.add(Field{Name: name, Kind: KindNested, Nested: other})
}

// AddFieldsFrom appends every field of other. With TabOffsetIgnore they go
// into the current tab. With TabOffsetAddTabs other's tabs are appended
// after the existing ones and selected. Any other non-negative offset is
// added to each merged field's tab index and the current tab is left as
// is. Returns the number of fields added.
func (f *Fields) AddFieldsFrom(other *Fields, tabOffset int) int {
	if other == nil || other == f {
		return 0
	}
	addTabs := tabOffset == TabOffsetAddTabs
	switch {
	case addTabs:
		tabOffset = len(f.tabs)
		f.tabs = append(f.tabs, other.tabs...)
	case tabOffset < 0:
		tabOffset = TabOffsetIgnore
	default:
		f.ReserveTabs(tabOffset + len(other.tabs))
	}

	for _, fld := range other.fields {
		if tabOffset == TabOffsetIgnore {
			fld.Tab = f.tab
		} else {
			fld.Tab += tabOffset
		}
		f.fields = append(f.fields, fld)
	}
	if addTabs && len(other.tabs) > 0 {
		f.tab = len(f.tabs) - 1
	}
	return len(other.fields)
}

func joinFlags(flags []Flags) Flags {
	var out Flags
	for _, fl := range flags {
		out |= fl
	}
	return out
}
