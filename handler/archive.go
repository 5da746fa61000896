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
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/ZaparooProject/go-romprops/archive"
	"github.com/ZaparooProject/go-romprops/fields"
	"github.com/ZaparooProject/go-romprops/source"
)

const (
	// maxArchiveTries bounds how many members are run through detection.
	maxArchiveTries = 8
	// maxListedMembers bounds the member list field.
	maxListedMembers = 256
)

func archiveDescriptor() Descriptor {
	return Descriptor{
		Name:       "Archive",
		Probe:      probeArchive,
		New:        newArchive,
		Extensions: []string{".zip", ".7z", ".rar"},
		MIMETypes:  []string{"application/zip", "application/x-7z-compressed", "application/vnd.rar"},
		FileType:   FileTypeArchive,
	}
}

func probeArchive(info *Info) int {
	if _, ok := archive.DetectFormat(info.Header); ok {
		return ScoreConfident
	}
	return ScoreNone
}

// Archive reads ZIP, 7z and RAR archives and identifies the first member
// in a recognized format.
type Archive struct {
	arc     archive.Archive
	members []archive.FileInfo
	member  string
	wrapped
	base
}

func newArchive(ctx *Context, src *source.Handle) Handler {
	h := &Archive{}
	h.construct(ctx, src, h, "Archive", FileTypeArchive, h.parse)
	return h
}

func (h *Archive) parse() error {
	arc, err := archive.Open(h.src, h.src.Size(), h.src.Name())
	if err != nil {
		return err
	}
	h.own(arc)
	h.arc = arc
	if h.members, err = arc.List(); err != nil {
		return err
	}

	for _, m := range candidates(h.members) {
		inner, err := h.detectMember(m)
		if err != nil {
			h.log().Debug("archive member not recognized", "member", m.Name, "err", err)
			continue
		}
		h.inner, h.member = inner, m.Name
		break
	}
	kind := arc.Format().String()
	names := h.innerNames([numNameVariants]string{kind + " Archive", kind, kind})
	h.setNames(names[NameLong], names[NameShort], names[NameAbbrev])
	return nil
}

// candidates orders members for detection. Members with an extension some
// format claims come first; oversized members are skipped.
func candidates(members []archive.FileInfo) []archive.FileInfo {
	known := make(map[string]bool)
	for _, d := range registry {
		for _, ext := range d.Extensions {
			known[ext] = true
		}
	}
	var out []archive.FileInfo
	for _, m := range members {
		if m.Size > 0 && m.Size <= archive.MaxMemberSize {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b archive.FileInfo) int {
		ka, kb := known[strings.ToLower(path.Ext(a.Name))], known[strings.ToLower(path.Ext(b.Name))]
		switch {
		case ka == kb:
			return 0
		case ka:
			return -1
		default:
			return 1
		}
	})
	return out[:min(len(out), maxArchiveTries)]
}

// detectMember buffers m and runs detection over it.
func (h *Archive) detectMember(m archive.FileInfo) (Handler, error) {
	data, err := archive.ReadFile(h.arc, m.Name, 0)
	if err != nil {
		return nil, err
	}
	mem := source.FromBytes(h.src.Name()+"!"+m.Name, data)
	defer func() { _ = mem.Close() }()
	return h.detectNested(mem, path.Ext(m.Name))
}

// Member returns the path of the identified member, or "".
func (h *Archive) Member() string { return h.member }

func (h *Archive) loadFields(f *fields.Fields) error {
	f.AddTab("Archive")
	f.AddString("Format", h.arc.Format().String())
	f.AddNumber("Members", int64(len(h.members)))
	rows := make([][]string, 0, min(len(h.members), maxListedMembers))
	for _, m := range h.members[:min(len(h.members), maxListedMembers)] {
		rows = append(rows, []string{m.Name, fmt.Sprint(m.Size)})
	}
	if len(rows) > 0 {
		f.AddListData("Contents", []string{"Name", "Size"}, rows)
	}
	if h.member == "" {
		f.AddString("Identified Member", "None")
		return nil
	}
	f.AddString("Identified Member", h.member)
	if err := h.addInnerFields(f); err != nil {
		h.log().Warn("member fields unavailable", "member", h.member, "err", err)
	}
	return nil
}
