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
	"strings"

	"github.com/ZaparooProject/go-romprops/chd"
	"github.com/ZaparooProject/go-romprops/disc"
	"github.com/ZaparooProject/go-romprops/fields"
	"github.com/ZaparooProject/go-romprops/source"
)

func chdDescriptor() Descriptor {
	return Descriptor{
		Name:       "CHD",
		Probe:      probeCHD,
		New:        newCHD,
		Extensions: []string{".chd"},
		MIMETypes:  []string{"application/x-mame-chd"},
		FileType:   FileTypeContainer,
	}
}

func probeCHD(info *Info) int {
	if chd.IsCHD(info.Header) {
		return ScoreConfident
	}
	return ScoreNone
}

// CHDImage reads MAME CHD disc images and identifies their first data
// track.
type CHDImage struct {
	image *chd.CHD
	wrapped
	base
}

func newCHD(ctx *Context, src *source.Handle) Handler {
	h := &CHDImage{}
	h.construct(ctx, src, h, "CHD", FileTypeContainer, h.parse)
	return h
}

func (h *CHDImage) parse() error {
	track, image, err := disc.OpenCHD(h.src)
	if err != nil {
		return err
	}
	h.own(track)
	h.image = image

	// An unrecognized payload leaves a valid container.
	inner, err := h.detectNested(track, ".iso")
	if err != nil {
		h.log().Debug("CHD payload not recognized", "err", err)
	}
	h.inner = inner
	names := h.innerNames([numNameVariants]string{"MAME Compressed Hunks of Data", "CHD", "CHD"})
	h.setNames(names[NameLong], names[NameShort], names[NameAbbrev])
	return nil
}

// Header returns the parsed CHD header.
func (h *CHDImage) Header() *chd.Header { return h.image.Header() }

func (h *CHDImage) loadFields(f *fields.Fields) error {
	hdr := h.image.Header()
	f.AddTab("CHD")
	f.AddNumber("Version", int64(hdr.Version))
	if codecs := hdr.CodecNames(); len(codecs) > 0 {
		f.AddString("Compression", strings.Join(codecs, ", "))
	} else {
		f.AddString("Compression", "None")
	}
	f.AddNumber("Hunk Size", int64(hdr.HunkBytes))
	f.AddNumber("Logical Size", int64(hdr.LogicalBytes)) //nolint:gosec // Display only
	f.AddString("SHA-1", fmt.Sprintf("%x", hdr.SHA1), fields.Monospace)

	if tracks := h.image.Tracks(); len(tracks) > 0 {
		rows := make([][]string, len(tracks))
		for i, t := range tracks {
			rows[i] = []string{fmt.Sprint(t.Number), t.Type, t.SubType, fmt.Sprint(t.Frames)}
		}
		f.AddListData("Tracks", []string{"#", "Type", "Subchannel", "Frames"}, rows)
	}
	if err := h.image.TrackError(); err != nil {
		f.AddWarning("Track Metadata", err.Error())
	}
	if err := h.addInnerFields(f); err != nil {
		h.log().Warn("CHD payload fields unavailable", "err", err)
	}
	return nil
}
