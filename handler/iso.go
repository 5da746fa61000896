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
	"github.com/ZaparooProject/go-romprops/disc"
	"github.com/ZaparooProject/go-romprops/fields"
	"github.com/ZaparooProject/go-romprops/iso9660"
	"github.com/ZaparooProject/go-romprops/source"
)

func isoDescriptor() Descriptor {
	return Descriptor{
		Name:       "ISO",
		Probe:      probeISO,
		New:        newISO,
		Extensions: []string{".iso", ".iso9660", ".bin", ".img"},
		MIMETypes:  []string{"application/x-cd-image", "application/x-iso9660-image"},
		FileType:   FileTypeDiscImage,
	}
}

func probeISO(info *Info) int {
	if hasPVD(info.Header) {
		return ScoreConfident
	}
	return ScoreNone
}

// ISO reads generic ISO-9660 disc images.
type ISO struct {
	part   *iso9660.Partition
	format disc.Format
	base
}

func newISO(ctx *Context, src *source.Handle) Handler {
	h := &ISO{}
	h.construct(ctx, src, h, "ISO", FileTypeDiscImage, h.parse)
	return h
}

func (h *ISO) parse() error {
	opened, err := h.openDisc()
	if err != nil {
		return err
	}
	h.format = opened.Format
	part, err := h.openPartition(opened.Handle)
	if err != nil {
		return err
	}
	h.part = part
	h.setNames("ISO-9660", "ISO", "ISO")
	return nil
}

// PVD returns the primary volume descriptor.
func (h *ISO) PVD() *iso9660.PVD {
	if h.part == nil {
		return nil
	}
	return h.part.PVD()
}

func (h *ISO) loadFields(f *fields.Fields) error {
	pvd := h.part.PVD()
	f.AddTab("ISO-9660")
	f.AddString("System ID", pvd.SystemID)
	f.AddString("Volume ID", pvd.VolumeID)
	f.AddString("Volume Set ID", pvd.VolumeSetID)
	f.AddString("Publisher", pvd.Publisher)
	f.AddString("Data Preparer", pvd.DataPreparer)
	f.AddString("Application", pvd.Application)
	f.AddString("Copyright File", pvd.CopyrightFile)
	f.AddString("Abstract File", pvd.AbstractFile)
	f.AddString("Bibliographic File", pvd.BibliographicFile)
	f.AddNumber("Volume Size", int64(pvd.VolumeSpaceSize))
	f.AddNumber("Block Size", int64(pvd.LogicalBlockSize))
	const dt = fields.HasDate | fields.HasTime
	f.AddDateTime("Creation Time", pvd.Created, dt)
	f.AddDateTime("Modification Time", pvd.Modified, dt)
	f.AddDateTime("Expiration Time", pvd.Expires, dt)
	f.AddDateTime("Effective Time", pvd.Effective, dt)
	if uuid := pvd.UUID(); uuid != "" {
		f.AddString("UUID", uuid, fields.Monospace)
	}
	if h.format != disc.FormatPlain {
		f.AddString("Container", h.format.String())
	}
	if platform := platformHint(h.part); platform != "" {
		f.AddString("Platform", platform)
	}
	return nil
}
