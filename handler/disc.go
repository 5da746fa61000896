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
	"strings"

	"github.com/ZaparooProject/go-romprops/disc"
	"github.com/ZaparooProject/go-romprops/fields"
	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
	"github.com/ZaparooProject/go-romprops/iso9660"
	"github.com/ZaparooProject/go-romprops/source"
)

const (
	// discHeaderSize covers every container header disc.Open inspects.
	discHeaderSize = 256
	// Raw 2352-byte images carry the PVD after the sync and header bytes
	// of sector 16: +16 for Mode 1, +24 for Mode 2 Form 1.
	rawPVDMode1 = 16*2352 + 16
	rawPVDMode2 = 16*2352 + 24
)

// hasPVD reports whether the detection window holds an ISO-9660 primary
// volume descriptor, cooked or raw.
func hasPVD(header []byte) bool {
	for _, off := range []int{iso9660.PVDAddress, rawPVDMode1, rawPVDMode2} {
		if iso9660.IsPVD(ibinary.Window(header, off, iso9660.SectorSize)) {
			return true
		}
	}
	return false
}

// pvdWindow returns the PVD bytes from the detection window, or nil.
func pvdWindow(header []byte) []byte {
	for _, off := range []int{iso9660.PVDAddress, rawPVDMode1, rawPVDMode2} {
		if w := ibinary.Window(header, off, iso9660.SectorSize); iso9660.IsPVD(w) {
			return w
		}
	}
	return nil
}

// openDisc unwraps any compression or raw sector container around the
// handler's input. The cooked handle is owned by b.
func (b *base) openDisc() (*disc.Opened, error) {
	header, err := ibinary.ReadUpTo(b.src, 0, discHeaderSize)
	if err != nil {
		return nil, err
	}
	opened, err := disc.Open(b.src, header, disc.Options{})
	if err != nil {
		return nil, err
	}
	b.own(opened.Handle)
	return opened, nil
}

// openPartition mounts the ISO-9660 filesystem of a cooked disc. The
// partition is owned by b.
func (b *base) openPartition(h *source.Handle) (*iso9660.Partition, error) {
	part, err := iso9660.Open(h)
	if err != nil {
		return nil, err
	}
	b.own(part)
	return part, nil
}

// platformHint guesses the console a plain ISO-9660 disc belongs to from
// marker files in its root directory.
func platformHint(part *iso9660.Partition) string {
	entries, err := part.ReadDir("/")
	if err != nil {
		return ""
	}
	for _, e := range entries {
		switch strings.ToUpper(e.Name) {
		case "UMD_DATA.BIN":
			return "PlayStation Portable"
		case "IPL.TXT":
			return "Neo Geo CD"
		case "SYSTEM.CNF":
			data, err := part.ReadFile("/SYSTEM.CNF", maxSystemCNF)
			if err != nil {
				continue
			}
			content := strings.ToUpper(string(data))
			if strings.Contains(content, "BOOT2") {
				return "PlayStation 2"
			}
			if strings.Contains(content, "BOOT") {
				return "PlayStation"
			}
		}
	}
	return ""
}

// addISOFields appends the ISO-9660 tab of a cooked disc as extra tabs.
// Discs without a readable filesystem add nothing.
func (b *base) addISOFields(f *fields.Fields, cooked *source.Handle) {
	iso := newISO(b.ctx, cooked)
	defer func() { _ = iso.Close() }()
	if !iso.IsValid() {
		return
	}
	if _, err := iso.LoadFields(); err != nil {
		b.log().Debug("ISO-9660 fields unavailable", "err", err)
		return
	}
	f.AddFieldsFrom(iso.Fields(), fields.TabOffsetAddTabs)
}
