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
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
)

// Volume descriptor geometry.
const (
	SectorSize = 2048
	// PVDAddress is the byte offset of the primary volume descriptor in a
	// 2048-byte sector image.
	PVDAddress = 16 * SectorSize

	descriptorTypePrimary = 1
	descriptorVersion     = 1
	rootRecordOffset      = 156
	rootRecordSize        = 34
)

// pvdMagic is a primary volume descriptor header: type 1, "CD001", version 1.
var pvdMagic = []byte{descriptorTypePrimary, 'C', 'D', '0', '0', '1', descriptorVersion}

// PVD is a parsed primary volume descriptor.
type PVD struct {
	Created           time.Time
	Modified          time.Time
	Expires           time.Time
	Effective         time.Time
	SystemID          string
	VolumeID          string
	VolumeSetID       string
	Publisher         string
	DataPreparer      string
	Application       string
	CopyrightFile     string
	AbstractFile      string
	BibliographicFile string
	RawSystemID       []byte // untrimmed, for exact comparisons
	root              dirRecord
	VolumeSpaceSize   uint32
	LogicalBlockSize  uint16
	VolumeSetSize     uint16
	VolumeSeqNumber   uint16
}

// IsPVD reports whether b starts with a primary volume descriptor header.
func IsPVD(b []byte) bool {
	return len(b) >= len(pvdMagic) && bytes.Equal(b[:len(pvdMagic)], pvdMagic)
}

// ParsePVD parses a 2048-byte primary volume descriptor.
func ParsePVD(b []byte) (*PVD, error) {
	if len(b) < SectorSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPVD, len(b))
	}
	if !IsPVD(b) {
		return nil, ErrPVDNotFound
	}

	root, ok := parseDirRecord(b[rootRecordOffset : rootRecordOffset+rootRecordSize])
	if !ok {
		return nil, fmt.Errorf("%w: bad root directory record", ErrInvalidPVD)
	}

	pvd := &PVD{
		RawSystemID:       bytes.Clone(b[8:40]),
		SystemID:          ibinary.TrimPadding(b[8:40]),
		VolumeID:          ibinary.TrimPadding(b[40:72]),
		VolumeSpaceSize:   binary.LittleEndian.Uint32(b[80:84]),
		VolumeSetSize:     binary.LittleEndian.Uint16(b[120:122]),
		VolumeSeqNumber:   binary.LittleEndian.Uint16(b[124:126]),
		LogicalBlockSize:  binary.LittleEndian.Uint16(b[128:130]),
		root:              root,
		VolumeSetID:       ibinary.TrimPadding(b[190:318]),
		Publisher:         ibinary.TrimPadding(b[318:446]),
		DataPreparer:      ibinary.TrimPadding(b[446:574]),
		Application:       ibinary.TrimPadding(b[574:702]),
		CopyrightFile:     ibinary.TrimPadding(b[702:739]),
		AbstractFile:      ibinary.TrimPadding(b[739:776]),
		BibliographicFile: ibinary.TrimPadding(b[776:813]),
		Created:           parseDecDateTime(b[813:830]),
		Modified:          parseDecDateTime(b[830:847]),
		Expires:           parseDecDateTime(b[847:864]),
		Effective:         parseDecDateTime(b[864:881]),
	}
	return pvd, nil
}

// UUID formats the creation timestamp the way disc databases key discs,
// e.g. "1998-07-23-16-08-19-00".
func (p *PVD) UUID() string {
	if p.Created.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d-%02d-%02d-%02d-%02d",
		p.Created.Year(), p.Created.Month(), p.Created.Day(),
		p.Created.Hour(), p.Created.Minute(), p.Created.Second(),
		p.Created.Nanosecond()/int(10*time.Millisecond))
}

// parseDecDateTime parses the 17-byte "YYYYMMDDHHMMSScc" + GMT offset form.
// Unset or malformed values yield the zero time.
func parseDecDateTime(b []byte) time.Time {
	if len(b) != 17 {
		return time.Time{}
	}
	digits := b[:16]
	if strings.Trim(string(digits), "0\x00 ") == "" {
		return time.Time{}
	}
	n := func(from, to int) (int, bool) {
		v := 0
		for _, c := range digits[from:to] {
			if c < '0' || c > '9' {
				return 0, false
			}
			v = v*10 + int(c-'0')
		}
		return v, true
	}
	var vals [7]int
	spans := [7][2]int{{0, 4}, {4, 6}, {6, 8}, {8, 10}, {10, 12}, {12, 14}, {14, 16}}
	for i, s := range spans {
		v, ok := n(s[0], s[1])
		if !ok {
			return time.Time{}
		}
		vals[i] = v
	}
	if vals[1] < 1 || vals[1] > 12 || vals[2] < 1 || vals[2] > 31 {
		return time.Time{}
	}
	loc := gmtOffset(int8(b[16]))
	return time.Date(vals[0], time.Month(vals[1]), vals[2], vals[3], vals[4], vals[5],
		vals[6]*int(10*time.Millisecond), loc)
}

// parseRecordDateTime parses the 7-byte directory record timestamp.
func parseRecordDateTime(b []byte) time.Time {
	if len(b) != 7 || (b[0] == 0 && b[1] == 0 && b[2] == 0) {
		return time.Time{}
	}
	if b[1] < 1 || b[1] > 12 || b[2] < 1 || b[2] > 31 {
		return time.Time{}
	}
	return time.Date(1900+int(b[0]), time.Month(b[1]), int(b[2]), int(b[3]), int(b[4]), int(b[5]), 0,
		gmtOffset(int8(b[6])))
}

// gmtOffset converts an offset in 15-minute units to a fixed zone.
func gmtOffset(quarters int8) *time.Location {
	if quarters == 0 || quarters < -48 || quarters > 52 {
		return time.UTC
	}
	return time.FixedZone("", int(quarters)*15*60)
}
