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
	"bytes"
	"strconv"
	"strings"

	"github.com/ZaparooProject/go-romprops/fields"
)

// codeName pairs a header code letter with its display name. Lists of
// them define bitfield layouts.
type codeName struct {
	code byte
	name string
}

// segaDevices lists the peripheral codes of Mega Drive and Mega CD
// headers.
var segaDevices = []codeName{
	{'J', "3-button Controller"},
	{'6', "6-button Controller"},
	{'0', "Master System Controller"},
	{'A', "Analog Joystick"},
	{'4', "Multitap"},
	{'G', "Lightgun"},
	{'L', "Activator"},
	{'M', "Mouse"},
	{'B', "Trackball"},
	{'T', "Tablet"},
	{'V', "Paddle"},
	{'K', "Keyboard"},
	{'R', "RS-232"},
	{'P', "Printer"},
	{'C', "CD-ROM"},
	{'F', "Floppy Drive"},
	{'D', "Download"},
}

// segaRegionNames is the bitfield layout for region codes.
var segaRegionNames = []string{"Japan", "Asia", "USA", "Europe"}

const (
	segaRegionJapan  = 1 << 0
	segaRegionAsia   = 1 << 1
	segaRegionUSA    = 1 << 2
	segaRegionEurope = 1 << 3
)

// codeBits sets the bit of every entry of list whose code occurs in raw.
func codeBits(raw []byte, list []codeName) (names []string, bits uint32) {
	names = make([]string, len(list))
	for i, e := range list {
		names[i] = e.name
		if bytes.IndexByte(raw, e.code) >= 0 {
			bits |= 1 << i
		}
	}
	return names, bits
}

// segaRegionBits decodes a region field. Early titles list the letters
// J, U and E; later ones use a single hex digit bitmask.
func segaRegionBits(codes []byte) uint32 {
	var bits uint32
	trimmed := strings.TrimRight(string(codes), " \x00")
	if len(trimmed) == 1 && !strings.ContainsAny(trimmed, "JUE") {
		if v, err := strconv.ParseUint(trimmed, 16, 8); err == nil {
			return uint32(v)
		}
	}
	for _, c := range codes {
		switch c {
		case 'J':
			bits |= segaRegionJapan
		case 'U':
			bits |= segaRegionUSA
		case 'E':
			bits |= segaRegionEurope
		case 'T', 'K', 'A':
			bits |= segaRegionAsia
		}
	}
	return bits
}

func addSegaDevices(f *fields.Fields, codes []byte) {
	names, bits := codeBits(codes, segaDevices)
	f.AddBitfield("I/O Support", names, 3, bits)
}

func addSegaRegions(f *fields.Fields, codes []byte) {
	f.AddBitfield("Region Code", segaRegionNames, 0, segaRegionBits(codes))
}

// segaPublisher formats the company field. Third parties use "T-nn".
func segaPublisher(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "SEGA"):
		return "Sega"
	case strings.HasPrefix(raw, "T-"):
		code := strings.TrimSpace(strings.TrimPrefix(raw, "T-"))
		return "Third party " + code
	}
	return raw
}
