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
	"encoding/binary"
	"fmt"

	"github.com/ZaparooProject/go-romprops/fields"
	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
	"github.com/ZaparooProject/go-romprops/source"
)

// Disc header (boot.bin) and bi2.bin layout shared by GameCube and Wii.
const (
	gcnGameIDSize   = 6
	gcnDiscNumber   = 0x06
	gcnRevision     = 0x07
	gcnAudioStream  = 0x08
	gcnWiiMagicOff  = 0x18
	gcnMagicOff     = 0x1C
	gcnTitleOffset  = 0x20
	gcnTitleSize    = 0x3E0
	gcnDOLOffset    = 0x420
	gcnFSTOffset    = 0x424
	gcnFSTSize      = 0x428
	gcnBI2Region    = 0x458
	gcnHeaderRead   = gcnBI2Region + 4
	gcnRegionJapan  = 0
	gcnRegionUSA    = 1
	gcnRegionPAL    = 2
	gcnRegionFree   = 3
	gcnRegionKorea  = 4
	gcnRegionsCount = 5
)

var (
	gcnMagic = []byte{0xC2, 0x33, 0x9F, 0x3D}
	wiiMagic = []byte{0x5D, 0x1C, 0x9E, 0xA3}
)

var gcnRegionNames = [gcnRegionsCount]string{
	gcnRegionJapan: "Japan",
	gcnRegionUSA:   "USA",
	gcnRegionPAL:   "Europe",
	gcnRegionFree:  "Region-Free",
	gcnRegionKorea: "South Korea",
}

func gameCubeDescriptor() Descriptor {
	return Descriptor{
		Name:       "GameCube",
		Probe:      probeGameCube,
		New:        newGameCube,
		Extensions: []string{".gcm", ".gcz", ".iso", ".rvm", ".wbfs"},
		MIMETypes:  []string{"application/x-gamecube-rom", "application/x-wii-rom"},
		FileType:   FileTypeDiscImage,
	}
}

func probeGameCube(info *Info) int {
	if ibinary.HasAt(info.Header, gcnMagicOff, gcnMagic) || ibinary.HasAt(info.Header, gcnWiiMagicOff, wiiMagic) {
		return ScoreConfident
	}
	return ScoreNone
}

// GameCube reads unencrypted GameCube disc images and the boot headers of
// Wii disc images.
type GameCube struct {
	header []byte
	wii    bool
	base
}

func newGameCube(ctx *Context, src *source.Handle) Handler {
	h := &GameCube{}
	h.construct(ctx, src, h, "GameCube", FileTypeDiscImage, h.parse)
	return h
}

func (h *GameCube) parse() error {
	header, err := ibinary.ReadBytesAt(h.src, 0, gcnHeaderRead)
	if err != nil {
		return err
	}
	switch {
	case ibinary.HasAt(header, gcnWiiMagicOff, wiiMagic):
		h.wii = true
		h.setNames("Nintendo Wii", "Wii", "Wii")
	case ibinary.HasAt(header, gcnMagicOff, gcnMagic):
		h.setNames("Nintendo GameCube", "GameCube", "GCN")
	default:
		return formatErr("GameCube", "no disc magic")
	}
	h.header = header
	return nil
}

// GameID returns the six-character game ID, e.g. "GALE01".
func (h *GameCube) GameID() string {
	return ibinary.CleanString(h.header[:gcnGameIDSize])
}

// IsWii reports whether the image is a Wii disc.
func (h *GameCube) IsWii() bool { return h.wii }

// title decodes the internal title. Japanese and Taiwanese releases use
// Shift-JIS.
func (h *GameCube) title() string {
	raw := h.header[gcnTitleOffset : gcnTitleOffset+gcnTitleSize]
	switch h.header[3] {
	case 'J', 'W':
		return ibinary.ShiftJIS(raw)
	default:
		return ibinary.Latin1(raw)
	}
}

func (h *GameCube) loadFields(f *fields.Fields) error {
	hdr := h.header
	be := binary.BigEndian
	if h.wii {
		f.AddTab("Wii")
	} else {
		f.AddTab("GameCube")
	}
	f.AddString("Title", h.title())
	f.AddString("Game ID", h.GameID())
	f.AddString("Publisher Code", ibinary.CleanString(hdr[4:6]))
	f.AddNumber("Disc Number", int64(hdr[gcnDiscNumber])+1)
	f.AddNumber("Revision", int64(hdr[gcnRevision]))
	if hdr[gcnAudioStream] != 0 {
		f.AddString("Audio Streaming", "Yes")
	}

	region := be.Uint32(hdr[gcnBI2Region:])
	if region < gcnRegionsCount {
		f.AddString("Region", gcnRegionNames[region])
	} else {
		f.AddString("Region", fmt.Sprintf("Unknown (0x%08X)", region))
	}

	// Wii keeps these inside the encrypted game partition.
	if !h.wii {
		f.AddHex("Boot DOL Offset", int64(be.Uint32(hdr[gcnDOLOffset:])), 8, fields.Monospace)
		f.AddHex("FST Offset", int64(be.Uint32(hdr[gcnFSTOffset:])), 8, fields.Monospace)
		f.AddNumber("FST Size", int64(be.Uint32(hdr[gcnFSTSize:])))
	}
	return nil
}
