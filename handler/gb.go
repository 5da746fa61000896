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
	"errors"
	"fmt"
	"io"

	"github.com/ZaparooProject/go-romprops/fields"
	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
	"github.com/ZaparooProject/go-romprops/source"
)

// Game Boy cartridge header, at 0x100 in every ROM.
const (
	gbHeaderSize      = 0x150
	gbLogoOffset      = 0x104
	gbTitleOffset     = 0x134
	gbMakerOffset     = 0x13F
	gbCGBOffset       = 0x143
	gbNewLicensee     = 0x144
	gbSGBOffset       = 0x146
	gbCartTypeOffset  = 0x147
	gbROMSizeOffset   = 0x148
	gbRAMSizeOffset   = 0x149
	gbRegionOffset    = 0x14A
	gbOldLicensee     = 0x14B
	gbVersionOffset   = 0x14C
	gbHeaderChkOffset = 0x14D
	gbGlobalChkOffset = 0x14E
	gbUseNewLicensee  = 0x33
	gbMaxROMSize      = 8 * 1024 * 1024
)

var gbNintendoLogo = []byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B,
	0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E,
	0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC,
	0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

var gbCartridgeTypes = map[byte]string{
	0x00: "ROM",
	0x01: "MBC1",
	0x02: "MBC1 + RAM",
	0x03: "MBC1 + RAM + Battery",
	0x05: "MBC2",
	0x06: "MBC2 + Battery",
	0x08: "ROM + RAM",
	0x09: "ROM + RAM + Battery",
	0x0B: "MMM01",
	0x0C: "MMM01 + RAM",
	0x0D: "MMM01 + RAM + Battery",
	0x0F: "MBC3 + Timer + Battery",
	0x10: "MBC3 + Timer + RAM + Battery",
	0x11: "MBC3",
	0x12: "MBC3 + RAM",
	0x13: "MBC3 + RAM + Battery",
	0x19: "MBC5",
	0x1A: "MBC5 + RAM",
	0x1B: "MBC5 + RAM + Battery",
	0x1C: "MBC5 + Rumble",
	0x1D: "MBC5 + Rumble + RAM",
	0x1E: "MBC5 + Rumble + RAM + Battery",
	0x20: "MBC6",
	0x22: "MBC7 + Sensor + Rumble + RAM + Battery",
	0xFC: "Pocket Camera",
	0xFD: "Bandai TAMA5",
	0xFE: "HuC3",
	0xFF: "HuC1 + RAM + Battery",
}

var gbNewLicensees = map[string]string{
	"00": "None",
	"01": "Nintendo R&D1",
	"08": "Capcom",
	"13": "Electronic Arts",
	"18": "Hudson Soft",
	"19": "b-ai",
	"20": "kss",
	"22": "pow",
	"24": "PCM Complete",
	"25": "san-x",
	"28": "Kemco Japan",
	"29": "seta",
	"30": "Viacom",
	"31": "Nintendo",
	"32": "Bandai",
	"33": "Ocean/Acclaim",
	"34": "Konami",
	"35": "Hector",
	"37": "Taito",
	"38": "Hudson",
	"39": "Banpresto",
	"41": "Ubi Soft",
	"42": "Atlus",
	"44": "Malibu",
	"46": "angel",
	"47": "Bullet-Proof",
	"49": "irem",
	"50": "Absolute",
	"51": "Acclaim",
	"52": "Activision",
	"53": "American sammy",
	"54": "Konami",
	"55": "Hi tech entertainment",
	"56": "LJN",
	"57": "Matchbox",
	"58": "Mattel",
	"59": "Milton Bradley",
	"60": "Titus",
	"61": "Virgin",
	"64": "LucasArts",
	"67": "Ocean",
	"69": "Electronic Arts",
	"70": "Infogrames",
	"71": "Interplay",
	"72": "Broderbund",
	"73": "sculptured",
	"75": "sci",
	"78": "THQ",
	"79": "Accolade",
	"80": "misawa",
	"83": "lozc",
	"86": "Tokuma Shoten Intermedia",
	"87": "Tsukuda Original",
	"91": "Chunsoft",
	"92": "Video system",
	"93": "Ocean/Acclaim",
	"95": "Varie",
	"96": "Yonezawa/s'pal",
	"97": "Kaneko",
	"99": "Pack in soft",
	"A4": "Konami (Yu-Gi-Oh!)",
}

var gbOldLicensees = map[byte]string{
	0x00: "None",
	0x01: "Nintendo",
	0x08: "Capcom",
	0x09: "Hot-B",
	0x0A: "Jaleco",
	0x0B: "Coconuts Japan",
	0x0C: "Elite Systems",
	0x13: "EA (Electronic Arts)",
	0x18: "Hudsonsoft",
	0x19: "ITC Entertainment",
	0x1A: "Yanoman",
	0x1D: "Japan Clary",
	0x1F: "Virgin Interactive",
	0x24: "PCM Complete",
	0x25: "San-X",
	0x28: "Kotobuki Systems",
	0x29: "Seta",
	0x30: "Infogrames",
	0x31: "Nintendo",
	0x32: "Bandai",
	0x34: "Konami",
	0x35: "HectorSoft",
	0x38: "Capcom",
	0x39: "Banpresto",
	0x3C: ".Entertainment i",
	0x3E: "Gremlin",
	0x41: "Ubisoft",
	0x42: "Atlus",
	0x44: "Malibu",
	0x46: "Angel",
	0x47: "Spectrum Holoby",
	0x49: "Irem",
	0x4A: "Virgin Interactive",
	0x4D: "Malibu",
	0x4F: "U.S. Gold",
	0x50: "Absolute",
	0x51: "Acclaim",
	0x52: "Activision",
	0x53: "American Sammy",
	0x54: "GameTek",
	0x55: "Park Place",
	0x56: "LJN",
	0x57: "Matchbox",
	0x59: "Milton Bradley",
	0x5A: "Mindscape",
	0x5B: "Romstar",
	0x5C: "Naxat Soft",
	0x5D: "Tradewest",
	0x60: "Titus",
	0x61: "Virgin Interactive",
	0x67: "Ocean Interactive",
	0x69: "EA (Electronic Arts)",
	0x6E: "Elite Systems",
	0x6F: "Electro Brain",
	0x70: "Infogrames",
	0x71: "Interplay",
	0x72: "Broderbund",
	0x73: "Sculptered Soft",
	0x75: "The Sales Curve",
	0x78: "t.hq",
	0x79: "Accolade",
	0x7A: "Triffix Entertainment",
	0x7C: "Microprose",
	0x7F: "Kemco",
	0x80: "Misawa Entertainment",
	0x83: "Lozc",
	0x86: "Tokuma Shoten Intermedia",
	0x8B: "Bullet-Proof Software",
	0x8C: "Vic Tokai",
	0x8E: "Ape",
	0x8F: "I'Max",
	0x91: "Chunsoft Co.",
	0x92: "Video System",
	0x93: "Tsubaraya Productions Co.",
	0x95: "Varie Corporation",
	0x96: "Yonezawa/S'Pal",
	0x97: "Kaneko",
	0x99: "Arc",
	0x9A: "Nihon Bussan",
	0x9B: "Tecmo",
	0x9C: "Imagineer",
	0x9D: "Banpresto",
	0x9F: "Nova",
	0xA1: "Hori Electric",
	0xA2: "Bandai",
	0xA4: "Konami",
	0xA6: "Kawada",
	0xA7: "Takara",
	0xA9: "Technos Japan",
	0xAA: "Broderbund",
	0xAC: "Toei Animation",
	0xAD: "Toho",
	0xAF: "Namco",
	0xB0: "acclaim",
	0xB1: "ASCII or Nexsoft",
	0xB2: "Bandai",
	0xB4: "Square Enix",
	0xB6: "HAL Laboratory",
	0xB7: "SNK",
	0xB9: "Pony Canyon",
	0xBA: "Culture Brain",
	0xBB: "Sunsoft",
	0xBD: "Sony Imagesoft",
	0xBF: "Sammy",
	0xC0: "Taito",
	0xC2: "Kemco",
	0xC3: "Squaresoft",
	0xC4: "Tokuma Shoten Intermedia",
	0xC5: "Data East",
	0xC6: "Tonkinhouse",
	0xC8: "Koei",
	0xC9: "UFL",
	0xCA: "Ultra",
	0xCB: "Vap",
	0xCC: "Use Corporation",
	0xCD: "Meldac",
	0xCE: ".Pony Canyon or",
	0xCF: "Angel",
	0xD0: "Taito",
	0xD1: "Sofel",
	0xD2: "Quest",
	0xD3: "Sigma Enterprises",
	0xD4: "ASK Kodansha Co.",
	0xD6: "Naxat Soft",
	0xD7: "Copya System",
	0xD9: "Banpresto",
	0xDA: "Tomy",
	0xDB: "LJN",
	0xDD: "NCS",
	0xDE: "Human",
	0xDF: "Altron",
	0xE0: "Jaleco",
	0xE1: "Towa Chiki",
	0xE2: "Yutaka",
	0xE3: "Varie",
	0xE5: "Epcoh",
	0xE7: "Athena",
	0xE8: "Asmik ACE Entertainment",
	0xE9: "Natsume",
	0xEA: "King Records",
	0xEB: "Atlus",
	0xEC: "Epic/Sony Records",
	0xEE: "IGS",
	0xF0: "A Wave",
	0xF3: "Extreme Entertainment",
	0xFF: "LJN",
}

// gbROMSizes maps the ROM size byte to bytes. Banks are 16 KiB.
var gbROMSizes = map[byte]int{
	0x00: 32 << 10, 0x01: 64 << 10, 0x02: 128 << 10, 0x03: 256 << 10,
	0x04: 512 << 10, 0x05: 1 << 20, 0x06: 2 << 20, 0x07: 4 << 20, 0x08: 8 << 20,
	0x52: 1152 << 10, 0x53: 1280 << 10, 0x54: 1536 << 10,
}

// gbRAMSizes maps the RAM size byte to bytes.
var gbRAMSizes = map[byte]int{
	0x00: 0, 0x01: 2 << 10, 0x02: 8 << 10, 0x03: 32 << 10, 0x04: 128 << 10, 0x05: 64 << 10,
}

func gbDescriptor() Descriptor {
	return Descriptor{
		Name:       "GameBoy",
		Probe:      probeGB,
		New:        newGB,
		Extensions: []string{".gb", ".gbc", ".sgb", ".cgb"},
		MIMETypes:  []string{"application/x-gameboy-rom", "application/x-gameboy-color-rom"},
		FileType:   FileTypeROMImage,
	}
}

func probeGB(info *Info) int {
	if ibinary.HasAt(info.Header, gbLogoOffset, gbNintendoLogo) {
		return ScoreConfident
	}
	return ScoreNone
}

// GB reads Game Boy and Game Boy Color cartridge dumps.
type GB struct {
	header []byte
	base
}

func newGB(ctx *Context, src *source.Handle) Handler {
	h := &GB{}
	h.construct(ctx, src, h, "GameBoy", FileTypeROMImage, h.parse)
	return h
}

func (h *GB) parse() error {
	header, err := ibinary.ReadBytesAt(h.src, 0, gbHeaderSize)
	if err != nil {
		return err
	}
	if !ibinary.HasAt(header, gbLogoOffset, gbNintendoLogo) {
		return formatErr("Game Boy", "boot logo mismatch")
	}
	h.header = header
	if h.IsColor() {
		h.setNames("Nintendo Game Boy Color", "Game Boy Color", "GBC")
	} else {
		h.setNames("Nintendo Game Boy", "Game Boy", "GB")
	}
	return nil
}

// IsColor reports whether the cartridge uses Game Boy Color features.
func (h *GB) IsColor() bool {
	return h.header[gbCGBOffset]&0x80 != 0
}

// title splits the title area. Newer cartridges shorten the title to 11
// bytes and follow it with a four-letter manufacturer code.
func (h *GB) title() (title, maker string) {
	code := h.header[gbMakerOffset : gbMakerOffset+4]
	isCode := true
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			isCode = false
			break
		}
	}
	if isCode && h.IsColor() {
		return ibinary.ExtractPrintable(h.header[gbTitleOffset:gbMakerOffset]), string(code)
	}
	end := gbTitleOffset + 16
	if h.IsColor() {
		end = gbCGBOffset
	}
	return ibinary.ExtractPrintable(h.header[gbTitleOffset:end]), ""
}

func (h *GB) licensee() string {
	if old := h.header[gbOldLicensee]; old != gbUseNewLicensee {
		if name, ok := gbOldLicensees[old]; ok {
			return name
		}
		return fmt.Sprintf("Unknown (0x%02X)", old)
	}
	code := string(h.header[gbNewLicensee : gbNewLicensee+2])
	if name, ok := gbNewLicensees[code]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (%q)", code)
}

func gbHeaderChecksum(header []byte) uint8 {
	var sum uint8
	for _, c := range header[gbTitleOffset:gbHeaderChkOffset] {
		sum = sum - c - 1
	}
	return sum
}

// globalChecksum sums every byte of the ROM except the checksum itself.
func (h *GB) globalChecksum() (uint16, error) {
	size := min(h.src.Size(), gbMaxROMSize)
	buf := make([]byte, 64*1024)
	var sum uint16
	for off := int64(0); off < size; {
		n, err := h.src.ReadAt(buf[:min(int64(len(buf)), size-off)], off)
		for i, c := range buf[:n] {
			if pos := off + int64(i); pos != gbGlobalChkOffset && pos != gbGlobalChkOffset+1 {
				sum += uint16(c)
			}
		}
		off += int64(n)
		if errors.Is(err, io.EOF) || n == 0 {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	return sum, nil
}

func (h *GB) loadFields(f *fields.Fields) error {
	hdr := h.header
	f.AddTab("Game Boy")
	title, maker := h.title()
	f.AddString("Title", title)
	if maker != "" {
		f.AddString("Game ID", maker)
	}
	f.AddString("Publisher", h.licensee())

	switch cgb := hdr[gbCGBOffset]; {
	case cgb == 0xC0:
		f.AddString("Hardware", "Game Boy Color only")
	case cgb&0x80 != 0:
		f.AddString("Hardware", "Game Boy, Game Boy Color")
	default:
		f.AddString("Hardware", "Game Boy")
	}
	var features uint32
	if hdr[gbSGBOffset] == 0x03 {
		features |= 1
	}
	if hdr[gbCGBOffset]&0x80 != 0 {
		features |= 2
	}
	f.AddBitfield("Features", []string{"Super Game Boy", "Game Boy Color"}, 0, features)

	if cart, ok := gbCartridgeTypes[hdr[gbCartTypeOffset]]; ok {
		f.AddString("Cartridge", cart)
	} else {
		f.AddString("Cartridge", fmt.Sprintf("Unknown (0x%02X)", hdr[gbCartTypeOffset]))
	}
	if size, ok := gbROMSizes[hdr[gbROMSizeOffset]]; ok {
		f.AddString("ROM Size", fmt.Sprintf("%d KiB (%d banks)", size>>10, size/(16<<10)))
	}
	if size, ok := gbRAMSizes[hdr[gbRAMSizeOffset]]; ok {
		f.AddString("RAM Size", fmt.Sprintf("%d KiB", size>>10))
	}
	if hdr[gbRegionOffset] == 0 {
		f.AddString("Region", "Japan")
	} else {
		f.AddString("Region", "Non-Japan")
	}
	f.AddNumber("Revision", int64(hdr[gbVersionOffset]))

	f.AddString("Header Checksum",
		checksumStatus(uint32(hdr[gbHeaderChkOffset]), uint32(gbHeaderChecksum(hdr)), 2), fields.Monospace)
	stored := uint16(hdr[gbGlobalChkOffset])<<8 | uint16(hdr[gbGlobalChkOffset+1])
	actual, err := h.globalChecksum()
	if err != nil {
		return fmt.Errorf("global checksum: %w", err)
	}
	f.AddString("Global Checksum", checksumStatus(uint32(stored), uint32(actual), 4), fields.Monospace)
	h.addDigest(f)
	return nil
}
