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
	"crypto/aes"
	"encoding/binary"
	"fmt"

	"github.com/ZaparooProject/go-romprops/disc"
	"github.com/ZaparooProject/go-romprops/fields"
	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
	"github.com/ZaparooProject/go-romprops/keys"
	"github.com/ZaparooProject/go-romprops/source"
)

// WAD layout. Sections follow each other, each starting on a 64-byte
// boundary.
const (
	wadHeaderSize    = 0x20
	wadAlign         = 64
	wadTicketSize    = 0x2A4
	wadTMDHeaderSize = 0x1E4
	wadContentSize   = 0x24
	wadMaxContents   = 512

	ticketEncKey  = 0x1BF
	ticketTitleID = 0x1DC

	tmdSysVersion   = 0x184
	tmdTitleID      = 0x18C
	tmdRegion       = 0x19C
	tmdAccessRights = 0x1D8
	tmdTitleVersion = 0x1DC
	tmdNumContents  = 0x1DE

	imetMagicOffset = 0x40
	imetNamesOffset = 0x5C
	imetNameSize    = 0x54
	imetHeaderSize  = 0x600

	// CommonKeyName is the key store entry used to decrypt title keys.
	CommonKeyName = "rvl-common"
)

const (
	wadTypeIs = 0x49730000
	wadTypeIb = 0x69620000
	wadTypeBk = 0x426B0000
)

var imetMagic = []byte("IMET")

var wiiRegions = map[uint16]string{
	0: "Japan",
	1: "USA",
	2: "Europe",
	3: "Region-Free",
	4: "South Korea",
}

var wiiContentTypes = map[uint16]string{
	0x0001: "Normal",
	0x4001: "DLC",
	0x8001: "Shared",
}

var imetLanguages = []string{
	"Japanese", "English", "German", "French", "Spanish",
	"Italian", "Dutch", "Chinese (Simplified)", "Chinese (Traditional)", "Korean",
}

func wiiWADDescriptor() Descriptor {
	return Descriptor{
		Name:       "WiiWAD",
		Probe:      probeWiiWAD,
		New:        newWiiWAD,
		Extensions: []string{".wad"},
		MIMETypes:  []string{"application/x-wii-wad"},
		FileType:   FileTypeApplicationPackage,
	}
}

type wadHeader struct {
	headerSize uint32
	wadType    uint32
	certSize   uint32
	ticketSize uint32
	tmdSize    uint32
	dataSize   uint32
}

func parseWADHeader(b []byte) (wadHeader, bool) {
	if len(b) < wadHeaderSize {
		return wadHeader{}, false
	}
	be := binary.BigEndian
	return wadHeader{
		headerSize: be.Uint32(b[0:]),
		wadType:    be.Uint32(b[4:]),
		certSize:   be.Uint32(b[8:]),
		ticketSize: be.Uint32(b[16:]),
		tmdSize:    be.Uint32(b[20:]),
		dataSize:   be.Uint32(b[24:]),
	}, true
}

func align64(v uint64) uint64 {
	return (v + wadAlign - 1) &^ (wadAlign - 1)
}

func (w wadHeader) ticketOffset() uint64 {
	return align64(uint64(w.headerSize)) + align64(uint64(w.certSize))
}

func (w wadHeader) tmdOffset() uint64 {
	return w.ticketOffset() + align64(uint64(w.ticketSize))
}

func (w wadHeader) dataOffset() uint64 {
	return w.tmdOffset() + align64(uint64(w.tmdSize))
}

func probeWiiWAD(info *Info) int {
	w, ok := parseWADHeader(info.Header)
	if !ok || w.headerSize != wadHeaderSize {
		return ScoreNone
	}
	switch w.wadType {
	case wadTypeIs, wadTypeIb, wadTypeBk:
	default:
		return ScoreNone
	}
	if w.ticketSize < wadTicketSize || w.tmdSize < wadTMDHeaderSize {
		return ScoreNone
	}
	if w.dataOffset() > uint64(info.Size) { //nolint:gosec // Size is non-negative
		return ScoreNone
	}
	return ScoreConfident
}

type wadContent struct {
	id    uint32
	index uint16
	ctype uint16
	size  uint64
}

// WiiWAD reads Wii WAD application packages.
type WiiWAD struct {
	titleKey    []byte
	contents    []wadContent
	bannerNames map[string]string
	ticket      []byte
	tmd         []byte
	header      wadHeader
	keyStatus   keys.VerifyResult
	base
}

func newWiiWAD(ctx *Context, src *source.Handle) Handler {
	h := &WiiWAD{}
	h.construct(ctx, src, h, "WiiWAD", FileTypeApplicationPackage, h.parse)
	return h
}

func (h *WiiWAD) parse() error {
	raw, err := ibinary.ReadBytesAt(h.src, 0, wadHeaderSize)
	if err != nil {
		return err
	}
	w, _ := parseWADHeader(raw)
	if probeWiiWAD(&Info{Header: raw, Size: h.src.Size()}) < ScoreWeak {
		return formatErr("WAD", "bad header")
	}
	h.header = w

	if h.ticket, err = ibinary.ReadBytesAt(h.src, int64(w.ticketOffset()), wadTicketSize); err != nil { //nolint:gosec // Bounded by file size
		return fmt.Errorf("read ticket: %w", err)
	}
	tmdLen := min(uint64(w.tmdSize), wadTMDHeaderSize+wadMaxContents*wadContentSize)
	if h.tmd, err = ibinary.ReadBytesAt(h.src, int64(w.tmdOffset()), int(tmdLen)); err != nil { //nolint:gosec // Bounded above
		return fmt.Errorf("read TMD: %w", err)
	}
	h.contents = parseTMDContents(h.tmd)

	h.setNames("Nintendo Wii", "Wii", "Wii")
	h.unlock()
	return nil
}

func parseTMDContents(tmd []byte) []wadContent {
	be := binary.BigEndian
	n := int(be.Uint16(tmd[tmdNumContents:]))
	n = min(n, (len(tmd)-wadTMDHeaderSize)/wadContentSize)
	out := make([]wadContent, 0, n)
	for i := range n {
		rec := tmd[wadTMDHeaderSize+i*wadContentSize:]
		out = append(out, wadContent{
			id:    be.Uint32(rec[0:]),
			index: be.Uint16(rec[4:]),
			ctype: be.Uint16(rec[6:]),
			size:  be.Uint64(rec[8:]),
		})
	}
	return out
}

// unlock decrypts the title key with the common key. A missing or wrong
// common key leaves the package readable without its encrypted content.
func (h *WiiWAD) unlock() {
	common, status := h.ctx.keys().GetAndVerify(CommonKeyName, keys.Pair{})
	h.keyStatus = status
	if status != keys.VerifyOK {
		h.log().Info("title key unavailable", "status", status.String())
		return
	}
	iv := make([]byte, aes.BlockSize)
	copy(iv, h.ticket[ticketTitleID:ticketTitleID+8])
	titleKey, err := disc.DecryptCBC(common, iv, h.ticket[ticketEncKey:ticketEncKey+aes.BlockSize])
	if err != nil {
		h.keyStatus = keys.VerifyKeyInvalid
		return
	}
	h.titleKey = titleKey
	h.bannerNames = h.readBanner()
}

// readBanner decrypts the start of the first content and reads the
// channel names from its IMET header.
func (h *WiiWAD) readBanner() map[string]string {
	if len(h.contents) == 0 || h.contents[0].size < imetHeaderSize {
		return nil
	}
	first := h.contents[0]
	iv := make([]byte, aes.BlockSize)
	binary.BigEndian.PutUint16(iv, first.index)
	dataOff := int64(h.header.dataOffset()) //nolint:gosec // Checked against file size in probe
	length := min(int64(h.header.dataSize), h.src.Size()-dataOff)
	content, err := disc.OpenCBC(h.src, dataOff, length, h.titleKey, iv)
	if err != nil {
		return nil
	}
	defer func() { _ = content.Close() }()

	imet, err := ibinary.ReadBytesAt(content, 0, imetHeaderSize)
	if err != nil || !ibinary.HasAt(imet, imetMagicOffset, imetMagic) {
		return nil
	}
	names := make(map[string]string)
	for i, lang := range imetLanguages {
		name := ibinary.UTF16BE(ibinary.Window(imet, imetNamesOffset+i*imetNameSize, imetNameSize))
		if name != "" {
			names[lang] = name
		}
	}
	return names
}

// TitleKey returns the decrypted title key, or nil when the common key was
// unavailable.
func (h *WiiWAD) TitleKey() []byte { return h.titleKey }

// KeyStatus returns the outcome of the common key lookup.
func (h *WiiWAD) KeyStatus() keys.VerifyResult { return h.keyStatus }

// TitleID returns the title ID from the TMD.
func (h *WiiWAD) TitleID() uint64 {
	if h.tmd == nil {
		return 0
	}
	return binary.BigEndian.Uint64(h.tmd[tmdTitleID:])
}

func (h *WiiWAD) loadFields(f *fields.Fields) error {
	be := binary.BigEndian
	f.AddTab("WAD")
	if h.keyStatus != keys.VerifyOK {
		f.AddWarning("Warning", h.keyStatus.String())
	}

	tid := h.tmd[tmdTitleID : tmdTitleID+8]
	f.AddString("Title ID", fmt.Sprintf("%08X-%08X", be.Uint32(tid[0:]), be.Uint32(tid[4:])), fields.Monospace)
	if ibinary.IsAlnum(tid[4:8]) {
		f.AddString("Game ID", string(tid[4:8]))
	}

	sysHi, sysLo := be.Uint32(h.tmd[tmdSysVersion:]), be.Uint32(h.tmd[tmdSysVersion+4:])
	if sysHi == 1 && sysLo > 2 && sysLo < 0x300 {
		f.AddString("IOS Version", fmt.Sprintf("IOS%d", sysLo))
	} else {
		f.AddString("IOS Version", fmt.Sprintf("%08X-%08X", sysHi, sysLo))
	}

	version := be.Uint16(h.tmd[tmdTitleVersion:])
	f.AddString("Title Version", fmt.Sprintf("%d.%d (v%d)", version>>8, version&0xFF, version))

	region := be.Uint16(h.tmd[tmdRegion:])
	if name, ok := wiiRegions[region]; ok {
		f.AddString("Region", name)
	} else {
		f.AddString("Region", fmt.Sprintf("Unknown (0x%04X)", region))
	}

	f.AddBitfield("Access Rights", []string{"AHBPROT", "DVD Video"}, 0, be.Uint32(h.tmd[tmdAccessRights:]))

	if len(h.contents) > 0 {
		rows := make([][]string, len(h.contents))
		for i, c := range h.contents {
			ctype, ok := wiiContentTypes[c.ctype]
			if !ok {
				ctype = fmt.Sprintf("0x%04X", c.ctype)
			}
			rows[i] = []string{fmt.Sprintf("%d", c.index), fmt.Sprintf("%08X", c.id), ctype, fmt.Sprintf("%d", c.size)}
		}
		f.AddListData("Contents", []string{"#", "Content ID", "Type", "Size"}, rows)
	}

	for _, lang := range imetLanguages {
		if name, ok := h.bannerNames[lang]; ok {
			f.AddString("Title ("+lang+")", name)
		}
	}
	return nil
}
