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
	"errors"
	"image"

	"github.com/ZaparooProject/go-romprops/disc"
	"github.com/ZaparooProject/go-romprops/fields"
	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
	"github.com/ZaparooProject/go-romprops/iso9660"
	"github.com/ZaparooProject/go-romprops/source"
)

const (
	pspUMDDataPath  = "/UMD_DATA.BIN"
	pspParamSFOPath = "/PSP_GAME/PARAM.SFO"
	pspBootExePath  = "/PSP_GAME/SYSDIR/EBOOT.BIN"
	pspIconPath     = "/PSP_GAME/ICON0.PNG"
	pspPic1Path     = "/PSP_GAME/PIC1.PNG"

	pspUMDDataLimit = 128
	pspSFOLimit     = 64 * 1024
)

var pspSystemID = []byte("PSP GAME ")

func pspDescriptor() Descriptor {
	return Descriptor{
		Name:       "PSP",
		Probe:      probePSP,
		New:        newPSP,
		Extensions: []string{".iso", ".ciso", ".cso", ".ziso", ".zso", ".dax"},
		MIMETypes:  []string{"application/x-cd-image", "application/x-iso9660-image"},
		FileType:   FileTypeDiscImage,
	}
}

func probePSP(info *Info) int {
	if disc.IsCISO(info.Header, info.Size) || disc.IsDAX(info.Header, info.Size) {
		return ScoreConfident
	}
	pvd := ibinary.Window(info.Header, iso9660.PVDAddress, iso9660.SectorSize)
	if iso9660.IsPVD(pvd) && isPSPSystemID(pvd[8:40]) {
		return ScoreConfident
	}
	return ScoreNone
}

// isPSPSystemID checks for "PSP GAME" followed only by padding.
func isPSPSystemID(id []byte) bool {
	if !bytes.HasPrefix(id, pspSystemID) {
		return false
	}
	for _, c := range id[len(pspSystemID):] {
		if c != ' ' && c != 0 {
			return false
		}
	}
	return true
}

// PSP reads PlayStation Portable UMD images, plain or CISO/ZISO/DAX
// compressed.
type PSP struct {
	cooked *source.Handle
	part   *iso9660.Partition
	blocks disc.BlockReader
	exe    Handler
	base
}

func newPSP(ctx *Context, src *source.Handle) Handler {
	h := &PSP{}
	h.construct(ctx, src, h, "PSP", FileTypeDiscImage, h.parse)
	return h
}

func (h *PSP) parse() error {
	opened, err := h.openDisc()
	if err != nil {
		return err
	}
	h.cooked = opened.Handle
	h.blocks = opened.Blocks

	part, err := h.openPartition(opened.Handle)
	if err != nil {
		return err
	}
	if !isPSPSystemID(part.PVD().RawSystemID) {
		return formatErr("PSP", "system ID %q", part.PVD().SystemID)
	}
	h.part = part
	h.setNames("Sony PlayStation Portable", "PlayStation Portable", "PSP")
	return nil
}

// BlockStats returns the block access counters when the image is block
// compressed.
func (h *PSP) BlockStats() (disc.Stats, bool) {
	if h.blocks == nil {
		return disc.Stats{}, false
	}
	return h.blocks.Stats(), true
}

// Close releases the image and the boot executable.
func (h *PSP) Close() error {
	err := h.base.Close()
	h.exe = nil
	h.part = nil
	h.cooked = nil
	return err
}

// BootExe returns the handler of the boot executable, or nil when it is
// missing or not a plain ELF.
func (h *PSP) BootExe() Handler {
	if h.exe != nil || h.part == nil {
		return h.exe
	}
	f, err := h.part.Open(pspBootExePath)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()
	exe, err := h.nested(newELF, f)
	if err != nil {
		h.log().Debug("boot executable not readable", "err", err)
		return nil
	}
	h.exe = exe
	return exe
}

func (h *PSP) loadFields(f *fields.Fields) error {
	f.SetTabName(0, "PSP")

	// UMD_DATA.BIN holds '|'-separated fields; the first is the game ID.
	if data, err := h.part.ReadFile(pspUMDDataPath, pspUMDDataLimit); err == nil {
		if i := bytes.IndexByte(data, '|'); i >= 0 {
			f.AddString("Game ID", ibinary.Latin1(data[:i]))
		}
	} else if !errors.Is(err, iso9660.ErrNotFound) {
		return err
	}

	if data, err := h.part.ReadFile(pspParamSFOPath, pspSFOLimit); err == nil {
		sfo, err := parseSFO(data)
		if err != nil {
			h.log().Debug("PARAM.SFO unreadable", "err", err)
		}
		for _, kv := range []struct{ key, name string }{
			{"TITLE", "Title"},
			{"DISC_ID", "Disc ID"},
			{"DISC_VERSION", "Disc Version"},
			{"PSP_SYSTEM_VER", "System Version"},
			{"PARENTAL_LEVEL", "Parental Level"},
		} {
			if v, ok := sfo[kv.key]; ok {
				f.AddString(kv.name, v.String())
			}
		}
	}

	// The executable's first tab merges into ours; its other tabs follow.
	if exe := h.BootExe(); exe != nil {
		if _, err := exe.LoadFields(); err == nil {
			exeFields := exe.Fields()
			for i := 1; i < exeFields.TabCount(); i++ {
				f.SetTabName(i, exeFields.TabName(i))
			}
			f.SetTabIndex(0)
			f.AddFieldsFrom(exeFields, 0)
			f.SetTabIndex(exeFields.TabCount() - 1)
		}
	}

	h.addISOFields(f, h.cooked)
	return nil
}

func (*PSP) supportedImages() []fields.ImageRole {
	return []fields.ImageRole{fields.RoleIcon, fields.RoleTitleScreen}
}

func (*PSP) imageSizes(role fields.ImageRole) []fields.ImageSize {
	switch role {
	case fields.RoleIcon:
		return []fields.ImageSize{{Width: 144, Height: 80}}
	case fields.RoleTitleScreen:
		return []fields.ImageSize{{Width: 480, Height: 272}}
	default:
		return nil
	}
}

func (h *PSP) decodeImage(role fields.ImageRole) (image.Image, error) {
	var path string
	switch role {
	case fields.RoleIcon:
		path = pspIconPath
	case fields.RoleTitleScreen:
		path = pspPic1Path
	default:
		return nil, nil //nolint:nilnil // No image for this role
	}
	f, err := h.part.Open(path)
	if errors.Is(err, iso9660.ErrNotFound) {
		return nil, nil //nolint:nilnil // Optional file
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return decodePNG(f)
}
