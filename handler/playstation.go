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
	"bufio"
	"bytes"
	"errors"
	"path"
	"strings"

	"github.com/ZaparooProject/go-romprops/fields"
	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
	"github.com/ZaparooProject/go-romprops/iso9660"
	"github.com/ZaparooProject/go-romprops/source"
)

const (
	maxSystemCNF   = 4 * 1024
	psxDefaultBoot = "PSX.EXE"
)

const psSystemID = "PLAYSTATION"

func playStationDescriptor() Descriptor {
	return Descriptor{
		Name:       "PlayStationDisc",
		Probe:      probePlayStation,
		New:        newPlayStation,
		Extensions: []string{".iso", ".bin", ".img"},
		MIMETypes:  []string{"application/x-cd-image", "application/x-iso9660-image"},
		FileType:   FileTypeDiscImage,
	}
}

func probePlayStation(info *Info) int {
	pvd := pvdWindow(info.Header)
	if pvd != nil && ibinary.TrimPadding(pvd[8:40]) == psSystemID {
		return ScoreConfident
	}
	return ScoreNone
}

// systemCNF holds the keys of SYSTEM.CNF.
type systemCNF map[string]string

// parseSystemCNF reads "KEY = value" lines. Keys are uppercased.
func parseSystemCNF(data []byte) systemCNF {
	cnf := make(systemCNF)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}
		cnf[strings.ToUpper(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return cnf
}

// bootPath converts a boot line such as "cdrom0:\SLUS_203.12;1" into a
// filesystem path.
func bootPath(line string) string {
	if i := strings.IndexByte(line, ' '); i >= 0 {
		line = line[:i] // arguments follow the path
	}
	if _, after, ok := strings.Cut(line, ":"); ok {
		line = after
	}
	line = strings.ReplaceAll(line, "\\", "/")
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	return "/" + strings.TrimLeft(line, "/")
}

// serialFromBoot turns a boot file name such as "SLUS_203.12" into
// "SLUS-20312". Names that are not product codes yield "".
func serialFromBoot(p string) string {
	name := strings.ToUpper(path.Base(p))
	prefix, rest, ok := strings.Cut(name, "_")
	if !ok || len(prefix) != 4 {
		return ""
	}
	digits := strings.ReplaceAll(rest, ".", "")
	if !ibinary.IsAlnum([]byte(prefix + digits)) {
		return ""
	}
	return prefix + "-" + digits
}

// serialFromVolume derives a product code from the volume ID, keeping the
// first two underscore-separated parts.
func serialFromVolume(volumeID string) string {
	parts := strings.Split(strings.ReplaceAll(volumeID, "-", "_"), "_")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return parts[0] + "-" + parts[1]
}

// PlayStation reads PlayStation and PlayStation 2 disc images.
type PlayStation struct {
	cooked *source.Handle
	part   *iso9660.Partition
	cnf    systemCNF
	boot   string
	exe    Handler
	ps2    bool
	base
}

func newPlayStation(ctx *Context, src *source.Handle) Handler {
	h := &PlayStation{}
	h.construct(ctx, src, h, "PlayStationDisc", FileTypeDiscImage, h.parse)
	return h
}

func (h *PlayStation) parse() error {
	opened, err := h.openDisc()
	if err != nil {
		return err
	}
	part, err := h.openPartition(opened.Handle)
	if err != nil {
		return err
	}
	if part.PVD().SystemID != psSystemID {
		return formatErr("PlayStation", "system ID %q", part.PVD().SystemID)
	}
	h.cooked, h.part = opened.Handle, part

	data, err := part.ReadFile("/SYSTEM.CNF", maxSystemCNF)
	switch {
	case err == nil:
		h.cnf = parseSystemCNF(data)
	case errors.Is(err, iso9660.ErrNotFound):
		h.cnf = systemCNF{}
	default:
		return err
	}
	if boot, ok := h.cnf["BOOT2"]; ok {
		h.ps2 = true
		h.boot = bootPath(boot)
	} else if boot, ok := h.cnf["BOOT"]; ok {
		h.boot = bootPath(boot)
	} else {
		h.boot = "/" + psxDefaultBoot
	}

	if h.ps2 {
		h.setNames("Sony PlayStation 2", "PlayStation 2", "PS2")
	} else {
		h.setNames("Sony PlayStation", "PlayStation", "PS1")
	}
	return nil
}

// IsPS2 reports whether SYSTEM.CNF names a PlayStation 2 boot file.
func (h *PlayStation) IsPS2() bool { return h.ps2 }

// GameID returns the product code from the boot file name, falling back
// to the volume ID.
func (h *PlayStation) GameID() string {
	if id := serialFromBoot(h.boot); id != "" {
		return id
	}
	return serialFromVolume(h.part.PVD().VolumeID)
}

// BootExe returns the handler of the boot executable, or nil.
func (h *PlayStation) BootExe() Handler {
	if h.exe != nil || h.part == nil {
		return h.exe
	}
	f, err := h.part.Open(h.boot)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()
	newFn := newPSXExe
	if h.ps2 {
		newFn = newELF
	}
	exe, err := h.nested(newFn, f)
	if err != nil {
		h.log().Debug("boot executable not readable", "boot", h.boot, "err", err)
		return nil
	}
	h.exe = exe
	return exe
}

func (h *PlayStation) loadFields(f *fields.Fields) error {
	if h.ps2 {
		f.SetTabName(0, "PS2")
	} else {
		f.SetTabName(0, "PS1")
	}
	if id := h.GameID(); id != "" {
		f.AddString("Game ID", id)
	}
	f.AddString("Boot File", strings.TrimPrefix(h.boot, "/"))
	for _, kv := range []struct{ key, name string }{
		{"VER", "Version"},
		{"VMODE", "Video Mode"},
		{"TCB", "TCB"},
		{"EVENT", "Events"},
		{"STACK", "Stack"},
	} {
		if v, ok := h.cnf[kv.key]; ok {
			f.AddString(kv.name, v)
		}
	}

	if exe := h.BootExe(); exe != nil {
		if _, err := exe.LoadFields(); err == nil {
			f.AddFieldsFrom(exe.Fields(), fields.TabOffsetAddTabs)
		}
	}
	h.addISOFields(f, h.cooked)
	return nil
}
