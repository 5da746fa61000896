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
	"log/slog"
	"slices"
	"strings"

	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
	"github.com/ZaparooProject/go-romprops/source"
)

// DetectionWindow is how many leading bytes probes see. It covers the
// ISO-9660 volume descriptors of both cooked and raw sector images.
const DetectionWindow = 0x10200

// Info is the transient view a probe scores.
type Info struct {
	Header []byte // leading bytes of the file, at most DetectionWindow
	Ext    string // lowercased extension hint including the dot, may be empty
	Size   int64  // total file size
}

// ReadInfo reads the detection window of src. An empty ext falls back to
// the extension of the source name.
func ReadInfo(src *source.Handle, ext string) (*Info, error) {
	header, err := ibinary.ReadUpTo(src, 0, int(min(src.Size(), DetectionWindow)))
	if err != nil {
		return nil, fmt.Errorf("read detection window: %w", err)
	}
	if ext == "" {
		ext = src.Ext()
	}
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Info{Header: header, Size: src.Size(), Ext: ext}, nil
}

var registry []Descriptor

func init() {
	registry = []Descriptor{
		wiiWADDescriptor(),
		elfDescriptor(),
		psxExeDescriptor(),
		chdDescriptor(),
		gameCubeDescriptor(),
		saturnDescriptor(),
		segaCDDescriptor(),
		pspDescriptor(),
		playStationDescriptor(),
		isoDescriptor(),
		archiveDescriptor(),
		gbaDescriptor(),
		gbDescriptor(),
		n64Descriptor(),
		nesDescriptor(),
		genesisDescriptor(),
		snesDescriptor(),
	}
}

// Registry returns the format descriptors in priority order.
func Registry() []Descriptor {
	return slices.Clone(registry)
}

// Lookup returns the descriptor with the given name.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range registry {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Match selects a descriptor for info: the first one in priority order
// whose probe does not reject it.
func Match(info *Info) (Descriptor, bool) {
	return matchIn(registry, info)
}

func matchIn(descs []Descriptor, info *Info) (Descriptor, bool) {
	for i := range descs {
		if descs[i].Probe(info) >= ScoreWeak {
			return descs[i], true
		}
	}
	return Descriptor{}, false
}

// Detect identifies src and constructs its handler. ext is an optional
// extension hint. A format that claims the input but fails to parse it
// yields ErrNotRecognized; lower-priority formats are not tried. The
// returned handler holds its own reference to src.
func Detect(ctx *Context, src *source.Handle, ext string) (Handler, error) {
	if ctx == nil {
		ctx = NewContext(nil, nil)
	}
	child, err := ctx.Nested(src.Identity())
	if err != nil {
		return nil, err
	}
	info, err := ReadInfo(src, ext)
	if err != nil {
		return nil, err
	}
	desc, ok := Match(info)
	if !ok {
		return nil, ErrNotRecognized
	}
	h := desc.New(child, src)
	if !h.IsValid() {
		ctx.logger().Debug("format rejected after probe",
			slog.String("handler", desc.Name), slog.String("path", src.Name()), slog.Any("err", h.Err()))
		return nil, fmt.Errorf("%w: %s: %w", ErrNotRecognized, desc.Name, h.Err())
	}
	return h, nil
}
