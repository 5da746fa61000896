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

// Package testimage builds small synthetic disc and executable images for
// tests across packages.
package testimage

import (
	"encoding/binary"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
)

const sectorSize = 2048

// File is a file to place in a synthetic ISO-9660 image. Directories are
// created implicitly from paths.
type File struct {
	Path string
	Data []byte
}

// ISOOptions sets volume descriptor fields.
type ISOOptions struct {
	Created   time.Time
	SystemID  string
	VolumeID  string
	Publisher string
	// RawSystemID, when set, is written verbatim instead of SystemID.
	RawSystemID []byte
}

type node struct {
	children map[string]*node
	data     []byte
	name     string
	lba      uint32
	size     uint32
	isDir    bool
}

// ISO builds a 2048-byte sector ISO-9660 image.
func ISO(opts ISOOptions, files []File) []byte {
	root := &node{isDir: true, children: map[string]*node{}}
	for _, f := range files {
		parts := strings.Split(strings.Trim(f.Path, "/"), "/")
		cur := root
		for _, dir := range parts[:len(parts)-1] {
			next, ok := cur.children[dir]
			if !ok {
				next = &node{name: dir, isDir: true, children: map[string]*node{}}
				cur.children[dir] = next
			}
			cur = next
		}
		name := parts[len(parts)-1]
		cur.children[name] = &node{name: name + ";1", data: f.Data, size: uint32(len(f.Data))}
	}

	// Directories start after the PVD (16) and terminator (17).
	next := uint32(18)
	var dirs []*node
	walkDirs(root, func(n *node) {
		n.size = uint32(dirBytes(n))
		n.lba = next
		next += (n.size + sectorSize - 1) / sectorSize
		dirs = append(dirs, n)
	})
	var fileNodes []*node
	walkFiles(root, func(n *node) {
		n.lba = next
		next += max((n.size+sectorSize-1)/sectorSize, 1)
		fileNodes = append(fileNodes, n)
	})

	img := make([]byte, int(next)*sectorSize)
	writePVD(img[16*sectorSize:], opts, root, next)
	term := img[17*sectorSize:]
	term[0] = 0xFF
	copy(term[1:], "CD001")
	term[6] = 1

	parents := map[*node]*node{root: root}
	walkDirs(root, func(n *node) {
		for _, c := range n.children {
			parents[c] = n
		}
	})
	for _, d := range dirs {
		writeDir(img[int(d.lba)*sectorSize:], d, parents[d])
	}
	for _, f := range fileNodes {
		copy(img[int(f.lba)*sectorSize:], f.data)
	}
	return img
}

func sortedChildren(n *node) []*node {
	out := make([]*node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func walkDirs(n *node, fn func(*node)) {
	fn(n)
	for _, c := range sortedChildren(n) {
		if c.isDir {
			walkDirs(c, fn)
		}
	}
}

func walkFiles(n *node, fn func(*node)) {
	for _, c := range sortedChildren(n) {
		if c.isDir {
			walkFiles(c, fn)
		} else {
			fn(c)
		}
	}
}

func recordLen(name string) int {
	l := 33 + len(name)
	if l%2 == 1 {
		l++
	}
	return l
}

// dirBytes lays out records without crossing sector boundaries.
func dirBytes(n *node) int {
	off := 0
	add := func(l int) {
		if off%sectorSize+l > sectorSize {
			off = (off/sectorSize + 1) * sectorSize
		}
		off += l
	}
	add(recordLen("\x00"))
	add(recordLen("\x01"))
	for _, c := range sortedChildren(n) {
		add(recordLen(c.name))
	}
	return ((off + sectorSize - 1) / sectorSize) * sectorSize
}

func writeDir(buf []byte, n, parent *node) {
	off := 0
	put := func(name string, target *node) {
		l := recordLen(name)
		if off%sectorSize+l > sectorSize {
			off = (off/sectorSize + 1) * sectorSize
		}
		Record(buf[off:off+l], name, target.lba, target.size, target.isDir)
		off += l
	}
	put("\x00", n)
	put("\x01", parent)
	for _, c := range sortedChildren(n) {
		put(c.name, c)
	}
}

// Record encodes one directory record into buf, which must be exactly the
// record length.
func Record(buf []byte, name string, lba, size uint32, isDir bool) {
	buf[0] = byte(len(buf))
	binary.LittleEndian.PutUint32(buf[2:], lba)
	binary.BigEndian.PutUint32(buf[6:], lba)
	binary.LittleEndian.PutUint32(buf[10:], size)
	binary.BigEndian.PutUint32(buf[14:], size)
	copy(buf[18:25], []byte{99, 1, 1, 0, 0, 0, 0})
	if isDir {
		buf[25] = 0x02
	}
	binary.LittleEndian.PutUint16(buf[28:], 1)
	buf[32] = byte(len(name))
	copy(buf[33:], name)
}

func padded(s string, n int) []byte {
	out := []byte(fmt.Sprintf("%-*s", n, s))
	return out[:n]
}

func writePVD(pvd []byte, opts ISOOptions, root *node, totalSectors uint32) {
	pvd[0] = 1
	copy(pvd[1:], "CD001")
	pvd[6] = 1
	if opts.RawSystemID != nil {
		copy(pvd[8:40], opts.RawSystemID)
	} else {
		copy(pvd[8:40], padded(opts.SystemID, 32))
	}
	copy(pvd[40:72], padded(opts.VolumeID, 32))
	binary.LittleEndian.PutUint32(pvd[80:], totalSectors)
	binary.BigEndian.PutUint32(pvd[84:], totalSectors)
	binary.LittleEndian.PutUint16(pvd[120:], 1)
	binary.LittleEndian.PutUint16(pvd[124:], 1)
	binary.LittleEndian.PutUint16(pvd[128:], sectorSize)
	Record(pvd[156:190], "\x00", root.lba, root.size, true)
	copy(pvd[190:318], padded("", 128))
	copy(pvd[318:446], padded(opts.Publisher, 128))
	copy(pvd[446:574], padded("", 128))
	copy(pvd[574:702], padded("", 128))
	if !opts.Created.IsZero() {
		c := opts.Created.UTC()
		copy(pvd[813:829], c.Format("20060102150405")+"00")
	} else {
		copy(pvd[813:829], strings.Repeat("0", 16))
	}
	copy(pvd[830:846], strings.Repeat("0", 16))
	copy(pvd[847:863], strings.Repeat("0", 16))
	copy(pvd[864:880], strings.Repeat("0", 16))
	pvd[881] = 1
}

// Clean normalizes a path the way ISO tests refer to it.
func Clean(p string) string { return path.Clean("/" + p) }
