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
	"encoding/binary"
	"fmt"
	"path"
	"strings"
	"time"

	ibinary "github.com/ZaparooProject/go-romprops/internal/binary"
	"github.com/ZaparooProject/go-romprops/source"
)

const (
	flagDirectory = 0x02
	flagHidden    = 0x01
)

// Entry describes a file or directory.
type Entry struct {
	Modified time.Time
	Name     string
	LBA      uint32
	Size     uint32
	IsDir    bool
	Hidden   bool
}

type dirRecord struct {
	modified time.Time
	name     string
	lba      uint32
	size     uint32
	flags    uint8
}

// parseDirRecord parses one directory record; b must be exactly the record.
func parseDirRecord(b []byte) (dirRecord, bool) {
	if len(b) < 34 || int(b[0]) > len(b) {
		return dirRecord{}, false
	}
	nameLen := int(b[32])
	if 33+nameLen > len(b) {
		return dirRecord{}, false
	}
	return dirRecord{
		lba:      binary.LittleEndian.Uint32(b[2:6]),
		size:     binary.LittleEndian.Uint32(b[10:14]),
		modified: parseRecordDateTime(b[18:25]),
		flags:    b[25],
		name:     string(b[33 : 33+nameLen]),
	}, true
}

func (r dirRecord) entry() Entry {
	return Entry{
		Name:     displayName(r.name),
		LBA:      r.lba,
		Size:     r.size,
		IsDir:    r.flags&flagDirectory != 0,
		Hidden:   r.flags&flagHidden != 0,
		Modified: r.modified,
	}
}

// displayName strips the ";1" version suffix and the trailing dot of
// extensionless names.
func displayName(name string) string {
	if i := strings.IndexByte(name, ';'); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSuffix(name, ".")
}

// Partition is an ISO-9660 filesystem on a 2048-byte sector source.
type Partition struct {
	src *source.Handle
	pvd *PVD
}

// Open reads the primary volume descriptor of src. The partition holds its
// own reference to src until Close.
func Open(src *source.Handle) (*Partition, error) {
	buf := make([]byte, SectorSize)
	if err := ibinary.ReadAt(src, PVDAddress, buf); err != nil {
		return nil, fmt.Errorf("read volume descriptor: %w", err)
	}
	pvd, err := ParsePVD(buf)
	if err != nil {
		return nil, err
	}
	ref, err := src.Acquire()
	if err != nil {
		return nil, err
	}
	return &Partition{src: ref, pvd: pvd}, nil
}

// PVD returns the primary volume descriptor.
func (p *Partition) PVD() *PVD { return p.pvd }

// Close releases the partition's reference to its source.
func (p *Partition) Close() error { return p.src.Close() }

func (p *Partition) readDir(rec dirRecord) ([]dirRecord, error) {
	if rec.size > MaxDirSize {
		return nil, fmt.Errorf("%w: directory of %d bytes", ErrTooLarge, rec.size)
	}
	data, err := ibinary.ReadUpTo(p.src, int64(rec.lba)*SectorSize, int(rec.size))
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var records []dirRecord
	for off := 0; off < len(data); {
		recLen := int(data[off])
		if recLen == 0 {
			// Records never straddle sectors; skip the padding.
			off = (off/SectorSize + 1) * SectorSize
			continue
		}
		if off+recLen > len(data) {
			break
		}
		r, ok := parseDirRecord(data[off : off+recLen])
		off += recLen
		if !ok || r.name == "\x00" || r.name == "\x01" {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

func (p *Partition) lookup(name string) (dirRecord, error) {
	cur := p.pvd.root
	parts := splitPath(name)
	if len(parts) > MaxPathDepth {
		return dirRecord{}, fmt.Errorf("%w: path too deep", ErrTooLarge)
	}
	for i, part := range parts {
		if cur.flags&flagDirectory == 0 && i > 0 {
			return dirRecord{}, fmt.Errorf("%w: %s", ErrNotDir, path.Join(parts[:i]...))
		}
		records, err := p.readDir(cur)
		if err != nil {
			return dirRecord{}, err
		}
		found := false
		for _, r := range records {
			if strings.EqualFold(displayName(r.name), part) {
				cur, found = r, true
				break
			}
		}
		if !found {
			return dirRecord{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
	}
	return cur, nil
}

func splitPath(name string) []string {
	var parts []string
	for _, part := range strings.Split(name, "/") {
		if part != "" && part != "." {
			parts = append(parts, part)
		}
	}
	return parts
}

// Stat returns the entry for a path such as "/PSP_GAME/ICON0.PNG".
// Matching is case-insensitive and ignores version suffixes.
func (p *Partition) Stat(name string) (Entry, error) {
	rec, err := p.lookup(name)
	if err != nil {
		return Entry{}, err
	}
	return rec.entry(), nil
}

// ReadDir lists a directory.
func (p *Partition) ReadDir(name string) ([]Entry, error) {
	rec, err := p.lookup(name)
	if err != nil {
		return nil, err
	}
	if rec.flags&flagDirectory == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotDir, name)
	}
	records, err := p.readDir(rec)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(records))
	for i, r := range records {
		entries[i] = r.entry()
	}
	return entries, nil
}

// Open returns a source scoped to the extent of the named file.
func (p *Partition) Open(name string) (*source.Handle, error) {
	rec, err := p.lookup(name)
	if err != nil {
		return nil, err
	}
	if rec.flags&flagDirectory != 0 {
		return nil, fmt.Errorf("%w: %s", ErrIsDir, name)
	}
	h, err := source.Sub(p.src, int64(rec.lba)*SectorSize, int64(rec.size), p.src.Name()+"!"+path.Clean("/"+name))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return h, nil
}

// ReadFile reads up to limit bytes of the named file. A limit <= 0 reads
// the whole file.
func (p *Partition) ReadFile(name string, limit int) ([]byte, error) {
	h, err := p.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.Close() }()

	n := h.Size()
	if limit > 0 && int64(limit) < n {
		n = int64(limit)
	}
	return ibinary.ReadBytesAt(h, 0, int(n))
}
