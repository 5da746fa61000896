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

package archive

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/bodgit/sevenzip"
)

// indexed serves formats whose directory is read once up front, so members
// can be opened in any order.
type indexed struct {
	format  Format
	name    string
	members []member
}

type member struct {
	FileInfo
	open func() (io.ReadCloser, error)
}

func openZIP(r io.ReaderAt, size int64, name string) (*indexed, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open ZIP archive: %w", err)
	}
	arc := &indexed{format: FormatZIP, name: name}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		//nolint:gosec // Sizes above int64 are not real archives
		arc.add(f.Name, int64(f.UncompressedSize64), f.Open)
	}
	return arc, nil
}

func openSevenZip(r io.ReaderAt, size int64, name string) (*indexed, error) {
	sr, err := sevenzip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open 7z archive: %w", err)
	}
	arc := &indexed{format: FormatSevenZip, name: name}
	for _, f := range sr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		//nolint:gosec // Sizes above int64 are not real archives
		arc.add(f.Name, int64(f.UncompressedSize), f.Open)
	}
	return arc, nil
}

func (a *indexed) add(name string, size int64, open func() (io.ReadCloser, error)) {
	a.members = append(a.members, member{FileInfo: FileInfo{Name: normalize(name), Size: size}, open: open})
}

func (a *indexed) Format() Format { return a.format }

func (a *indexed) List() ([]FileInfo, error) {
	infos := make([]FileInfo, len(a.members))
	for i, m := range a.members {
		infos[i] = m.FileInfo
	}
	return infos, nil
}

func (a *indexed) Open(name string) (io.ReadCloser, int64, error) {
	for _, m := range a.members {
		if !matchName(m.Name, name) {
			continue
		}
		rc, err := m.open()
		if err != nil {
			return nil, 0, fmt.Errorf("open %s in %s: %w", name, a.name, err)
		}
		return rc, m.Size, nil
	}
	return nil, 0, &MemberError{Archive: a.name, Member: name}
}

// Close is a no-op; the reader belongs to the caller.
func (*indexed) Close() error { return nil }
