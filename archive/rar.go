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
	"errors"
	"fmt"
	"io"

	"github.com/nwaples/rardecode/v2"
)

// rarArchive has no random access: every List or Open rescans the headers
// from the start.
type rarArchive struct {
	r    io.ReaderAt
	size int64
	name string
}

func openRAR(r io.ReaderAt, size int64, name string) (*rarArchive, error) {
	a := &rarArchive{r: r, size: size, name: name}
	// Surface a bad signature block now rather than on first use.
	if _, err := a.reader(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *rarArchive) reader() (*rardecode.Reader, error) {
	rr, err := rardecode.NewReader(io.NewSectionReader(a.r, 0, a.size))
	if err != nil {
		return nil, fmt.Errorf("open RAR archive: %w", err)
	}
	return rr, nil
}

// scan calls fn for each file header until fn returns true, leaving rr
// positioned on that member's data.
func (a *rarArchive) scan(fn func(*rardecode.FileHeader) bool) (*rardecode.Reader, error) {
	rr, err := a.reader()
	if err != nil {
		return nil, err
	}
	for {
		hdr, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("read RAR header: %w", err)
		}
		if !hdr.IsDir && fn(hdr) {
			return rr, nil
		}
	}
}

func (*rarArchive) Format() Format { return FormatRAR }

func (a *rarArchive) List() ([]FileInfo, error) {
	var infos []FileInfo
	_, err := a.scan(func(hdr *rardecode.FileHeader) bool {
		infos = append(infos, FileInfo{Name: normalize(hdr.Name), Size: hdr.UnPackedSize})
		return false
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return infos, nil
}

func (a *rarArchive) Open(name string) (io.ReadCloser, int64, error) {
	var size int64
	rr, err := a.scan(func(hdr *rardecode.FileHeader) bool {
		size = hdr.UnPackedSize
		return matchName(normalize(hdr.Name), name)
	})
	switch {
	case errors.Is(err, io.EOF):
		return nil, 0, &MemberError{Archive: a.name, Member: name}
	case err != nil:
		return nil, 0, err
	}
	return io.NopCloser(rr), size, nil
}

func (*rarArchive) Close() error { return nil }
