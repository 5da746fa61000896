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

package disc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ZaparooProject/go-romprops/source"
)

// CD-ROM sector geometry.
const (
	RawSectorSize  = 2352
	UserSectorSize = 2048

	mode1DataOffset = 16
	mode2DataOffset = 24
	modeByteOffset  = 15
)

// CDSync is the 12-byte sync pattern at the start of every raw data sector.
var CDSync = []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

// IsRaw2352 reports whether header starts a raw 2352-byte sector image of
// the given size.
func IsRaw2352(header []byte, size int64) bool {
	return len(header) >= len(CDSync) && bytes.Equal(header[:len(CDSync)], CDSync) &&
		size >= RawSectorSize && size%RawSectorSize == 0
}

// Raw2352Reader exposes the 2048-byte user data area of each raw sector.
type Raw2352Reader struct {
	src     io.ReaderAt
	sectors int64
}

// NewRaw2352 wraps a raw sector image of size bytes.
func NewRaw2352(src io.ReaderAt, size int64) (*Raw2352Reader, error) {
	if size < RawSectorSize || size%RawSectorSize != 0 {
		return nil, fmt.Errorf("%w: size %d", ErrNotRaw2352, size)
	}
	return &Raw2352Reader{src: src, sectors: size / RawSectorSize}, nil
}

// OpenRaw2352 returns a handle onto the user data of a raw sector image.
func OpenRaw2352(h *source.Handle) (*source.Handle, error) {
	return source.Derive(h, "raw2352", func(ref *source.Handle) (io.ReaderAt, int64, error) {
		r, err := NewRaw2352(ref, ref.Size())
		if err != nil {
			return nil, 0, err
		}
		return r, r.Size(), nil
	})
}

// Size returns the size of the user data stream.
func (r *Raw2352Reader) Size() int64 { return r.sectors * UserSectorSize }

// ReadAt implements io.ReaderAt over the user data stream.
func (r *Raw2352Reader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, source.ErrNegativeOffset
	}
	sector := make([]byte, RawSectorSize)
	total := 0
	for total < len(p) {
		lba := off / UserSectorSize
		if lba >= r.sectors {
			break
		}
		if _, err := r.src.ReadAt(sector, lba*RawSectorSize); err != nil && !errors.Is(err, io.EOF) {
			return total, fmt.Errorf("read sector %d: %w", lba, err)
		}
		dataOff := int64(mode1DataOffset)
		if sector[modeByteOffset] == 2 {
			dataOff = mode2DataOffset
		}
		inSector := off % UserSectorSize
		n := copy(p[total:], sector[dataOff+inSector:dataOff+UserSectorSize])
		total += n
		off += int64(n)
	}
	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}
