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

// Package chd reads MAME CHD (Compressed Hunks of Data) disc images and
// exposes their first data track as a plain 2048-byte sector stream.
package chd

import (
	"bytes"
	"fmt"
	"io"
)

// Sector geometry of CD-ROM CHDs.
const (
	// UserSectorSize is the size of a logical ISO-9660 sector.
	UserSectorSize = 2048

	rawSectorSize    = 2352
	defaultUnitBytes = 2448 // 2352 sector + 96 subchannel
)

// CHD is an opened CHD image. It does not own its reader.
type CHD struct {
	reader  io.ReaderAt
	header  *Header
	hunkMap *HunkMap
	tracks  []Track
	// trackErr records why track metadata could not be used, if it could not.
	trackErr error
}

// IsCHD reports whether header starts with the CHD magic word.
func IsCHD(header []byte) bool {
	return len(header) >= len(chdMagic) && bytes.Equal(header[:len(chdMagic)], chdMagic[:])
}

// Open parses the header, hunk map and track metadata of a CHD image.
func Open(reader io.ReaderAt) (*CHD, error) {
	header, err := parseHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	hunkMap, err := NewHunkMap(reader, header)
	if err != nil {
		return nil, fmt.Errorf("create hunk map: %w", err)
	}

	c := &CHD{reader: reader, header: header, hunkMap: hunkMap}
	if header.MetaOffset > 0 {
		c.tracks, c.trackErr = readTracks(reader, header.MetaOffset)
	}
	return c, nil
}

func readTracks(reader io.ReaderAt, offset uint64) ([]Track, error) {
	entries, err := readMetadata(reader, offset)
	if err != nil {
		return nil, err
	}
	return tracksFromMetadata(entries)
}

// Header returns the parsed CHD header.
func (c *CHD) Header() *Header { return c.header }

// Tracks returns the parsed track list. It is empty for non-CD images or when
// the metadata is unreadable; see TrackError.
func (c *CHD) Tracks() []Track { return c.tracks }

// TrackError returns the error encountered while reading track metadata.
func (c *CHD) TrackError() error { return c.trackErr }

// Size returns the total logical (uncompressed) size.
func (c *CHD) Size() int64 {
	return int64(c.header.LogicalBytes) //nolint:gosec // LogicalBytes is bounded by maxHunks * hunk size
}

// CacheStats returns hunk cache counters.
func (c *CHD) CacheStats() (decoded, hits uint64) { return c.hunkMap.Stats() }

func (c *CHD) unitBytes() int64 {
	if c.header.UnitBytes == 0 {
		return defaultUnitBytes
	}
	return int64(c.header.UnitBytes)
}

// DataTrackReader returns an io.ReaderAt yielding 2048-byte logical sectors of
// the first data track. Discs with leading audio tracks are handled by track
// metadata, or by locating the ISO-9660 volume descriptor when metadata is absent.
func (c *CHD) DataTrackReader() io.ReaderAt {
	return &sectorReader{chd: c, dataTrackStart: c.firstDataTrackSector()}
}

// DataTrackSize returns the size of the first data track in 2048-byte sectors.
func (c *CHD) DataTrackSize() int64 {
	for _, track := range c.tracks {
		if track.IsDataTrack() {
			return int64(track.Frames) * UserSectorSize
		}
	}
	sectors := c.Size() / c.unitBytes()
	if sectors == 0 {
		return c.Size()
	}
	return sectors * UserSectorSize
}

func (c *CHD) firstDataTrackSector() int64 {
	for _, track := range c.tracks {
		if !track.IsDataTrack() {
			continue
		}
		if start := int64(track.StartFrame + track.Pregap); start > 0 {
			return start
		}
		break
	}
	return c.searchForPVD()
}

// pvdMagic is the ISO-9660 primary volume descriptor signature.
var pvdMagic = []byte{0x01, 'C', 'D', '0', '0', '1'}

// searchForPVD scans the first sectors for a volume descriptor and returns
// the data track start it implies, or 0.
func (c *CHD) searchForPVD() int64 {
	unitBytes := c.unitBytes()
	sectorsPerHunk := int64(c.header.HunkBytes) / unitBytes
	if sectorsPerHunk <= 0 {
		return 0
	}
	scanHunks := min(max(uint32(100/sectorsPerHunk), 5), c.hunkMap.NumHunks()) //nolint:gosec // Small positive value

	for hunkIdx := range scanHunks {
		hunkData, err := c.hunkMap.ReadHunk(hunkIdx)
		if err != nil {
			continue
		}
		for sectorInHunk := range sectorsPerHunk {
			sectorOff := sectorInHunk * unitBytes
			if sectorOff >= int64(len(hunkData)) {
				break
			}
			dataOff := sectorOff + userDataOffset(hunkData, sectorOff)
			if dataOff+int64(len(pvdMagic)) > int64(len(hunkData)) {
				continue
			}
			if bytes.Equal(hunkData[dataOff:dataOff+int64(len(pvdMagic))], pvdMagic) {
				absolute := int64(hunkIdx)*sectorsPerHunk + sectorInHunk
				return max(absolute-16, 0)
			}
		}
	}
	return 0
}

// userDataOffset returns where user data starts within the unit at off:
// 16 for Mode 1 raw sectors, 24 for Mode 2, 0 when the codec already
// stripped the sector header.
func userDataOffset(hunk []byte, off int64) int64 {
	if off+16 > int64(len(hunk)) {
		return 0
	}
	if hunk[off] != 0x00 || hunk[off+1] != 0xFF || hunk[off+11] != 0x00 {
		return 0
	}
	if hunk[off+15] == 2 {
		return 24
	}
	return 16
}

// sectorReader implements io.ReaderAt over 2048-byte logical sectors.
type sectorReader struct {
	chd            *CHD
	dataTrackStart int64
}

// ReadAt reads logical sector data at off.
func (sr *sectorReader) ReadAt(dest []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("%w: negative offset", ErrInvalidHunk)
	}
	if len(dest) == 0 {
		return 0, nil
	}

	unitBytes := sr.chd.unitBytes()
	sectorsPerHunk := int64(sr.chd.hunkMap.HunkBytes()) / unitBytes
	if sectorsPerHunk <= 0 {
		return 0, fmt.Errorf("%w: hunk smaller than one unit", ErrInvalidHeader)
	}

	total := 0
	for total < len(dest) {
		logical := off/UserSectorSize + sr.dataTrackStart
		inSector := off % UserSectorSize
		hunkIdx := logical / sectorsPerHunk
		if hunkIdx >= int64(sr.chd.hunkMap.NumHunks()) {
			break
		}

		hunkData, err := sr.chd.hunkMap.ReadHunk(uint32(hunkIdx)) //nolint:gosec // Checked against NumHunks
		if err != nil {
			if total > 0 {
				return total, nil
			}
			return 0, fmt.Errorf("read hunk %d: %w", hunkIdx, err)
		}

		sectorOff := (logical % sectorsPerHunk) * unitBytes
		start := sectorOff + userDataOffset(hunkData, sectorOff) + inSector
		if start >= int64(len(hunkData)) {
			break
		}
		avail := min(UserSectorSize-inSector, int64(len(hunkData))-start)
		n := copy(dest[total:], hunkData[start:start+avail])
		total += n
		off += int64(n)
	}

	if total < len(dest) {
		return total, io.EOF
	}
	return total, nil
}
