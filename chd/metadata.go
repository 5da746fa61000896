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

package chd

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Metadata tags that describe CD tracks.
const (
	MetaTagCHTR = 0x43485452 // "CHTR", track text, V3
	MetaTagCHT2 = 0x43485432 // "CHT2", track text with gaps
	MetaTagCHGD = 0x43484744 // "CHGD", GD-ROM track text
	MetaTagCHCD = 0x43484344 // "CHCD", binary table of all tracks
)

const (
	metaHeaderSize = 16
	chcdEntrySize  = 24
)

// Track is one CD track described by the image metadata.
type Track struct {
	Type    string // "MODE1_RAW", "MODE2/2352", "AUDIO" and so on
	SubType string
	Number  int
	Frames  int
	Pregap  int
	Postgap int
	// StartFrame is the first frame of the track's pregap on the disc.
	StartFrame int
}

// IsDataTrack reports whether the track holds data rather than audio.
func (t *Track) IsDataTrack() bool {
	return !strings.EqualFold(t.Type, "AUDIO")
}

// Mode returns the upper-case track type, or "UNKNOWN".
func (t *Track) Mode() string {
	if t.Type == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(t.Type)
}

type metaEntry struct {
	data []byte
	tag  uint32
}

// readMetadata follows the metadata chain starting at off. Each entry is
// tag(4) flags(1) length(3) next(8) followed by length bytes of data.
func readMetadata(r io.ReaderAt, off uint64) ([]metaEntry, error) {
	var entries []metaEntry
	seen := make(map[uint64]struct{})
	for off != 0 {
		if _, dup := seen[off]; dup {
			return entries, fmt.Errorf("%w: chain loops at offset %d", ErrInvalidMetadata, off)
		}
		seen[off] = struct{}{}
		if len(entries) == maxMetadataEntries {
			return entries, fmt.Errorf("%w: more than %d entries", ErrInvalidMetadata, maxMetadataEntries)
		}

		var hdr [metaHeaderSize]byte
		pos := int64(off) //nolint:gosec // Offsets past the file fail in ReadAt
		if _, err := r.ReadAt(hdr[:], pos); err != nil {
			return entries, fmt.Errorf("read metadata at %d: %w", off, err)
		}
		e := metaEntry{
			tag:  binary.BigEndian.Uint32(hdr[0:]),
			data: make([]byte, binary.BigEndian.Uint32(hdr[4:])&0xFFFFFF),
		}
		if len(e.data) > 0 {
			if _, err := r.ReadAt(e.data, pos+metaHeaderSize); err != nil {
				return entries, fmt.Errorf("read metadata at %d: %w", off, err)
			}
		}
		entries = append(entries, e)
		off = binary.BigEndian.Uint64(hdr[8:])
	}
	return entries, nil
}

// tracksFromMetadata collects the CD tracks and lays them out on the disc.
func tracksFromMetadata(entries []metaEntry) ([]Track, error) {
	var tracks []Track
	for _, e := range entries {
		switch e.tag {
		case MetaTagCHTR, MetaTagCHT2, MetaTagCHGD:
			t, err := parseTrackText(e.data)
			if err != nil {
				return nil, err
			}
			tracks = append(tracks, t)
		case MetaTagCHCD:
			ts, err := parseCHCD(e.data)
			if err != nil {
				return nil, err
			}
			tracks = append(tracks, ts...)
		}
		if len(tracks) > maxTracks {
			return nil, fmt.Errorf("%w: more than %d tracks", ErrInvalidMetadata, maxTracks)
		}
	}

	frame := 0
	for i := range tracks {
		tracks[i].StartFrame = frame
		frame += tracks[i].Pregap + tracks[i].Frames + tracks[i].Postgap
	}
	return tracks, nil
}

// parseTrackText parses the space-separated KEY:VALUE form, as in
// "TRACK:1 TYPE:MODE1_RAW SUBTYPE:NONE FRAMES:1234 PREGAP:0". Unknown keys
// are ignored.
func parseTrackText(data []byte) (Track, error) {
	var t Track
	numbers := map[string]*int{
		"TRACK":   &t.Number,
		"FRAMES":  &t.Frames,
		"PREGAP":  &t.Pregap,
		"POSTGAP": &t.Postgap,
	}
	for _, kv := range strings.Fields(strings.TrimRight(string(data), "\x00")) {
		key, value, ok := strings.Cut(kv, ":")
		if !ok {
			continue
		}
		switch key = strings.ToUpper(key); key {
		case "TYPE":
			t.Type = value
		case "SUBTYPE":
			t.SubType = value
		default:
			dst, ok := numbers[key]
			if !ok {
				continue
			}
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return t, fmt.Errorf("%w: %s:%s", ErrInvalidMetadata, key, value)
			}
			*dst = n
		}
	}
	return t, nil
}

var (
	chcdTrackTypes = []string{"MODE1/2048", "MODE1/2352", "MODE2/2048", "MODE2/2336", "MODE2/2352", "AUDIO"}
	chcdSubTypes   = []string{"RW", "RW_RAW", "NONE"}
)

// parseCHCD parses the binary track table: a big-endian track count, then
// per track type(4) subtype(4) data size(4) subchannel size(4) frames(4)
// and padding frames(4).
func parseCHCD(data []byte) ([]Track, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: short CHCD entry", ErrInvalidMetadata)
	}
	n := binary.BigEndian.Uint32(data)
	if n > maxTracks || len(data) < 4+int(n)*chcdEntrySize {
		return nil, fmt.Errorf("%w: CHCD with %d tracks in %d bytes", ErrInvalidMetadata, n, len(data))
	}

	name := func(names []string, v uint32, fallback string) string {
		if v < uint32(len(names)) { //nolint:gosec // Short fixed tables
			return names[v]
		}
		return fallback
	}
	tracks := make([]Track, n)
	for i := range tracks {
		e := data[4+i*chcdEntrySize:]
		tracks[i] = Track{
			Number:  i + 1,
			Type:    name(chcdTrackTypes, binary.BigEndian.Uint32(e[0:]), "UNKNOWN"),
			SubType: name(chcdSubTypes, binary.BigEndian.Uint32(e[4:]), "NONE"),
			Frames:  int(binary.BigEndian.Uint32(e[16:])),
		}
	}
	return tracks, nil
}
