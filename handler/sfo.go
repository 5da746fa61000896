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
	"encoding/binary"
	"fmt"
	"strings"
)

// PARAM.SFO layout.
const (
	sfoHeaderSize = 0x14
	sfoEntrySize  = 0x10
	sfoMaxEntries = 256

	sfoFormatUTF8S = 0x0004
	sfoFormatUTF8  = 0x0204
	sfoFormatInt32 = 0x0404
)

var sfoMagic = []byte("\x00PSF")

// sfoValue is one PARAM.SFO entry; Str is set for string entries and Int
// for integer entries.
type sfoValue struct {
	Str   string
	Int   uint32
	IsInt bool
}

// parseSFO decodes a PARAM.SFO key/value table.
func parseSFO(data []byte) (map[string]sfoValue, error) {
	if len(data) < sfoHeaderSize || !bytes.HasPrefix(data, sfoMagic) {
		return nil, formatErr("PARAM.SFO", "bad header")
	}
	le := binary.LittleEndian
	keyTable := le.Uint32(data[8:])
	dataTable := le.Uint32(data[12:])
	count := le.Uint32(data[16:])
	if count > sfoMaxEntries {
		return nil, formatErr("PARAM.SFO", "%d entries", count)
	}
	if uint64(sfoHeaderSize)+uint64(count)*sfoEntrySize > uint64(len(data)) {
		return nil, formatErr("PARAM.SFO", "index overruns file")
	}

	out := make(map[string]sfoValue, count)
	for i := range count {
		e := data[sfoHeaderSize+i*sfoEntrySize:]
		keyOff := uint64(keyTable) + uint64(le.Uint16(e[0:]))
		format := le.Uint16(e[2:])
		length := uint64(le.Uint32(e[4:]))
		valOff := uint64(dataTable) + uint64(le.Uint32(e[12:]))
		if keyOff >= uint64(len(data)) || valOff+length > uint64(len(data)) {
			return nil, formatErr("PARAM.SFO", "entry %d out of range", i)
		}
		key := data[keyOff:]
		if n := bytes.IndexByte(key, 0); n >= 0 {
			key = key[:n]
		}
		val := data[valOff : valOff+length]
		switch format {
		case sfoFormatInt32:
			if len(val) < 4 {
				return nil, formatErr("PARAM.SFO", "short integer %q", key)
			}
			out[string(key)] = sfoValue{Int: le.Uint32(val), IsInt: true}
		case sfoFormatUTF8, sfoFormatUTF8S:
			out[string(key)] = sfoValue{Str: strings.TrimRight(string(val), "\x00")}
		}
	}
	return out, nil
}

func (v sfoValue) String() string {
	if v.IsInt {
		return fmt.Sprintf("%d", v.Int)
	}
	return v.Str
}
