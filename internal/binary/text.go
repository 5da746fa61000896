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

package binary

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// Latin1 decodes ISO-8859-1 bytes, cutting at the first NUL.
func Latin1(b []byte) string {
	return decode(charmap.ISO8859_1.NewDecoder(), b)
}

// ShiftJIS decodes Shift-JIS bytes, cutting at the first NUL. Undecodable
// input falls back to the printable ASCII subset.
func ShiftJIS(b []byte) string {
	return decode(japanese.ShiftJIS.NewDecoder(), b)
}

// UTF16BE decodes big-endian UTF-16 without a BOM, stopping at the first
// NUL code unit.
func UTF16BE(b []byte) string {
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			b = b[:i]
			break
		}
	}
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func decode(dec *encoding.Decoder, b []byte) string {
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	out, err := dec.Bytes(b)
	if err != nil {
		return ExtractPrintable(b)
	}
	return strings.TrimSpace(string(out))
}
