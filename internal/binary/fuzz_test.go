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
	"bytes"
	"testing"
)

// FuzzFindBytesInRange fuzzes the pattern search over a reader.
func FuzzFindBytesInRange(f *testing.F) {
	f.Add([]byte("hello world"), []byte("world"))
	f.Add([]byte("hello world"), []byte("xyz"))
	f.Add([]byte{}, []byte("test"))
	f.Add([]byte{0x00, 0x01, 0x02}, []byte{0x01, 0x02})

	f.Fuzz(func(t *testing.T, haystack, needle []byte) {
		if len(needle) == 0 {
			return
		}
		idx, err := FindBytesInRange(bytes.NewReader(haystack), 0, int64(len(haystack)), needle)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if idx >= 0 && !bytes.Equal(haystack[idx:idx+int64(len(needle))], needle) {
			t.Errorf("FindBytesInRange returned %d but needle not found there", idx)
		}
	})
}

// FuzzWindow checks that Window never returns a slice outside its input.
func FuzzWindow(f *testing.F) {
	f.Add([]byte("abcdef"), 2, 3)
	f.Add([]byte{}, 0, 1)
	f.Add([]byte("x"), -1, 1)

	f.Fuzz(func(t *testing.T, b []byte, off, n int) {
		w := Window(b, off, n)
		if w != nil && len(w) != n {
			t.Errorf("Window(%d, %d) returned %d bytes", off, n, len(w))
		}
	})
}
