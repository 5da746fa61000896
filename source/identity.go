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

package source

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Identity structurally identifies a byte region: the backing store it lives
// in and its bounds. Two handles with equal identities expose the same bytes.
type Identity struct {
	Backing uint64
	Offset  int64
	Length  int64
}

// Key folds the identity into a single hash.
func (id Identity) Key() uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], id.Backing)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(id.Offset)) //nolint:gosec // Bit pattern only
	binary.LittleEndian.PutUint64(buf[16:24], uint64(id.Length)) //nolint:gosec // Bit pattern only
	return xxhash.Sum64(buf[:])
}

func hashName(name string) uint64 {
	return xxhash.Sum64String(name)
}

func hashDerived(tag string, parent Identity) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(tag)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], parent.Key())
	_, _ = d.Write(buf[:])
	return d.Sum64()
}
