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
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/ZaparooProject/go-romprops/fields"
	"github.com/ZaparooProject/go-romprops/source"
)

// maxChecksumSize bounds whole-file checksums of cartridge dumps.
const maxChecksumSize = 64 * 1024 * 1024

var errTooLargeToHash = errors.New("file too large to checksum")

// romDigest holds whole-file checksums used by ROM databases.
type romDigest struct {
	crc32 uint32
	xxh64 uint64
	size  int64
}

// digest streams src through CRC-32 and xxHash64. Sources larger than
// maxChecksumSize are not hashed.
func digest(src *source.Handle) (romDigest, error) {
	if src.Size() > maxChecksumSize {
		return romDigest{}, fmt.Errorf("%w: %d bytes", errTooLargeToHash, src.Size())
	}
	crc := crc32.NewIEEE()
	xx := xxhash.New()
	n, err := io.Copy(io.MultiWriter(crc, xx), io.NewSectionReader(src, 0, src.Size()))
	if err != nil {
		return romDigest{}, fmt.Errorf("checksum: %w", err)
	}
	return romDigest{crc32: crc.Sum32(), xxh64: xx.Sum64(), size: n}, nil
}

func (d romDigest) addFields(f *fields.Fields) {
	f.AddHex("CRC32", int64(d.crc32), 8, fields.Monospace)
	f.AddString("xxHash64", fmt.Sprintf("%016x", d.xxh64), fields.Monospace)
}

// addDigest adds checksum fields for the handler's whole input. Failures
// only cost the fields.
func (b *base) addDigest(f *fields.Fields) {
	d, err := digest(b.src)
	if err != nil {
		b.log().Debug("checksum skipped", "err", err)
		return
	}
	d.addFields(f)
}

// checksumStatus formats a stored checksum against the computed one.
func checksumStatus(stored, actual uint32, digits int) string {
	if stored == actual {
		return fmt.Sprintf("0x%0*X (valid)", digits, stored)
	}
	return fmt.Sprintf("0x%0*X (invalid; should be 0x%0*X)", digits, stored, digits, actual)
}
