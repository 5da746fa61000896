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

// Package disc provides transform readers that turn container and encoded
// disc images into plain byte sources: CISO/ZISO/DAX decompression, AES-CBC
// decryption, raw 2352-byte sector unwrapping and CHD data tracks.
package disc

import "errors"

// Allocation limits against hostile images.
const (
	// MaxCISOBlocks bounds the CISO index (64M blocks of 2 KiB = 128 GiB).
	MaxCISOBlocks = 64 * 1024 * 1024
)

var (
	// ErrNotCISO indicates the header is not a CISO or ZISO image.
	ErrNotCISO = errors.New("not a CISO/ZISO image")

	// ErrNotDAX indicates the header is not a DAX image.
	ErrNotDAX = errors.New("not a DAX image")

	// ErrCorruptIndex indicates an inconsistent block index.
	ErrCorruptIndex = errors.New("corrupt block index")

	// ErrDecompress indicates a block failed to decompress.
	ErrDecompress = errors.New("block decompression failed")

	// ErrKeySize indicates an AES key or IV of the wrong length.
	ErrKeySize = errors.New("AES-128 key and IV must be 16 bytes")

	// ErrNotRaw2352 indicates the image is not a raw 2352-byte sector image.
	ErrNotRaw2352 = errors.New("not a raw 2352-byte sector image")
)
