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

package testimage

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"unicode/utf16"
)

// WADOptions describes a single-content Wii WAD package.
type WADOptions struct {
	CommonKey    []byte // encrypts the title key
	TitleKey     []byte // encrypts the content
	Content      []byte // plaintext of content 0
	TitleID      uint64
	SysVersion   uint64
	AccessRights uint32
	ContentID    uint32
	TitleVersion uint16
	Region       uint16
}

const (
	wadAlign      = 64
	wadCertSize   = 0x40
	wadTicketSize = 0x2A4
	wadTMDSize    = 0x1E4 + 0x24
)

func align64(n int) int { return (n + wadAlign - 1) &^ (wadAlign - 1) }

// WAD builds an installable WAD with a ticket, a TMD with one content
// record and the encrypted content.
func WAD(opts WADOptions) []byte {
	be := binary.BigEndian

	ticket := make([]byte, wadTicketSize)
	be.PutUint64(ticket[0x1DC:], opts.TitleID)
	iv := make([]byte, aes.BlockSize)
	copy(iv, ticket[0x1DC:0x1E4])
	copy(ticket[0x1BF:], encryptCBC(opts.CommonKey, iv, opts.TitleKey))

	tmd := make([]byte, wadTMDSize)
	be.PutUint64(tmd[0x184:], opts.SysVersion)
	be.PutUint64(tmd[0x18C:], opts.TitleID)
	be.PutUint16(tmd[0x19C:], opts.Region)
	be.PutUint32(tmd[0x1D8:], opts.AccessRights)
	be.PutUint16(tmd[0x1DC:], opts.TitleVersion)
	be.PutUint16(tmd[0x1DE:], 1)
	rec := tmd[0x1E4:]
	be.PutUint32(rec[0:], opts.ContentID)
	be.PutUint16(rec[6:], 0x0001)
	be.PutUint64(rec[8:], uint64(len(opts.Content)))

	plain := make([]byte, (len(opts.Content)+aes.BlockSize-1)&^(aes.BlockSize-1))
	copy(plain, opts.Content)
	data := encryptCBC(opts.TitleKey, make([]byte, aes.BlockSize), plain)

	header := make([]byte, 0x20)
	be.PutUint32(header[0:], 0x20)
	be.PutUint32(header[4:], 0x49730000)
	be.PutUint32(header[8:], wadCertSize)
	be.PutUint32(header[16:], wadTicketSize)
	be.PutUint32(header[20:], wadTMDSize)
	be.PutUint32(header[24:], uint32(len(data)))

	out := make([]byte, 0, 4096+len(data))
	for _, part := range [][]byte{header, make([]byte, wadCertSize), ticket, tmd, data} {
		out = append(out, part...)
		out = append(out, make([]byte, align64(len(part))-len(part))...)
	}
	return out
}

// Banner returns an opening.bnr prefix whose IMET header carries title
// as the English channel name.
func Banner(title string) []byte {
	b := make([]byte, 0x600)
	copy(b[0x40:], "IMET")
	name := b[0x5C+0x54:]
	for i, u := range utf16.Encode([]rune(title)) {
		binary.BigEndian.PutUint16(name[i*2:], u)
	}
	return b
}

func encryptCBC(key, iv, plain []byte) []byte {
	block, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}
	out := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plain)
	return out
}
