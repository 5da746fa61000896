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
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"

	"github.com/ZaparooProject/go-romprops/source"
)

// CBCReader presents the AES-128-CBC decryption of an encrypted region.
// Only the cipher blocks covering a request are decrypted.
type CBCReader struct {
	src    io.ReaderAt
	block  cipher.Block
	iv     [aes.BlockSize]byte
	offset int64
	length int64
}

// NewCBCReader decrypts [offset, offset+length) of src with key and iv.
// length is rounded down to a whole number of cipher blocks.
func NewCBCReader(src io.ReaderAt, offset, length int64, key, iv []byte) (*CBCReader, error) {
	if len(key) != aes.BlockSize || len(iv) != aes.BlockSize {
		return nil, ErrKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	r := &CBCReader{
		src:    src,
		block:  block,
		offset: offset,
		length: length &^ (aes.BlockSize - 1),
	}
	copy(r.iv[:], iv)
	return r, nil
}

// OpenCBC returns a handle onto the decrypted view of a region of h.
func OpenCBC(h *source.Handle, offset, length int64, key, iv []byte) (*source.Handle, error) {
	return source.Derive(h, fmt.Sprintf("cbc@%X", offset), func(ref *source.Handle) (io.ReaderAt, int64, error) {
		r, err := NewCBCReader(ref, offset, length, key, iv)
		if err != nil {
			return nil, 0, err
		}
		return r, r.Size(), nil
	})
}

// Size returns the decrypted length.
func (r *CBCReader) Size() int64 { return r.length }

// ReadAt implements io.ReaderAt over the plaintext.
func (r *CBCReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, source.ErrNegativeOffset
	}
	if off >= r.length {
		return 0, io.EOF
	}
	end := min(off+int64(len(p)), r.length)

	const bs = aes.BlockSize
	first := off / bs * bs
	last := (end + bs - 1) / bs * bs

	// The IV of block n is ciphertext block n-1, so read one extra block in front.
	ivStart := first - bs
	readStart := max(ivStart, 0)
	buf := make([]byte, last-readStart)
	if got, err := r.src.ReadAt(buf, r.offset+readStart); got < len(buf) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return 0, fmt.Errorf("read ciphertext: %w", err)
	}

	iv := r.iv[:]
	cipherText := buf
	if ivStart >= 0 {
		iv = buf[:bs]
		cipherText = buf[bs:]
	}
	plain := make([]byte, len(cipherText))
	cipher.NewCBCDecrypter(r.block, iv).CryptBlocks(plain, cipherText)

	n := copy(p, plain[off-first:end-first])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// DecryptCBC decrypts data with AES-128-CBC into a new buffer.
// len(data) must be a multiple of 16.
func DecryptCBC(key, iv, data []byte) ([]byte, error) {
	if len(key) != aes.BlockSize || len(iv) != aes.BlockSize {
		return nil, ErrKeySize
	}
	if len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("decrypt: %d bytes is not a whole number of blocks", len(data))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)
	return out, nil
}
