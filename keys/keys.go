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

// Package keys looks up named encryption keys and verifies them against a
// known plaintext/ciphertext pair before they are used.
package keys

import (
	"bytes"
	"crypto/aes"
	"errors"
	"fmt"
	"sort"
)

// ErrBlockSize indicates verification data that is not a whole number of
// AES blocks.
var ErrBlockSize = errors.New("verification data is not a multiple of the AES block size")

// DefaultPlaintext is the verification plaintext used when a Pair does not
// carry its own.
const DefaultPlaintext = "AES-128-ECB-TEST"

// VerifyResult is the outcome of a key lookup.
type VerifyResult int

const (
	VerifyOK VerifyResult = iota
	VerifyInvalidParams
	VerifyNoSupport
	VerifyStoreNotLoaded
	VerifyKeyNotFound
	VerifyKeyInvalid
	VerifyWrongKey
)

// String returns a user-facing description of the result.
func (r VerifyResult) String() string {
	switch r {
	case VerifyOK:
		return "Key verified"
	case VerifyInvalidParams:
		return "Invalid key verification parameters"
	case VerifyNoSupport:
		return "No verification data is available for this key"
	case VerifyStoreNotLoaded:
		return "keys.conf was not found"
	case VerifyKeyNotFound:
		return "The key was not found in keys.conf"
	case VerifyKeyInvalid:
		return "The key in keys.conf is not valid"
	case VerifyWrongKey:
		return "The key in keys.conf is incorrect"
	default:
		return "Unknown key verification error"
	}
}

// Pair is a known-answer test for a key: Ciphertext decrypted with the key
// in AES-ECB must equal Plaintext.
type Pair struct {
	Plaintext  []byte // DefaultPlaintext when empty
	Ciphertext []byte
}

// Store resolves named keys.
type Store interface {
	// GetAndVerify returns the key only when the result is VerifyOK. A zero
	// Pair selects the store's own verification data for name.
	GetAndVerify(name string, pair Pair) ([]byte, VerifyResult)
	// Verification returns the store's verification data for name.
	Verification(name string) (Pair, bool)
}

// Verify checks key against pair.
func Verify(key []byte, pair Pair) VerifyResult {
	plain := pair.Plaintext
	if len(plain) == 0 {
		plain = []byte(DefaultPlaintext)
	}
	if len(pair.Ciphertext) == 0 || len(pair.Ciphertext) != len(plain) || len(plain)%aes.BlockSize != 0 {
		return VerifyInvalidParams
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return VerifyKeyInvalid
	}
	out := make([]byte, len(pair.Ciphertext))
	for i := 0; i < len(out); i += aes.BlockSize {
		block.Decrypt(out[i:i+aes.BlockSize], pair.Ciphertext[i:i+aes.BlockSize])
	}
	if !bytes.Equal(out, plain) {
		return VerifyWrongKey
	}
	return VerifyOK
}

// Encrypt builds a Pair for key from plaintext, or DefaultPlaintext when
// plaintext is empty. It is used to produce [Verify] entries.
func Encrypt(key, plaintext []byte) (Pair, error) {
	if len(plaintext) == 0 {
		plaintext = []byte(DefaultPlaintext)
	}
	if len(plaintext)%aes.BlockSize != 0 {
		return Pair{}, fmt.Errorf("%w: %d bytes", ErrBlockSize, len(plaintext))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return Pair{}, fmt.Errorf("create cipher: %w", err)
	}
	out := make([]byte, len(plaintext))
	for i := 0; i < len(out); i += aes.BlockSize {
		block.Encrypt(out[i:i+aes.BlockSize], plaintext[i:i+aes.BlockSize])
	}
	return Pair{Plaintext: bytes.Clone(plaintext), Ciphertext: out}, nil
}

// Memory is an in-memory Store.
type Memory struct {
	keys   map[string][]byte
	verify map[string]Pair
	loaded bool
}

// NewMemory returns an empty, loaded store.
func NewMemory() *Memory {
	return &Memory{keys: map[string][]byte{}, verify: map[string]Pair{}, loaded: true}
}

// Unloaded returns a store that reports VerifyStoreNotLoaded for every key.
func Unloaded() *Memory {
	m := NewMemory()
	m.loaded = false
	return m
}

// Set stores a key. A nil key marks the entry as present but invalid.
func (m *Memory) Set(name string, key []byte) {
	m.keys[name] = bytes.Clone(key)
}

// SetVerification stores verification data for name.
func (m *Memory) SetVerification(name string, pair Pair) {
	m.verify[name] = pair
}

// Loaded reports whether the store was backed by a keys file.
func (m *Memory) Loaded() bool { return m.loaded }

// Names returns the stored key names in sorted order.
func (m *Memory) Names() []string {
	names := make([]string, 0, len(m.keys))
	for name := range m.keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Verification implements Store.
func (m *Memory) Verification(name string) (Pair, bool) {
	p, ok := m.verify[name]
	return p, ok
}

// GetAndVerify implements Store.
func (m *Memory) GetAndVerify(name string, pair Pair) ([]byte, VerifyResult) {
	if !m.loaded {
		return nil, VerifyStoreNotLoaded
	}
	if name == "" {
		return nil, VerifyInvalidParams
	}
	key, ok := m.keys[name]
	if !ok {
		return nil, VerifyKeyNotFound
	}
	if key == nil {
		return nil, VerifyKeyInvalid
	}
	if len(pair.Ciphertext) == 0 {
		if pair, ok = m.verify[name]; !ok {
			return nil, VerifyNoSupport
		}
	}
	if res := Verify(key, pair); res != VerifyOK {
		return nil, res
	}
	return bytes.Clone(key), VerifyOK
}
