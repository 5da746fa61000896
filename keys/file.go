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

package keys

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gobeaver/beaver-kit/config"
)

// EnvPrefix prefixes the environment variables read by Default.
const EnvPrefix = "ROMPROPS_"

const (
	sectionKeys   = "keys"
	sectionVerify = "verify"
)

// Load parses a keys file. Entries are name=hex lines in a [Keys] section;
// a [Verify] section holds name=hex ciphertexts of DefaultPlaintext.
// Keys with malformed hex are kept as present but invalid.
func Load(r io.Reader) (*Memory, error) {
	m := NewMemory()
	section := ""
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == ';' || line[0] == '#' {
			continue
		}
		if line[0] == '[' && line[len(line)-1] == ']' {
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		raw, err := hex.DecodeString(strings.TrimSpace(value))
		switch section {
		case sectionKeys:
			if err != nil || len(raw) == 0 {
				raw = nil
			}
			m.Set(name, raw)
		case sectionVerify:
			if err == nil && len(raw) > 0 {
				m.SetVerification(name, Pair{Ciphertext: raw})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read keys: %w", err)
	}
	return m, nil
}

// LoadFile parses the keys file at path.
func LoadFile(path string) (*Memory, error) {
	f, err := os.Open(path) //nolint:gosec // Path from user configuration is expected
	if err != nil {
		return nil, fmt.Errorf("open keys file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// DefaultPath returns <user config dir>/romprops/keys.conf.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "romprops", "keys.conf")
}

type envConfig struct {
	File string `env:"KEYS_FILE"`
}

var defaultStore = sync.OnceValue(func() Store {
	cfg := &envConfig{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: EnvPrefix}); err != nil || cfg.File == "" {
		cfg.File = DefaultPath()
	}
	if cfg.File == "" {
		return Unloaded()
	}
	m, err := LoadFile(cfg.File)
	if err != nil {
		return Unloaded()
	}
	return m
})

// Default returns the process-wide store, loaded once from the file named
// by ROMPROPS_KEYS_FILE or DefaultPath. A missing file yields a store that
// reports VerifyStoreNotLoaded.
func Default() Store { return defaultStore() }
