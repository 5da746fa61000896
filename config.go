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

package romprops

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gobeaver/beaver-kit/config"

	"github.com/ZaparooProject/go-romprops/handler"
	"github.com/ZaparooProject/go-romprops/keys"
)

// Config holds the settings read from the environment. Variable names
// carry the keys.EnvPrefix prefix, as in ROMPROPS_MAX_DEPTH.
type Config struct {
	KeysFile string `env:"KEYS_FILE"`
	LogLevel string `env:"LOG_LEVEL,default:warn"`
	MaxDepth int    `env:"MAX_DEPTH,default:4"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: keys.EnvPrefix}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// ParseLogLevel converts a level name such as "debug" or "warn" to a
// slog.Level.
func ParseLogLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", name, err)
	}
	return level, nil
}

// Option configures Open, OpenSource and OpenMany.
type Option func(*settings) error

type settings struct {
	keys     keys.Store
	logger   *slog.Logger
	maxDepth int
}

func newSettings(opts []Option) (*settings, error) {
	s := &settings{maxDepth: handler.DefaultMaxDepth}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.keys == nil {
		s.keys = keys.Default()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s, nil
}

// WithKeyStore sets the store encryption keys are fetched from. The
// default is keys.Default.
func WithKeyStore(store keys.Store) Option {
	return func(s *settings) error {
		s.keys = store
		return nil
	}
}

// WithLogger sets the logger handlers report non-fatal problems to.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) error {
		s.logger = logger
		return nil
	}
}

// WithMaxDepth bounds how many formats may nest, counting the outermost
// file.
func WithMaxDepth(depth int) Option {
	return func(s *settings) error {
		if depth < 1 {
			return fmt.Errorf("max depth %d: must be at least 1", depth)
		}
		s.maxDepth = depth
		return nil
	}
}

// WithConfig applies cfg. A keys file that cannot be read leaves an
// unloaded store, so protected content reports a missing keys file rather
// than failing to open.
func WithConfig(cfg *Config) Option {
	return func(s *settings) error {
		if cfg == nil {
			return nil
		}
		if cfg.MaxDepth > 0 {
			s.maxDepth = cfg.MaxDepth
		}
		if cfg.KeysFile != "" {
			store, err := keys.LoadFile(cfg.KeysFile)
			if err != nil {
				s.keys = keys.Unloaded()
			} else {
				s.keys = store
			}
		}
		return nil
	}
}
