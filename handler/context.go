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
	"fmt"
	"log/slog"
	"slices"

	"github.com/ZaparooProject/go-romprops/keys"
	"github.com/ZaparooProject/go-romprops/source"
)

// DefaultMaxDepth bounds how many formats may nest inside each other,
// counting the outermost file.
const DefaultMaxDepth = 4

// Context carries the collaborators shared by every handler in one
// detection: key material, logging and the nesting guard.
type Context struct {
	Keys     keys.Store
	Logger   *slog.Logger
	MaxDepth int

	chain []uint64
}

// NewContext returns a context with the given key store and logger. Nil
// arguments select an unloaded key store and a discarding logger.
func NewContext(store keys.Store, logger *slog.Logger) *Context {
	if store == nil {
		store = keys.Unloaded()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Context{Keys: store, Logger: logger, MaxDepth: DefaultMaxDepth}
}

// Depth returns how many regions are on the nesting chain.
func (c *Context) Depth() int { return len(c.chain) }

// Nested returns a child context for parsing the region id. It fails when
// the depth limit is reached or id is already being parsed.
func (c *Context) Nested(id source.Identity) (*Context, error) {
	maxDepth := c.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if len(c.chain) >= maxDepth {
		return nil, fmt.Errorf("%w: %d", ErrTooDeep, maxDepth)
	}
	key := id.Key()
	if slices.Contains(c.chain, key) {
		return nil, ErrCycle
	}
	child := *c
	child.chain = append(slices.Clip(c.chain), key)
	return &child, nil
}

func (c *Context) logger() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

func (c *Context) keys() keys.Store {
	if c == nil || c.Keys == nil {
		return keys.Unloaded()
	}
	return c.Keys
}
