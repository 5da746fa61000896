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

// Package romprops reads descriptive properties out of ROM images, disc
// images, executables and the containers they ship in. It detects the
// format of a file, including formats nested inside compressed images and
// archives, and exposes what it finds as tabbed fields and images.
package romprops

import (
	"context"
	"errors"
	"fmt"
	"path"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ZaparooProject/go-romprops/archive"
	"github.com/ZaparooProject/go-romprops/handler"
	"github.com/ZaparooProject/go-romprops/source"
)

// Handler is an alias for handler.Handler for convenience.
type Handler = handler.Handler

// Re-exported detection errors.
var (
	ErrNotRecognized = handler.ErrNotRecognized
	ErrTooDeep       = handler.ErrTooDeep
)

// Open detects the format of the file at path and returns its handler.
// Paths may reach into an archive, as in "pack.zip/game.gba"; the member
// is read into memory and detected on its own. The caller must Close the
// returned handler.
func Open(filePath string, opts ...Option) (Handler, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	return s.open(filePath)
}

// OpenSource detects the format of src. ext is an optional extension hint;
// when empty the extension of the source name is used. The handler takes
// its own reference to src, so the caller may close src afterwards.
func OpenSource(src *source.Handle, ext string, opts ...Option) (Handler, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}
	return s.detect(src, ext)
}

// Result is the outcome of opening one path with OpenMany.
type Result struct {
	Handler Handler
	Err     error
	Path    string
}

// OpenMany opens every path concurrently, one independent handler per
// path. Per-path failures are reported in the results; the returned error
// is only set when ctx is cancelled, in which case every opened handler is
// closed.
func OpenMany(ctx context.Context, paths []string, opts ...Option) ([]Result, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]Result, len(paths))
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, err := s.open(p)
			results[i] = Result{Path: p, Handler: h, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		CloseAll(results)
		return nil, fmt.Errorf("open many: %w", err)
	}
	return results, nil
}

// CloseAll closes every handler in results.
func CloseAll(results []Result) {
	for i := range results {
		if results[i].Handler != nil {
			_ = results[i].Handler.Close()
			results[i].Handler = nil
		}
	}
}

func (s *settings) open(filePath string) (Handler, error) {
	ap, inArchive, err := archive.ParsePath(filePath)
	if err != nil {
		return nil, err
	}
	if inArchive {
		return s.openMember(ap)
	}

	src, err := source.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()
	return s.detect(src, "")
}

// openMember detects a single member of an archive.
func (s *settings) openMember(ap archive.Path) (Handler, error) {
	src, err := source.Open(ap.ArchivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	arc, err := archive.Open(src, src.Size(), ap.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = arc.Close() }()

	data, err := archive.ReadFile(arc, ap.InternalPath, 0)
	if err != nil {
		return nil, err
	}
	mem := source.FromBytes(ap.ArchivePath+"/"+ap.InternalPath, data)
	defer func() { _ = mem.Close() }()
	return s.detect(mem, path.Ext(ap.InternalPath))
}

func (s *settings) detect(src *source.Handle, ext string) (Handler, error) {
	ctx := handler.NewContext(s.keys, s.logger)
	ctx.MaxDepth = s.maxDepth
	h, err := handler.Detect(ctx, src, ext)
	if err != nil {
		if errors.Is(err, handler.ErrNotRecognized) {
			s.logger.Debug("file not recognized", "path", src.Name(), "err", err)
		}
		return nil, fmt.Errorf("%s: %w", src.Name(), err)
	}
	s.logger.Debug("file recognized", "path", src.Name(), "handler", h.ClassName())
	return h, nil
}
