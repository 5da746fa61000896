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
	"image"
	"image/png"
	"io"
	"log/slog"

	"github.com/ZaparooProject/go-romprops/fields"
	"github.com/ZaparooProject/go-romprops/source"
)

// maxImageSize bounds the encoded size of an embedded image.
const maxImageSize = 8 * 1024 * 1024

// loader builds the fields of a valid handler.
type loader interface {
	loadFields(f *fields.Fields) error
}

// imager is implemented by handlers with embedded images.
type imager interface {
	supportedImages() []fields.ImageRole
	imageSizes(role fields.ImageRole) []fields.ImageSize
	decodeImage(role fields.ImageRole) (image.Image, error)
}

// base holds the state shared by every handler: the owned source, the
// validity flag, nested resources, and the field and image caches.
type base struct {
	ctx     *Context
	src     *source.Handle
	impl    loader
	err     error
	fields  *fields.Fields
	images  map[fields.ImageRole]*fields.Image
	closers []io.Closer
	class   string
	names   [numNameVariants]string
	ftype   FileType
	loaded  bool
	valid   bool
}

// construct takes a reference to src and runs parse. On failure the
// handler is invalid and holds no readers.
func (b *base) construct(ctx *Context, src *source.Handle, impl loader, class string, ft FileType,
	parse func() error,
) {
	if ctx == nil {
		ctx = NewContext(nil, nil)
	}
	b.ctx, b.impl, b.class, b.ftype = ctx, impl, class, ft
	if src == nil {
		b.invalidate(ErrNotOpen)
		return
	}
	ref, err := src.Acquire()
	if err != nil {
		b.invalidate(err)
		return
	}
	b.src = ref
	if err := parse(); err != nil {
		b.invalidate(err)
		return
	}
	b.valid = true
}

func (b *base) setNames(long, short, abbrev string) {
	b.names = [numNameVariants]string{long, short, abbrev}
}

func (b *base) invalidate(err error) {
	b.valid = false
	b.err = err
	_ = b.release()
	b.log().Debug("construction failed", slog.Any("err", err))
}

// own registers a resource released with the handler.
func (b *base) own(c io.Closer) {
	b.closers = append(b.closers, c)
}

func (b *base) release() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i].Close())
	}
	b.closers = nil
	if b.src != nil {
		errs = append(errs, b.src.Close())
		b.src = nil
	}
	return errors.Join(errs...)
}

func (b *base) log() *slog.Logger {
	l := b.ctx.logger().With(slog.String("handler", b.class))
	if b.src != nil {
		l = l.With(slog.String("path", b.src.Name()))
	}
	return l
}

// nested constructs a handler of a known format over a region of this
// handler's input. The nested handler is closed with b.
func (b *base) nested(newFn func(*Context, *source.Handle) Handler, src *source.Handle) (Handler, error) {
	child, err := b.ctx.Nested(src.Identity())
	if err != nil {
		return nil, err
	}
	h := newFn(child, src)
	if !h.IsValid() {
		return nil, h.Err()
	}
	b.own(h)
	return h, nil
}

// detectNested runs detection over a region of this handler's input. The
// detected handler is closed with b.
func (b *base) detectNested(src *source.Handle, ext string) (Handler, error) {
	h, err := Detect(b.ctx, src, ext)
	if err != nil {
		return nil, err
	}
	b.own(h)
	return h, nil
}

// IsValid implements Handler.
func (b *base) IsValid() bool { return b.valid }

// Err implements Handler.
func (b *base) Err() error { return b.err }

// ClassName implements Handler.
func (b *base) ClassName() string { return b.class }

// FileType implements Handler.
func (b *base) FileType() FileType { return b.ftype }

// SystemName implements Handler.
func (b *base) SystemName(v NameVariant) string {
	if !b.valid || v >= numNameVariants {
		return ""
	}
	return b.names[v]
}

// LoadFields implements Handler.
func (b *base) LoadFields() (int, error) {
	switch {
	case b.loaded:
		return b.fields.Len(), nil
	case !b.valid:
		return 0, ErrInvalidHandler
	case b.src == nil || b.src.Closed():
		return 0, ErrNotOpen
	}
	f := fields.New()
	if err := b.impl.loadFields(f); err != nil {
		return 0, fmt.Errorf("load %s fields: %w", b.class, err)
	}
	b.fields = f
	b.loaded = true
	return f.Len(), nil
}

// Fields implements Handler.
func (b *base) Fields() *fields.Fields {
	if b.fields == nil {
		return fields.New()
	}
	return b.fields
}

// SupportedImages implements Handler.
func (b *base) SupportedImages() []fields.ImageRole {
	im, ok := b.impl.(imager)
	if !ok || !b.valid {
		return nil
	}
	return im.supportedImages()
}

// ImageSizes implements Handler.
func (b *base) ImageSizes(role fields.ImageRole) []fields.ImageSize {
	im, ok := b.impl.(imager)
	if !ok || !b.valid {
		return nil
	}
	return im.imageSizes(role)
}

// LoadImage implements Handler.
func (b *base) LoadImage(role fields.ImageRole) *fields.Image {
	if img, ok := b.images[role]; ok {
		return img
	}
	im, ok := b.impl.(imager)
	if !ok || !b.valid || b.src == nil {
		return nil
	}
	decoded, err := im.decodeImage(role)
	if b.images == nil {
		b.images = make(map[fields.ImageRole]*fields.Image)
	}
	if err != nil || decoded == nil {
		if err != nil {
			b.log().Warn("image decode failed", slog.String("role", role.String()), slog.Any("err", err))
		}
		b.images[role] = nil
		return nil
	}
	bounds := decoded.Bounds()
	img := &fields.Image{
		Image: decoded,
		Role:  role,
		Size:  fields.ImageSize{Width: bounds.Dx(), Height: bounds.Dy()},
	}
	b.images[role] = img
	return img
}

// Close implements Handler.
func (b *base) Close() error {
	return b.release()
}

// decodePNG decodes a PNG stored in h.
func decodePNG(h *source.Handle) (image.Image, error) {
	if h.Size() > maxImageSize {
		return nil, fmt.Errorf("image too large: %d bytes", h.Size())
	}
	img, err := png.Decode(io.NewSectionReader(h, 0, h.Size()))
	if err != nil {
		return nil, fmt.Errorf("decode PNG: %w", err)
	}
	return img, nil
}
