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
	"image"

	"github.com/ZaparooProject/go-romprops/fields"
)

// wrapped is embedded by container handlers that expose the handler of
// their payload.
type wrapped struct {
	inner Handler
}

// Inner returns the handler of the contained file, or nil when its format
// was not recognized.
func (w *wrapped) Inner() Handler { return w.inner }

func (w *wrapped) supportedImages() []fields.ImageRole {
	if w.inner == nil {
		return nil
	}
	return w.inner.SupportedImages()
}

func (w *wrapped) imageSizes(role fields.ImageRole) []fields.ImageSize {
	if w.inner == nil {
		return nil
	}
	return w.inner.ImageSizes(role)
}

func (w *wrapped) decodeImage(role fields.ImageRole) (image.Image, error) {
	if w.inner == nil {
		return nil, nil //nolint:nilnil // No payload
	}
	if img := w.inner.LoadImage(role); img != nil {
		return img.Image, nil
	}
	return nil, nil //nolint:nilnil // Payload has no image for this role
}

// addInnerFields appends the payload's tabs after the container's own.
func (w *wrapped) addInnerFields(f *fields.Fields) error {
	if w.inner == nil {
		return nil
	}
	if _, err := w.inner.LoadFields(); err != nil {
		return err
	}
	f.AddFieldsFrom(w.inner.Fields(), fields.TabOffsetAddTabs)
	return nil
}

// innerNames returns the payload's system names, or fallback.
func (w *wrapped) innerNames(fallback [numNameVariants]string) [numNameVariants]string {
	if w.inner == nil {
		return fallback
	}
	var names [numNameVariants]string
	for v := range numNameVariants {
		names[v] = w.inner.SystemName(v)
	}
	return names
}
