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
	"path/filepath"
	"slices"
	"strings"

	"github.com/ZaparooProject/go-romprops/handler"
)

// FormatInfo describes a supported format without opening anything.
type FormatInfo struct {
	Name       string   `json:"name"`
	FileType   string   `json:"fileType"`
	Extensions []string `json:"extensions"`
	MIMETypes  []string `json:"mimeTypes"`
}

func formatInfo(d handler.Descriptor) FormatInfo {
	return FormatInfo{
		Name:       d.Name,
		FileType:   d.FileType.String(),
		Extensions: slices.Clone(d.Extensions),
		MIMETypes:  slices.Clone(d.MIMETypes),
	}
}

// Formats returns every supported format in detection priority order.
func Formats() []FormatInfo {
	descs := handler.Registry()
	out := make([]FormatInfo, len(descs))
	for i, d := range descs {
		out[i] = formatInfo(d)
	}
	return out
}

// LookupFormat finds a format by name, ignoring case.
func LookupFormat(name string) (FormatInfo, bool) {
	d, ok := handler.Lookup(strings.TrimSpace(name))
	if !ok {
		return FormatInfo{}, false
	}
	return formatInfo(d), true
}

// FormatsForExtension returns the formats that claim the extension of
// path, in priority order. Extensions such as ".bin" map to several
// formats and only the file header can decide between them.
func FormatsForExtension(path string) []FormatInfo {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil
	}
	var out []FormatInfo
	for _, d := range handler.Registry() {
		if slices.Contains(d.Extensions, ext) {
			out = append(out, formatInfo(d))
		}
	}
	return out
}
