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

package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Path is a filesystem path that reaches into an archive, such as
// "/roms/pack.zip/folder/game.gba".
type Path struct {
	ArchivePath  string // the archive on disk
	InternalPath string // member path; empty selects automatically
}

var archiveExtensions = []string{".zip", ".7z", ".rar"}

// IsArchiveExtension reports whether ext names a supported archive.
func IsArchiveExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range archiveExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// ParsePath splits a path containing an archive component. It returns
// ok=false when no existing archive file appears in the path, including
// when the path is itself an archive file.
func ParsePath(path string) (p Path, ok bool, err error) {
	slashed := filepath.ToSlash(path)
	lower := strings.ToLower(slashed)
	for _, ext := range archiveExtensions {
		idx := strings.Index(lower, ext+"/")
		if idx == -1 {
			continue
		}
		archivePath := filepath.FromSlash(slashed[:idx+len(ext)])
		info, statErr := os.Stat(archivePath)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				continue
			}
			return Path{}, false, fmt.Errorf("stat archive %s: %w", archivePath, statErr)
		}
		if info.IsDir() {
			continue
		}
		return Path{ArchivePath: archivePath, InternalPath: slashed[idx+len(ext)+1:]}, true, nil
	}
	return Path{}, false, nil
}
