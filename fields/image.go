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

package fields

import "image"

// ImageRole identifies what an embedded image depicts.
type ImageRole uint8

const (
	RoleIcon ImageRole = iota
	RoleBanner
	RoleMedia
	RoleTitleScreen
)

func (r ImageRole) String() string {
	switch r {
	case RoleIcon:
		return "icon"
	case RoleBanner:
		return "banner"
	case RoleMedia:
		return "media"
	case RoleTitleScreen:
		return "title screen"
	default:
		return "unknown"
	}
}

// ImageRoles lists every role in display order.
var ImageRoles = []ImageRole{RoleIcon, RoleBanner, RoleMedia, RoleTitleScreen}

// ImageSize is a declared pixel size, known before decoding.
type ImageSize struct {
	Width  int
	Height int
}

// Image is a decoded embedded image.
type Image struct {
	Image image.Image
	Size  ImageSize
	Role  ImageRole
}
