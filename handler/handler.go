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

// Package handler identifies file formats and parses them into the fields
// model. Every format is a Descriptor in a priority-ordered registry; Detect
// picks one and constructs its Handler.
package handler

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-romprops/fields"
	"github.com/ZaparooProject/go-romprops/source"
)

// FileType classifies what kind of file a handler reads.
type FileType uint8

// File types.
const (
	FileTypeUnknown FileType = iota
	FileTypeROMImage
	FileTypeDiscImage
	FileTypeApplicationPackage
	FileTypeExecutable
	FileTypeSharedLibrary
	FileTypeArchive
	FileTypeContainer
)

func (t FileType) String() string {
	switch t {
	case FileTypeROMImage:
		return "ROM Image"
	case FileTypeDiscImage:
		return "Disc Image"
	case FileTypeApplicationPackage:
		return "Application Package"
	case FileTypeExecutable:
		return "Executable"
	case FileTypeSharedLibrary:
		return "Shared Library"
	case FileTypeArchive:
		return "Archive"
	case FileTypeContainer:
		return "Container File"
	default:
		return "Unknown"
	}
}

// NameVariant selects the verbosity of a system name.
type NameVariant uint8

// System name variants.
const (
	NameLong NameVariant = iota
	NameShort
	NameAbbrev
	numNameVariants
)

// Probe scores.
const (
	ScoreNone      = -1
	ScoreWeak      = 0
	ScoreConfident = 1
)

var (
	// ErrNotRecognized is returned when no format claims the input, or the
	// claiming format fails to parse it.
	ErrNotRecognized = errors.New("file format not recognized")

	// ErrNotOpen is returned when loading from a closed handler.
	ErrNotOpen = errors.New("handler is not open")

	// ErrInvalidHandler is returned when loading from a handler that never
	// parsed its input.
	ErrInvalidHandler = errors.New("handler is not valid")

	// ErrTooDeep is returned when nested formats exceed the depth limit.
	ErrTooDeep = errors.New("nesting depth limit exceeded")

	// ErrCycle is returned when a nested format resolves to a region that
	// is already being parsed.
	ErrCycle = errors.New("nested format cycle")
)

// FormatError describes a structural problem found after a format was
// positively identified.
type FormatError struct {
	Format string
	Reason string
}

func (e FormatError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Format, e.Reason)
}

func formatErr(format, reason string, args ...any) error {
	return FormatError{Format: format, Reason: fmt.Sprintf(reason, args...)}
}

// Handler is an opened, parsed file. A Handler is not safe for concurrent
// use; distinct handlers are independent.
type Handler interface {
	// IsValid reports whether construction parsed the mandatory headers.
	IsValid() bool
	// Err returns the construction failure of an invalid handler.
	Err() error
	ClassName() string
	FileType() FileType
	// SystemName returns "" for invalid handlers or unknown variants.
	SystemName(v NameVariant) string

	// LoadFields parses the descriptive fields on first use and returns
	// the field count. Later calls return the cached count. On error the
	// field set is left unchanged.
	LoadFields() (int, error)
	// Fields returns the loaded fields, empty before LoadFields succeeds.
	Fields() *fields.Fields

	SupportedImages() []fields.ImageRole
	ImageSizes(role fields.ImageRole) []fields.ImageSize
	// LoadImage decodes and caches an embedded image. It returns nil when
	// the role is absent or the image cannot be decoded.
	LoadImage(role fields.ImageRole) *fields.Image

	// Close releases the handler's readers and nested handlers. Loaded
	// fields and images stay available.
	Close() error
}

// Descriptor is the static description of a format.
type Descriptor struct {
	// Probe scores the detection window. It must not retain info.
	Probe func(info *Info) int
	// New constructs a handler. It always returns a non-nil Handler; check
	// IsValid. The handler takes its own reference to src.
	New        func(ctx *Context, src *source.Handle) Handler
	Name       string
	Extensions []string
	MIMETypes  []string
	FileType   FileType
}
