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
	"errors"
	"fmt"
)

var (
	// ErrTooLarge is returned when a member exceeds the buffering limit.
	ErrTooLarge = errors.New("archive member too large")
	// ErrNoMember is matched by every MemberError.
	ErrNoMember = errors.New("no such archive member")
)

// MemberError reports a member missing from an archive.
type MemberError struct {
	Archive string
	Member  string
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("%s: %q: %v", e.Archive, e.Member, ErrNoMember)
}

func (*MemberError) Unwrap() error { return ErrNoMember }

// FormatError reports data that is not a supported archive.
type FormatError struct {
	Name   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Reason == "" {
		return "archive format not supported: " + e.Name
	}
	return fmt.Sprintf("archive format not supported: %s: %s", e.Name, e.Reason)
}
