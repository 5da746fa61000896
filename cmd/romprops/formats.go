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

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZaparooProject/go-romprops"
)

func newFormatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "formats [file]",
		Short: "List supported formats",
		Long: `The formats command lists every supported format in detection order.
Given a file name, it lists only the formats claiming its extension.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := romprops.Formats()
			if len(args) == 1 {
				formats = romprops.FormatsForExtension(args[0])
			}
			return runFormats(cmd.OutOrStdout(), opts, formats)
		},
	}
}

func runFormats(w io.Writer, opts *options, formats []romprops.FormatInfo) error {
	if opts.jsonOut {
		return printJSON(w, formats)
	}
	for _, f := range formats {
		fmt.Fprintf(w, "%-16s %-20s %s\n", f.Name, f.FileType, strings.Join(f.Extensions, " "))
	}
	return nil
}
