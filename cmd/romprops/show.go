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
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ZaparooProject/go-romprops"
	"github.com/ZaparooProject/go-romprops/fields"
	"github.com/ZaparooProject/go-romprops/handler"
)

var errSomeFailed = errors.New("some files could not be read")

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>...",
		Short: "Detect files and print their properties",
		Long: `The show command detects the format of each file and prints its
properties grouped by tab. Paths may reach into an archive.

Example:
  romprops show game.gba
  romprops show pack.zip/game.iso --json
  romprops show *.cso --keys keys.conf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, args)
		},
	}
}

// fileReport is the JSON form of one file.
type fileReport struct {
	Path     string        `json:"path"`
	Error    string        `json:"error,omitempty"`
	Class    string        `json:"class,omitempty"`
	System   string        `json:"system,omitempty"`
	FileType string        `json:"fileType,omitempty"`
	Tabs     []tabReport   `json:"tabs,omitempty"`
	Images   []imageReport `json:"images,omitempty"`
}

type tabReport struct {
	Name   string        `json:"name"`
	Fields []fieldReport `json:"fields"`
}

type fieldReport struct {
	Name    string     `json:"name"`
	Value   string     `json:"value"`
	Columns []string   `json:"columns,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
	Warning bool       `json:"warning,omitempty"`
}

type imageReport struct {
	Role   string `json:"role"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func runShow(ctx context.Context, stdout, stderr io.Writer, opts *options, paths []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	openOpts, err := opts.openOptions(stderr)
	if err != nil {
		return err
	}
	results, err := romprops.OpenMany(ctx, paths, openOpts...)
	if err != nil {
		return err
	}
	defer romprops.CloseAll(results)

	failed := false
	reports := make([]fileReport, 0, len(results))
	for _, r := range results {
		rep := report(r)
		if rep.Error != "" {
			failed = true
		}
		reports = append(reports, rep)
	}

	if opts.jsonOut {
		if err := printJSON(stdout, reports); err != nil {
			return err
		}
	} else {
		for i, r := range results {
			if i > 0 {
				fmt.Fprintln(stdout)
			}
			printText(stdout, r, &reports[i])
		}
	}
	if failed {
		return errSomeFailed
	}
	return nil
}

func report(r romprops.Result) fileReport {
	rep := fileReport{Path: r.Path}
	if r.Err != nil {
		rep.Error = r.Err.Error()
		return rep
	}
	h := r.Handler
	rep.Class = h.ClassName()
	rep.System = h.SystemName(handler.NameLong)
	rep.FileType = h.FileType().String()
	if _, err := h.LoadFields(); err != nil {
		rep.Error = err.Error()
		return rep
	}

	f := h.Fields()
	for tab := range f.TabCount() {
		inTab := f.InTab(tab)
		if len(inTab) == 0 {
			continue
		}
		tr := tabReport{Name: f.TabName(tab)}
		for i := range inTab {
			fld := &inTab[i]
			fr := fieldReport{Name: fld.Name, Value: fld.Text(), Warning: fld.Flags&fields.Warning != 0}
			if fld.List != nil {
				fr.Columns, fr.Rows = fld.List.Columns, fld.List.Rows
			}
			tr.Fields = append(tr.Fields, fr)
		}
		rep.Tabs = append(rep.Tabs, tr)
	}

	for _, role := range h.SupportedImages() {
		for _, size := range h.ImageSizes(role) {
			rep.Images = append(rep.Images, imageReport{Role: role.String(), Width: size.Width, Height: size.Height})
		}
	}
	return rep
}

func printText(w io.Writer, r romprops.Result, rep *fileReport) {
	fmt.Fprintf(w, "File: %s\n", rep.Path)
	if rep.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", rep.Error)
		return
	}
	fmt.Fprintf(w, "System: %s\n", rep.System)
	fmt.Fprintf(w, "Type: %s\n", rep.FileType)
	for _, img := range rep.Images {
		fmt.Fprintf(w, "Image: %s (%dx%d)\n", img.Role, img.Width, img.Height)
	}
	fmt.Fprintln(w)
	_ = fields.Render(w, r.Handler.Fields())
}
