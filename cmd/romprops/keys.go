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
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ZaparooProject/go-romprops/keys"
)

var errNoKeysFile = errors.New("no keys file configured")

func newKeysCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Inspect the encryption keys file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Check every key against its verification data",
		Long: `The verify command loads the keys file named by --keys, ROMPROPS_KEYS_FILE
or the default location and checks each key against its [Verify] entry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runKeysVerify(cmd.OutOrStdout(), opts)
		},
	})
	return cmd
}

type keyReport struct {
	Name   string `json:"name"`
	Result string `json:"result"`
	OK     bool   `json:"ok"`
}

func runKeysVerify(w io.Writer, opts *options) error {
	path := opts.keysFile
	if path == "" {
		path = keys.DefaultPath()
	}
	if path == "" {
		return errNoKeysFile
	}
	store, err := keys.LoadFile(path)
	if err != nil {
		return err
	}

	names := store.Names()
	reports := make([]keyReport, 0, len(names))
	for _, name := range names {
		_, res := store.GetAndVerify(name, keys.Pair{})
		reports = append(reports, keyReport{Name: name, Result: res.String(), OK: res == keys.VerifyOK})
	}

	if opts.jsonOut {
		return printJSON(w, reports)
	}
	fmt.Fprintf(w, "Keys file: %s\n", path)
	if len(reports) == 0 {
		fmt.Fprintln(w, "No keys found.")
		return nil
	}
	for _, r := range reports {
		fmt.Fprintf(w, "  %s: %s\n", r.Name, r.Result)
	}
	return nil
}
