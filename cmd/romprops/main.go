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

// Command romprops prints the properties of ROM images, disc images and
// the containers they ship in.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZaparooProject/go-romprops"
)

const appVersion = "0.1.0"

// options are the global flags shared by every subcommand.
type options struct {
	cfg      *romprops.Config
	logLevel string
	keysFile string
	jsonOut  bool
	maxDepth int
}

func newRootCmd(cfg *romprops.Config) *cobra.Command {
	opts := &options{cfg: cfg}
	root := &cobra.Command{
		Use:   "romprops",
		Short: "Show the properties of ROM and disc images",
		Long: `romprops detects the format of ROM images, disc images, executables
and archives, including formats nested inside each other, and prints the
properties it finds.`,
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("romprops version {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.BoolVar(&opts.jsonOut, "json", false, "output as JSON")
	flags.StringVar(&opts.logLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&opts.keysFile, "keys", cfg.KeysFile, "path to the encryption keys file")
	flags.IntVar(&opts.maxDepth, "max-depth", cfg.MaxDepth, "maximum nesting depth of formats")

	root.AddCommand(newShowCmd(opts), newFormatsCmd(opts), newKeysCmd(opts))
	return root
}

// logger builds the stderr logger for the selected level.
func (o *options) logger(w io.Writer) (*slog.Logger, error) {
	level, err := romprops.ParseLogLevel(o.logLevel)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// openOptions merges the flags over the environment configuration.
func (o *options) openOptions(stderr io.Writer) ([]romprops.Option, error) {
	logger, err := o.logger(stderr)
	if err != nil {
		return nil, err
	}
	cfg := *o.cfg
	cfg.KeysFile = o.keysFile
	return []romprops.Option{
		romprops.WithLogger(logger),
		romprops.WithConfig(&cfg),
		romprops.WithMaxDepth(o.maxDepth),
	}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

func main() {
	cfg, err := romprops.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := newRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
