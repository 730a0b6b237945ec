// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/sheetshelf/sheetshelf/internal/web"
)

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "schema [NAME...]",
		Short: "Print the JSON Schemas of the API request bodies",
		Long: `Print the JSON Schema of each named request body, or of all of them.
With --out, write one NAME.schema.json file per schema instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd, args, outDir)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory to write schema files to")

	return cmd
}

func runSchema(cmd *cobra.Command, names []string, outDir string) error {
	if len(names) == 0 {
		names = web.SchemaNames()
	}

	for _, name := range names {
		data, err := web.GenerateSchema(name)
		if err != nil {
			return err
		}

		if outDir == "" {
			cmd.Println(string(data))
			continue
		}

		path := filepath.Join(outDir, name+".schema.json")
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { //nolint:gosec // schemas are public
			return oops.Code("SCHEMA_WRITE_FAILED").With("path", path).Wrap(err)
		}
		cmd.Printf("Wrote %s\n", path)
	}
	return nil
}
