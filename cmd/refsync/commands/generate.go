// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bartekus/refsync/cmd/refsync/internal/clierr"
	"github.com/bartekus/refsync/internal/generator"
	"github.com/bartekus/refsync/internal/projection"
)

// NewGenerateCommand returns the command that only writes the update files.
func NewGenerateCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the update files without publishing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			lc, err := loadContext(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			gen := &generator.Generator{Context: lc, OutDir: cfg.UpdateDir}

			if dryRun {
				files, err := gen.Render()
				if err != nil {
					return clierr.Wrap(clierr.CodeGeneric, "rendering update files", err)
				}
				for _, rel := range projection.SortedKeys(files) {
					_, _ = fmt.Fprintf(out, "==> %s <==\n%s\n", rel, files[rel])
				}
				return nil
			}

			written, err := gen.Generate()
			for _, rel := range written {
				_, _ = fmt.Fprintf(out, "✅ Generated: %s\n", rel)
			}
			if err != nil {
				return clierr.Wrap(clierr.CodeFilesystem, "generating update files", err)
			}
			_, _ = fmt.Fprintf(out, "📁 Update files created in: %s\n", cfg.UpdateDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the rendered files instead of writing them")
	return cmd
}
