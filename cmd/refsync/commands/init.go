// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bartekus/refsync/cmd/refsync/internal/clierr"
	"github.com/bartekus/refsync/internal/config"
)

// NewInitCommand returns the command that writes a default config file.
func NewInitCommand() *cobra.Command {
	var project, force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a refsync configuration file",
		Long: `Create a refsync configuration file with the built-in defaults.

By default, creates a global config at ~/.config/refsync/refsync.yml.
Use --project to create ./refsync.yml in the current directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := config.GlobalPath()
			if project {
				target = config.ProjectPath()
			}

			if _, err := os.Stat(target); err == nil && !force {
				return clierr.New(clierr.CodeUsage,
					fmt.Sprintf("config file already exists at %s\n\nUse --force to overwrite", target))
			}

			if err := config.Write(target, config.Default()); err != nil {
				return clierr.Wrap(clierr.CodeFilesystem, "failed to write config", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Config written to: %s\n\n", target)
			_, _ = fmt.Fprintln(out, "Run 'refsync run' to get started.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&project, "project", "p", false, "create config in the current directory instead of the global location")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	return cmd
}
