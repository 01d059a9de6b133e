// SPDX-License-Identifier: AGPL-3.0-or-later

/*
refsync - projects a learning pattern into the update documents of an AI
reference repository and publishes them with git.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bartekus/refsync/cmd/refsync/internal/clierr"
	"github.com/bartekus/refsync/internal/config"
	"github.com/bartekus/refsync/internal/learning"
	"github.com/bartekus/refsync/internal/logger"
)

// flagKeys maps config keys to the persistent flags that override them.
var flagKeys = map[string]string{
	"context_file": "context",
	"update_dir":   "update-dir",
	"repo_dir":     "repo-dir",
	"repo_url":     "repo-url",
	"ssh_url":      "ssh-url",
}

// NewRootCmd constructs the refsync root Cobra command.
func NewRootCmd(version string) *cobra.Command {
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:   "refsync",
		Short: "Learning-driven updates for an AI reference repository",
		Long: `refsync renders a learning pattern into the README, prompt template and
learning log of an AI reference repository, then optionally clones, commits
and pushes them with git.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	f := cmd.PersistentFlags()
	f.String("config", "", "config file (default ./refsync.yml merged over the global file)")
	f.String("context", "", "learning context YAML file")
	f.String("update-dir", "", "directory the update files are written to")
	f.String("repo-dir", "", "local working copy of the reference repository")
	f.String("repo-url", "", "HTTPS URL of the reference repository")
	f.String("ssh-url", "", "SSH URL of the reference repository")
	f.Bool("no-interactive", false, "use plain line prompts instead of forms")
	f.BoolP("verbose", "v", false, "enable debug logging on stderr")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of refsync",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "refsync version %s\n", version)
		},
	})

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewGenerateCommand())
	cmd.AddCommand(NewInitCommand())

	return cmd
}

// loadSettings resolves the configuration for cmd and configures logging.
func loadSettings(cmd *cobra.Command) (config.Config, error) {
	flags := make(map[string]*pflag.Flag, len(flagKeys))
	for key, name := range flagKeys {
		flags[key] = cmd.Flag(name)
	}
	file, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(config.Options{File: file, Flags: flags})
	if err != nil {
		return config.Config{}, clierr.Usage(err)
	}

	if noInteractive, _ := cmd.Flags().GetBool("no-interactive"); noInteractive {
		cfg.Interactive = false
	}

	var logOut io.Writer
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
		logOut = cmd.ErrOrStderr()
	}
	if err := logger.Default.Configure(cfg.LogLevel, logOut, cfg.LogFile); err != nil {
		return config.Config{}, clierr.Usage(err)
	}
	logger.Debug("config: update_dir=%s repo_dir=%s interactive=%t", cfg.UpdateDir, cfg.RepoDir, cfg.Interactive)
	return cfg, nil
}

// loadContext reads the configured learning context, or the placeholder
// context when none is configured.
func loadContext(cfg config.Config) (learning.Context, error) {
	if cfg.ContextFile == "" {
		return learning.Placeholder(), nil
	}
	lc, err := learning.Load(cfg.ContextFile)
	if err != nil {
		return learning.Context{}, clierr.Usage(err)
	}
	return lc, nil
}

func printBanner(w io.Writer, lc learning.Context) {
	_, _ = fmt.Fprintln(w, "🔄 HERE® Core AI References - Learning-Driven Repository Update")
	_, _ = fmt.Fprintln(w, "================================================================")
	_, _ = fmt.Fprintf(w, "📚 Learning Pattern: %s\n", lc.PatternName)
	_, _ = fmt.Fprintf(w, "🔧 APIs Involved: %s\n", lc.APIsFocus)
	_, _ = fmt.Fprintf(w, "📁 Files to Update: %s\n", lc.FilesList())
}

func printContext(w io.Writer, lc learning.Context) {
	_, _ = fmt.Fprintln(w, "📚 Learning Context:")
	_, _ = fmt.Fprintf(w, "   Pattern: %s\n", lc.PatternName)
	_, _ = fmt.Fprintf(w, "   APIs: %s\n", lc.APIsFocus)
	_, _ = fmt.Fprintf(w, "   Files: %s\n", lc.FilesList())
}
