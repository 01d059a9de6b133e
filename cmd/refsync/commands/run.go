// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bartekus/refsync/cmd/refsync/internal/clierr"
	"github.com/bartekus/refsync/internal/auth"
	"github.com/bartekus/refsync/internal/config"
	"github.com/bartekus/refsync/internal/generator"
	"github.com/bartekus/refsync/internal/interaction"
	"github.com/bartekus/refsync/internal/learning"
	"github.com/bartekus/refsync/internal/logger"
	"github.com/bartekus/refsync/internal/publish"
	"github.com/bartekus/refsync/internal/runner"
)

// NewRunCommand returns the command that runs generate, authenticate and
// publish in order.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Generate update files and publish them to the reference repository",
		Long: `Generate the update files, ask how to authenticate against the reference
repository, then clone, commit and push them with git.

Choosing "Skip" keeps the generated files on disk and prints the manual steps.`,
		Args: cobra.NoArgs,
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
			printBanner(out, lc)
			printContext(out, lc)

			deps := newDeps(cmd, cfg, lc)
			sum, err := runner.NewRunner(runner.DefaultSteps(), deps).Run(cmd.Context())
			if err != nil {
				logger.Error("run failed: %v", err)
				_, _ = fmt.Fprintf(out, "📁 Update files available in: %s\n", cfg.UpdateDir)
				return clierr.Wrap(exitCodeFor(sum, err), "Learning integration failed", err)
			}

			logger.Info("run finished: published=%t skipped=%t", sum.Published(), sum.Skipped())
			return nil
		},
	}
}

func newDeps(cmd *cobra.Command, cfg config.Config, lc learning.Context) *runner.Deps {
	out := cmd.OutOrStdout()
	remotes := auth.Remotes{HTTPSURL: cfg.RepoURL, SSHURL: cfg.SSHURL}

	return &runner.Deps{
		Generator:   &generator.Generator{Context: lc, OutDir: cfg.UpdateDir},
		Credentials: auth.NewCollector(newAsker(cmd, cfg.Interactive), out, remotes),
		Publisher: publish.NewGit(nil, publish.GitOptions{
			Dir:         cfg.RepoDir,
			Branch:      publish.BranchName(cfg.BranchPrefix, lc.PatternName),
			AuthorName:  cfg.AuthorName,
			AuthorEmail: cfg.AuthorEmail,
		}),
		CommitMessage: publish.CommitMessage(cfg.CommitMessage, lc.PatternName),
		Out:           out,
	}
}

// newAsker uses terminal-aware prompts when cmd is wired to real files and
// plain line prompts for any other reader.
func newAsker(cmd *cobra.Command, forms bool) auth.Asker {
	in, out := cmd.InOrStdin(), cmd.OutOrStdout()
	inFile, inOK := in.(*os.File)
	outFile, outOK := out.(*os.File)
	if inOK && outOK {
		return interaction.New(inFile, outFile, forms)
	}
	return interaction.NewLineAsker(in, out)
}

func exitCodeFor(sum runner.Summary, err error) int {
	var perr *publish.Error
	switch {
	case errors.Is(err, auth.ErrAborted), errors.Is(err, context.Canceled):
		return clierr.CodeAborted
	case errors.As(err, &perr):
		return clierr.CodePublish
	case failedStep(sum) == "generate":
		return clierr.CodeFilesystem
	}
	return clierr.CodeGeneric
}

func failedStep(sum runner.Summary) string {
	for _, res := range sum.Results {
		if res.Status == runner.StatusFail {
			return res.Step
		}
	}
	return ""
}
