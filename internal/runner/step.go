// SPDX-License-Identifier: AGPL-3.0-or-later
package runner

import (
	"context"
	"fmt"
	"io"

	"github.com/bartekus/refsync/internal/auth"
	"github.com/bartekus/refsync/internal/generator"
	"github.com/bartekus/refsync/internal/logger"
	"github.com/bartekus/refsync/internal/publish"
)

// CredentialSource yields the descriptor used to publish.
type CredentialSource interface {
	Collect(ctx context.Context) (auth.Descriptor, error)
}

// Deps contains dependencies injected into steps.
type Deps struct {
	Generator     *generator.Generator
	Credentials   CredentialSource
	Publisher     publish.Publisher
	CommitMessage string
	Out           io.Writer
}

// Step is one stage of a run. Returning StatusSkip ends the run early
// without error.
type Step interface {
	ID() string
	Run(ctx context.Context, deps *Deps, st *State) StepResult
}

// DefaultSteps is the generate → authenticate → publish sequence.
func DefaultSteps() []Step {
	return []Step{generateStep{}, authenticateStep{}, publishStep{}}
}

type generateStep struct{}

func (generateStep) ID() string { return "generate" }

func (generateStep) Run(_ context.Context, deps *Deps, st *State) StepResult {
	fmt.Fprintln(deps.Out, "📝 Generating update files with new learning patterns...")

	files, err := deps.Generator.Render()
	if err != nil {
		return StepResult{Step: "generate", Status: StatusFail, Err: err}
	}
	st.Files = files

	written, err := deps.Generator.Write(files)
	for _, rel := range written {
		fmt.Fprintf(deps.Out, "✅ Generated: %s\n", rel)
	}
	st.Written = written
	if err != nil {
		return StepResult{Step: "generate", Status: StatusFail, Err: err}
	}

	fmt.Fprintf(deps.Out, "📁 Update files created in: %s\n", deps.Generator.OutDir)
	return StepResult{Step: "generate", Status: StatusPass}
}

type authenticateStep struct{}

func (authenticateStep) ID() string { return "authenticate" }

func (authenticateStep) Run(ctx context.Context, deps *Deps, st *State) StepResult {
	d, err := deps.Credentials.Collect(ctx)
	if err != nil {
		return StepResult{Step: "authenticate", Status: StatusFail, Err: err}
	}
	st.Auth = d
	if d.IsSkip() {
		if d.Reason != auth.SkipOperatorChoice {
			logger.Warn("publishing skipped: %s", d.Reason)
		}
		return StepResult{Step: "authenticate", Status: StatusSkip, Note: string(d.Reason)}
	}
	return StepResult{Step: "authenticate", Status: StatusPass, Note: string(d.Method)}
}

type publishStep struct{}

func (publishStep) ID() string { return "publish" }

func (publishStep) Run(ctx context.Context, deps *Deps, st *State) StepResult {
	fmt.Fprintf(deps.Out, "🚀 Publishing to %s\n", st.Auth.Redacted())

	ack, err := publish.Publish(ctx, deps.Publisher, st.Auth, st.Files, deps.CommitMessage)
	if err != nil {
		return StepResult{Step: "publish", Status: StatusFail, Err: err}
	}
	st.Ack = ack

	if !ack.Pushed {
		fmt.Fprintln(deps.Out, "ℹ️  Reference repository already up to date")
		return StepResult{Step: "publish", Status: StatusPass, Note: "no changes"}
	}
	branch := ack.Branch
	if branch == "" {
		branch = "default branch"
	}
	fmt.Fprintf(deps.Out, "✅ Pushed %s to %s\n", shortSHA(ack.Commit), branch)
	return StepResult{Step: "publish", Status: StatusPass, Note: ack.Commit}
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
