// SPDX-License-Identifier: AGPL-3.0-or-later

// Package runner drives one refsync run: generate the documents, collect
// credentials, publish. Steps run strictly in order on the calling goroutine
// and the first failure ends the run; nothing is retried or rolled back.
package runner

import (
	"context"
	"fmt"
	"io"

	"github.com/bartekus/refsync/internal/logger"
)

// Runner manages the execution of steps.
type Runner struct {
	steps []Step
	deps  *Deps
}

// NewRunner creates a runner over the given steps.
func NewRunner(steps []Step, deps *Deps) *Runner {
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	return &Runner{steps: steps, deps: deps}
}

// Run executes the steps. A skip ends the run successfully and prints the
// manual follow-up; a failure returns the step's error wrapped with its ID.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	for _, step := range r.steps {
		id := step.ID()
		logger.Debug("step %s: start", id)

		res := step.Run(ctx, r.deps, &sum.State)
		if res.Step == "" {
			res.Step = id
		}
		sum.Results = append(sum.Results, res)
		logger.Debug("step %s: %s %s", id, res.Status, res.Note)

		switch res.Status {
		case StatusSkip:
			r.printManualSteps()
			return sum, nil
		case StatusFail:
			return sum, fmt.Errorf("%s: %w", id, res.Err)
		}
	}
	return sum, nil
}

func (r *Runner) printManualSteps() {
	out := r.deps.Out
	if r.deps.Generator != nil {
		fmt.Fprintf(out, "📁 Update files generated in: %s\n", r.deps.Generator.OutDir)
	}
	fmt.Fprintln(out, "📋 Manual steps:")
	fmt.Fprintln(out, "1. Review generated files for learning integration")
	fmt.Fprintln(out, "2. Copy files to your GitHub repository")
	fmt.Fprintln(out, "3. Commit and push changes manually")
}
