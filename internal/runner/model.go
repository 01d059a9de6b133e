// SPDX-License-Identifier: AGPL-3.0-or-later
package runner

import (
	"github.com/bartekus/refsync/internal/auth"
	"github.com/bartekus/refsync/internal/publish"
)

// StepStatus represents the outcome of a step.
type StepStatus string

const (
	StatusPass StepStatus = "pass"
	StatusFail StepStatus = "fail"
	StatusSkip StepStatus = "skip"
)

// StepResult is the result of a single step.
type StepResult struct {
	Step   string
	Status StepStatus
	Note   string
	Err    error
}

// State is what steps hand to each other during one run.
type State struct {
	Files   map[string]string // rendered documents keyed by relative path
	Written []string
	Auth    auth.Descriptor
	Ack     publish.Ack
}

// Summary describes a finished run.
type Summary struct {
	Results []StepResult
	State   State
}

// Published reports whether anything reached the remote.
func (s Summary) Published() bool {
	return s.State.Ack.Pushed
}

// Skipped reports whether the run stopped at generate-only mode.
func (s Summary) Skipped() bool {
	return s.State.Auth.IsSkip()
}
