// SPDX-License-Identifier: AGPL-3.0-or-later

// Package publish synchronizes generated documents into the reference
// repository. The work itself is delegated to an external version-control
// tool through the Publisher capability.
package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"

	"github.com/bartekus/refsync/internal/auth"
)

// Stage names where a publish failed.
type Stage string

const (
	StageClone  Stage = "clone"
	StageWrite  Stage = "write"
	StageCommit Stage = "commit"
	StagePush   Stage = "push"
)

// ErrNoChanges is returned by Commit when the working copy already matches
// the generated files.
var ErrNoChanges = errors.New("nothing to commit")

// ErrSkipped is returned by Publish when handed a Skip descriptor.
var ErrSkipped = errors.New("publish skipped")

// Error reports the stage at which publishing failed.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("publish %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// WorkingCopy is a local checkout of the remote repository.
type WorkingCopy struct {
	Dir      string
	Branch   string // empty means the clone's default branch
	Upstream string // remote-tracking ref the branch was reset to, if any
}

// Ack describes a completed publish.
type Ack struct {
	Remote string // redacted
	Branch string
	Commit string
	Pushed bool // false when there was nothing to commit
}

// Publisher is the version-control capability used to publish documents.
type Publisher interface {
	Clone(ctx context.Context, url string) (WorkingCopy, error)
	WriteFiles(ctx context.Context, wc WorkingCopy, files map[string]string) error
	Commit(ctx context.Context, wc WorkingCopy, message string) (string, error)
	Push(ctx context.Context, wc WorkingCopy, d auth.Descriptor) (Ack, error)
}

// Publish clones, copies files in, commits and pushes. A working copy that
// already matches the files is reported with Ack.Pushed false.
func Publish(ctx context.Context, p Publisher, d auth.Descriptor, files map[string]string, message string) (Ack, error) {
	if d.IsSkip() {
		return Ack{}, ErrSkipped
	}

	wc, err := p.Clone(ctx, d.RepoURL)
	if err != nil {
		return Ack{}, &Error{Stage: StageClone, Err: err}
	}
	if err := p.WriteFiles(ctx, wc, files); err != nil {
		return Ack{}, &Error{Stage: StageWrite, Err: err}
	}

	commit, err := p.Commit(ctx, wc, message)
	if errors.Is(err, ErrNoChanges) {
		return Ack{Remote: d.Redacted(), Branch: wc.Branch}, nil
	}
	if err != nil {
		return Ack{}, &Error{Stage: StageCommit, Err: err}
	}

	ack, err := p.Push(ctx, wc, d)
	if err != nil {
		return Ack{}, &Error{Stage: StagePush, Err: err}
	}
	if ack.Commit == "" {
		ack.Commit = commit
	}
	return ack, nil
}

// BranchName derives a branch for a learning pattern, or "" when prefix is
// empty (push to the default branch).
func BranchName(prefix, patternName string) string {
	if prefix == "" {
		return ""
	}
	s := slug.Make(patternName)
	if s == "" {
		s = "update"
	}
	return prefix + s
}

// CommitMessage fills every %s in template with the pattern name.
func CommitMessage(template, patternName string) string {
	if template == "" {
		template = "Add learning pattern: %s"
	}
	if !strings.Contains(template, "%s") {
		return template
	}
	return strings.ReplaceAll(template, "%s", patternName)
}
