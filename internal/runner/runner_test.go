// SPDX-License-Identifier: AGPL-3.0-or-later
package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/refsync/internal/auth"
	"github.com/bartekus/refsync/internal/generator"
	"github.com/bartekus/refsync/internal/learning"
	"github.com/bartekus/refsync/internal/logger"
	"github.com/bartekus/refsync/internal/publish"
)

type fixedCredentials struct {
	d      auth.Descriptor
	err    error
	called bool
}

func (f *fixedCredentials) Collect(context.Context) (auth.Descriptor, error) {
	f.called = true
	return f.d, f.err
}

// MockPublisher implements publish.Publisher for testing.
type MockPublisher struct {
	files   map[string]string
	message string
	pushErr error
	pushed  bool
}

func (m *MockPublisher) Clone(context.Context, string) (publish.WorkingCopy, error) {
	return publish.WorkingCopy{Dir: "wc", Branch: "learning/p"}, nil
}

func (m *MockPublisher) WriteFiles(_ context.Context, _ publish.WorkingCopy, files map[string]string) error {
	m.files = files
	return nil
}

func (m *MockPublisher) Commit(_ context.Context, _ publish.WorkingCopy, msg string) (string, error) {
	m.message = msg
	return "0123456789abcdef", nil
}

func (m *MockPublisher) Push(_ context.Context, wc publish.WorkingCopy, d auth.Descriptor) (publish.Ack, error) {
	if m.pushErr != nil {
		return publish.Ack{}, m.pushErr
	}
	m.pushed = true
	return publish.Ack{Remote: d.Redacted(), Branch: wc.Branch, Pushed: true}, nil
}

func newDeps(t *testing.T, creds CredentialSource, pub publish.Publisher) (*Deps, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &Deps{
		Generator: &generator.Generator{
			Context: learning.Placeholder(),
			OutDir:  filepath.Join(t.TempDir(), "updates"),
			Now:     func() time.Time { return time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC) },
		},
		Credentials:   creds,
		Publisher:     pub,
		CommitMessage: "Add learning pattern: [PATTERN_NAME]",
		Out:           &out,
	}, &out
}

func TestRunner_Skip(t *testing.T) {
	creds := &fixedCredentials{d: auth.Skip(auth.SkipOperatorChoice)}
	pub := &MockPublisher{}
	deps, out := newDeps(t, creds, pub)

	sum, err := NewRunner(DefaultSteps(), deps).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, sum.Skipped())
	assert.False(t, sum.Published())
	assert.Nil(t, pub.files, "publisher must not be touched on skip")
	require.Len(t, sum.Results, 2)
	assert.Equal(t, StatusPass, sum.Results[0].Status)
	assert.Equal(t, StatusSkip, sum.Results[1].Status)
	assert.Equal(t, string(auth.SkipOperatorChoice), sum.Results[1].Note)

	assert.Contains(t, out.String(), "✅ Generated: README.md")
	assert.Contains(t, out.String(), "📋 Manual steps:")
	assert.FileExists(t, filepath.Join(deps.Generator.OutDir, generator.ReadmePath))
}

func TestRunner_Publish(t *testing.T) {
	creds := &fixedCredentials{d: auth.SSHKey("git@github.com:o/r.git")}
	pub := &MockPublisher{}
	deps, out := newDeps(t, creds, pub)

	sum, err := NewRunner(DefaultSteps(), deps).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, sum.Published())
	assert.Len(t, pub.files, 3)
	assert.Equal(t, sum.State.Files, pub.files)
	assert.Equal(t, "Add learning pattern: [PATTERN_NAME]", pub.message)
	assert.Contains(t, out.String(), "✅ Pushed 0123456 to learning/p")
}

func TestRunner_MissingCredentialIsLogged(t *testing.T) {
	var logs bytes.Buffer
	require.NoError(t, logger.Default.Configure("warn", &logs, ""))
	t.Cleanup(func() { _ = logger.Default.Configure("info", nil, "") })

	creds := &fixedCredentials{d: auth.Skip(auth.SkipMissingCredential)}
	deps, _ := newDeps(t, creds, &MockPublisher{})

	sum, err := NewRunner(DefaultSteps(), deps).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, sum.Skipped())
	assert.Contains(t, logs.String(), "[WARN] publishing skipped: missing_credential")
}

func TestRunner_GenerateFailureStopsRun(t *testing.T) {
	creds := &fixedCredentials{d: auth.Skip(auth.SkipOperatorChoice)}
	deps, _ := newDeps(t, creds, &MockPublisher{})

	// A regular file where the output directory should be.
	require.NoError(t, os.MkdirAll(filepath.Dir(deps.Generator.OutDir), 0o755))
	require.NoError(t, os.WriteFile(deps.Generator.OutDir, []byte("x"), 0o644))

	sum, err := NewRunner(DefaultSteps(), deps).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate:")
	assert.False(t, creds.called)
	require.Len(t, sum.Results, 1)
	assert.Equal(t, StatusFail, sum.Results[0].Status)
}

func TestRunner_AuthErrorStopsRun(t *testing.T) {
	creds := &fixedCredentials{err: auth.ErrAborted}
	pub := &MockPublisher{}
	deps, _ := newDeps(t, creds, pub)

	_, err := NewRunner(DefaultSteps(), deps).Run(context.Background())
	assert.ErrorIs(t, err, auth.ErrAborted)
	assert.Nil(t, pub.files)
}

func TestRunner_PublishFailure(t *testing.T) {
	boom := errors.New("remote rejected")
	creds := &fixedCredentials{d: auth.SSHKey("git@github.com:o/r.git")}
	deps, _ := newDeps(t, creds, &MockPublisher{pushErr: boom})

	sum, err := NewRunner(DefaultSteps(), deps).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var perr *publish.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, publish.StagePush, perr.Stage)
	assert.Len(t, sum.State.Written, 3, "generated files stay on disk")
}
