// SPDX-License-Identifier: AGPL-3.0-or-later
package publish

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bartekus/refsync/internal/auth"
	"github.com/bartekus/refsync/internal/logger"
	"github.com/bartekus/refsync/internal/projection"
)

// GitOptions configures GitPublisher.
type GitOptions struct {
	Dir         string // local working copy
	Branch      string // optional; defaults to the remote's default branch
	AuthorName  string
	AuthorEmail string
}

// GitPublisher publishes through the git command-line tool. The remote URL,
// which may carry a token, is only ever passed on the command line; origin is
// recorded without credentials.
type GitPublisher struct {
	runner  CommandRunner
	opts    GitOptions
	secrets []string // redacted from any git output surfaced in errors
}

// NewGit returns a GitPublisher. A nil runner uses ExecRunner.
func NewGit(runner CommandRunner, opts GitOptions) *GitPublisher {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &GitPublisher{runner: runner, opts: opts}
}

// Clone brings the working copy to the remote's current state. An existing
// copy is reused, but commits and edits left behind by an earlier run that
// never reached the remote are discarded.
func (g *GitPublisher) Clone(ctx context.Context, remoteURL string) (WorkingCopy, error) {
	g.addSecret(tokenOf(remoteURL))
	wc := WorkingCopy{Dir: g.opts.Dir}
	origin := stripCredentials(remoteURL)

	if _, err := os.Stat(filepath.Join(wc.Dir, ".git")); err == nil {
		logger.Debug("reusing working copy at %s", wc.Dir)
		if _, err := g.git(ctx, wc.Dir, "remote", "set-url", "origin", origin); err != nil {
			return WorkingCopy{}, err
		}
	} else {
		if err := os.MkdirAll(wc.Dir, 0o755); err != nil {
			return WorkingCopy{}, fmt.Errorf("creating working copy: %w", err)
		}
		if _, err := g.git(ctx, wc.Dir, "init", "--quiet"); err != nil {
			return WorkingCopy{}, err
		}
		if _, err := g.git(ctx, wc.Dir, "remote", "add", "origin", origin); err != nil {
			return WorkingCopy{}, err
		}
	}

	if _, err := g.git(ctx, wc.Dir, "fetch", "--prune", remoteURL, "+refs/heads/*:refs/remotes/origin/*"); err != nil {
		return WorkingCopy{}, err
	}
	base, err := g.defaultBranch(ctx, wc.Dir, remoteURL)
	if err != nil {
		return WorkingCopy{}, err
	}

	wc.Branch = g.opts.Branch
	if wc.Branch == "" {
		wc.Branch = base
	}
	wc.Upstream = "origin/" + base
	exists, err := g.refExists(ctx, wc.Dir, "refs/remotes/origin/"+wc.Branch)
	if err != nil {
		return WorkingCopy{}, err
	}
	if exists {
		wc.Upstream = "origin/" + wc.Branch
	}

	if _, err := g.git(ctx, wc.Dir, "checkout", "--quiet", "-f", "-B", wc.Branch, wc.Upstream); err != nil {
		return WorkingCopy{}, err
	}
	if _, err := g.git(ctx, wc.Dir, "clean", "-fd"); err != nil {
		return WorkingCopy{}, err
	}
	return wc, nil
}

// WriteFiles copies files into the working copy, in path order.
func (g *GitPublisher) WriteFiles(_ context.Context, wc WorkingCopy, files map[string]string) error {
	for _, rel := range projection.SortedKeys(files) {
		full := filepath.Join(wc.Dir, filepath.FromSlash(rel))
		if err := projection.AtomicWrite(full, []byte(files[rel])); err != nil {
			return fmt.Errorf("copying %s: %w", rel, err)
		}
	}
	return nil
}

// Commit stages everything and commits it, returning the new HEAD. A clean
// tree is ErrNoChanges unless HEAD is still ahead of its upstream, in which
// case the existing HEAD is returned so it gets pushed.
func (g *GitPublisher) Commit(ctx context.Context, wc WorkingCopy, message string) (string, error) {
	if _, err := g.git(ctx, wc.Dir, "add", "-A"); err != nil {
		return "", err
	}
	status, err := g.git(ctx, wc.Dir, "status", "--porcelain")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(status) == "" {
		ahead, err := g.ahead(ctx, wc)
		if err != nil {
			return "", err
		}
		if ahead == 0 {
			return "", ErrNoChanges
		}
		logger.Debug("%d unpushed commit(s) on %s", ahead, wc.Branch)
		return g.head(ctx, wc.Dir)
	}

	env := map[string]string{}
	if g.opts.AuthorName != "" {
		env["GIT_AUTHOR_NAME"] = g.opts.AuthorName
		env["GIT_COMMITTER_NAME"] = g.opts.AuthorName
	}
	if g.opts.AuthorEmail != "" {
		env["GIT_AUTHOR_EMAIL"] = g.opts.AuthorEmail
		env["GIT_COMMITTER_EMAIL"] = g.opts.AuthorEmail
	}
	if _, err := g.gitEnv(ctx, wc.Dir, env, "commit", "-m", message); err != nil {
		return "", err
	}
	return g.head(ctx, wc.Dir)
}

// Push pushes HEAD to the working copy's branch at the descriptor's URL.
func (g *GitPublisher) Push(ctx context.Context, wc WorkingCopy, d auth.Descriptor) (Ack, error) {
	g.addSecret(tokenOf(d.RepoURL))
	g.addSecret(d.Token)
	refspec := "HEAD"
	if wc.Branch != "" {
		refspec = "HEAD:refs/heads/" + wc.Branch
	}
	if _, err := g.git(ctx, wc.Dir, "push", d.RepoURL, refspec); err != nil {
		return Ack{}, err
	}
	return Ack{Remote: d.Redacted(), Branch: wc.Branch, Pushed: true}, nil
}

func (g *GitPublisher) head(ctx context.Context, dir string) (string, error) {
	out, err := g.git(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ahead counts commits on HEAD that its upstream does not have.
func (g *GitPublisher) ahead(ctx context.Context, wc WorkingCopy) (int, error) {
	if wc.Upstream == "" {
		return 0, nil
	}
	out, err := g.git(ctx, wc.Dir, "rev-list", "--count", wc.Upstream+"..HEAD")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("parsing rev-list count %q: %w", strings.TrimSpace(out), err)
	}
	return n, nil
}

// defaultBranch asks the remote which branch its HEAD points at.
func (g *GitPublisher) defaultBranch(ctx context.Context, dir, remoteURL string) (string, error) {
	out, err := g.git(ctx, dir, "ls-remote", "--symref", remoteURL, "HEAD")
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(out, "\n") {
		ref, ok := strings.CutPrefix(line, "ref: refs/heads/")
		if !ok {
			continue
		}
		if name, _, ok := strings.Cut(ref, "\t"); ok && name != "" {
			return name, nil
		}
	}
	return "", fmt.Errorf("remote %s has no default branch", stripCredentials(remoteURL))
}

func (g *GitPublisher) refExists(ctx context.Context, dir, ref string) (bool, error) {
	res, err := g.run(ctx, dir, nil, "rev-parse", "--verify", "--quiet", ref)
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0, nil
}

func (g *GitPublisher) git(ctx context.Context, dir string, args ...string) (string, error) {
	return g.gitEnv(ctx, dir, nil, args...)
}

func (g *GitPublisher) gitEnv(ctx context.Context, dir string, extra map[string]string, args ...string) (string, error) {
	res, err := g.run(ctx, dir, extra, args...)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		out := strings.TrimSpace(res.Stderr)
		if out == "" {
			out = strings.TrimSpace(res.Stdout)
		}
		return "", fmt.Errorf("git %s failed (exit %d): %s", args[0], res.ExitCode, g.redact(out))
	}
	return res.Stdout, nil
}

// run executes git and returns its raw result; a non-zero exit is not an
// error here.
func (g *GitPublisher) run(ctx context.Context, dir string, extra map[string]string, args ...string) (CmdResult, error) {
	if err := ctx.Err(); err != nil {
		return CmdResult{}, err
	}
	logger.Debug("git %s", g.redact(strings.Join(args, " ")))

	// Never let git block on its own credential prompts.
	env := map[string]string{
		"GIT_TERMINAL_PROMPT": "0",
		"GIT_SSH_COMMAND":     "ssh -o BatchMode=yes",
	}
	for k, v := range extra {
		env[k] = v
	}

	res, err := g.runner.Run(ctx, "git", args, RunOpts{Dir: dir, Env: env})
	if err != nil {
		return CmdResult{}, fmt.Errorf("running git %s: %w", args[0], err)
	}
	return res, nil
}

func (g *GitPublisher) addSecret(s string) {
	if s != "" {
		g.secrets = append(g.secrets, s)
	}
}

func (g *GitPublisher) redact(s string) string {
	for _, secret := range g.secrets {
		s = strings.ReplaceAll(s, secret, "xxxxx")
	}
	return s
}

// stripCredentials drops a password from an https URL so it can be stored
// as the origin. Other URLs, including ssh:// with a user, are unchanged.
func stripCredentials(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	if _, ok := u.User.Password(); !ok {
		return rawURL
	}
	u.User = nil
	return u.String()
}

// tokenOf extracts the still-encoded password from an https URL with
// userinfo, as git echoes it back in error messages.
func tokenOf(rawURL string) string {
	at := strings.Index(rawURL, "@")
	scheme := strings.Index(rawURL, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return ""
	}
	userinfo := rawURL[scheme+3 : at]
	if i := strings.Index(userinfo, ":"); i >= 0 {
		return userinfo[i+1:]
	}
	return ""
}
