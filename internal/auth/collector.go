// SPDX-License-Identifier: AGPL-3.0-or-later
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrAborted is returned when the operator closes the input stream before a
// terminal state is reached.
var ErrAborted = errors.New("credential collection aborted")

// Asker asks the operator a single question and returns the raw answer.
// Implementations block until an answer is available and return io.EOF once
// input is closed.
type Asker interface {
	// Ask returns ctx.Err() if ctx is canceled while waiting.
	Ask(ctx context.Context, prompt string) (string, error)
	// AskSecret is Ask without echoing the answer where the terminal allows.
	AskSecret(ctx context.Context, prompt string) (string, error)
}

// Remotes are the two forms of the target repository.
type Remotes struct {
	HTTPSURL string
	SSHURL   string
}

// Collector runs the credential state machine.
type Collector struct {
	asker   Asker
	out     io.Writer
	remotes Remotes
}

// NewCollector returns a Collector that prints guidance to out.
func NewCollector(asker Asker, out io.Writer, remotes Remotes) *Collector {
	if out == nil {
		out = io.Discard
	}
	return &Collector{asker: asker, out: out, remotes: remotes}
}

// Prompts shown to the operator.
const (
	PromptMethod     = "Choose authentication method:\n1. Personal Access Token (Recommended)\n2. SSH Key\n3. Skip automation (generate files only)\nEnter choice (1/2/3): "
	PromptSSHConfirm = "Is your SSH key configured? (y/n): "
	PromptUsername   = "GitHub username: "
	PromptToken      = "Personal Access Token (paste here): "
)

type state int

const (
	stateChoose state = iota
	stateSSHConfirm
	stateTokenUsername
	stateTokenSecret
	stateDone
)

// Collect walks the states until one terminal descriptor is produced. The
// context is checked between prompts; a prompt itself is never interrupted.
func (c *Collector) Collect(ctx context.Context) (Descriptor, error) {
	fmt.Fprintln(c.out, "🔐 Git Authentication Setup")
	fmt.Fprintln(c.out, "GitHub requires authentication for pushing changes.")

	var (
		st       = stateChoose
		username string
		result   Descriptor
	)
	for st != stateDone {
		if err := ctx.Err(); err != nil {
			return Descriptor{}, err
		}

		switch st {
		case stateChoose:
			choice, err := c.ask(ctx, PromptMethod, false)
			if err != nil {
				return Descriptor{}, err
			}
			switch choice {
			case "3":
				result, st = Skip(SkipOperatorChoice), stateDone
			case "2":
				fmt.Fprintln(c.out, "📝 SSH Key Setup:")
				fmt.Fprintln(c.out, "Make sure your SSH key is added to GitHub and ssh-agent is running")
				st = stateSSHConfirm
			default:
				fmt.Fprintln(c.out, "📝 Personal Access Token Setup:")
				fmt.Fprintln(c.out, "1. Go to: https://github.com/settings/tokens")
				fmt.Fprintln(c.out, "2. Click \"Generate new token (classic)\"")
				fmt.Fprintln(c.out, "3. Select \"repo\" scope")
				fmt.Fprintln(c.out, "4. Copy the generated token")
				st = stateTokenUsername
			}

		case stateSSHConfirm:
			confirm, err := c.ask(ctx, PromptSSHConfirm, false)
			if err != nil {
				return Descriptor{}, err
			}
			if strings.ToLower(confirm) != "y" {
				fmt.Fprintln(c.out, "Please set up SSH key first: https://docs.github.com/en/authentication/connecting-to-github-with-ssh")
				result = Skip(SkipSSHNotConfigured)
			} else {
				result = SSHKey(c.remotes.SSHURL)
			}
			st = stateDone

		case stateTokenUsername:
			var err error
			if username, err = c.ask(ctx, PromptUsername, false); err != nil {
				return Descriptor{}, err
			}
			st = stateTokenSecret

		case stateTokenSecret:
			token, err := c.ask(ctx, PromptToken, true)
			if err != nil {
				return Descriptor{}, err
			}
			if username == "" || token == "" {
				fmt.Fprintln(c.out, "❌ Username and token are required")
				result = Skip(SkipMissingCredential)
			} else if result, err = Token(c.remotes.HTTPSURL, username, token); err != nil {
				return Descriptor{}, err
			}
			st = stateDone
		}
	}
	return result, nil
}

func (c *Collector) ask(ctx context.Context, prompt string, secret bool) (string, error) {
	var (
		answer string
		err    error
	)
	if secret {
		answer, err = c.asker.AskSecret(ctx, prompt)
	} else {
		answer, err = c.asker.Ask(ctx, prompt)
	}
	if errors.Is(err, io.EOF) {
		return "", ErrAborted
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return answer, nil
}
