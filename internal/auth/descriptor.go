// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth collects git credentials from an operator.
//
// Collection is a small state machine driven by an Asker, so the interactive
// flow can be exercised with canned answers. It always ends in exactly one
// Descriptor: Skip, SSHKey or Token.
package auth

import (
	"fmt"
	"net/url"
)

// Method identifies which variant a Descriptor holds.
type Method string

const (
	MethodSkip  Method = "skip"
	MethodSSH   Method = "ssh"
	MethodToken Method = "token"
)

// SkipReason records why a Skip descriptor was produced. Every reason is a
// normal outcome, not an error: the run continues in generate-only mode.
type SkipReason string

const (
	// SkipOperatorChoice means the operator picked "skip automation".
	SkipOperatorChoice SkipReason = "operator_choice"
	// SkipSSHNotConfigured means the operator did not confirm an SSH key.
	SkipSSHNotConfigured SkipReason = "ssh_not_configured"
	// SkipMissingCredential means the username or token was left empty.
	SkipMissingCredential SkipReason = "missing_credential"
)

// Descriptor is the outcome of credential collection.
type Descriptor struct {
	Method Method
	Reason SkipReason // set only for MethodSkip

	// RepoURL is the URL to clone and push. For tokens it embeds the
	// credentials.
	RepoURL  string
	Username string
	Token    string
}

// Skip builds a Skip descriptor.
func Skip(reason SkipReason) Descriptor {
	return Descriptor{Method: MethodSkip, Reason: reason}
}

// SSHKey builds an SSH descriptor for the given SSH remote.
func SSHKey(repoURL string) Descriptor {
	return Descriptor{Method: MethodSSH, RepoURL: repoURL}
}

// Token builds a token descriptor, embedding username and token into the
// HTTPS remote.
func Token(httpsURL, username, token string) (Descriptor, error) {
	u, err := url.Parse(httpsURL)
	if err != nil {
		return Descriptor{}, fmt.Errorf("parsing repository url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return Descriptor{}, fmt.Errorf("repository url %q is not an http(s) url", httpsURL)
	}
	u.User = url.UserPassword(username, token)
	return Descriptor{
		Method:   MethodToken,
		RepoURL:  u.String(),
		Username: username,
		Token:    token,
	}, nil
}

// IsSkip reports whether publishing should be skipped.
func (d Descriptor) IsSkip() bool {
	return d.Method == MethodSkip
}

// Redacted returns RepoURL with any embedded token masked.
func (d Descriptor) Redacted() string {
	if d.Token == "" {
		return d.RepoURL
	}
	u, err := url.Parse(d.RepoURL)
	if err != nil {
		return "<redacted>"
	}
	return u.Redacted()
}

// String never includes the token.
func (d Descriptor) String() string {
	switch d.Method {
	case MethodSkip:
		return fmt.Sprintf("skip (%s)", d.Reason)
	case MethodSSH:
		return "ssh " + d.RepoURL
	case MethodToken:
		return fmt.Sprintf("token %s as %s", d.Redacted(), d.Username)
	default:
		return string(d.Method)
	}
}
