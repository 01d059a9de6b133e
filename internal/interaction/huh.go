// SPDX-License-Identifier: AGPL-3.0-or-later
package interaction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
)

var runInputPrompt = func(ctx context.Context, title string, secret bool, value *string) error {
	field := huh.NewInput().
		Title(title).
		Value(value)
	if secret {
		field.EchoMode(huh.EchoModePassword)
	}
	return huh.NewForm(huh.NewGroup(field)).RunWithContext(ctx)
}

// HuhAsker asks through huh input fields. Cancelling a field (ctrl+c) is
// reported as io.EOF so callers treat it like closed input.
type HuhAsker struct{}

func (HuhAsker) Ask(ctx context.Context, prompt string) (string, error) {
	return ask(ctx, prompt, false)
}

func (HuhAsker) AskSecret(ctx context.Context, prompt string) (string, error) {
	return ask(ctx, prompt, true)
}

func ask(ctx context.Context, prompt string, secret bool) (string, error) {
	var value string
	if err := runInputPrompt(ctx, strings.TrimSpace(prompt), secret, &value); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", io.EOF
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("prompt input: %w", err)
	}
	return value, nil
}
