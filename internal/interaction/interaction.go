// SPDX-License-Identifier: AGPL-3.0-or-later

// Package interaction implements operator prompts for the credential flow.
package interaction

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// IsTerminal reports whether the file refers to a terminal device.
var IsTerminal = func(file *os.File) bool {
	if file == nil {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// readPassword is swapped in tests.
var readPassword = term.ReadPassword

// LineAsker reads one line per prompt. Prompts go to out; answers come from
// in with the trailing line ending removed and nothing else altered.
//
// Reads run on a helper goroutine so a canceled context ends the prompt
// immediately. A read left behind by a cancellation is picked up by the
// next prompt rather than racing a second reader.
type LineAsker struct {
	in      *bufio.Reader
	out     io.Writer
	secret  *os.File // non-nil when in is a terminal whose echo can be disabled
	pending chan answer
}

type answer struct {
	text string
	err  error
}

// NewLineAsker builds a LineAsker. When in is a terminal *os.File, secrets
// are read with echo disabled.
func NewLineAsker(in io.Reader, out io.Writer) *LineAsker {
	if out == nil {
		out = io.Discard
	}
	a := &LineAsker{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && IsTerminal(f) {
		a.secret = f
	}
	return a
}

// Ask prints prompt and returns the next line. A final line without a
// newline is returned as-is; io.EOF is returned only when nothing was read.
// Cancelling ctx returns ctx.Err() without waiting for input.
func (a *LineAsker) Ask(ctx context.Context, prompt string) (string, error) {
	_, _ = fmt.Fprint(a.out, prompt)
	return a.await(ctx, a.readLine, nil)
}

// AskSecret behaves like Ask but disables echo on terminals. The terminal
// state is restored when ctx is canceled mid-read.
func (a *LineAsker) AskSecret(ctx context.Context, prompt string) (string, error) {
	if a.secret == nil {
		return a.Ask(ctx, prompt)
	}
	_, _ = fmt.Fprint(a.out, prompt)

	fd := int(a.secret.Fd())
	state, _ := term.GetState(fd)
	restore := func() {
		if state != nil {
			_ = term.Restore(fd, state)
		}
		_, _ = fmt.Fprintln(a.out)
	}

	return a.await(ctx, func() (string, error) {
		b, err := readPassword(fd)
		_, _ = fmt.Fprintln(a.out)
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return string(b), nil
	}, restore)
}

func (a *LineAsker) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return trimEOL(line), nil
		}
		return "", err
	}
	return trimEOL(line), nil
}

// await starts read unless an earlier read is still outstanding, then waits
// for it or for ctx. onCancel runs when ctx wins.
func (a *LineAsker) await(ctx context.Context, read func() (string, error), onCancel func()) (string, error) {
	if a.pending == nil {
		ch := make(chan answer, 1)
		go func() {
			text, err := read()
			ch <- answer{text: text, err: err}
		}()
		a.pending = ch
	}

	select {
	case res := <-a.pending:
		a.pending = nil
		return res.text, res.err
	case <-ctx.Done():
		if onCancel != nil {
			onCancel()
		}
		return "", ctx.Err()
	}
}

func trimEOL(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

// Asker is the prompt capability consumed by the credential collector.
type Asker interface {
	Ask(ctx context.Context, prompt string) (string, error)
	AskSecret(ctx context.Context, prompt string) (string, error)
}

// New picks huh forms when allowed and both ends are terminals, and plain
// line prompts otherwise (pipes, scripts, --no-interactive).
func New(in, out *os.File, forms bool) Asker {
	if forms && IsTerminal(in) && IsTerminal(out) {
		return HuhAsker{}
	}
	return NewLineAsker(in, out)
}
