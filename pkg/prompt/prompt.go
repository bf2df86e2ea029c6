package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/wrouesnel/keystore-setup/pkg/models"
	"golang.org/x/term"
)

var ErrInputClosed = errors.New("input closed before a response was entered")

const (
	MsgPasswordTooShort = "Password must be at least %d characters. Try again."
	MsgPasswordMismatch = "Passwords don't match. Try again."
)

// Prompter reads responses to interactive questions. Passwords are read
// without echo when the input is a terminal.
//
// Every read waits on its context. A read from a terminal cannot be
// interrupted, so on cancellation the read is abandoned and keeps the input
// until it completes: a Prompter must not be used after a cancelled read.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	// fd is the terminal file descriptor, or -1 if the input is not a terminal.
	fd int
}

type readResult struct {
	value string
	err   error
}

// New returns a Prompter reading from in and writing prompts to out.
func New(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{
		in:  bufio.NewReader(in),
		out: out,
		fd:  -1,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

// Println writes a status line to the output.
func (p *Prompter) Println(a ...interface{}) {
	_, _ = fmt.Fprintln(p.out, a...)
}

// Printf writes formatted text to the output.
func (p *Prompter) Printf(format string, a ...interface{}) {
	_, _ = fmt.Fprintf(p.out, format, a...)
}

// Line prints the prompt and returns the next line of input without its line
// terminator.
func (p *Prompter) Line(ctx context.Context, prompt string) (string, error) {
	p.Printf("%s", prompt)
	return p.await(ctx, nil, p.readLine)
}

// Password prints the prompt and reads a line without echoing it.
func (p *Prompter) Password(ctx context.Context, prompt string) (models.Secret, error) {
	p.Printf("%s", prompt)
	// Input already taken into the line buffer was echoed when it was typed,
	// and the terminal will not return it again.
	if p.fd < 0 || p.in.Buffered() > 0 {
		line, err := p.await(ctx, nil, p.readLine)
		return models.Secret(line), err
	}

	state, err := term.GetState(p.fd)
	if err != nil {
		return "", errors.Wrap(err, "reading terminal state")
	}
	value, err := p.await(ctx, state, func() (string, error) {
		value, err := term.ReadPassword(p.fd)
		// The terminal swallows the newline along with the echo.
		p.Println()
		if err != nil {
			return "", errors.Wrap(err, "reading password")
		}
		return string(value), nil
	})
	return models.Secret(value), err
}

// Confirm asks a yes/no question. Only "yes" (case-insensitive, surrounding
// whitespace ignored) counts as agreement.
func (p *Prompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	response, err := p.Line(ctx, prompt)
	if err != nil {
		return false, err
	}
	return strings.ToLower(strings.TrimSpace(response)) == "yes", nil
}

// NewPassword asks for a password and its confirmation until the password is
// at least minLength characters long and both entries match. There is no
// retry limit.
func (p *Prompter) NewPassword(ctx context.Context, prompt string, confirmPrompt string, minLength int) (models.Secret, error) {
	for {
		password, err := p.Password(ctx, prompt)
		if err != nil {
			return "", err
		}
		if utf8.RuneCountInString(password.Reveal()) < minLength {
			p.Println(fmt.Sprintf(MsgPasswordTooShort, minLength))
			continue
		}

		confirm, err := p.Password(ctx, confirmPrompt)
		if err != nil {
			return "", err
		}
		if password != confirm {
			p.Println(MsgPasswordMismatch)
			continue
		}
		return password, nil
	}
}

// await runs read until it completes or ctx is done. If ctx ends first and
// state is set, the terminal is put back into state.
func (p *Prompter) await(ctx context.Context, state *term.State, read func() (string, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	resultCh := make(chan readResult, 1)
	go func() {
		value, err := read()
		resultCh <- readResult{value, err}
	}()

	select {
	case result := <-resultCh:
		return result.value, result.err
	case <-ctx.Done():
		if state != nil {
			_ = term.Restore(p.fd, state)
		}
		p.Println()
		return "", ctx.Err()
	}
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", errors.Wrap(err, "reading input")
		}
		if line == "" {
			return "", ErrInputClosed
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}
