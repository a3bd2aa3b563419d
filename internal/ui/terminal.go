package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/example/duosync/internal/vocab"
)

// messages may carry HTML meant for rich surfaces
var plainText = bluemonday.StrictPolicy()

// Terminal is an interactive vocab.Interactor on a line-oriented console
type Terminal struct {
	in           *bufio.Reader
	out          io.Writer
	readPassword func() (string, error)
	bar          *progressbar.ProgressBar
}

// NewTerminal creates a terminal interactor. When in is a TTY the password is read without echo.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		t.readPassword = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(t.out)
			return string(b), err
		}
	} else {
		t.readPassword = t.readLine
	}
	return t
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// PromptCredentials asks for username and password. An empty answer or end of input cancels.
func (t *Terminal) PromptCredentials(ctx context.Context) (vocab.CredentialsResult, error) {
	if err := ctx.Err(); err != nil {
		return vocab.CredentialsResult{}, err
	}

	fmt.Fprint(t.out, "Duolingo username: ")
	username, err := t.readLine()
	if errors.Is(err, io.EOF) {
		return vocab.Cancelled(), nil
	}
	if err != nil {
		return vocab.CredentialsResult{}, fmt.Errorf("failed to read username: %w", err)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return vocab.Cancelled(), nil
	}

	fmt.Fprint(t.out, "Duolingo password: ")
	password, err := t.readPassword()
	if errors.Is(err, io.EOF) {
		return vocab.Cancelled(), nil
	}
	if err != nil {
		return vocab.CredentialsResult{}, fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return vocab.Cancelled(), nil
	}

	return vocab.Confirmed(vocab.Credentials{Username: username, Password: password}), nil
}

// Confirm asks a yes/no question; anything but y/yes is no
func (t *Terminal) Confirm(ctx context.Context, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprintf(t.out, "%s [y/N]: ", toPlain(message))
	answer, err := t.readLine()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (t *Terminal) Info(ctx context.Context, message string) {
	fmt.Fprintln(t.out, toPlain(message))
}

func (t *Terminal) Warning(ctx context.Context, message string) {
	fmt.Fprintln(t.out, "Warning: "+toPlain(message))
}

func (t *Terminal) StartProgress(label string, max int) {
	t.bar = progressbar.NewOptions(max,
		progressbar.OptionSetWriter(t.out),
		progressbar.OptionSetDescription(label),
		progressbar.OptionShowCount(),
	)
}

func (t *Terminal) UpdateProgress(value int) {
	if t.bar != nil {
		t.bar.Set(value)
	}
}

func (t *Terminal) FinishProgress() {
	if t.bar != nil {
		t.bar.Finish()
		fmt.Fprintln(t.out)
		t.bar = nil
	}
}

// toPlain strips markup and collapses the whitespace HTML would have collapsed
func toPlain(message string) string {
	text := html.UnescapeString(plainText.Sanitize(message))
	var lines []string
	for _, para := range strings.Split(text, "\n\n") {
		if p := strings.Join(strings.Fields(para), " "); p != "" {
			lines = append(lines, p)
		}
	}
	return strings.Join(lines, "\n\n")
}
