// Package confirm supplies the yes/no gate consulted before destructive
// operations such as deleting an item or replacing the collection with an
// imported document.
package confirm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ErrNotInteractive is returned when a prompt is needed but stdin is not a
// terminal.
var ErrNotInteractive = errors.New("confirmation required but stdin is not a terminal (pass --yes to proceed)")

// Gate asks the user to approve an operation. A false answer means the
// caller must leave all state untouched.
type Gate interface {
	Confirm(prompt string) (bool, error)
}

// GateFunc adapts a function to Gate.
type GateFunc func(prompt string) (bool, error)

// Confirm calls f.
func (f GateFunc) Confirm(prompt string) (bool, error) { return f(prompt) }

// Always returns a gate that answers without asking.
func Always(answer bool) Gate {
	return GateFunc(func(string) (bool, error) { return answer, nil })
}

// Prompt reads y/N answers line by line.
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompt builds a prompt reading from in and writing questions to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

// Confirm writes prompt and accepts "y" or "yes" (any case). Anything else,
// including end of input, is a no.
func (p *Prompt) Confirm(prompt string) (bool, error) {
	if _, err := fmt.Fprintf(p.out, "%s [y/N]: ", strings.TrimSpace(prompt)); err != nil {
		return false, fmt.Errorf("write prompt: %w", err)
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ForStdin returns a prompt on stdin/stderr when stdin is a terminal, and a
// gate that fails with ErrNotInteractive otherwise.
func ForStdin() Gate {
	fd := os.Stdin.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return NewPrompt(os.Stdin, os.Stderr)
	}
	return GateFunc(func(string) (bool, error) { return false, ErrNotInteractive })
}
