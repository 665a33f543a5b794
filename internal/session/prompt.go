package session

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Prompter supplies the interactive answers selection and join logic need.
// It is injected so the logic stays testable and so non-interactive embedders
// can answer programmatically.
type Prompter interface {
	// Password reads the sign-in password, masked when possible.
	Password() (string, error)
	// ChallengeIndex reads a 0-based index below n, or -1 to abort.
	ChallengeIndex(n int) (int, error)
	// SecretCode reads the secret code for a gated challenge.
	SecretCode() (string, error)
}

// TerminalPrompter reads answers from a terminal.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer

	reader *bufio.Reader
}

// NewTerminalPrompter prompts on stdin/stderr.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

// Password reads a masked password when stdin is a terminal, falling back to
// a plain line otherwise (pipes, tests).
func (p *TerminalPrompter) Password() (string, error) {
	fmt.Fprint(p.Out, "Your password\n>> ")
	if term.IsTerminal(int(p.In.Fd())) {
		raw, err := term.ReadPassword(int(p.In.Fd()))
		fmt.Fprintln(p.Out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	return line, nil
}

// ChallengeIndex keeps asking until it gets an integer in [0, n) or the quit
// sentinel "q", which yields -1.
func (p *TerminalPrompter) ChallengeIndex(n int) (int, error) {
	for {
		fmt.Fprintf(p.Out, "Choose a challenge index in [0, %d), or q to quit\n>> ", n)
		line, err := p.readLine()
		if err != nil {
			return -1, err
		}
		if strings.EqualFold(line, "q") {
			return -1, nil
		}
		idx, convErr := strconv.Atoi(line)
		if convErr != nil || idx < 0 || idx >= n {
			fmt.Fprintf(p.Out, "%q is not a valid index.\n", line)
			continue
		}
		return idx, nil
	}
}

// SecretCode reads the code required to join a gated challenge.
func (p *TerminalPrompter) SecretCode() (string, error) {
	fmt.Fprint(p.Out, "This challenge requires a secret code to join\n>> ")
	return p.readLine()
}

func (p *TerminalPrompter) readLine() (string, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
