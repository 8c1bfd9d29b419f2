package portalui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// TerminalDialogs shows dialogs on a line oriented terminal.
type TerminalDialogs struct {
	mu        sync.Mutex
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

// NewTerminalDialogs reads answers from in and writes dialogs to out. With
// assumeYes every confirmation is accepted without reading input.
func NewTerminalDialogs(in io.Reader, out io.Writer, assumeYes bool) *TerminalDialogs {
	return &TerminalDialogs{in: bufio.NewReader(in), out: out, assumeYes: assumeYes}
}

func (t *TerminalDialogs) Alert(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, message)
}

func (t *TerminalDialogs) Confirm(message string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.assumeYes {
		fmt.Fprintf(t.out, "%s [y/N] y\n", message)
		return true
	}
	fmt.Fprintf(t.out, "%s [y/N] ", message)
	answer, ok := t.readLine()
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (t *TerminalDialogs) Prompt(message string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "%s ", message)
	return t.readLine()
}

func (t *TerminalDialogs) readLine() (string, bool) {
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}
