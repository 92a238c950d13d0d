// Package console reads user input one line at a time, through a line
// editor on terminals and a plain buffered reader otherwise.
package console

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// ErrInterrupt is returned by ReadLine when the user pressed Ctrl+C while
// the line editor had the terminal in raw mode, so no SIGINT was raised.
var ErrInterrupt = errors.New("console: interrupted")

// LineReader yields one line per call without the trailing newline, and
// io.EOF once input is exhausted.
type LineReader interface {
	ReadLine() (string, error)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// --- plain reader ---

type plainReader struct {
	r *bufio.Reader
}

// NewPlain reads lines from r with no editing.
func NewPlain(r io.Reader) LineReader {
	return &plainReader{r: bufio.NewReader(r)}
}

func (p *plainReader) ReadLine() (string, error) {
	line, err := p.r.ReadString('\n')
	if err != nil {
		// last line without a newline still counts
		if errors.Is(err, io.EOF) && line != "" {
			return trimEOL(line), nil
		}
		return "", err
	}
	return trimEOL(line), nil
}

func trimEOL(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

// --- line editor ---

// Editor wraps a readline instance. Its Stdout must be used for anything
// printed while a read is pending so the prompt is redrawn.
type Editor struct {
	rl *readline.Instance
}

// slashCommands are offered for tab completion in slash mode.
var slashCommands = []string{"/ping", "/pong", "/close"}

// buildCompleter returns nil unless slash commands are enabled.
func buildCompleter(slash bool) readline.AutoCompleter {
	if !slash {
		return nil
	}
	var items []readline.PrefixCompleterInterface
	for _, c := range slashCommands {
		items = append(items, readline.PcItem(c))
	}
	return readline.NewPrefixCompleter(items...)
}

// NewEditor starts a line editor with the given prompt. No history file is
// written. slash turns on completion of the slash commands.
func NewEditor(prompt string, slash bool) (*Editor, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 prompt,
		AutoComplete:           buildCompleter(slash),
		HistoryFile:            "",
		DisableAutoSaveHistory: true,
		InterruptPrompt:        "^C",
		EOFPrompt:              "",
	})
	if err != nil {
		return nil, err
	}
	return &Editor{rl: rl}, nil
}

func (e *Editor) ReadLine() (string, error) {
	line, err := e.rl.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return "", ErrInterrupt
	case err != nil:
		return "", err
	}
	return line, nil
}

// Stdout returns a writer that cooperates with the pending prompt.
func (e *Editor) Stdout() io.Writer { return e.rl.Stdout() }

// Stderr is Stdout's counterpart for diagnostics.
func (e *Editor) Stderr() io.Writer { return e.rl.Stderr() }

func (e *Editor) Close() error { return e.rl.Close() }
