// Package interactive implements the line-oriented prompts used to collect
// request fields from an operator.
//
// A Prompter reads from any io.Reader and writes prompts to any io.Writer, so
// the same code drives a terminal session and a scripted test. When the input
// is a terminal, secret fields are read without echo.
//
// # Prompt Types
//
//   - Confirm: yes/no question
//   - Select: numbered list, returns the chosen index
//   - Lines: multi-line input terminated by a lone "." or end of input
//   - Field: schema-typed input with validation, see field.go
//
// # Example Usage
//
//	prompter := interactive.NewPrompter(nil)
//
//	ok, err := prompter.Confirm(&interactive.ConfirmPromptOptions{
//		Message: "Do you want to retry?",
//		Default: true,
//	})
//
// End of input on a single-line prompt returns ErrAborted.
package interactive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"golang.org/x/term"
)

// ErrAborted is returned when the input ends before a prompt is answered.
var ErrAborted = errors.New("input aborted")

// EndOfLines terminates a multi-line answer.
const EndOfLines = "."

// Prompter handles interactive user prompts.
type Prompter struct {
	reader   *bufio.Reader
	output   io.Writer
	terminal *os.File
	// readPassword reads one line from the terminal without echo.
	readPassword func(fd int) ([]byte, error)
}

// PrompterConfig configures the Prompter.
type PrompterConfig struct {
	Input        io.Reader
	Output       io.Writer
	DisableColor bool
}

// NewPrompter creates a new Prompter with the given configuration.
// If config is nil, uses default configuration (stdin/stdout).
func NewPrompter(config *PrompterConfig) *Prompter {
	if config == nil {
		config = &PrompterConfig{
			Input:  os.Stdin,
			Output: os.Stdout,
		}
	}
	if config.Input == nil {
		config.Input = os.Stdin
	}
	if config.Output == nil {
		config.Output = os.Stdout
	}

	p := &Prompter{
		reader:       bufio.NewReader(config.Input),
		output:       config.Output,
		readPassword: term.ReadPassword,
	}
	if f, ok := config.Input.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		p.terminal = f
	}

	if config.DisableColor {
		pterm.DisableColor()
	}

	return p
}

// Interactive reports whether input comes from a terminal.
func (p *Prompter) Interactive() bool {
	return p.terminal != nil
}

// Warn prints a warning line.
func (p *Prompter) Warn(message string) {
	pterm.Warning.WithWriter(p.output).Println(message)
}

func (p *Prompter) errorf(format string, args ...interface{}) {
	pterm.Error.WithWriter(p.output).Println(fmt.Sprintf(format, args...))
}

// ConfirmPromptOptions configures a confirmation prompt.
type ConfirmPromptOptions struct {
	Message string
	Default bool
}

// Confirm prompts a yes/no question.
func (p *Prompter) Confirm(opts *ConfirmPromptOptions) (bool, error) {
	if opts == nil {
		return false, fmt.Errorf("options cannot be nil")
	}

	hint := "[y/N]"
	if opts.Default {
		hint = "[Y/n]"
	}

	for {
		answer, err := p.ask(opts.Message + " " + hint)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "":
			return opts.Default, nil
		case "y", "yes", "true":
			return true, nil
		case "n", "no", "false":
			return false, nil
		}
		p.errorf("Please answer yes or no")
	}
}

// SelectPromptOptions configures a select prompt.
type SelectPromptOptions struct {
	Message string
	Options []string
	// Default is the index chosen on empty input, or -1 for none.
	Default int
	// Required re-prompts on empty input when there is no default.
	Required bool
}

// Select prints a numbered list and returns the zero-based index of the
// chosen option. Empty input returns Default, or -1 when the prompt is
// optional and has no default.
func (p *Prompter) Select(opts *SelectPromptOptions) (int, error) {
	if opts == nil {
		return -1, fmt.Errorf("options cannot be nil")
	}
	if len(opts.Options) == 0 {
		return -1, fmt.Errorf("options list cannot be empty")
	}

	fmt.Fprintln(p.output, opts.Message)
	for i, o := range opts.Options {
		fmt.Fprintf(p.output, "  %d. %s\n", i+1, o)
	}

	hasDefault := opts.Default >= 0 && opts.Default < len(opts.Options)
	message := "Enter your choice"
	if hasDefault {
		message = fmt.Sprintf("%s [%d]", message, opts.Default+1)
	}

	for {
		answer, err := p.ask(message)
		if err != nil {
			return -1, err
		}
		answer = strings.TrimSpace(answer)

		if answer == "" {
			if hasDefault {
				return opts.Default, nil
			}
			if !opts.Required {
				return -1, nil
			}
			p.errorf("This field is required")
			continue
		}

		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(opts.Options) {
			p.errorf("Please enter a number between 1 and %d", len(opts.Options))
			continue
		}
		return n - 1, nil
	}
}

// Lines reads lines until a line holding only EndOfLines or end of input.
// Trailing carriage returns are removed.
func (p *Prompter) Lines(message string) ([]string, error) {
	fmt.Fprintf(p.output, "%s (finish with a line containing only %q or Ctrl-D):\n", message, EndOfLines)

	var lines []string
	for {
		line, err := p.readLine()
		if errors.Is(err, ErrAborted) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
		if line == EndOfLines {
			return lines, nil
		}
		lines = append(lines, line)
	}
}

// Secret reads one line without echo when input is a terminal.
func (p *Prompter) Secret(message string) (string, error) {
	fmt.Fprint(p.output, message+": ")
	line, err := p.readSecret()
	if p.terminal != nil {
		fmt.Fprintln(p.output)
	}
	return line, err
}

// SecretLines reads hidden lines until a line holding only EndOfLines.
func (p *Prompter) SecretLines(message string) ([]string, error) {
	if p.terminal == nil {
		return p.Lines(message)
	}

	fmt.Fprintf(p.output, "%s (input hidden, finish with a line containing only %q):\n", message, EndOfLines)
	var lines []string
	for {
		line, err := p.readSecret()
		if errors.Is(err, ErrAborted) {
			fmt.Fprintln(p.output)
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
		if line == EndOfLines {
			fmt.Fprintln(p.output)
			return lines, nil
		}
		lines = append(lines, line)
	}
}

// readSecret reads one line for a hidden prompt. Lines already held by the
// reader, typed ahead or pasted, are taken from it first so every prompt
// consumes input in order.
func (p *Prompter) readSecret() (string, error) {
	if p.terminal == nil || p.reader.Buffered() > 0 {
		return p.readLine()
	}
	data, err := p.readPassword(int(p.terminal.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(string(data), "\r"), nil
}

func (p *Prompter) ask(message string) (string, error) {
	fmt.Fprint(p.output, message+": ")
	return p.readLine()
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrAborted
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
