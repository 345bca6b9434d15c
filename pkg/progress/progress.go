// Package progress renders a spinner while the CLI waits on the service.
//
// The spinner only animates on an interactive terminal; when output is
// redirected or the indicator is disabled every method is a no-op, so callers
// never need to branch on the environment.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// Indicator is the subset of spinner behaviour the HTTP client depends on.
type Indicator interface {
	Start(message string) error
	Stop() error
}

// Config configures an indicator.
type Config struct {
	// Enabled turns the spinner on.
	Enabled bool
	// Writer receives the spinner frames (default: stderr).
	Writer io.Writer
}

// DefaultConfig enables the spinner when stderr is a terminal.
func DefaultConfig() *Config {
	return &Config{
		Enabled: isTerminal(os.Stderr),
		Writer:  os.Stderr,
	}
}

// Disabled returns a configuration that never renders anything.
func Disabled() *Config {
	return &Config{Enabled: false}
}

// Spinner implements a spinner progress indicator.
type Spinner struct {
	spinner *pterm.SpinnerPrinter
	config  *Config
	active  bool
	mu      sync.Mutex
}

// NewSpinner creates a new spinner progress indicator.
func NewSpinner(config *Config) *Spinner {
	if config == nil {
		config = DefaultConfig()
	}

	return &Spinner{
		config: config,
	}
}

// Start starts the spinner with a message.
func (s *Spinner) Start(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.config.Enabled {
		return nil
	}

	if s.active {
		return fmt.Errorf("spinner already active")
	}

	printer := pterm.DefaultSpinner.WithRemoveWhenDone(true)
	if s.config.Writer != nil {
		printer = printer.WithWriter(s.config.Writer)
	}

	var err error
	s.spinner, err = printer.Start(message)
	if err != nil {
		return fmt.Errorf("failed to start spinner: %w", err)
	}

	s.active = true
	return nil
}

// Stop stops the spinner.
func (s *Spinner) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || s.spinner == nil {
		return nil
	}

	err := s.spinner.Stop()
	s.active = false
	return err
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
