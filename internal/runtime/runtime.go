// Package runtime wires the subsystems of one siemctl invocation.
//
// # Initialization Flow
//
//  1. Resolve settings (flags, environment, config file)
//  2. Open an authorized HTTP session from the service-account credentials
//  3. Create the API client with a progress spinner
//  4. Create the prompter, backup store and executor
//
// Tests replace the authorized session through Options.HTTPClient.
package runtime

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/CliForge/siemctl/internal/executor"
	"github.com/CliForge/siemctl/pkg/api"
	"github.com/CliForge/siemctl/pkg/auth"
	"github.com/CliForge/siemctl/pkg/backup"
	"github.com/CliForge/siemctl/pkg/config"
	"github.com/CliForge/siemctl/pkg/interactive"
	"github.com/CliForge/siemctl/pkg/progress"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// defaultPager is used when $PAGER is unset. It exits at once when the
// preview fits on one screen.
var defaultPager = []string{"less", "-FRX"}

// Options configures New.
type Options struct {
	Settings *config.Settings
	// Input is read for prompts (default: stdin).
	Input io.Reader
	// Output receives prompts and results (default: stdout).
	Output io.Writer
	// ErrOutput receives logs and the spinner (default: stderr).
	ErrOutput io.Writer
	// HTTPClient replaces the service-account session when set.
	HTTPClient *http.Client
}

// Runtime holds the subsystems of one invocation.
type Runtime struct {
	settings *config.Settings
	logger   *pterm.Logger
	executor *executor.Executor
}

// New creates a Runtime.
func New(ctx context.Context, opts *Options) (*Runtime, error) {
	if opts == nil || opts.Settings == nil {
		return nil, fmt.Errorf("settings are required")
	}
	settings := opts.Settings

	input := opts.Input
	if input == nil {
		input = os.Stdin
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	errOut := opts.ErrOutput
	if errOut == nil {
		errOut = os.Stderr
	}

	level := pterm.LogLevelInfo
	if settings.Verbose {
		level = pterm.LogLevelDebug
	}
	logger := pterm.DefaultLogger.WithWriter(errOut).WithLevel(level)

	baseURL, err := settings.BaseURL()
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient, err = auth.NewHTTPClient(ctx, &auth.ServiceAccountConfig{
			CredentialFile: settings.CredentialFile,
			Timeout:        settings.Timeout,
		})
		if err != nil {
			return nil, err
		}
	}

	spinner := progress.NewSpinner(&progress.Config{
		Enabled: isTerminal(errOut),
		Writer:  errOut,
	})
	client, err := api.NewClient(&api.Config{
		BaseURL:    baseURL,
		HTTPClient: httpClient,
		Logger:     logger,
		Progress:   spinner,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("using API endpoint", logger.Args("url", baseURL, "region", settings.Region, "env", settings.Env))

	prompter := interactive.NewPrompter(&interactive.PrompterConfig{
		Input:  input,
		Output: out,
	})

	var pager []string
	if prompter.Interactive() && isTerminal(out) {
		pager = pagerCommand()
	}

	exec, err := executor.NewExecutor(&executor.Config{
		Client:   client,
		Prompter: prompter,
		Backups:  backup.NewStore(settings.BackupDir()),
		Output:   out,
		Logger:   logger,
		Region:   settings.Region,
		Env:      settings.Env,
		Pager:    pager,
		Masking:  settings.Masking(),
	})
	if err != nil {
		return nil, err
	}

	return &Runtime{settings: settings, logger: logger, executor: exec}, nil
}

// Executor returns the executor of the invocation.
func (rt *Runtime) Executor() *executor.Executor {
	return rt.executor
}

// Settings returns the resolved settings.
func (rt *Runtime) Settings() *config.Settings {
	return rt.settings
}

// Logger returns the diagnostic logger.
func (rt *Runtime) Logger() *pterm.Logger {
	return rt.logger
}

func pagerCommand() []string {
	if fields := strings.Fields(os.Getenv("PAGER")); len(fields) > 0 {
		return fields
	}
	return defaultPager
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
