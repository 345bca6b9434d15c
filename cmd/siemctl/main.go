// Package main implements siemctl, a command-line client for managing SIEM
// feeds, forwarders and collectors.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/CliForge/siemctl/internal/executor"
	"github.com/CliForge/siemctl/internal/runtime"
	"github.com/CliForge/siemctl/pkg/config"
	"github.com/CliForge/siemctl/pkg/output"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time
	version = "0.1.0"
	// BuildDate is set at build time
	buildDate = "unknown"
)

// app carries the streams and flag values shared by every command.
type app struct {
	loader *config.Loader
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	export     string
	fileFormat string
}

func main() {
	a := &app{loader: config.NewLoader(), in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	os.Exit(a.run(os.Args[1:]))
}

// run executes the command line and returns the exit code. Handled failures
// such as an unknown ID exit with 0.
func (a *app) run(args []string) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetIn(a.in)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(a.errOut, "Failed with exception: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "siemctl",
		Short: "Manage SIEM feeds, forwarders and collectors",
		Long: `siemctl creates, updates, inspects and deletes the ingestion
resources of a SIEM instance.

Create and update commands are interactive: the fields to fill in are
read from the service schema. A failed request is saved and offered
again on the next run.`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.String(config.KeyRegion, config.DefaultRegion, "Region the instance runs in: "+strings.Join(config.Regions(), ", "))
	flags.String(config.KeyURL, "", "Base URL of the API, overriding the region")
	flags.String(config.KeyEnv, config.EnvProd, "Environment: prod or test")
	flags.StringP(config.KeyCredentialFile, "c", "", "Path of the service-account credential file")
	flags.BoolP(config.KeyVerbose, "v", false, "Log HTTP requests and response bodies")
	flags.StringVar(&a.export, "export", "", "Export list results to this file")
	flags.StringVar(&a.fileFormat, "file-format", string(output.FormatCSV), "Export format: CSV, JSON or TXT")
	cobra.CheckErr(a.loader.BindFlags(flags))

	cmd.AddCommand(newFeedsCmd(a))
	cmd.AddCommand(newForwardersCmd(a))
	cmd.AddCommand(newCollectorsCmd(a))

	return cmd
}

// action resolves the settings, wires the runtime and runs fn.
func (a *app) action(fn func(ctx context.Context, e *executor.Executor) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		settings, err := a.loader.Load()
		if err != nil {
			return err
		}
		rt, err := runtime.New(cmd.Context(), &runtime.Options{
			Settings:  settings,
			Input:     a.in,
			Output:    a.out,
			ErrOutput: a.errOut,
		})
		if err != nil {
			return err
		}
		return fn(cmd.Context(), rt.Executor())
	}
}

// listOptions returns the export settings of a list command.
func (a *app) listOptions() (*executor.ListOptions, error) {
	if a.export == "" {
		return &executor.ListOptions{}, nil
	}
	format, err := output.ParseFormat(a.fileFormat)
	if err != nil {
		return nil, err
	}
	return &executor.ListOptions{Export: a.export, Format: format}, nil
}

func (a *app) listAction(fn func(ctx context.Context, e *executor.Executor, opts *executor.ListOptions) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		opts, err := a.listOptions()
		if err != nil {
			return err
		}
		return a.action(func(ctx context.Context, e *executor.Executor) error {
			return fn(ctx, e, opts)
		})(cmd, args)
	}
}
