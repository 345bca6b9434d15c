package main

import (
	"context"

	"github.com/CliForge/siemctl/internal/executor"
	"github.com/spf13/cobra"
)

func newForwardersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forwarders",
		Short: "Manage forwarders",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Create a forwarder",
		Args:  cobra.NoArgs,
		RunE: a.action(func(ctx context.Context, e *executor.Executor) error {
			return e.CreateForwarder(ctx)
		}),
	})

	cmd.AddCommand(forwarderIDCmd(a, "update", "Update a forwarder", (*executor.Executor).UpdateForwarder))
	cmd.AddCommand(forwarderIDCmd(a, "get", "Show a forwarder", (*executor.Executor).GetForwarder))
	cmd.AddCommand(forwarderIDCmd(a, "delete", "Delete a forwarder", (*executor.Executor).DeleteForwarder))

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List forwarders",
		Args:  cobra.NoArgs,
		RunE: a.listAction(func(ctx context.Context, e *executor.Executor, opts *executor.ListOptions) error {
			return e.ListForwarders(ctx, opts)
		}),
	})

	return cmd
}

func forwarderIDCmd(a *app, use, short string, fn func(*executor.Executor, context.Context, string) error) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: a.action(func(ctx context.Context, e *executor.Executor) error {
			return fn(e, ctx, id)
		}),
	}
	cmd.Flags().StringVar(&id, "id", "", "Forwarder ID")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
