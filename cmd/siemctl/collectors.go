package main

import (
	"context"

	"github.com/CliForge/siemctl/internal/executor"
	"github.com/spf13/cobra"
)

// Collectors live under a forwarder, so every subcommand takes
// --forwarder-id.
func newCollectorsCmd(a *app) *cobra.Command {
	var forwarderID string
	cmd := &cobra.Command{
		Use:   "collectors",
		Short: "Manage the collectors of a forwarder",
	}
	cmd.PersistentFlags().StringVar(&forwarderID, "forwarder-id", "", "ID of the forwarder owning the collectors")
	_ = cmd.MarkPersistentFlagRequired("forwarder-id")

	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Create a collector",
		Args:  cobra.NoArgs,
		RunE: a.action(func(ctx context.Context, e *executor.Executor) error {
			return e.CreateCollector(ctx, forwarderID)
		}),
	})

	cmd.AddCommand(collectorIDCmd(a, &forwarderID, "update", "Update a collector", (*executor.Executor).UpdateCollector))
	cmd.AddCommand(collectorIDCmd(a, &forwarderID, "get", "Show a collector", (*executor.Executor).GetCollector))
	cmd.AddCommand(collectorIDCmd(a, &forwarderID, "delete", "Delete a collector", (*executor.Executor).DeleteCollector))

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the collectors of a forwarder",
		Args:  cobra.NoArgs,
		RunE: a.listAction(func(ctx context.Context, e *executor.Executor, opts *executor.ListOptions) error {
			return e.ListCollectors(ctx, forwarderID, opts)
		}),
	})

	return cmd
}

func collectorIDCmd(a *app, forwarderID *string, use, short string, fn func(*executor.Executor, context.Context, string, string) error) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: a.action(func(ctx context.Context, e *executor.Executor) error {
			return fn(e, ctx, *forwarderID, id)
		}),
	}
	cmd.Flags().StringVar(&id, "id", "", "Collector ID")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
