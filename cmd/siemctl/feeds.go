package main

import (
	"context"

	"github.com/CliForge/siemctl/internal/executor"
	"github.com/spf13/cobra"
)

func newFeedsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Manage feeds",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Create a feed",
		Long: `Create a feed interactively.

Pick a source type and a log type, then fill in the fields the schema
defines for them. The request is shown for confirmation before it is
sent.`,
		Args: cobra.NoArgs,
		RunE: a.action(func(ctx context.Context, e *executor.Executor) error {
			return e.CreateFeed(ctx)
		}),
	})

	cmd.AddCommand(feedIDCmd(a, "update", "Update a feed", (*executor.Executor).UpdateFeed))
	cmd.AddCommand(feedIDCmd(a, "get", "Show a feed", (*executor.Executor).GetFeed))
	cmd.AddCommand(feedIDCmd(a, "delete", "Delete a feed", (*executor.Executor).DeleteFeed))
	cmd.AddCommand(feedIDCmd(a, "enable", "Enable a feed", (*executor.Executor).EnableFeed))
	cmd.AddCommand(feedIDCmd(a, "disable", "Disable a feed", (*executor.Executor).DisableFeed))

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List feeds",
		Args:  cobra.NoArgs,
		RunE: a.listAction(func(ctx context.Context, e *executor.Executor, opts *executor.ListOptions) error {
			return e.ListFeeds(ctx, opts)
		}),
	})

	return cmd
}

func feedIDCmd(a *app, use, short string, fn func(*executor.Executor, context.Context, string) error) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: a.action(func(ctx context.Context, e *executor.Executor) error {
			return fn(e, ctx, id)
		}),
	}
	cmd.Flags().StringVar(&id, "id", "", "Feed ID")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
