package main

import (
	"context"

	"github.com/mikey/site-categorizer/internal/client"
	"github.com/mikey/site-categorizer/internal/core"
	"github.com/spf13/cobra"
)

func (a *app) historyCmd() *cobra.Command {
	query := core.HistoryQuery{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past analyses",
		Long:  `List past analyses one page at a time, optionally filtered by status, main category or URL.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				var page *core.HistoryPage
				err := withSpinner(cmd.ErrOrStderr(), !a.noProgress, "Loading history", func() error {
					var err error
					page, err = c.GetHistory(ctx, query)
					return err
				})
				if err != nil {
					return err
				}

				if a.jsonOutput {
					return printJSON(cmd.OutOrStdout(), page)
				}
				return printHistory(cmd.OutOrStdout(), page)
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&query.Page, "page", 1, "page number, starting at 1")
	flags.IntVar(&query.Limit, "limit", 10, "items per page")
	flags.StringVar(&query.Sort, "sort", core.SortTimestampDesc, "sort order (timestamp_desc, timestamp_asc)")
	flags.StringVar(&query.Status, "status", "", "only show this status (success, failed, all)")
	flags.StringVar(&query.MainCategory, "category", "", "only show this main category")
	flags.StringVar(&query.URLContains, "url-contains", "", "only show URLs containing this text (case-insensitive)")

	cmd.AddCommand(a.historyShowCmd())
	cmd.AddCommand(a.historyCategoriesCmd())
	return cmd
}

func (a *app) historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one past analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				rec, err := c.GetHistoryItem(ctx, args[0])
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return printJSON(cmd.OutOrStdout(), rec)
				}
				printRecord(cmd.OutOrStdout(), rec)
				return nil
			})
		},
	}
}

func (a *app) historyCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the main categories found in history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				categories, err := c.GetHistoryCategories(ctx)
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return printJSON(cmd.OutOrStdout(), categories)
				}
				printList(cmd.OutOrStdout(), categories)
				return nil
			})
		},
	}
}
