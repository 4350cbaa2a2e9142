package main

import (
	"context"

	"github.com/mikey/site-categorizer/internal/client"
	"github.com/spf13/cobra"
)

func (a *app) categoriesCmd() *cobra.Command {
	var mainOnly bool

	cmd := &cobra.Command{
		Use:   "categories [MAIN]",
		Short: "Show the reference category taxonomy",
		Long: `Show the reference category taxonomy. With MAIN only that category's sub
tree is shown; with --main only the top level category names are listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				out := cmd.OutOrStdout()

				switch {
				case mainOnly:
					mains, err := c.GetMainCategories(ctx)
					if err != nil {
						return err
					}
					if a.jsonOutput {
						return printJSON(out, mains)
					}
					printList(out, mains)

				case len(args) == 1:
					subs, err := c.GetSubCategories(ctx, args[0])
					if err != nil {
						return err
					}
					if a.jsonOutput {
						return printJSON(out, subs)
					}
					printSubCategories(out, subs, "")

				default:
					categories, err := c.GetCategories(ctx)
					if err != nil {
						return err
					}
					if a.jsonOutput {
						return printJSON(out, categories)
					}
					printCategories(out, categories)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&mainOnly, "main", false, "list main categories only")
	return cmd
}
