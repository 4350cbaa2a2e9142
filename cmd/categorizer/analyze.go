package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mikey/site-categorizer/internal/client"
	"github.com/mikey/site-categorizer/internal/core"
	"github.com/spf13/cobra"
)

func (a *app) analyzeCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "analyze URL",
		Short: "Categorize a single website",
		Long: `Categorize a single website. Results younger than the cache TTL are served
from the cache unless --force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				var result *core.AnalysisResult
				err := withSpinner(cmd.ErrOrStderr(), !a.noProgress, "Analyzing "+args[0], func() error {
					var err error
					result, err = c.AnalyzeURL(ctx, args[0], force)
					return err
				})
				if err != nil {
					return err
				}

				if a.jsonOutput {
					return printJSON(cmd.OutOrStdout(), result)
				}
				printResult(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "ignore cached results and analyze again")
	return cmd
}

func (a *app) batchCmd() *cobra.Command {
	var (
		force bool
		file  string
	)

	cmd := &cobra.Command{
		Use:   "batch [URL...]",
		Short: "Categorize several websites",
		Long: `Categorize several websites in one request. URLs come from the arguments
and, with --file, from a text file holding one URL per line. Blank lines and
lines starting with # are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := append([]string(nil), args...)
			if file != "" {
				fromFile, err := readURLFile(file)
				if err != nil {
					return err
				}
				urls = append(urls, fromFile...)
			}

			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				var batch *core.BatchResult
				description := fmt.Sprintf("Analyzing %d URLs", len(urls))
				err := withSpinner(cmd.ErrOrStderr(), !a.noProgress, description, func() error {
					var err error
					batch, err = c.AnalyzeBatch(ctx, urls, force)
					return err
				})
				if err != nil {
					return err
				}

				if a.jsonOutput {
					return printJSON(cmd.OutOrStdout(), batch)
				}
				printBatch(cmd.OutOrStdout(), batch)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "ignore cached results and analyze again")
	cmd.Flags().StringVarP(&file, "file", "f", "", "file with one URL per line")
	return cmd
}

func (a *app) csvCmd() *cobra.Command {
	var (
		force  bool
		column string
	)

	cmd := &cobra.Command{
		Use:   "csv FILE",
		Short: "Categorize the websites listed in a CSV or XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				var batch *core.BatchResult
				err := withSpinner(cmd.ErrOrStderr(), !a.noProgress, "Analyzing "+args[0], func() error {
					var err error
					batch, err = c.AnalyzeCSV(ctx, data, column, force)
					return err
				})
				if err != nil {
					return err
				}

				if a.jsonOutput {
					return printJSON(cmd.OutOrStdout(), batch)
				}
				printBatch(cmd.OutOrStdout(), batch)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "ignore cached results and analyze again")
	cmd.Flags().StringVar(&column, "column", core.DefaultCSVColumn, "name of the column holding URLs")
	return cmd
}

// readURLFile reads one URL per line, skipping blanks and # comments
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return urls, nil
}
