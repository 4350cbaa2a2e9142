package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/site-categorizer/internal/client"
	"github.com/mikey/site-categorizer/internal/config"
	"github.com/mikey/site-categorizer/internal/core"
	"github.com/mikey/site-categorizer/internal/di"
	"github.com/mikey/site-categorizer/internal/factory"
	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// errUnreachable is shown instead of raw transport failures
var errUnreachable = errors.New("could not reach the categorization service, please try again")

// app carries the persistent flags shared by every command
type app struct {
	configFile string
	mode       string
	baseURL    string
	logLevel   string
	logFormat  string
	jsonOutput bool
	noProgress bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "categorizer",
		Short: "Categorize websites by URL",
		Long: `categorizer submits URLs to a website categorization service, shows the
hierarchical categories it assigns and browses the history of past analyses.

The service is either simulated in process (api.mode=mock) or reached over
HTTP (api.mode=real).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: search /etc/site-categorizer, $HOME/.site-categorizer, ./configs, .)")
	flags.StringVar(&a.mode, "mode", "", "backend mode (mock, real)")
	flags.StringVar(&a.baseURL, "base-url", "", "base URL of the real categorization service")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (console, json)")
	flags.BoolVar(&a.jsonOutput, "json", false, "print results as JSON")
	flags.BoolVar(&a.noProgress, "no-progress", false, "hide the progress spinner")

	cmd.AddCommand(a.analyzeCmd())
	cmd.AddCommand(a.batchCmd())
	cmd.AddCommand(a.csvCmd())
	cmd.AddCommand(a.categoriesCmd())
	cmd.AddCommand(a.historyCmd())
	cmd.AddCommand(a.serveCmd())

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies command line overrides
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.New(a.configFile)
	if err != nil {
		return nil, err
	}

	overrides := map[string]struct {
		key   string
		value string
	}{
		"mode":       {"api.mode", a.mode},
		"base-url":   {"api.base_url", a.baseURL},
		"log-level":  {"logging.level", a.logLevel},
		"log-format": {"logging.format", a.logFormat},
	}
	for flag, o := range overrides {
		if cmd.Flags().Changed(flag) {
			cfg.Set(o.key, o.value)
		}
	}

	return cfg, nil
}

// withContainer builds the container and invokes fn with its dependencies
func (a *app) withContainer(cmd *cobra.Command, fn any) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	container, err := di.BuildContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}

	// Stop cache stores and flush logs however fn ends
	defer func() {
		_ = container.Invoke(func(f *factory.BackendFactory, logger *zap.Logger) {
			f.Close()
			_ = logger.Sync()
		})
	}()

	return dig.RootCause(container.Invoke(fn))
}

// withClient runs fn against the client facade, turning transport failures
// into a generic retry message
func (a *app) withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	return a.withContainer(cmd, func(c *client.Client, logger *zap.Logger) error {
		err := fn(cmd.Context(), c)
		if isUnreachable(err) {
			logger.Debug("Transport failure", zap.Error(err))
			return fmt.Errorf("%w (%v)", errUnreachable, err)
		}
		return err
	})
}

// isUnreachable reports transport failures that are not answers from the service
func isUnreachable(err error) bool {
	return errors.Is(err, core.ErrTransport) &&
		!errors.Is(err, core.ErrNotFound) &&
		!errors.Is(err, core.ErrValidation)
}
