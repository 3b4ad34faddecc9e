// Package cli exposes the scrape, ingest and catalog workflows as cobra commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ListingScanner/internal/app"
	"ListingScanner/internal/config"
	"ListingScanner/internal/domain"
	"ListingScanner/internal/logging"
)

// runtime carries the global flags down to subcommands.
type runtime struct {
	configPath string
	logLevel   string
}

// NewRootCommand builds the listingscanner command tree.
func NewRootCommand() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "listingscanner",
		Short: "Collect business listings into deduplicated per-query stores",
		Long: `listingscanner scrapes Google Maps and JustDial search results, merges
them into one namespace per search query, and reads or exports what was stored.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", "", "path to YAML config (default $"+config.ConfigPathEnv+")")
	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newScrapeCmd(rt),
		newIngestCmd(rt),
		newNamespacesCmd(rt),
		newShowCmd(rt),
		newExportCmd(rt),
	)
	return root
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(os.Stdout)
	return root.ExecuteContext(ctx)
}

// open loads configuration and builds the application. Callers close it.
func (rt *runtime) open(cmd *cobra.Command) (*app.Application, error) {
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return nil, err
	}
	if rt.logLevel != "" {
		cfg.Logging.Level = rt.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return app.New(ctx, cfg, logger)
}

func parseSource(value string) (domain.Source, error) {
	if value == "" {
		return "", fmt.Errorf("--source is required (one of %v)", domain.Sources())
	}
	return domain.ParseSource(value)
}

func printResult(cmd *cobra.Command, ns domain.Namespace, res domain.IngestResult) {
	cmd.Printf("namespace:         %s\n", ns.ID)
	cmd.Printf("inserted:          %d\n", res.Inserted)
	cmd.Printf("skipped_duplicate: %d\n", res.SkippedDuplicate)
	cmd.Printf("skipped_invalid:   %d\n", res.SkippedInvalid)
}
