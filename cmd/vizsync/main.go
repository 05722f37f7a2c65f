// Command vizsync serves the linked hierarchy, timeline and map views as a
// terminal dashboard and renders them to SVG, PNG or graph JSON.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/vizsync/internal/datasource"
	"github.com/vanderheijden86/vizsync/pkg/config"
	"github.com/vanderheijden86/vizsync/pkg/debug"
	"github.com/vanderheijden86/vizsync/pkg/loader"
	"github.com/vanderheijden86/vizsync/pkg/version"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "vizsync",
	Short: "Linked hierarchy, timeline and map views over burden datasets",
	Long: `vizsync loads a hierarchical burden tree, a per-series timeline and a
geo marker table, and keeps every view in sync: zooming, scrubbing the year
or picking an entity updates all panels at once.

Examples:
  vizsync dashboard
  vizsync render sunburst --zoom World/Asia --out asia.png
  vizsync render timeline --year 2005 --out rates.svg
  vizsync graph regions > regions.json`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			debug.SetEnabled(true)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the vizsync version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $XDG_CONFIG_HOME/vizsync/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	debug.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

// resolvePaths picks one file per dataset: configured paths first, then the
// canonical and alias names found in the data directory.
func resolvePaths(cfg config.Config) (loader.Paths, []datasource.DataSource, error) {
	return datasource.Resolve(datasource.DiscoveryOptions{
		Dir:        cfg.Datasets.Dir,
		Configured: cfg.Datasets.Paths(),
		Logger:     func(msg string) { debug.Log("datasource: %s", msg) },
	})
}

// loadAll resolves and loads every dataset. A dataset that fails leaves its
// field nil and is reported in Bundle.Failures; only discovery errors abort.
func loadAll(ctx context.Context) (config.Config, loader.Paths, *loader.Bundle, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, loader.Paths{}, nil, err
	}
	paths, _, err := resolvePaths(cfg)
	if err != nil {
		return cfg, paths, nil, err
	}
	bundle, err := loader.LoadBundle(ctx, paths, cfg.Timeline.Series)
	if bundle == nil {
		return cfg, paths, nil, err
	}
	return cfg, paths, bundle, nil
}

// errMissing explains why a command-specific dataset is absent.
func errMissing(b *loader.Bundle, dataset string) error {
	for _, err := range b.Failures {
		var le *loader.LoadError
		if errors.As(err, &le) && le.Dataset == dataset {
			return err
		}
	}
	return fmt.Errorf("no %s dataset found (set datasets.%s in the config)", dataset, dataset)
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
