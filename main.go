package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gamescraper/config"
	"gamescraper/logging"
	"gamescraper/models"
	_ "gamescraper/plugins/gamefaqs"
	"gamescraper/search"
)

// app holds the global flags and what PersistentPreRunE builds from them.
type app struct {
	configPath  string
	scraperName string
	verbose     bool
	debugDump   bool
	outputDir   string
	cacheDir    string
	backend     string

	settings *models.Settings
	logger   *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{}
	if err := a.rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gamescraper",
		Short:         "Scrape game metadata and artwork from GameFAQs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default: <user config dir>/gamescraper/config.*)")
	flags.StringVar(&a.scraperName, "scraper", "gamefaqs", "scraper to use")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log every scraper step")
	flags.BoolVar(&a.debugDump, "debug-dump", false, "save fetched pages to the output directory")
	flags.StringVar(&a.outputDir, "output", "", "directory for debug dumps")
	flags.StringVar(&a.cacheDir, "cache-dir", "", "disk cache directory")
	flags.StringVar(&a.backend, "cache-backend", "", "disk cache backend (json or sqlite)")

	root.AddCommand(
		a.searchCmd(),
		a.metadataCmd(),
		a.assetsCmd(),
		a.scrapeCmd(),
		a.cacheCmd(),
		a.platformsCmd(),
	)
	return root
}

// setup loads settings, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	settings, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		settings.Verbose = a.verbose
	}
	if flags.Changed("debug-dump") {
		settings.DebugDump = a.debugDump
	}
	if flags.Changed("output") {
		settings.OutputDir = a.outputDir
	}
	if flags.Changed("cache-dir") {
		// keep the dump dir next to the cache unless it was set explicitly
		if settings.OutputDir == filepath.Join(settings.CacheDir, "output") {
			settings.OutputDir = ""
		}
		settings.CacheDir = a.cacheDir
	}
	if flags.Changed("cache-backend") {
		settings.CacheBackend = a.backend
	}
	if err := config.Normalize(settings); err != nil {
		return err
	}
	if err := config.Validate(settings); err != nil {
		return err
	}

	logger, err := logging.New(settings)
	if err != nil {
		return err
	}
	a.settings = settings
	a.logger = logger
	return nil
}

// openScraper builds the configured scraper. Callers must Close it.
func (a *app) openScraper() (search.Scraper, error) {
	scraper, err := search.New(a.scraperName, a.settings, a.logger)
	if err != nil {
		return nil, err
	}
	scraper.SetVerboseMode(a.settings.Verbose)
	scraper.SetDebugFileDump(a.settings.DebugDump, a.settings.OutputDir)
	return scraper, nil
}

func (a *app) closeScraper(scraper search.Scraper) {
	if err := scraper.Close(); err != nil {
		a.logger.Warn("failed to close scraper", zap.Error(err))
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// parseKinds converts --kind values, defaulting to every kind the scraper
// supports.
func parseKinds(values []string, scraper search.Scraper) ([]models.AssetKind, error) {
	if len(values) == 0 {
		return scraper.SupportedAssets(), nil
	}
	var kinds []models.AssetKind
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			kind, err := models.ParseAssetKind(part)
			if err != nil {
				return nil, err
			}
			kinds = append(kinds, kind)
		}
	}
	return kinds, nil
}
