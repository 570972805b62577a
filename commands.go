package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gamescraper/game"
	"gamescraper/models"
	"gamescraper/platforms"
	"gamescraper/search"
	"gamescraper/storage"
)

// lookupFlags are shared by the commands that work on a single title.
type lookupFlags struct {
	platform  string
	file      string
	candidate int
}

func (lf *lookupFlags) register(cmd *cobra.Command, withCandidate bool) {
	cmd.Flags().StringVarP(&lf.platform, "platform", "p", "", "platform name or alias (required)")
	cmd.Flags().StringVarP(&lf.file, "file", "f", "", "ROM file the title belongs to; its name keys the cache")
	_ = cmd.MarkFlagRequired("platform")
	if withCandidate {
		cmd.Flags().IntVarP(&lf.candidate, "candidate", "c", 0, "index of the candidate to use")
	}
}

func (lf *lookupFlags) subject(title string) *models.ROM {
	return models.NewROM(title, lf.file, lf.platform)
}

// findCandidates searches rom on its platform and turns a failed status
// into an error.
func findCandidates(ctx context.Context, scraper search.Scraper, rom *models.ROM) ([]search.Candidate, error) {
	status := models.NewStatus("")
	candidates := scraper.GetCandidates(ctx, rom.Identifier(), rom, rom.Platform, status)
	if err := status.Err(); err != nil {
		return nil, err
	}
	return candidates, nil
}

// pinCandidate searches rom and selects the candidate at index.
func pinCandidate(ctx context.Context, scraper search.Scraper, rom *models.ROM, index int) (search.Candidate, error) {
	candidates, err := findCandidates(ctx, scraper, rom)
	if err != nil {
		return search.Candidate{}, err
	}
	if len(candidates) == 0 {
		return search.Candidate{}, fmt.Errorf("no candidates found for %q on %s", rom.Identifier(), rom.Platform)
	}
	if index < 0 || index >= len(candidates) {
		return search.Candidate{}, fmt.Errorf("candidate %d out of range (found %d)", index, len(candidates))
	}
	c := candidates[index]
	scraper.SetCandidate(search.CacheName(rom), rom.Platform, c)
	return c, nil
}

func candidateTable(candidates []search.Candidate) table.Writer {
	t := newTable()
	t.AppendHeader(table.Row{"#", "Title", "Platform", "Score", "Order", "ID"})
	for i, c := range candidates {
		t.AppendRow(table.Row{i, c.DisplayName, c.ScraperPlatform, fmt.Sprintf("%.1f%%", c.Score*100), c.Order, c.ID})
	}
	return t
}

func (a *app) searchCmd() *cobra.Command {
	var (
		lf          lookupFlags
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "search <title>",
		Short: "List the GameFAQs candidates for a title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scraper, err := a.openScraper()
			if err != nil {
				return err
			}
			defer a.closeScraper(scraper)

			rom := lf.subject(args[0])
			candidates, err := findCandidates(cmd.Context(), scraper, rom)
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				fmt.Printf("No matches found for '%s' on %s.\n", rom.Identifier(), rom.Platform)
				return nil
			}
			candidateTable(candidates).Render()

			if !interactive {
				return nil
			}
			index, err := chooseCandidate(os.Stdin, os.Stdout, candidates)
			if err != nil {
				return err
			}
			if index < 0 {
				return nil
			}
			scraper.SetCandidate(search.CacheName(rom), rom.Platform, candidates[index])
			fmt.Printf("Selected %s\n", candidates[index])
			return scraper.FlushDiskCache()
		},
	}
	lf.register(cmd, false)
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "ask which candidate to remember for this title")
	return cmd
}

func (a *app) metadataCmd() *cobra.Command {
	var lf lookupFlags
	cmd := &cobra.Command{
		Use:   "metadata <title>",
		Short: "Show the metadata of a title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scraper, err := a.openScraper()
			if err != nil {
				return err
			}
			defer a.closeScraper(scraper)

			c, err := pinCandidate(cmd.Context(), scraper, lf.subject(args[0]), lf.candidate)
			if err != nil {
				return err
			}
			status := models.NewStatus("")
			md := scraper.GetMetadata(cmd.Context(), status)
			if err := status.Err(); err != nil {
				return err
			}

			t := newTable()
			t.SetTitle(c.String())
			t.AppendRows([]table.Row{
				{"Title", md.Title},
				{"Year", md.Year},
				{"Genre", md.Genre},
				{"Developer", md.Developer},
				{"Players", md.NPlayers},
				{"Online players", md.NPlayersOnline},
				{"ESRB", md.ESRB},
				{"Rating", md.Rating},
				{"Tags", strings.Join(md.Tags, ", ")},
				{"URL", c.URL},
			})
			t.Render()
			if md.Plot != "" {
				fmt.Printf("\n%s\n", md.Plot)
			}
			return nil
		},
	}
	lf.register(cmd, true)
	return cmd
}

func (a *app) assetsCmd() *cobra.Command {
	var (
		lf       lookupFlags
		kinds    []string
		download string
	)
	cmd := &cobra.Command{
		Use:   "assets <title>",
		Short: "List, and optionally download, the artwork of a title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scraper, err := a.openScraper()
			if err != nil {
				return err
			}
			defer a.closeScraper(scraper)

			wanted, err := parseKinds(kinds, scraper)
			if err != nil {
				return err
			}
			rom := lf.subject(args[0])
			if download != "" {
				for _, kind := range wanted {
					rom.AssetPaths[kind] = filepath.Join(download, string(kind))
				}
			}
			if _, err := pinCandidate(cmd.Context(), scraper, rom, lf.candidate); err != nil {
				return err
			}

			ctx := cmd.Context()
			t := newTable()
			t.AppendHeader(table.Row{"Kind", "Name", "Region", "URL", "File"})
			for _, kind := range wanted {
				status := models.NewStatus("")
				assets := scraper.GetAssets(ctx, kind, status)
				if err := status.Err(); err != nil {
					return err
				}
				for i, asset := range assets {
					url, _ := scraper.ResolveAssetURL(ctx, asset, status)
					if !status.OK {
						url = "-"
						status.Reset("")
					}
					file := ""
					if download != "" && i == 0 {
						file = scraper.DownloadAsset(ctx, asset, rom, status)
						if err := status.Err(); err != nil {
							a.logger.Warn("download failed", zap.String("kind", string(kind)), zap.Error(err))
							file = "failed: " + status.Msg
							status.Reset("")
						}
					}
					t.AppendRow(table.Row{kind.Name(), asset.DisplayName, asset.Region, url, file})
				}
			}
			if t.Length() == 0 {
				fmt.Println("No assets found.")
				return nil
			}
			t.Render()
			return nil
		},
	}
	lf.register(cmd, true)
	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", nil, "asset kinds to list (default: all supported)")
	cmd.Flags().StringVarP(&download, "download", "d", "", "download the first asset of each kind to DIR/<kind>")
	return cmd
}

func (a *app) scrapeCmd() *cobra.Command {
	var (
		platform string
		kinds    []string
		download string
	)
	cmd := &cobra.Command{
		Use:   "scrape <rom-dir>",
		Short: "Scan a ROM folder and scrape every ROM in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := platforms.Resolve(platform); err != nil {
				return err
			}
			scraper, err := a.openScraper()
			if err != nil {
				return err
			}
			defer a.closeScraper(scraper)

			wanted, err := parseKinds(kinds, scraper)
			if err != nil {
				return err
			}
			scanner := game.NewScanner(a.settings.ROMExtensions)
			scanner.SetAssetRoot(download)
			roms, err := scanner.ScanFolder(args[0], platform)
			if err != nil {
				return err
			}
			if len(roms) == 0 {
				fmt.Println("No ROMs found in the folder.")
				return nil
			}
			a.logger.Info("scanned folder", zap.String("dir", args[0]), zap.Int("roms", len(roms)))

			manager := search.NewManager(scraper, a.logger, search.WithDownload(download != ""))
			t := newTable()
			t.AppendHeader(table.Row{"ROM", "Match", "Year", "Assets", "Cached", "Status"})
			var scraped, failed int
			for _, rom := range roms {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				status := models.NewStatus("")
				result := manager.Scrape(cmd.Context(), rom, wanted, status)
				match, year := "-", ""
				if result.Candidate != nil {
					match = result.Candidate.DisplayName
					scraped++
				}
				if result.Metadata != nil {
					year = result.Metadata.Year
				}
				if !status.OK {
					failed++
				}
				t.AppendRow(table.Row{rom.FileBase(), match, year, assetSummary(result), result.FromCache, status.Msg})
			}
			t.AppendFooter(table.Row{fmt.Sprintf("%d ROMs", len(roms)), fmt.Sprintf("%d matched", scraped), "", "", "", fmt.Sprintf("%d failed", failed)})
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "platform of the ROMs (required)")
	_ = cmd.MarkFlagRequired("platform")
	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", nil, "asset kinds to look up (default: all supported)")
	cmd.Flags().StringVarP(&download, "download", "d", "", "download the first asset of each kind to DIR/<kind>")
	return cmd
}

func assetSummary(result *search.Result) string {
	var parts []string
	for _, kind := range models.ROMAssetKinds {
		n := len(result.Assets[kind])
		if n == 0 {
			continue
		}
		part := fmt.Sprintf("%s:%d", kind, n)
		if _, ok := result.Downloaded[kind]; ok {
			part += "*"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " ")
}

func (a *app) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the disk cache",
	}

	var lf lookupFlags
	check := &cobra.Command{
		Use:   "check <title>",
		Short: "Report whether candidates for a title are cached",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scraper, err := a.openScraper()
			if err != nil {
				return err
			}
			defer a.closeScraper(scraper)

			rom := lf.subject(args[0])
			if scraper.CheckCandidatesCache(search.CacheName(rom), rom.Platform) {
				fmt.Printf("'%s' on %s is cached.\n", search.CacheName(rom), rom.Platform)
			} else {
				fmt.Printf("'%s' on %s is not cached.\n", search.CacheName(rom), rom.Platform)
			}
			return nil
		},
	}
	lf.register(check, false)

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete every cached entry of the scraper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, closeCache, err := a.openCache()
			if err != nil {
				return err
			}
			defer closeCache()
			if err := cache.Purge(); err != nil {
				return err
			}
			fmt.Printf("Purged the %s cache in %s\n", cache.Scraper(), a.settings.CacheDir)
			return nil
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show the number of cached entries per bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, closeCache, err := a.openCache()
			if err != nil {
				return err
			}
			defer closeCache()
			buckets, err := cache.Stats()
			if err != nil {
				return err
			}
			t := newTable()
			t.SetTitle(fmt.Sprintf("%s (%s, %s)", cache.Scraper(), a.settings.CacheBackend, a.settings.CacheDir))
			t.AppendHeader(table.Row{"Bucket", "Entries", "Expired"})
			for _, b := range buckets {
				t.AppendRow(table.Row{b.Bucket, b.Entries, b.Expired})
			}
			t.Render()
			return nil
		},
	}

	cmd.AddCommand(check, purge, stats)
	return cmd
}

// openCache opens the disk cache of the configured scraper without
// building the scraper itself.
func (a *app) openCache() (*storage.Cache, func(), error) {
	if !isRegistered(a.scraperName) {
		return nil, nil, fmt.Errorf("%w: %s", search.ErrUnknownScraper, a.scraperName)
	}
	backend, err := storage.NewBackend(a.settings.CacheBackend, a.settings.CacheDir)
	if err != nil {
		return nil, nil, err
	}
	cache := storage.NewCache(a.scraperName, a.settings.CacheDir, backend, a.settings.CacheMaxAge, a.logger)
	closeCache := func() {
		if err := errors.Join(cache.Flush(), backend.Close()); err != nil {
			a.logger.Warn("failed to close cache", zap.Error(err))
		}
	}
	return cache, closeCache, nil
}

func isRegistered(name string) bool {
	for _, n := range search.Plugins() {
		if n == name {
			return true
		}
	}
	return false
}

func (a *app) platformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List the supported platforms and their aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := newTable()
			t.AppendHeader(table.Row{"Platform", "Short", "Category", "Aliases", "GameFAQs"})
			for _, p := range platforms.All() {
				t.AppendRow(table.Row{p.Name, p.ShortName, p.Category, strings.Join(p.Aliases, ", "), p.GameFAQsSlug})
			}
			t.Render()
			return nil
		},
	}
}
