package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Rituraj200000/googlemapscraper/api/handler"
	"github.com/Rituraj200000/googlemapscraper/cache"
	"github.com/Rituraj200000/googlemapscraper/config"
	"github.com/Rituraj200000/googlemapscraper/engine"
	"github.com/Rituraj200000/googlemapscraper/enrich"
	"github.com/Rituraj200000/googlemapscraper/models"
	"github.com/Rituraj200000/googlemapscraper/scraper"
	"github.com/Rituraj200000/googlemapscraper/store"
	"github.com/Rituraj200000/googlemapscraper/webhook"
)

type enrichFlags struct {
	Input  string
	Output string
}

func newEnrichCmd(cfg *config.Config) *cobra.Command {
	f := &enrichFlags{}

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Visit each listing's website and collect e-mail addresses",
		Long: "Reads a records file, fetches the website of every listing that has one,\n" +
			"and appends the listing plus any e-mail addresses not seen before to the\n" +
			"output file.",
		RunE: func(c *cobra.Command, _ []string) error {
			if c.Flags().Changed("input") {
				cfg.Enrich.Input = f.Input
			} else {
				path, err := promptPath(bufio.NewReader(c.InOrStdin()), c.OutOrStdout(), cfg.Enrich.Input)
				if err != nil {
					return err
				}
				cfg.Enrich.Input = path
			}
			if c.Flags().Changed("output") {
				cfg.Enrich.Output = f.Output
			}
			return runEnrich(c, cfg)
		},
	}

	cmd.Flags().StringVarP(&f.Input, "input", "i", "gmaps_data.csv", "Records CSV file to enrich")
	cmd.Flags().StringVarP(&f.Output, "output", "o", "gmaps_data_with_emails.csv", "Enriched CSV file")

	return cmd
}

// newFetcher builds the website fetch stack: an HTTP engine, optionally
// escalating to the browser, behind a page cache.
func newFetcher(cfg *config.Config, browser *scraper.Browser) engine.Engine {
	engines := []engine.Engine{
		engine.NewHTTPEngine(engine.HTTPOptions{Timeout: cfg.Enrich.Timeout, Proxy: cfg.Browser.Proxy}),
	}
	if browser != nil {
		engines = append(engines, engine.NewRodEngine(browser.Render))
	}
	chain := engine.NewChain(engine.NewDomainMemory(time.Hour), engines...)
	slog.Info("website fetcher ready", "engines", chain.Name(), "cache_entries", cfg.Enrich.CacheEntries)
	return engine.NewCached(chain, cache.New[*engine.FetchResult](cfg.Enrich.CacheEntries, cfg.Enrich.CacheTTL))
}

func runEnrich(c *cobra.Command, cfg *config.Config) error {
	out := c.OutOrStdout()

	// ── 1. Read the input (nothing is written if this fails) ────────
	if _, err := os.Stat(cfg.Enrich.Input); err != nil {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "cannot read input "+cfg.Enrich.Input, err)
	}
	records, err := store.ReadAll(cfg.Enrich.Input)
	if err != nil {
		return err
	}
	withSite := 0
	for _, r := range records {
		if r.HasWebsite() {
			withSite++
		}
	}
	fmt.Fprintf(out, "Found %d entries with websites to process\n", withSite)

	// ── 2. Seed duplicates from a previous run and open the output ──
	seen, err := enrich.LoadSeenEmails(cfg.Enrich.Output)
	if err != nil {
		return err
	}
	done, err := enrich.LoadEnriched(cfg.Enrich.Output)
	if err != nil {
		return err
	}
	output, err := enrich.OpenOutput(cfg.Enrich.Output)
	if err != nil {
		return err
	}
	defer output.Close()

	// ── 3. Fetch stack ──────────────────────────────────────────────
	var browser *scraper.Browser
	if cfg.Enrich.BrowserFallback {
		browser, err = scraper.Launch(cfg.Browser)
		if err != nil {
			return err
		}
		defer browser.Close()
	}
	fetcher := newFetcher(cfg, browser)

	// ── 4. Optional status server ───────────────────────────────────
	ctx, cancel := context.WithCancel(c.Context())
	defer cancel()
	tracker := handler.NewTracker()
	startStatus(ctx, cfg.Status, tracker)

	// ── 5. Run ──────────────────────────────────────────────────────
	e := enrich.New(fetcher, seen, enrich.Options{
		Rate:          cfg.Enrich.Rate,
		Timeout:       cfg.Enrich.Timeout,
		FollowContact: cfg.Enrich.FollowContact,
		Enriched:      done,
		OnProgress:    tracker.Enrichment,
	})
	runID := uuid.NewString()
	slog.Info("enrichment starting", "run", runID, "input", cfg.Enrich.Input, "output", output.Path())
	sum, err := e.Run(ctx, records, output)
	if err != nil {
		return err
	}

	// ── 6. Report ───────────────────────────────────────────────────
	notify(cfg.Webhook, webhook.EventEnrichCompleted, runID, sum)
	fmt.Fprintf(out, "Enrichment finished in %s: %d processed, %d with e-mails, %d new addresses, %d failed\n",
		sum.Elapsed.Round(time.Second), sum.Processed, sum.WithEmails, sum.NewEmails, sum.Failed)
	fmt.Fprintf(out, "Results saved to %s (%d rows added)\n", output.Path(), output.Rows())
	return nil
}
