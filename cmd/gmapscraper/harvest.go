package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rituraj200000/googlemapscraper/api/handler"
	"github.com/Rituraj200000/googlemapscraper/config"
	"github.com/Rituraj200000/googlemapscraper/feed"
	"github.com/Rituraj200000/googlemapscraper/scraper"
	"github.com/Rituraj200000/googlemapscraper/store"
	"github.com/Rituraj200000/googlemapscraper/webhook"
)

type harvestFlags struct {
	Query    string
	URL      string
	Records  string
	Headless bool
}

func newHarvestCmd(cfg *config.Config) *cobra.Command {
	f := &harvestFlags{}

	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Scroll a results feed and save every listing to CSV",
		Long: "Opens a map-search results page, scrolls its feed until no new listings load,\n" +
			"and appends each new listing to the records file as soon as it is read.\n" +
			"Listings already in the file are skipped, so a run can be resumed.",
		RunE: func(c *cobra.Command, _ []string) error {
			if c.Flags().Changed("records") {
				cfg.Store.RecordsPath = f.Records
			}
			if c.Flags().Changed("headless") {
				cfg.Browser.Headless = f.Headless
			}
			return runHarvest(c, cfg, f)
		},
	}

	cmd.Flags().StringVarP(&f.Query, "query", "q", "", "Search query, e.g. \"restaurants in New York\"")
	cmd.Flags().StringVarP(&f.URL, "url", "u", "", "Results page URL to harvest")
	cmd.Flags().StringVarP(&f.Records, "records", "r", "gmaps_data.csv", "Records CSV file")
	cmd.Flags().BoolVar(&f.Headless, "headless", false, "Run the browser without a window")
	cmd.MarkFlagsMutuallyExclusive("query", "url")

	return cmd
}

// harvestTarget resolves the results URL from flags or, failing that, from
// the interactive prompt.
func harvestTarget(c *cobra.Command, f *harvestFlags) (string, error) {
	switch {
	case f.URL != "":
		return f.URL, nil
	case f.Query != "":
		return feed.SearchURL(f.Query), nil
	default:
		return promptTarget(bufio.NewReader(c.InOrStdin()), c.OutOrStdout())
	}
}

// sessionOptions maps configuration onto feed session options.
func sessionOptions(cfg *config.Config, startURL string) feed.Options {
	opts := feed.DefaultOptions()
	opts.StartURL = startURL
	opts.InitialWait = cfg.Scroll.InitialWait
	opts.Card = feed.CardTiming{
		DetailPause: cfg.Card.DetailPause,
		BackPause:   cfg.Card.BackPause,
		DetailWait:  cfg.Card.DetailWait,
	}
	opts.Scroll = feed.ScrollConfig{
		Increment:    cfg.Scroll.Increment,
		Pause:        cfg.Scroll.Pause,
		StallWait:    cfg.Scroll.StallWait,
		StallLimit:   cfg.Scroll.StallLimit,
		MaxRetries:   cfg.Scroll.MaxRetries,
		ErrorBackoff: cfg.Scroll.ErrorBackoff,
		FeedWait:     cfg.Scroll.FeedWait,
	}
	return opts
}

func runHarvest(c *cobra.Command, cfg *config.Config, f *harvestFlags) error {
	out := c.OutOrStdout()

	// ── 1. Resolve the results page ─────────────────────────────────
	target, err := harvestTarget(c, f)
	if errors.Is(err, errInvalidChoice) {
		fmt.Fprintln(out, "Invalid choice. Exiting.")
		return nil
	}
	if err != nil {
		return err
	}

	// ── 2. Open the record store (before the browser, so a bad path
	//       fails fast) ───────────────────────────────────────────────
	rec, err := store.Open(cfg.Store.RecordsPath)
	if err != nil {
		return err
	}
	defer rec.Close()

	// ── 3. Launch the browser ───────────────────────────────────────
	browser, err := scraper.Launch(cfg.Browser)
	if err != nil {
		return err
	}
	defer browser.Close()

	page, err := browser.OpenPage()
	if err != nil {
		return err
	}
	defer page.Close()

	// ── 4. Optional status server ───────────────────────────────────
	ctx, cancel := context.WithCancel(c.Context())
	defer cancel()
	tracker := handler.NewTracker()
	startStatus(ctx, cfg.Status, tracker)

	// ── 5. Run the session ──────────────────────────────────────────
	opts := sessionOptions(cfg, target)
	opts.OnProgress = tracker.Harvest
	session := feed.NewSession(page, rec, opts)

	slog.Info("harvest starting", "session", session.ID(), "url", target, "records", rec.Path())
	res, err := session.Run(ctx)
	if err != nil {
		return err
	}
	if res.Reason == feed.StopInterrupted {
		fmt.Fprintln(out, "\nInterrupted. Records saved so far are kept.")
	}

	// ── 6. Report ───────────────────────────────────────────────────
	notify(cfg.Webhook, webhook.EventHarvestCompleted, res.ID, res)
	fmt.Fprintf(out, "Harvest finished (%s) in %s: %d new, %d known, %d processed, %d skipped, %d failed\n",
		res.Reason, res.Elapsed.Round(time.Second), res.Accepted, res.Seen, res.Processed, res.Skipped, res.Failed)
	fmt.Fprintf(out, "Records saved to %s\n", rec.Path())
	return nil
}
