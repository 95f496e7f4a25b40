package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Rituraj200000/googlemapscraper/engine"
	"github.com/Rituraj200000/googlemapscraper/models"
	"github.com/Rituraj200000/googlemapscraper/store"
)

// Options configures an Enricher.
type Options struct {
	// Rate is the number of fetches per second; <= 0 disables pacing.
	Rate float64
	// Timeout bounds one fetch.
	Timeout time.Duration
	// FollowContact fetches a linked contact page when the homepage
	// yields no new address.
	FollowContact bool
	// Enriched holds the keys of records already in the output from an
	// earlier run; they are skipped. May be nil.
	Enriched *store.SeenSet
	// OnProgress, when set, is called after every record.
	OnProgress func(Progress)
}

// Progress is a point-in-time snapshot of an enrichment run.
type Progress struct {
	Total      int    `json:"total"`
	Processed  int    `json:"processed"`
	Skipped    int    `json:"skipped"`
	WithEmails int    `json:"with_emails"`
	Failed     int    `json:"failed"`
	Current    string `json:"current"`
}

// Summary is the tally of a finished enrichment run.
type Summary struct {
	Total      int           `json:"total"`
	Processed  int           `json:"processed"`
	Skipped    int           `json:"skipped"`
	WithEmails int           `json:"with_emails"`
	Failed     int           `json:"failed"`
	NewEmails  int           `json:"new_emails"`
	Elapsed    time.Duration `json:"-"`
}

// Enricher visits record websites one at a time, in input order, and
// collects addresses never seen before in this run or a previous one.
type Enricher struct {
	fetcher engine.Engine
	limiter *rate.Limiter
	seen    *EmailSet
	opts    Options
}

// New creates an Enricher. seen may be nil for a fresh run.
func New(fetcher engine.Engine, seen *EmailSet, opts Options) *Enricher {
	if seen == nil {
		seen = NewEmailSet()
	}
	if opts.Enriched == nil {
		opts.Enriched = store.NewSeenSet()
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	return &Enricher{
		fetcher: fetcher,
		limiter: rate.NewLimiter(limit, 1),
		seen:    seen,
		opts:    opts,
	}
}

// Run enriches records into out. Records without a website, and records
// already in the output (Options.Enriched), are skipped and not written. A fetch failure is logged and the record is written with no
// emails. Cancellation stops the run between records without error.
func (e *Enricher) Run(ctx context.Context, records []models.Record, out *Output) (Summary, error) {
	start := time.Now()
	sum := Summary{Total: len(records)}
	known := e.seen.Len()

	for _, rec := range records {
		if ctx.Err() != nil {
			slog.Info("enrichment interrupted", "processed", sum.Processed)
			break
		}
		if !rec.HasWebsite() {
			sum.Skipped++
			continue
		}
		if e.opts.Enriched.Has(rec.Key()) {
			slog.Debug("already enriched, skipping", "name", rec.Name)
			sum.Skipped++
			continue
		}

		slog.Info("processing", "name", rec.Name, "url", rec.Website)
		emails, err := e.Enrich(ctx, rec.Website)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			sum.Failed++
			slog.Error("could not fetch website", "name", rec.Name, "url", rec.Website, "error", err)
		}

		if err := out.Write(rec, emails); err != nil {
			sum.Failed++
			slog.Error("could not save row", "name", rec.Name, "error", err)
			continue
		}
		e.opts.Enriched.Add(rec.Key())
		sum.Processed++
		if len(emails) > 0 {
			sum.WithEmails++
		}
		slog.Info("found unique emails", "name", rec.Name, "count", len(emails))

		if e.opts.OnProgress != nil {
			e.opts.OnProgress(Progress{
				Total:      sum.Total,
				Processed:  sum.Processed,
				Skipped:    sum.Skipped,
				WithEmails: sum.WithEmails,
				Failed:     sum.Failed,
				Current:    rec.Name,
			})
		}
	}

	sum.NewEmails = e.seen.Len() - known
	sum.Elapsed = time.Since(start)
	return sum, nil
}

// Enrich fetches website and returns the addresses on it not seen before.
func (e *Enricher) Enrich(ctx context.Context, website string) ([]string, error) {
	target := normalizeWebsite(website)
	page, err := e.fetch(ctx, target)
	if err != nil {
		return nil, err
	}

	found := e.seen.Unique(ExtractEmails(page.HTML))
	if len(found) > 0 || !e.opts.FollowContact {
		return found, nil
	}

	base := page.FinalURL
	if base == "" {
		base = target
	}
	link, ok := FindContactLink(page.HTML, base)
	if !ok {
		return nil, nil
	}
	slog.Debug("following contact page", "url", link)
	contact, err := e.fetch(ctx, link)
	if err != nil {
		slog.Debug("could not fetch contact page", "url", link, "error", err)
		return nil, nil
	}
	return e.seen.Unique(ExtractEmails(contact.HTML)), nil
}

func (e *Enricher) fetch(ctx context.Context, url string) (*engine.FetchResult, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	res, err := e.fetcher.Fetch(ctx, &engine.FetchRequest{URL: url, Timeout: e.opts.Timeout})
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeFetch, fmt.Sprintf("fetch %s", url), err)
	}
	return res, nil
}

// normalizeWebsite adds a scheme to bare hosts such as "example.com".
func normalizeWebsite(website string) string {
	w := strings.TrimSpace(website)
	if !strings.Contains(w, "://") {
		w = "https://" + w
	}
	return w
}
