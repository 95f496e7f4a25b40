package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"

	"github.com/Rituraj200000/googlemapscraper/engine"
	"github.com/Rituraj200000/googlemapscraper/models"
)

// Render loads a business website in a fresh tab and returns its rendered
// HTML. It has the engine.RenderFunc signature.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Timeout guard   – hard deadline on the entire render
//  2. Open tab        – stealth + resource blocking installed before navigation
//  3. DEFER: cleanup  – close the tab even if the deadline has passed
//  4. Navigate        – triggers page load
//  5. Wait            – DOM stable
//  6. Extract         – page.HTML() + title + final URL + status
func (b *Browser) Render(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	timeout := req.Timeout
	if timeout <= 0 || timeout > b.cfg.RenderTimeout && b.cfg.RenderTimeout > 0 {
		timeout = b.cfg.RenderTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// ── 2. Open tab ───────────────────────────────────────────────────
	tab, router, err := b.newTab(renderBlocked, true)
	if err != nil {
		return nil, err
	}

	// ── 3. Cleanup uses the original tab, not the request context ─────
	defer closeTab(tab, router)

	p := tab.Context(ctx)

	// ── 4. Navigate ───────────────────────────────────────────────────
	if err := p.Navigate(req.URL); err != nil {
		return nil, categorizeError(err, "navigation to website failed")
	}

	// ── 5. Wait strategy ──────────────────────────────────────────────
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "url", req.URL, "error", err)
	}

	// ── 6. Extract ────────────────────────────────────────────────────
	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	return &engine.FetchResult{
		HTML:     rawHTML,
		FinalURL: finalURL,
	}, nil
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// categorizeError wraps raw errors into typed ScrapeErrors.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
