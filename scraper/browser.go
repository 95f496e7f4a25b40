// Package scraper drives a real Chromium through go-rod. It provides the
// feed.Page capability for the results feed and a render function for the
// enrichment browser engine.
package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/Rituraj200000/googlemapscraper/config"
	"github.com/Rituraj200000/googlemapscraper/models"
)

// Browser owns the Chromium process. A Browser serves one harvesting page
// and any number of sequential renders; it is not meant for parallel tabs.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      config.BrowserConfig
}

// Launch starts Chromium and connects to it.
func Launch(cfg config.BrowserConfig) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "TranslateUI")
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("lang"), "en-US")
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL, "headless", cfg.Headless)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	return &Browser{browser: browser, launcher: l, cfg: cfg}, nil
}

// newTab opens a blank tab with stealth and resource blocking installed.
// Both must be in place before the first navigation to take effect.
func (b *Browser) newTab(blocked []string, blockAds bool) (*rod.Page, *rod.HijackRouter, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open tab", err)
	}

	if b.cfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	if b.cfg.WindowWidth > 0 && b.cfg.WindowHeight > 0 {
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             b.cfg.WindowWidth,
			Height:            b.cfg.WindowHeight,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			slog.Debug("could not set viewport", "error", err)
		}
	}

	return page, setupHijack(page, blocked, blockAds), nil
}

// OpenPage opens the tab the results feed is harvested from.
func (b *Browser) OpenPage() (*Page, error) {
	tab, router, err := b.newTab(b.cfg.BlockedResourceTypes, false)
	if err != nil {
		return nil, err
	}
	return &Page{page: tab, router: router}, nil
}

// Close kills the browser process.
func (b *Browser) Close() {
	slog.Info("closing browser")
	if err := b.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	b.launcher.Kill()
	b.launcher.Cleanup()
}

// closeTab releases a tab with a fresh context so cleanup still works when
// the caller's context has already expired.
func closeTab(page *rod.Page, router *rod.HijackRouter) {
	if router != nil {
		_ = router.Stop()
	}
	if err := page.Context(context.Background()).Close(); err != nil {
		slog.Debug("tab close failed", "error", err)
	}
}
