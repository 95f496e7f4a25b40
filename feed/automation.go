// Package feed drives the incremental extraction of listings from an
// infinite-scroll map-search results feed.
//
// The browser is reached only through the narrow Page and Element
// capabilities below, so every piece of the scroll/extract pipeline can run
// against fakes.
package feed

import (
	"context"
	"errors"
	"time"

	"github.com/ysmood/gson"

	"github.com/Rituraj200000/googlemapscraper/models"
)

var (
	// ErrNotFound means a locator matched nothing.
	ErrNotFound error = models.NewScrapeError(models.ErrCodeNotFound, "element not found", nil)

	// ErrStale means the element was replaced between discovery and use.
	ErrStale error = models.NewScrapeError(models.ErrCodeStale, "stale element handle", nil)
)

// IsRecoverable reports whether err is one of the expected read failures
// (missing or stale element) that callers skip rather than surface.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrStale)
}

// Element is a handle to one rendered DOM node.
type Element interface {
	// Text returns the visible text of the element.
	Text(ctx context.Context) (string, error)

	// Attribute returns the named attribute; ok is false when it is absent.
	Attribute(ctx context.Context, name string) (value string, ok bool, err error)

	// Click clicks the element.
	Click(ctx context.Context) error

	// Find returns the first descendant matching locator.
	Find(ctx context.Context, locator string) (Element, error)
}

// Page is the automation capability the extractor needs from a browser tab.
// Implementations must map missing and stale nodes to ErrNotFound/ErrStale.
type Page interface {
	// FindAll returns every element matching locator, in document order.
	FindAll(ctx context.Context, locator string) ([]Element, error)

	// Find returns the first element matching locator without waiting.
	Find(ctx context.Context, locator string) (Element, error)

	// WaitFor waits up to timeout for an element matching locator.
	WaitFor(ctx context.Context, locator string, timeout time.Duration) (Element, error)

	// CurrentLocation returns the page's current URL.
	CurrentLocation(ctx context.Context) (string, error)

	// RunScript evaluates a JS function expression with args. Element
	// arguments are passed through as DOM nodes.
	RunScript(ctx context.Context, script string, args ...any) (gson.JSON, error)

	// Navigate loads url.
	Navigate(ctx context.Context, url string) error
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
