package engine

import (
	"context"
	"time"
)

// Engine loads a business website for email enrichment.
type Engine interface {
	// Name is "http" or "browser"; the chain remembers it per domain.
	Name() string
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest names a page to load. A zero Timeout uses the engine default.
type FetchRequest struct {
	URL     string
	Timeout time.Duration
}

// FetchResult is a loaded page. FinalURL is the address after redirects and
// is the base for resolving contact-page links.
type FetchResult struct {
	HTML       string
	FinalURL   string
	EngineName string
}
