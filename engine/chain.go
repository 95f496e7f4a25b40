package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Chain tries its engines in order, cheapest first. It moves on to the next
// engine when one fails or when an early engine returns a page that looks
// like a script shell. Engines run one at a time; the enrichment pass is
// sequential and paced, so there is nothing to race.
type Chain struct {
	engines []Engine
	memory  *DomainMemory
}

// NewChain creates a Chain. memory may be nil.
func NewChain(memory *DomainMemory, engines ...Engine) *Chain {
	return &Chain{engines: engines, memory: memory}
}

func (c *Chain) Name() string {
	names := make([]string, len(c.engines))
	for i, e := range c.engines {
		names[i] = e.Name()
	}
	return strings.Join(names, ">")
}

// Fetch returns the first acceptable result. When every engine after the
// first returns a script shell or fails, the best shell seen is returned
// rather than nothing.
func (c *Chain) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if len(c.engines) == 0 {
		return nil, fmt.Errorf("chain: no engines configured")
	}
	domain := extractDomain(req.URL)
	engines := c.startFrom(domain)

	var (
		lastErr error
		shell   *FetchResult
	)
	for i, eng := range engines {
		result, err := eng.Fetch(ctx, req)
		if err != nil {
			slog.Debug("engine failed", "engine", eng.Name(), "url", req.URL, "error", err)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		last := i == len(engines)-1
		if !last && NeedsBrowser(result.HTML) {
			slog.Debug("page looks script-rendered, escalating", "engine", eng.Name(), "url", req.URL)
			if shell == nil {
				shell = result
			}
			continue
		}

		if c.memory != nil {
			c.memory.Set(domain, result.EngineName)
		}
		return result, nil
	}

	if shell != nil {
		return shell, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("chain: all engines failed for %s", req.URL)
	}
	return nil, lastErr
}

// startFrom skips the engines cheaper than the one remembered for domain.
func (c *Chain) startFrom(domain string) []Engine {
	if c.memory == nil {
		return c.engines
	}
	remembered := c.memory.Get(domain)
	if remembered == "" {
		return c.engines
	}
	for i, eng := range c.engines {
		if eng.Name() == remembered {
			slog.Debug("domain memory hit", "domain", domain, "engine", remembered)
			return c.engines[i:]
		}
	}
	return c.engines
}

// extractDomain parses the hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.ToLower(u.Hostname())
}
