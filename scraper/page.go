package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/Rituraj200000/googlemapscraper/feed"
)

// Page is a browser tab exposed through the feed.Page capability.
type Page struct {
	page   *rod.Page
	router *rod.HijackRouter
}

var _ feed.Page = (*Page)(nil)

// Close stops request interception and closes the tab.
func (p *Page) Close() {
	closeTab(p.page, p.router)
}

func (p *Page) FindAll(ctx context.Context, locator string) ([]feed.Element, error) {
	els, err := p.page.Context(ctx).Elements(locator)
	if err != nil {
		return nil, mapErr(err, locator)
	}
	out := make([]feed.Element, len(els))
	for i, el := range els {
		out[i] = &element{el: el}
	}
	return out, nil
}

func (p *Page) Find(ctx context.Context, locator string) (feed.Element, error) {
	has, el, err := p.page.Context(ctx).Has(locator)
	if err != nil {
		return nil, mapErr(err, locator)
	}
	if !has {
		return nil, fmt.Errorf("%w: %s", feed.ErrNotFound, locator)
	}
	return &element{el: el}, nil
}

func (p *Page) WaitFor(ctx context.Context, locator string, timeout time.Duration) (feed.Element, error) {
	tp := p.page.Context(ctx).Timeout(timeout)
	el, err := tp.Element(locator)
	tp.CancelTimeout()
	if err != nil {
		return nil, mapErr(err, locator)
	}
	// Detach the element from the temporary timeout context.
	return &element{el: el.Context(ctx)}, nil
}

func (p *Page) CurrentLocation(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("scraper: page info: %w", err)
	}
	return info.URL, nil
}

// RunScript evaluates a JS function expression. feed.Element arguments are
// passed to the page as the DOM nodes they wrap.
func (p *Page) RunScript(ctx context.Context, script string, args ...any) (gson.JSON, error) {
	jsArgs := make([]any, len(args))
	for i, a := range args {
		if el, ok := a.(*element); ok {
			jsArgs[i] = el.el.Object
			continue
		}
		jsArgs[i] = a
	}
	res, err := p.page.Context(ctx).Evaluate(rod.Eval(script, jsArgs...))
	if err != nil {
		return gson.New(nil), mapErr(err, "script")
	}
	return res.Value, nil
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return categorizeError(err, "navigation to results page failed")
	}
	if err := pg.WaitLoad(); err != nil {
		return categorizeError(err, "results page did not load")
	}
	return nil
}

// element wraps a rod element as a feed.Element.
type element struct {
	el *rod.Element
}

func (e *element) Text(ctx context.Context) (string, error) {
	t, err := e.el.Context(ctx).Text()
	if err != nil {
		return "", mapErr(err, "text")
	}
	return t, nil
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", false, mapErr(err, name)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *element) Click(ctx context.Context) error {
	if err := e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return mapErr(err, "click")
	}
	return nil
}

func (e *element) Find(ctx context.Context, locator string) (feed.Element, error) {
	els, err := e.el.Context(ctx).Elements(locator)
	if err != nil {
		return nil, mapErr(err, locator)
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", feed.ErrNotFound, locator)
	}
	return &element{el: els.First()}, nil
}

// staleMessages are CDP errors raised when a node handle outlived its node.
var staleMessages = []string{
	"Node with given id does not exist",
	"Could not find node with given id",
	"Could not find object with given id",
	"Cannot find context with specified id",
	"Execution context was destroyed",
	"No node found",
}

// mapErr translates rod and CDP failures into the feed sentinels so the
// extraction logic can tell expected misses from real faults.
func mapErr(err error, what string) error {
	var notFound *rod.ElementNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", feed.ErrNotFound, what)
	}
	var cdpErr *cdp.Error
	if errors.As(err, &cdpErr) {
		for _, m := range staleMessages {
			if strings.Contains(cdpErr.Message, m) {
				return fmt.Errorf("%w: %s: %s", feed.ErrStale, what, cdpErr.Message)
			}
		}
	}
	return fmt.Errorf("scraper: %s: %w", what, err)
}
