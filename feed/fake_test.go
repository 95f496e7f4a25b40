package feed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ysmood/gson"
)

// fakeElement is a scripted DOM node.
type fakeElement struct {
	text     string
	textErr  error
	attrs    map[string]string
	children map[string]*fakeElement
	childErr map[string]error
	onClick  func() error
	clicks   int
}

func (e *fakeElement) Text(context.Context) (string, error) {
	return e.text, e.textErr
}

func (e *fakeElement) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := e.attrs[name]
	return v, ok, nil
}

func (e *fakeElement) Click(context.Context) error {
	e.clicks++
	if e.onClick != nil {
		return e.onClick()
	}
	return nil
}

func (e *fakeElement) Find(_ context.Context, locator string) (Element, error) {
	if err, ok := e.childErr[locator]; ok {
		return nil, err
	}
	if c, ok := e.children[locator]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

type place struct {
	name, addr      string
	short           string // card address when it differs from addr
	rating, reviews string
	phone, website  string
	location        string
}

// fakePage renders cards in batches: every scroll reveals the next batch and
// grows the feed height by 1000px.
type fakePage struct {
	loc     Locators
	batches [][]*place

	rendered []*fakeElement
	revealed int
	height   int

	feedMissing bool
	backFails   int
	detail      *place
	location    string

	onScroll   func()
	onHeight   func(read int)
	onNavigate func() error
	scrolls    int
	heights    int
	navigated  []string
}

func newFakePage(batches ...[]*place) *fakePage {
	p := &fakePage{loc: DefaultLocators(), batches: batches}
	p.reveal()
	return p
}

func (p *fakePage) reveal() {
	if p.revealed >= len(p.batches) {
		return
	}
	for _, pl := range p.batches[p.revealed] {
		p.rendered = append(p.rendered, p.card(pl))
	}
	p.revealed++
	p.height += 1000
}

func (p *fakePage) card(pl *place) *fakeElement {
	cardAddr := pl.addr
	if pl.short != "" {
		cardAddr = pl.short
	}
	children := map[string]*fakeElement{
		p.loc.Name:    {text: pl.name},
		p.loc.Address: {text: cardAddr},
	}
	if pl.rating != "" {
		children[p.loc.Rating] = &fakeElement{text: pl.rating}
		children[p.loc.Reviews] = &fakeElement{text: pl.reviews}
	}
	return &fakeElement{
		children: children,
		onClick: func() error {
			p.detail = pl
			p.location = pl.location
			return nil
		},
	}
}

func (p *fakePage) FindAll(_ context.Context, locator string) ([]Element, error) {
	if locator != p.loc.Card {
		return nil, nil
	}
	out := make([]Element, len(p.rendered))
	for i, c := range p.rendered {
		out[i] = c
	}
	return out, nil
}

func (p *fakePage) Find(_ context.Context, locator string) (Element, error) {
	switch locator {
	case p.loc.Feed:
		if p.feedMissing {
			return nil, ErrNotFound
		}
		return &fakeElement{}, nil
	case p.loc.Back:
		if p.detail == nil {
			return nil, ErrNotFound
		}
		if p.backFails > 0 {
			p.backFails--
			return nil, ErrStale
		}
		return &fakeElement{onClick: func() error {
			p.detail = nil
			return nil
		}}, nil
	}

	if p.detail == nil {
		return nil, ErrNotFound
	}
	var text string
	attrs := map[string]string{}
	switch locator {
	case p.loc.DetailAddress:
		text = p.detail.addr
	case p.loc.DetailPhone:
		text = p.detail.phone
	case p.loc.DetailWebsite:
		if p.detail.website != "" {
			attrs["href"] = p.detail.website
		}
		text = "Website"
	}
	if text == "" {
		return nil, ErrNotFound
	}
	return &fakeElement{text: text, attrs: attrs}, nil
}

func (p *fakePage) WaitFor(ctx context.Context, locator string, _ time.Duration) (Element, error) {
	return p.Find(ctx, locator)
}

func (p *fakePage) CurrentLocation(context.Context) (string, error) {
	return p.location, nil
}

func (p *fakePage) RunScript(_ context.Context, script string, _ ...any) (gson.JSON, error) {
	switch {
	case strings.Contains(script, "scrollTop"):
		p.scrolls++
		if p.onScroll != nil {
			p.onScroll()
		}
		p.reveal()
		return gson.New(p.scrolls * 500), nil
	case strings.Contains(script, "scrollHeight"):
		p.heights++
		if p.onHeight != nil {
			p.onHeight(p.heights)
		}
		return gson.New(p.height), nil
	}
	return gson.New(nil), errors.New("unexpected script")
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	if p.onNavigate != nil {
		return p.onNavigate()
	}
	return nil
}

func testOptions() Options {
	return Options{
		ID:       "test",
		Locators: DefaultLocators(),
		Scroll: ScrollConfig{
			Increment:  500,
			StallLimit: 3,
			MaxRetries: 3,
		},
	}
}
