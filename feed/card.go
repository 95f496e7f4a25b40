package feed

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Rituraj200000/googlemapscraper/models"
)

// View is which pane the results page is showing.
type View int

const (
	// ViewFeed is the scrollable results list.
	ViewFeed View = iota
	// ViewDetail is a single place's detail pane.
	ViewDetail
)

func (v View) String() string {
	if v == ViewDetail {
		return "detail"
	}
	return "feed"
}

// CardTiming holds the pauses around the click/read/back sequence.
type CardTiming struct {
	// DetailPause is how long to wait after clicking a card.
	DetailPause time.Duration
	// BackPause is how long to wait after returning to the feed.
	BackPause time.Duration
	// DetailWait bounds the wait for each detail-pane field.
	DetailWait time.Duration
}

// DefaultCardTiming returns the production pauses.
func DefaultCardTiming() CardTiming {
	return CardTiming{
		DetailPause: time.Second,
		BackPause:   500 * time.Millisecond,
		DetailWait:  3 * time.Second,
	}
}

// CardExtractor turns result cards into records.
type CardExtractor struct {
	loc    Locators
	timing CardTiming
	now    func() time.Time
}

// NewCardExtractor creates a CardExtractor.
func NewCardExtractor(loc Locators, timing CardTiming) *CardExtractor {
	return &CardExtractor{loc: loc, timing: timing, now: time.Now}
}

// ExtractBasic reads the fields visible on the compact card. It returns nil
// when the card has no readable name or went stale mid-read; neither is an
// error worth surfacing.
func (x *CardExtractor) ExtractBasic(ctx context.Context, card Element) *models.Record {
	name, err := childText(ctx, card, x.loc.Name)
	if err != nil && !IsRecoverable(err) {
		slog.Warn("card read failed, skipping", "code", models.CodeOf(err), "error", err)
		return nil
	}
	if err != nil || name == "" {
		slog.Debug("card unusable, skipping", "code", models.CodeOf(err))
		return nil
	}

	rec := models.NewRecord(x.now())
	rec.Name = name

	addr, err := childText(ctx, card, x.loc.Address)
	if errors.Is(err, ErrStale) {
		slog.Debug("card went stale", "name", name)
		return nil
	}
	setIf(&rec.Address, addr)

	rating, err := childText(ctx, card, x.loc.Rating)
	switch {
	case errors.Is(err, ErrStale):
		return nil
	case err == nil:
		setIf(&rec.Rating, rating)
		if reviews, err := childText(ctx, card, x.loc.Reviews); err == nil {
			setIf(&rec.Reviews, strings.NewReplacer("(", "", ")", "").Replace(reviews))
		}
	}

	return &rec
}

// ExtractDetailed opens the card's detail pane, reads the contact fields and
// the coordinates, then returns to the feed. It never fails: whatever could
// be read is returned along with the view the page was left in.
func (x *CardExtractor) ExtractDetailed(ctx context.Context, page Page, card Element, rec models.Record) (models.Record, View) {
	if err := card.Click(ctx); err != nil {
		slog.Warn("could not open detail pane", "name", rec.Name, "error", err)
		return rec, ViewFeed
	}
	if err := sleep(ctx, x.timing.DetailPause); err != nil {
		return rec, x.Back(ctx, page)
	}

	rec = x.readDetail(ctx, page, rec)
	return rec, x.Back(ctx, page)
}

func (x *CardExtractor) readDetail(ctx context.Context, page Page, rec models.Record) models.Record {
	fields := []struct {
		locator string
		attr    string
		dst     *string
	}{
		{x.loc.DetailAddress, "", &rec.Address},
		{x.loc.DetailPhone, "", &rec.Phone},
		{x.loc.DetailWebsite, "href", &rec.Website},
	}
	for _, f := range fields {
		el, err := page.WaitFor(ctx, f.locator, x.timing.DetailWait)
		if err != nil {
			if IsRecoverable(err) {
				slog.Debug("detail field missing", "name", rec.Name, "locator", f.locator)
			} else {
				slog.Warn("detail field read failed", "name", rec.Name, "locator", f.locator, "error", err)
			}
			continue
		}
		if f.attr != "" {
			v, ok, err := el.Attribute(ctx, f.attr)
			if err == nil && ok {
				setIf(f.dst, v)
			}
			continue
		}
		if v, err := el.Text(ctx); err == nil {
			setIf(f.dst, v)
		}
	}

	loc, err := page.CurrentLocation(ctx)
	if err != nil {
		slog.Debug("could not read location", "name", rec.Name, "error", err)
		return rec
	}
	if lat, lng, ok := ParseCoordinates(loc); ok {
		rec.Latitude, rec.Longitude = lat, lng
	}
	return rec
}

// Back returns from the detail pane to the feed. A failed click is retried
// once with a fresh lookup; if that fails too ViewDetail is returned and the
// caller carries on in the degraded view.
func (x *CardExtractor) Back(ctx context.Context, page Page) View {
	err := x.clickBack(ctx, page, 0)
	if err != nil {
		slog.Warn("back navigation failed, retrying", "error", err)
		err = x.clickBack(ctx, page, x.timing.DetailWait)
	}
	if err != nil {
		slog.Error("back navigation failed, continuing in detail view", "error", err)
		return ViewDetail
	}
	_ = sleep(ctx, x.timing.BackPause)
	return ViewFeed
}

func (x *CardExtractor) clickBack(ctx context.Context, page Page, wait time.Duration) error {
	var (
		btn Element
		err error
	)
	if wait > 0 {
		btn, err = page.WaitFor(ctx, x.loc.Back, wait)
	} else {
		btn, err = page.Find(ctx, x.loc.Back)
	}
	if err != nil {
		return err
	}
	return btn.Click(ctx)
}

// ParseCoordinates pulls "lat,lng" out of a location of the form
// ".../@<lat>,<lng>,<zoom>z/...". Both parts must be decimal numbers.
func ParseCoordinates(location string) (lat, lng string, ok bool) {
	_, after, found := strings.Cut(location, "@")
	if !found {
		return "", "", false
	}
	parts := strings.SplitN(after, ",", 3)
	if len(parts) < 2 {
		return "", "", false
	}
	lat, lng = parts[0], strings.TrimRight(parts[1], "/")
	if _, err := strconv.ParseFloat(lat, 64); err != nil {
		return "", "", false
	}
	if _, err := strconv.ParseFloat(lng, 64); err != nil {
		return "", "", false
	}
	return lat, lng, true
}

func childText(ctx context.Context, parent Element, locator string) (string, error) {
	el, err := parent.Find(ctx, locator)
	if err != nil {
		return "", err
	}
	t, err := el.Text(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(t), nil
}

func setIf(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
