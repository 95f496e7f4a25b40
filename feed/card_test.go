package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rituraj200000/googlemapscraper/models"
)

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		loc      string
		lat, lng string
		ok       bool
	}{
		{"https://www.google.com/maps/place/Cafe/@40.7128,-74.0060,17z/data=!3m1", "40.7128", "-74.0060", true},
		{"https://www.google.com/maps/search/cafes/@51.5,-0.12,14z", "51.5", "-0.12", true},
		{"https://www.google.com/maps/@1.5,2.5", "1.5", "2.5", true},
		{"https://www.google.com/maps/search/cafes", "", "", false},
		{"https://www.google.com/maps/@40.7128", "", "", false},
		{"https://www.google.com/maps/@abc,def,17z", "", "", false},
	}
	for _, tt := range tests {
		lat, lng, ok := ParseCoordinates(tt.loc)
		assert.Equal(t, tt.ok, ok, tt.loc)
		assert.Equal(t, tt.lat, lat, tt.loc)
		assert.Equal(t, tt.lng, lng, tt.loc)
	}
}

func newTestExtractor() *CardExtractor {
	x := NewCardExtractor(DefaultLocators(), CardTiming{})
	x.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local) }
	return x
}

func TestExtractBasic(t *testing.T) {
	ctx := context.Background()
	loc := DefaultLocators()
	x := newTestExtractor()

	t.Run("all fields", func(t *testing.T) {
		card := &fakeElement{children: map[string]*fakeElement{
			loc.Name:    {text: "  Blue Bottle  "},
			loc.Address: {text: "1 Main St"},
			loc.Rating:  {text: "4.6"},
			loc.Reviews: {text: "(1,234)"},
		}}
		rec := x.ExtractBasic(ctx, card)
		require.NotNil(t, rec)
		assert.Equal(t, "Blue Bottle", rec.Name)
		assert.Equal(t, "1 Main St", rec.Address)
		assert.Equal(t, "4.6", rec.Rating)
		assert.Equal(t, "1,234", rec.Reviews)
		assert.Equal(t, models.NotAvailable, rec.Phone)
		assert.Equal(t, "2024-05-06 07:08:09", rec.ExtractedTime)
	})

	t.Run("no rating", func(t *testing.T) {
		card := &fakeElement{children: map[string]*fakeElement{
			loc.Name:    {text: "New Place"},
			loc.Address: {text: "2 Main St"},
			loc.Reviews: {text: "(3)"},
		}}
		rec := x.ExtractBasic(ctx, card)
		require.NotNil(t, rec)
		assert.Equal(t, models.NotAvailable, rec.Rating)
		assert.Equal(t, models.NotAvailable, rec.Reviews)
	})

	t.Run("empty address stays N/A", func(t *testing.T) {
		card := &fakeElement{children: map[string]*fakeElement{
			loc.Name:    {text: "Kiosk"},
			loc.Address: {text: "   "},
		}}
		rec := x.ExtractBasic(ctx, card)
		require.NotNil(t, rec)
		assert.Equal(t, models.NotAvailable, rec.Address)
	})

	t.Run("missing name", func(t *testing.T) {
		card := &fakeElement{children: map[string]*fakeElement{
			loc.Address: {text: "3 Main St"},
		}}
		assert.Nil(t, x.ExtractBasic(ctx, card))
	})

	t.Run("stale mid-read", func(t *testing.T) {
		card := &fakeElement{
			children: map[string]*fakeElement{loc.Name: {text: "Gone"}},
			childErr: map[string]error{loc.Address: ErrStale},
		}
		assert.Nil(t, x.ExtractBasic(ctx, card))
	})

	t.Run("name read fault", func(t *testing.T) {
		card := &fakeElement{childErr: map[string]error{loc.Name: errors.New("websocket closed")}}
		assert.Nil(t, x.ExtractBasic(ctx, card))
	})
}

func TestIsRecoverable(t *testing.T) {
	missing := fmt.Errorf("%w: div.fontHeadlineSmall", ErrNotFound)
	stale := fmt.Errorf("%w: click", ErrStale)

	assert.True(t, IsRecoverable(missing))
	assert.True(t, IsRecoverable(stale))
	assert.False(t, IsRecoverable(errors.New("websocket closed")))
	assert.Equal(t, models.ErrCodeNotFound, models.CodeOf(missing))
	assert.Equal(t, models.ErrCodeStale, models.CodeOf(stale))
}

func TestExtractDetailed(t *testing.T) {
	ctx := context.Background()
	x := newTestExtractor()

	pl := &place{
		name: "Cafe", addr: "1 Main St, Springfield",
		phone: "+1 555 0100", website: "https://cafe.example/",
		location: "https://www.google.com/maps/place/Cafe/@40.1,-74.2,17z",
	}
	page := newFakePage([]*place{pl})
	card := page.rendered[0]

	basic := models.NewRecord(time.Now())
	basic.Name, basic.Address = "Cafe", "1 Main St"

	rec, view := x.ExtractDetailed(ctx, page, card, basic)
	assert.Equal(t, ViewFeed, view)
	assert.Equal(t, "1 Main St, Springfield", rec.Address)
	assert.Equal(t, "+1 555 0100", rec.Phone)
	assert.Equal(t, "https://cafe.example/", rec.Website)
	assert.Equal(t, "40.1", rec.Latitude)
	assert.Equal(t, "-74.2", rec.Longitude)
	assert.Nil(t, page.detail, "back should have been clicked")
}

func TestExtractDetailed_MissingFieldsStayNA(t *testing.T) {
	ctx := context.Background()
	x := newTestExtractor()

	pl := &place{name: "Stall", addr: "Market", location: "https://www.google.com/maps/search/stall"}
	page := newFakePage([]*place{pl})

	basic := models.NewRecord(time.Now())
	basic.Name, basic.Address = "Stall", "Market"

	rec, view := x.ExtractDetailed(ctx, page, page.rendered[0], basic)
	assert.Equal(t, ViewFeed, view)
	assert.Equal(t, models.NotAvailable, rec.Phone)
	assert.Equal(t, models.NotAvailable, rec.Website)
	assert.Equal(t, models.NotAvailable, rec.Latitude)
	assert.Equal(t, models.NotAvailable, rec.Longitude)
}

func TestBack(t *testing.T) {
	ctx := context.Background()
	x := newTestExtractor()

	tests := []struct {
		name      string
		backFails int
		want      View
	}{
		{"first click", 0, ViewFeed},
		{"fallback click", 1, ViewFeed},
		{"both fail", 2, ViewDetail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := newFakePage([]*place{{name: "A", addr: "a1"}})
			page.detail = &place{name: "A"}
			page.backFails = tt.backFails

			assert.Equal(t, tt.want, x.Back(ctx, page))
		})
	}
}

func TestExtractDetailed_ClickFails(t *testing.T) {
	x := newTestExtractor()
	page := newFakePage()
	card := &fakeElement{onClick: func() error { return ErrStale }}

	basic := models.NewRecord(time.Now())
	basic.Name = "A"
	rec, view := x.ExtractDetailed(context.Background(), page, card, basic)
	assert.Equal(t, ViewFeed, view)
	assert.Equal(t, basic, rec)
}
