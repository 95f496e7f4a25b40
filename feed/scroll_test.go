package feed

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func places(prefix string, from, to int) []*place {
	var out []*place
	for i := from; i < to; i++ {
		out = append(out, &place{name: fmt.Sprintf("%s%d", prefix, i), addr: fmt.Sprintf("addr %d", i)})
	}
	return out
}

func TestScan_OnlyNewCards(t *testing.T) {
	ctx := context.Background()
	page := newFakePage(places("p", 0, 5), places("p", 5, 8))
	c := NewController(page, DefaultLocators(), testOptions().Scroll)

	var got [][]Element
	record := func(_ context.Context, cards []Element) { got = append(got, cards) }

	n, err := c.Scan(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, c.Cursor().LastProcessed)

	page.reveal()
	n, err = c.Scan(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 8, c.Cursor().LastProcessed)

	require.Len(t, got, 2)
	require.Len(t, got[1], 3)
	for i, el := range got[1] {
		assert.Same(t, page.rendered[5+i], el)
	}

	n, err = c.Scan(ctx, record)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, c.Cursor().NoNewResults)
	assert.Len(t, got, 2)
}

func TestScan_FeedShrinkKeepsCursor(t *testing.T) {
	ctx := context.Background()
	page := newFakePage(places("p", 0, 5))
	c := NewController(page, DefaultLocators(), testOptions().Scroll)

	_, err := c.Scan(ctx, func(context.Context, []Element) {})
	require.NoError(t, err)

	page.rendered = page.rendered[:2]
	n, err := c.Scan(ctx, func(context.Context, []Element) { t.Fatal("nothing should be dispatched") })
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 5, c.Cursor().LastProcessed)
}

func TestRun_DoneAfterStallLimit(t *testing.T) {
	page := newFakePage(places("p", 0, 3), places("p", 3, 6))
	c := NewController(page, DefaultLocators(), testOptions().Scroll)

	var dispatched int
	reason := c.Run(context.Background(), func(_ context.Context, cards []Element) {
		dispatched += len(cards)
	})

	assert.Equal(t, StopEndOfFeed, reason)
	assert.Equal(t, StateDone, c.State())
	assert.Equal(t, 6, dispatched)
	assert.Equal(t, 3, c.Cursor().Stalls)
	// One growing iteration, then exactly three stalled ones.
	assert.Equal(t, 4, page.scrolls)
	assert.Equal(t, 1+2*3, page.heights)
}

func TestRun_GrowthResetsStalls(t *testing.T) {
	page := newFakePage(places("p", 0, 1))
	c := NewController(page, DefaultLocators(), testOptions().Scroll)

	// After two stalls, new content arrives once.
	page.onScroll = func() {
		if c.Cursor().Stalls == 2 && len(page.batches) == 1 {
			page.batches = append(page.batches, places("q", 0, 2))
		}
	}
	reason := c.Run(context.Background(), func(context.Context, []Element) {})

	assert.Equal(t, StopEndOfFeed, reason)
	assert.Equal(t, 3, c.Cursor().LastProcessed)
	// 1 growth + 2 stalls + 1 growth + 3 stalls.
	assert.Equal(t, 7, page.scrolls)
}

func TestRun_LateGrowthIsNotAStall(t *testing.T) {
	page := newFakePage(places("p", 0, 1))
	c := NewController(page, DefaultLocators(), testOptions().Scroll)

	// Read 5 is the second check of the third iteration: the feed stays
	// flat after the scroll pause and only grows during the stall wait.
	page.onHeight = func(read int) {
		if read == 5 {
			page.batches = append(page.batches, places("q", 0, 2))
			page.reveal()
		}
	}

	var late []Element
	var stallsAtLate int
	var stateAtLate State
	reason := c.Run(context.Background(), func(_ context.Context, cards []Element) {
		if len(late) == 0 && c.Cursor().LastProcessed == 1 {
			late = cards
			stallsAtLate = c.Cursor().Stalls
			stateAtLate = c.State()
		}
	})

	assert.Equal(t, StopEndOfFeed, reason)
	require.Len(t, late, 2)
	assert.Zero(t, stallsAtLate, "growth after the stall wait resets the count")
	assert.Equal(t, StateScanning, stateAtLate)
	assert.Equal(t, 3, c.Cursor().LastProcessed)
	// 1 growth, 1 stall, 1 late growth, then 3 stalls.
	assert.Equal(t, 6, page.scrolls)
	assert.Equal(t, 11, page.heights)
}

func TestRun_RetryBudget(t *testing.T) {
	page := newFakePage(places("p", 0, 2))
	page.feedMissing = true
	c := NewController(page, DefaultLocators(), testOptions().Scroll)

	reason := c.Run(context.Background(), func(context.Context, []Element) {
		t.Fatal("no cards without a feed")
	})
	assert.Equal(t, StopRetryBudget, reason)
	assert.Zero(t, page.scrolls)
}

func TestRun_Interrupted(t *testing.T) {
	page := newFakePage(places("p", 0, 4), places("p", 4, 8))
	c := NewController(page, DefaultLocators(), testOptions().Scroll)

	ctx, cancel := context.WithCancel(context.Background())
	reason := c.Run(ctx, func(context.Context, []Element) { cancel() })

	assert.Equal(t, StopInterrupted, reason)
	assert.Equal(t, "interrupted", reason.String())
	assert.Zero(t, page.scrolls)
}
