package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// State is the scroll controller's current phase.
type State int

const (
	StateScanning State = iota
	StateScrolling
	StateWaitingForGrowth
	StateStalled
	StateDone
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateScrolling:
		return "scrolling"
	case StateWaitingForGrowth:
		return "waiting_for_growth"
	case StateStalled:
		return "stalled"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StopReason says why the controller reached StateDone.
type StopReason int

const (
	// StopNone means the controller has not stopped yet.
	StopNone StopReason = iota
	// StopEndOfFeed means the feed stopped growing StallLimit times in a row.
	StopEndOfFeed
	// StopRetryBudget means MaxRetries consecutive iterations failed.
	StopRetryBudget
	// StopInterrupted means the context was cancelled.
	StopInterrupted
)

func (r StopReason) String() string {
	switch r {
	case StopEndOfFeed:
		return "end_of_feed"
	case StopRetryBudget:
		return "retry_budget"
	case StopInterrupted:
		return "interrupted"
	default:
		return "running"
	}
}

// MarshalText encodes the reason by name.
func (r StopReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// ScrollConfig tunes the scroll loop.
type ScrollConfig struct {
	// Increment is how far the feed is scrolled per iteration, in pixels.
	Increment int
	// Pause follows every scroll so lazy loading can kick in.
	Pause time.Duration
	// StallWait is the extra wait before a stall is counted.
	StallWait time.Duration
	// StallLimit is the number of consecutive stalls that ends the feed.
	StallLimit int
	// MaxRetries is the number of consecutive failed iterations tolerated.
	MaxRetries int
	// ErrorBackoff is slept after a failed iteration.
	ErrorBackoff time.Duration
	// FeedWait bounds the wait for the feed container each iteration.
	FeedWait time.Duration
}

// DefaultScrollConfig returns the production scroll settings.
func DefaultScrollConfig() ScrollConfig {
	return ScrollConfig{
		Increment:    500,
		Pause:        1500 * time.Millisecond,
		StallWait:    10 * time.Second,
		StallLimit:   3,
		MaxRetries:   3,
		ErrorBackoff: 2 * time.Second,
		FeedWait:     10 * time.Second,
	}
}

// Cursor is the controller's progress through the feed.
type Cursor struct {
	// LastProcessed is the number of leading cards already dispatched.
	LastProcessed int
	// LastHeight is the last scrollHeight reading of the feed.
	LastHeight int
	// NoNewResults counts consecutive scans that found nothing new.
	NoNewResults int
	// Stalls counts consecutive iterations without growth.
	Stalls int
}

// Dispatch receives the cards a scan found beyond the cursor.
type Dispatch func(ctx context.Context, cards []Element)

const (
	scrollScript = `(el, step) => { el.scrollTop = el.scrollTop + step; return el.scrollTop }`
	heightScript = `(el) => el.scrollHeight`
)

// Controller scrolls the results feed and hands newly rendered cards to a
// Dispatch until the feed is exhausted, errors pile up or ctx ends.
type Controller struct {
	page   Page
	loc    Locators
	cfg    ScrollConfig
	cursor Cursor
	state  State
	reason StopReason
	errs   int
}

// NewController creates a Controller in StateScanning with a zero cursor.
func NewController(page Page, loc Locators, cfg ScrollConfig) *Controller {
	return &Controller{page: page, loc: loc, cfg: cfg}
}

// Cursor returns a copy of the current cursor.
func (c *Controller) Cursor() Cursor { return c.cursor }

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Reason returns why the controller stopped, or StopNone while running.
func (c *Controller) Reason() StopReason { return c.reason }

// Run drives the state machine until StateDone and returns the stop reason.
func (c *Controller) Run(ctx context.Context, dispatch Dispatch) StopReason {
	for {
		switch {
		case ctx.Err() != nil:
			return c.stop(StopInterrupted)
		case c.errs >= c.cfg.MaxRetries:
			return c.stop(StopRetryBudget)
		case c.cursor.Stalls >= c.cfg.StallLimit:
			return c.stop(StopEndOfFeed)
		}

		if err := c.iterate(ctx, dispatch); err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.errs++
			slog.Warn("scroll iteration failed", "attempt", c.errs, "max", c.cfg.MaxRetries, "error", err)
			_ = sleep(ctx, c.cfg.ErrorBackoff)
			continue
		}
		c.errs = 0
	}
}

// Scan dispatches the cards rendered beyond the cursor and advances it. It
// returns the number of cards dispatched.
func (c *Controller) Scan(ctx context.Context, dispatch Dispatch) (int, error) {
	c.setState(StateScanning)

	cards, err := c.page.FindAll(ctx, c.loc.Card)
	if err != nil {
		return 0, fmt.Errorf("feed: find cards: %w", err)
	}

	n := len(cards)
	if n < c.cursor.LastProcessed {
		slog.Warn("feed shrank below cursor", "rendered", n, "processed", c.cursor.LastProcessed)
		c.cursor.NoNewResults++
		return 0, nil
	}
	fresh := cards[c.cursor.LastProcessed:]
	if len(fresh) == 0 {
		c.cursor.NoNewResults++
		return 0, nil
	}

	c.cursor.NoNewResults = 0
	slog.Debug("new cards", "count", len(fresh), "from", c.cursor.LastProcessed)
	dispatch(ctx, fresh)
	c.cursor.LastProcessed = n
	return len(fresh), nil
}

func (c *Controller) iterate(ctx context.Context, dispatch Dispatch) error {
	// 1. The feed container must be present.
	if _, err := c.page.WaitFor(ctx, c.loc.Feed, c.cfg.FeedWait); err != nil {
		return fmt.Errorf("feed: locate feed: %w", err)
	}

	// 2. Hand off everything rendered past the cursor.
	if _, err := c.Scan(ctx, dispatch); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// 3. Scroll. Card handling may have re-rendered the container, so look
	// it up again.
	c.setState(StateScrolling)
	feedEl, err := c.page.Find(ctx, c.loc.Feed)
	if err != nil {
		return fmt.Errorf("feed: relocate feed: %w", err)
	}
	if _, err := c.page.RunScript(ctx, scrollScript, feedEl, c.cfg.Increment); err != nil {
		return fmt.Errorf("feed: scroll: %w", err)
	}
	if err := sleep(ctx, c.cfg.Pause); err != nil {
		return err
	}

	// 4. Growth check, with one extra wait before counting a stall.
	c.setState(StateWaitingForGrowth)
	grew, err := c.checkGrowth(ctx, feedEl)
	if err != nil {
		return err
	}
	if grew {
		return nil
	}

	c.setState(StateStalled)
	if err := sleep(ctx, c.cfg.StallWait); err != nil {
		return err
	}
	grew, err = c.checkGrowth(ctx, feedEl)
	if err != nil {
		return err
	}
	if !grew {
		c.cursor.Stalls++
		slog.Info("no new results", "stalls", c.cursor.Stalls, "limit", c.cfg.StallLimit)
	}
	return nil
}

func (c *Controller) checkGrowth(ctx context.Context, feedEl Element) (bool, error) {
	res, err := c.page.RunScript(ctx, heightScript, feedEl)
	if err != nil {
		return false, fmt.Errorf("feed: read height: %w", err)
	}
	h := res.Int()
	if h == c.cursor.LastHeight {
		return false, nil
	}
	c.cursor.LastHeight = h
	c.cursor.Stalls = 0
	return true, nil
}

func (c *Controller) setState(s State) {
	if c.state != s {
		slog.Debug("scroll state", "state", s)
	}
	c.state = s
}

func (c *Controller) stop(r StopReason) StopReason {
	c.setState(StateDone)
	c.reason = r
	slog.Info("scrolling finished", "reason", r, "processed", c.cursor.LastProcessed)
	return r
}
