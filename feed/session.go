package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Rituraj200000/googlemapscraper/models"
)

// Recorder is the persistence side of a session. *store.Store satisfies it.
type Recorder interface {
	// SeenListing reports whether the place a card shows is already
	// persisted. The card's address may be a shorter form of the stored one.
	SeenListing(k models.Key) bool
	Append(rec models.Record) (bool, error)
	Len() int
}

// Options configures a Session. Zero timing values are used as is, so tests
// can run without pauses; production callers start from DefaultOptions.
type Options struct {
	// ID labels the session in logs; a UUID is generated when empty.
	ID string
	// StartURL, when set, is loaded before scrolling starts.
	StartURL string
	// InitialWait is slept after StartURL is loaded.
	InitialWait time.Duration

	Locators Locators
	Card     CardTiming
	Scroll   ScrollConfig

	// OnProgress, when set, is called after every card and every scan.
	OnProgress func(Progress)
}

// DefaultOptions returns production options.
func DefaultOptions() Options {
	return Options{
		InitialWait: 5 * time.Second,
		Locators:    DefaultLocators(),
		Card:        DefaultCardTiming(),
		Scroll:      DefaultScrollConfig(),
	}
}

// Progress is a point-in-time snapshot of a running session.
type Progress struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	Accepted  int       `json:"accepted"`
	Known     int       `json:"known"`
	Processed int       `json:"processed"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	StartedAt time.Time `json:"started_at"`
}

// Result is the tally of a finished session.
type Result struct {
	ID        string        `json:"id"`
	Accepted  int           `json:"accepted"`
	Seen      int           `json:"seen"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Reason    StopReason    `json:"reason"`
	Elapsed   time.Duration `json:"-"`
}

// Session extracts every card of one results feed into a Recorder.
type Session struct {
	page Page
	rec  Recorder
	opts Options

	cards   *CardExtractor
	scroll  *Controller
	view    View
	started time.Time

	accepted  int
	processed int
	skipped   int
	failed    int
}

// NewSession creates a session over page writing into rec.
func NewSession(page Page, rec Recorder, opts Options) *Session {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	return &Session{
		page:   page,
		rec:    rec,
		opts:   opts,
		cards:  NewCardExtractor(opts.Locators, opts.Card),
		scroll: NewController(page, opts.Locators, opts.Scroll),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.opts.ID }

// Run extracts until the feed ends, the retry budget is spent or ctx is
// cancelled. Cancellation is a normal stop: accepted records are already
// persisted and the partial Result is returned without error. The only error
// is a failure to load StartURL.
func (s *Session) Run(ctx context.Context) (Result, error) {
	s.started = time.Now()
	log := slog.With("session", s.opts.ID)

	if s.opts.StartURL != "" {
		log.Info("loading results page", "url", s.opts.StartURL)
		if err := s.page.Navigate(ctx, s.opts.StartURL); err != nil {
			if ctx.Err() != nil {
				log.Info("interrupted while loading results page")
				return s.result(StopInterrupted), nil
			}
			return s.result(StopNone), models.NewScrapeError(models.ErrCodeNavigation,
				"load "+s.opts.StartURL, err)
		}
		if err := sleep(ctx, s.opts.InitialWait); err != nil {
			return s.result(StopInterrupted), nil
		}
	}

	log.Info("session started", "known", s.rec.Len())
	reason := s.scroll.Run(ctx, s.dispatch)

	res := s.result(reason)
	s.report()
	log.Info("session finished",
		"reason", reason,
		"accepted", res.Accepted,
		"processed", res.Processed,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"elapsed", res.Elapsed.Round(time.Millisecond),
	)
	return res, nil
}

// Progress returns the current snapshot.
func (s *Session) Progress() Progress {
	return Progress{
		ID:        s.opts.ID,
		State:     s.scroll.State().String(),
		Accepted:  s.accepted,
		Known:     s.rec.Len(),
		Processed: s.processed,
		Skipped:   s.skipped,
		Failed:    s.failed,
		StartedAt: s.started,
	}
}

func (s *Session) dispatch(ctx context.Context, cards []Element) {
	for _, card := range cards {
		if ctx.Err() != nil {
			return
		}
		if s.view == ViewDetail {
			slog.Warn("still in detail view, trying to return to feed")
			s.view = s.cards.Back(ctx, s.page)
		}
		s.handleCard(ctx, card)
		s.report()
	}
	s.report()
}

func (s *Session) handleCard(ctx context.Context, card Element) {
	name := models.NotAvailable
	s.processed++

	defer func() {
		if r := recover(); r != nil {
			s.failed++
			slog.Error("card pipeline panicked", "name", name, "panic", fmt.Sprint(r))
		}
	}()

	basic := s.cards.ExtractBasic(ctx, card)
	if basic == nil {
		s.skipped++
		return
	}
	name = basic.Name

	// The pre-check sees only the card's address; Append checks again with
	// the detail-pane address.
	if s.rec.SeenListing(basic.Key()) {
		slog.Debug("already saved, skipping", "name", name)
		s.skipped++
		return
	}

	full, view := s.cards.ExtractDetailed(ctx, s.page, card, *basic)
	s.view = view
	if view == ViewDetail {
		slog.Warn("could not return to feed", "name", name)
	}

	ok, err := s.rec.Append(full)
	switch {
	case err != nil:
		s.failed++
		slog.Error("could not save place", "name", name, "error", err)
	case ok:
		s.accepted++
	default:
		s.skipped++
	}
}

func (s *Session) report() {
	if s.opts.OnProgress != nil {
		s.opts.OnProgress(s.Progress())
	}
}

func (s *Session) result(r StopReason) Result {
	return Result{
		ID:        s.opts.ID,
		Accepted:  s.accepted,
		Seen:      s.rec.Len(),
		Processed: s.processed,
		Skipped:   s.skipped,
		Failed:    s.failed,
		Reason:    r,
		Elapsed:   time.Since(s.started),
	}
}
