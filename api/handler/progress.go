package handler

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rituraj200000/googlemapscraper/enrich"
	"github.com/Rituraj200000/googlemapscraper/feed"
	"github.com/Rituraj200000/googlemapscraper/models"
)

// Snapshot is the latest progress report of the running command.
type Snapshot struct {
	Kind      string           `json:"kind"` // "harvest" or "enrich"
	Harvest   *feed.Progress   `json:"harvest,omitempty"`
	Enrich    *enrich.Progress `json:"enrich,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Tracker holds the latest Snapshot. Writers are the session and enricher
// callbacks; readers are the HTTP handlers.
type Tracker struct {
	latest atomic.Pointer[Snapshot]
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker { return &Tracker{} }

// Harvest records a harvesting progress report. It has the signature of
// feed.Options.OnProgress.
func (t *Tracker) Harvest(p feed.Progress) {
	t.latest.Store(&Snapshot{Kind: "harvest", Harvest: &p, UpdatedAt: time.Now()})
}

// Enrichment records an enrichment progress report. It has the signature
// of enrich.Options.OnProgress.
func (t *Tracker) Enrichment(p enrich.Progress) {
	t.latest.Store(&Snapshot{Kind: "enrich", Enrich: &p, UpdatedAt: time.Now()})
}

// Latest returns the last snapshot, or nil before the first report.
func (t *Tracker) Latest() *Snapshot {
	return t.latest.Load()
}

// Progress returns a handler for GET /api/v1/progress.
func Progress(t *Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := t.Latest()
		if snap == nil {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error: &models.ErrorDetail{Code: models.ErrCodeNoSession, Message: "no progress reported yet"},
			})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}
