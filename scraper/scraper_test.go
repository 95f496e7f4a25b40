package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"

	"github.com/Rituraj200000/googlemapscraper/feed"
	"github.com/Rituraj200000/googlemapscraper/models"
)

func TestMapErr(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantFound bool
		wantStale bool
	}{
		{"element not found", &rod.ElementNotFoundError{}, true, false},
		{"wait timed out", fmt.Errorf("wait: %w", context.DeadlineExceeded), true, false},
		{"detached node", &cdp.Error{Code: -32000, Message: "Node with given id does not exist"}, false, true},
		{"destroyed context", &cdp.Error{Code: -32000, Message: "Execution context was destroyed."}, false, true},
		{"other cdp", &cdp.Error{Code: -32601, Message: "method not found"}, false, false},
		{"plain", errors.New("boom"), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapErr(tt.err, "div.x")
			assert.Equal(t, tt.wantFound, errors.Is(got, feed.ErrNotFound))
			assert.Equal(t, tt.wantStale, errors.Is(got, feed.ErrStale))
			assert.Equal(t, tt.wantFound || tt.wantStale, feed.IsRecoverable(got))
		})
	}
}

func TestIsAdDomain(t *testing.T) {
	assert.True(t, isAdDomain("doubleclick.net"))
	assert.True(t, isAdDomain("stats.g.DoubleClick.net"))
	assert.True(t, isAdDomain("www.googletagmanager.com"))
	assert.False(t, isAdDomain("www.google.com"))
	assert.False(t, isAdDomain("cafe.example"))
}

func TestBlockedSet(t *testing.T) {
	set := blockedSet([]string{"Image", "Font", "Bogus"})
	assert.Len(t, set, 2)
	assert.Contains(t, set, proto.NetworkResourceTypeImage)
	assert.Contains(t, set, proto.NetworkResourceTypeFont)
}

func TestCategorizeError(t *testing.T) {
	assert.Equal(t, models.ErrCodeTimeout, categorizeError(context.DeadlineExceeded, "x").Code)
	assert.Equal(t, models.ErrCodeTimeout, categorizeError(context.Canceled, "x").Code)
	assert.Equal(t, models.ErrCodeNavigation, categorizeError(errors.New("net::ERR_NAME_NOT_RESOLVED"), "x").Code)
}
