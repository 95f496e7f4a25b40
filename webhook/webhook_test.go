package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliver_Signed(t *testing.T) {
	var gotSig string
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		assert.Equal(t, "sha256="+Sign("s3cret", body), gotSig)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ev := NewEvent(EventHarvestCompleted, "run-1", map[string]int{"accepted": 3})
	require.NoError(t, Deliver(context.Background(), srv.URL, "s3cret", ev))
	assert.NotEmpty(t, gotSig)
	assert.Equal(t, EventHarvestCompleted, got.Type)
	assert.Equal(t, "run-1", got.RunID)
}

func TestDeliver_Unsigned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(SignatureHeader))
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := Deliver(context.Background(), srv.URL, "", NewEvent(EventEnrichCompleted, "r", nil))
	assert.ErrorContains(t, err, "status 500")
}

func TestDeliverAsync_Retries(t *testing.T) {
	saved := retryDelays
	retryDelays = []time.Duration{0, time.Millisecond, time.Millisecond}
	defer func() { retryDelays = saved }()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	done := DeliverAsync(context.Background(), srv.URL, "", NewEvent(EventHarvestCompleted, "r", nil))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("delivery did not finish")
	}
	assert.Equal(t, int32(3), hits.Load())
}
