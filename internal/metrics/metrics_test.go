package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Recorders(t *testing.T) {
	c := NewCollector()

	c.SnapshotBuilt("ok", 3*time.Millisecond)
	c.SnapshotBuilt("ok", time.Millisecond)
	c.SnapshotBuilt("not_found", time.Millisecond)
	c.Pushed("ok")
	c.Pushed("dropped")
	c.Subscribers(4)
	c.PositionRecorded("http")
	c.Published(nil)
	c.Published(errors.New("no responders"))
	c.Connected(true)

	assert.InDelta(t, 2, testutil.ToFloat64(c.SnapshotBuilds.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.SnapshotBuilds.WithLabelValues("not_found")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.Pushes.WithLabelValues("dropped")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(c.LiveSubscribers), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.PositionsRecorded.WithLabelValues("http")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.NATSPublished), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.NATSPublishErrs), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.NATSConnected), 0)

	c.Connected(false)
	assert.InDelta(t, 0, testutil.ToFloat64(c.NATSConnected), 0)
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.Subscribers(2)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "bus_tracker_live_subscribers 2")
}

func TestCollector_Isolated(t *testing.T) {
	a, b := NewCollector(), NewCollector()
	a.Pushed("ok")

	assert.InDelta(t, 0, testutil.ToFloat64(b.Pushes.WithLabelValues("ok")), 0)
}
