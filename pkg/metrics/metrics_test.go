package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/timeshift/pkg/db"
)

func TestCalloutRecorder(t *testing.T) {
	var r CalloutRecorder

	opened := testutil.ToFloat64(EventsOpened)
	filled := testutil.ToFloat64(EventsClosed.WithLabelValues("filled"))
	declined := testutil.ToFloat64(Attempts.WithLabelValues("declined"))
	conflicts := testutil.ToFloat64(AcceptConflicts)

	r.EventOpened()
	r.EventClosed(db.StatusFilled)
	r.AttemptRecorded(db.ResponseDeclined)
	r.AttemptRecorded(db.ResponseDeclined)
	r.AcceptConflict()
	r.RankingComputed(3 * time.Millisecond)

	assert.Equal(t, opened+1, testutil.ToFloat64(EventsOpened))
	assert.Equal(t, filled+1, testutil.ToFloat64(EventsClosed.WithLabelValues("filled")))
	assert.Equal(t, declined+2, testutil.ToFloat64(Attempts.WithLabelValues("declined")))
	assert.Equal(t, conflicts+1, testutil.ToFloat64(AcceptConflicts))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	CalloutRecorder{}.EventOpened()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "timeshift_callout_events_opened_total")
	assert.Contains(t, string(body), "go_goroutines")
}
