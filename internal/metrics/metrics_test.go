package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/CHESTERFIELD/simple-chat/internal/mailbox"
	pebblestore "github.com/CHESTERFIELD/simple-chat/internal/storage/pebble"
)

var (
	_ mailbox.Observer        = (*Metrics)(nil)
	_ pebblestore.MetricsHook = (*Metrics)(nil)
)

func TestObserverCounters(t *testing.T) {
	m := New()
	m.MessageEnqueued()
	m.MessageEnqueued()
	m.MessageDelivered()
	m.CorruptEntry()
	m.ScanFailed()
	m.DeleteFailed()
	m.ObserveWrite(time.Millisecond, 42)

	require.Equal(t, 2.0, testutil.ToFloat64(m.MessagesEnqueued))
	require.Equal(t, 1.0, testutil.ToFloat64(m.MessagesDelivered))
	require.Equal(t, 1.0, testutil.ToFloat64(m.CorruptEntries))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ScanFailures))
	require.Equal(t, 1.0, testutil.ToFloat64(m.DeleteFailures))
	require.Equal(t, 42.0, testutil.ToFloat64(m.StoreBytesWritten))
}

func TestInstancesDoNotShareRegistry(t *testing.T) {
	a, b := New(), New()
	a.RateLimited.Inc()
	require.Equal(t, 0.0, testutil.ToFloat64(b.RateLimited))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ActiveSubscribers.Set(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "simplechat_active_subscribers 3"))
}
