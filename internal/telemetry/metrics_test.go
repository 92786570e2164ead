package telemetry

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsHandlerExposesProbeCounters(t *testing.T) {
	ObserveProbe(OutcomeEmpty, 5*time.Millisecond)
	ObserveProbe(OutcomeFailure, 2*time.Millisecond)
	ProberStarted()
	defer ProberStopped()

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, metric := range []string{
		"seedprobe_probes_total",
		"seedprobe_probe_duration_seconds",
		"seedprobe_active_probers",
		"seedprobe_uptime_seconds",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("metrics output missing %s", metric)
		}
	}
}
