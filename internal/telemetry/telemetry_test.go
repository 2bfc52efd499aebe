package telemetry

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestObserveCommandExposedViaHandler(t *testing.T) {
	m := New()
	m.ObserveCommand("look", true, 0.002)
	m.ConnectionsTotal.Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "holdfast_commands_total") {
		t.Error("expected holdfast_commands_total in exposition output")
	}
	if !strings.Contains(body, "holdfast_connections_total") {
		t.Error("expected holdfast_connections_total in exposition output")
	}
}

func TestObserveSchedulerRunRecordsErrors(t *testing.T) {
	m := New()
	m.ObserveSchedulerRun("respawn_sweep", nil)
	m.ObserveSchedulerRun("respawn_sweep", errTest{})

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "holdfast_scheduler_errors_total") {
		t.Error("expected holdfast_scheduler_errors_total in exposition output")
	}
}

type errTest struct{}

func (errTest) Error() string { return "boom" }
