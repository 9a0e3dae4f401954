package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewRegistryCountersStartAtZero(t *testing.T) {
	reg := NewRegistry("gimbalcam_test")

	reg.FramesCaptured.Inc()
	reg.PacketsSent.Add(3)
	reg.SessionState.Set(2)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	reg.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "gimbalcam_test_frames_captured_total 1") {
		t.Errorf("expected frames_captured_total to read 1, got:\n%s", body)
	}
	if !strings.Contains(body, "gimbalcam_test_packets_sent_total 3") {
		t.Errorf("expected packets_sent_total to read 3, got:\n%s", body)
	}
	if !strings.Contains(body, "gimbalcam_test_session_state 2") {
		t.Errorf("expected session_state to read 2, got:\n%s", body)
	}
}

func TestTwoRegistriesDoNotCollide(t *testing.T) {
	producer := NewRegistry("gimbalcam_producer")
	consumer := NewRegistry("gimbalcam_consumer")

	producer.FramesCaptured.Inc()
	consumer.FramesRendered.Inc()

	rec := httptest.NewRecorder()
	producer.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if strings.Contains(rec.Body.String(), "gimbalcam_consumer") {
		t.Error("producer registry leaked consumer metrics")
	}
}
