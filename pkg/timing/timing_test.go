package timing

import (
	"strings"
	"testing"
	"time"
)

func TestTimerMetrics(t *testing.T) {
	timer := NewTimer()

	timer.StartTCP()
	time.Sleep(5 * time.Millisecond)
	timer.EndTCP()

	timer.StartGreeting()
	time.Sleep(5 * time.Millisecond)
	timer.EndGreeting()

	m := timer.Metrics()
	if m.TCPConnect <= 0 {
		t.Error("expected a positive TCPConnect duration")
	}
	if m.Greeting <= 0 {
		t.Error("expected a positive Greeting duration")
	}
	if m.TLSHandshake != 0 {
		t.Errorf("TLSHandshake = %v, want 0 when StartTLS/EndTLS were never called", m.TLSHandshake)
	}
	if m.Total <= 0 {
		t.Error("expected a positive Total duration")
	}
}

func TestMetricsString(t *testing.T) {
	m := Metrics{TCPConnect: time.Millisecond, TLSHandshake: 0, Greeting: 2 * time.Millisecond, Total: 3 * time.Millisecond}
	s := m.String()
	if !strings.Contains(s, "tcp=") || !strings.Contains(s, "greeting=") || !strings.Contains(s, "total=") {
		t.Errorf("String() = %q, missing expected fields", s)
	}
}
