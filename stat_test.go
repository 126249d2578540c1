package mqtt

import "testing"

func TestNewStat(t *testing.T) {
	s := newStat("test-client")
	if s.PacketsSent == nil || s.BytesSent == nil || s.PacketsReceived == nil || s.BytesReceived == nil || s.Reconnects == nil || s.Connected == nil {
		t.Fatal("newStat left a nil metric")
	}
}

func TestStatRegisterIdempotent(t *testing.T) {
	s := newStat("test-client-register")
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("register panicked: %v", r)
		}
	}()
	s.register()
	s.register()
}

func TestStatIncrement(t *testing.T) {
	s := newStat("test-client-increment")
	s.PacketsSent.Inc()
	s.BytesSent.Add(128)
	s.PacketsReceived.Inc()
	s.BytesReceived.Add(256)
	s.Reconnects.Inc()
	s.Connected.Set(1)
}

func TestMetricsHandlerNotNil(t *testing.T) {
	if MetricsHandler() == nil {
		t.Fatal("MetricsHandler returned nil")
	}
}
