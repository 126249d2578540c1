package mqtt

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stat holds the per-client counters a Session maintains across its
// connection lifetime. Unlike the teacher's server-wide Stat, these are
// per-Session so a process embedding several clients can register each
// under a distinct label.
type Stat struct {
	PacketsSent     prometheus.Counter
	BytesSent       prometheus.Counter
	PacketsReceived prometheus.Counter
	BytesReceived   prometheus.Counter
	Reconnects      prometheus.Counter
	Connected       prometheus.Gauge

	registerOnce sync.Once
}

func newStat(clientID string) *Stat {
	labels := prometheus.Labels{"client_id": clientID}
	return &Stat{
		PacketsSent:     prometheus.NewCounter(prometheus.CounterOpts{Name: "mqtt_client_packets_sent_total", Help: "Packets sent by this client", ConstLabels: labels}),
		BytesSent:       prometheus.NewCounter(prometheus.CounterOpts{Name: "mqtt_client_bytes_sent_total", Help: "Bytes sent by this client", ConstLabels: labels}),
		PacketsReceived: prometheus.NewCounter(prometheus.CounterOpts{Name: "mqtt_client_packets_received_total", Help: "Packets received by this client", ConstLabels: labels}),
		BytesReceived:   prometheus.NewCounter(prometheus.CounterOpts{Name: "mqtt_client_bytes_received_total", Help: "Bytes received by this client", ConstLabels: labels}),
		Reconnects:      prometheus.NewCounter(prometheus.CounterOpts{Name: "mqtt_client_reconnects_total", Help: "Reconnection attempts made by this client", ConstLabels: labels}),
		Connected:       prometheus.NewGauge(prometheus.GaugeOpts{Name: "mqtt_client_connected", Help: "1 if the client is currently connected", ConstLabels: labels}),
	}
}

func (s *Stat) register() {
	s.registerOnce.Do(func() {
		prometheus.MustRegister(s.PacketsSent, s.BytesSent, s.PacketsReceived, s.BytesReceived, s.Reconnects, s.Connected)
	})
}

// MetricsHandler exposes the registered client metrics in the standard
// Prometheus exposition format, for embedding in a host application's own
// HTTP mux.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
