// Package metrics exports the session's counters over Prometheus,
// matching the ambient health/perf logging in internal/perf with a
// scrapeable metrics surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every counter/gauge the producer and consumer
// pipelines update. Construct one per process with NewRegistry and wire
// its fields directly into the pipeline activities.
type Registry struct {
	FramesCaptured        prometheus.Counter
	FramesSent            prometheus.Counter
	FramesReceived        prometheus.Counter
	FramesRendered        prometheus.Counter
	FramesDropped         prometheus.Counter
	PacketsSent           prometheus.Counter
	PacketsReceived       prometheus.Counter
	DecodeErrors          prometheus.Counter
	ReassemblyEvictions   prometheus.Counter
	SessionResets         prometheus.Counter
	DataFluxBytesPerSec   prometheus.Gauge
	ReassemblyInFlight    prometheus.Gauge
	SessionState          prometheus.Gauge
	HostLoadAverage       prometheus.Gauge
	HostTemperatureC      prometheus.Gauge
	HostMemoryUsedPercent prometheus.Gauge

	registry *prometheus.Registry
}

// NewRegistry constructs and registers every counter against a fresh
// prometheus.Registry (not the global DefaultRegisterer, so producer and
// consumer metrics never collide when both are scraped from the same
// debug host during development).
func NewRegistry(namespace string) *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Registry{
		FramesCaptured: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "frames_captured_total", Help: "Raw frames read from the camera.",
		}),
		FramesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "frames_sent_total", Help: "Frames fragmented and sent on the data channel.",
		}),
		FramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "frames_received_total", Help: "Frames fully reassembled from the data channel.",
		}),
		FramesRendered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "frames_rendered_total", Help: "Frames successfully decoded and blitted.",
		}),
		FramesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "frames_dropped_total", Help: "Frames dropped by encode, compress, fragment or decode failure.",
		}),
		PacketsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "packets_sent_total", Help: "Datagrams sent on the data channel.",
		}),
		PacketsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "packets_received_total", Help: "Datagrams received on the data channel.",
		}),
		DecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "decode_errors_total", Help: "JPEG or DEFLATE decode failures.",
		}),
		ReassemblyEvictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "reassembly_evictions_total", Help: "In-flight assemblies evicted for idling past the reassembly timeout.",
		}),
		SessionResets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "session_resets_total", Help: "Coordinated resets triggered by channel failure.",
		}),
		DataFluxBytesPerSec: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "data_flux_bytes_per_second", Help: "Measured data-channel throughput.",
		}),
		ReassemblyInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "reassembly_in_flight", Help: "Number of frames currently being reassembled.",
		}),
		SessionState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "session_state", Help: "Current session supervisor state, as its integer State value.",
		}),
		HostLoadAverage: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "host_load_average", Help: "1-minute host load average.",
		}),
		HostTemperatureC: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "host_temperature_celsius", Help: "Host CPU temperature.",
		}),
		HostMemoryUsedPercent: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "host_memory_used_percent", Help: "Host memory utilization.",
		}),
	}
	r.registry = reg
	return r
}

// Handler returns an http.Handler serving this registry's metrics in the
// Prometheus exposition format, for mounting at e.g. "/metrics".
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
