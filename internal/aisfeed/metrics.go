package aisfeed

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "portpal_aisfeed"

type metrics struct {
	messages          prometheus.Counter
	filtered          prometheus.Counter
	malformed         prometheus.Counter
	fallbacks         prometheus.Counter
	reconnects        prometheus.Counter
	heartbeatFailures prometheus.Counter
	droppedEvents     prometheus.Counter
}

func counter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      name,
		Help:      help,
	})
}

// newMetrics builds the feed counters and registers them when reg is non-nil
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		messages:          counter("messages_total", "Frames received from the feed."),
		filtered:          counter("filtered_total", "Position reports dropped because they belong to another vessel."),
		malformed:         counter("malformed_total", "Frames that were not decodable position reports."),
		fallbacks:         counter("simulated_fallbacks_total", "Sessions that switched to synthetic positions."),
		reconnects:        counter("reconnects_total", "Reconnect attempts after a connection failure."),
		heartbeatFailures: counter("heartbeat_failures_total", "Keep-alive pings that could not be sent."),
		droppedEvents:     counter("dropped_events_total", "Events discarded because the consumer fell behind."),
	}
	if reg != nil {
		reg.MustRegister(m.messages, m.filtered, m.malformed, m.fallbacks,
			m.reconnects, m.heartbeatFailures, m.droppedEvents)
	}
	return m
}
