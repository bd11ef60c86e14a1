package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics exposes counters/histograms for chat event processing.
type BotMetrics struct {
	chatEventsTotal *prometheus.CounterVec
	bookingsTotal   *prometheus.CounterVec
	eventDuration   *prometheus.HistogramVec
}

func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		chatEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bot",
			Subsystem: "chat",
			Name:      "events_total",
			Help:      "Total chat events dispatched",
		}, []string{"kind", "status"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bot",
			Name:      "bookings_total",
			Help:      "Total booking confirmations",
		}, []string{"status"}),
		eventDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bot",
			Name:      "event_duration_seconds",
			Help:      "Latency of chat event processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.chatEventsTotal, m.bookingsTotal, m.eventDuration)
	return m
}

func (m *BotMetrics) ObserveChatEvent(kind, status string) {
	if m == nil {
		return
	}
	m.chatEventsTotal.WithLabelValues(kind, status).Inc()
}

func (m *BotMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *BotMetrics) ObserveEventDuration(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.eventDuration.WithLabelValues(kind).Observe(seconds)
}
