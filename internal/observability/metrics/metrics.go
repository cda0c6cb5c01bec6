package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for the lead submission flow.
type LeadMetrics struct {
	submissionsTotal *prometheus.CounterVec
	submitLatency    *prometheus.HistogramVec
	intakeTotal      *prometheus.CounterVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "academy",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Lead submissions sent to the intake endpoint by outcome",
		}, []string{"outcome"}),
		submitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "academy",
			Subsystem: "leads",
			Name:      "submit_latency_seconds",
			Help:      "Latency of lead submissions including retries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		intakeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "academy",
			Subsystem: "leads",
			Name:      "intake_total",
			Help:      "Leads received by the intake endpoint by status",
		}, []string{"source", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.submitLatency, m.intakeTotal)
	return m
}

func (m *LeadMetrics) ObserveSubmission(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
	m.submitLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *LeadMetrics) ObserveIntake(source, status string) {
	if m == nil {
		return
	}
	m.intakeTotal.WithLabelValues(source, status).Inc()
}

// TrackingMetrics counts enrollment events and the failures the tracker absorbs.
type TrackingMetrics struct {
	eventsTotal        *prometheus.CounterVec
	storageErrorsTotal *prometheus.CounterVec
	sinkResultsTotal   *prometheus.CounterVec
}

func NewTrackingMetrics(reg prometheus.Registerer) *TrackingMetrics {
	m := &TrackingMetrics{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "academy",
			Subsystem: "tracking",
			Name:      "events_total",
			Help:      "Enrollment intent events recorded",
		}, []string{"method", "source"}),
		storageErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "academy",
			Subsystem: "tracking",
			Name:      "storage_errors_total",
			Help:      "Event log storage failures absorbed by the tracker",
		}, []string{"op"}),
		sinkResultsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "academy",
			Subsystem: "tracking",
			Name:      "sink_deliveries_total",
			Help:      "Analytics sink deliveries by sink and status",
		}, []string{"sink", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.eventsTotal, m.storageErrorsTotal, m.sinkResultsTotal)
	return m
}

func (m *TrackingMetrics) ObserveEvent(method, source string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(method, source).Inc()
}

func (m *TrackingMetrics) ObserveStorageError(op string) {
	if m == nil {
		return
	}
	m.storageErrorsTotal.WithLabelValues(op).Inc()
}

func (m *TrackingMetrics) ObserveSink(sink string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.sinkResultsTotal.WithLabelValues(sink, status).Inc()
}
