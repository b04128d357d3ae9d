package journal

import (
	"github.com/prometheus/client_golang/prometheus"
)

type JournalMetrics struct {
	gatherWrites       prometheus.Counter
	pagesWritten       prometheus.Counter
	writesFailed       prometheus.Counter
	orderingViolations prometheus.Counter
	reads              *prometheus.CounterVec
	pagersCreated      prometheus.Counter
	segments           prometheus.Gauge
	nextWritePosition  prometheus.Gauge
	allocatedPages     prometheus.Gauge
	gatherDuration     prometheus.Summary
}

func NewJournalMetrics(registerer prometheus.Registerer) *JournalMetrics {
	m := &JournalMetrics{}

	m.gatherWrites = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gather_writes_total",
		Help: "Total number of accepted gather writes.",
	})

	m.pagesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pages_written_total",
		Help: "Total number of pages appended to the journal.",
	})

	m.writesFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "writes_failed_total",
		Help: "Total number of gather writes that failed.",
	})

	m.orderingViolations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ordering_violations_total",
		Help: "Total number of gather writes rejected for a wrong position.",
	})

	m.reads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reads_total",
		Help: "Total number of direct page reads by result.",
	}, []string{"result"})

	m.pagersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pagers_created_total",
		Help: "Total number of pager snapshots created.",
	})

	m.segments = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "segments",
		Help: "Number of segments currently held by the journal.",
	})

	m.nextWritePosition = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "next_write_position_pages",
		Help: "Page position the next gather write must claim.",
	})

	m.allocatedPages = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "allocated_pages",
		Help: "Advisory page capacity of the journal.",
	})

	m.gatherDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Name:       "gather_duration_seconds",
		Help:       "Duration of copying a gather batch into a new segment.",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	})

	if registerer != nil {
		registerer.MustRegister(m.collectors()...)
	}

	return m
}

func (m *JournalMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.gatherWrites,
		m.pagesWritten,
		m.writesFailed,
		m.orderingViolations,
		m.reads,
		m.pagersCreated,
		m.segments,
		m.nextWritePosition,
		m.allocatedPages,
		m.gatherDuration,
	}
}

// unregister drops every collector so a closed journal leaves no series behind.
func (m *JournalMetrics) unregister(registerer prometheus.Registerer) {
	if registerer == nil {
		return
	}

	for _, c := range m.collectors() {
		registerer.Unregister(c)
	}
}
