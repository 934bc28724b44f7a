package perfmodel

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes a report's headline numbers as Prometheus gauges, for a
// host process that wants to scrape the simulator's results rather than
// just print them (cmd/pisasim report --serve).
type Metrics struct {
	CyclesUsed prometheus.Gauge
	NopsIssued prometheus.Gauge
	GraphDepth prometheus.Gauge
}

// NewMetrics registers a fresh set of gauges against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pisasim",
			Subsystem: "perfmodel",
			Name:      "total_cycles_used",
			Help:      "Total simulated cycles for the most recent performance report.",
		}),
		NopsIssued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pisasim",
			Subsystem: "perfmodel",
			Name:      "total_nops_issued",
			Help:      "Total NOPs issued on the operation timeline for the most recent report.",
		}),
		GraphDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pisasim",
			Subsystem: "perfmodel",
			Name:      "graph_depth",
			Help:      "Dependency graph depth (layer count) for the most recent report, when computed.",
		}),
	}
	reg.MustRegister(m.CyclesUsed, m.NopsIssued, m.GraphDepth)
	return m
}

// Observe updates the gauges from a PerformanceReport.
func (m *Metrics) Observe(report *PerformanceReport) {
	m.CyclesUsed.Set(float64(report.TotalCyclesUsed))
	m.NopsIssued.Set(float64(report.TotalNopsIssued))
	if report.Topology != nil {
		m.GraphDepth.Set(float64(report.Topology.Depth))
	}
}
