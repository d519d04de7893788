// Package metrics exposes exchange counters as prometheus collectors.
// A nil *Exchange is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fcsim"

// Round summarizes one exchange round for metric purposes.
type Round struct {
	ResourceType string
	Solver       string
	Arcs         int
	Requested    float64
	Unmatched    float64
	TimedOut     bool
	Duration     time.Duration
}

// Exchange holds the exchange collectors.
type Exchange struct {
	rounds        *prometheus.CounterVec
	trades        *prometheus.CounterVec
	tradedQty     *prometheus.CounterVec
	unmatchedQty  *prometheus.CounterVec
	timeouts      *prometheus.CounterVec
	solveDuration *prometheus.HistogramVec
	graphArcs     *prometheus.GaugeVec
}

// NewExchange creates the collectors and registers them on reg.
func NewExchange(reg prometheus.Registerer) (*Exchange, error) {
	m := &Exchange{
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "exchange", Name: "rounds_total",
			Help: "Exchange rounds executed by resource type and solver",
		}, []string{"resource", "solver"}),
		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "exchange", Name: "trades_total",
			Help: "Trades executed by resource type and commodity",
		}, []string{"resource", "commodity"}),
		tradedQty: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "exchange", Name: "traded_quantity_total",
			Help: "Quantity traded by resource type and commodity",
		}, []string{"resource", "commodity"}),
		unmatchedQty: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "exchange", Name: "unmatched_quantity_total",
			Help: "Requested quantity left without supply",
		}, []string{"resource"}),
		timeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "solver", Name: "timeouts_total",
			Help: "Solves that returned their best incumbent at the deadline",
		}, []string{"solver"}),
		solveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "solver", Name: "duration_seconds",
			Help:    "Wall-clock duration of translate, solve and back-translate",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"solver"}),
		graphArcs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "exchange", Name: "graph_arcs",
			Help: "Arcs in the most recent exchange graph",
		}, []string{"resource"}),
	}

	for _, c := range []prometheus.Collector{
		m.rounds, m.trades, m.tradedQty, m.unmatchedQty, m.timeouts, m.solveDuration, m.graphArcs,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering exchange metrics: %w", err)
		}
	}
	return m, nil
}

// ObserveRound records a completed round.
func (m *Exchange) ObserveRound(r Round) {
	if m == nil {
		return
	}
	m.rounds.WithLabelValues(r.ResourceType, r.Solver).Inc()
	m.unmatchedQty.WithLabelValues(r.ResourceType).Add(r.Unmatched)
	m.graphArcs.WithLabelValues(r.ResourceType).Set(float64(r.Arcs))
	m.solveDuration.WithLabelValues(r.Solver).Observe(r.Duration.Seconds())
	if r.TimedOut {
		m.timeouts.WithLabelValues(r.Solver).Inc()
	}
}

// ObserveTrade records one executed trade.
func (m *Exchange) ObserveTrade(resourceType, commodity string, qty float64) {
	if m == nil {
		return
	}
	m.trades.WithLabelValues(resourceType, commodity).Inc()
	m.tradedQty.WithLabelValues(resourceType, commodity).Add(qty)
}

// WriteTextfile writes every metric gathered by g to path in the text
// exposition format, for node-exporter style textfile collection.
func WriteTextfile(g prometheus.Gatherer, path string) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
