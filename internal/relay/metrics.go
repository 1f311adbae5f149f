package relay

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// Metrics holds relay counters served as JSON on /metrics.
type Metrics struct {
	activeConns   atomic.Int64
	joins         atomic.Uint64
	eventsRelayed atomic.Uint64
	eventsDropped atomic.Uint64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncConn() {
	m.activeConns.Add(1)
}

func (m *Metrics) DecConn() {
	m.activeConns.Add(-1)
}

func (m *Metrics) IncJoin() {
	m.joins.Add(1)
}

func (m *Metrics) IncRelayed() {
	m.eventsRelayed.Add(1)
}

func (m *Metrics) IncDropped() {
	m.eventsDropped.Add(1)
}

func (m *Metrics) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{
		"active_connections": m.activeConns.Load(),
		"joins_total":        m.joins.Load(),
		"events_relayed":     m.eventsRelayed.Load(),
		"events_dropped":     m.eventsDropped.Load(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
