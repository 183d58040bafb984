// Package metrics exposes Prometheus instrumentation for the pool and
// session layers: connection occupancy gauges and query/record counters,
// please read @spec section 4.8's ambient observability note.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	PoolConnectionsInUse = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "boltclient",
		Subsystem: "pool",
		Name:      "connections_in_use",
		Help:      "Connections currently checked out of the pool.",
	})
	PoolConnectionsIdle = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "boltclient",
		Subsystem: "pool",
		Name:      "connections_idle",
		Help:      "Connections sitting idle in the pool.",
	})

	QueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "boltclient",
		Name:      "queries_total",
		Help:      "Queries run, partitioned by outcome.",
	}, []string{"outcome"})

	RecordsPulled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "boltclient",
		Name:      "records_pulled_total",
		Help:      "RECORD messages accumulated across every PULL.",
	})
)

func init() {
	prometheus.MustRegister(PoolConnectionsInUse, PoolConnectionsIdle, QueriesTotal, RecordsPulled)
}

// PoolStatter is satisfied by *pool.Manager; kept as an interface here so
// metrics does not need to import pool.
type PoolStatter interface {
	Stats() (inUse, idle int)
}

// SamplePool starts a goroutine copying p.Stats() into the pool gauges
// every interval, stopping when ctx is done. The sampling-loop shape is
// grounded on kxps's krps.Start(): a single ticking goroutine re-reading
// the source on every tick rather than on every pool event.
func SamplePool(ctx context.Context, p PoolStatter, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				inUse, idle := p.Stats()
				PoolConnectionsInUse.Set(float64(inUse))
				PoolConnectionsIdle.Set(float64(idle))
			}
		}
	}()
}

// ObserveQuery records one completed query's outcome.
func ObserveQuery(succeeded bool) {
	if succeeded {
		QueriesTotal.WithLabelValues("success").Inc()
		return
	}
	QueriesTotal.WithLabelValues("failure").Inc()
}

// ObserveRecords adds n to the running RECORD count.
func ObserveRecords(n int) {
	RecordsPulled.Add(float64(n))
}
