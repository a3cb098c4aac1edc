// Package metrics wires command and replication counters into
// prometheus/client_golang, the way canonical-redis_exporter instruments
// a Redis-adjacent process. On is the runtime gate (mirrors the teacher's
// prom.On switch in proto/batch.go) so handlers can skip the label-set
// construction entirely when no --metrics-addr was given.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// On is toggled by Listen; CommandDone and CommandError check it before
// recording.
var On bool

var (
	commandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "redisfs",
		Subsystem: "command",
		Name:      "duration_seconds",
		Help:      "Time spent executing a single command.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"cmd"})

	commandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "redisfs",
		Subsystem: "command",
		Name:      "errors_total",
		Help:      "Number of commands that returned a wire-level error.",
	}, []string{"cmd"})

	connectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "redisfs",
		Name:      "connected_clients",
		Help:      "Currently open client connections.",
	})

	connectedReplicas = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "redisfs",
		Name:      "connected_replicas",
		Help:      "Currently registered replica links.",
	})

	replOffset = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "redisfs",
		Name:      "replication_offset",
		Help:      "Current master_repl_offset (master) or applied offset (replica).",
	})
)

func init() {
	prometheus.MustRegister(commandDuration, commandErrors, connectedClients, connectedReplicas, replOffset)
}

// Listen starts the /metrics HTTP endpoint in the background and flips On.
// Passing an empty addr is a no-op: the server runs unobserved.
func Listen(addr string) {
	if addr == "" {
		return
	}
	On = true
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(addr, mux) //nolint:errcheck
}

// CommandDone records the latency of a single command execution.
func CommandDone(cmd string, start time.Time) {
	if !On {
		return
	}
	commandDuration.WithLabelValues(cmd).Observe(time.Since(start).Seconds())
}

// CommandError increments the error counter for cmd.
func CommandError(cmd string) {
	if !On {
		return
	}
	commandErrors.WithLabelValues(cmd).Inc()
}

// ClientConnected/ClientDisconnected track the connected_clients gauge.
func ClientConnected()    { connectedClients.Inc() }
func ClientDisconnected() { connectedClients.Dec() }

// ReplicaRegistered/ReplicaRemoved track the connected_replicas gauge.
func ReplicaRegistered() { connectedReplicas.Inc() }
func ReplicaRemoved()    { connectedReplicas.Dec() }

// SetReplOffset publishes the current offset gauge.
func SetReplOffset(v int64) {
	replOffset.Set(float64(v))
}
