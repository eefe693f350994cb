// Package metrics provides the server's optional Prometheus
// instrumentation, grounded on dittofs's pkg/metrics recorder-interface
// pattern (pkg/metrics/nfs.go): callers hold a Recorder interface and use
// Disabled to turn metrics off with zero overhead, rather than threading a
// concrete Prometheus type through every package.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Disabled is a Recorder backed by a nil *prom; every method is a no-op.
// Use it (rather than a bare nil Recorder, which panics on method call)
// when metrics collection is turned off.
var Disabled Recorder = (*prom)(nil)

// Recorder observes connection and command lifecycle events. Use
// Disabled, not a bare nil, to turn off collection with zero overhead.
type Recorder interface {
	ConnectionAccepted()
	ConnectionClosed()
	ActiveConnections(n int)
	CommandHandled(command string, status string, duration time.Duration)
	BytesTransferred(direction string, n int64)
	NotifyListenersActive(n int)
}

// prom is the Prometheus-backed Recorder implementation.
type prom struct {
	connectionsAccepted prometheus.Counter
	connectionsClosed   prometheus.Counter
	activeConnections   prometheus.Gauge
	commandDuration     *prometheus.HistogramVec
	commandTotal        *prometheus.CounterVec
	bytesTransferred    *prometheus.CounterVec
	notifyListeners     prometheus.Gauge
}

// New registers the server's metric family against reg and returns a
// Recorder. Pass a dedicated *prometheus.Registry (not the global default)
// so repeated server construction in tests never panics on duplicate
// registration.
func New(reg prometheus.Registerer) Recorder {
	factory := promauto.With(reg)
	return &prom{
		connectionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "smb1d_connections_accepted_total",
			Help: "Total TCP connections accepted by the SMB1 server.",
		}),
		connectionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "smb1d_connections_closed_total",
			Help: "Total TCP connections closed.",
		}),
		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "smb1d_active_connections",
			Help: "Currently open SMB1 connections.",
		}),
		commandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smb1d_command_duration_seconds",
			Help:    "SMB1 command handling latency by command and outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"command", "status"}),
		commandTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smb1d_commands_total",
			Help: "Total SMB1 commands handled, by command and outcome.",
		}, []string{"command", "status"}),
		bytesTransferred: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smb1d_bytes_transferred_total",
			Help: "Bytes transferred over SMB1 connections, by direction.",
		}, []string{"direction"}),
		notifyListeners: factory.NewGauge(prometheus.GaugeOpts{
			Name: "smb1d_notify_listeners_active",
			Help: "Active NT_TRANSACT_NOTIFY_CHANGE listeners.",
		}),
	}
}

func (m *prom) ConnectionAccepted() {
	if m == nil {
		return
	}
	m.connectionsAccepted.Inc()
}

func (m *prom) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connectionsClosed.Inc()
}

func (m *prom) ActiveConnections(n int) {
	if m == nil {
		return
	}
	m.activeConnections.Set(float64(n))
}

func (m *prom) CommandHandled(command, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.commandTotal.WithLabelValues(command, status).Inc()
	m.commandDuration.WithLabelValues(command, status).Observe(duration.Seconds())
}

func (m *prom) BytesTransferred(direction string, n int64) {
	if m == nil {
		return
	}
	m.bytesTransferred.WithLabelValues(direction).Add(float64(n))
}

func (m *prom) NotifyListenersActive(n int) {
	if m == nil {
		return
	}
	m.notifyListeners.Set(float64(n))
}
