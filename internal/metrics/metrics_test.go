package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestDisabled_AllMethodsAreNilSafe(t *testing.T) {
	// Disabled wraps a nil *prom; every method must be safe to call.
	Disabled.ConnectionAccepted()
	Disabled.ConnectionClosed()
	Disabled.ActiveConnections(5)
	Disabled.CommandHandled("negotiate", "success", time.Millisecond)
	Disabled.BytesTransferred("read", 128)
	Disabled.NotifyListenersActive(2)
}

func TestNew_RegistersAndRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ConnectionAccepted()
	m.ConnectionAccepted()
	m.ActiveConnections(3)
	m.CommandHandled("echo", "success", 2*time.Millisecond)
	m.BytesTransferred("write", 64)

	require.Equal(t, float64(2), counterValue(t, reg, "smb1d_connections_accepted_total"))
	require.Equal(t, float64(3), gaugeValue(t, reg, "smb1d_active_connections"))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return sumMetrics(f.GetMetric(), func(m *dto.Metric) float64 { return m.GetCounter().GetValue() })
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return sumMetrics(f.GetMetric(), func(m *dto.Metric) float64 { return m.GetGauge().GetValue() })
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func sumMetrics(metrics []*dto.Metric, value func(*dto.Metric) float64) float64 {
	var total float64
	for _, m := range metrics {
		total += value(m)
	}
	return total
}
