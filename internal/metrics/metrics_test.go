package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	req := require.New(t)
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Sessions.Inc()
	m.Inbound.WithLabelValues("send_message").Add(2)
	m.Evictions.Inc()

	req.Equal(1.0, testutil.ToFloat64(m.Sessions))
	req.Equal(2.0, testutil.ToFloat64(m.Inbound.WithLabelValues("send_message")))
	req.Equal(1.0, testutil.ToFloat64(m.Evictions))

	families, err := reg.Gather()
	req.NoError(err)
	req.NotEmpty(families)
}

func TestNewWithoutRegistry(t *testing.T) {
	require.NotPanics(t, func() {
		New(nil)
		New(nil)
	})
}
