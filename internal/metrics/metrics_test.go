package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNew_RegistersAllCollectorsOnDedicatedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	collectors := New(registry)

	collectors.RouteDecisions.WithLabelValues("load-assets", "load-asset", "allow").Inc()
	collectors.QueueDepth.WithLabelValues("peer-1").Set(3)
	collectors.ClockSkewSec.Observe(0.08)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("unexpected error gathering metrics: %v", err)
	}
	if len(families) != 3 {
		t.Fatalf("expected 3 registered metric families, got %d", len(families))
	}
}

func TestNoop_CollectorsAreSafeToCallWithoutARegistry(t *testing.T) {
	collectors := Noop()
	collectors.RouteDecisions.WithLabelValues("a", "b", "c").Inc()
	collectors.QueueDepth.WithLabelValues("peer-1").Set(1)
	collectors.ClockSkewSec.Observe(0.01)
}
