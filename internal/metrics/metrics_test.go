package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.QueriesTotal.WithLabelValues("answer").Inc()
	m.IndexBuilds.WithLabelValues("success").Inc()
	m.CachedHandles.Set(1)
	m.QueryDuration.Observe(0.3)

	if got := testutil.ToFloat64(m.QueriesTotal.WithLabelValues("answer")); got != 1 {
		t.Errorf("expected 1 query, got %v", got)
	}
	if got := testutil.ToFloat64(m.CachedHandles); got != 1 {
		t.Errorf("expected gauge 1, got %v", got)
	}

	n, err := testutil.GatherAndCount(reg)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("expected 4 metric series, got %d", n)
	}
}

func TestNew_NilRegisterer(t *testing.T) {
	m := New(nil)
	m.QueriesTotal.WithLabelValues("query_failure").Inc()
}
