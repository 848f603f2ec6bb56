package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics_IsolatedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.CacheHits.WithLabelValues("market").Inc()
	m.CacheHits.WithLabelValues("market").Inc()
	m.DBQueryErrors.WithLabelValues("postgres", "insert").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheHits.WithLabelValues("market")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("postgres", "insert")))

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRecordHelpers(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "helper_test"))
	RecordDBQuery("postgres", "helper_test", 10*time.Millisecond, errors.New("boom"))
	RecordDBQuery("postgres", "helper_test", 10*time.Millisecond, nil)
	after := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "helper_test"))
	assert.Equal(t, before+1, after)

	hitsBefore := testutil.ToFloat64(DefaultMetrics.CacheMisses.WithLabelValues("helper_test"))
	RecordCacheLookup("helper_test", false)
	assert.Equal(t, hitsBefore+1, testutil.ToFloat64(DefaultMetrics.CacheMisses.WithLabelValues("helper_test")))
}
