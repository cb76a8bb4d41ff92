package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorMetrics_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewGeneratorMetrics(reg)

	m.ObserveRun("schedule", OutcomeSuccess, 150*time.Millisecond)
	m.ObserveRun("manual", OutcomeSkipped, 0)
	m.AddCreated(8)
	m.AddCreated(0)
	m.AddDuplicates(3)
	m.IncInvalidTemplate()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("schedule", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("manual", OutcomeSkipped)))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.slotsCreated))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.duplicates))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invalidTemplates))
	assert.Equal(t, 1, testutil.CollectAndCount(m.runDuration))
}

func TestGeneratorMetrics_NilSafe(t *testing.T) {
	var m *GeneratorMetrics
	m.ObserveRun("schedule", OutcomeFailed, time.Second)
	m.AddCreated(1)
	m.AddDuplicates(1)
	m.IncInvalidTemplate()
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewGeneratorMetrics(reg)
	m.AddCreated(2)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), "nobat_slotgen_slots_created_total 2"))
}
