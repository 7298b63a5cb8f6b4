package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue sums every series of the named counter family.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	// Two instances on separate registries must not collide.
	regA := prometheus.NewRegistry()
	regB := prometheus.NewRegistry()
	a := NewMetrics("", regA)
	b := NewMetrics("", regB)

	a.RecordMutation("insert", nil)
	a.RecordMutation("insert", errors.New("duplicate"))
	b.RecordMutation("insert", nil)

	assert.Equal(t, 2.0, counterValue(t, regA, "unicorn_dashboard_store_mutations_total"))
	assert.Equal(t, 1.0, counterValue(t, regB, "unicorn_dashboard_store_mutations_total"))
}

func TestObserveDerivation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.ObserveDerivation("kpi_summary", false, time.Millisecond)
	m.ObserveDerivation("kpi_summary", true, 0)
	m.ObserveDerivation("kpi_summary", true, 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	got := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "test_derivation_computations_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "cache" {
					got[lp.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"hit": 2, "miss": 1}, got)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDerivation("x", false, time.Second)
		m.RecordMutation("insert", nil)
		m.UpdateStore(1, 1)
		m.RecordFilterChange("breed", nil)
		m.UpdateActivity(3)
		m.RecordFeedMessage("listing", time.Millisecond)
		m.RecordFeedReconnect()
		m.RecordImport("postgres", "unicorn", nil)
		m.RecordDBQuery("postgres", "list", 0.1, nil)
		m.RecordHTTPRequest("GET", "/api/page", 200)
		m.RecordReport(time.Now())
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)
	m.UpdateStore(60, 4)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "test_store_population 60"), body)
	assert.True(t, strings.Contains(body, "test_store_version 4"), body)
}
