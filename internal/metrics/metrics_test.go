package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Mutation("transactions", "add")
	m.Mutation("transactions", "add")
	m.Reconciled("apply", "missed")
	m.PersistFailed("products")

	body := scrape(t, m)
	assert.Contains(t, body, `ledger_mutations_total{collection="transactions",op="add"} 2`)
	assert.Contains(t, body, `ledger_reconciliations_total{direction="apply",outcome="missed"} 1`)
	assert.Contains(t, body, `ledger_persist_failures_total{key="products"} 1`)
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestNilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Mutation("contacts", "delete")
		m.Reconciled("reverse", "adjusted")
		m.PersistFailed("risk")
		m.AnalysisFinished("risk", "success", 1.5)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.AnalysisFinished("risk", "success", 2)

	body := scrape(t, m)
	assert.True(t, strings.Contains(body, `ledger_analyses_total{kind="risk",result="success"} 1`))
	assert.True(t, strings.Contains(body, "ledger_analysis_duration_seconds_count"))
}
