package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("render_pages", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("render_pages", ResultSuccess)
	pr.IncBuildOutcome(BuildOutcomeWarning)
	pr.IncPageResult(ResultSuccess)
	pr.IncPageResult(ResultSuccess)
	pr.IncPageResult(ResultFailed)
	pr.AddBrokenLinks(3)
	pr.AddBrokenLinks(0)
	pr.AddAnchorIssues("anchor_not_found", 2)
	pr.SetRenderConcurrency(4)

	assert.InDelta(t, 2, testutil.ToFloat64(pr.pageResults.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.pageResults.WithLabelValues("failed")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(pr.brokenLinks), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(pr.anchorIssues.WithLabelValues("anchor_not_found")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(pr.renderConcurrency), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncPageResult(ResultSuccess)
		pr.AddBrokenLinks(1)
		pr.ObserveBuildDuration(time.Second)
	})
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.AddBrokenLinks(1)
	path := filepath.Join(t.TempDir(), "docsite.prom")

	require.NoError(t, pr.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "docsite_broken_links_total 1")
}

func TestPrometheusRecorder_HTTPHandler(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncBuildOutcome(BuildOutcomeSuccess)

	rec := httptest.NewRecorder()
	pr.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `docsite_build_outcomes_total{outcome="success"} 1`)
}
