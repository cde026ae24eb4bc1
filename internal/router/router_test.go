package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksumesh431/new-relic-graphql/internal/app"
	"github.com/ksumesh431/new-relic-graphql/internal/metrics"
	"github.com/ksumesh431/new-relic-graphql/internal/report"
)

type fakeExporter struct {
	err     error
	last    *report.Summary
	running bool
	calls   atomic.Int32
}

func (f *fakeExporter) Export(context.Context) (report.Summary, error) {
	f.calls.Add(1)
	if f.err != nil {
		return report.Summary{}, f.err
	}
	return report.Summary{RunID: "20260101T000000Z", Rows: map[string]int{"workflows_with_channels": 3}}, nil
}

func (f *fakeExporter) Enrich(ctx context.Context) (report.Summary, error) { return f.Export(ctx) }

func (f *fakeExporter) LastSummary() (report.Summary, bool) {
	if f.last == nil {
		return report.Summary{}, false
	}
	return *f.last, true
}

func (f *fakeExporter) Running() bool { return f.running }

func serve(t *testing.T, exp *fakeExporter, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	engine := NewEngine(NewExportHandler(exp, nil), metrics.NewRecorder(false).Gatherer())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	engine.ServeHTTP(w, req)
	return w
}

func TestExportReturnsSummary(t *testing.T) {
	w := serve(t, &fakeExporter{}, http.MethodPost, "/api/v1/exports")
	require.Equal(t, http.StatusOK, w.Code)

	var got report.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "20260101T000000Z", got.RunID)
	assert.Equal(t, 3, got.Rows["workflows_with_channels"])
}

func TestExportErrorStatuses(t *testing.T) {
	cases := map[string]struct {
		err  error
		code int
	}{
		"running": {app.ErrExportRunning, http.StatusConflict},
		"fetch":   {&app.StageError{Stage: app.StageFetch, Err: errors.New("502 upstream")}, http.StatusBadGateway},
		"write":   {&app.StageError{Stage: app.StageWrite, Err: errors.New("disk full")}, http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := serve(t, &fakeExporter{err: tc.err}, http.MethodPost, "/api/v1/exports")
			assert.Equal(t, tc.code, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestAsyncExport(t *testing.T) {
	exp := &fakeExporter{}
	w := serve(t, exp, http.MethodPost, "/api/v1/exports/enrich?async=true")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Eventually(t, func() bool { return exp.calls.Load() == 1 }, time.Second, 10*time.Millisecond)

	w = serve(t, &fakeExporter{running: true}, http.MethodPost, "/api/v1/exports?async=true")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLatest(t *testing.T) {
	w := serve(t, &fakeExporter{}, http.MethodGet, "/api/v1/exports/latest")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, &fakeExporter{last: &report.Summary{RunID: "r1"}}, http.MethodGet, "/api/v1/exports/latest")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"run_id":"r1"`)
}

func TestHealthAndMetrics(t *testing.T) {
	w := serve(t, &fakeExporter{}, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, &fakeExporter{}, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "nrexport_join_ambiguities_total"))
}
