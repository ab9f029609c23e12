// internal/api/system_handler_test.go
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"wastewise/internal/common/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(_ context.Context) error {
	return f.err
}

func serveReady(t *testing.T, handler *SystemHandler) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ready", handler.Ready)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	return w
}

// ==========================
// Readiness Tests
// ==========================

func TestReady_AllDependenciesUp(t *testing.T) {
	handler := NewSystemHandler([]ReadinessCheck{
		{Name: "postgres", Pinger: fakePinger{}},
		{Name: "redis", Pinger: fakePinger{}},
		{Name: "elasticsearch", Pinger: fakePinger{}},
	}, 120, "wastecast-v2", "test", logger.NewTestLogger(t))

	w := serveReady(t, handler)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ready"`)
	assert.Contains(t, w.Body.String(), `"postgres":"ok"`)
}

func TestReady_DependencyDown(t *testing.T) {
	handler := NewSystemHandler([]ReadinessCheck{
		{Name: "postgres", Pinger: fakePinger{}},
		{Name: "redis", Pinger: fakePinger{err: assert.AnError}},
	}, 120, "wastecast-v2", "test", logger.NewTestLogger(t))

	w := serveReady(t, handler)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	assert.Contains(t, w.Body.String(), `"postgres":"ok"`)
	assert.Contains(t, w.Body.String(), "down")
}

func TestReady_EmptyCatalogIsDegraded(t *testing.T) {
	handler := NewSystemHandler(nil, 0, "wastecast-v2", "test", logger.NewTestLogger(t))

	w := serveReady(t, handler)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}

func TestReady_MissingModelIsDegraded(t *testing.T) {
	handler := NewSystemHandler(nil, 120, "", "test", logger.NewTestLogger(t))

	w := serveReady(t, handler)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
