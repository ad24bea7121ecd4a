package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alimgiray/giteastats/internal/metrics"
	"github.com/alimgiray/giteastats/internal/models"
	"github.com/alimgiray/giteastats/internal/services"
	"github.com/alimgiray/giteastats/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCollector struct{}

func (stubCollector) CollectActivity(ctx context.Context, days int, allBranches bool) (*models.ActivityReport, error) {
	return &models.ActivityReport{FailedRepositories: []string{}}, nil
}

func newTestRouter(t *testing.T, basePath string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("dashboard"), 0o644))

	router := gin.New()
	setupRoutes(router, config.ServerConfig{BasePath: basePath, StaticDir: dir},
		stubCollector{}, services.NewExportService(), nil, nil, metrics.New())
	return router
}

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", target, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestRoutesAtRoot(t *testing.T) {
	router := newTestRouter(t, "/")

	assert.Equal(t, http.StatusOK, get(router, "/api/stats").Code)
	assert.Equal(t, http.StatusOK, get(router, "/api/repos?days=1").Code)
	assert.Equal(t, http.StatusOK, get(router, "/api/runs").Code)
	assert.Contains(t, get(router, "/api/runs/abc").Body.String(), "Run history is disabled.")
	assert.Equal(t, http.StatusOK, get(router, "/health").Code)
	assert.Equal(t, http.StatusBadRequest, get(router, "/api/stats?days=3").Code)

	w := get(router, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "giteastats_")

	w = get(router, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dashboard")
}

func TestRoutesUnderBasePath(t *testing.T) {
	router := newTestRouter(t, "/activity")

	w := get(router, "/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/activity/", w.Header().Get("Location"))

	assert.Equal(t, http.StatusOK, get(router, "/activity/api/stats").Code)
	assert.Equal(t, http.StatusOK, get(router, "/activity/health").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/api/stats").Code)

	w = get(router, "/activity/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dashboard")
}
