package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/alimgiray/giteastats/internal/models"
	"github.com/alimgiray/giteastats/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunLister struct {
	mock.Mock
}

func (m *mockRunLister) ListRecent(limit int) ([]*models.CollectionRun, error) {
	args := m.Called(limit)
	runs, _ := args.Get(0).([]*models.CollectionRun)
	return runs, args.Error(1)
}

func (m *mockRunLister) GetByID(id string) (*models.CollectionRun, error) {
	args := m.Called(id)
	run, _ := args.Get(0).(*models.CollectionRun)
	return run, args.Error(1)
}

func newRunsRouter(lister RunLister) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewRunsHandler(lister)
	router.GET("/api/runs", handler.ListRuns)
	router.GET("/api/runs/:id", handler.GetRun)
	return router
}

func TestListRuns(t *testing.T) {
	run := models.NewCollectionRun(7, false)

	lister := new(mockRunLister)
	lister.On("ListRecent", defaultRunsLimit).Return([]*models.CollectionRun{run}, nil).Once()

	w := perform(newRunsRouter(lister), "/api/runs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), run.ID)
	assert.Contains(t, w.Body.String(), `"enabled":true`)
	lister.AssertExpectations(t)
}

func TestListRunsLimit(t *testing.T) {
	lister := new(mockRunLister)
	lister.On("ListRecent", 5).Return([]*models.CollectionRun{}, nil).Once()

	w := perform(newRunsRouter(lister), "/api/runs?limit=5")
	assert.Equal(t, http.StatusOK, w.Code)
	lister.AssertExpectations(t)

	for _, raw := range []string{"0", "101", "ten"} {
		w = perform(newRunsRouter(lister), "/api/runs?limit="+raw)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
	}
}

func TestListRunsErrors(t *testing.T) {
	lister := new(mockRunLister)
	lister.On("ListRecent", defaultRunsLimit).Return(nil, errors.New("database is locked")).Once()

	w := perform(newRunsRouter(lister), "/api/runs")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "locked")
}

func TestListRunsDisabled(t *testing.T) {
	w := perform(newRunsRouter(nil), "/api/runs")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"enabled":false,"runs":[]}`, w.Body.String())
}

func TestGetRun(t *testing.T) {
	finished := models.NewCollectionRun(7, true)
	finished.MarkFailed(errors.New("unauthorized"))
	running := models.NewCollectionRun(1, false)

	lister := new(mockRunLister)
	lister.On("GetByID", finished.ID).Return(finished, nil)
	lister.On("GetByID", running.ID).Return(running, nil)
	lister.On("GetByID", "missing").Return(nil, sql.ErrNoRows)
	lister.On("GetByID", "broken").Return(nil, errors.New("database is locked"))

	tests := []struct {
		name     string
		id       string
		status   int
		contains []string
	}{
		{name: "Finished run", id: finished.ID, status: http.StatusOK, contains: []string{finished.ID, `"finished":true`, `"status":"failed"`}},
		{name: "Running run", id: running.ID, status: http.StatusOK, contains: []string{`"finished":false`}},
		{name: "Unknown run", id: "missing", status: http.StatusNotFound, contains: []string{"Run not found."}},
		{name: "Storage error", id: "broken", status: http.StatusInternalServerError, contains: []string{"Failed to load run history."}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := perform(newRunsRouter(lister), "/api/runs/"+tc.id)
			assert.Equal(t, tc.status, w.Code)
			for _, want := range tc.contains {
				assert.Contains(t, w.Body.String(), want)
			}
		})
	}
}

func TestGetRunDisabled(t *testing.T) {
	w := perform(newRunsRouter(nil), "/api/runs/anything")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "disabled")
}

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(ctx context.Context) error {
	return p.err
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name   string
		db     Pinger
		status int
	}{
		{name: "No database", db: nil, status: http.StatusOK},
		{name: "Healthy database", db: stubPinger{}, status: http.StatusOK},
		{name: "Broken database", db: stubPinger{err: errors.New("closed")}, status: http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/health", NewHealthHandler(tc.db).Health)

			w := perform(router, "/health")
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestNotFoundServesStaticFiles(t *testing.T) {
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>dashboard</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('app')"), 0o644))

	testCases := []struct {
		name     string
		basePath string
		target   string
		status   int
		contains string
	}{
		{name: "Root index", basePath: "/", target: "/", status: http.StatusOK, contains: "dashboard"},
		{name: "Asset", basePath: "/", target: "/app.js", status: http.StatusOK, contains: "console.log"},
		{name: "Base path index", basePath: "/stats", target: "/stats/", status: http.StatusOK, contains: "dashboard"},
		{name: "Base path asset", basePath: "/stats", target: "/stats/app.js", status: http.StatusOK, contains: "console.log"},
		{name: "Outside base path", basePath: "/stats", target: "/app.js", status: http.StatusNotFound, contains: `"message"`},
		{name: "Missing file", basePath: "/", target: "/missing.css", status: http.StatusNotFound, contains: `"path":"/missing.css"`},
		{name: "Traversal", basePath: "/", target: "/../../etc/passwd", status: http.StatusNotFound, contains: `"message"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.NoRoute(NewNotFoundHandler(dir, tc.basePath).NotFound)

			w := perform(router, tc.target)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.contains)
		})
	}
}

func TestNotFoundWithoutStaticDir(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.NoRoute(NewNotFoundHandler("", "/").NotFound)

	w := perform(router, "/")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotFoundWarnsAboutMissingStaticDir(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })

	missing := filepath.Join(t.TempDir(), "public")
	NewNotFoundHandler(missing, "/")
	assert.Contains(t, logs.String(), "Static directory "+missing+" is not available")

	logs.Reset()
	NewNotFoundHandler(t.TempDir(), "/")
	NewNotFoundHandler("", "/")
	assert.Empty(t, logs.String())
}
