package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alimgiray/giteastats/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), RequestLogger())

	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": GetRequestID(c)})
	})
	router.GET("/fail", func(c *gin.Context) {
		c.JSON(http.StatusBadGateway, gin.H{"message": "upstream"})
	})
	return router
}

func TestRequestIDGenerated(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Contains(t, w.Body.String(), id)
}

func TestRequestIDPropagated(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, "caller-id-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, "caller-id-1", w.Header().Get(RequestIDHeader))
}

func TestRequestLoggerWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(io.Discard)

	router := newTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/fail", nil)
	req.Header.Set(RequestIDHeader, "abc")
	router.ServeHTTP(w, req)

	line := buf.String()
	assert.Contains(t, line, `"request_id":"abc"`)
	assert.Contains(t, line, `"status":502`)
	assert.Contains(t, line, `"path":"/fail"`)
	assert.Contains(t, line, "Request failed")
}
