package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/alimgiray/giteastats/pkg/logger"
	"github.com/gin-gonic/gin"
)

// NotFoundHandler serves the dashboard's static files for routes no API
// handler claimed, and a JSON 404 for everything else
type NotFoundHandler struct {
	staticDir string
	basePath  string
}

func NewNotFoundHandler(staticDir, basePath string) *NotFoundHandler {
	if staticDir != "" {
		if info, err := os.Stat(staticDir); err != nil || !info.IsDir() {
			logger.Warnf("Static directory %s is not available, unknown routes get JSON 404s", staticDir)
		}
	}

	return &NotFoundHandler{
		staticDir: staticDir,
		basePath:  basePath,
	}
}

// NotFound handles requests for non-existent routes
func (h *NotFoundHandler) NotFound(c *gin.Context) {
	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
		if file, ok := h.resolve(c.Request.URL.Path); ok {
			c.File(file)
			return
		}
	}

	c.JSON(http.StatusNotFound, gin.H{
		"message": "Not found",
		"path":    c.Request.URL.Path,
	})
}

// resolve maps a request path below the base path to a file in the static
// directory. Directories resolve to their index.html.
func (h *NotFoundHandler) resolve(requestPath string) (string, bool) {
	if h.staticDir == "" {
		return "", false
	}

	if h.basePath != "" && h.basePath != "/" {
		if requestPath != h.basePath && !strings.HasPrefix(requestPath, h.basePath+"/") {
			return "", false
		}
		requestPath = strings.TrimPrefix(requestPath, h.basePath)
	}

	// Clean against the root so ".." can never leave the static directory
	rel := path.Clean("/" + requestPath)
	full := filepath.Join(h.staticDir, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		full = filepath.Join(full, "index.html")
		info, err = os.Stat(full)
	}
	if err != nil || info.IsDir() {
		return "", false
	}

	return full, true
}
