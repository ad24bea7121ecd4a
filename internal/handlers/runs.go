package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/alimgiray/giteastats/internal/models"
	"github.com/alimgiray/giteastats/pkg/logger"
	"github.com/gin-gonic/gin"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// RunLister reads the collection run history
type RunLister interface {
	ListRecent(limit int) ([]*models.CollectionRun, error)
	GetByID(id string) (*models.CollectionRun, error)
}

type RunsHandler struct {
	runs RunLister
}

// NewRunsHandler creates a runs handler. A nil lister means run history is
// disabled.
func NewRunsHandler(runs RunLister) *RunsHandler {
	return &RunsHandler{runs: runs}
}

// ListRuns returns the most recent collection runs
func (h *RunsHandler) ListRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxRunsLimit {
			c.JSON(http.StatusBadRequest, gin.H{"message": "limit must be between 1 and " + strconv.Itoa(maxRunsLimit)})
			return
		}
		limit = parsed
	}

	if h.runs == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false, "runs": []*models.CollectionRun{}})
		return
	}

	runs, err := h.runs.ListRecent(limit)
	if err != nil {
		logger.WithError(err).Error("Failed to list collection runs")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load run history."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"enabled": true, "runs": runs})
}

// GetRun returns a single collection run
func (h *RunsHandler) GetRun(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Run history is disabled."})
		return
	}

	id := c.Param("id")
	run, err := h.runs.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Run not found."})
		return
	}
	if err != nil {
		logger.WithField("run_id", id).WithError(err).Error("Failed to load collection run")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load run history."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"run": run, "finished": run.IsFinished()})
}
