package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alimgiray/giteastats/internal/models"
	"github.com/alimgiray/giteastats/internal/services"
	"github.com/alimgiray/giteastats/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ActivityCollector runs one activity collection
type ActivityCollector interface {
	CollectActivity(ctx context.Context, days int, allBranches bool) (*models.ActivityReport, error)
}

// WorkbookWriter renders a report as a spreadsheet
type WorkbookWriter interface {
	WriteWorkbook(w io.Writer, report *models.ActivityReport) error
}

type StatsHandler struct {
	collector ActivityCollector
	exporter  WorkbookWriter
}

func NewStatsHandler(collector ActivityCollector, exporter WorkbookWriter) *StatsHandler {
	return &StatsHandler{
		collector: collector,
		exporter:  exporter,
	}
}

type statsQuery struct {
	Days        int
	AllBranches bool
}

// GetStats returns per-user and per-repository activity
func (h *StatsHandler) GetStats(c *gin.Context) {
	query, ok := parseStatsQuery(c)
	if !ok {
		return
	}

	report, ok := h.collect(c, query, "Failed to collect activity statistics from Gitea.")
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"generatedAt":        time.Now().UTC().Format(time.RFC3339),
		"days":               query.Days,
		"allBranches":        query.AllBranches,
		"users":              report.Users,
		"repos":              report.Repos,
		"truncated":          report.Truncated,
		"failedRepositories": report.FailedRepositories,
	})
}

// GetRepos returns per-repository activity only
func (h *StatsHandler) GetRepos(c *gin.Context) {
	query, ok := parseStatsQuery(c)
	if !ok {
		return
	}

	report, ok := h.collect(c, query, "Failed to collect repository statistics from Gitea.")
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"generatedAt":        time.Now().UTC().Format(time.RFC3339),
		"days":               query.Days,
		"allBranches":        query.AllBranches,
		"repos":              report.Repos,
		"truncated":          report.Truncated,
		"failedRepositories": report.FailedRepositories,
	})
}

// ExportStats returns the activity report as an xlsx attachment
func (h *StatsHandler) ExportStats(c *gin.Context) {
	query, ok := parseStatsQuery(c)
	if !ok {
		return
	}

	report, ok := h.collect(c, query, "Failed to collect activity statistics from Gitea.")
	if !ok {
		return
	}

	// Rendered before anything is sent so failures still produce JSON
	var buf bytes.Buffer
	if err := h.exporter.WriteWorkbook(&buf, report); err != nil {
		logger.WithError(err).Error("Failed to generate workbook")
		c.JSON(http.StatusBadGateway, gin.H{"message": "Failed to generate the Excel report."})
		return
	}

	filename := services.ExportFilename(query.Days, query.AllBranches)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, services.XLSXContentType, buf.Bytes())
}

func (h *StatsHandler) collect(c *gin.Context, query statsQuery, failureMessage string) (*models.ActivityReport, bool) {
	// Runs complete even when the client disconnects
	ctx := context.WithoutCancel(c.Request.Context())

	report, err := h.collector.CollectActivity(ctx, query.Days, query.AllBranches)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"days":         query.Days,
			"all_branches": query.AllBranches,
		}).WithError(err).Error("Failed to collect stats")
		c.JSON(http.StatusBadGateway, gin.H{"message": failureMessage})
		return nil, false
	}
	return report, true
}

func parseStatsQuery(c *gin.Context) (statsQuery, bool) {
	days, err := services.ParseWindowDays(c.Query("days"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return statsQuery{}, false
	}

	return statsQuery{
		Days:        days,
		AllBranches: services.ParseAllBranches(c.Query("allBranches")),
	}, true
}
