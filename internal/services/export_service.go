package services

import (
	"fmt"
	"io"
	"time"

	"github.com/alimgiray/giteastats/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	UsersSheet        = "Users"
	RepositoriesSheet = "Repositories"

	// XLSXContentType is the MIME type of the exported workbook
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type column struct {
	header string
	width  float64
}

var userColumns = []column{
	{"Username", 24},
	{"Display name", 32},
	{"Commits", 12},
	{"Lines changed", 18},
	{"Repositories", 14},
	{"Last activity", 22},
}

var repoColumns = []column{
	{"Repository", 36},
	{"Commits", 12},
	{"Lines changed", 18},
	{"Contributors", 16},
	{"Last activity", 22},
}

// ExportService renders activity reports as spreadsheets
type ExportService struct {
	now func() time.Time
}

// NewExportService creates a new export service
func NewExportService() *ExportService {
	return &ExportService{now: time.Now}
}

// ExportFilename names the workbook for a window and branch mode
func ExportFilename(days int, allBranches bool) string {
	suffix := "default-branch"
	if allBranches {
		suffix = "all-branches"
	}
	return fmt.Sprintf("activity-%dd-%s.xlsx", days, suffix)
}

// WriteWorkbook writes report to w as an xlsx workbook with one sheet for
// users and one for repositories
func (s *ExportService) WriteWorkbook(w io.Writer, report *models.ActivityReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetDocProps(&excelize.DocProperties{
		Creator: "giteastats",
		Created: s.now().UTC().Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("failed to set workbook properties: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", UsersSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeSheetHeader(f, UsersSheet, userColumns, headerStyle); err != nil {
		return err
	}
	for i, user := range report.Users {
		row := []interface{}{
			user.Username,
			user.DisplayName,
			user.Commits,
			user.LinesChanged,
			user.Repositories,
			dateCell(user.LastActivity),
		}
		if err := writeSheetRow(f, UsersSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(RepositoriesSheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", RepositoriesSheet, err)
	}
	if err := writeSheetHeader(f, RepositoriesSheet, repoColumns, headerStyle); err != nil {
		return err
	}
	for i, repo := range report.Repos {
		row := []interface{}{
			repo.FullName,
			repo.Commits,
			repo.LinesChanged,
			repo.Contributors,
			dateCell(repo.LastActivity),
		}
		if err := writeSheetRow(f, RepositoriesSheet, i+2, row); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheetHeader(f *excelize.File, sheet string, columns []column, style int) error {
	headers := make([]interface{}, len(columns))
	for i, c := range columns {
		headers[i] = c.header

		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, c.width); err != nil {
			return fmt.Errorf("failed to set column width on %s: %w", sheet, err)
		}
	}

	if err := writeSheetRow(f, sheet, 1, headers); err != nil {
		return err
	}

	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header on %s: %w", sheet, err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d on %s: %w", row, sheet, err)
	}
	return nil
}

// dateCell returns a value excelize stores as a date, or nil for a blank cell
func dateCell(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
