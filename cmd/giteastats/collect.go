package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alimgiray/giteastats/internal/gitea"
	"github.com/alimgiray/giteastats/internal/models"
	"github.com/alimgiray/giteastats/internal/repositories"
	"github.com/alimgiray/giteastats/internal/services"
	"github.com/alimgiray/giteastats/pkg/config"
	"github.com/alimgiray/giteastats/pkg/database"
	"github.com/alimgiray/giteastats/pkg/logger"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errRecordWithoutDatabase = errors.New("--record needs DB_PATH to name the run history database")

// collectCommand holds the flags of the collect command
type collectCommand struct {
	days        int
	allBranches bool
	output      string
	jsonOutput  bool
	record      bool
}

func newCollectCommand() *cobra.Command {
	cc := &collectCommand{}

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect activity and print it",
		Long: `Collect commit activity for a trailing window and print user and
repository tables. Use --output to write an Excel workbook instead, or --json
for the same document the HTTP API returns.`,
		Args: cobra.NoArgs,
		RunE: cc.run,
	}

	cmd.Flags().IntVarP(&cc.days, "days", "d", services.DefaultWindowDays, "window size in days (1, 7, 15 or 30)")
	cmd.Flags().BoolVar(&cc.allBranches, "all-branches", false, "include every branch instead of the default branch only")
	cmd.Flags().StringVarP(&cc.output, "output", "o", "", "write an xlsx workbook to this file")
	cmd.Flags().BoolVar(&cc.jsonOutput, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&cc.record, "record", false, "store the run in the run history database (DB_PATH)")
	cmd.MarkFlagsMutuallyExclusive("output", "json")

	return cmd
}

func (cc *collectCommand) run(cmd *cobra.Command, _ []string) error {
	days, err := services.ParseWindowDays(strconv.Itoa(cc.days))
	if err != nil {
		return err
	}

	if err := config.Load(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.AppConfig

	// Keep stdout for the report
	logger.Init(cfg.Log.Level)
	logger.SetOutput(cmd.ErrOrStderr())

	client, err := gitea.NewClientFromConfig(cfg.Gitea)
	if err != nil {
		return fmt.Errorf("failed to create Gitea client: %w", err)
	}

	runStore, err := cc.openRunStore(cfg.Database)
	if err != nil {
		return err
	}
	if runStore != nil {
		defer database.Close()
	}

	ctx, stop := signal.NotifyContext(runContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service := services.NewActivityService(client, cfg.Collector, runStore, nil)
	report, err := service.CollectActivity(ctx, days, cc.allBranches)
	if err != nil {
		return err
	}

	return cc.write(cmd.OutOrStdout(), report, days, time.Now())
}

// openRunStore opens the run history database when --record is set
func (cc *collectCommand) openRunStore(cfg config.DatabaseConfig) (services.RunStore, error) {
	if !cc.record {
		return nil, nil
	}
	if cfg.Path == "" {
		return nil, errRecordWithoutDatabase
	}

	if err := database.Init(cfg.Path); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return repositories.NewRunRepository(database.DB), nil
}

func (cc *collectCommand) write(out io.Writer, report *models.ActivityReport, days int, now time.Time) error {
	switch {
	case cc.output != "":
		return writeWorkbookFile(cc.output, report)
	case cc.jsonOutput:
		return writeJSON(out, report, days, cc.allBranches, now)
	default:
		renderReport(out, report, days, cc.allBranches, now)
		return nil
	}
}

func writeWorkbookFile(path string, report *models.ActivityReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := services.NewExportService().WriteWorkbook(f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(out io.Writer, report *models.ActivityReport, days int, allBranches bool, now time.Time) error {
	document := map[string]interface{}{
		"generatedAt":        now.UTC().Format(time.RFC3339),
		"days":               days,
		"allBranches":        allBranches,
		"users":              report.Users,
		"repos":              report.Repos,
		"truncated":          report.Truncated,
		"failedRepositories": report.FailedRepositories,
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(document)
}

// runContext is the context used by cobra when none was set
func runContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
