package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alimgiray/giteastats/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderReport prints the user and repository tables of a report
func renderReport(out io.Writer, report *models.ActivityReport, days int, allBranches bool, now time.Time) {
	mode := "default branch"
	if allBranches {
		mode = "all branches"
	}
	fmt.Fprintf(out, "Activity for the last %d days (%s)\n\n", days, mode)

	users := newTable(out, "Users")
	users.AppendHeader(table.Row{"Username", "Display name", "Commits", "Lines changed", "Repositories", "Last activity"})
	totalCommits := 0
	for _, user := range report.Users {
		users.AppendRow(table.Row{
			user.Username,
			user.DisplayName,
			user.Commits,
			humanize.Comma(int64(user.LinesChanged)),
			user.Repositories,
			lastActivity(user.LastActivity, now),
		})
		totalCommits += user.Commits
	}
	users.AppendFooter(table.Row{fmt.Sprintf("Total: %d users", len(report.Users)), "", totalCommits})
	users.Render()
	fmt.Fprintln(out)

	repos := newTable(out, "Repositories")
	repos.AppendHeader(table.Row{"Repository", "Commits", "Lines changed", "Contributors", "Last activity"})
	for _, repo := range report.Repos {
		repos.AppendRow(table.Row{
			repo.FullName,
			repo.Commits,
			humanize.Comma(int64(repo.LinesChanged)),
			repo.Contributors,
			lastActivity(repo.LastActivity, now),
		})
	}
	repos.AppendFooter(table.Row{fmt.Sprintf("Total: %d repositories", len(report.Repos))})
	repos.Render()

	if report.Truncated {
		fmt.Fprintln(out, "\nWarning: a listing hit its page limit, results are partial.")
	}
	if len(report.FailedRepositories) > 0 {
		fmt.Fprintf(out, "\nFailed repositories (no activity counted): %s\n", strings.Join(report.FailedRepositories, ", "))
	}
}

func newTable(out io.Writer, title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(out)
	tbl.SetTitle(title)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Footer = text.FormatDefault
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tbl
}

func lastActivity(t *time.Time, now time.Time) string {
	if t == nil {
		return "-"
	}
	return humanize.RelTime(*t, now, "ago", "from now")
}
