package services

import (
	"time"

	"github.com/alimgiray/giteastats/internal/gitea"
	"github.com/alimgiray/giteastats/internal/models"
)

// CommitTimestamp resolves when a commit happened: author date, then
// committer date, then the record creation date, then the Unix epoch.
// Values that do not parse are skipped.
func CommitTimestamp(commit *gitea.Commit) time.Time {
	var candidates []string
	if commit.Commit != nil {
		if commit.Commit.Author != nil {
			candidates = append(candidates, commit.Commit.Author.Date)
		}
		if commit.Commit.Committer != nil {
			candidates = append(candidates, commit.Commit.Committer.Date)
		}
	}
	candidates = append(candidates, commit.Created)

	for _, value := range candidates {
		if value == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return t.UTC()
		}
	}

	return time.Unix(0, 0).UTC()
}

// NormalizeCommit reduces a raw commit to the fields the aggregates need. The
// second return value is false when nobody can be credited for the commit.
func NormalizeCommit(commit *gitea.Commit) (models.NormalizedCommit, bool) {
	account := commit.Author
	if account == nil {
		account = commit.Committer
	}

	var signature *gitea.CommitUser
	if commit.Commit != nil {
		signature = commit.Commit.Author
	}

	var login, username, fullName, email, name string
	if account != nil {
		login, username, fullName = account.Login, account.UserName, account.FullName
	}
	if signature != nil {
		email, name = signature.Email, signature.Name
	}

	identity := firstNonEmpty(login, username, email, name, models.UnknownAuthor)

	normalized := models.NormalizedCommit{
		SHA:          commit.SHA,
		Username:     identity,
		DisplayName:  firstNonEmpty(fullName, username, name, identity),
		Timestamp:    CommitTimestamp(commit),
		LinesChanged: linesChanged(commit.Stats),
	}

	return normalized, normalized.IsAttributable()
}

func linesChanged(stats *gitea.CommitStats) int {
	if stats == nil {
		return 0
	}
	if stats.Total != nil {
		return *stats.Total
	}

	lines := 0
	if stats.Additions != nil {
		lines += *stats.Additions
	}
	if stats.Deletions != nil {
		lines += *stats.Deletions
	}
	return lines
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
