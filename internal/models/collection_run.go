package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the state of a collection run
type RunStatus string

const (
	RunStatusListingRepos RunStatus = "listing_repos"
	RunStatusCollecting   RunStatus = "collecting"
	RunStatusFinalized    RunStatus = "finalized"
	RunStatusFailed       RunStatus = "failed"
)

// CollectionRun records the metadata of one activity collection.
// Aggregated results are never stored.
type CollectionRun struct {
	ID                 string     `json:"id"`
	Days               int        `json:"days"`
	AllBranches        bool       `json:"all_branches"`
	Status             RunStatus  `json:"status"`
	RepositoriesTotal  int        `json:"repositories_total"`
	RepositoriesFailed int        `json:"repositories_failed"`
	Commits            int        `json:"commits"`
	Truncated          bool       `json:"truncated"`
	ErrorMessage       *string    `json:"error_message"`
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewCollectionRun creates a run in the repository listing state
func NewCollectionRun(days int, allBranches bool) *CollectionRun {
	now := time.Now().UTC()
	return &CollectionRun{
		ID:          uuid.New().String(),
		Days:        days,
		AllBranches: allBranches,
		Status:      RunStatusListingRepos,
		StartedAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkCollecting moves the run to the fan-out phase
func (r *CollectionRun) MarkCollecting(repositories int) {
	r.Status = RunStatusCollecting
	r.RepositoriesTotal = repositories
	r.UpdatedAt = time.Now().UTC()
}

// MarkFinalized records the outcome of a completed run
func (r *CollectionRun) MarkFinalized(report *ActivityReport) {
	now := time.Now().UTC()
	r.Status = RunStatusFinalized
	r.RepositoriesFailed = len(report.FailedRepositories)
	r.Truncated = report.Truncated
	r.Commits = 0
	for _, repo := range report.Repos {
		r.Commits += repo.Commits
	}
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// MarkFailed records a fatal error
func (r *CollectionRun) MarkFailed(err error) {
	now := time.Now().UTC()
	message := err.Error()
	r.Status = RunStatusFailed
	r.ErrorMessage = &message
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// IsFinished reports whether the run reached a terminal state
func (r *CollectionRun) IsFinished() bool {
	return r.Status == RunStatusFinalized || r.Status == RunStatusFailed
}
