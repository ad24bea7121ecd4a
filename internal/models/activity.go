package models

import (
	"sort"
	"time"
)

// UserActivity accumulates one user's commits across repositories during a run
type UserActivity struct {
	Username     string
	DisplayName  string
	Commits      int
	LinesChanged int
	Repositories map[string]struct{}
	LastActivity *time.Time
}

// NewUserActivity creates an empty aggregate for username
func NewUserActivity(username, displayName string) *UserActivity {
	return &UserActivity{
		Username:     username,
		DisplayName:  displayName,
		Repositories: make(map[string]struct{}),
	}
}

// Add credits a commit made in repository fullName
func (u *UserActivity) Add(commit NormalizedCommit, fullName string) {
	if u.DisplayName == "" {
		u.DisplayName = commit.DisplayName
	}
	u.Commits++
	u.LinesChanged += commit.LinesChanged
	u.Repositories[fullName] = struct{}{}
	u.LastActivity = latest(u.LastActivity, commit.Timestamp)
}

// Snapshot returns the immutable output view of the aggregate
func (u *UserActivity) Snapshot() UserSnapshot {
	return UserSnapshot{
		Username:     u.Username,
		DisplayName:  u.DisplayName,
		Commits:      u.Commits,
		LinesChanged: u.LinesChanged,
		Repositories: len(u.Repositories),
		LastActivity: copyTime(u.LastActivity),
	}
}

// RepoActivity accumulates the commits of one repository during a run.
// SeenSHAs deduplicates commits reachable from several branches.
type RepoActivity struct {
	Owner        string
	Name         string
	FullName     string
	Commits      int
	LinesChanged int
	Contributors map[string]struct{}
	LastActivity *time.Time
	SeenSHAs     map[string]struct{}
}

// NewRepoActivity creates an empty aggregate for repo
func NewRepoActivity(repo RepositoryRef) *RepoActivity {
	return &RepoActivity{
		Owner:        repo.Owner,
		Name:         repo.Name,
		FullName:     repo.FullName,
		Contributors: make(map[string]struct{}),
		SeenSHAs:     make(map[string]struct{}),
	}
}

// MarkSeen records sha and reports whether it was new. Empty SHAs are never
// deduplicated.
func (r *RepoActivity) MarkSeen(sha string) bool {
	if sha == "" {
		return true
	}
	if _, ok := r.SeenSHAs[sha]; ok {
		return false
	}
	r.SeenSHAs[sha] = struct{}{}
	return true
}

// Add counts a commit towards the repository
func (r *RepoActivity) Add(commit NormalizedCommit) {
	r.Commits++
	r.LinesChanged += commit.LinesChanged
	r.Contributors[commit.Username] = struct{}{}
	r.LastActivity = latest(r.LastActivity, commit.Timestamp)
}

// Snapshot returns the immutable output view of the aggregate
func (r *RepoActivity) Snapshot() RepoSnapshot {
	return RepoSnapshot{
		Owner:        r.Owner,
		Name:         r.Name,
		FullName:     r.FullName,
		Commits:      r.Commits,
		LinesChanged: r.LinesChanged,
		Contributors: len(r.Contributors),
		LastActivity: copyTime(r.LastActivity),
	}
}

type UserSnapshot struct {
	Username     string     `json:"username"`
	DisplayName  string     `json:"displayName"`
	Commits      int        `json:"commits"`
	LinesChanged int        `json:"linesChanged"`
	Repositories int        `json:"repositories"`
	LastActivity *time.Time `json:"lastActivity"`
}

type RepoSnapshot struct {
	Owner        string     `json:"owner"`
	Name         string     `json:"name"`
	FullName     string     `json:"fullName"`
	Commits      int        `json:"commits"`
	LinesChanged int        `json:"linesChanged"`
	Contributors int        `json:"contributors"`
	LastActivity *time.Time `json:"lastActivity"`
}

// ActivityReport is the result of one collection run
type ActivityReport struct {
	Users []UserSnapshot `json:"users"`
	Repos []RepoSnapshot `json:"repos"`

	// Truncated is set when a pagination safety ceiling cut a listing short
	Truncated bool `json:"truncated"`
	// FailedRepositories lists repositories whose collection failed and
	// which therefore contribute no activity
	FailedRepositories []string `json:"failedRepositories"`
}

// SortUserSnapshots orders users by most recent activity, users without
// activity last
func SortUserSnapshots(users []UserSnapshot) {
	sort.SliceStable(users, func(i, j int) bool {
		if c := compareActivity(users[i].LastActivity, users[j].LastActivity); c != 0 {
			return c > 0
		}
		return users[i].Username < users[j].Username
	})
}

// SortRepoSnapshots orders repositories by most recent activity, repositories
// without activity last
func SortRepoSnapshots(repos []RepoSnapshot) {
	sort.SliceStable(repos, func(i, j int) bool {
		if c := compareActivity(repos[i].LastActivity, repos[j].LastActivity); c != 0 {
			return c > 0
		}
		return repos[i].FullName < repos[j].FullName
	})
}

// compareActivity treats nil as the earliest possible time
func compareActivity(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func latest(current *time.Time, candidate time.Time) *time.Time {
	if current == nil || candidate.After(*current) {
		t := candidate.UTC()
		return &t
	}
	return current
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
