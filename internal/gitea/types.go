package gitea

import "github.com/alimgiray/giteastats/internal/models"

// Repository is the subset of a Gitea repository record the collector reads
type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Owner         *User  `json:"owner"`
	DefaultBranch string `json:"default_branch"`
}

// Ref resolves the repository identity, falling back to owner + name when the
// full name is missing
func (r Repository) Ref() (models.RepositoryRef, bool) {
	fullName := r.FullName
	if fullName == "" {
		owner := ""
		if r.Owner != nil {
			owner = r.Owner.Login
			if owner == "" {
				owner = r.Owner.UserName
			}
		}
		fullName = owner + "/" + r.Name
	}
	return models.NewRepositoryRef(fullName, r.DefaultBranch)
}

type Branch struct {
	Name string `json:"name"`
}

// User is a Gitea account as embedded in repository and commit records
type User struct {
	Login    string `json:"login"`
	UserName string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Commit is a raw commit record. Every field is optional; the fallback rules
// live in services.NormalizeCommit.
type Commit struct {
	SHA       string       `json:"sha"`
	Created   string       `json:"created"`
	Author    *User        `json:"author"`
	Committer *User        `json:"committer"`
	Commit    *CommitInfo  `json:"commit"`
	Stats     *CommitStats `json:"stats"`
}

type CommitInfo struct {
	Author    *CommitUser `json:"author"`
	Committer *CommitUser `json:"committer"`
}

type CommitUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"`
}

type CommitStats struct {
	Total     *int `json:"total"`
	Additions *int `json:"additions"`
	Deletions *int `json:"deletions"`
}
