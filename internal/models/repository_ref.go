package models

import "strings"

// RepositoryRef identifies a repository for the duration of one collection run
type RepositoryRef struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
}

// NewRepositoryRef builds a reference from an "owner/name" full name.
// ok is false when either part is missing.
func NewRepositoryRef(fullName, defaultBranch string) (RepositoryRef, bool) {
	owner, name, found := strings.Cut(fullName, "/")
	if !found || owner == "" || name == "" {
		return RepositoryRef{}, false
	}

	return RepositoryRef{
		Owner:         owner,
		Name:          name,
		FullName:      fullName,
		DefaultBranch: defaultBranch,
	}, true
}
