package models

import "time"

// UnknownAuthor is the identity given to commits nobody can be credited for
const UnknownAuthor = "unknown"

// NormalizedCommit is a remote commit reduced to what the aggregates need
type NormalizedCommit struct {
	SHA          string    `json:"sha"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	Timestamp    time.Time `json:"timestamp"`
	LinesChanged int       `json:"lines_changed"`
}

// IsAttributable reports whether the commit can be credited to a user
func (c NormalizedCommit) IsAttributable() bool {
	return c.Username != "" && c.Username != UnknownAuthor
}
