package gitea

import (
	"net/url"
	"time"

	"github.com/google/go-querystring/query"
)

// ListOptions selects one page of a listing. Pages are 1-indexed.
type ListOptions struct {
	Page  int `url:"page,omitempty"`
	Limit int `url:"limit,omitempty"`
}

// CommitListOptions scopes a commit listing. Stats are requested while file
// lists and signature verification are skipped to keep payloads small.
type CommitListOptions struct {
	ListOptions

	SHA          string    `url:"sha,omitempty"`
	Since        time.Time `url:"since,omitempty"`
	Until        time.Time `url:"until,omitempty"`
	Stat         bool      `url:"stat"`
	Files        bool      `url:"files"`
	Verification bool      `url:"verification"`
}

// NewCommitListOptions returns options requesting stats only
func NewCommitListOptions(branch string, since, until time.Time) CommitListOptions {
	return CommitListOptions{
		SHA:   branch,
		Since: since.UTC(),
		Until: until.UTC(),
		Stat:  true,
	}
}

// addOptions adds the parameters in opts as URL query parameters to s
func addOptions(s string, opts interface{}) (string, error) {
	u, err := url.Parse(s)
	if err != nil {
		return s, err
	}

	qs, err := query.Values(opts)
	if err != nil {
		return s, err
	}

	u.RawQuery = qs.Encode()
	return u.String(), nil
}
