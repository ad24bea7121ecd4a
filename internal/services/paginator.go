package services

import (
	"context"
	"fmt"

	"github.com/alimgiray/giteastats/internal/metrics"
	"github.com/alimgiray/giteastats/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Listing kinds walked by the paginator
const (
	KindRepositories = "repositories"
	KindBranches     = "branches"
	KindCommits      = "commits"
)

// PageSpec describes how one listing is walked
type PageSpec[T any] struct {
	Kind     string
	PageSize int
	MaxPages int

	// Done is consulted after every full page. Returning true keeps the
	// page and stops the walk.
	Done func(page []T) bool

	// Fields are attached to the ceiling warning
	Fields logrus.Fields
}

// PageFunc fetches one 1-indexed page of at most limit items
type PageFunc[T any] func(ctx context.Context, page, limit int) ([]T, error)

// PageResult is everything collected by one walk
type PageResult[T any] struct {
	Items     []T
	Truncated bool
}

// Paginate requests pages until a short page, until spec.Done says so, or
// until spec.MaxPages pages have been read. A fetch error aborts the walk.
func Paginate[T any](ctx context.Context, spec PageSpec[T], fetch PageFunc[T], m *metrics.Metrics) (PageResult[T], error) {
	var result PageResult[T]

	if spec.PageSize < 1 || spec.MaxPages < 1 {
		return result, fmt.Errorf("invalid %s page spec: size %d, max pages %d", spec.Kind, spec.PageSize, spec.MaxPages)
	}

	for page := 1; ; page++ {
		if page > spec.MaxPages {
			result.Truncated = true
			m.CeilingReached(spec.Kind)
			logger.WithFields(spec.Fields).WithFields(logrus.Fields{
				"kind":      spec.Kind,
				"max_pages": spec.MaxPages,
			}).Warn("Reached pagination limit, using partial data")
			return result, nil
		}

		items, err := fetch(ctx, page, spec.PageSize)
		if err != nil {
			return result, fmt.Errorf("failed to fetch %s page %d: %w", spec.Kind, page, err)
		}
		m.PageFetched(spec.Kind)

		result.Items = append(result.Items, items...)

		if len(items) < spec.PageSize {
			return result, nil
		}
		if spec.Done != nil && spec.Done(items) {
			return result, nil
		}
	}
}
