package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alimgiray/giteastats/internal/gitea"
	"github.com/alimgiray/giteastats/internal/metrics"
	"github.com/alimgiray/giteastats/internal/models"
	"github.com/alimgiray/giteastats/internal/workers"
	"github.com/alimgiray/giteastats/pkg/config"
	"github.com/alimgiray/giteastats/pkg/logger"
	"github.com/sirupsen/logrus"
)

// ActivitySource is the subset of the Gitea API the collector reads
type ActivitySource interface {
	ListRepositories(ctx context.Context, opts gitea.ListOptions) ([]gitea.Repository, error)
	ListBranches(ctx context.Context, owner, repo string, opts gitea.ListOptions) ([]gitea.Branch, error)
	ListCommits(ctx context.Context, owner, repo string, opts gitea.CommitListOptions) ([]gitea.Commit, error)
}

// RunStore persists collection run metadata
type RunStore interface {
	Create(run *models.CollectionRun) error
	Update(run *models.CollectionRun) error
}

// ActivityService collects commit activity across every repository visible
// to the configured token
type ActivityService struct {
	source  ActivitySource
	config  config.CollectorConfig
	runs    RunStore
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewActivityService creates a new activity service. runs and m may be nil.
func NewActivityService(source ActivitySource, cfg config.CollectorConfig, runs RunStore, m *metrics.Metrics) *ActivityService {
	return &ActivityService{
		source:  source,
		config:  cfg,
		runs:    runs,
		metrics: m,
		now:     time.Now,
	}
}

// collection holds the aggregates of one run. All fields are guarded by mu.
type collection struct {
	mu        sync.Mutex
	users     map[string]*models.UserActivity
	repos     map[string]*models.RepoActivity
	truncated bool
}

// repoOutcome is what one repository unit produced
type repoOutcome struct {
	repo      *models.RepoActivity
	commits   []models.NormalizedCommit
	truncated bool
}

// CollectActivity aggregates the commits of the last days days, per user and
// per repository. Failing repositories are reported in the result and
// contribute nothing. Only a failure to list repositories fails the run.
func (s *ActivityService) CollectActivity(ctx context.Context, days int, allBranches bool) (*models.ActivityReport, error) {
	if days < 1 {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidWindow, days)
	}

	started := s.now()
	until := started.UTC()
	since := until.Add(-time.Duration(days) * 24 * time.Hour)

	run := models.NewCollectionRun(days, allBranches)
	log := logger.WithFields(logrus.Fields{
		"run_id":       run.ID,
		"days":         days,
		"all_branches": allBranches,
	})
	s.saveRun(run, true)

	refs, reposTruncated, err := s.listRepositories(ctx)
	if err != nil {
		run.MarkFailed(err)
		s.saveRun(run, false)
		s.metrics.RunFinished(string(run.Status), s.now().Sub(started).Seconds())
		log.WithError(err).Error("Failed to list repositories")
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	run.MarkCollecting(len(refs))
	s.saveRun(run, false)
	log.Infof("Collecting activity for %d repositories", len(refs))

	agg := &collection{
		users:     make(map[string]*models.UserActivity),
		repos:     make(map[string]*models.RepoActivity),
		truncated: reposTruncated,
	}

	results, err := workers.Run(ctx, s.config.MaxConcurrentRepos, refs, func(ctx context.Context, ref models.RepositoryRef) (struct{}, error) {
		outcome, err := s.collectRepository(ctx, ref, since, until, allBranches)
		if err != nil {
			return struct{}{}, err
		}
		agg.merge(outcome)
		return struct{}{}, nil
	})
	if err == nil && ctx.Err() != nil {
		err = fmt.Errorf("activity collection interrupted: %w", ctx.Err())
	}
	if err != nil {
		run.MarkFailed(err)
		s.saveRun(run, false)
		s.metrics.RunFinished(string(run.Status), s.now().Sub(started).Seconds())
		return nil, err
	}

	report := agg.report()
	for i, result := range results {
		if result.Err == nil {
			continue
		}
		s.metrics.RepositoryFailed()
		log.WithField("repository", refs[i].FullName).WithError(result.Err).Error("Failed to collect repository activity")
		report.FailedRepositories = append(report.FailedRepositories, refs[i].FullName)
	}

	run.MarkFinalized(report)
	s.saveRun(run, false)
	s.metrics.RunFinished(string(run.Status), s.now().Sub(started).Seconds())

	log.WithFields(logrus.Fields{
		"users":               len(report.Users),
		"active_repositories": len(report.Repos),
		"failed_repositories": len(report.FailedRepositories),
		"commits":             run.Commits,
		"truncated":           report.Truncated,
	}).Info("Activity collection finished")

	return report, nil
}

// listRepositories walks the repository listing and keeps the repositories
// with a usable owner/name identity
func (s *ActivityService) listRepositories(ctx context.Context) ([]models.RepositoryRef, bool, error) {
	spec := PageSpec[gitea.Repository]{
		Kind:     KindRepositories,
		PageSize: s.config.RepoPageSize,
		MaxPages: s.config.MaxRepoPages,
	}

	result, err := Paginate(ctx, spec, func(ctx context.Context, page, limit int) ([]gitea.Repository, error) {
		return s.source.ListRepositories(ctx, gitea.ListOptions{Page: page, Limit: limit})
	}, s.metrics)
	if err != nil {
		return nil, false, err
	}

	refs := make([]models.RepositoryRef, 0, len(result.Items))
	for _, repo := range result.Items {
		ref, ok := repo.Ref()
		if !ok {
			logger.WithFields(logrus.Fields{
				"name":      repo.Name,
				"full_name": repo.FullName,
			}).Warn("Skipping repository without owner/name")
			continue
		}
		refs = append(refs, ref)
	}

	return refs, result.Truncated, nil
}

// collectRepository gathers the in-window commits of one repository without
// touching the shared aggregates
func (s *ActivityService) collectRepository(ctx context.Context, ref models.RepositoryRef, since, until time.Time, allBranches bool) (*repoOutcome, error) {
	outcome := &repoOutcome{repo: models.NewRepoActivity(ref)}

	branches := []string{ref.DefaultBranch}
	if allBranches {
		names, truncated, err := s.listBranches(ctx, ref)
		if err != nil {
			return nil, err
		}
		outcome.truncated = truncated
		branches = names
		if len(branches) == 0 {
			branches = []string{""}
		}
	}

	for _, branch := range branches {
		commits, truncated, err := s.listCommits(ctx, ref, branch, since, until)
		if err != nil {
			return nil, err
		}
		outcome.truncated = outcome.truncated || truncated

		for i := range commits {
			commit := &commits[i]
			if CommitTimestamp(commit).Before(since) {
				continue
			}
			if !outcome.repo.MarkSeen(commit.SHA) {
				continue
			}

			normalized, ok := NormalizeCommit(commit)
			if !ok {
				continue
			}

			outcome.repo.Add(normalized)
			outcome.commits = append(outcome.commits, normalized)
		}
	}

	logger.WithFields(logrus.Fields{
		"repository": ref.FullName,
		"branches":   len(branches),
		"commits":    outcome.repo.Commits,
	}).Debug("Collected repository activity")

	return outcome, nil
}

func (s *ActivityService) listBranches(ctx context.Context, ref models.RepositoryRef) ([]string, bool, error) {
	spec := PageSpec[gitea.Branch]{
		Kind:     KindBranches,
		PageSize: s.config.BranchPageSize,
		MaxPages: s.config.MaxBranchPages,
		Fields:   logrus.Fields{"repository": ref.FullName},
	}

	result, err := Paginate(ctx, spec, func(ctx context.Context, page, limit int) ([]gitea.Branch, error) {
		return s.source.ListBranches(ctx, ref.Owner, ref.Name, gitea.ListOptions{Page: page, Limit: limit})
	}, s.metrics)
	if err != nil {
		return nil, false, err
	}

	names := make([]string, 0, len(result.Items))
	for _, branch := range result.Items {
		if branch.Name != "" {
			names = append(names, branch.Name)
		}
	}
	return names, result.Truncated, nil
}

func (s *ActivityService) listCommits(ctx context.Context, ref models.RepositoryRef, branch string, since, until time.Time) ([]gitea.Commit, bool, error) {
	spec := PageSpec[gitea.Commit]{
		Kind:     KindCommits,
		PageSize: s.config.CommitPageSize,
		MaxPages: s.config.MaxCommitPages,
		// Commits come newest first, so a page ending before the window
		// start is the last one needed
		Done: func(page []gitea.Commit) bool {
			return CommitTimestamp(&page[len(page)-1]).Before(since)
		},
		Fields: logrus.Fields{"repository": ref.FullName, "branch": branch},
	}

	result, err := Paginate(ctx, spec, func(ctx context.Context, page, limit int) ([]gitea.Commit, error) {
		opts := gitea.NewCommitListOptions(branch, since, until)
		opts.Page = page
		opts.Limit = limit
		return s.source.ListCommits(ctx, ref.Owner, ref.Name, opts)
	}, s.metrics)
	if err != nil {
		return nil, false, err
	}
	return result.Items, result.Truncated, nil
}

func (s *ActivityService) saveRun(run *models.CollectionRun, create bool) {
	if s.runs == nil {
		return
	}

	var err error
	if create {
		err = s.runs.Create(run)
	} else {
		err = s.runs.Update(run)
	}
	if err != nil {
		logger.WithField("run_id", run.ID).WithError(err).Warn("Failed to save collection run")
	}
}

// merge folds a finished repository into the shared aggregates
func (c *collection) merge(outcome *repoOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.truncated = c.truncated || outcome.truncated

	if outcome.repo.Commits == 0 {
		return
	}
	c.repos[outcome.repo.FullName] = outcome.repo

	for _, commit := range outcome.commits {
		user, ok := c.users[commit.Username]
		if !ok {
			user = models.NewUserActivity(commit.Username, commit.DisplayName)
			c.users[commit.Username] = user
		}
		user.Add(commit, outcome.repo.FullName)
	}
}

func (c *collection) report() *models.ActivityReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	report := &models.ActivityReport{
		Users:              make([]models.UserSnapshot, 0, len(c.users)),
		Repos:              make([]models.RepoSnapshot, 0, len(c.repos)),
		Truncated:          c.truncated,
		FailedRepositories: []string{},
	}

	for _, user := range c.users {
		report.Users = append(report.Users, user.Snapshot())
	}
	for _, repo := range c.repos {
		report.Repos = append(report.Repos, repo.Snapshot())
	}

	models.SortUserSnapshots(report.Users)
	models.SortRepoSnapshots(report.Repos)
	return report
}
