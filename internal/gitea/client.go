package gitea

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/alimgiray/giteastats/pkg/config"
	"github.com/alimgiray/giteastats/pkg/logger"
	"github.com/google/go-github/v57/github"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options configures a Client
type Options struct {
	BaseURL   *url.URL
	APIKey    string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

// Client talks to the Gitea REST API v1. Request building and error
// responses are handled by the go-github core, which Gitea's API mirrors.
type Client struct {
	client  *github.Client
	limiter *rate.Limiter
}

// NewClient creates a Gitea client authenticated with an access token
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == nil {
		return nil, fmt.Errorf("gitea base URL is required")
	}

	// Gitea expects "Authorization: token <key>"
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: opts.APIKey, TokenType: "token"},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = opts.Timeout

	ghClient := github.NewClient(tc)
	baseURL := *opts.BaseURL
	ghClient.BaseURL = &baseURL

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.RateBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		client:  ghClient,
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

// ListRepositories returns one page of the repositories visible to the token
func (c *Client) ListRepositories(ctx context.Context, opts ListOptions) ([]Repository, error) {
	body, err := c.get(ctx, "repos/search", opts)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data jsoniter.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		logger.WithField("endpoint", "repos/search").Warnf("Malformed repository page: %v", err)
		return nil, nil
	}

	return decodeList[Repository](envelope.Data, "repos/search"), nil
}

// ListBranches returns one page of a repository's branches
func (c *Client) ListBranches(ctx context.Context, owner, repo string, opts ListOptions) ([]Branch, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/branches", url.PathEscape(owner), url.PathEscape(repo))
	body, err := c.get(ctx, endpoint, opts)
	if err != nil {
		return nil, err
	}
	return decodeList[Branch](body, endpoint), nil
}

// ListCommits returns one page of a repository's commits, newest first
func (c *Client) ListCommits(ctx context.Context, owner, repo string, opts CommitListOptions) ([]Commit, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/commits", url.PathEscape(owner), url.PathEscape(repo))
	body, err := c.get(ctx, endpoint, opts)
	if err != nil {
		return nil, err
	}
	return decodeList[Commit](body, endpoint), nil
}

func (c *Client) get(ctx context.Context, endpoint string, opts interface{}) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u, err := addOptions(endpoint, opts)
	if err != nil {
		return nil, err
	}

	req, err := c.client.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := c.client.Do(ctx, req, &buf); err != nil {
		logRequestError(req, err)
		return nil, err
	}

	return buf.Bytes(), nil
}

// decodeList parses a JSON array. Anything else counts as an empty page.
func decodeList[T any](body []byte, endpoint string) []T {
	if len(body) == 0 || jsoniter.Get(body).ValueType() != jsoniter.ArrayValue {
		logger.WithField("endpoint", endpoint).Warn("Gitea returned a non-list payload, treating it as an empty page")
		return nil
	}

	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		logger.WithField("endpoint", endpoint).Warnf("Malformed list payload: %v", err)
		return nil
	}
	return items
}

func logRequestError(req *http.Request, err error) {
	fields := logrus.Fields{
		"method": req.Method,
		"path":   req.URL.Path,
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		fields["status"] = errResp.Response.StatusCode
		logger.WithFields(fields).Error("Gitea API error")
		return
	}

	logger.WithFields(fields).WithError(err).Error("Gitea API request failed")
}

// NewClientFromConfig creates a client for the configured Gitea instance
func NewClientFromConfig(cfg config.GiteaConfig) (*Client, error) {
	baseURL, err := cfg.BaseURL()
	if err != nil {
		return nil, err
	}

	return NewClient(Options{
		BaseURL:   baseURL,
		APIKey:    cfg.APIKey,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})
}
