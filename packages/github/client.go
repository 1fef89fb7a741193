package github

import (
	"context"
	"fmt"
	"net/url"

	"github.com/abdul-hamid-achik/branchspec/packages/http"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public GitHub REST API host
	DefaultBaseURL = "https://api.github.com"
	// AcceptHeader is the media type requested from the API
	AcceptHeader = "application/vnd.github+json"
)

// Client reads branches, comparisons and commits of a single repository.
type Client struct {
	http   *http.Client
	owner  string
	repo   string
	logger *zap.Logger
}

type ClientOption func(*Client)

func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(httpClient *http.Client, owner, repo string, opts ...ClientOption) *Client {
	c := &Client{
		http:   httpClient,
		owner:  owner,
		repo:   repo,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTPOptions returns the client options every GitHub request needs.
func HTTPOptions(baseURL, token string) []http.ClientOption {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return []http.ClientOption{
		http.WithBaseURL(baseURL),
		http.WithDefaultHeader("Accept", AcceptHeader),
		http.WithBearerToken(token),
	}
}

func (c *Client) Owner() string { return c.owner }

func (c *Client) Repo() string { return c.repo }

// RepoPath is the /repos/{owner}/{repo} prefix.
func (c *Client) RepoPath() string {
	return fmt.Sprintf("/repos/%s/%s", url.PathEscape(c.owner), url.PathEscape(c.repo))
}

// BranchPath escapes name so that slashes in branch names survive as %2F.
func (c *Client) BranchPath(name string) string {
	return c.RepoPath() + "/branches/" + url.PathEscape(name)
}

func (c *Client) ComparePath(base, head string) string {
	return c.RepoPath() + "/compare/" + url.PathEscape(base) + "..." + url.PathEscape(head)
}

func (c *Client) CommitPath(sha string) string {
	return c.RepoPath() + "/commits/" + url.PathEscape(sha)
}

// Get fetches an arbitrary API path and returns the raw response.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.http.Get(ctx, path, nil)
}

func (c *Client) GetBranch(ctx context.Context, name string) (*BranchSnapshot, error) {
	resp, err := c.Get(ctx, c.BranchPath(name))
	if err != nil {
		return nil, fmt.Errorf("fetching branch %s: %w", name, err)
	}

	var payload branchPayload
	if err := decode(resp, "branch", branchSchemaLoader, &payload); err != nil {
		return nil, err
	}

	snapshot := payload.snapshot()
	c.logger.Debug("fetched branch",
		zap.String("branch", snapshot.Name),
		zap.String("sha", snapshot.HeadCommitSHA),
		zap.Bool("protected", snapshot.Protected),
	)
	return snapshot, nil
}

func (c *Client) Compare(ctx context.Context, base, head string) (*CompareResult, error) {
	resp, err := c.Get(ctx, c.ComparePath(base, head))
	if err != nil {
		return nil, fmt.Errorf("comparing %s...%s: %w", base, head, err)
	}

	var payload comparePayload
	if err := decode(resp, "compare", compareSchemaLoader, &payload); err != nil {
		return nil, err
	}

	status, err := ParseCompareStatus(payload.Status)
	if err != nil {
		return nil, &ShapeError{Resource: "compare", Problems: []string{err.Error()}}
	}

	result := &CompareResult{
		AheadBy:      payload.AheadBy,
		BehindBy:     payload.BehindBy,
		MergeBaseSHA: payload.MergeBaseCommit.SHA,
		Status:       status,
	}
	c.logger.Debug("compared commits",
		zap.String("base", base),
		zap.String("head", head),
		zap.String("status", string(result.Status)),
		zap.Int("ahead_by", result.AheadBy),
		zap.Int("behind_by", result.BehindBy),
	)
	return result, nil
}

func (c *Client) GetCommit(ctx context.Context, sha string) (*Commit, error) {
	resp, err := c.Get(ctx, c.CommitPath(sha))
	if err != nil {
		return nil, fmt.Errorf("fetching commit %s: %w", sha, err)
	}

	var payload commitPayload
	if err := decode(resp, "commit", commitSchemaLoader, &payload); err != nil {
		return nil, err
	}

	return &Commit{
		SHA:       payload.SHA,
		URL:       payload.URL,
		Message:   payload.Commit.Message,
		Author:    payload.Commit.Author.signature(),
		Committer: payload.Commit.Committer.signature(),
	}, nil
}
