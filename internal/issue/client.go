// Package issue fetches work items from GitHub and reports outcomes back
// to them. It is the glue between the tracker and the pipeline: the
// pipeline only ever sees task.Task values.
package issue

import (
	"context"
	"strconv"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/forgeworks/forge/internal/errors"
	"github.com/forgeworks/forge/internal/logging"
	"github.com/forgeworks/forge/internal/task"
)

// Client wraps the GitHub API for issue listing and report-back.
type Client struct {
	gh  *github.Client
	log *logging.Logger
}

// NewClient creates a Client authenticated with the given token.
func NewClient(ctx context.Context, token string, log *logging.Logger) (*Client, error) {
	if token == "" {
		return nil, errors.New("github token not set")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)

	return &Client{gh: github.NewClient(tc), log: log}, nil
}

// FetchIssues returns open issues carrying the given label. Pull requests
// are excluded; the GitHub API reports them through the same endpoint.
func (c *Client) FetchIssues(ctx context.Context, owner, repo, label string) ([]task.Task, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "open",
		Labels:      []string{label},
		ListOptions: github.ListOptions{PerPage: 30},
	}

	c.log.Info("fetching issues", "repo", owner+"/"+repo, "label", label)

	issues, _, err := c.gh.Issues.ListByRepo(ctx, owner, repo, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list issues for %s/%s", owner, repo)
	}

	var tasks []task.Task
	for _, is := range issues {
		if is.IsPullRequest() {
			continue
		}
		tasks = append(tasks, toTask(is))
	}

	c.log.Info("fetched issues", "repo", owner+"/"+repo, "count", len(tasks))
	return tasks, nil
}

// FetchIssue returns a single issue by number.
func (c *Client) FetchIssue(ctx context.Context, owner, repo string, number int) (*task.Task, error) {
	is, _, err := c.gh.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch issue %s/%s#%d", owner, repo, number)
	}
	t := toTask(is)
	return &t, nil
}

// AddComment posts a comment on an issue.
func (c *Client) AddComment(ctx context.Context, owner, repo string, number int, body string) error {
	_, _, err := c.gh.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to comment on %s/%s#%d", owner, repo, number)
	}
	return nil
}

// AddLabels adds labels to an issue.
func (c *Client) AddLabels(ctx context.Context, owner, repo string, number int, labels []string) error {
	_, _, err := c.gh.Issues.AddLabelsToIssue(ctx, owner, repo, number, labels)
	if err != nil {
		return errors.Wrapf(err, "failed to add labels to %s/%s#%d", owner, repo, number)
	}
	return nil
}

// RemoveLabel removes a label from an issue.
func (c *Client) RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error {
	_, err := c.gh.Issues.RemoveLabelForIssue(ctx, owner, repo, number, label)
	if err != nil {
		return errors.Wrapf(err, "failed to remove label from %s/%s#%d", owner, repo, number)
	}
	return nil
}

func toTask(is *github.Issue) task.Task {
	labels := make([]string, 0, len(is.Labels))
	for _, l := range is.Labels {
		labels = append(labels, l.GetName())
	}

	return task.Task{
		ID:        strconv.Itoa(is.GetNumber()),
		Title:     is.GetTitle(),
		Body:      is.GetBody(),
		Labels:    labels,
		CreatedAt: is.GetCreatedAt().Time,
	}
}
