package issue

import (
	"context"
	"strconv"

	"github.com/forgeworks/forge/internal/errors"
	"github.com/forgeworks/forge/internal/task"
)

// Source adapts a Client to one repository's issue stream.
type Source struct {
	client *Client
	owner  string
	repo   string
	label  string
}

// NewSource creates a Source for one repository and trigger label.
func NewSource(client *Client, owner, repo, label string) *Source {
	return &Source{client: client, owner: owner, repo: repo, label: label}
}

// Fetch returns the open labeled issues as tasks.
func (s *Source) Fetch(ctx context.Context) ([]task.Task, error) {
	return s.client.FetchIssues(ctx, s.owner, s.repo, s.label)
}

// FetchOne returns a single task by id. Issue-backed task ids are issue
// numbers.
func (s *Source) FetchOne(ctx context.Context, id string) (*task.Task, error) {
	number, err := strconv.Atoi(id)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "non-numeric issue id %q", id)
	}
	return s.client.FetchIssue(ctx, s.owner, s.repo, number)
}
