package utils

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v50/github"
	"golang.org/x/oauth2"
)

// GithubApi lists the repositories a batch scan walks through.
type GithubApi interface {
	ListRepositories(ctx context.Context, org string) ([]*github.Repository, error)
}

type GithubApiClient struct {
	client *github.Client
}

// NewGithubApiClient talks to github.com, or to a GitHub Enterprise server
// when baseURL is set. An empty token means anonymous access.
func NewGithubApiClient(ctx context.Context, token, baseURL string) (GithubApiClient, error) {
	var httpClient *http.Client
	if token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	if baseURL == "" {
		return GithubApiClient{client: github.NewClient(httpClient)}, nil
	}
	client, err := github.NewEnterpriseClient(baseURL, baseURL, httpClient)
	if err != nil {
		return GithubApiClient{}, fmt.Errorf("invalid GitHub base URL %s: %w", baseURL, err)
	}
	return GithubApiClient{client: client}, nil
}

// ListRepositories pages through every repository of org.
func (c GithubApiClient) ListRepositories(ctx context.Context, org string) ([]*github.Repository, error) {
	var repos []*github.Repository
	opt := &github.RepositoryListByOrgOptions{
		Type:        "all",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		page, resp, err := c.client.Repositories.ListByOrg(ctx, org, opt)
		if err != nil {
			return nil, err
		}
		repos = append(repos, page...)
		if resp.NextPage == 0 {
			return repos, nil
		}
		opt.Page = resp.NextPage
	}
}
