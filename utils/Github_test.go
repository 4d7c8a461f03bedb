package utils

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGithubServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var auth []string
	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/api/v3/orgs/acme/repos", func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"full_name":"acme/web","default_branch":"develop","archived":true}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/api/v3/orgs/acme/repos?page=2&per_page=100>; rel="next"`, server.URL))
		fmt.Fprint(w, `[{"full_name":"acme/api","default_branch":"main"}]`)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &auth
}

func TestGithubApiClientPagesThroughRepositories(t *testing.T) {
	server, auth := newGithubServer(t)

	client, err := NewGithubApiClient(context.Background(), "gh-token", server.URL)
	require.NoError(t, err)

	repos, err := client.ListRepositories(context.Background(), "acme")

	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "acme/api", repos[0].GetFullName())
	assert.Equal(t, "main", repos[0].GetDefaultBranch())
	assert.Equal(t, "acme/web", repos[1].GetFullName())
	assert.True(t, repos[1].GetArchived())
	assert.Equal(t, []string{"Bearer gh-token", "Bearer gh-token"}, *auth)
}

func TestGithubApiClientAnonymous(t *testing.T) {
	server, auth := newGithubServer(t)

	client, err := NewGithubApiClient(context.Background(), "", server.URL)
	require.NoError(t, err)

	_, err = client.ListRepositories(context.Background(), "acme")

	require.NoError(t, err)
	assert.Equal(t, []string{"", ""}, *auth)
}

func TestGithubApiClientErrors(t *testing.T) {
	server, _ := newGithubServer(t)
	client, err := NewGithubApiClient(context.Background(), "", server.URL)
	require.NoError(t, err)

	_, err = client.ListRepositories(context.Background(), "unknown")
	assert.ErrorContains(t, err, "404")

	_, err = NewGithubApiClient(context.Background(), "", "://bad")
	assert.ErrorContains(t, err, "invalid GitHub base URL")
}
