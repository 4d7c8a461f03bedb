package utils

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
)

const DefaultGitHost = "https://github.com/"

// RepositoryURL turns an owner/name identifier into a clone URL. Inputs that
// already look like URLs are returned unchanged.
func RepositoryURL(repository string) string {
	if strings.HasPrefix(repository, "git@") ||
		strings.HasPrefix(repository, "https://") ||
		strings.HasPrefix(repository, "http://") {
		return repository
	}
	return DefaultGitHost + strings.TrimSuffix(repository, ".git") + ".git"
}

type BranchLister interface {
	ListBranches(ctx context.Context, repoURL string) ([]string, error)
}

// GitBranchLister reads branch names from a remote without cloning it.
type GitBranchLister struct {
	Token string
}

func (g GitBranchLister) ListBranches(ctx context.Context, repoURL string) ([]string, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{repoURL},
	})

	var auth transport.AuthMethod
	if g.Token != "" {
		auth = &githttp.BasicAuth{Username: "x-access-token", Password: g.Token}
	}

	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: auth})
	if err != nil {
		return nil, fmt.Errorf("failed to list remote references for %s: %w", repoURL, err)
	}

	var branches []string
	for _, ref := range refs {
		if ref.Name().IsBranch() {
			branches = append(branches, ref.Name().Short())
		}
	}
	return branches, nil
}

// VerifyBranch checks that branch exists on the repository's remote.
func VerifyBranch(ctx context.Context, lister BranchLister, repository, branch string) error {
	branches, err := lister.ListBranches(ctx, RepositoryURL(repository))
	if err != nil {
		return err
	}
	if !Contains(branches, branch) {
		return fmt.Errorf("branch %q not found in %s", branch, repository)
	}
	return nil
}
