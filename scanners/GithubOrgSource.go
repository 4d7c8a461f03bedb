package scanners

import (
	"context"
	"fmt"

	"github.com/reaandrew/secscanner/utils"
	log "github.com/sirupsen/logrus"
)

// GithubOrgSource lists every repository of a GitHub organisation on its
// default branch. Archived repositories are skipped.
type GithubOrgSource struct {
	Org          string
	GithubClient utils.GithubApi
}

func (s GithubOrgSource) Targets(ctx context.Context) ([]Target, error) {
	log.Printf("Fetching repos for organization: %s", s.Org)

	repos, err := s.GithubClient.ListRepositories(ctx, s.Org)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories for %s: %w", s.Org, err)
	}

	targets := make([]Target, 0, len(repos))
	for _, repo := range repos {
		if repo.GetArchived() {
			log.Debugf("Skipping archived repository %s", repo.GetFullName())
			continue
		}
		targets = append(targets, Target{
			Repository: repo.GetFullName(),
			Branch:     repo.GetDefaultBranch(),
		})
	}

	log.Printf("Number of repos: %d", len(targets))
	return targets, nil
}
