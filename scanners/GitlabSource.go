package scanners

import (
	"context"
	"fmt"

	"github.com/reaandrew/secscanner/utils"
	log "github.com/sirupsen/logrus"
)

// GitlabSource lists every project visible to the token. Archived and empty
// projects are skipped.
type GitlabSource struct {
	GitlabApi utils.GitlabApi
}

func (s GitlabSource) Targets(ctx context.Context) ([]Target, error) {
	projects, err := s.GitlabApi.ListAllProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects from %s: %w", s.GitlabApi.BaseURL(), err)
	}

	targets := make([]Target, 0, len(projects))
	for _, project := range projects {
		if project.Archived || project.EmptyRepo {
			log.Debugf("Skipping project %s", project.PathWithNamespace)
			continue
		}
		targets = append(targets, Target{
			Repository: project.PathWithNamespace,
			Branch:     project.DefaultBranch,
		})
	}
	return targets, nil
}
