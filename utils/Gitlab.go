package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	gitlab "gitlab.com/gitlab-org/api/client-go"
	"go.etcd.io/bbolt"
)

const CacheDirName = ".secscanner_cache"
const BucketName = "Projects"

var errCacheEmpty = errors.New("project cache is empty")

type GitlabApi interface {
	ListAllProjects(ctx context.Context) ([]*gitlab.Project, error)
	BaseURL() string
}

type GitlabApiClient struct {
	client  *gitlab.Client
	baseUrl string
	noCache bool
	// CacheDir overrides the per-user cache directory.
	CacheDir string
}

func (g GitlabApiClient) BaseURL() string {
	return g.baseUrl
}

func NewGitlabApiClient(gitlabToken string, gitlabBaseURL string, noCache bool) (*GitlabApiClient, error) {
	if gitlabToken == "" {
		return nil, errors.New("GitLab token is required (provide via --gitlab-token flag or GITLAB_TOKEN)")
	}
	client, err := gitlab.NewClient(gitlabToken, gitlab.WithBaseURL(gitlabBaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}
	return &GitlabApiClient{
		client:  client,
		baseUrl: gitlabBaseURL,
		noCache: noCache,
	}, nil
}

func (g GitlabApiClient) fetchAllProjects(ctx context.Context) ([]*gitlab.Project, error) {
	var allProjects []*gitlab.Project
	opts := &gitlab.ListProjectsOptions{
		ListOptions: gitlab.ListOptions{
			Page:    1,
			PerPage: 100,
		},
	}

	for {
		projects, resp, err := g.client.Projects.ListProjects(opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list projects: %w", err)
		}

		allProjects = append(allProjects, projects...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		log.Printf("Fetched %d projects, total so far: %d", len(projects), len(allProjects))
	}

	if !g.noCache {
		if err := g.saveProjectsToCache(allProjects); err != nil {
			log.Printf("Failed to save to cache: %v", err)
		}
	}

	log.Printf("Number of projects found: %v", len(allProjects))
	return allProjects, nil
}

// ListAllProjects serves from the bbolt cache when it has entries and hits
// the API otherwise.
func (g GitlabApiClient) ListAllProjects(ctx context.Context) ([]*gitlab.Project, error) {
	if g.noCache {
		return g.fetchAllProjects(ctx)
	}

	projects, err := g.loadProjectsFromCache()
	if err != nil {
		log.Printf("Failed to load from cache, proceeding with API fetch: %v", err)
		return g.fetchAllProjects(ctx)
	}

	log.Printf("Loaded %d projects from cache.", len(projects))
	return projects, nil
}

func (g GitlabApiClient) loadProjectsFromCache() ([]*gitlab.Project, error) {
	cacheFile, err := g.getCacheFile()
	if err != nil {
		return nil, err
	}

	db, err := bbolt.Open(cacheFile, 0600, nil)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var projects []*gitlab.Project
	err = db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		if b == nil {
			return errCacheEmpty
		}

		return b.ForEach(func(k, v []byte) error {
			var project gitlab.Project
			if err := json.Unmarshal(v, &project); err != nil {
				return err
			}
			projects = append(projects, &project)
			return nil
		})
	})
	if err == nil && len(projects) == 0 {
		err = errCacheEmpty
	}
	return projects, err
}

func (g GitlabApiClient) saveProjectsToCache(projects []*gitlab.Project) error {
	cacheFile, err := g.getCacheFile()
	if err != nil {
		return err
	}

	db, err := bbolt.Open(cacheFile, 0600, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketName))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		for _, project := range projects {
			data, err := json.Marshal(project)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(project.PathWithNamespace), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (g GitlabApiClient) getCacheFile() (string, error) {
	cacheDir := g.CacheDir
	if cacheDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cacheDir = filepath.Join(homeDir, CacheDirName)
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", err
	}

	cacheFileName := fmt.Sprintf("%s_projects_cache.db", Sanitize(g.baseUrl))
	return filepath.Join(cacheDir, cacheFileName), nil
}
