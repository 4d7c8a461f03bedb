package utils

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type StubBranchLister struct {
	branches []string
	err      error
	urls     []string
}

func (s *StubBranchLister) ListBranches(ctx context.Context, repoURL string) ([]string, error) {
	s.urls = append(s.urls, repoURL)
	return s.branches, s.err
}

func TestRepositoryURL(t *testing.T) {
	assert.Equal(t, "https://github.com/octocat/Hello-World.git", RepositoryURL("octocat/Hello-World"))
	assert.Equal(t, "https://github.com/octocat/Hello-World.git", RepositoryURL("octocat/Hello-World.git"))
	assert.Equal(t, "git@github.com:octocat/Hello-World.git", RepositoryURL("git@github.com:octocat/Hello-World.git"))
	assert.Equal(t, "https://gitlab.example.com/g/p.git", RepositoryURL("https://gitlab.example.com/g/p.git"))
}

func TestVerifyBranch(t *testing.T) {
	lister := &StubBranchLister{branches: []string{"main", "develop"}}

	assert.NoError(t, VerifyBranch(context.Background(), lister, "octocat/Hello-World", "develop"))
	assert.Equal(t, []string{"https://github.com/octocat/Hello-World.git"}, lister.urls)

	err := VerifyBranch(context.Background(), lister, "octocat/Hello-World", "release")
	assert.EqualError(t, err, `branch "release" not found in octocat/Hello-World`)
}

func TestVerifyBranchPropagatesListErrors(t *testing.T) {
	cause := errors.New("authentication required")
	lister := &StubBranchLister{err: cause}

	err := VerifyBranch(context.Background(), lister, "acme/private", "main")

	assert.ErrorIs(t, err, cause)
}

func TestParseFileTypes(t *testing.T) {
	patterns, err := ParseFileTypes("*.go, *.ts ,,src/**/*.py")
	require.NoError(t, err)
	assert.Equal(t, []string{"*.go", "*.ts", "src/**/*.py"}, patterns)

	empty, err := ParseFileTypes("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseFileTypes("*.go,[abc")
	assert.ErrorContains(t, err, `invalid file type pattern "[abc"`)
}

func TestNoopProgressReporter(t *testing.T) {
	progress := &NoopProgressReporter{}
	var reporter ProgressReporter = progress

	reporter.SetTotal(3)
	reporter.Increment()
	reporter.Increment()
	reporter.Finish()

	assert.Equal(t, 3, progress.Total)
	assert.Equal(t, 2, progress.Increments)
	assert.True(t, progress.Finished)
}

func TestBarProgressReporterWritesToWriter(t *testing.T) {
	var out bytes.Buffer
	reporter := NewBarProgressReporterTo(&out, 2, "Scanning")

	reporter.Increment()
	reporter.Increment()
	reporter.Finish()

	assert.NotZero(t, out.Len())
}

func TestSpinnerWritesDescription(t *testing.T) {
	var out bytes.Buffer
	spinner := NewSpinner(&out, "Scanning acme/api@main")

	spinner.Increment()
	spinner.Finish()

	assert.Contains(t, out.String(), "Scanning acme/api@main")
}
