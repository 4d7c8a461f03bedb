package mockdata

import (
	"testing"
	"time"

	"github.com/reaandrew/secscanner/core"
	"github.com/stretchr/testify/assert"
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestGenerateKeepsRepositoryAndBranch(t *testing.T) {
	generator := NewSeededMockGenerator(42)

	result := generator.Generate("octocat/Hello-World", "feature/x")

	assert.Equal(t, "octocat/Hello-World", result.Repository)
	assert.Equal(t, "feature/x", result.Branch)
	assert.Equal(t, core.StatusCompleted, result.Status)
	assert.NotEmpty(t, result.Id)
}

func TestGenerateDefaultsBranch(t *testing.T) {
	result := NewSeededMockGenerator(1).Generate("acme/api", "")

	assert.Equal(t, core.DefaultBranch, result.Branch)
}

func TestGenerateProducesConsistentSummaryAndUniqueIds(t *testing.T) {
	generator := NewSeededMockGenerator(7)

	for i := 0; i < 50; i++ {
		result := generator.Generate("acme/api", "main")

		assert.NotEmpty(t, result.Findings)
		assert.Equal(t, core.ComputeSummary(result.Findings), result.Summary)
		assert.Equal(t, len(result.Findings), result.Summary.Total())

		ids := map[string]bool{}
		for _, finding := range result.Findings {
			assert.False(t, ids[finding.Id], "duplicate finding id %s", finding.Id)
			ids[finding.Id] = true
			assert.True(t, finding.Severity.Valid())
			assert.NotEmpty(t, finding.Title)
			assert.NotEmpty(t, finding.Description)
		}
	}
}

func TestGenerateHistoryIsMostRecentFirst(t *testing.T) {
	generator := NewSeededMockGenerator(3)
	generator.Now = fixedNow

	history := generator.GenerateHistory(3)

	assert.Len(t, history, 3)
	for i := 1; i < len(history); i++ {
		previous, err := time.Parse(time.RFC3339, history[i-1].Timestamp)
		assert.NoError(t, err)
		current, err := time.Parse(time.RFC3339, history[i].Timestamp)
		assert.NoError(t, err)
		assert.True(t, previous.After(current))
		assert.NotEqual(t, history[i-1].Id, history[i].Id)
	}
}

func TestGenerateHistoryOfZero(t *testing.T) {
	assert.Empty(t, NewSeededMockGenerator(3).GenerateHistory(0))
}

func TestSameSeedSameShape(t *testing.T) {
	first := NewSeededMockGenerator(99)
	second := NewSeededMockGenerator(99)
	first.Now = fixedNow
	second.Now = fixedNow

	a := first.Generate("acme/api", "main")
	b := second.Generate("acme/api", "main")

	assert.Equal(t, len(a.Findings), len(b.Findings))
	assert.Equal(t, a.Summary, b.Summary)
	assert.Equal(t, a.Timestamp, b.Timestamp)
}
