package normalizers

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/reaandrew/secscanner/core"
	"github.com/reaandrew/secscanner/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var normalizedAt = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func newTestNormalizer() ResultNormalizer {
	return ResultNormalizer{
		IdGenerator: &utils.SequenceIdGenerator{Prefix: "gen"},
		Now:         func() time.Time { return normalizedAt },
	}
}

func TestNormalizeFindingsWithoutSummary(t *testing.T) {
	body := []byte(`{"findings":[{"id":"f1","title":"X","severity":"high","createdAt":"2024-01-01T00:00:00Z"}]}`)

	normalized, err := newTestNormalizer().Normalize(body, "octocat/Hello-World", "main")

	require.NoError(t, err)
	result := normalized.Result
	assert.Equal(t, core.Summary{Critical: 0, High: 1, Medium: 0, Low: 0, Info: 0}, result.Summary)
	assert.Equal(t, core.StatusCompleted, result.Status)
	assert.Equal(t, "octocat/Hello-World", result.Repository)
	assert.Equal(t, "main", result.Branch)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, "f1", result.Findings[0].Id)
	assert.Equal(t, "2024-01-01T00:00:00Z", result.Findings[0].CreatedAt)
}

func TestNormalizeUsesScanIdWhenPresent(t *testing.T) {
	normalized, err := newTestNormalizer().Normalize([]byte(`{"scanId":"remote-123"}`), "a/b", "main")

	require.NoError(t, err)
	assert.Equal(t, "remote-123", normalized.Result.Id)
}

func TestNormalizeGeneratesDistinctIds(t *testing.T) {
	normalizer := newTestNormalizer()

	first, err := normalizer.Normalize([]byte(`{"scanId":""}`), "a/b", "main")
	require.NoError(t, err)
	second, err := normalizer.Normalize([]byte(`{}`), "a/b", "main")
	require.NoError(t, err)

	assert.NotEmpty(t, first.Result.Id)
	assert.NotEqual(t, first.Result.Id, second.Result.Id)
}

func TestNormalizeIgnoresRepositoryAndBranchFromResponse(t *testing.T) {
	body := []byte(`{"repository":"evil/repo","branch":"other"}`)

	normalized, err := newTestNormalizer().Normalize(body, "octocat/Hello-World", "dev")

	require.NoError(t, err)
	assert.Equal(t, "octocat/Hello-World", normalized.Result.Repository)
	assert.Equal(t, "dev", normalized.Result.Branch)
}

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"rfc3339 kept verbatim", `{"timestamp":"2024-02-01T10:00:00+02:00"}`, "2024-02-01T10:00:00+02:00"},
		{"missing uses now", `{}`, "2024-03-15T09:30:00Z"},
		{"not a string uses now", `{"timestamp":12}`, "2024-03-15T09:30:00Z"},
		{"garbage uses now", `{"timestamp":"###"}`, "2024-03-15T09:30:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized, err := newTestNormalizer().Normalize([]byte(tt.body), "a/b", "main")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, normalized.Result.Timestamp)
		})
	}
}

func TestNormalizeNaturalDateTimestamp(t *testing.T) {
	normalized, err := newTestNormalizer().Normalize([]byte(`{"timestamp":"12 January 2024"}`), "a/b", "main")

	require.NoError(t, err)
	parsed, err := time.Parse(time.RFC3339, normalized.Result.Timestamp)
	require.NoError(t, err)
	assert.Equal(t, 2024, parsed.Year())
	assert.Equal(t, time.January, parsed.Month())
	assert.Equal(t, 12, parsed.Day())
}

func TestNormalizeRejectsPartialAndFutureDates(t *testing.T) {
	for _, raw := range []string{"12", "January", "tomorrow", "in 2 days"} {
		t.Run(raw, func(t *testing.T) {
			body, err := json.Marshal(map[string]string{"timestamp": raw})
			require.NoError(t, err)

			normalized, err := newTestNormalizer().Normalize(body, "a/b", "main")

			require.NoError(t, err)
			assert.Equal(t, normalizedAt.Format(time.RFC3339), normalized.Result.Timestamp)
		})
	}
}

func TestNormalizeFindingsNotAListBecomesEmpty(t *testing.T) {
	normalized, err := newTestNormalizer().Normalize([]byte(`{"findings":{"id":"f1"}}`), "a/b", "main")

	require.NoError(t, err)
	assert.NotNil(t, normalized.Result.Findings)
	assert.Empty(t, normalized.Result.Findings)
	assert.Equal(t, core.Summary{}, normalized.Result.Summary)
}

func TestNormalizeCoercesFindingShapes(t *testing.T) {
	body := []byte(`{"findings":[
		{"id":"f1","title":"No severity"},
		"not an object",
		{"title":"No id","severity":"low","location":"main.go:1"},
		{"id":"f3","title":"Bogus severity","severity":"urgent"},
		{"id":"f4","title":"Critical","severity":"critical","resolvedAt":"2024-01-02T00:00:00Z"}
	]}`)

	normalized, err := newTestNormalizer().Normalize(body, "a/b", "main")

	require.NoError(t, err)
	findings := normalized.Result.Findings
	require.Len(t, findings, 4)
	assert.Equal(t, []string{"f1", "gen-2", "f3", "f4"}, []string{findings[0].Id, findings[1].Id, findings[2].Id, findings[3].Id})
	assert.Equal(t, "main.go:1", findings[1].Location)
	assert.Equal(t, "2024-03-15T09:30:00Z", findings[1].CreatedAt)
	assert.Equal(t, "2024-01-02T00:00:00Z", findings[3].ResolvedAt)
	assert.Equal(t, core.Summary{Critical: 1, Low: 1}, normalized.Result.Summary)
}

func TestNormalizeTrustsServerSummary(t *testing.T) {
	body := []byte(`{"findings":[{"id":"f1","severity":"high"}],"summary":{"critical":4,"high":0,"medium":2}}`)

	normalized, err := newTestNormalizer().Normalize(body, "a/b", "main")

	require.NoError(t, err)
	assert.Equal(t, core.Summary{Critical: 4, Medium: 2}, normalized.Result.Summary)
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		body     string
		expected core.ScanStatus
	}{
		{`{"status":"failed"}`, core.StatusFailed},
		{`{"status":"in-progress"}`, core.StatusInProgress},
		{`{"status":"done"}`, core.StatusCompleted},
		{`{"status":3}`, core.StatusCompleted},
		{`{}`, core.StatusCompleted},
	}
	for _, tt := range tests {
		normalized, err := newTestNormalizer().Normalize([]byte(tt.body), "a/b", "main")
		require.NoError(t, err)
		assert.Equal(t, tt.expected, normalized.Result.Status, tt.body)
	}
}

func TestNormalizeReportAndIssueFlags(t *testing.T) {
	normalized, err := newTestNormalizer().Normalize([]byte(`{"reportSent":true,"issuesCreated":3}`), "a/b", "main")
	require.NoError(t, err)
	assert.True(t, normalized.ReportSent)
	assert.True(t, normalized.IssuesCreated)
	assert.Equal(t, 3, normalized.IssueCount)

	normalized, err = newTestNormalizer().Normalize([]byte(`{"issuesCreated":[{"number":1},{"number":2}]}`), "a/b", "main")
	require.NoError(t, err)
	assert.False(t, normalized.ReportSent)
	assert.Equal(t, 2, normalized.IssueCount)

	normalized, err = newTestNormalizer().Normalize([]byte(`{"issuesCreated":true}`), "a/b", "main")
	require.NoError(t, err)
	assert.True(t, normalized.IssuesCreated)
	assert.Equal(t, 0, normalized.IssueCount)
}

func TestNormalizeRejectsNonObjects(t *testing.T) {
	for _, body := range []string{`not json`, `[1,2,3]`, `"text"`, `null`, ``} {
		_, err := newTestNormalizer().Normalize([]byte(body), "a/b", "main")

		var normalizationErr *NormalizationError
		assert.True(t, errors.As(err, &normalizationErr), "expected NormalizationError for %q", body)
	}
}
