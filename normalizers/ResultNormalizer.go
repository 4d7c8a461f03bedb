package normalizers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
	"github.com/reaandrew/secscanner/core"
	"github.com/reaandrew/secscanner/utils"
	log "github.com/sirupsen/logrus"
)

// NormalizationError means the payload could not be turned into a result at
// all. Callers fall back to generated data; there is no partial result.
type NormalizationError struct {
	Reason string
	Err    error
}

func (e *NormalizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to normalize scan response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to normalize scan response: %s", e.Reason)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

// Normalized is a canonical result plus the side-channel flags the remote
// service may report alongside it.
type Normalized struct {
	Result        core.ScanResult
	ReportSent    bool
	IssuesCreated bool
	IssueCount    int
}

type ResultNormalizer struct {
	IdGenerator utils.IdGenerator
	Now         func() time.Time
}

func NewResultNormalizer() ResultNormalizer {
	return ResultNormalizer{
		IdGenerator: utils.UuidIdGenerator{},
		Now:         time.Now,
	}
}

// Normalize maps a loosely typed response body onto core.ScanResult.
// Repository and branch always come from the request, never the response.
func (n ResultNormalizer) Normalize(body []byte, repository, branch string) (Normalized, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Normalized{}, &NormalizationError{Reason: "response is not a JSON object", Err: err}
	}
	if payload == nil {
		return Normalized{}, &NormalizationError{Reason: "response is null"}
	}

	result := core.ScanResult{
		Id:         n.scanId(payload),
		Repository: repository,
		Branch:     branch,
		Timestamp:  n.timestamp(payload),
	}
	result.Findings = n.findings(payload["findings"], result.Timestamp)

	if summary, ok := payload["summary"].(map[string]interface{}); ok {
		// Server supplied counts are taken as-is, even if they disagree with findings.
		result.Summary = summaryFrom(summary)
	} else {
		result.Summary = core.ComputeSummary(result.Findings)
	}

	result.Status = core.StatusCompleted
	if status, ok := payload["status"].(string); ok && core.ScanStatus(status).Valid() {
		result.Status = core.ScanStatus(status)
	}

	normalized := Normalized{Result: result}
	if sent, ok := payload["reportSent"].(bool); ok {
		normalized.ReportSent = sent
	}
	normalized.IssuesCreated, normalized.IssueCount = issuesCreated(payload["issuesCreated"])

	log.WithFields(log.Fields{
		"scan":     result.Id,
		"findings": len(result.Findings),
		"status":   result.Status,
	}).Debug("Normalized scan response")

	return normalized, nil
}

func (n ResultNormalizer) scanId(payload map[string]interface{}) string {
	if id, ok := payload["scanId"].(string); ok && strings.TrimSpace(id) != "" {
		return id
	}
	return fmt.Sprintf("scan-%s", n.IdGenerator.Generate())
}

func (n ResultNormalizer) timestamp(payload map[string]interface{}) string {
	if raw, ok := payload["timestamp"].(string); ok && strings.TrimSpace(raw) != "" {
		if _, err := time.Parse(time.RFC3339, raw); err == nil {
			return raw
		}
		now := n.Now()
		parsed, err := dateparser.Parse(&dateparser.Configuration{
			CurrentTime:   now,
			StrictParsing: true,
			RequiredParts: []string{"year", "month", "day"},
		}, raw)
		// Strict parsing does not cover relative dates, and a finished scan
		// cannot be dated after now.
		if err == nil && !parsed.Time.IsZero() && !parsed.Time.After(now) {
			return parsed.Time.Format(time.RFC3339)
		}
		log.Printf("Ignoring unparseable scan timestamp %q: %v", raw, err)
	}
	return n.Now().UTC().Format(time.RFC3339)
}

func (n ResultNormalizer) findings(raw interface{}, createdAt string) []core.SecurityFinding {
	items, ok := raw.([]interface{})
	if !ok {
		return []core.SecurityFinding{}
	}

	findings := make([]core.SecurityFinding, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		finding := core.SecurityFinding{
			Id:             stringField(fields, "id"),
			Title:          stringField(fields, "title"),
			Description:    stringField(fields, "description"),
			Severity:       core.SeverityLevel(stringField(fields, "severity")),
			CodeSnippet:    stringField(fields, "codeSnippet"),
			Location:       stringField(fields, "location"),
			Recommendation: stringField(fields, "recommendation"),
			CreatedAt:      stringField(fields, "createdAt"),
			ResolvedAt:     stringField(fields, "resolvedAt"),
		}
		if finding.Id == "" {
			finding.Id = n.IdGenerator.Generate()
		}
		if finding.CreatedAt == "" {
			finding.CreatedAt = createdAt
		}
		findings = append(findings, finding)
	}
	return findings
}

func stringField(fields map[string]interface{}, key string) string {
	if value, ok := fields[key].(string); ok {
		return value
	}
	return ""
}

func summaryFrom(raw map[string]interface{}) core.Summary {
	summary := core.Summary{}
	for _, level := range core.AllSeverities {
		if count, ok := raw[string(level)].(float64); ok {
			summary.Add(level, int(count))
		}
	}
	return summary
}

// issuesCreated accepts a count, a flag or the list of created issues.
func issuesCreated(raw interface{}) (bool, int) {
	switch v := raw.(type) {
	case bool:
		return v, 0
	case float64:
		return v > 0, int(v)
	case []interface{}:
		return len(v) > 0, len(v)
	}
	return false, 0
}
