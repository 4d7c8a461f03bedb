package core

type ScanStatus string

const (
	StatusCompleted  ScanStatus = "completed"
	StatusFailed     ScanStatus = "failed"
	StatusInProgress ScanStatus = "in-progress"
)

func (s ScanStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusInProgress:
		return true
	}
	return false
}

// Summary maps each severity to the number of findings carrying it.
type Summary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

// Count returns the count stored for level, or 0 for an unknown level.
func (s Summary) Count(level SeverityLevel) int {
	switch level {
	case SeverityCritical:
		return s.Critical
	case SeverityHigh:
		return s.High
	case SeverityMedium:
		return s.Medium
	case SeverityLow:
		return s.Low
	case SeverityInfo:
		return s.Info
	}
	return 0
}

// Add increments the count for level. Unknown levels are ignored.
func (s *Summary) Add(level SeverityLevel, n int) {
	switch level {
	case SeverityCritical:
		s.Critical += n
	case SeverityHigh:
		s.High += n
	case SeverityMedium:
		s.Medium += n
	case SeverityLow:
		s.Low += n
	case SeverityInfo:
		s.Info += n
	}
}

func (s Summary) Total() int {
	return s.Critical + s.High + s.Medium + s.Low + s.Info
}

// ComputeSummary counts findings by severity. Findings with a missing or
// unknown severity count toward no level.
func ComputeSummary(findings []SecurityFinding) Summary {
	summary := Summary{}
	for _, finding := range findings {
		summary.Add(finding.Severity, 1)
	}
	return summary
}

type ScanResult struct {
	Id         string            `json:"id"`
	Repository string            `json:"repository"`
	Branch     string            `json:"branch"`
	Timestamp  string            `json:"timestamp"`
	Findings   []SecurityFinding `json:"findings"`
	Summary    Summary           `json:"summary"`
	Status     ScanStatus        `json:"status"`
}

// Clone returns a copy that shares no slices with r.
func (r ScanResult) Clone() ScanResult {
	clone := r
	clone.Findings = make([]SecurityFinding, len(r.Findings))
	copy(clone.Findings, r.Findings)
	return clone
}

// FindingsBySeverity returns the findings carrying level, in result order.
func (r ScanResult) FindingsBySeverity(level SeverityLevel) []SecurityFinding {
	var matches []SecurityFinding
	for _, finding := range r.Findings {
		if finding.Severity == level {
			matches = append(matches, finding)
		}
	}
	return matches
}

func CloneResults(results []ScanResult) []ScanResult {
	clones := make([]ScanResult, len(results))
	for i, result := range results {
		clones[i] = result.Clone()
	}
	return clones
}
