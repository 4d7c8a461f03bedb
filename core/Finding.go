package core

// SeverityLevel is the closed set of severities a finding can carry.
type SeverityLevel string

const (
	SeverityCritical SeverityLevel = "critical"
	SeverityHigh     SeverityLevel = "high"
	SeverityMedium   SeverityLevel = "medium"
	SeverityLow      SeverityLevel = "low"
	SeverityInfo     SeverityLevel = "info"
)

// AllSeverities lists every level in display order, most severe first.
var AllSeverities = []SeverityLevel{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInfo,
}

// Valid reports whether s is one of the five known levels.
func (s SeverityLevel) Valid() bool {
	return s.Rank() > 0
}

// Rank is used for display ordering only. Unknown levels rank 0.
func (s SeverityLevel) Rank() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

func (s SeverityLevel) String() string {
	return string(s)
}

type SecurityFinding struct {
	Id             string        `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Severity       SeverityLevel `json:"severity"`
	CodeSnippet    string        `json:"codeSnippet,omitempty"`
	Location       string        `json:"location,omitempty"`
	Recommendation string        `json:"recommendation,omitempty"`
	CreatedAt      string        `json:"createdAt"`
	// ResolvedAt is carried through untouched; nothing in this module resolves findings.
	ResolvedAt string `json:"resolvedAt,omitempty"`
}
