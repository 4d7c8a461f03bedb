package core

const DefaultBranch = "main"

// ScanRequest is what a caller submits to start a scan. Only Repository is
// required; nil/empty options are left out of the payload sent upstream.
type ScanRequest struct {
	Repository             string   `json:"repository"`
	Branch                 string   `json:"branch,omitempty"`
	UseWebSearch           *bool    `json:"useWebSearch,omitempty"`
	SendReport             *bool    `json:"sendReport,omitempty"`
	Recipient              string   `json:"recipient,omitempty"`
	CreateIssues           *bool    `json:"createIssues,omitempty"`
	IncludeRecommendations *bool    `json:"includeRecommendations,omitempty"`
	ScanDepth              *int     `json:"scanDepth,omitempty"`
	FileTypes              []string `json:"fileTypes,omitempty"`
	ScanHistory            *bool    `json:"scanHistory,omitempty"`
}

// EffectiveBranch returns the requested branch or DefaultBranch.
func (r ScanRequest) EffectiveBranch() string {
	if r.Branch == "" {
		return DefaultBranch
	}
	return r.Branch
}

func Bool(v bool) *bool {
	return &v
}

func Int(v int) *int {
	return &v
}
