package mockdata

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/reaandrew/secscanner/core"
	"github.com/reaandrew/secscanner/utils"
)

type findingTemplate struct {
	title          string
	description    string
	severity       core.SeverityLevel
	codeSnippet    string
	location       string
	recommendation string
}

var catalogue = []findingTemplate{
	{
		title:          "Hardcoded API key",
		description:    "An API key is committed to source control and can be harvested by anyone with read access.",
		severity:       core.SeverityCritical,
		codeSnippet:    `const apiKey = "sk_live_51H8xYz2eZvKYlo2C"`,
		location:       "src/config/api.ts:12",
		recommendation: "Revoke the key and load it from a secret manager or environment variable.",
	},
	{
		title:          "SQL injection",
		description:    "User input is concatenated into a SQL statement without parameterisation.",
		severity:       core.SeverityCritical,
		codeSnippet:    `db.Query("SELECT * FROM users WHERE name = '" + name + "'")`,
		location:       "internal/store/users.go:48",
		recommendation: "Use parameterised queries or a query builder that escapes input.",
	},
	{
		title:          "Outdated dependency with known CVE",
		description:    "lodash 4.17.15 is vulnerable to prototype pollution (CVE-2020-8203).",
		severity:       core.SeverityHigh,
		codeSnippet:    `"lodash": "4.17.15"`,
		location:       "package.json:23",
		recommendation: "Upgrade lodash to 4.17.21 or later.",
	},
	{
		title:          "Cross-site scripting",
		description:    "Unescaped user content is rendered with innerHTML.",
		severity:       core.SeverityHigh,
		codeSnippet:    `element.innerHTML = comment.body`,
		location:       "web/components/Comment.js:31",
		recommendation: "Render user content as text or sanitise it before insertion.",
	},
	{
		title:          "Weak password hashing",
		description:    "Passwords are hashed with MD5, which is fast and unsalted.",
		severity:       core.SeverityHigh,
		codeSnippet:    `hash := md5.Sum([]byte(password))`,
		location:       "internal/auth/password.go:19",
		recommendation: "Use bcrypt, scrypt or argon2id with a per-user salt.",
	},
	{
		title:          "Missing security headers",
		description:    "Responses are served without Content-Security-Policy or X-Frame-Options.",
		severity:       core.SeverityMedium,
		location:       "server/middleware.go:7",
		recommendation: "Add a middleware that sets CSP, X-Frame-Options and Strict-Transport-Security.",
	},
	{
		title:          "Permissive CORS policy",
		description:    "The API allows any origin with credentials.",
		severity:       core.SeverityMedium,
		codeSnippet:    `AllowedOrigins: []string{"*"}`,
		location:       "server/cors.go:14",
		recommendation: "Restrict allowed origins to known front ends.",
	},
	{
		title:          "Debug mode enabled",
		description:    "The application starts with debug mode on, exposing stack traces to clients.",
		severity:       core.SeverityLow,
		codeSnippet:    `DEBUG = True`,
		location:       "settings.py:5",
		recommendation: "Disable debug mode outside local development.",
	},
	{
		title:          "Verbose error messages",
		description:    "Internal error details are returned to API callers.",
		severity:       core.SeverityLow,
		location:       "api/errors.go:22",
		recommendation: "Log details server side and return a generic message.",
	},
	{
		title:          "TODO referencing security",
		description:    "A TODO comment notes that input validation is still missing.",
		severity:       core.SeverityInfo,
		codeSnippet:    `// TODO: validate input before saving`,
		location:       "internal/forms/submit.go:63",
		recommendation: "Track the missing validation as an issue and schedule the fix.",
	},
	{
		title:          "No dependency lock file",
		description:    "Builds resolve dependency versions at install time.",
		severity:       core.SeverityInfo,
		location:       "/",
		recommendation: "Commit a lock file so builds are reproducible.",
	},
}

var demoRepositories = []string{
	"octocat/Hello-World",
	"acme/payments-service",
	"acme/web-frontend",
	"acme/infrastructure",
	"example/api-gateway",
}

// MockGenerator produces plausible scan results for demos and for the
// fallback path when the remote service cannot be used.
type MockGenerator struct {
	mu          sync.Mutex
	rand        *rand.Rand
	IdGenerator utils.IdGenerator
	Now         func() time.Time
}

func NewMockGenerator() *MockGenerator {
	return NewSeededMockGenerator(time.Now().UnixNano())
}

func NewSeededMockGenerator(seed int64) *MockGenerator {
	return &MockGenerator{
		rand:        rand.New(rand.NewSource(seed)),
		IdGenerator: utils.UuidIdGenerator{},
		Now:         time.Now,
	}
}

func (g *MockGenerator) Generate(repository, branch string) core.ScanResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generateAt(repository, branch, g.Now().UTC())
}

// GenerateHistory returns count results, most recent first.
func (g *MockGenerator) GenerateHistory(count int) []core.ScanResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	history := make([]core.ScanResult, 0, count)
	now := g.Now().UTC()
	for i := 0; i < count; i++ {
		repository := demoRepositories[g.rand.Intn(len(demoRepositories))]
		branch := core.DefaultBranch
		if g.rand.Intn(3) == 0 {
			branch = "develop"
		}
		at := now.Add(-time.Duration(i+1) * 24 * time.Hour).Add(-time.Duration(g.rand.Intn(3600)) * time.Second)
		history = append(history, g.generateAt(repository, branch, at))
	}
	return history
}

func (g *MockGenerator) generateAt(repository, branch string, at time.Time) core.ScanResult {
	if branch == "" {
		branch = core.DefaultBranch
	}
	timestamp := at.Format(time.RFC3339)

	numFindings := g.rand.Intn(len(catalogue)) + 1
	picks := g.rand.Perm(len(catalogue))[:numFindings]

	findings := make([]core.SecurityFinding, 0, numFindings)
	for _, pick := range picks {
		template := catalogue[pick]
		findings = append(findings, core.SecurityFinding{
			Id:             g.IdGenerator.Generate(),
			Title:          template.title,
			Description:    template.description,
			Severity:       template.severity,
			CodeSnippet:    template.codeSnippet,
			Location:       template.location,
			Recommendation: template.recommendation,
			CreatedAt:      timestamp,
		})
	}

	return core.ScanResult{
		Id:         fmt.Sprintf("scan-%s", g.IdGenerator.Generate()),
		Repository: repository,
		Branch:     branch,
		Timestamp:  timestamp,
		Findings:   findings,
		Summary:    core.ComputeSummary(findings),
		Status:     core.StatusCompleted,
	}
}
