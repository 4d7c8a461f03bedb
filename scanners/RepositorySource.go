package scanners

import "context"

// Target is one repository a batch should scan.
type Target struct {
	Repository string
	Branch     string
}

// RepositorySource enumerates the repositories of a hosting provider.
type RepositorySource interface {
	Targets(ctx context.Context) ([]Target, error)
}
