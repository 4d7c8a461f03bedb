package core

import "errors"

// ErrHistoryNotFound is returned by HistoryStore.Load when nothing was ever saved.
var ErrHistoryNotFound = errors.New("scan history not found")

// HistoryStore persists the whole history under a single key. Save always
// overwrites what was stored before.
type HistoryStore interface {
	Load() ([]ScanResult, error)
	Save(history []ScanResult) error
	Close() error
}

// Notifier receives fire-and-forget user facing messages.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// ResultGenerator produces synthetic results when no real data is available.
type ResultGenerator interface {
	Generate(repository, branch string) ScanResult
	GenerateHistory(count int) []ScanResult
}

type Reporter interface {
	Report(results []ScanResult) error
}
