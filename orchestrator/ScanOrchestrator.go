package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/reaandrew/secscanner/core"
	"github.com/reaandrew/secscanner/normalizers"
	log "github.com/sirupsen/logrus"
)

// DefaultSeedCount is how many generated results seed an empty history.
const DefaultSeedCount = 3

// ErrScanInProgress is the only error RunScan returns.
var ErrScanInProgress = errors.New("a scan is already in progress")

// Fetcher performs the remote scan call and returns the raw success body.
type Fetcher interface {
	Fetch(ctx context.Context, request core.ScanRequest) ([]byte, error)
}

type Normalizer interface {
	Normalize(body []byte, repository, branch string) (normalizers.Normalized, error)
}

type State int

const (
	Idle State = iota
	Scanning
)

func (s State) String() string {
	if s == Scanning {
		return "scanning"
	}
	return "idle"
}

// ScanOrchestrator owns the scan history, the loading flag and the current
// scan for one session. Construct it once and call Initialize before use.
type ScanOrchestrator struct {
	mu          sync.Mutex
	state       State
	history     []core.ScanResult
	currentScan *core.ScanResult

	fetcher    Fetcher
	normalizer Normalizer
	generator  core.ResultGenerator
	store      core.HistoryStore
	notifier   core.Notifier

	SeedCount int
	// OnStateChange, when set, is called outside the lock on every Idle/Scanning transition.
	OnStateChange func(State)
}

func NewScanOrchestrator(
	fetcher Fetcher,
	normalizer Normalizer,
	generator core.ResultGenerator,
	store core.HistoryStore,
	notifier core.Notifier) *ScanOrchestrator {
	return &ScanOrchestrator{
		state:      Idle,
		history:    []core.ScanResult{},
		fetcher:    fetcher,
		normalizer: normalizer,
		generator:  generator,
		store:      store,
		notifier:   notifier,
		SeedCount:  DefaultSeedCount,
	}
}

// Initialize adopts the persisted history, or seeds and persists a generated
// one when nothing usable is stored. It never fails.
func (o *ScanOrchestrator) Initialize() {
	history, err := o.store.Load()
	if err == nil {
		o.mu.Lock()
		o.history = history
		o.mu.Unlock()
		log.Printf("Loaded %d scan results from history", len(history))
		return
	}

	if !errors.Is(err, core.ErrHistoryNotFound) {
		log.Errorf("Failed to load scan history: %v", err)
		o.notifier.Error("Failed to load scan history")
	}

	seeded := o.generator.GenerateHistory(o.SeedCount)
	o.mu.Lock()
	o.history = seeded
	o.persistLocked()
	o.mu.Unlock()
	log.Printf("Seeded scan history with %d generated results", len(seeded))
}

// RunScan requests a scan and always resolves with a usable result: the
// normalized remote result on success, a generated one on any failure.
// It returns ErrScanInProgress without side effects while another scan runs.
func (o *ScanOrchestrator) RunScan(ctx context.Context, request core.ScanRequest) (core.ScanResult, error) {
	if !o.beginScan() {
		return core.ScanResult{}, ErrScanInProgress
	}
	defer o.endScan()

	branch := request.EffectiveBranch()
	logger := log.WithFields(log.Fields{
		"repository": request.Repository,
		"branch":     branch,
	})

	body, err := o.fetcher.Fetch(ctx, request)
	if err != nil {
		logger.Errorf("Scan request failed: %v", err)
		return o.fallback(request.Repository, branch, err), nil
	}

	normalized, err := o.normalizer.Normalize(body, request.Repository, branch)
	if err != nil {
		logger.Errorf("Scan response unusable: %v", err)
		return o.fallback(request.Repository, branch, err), nil
	}

	result := normalized.Result
	o.mu.Lock()
	o.setCurrentLocked(result)
	o.history = append([]core.ScanResult{result.Clone()}, o.history...)
	o.persistLocked()
	o.mu.Unlock()

	logger.WithField("scan", result.Id).Printf("Scan completed with %d findings", len(result.Findings))
	o.notifier.Success("Security scan completed")
	if normalized.ReportSent {
		o.notifier.Success(reportSentMessage(request.Recipient))
	}
	if normalized.IssuesCreated {
		o.notifier.Success(issuesCreatedMessage(normalized.IssueCount))
	}

	return result.Clone(), nil
}

// fallback records a generated result as the current scan. It is not added
// to history: history only holds scans the remote service completed.
func (o *ScanOrchestrator) fallback(repository, branch string, cause error) core.ScanResult {
	o.notifier.Error(fmt.Sprintf("Security scan failed: %v", cause))

	result := o.generator.Generate(repository, branch)
	o.mu.Lock()
	o.setCurrentLocked(result)
	o.mu.Unlock()

	return result.Clone()
}

// ClearHistory stores an empty history rather than removing it, so the next
// session does not mistake a cleared history for a missing one and reseed.
func (o *ScanOrchestrator) ClearHistory() {
	o.mu.Lock()
	o.history = []core.ScanResult{}
	o.persistLocked()
	o.mu.Unlock()

	o.notifier.Success("Scan history cleared")
}

// DeleteResult removes the result with id from history. An unknown id
// leaves history untouched but is still reported as deleted.
func (o *ScanOrchestrator) DeleteResult(id string) {
	o.mu.Lock()
	kept := make([]core.ScanResult, 0, len(o.history))
	for _, result := range o.history {
		if result.Id != id {
			kept = append(kept, result)
		}
	}
	removed := len(kept) != len(o.history)
	o.history = kept
	if o.currentScan != nil && o.currentScan.Id == id {
		o.currentScan = nil
	}
	o.persistLocked()
	o.mu.Unlock()

	if !removed {
		log.Printf("Delete requested for unknown scan %s", id)
	}
	o.notifier.Success("Scan result deleted")
}

func (o *ScanOrchestrator) History() []core.ScanResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return core.CloneResults(o.history)
}

func (o *ScanOrchestrator) CurrentScan() (core.ScanResult, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.currentScan == nil {
		return core.ScanResult{}, false
	}
	return o.currentScan.Clone(), true
}

// Find looks a result up in history by id.
func (o *ScanOrchestrator) Find(id string) (core.ScanResult, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, result := range o.history {
		if result.Id == id {
			return result.Clone(), true
		}
	}
	return core.ScanResult{}, false
}

func (o *ScanOrchestrator) Loading() bool {
	return o.State() == Scanning
}

func (o *ScanOrchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *ScanOrchestrator) beginScan() bool {
	o.mu.Lock()
	if o.state == Scanning {
		o.mu.Unlock()
		return false
	}
	o.state = Scanning
	o.mu.Unlock()

	o.stateChanged(Scanning)
	return true
}

func (o *ScanOrchestrator) endScan() {
	o.mu.Lock()
	o.state = Idle
	o.mu.Unlock()

	o.stateChanged(Idle)
}

func (o *ScanOrchestrator) stateChanged(state State) {
	if o.OnStateChange != nil {
		o.OnStateChange(state)
	}
}

func (o *ScanOrchestrator) setCurrentLocked(result core.ScanResult) {
	current := result.Clone()
	o.currentScan = &current
}

// persistLocked writes history through to the store. Failures leave memory
// and storage diverged until the next successful write.
func (o *ScanOrchestrator) persistLocked() {
	if err := o.store.Save(o.history); err != nil {
		log.Errorf("Failed to save scan history: %v", err)
	}
}

func reportSentMessage(recipient string) string {
	if recipient == "" {
		return "Security report sent"
	}
	return fmt.Sprintf("Security report sent to %s", recipient)
}

func issuesCreatedMessage(count int) string {
	switch count {
	case 0:
		return "Issues created for findings"
	case 1:
		return "Created 1 issue for findings"
	}
	return fmt.Sprintf("Created %d issues for findings", count)
}
