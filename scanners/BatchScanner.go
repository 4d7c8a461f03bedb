package scanners

import (
	"context"
	"errors"
	"fmt"

	"github.com/reaandrew/secscanner/core"
	"github.com/reaandrew/secscanner/utils"
	log "github.com/sirupsen/logrus"
)

// Scanner is the part of the orchestrator a batch needs. A result that Find
// cannot locate in history was generated as a fallback.
type Scanner interface {
	RunScan(ctx context.Context, request core.ScanRequest) (core.ScanResult, error)
	Find(id string) (core.ScanResult, bool)
}

type BatchResult struct {
	Results   []core.ScanResult
	Completed int
	Fallback  int
	Skipped   int
}

// BatchScanner scans targets one at a time so the orchestrator's single
// in-flight scan is never contended.
type BatchScanner struct {
	Scanner          Scanner
	Reporter         core.Reporter
	ProgressReporter utils.ProgressReporter
	// Options is copied into every request; Repository and Branch are
	// replaced per target.
	Options core.ScanRequest
}

func (b BatchScanner) Scan(ctx context.Context, source RepositorySource) (BatchResult, error) {
	targets, err := source.Targets(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	if len(targets) == 0 {
		return BatchResult{}, errors.New("no repositories found to scan")
	}

	progress := b.ProgressReporter
	if progress == nil {
		progress = &utils.NoopProgressReporter{}
	}
	progress.SetTotal(len(targets))
	defer progress.Finish()

	batch := BatchResult{}
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return batch, fmt.Errorf("batch scan interrupted: %w", err)
		}

		request := b.Options
		request.Repository = target.Repository
		request.Branch = target.Branch

		result, err := b.Scanner.RunScan(ctx, request)
		if err != nil {
			log.WithField("repository", target.Repository).Errorf("Skipping repository: %v", err)
			batch.Skipped++
			progress.Increment()
			continue
		}

		if _, ok := b.Scanner.Find(result.Id); ok {
			batch.Completed++
		} else {
			batch.Fallback++
		}
		batch.Results = append(batch.Results, result)
		progress.Increment()
	}

	log.Printf("Batch scan finished: %d completed, %d fallback, %d skipped", batch.Completed, batch.Fallback, batch.Skipped)

	if b.Reporter != nil {
		if err := b.Reporter.Report(batch.Results); err != nil {
			return batch, fmt.Errorf("error generating report: %w", err)
		}
	}
	return batch, nil
}
