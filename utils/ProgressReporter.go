package utils

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// ProgressReporter defines methods for reporting progress.
type ProgressReporter interface {
	// SetTotal reinitializes the progress bar with the new total count.
	SetTotal(total int)
	// Increment increases the progress by one.
	Increment()
	Finish()
}

// BarProgressReporter is a concrete implementation using progressbar. A
// total of -1 renders a spinner for work of unknown length.
type BarProgressReporter struct {
	description string
	writer      io.Writer
	bar         *progressbar.ProgressBar
}

func NewBarProgressReporterTo(w io.Writer, total int, description string) *BarProgressReporter {
	p := &BarProgressReporter{description: description, writer: w}
	p.SetTotal(total)
	return p
}

// NewSpinner shows activity while a single request is in flight.
func NewSpinner(w io.Writer, description string) *BarProgressReporter {
	return NewBarProgressReporterTo(w, -1, description)
}

func (p *BarProgressReporter) SetTotal(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionSetDescription(p.description),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100e6),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *BarProgressReporter) Increment() {
	_ = p.bar.Add(1)
}

func (p *BarProgressReporter) Finish() {
	_ = p.bar.Finish()
}

// NoopProgressReporter is used when output is not a terminal or in tests.
type NoopProgressReporter struct {
	Total      int
	Increments int
	Finished   bool
}

func (n *NoopProgressReporter) SetTotal(total int) {
	n.Total = total
}

func (n *NoopProgressReporter) Increment() {
	n.Increments++
}

func (n *NoopProgressReporter) Finish() {
	n.Finished = true
}
