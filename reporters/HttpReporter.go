package reporters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/reaandrew/secscanner/clients"
	"github.com/reaandrew/secscanner/core"
	"github.com/reaandrew/secscanner/utils"
	log "github.com/sirupsen/logrus"
)

func NewDefaultHttpReporter(baseUrl string) HttpReporter {
	return HttpReporter{
		BaseURL:           baseUrl,
		HTTPClient:        clients.DefaultHttpClient{},
		ReportIdGenerator: utils.UuidIdGenerator{},
	}
}

// HttpReporter posts every result to a report collector and then marks the
// report completed.
type HttpReporter struct {
	BaseURL           string
	HTTPClient        clients.HttpClient
	ReportIdGenerator utils.IdGenerator
}

func (h HttpReporter) Report(results []core.ScanResult) error {
	reportId := h.ReportIdGenerator.Generate()
	log.WithField("report", reportId).Printf("Reporting %d scan results to %s", len(results), h.BaseURL)

	for _, result := range results {
		if err := h.postResult(result, reportId); err != nil {
			return fmt.Errorf("failed to report scan %s: %w", result.Id, err)
		}
	}

	if err := h.signalCompletion(reportId); err != nil {
		return fmt.Errorf("failed to signal completion: %w", err)
	}

	return nil
}

func (h HttpReporter) postResult(result core.ScanResult, reportId string) error {
	url := fmt.Sprintf("%s/reports/%s/results", h.BaseURL, reportId)

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return h.send(req)
}

func (h HttpReporter) signalCompletion(reportId string) error {
	url := fmt.Sprintf("%s/report/%s", h.BaseURL, reportId)
	req, err := http.NewRequest(http.MethodPatch, url, bytes.NewReader([]byte(`{"status":"completed"}`)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return h.send(req)
}

func (h HttpReporter) send(req *http.Request) error {
	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	return nil
}
