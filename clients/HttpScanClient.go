package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/reaandrew/secscanner/core"
	log "github.com/sirupsen/logrus"
)

const DefaultScanPath = "/scan-repo"

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type DefaultHttpClient struct {
}

func (d DefaultHttpClient) Do(req *http.Request) (*http.Response, error) {
	response, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("Error sending request to %s: %v", req.URL, err)
	} else {
		log.Printf("Scan endpoint %s responded with %d", req.URL, response.StatusCode)
	}
	return response, err
}

// StatusError is returned when the scan endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scan endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// TransportError wraps failures to reach the endpoint or read its response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to reach scan endpoint: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// scanPayload is the wire body. Only repo and branch are always present.
type scanPayload struct {
	Repo                   string   `json:"repo"`
	Branch                 string   `json:"branch"`
	UseWebSearch           *bool    `json:"useWebSearch,omitempty"`
	SendReport             *bool    `json:"sendReport,omitempty"`
	Recipient              string   `json:"recipient,omitempty"`
	CreateIssues           *bool    `json:"createIssues,omitempty"`
	IncludeRecommendations *bool    `json:"includeRecommendations,omitempty"`
	ScanDepth              *int     `json:"scanDepth,omitempty"`
	FileTypes              []string `json:"fileTypes,omitempty"`
	ScanHistory            *bool    `json:"scanHistory,omitempty"`
}

type HttpScanClient struct {
	BaseURL    string
	Path       string
	Token      string
	HTTPClient HttpClient
}

func NewHttpScanClient(baseUrl, path, token string) HttpScanClient {
	return HttpScanClient{
		BaseURL:    baseUrl,
		Path:       path,
		Token:      token,
		HTTPClient: DefaultHttpClient{},
	}
}

// Endpoint is the URL scans are posted to. A Path of "-" posts to BaseURL itself.
func (c HttpScanClient) Endpoint() string {
	base := strings.TrimSuffix(c.BaseURL, "/")
	switch c.Path {
	case "-":
		return base
	case "":
		return base + DefaultScanPath
	}
	return base + "/" + strings.TrimPrefix(c.Path, "/")
}

// Fetch issues one scan request and returns the raw success body.
func (c HttpScanClient) Fetch(ctx context.Context, request core.ScanRequest) ([]byte, error) {
	payload, err := json.Marshal(toPayload(request))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scan request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

func toPayload(request core.ScanRequest) scanPayload {
	return scanPayload{
		Repo:                   request.Repository,
		Branch:                 request.EffectiveBranch(),
		UseWebSearch:           request.UseWebSearch,
		SendReport:             request.SendReport,
		Recipient:              request.Recipient,
		CreateIssues:           request.CreateIssues,
		IncludeRecommendations: request.IncludeRecommendations,
		ScanDepth:              request.ScanDepth,
		FileTypes:              request.FileTypes,
		ScanHistory:            request.ScanHistory,
	}
}
