package reporters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/reaandrew/secscanner/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockHttpClient struct {
	requests   []*http.Request
	bodies     [][]byte
	statusCode int
}

func (m *MockHttpClient) Do(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)

	statusCode := m.statusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}

	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString("This is a mock response body.")),
		Header:     make(http.Header),
	}, nil
}

type MockReportIdGenerator struct {
	id string
}

func (m MockReportIdGenerator) Generate() string {
	return m.id
}

func TestHttpReporter_Report(t *testing.T) {
	expectedId := "101"
	client := MockHttpClient{}
	report := HttpReporter{
		BaseURL:           "https://somewhere",
		HTTPClient:        &client,
		ReportIdGenerator: MockReportIdGenerator{id: expectedId},
	}

	err := report.Report(sampleResults())
	require.NoError(t, err)
	require.Len(t, client.requests, 3)

	for i := 0; i < 2; i++ {
		assert.Equal(t, fmt.Sprintf("https://somewhere/reports/%s/results", expectedId), client.requests[i].URL.String())
		assert.Equal(t, "POST", client.requests[i].Method)
	}

	var posted core.ScanResult
	require.NoError(t, json.Unmarshal(client.bodies[0], &posted))
	assert.Equal(t, "scan-1", posted.Id)
	assert.Len(t, posted.Findings, 3)

	completion := client.requests[2]
	assert.Equal(t, fmt.Sprintf("https://somewhere/report/%s", expectedId), completion.URL.String())
	assert.Equal(t, "PATCH", completion.Method)
}

func TestHttpReporter_StopsOnFailure(t *testing.T) {
	client := MockHttpClient{statusCode: http.StatusBadGateway}
	report := HttpReporter{
		BaseURL:           "https://somewhere",
		HTTPClient:        &client,
		ReportIdGenerator: MockReportIdGenerator{id: "1"},
	}

	err := report.Report(sampleResults())

	assert.ErrorContains(t, err, "unexpected response status: 502")
	assert.Len(t, client.requests, 1)
}
