package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/reaandrew/secscanner/core"
)

// DefaultHistoryKey is the single key the serialized history lives under.
const DefaultHistoryKey = "security-scanner-history"

func encodeHistory(history []core.ScanResult) ([]byte, error) {
	if history == nil {
		history = []core.ScanResult{}
	}
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}
	return data, nil
}

func decodeHistory(data []byte) ([]core.ScanResult, error) {
	var history []core.ScanResult
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to parse stored history: %w", err)
	}
	if history == nil {
		history = []core.ScanResult{}
	}
	return history, nil
}
