package notifiers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxRetries   = 3
	defaultInitialDelay = time.Second
)

// WebhookPayload is the JSON body posted for every notification.
type WebhookPayload struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// WebhookNotifier forwards notifications to an HTTP endpoint. Delivery runs
// in the background and failures are only logged.
type WebhookNotifier struct {
	URL          string
	Headers      map[string]string
	MaxRetries   int
	InitialDelay time.Duration
	client       *http.Client
	pending      sync.WaitGroup
}

func NewWebhookNotifier(url string, headers map[string]string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:          url,
		Headers:      headers,
		MaxRetries:   defaultMaxRetries,
		InitialDelay: defaultInitialDelay,
		client:       &http.Client{Timeout: defaultTimeout},
	}
}

func (w *WebhookNotifier) Success(message string) {
	w.dispatch("success", message)
}

func (w *WebhookNotifier) Error(message string) {
	w.dispatch("error", message)
}

func (w *WebhookNotifier) dispatch(level, message string) {
	payload := WebhookPayload{
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	w.pending.Add(1)
	go func() {
		defer w.pending.Done()
		if err := w.Send(context.Background(), payload); err != nil {
			log.WithField("url", w.URL).Errorf("Webhook notification dropped: %v", err)
		}
	}()
}

// Wait blocks until every dispatched notification has been delivered or dropped.
func (w *WebhookNotifier) Wait() {
	w.pending.Wait()
}

// Send delivers payload, retrying with exponential backoff.
func (w *WebhookNotifier) Send(ctx context.Context, payload WebhookPayload) error {
	var lastErr error
	for attempt := 0; attempt <= w.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := w.InitialDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during retry backoff: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		err := w.sendOnce(ctx, payload)
		if err == nil {
			return nil
		}
		lastErr = err
		log.WithFields(log.Fields{
			"attempt": attempt,
			"url":     w.URL,
		}).Warnf("Webhook attempt failed: %v", err)
	}
	return fmt.Errorf("webhook failed after %d attempts: %w", w.MaxRetries+1, lastErr)
}

func (w *WebhookNotifier) sendOnce(ctx context.Context, payload WebhookPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range w.Headers {
		req.Header.Set(key, value)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned non-success status: %d, body: %s", resp.StatusCode, string(body))
	}
	return nil
}
