package notifiers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reaandrew/secscanner/utils"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleNotifierWritesMessages(t *testing.T) {
	var out bytes.Buffer
	notifier := ConsoleNotifier{Writer: &out}

	notifier.Success("Security scan completed")
	notifier.Error("Security scan failed")

	assert.Contains(t, out.String(), "Security scan completed")
	assert.Contains(t, out.String(), "Security scan failed")
}

func TestLogNotifierUsesLevels(t *testing.T) {
	var out bytes.Buffer
	logger := log.New()
	logger.SetOutput(&out)
	logger.SetFormatter(&log.TextFormatter{DisableTimestamp: true})

	notifier := LogNotifier{Logger: logger}
	notifier.Success("history cleared")
	notifier.Error("history load failed")

	assert.Contains(t, out.String(), "level=info")
	assert.Contains(t, out.String(), "history cleared")
	assert.Contains(t, out.String(), "level=error")
}

func TestMultiNotifierFansOut(t *testing.T) {
	first := &utils.RecordingNotifier{}
	second := &utils.RecordingNotifier{}

	MultiNotifier{first, second}.Success("done")
	MultiNotifier{first, second}.Error("oops")

	for _, recorder := range []*utils.RecordingNotifier{first, second} {
		assert.Equal(t, []string{"done"}, recorder.Successes())
		assert.Equal(t, []string{"oops"}, recorder.Errors())
	}
}

func TestWebhookNotifierSendsPayload(t *testing.T) {
	received := make(chan WebhookPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload WebhookPayload
		_ = json.NewDecoder(r.Body).Decode(&payload)
		assert.Equal(t, "token", r.Header.Get("X-Token"))
		received <- payload
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, map[string]string{"X-Token": "token"})
	notifier.Success("Scan result deleted")

	select {
	case payload := <-received:
		assert.Equal(t, "success", payload.Level)
		assert.Equal(t, "Scan result deleted", payload.Message)
		assert.NotEmpty(t, payload.Timestamp)
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was not called")
	}
}

func TestWebhookNotifierRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, nil)
	notifier.InitialDelay = time.Millisecond

	err := notifier.Send(context.Background(), WebhookPayload{Level: "error", Message: "x"})

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWebhookNotifierGivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("nope"))
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, nil)
	notifier.MaxRetries = 1
	notifier.InitialDelay = time.Millisecond

	err := notifier.Send(context.Background(), WebhookPayload{Level: "error", Message: "x"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestWebhookNotifierWaitDrainsPendingDeliveries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, nil)
	notifier.Success("Security scan completed")
	notifier.Error("Security scan failed: boom")
	notifier.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
