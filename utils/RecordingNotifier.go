package utils

import "sync"

type Notification struct {
	Level   string
	Message string
}

// RecordingNotifier keeps every notification it receives, in order.
type RecordingNotifier struct {
	mu            sync.Mutex
	notifications []Notification
}

func (r *RecordingNotifier) Success(message string) {
	r.record("success", message)
}

func (r *RecordingNotifier) Error(message string) {
	r.record("error", message)
}

func (r *RecordingNotifier) record(level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, Notification{Level: level, Message: message})
}

func (r *RecordingNotifier) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

func (r *RecordingNotifier) Errors() []string {
	return r.messages("error")
}

func (r *RecordingNotifier) Successes() []string {
	return r.messages("success")
}

func (r *RecordingNotifier) messages(level string) []string {
	var messages []string
	for _, n := range r.Notifications() {
		if n.Level == level {
			messages = append(messages, n.Message)
		}
	}
	return messages
}
