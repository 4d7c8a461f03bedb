package notifiers

import (
	log "github.com/sirupsen/logrus"
)

// LogNotifier writes notifications to the logrus standard logger.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) logger() *log.Logger {
	if n.Logger == nil {
		return log.StandardLogger()
	}
	return n.Logger
}

func (n LogNotifier) Success(message string) {
	n.logger().WithField("notification", "success").Info(message)
}

func (n LogNotifier) Error(message string) {
	n.logger().WithField("notification", "error").Error(message)
}
