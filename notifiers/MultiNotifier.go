package notifiers

import "github.com/reaandrew/secscanner/core"

// MultiNotifier fans every notification out to all of its members.
type MultiNotifier []core.Notifier

func (m MultiNotifier) Success(message string) {
	for _, n := range m {
		n.Success(message)
	}
}

func (m MultiNotifier) Error(message string) {
	for _, n := range m {
		n.Error(message)
	}
}
