// Package notify decouples user-facing outcome reporting from the services
// that produce it. Services hand failures and successes to a Notifier; the
// default implementation logs them, and tests substitute a recording one.
package notify

import (
	"github.com/labstack/gommon/log"
)

// Notifier receives the user-visible outcome of an operation.
type Notifier interface {
	// HandleError reports a failure with the label shown to the user.
	HandleError(err error, label string)
	// ShowSuccess reports a completed operation.
	ShowSuccess(message string)
}

type logNotifier struct{}

func NewLogNotifier() Notifier {
	return &logNotifier{}
}

func (n *logNotifier) HandleError(err error, label string) {
	log.Errorf("%s: %v", label, err)
}

func (n *logNotifier) ShowSuccess(message string) {
	log.Infof("%s", message)
}
