// Package notify surfaces build results to the developer's desktop.
// Notifications are best-effort; a failed delivery is logged and never
// interrupts the pipeline.
package notify

import (
	"fmt"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/skillsenselab/assetpipe/logger"
	"github.com/skillsenselab/assetpipe/pipeline"
)

// Notifier delivers user-facing messages about pipeline runs.
type Notifier interface {
	Success(title, message string)
	Failure(title, message string)
}

// Desktop sends notifications through the platform notification service.
type Desktop struct {
	// AppName appears as the notification source.
	AppName string
	// Enabled suppresses all delivery when false.
	Enabled bool

	log *logger.Logger
}

// NewDesktop creates a desktop notifier for the given application name.
func NewDesktop(appName string, enabled bool) *Desktop {
	return &Desktop{
		AppName: appName,
		Enabled: enabled,
		log:     logger.Get("notify"),
	}
}

// Success delivers a completion notification.
func (d *Desktop) Success(title, message string) {
	d.send(title, message)
}

// Failure delivers an error notification with platform error styling.
func (d *Desktop) Failure(title, message string) {
	if !d.Enabled {
		return
	}
	if err := beeep.Alert(d.format(title), message, ""); err != nil {
		d.log.Debug("Desktop notification failed", map[string]interface{}{
			"title": title,
			"error": err.Error(),
		})
	}
}

func (d *Desktop) send(title, message string) {
	if !d.Enabled {
		return
	}
	if err := beeep.Notify(d.format(title), message, ""); err != nil {
		d.log.Debug("Desktop notification failed", map[string]interface{}{
			"title": title,
			"error": err.Error(),
		})
	}
}

func (d *Desktop) format(title string) string {
	if d.AppName == "" {
		return title
	}
	return fmt.Sprintf("%s: %s", d.AppName, title)
}

// ForOutcome notifies about a finished pipeline run. Success goes out as
// a plain notification with the run duration, failure as an alert with
// the error message, so both are visible while the terminal is in the
// background.
func ForOutcome(n Notifier, o pipeline.Outcome) {
	if n == nil {
		return
	}
	if o.Failed() {
		n.Failure(o.Operation, o.Err.Message)
		return
	}
	n.Success(o.Operation, fmt.Sprintf("completed in %s", o.Duration.Round(time.Millisecond)))
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) Success(string, string) {}
func (Nop) Failure(string, string) {}
