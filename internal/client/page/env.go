// Package page holds the collaborators every feature controller works with.
package page

import (
	"context"
	"errors"
	"strings"

	"learning-hub/internal/client/api"
	"learning-hub/internal/client/dom"
	"learning-hub/internal/client/schedule"
	"learning-hub/internal/client/settings"
	"learning-hub/internal/client/toast"
	"learning-hub/internal/logging"
)

// Env is shared by the feature controllers of one page.
type Env struct {
	Doc      dom.Document
	Win      dom.Window
	API      *api.Client
	Toasts   toast.Notifier
	Clock    schedule.Clock
	Settings settings.Settings
	Logger   logging.Logger
}

// Logf writes to the page logger when one is configured.
func (e Env) Logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

// Notify shows a toast when a notifier is configured.
func (e Env) Notify(message string, kind toast.Kind) {
	if e.Toasts != nil {
		e.Toasts.Show(message, kind)
	}
}

// Fail reports a failed interaction. Rejections show the server's message
// when it sent one; everything else shows fallback. Cancelled requests were
// superseded and stay silent.
func (e Env) Fail(op string, err error, fallback string) {
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	e.Logf("%s: %v", op, err)
	e.Notify(api.UserMessage(err, fallback), toast.Error)
}

// Scheduler returns the configured clock, defaulting to the wall clock.
func (e Env) Scheduler() schedule.Clock {
	if e.Clock == nil {
		return schedule.System{}
	}
	return e.Clock
}

// AttrSelector builds `[name="value"]` with value quoted for CSS.
func AttrSelector(name, value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	return `[` + name + `="` + value + `"]`
}
