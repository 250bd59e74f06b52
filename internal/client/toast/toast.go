// Package toast renders transient notifications in the page corner.
package toast

import (
	"context"
	"html"
	"time"

	"github.com/google/uuid"

	"learning-hub/internal/client/dom"
	"learning-hub/internal/client/schedule"
)

// Kind selects the visual style of a toast.
type Kind string

const (
	Info    Kind = "info"
	Success Kind = "success"
	Warning Kind = "warning"
	Error   Kind = "error"
)

const (
	// ContainerID is the id of the lazily created toast container.
	ContainerID = "toast-container"
	// DismissAction is the role of the close button inside each toast.
	DismissAction = "toast-dismiss"

	containerMarkup = `<div id="` + ContainerID + `" class="toast-container position-fixed top-0 end-0 p-3" style="z-index: 1100"></div>`
)

// Notifier shows a message to the user.
type Notifier interface {
	Show(message string, kind Kind)
}

// Toaster appends auto-expiring toasts to the document.
type Toaster struct {
	doc      dom.Document
	clock    schedule.Clock
	duration time.Duration
	newID    func() string
}

// New builds a Toaster. Toasts are removed after duration unless dismissed first.
func New(doc dom.Document, clock schedule.Clock, duration time.Duration) *Toaster {
	if clock == nil {
		clock = schedule.System{}
	}
	return &Toaster{
		doc:      doc,
		clock:    clock,
		duration: duration,
		newID:    func() string { return "toast-" + uuid.NewString() },
	}
}

// style maps a kind to its Bootstrap contextual class suffix.
func (k Kind) style() string {
	switch k {
	case Success, Warning, Info:
		return string(k)
	case Error:
		return "danger"
	default:
		return string(Info)
	}
}

// Show appends a toast with message and schedules its removal.
func (t *Toaster) Show(message string, kind Kind) {
	container := t.container()
	if !dom.Present(container) {
		return
	}
	id := t.newID()
	container.AppendHTML(`<div id="` + id + `" class="toast show align-items-center text-bg-` + kind.style() +
		` border-0" role="alert" aria-live="assertive" aria-atomic="true"><div class="d-flex">` +
		`<div class="toast-body">` + html.EscapeString(message) + `</div>` +
		`<button type="button" class="btn-close btn-close-white me-2 m-auto" data-action="` + DismissAction +
		`" aria-label="Close"></button></div></div>`)

	t.clock.AfterFunc(t.duration, func() {
		if el := t.doc.GetElementByID(id); dom.Present(el) {
			el.Remove()
		}
	})
}

// Dismiss removes the toast containing el.
func (t *Toaster) Dismiss(el dom.Element) {
	if !dom.Present(el) {
		return
	}
	if toast := el.Closest(".toast"); dom.Present(toast) {
		toast.Remove()
	}
}

// Route returns the delegated click route for the dismiss buttons.
func (t *Toaster) Route() dom.Route {
	return dom.Route{
		Event:  "click",
		Action: DismissAction,
		Handle: func(_ context.Context, _ *dom.Event, el dom.Element) { t.Dismiss(el) },
	}
}

func (t *Toaster) container() dom.Element {
	if el := t.doc.GetElementByID(ContainerID); dom.Present(el) {
		return el
	}
	body := t.doc.Body()
	if !dom.Present(body) {
		return nil
	}
	return body.AppendHTML(containerMarkup)
}
