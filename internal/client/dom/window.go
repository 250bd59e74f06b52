package dom

import (
	"net/url"
	"sync"
)

// HeadlessWindow is a scripted Window for host-side runs. Confirm answers are
// taken from ConfirmAnswer and every blocking dialog is recorded.
type HeadlessWindow struct {
	mu sync.Mutex

	location      *url.URL
	width         int
	confirmAnswer bool
	visible       func(Element) bool

	alerts      []string
	confirms    []string
	navigations []string
	reloads     int
}

// NewHeadlessWindow returns a window positioned at rawURL with a desktop width.
func NewHeadlessWindow(rawURL string) *HeadlessWindow {
	loc, err := url.Parse(rawURL)
	if err != nil || rawURL == "" {
		loc = &url.URL{Path: "/"}
	}
	return &HeadlessWindow{location: loc, width: 1280, confirmAnswer: true}
}

// SetWidth changes the viewport width reported by InnerWidth.
func (w *HeadlessWindow) SetWidth(width int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.width = width
}

// SetConfirmAnswer sets what Confirm returns.
func (w *HeadlessWindow) SetConfirmAnswer(answer bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.confirmAnswer = answer
}

// SetVisibility installs the predicate used by InView. By default nothing is visible.
func (w *HeadlessWindow) SetVisibility(fn func(Element) bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = fn
}

func (w *HeadlessWindow) Alert(message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.alerts = append(w.alerts, message)
}

func (w *HeadlessWindow) Confirm(message string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.confirms = append(w.confirms, message)
	return w.confirmAnswer
}

func (w *HeadlessWindow) Navigate(target string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.navigations = append(w.navigations, target)
}

func (w *HeadlessWindow) Reload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reloads++
}

func (w *HeadlessWindow) Location() *url.URL {
	w.mu.Lock()
	defer w.mu.Unlock()
	loc := *w.location
	return &loc
}

func (w *HeadlessWindow) InnerWidth() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width
}

func (w *HeadlessWindow) InView(el Element) bool {
	w.mu.Lock()
	visible := w.visible
	w.mu.Unlock()
	if visible == nil || !Present(el) {
		return false
	}
	return visible(el)
}

// Alerts returns the messages passed to Alert.
func (w *HeadlessWindow) Alerts() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.alerts...)
}

// Confirms returns the messages passed to Confirm.
func (w *HeadlessWindow) Confirms() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.confirms...)
}

// Navigations returns every target passed to Navigate.
func (w *HeadlessWindow) Navigations() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.navigations...)
}

// Reloads returns how many times Reload was called.
func (w *HeadlessWindow) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}
