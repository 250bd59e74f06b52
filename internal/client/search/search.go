// Package search drives the search-as-you-type dropdown and the search
// keyboard shortcuts.
package search

import (
	"context"
	"html"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"learning-hub/internal/client/api"
	"learning-hub/internal/client/dom"
	"learning-hub/internal/client/inflight"
	"learning-hub/internal/client/page"
	"learning-hub/internal/client/schedule"
)

const (
	InputAction = "search-input"
	FormAction  = "search-form"

	inputSelector       = `[data-action="` + InputAction + `"]`
	suggestionsSelector = "#search-suggestions"
	requestKey          = "suggestions"
)

var typeIcons = map[string]string{
	"material": "fas fa-file-alt",
	"post":     "fas fa-comments",
	"subject":  "fas fa-book",
}

// Controller debounces suggestion lookups and applies only the newest answer.
type Controller struct {
	env      page.Env
	requests *inflight.Tracker

	mu    sync.Mutex
	timer schedule.Timer
}

// New returns a Controller for env.
func New(env page.Env) *Controller {
	return &Controller{env: env, requests: inflight.NewTracker()}
}

// Routes returns the delegated routes for the search box and shortcuts.
func (c *Controller) Routes() []dom.Route {
	return []dom.Route{
		{Event: "input", Action: InputAction, Handle: c.Input},
		{Event: "submit", Action: FormAction, PreventDefault: true, Handle: c.Submit},
		{Event: "keydown", PreventDefault: true, Match: IsFocusShortcut, Handle: c.FocusShortcut},
		{Event: "keydown", Match: func(ev *dom.Event) bool { return ev.Key == "Escape" }, Handle: c.Escape},
	}
}

// IsFocusShortcut reports whether ev is Ctrl+K or Cmd+K.
func IsFocusShortcut(ev *dom.Event) bool {
	return (ev.Ctrl || ev.Meta) && strings.EqualFold(ev.Key, "k")
}

// Input restarts the debounce timer for the current query. Queries shorter
// than the minimum length clear the dropdown without a request.
func (c *Controller) Input(ctx context.Context, _ *dom.Event, input dom.Element) {
	q := strings.TrimSpace(input.Value())
	box := c.suggestionsFor(input)

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if utf8.RuneCountInString(q) < c.env.Settings.SuggestionMinLength {
		c.mu.Unlock()
		c.requests.Invalidate(requestKey)
		hide(box)
		return
	}
	c.timer = c.env.Scheduler().AfterFunc(c.env.Settings.SearchDebounce(), func() {
		c.fetch(ctx, q, box)
	})
	c.mu.Unlock()
}

func (c *Controller) fetch(ctx context.Context, q string, box dom.Element) {
	reqCtx, tok := c.requests.Begin(ctx, requestKey)
	defer c.requests.Done(tok)

	suggestions, err := c.env.API.Suggestions(reqCtx, q)
	if !c.requests.Current(tok) {
		return
	}
	if err != nil {
		c.env.Fail("search suggestions", err, "Search suggestions are unavailable.")
		hide(box)
		return
	}
	if !dom.Present(box) {
		return
	}
	box.SetInnerHTML(RenderSuggestions(suggestions, q))
	box.RemoveClass("d-none")
}

// RenderSuggestions renders the dropdown entries with q highlighted in titles.
func RenderSuggestions(suggestions []api.Suggestion, q string) string {
	if len(suggestions) == 0 {
		return `<div class="list-group"><div class="list-group-item text-muted">No suggestions found</div></div>`
	}
	var b strings.Builder
	b.WriteString(`<div class="list-group">`)
	for _, s := range suggestions {
		icon, ok := typeIcons[s.Type]
		if !ok {
			icon = "fas fa-search"
		}
		b.WriteString(`<a href="` + html.EscapeString(s.URL) + `" class="list-group-item list-group-item-action suggestion-item">`)
		b.WriteString(`<div class="d-flex align-items-center"><i class="` + icon + ` me-2"></i><div>`)
		b.WriteString(`<div class="suggestion-title">` + Highlight(s.Title, q) + `</div>`)
		if s.Subtitle != "" {
			b.WriteString(`<small class="text-muted">` + html.EscapeString(s.Subtitle) + `</small>`)
		}
		b.WriteString(`</div></div></a>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// Highlight escapes text and wraps every case-insensitive literal occurrence
// of q in a mark element.
func Highlight(text, q string) string {
	if q == "" {
		return html.EscapeString(text)
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(q))
	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringIndex(text, -1) {
		b.WriteString(html.EscapeString(text[last:m[0]]))
		b.WriteString(`<mark class="search-highlight">` + html.EscapeString(text[m[0]:m[1]]) + `</mark>`)
		last = m[1]
	}
	b.WriteString(html.EscapeString(text[last:]))
	return b.String()
}

// Submit navigates to the search results page for the form's query.
func (c *Controller) Submit(_ context.Context, _ *dom.Event, form dom.Element) {
	input := form.QuerySelector(`input[name="q"]`)
	if !dom.Present(input) {
		input = form.QuerySelector(inputSelector)
	}
	if !dom.Present(input) {
		return
	}
	q := strings.TrimSpace(input.Value())
	if q == "" {
		input.Focus()
		return
	}
	c.env.Win.Navigate(c.env.Settings.SearchPagePath + "?q=" + url.QueryEscape(q))
}

// FocusShortcut focuses the search box.
func (c *Controller) FocusShortcut(context.Context, *dom.Event, dom.Element) {
	if input := c.env.Doc.QuerySelector(inputSelector); dom.Present(input) {
		input.Focus()
	}
}

// Escape clears and blurs the search box when it has focus.
func (c *Controller) Escape(context.Context, *dom.Event, dom.Element) {
	input := c.env.Doc.QuerySelector(inputSelector)
	if !dom.Present(input) || !input.Equal(c.env.Doc.ActiveElement()) {
		return
	}
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.requests.Invalidate(requestKey)
	input.SetValue("")
	input.Blur()
	hide(c.suggestionsFor(input))
}

func (c *Controller) suggestionsFor(input dom.Element) dom.Element {
	sel := input.Data("suggestions")
	if sel == "" {
		sel = suggestionsSelector
	}
	return c.env.Doc.QuerySelector(sel)
}

func hide(box dom.Element) {
	if dom.Present(box) {
		box.SetInnerHTML("")
		box.AddClass("d-none")
	}
}
