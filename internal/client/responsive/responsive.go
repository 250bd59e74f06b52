// Package responsive handles the mobile navigation, collapsible sections,
// lazy images and infinite scrolling.
package responsive

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"learning-hub/internal/client/api"
	"learning-hub/internal/client/dom"
	"learning-hub/internal/client/page"
)

const (
	MenuAction     = "mobile-menu-toggle"
	CollapseAction = "collapse-toggle"

	menuOpenClass  = "mobile-menu-open"
	lazySelector   = "img[data-src]"
	triggerID      = "load-more-trigger"
	triggerDoneTag = "data-exhausted"
)

// Controller holds the infinite-scroll cursor.
type Controller struct {
	env page.Env
	// Injected runs after a new page of content was appended to container.
	Injected func(container dom.Element)

	mu        sync.Mutex
	page      int
	loading   bool
	exhausted bool
}

// New returns a Controller starting at page 1, or at the page recorded in the
// content container's data-current-page attribute.
func New(env page.Env) *Controller {
	c := &Controller{env: env, page: 1}
	if env.Doc != nil {
		if container := env.Doc.QuerySelector(env.Settings.ContentSelector); dom.Present(container) {
			if n, err := strconv.Atoi(container.Data("current-page")); err == nil && n > 0 {
				c.page = n
			}
		}
	}
	return c
}

// Routes returns the delegated click routes for the menu and collapse toggles.
func (c *Controller) Routes() []dom.Route {
	return []dom.Route{
		{Event: "click", Action: MenuAction, Handle: c.ToggleMenu},
		{Event: "click", Action: CollapseAction, Handle: c.ToggleSection},
	}
}

// ToggleMenu flips the body class that opens the mobile navigation.
func (c *Controller) ToggleMenu(context.Context, *dom.Event, dom.Element) {
	if body := c.env.Doc.Body(); dom.Present(body) {
		body.ToggleClass(menuOpenClass)
	}
}

// ToggleSection shows or hides the target section on narrow viewports. Wider
// viewports are left to the regular collapse behaviour.
func (c *Controller) ToggleSection(_ context.Context, _ *dom.Event, toggle dom.Element) {
	if c.env.Win == nil || c.env.Win.InnerWidth() >= c.env.Settings.CollapseBreakpoint {
		return
	}
	sel := toggle.Data("target")
	if sel == "" {
		sel = toggle.Data("bs-target")
	}
	if sel == "" {
		return
	}
	if target := c.env.Doc.QuerySelector(sel); dom.Present(target) {
		expanded := target.ToggleClass("show")
		toggle.SetAttr("aria-expanded", strconv.FormatBool(expanded))
	}
}

// LazyImages returns the images under root still waiting for their source.
func LazyImages(root dom.Element) []dom.Element {
	if !dom.Present(root) {
		return nil
	}
	return root.QuerySelectorAll(lazySelector)
}

// Reveal swaps the placeholder source of img for the real one. It reports
// false when the image was already revealed.
func Reveal(img dom.Element) bool {
	src, ok := img.Attr("data-src")
	if !ok {
		return false
	}
	img.SetAttr("src", src)
	img.RemoveAttr("data-src")
	img.AddClass("loaded")
	return true
}

// RevealVisible reveals every lazy image under root that is in the viewport.
// It is the fallback for browsers without intersection observers.
func (c *Controller) RevealVisible(root dom.Element) int {
	n := 0
	for _, img := range LazyImages(root) {
		if c.env.Win.InView(img) && Reveal(img) {
			n++
		}
	}
	return n
}

// Page returns the number of the last loaded page.
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// Loading reports whether a page request is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Scroll loads the next page when the trigger is visible and no other load is
// in flight. It reports whether a request was made.
func (c *Controller) Scroll(ctx context.Context) bool {
	trigger := c.env.Doc.GetElementByID(triggerID)
	if !dom.Present(trigger) || !c.env.Win.InView(trigger) {
		return false
	}
	container := c.env.Doc.QuerySelector(c.env.Settings.ContentSelector)
	if !dom.Present(container) {
		return false
	}

	c.mu.Lock()
	if c.loading || c.exhausted {
		c.mu.Unlock()
		return false
	}
	c.loading = true
	next := c.page + 1
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	markup, err := c.env.API.LoadPage(ctx, c.env.Win.Location().RequestURI(), next)
	if err != nil {
		c.env.Fail("load page "+strconv.Itoa(next), err, "Failed to load more content.")
		return true
	}
	fragment, ok, err := api.ExtractFragment(markup, c.env.Settings.ContentSelector)
	if err != nil || !ok || strings.TrimSpace(fragment) == "" {
		c.finish(trigger)
		return true
	}

	container.AppendHTML(fragment)
	c.mu.Lock()
	c.page = next
	c.mu.Unlock()
	if c.Injected != nil {
		c.Injected(container)
	}
	return true
}

// finish stops further loads once the server has no more pages.
func (c *Controller) finish(trigger dom.Element) {
	c.mu.Lock()
	c.exhausted = true
	c.mu.Unlock()
	trigger.SetAttr(triggerDoneTag, "true")
	trigger.AddClass("d-none")
}
