package dom

import (
	"context"
	"sync"
)

// ActionAttr is the role attribute events are routed by.
const ActionAttr = "data-action"

// HandlerFunc handles a routed event. el is the element carrying the matched
// action, or the event target for document-level routes.
type HandlerFunc func(ctx context.Context, ev *Event, el Element)

// Route binds an event type and action role to a handler. An empty Action
// matches every event of that type.
type Route struct {
	Event          string
	Action         string
	PreventDefault bool
	// Match optionally narrows the route further, e.g. to a key combination.
	Match  func(ev *Event) bool
	Handle HandlerFunc
}

// Delegator routes events from a single document-level listener per event
// type to the handler registered for the nearest element's action role.
// Content injected later is covered without re-binding.
type Delegator struct {
	mu     sync.RWMutex
	order  []string
	routes map[string][]Route
}

// NewDelegator returns an empty Delegator.
func NewDelegator() *Delegator {
	return &Delegator{routes: make(map[string][]Route)}
}

// On registers a route. Action routes are matched in registration order and
// take precedence over document-level routes for the same event.
func (d *Delegator) On(route Route) {
	if route.Handle == nil || route.Event == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.routes[route.Event]; !ok {
		d.order = append(d.order, route.Event)
	}
	d.routes[route.Event] = append(d.routes[route.Event], route)
}

// Events lists the event types with at least one route, in registration order.
func (d *Delegator) Events() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.order...)
}

// Invocation is a resolved route ready to run.
type Invocation struct {
	route Route
	event *Event
	el    Element
}

// PreventsDefault reports whether the browser default must be suppressed.
func (i Invocation) PreventsDefault() bool {
	return i.route.PreventDefault
}

// Action returns the matched action role.
func (i Invocation) Action() string {
	return i.route.Action
}

// Run executes the handler. It may block on network calls.
func (i Invocation) Run(ctx context.Context) {
	if i.route.PreventDefault {
		i.event.PreventDefault()
	}
	i.route.Handle(ctx, i.event, i.el)
}

// Resolve finds the route for ev without running it.
func (d *Delegator) Resolve(ev *Event) (Invocation, bool) {
	if ev == nil {
		return Invocation{}, false
	}
	d.mu.RLock()
	routes := d.routes[ev.Type]
	d.mu.RUnlock()

	var fallback *Route
	for i, r := range routes {
		if r.Match != nil && !r.Match(ev) {
			continue
		}
		if r.Action == "" {
			if fallback == nil {
				fallback = &routes[i]
			}
			continue
		}
		if !Present(ev.Target) {
			continue
		}
		if el := ev.Target.Closest(`[` + ActionAttr + `="` + r.Action + `"]`); Present(el) {
			return Invocation{route: r, event: ev, el: el}, true
		}
	}
	if fallback != nil {
		return Invocation{route: *fallback, event: ev, el: ev.Target}, true
	}
	return Invocation{}, false
}

// Dispatch resolves and runs ev synchronously, reporting whether a route matched.
func (d *Delegator) Dispatch(ctx context.Context, ev *Event) bool {
	inv, ok := d.Resolve(ev)
	if !ok {
		return false
	}
	inv.Run(ctx)
	return true
}
