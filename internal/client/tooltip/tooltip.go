// Package tooltip attaches tooltip behaviour to pre-marked elements.
package tooltip

import "learning-hub/internal/client/dom"

const (
	// Selector matches the elements that want a tooltip.
	Selector  = `[data-bs-toggle="tooltip"]`
	boundAttr = "data-tooltip-bound"
)

// Binder attaches the tooltip widget to a single element.
type Binder func(el dom.Element)

// Init binds every tooltip element under root that has not been bound yet and
// returns how many were bound. It is safe to call again after new content is
// inserted.
func Init(root dom.Element, bind Binder) int {
	if !dom.Present(root) || bind == nil {
		return 0
	}
	bound := 0
	for _, el := range root.QuerySelectorAll(Selector) {
		if _, ok := el.Attr(boundAttr); ok {
			continue
		}
		bind(el)
		el.SetAttr(boundAttr, "true")
		bound++
	}
	return bound
}
