// Package dom is the narrow view of the page used by the Learning Hub handlers.
//
// Handlers only ever see the Element, Document and Window interfaces. In the
// browser they are backed by syscall/js; on the host they are backed by a
// goquery document so the same handlers can be exercised in tests.
package dom

import "net/url"

// Element is a single node in the page.
type Element interface {
	Tag() string
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	RemoveAttr(name string)
	// Data returns the value of the data-<key> attribute, or "" when absent.
	Data(key string) string

	HasClass(name string) bool
	AddClass(names ...string)
	RemoveClass(names ...string)
	// ToggleClass flips the class and reports whether it is now present.
	ToggleClass(name string) bool

	Text() string
	SetText(text string)
	InnerHTML() string
	SetInnerHTML(markup string)
	// AppendHTML parses markup, appends it as the last children of the element
	// and returns the first element that was appended (nil if none).
	AppendHTML(markup string) Element
	Remove()

	Parent() Element
	Closest(selector string) Element
	QuerySelector(selector string) Element
	QuerySelectorAll(selector string) []Element

	Value() string
	SetValue(value string)
	Checked() bool
	SetChecked(checked bool)
	Indeterminate() bool
	SetIndeterminate(indeterminate bool)
	Disabled() bool
	SetDisabled(disabled bool)
	Files() []File
	SetFiles(files []File)

	Focus()
	Blur()
	ScrollIntoView()
	// DispatchEvent fires a bubbling event of type typ at the element, as the
	// browser would for a user action. It reports whether page listeners
	// received it.
	DispatchEvent(typ string) bool

	// Equal reports whether both values refer to the same underlying node.
	Equal(other Element) bool
}

// Document is the page the handlers are attached to.
type Document interface {
	Body() Element
	GetElementByID(id string) Element
	QuerySelector(selector string) Element
	QuerySelectorAll(selector string) []Element
	// Cookie returns the raw document.cookie string.
	Cookie() string
	ActiveElement() Element
}

// Window groups the browser facilities that are not part of the document tree.
type Window interface {
	Alert(message string)
	Confirm(message string) bool
	Navigate(target string)
	Reload()
	Location() *url.URL
	InnerWidth() int
	// InView reports whether any part of el is inside the viewport.
	InView(el Element) bool
}

// File describes a file picked through an input or dropped on a zone.
type File struct {
	Name string
	Size int64
	Type string
	// PreviewURL is an object URL usable as an <img> source, when available.
	PreviewURL string
	// Handle is the native file object in the browser.
	Handle any
}

// Event is a DOM event translated for the handlers.
type Event struct {
	Type   string
	Target Element
	Key    string
	Ctrl   bool
	Meta   bool
	Files  []File

	defaultPrevented bool
}

// PreventDefault marks the event as handled.
func (e *Event) PreventDefault() {
	if e != nil {
		e.defaultPrevented = true
	}
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool {
	return e != nil && e.defaultPrevented
}

// Present reports whether el refers to a node. It guards against typed nil
// values stored in the interface.
func Present(el Element) bool {
	if el == nil {
		return false
	}
	if h, ok := el.(*htmlElement); ok {
		return h != nil && h.node != nil
	}
	return true
}
