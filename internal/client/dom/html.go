package dom

import (
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLDocument is an in-memory Document backed by goquery. It is safe for
// concurrent use; every operation holds the document lock.
type HTMLDocument struct {
	mu     sync.Mutex
	doc    *goquery.Document
	cookie string
	active *html.Node
	props  map[*html.Node]*nodeProps
	scroll []*html.Node

	listener   func(*Event)
	dispatched []string
}

type nodeProps struct {
	indeterminate bool
	files         []File
}

type htmlElement struct {
	doc  *HTMLDocument
	node *html.Node
}

// ParseHTML builds a document from markup.
func ParseHTML(markup string) (*HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &HTMLDocument{doc: doc, props: make(map[*html.Node]*nodeProps)}, nil
}

// MustParseHTML is ParseHTML for fixtures known to be valid.
func MustParseHTML(markup string) *HTMLDocument {
	doc, err := ParseHTML(markup)
	if err != nil {
		panic(err)
	}
	return doc
}

// SetCookie replaces the raw cookie string returned by Cookie.
func (d *HTMLDocument) SetCookie(raw string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cookie = raw
}

// Cookie implements Document.
func (d *HTMLDocument) Cookie() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cookie
}

// Body implements Document.
func (d *HTMLDocument) Body() Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.first(d.doc.Find("body"))
}

// GetElementByID implements Document.
func (d *HTMLDocument) GetElementByID(id string) Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	var found *html.Node
	d.doc.Find("[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.AttrOr("id", "") == id {
			found = s.Nodes[0]
			return false
		}
		return true
	})
	return d.wrap(found)
}

// QuerySelector implements Document.
func (d *HTMLDocument) QuerySelector(selector string) Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.first(d.doc.Find(selector))
}

// QuerySelectorAll implements Document.
func (d *HTMLDocument) QuerySelectorAll(selector string) []Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.all(d.doc.Find(selector))
}

// ActiveElement implements Document.
func (d *HTMLDocument) ActiveElement() Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrap(d.active)
}

// HTML renders the whole document, mainly for test failure messages.
func (d *HTMLDocument) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out, err := goquery.OuterHtml(d.doc.Selection)
	if err != nil {
		return ""
	}
	return out
}

// ScrolledInto reports whether ScrollIntoView was called for el.
func (d *HTMLDocument) ScrolledInto(el Element) bool {
	h, ok := el.(*htmlElement)
	if !ok || h == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.scroll {
		if n == h.node {
			return true
		}
	}
	return false
}

func (d *HTMLDocument) wrap(n *html.Node) Element {
	if n == nil {
		return nil
	}
	return &htmlElement{doc: d, node: n}
}

func (d *HTMLDocument) first(s *goquery.Selection) Element {
	if s.Length() == 0 {
		return nil
	}
	return d.wrap(s.Nodes[0])
}

func (d *HTMLDocument) all(s *goquery.Selection) []Element {
	out := make([]Element, 0, s.Length())
	for _, n := range s.Nodes {
		out = append(out, d.wrap(n))
	}
	return out
}

func (d *HTMLDocument) propsFor(n *html.Node) *nodeProps {
	p, ok := d.props[n]
	if !ok {
		p = &nodeProps{}
		d.props[n] = p
	}
	return p
}

func (e *htmlElement) sel() *goquery.Selection {
	return e.doc.doc.FindNodes(e.node)
}

func (e *htmlElement) lock() func() {
	e.doc.mu.Lock()
	return e.doc.mu.Unlock
}

func (e *htmlElement) Tag() string {
	return strings.ToLower(e.node.Data)
}

func (e *htmlElement) Attr(name string) (string, bool) {
	defer e.lock()()
	return e.sel().Attr(name)
}

func (e *htmlElement) SetAttr(name, value string) {
	defer e.lock()()
	e.sel().SetAttr(name, value)
}

func (e *htmlElement) RemoveAttr(name string) {
	defer e.lock()()
	e.sel().RemoveAttr(name)
}

func (e *htmlElement) Data(key string) string {
	defer e.lock()()
	return e.sel().AttrOr("data-"+key, "")
}

func (e *htmlElement) HasClass(name string) bool {
	defer e.lock()()
	return e.sel().HasClass(name)
}

func (e *htmlElement) AddClass(names ...string) {
	defer e.lock()()
	e.sel().AddClass(names...)
}

func (e *htmlElement) RemoveClass(names ...string) {
	defer e.lock()()
	e.sel().RemoveClass(names...)
}

func (e *htmlElement) ToggleClass(name string) bool {
	defer e.lock()()
	s := e.sel()
	s.ToggleClass(name)
	return s.HasClass(name)
}

func (e *htmlElement) Text() string {
	defer e.lock()()
	return e.sel().Text()
}

func (e *htmlElement) SetText(text string) {
	defer e.lock()()
	e.sel().SetText(text)
}

func (e *htmlElement) InnerHTML() string {
	defer e.lock()()
	out, err := e.sel().Html()
	if err != nil {
		return ""
	}
	return out
}

func (e *htmlElement) SetInnerHTML(markup string) {
	defer e.lock()()
	e.sel().SetHtml(markup)
}

func (e *htmlElement) AppendHTML(markup string) Element {
	defer e.lock()()
	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     e.node.Data,
		DataAtom: e.node.DataAtom,
	})
	if err != nil {
		return nil
	}
	var first *html.Node
	for _, n := range nodes {
		e.node.AppendChild(n)
		if first == nil && n.Type == html.ElementNode {
			first = n
		}
	}
	return e.doc.wrap(first)
}

func (e *htmlElement) Remove() {
	defer e.lock()()
	if e.doc.active == e.node {
		e.doc.active = nil
	}
	e.sel().Remove()
}

func (e *htmlElement) Parent() Element {
	defer e.lock()()
	if e.node.Parent == nil || e.node.Parent.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(e.node.Parent)
}

func (e *htmlElement) Closest(selector string) Element {
	defer e.lock()()
	return e.doc.first(e.sel().Closest(selector))
}

func (e *htmlElement) QuerySelector(selector string) Element {
	defer e.lock()()
	return e.doc.first(e.sel().Find(selector))
}

func (e *htmlElement) QuerySelectorAll(selector string) []Element {
	defer e.lock()()
	return e.doc.all(e.sel().Find(selector))
}

func (e *htmlElement) Value() string {
	defer e.lock()()
	s := e.sel()
	switch e.node.DataAtom {
	case atom.Textarea:
		return s.Text()
	case atom.Select:
		selected := s.Find("option[selected]")
		if selected.Length() == 0 {
			selected = s.Find("option")
		}
		if selected.Length() == 0 {
			return ""
		}
		opt := selected.First()
		if v, ok := opt.Attr("value"); ok {
			return v
		}
		return opt.Text()
	default:
		return s.AttrOr("value", "")
	}
}

func (e *htmlElement) SetValue(value string) {
	defer e.lock()()
	s := e.sel()
	switch e.node.DataAtom {
	case atom.Textarea:
		s.SetText(value)
	case atom.Select:
		s.Find("option").Each(func(_ int, opt *goquery.Selection) {
			if opt.AttrOr("value", opt.Text()) == value {
				opt.SetAttr("selected", "")
			} else {
				opt.RemoveAttr("selected")
			}
		})
	default:
		s.SetAttr("value", value)
		if e.isFileInput() && value == "" {
			delete(e.doc.props, e.node)
		}
	}
}

func (e *htmlElement) isFileInput() bool {
	if e.node.DataAtom != atom.Input {
		return false
	}
	for _, a := range e.node.Attr {
		if a.Key == "type" && strings.EqualFold(a.Val, "file") {
			return true
		}
	}
	return false
}

func (e *htmlElement) Checked() bool {
	defer e.lock()()
	_, ok := e.sel().Attr("checked")
	return ok
}

func (e *htmlElement) SetChecked(checked bool) {
	defer e.lock()()
	if checked {
		e.sel().SetAttr("checked", "")
		return
	}
	e.sel().RemoveAttr("checked")
}

func (e *htmlElement) Indeterminate() bool {
	defer e.lock()()
	return e.doc.propsFor(e.node).indeterminate
}

func (e *htmlElement) SetIndeterminate(indeterminate bool) {
	defer e.lock()()
	e.doc.propsFor(e.node).indeterminate = indeterminate
}

func (e *htmlElement) Disabled() bool {
	defer e.lock()()
	_, ok := e.sel().Attr("disabled")
	return ok
}

func (e *htmlElement) SetDisabled(disabled bool) {
	defer e.lock()()
	if disabled {
		e.sel().SetAttr("disabled", "")
		return
	}
	e.sel().RemoveAttr("disabled")
}

func (e *htmlElement) Files() []File {
	defer e.lock()()
	files := e.doc.propsFor(e.node).files
	out := make([]File, len(files))
	copy(out, files)
	return out
}

func (e *htmlElement) SetFiles(files []File) {
	defer e.lock()()
	p := e.doc.propsFor(e.node)
	p.files = append([]File(nil), files...)
}

// OnDispatch routes events fired with Element.DispatchEvent to fn, standing
// in for the document listeners the browser binding installs.
func (d *HTMLDocument) OnDispatch(fn func(*Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listener = fn
}

// Dispatched lists the event types fired with Element.DispatchEvent.
func (d *HTMLDocument) Dispatched() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.dispatched...)
}

func (e *htmlElement) DispatchEvent(typ string) bool {
	e.doc.mu.Lock()
	e.doc.dispatched = append(e.doc.dispatched, typ)
	fn := e.doc.listener
	e.doc.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(&Event{Type: typ, Target: e})
	return true
}

func (e *htmlElement) Focus() {
	defer e.lock()()
	e.doc.active = e.node
}

func (e *htmlElement) Blur() {
	defer e.lock()()
	if e.doc.active == e.node {
		e.doc.active = nil
	}
}

func (e *htmlElement) ScrollIntoView() {
	defer e.lock()()
	e.doc.scroll = append(e.doc.scroll, e.node)
}

func (e *htmlElement) Equal(other Element) bool {
	o, ok := other.(*htmlElement)
	if !ok || o == nil {
		return false
	}
	return o.node == e.node
}
