//go:build js && wasm

package dom

import (
	"net/url"
	"strings"
	"syscall/js"
)

type jsElement struct {
	v js.Value
}

// WrapJS adapts a browser element. Null and undefined values map to nil.
func WrapJS(v js.Value) Element {
	if v.IsNull() || v.IsUndefined() {
		return nil
	}
	return jsElement{v: v}
}

// JSValue returns the browser value behind el, if any.
func JSValue(el Element) (js.Value, bool) {
	j, ok := el.(jsElement)
	if !ok {
		return js.Value{}, false
	}
	return j.v, true
}

func wrapList(list js.Value) []Element {
	if !list.Truthy() {
		return nil
	}
	n := list.Length()
	out := make([]Element, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, jsElement{v: list.Index(i)})
	}
	return out
}

func (e jsElement) Tag() string {
	return strings.ToLower(e.v.Get("tagName").String())
}

func (e jsElement) Attr(name string) (string, bool) {
	if !e.v.Call("hasAttribute", name).Bool() {
		return "", false
	}
	return e.v.Call("getAttribute", name).String(), true
}

func (e jsElement) SetAttr(name, value string) { e.v.Call("setAttribute", name, value) }
func (e jsElement) RemoveAttr(name string)     { e.v.Call("removeAttribute", name) }

func (e jsElement) Data(key string) string {
	v, _ := e.Attr("data-" + key)
	return v
}

func (e jsElement) HasClass(name string) bool {
	return e.v.Get("classList").Call("contains", name).Bool()
}

func (e jsElement) AddClass(names ...string) {
	list := e.v.Get("classList")
	for _, n := range names {
		list.Call("add", n)
	}
}

func (e jsElement) RemoveClass(names ...string) {
	list := e.v.Get("classList")
	for _, n := range names {
		list.Call("remove", n)
	}
}

func (e jsElement) ToggleClass(name string) bool {
	return e.v.Get("classList").Call("toggle", name).Bool()
}

func (e jsElement) Text() string          { return e.v.Get("textContent").String() }
func (e jsElement) SetText(text string)   { e.v.Set("textContent", text) }
func (e jsElement) InnerHTML() string     { return e.v.Get("innerHTML").String() }
func (e jsElement) SetInnerHTML(m string) { e.v.Set("innerHTML", m) }
func (e jsElement) Remove()               { e.v.Call("remove") }
func (e jsElement) Focus()                { e.v.Call("focus") }
func (e jsElement) Blur()                 { e.v.Call("blur") }
func (e jsElement) Parent() Element       { return WrapJS(e.v.Get("parentElement")) }
func (e jsElement) Closest(s string) Element {
	return WrapJS(e.v.Call("closest", s))
}

func (e jsElement) AppendHTML(markup string) Element {
	before := e.v.Get("childElementCount").Int()
	e.v.Call("insertAdjacentHTML", "beforeend", markup)
	children := e.v.Get("children")
	if children.Length() <= before {
		return nil
	}
	return jsElement{v: children.Index(before)}
}

func (e jsElement) QuerySelector(selector string) Element {
	return WrapJS(e.v.Call("querySelector", selector))
}

func (e jsElement) QuerySelectorAll(selector string) []Element {
	return wrapList(e.v.Call("querySelectorAll", selector))
}

func (e jsElement) Value() string       { return e.v.Get("value").String() }
func (e jsElement) SetValue(v string)   { e.v.Set("value", v) }
func (e jsElement) Checked() bool       { return e.v.Get("checked").Bool() }
func (e jsElement) SetChecked(c bool)   { e.v.Set("checked", c) }
func (e jsElement) Indeterminate() bool { return e.v.Get("indeterminate").Bool() }
func (e jsElement) SetIndeterminate(b bool) {
	e.v.Set("indeterminate", b)
}
func (e jsElement) Disabled() bool     { return e.v.Get("disabled").Bool() }
func (e jsElement) SetDisabled(b bool) { e.v.Set("disabled", b) }

func (e jsElement) Files() []File {
	return FilesFromList(e.v.Get("files"))
}

func (e jsElement) SetFiles(files []File) {
	if len(files) == 0 {
		e.v.Set("value", "")
		return
	}
	ctor := js.Global().Get("DataTransfer")
	if !ctor.Truthy() {
		return
	}
	transfer := ctor.New()
	for _, f := range files {
		if h, ok := f.Handle.(js.Value); ok && h.Truthy() {
			transfer.Get("items").Call("add", h)
		}
	}
	e.v.Set("files", transfer.Get("files"))
}

func (e jsElement) ScrollIntoView() {
	opts := js.Global().Get("Object").New()
	opts.Set("behavior", "smooth")
	opts.Set("block", "nearest")
	e.v.Call("scrollIntoView", opts)
}

func (e jsElement) DispatchEvent(typ string) bool {
	init := js.Global().Get("Object").New()
	init.Set("bubbles", true)
	e.v.Call("dispatchEvent", js.Global().Get("Event").New(typ, init))
	return true
}

func (e jsElement) Equal(other Element) bool {
	o, ok := other.(jsElement)
	return ok && o.v.Equal(e.v)
}

// FilesFromList converts a FileList into File values with object URLs for images.
func FilesFromList(list js.Value) []File {
	if !list.Truthy() {
		return nil
	}
	urlAPI := js.Global().Get("URL")
	n := list.Length()
	out := make([]File, 0, n)
	for i := 0; i < n; i++ {
		f := list.Index(i)
		file := File{
			Name:   f.Get("name").String(),
			Size:   int64(f.Get("size").Float()),
			Type:   f.Get("type").String(),
			Handle: f,
		}
		if strings.HasPrefix(file.Type, "image/") && urlAPI.Truthy() {
			file.PreviewURL = urlAPI.Call("createObjectURL", f).String()
		}
		out = append(out, file)
	}
	return out
}

// JSDocument is the browser document.
type JSDocument struct {
	v js.Value
}

// NewJSDocument wraps the global document.
func NewJSDocument() JSDocument {
	return JSDocument{v: js.Global().Get("document")}
}

func (d JSDocument) Body() Element { return WrapJS(d.v.Get("body")) }
func (d JSDocument) GetElementByID(id string) Element {
	return WrapJS(d.v.Call("getElementById", id))
}
func (d JSDocument) QuerySelector(selector string) Element {
	return WrapJS(d.v.Call("querySelector", selector))
}
func (d JSDocument) QuerySelectorAll(selector string) []Element {
	return wrapList(d.v.Call("querySelectorAll", selector))
}
func (d JSDocument) Cookie() string         { return d.v.Get("cookie").String() }
func (d JSDocument) ActiveElement() Element { return WrapJS(d.v.Get("activeElement")) }

// JSWindow is the browser window.
type JSWindow struct {
	v js.Value
}

// NewJSWindow wraps the global window.
func NewJSWindow() JSWindow {
	return JSWindow{v: js.Global()}
}

func (w JSWindow) Alert(message string)        { w.v.Call("alert", message) }
func (w JSWindow) Confirm(message string) bool { return w.v.Call("confirm", message).Bool() }
func (w JSWindow) Navigate(target string)      { w.v.Get("location").Set("href", target) }
func (w JSWindow) Reload()                     { w.v.Get("location").Call("reload") }
func (w JSWindow) InnerWidth() int             { return w.v.Get("innerWidth").Int() }

func (w JSWindow) Location() *url.URL {
	loc, err := url.Parse(w.v.Get("location").Get("href").String())
	if err != nil {
		return &url.URL{Path: "/"}
	}
	return loc
}

func (w JSWindow) InView(el Element) bool {
	v, ok := JSValue(el)
	if !ok {
		return false
	}
	rect := v.Call("getBoundingClientRect")
	height := w.v.Get("innerHeight").Float()
	return rect.Get("top").Float() <= height && rect.Get("bottom").Float() >= 0
}
