// Package upload validates picked files and renders previews before the
// surrounding form is submitted.
package upload

import (
	"context"
	"fmt"
	"html"
	"strings"

	"learning-hub/internal/client/dom"
	"learning-hub/internal/client/page"
	"learning-hub/internal/client/util"
)

const (
	InputAction = "file-upload"
	DropAction  = "drop-zone"

	inputSelector = `input[type="file"]`
	zoneSelector  = `.file-drop-zone, [data-drop-zone]`
	dragOverClass = "drag-over"
)

// Controller handles file inputs and their drop zones.
type Controller struct {
	env page.Env
}

// New returns a Controller for env.
func New(env page.Env) *Controller {
	return &Controller{env: env}
}

// Init tags every file input and drop zone under root with its action role so
// the delegated listeners reach them. It returns the number of inputs tagged.
func (c *Controller) Init(root dom.Element) int {
	if !dom.Present(root) {
		return 0
	}
	tagged := 0
	for _, input := range root.QuerySelectorAll(inputSelector) {
		if _, ok := input.Attr(dom.ActionAttr); !ok {
			input.SetAttr(dom.ActionAttr, InputAction)
			tagged++
		}
	}
	for _, zone := range root.QuerySelectorAll(zoneSelector) {
		if _, ok := zone.Attr(dom.ActionAttr); !ok {
			zone.SetAttr(dom.ActionAttr, DropAction)
		}
	}
	return tagged
}

// Routes returns the delegated routes for inputs and drop zones.
func (c *Controller) Routes() []dom.Route {
	return []dom.Route{
		{Event: "change", Action: InputAction, Handle: func(_ context.Context, _ *dom.Event, el dom.Element) {
			c.Select(el)
		}},
		{Event: "dragover", Action: DropAction, PreventDefault: true, Handle: func(_ context.Context, _ *dom.Event, el dom.Element) {
			el.AddClass(dragOverClass)
		}},
		{Event: "dragleave", Action: DropAction, PreventDefault: true, Handle: func(_ context.Context, _ *dom.Event, el dom.Element) {
			el.RemoveClass(dragOverClass)
		}},
		{Event: "drop", Action: DropAction, PreventDefault: true, Handle: func(_ context.Context, ev *dom.Event, el dom.Element) {
			c.Drop(el, ev.Files)
		}},
	}
}

// Drop assigns files dropped on zone to its file input and fires a change
// event on it, so every change listener sees a drop like a pick. Without page
// listeners the selection is handled directly.
func (c *Controller) Drop(zone dom.Element, files []dom.File) {
	zone.RemoveClass(dragOverClass)
	input := zone.QuerySelector(inputSelector)
	if !dom.Present(input) || len(files) == 0 {
		return
	}
	input.SetFiles(files)
	if !input.DispatchEvent("change") {
		c.Select(input)
	}
}

// Select validates the first file of input and renders its preview. Files
// over the size limit are rejected with an alert and the input is cleared.
func (c *Controller) Select(input dom.Element) {
	preview := c.previewFor(input)
	files := input.Files()
	if len(files) == 0 {
		clearPreview(preview)
		return
	}
	file := files[0]
	limit := c.env.Settings.MaxUploadBytes
	if limit > 0 && file.Size > limit {
		if c.env.Win != nil {
			c.env.Win.Alert(fmt.Sprintf("File is too large. Maximum size is %s.", util.FormatByteSize(limit)))
		}
		input.SetValue("")
		clearPreview(preview)
		return
	}
	if !dom.Present(preview) {
		return
	}
	preview.SetInnerHTML(PreviewMarkup(file))
	preview.RemoveClass("d-none")
}

// PreviewMarkup renders an image for image files with a preview URL and an
// icon card with the name and size otherwise.
func PreviewMarkup(file dom.File) string {
	name := html.EscapeString(file.Name)
	if strings.HasPrefix(file.Type, "image/") && file.PreviewURL != "" {
		return `<img src="` + html.EscapeString(file.PreviewURL) + `" class="img-thumbnail" style="max-height: 200px;" alt="` + name + `">`
	}
	return `<div class="file-info d-flex align-items-center p-2 border rounded">` +
		`<i class="` + util.FileIconFor(file.Name) + ` fa-2x me-3"></i>` +
		`<div><div class="fw-bold file-name">` + name + `</div>` +
		`<small class="text-muted file-size">` + util.FormatByteSize(file.Size) + `</small></div></div>`
}

// previewFor finds the preview container of input: the element named by its
// data-preview selector, a .file-preview next to it, or a new one.
func (c *Controller) previewFor(input dom.Element) dom.Element {
	if sel := input.Data("preview"); sel != "" && c.env.Doc != nil {
		if el := c.env.Doc.QuerySelector(sel); dom.Present(el) {
			return el
		}
	}
	parent := input.Parent()
	if !dom.Present(parent) {
		return nil
	}
	if el := parent.QuerySelector(".file-preview"); dom.Present(el) {
		return el
	}
	return parent.AppendHTML(`<div class="file-preview mt-2"></div>`)
}

func clearPreview(preview dom.Element) {
	if dom.Present(preview) {
		preview.SetInnerHTML("")
	}
}
