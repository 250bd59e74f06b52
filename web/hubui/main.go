//go:build js && wasm

// Command hubui is the browser side of the Learning Hub pages, compiled to
// WebAssembly and loaded by every server-rendered page.
package main

import (
	"context"
	"syscall/js"

	"learning-hub/internal/client/api"
	"learning-hub/internal/client/dom"
	"learning-hub/internal/client/hub"
	"learning-hub/internal/client/responsive"
	"learning-hub/internal/client/toast"
	"learning-hub/internal/client/util"
	"learning-hub/internal/logging"
)

var (
	window   = js.Global()
	document = window.Get("document")
	// funcs keeps the callbacks alive for the lifetime of the page.
	funcs []js.Func
)

func main() {
	done := make(chan struct{})
	waitForDOM()

	ctx := context.Background()
	logger := logging.WithPrefix(logging.New(), "hub: ")
	client := &api.Client{Logger: logger}

	opts := hub.Options{
		Doc:         dom.NewJSDocument(),
		Win:         dom.NewJSWindow(),
		API:         client,
		Settings:    client.Settings(ctx),
		Logger:      logger,
		BindTooltip: bindTooltip,
	}
	if observe, ok := imageObserver(); ok {
		opts.ObserveImages = observe
	}

	session := hub.New(opts)
	bindEvents(ctx, session)
	bindScroll(ctx, session, opts.ObserveImages == nil)
	exposeGlobals(session)
	session.Start()
	<-done
}

func waitForDOM() {
	if document.Get("readyState").String() != "loading" {
		return
	}
	ready := make(chan struct{})
	var fn js.Func
	fn = js.FuncOf(func(js.Value, []js.Value) any {
		close(ready)
		fn.Release()
		return nil
	})
	document.Call("addEventListener", "DOMContentLoaded", fn)
	<-ready
}

func keep(fn js.Func) js.Func {
	funcs = append(funcs, fn)
	return fn
}

// bindEvents attaches one document listener per event type. preventDefault
// must run before the callback returns, so routes are resolved synchronously
// and only the handlers run on their own goroutine.
func bindEvents(ctx context.Context, session *hub.Session) {
	for _, name := range session.Events() {
		listener := keep(js.FuncOf(func(_ js.Value, args []js.Value) any {
			if len(args) == 0 {
				return nil
			}
			ev := translate(args[0])
			inv, ok := session.Resolve(ev)
			if !ok {
				return nil
			}
			if inv.PreventsDefault() {
				args[0].Call("preventDefault")
			}
			go inv.Run(ctx)
			return nil
		}))
		document.Call("addEventListener", name, listener)
	}
}

func translate(v js.Value) *dom.Event {
	ev := &dom.Event{
		Type:   v.Get("type").String(),
		Target: dom.WrapJS(v.Get("target")),
	}
	if key := v.Get("key"); key.Type() == js.TypeString {
		ev.Key = key.String()
	}
	ev.Ctrl = v.Get("ctrlKey").Truthy()
	ev.Meta = v.Get("metaKey").Truthy()
	if dt := v.Get("dataTransfer"); dt.Truthy() {
		ev.Files = dom.FilesFromList(dt.Get("files"))
	}
	return ev
}

func bindScroll(ctx context.Context, session *hub.Session, revealOnScroll bool) {
	onScroll := keep(js.FuncOf(func(js.Value, []js.Value) any {
		go func() {
			session.Scroll(ctx)
			if revealOnScroll {
				session.Responsive.RevealVisible(dom.NewJSDocument().Body())
			}
		}()
		return nil
	}))
	opts := window.Get("Object").New()
	opts.Set("passive", true)
	window.Call("addEventListener", "scroll", onScroll, opts)
}

// imageObserver reveals lazy images as they enter the viewport and stops
// watching each one afterwards.
func imageObserver() (func([]dom.Element), bool) {
	ctor := window.Get("IntersectionObserver")
	if !ctor.Truthy() {
		return nil, false
	}
	var observer js.Value
	callback := keep(js.FuncOf(func(_ js.Value, args []js.Value) any {
		entries := args[0]
		for i := 0; i < entries.Length(); i++ {
			entry := entries.Index(i)
			if !entry.Get("isIntersecting").Bool() {
				continue
			}
			target := entry.Get("target")
			responsive.Reveal(dom.WrapJS(target))
			observer.Call("unobserve", target)
		}
		return nil
	}))
	observer = ctor.New(callback)
	return func(imgs []dom.Element) {
		for _, img := range imgs {
			if v, ok := dom.JSValue(img); ok {
				observer.Call("observe", v)
			}
		}
	}, true
}

func bindTooltip(el dom.Element) {
	bootstrap := window.Get("bootstrap")
	if !bootstrap.Truthy() || !bootstrap.Get("Tooltip").Truthy() {
		return
	}
	if v, ok := dom.JSValue(el); ok {
		bootstrap.Get("Tooltip").New(v)
	}
}

func rootArg(args []js.Value) dom.Element {
	if len(args) > 0 && args[0].Truthy() {
		return dom.WrapJS(args[0])
	}
	return dom.NewJSDocument().Body()
}

func exposeGlobals(session *hub.Session) {
	window.Set("LearningHub", js.ValueOf(map[string]any{
		"showToast": keep(js.FuncOf(func(_ js.Value, args []js.Value) any {
			if len(args) == 0 {
				return nil
			}
			kind := toast.Info
			if len(args) > 1 && args[1].Type() == js.TypeString {
				kind = toast.Kind(args[1].String())
			}
			session.ShowToast(args[0].String(), kind)
			return nil
		})),
		"formatByteSize": keep(js.FuncOf(func(_ js.Value, args []js.Value) any {
			if len(args) == 0 {
				return util.FormatByteSize(0)
			}
			return util.FormatByteSize(int64(args[0].Float()))
		})),
		"fileIconFor": keep(js.FuncOf(func(_ js.Value, args []js.Value) any {
			if len(args) == 0 {
				return util.GenericFileIcon
			}
			return util.FileIconFor(args[0].String())
		})),
		"initTooltips": keep(js.FuncOf(func(_ js.Value, args []js.Value) any {
			return session.InitTooltips(rootArg(args))
		})),
		"initFileUploads": keep(js.FuncOf(func(_ js.Value, args []js.Value) any {
			return session.InitFileUploads(rootArg(args))
		})),
	}))
}
