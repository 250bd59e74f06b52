package admin

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"learning-hub/internal/client/api"
	"learning-hub/internal/client/dom"
	"learning-hub/internal/client/page"
	"learning-hub/internal/client/schedule"
	"learning-hub/internal/client/settings"
	"learning-hub/internal/client/toast"
)

const adminPage = `<html><body>
<select id="bulk-action-select"><option value="">Choose</option><option value="approve">Approve</option></select>
<button id="bulk" data-action="bulk-apply">Apply</button>
<input type="checkbox" id="all" data-action="select-all">
<div class="admin-item card" id="item-1"><input type="checkbox" id="c1" data-action="select-item" data-item-id="1">
  <button id="q1" data-action="quick-action" data-item-type="material" data-item-id="1" data-quick-action="approve">Approve</button></div>
<div class="admin-item card" id="item-2"><input type="checkbox" id="c2" data-action="select-item" data-item-id="2"></div>
<div class="admin-item card" id="item-3"><input type="checkbox" id="c3" data-action="select-item" data-item-id="3">
  <button id="q3" data-action="quick-action" data-item-type="comment" data-item-id="3" data-quick-action="delete">Delete</button></div>
</body></html>`

type notes struct {
	mu   sync.Mutex
	list []string
}

func (n *notes) Show(message string, kind toast.Kind) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, string(kind)+":"+message)
}

type fixture struct {
	ctrl  *Controller
	doc   *dom.HTMLDocument
	win   *dom.HeadlessWindow
	clock *schedule.Manual
	notes *notes
	d     *dom.Delegator

	mu       sync.Mutex
	requests []string
}

func newFixture(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *fixture {
	t.Helper()
	f := &fixture{doc: dom.MustParseHTML(adminPage), clock: schedule.NewManual(), notes: &notes{}, d: dom.NewDelegator()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, r.URL.Path+" "+string(body))
		f.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	f.win = dom.NewHeadlessWindow(srv.URL + "/dashboard/admin/")
	f.ctrl = New(page.Env{
		Doc:      f.doc,
		Win:      f.win,
		API:      &api.Client{BaseURL: srv.URL, HTTPClient: srv.Client(), Token: func() string { return "tok" }},
		Toasts:   f.notes,
		Clock:    f.clock,
		Settings: settings.Defaults(),
	})
	for _, r := range f.ctrl.Routes() {
		f.d.On(r)
	}
	f.ctrl.Init()
	return f
}

func (f *fixture) check(id string, checked bool) {
	el := f.doc.GetElementByID(id)
	el.SetChecked(checked)
	f.d.Dispatch(context.Background(), &dom.Event{Type: "change", Target: el})
}

func (f *fixture) click(id string) {
	f.d.Dispatch(context.Background(), &dom.Event{Type: "click", Target: f.doc.GetElementByID(id)})
}

func ok(w http.ResponseWriter, _ *http.Request) { w.Write([]byte(`{"success":true}`)) }

func TestSelectionTriState(t *testing.T) {
	f := newFixture(t, ok)
	all, btn := f.doc.GetElementByID("all"), f.doc.GetElementByID("bulk")
	if !btn.Disabled() || btn.Text() != "Apply" {
		t.Fatalf("empty selection should disable the button, got %q", btn.Text())
	}

	f.check("c2", true)
	if !all.Indeterminate() || all.Checked() {
		t.Fatalf("partial selection should be indeterminate")
	}
	if btn.Disabled() || btn.Text() != "Apply to 1 selected" {
		t.Fatalf("unexpected button state %q disabled=%v", btn.Text(), btn.Disabled())
	}

	f.check("c1", true)
	f.check("c3", true)
	if all.Indeterminate() || !all.Checked() {
		t.Fatalf("full selection should check select-all")
	}

	f.check("all", false)
	for _, id := range []string{"c1", "c2", "c3"} {
		if f.doc.GetElementByID(id).Checked() {
			t.Fatalf("%s should be unchecked", id)
		}
	}
	if !btn.Disabled() || btn.Text() != "Apply" {
		t.Fatalf("button should reset, got %q", btn.Text())
	}
}

func TestBulkActionConfirmsPostsAndReloads(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"processed":2}`))
	})
	f.doc.GetElementByID("bulk-action-select").SetValue("approve")
	f.check("c1", true)
	f.check("c3", true)

	f.win.SetConfirmAnswer(false)
	f.click("bulk")
	if len(f.requests) != 0 {
		t.Fatalf("declined confirmation must not post")
	}

	f.win.SetConfirmAnswer(true)
	f.click("bulk")
	if confirms := f.win.Confirms(); len(confirms) != 2 || !strings.Contains(confirms[1], "approve 2") {
		t.Fatalf("unexpected confirmations %v", confirms)
	}
	if len(f.requests) != 1 || f.requests[0] != `/api/admin/bulk-action/ {"action":"approve","ids":["1","3"]}` {
		t.Fatalf("unexpected requests %v", f.requests)
	}
	f.clock.Advance(999 * time.Millisecond)
	if f.win.Reloads() != 0 {
		t.Fatalf("reload happened too early")
	}
	f.clock.Advance(time.Millisecond)
	if f.win.Reloads() != 1 {
		t.Fatalf("expected a reload after one second")
	}
	if len(f.notes.list) != 1 || f.notes.list[0] != "success:Approve applied to 2 item(s)." {
		t.Fatalf("unexpected toasts %v", f.notes.list)
	}
}

func TestBulkActionNeedsSelection(t *testing.T) {
	f := newFixture(t, ok)
	f.doc.GetElementByID("bulk-action-select").SetValue("approve")
	f.click("bulk")
	if len(f.win.Confirms()) != 0 || len(f.requests) != 0 {
		t.Fatalf("empty selection must stop before confirming")
	}
	if len(f.notes.list) != 1 || !strings.HasPrefix(f.notes.list[0], "warning:") {
		t.Fatalf("expected a warning, got %v", f.notes.list)
	}
}

func TestQuickActionFadesCardOut(t *testing.T) {
	f := newFixture(t, ok)
	f.click("q1")
	card := f.doc.GetElementByID("item-1")
	if card == nil || !card.HasClass("fade-out") {
		t.Fatalf("card should start fading: %s", f.doc.HTML())
	}
	if f.requests[0] != "/api/admin/material/1/approve/ " {
		t.Fatalf("unexpected request %q", f.requests[0])
	}
	f.clock.Advance(300 * time.Millisecond)
	if f.doc.GetElementByID("item-1") != nil {
		t.Fatalf("card should be removed after the fade")
	}
	if f.win.Reloads() != 0 {
		t.Fatalf("quick actions must not reload")
	}
}

func TestQuickActionFailureKeepsCard(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"message":"Item not found"}`))
	})
	f.click("q3")
	f.clock.Advance(time.Second)
	if card := f.doc.GetElementByID("item-3"); card == nil || card.HasClass("fade-out") {
		t.Fatalf("failed action must leave the card alone")
	}
	if len(f.notes.list) != 1 || f.notes.list[0] != "error:Item not found" {
		t.Fatalf("unexpected toasts %v", f.notes.list)
	}
}
