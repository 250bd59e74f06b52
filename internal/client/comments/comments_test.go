package comments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"learning-hub/internal/client/api"
	"learning-hub/internal/client/dom"
	"learning-hub/internal/client/page"
	"learning-hub/internal/client/settings"
	"learning-hub/internal/client/toast"
)

const commentPage = `<html><body>
<form id="comment-form" action="/materials/3/comment/" method="post" data-action="comment-form">
  <input type="hidden" name="csrfmiddlewaretoken" value="tok">
  <textarea name="content" id="content"></textarea>
  <button type="submit" id="submit">Post</button>
</form>
<div id="comments-list">
  <p class="no-comments">No comments yet.</p>
  <div class="card comment-card" data-comment-id="11">
    <div class="comment-actions">
      <button id="up" data-action="vote" data-comment-id="11" data-vote-type="upvote"><span class="vote-count">1</span></button>
      <button id="down" class="active" data-action="vote" data-comment-id="11" data-vote-type="downvote"><span class="vote-count">3</span></button>
      <button id="report" data-action="report-comment" data-comment-id="11">Report</button>
    </div>
  </div>
</div>
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
	ctrl     *Controller
	doc      *dom.HTMLDocument
	win      *dom.HeadlessWindow
	notes    *notes
	requests []string
	d        *dom.Delegator
}

func newFixture(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *fixture {
	t.Helper()
	f := &fixture{doc: dom.MustParseHTML(commentPage), notes: &notes{}, d: dom.NewDelegator()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	f.win = dom.NewHeadlessWindow(srv.URL + "/materials/3/")
	f.ctrl = New(page.Env{
		Doc:      f.doc,
		Win:      f.win,
		API:      &api.Client{BaseURL: srv.URL, HTTPClient: srv.Client(), Token: func() string { return "tok" }},
		Toasts:   f.notes,
		Settings: settings.Defaults(),
	})
	for _, r := range f.ctrl.Routes() {
		f.d.On(r)
	}
	return f
}

func (f *fixture) fire(typ string, target dom.Element) *dom.Event {
	ev := &dom.Event{Type: typ, Target: target}
	f.d.Dispatch(context.Background(), ev)
	return ev
}

func TestSubmitAppendsEscapedCard(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/materials/3/comment/":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse form: %v", err)
			}
			if r.FormValue("csrfmiddlewaretoken") != "tok" {
				t.Errorf("hidden fields should be sent")
			}
			w.Write([]byte(`{"success":true,"comment":{"id":12,"user":"<ana>","content":"` + r.FormValue("content") + `"}}`))
		case "/api/comments/12/vote/":
			w.Write([]byte(`{"success":true,"upvotes":1,"downvotes":0}`))
		}
	})
	f.doc.GetElementByID("content").SetValue("Nice summary")

	ev := f.fire("submit", f.doc.GetElementByID("comment-form"))
	if !ev.DefaultPrevented() {
		t.Fatalf("submit must prevent the native post")
	}
	card := f.doc.QuerySelector(`.comment-card[data-comment-id="12"]`)
	if card == nil {
		t.Fatalf("expected new card, got %s", f.doc.HTML())
	}
	if card.QuerySelector(".comment-author").Text() != "<ana>" || card.QuerySelector(".comment-content").Text() != "Nice summary" {
		t.Fatalf("unexpected card %s", card.InnerHTML())
	}
	if f.doc.QuerySelector(".no-comments") != nil {
		t.Fatalf("placeholder should be removed")
	}
	if f.doc.GetElementByID("content").Value() != "" {
		t.Fatalf("form should be reset")
	}
	if !f.doc.ScrolledInto(card) {
		t.Fatalf("new card should be scrolled into view")
	}

	// The injected card is interactive without re-binding.
	up := card.QuerySelector(`[data-vote-type="upvote"]`)
	f.fire("click", up.QuerySelector(".vote-count"))
	if !up.HasClass("active") || up.QuerySelector(".vote-count").Text() != "1" {
		t.Fatalf("vote on injected card failed: %s", card.InnerHTML())
	}
}

func TestSubmitValidatesAndReportsRejection(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"Comment too long"}`))
	})
	form := f.doc.GetElementByID("comment-form")

	f.fire("submit", form)
	if len(f.requests) != 0 {
		t.Fatalf("empty comments must not be posted")
	}
	f.doc.GetElementByID("content").SetValue("x")
	f.fire("submit", form)
	if len(f.doc.QuerySelectorAll(".comment-card")) != 1 {
		t.Fatalf("rejected comment must not be appended")
	}
	want := "warning:Please write a comment first.|error:Comment too long"
	if got := strings.Join(f.notes.list, "|"); got != want {
		t.Fatalf("unexpected toasts %q", got)
	}
}

func TestVoteHighlightsCastType(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"upvotes":5,"downvotes":2}`))
	})
	f.fire("click", f.doc.GetElementByID("up"))

	up, down := f.doc.GetElementByID("up"), f.doc.GetElementByID("down")
	if up.Text() != "5" || !up.HasClass("active") {
		t.Fatalf("upvote should show 5 and be active: %s", f.doc.HTML())
	}
	if down.Text() != "2" || down.HasClass("active") {
		t.Fatalf("downvote should show 2 and be inactive")
	}
}

func TestReportRequiresConfirmation(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	})
	btn := f.doc.GetElementByID("report")

	f.win.SetConfirmAnswer(false)
	f.fire("click", btn)
	if len(f.requests) != 0 {
		t.Fatalf("declined confirmation must not report")
	}

	f.win.SetConfirmAnswer(true)
	f.fire("click", btn)
	card := f.doc.QuerySelector(".comment-card")
	if !card.HasClass("reported") || card.QuerySelector(".badge") == nil || !btn.Disabled() {
		t.Fatalf("expected reported card, got %s", card.InnerHTML())
	}
	f.fire("click", btn)
	if len(f.requests) != 1 || f.requests[0] != "POST /api/comments/11/report/" {
		t.Fatalf("unexpected requests %v", f.requests)
	}
	if len(f.win.Confirms()) != 2 {
		t.Fatalf("reported cards should not ask again, confirms=%v", f.win.Confirms())
	}
}
