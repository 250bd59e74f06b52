package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

type stubLogger struct {
	entries []string
}

func (s *stubLogger) Printf(format string, args ...any) {
	s.entries = append(s.entries, format)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		Token:      func() string { return "tok" },
		Logger:     &stubLogger{},
	}
}

func TestSaveMaterialUsesMethodAndCSRF(t *testing.T) {
	var got []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Method+" "+r.URL.Path+" "+r.Header.Get("X-CSRFToken"))
		w.Write([]byte(`{"success":true}`))
	})

	if err := client.SaveMaterial(context.Background(), "12", true); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := client.SaveMaterial(context.Background(), "12", false); err != nil {
		t.Fatalf("unsave: %v", err)
	}
	want := []string{"POST /api/materials/12/save/ tok", "DELETE /api/materials/12/save/ tok"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected requests %v", got)
	}
}

func TestRejectedAndTransportErrorsAreDistinct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/materials/1/save/":
			w.Write([]byte(`{"success":false,"message":"already saved"}`))
		case "/api/materials/2/save/":
			w.Write([]byte(`{"ok":true}`))
		case "/api/materials/3/save/":
			http.Error(w, "<html>forbidden</html>", http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"success":false,"error":"bad rating"}`))
		}
	})

	err := client.SaveMaterial(context.Background(), "1", true)
	if !errors.Is(err, ErrRejected) || UserMessage(err, "fallback") != "already saved" {
		t.Fatalf("expected rejected error with message, got %v", err)
	}
	if err := client.SaveMaterial(context.Background(), "2", true); !errors.Is(err, ErrRejected) {
		t.Fatalf("missing success flag should be rejected, got %v", err)
	}
	err = client.SaveMaterial(context.Background(), "3", true)
	if !errors.Is(err, ErrTransport) || errors.Is(err, ErrRejected) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if UserMessage(err, "fallback") != "fallback" {
		t.Fatalf("transport errors should use the fallback message")
	}
	_, err = client.RateMaterial(context.Background(), "4", 3)
	if !errors.Is(err, ErrRejected) || UserMessage(err, "") != "bad rating" {
		t.Fatalf("expected rejected error from 400 body, got %v", err)
	}
}

func TestUnreachableServerIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	logger := &stubLogger{}
	client := &Client{BaseURL: base, Logger: logger}
	if err := client.Report(context.Background(), "9"); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if len(logger.entries) == 0 {
		t.Fatalf("expected transport failure to be logged")
	}
}

func TestRateAndVotePayloads(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		switch r.URL.Path {
		case "/api/materials/5/rate/":
			if body["rating"] != float64(4) {
				t.Errorf("unexpected rating body %v", body)
			}
			w.Write([]byte(`{"success":true,"average_rating":4.25,"rating_count":4}`))
		case "/api/comments/c1/vote/":
			if body["vote_type"] != "upvote" {
				t.Errorf("unexpected vote body %v", body)
			}
			w.Write([]byte(`{"success":true,"upvotes":5,"downvotes":2}`))
		}
	})

	rate, err := client.RateMaterial(context.Background(), "5", 4)
	if err != nil || rate.AverageRating == nil || *rate.AverageRating != 4.25 {
		t.Fatalf("unexpected rate result %+v %v", rate, err)
	}
	vote, err := client.Vote(context.Background(), "c1", Upvote)
	if err != nil || vote.Upvotes != 5 || vote.Downvotes != 2 {
		t.Fatalf("unexpected vote result %+v %v", vote, err)
	}
	if _, err := client.Vote(context.Background(), "c1", VoteType("sideways")); err == nil {
		t.Fatalf("expected invalid vote type to fail")
	}
}

func TestPostCommentSendsMultipart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("expected multipart body, got %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.FormValue("content") != "Great notes" {
			t.Errorf("unexpected content %q", r.FormValue("content"))
		}
		w.Write([]byte(`{"success":true,"comment":{"id":42,"user":"ana","content":"Great notes"}}`))
	})

	comment, err := client.PostComment(context.Background(), "/materials/3/comment/", url.Values{"content": {"Great notes"}})
	if err != nil {
		t.Fatalf("post comment: %v", err)
	}
	if comment.ID != "42" || comment.User != "ana" {
		t.Fatalf("unexpected comment %+v", comment)
	}
}

func TestBulkAndQuickActionPaths(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/api/admin/bulk-action/" {
			data, _ := io.ReadAll(r.Body)
			if string(data) != `{"action":"approve","ids":["1","2"]}` {
				t.Errorf("unexpected bulk body %s", data)
			}
		}
		w.Write([]byte(`{"success":true,"processed":2}`))
	})

	res, err := client.BulkAction(context.Background(), "approve", []string{"1", "2"})
	if err != nil || res.Processed != 2 {
		t.Fatalf("bulk: %+v %v", res, err)
	}
	if err := client.QuickAction(context.Background(), "material", "7", "delete"); err != nil {
		t.Fatalf("quick: %v", err)
	}
	if paths[1] != "/api/admin/material/7/delete/" {
		t.Fatalf("unexpected quick action path %q", paths[1])
	}
}

func TestSuggestionsEscapesQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "c++ & go" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		if r.Header.Get("X-CSRFToken") != "" {
			t.Errorf("GET requests should not carry the CSRF header")
		}
		w.Write([]byte(`{"suggestions":[{"url":"/m/1","type":"material","title":"C++ basics","subtitle":"CSE101"}]}`))
	})
	got, err := client.Suggestions(context.Background(), "c++ & go")
	if err != nil || len(got) != 1 || got[0].Type != "material" {
		t.Fatalf("unexpected suggestions %+v %v", got, err)
	}
}

func TestLoadPageKeepsFilters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("type") != "note" || r.URL.Query().Get("page") != "3" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Write([]byte(`<html><body><div id="content-container"><div class="card">x</div></div></body></html>`))
	})
	page, err := client.LoadPage(context.Background(), "/materials/?type=note&page=1", 3)
	if err != nil {
		t.Fatalf("load page: %v", err)
	}
	frag, ok, err := ExtractFragment(page, "#content-container")
	if err != nil || !ok {
		t.Fatalf("extract: %v %v", ok, err)
	}
	if frag != `<div class="card">x</div>` {
		t.Fatalf("unexpected fragment %q", frag)
	}
	if _, ok, _ := ExtractFragment(page, "#missing"); ok {
		t.Fatalf("missing container should report !ok")
	}
}

func TestSettingsFallsBackToDefaults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	got := client.Settings(context.Background())
	if got.SearchDebounceMS != 300 {
		t.Fatalf("expected defaults, got %+v", got)
	}

	client = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"search_debounce_ms":120}`))
	})
	got = client.Settings(context.Background())
	if got.SearchDebounceMS != 120 || got.ToastDurationMS != 3000 {
		t.Fatalf("expected served value merged with defaults, got %+v", got)
	}
}
