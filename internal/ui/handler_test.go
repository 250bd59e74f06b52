package ui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

func TestHandlerServesEmbeddedAssets(t *testing.T) {
	handler := Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/hub.js", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "main.wasm") {
		t.Fatalf("expected the loader to reference main.wasm")
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/hub.css", nil))
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Fatalf("unexpected css content type %q", ct)
	}
}

func TestFileServer(t *testing.T) {
	fsys := fstest.MapFS{
		"main.wasm":    {Data: []byte("\x00asm")},
		"nested/a.txt": {Data: []byte("a")},
		"wasm_exec.js": {Data: []byte("// go")},
	}
	handler := FileServer(fsys)

	cases := []struct {
		path   string
		status int
		ctype  string
	}{
		{path: "/main.wasm", status: http.StatusOK, ctype: "application/wasm"},
		{path: "/wasm_exec.js", status: http.StatusOK},
		{path: "/", status: http.StatusNotFound},
		{path: "/nested", status: http.StatusNotFound},
		{path: "/../main.wasm", status: http.StatusOK},
		{path: "/missing.js", status: http.StatusNotFound},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.URL.Path = tc.path
		handler.ServeHTTP(rr, req)
		if rr.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.status, rr.Code)
		}
		if tc.ctype != "" && rr.Header().Get("Content-Type") != tc.ctype {
			t.Fatalf("%s: unexpected content type %q", tc.path, rr.Header().Get("Content-Type"))
		}
	}
}
