package httpserver

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"
)

type testLogger struct {
	mu   sync.Mutex
	logs []string
}

func (l *testLogger) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, format)
}

func TestNewAppliesDefaults(t *testing.T) {
	srv, err := New(Config{Port: ":8080"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if srv.httpServer == nil {
		t.Fatalf("expected underlying http server to be configured")
	}
	if srv.httpServer.Handler == nil {
		t.Fatalf("expected default handler to be applied")
	}
	if srv.Addr != defaultAddr || srv.ReadTimeout != defaultReadTimeout {
		t.Fatalf("unexpected defaults %q %s", srv.Addr, srv.ReadTimeout)
	}
	if srv.ListenerAddr() != nil {
		t.Fatalf("expected no listener before serving")
	}
}

func TestNewRequiresPort(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error when port missing")
	}
}

func TestListenAddr(t *testing.T) {
	cases := map[string]string{":8000": "127.0.0.1:8000", "9000": "127.0.0.1:9000", "": "127.0.0.1"}
	for port, want := range cases {
		srv := &Server{Config: Config{Addr: "127.0.0.1", Port: port}}
		if got := srv.listenAddr(); got != want {
			t.Fatalf("port %q: expected %q, got %q", port, want, got)
		}
	}
}

func start(t *testing.T, cfg Config) (*Server, <-chan error) {
	t.Helper()
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe() }()
	select {
	case <-srv.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server failed to start")
	}
	return srv, done
}

func TestListenAndServeWithDefaultHandler(t *testing.T) {
	logger := &testLogger{}
	srv, done := start(t, Config{Port: ":0", Logger: logger})

	resp, err := http.Get("http://" + srv.ListenerAddr().String() + "/anything")
	if err != nil {
		t.Fatalf("failed to query server: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK || string(body) != "OK" {
		t.Fatalf("unexpected response %d %q", resp.StatusCode, string(body))
	}

	if err := srv.Close(); err != nil {
		t.Fatalf("close server: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("listen returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestShutdownWaitsForInFlightRequests(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		_, _ = w.Write([]byte("done"))
	})
	srv, done := start(t, Config{Port: ":0", Logger: &testLogger{}, Handler: handler})

	result := make(chan string, 1)
	go func() {
		resp, err := http.Get("http://" + srv.ListenerAddr().String() + "/")
		if err != nil {
			result <- err.Error()
			return
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		result <- string(body)
	}()
	<-entered

	shutdown := make(chan error, 1)
	go func() { shutdown <- srv.Shutdown(context.Background()) }()
	time.Sleep(50 * time.Millisecond)
	close(release)

	if got := <-result; got != "done" {
		t.Fatalf("expected in-flight request to finish, got %q", got)
	}
	if err := <-shutdown; err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("listen returned error: %v", err)
	}
}
