package logging

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxLoggedResponseBody = 4096

// redactedFields never reach the log, whether they arrive as form values or
// headers.
var redactedFields = []string{"password", "csrfmiddlewaretoken"}

var redactedHeaders = []string{"Cookie", "X-Csrftoken", "Authorization"}

// HTTPLogOptions tunes WithHTTPLogging.
type HTTPLogOptions struct {
	// SkipPrefixes lists path prefixes that are served without logging,
	// such as static assets and the metrics scrape.
	SkipPrefixes []string
}

// WithHTTPLogging wraps the provided handler so every request produces one
// access entry. Failed API calls also log the request headers and the
// response body, with credentials redacted.
func WithHTTPLogging(next http.Handler, logger Logger, opts ...HTTPLogOptions) http.Handler {
	if logger == nil || next == nil {
		return next
	}
	var skip []string
	for _, o := range opts {
		skip = append(skip, o.SkipPrefixes...)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range skip {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		started := time.Now()
		lrw := newLoggingResponseWriter(w)
		next.ServeHTTP(lrw, r)

		status := lrw.StatusCode()
		logger.Printf("%s %s %d %s %dB from %s",
			r.Method, RedactedURI(r.URL), status, time.Since(started).Round(time.Microsecond), lrw.written, r.RemoteAddr)

		if status >= http.StatusBadRequest && isAPIRequest(r) {
			logger.Printf("---- Failed %s %s (%d %s) ----\n%s\n%s",
				r.Method, r.URL.Path, status, http.StatusText(status), redactedHeaderDump(r.Header), lrw.LoggedBody())
		}
	})
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// RedactedURI renders u with sensitive query values masked.
func RedactedURI(u *url.URL) string {
	if u == nil {
		return ""
	}
	if u.RawQuery == "" {
		return u.Path
	}
	q := u.Query()
	for _, field := range redactedFields {
		if q.Has(field) {
			q.Set(field, "[redacted]")
		}
	}
	return u.Path + "?" + q.Encode()
}

func redactedHeaderDump(h http.Header) string {
	var b strings.Builder
	for name, values := range h {
		value := strings.Join(values, ", ")
		for _, hidden := range redactedHeaders {
			if strings.EqualFold(name, hidden) {
				value = "[redacted]"
			}
		}
		fmt.Fprintf(&b, "%s: %s\n", name, value)
	}
	return strings.TrimRight(b.String(), "\n")
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status    int
	written   int
	buf       bytes.Buffer
	truncated bool
}

func newLoggingResponseWriter(w http.ResponseWriter) *loggingResponseWriter {
	return &loggingResponseWriter{ResponseWriter: w}
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	if lrw.status == 0 {
		lrw.status = code
	}
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	if lrw.buf.Len() < maxLoggedResponseBody {
		remaining := maxLoggedResponseBody - lrw.buf.Len()
		if len(b) > remaining {
			lrw.buf.Write(b[:remaining])
			lrw.truncated = true
		} else {
			lrw.buf.Write(b)
		}
	} else {
		lrw.truncated = true
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.written += n
	return n, err
}

func (lrw *loggingResponseWriter) StatusCode() int {
	if lrw.status == 0 {
		return http.StatusOK
	}
	return lrw.status
}

func (lrw *loggingResponseWriter) LoggedBody() string {
	body := lrw.buf.String()
	if lrw.truncated {
		return fmt.Sprintf("%s\n-- response truncated after %d bytes --", body, maxLoggedResponseBody)
	}
	return body
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (lrw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lrw.ResponseWriter
}
