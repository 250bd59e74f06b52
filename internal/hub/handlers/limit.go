package handlers

import (
	"net/http"

	"learning-hub/internal/client/settings"
)

// formMemory is the part of a multipart form kept in memory; larger files
// spill to temporary files.
const formMemory = 8 << 20

// BodyLimit is the largest request body accepted: one upload plus room for
// the other form fields.
func BodyLimit(s settings.Settings) int64 {
	return s.Normalize().MaxUploadBytes + 1<<20
}

// LimitBody caps request bodies at n bytes. It must run before anything that
// parses forms, CSRF included, so oversized uploads are cut off while they
// stream in.
func LimitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if n > 0 && r.Body != nil && !safeMethod(r.Method) {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
