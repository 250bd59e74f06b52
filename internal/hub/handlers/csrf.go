package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	// CSRFHeader is the request header mutating calls must carry.
	CSRFHeader = "X-CSRFToken"
	// CSRFFormField is accepted instead of the header for plain form posts.
	CSRFFormField = "csrfmiddlewaretoken"
)

type csrfKey struct{}

// CSRFToken returns the token issued for this request, for embedding in forms.
func CSRFToken(ctx context.Context) string {
	tok, _ := ctx.Value(csrfKey{}).(string)
	return tok
}

// CSRF implements the double-submit check: the token cookie is issued on any
// request that lacks it, and unsafe methods must echo it in CSRFHeader or
// CSRFFormField.
func CSRF(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(cookieName); err == nil {
				token = c.Value
			}

			if !safeMethod(r.Method) {
				sent := r.Header.Get(CSRFHeader)
				if sent == "" && isFormPost(r) {
					if err := parseForm(r); err != nil {
						var tooLarge *http.MaxBytesError
						if errors.As(err, &tooLarge) {
							respondFailure(w, http.StatusRequestEntityTooLarge, "Request body too large.")
							return
						}
					}
					sent = r.PostFormValue(CSRFFormField)
				}
				if token == "" || subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
					respondFailure(w, http.StatusForbidden, "CSRF token missing or incorrect.")
					return
				}
			}

			if token == "" {
				token = strings.ReplaceAll(uuid.NewString(), "-", "")
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    token,
					Path:     "/",
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfKey{}, token)))
		})
	}
}

func safeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// parseForm parses the body with the same memory bound the upload handler
// uses, so the handler's own parse is a no-op.
func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(formMemory)
	}
	return r.ParseForm()
}

func isFormPost(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data")
}
