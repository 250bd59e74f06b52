package util

import (
	"net/url"
	"strings"
)

const (
	// CSRFCookieName is the cookie carrying the anti-forgery token.
	CSRFCookieName = "csrftoken"
	// CSRFHeader is the request header the token is echoed in.
	CSRFHeader = "X-CSRFToken"
)

// CookieValue returns the decoded value of name from a document.cookie string.
func CookieValue(raw, name string) (string, bool) {
	for _, part := range strings.Split(raw, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || key != name {
			continue
		}
		decoded, err := url.PathUnescape(value)
		if err != nil {
			return value, true
		}
		return decoded, true
	}
	return "", false
}
