package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LoadPage fetches page n of the listing at path as HTML. Existing query
// parameters such as filters are preserved.
func (c *Client) LoadPage(ctx context.Context, path string, page int) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w: parse %q: %v", ErrTransport, path, err)
	}
	q := u.Query()
	q.Set("page", itoa(page))
	u.RawQuery = q.Encode()

	body, status, err := c.send(ctx, request{method: http.MethodGet, path: u.String()}, "text/html")
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("%w: load page %d: status %d", ErrTransport, page, status)
	}
	return string(body), nil
}

// ExtractFragment returns the inner markup of the first element matching
// selector in markup. ok is false when the container is missing.
func ExtractFragment(markup, selector string) (fragment string, ok bool, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", false, fmt.Errorf("parse page: %w", err)
	}
	container := doc.Find(selector).First()
	if container.Length() == 0 {
		return "", false, nil
	}
	inner, err := container.Html()
	if err != nil {
		return "", false, fmt.Errorf("render fragment: %w", err)
	}
	return inner, true, nil
}
