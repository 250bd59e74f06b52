// Package api is the typed client for the Learning Hub REST endpoints.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"learning-hub/internal/client/settings"
	"learning-hub/internal/client/util"
	"learning-hub/internal/logging"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseBody = 2 << 20 // 2 MB
)

// Client issues the REST calls behind every page interaction.
type Client struct {
	// BaseURL is prefixed to relative paths. Empty means same origin.
	BaseURL    string
	HTTPClient *http.Client
	// Token returns the CSRF token sent on mutating requests.
	Token  func() string
	Logger logging.Logger
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func (c *Client) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}

func (c *Client) resolve(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	return strings.TrimRight(c.BaseURL, "/") + path
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	// strict requires an explicit "success": true in the response.
	strict bool
}

func jsonBody(payload any) (io.Reader, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode body: %v", ErrTransport, err)
	}
	return bytes.NewReader(data), nil
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	body, status, err := c.send(ctx, r, "application/json")
	if err != nil {
		return err
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)
	if decodeErr != nil {
		if status < 200 || status >= 300 {
			return fmt.Errorf("%w: %s %s: status %d", ErrTransport, r.method, r.path, status)
		}
		return fmt.Errorf("%w: decode %s: %v", ErrTransport, r.path, decodeErr)
	}
	if env.Success != nil && !*env.Success {
		return &RejectedError{Status: status, Message: env.message()}
	}
	if status < 200 || status >= 300 {
		return &RejectedError{Status: status, Message: env.message()}
	}
	if r.strict && env.Success == nil {
		return &RejectedError{Status: status, Message: "malformed response"}
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: decode %s: %v", ErrTransport, r.path, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, r request, accept string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, r.method, c.resolve(r.path), r.body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.method != http.MethodGet && r.method != http.MethodHead && c.Token != nil {
		req.Header.Set(util.CSRFHeader, c.Token())
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.logf("api: %s %s: %v", r.method, r.path, err)
		return nil, 0, fmt.Errorf("%w: %s %s: %w", ErrTransport, r.method, r.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		c.logf("api: read %s: %v", r.path, err)
		return nil, resp.StatusCode, fmt.Errorf("%w: read %s: %v", ErrTransport, r.path, err)
	}
	return body, resp.StatusCode, nil
}

func materialPath(id, action string) string {
	return "/api/materials/" + url.PathEscape(id) + "/" + action + "/"
}

func commentPath(id, action string) string {
	return "/api/comments/" + url.PathEscape(id) + "/" + action + "/"
}

// SaveMaterial saves (POST) or unsaves (DELETE) a material.
func (c *Client) SaveMaterial(ctx context.Context, id string, save bool) error {
	method := http.MethodPost
	if !save {
		method = http.MethodDelete
	}
	return c.do(ctx, request{method: method, path: materialPath(id, "save"), strict: true}, nil)
}

// RateMaterial submits a 1..5 rating.
func (c *Client) RateMaterial(ctx context.Context, id string, rating int) (RateResult, error) {
	body, err := jsonBody(map[string]int{"rating": rating})
	if err != nil {
		return RateResult{}, err
	}
	var out RateResult
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        materialPath(id, "rate"),
		body:        body,
		contentType: "application/json",
		strict:      true,
	}, &out)
	return out, err
}

// CountDownload records a download of the material.
func (c *Client) CountDownload(ctx context.Context, id string) (DownloadResult, error) {
	var out DownloadResult
	err := c.do(ctx, request{method: http.MethodPost, path: materialPath(id, "download"), strict: true}, &out)
	return out, err
}

// PostComment submits a comment form as multipart data to its action URL.
func (c *Client) PostComment(ctx context.Context, action string, fields url.Values) (Comment, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, values := range fields {
		for _, v := range values {
			if err := mw.WriteField(name, v); err != nil {
				return Comment{}, fmt.Errorf("%w: encode form: %v", ErrTransport, err)
			}
		}
	}
	if err := mw.Close(); err != nil {
		return Comment{}, fmt.Errorf("%w: encode form: %v", ErrTransport, err)
	}

	var out struct {
		Comment Comment `json:"comment"`
	}
	err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        action,
		body:        &buf,
		contentType: mw.FormDataContentType(),
		strict:      true,
	}, &out)
	if err != nil {
		return Comment{}, err
	}
	if out.Comment.ID == "" {
		return Comment{}, &RejectedError{Message: "malformed response"}
	}
	return out.Comment, nil
}

// Vote casts an up or down vote on a comment.
func (c *Client) Vote(ctx context.Context, commentID string, vote VoteType) (VoteResult, error) {
	if !vote.Valid() {
		return VoteResult{}, fmt.Errorf("%w: unknown vote type %q", ErrTransport, vote)
	}
	body, err := jsonBody(map[string]VoteType{"vote_type": vote})
	if err != nil {
		return VoteResult{}, err
	}
	var out VoteResult
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        commentPath(commentID, "vote"),
		body:        body,
		contentType: "application/json",
		strict:      true,
	}, &out)
	return out, err
}

// Report flags a comment for moderation.
func (c *Client) Report(ctx context.Context, commentID string) error {
	return c.do(ctx, request{method: http.MethodPost, path: commentPath(commentID, "report"), strict: true}, nil)
}

// Suggestions fetches autocomplete entries for q.
func (c *Client) Suggestions(ctx context.Context, q string) ([]Suggestion, error) {
	var out struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	path := "/api/search/suggestions/?q=" + url.QueryEscape(q)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

// BulkAction applies action to every id in one request.
func (c *Client) BulkAction(ctx context.Context, action string, ids []string) (BulkResult, error) {
	body, err := jsonBody(struct {
		Action string   `json:"action"`
		IDs    []string `json:"ids"`
	}{Action: action, IDs: ids})
	if err != nil {
		return BulkResult{}, err
	}
	var out BulkResult
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/admin/bulk-action/",
		body:        body,
		contentType: "application/json",
		strict:      true,
	}, &out)
	return out, err
}

// QuickAction applies action to a single item.
func (c *Client) QuickAction(ctx context.Context, itemType, itemID, action string) error {
	path := "/api/admin/" + url.PathEscape(itemType) + "/" + url.PathEscape(itemID) + "/" + url.PathEscape(action) + "/"
	return c.do(ctx, request{method: http.MethodPost, path: path, strict: true}, nil)
}

// Settings fetches the client settings, returning defaults when the endpoint
// is unavailable.
func (c *Client) Settings(ctx context.Context) settings.Settings {
	var out settings.Settings
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/client/settings"}, &out); err != nil {
		c.logf("api: using default client settings: %v", err)
		return settings.Defaults()
	}
	return out.Normalize()
}
