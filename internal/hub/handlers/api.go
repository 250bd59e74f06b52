package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"learning-hub/internal/client/settings"
	"learning-hub/internal/hub/store"
	"learning-hub/internal/logging"
)

// Options configures the hub handlers.
type Options struct {
	Store    *store.Store
	Settings settings.Settings
	Logger   logging.Logger
	// SuggestionLimit caps suggestion lookups per client IP in each
	// SuggestionWindow. Zero disables the limit.
	SuggestionLimit  int
	SuggestionWindow time.Duration
}

// API serves the JSON endpoints.
type API struct {
	store    *store.Store
	settings settings.Settings
	logger   logging.Logger
	limit    func(http.Handler) http.Handler
}

// NewAPI constructs the JSON endpoint handlers.
func NewAPI(opts Options) *API {
	a := &API{
		store:    opts.Store,
		settings: opts.Settings.Normalize(),
		logger:   opts.Logger,
		limit:    func(next http.Handler) http.Handler { return next },
	}
	if opts.SuggestionLimit > 0 && opts.SuggestionWindow > 0 {
		a.limit = httprate.Limit(
			opts.SuggestionLimit,
			opts.SuggestionWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				respondFailure(w, http.StatusTooManyRequests, "Too many searches. Slow down a little.")
			}),
		)
	}
	return a
}

// Routes registers the JSON endpoints on r. Admin endpoints require an
// administrator session.
func (a *API) Routes(r chi.Router) {
	r.Get("/api/client/settings", a.ClientSettings)
	r.Post("/api/materials/{id}/save/", a.SaveMaterial)
	r.Delete("/api/materials/{id}/save/", a.SaveMaterial)
	r.Post("/api/materials/{id}/rate/", a.RateMaterial)
	r.Post("/api/materials/{id}/download/", a.CountDownload)
	r.Post("/materials/{id}/comment/", a.AddComment)
	r.Post("/api/comments/{id}/vote/", a.Vote)
	r.Post("/api/comments/{id}/report/", a.Report)
	r.With(a.limit).Get("/api/search/suggestions/", a.Suggestions)
	r.Group(func(r chi.Router) {
		r.Use(RequireAdmin)
		r.Post("/api/admin/bulk-action/", a.BulkAction)
		r.Post("/api/admin/{type}/{id}/{action}/", a.QuickAction)
	})
}

func (a *API) materialID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := pathID(chi.URLParam(r, "id"))
	if !ok {
		respondFailure(w, http.StatusNotFound, "Material not found.")
	}
	return id, ok
}

func (a *API) commentID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := pathID(chi.URLParam(r, "id"))
	if !ok {
		respondFailure(w, http.StatusNotFound, "Comment not found.")
	}
	return id, ok
}

// ClientSettings serves the browser client's tunables.
func (a *API) ClientSettings(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, a.settings)
}

// SaveMaterial saves (POST) or unsaves (DELETE) a material for the visitor.
func (a *API) SaveMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := a.materialID(w, r)
	if !ok {
		return
	}
	save := r.Method != http.MethodDelete
	if err := a.store.SetSaved(userFrom(r), id, save); err != nil {
		handleError(w, a.logger, "save material", err)
		return
	}
	msg := "Material saved."
	if !save {
		msg = "Material removed from saved."
	}
	respondOK(w, map[string]any{"saved": save, "message": msg})
}

type rateRequest struct {
	Rating int `json:"rating"`
}

// RateMaterial records a 1..5 rating.
func (a *API) RateMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := a.materialID(w, r)
	if !ok {
		return
	}
	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondFailure(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	avg, count, err := a.store.Rate(userFrom(r), id, req.Rating)
	if err != nil {
		handleError(w, a.logger, "rate material", err)
		return
	}
	respondOK(w, map[string]any{"average_rating": avg, "rating_count": count})
}

// CountDownload increments the download counter.
func (a *API) CountDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := a.materialID(w, r)
	if !ok {
		return
	}
	downloads, err := a.store.CountDownload(id)
	if err != nil {
		handleError(w, a.logger, "count download", err)
		return
	}
	respondOK(w, map[string]any{"downloads": downloads})
}

// AddComment accepts the comment form (multipart or urlencoded).
func (a *API) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := a.materialID(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil && err != http.ErrNotMultipart {
		respondFailure(w, http.StatusBadRequest, "Invalid form.")
		return
	}
	comment, err := a.store.AddComment(userFrom(r), id, r.FormValue("content"))
	if err != nil {
		handleError(w, a.logger, "add comment", err)
		return
	}
	respondOK(w, map[string]any{"comment": map[string]any{
		"id":         comment.ID,
		"user":       comment.User,
		"content":    comment.Content,
		"created_at": comment.CreatedAt.Format("Jan 2, 2006 15:04"),
	}})
}

type voteRequest struct {
	VoteType string `json:"vote_type"`
}

// Vote casts or switches the visitor's vote on a comment.
func (a *API) Vote(w http.ResponseWriter, r *http.Request) {
	id, ok := a.commentID(w, r)
	if !ok {
		return
	}
	var req voteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondFailure(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	up, down, err := a.store.Vote(userFrom(r), id, req.VoteType)
	if err != nil {
		handleError(w, a.logger, "vote", err)
		return
	}
	respondOK(w, map[string]any{"upvotes": up, "downvotes": down})
}

// Report flags a comment.
func (a *API) Report(w http.ResponseWriter, r *http.Request) {
	id, ok := a.commentID(w, r)
	if !ok {
		return
	}
	if err := a.store.Report(userFrom(r), id); err != nil {
		handleError(w, a.logger, "report comment", err)
		return
	}
	respondOK(w, map[string]any{"message": "Comment reported. Thank you."})
}

// Suggestions answers search-as-you-type lookups.
func (a *API) Suggestions(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	out := []store.Suggestion{}
	if len([]rune(q)) >= a.settings.SuggestionMinLength {
		out = a.store.Suggest(q)
	}
	respondJSON(w, http.StatusOK, map[string]any{"suggestions": out})
}

type bulkRequest struct {
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
}

// BulkAction applies one action to many items.
func (a *API) BulkAction(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondFailure(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if !store.ValidAction(req.Action) {
		handleError(w, a.logger, "bulk action", store.ErrInvalidAction)
		return
	}
	refs := make([]store.ItemRef, 0, len(req.IDs))
	for _, raw := range req.IDs {
		ref, err := store.ParseItemRef(raw)
		if err != nil {
			handleError(w, a.logger, "bulk action", err)
			return
		}
		refs = append(refs, ref)
	}
	processed, err := a.store.ApplyAll(refs, req.Action)
	if err != nil {
		handleError(w, a.logger, "bulk action", err)
		return
	}
	ModerationActions.WithLabelValues(req.Action).Add(float64(processed))
	if a.logger != nil {
		a.logger.Printf("admin %s: %s %d item(s)", userFrom(r), req.Action, processed)
	}
	respondOK(w, map[string]any{
		"processed": processed,
		"message":   strings.ToUpper(req.Action[:1]) + req.Action[1:] + " applied to " + strconv.Itoa(processed) + " item(s).",
	})
}

// QuickAction applies one action to one item.
func (a *API) QuickAction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "id"))
	if !ok {
		respondFailure(w, http.StatusNotFound, "Not found.")
		return
	}
	ref, err := store.ParseItemRef(chi.URLParam(r, "type") + ":" + strconv.Itoa(id))
	if err != nil {
		handleError(w, a.logger, "quick action", err)
		return
	}
	action := chi.URLParam(r, "action")
	if err := a.store.Apply(ref, action); err != nil {
		handleError(w, a.logger, "quick action", err)
		return
	}
	ModerationActions.WithLabelValues(action).Inc()
	respondOK(w, nil)
}
