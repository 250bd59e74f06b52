package handlers

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"learning-hub/internal/client/settings"
	"learning-hub/internal/client/util"
	"learning-hub/internal/hub/auth"
	"learning-hub/internal/hub/store"
	"learning-hub/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"home", "materials", "material", "upload", "saved",
	"search", "posts", "post", "admin", "login",
}

type materialType struct {
	Value string
	Label string
}

var materialTypes = []materialType{
	{"note", "Class Note"},
	{"slide", "Presentation Slide"},
	{"assignment", "Assignment"},
	{"book", "Reference Book"},
	{"question", "Previous Question"},
	{"other", "Other"},
}

var templateFuncs = template.FuncMap{
	"bytes":    util.FormatByteSize,
	"fileIcon": util.FileIconFor,
	"rating": func(avg *float64) string {
		if avg == nil {
			return "0.0"
		}
		return fmt.Sprintf("%.1f", *avg)
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
	"stars": func() []int { return []int{1, 2, 3, 4, 5} },
	"dict": func(kv ...any) (map[string]any, error) {
		if len(kv)%2 != 0 {
			return nil, errors.New("dict needs key/value pairs")
		}
		m := make(map[string]any, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			k, ok := kv[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict key %v is not a string", kv[i])
			}
			m[k] = kv[i+1]
		}
		return m, nil
	},
}

// pageData is the view model every template receives.
type pageData struct {
	Title     string
	Session   auth.Session
	CSRFToken string
	Query     string
	Flash     string
	Error     string
	Next      string
	MaxUpload int64

	Types      []materialType
	Subjects   []store.Subject
	Filter     store.ListFilter
	Page       store.Page
	Recent     []store.MaterialView
	Material   store.MaterialView
	Comments   []store.CommentView
	Posts      []store.Post
	Post       store.Post
	Results    store.SearchResults
	Moderation store.Moderation
}

// PageOptions configures the HTML pages.
type PageOptions struct {
	Store    *store.Store
	Sessions *auth.Manager
	Settings settings.Settings
	Logger   logging.Logger
}

// Pages renders the server-side HTML the browser client enhances.
type Pages struct {
	store     *store.Store
	sessions  *auth.Manager
	settings  settings.Settings
	logger    logging.Logger
	templates map[string]*template.Template
}

// NewPages parses the embedded templates.
func NewPages(opts PageOptions) (*Pages, error) {
	base, err := template.New("base.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/base.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	templates := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout: %w", err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		templates[name] = t
	}
	return &Pages{
		store:     opts.Store,
		sessions:  opts.Sessions,
		settings:  opts.Settings.Normalize(),
		logger:    opts.Logger,
		templates: templates,
	}, nil
}

// Routes registers the HTML pages on r.
func (p *Pages) Routes(r chi.Router) {
	r.Get("/", p.Home)
	r.Get("/materials/", p.Materials)
	r.Get("/materials/saved/", p.Saved)
	r.Get("/materials/upload/", p.Upload)
	r.Post("/materials/upload/", p.Upload)
	r.Get("/materials/{id}/", p.Material)
	r.Get("/materials/{id}/file/", p.MaterialFile)
	r.Get("/search/", p.Search)
	r.Get("/posts/", p.Posts)
	r.Get("/posts/{id}/", p.Post)
	r.Get("/dashboard/admin/", p.Admin)
	r.Get("/login/", p.Login)
	r.Post("/login/", p.Login)
	r.Post("/logout/", p.Logout)
}

func (p *Pages) data(r *http.Request, title string) pageData {
	s, _ := SessionFrom(r.Context())
	return pageData{
		Title:     title,
		Session:   s,
		CSRFToken: CSRFToken(r.Context()),
		Query:     r.URL.Query().Get("q"),
		Flash:     r.URL.Query().Get("flash"),
		MaxUpload: p.settings.MaxUploadBytes,
		Types:     materialTypes,
	}
}

func (p *Pages) render(w http.ResponseWriter, status int, name string, data pageData) {
	t, ok := p.templates[name]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base.html", data); err != nil {
		if p.logger != nil {
			p.logger.Printf("render %s: %v", name, err)
		}
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (p *Pages) notFound(w http.ResponseWriter, r *http.Request) {
	http.NotFound(w, r)
}

// Home shows recent materials and posts.
func (p *Pages) Home(w http.ResponseWriter, r *http.Request) {
	d := p.data(r, "Home")
	d.Recent = p.store.Recent(store.PageSize)
	d.Posts = p.store.Posts()
	if len(d.Posts) > 5 {
		d.Posts = d.Posts[:5]
	}
	p.render(w, http.StatusOK, "home", d)
}

// Materials lists approved materials, one page at a time. Infinite scroll
// requests later pages and keeps only #content-container.
func (p *Pages) Materials(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	d := p.data(r, "Materials")
	d.Query = ""
	d.Filter = store.ListFilter{Type: q.Get("type"), Subject: q.Get("subject"), Query: q.Get("q")}
	d.Subjects = p.store.Subjects()
	d.Page = p.store.Materials(d.Filter, page, userFrom(r))
	p.render(w, http.StatusOK, "materials", d)
}

// Material shows one material with its comments.
func (p *Pages) Material(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "id"))
	if !ok {
		p.notFound(w, r)
		return
	}
	user := userFrom(r)
	m, err := p.store.Material(id, user)
	if errors.Is(err, store.ErrNotFound) {
		p.notFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to load material", http.StatusInternalServerError)
		return
	}
	d := p.data(r, m.Title)
	d.Material = m
	d.Comments = p.store.Comments(id, user)
	p.render(w, http.StatusOK, "material", d)
}

// MaterialFile serves a placeholder in place of the uploaded file.
func (p *Pages) MaterialFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "id"))
	if !ok {
		p.notFound(w, r)
		return
	}
	m, err := p.store.Material(id, "")
	if err != nil {
		p.notFound(w, r)
		return
	}
	name := filepath.Base(m.FileName) + ".txt"
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(name, `"`, "")+`"`)
	fmt.Fprintf(w, "%s\n\n%s\n\nOriginal file: %s (%s)\n", m.Title, m.Description, m.FileName, util.FormatByteSize(m.FileSize))
}

// Upload shows the upload form and accepts submissions into the moderation queue.
func (p *Pages) Upload(w http.ResponseWriter, r *http.Request) {
	d := p.data(r, "Upload")
	d.Subjects = p.store.Subjects()
	if r.Method != http.MethodPost {
		p.render(w, http.StatusOK, "upload", d)
		return
	}

	// The body cap comes from LimitBody, installed ahead of CSRF.
	if err := r.ParseMultipartForm(formMemory); err != nil {
		d.Error = "File is too large. Maximum size is " + util.FormatByteSize(p.settings.MaxUploadBytes) + "."
		p.render(w, http.StatusBadRequest, "upload", d)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		d.Error = "Please choose a file to upload."
		p.render(w, http.StatusBadRequest, "upload", d)
		return
	}
	file.Close()
	if header.Size > p.settings.MaxUploadBytes {
		d.Error = "File is too large. Maximum size is " + util.FormatByteSize(p.settings.MaxUploadBytes) + "."
		p.render(w, http.StatusBadRequest, "upload", d)
		return
	}

	_, err = p.store.AddMaterial(userFrom(r), store.NewMaterial{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Type:        r.FormValue("type"),
		Subject:     r.FormValue("subject"),
		Tags:        splitTags(r.FormValue("tags")),
		FileName:    filepath.Base(header.Filename),
		FileSize:    header.Size,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidUpload) || errors.Is(err, store.ErrNotFound) {
			d.Error = "Title, subject and file are required."
			p.render(w, http.StatusBadRequest, "upload", d)
			return
		}
		if p.logger != nil {
			p.logger.Printf("upload material: %v", err)
		}
		http.Error(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/materials/?flash="+url.QueryEscape("Upload received. It will appear once approved."), http.StatusSeeOther)
}

func splitTags(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Saved lists the visitor's saved materials.
func (p *Pages) Saved(w http.ResponseWriter, r *http.Request) {
	d := p.data(r, "Saved materials")
	d.Recent = p.store.SavedMaterials(userFrom(r))
	p.render(w, http.StatusOK, "saved", d)
}

// Search shows full results for q.
func (p *Pages) Search(w http.ResponseWriter, r *http.Request) {
	d := p.data(r, "Search")
	d.Results = p.store.Search(d.Query, userFrom(r))
	p.render(w, http.StatusOK, "search", d)
}

// Posts lists the discussions.
func (p *Pages) Posts(w http.ResponseWriter, r *http.Request) {
	d := p.data(r, "Posts")
	d.Posts = p.store.Posts()
	p.render(w, http.StatusOK, "posts", d)
}

// Post shows one discussion.
func (p *Pages) Post(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(chi.URLParam(r, "id"))
	if !ok {
		p.notFound(w, r)
		return
	}
	post, err := p.store.Post(id)
	if err != nil {
		p.notFound(w, r)
		return
	}
	d := p.data(r, post.Title)
	d.Post = post
	p.render(w, http.StatusOK, "post", d)
}

// Admin shows the moderation queues, redirecting visitors to the login page.
func (p *Pages) Admin(w http.ResponseWriter, r *http.Request) {
	if s, _ := SessionFrom(r.Context()); !s.Admin {
		http.Redirect(w, r, "/login/?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
		return
	}
	d := p.data(r, "Moderation")
	d.Moderation = p.store.Moderation()
	p.render(w, http.StatusOK, "admin", d)
}

// Login shows the administrator form and starts an admin session.
func (p *Pages) Login(w http.ResponseWriter, r *http.Request) {
	d := p.data(r, "Log in")
	d.Next = safeNext(r.FormValue("next"))
	if r.Method != http.MethodPost {
		p.render(w, http.StatusOK, "login", d)
		return
	}
	session, err := p.sessions.Login(r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		d.Error = "Invalid username or password."
		p.render(w, http.StatusUnauthorized, "login", d)
		return
	}
	if old, ok := SessionFrom(r.Context()); ok {
		p.sessions.Logout(old.Token)
	}
	setSessionCookie(w, session)
	if p.logger != nil {
		p.logger.Printf("admin login: %s", session.User)
	}
	http.Redirect(w, r, d.Next, http.StatusSeeOther)
}

// Logout ends the session.
func (p *Pages) Logout(w http.ResponseWriter, r *http.Request) {
	if s, ok := SessionFrom(r.Context()); ok {
		p.sessions.Logout(s.Token)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/dashboard/admin/"
	}
	return next
}
