// Package hub assembles the Learning Hub page behaviour: it owns the shared
// collaborators, builds every feature controller and routes page events to
// them through a single delegator.
package hub

import (
	"context"
	"sync"

	"learning-hub/internal/client/admin"
	"learning-hub/internal/client/api"
	"learning-hub/internal/client/comments"
	"learning-hub/internal/client/dom"
	"learning-hub/internal/client/materials"
	"learning-hub/internal/client/page"
	"learning-hub/internal/client/responsive"
	"learning-hub/internal/client/schedule"
	"learning-hub/internal/client/search"
	"learning-hub/internal/client/settings"
	"learning-hub/internal/client/toast"
	"learning-hub/internal/client/tooltip"
	"learning-hub/internal/client/upload"
	"learning-hub/internal/client/util"
	"learning-hub/internal/logging"
)

// Options configures a Session.
type Options struct {
	Doc      dom.Document
	Win      dom.Window
	API      *api.Client
	Clock    schedule.Clock
	Settings settings.Settings
	Logger   logging.Logger
	// BindTooltip attaches the tooltip widget to one element.
	BindTooltip tooltip.Binder
	// ObserveImages registers lazy images with a visibility observer. When nil
	// visible images are revealed directly.
	ObserveImages func(imgs []dom.Element)
}

// Session is the state of one loaded page.
type Session struct {
	env       page.Env
	opts      Options
	delegator *dom.Delegator
	startOnce sync.Once

	Toasts     *toast.Toaster
	Uploads    *upload.Controller
	Materials  *materials.Controller
	Comments   *comments.Controller
	Search     *search.Controller
	Admin      *admin.Controller
	Responsive *responsive.Controller
}

// New builds a Session and registers every delegated route.
func New(opts Options) *Session {
	opts.Settings = opts.Settings.Normalize()
	if opts.Clock == nil {
		opts.Clock = schedule.System{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.New()
	}
	if opts.API == nil {
		opts.API = &api.Client{}
	}
	if opts.API.Logger == nil {
		opts.API.Logger = logging.WithPrefix(opts.Logger, "api: ")
	}

	s := &Session{opts: opts, delegator: dom.NewDelegator()}
	if opts.API.Token == nil {
		opts.API.Token = s.CSRFToken
	}
	s.Toasts = toast.New(opts.Doc, opts.Clock, opts.Settings.ToastDuration())
	s.env = page.Env{
		Doc:      opts.Doc,
		Win:      opts.Win,
		API:      opts.API,
		Toasts:   s.Toasts,
		Clock:    opts.Clock,
		Settings: opts.Settings,
		Logger:   opts.Logger,
	}

	s.Uploads = upload.New(s.env)
	s.Materials = materials.New(s.env)
	s.Comments = comments.New(s.env)
	s.Search = search.New(s.env)
	s.Admin = admin.New(s.env)
	s.Responsive = responsive.New(s.env)
	s.Responsive.Injected = s.Injected

	s.delegator.On(s.Toasts.Route())
	for _, routes := range [][]dom.Route{
		s.Uploads.Routes(),
		s.Materials.Routes(),
		s.Comments.Routes(),
		s.Search.Routes(),
		s.Admin.Routes(),
		s.Responsive.Routes(),
	} {
		for _, r := range routes {
			s.delegator.On(r)
		}
	}
	return s
}

// Settings returns the effective client settings.
func (s *Session) Settings() settings.Settings {
	return s.opts.Settings
}

// CSRFToken reads the anti-forgery token from the page cookies.
func (s *Session) CSRFToken() string {
	if s.opts.Doc == nil {
		return ""
	}
	token, _ := util.CookieValue(s.opts.Doc.Cookie(), s.opts.Settings.CSRFCookie)
	return token
}

// Start runs the one-time page initialisation. Later calls do nothing.
func (s *Session) Start() {
	s.startOnce.Do(func() {
		body := s.opts.Doc.Body()
		s.InitTooltips(body)
		s.InitFileUploads(body)
		s.Admin.Init()
		s.observe(body)
		s.opts.Logger.Printf("page ready (%d event types)", len(s.delegator.Events()))
	})
}

// Events lists the event types the page listener must be attached for.
func (s *Session) Events() []string {
	return s.delegator.Events()
}

// Resolve finds the handler for ev without running it.
func (s *Session) Resolve(ev *dom.Event) (dom.Invocation, bool) {
	return s.delegator.Resolve(ev)
}

// Dispatch runs the handler for ev, reporting whether one matched.
func (s *Session) Dispatch(ctx context.Context, ev *dom.Event) bool {
	return s.delegator.Dispatch(ctx, ev)
}

// Scroll gives the infinite-scroll controller a chance to load the next page.
func (s *Session) Scroll(ctx context.Context) bool {
	return s.Responsive.Scroll(ctx)
}

// Injected prepares content inserted under root after the page loaded.
func (s *Session) Injected(root dom.Element) {
	s.InitTooltips(root)
	s.InitFileUploads(root)
	s.observe(root)
}

// InitTooltips binds tooltips under root.
func (s *Session) InitTooltips(root dom.Element) int {
	return tooltip.Init(root, s.opts.BindTooltip)
}

// InitFileUploads prepares the file inputs under root.
func (s *Session) InitFileUploads(root dom.Element) int {
	return s.Uploads.Init(root)
}

// ShowToast displays a notification.
func (s *Session) ShowToast(message string, kind toast.Kind) {
	s.Toasts.Show(message, kind)
}

func (s *Session) observe(root dom.Element) {
	imgs := responsive.LazyImages(root)
	if len(imgs) == 0 {
		return
	}
	if s.opts.ObserveImages != nil {
		s.opts.ObserveImages(imgs)
		return
	}
	if s.opts.Win != nil {
		s.Responsive.RevealVisible(root)
	}
}
