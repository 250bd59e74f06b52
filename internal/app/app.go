package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"learning-hub/config"
	apiv1 "learning-hub/internal/api/v1"
	"learning-hub/internal/httpserver"
	"learning-hub/internal/hub/auth"
	"learning-hub/internal/hub/store"
	"learning-hub/internal/logging"
	"learning-hub/internal/ui"
)

const appName = "learning-hub"

// Options controls how the application boots and where it loads configuration from.
type Options struct {
	// ConfigPath is an optional YAML or JSON file layered over the defaults.
	ConfigPath string
	// LogDir and LogFile override the log location from the config file.
	LogDir  string
	LogFile string
	// Ready, when set, receives the server once its listener is bound.
	Ready func(*httpserver.Server)
}

// Run wires dependencies together and blocks until the provided context is cancelled
// or the HTTP server exits with an error.
func Run(ctx context.Context, opts Options) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	cfg.Log = opts.logConfig(cfg.Log)

	logFile, err := configureLogging(filepath.Join(cfg.Log.Dir, cfg.Log.File))
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logFile.Close()
	logger := logging.New()

	hubStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	sessions := buildSessions(cfg.Admin)
	if cfg.Admin.Password == "" {
		logger.Printf("admin password not set; dashboard login disabled")
	}

	router, err := apiv1.NewRouter(apiv1.Options{
		Logger:           logger,
		Store:            hubStore,
		Sessions:         sessions,
		Client:           cfg.Client,
		Static:           ui.Handler(),
		SuggestionLimit:  cfg.RateLimit.Suggestions,
		SuggestionWindow: cfg.RateLimit.Window,
		RuntimeInfo: apiv1.RuntimeInfo{
			Name:        appName,
			Addr:        cfg.Server.Addr,
			Port:        cfg.Server.Port,
			ReadTimeout: cfg.Server.ReadTimeout.String(),
			DataPath:    cfg.Server.DataPath,
		},
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv, err := httpserver.New(httpserver.Config{
		Addr:        cfg.Server.Addr,
		Port:        cfg.Server.Port,
		ReadTimeout: cfg.Server.ReadTimeout,
		Logger:      logger,
		Handler:     router,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	if opts.Ready != nil {
		go func() {
			select {
			case <-srv.Ready():
				opts.Ready(srv)
			case <-ctx.Done():
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Printf("Shutting down...")
		_ = srv.Shutdown(context.Background())
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (o Options) logConfig(cfg config.LogConfig) config.LogConfig {
	if o.LogDir != "" {
		cfg.Dir = o.LogDir
	}
	if o.LogFile != "" {
		cfg.File = o.LogFile
	}
	return cfg
}

// openStore loads the seed catalogue and, when a data path is configured,
// restores or creates the snapshot there.
func openStore(cfg config.Config) (*store.Store, error) {
	var (
		cat store.Catalogue
		err error
	)
	if cfg.Seed.Path != "" {
		cat, err = store.LoadCatalogue(cfg.Seed.Path)
	} else {
		cat, err = store.DefaultCatalogue()
	}
	if err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}
	if cfg.Server.DataPath == "" {
		return store.New(cat), nil
	}
	st, err := store.Open(cfg.Server.DataPath, cat)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func buildSessions(cfg config.AdminConfig) *auth.Manager {
	return auth.NewManager(auth.Config{
		Username:   cfg.Username,
		Password:   cfg.Password,
		SessionTTL: cfg.SessionTTL,
	})
}
