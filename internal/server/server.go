// Package server provides the HTTP server for the yuletide scene.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/yuletide/internal/app"
	"github.com/ayusman/yuletide/internal/plugin"
	"github.com/ayusman/yuletide/internal/server/api"
	"github.com/ayusman/yuletide/internal/store"
)

// ShutdownTimeout bounds how long Run waits for open requests on shutdown.
const ShutdownTimeout = 5 * time.Second

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App

	// Frames feeds the MJPEG preview. It defaults to App when App is set.
	Frames FrameSource
}

// Server represents the HTTP server for the yuletide application.
type Server struct {
	config Config
	mux    *http.ServeMux
	events *EventHub
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Frames == nil && config.App != nil {
		config.Frames = config.App
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	var plugins *plugin.Manager
	if s.config.App != nil {
		plugins = s.config.App.PluginManager()

		var settings *store.SettingRepository
		if s.config.Store != nil {
			settings = s.config.Store.Settings()
		}
		sceneHandler := api.NewSceneHandler(s.config.App, settings)
		s.mux.Handle("/api/scene", sceneHandler)
		s.mux.Handle("/api/scene/", sceneHandler)

		s.mux.Handle("/api/plugins", api.NewPluginHandler(plugins))

		s.events = NewEventHub()
		s.events.Attach(s.config.App)
		s.mux.Handle("/api/events", s.events)
	}

	if s.config.Store != nil {
		bindingHandler := api.NewBindingHandler(s.config.Store, plugins)
		s.mux.Handle("/api/bindings", bindingHandler)
		s.mux.Handle("/api/bindings/", bindingHandler)

		s.mux.Handle("/api/transitions", api.NewTransitionHandler(s.config.Store))
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.App != nil {
		response["gesture"] = s.config.App.Status()
		response["state"] = s.config.App.Controller().State()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Events returns the WebSocket hub, or nil when no App is configured.
func (s *Server) Events() *EventHub {
	return s.events
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.events != nil {
		s.events.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
