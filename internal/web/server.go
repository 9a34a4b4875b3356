// Package web serves the copy operations over HTTP so other front ends can
// send their tree snapshot and trigger copies on this machine.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"copypath/internal/clipboard"
	"copypath/internal/copier"
	"copypath/internal/focus"
	"copypath/internal/logging"
	"copypath/internal/model"
	"copypath/internal/plugin"
	"copypath/internal/tree"
)

//go:embed static/*
var staticFS embed.FS

// Config holds configuration for the web server.
type Config struct {
	Roots      *copier.Roots
	Sink       clipboard.Sink
	Port       int
	ShowHidden bool
}

// Server exposes the copy triggers as a JSON API.
type Server struct {
	roots      *copier.Roots
	sink       clipboard.Sink
	active     *focus.ActiveTracker
	port       int
	showHidden bool
	logger     zerolog.Logger

	copyMu sync.Mutex // Copies run one at a time
}

// NewServer creates a server instance.
func NewServer(cfg Config) *Server {
	return &Server{
		roots:      cfg.Roots,
		sink:       cfg.Sink,
		active:     &focus.ActiveTracker{},
		port:       cfg.Port,
		showHidden: cfg.ShowHidden,
		logger:     logging.GetLogger("web"),
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		requestLogger(s.logger),
		middleware.Recoverer,
	)

	subFS, _ := fs.Sub(staticFS, "static")
	r.Handle("/*", http.FileServer(http.FS(subFS)))

	r.Route("/api", func(r chi.Router) {
		r.Get("/root", s.handleRoot)
		r.Get("/roots", s.handleRoots)
		r.Put("/roots/current", s.handleSelectRoot)
		r.Get("/tree", s.handleTree)
		r.Put("/active", s.handleSetActive)
		r.Delete("/active", s.handleClearActive)
		r.Post("/copy", s.handleCopy)
		r.Post("/copy-root", s.handleCopyRoot)
		r.Get("/commands", s.handleCommands)
		r.Post("/commands/{id}", s.handleRunCommand)
	})
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info().Str("addr", fmt.Sprintf("http://localhost:%d", s.port)).Msg("starting web server")

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug().Msg("shutting down web server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// messages collects notifier output for one request.
type messages struct {
	mu   sync.Mutex
	list []string
}

func (m *messages) Notify(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = append(m.list, msg)
}

func (m *messages) all() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.list...)
}

// session wires a copier and the plugin commands for a single request.
// Nothing carries over between requests except the active root and file.
func (s *Server) session() (*focus.Dispatcher, *plugin.Registry, *messages) {
	notes := &messages{}
	d := focus.NewDispatcher(copier.New(s.roots, s.sink, notes), s.active)
	registry := plugin.NewRegistry(notes.Notify, func(root string) {
		s.logger.Info().Str("root", root).Msg("root switched")
	})
	if err := registry.Load(plugin.NewCopyPath(d, s.roots)); err != nil {
		s.logger.Error().Err(err).Msg("plugin failed to load")
	}
	return d, registry, notes
}

type copyRequest struct {
	Target *model.TreeNode `json:"target,omitempty"`
	focus.Snapshot
}

type copyResponse struct {
	State    string       `json:"state"`
	Path     string       `json:"path,omitempty"`
	Text     string       `json:"text,omitempty"`
	Reason   model.Reason `json:"reason,omitempty"`
	Messages []string     `json:"messages,omitempty"`
}

func newCopyResponse(res model.CopyResult, notes *messages) copyResponse {
	return copyResponse{
		State:    res.State.String(),
		Path:     res.Path,
		Text:     res.Text,
		Reason:   res.Reason,
		Messages: notes.all(),
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	root, ok := s.roots.RootPath()
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]string{
			"root":   s.roots.Current(),
			"reason": string(model.ReasonUnsupportedRoot),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"root": root})
}

func (s *Server) handleRoots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"current": s.roots.Current(),
		"roots":   s.roots.All(),
	})
}

func (s *Server) handleSelectRoot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Root string `json:"root"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if !s.roots.Select(req.Root) {
		http.Error(w, "root is not configured", http.StatusNotFound)
		return
	}
	s.active.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"current": s.roots.Current()})
}

// handleTree lists the current root. Each expand parameter opens one
// folder, in order, so nested folders need their parents listed first.
// cursor and hover name rows by path and set the focus flags the way the
// terminal UI does, so the result can be posted back to /api/copy.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	root, ok := s.roots.RootPath()
	if !ok {
		http.Error(w, "root is not a local directory", http.StatusConflict)
		return
	}

	t := tree.New(root, s.showHidden)
	if err := t.Load(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	for _, p := range r.URL.Query()["expand"] {
		n := t.Row(t.IndexOf(p))
		if n == nil {
			http.Error(w, fmt.Sprintf("no visible folder %q", p), http.StatusNotFound)
			return
		}
		if err := t.Expand(n); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	cursor, hover := -1, -1
	q := r.URL.Query()
	if q.Has("cursor") {
		if cursor = t.IndexOf(q.Get("cursor")); cursor < 0 {
			http.Error(w, fmt.Sprintf("no visible row %q", q.Get("cursor")), http.StatusNotFound)
			return
		}
	}
	if q.Has("hover") {
		hover = t.IndexOf(q.Get("hover"))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"root":  root,
		"nodes": tree.Snapshot(t.Rows(), cursor, hover),
	})
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var node model.TreeNode
	if err := json.NewDecoder(r.Body).Decode(&node); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if !node.IsFile() || node.Path == "" {
		http.Error(w, "active item must be a file", http.StatusBadRequest)
		return
	}
	if leavesRoot(node.Path) {
		http.Error(w, "path must stay inside the root", http.StatusBadRequest)
		return
	}
	s.active.Set(model.TreeNode{Kind: node.Kind, Path: node.Path})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearActive(w http.ResponseWriter, r *http.Request) {
	s.active.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// handleCopy copies an explicit target, or resolves the focused item from
// the posted snapshot when no target is given.
func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	var req copyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Target != nil && leavesRoot(req.Target.Path) {
		http.Error(w, "target path must stay inside the root", http.StatusBadRequest)
		return
	}

	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	d, _, notes := s.session()
	var res model.CopyResult
	if req.Target != nil {
		res = d.Explicit(r.Context(), *req.Target)
	} else {
		res = d.Shortcut(r.Context(), req.Snapshot)
	}
	writeJSON(w, http.StatusOK, newCopyResponse(res, notes))
}

func (s *Server) handleCopyRoot(w http.ResponseWriter, r *http.Request) {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	d, _, notes := s.session()
	res := d.Root(r.Context())
	writeJSON(w, http.StatusOK, newCopyResponse(res, notes))
}

type commandInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Key  string `json:"key,omitempty"`
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	_, registry, _ := s.session()
	var out []commandInfo
	for _, c := range registry.Commands() {
		out = append(out, commandInfo{ID: c.ID, Name: c.Name, Key: c.Key})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleRunCommand runs a palette command. The body is an optional snapshot.
func (s *Server) handleRunCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var state focus.Snapshot
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
	}

	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	_, registry, notes := s.session()
	res, err := registry.Run(r.Context(), id, state)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newCopyResponse(res, notes))
}

// leavesRoot reports whether a root-relative path has a ".." segment.
func leavesRoot(rel string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// requestLogger logs each request at debug level.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
