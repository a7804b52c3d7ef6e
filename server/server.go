// Package server exposes the scan pipeline over HTTP: token-based
// authentication, fire-and-forget scan submission, scan status polling, and
// an aggregated dashboard endpoint. Scan state lives in memory for the
// process lifetime.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config carries the server's listen address and rate limit settings.
type Config struct {
	Addr string
	// RequestsPerSecond caps the sustained request rate across all
	// clients; Burst allows short spikes. Zero disables limiting.
	RequestsPerSecond float64
	Burst             int
}

// Server wires the router, auth service, and scan manager together.
type Server struct {
	cfg     Config
	router  *mux.Router
	manager *Manager
	auth    *AuthService
	limiter *rate.Limiter
	log     *zap.SugaredLogger

	httpServer *http.Server
}

// New builds a Server with its routes registered.
func New(cfg Config, manager *Manager, auth *AuthService, log *zap.SugaredLogger) *Server {
	s := &Server{
		cfg:     cfg,
		router:  mux.NewRouter(),
		manager: manager,
		auth:    auth,
		log:     log,
	}
	if cfg.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}
	s.setupRoutes()
	return s
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.Use(s.rateLimitMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/token", s.handleToken).Methods("POST")

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/scans", s.auth.Middleware(s.handleStartScan)).Methods("POST")
	api.HandleFunc("/scans", s.auth.Middleware(s.handleListScans)).Methods("GET")
	api.HandleFunc("/scans/{id}", s.auth.Middleware(s.handleGetScan)).Methods("GET")
	api.HandleFunc("/dashboard/stats", s.auth.Middleware(s.handleDashboard)).Methods("GET")
}

// rateLimitMiddleware rejects requests beyond the configured rate with 429.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// tokenRequest is the login payload.
type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if !s.auth.Authenticate(req.Username, req.Password) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect username or password"})
		return
	}

	token, err := s.auth.IssueToken(req.Username)
	if err != nil {
		s.log.Errorw("issuing token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "token generation failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.RepositoryURL == "" && req.LocalPath == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "repository_url is required"})
		return
	}

	job := s.manager.StartScan(req, usernameFrom(r.Context()))
	writeJSON(w, http.StatusAccepted, map[string]string{
		"scan_id": job.ID,
		"status":  "scan_started",
	})
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, ok := s.manager.Job(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "scan not found"})
		return
	}
	if job.RequestedBy != usernameFrom(r.Context()) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "scan not found"})
		return
	}

	body := map[string]any{"status": job.Status}
	if job.Error != "" {
		body["error"] = job.Error
	}
	if job.Status == StatusCompleted {
		if results, ok := s.manager.Report(id); ok {
			body["results"] = results
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	jobs := s.manager.Jobs(usernameFrom(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{"scans": jobs})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Dashboard(usernameFrom(r.Context())))
}

// Run serves until the context is cancelled, then shuts down gracefully
// with a 10 second drain window.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("server listening", "addr", s.cfg.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := s.httpServer.Shutdown(shutdownCtx)
		s.manager.CancelAll()
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
