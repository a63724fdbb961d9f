// Package api serves the pipeline over HTTP.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jimezsa/hackcli/internal/metrics"
	"github.com/jimezsa/hackcli/internal/models"
	"github.com/jimezsa/hackcli/internal/pipeline"
	"github.com/rs/zerolog"
)

const (
	welcomeMessage  = "Welcome to the Hackathon Crawler API!"
	notFoundMessage = "No hackathons found or unable to fetch data."

	DefaultTokenHeader = "X-Access-Token"
)

// Runner runs one pipeline pass.
type Runner interface {
	Run(ctx context.Context) pipeline.Result
}

type Options struct {
	AccessToken string
	TokenHeader string
	Metrics     *metrics.Metrics
	Logger      zerolog.Logger
}

type Server struct {
	runner  Runner
	opts    Options
	mux     *http.ServeMux
	handler http.Handler
}

func New(runner Runner, opts Options) *Server {
	if opts.TokenHeader == "" {
		opts.TokenHeader = DefaultTokenHeader
	}
	s := &Server{runner: runner, opts: opts, mux: http.NewServeMux()}
	s.routes()
	s.handler = s.logRequests(s.recoverPanics(s.requireToken(s.mux)))
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /hackathons", s.handleHackathons)
	s.mux.Handle("GET /metrics", s.opts.Metrics.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type hackathonsResponse struct {
	Hackathons []models.Hackathon `json:"hackathons"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleHackathons answers 404 both when nothing new passed the filters and
// when upstream could not be reached. A client disconnect does not cut the
// run short.
func (s *Server) handleHackathons(w http.ResponseWriter, r *http.Request) {
	result := s.runner.Run(context.WithoutCancel(r.Context()))
	if len(result.Accepted) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": notFoundMessage})
		return
	}
	writeJSON(w, http.StatusOK, hackathonsResponse{Hackathons: result.Accepted})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Listen serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info().Str("addr", addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.opts.Logger.Info().Msg("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func tokenMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
