// Package server exposes reports and history over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/harrisonrobin/freetime/pkg/analysis"
	"github.com/harrisonrobin/freetime/pkg/history"
	"github.com/harrisonrobin/freetime/pkg/log"
	"github.com/harrisonrobin/freetime/pkg/runner"
	"github.com/harrisonrobin/freetime/pkg/util"
)

// OptionsFunc builds analysis options for an inclusive date range.
type OptionsFunc func(from, to time.Time) (analysis.Options, error)

type Server struct {
	runner  *runner.Runner
	store   *history.Store
	options OptionsFunc
	loc     *time.Location
	now     func() time.Time
}

func New(r *runner.Runner, store *history.Store, options OptionsFunc, loc *time.Location) *Server {
	return &Server{runner: r, store: store, options: options, loc: loc, now: time.Now}
}

// Router returns the HTTP routes.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, fmt.Errorf("no route for %s", r.URL.Path))
	})

	router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	router.HandleFunc("/api/report", s.report).Methods(http.MethodGet)
	router.HandleFunc("/api/report/latest", s.latest).Methods(http.MethodGet)
	router.HandleFunc("/api/history", s.listHistory).Methods(http.MethodGet)
	router.HandleFunc("/api/history/{id}", s.getHistory).Methods(http.MethodGet)
	return router
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// report runs a fresh analysis. Without dates it covers the previous work
// week; from alone covers that day; save=true stores the result.
func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := s.dateRange(q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	opts, err := s.options(from, to)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	save, _ := strconv.ParseBool(q.Get("save"))

	res, err := s.runner.Run(r.Context(), opts, save)
	if err != nil {
		var cfgErr *analysis.ConfigurationError
		if errors.As(err, &cfgErr) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		log.Error("analysis failed", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	if res.RunID != "" {
		w.Header().Set("X-Run-ID", res.RunID)
	}
	writeJSON(w, http.StatusOK, res.Report)
}

func (s *Server) dateRange(fromParam, toParam string) (time.Time, time.Time, error) {
	if fromParam == "" && toParam == "" {
		from, to := util.PreviousWorkWeek(s.now().In(s.loc))
		return from, to, nil
	}
	if fromParam == "" {
		return time.Time{}, time.Time{}, errors.New("to requires from")
	}
	from, err := util.ParseDate(fromParam, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if toParam == "" {
		return from, from, nil
	}
	to, err := util.ParseDate(toParam, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func (s *Server) latest(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, history.ErrNotFound)
		return
	}
	run, err := s.store.Latest(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []history.Run{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	runs, err := s.store.List(r.Context(), limit, offset)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, history.ErrNotFound)
		return
	}
	run, err := s.store.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	log.Error("history query failed", err)
	writeError(w, http.StatusInternalServerError, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("encode response", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
