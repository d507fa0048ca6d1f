// Package httpapi serves http tasks over HTTP GET.
//
//	GET /task?<id>&k=v   run the http task with the given ID or route
//	GET /<route>?k=v     run the http task served at route
//	GET /status          the runner's status, as JSON
//	GET /metrics         Prometheus metrics
//
// Query parameters are passed to the task as Call.Params. A plain run
// responds "OK" as soon as the task has started; a result task responds
// with its result, or "Timeout" if it doesn't finish in time.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amonks/taskopy/internal/allowlist"
	"github.com/amonks/taskopy/internal/metrics"
	"github.com/amonks/taskopy/runner"
	"github.com/amonks/taskopy/tasks"
)

// DefaultResultTimeout bounds how long a result task is waited for.
const DefaultResultTimeout = 10 * time.Second

// A Dispatcher runs tasks. It's satisfied by *runner.Runner.
type Dispatcher interface {
	Route(name string) (runner.HTTPRoute, bool)
	Run(id string, call tasks.Call) (*runner.Execution, error)
	Status() runner.Status
}

type Options struct {
	// WhiteList restricts every route to these IPs or CIDRs, on top of
	// each task's own white list. Empty allows everyone.
	WhiteList allowlist.List

	ResultTimeout time.Duration
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

type Server struct {
	dispatcher Dispatcher
	allow      allowlist.Atomic
	timeout    time.Duration
	metrics    *metrics.Metrics
	logger     *slog.Logger
	mux        *http.ServeMux
}

func New(d Dispatcher, opts Options) *Server {
	s := &Server{
		dispatcher: d,
		timeout:    opts.ResultTimeout,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		mux:        http.NewServeMux(),
	}
	if s.timeout <= 0 {
		s.timeout = DefaultResultTimeout
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.allow.Store(opts.WhiteList)

	s.mux.HandleFunc("GET /task", s.handleTask)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("GET /{route...}", s.handleRoute)
	return s
}

// SetWhiteList replaces the global white list.
func (s *Server) SetWhiteList(l allowlist.List) { s.allow.Store(l) }

func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !s.allow.Load().AllowsHost(req.RemoteAddr) {
		s.logger.Warn("http client not allowed", "remote", req.RemoteAddr, "path", req.URL.Path)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	s.mux.ServeHTTP(w, req)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.timeout + 10*time.Second,
	}

	errs := make(chan error, 1)
	go func() { errs <- srv.ListenAndServe() }()
	s.logger.Info("http listening", "addr", addr)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// handleTask serves /task?<id>&k=v. The task is named by the first query
// field that has no value.
func (s *Server) handleTask(w http.ResponseWriter, req *http.Request) {
	name, params := parseTaskQuery(req.URL.RawQuery)
	if name == "" {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}
	s.serve(w, req, name, params)
}

func (s *Server) handleRoute(w http.ResponseWriter, req *http.Request) {
	params := map[string]string{}
	for k, vs := range req.URL.Query() {
		params[k] = vs[0]
	}
	s.serve(w, req, req.PathValue("route"), params)
}

func (s *Server) serve(w http.ResponseWriter, req *http.Request, name string, params map[string]string) {
	route, ok := s.dispatcher.Route(name)
	if !ok {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}
	if !route.Allow.AllowsHost(req.RemoteAddr) {
		s.logger.Warn("http client not allowed", "remote", req.RemoteAddr, "task", route.ID)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	e, err := s.dispatcher.Run(route.ID, tasks.Call{Caller: tasks.CallerHTTP, Params: params})
	switch {
	case errors.Is(err, runner.ErrNotFound):
		http.Error(w, "task not found", http.StatusNotFound)
		return
	case errors.Is(err, runner.ErrDisabled), errors.Is(err, runner.ErrClosed):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	if !route.Result {
		writeText(w, http.StatusOK, "OK")
		return
	}

	ctx, cancel := context.WithTimeout(req.Context(), s.timeout)
	defer cancel()
	result, err := e.Wait(ctx)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		writeText(w, http.StatusGatewayTimeout, "Timeout")
	case errors.Is(err, context.Canceled) && req.Context().Err() != nil:
		// The client went away.
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		writeText(w, http.StatusOK, result)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.dispatcher.Status()); err != nil {
		s.logger.Error("encoding status", "error", err)
	}
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	w.Write([]byte(body))
}

// parseTaskQuery splits "name&k=v&k2=v2" into the name and the params. It
// preserves field order, which url.ParseQuery does not.
func parseTaskQuery(raw string) (name string, params map[string]string) {
	params = map[string]string{}
	for _, field := range strings.Split(raw, "&") {
		if field == "" {
			continue
		}
		k, v, hasValue := strings.Cut(field, "=")
		k, err := url.QueryUnescape(k)
		if err != nil {
			continue
		}
		if !hasValue {
			if name == "" {
				name = k
			} else {
				params[k] = ""
			}
			continue
		}
		if v, err = url.QueryUnescape(v); err == nil {
			params[k] = v
		}
	}
	return name, params
}
