// Package api exposes plugin installation over HTTP.
//
// Routes:
//
//	POST /plugins/install   resolve and install plugins
//	POST /plugins/resolve   dry run returning the install set and order
//	GET  /metrics           Prometheus metrics
//	GET  /healthz           liveness
//
// Errors are rendered as {"error": {"code": ..., "message": ..., "details": ...}}
// after the exposure policy of errors.Expose has been applied. Details carry
// the cycle and offending package of a dependency error, or the limit type
// and counts of a resource limit error.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/liquid-labs/plugable-express-sub000/pkg/buildinfo"
	"github.com/liquid-labs/plugable-express-sub000/pkg/errors"
	"github.com/liquid-labs/plugable-express-sub000/pkg/install"
	"github.com/liquid-labs/plugable-express-sub000/pkg/pkgspec"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server serves the HTTP API.
type Server struct {
	Service *install.Service

	// Gatherer backs /metrics. Nil uses prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Reload, if set, is passed as the reload hook of every install.
	Reload func(ctx context.Context) error

	// DefaultPluginPkgDir is used when a request leaves pluginPkgDir empty.
	DefaultPluginPkgDir string

	// DevPaths apply to every install request.
	DevPaths map[string]string

	Logger *log.Logger
}

// Handler returns the chi router for s.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metricsHandler())
	r.Route("/plugins", func(r chi.Router) {
		r.Post("/install", s.handleInstall)
		r.Post("/resolve", s.handleResolve)
	})
	return r
}

func (s *Server) metricsHandler() http.Handler {
	g := s.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	var req install.Request
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.PluginPkgDir == "" {
		req.PluginPkgDir = s.DefaultPluginPkgDir
	}
	if req.DevPaths == nil {
		req.DevPaths = s.DevPaths
	}
	req.ReloadFunc = s.Reload
	logger := s.logger().With("request", middleware.GetReqID(r.Context()))
	req.Reporter = install.ReporterFunc(func(msg string) { logger.Debug(msg) })

	resp, err := s.Service.InstallPlugins(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolveRequest is the body of POST /plugins/resolve.
type resolveRequest struct {
	InstalledPlugins       []install.InstalledPlugin `json:"installedPlugins"`
	NpmNames               []string                  `json:"npmNames"`
	NoImplicitInstallation bool                      `json:"noImplicitInstallation"`
}

type resolveResponse struct {
	RunID    string     `json:"runId"`
	Packages []string   `json:"packages"`
	Order    []string   `json:"order"`
	Waves    [][]string `json:"waves"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.NpmNames) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "no plugin packages requested"))
		return
	}
	requested, err := pkgspec.ParseAll(req.NpmNames)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	installed := make(map[string]bool, len(req.InstalledPlugins))
	for _, p := range req.InstalledPlugins {
		installed[p.Name] = true
	}

	resolver := *s.Service.Resolver
	resolver.Options.NoImplicitInstallation = req.NoImplicitInstallation
	res, err := resolver.Resolve(r.Context(), requested, installed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	waves, err := res.Graph.Batches()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{
		RunID:    res.RunID,
		Packages: pkgspec.Strings(res.Packages),
		Order:    res.Order,
		Waves:    waves,
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return &errors.ResourceLimitError{LimitType: "request body size", Current: int(tooLarge.Limit) + 1, Maximum: int(tooLarge.Limit)}
		}
		if stderrors.Is(err, io.EOF) {
			return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

type errorBody struct {
	Error struct {
		Code    errors.Code     `json:"code"`
		Message string          `json:"message"`
		Details *errors.Details `json:"details,omitempty"`
	} `json:"error"`
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeValidation, errors.ErrCodeParsing:
		return http.StatusBadRequest
	case errors.ErrCodeDependency:
		return http.StatusConflict
	case errors.ErrCodeResourceLimit:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := errors.Expose(err)
	status := StatusFor(code)
	logger := s.logger().With("request", middleware.GetReqID(r.Context()), "code", code)
	if status >= http.StatusInternalServerError || code == errors.ErrCodeAccess {
		logger.Error("request failed", "error", err)
	} else {
		logger.Info("request rejected", "error", err)
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = msg
	body.Error.Details = errors.ExposedDetails(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger().Debug("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request", middleware.GetReqID(r.Context()))
	})
}

var discard = log.New(io.Discard)

func (s *Server) logger() *log.Logger {
	if s.Logger == nil {
		return discard
	}
	return s.Logger
}
