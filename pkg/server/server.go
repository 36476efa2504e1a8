// Package server exposes the search pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ember-nexus/nexus-search/pkg/graph"
	"github.com/ember-nexus/nexus-search/pkg/logger"
	httpmiddleware "github.com/ember-nexus/nexus-search/pkg/middleware/http"
	"github.com/ember-nexus/nexus-search/pkg/middleware/logging"
	"github.com/ember-nexus/nexus-search/pkg/search"
	serverErrors "github.com/ember-nexus/nexus-search/pkg/server/errors"
	"github.com/ember-nexus/nexus-search/pkg/storage"
	"github.com/ember-nexus/nexus-search/pkg/telemetry"
)

const (
	SearchPath  = "/search"
	HealthzPath = "/healthz"

	DefaultMaxRequestBodyBytes = 1 << 20
)

var tracer = otel.Tracer("pkg/server")

// A Server runs search pipelines on behalf of HTTP clients.
type Server struct {
	logger    logger.Logger
	pipeline  *search.Pipeline
	graph     graph.Reader
	datastore storage.ElementDatastore
	config    *Config
}

type Dependencies struct {
	Registry  *search.Registry
	Graph     graph.Reader
	Datastore storage.ElementDatastore
	Logger    logger.Logger
}

type Config struct {
	// Environment is one of dev, test and prod. Internal error details are only
	// returned to clients outside of prod.
	Environment         string
	AllowDangerousSteps bool
	MaxRequestBodyBytes int64
}

// New creates a new Server running pipelines over the steps of the registry.
func New(dependencies *Dependencies, config *Config) *Server {
	l := dependencies.Logger
	if l == nil {
		l = logger.NewNoopLogger()
	}
	if config.MaxRequestBodyBytes <= 0 {
		config.MaxRequestBodyBytes = DefaultMaxRequestBodyBytes
	}

	return &Server{
		logger: l,
		pipeline: search.NewPipeline(dependencies.Registry,
			search.WithLogger(l),
			search.WithDangerousStepsAllowed(config.AllowDangerousSteps),
		),
		graph:     dependencies.Graph,
		datastore: dependencies.Datastore,
		config:    config,
	}
}

// Search runs req and translates failures into status errors.
func (s *Server) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	ctx, span := tracer.Start(ctx, "Search", trace.WithAttributes(
		attribute.Int("steps", len(req.Steps)),
		attribute.Bool("debug", req.Debug),
	))
	defer span.End()

	resp, err := s.pipeline.Execute(ctx, req)
	if err != nil {
		telemetry.TraceError(span, err)

		var contractErr *search.ContractError
		if errors.As(err, &contractErr) {
			s.logger.ErrorWithContext(ctx, "search backend broke its contract",
				zap.String("message", contractErr.Message),
				zap.Any("details", contractErr.Details),
			)
		}

		return nil, serverErrors.HandleError(err, s.config.Environment)
	}

	return resp, nil
}

// IsReady reports whether the graph backend is reachable and the element
// datastore accepts traffic.
func (s *Server) IsReady(ctx context.Context) (bool, error) {
	if err := s.graph.VerifyConnectivity(ctx); err != nil {
		s.logger.WarnWithContext(ctx, "graph backend is not reachable", zap.Error(err))
		return false, nil
	}

	status, err := s.datastore.IsReady(ctx)
	if err != nil {
		return false, err
	}

	if !status.IsReady {
		if status.Message != "" {
			s.logger.WarnWithContext(ctx, status.Message)
		}
		return false, nil
	}

	return true, nil
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+SearchPath, s.handleSearch)
	mux.HandleFunc("GET "+HealthzPath, s.handleHealthz)
	return mux
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := search.ParseRequest(http.MaxBytesReader(w, r.Body, s.config.MaxRequestBodyBytes))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	resp, err := s.Search(ctx, req)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	if err := httpmiddleware.WriteJSON(w, http.StatusOK, resp); err != nil {
		s.logger.ErrorWithContext(ctx, "failed to encode search response", zap.Error(err))
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ready, err := s.IsReady(r.Context())
	if err != nil || !ready {
		if err == nil {
			err = fmt.Errorf("server is not ready")
		}
		logging.SetError(r.Context(), err)
		_ = httpmiddleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "NOT_SERVING"})
		return
	}

	_ = httpmiddleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "SERVING"})
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		err = serverErrors.RequestBodyTooLarge(maxBytesErr.Limit)
	case errors.Is(err, search.ErrMalformedBody):
		err = serverErrors.MalformedBody
	default:
		err = serverErrors.HandleError(err, s.config.Environment)
	}

	logging.SetError(ctx, err)
	httpmiddleware.CustomHTTPErrorHandler(w, serverErrors.EncodeError(err))
}
