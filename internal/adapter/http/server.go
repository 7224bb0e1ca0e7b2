package http

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/couchcryptid/rainfall-hindcast-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Predictor is the prediction pipeline as seen by the HTTP layer.
type Predictor interface {
	sharedobs.ReadinessChecker
	Predict(ctx context.Context, obs domain.Observation) (domain.Prediction, error)
	PredictFeatures(ctx context.Context, values domain.FeatureSet) (domain.Prediction, error)
	FeatureOrder() []string
}

// Server exposes the observation form, the prediction API, and the health,
// readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	predictor  Predictor
	logger     *slog.Logger

	// featureImportance is the optional image shown under the form; empty
	// when unconfigured or missing on disk.
	featureImportance string
}

// NewServer creates the HTTP server. featureImportancePath may be empty.
func NewServer(addr string, predictor Predictor, featureImportancePath string, logger *slog.Logger) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		predictor: predictor,
		logger:    logger,
	}
	if featureImportancePath != "" {
		if _, err := os.Stat(featureImportancePath); err != nil {
			logger.Warn("feature importance image unavailable", "path", featureImportancePath, "error", err)
		} else {
			s.featureImportance = featureImportancePath
		}
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/", s.handleSubmit).Methods(http.MethodPost)
	s.router.HandleFunc("/static/feature-importance", s.handleFeatureImportance).Methods(http.MethodGet)

	// Registered on the root router: a subrouter answers a method mismatch with 404.
	s.router.HandleFunc("/api/v1/predict", s.handlePredict).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/features", s.handleFeatures).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", sharedobs.LivenessHandler()).Methods(http.MethodGet)
	s.router.HandleFunc("/readyz", sharedobs.ReadinessHandler(s.predictor)).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleFeatureImportance(w http.ResponseWriter, r *http.Request) {
	if s.featureImportance == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, s.featureImportance)
}
