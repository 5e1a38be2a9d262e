package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Rmx21/knowledgeKeeper/pkg/config"
	"github.com/Rmx21/knowledgeKeeper/pkg/handlers"
)

// Service wraps the HTTP surface of the orchestrator
type Service struct {
	config  *config.Config
	logger  *logrus.Logger
	handler *handlers.Handler
	server  *http.Server
}

func NewService(cfg *config.Config, logger *logrus.Logger, handler *handlers.Handler) *Service {
	return &Service{
		config:  cfg,
		logger:  logger,
		handler: handler,
	}
}

func (s *Service) Start() error {
	s.server = s.createHTTPServer()

	go func() {
		s.logger.WithField("port", s.config.Port).Info("Starting HTTP server")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.WithError(err).Error("Failed to shutdown HTTP server gracefully")
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Service) createHTTPServer() *http.Server {
	router := mux.NewRouter()

	router.HandleFunc("/interviews", s.handler.StartInterview).Methods("POST")
	router.HandleFunc("/interviews/current", s.handler.CurrentSession).Methods("GET")
	router.HandleFunc("/health", s.handler.Health).Methods("GET")
	router.HandleFunc("/status", s.handler.Status).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
