package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/Rmx21/knowledgeKeeper/pkg/config"
	"github.com/Rmx21/knowledgeKeeper/pkg/handlers"
	"github.com/Rmx21/knowledgeKeeper/pkg/interview"
	"github.com/Rmx21/knowledgeKeeper/pkg/metrics"
)

var testMetrics = metrics.NewMetrics()

func newTestService() *Service {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	cfg := &config.Config{Port: "0", InstanceID: "test-instance"}
	registry := interview.NewRegistry(nil, logger, testMetrics)
	handler := handlers.NewHandler(nil, registry, nil, cfg, logger)
	return NewService(cfg, logger, handler)
}

func TestRoutes(t *testing.T) {
	s := newTestService()
	router := s.createHTTPServer().Handler

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/status", http.StatusOK},
		{http.MethodGet, "/interviews/current", http.StatusNotFound},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/interviews", http.StatusBadRequest}, // empty body
		{http.MethodGet, "/interviews", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestTimeoutsConfigured(t *testing.T) {
	s := newTestService()
	srv := s.createHTTPServer()
	assert.Equal(t, ":0", srv.Addr)
	assert.NotZero(t, srv.ReadTimeout)
	assert.NotZero(t, srv.WriteTimeout)
	assert.NotZero(t, srv.IdleTimeout)
}
