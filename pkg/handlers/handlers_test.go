package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rmx21/knowledgeKeeper/pkg/config"
	"github.com/Rmx21/knowledgeKeeper/pkg/constants"
	"github.com/Rmx21/knowledgeKeeper/pkg/interview"
	"github.com/Rmx21/knowledgeKeeper/pkg/knowledge"
	"github.com/Rmx21/knowledgeKeeper/pkg/metrics"
	"github.com/Rmx21/knowledgeKeeper/pkg/models"
	"github.com/Rmx21/knowledgeKeeper/pkg/telephony"
)

var testMetrics = metrics.NewMetrics()

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// stubGateway fails call placement immediately so the detached interview
// goroutine terminates without touching anything else
type stubGateway struct{}

func (stubGateway) PlaceCall(ctx context.Context, phoneNumber, interviewContext, openingPrompt string) (string, error) {
	return "", errors.New("telephony unavailable")
}
func (stubGateway) ReadAttributes(ctx context.Context, contactID string) map[string]string {
	return map[string]string{}
}
func (stubGateway) WriteAttribute(ctx context.Context, contactID, key, value string) bool {
	return false
}
func (stubGateway) QueryStatus(ctx context.Context, contactID string) telephony.ContactStatus {
	return telephony.ContactStatus{}
}
func (stubGateway) Terminate(ctx context.Context, contactID string) bool { return false }
func (stubGateway) RecordingLocation(ctx context.Context) (string, string, error) {
	return "", "", errors.New("telephony unavailable")
}

type stubPipeline struct{}

func (stubPipeline) FetchAndTranscribe(ctx context.Context, contactID string) (models.TranscriptResult, error) {
	return models.TranscriptResult{}, errors.New("no recording")
}
func (stubPipeline) UploadReport(ctx context.Context, bucket, recordingKey, contactID string, report interface{}) (string, error) {
	return "", errors.New("no recording")
}

type stubPersister struct{}

func (stubPersister) SaveDocuments(userID string, record knowledge.Record) (models.KnowledgeFiles, error) {
	return models.KnowledgeFiles{}, nil
}

func newTestHandler() (*Handler, *interview.Registry) {
	cfg := &config.Config{
		MaxQuestions:           constants.DefaultMaxQuestions,
		DeliveryCeilingMinutes: 1,
		DeliveryPollSeconds:    1,
		Language:               constants.DefaultLanguage,
		InstanceID:             "test-instance",
	}
	registry := interview.NewRegistry(nil, testLogger(), testMetrics)
	gateway := stubGateway{}
	delivery := interview.NewDelivery(gateway, cfg, testLogger(), testMetrics)
	controller := interview.NewController(gateway, delivery, stubPipeline{}, stubPersister{}, registry, cfg, testLogger(), testMetrics)
	return NewHandler(controller, registry, nil, cfg, testLogger()), registry
}

func postInterview(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/interviews", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.StartInterview(w, req)
	return w
}

func TestStartInterview_InvalidBody(t *testing.T) {
	h, _ := newTestHandler()
	w := postInterview(h, "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartInterview_MissingRequiredFields(t *testing.T) {
	h, _ := newTestHandler()

	w := postInterview(h, `{"phone_number": "+5215512345678"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postInterview(h, `{"user_id": "Rmx21"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartInterview_NeedsQuestionsOrAnalysis(t *testing.T) {
	h, _ := newTestHandler()
	w := postInterview(h, `{"user_id": "Rmx21", "phone_number": "+5215512345678"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "questions or analysis")
}

func TestStartInterview_AnalysisWithNoQuestions(t *testing.T) {
	h, _ := newTestHandler()
	w := postInterview(h, `{"user_id": "Rmx21", "phone_number": "+5215512345678", "analysis": "solo notas sin preguntas"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no questions")
}

func TestStartInterview_ConflictWhileSessionLive(t *testing.T) {
	h, registry := newTestHandler()

	handle, err := registry.Begin(context.Background(), "other", "+5215500000000", "es", []string{"q"})
	require.NoError(t, err)
	defer registry.Finish(context.Background(), handle)

	w := postInterview(h, `{"user_id": "Rmx21", "phone_number": "+5215512345678", "questions": ["¿Pregunta?"]}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStartInterview_AcceptsLiteralQuestions(t *testing.T) {
	h, _ := newTestHandler()

	w := postInterview(h, `{"user_id": "Rmx21", "phone_number": "+5215512345678", "questions": ["q1", "q2"]}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "accepted", body["status"])
	assert.Equal(t, "Rmx21", body["user_id"])
	assert.Equal(t, float64(2), body["questions"])
}

func TestStartInterview_ExtractsFromAnalysis(t *testing.T) {
	h, _ := newTestHandler()

	w := postInterview(h, `{"user_id": "Rmx21", "phone_number": "+5215512345678", "analysis": "¿Cómo decidieron la arquitectura del servicio?"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["questions"])
}

func TestCurrentSession(t *testing.T) {
	h, registry := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/interviews/current", nil)
	w := httptest.NewRecorder()
	h.CurrentSession(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	handle, err := registry.Begin(context.Background(), "Rmx21", "+5215512345678", "es", []string{"q1"})
	require.NoError(t, err)
	defer registry.Finish(context.Background(), handle)

	w = httptest.NewRecorder()
	h.CurrentSession(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var session models.InterviewSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.Equal(t, "Rmx21", session.UserID)
	assert.Equal(t, models.StatusInitiating, session.Status)
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler()
	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestStatus(t *testing.T) {
	h, registry := newTestHandler()

	w := httptest.NewRecorder()
	h.Status(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "test-instance", body["instance_id"])
	assert.Equal(t, false, body["session_active"])

	handle, err := registry.Begin(context.Background(), "Rmx21", "+521", "es", []string{"q"})
	require.NoError(t, err)
	defer registry.Finish(context.Background(), handle)

	w = httptest.NewRecorder()
	h.Status(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	var body2 map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body2))
	assert.Equal(t, true, body2["session_active"])

	// no lock configured, so no owner is reported
	_, ok := body2["lock_owner"]
	assert.False(t, ok)
}

type stubOwner struct {
	owner string
	err   error
}

func (s stubOwner) Owner(ctx context.Context) (string, error) {
	return s.owner, s.err
}

func TestStatus_ReportsLockOwner(t *testing.T) {
	_, registry := newTestHandler()
	cfg := &config.Config{InstanceID: "test-instance"}

	h := NewHandler(nil, registry, stubOwner{owner: "session-xyz"}, cfg, testLogger())
	w := httptest.NewRecorder()
	h.Status(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "session-xyz", body["lock_owner"])

	// a lock read failure degrades to the plain status payload
	h = NewHandler(nil, registry, stubOwner{err: errors.New("redis unreachable")}, cfg, testLogger())
	w = httptest.NewRecorder()
	h.Status(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	var degraded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &degraded))
	_, ok := degraded["lock_owner"]
	assert.False(t, ok)
	assert.Equal(t, "test-instance", degraded["instance_id"])
}
