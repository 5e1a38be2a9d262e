package interview

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rmx21/knowledgeKeeper/pkg/config"
	"github.com/Rmx21/knowledgeKeeper/pkg/constants"
	"github.com/Rmx21/knowledgeKeeper/pkg/knowledge"
	"github.com/Rmx21/knowledgeKeeper/pkg/models"
	"github.com/Rmx21/knowledgeKeeper/pkg/telephony"
)

type fakePipeline struct {
	result    models.TranscriptResult
	err       error
	calls     int
	reportErr error
	uploads   int
}

func (p *fakePipeline) FetchAndTranscribe(ctx context.Context, contactID string) (models.TranscriptResult, error) {
	p.calls++
	return p.result, p.err
}

func (p *fakePipeline) UploadReport(ctx context.Context, bucket, recordingKey, contactID string, report interface{}) (string, error) {
	p.uploads++
	if p.reportErr != nil {
		return "", p.reportErr
	}
	return "s3://" + bucket + "/reports/" + contactID + "_report.json", nil
}

type fakePersister struct {
	err   error
	saved []knowledge.Record
}

func (p *fakePersister) SaveDocuments(userID string, record knowledge.Record) (models.KnowledgeFiles, error) {
	p.saved = append(p.saved, record)
	if p.err != nil {
		return models.KnowledgeFiles{}, p.err
	}
	return models.KnowledgeFiles{
		JSONFile: "/out/20250314-1000-" + userID + ".json",
		MDFile:   "/out/20250314-1000-" + userID + "-summary.md",
	}, nil
}

type controllerFixture struct {
	gateway   *fakeGateway
	pipeline  *fakePipeline
	persister *fakePersister
	registry  *Registry
	clock     *fakeClock
	ctrl      *Controller
}

func newControllerFixture(gateway *fakeGateway, cfg *config.Config) *controllerFixture {
	clock := newFakeClock()
	pipeline := &fakePipeline{result: models.TranscriptResult{
		Transcript: "Hola?\nBien\n¿Qué proyecto lideraste?\nEl proyecto X",
		Bucket:     "recordings-bucket",
		Key:        "connect/recordings/contact-123.wav",
	}}
	persister := &fakePersister{}
	registry := NewRegistry(nil, testLogger(), testMetrics)

	delivery := NewDelivery(gateway, cfg, testLogger(), testMetrics)
	delivery.now = clock.Now
	delivery.sleep = clock.Sleep

	ctrl := NewController(gateway, delivery, pipeline, persister, registry, cfg, testLogger(), testMetrics)
	ctrl.now = clock.Now
	ctrl.sleep = clock.Sleep

	return &controllerFixture{
		gateway:   gateway,
		pipeline:  pipeline,
		persister: persister,
		registry:  registry,
		clock:     clock,
		ctrl:      ctrl,
	}
}

func TestConductInterview_HappyPath(t *testing.T) {
	gateway := newFakeGateway(2)
	f := newControllerFixture(gateway, testConfig())

	result := f.ctrl.ConductInterview(context.Background(), "Rmx21", "+5215512345678", []string{"q1", "q2", "q3"})

	assert.True(t, result.Success)
	assert.Equal(t, "Entrevista completada exitosamente para Rmx21", result.Message)
	assert.Equal(t, 3, result.QuestionsAsked)
	assert.Equal(t, 2, result.QuestionsSent)
	assert.Equal(t, "contact-123", result.ContactID)
	require.NotNil(t, result.KnowledgeFiles)
	assert.Contains(t, result.KnowledgeFiles.JSONFile, "Rmx21")
	assert.NotEmpty(t, result.ReportLocation)
	assert.Equal(t, 1, f.pipeline.calls)

	// registry slot was freed on the way out
	_, live := f.registry.Current()
	assert.False(t, live)
}

func TestConductInterview_OpeningPromptCarriesFirstQuestion(t *testing.T) {
	gateway := newFakeGateway(1)
	f := newControllerFixture(gateway, testConfig())

	f.ctrl.ConductInterview(context.Background(), "Rmx21", "+5215512345678", []string{"q1", "q2"})

	prompts := gateway.promptWrites()
	require.NotEmpty(t, prompts)
	assert.Equal(t, constants.OpeningGreeting+" q1", prompts[0])
	assert.Equal(t, "q2", prompts[1])
}

func TestConductInterview_PlacementFailureIsTerminal(t *testing.T) {
	gateway := newFakeGateway(0)
	gateway.placeErr = errors.New("connect throttled")
	f := newControllerFixture(gateway, testConfig())

	result := f.ctrl.ConductInterview(context.Background(), "Rmx21", "+5215512345678", []string{"q1"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Error iniciando llamada")
	assert.Contains(t, result.Message, "connect throttled")
	// no call means no recording to chase
	assert.Equal(t, 0, f.pipeline.calls)
	assert.Empty(t, f.persister.saved)

	_, live := f.registry.Current()
	assert.False(t, live)
}

func TestConductInterview_DeliveryTimeoutFailsButPersists(t *testing.T) {
	gateway := newFakeGateway(0) // caller never acknowledges
	cfg := testConfig()
	cfg.DeliveryCeilingMinutes = 1
	f := newControllerFixture(gateway, cfg)

	result := f.ctrl.ConductInterview(context.Background(), "Rmx21", "+5215512345678", []string{"q1", "q2", "q3"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Tiempo máximo alcanzado")
	// the controller, not the loop, hangs up after a timeout
	assert.Equal(t, 1, gateway.terminated)
	// transcript and documents still happen
	assert.Equal(t, 1, f.pipeline.calls)
	require.Len(t, f.persister.saved, 1)
	require.NotNil(t, result.KnowledgeFiles)
}

func TestConductInterview_FinalizeFailureStillProcessesTranscript(t *testing.T) {
	gateway := newFakeGateway(0)
	gateway.terminateFail = true
	cfg := testConfig()
	cfg.DeliveryCeilingMinutes = 1
	f := newControllerFixture(gateway, cfg)

	result := f.ctrl.ConductInterview(context.Background(), "Rmx21", "+5215512345678", []string{"q1", "q2"})

	assert.False(t, result.Success)
	assert.Equal(t, "Error finalizando llamada", result.Message)
	assert.Equal(t, 1, f.pipeline.calls)
	assert.Len(t, f.persister.saved, 1)
}

func TestConductInterview_TranscriptFailureFallsBackToSentinel(t *testing.T) {
	gateway := newFakeGateway(1)
	f := newControllerFixture(gateway, testConfig())
	f.pipeline.err = errors.New("no recording listed")
	f.pipeline.result = models.TranscriptResult{}

	result := f.ctrl.ConductInterview(context.Background(), "Rmx21", "+5215512345678", []string{"q1", "q2"})

	// documents are still written, with the sentinel transcript
	assert.True(t, result.Success)
	assert.Equal(t, constants.RecordingNotFound, result.Transcript)
	assert.Empty(t, result.ReportLocation)
	assert.Equal(t, 0, f.pipeline.uploads)
	require.Len(t, f.persister.saved, 1)
}

func TestConductInterview_PersistenceFailureFailsInterview(t *testing.T) {
	gateway := newFakeGateway(1)
	f := newControllerFixture(gateway, testConfig())
	f.persister.err = errors.New("disk full")

	result := f.ctrl.ConductInterview(context.Background(), "Rmx21", "+5215512345678", []string{"q1", "q2"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Error guardando documentos")
	assert.Nil(t, result.KnowledgeFiles)
}

func TestConductInterview_ReportUploadFailureIsNotFatal(t *testing.T) {
	gateway := newFakeGateway(1)
	f := newControllerFixture(gateway, testConfig())
	f.pipeline.reportErr = errors.New("access denied")

	result := f.ctrl.ConductInterview(context.Background(), "Rmx21", "+5215512345678", []string{"q1", "q2"})

	assert.True(t, result.Success)
	assert.Empty(t, result.ReportLocation)
	require.NotNil(t, result.KnowledgeFiles)
}

func TestConductInterview_QuestionCapTruncates(t *testing.T) {
	gateway := newFakeGateway(5)
	f := newControllerFixture(gateway, testConfig())

	questions := []string{"q1", "q2", "q3", "q4", "q5", "q6"}
	result := f.ctrl.ConductInterview(context.Background(), "Rmx21", "+5215512345678", questions)

	assert.Equal(t, constants.DefaultMaxQuestions, result.QuestionsAsked)
	// opening prompt + 3 gated questions + farewell
	prompts := gateway.promptWrites()
	require.Len(t, prompts, 5)
	assert.Equal(t, "q4", prompts[3])
	assert.Equal(t, constants.FarewellMessage, prompts[4])
	assert.NotContains(t, prompts, "q5")
}

func TestConductInterview_NoQuestions(t *testing.T) {
	gateway := newFakeGateway(0)
	f := newControllerFixture(gateway, testConfig())

	result := f.ctrl.ConductInterview(context.Background(), "Rmx21", "+5215512345678", nil)

	assert.False(t, result.Success)
	assert.Equal(t, "No se pudieron obtener preguntas para la entrevista", result.Message)
	assert.Equal(t, 0, f.pipeline.calls)
}

func TestConductInterview_UnconfirmedCallSkipsDelivery(t *testing.T) {
	gateway := newFakeGateway(3)
	gateway.active = false // never confirms
	f := newControllerFixture(gateway, testConfig())

	result := f.ctrl.ConductInterview(context.Background(), "Rmx21", "+5215512345678", []string{"q1", "q2"})

	// establish check plus exactly one re-check
	assert.Equal(t, 2, gateway.statusChecks)
	assert.Equal(t, 0, result.QuestionsSent)
	// only the opening prompt went out
	assert.Len(t, gateway.promptWrites(), 1)
	// controller still hangs up and still saves documents
	assert.Equal(t, 1, gateway.terminated)
	assert.Len(t, f.persister.saved, 1)
}

func TestConductInterview_SecondSessionRefused(t *testing.T) {
	gateway := newFakeGateway(0)
	f := newControllerFixture(gateway, testConfig())

	// occupy the slot directly
	_, err := f.registry.Begin(context.Background(), "other", "+5215500000000", "es", []string{"q"})
	require.NoError(t, err)

	result := f.ctrl.ConductInterview(context.Background(), "Rmx21", "+5215512345678", []string{"q1"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "already in progress")
	assert.Equal(t, 0, f.pipeline.calls)
}

var _ telephony.Gateway = (*fakeGateway)(nil)
