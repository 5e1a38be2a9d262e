package interview

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Rmx21/knowledgeKeeper/pkg/config"
	"github.com/Rmx21/knowledgeKeeper/pkg/constants"
	"github.com/Rmx21/knowledgeKeeper/pkg/knowledge"
	"github.com/Rmx21/knowledgeKeeper/pkg/metrics"
	"github.com/Rmx21/knowledgeKeeper/pkg/models"
	"github.com/Rmx21/knowledgeKeeper/pkg/telephony"
)

// TranscriptFetcher is the transcription pipeline seen from the controller
type TranscriptFetcher interface {
	FetchAndTranscribe(ctx context.Context, contactID string) (models.TranscriptResult, error)
	UploadReport(ctx context.Context, bucket, recordingKey, contactID string, report interface{}) (string, error)
}

// DocumentPersister writes the knowledge record and its summary
type DocumentPersister interface {
	SaveDocuments(userID string, record knowledge.Record) (models.KnowledgeFiles, error)
}

// Controller owns the interview lifecycle: place the call, hand off to the
// delivery loop, terminate, retrieve the transcript and persist the
// knowledge documents. Partial failure in delivery never skips
// finalization; transcript work runs even when finalization fails.
type Controller struct {
	gateway   telephony.Gateway
	delivery  *Delivery
	pipeline  TranscriptFetcher
	persister DocumentPersister
	registry  *Registry
	config    *config.Config
	logger    *logrus.Logger
	metrics   *metrics.Metrics

	now   func() time.Time
	sleep func(time.Duration)
}

func NewController(gateway telephony.Gateway, delivery *Delivery, pipeline TranscriptFetcher, persister DocumentPersister, registry *Registry, cfg *config.Config, logger *logrus.Logger, m *metrics.Metrics) *Controller {
	return &Controller{
		gateway:   gateway,
		delivery:  delivery,
		pipeline:  pipeline,
		persister: persister,
		registry:  registry,
		config:    cfg,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// ConductInterview runs one complete interview for the user. Questions
// beyond the configured cap are dropped, not queued.
func (c *Controller) ConductInterview(ctx context.Context, userID, phoneNumber string, questions []string) models.InterviewResult {
	if len(questions) == 0 {
		return models.InterviewResult{
			Success: false,
			UserID:  userID,
			Message: "No se pudieron obtener preguntas para la entrevista",
		}
	}
	if len(questions) > c.config.MaxQuestions {
		questions = questions[:c.config.MaxQuestions]
	}

	handle, err := c.registry.Begin(ctx, userID, phoneNumber, c.config.Language, questions)
	if err != nil {
		return models.InterviewResult{
			Success: false,
			UserID:  userID,
			Message: err.Error(),
		}
	}
	defer c.registry.Finish(ctx, handle)

	interviewContext := fmt.Sprintf("Entrevista de conocimiento para %s basada en análisis de código", userID)
	openingPrompt := constants.OpeningGreeting + " " + questions[0]

	contactID, err := c.gateway.PlaceCall(ctx, phoneNumber, interviewContext, openingPrompt)
	if err != nil {
		handle.SetStatus(models.StatusFailed)
		return models.InterviewResult{
			Success:        false,
			UserID:         userID,
			QuestionsAsked: len(questions),
			Message:        fmt.Sprintf("Error iniciando llamada: %v", err),
		}
	}
	handle.SetContact(contactID)
	handle.SetDelivered(1) // question #1 rides in the opening prompt

	flow := c.runDeliveryPhase(ctx, handle, contactID, len(questions))

	handle.SetStatus(models.StatusFinalizing)
	finalizeOK := true
	if !flow.HangupSent {
		if !c.gateway.Terminate(ctx, contactID) {
			finalizeOK = false
			c.logger.WithField("contact_id", contactID).Error("Failed to terminate contact during finalize")
		}
	}

	// transcript work always runs, even after a finalize failure
	result := c.processTranscript(ctx, handle, contactID, userID, interviewContext)
	result.QuestionsAsked = len(questions)
	result.QuestionsSent = flow.QuestionsSent
	result.ContactID = contactID

	switch {
	case !finalizeOK:
		result.Success = false
		result.Message = "Error finalizando llamada"
		handle.SetStatus(models.StatusFailed)
	case flow.TimedOut:
		result.Success = false
		result.Message = flow.Message
		handle.SetStatus(models.StatusFailed)
	case !result.Success:
		handle.SetStatus(models.StatusFailed)
	default:
		result.Message = fmt.Sprintf("Entrevista completada exitosamente para %s", userID)
		handle.SetStatus(models.StatusCompleted)
	}

	return result
}

// runDeliveryPhase waits for the call to establish and, once confirmed
// active, hands off to the delivery loop. An unconfirmed call skips the
// loop; finalization still happens.
func (c *Controller) runDeliveryPhase(ctx context.Context, handle *Handle, contactID string, total int) models.FlowResult {
	c.sleep(constants.SecondsToDuration(constants.DefaultEstablishGraceSeconds))

	status := c.gateway.QueryStatus(ctx, contactID)
	if !status.Active {
		c.logger.WithField("contact_id", contactID).Info("Call not active yet, waiting for one re-check")
		c.sleep(constants.SecondsToDuration(constants.DefaultEstablishRecheckSeconds))
		status = c.gateway.QueryStatus(ctx, contactID)
	}

	if !status.Active {
		c.logger.WithField("contact_id", contactID).Warn("Could not confirm call as active, skipping question flow")
		return models.FlowResult{TotalQuestions: total, Message: "No se pudo confirmar la llamada como activa"}
	}

	handle.SetStatus(models.StatusActive)
	return c.delivery.Run(ctx, handle)
}

// processTranscript retrieves the transcript (or its failure sentinel),
// uploads the call report next to the recording and persists the knowledge
// documents. Success here means the documents were written.
func (c *Controller) processTranscript(ctx context.Context, handle *Handle, contactID, userID, interviewContext string) models.InterviewResult {
	result := models.InterviewResult{UserID: userID}

	tr, err := c.pipeline.FetchAndTranscribe(ctx, contactID)
	if err != nil {
		c.logger.WithError(err).WithField("contact_id", contactID).Error("Transcript retrieval failed")
		tr = models.TranscriptResult{Transcript: constants.RecordingNotFound}
	}
	result.Transcript = tr.Transcript

	report := knowledge.BuildCallReport(tr.Transcript, handle.Snapshot(), interviewContext, c.now())

	if tr.Bucket != "" && tr.Key != "" {
		location, err := c.pipeline.UploadReport(ctx, tr.Bucket, tr.Key, contactID, report)
		if err != nil {
			c.logger.WithError(err).Warn("Failed to upload call report")
		} else {
			result.ReportLocation = location
		}
	}

	record := knowledge.BuildRecord(userID, report, nil, c.now())
	files, err := c.persister.SaveDocuments(userID, record)
	if err != nil {
		c.logger.WithError(err).WithField("user_id", userID).Error("Failed to persist knowledge documents")
		result.Success = false
		result.Message = fmt.Sprintf("Error guardando documentos: %v", err)
		return result
	}

	result.KnowledgeFiles = &files
	result.Success = true
	return result
}
