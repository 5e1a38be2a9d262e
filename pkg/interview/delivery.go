package interview

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Rmx21/knowledgeKeeper/pkg/config"
	"github.com/Rmx21/knowledgeKeeper/pkg/constants"
	"github.com/Rmx21/knowledgeKeeper/pkg/metrics"
	"github.com/Rmx21/knowledgeKeeper/pkg/models"
	"github.com/Rmx21/knowledgeKeeper/pkg/telephony"
)

// Delivery runs the acknowledgement-gated question loop for one session.
// Question #1 is delivered as part of the opening prompt, so the cursor
// starts past it; every further question waits for the flow to flip the
// ack attribute.
type Delivery struct {
	gateway telephony.Gateway
	config  *config.Config
	logger  *logrus.Logger
	metrics *metrics.Metrics

	now   func() time.Time
	sleep func(time.Duration)
}

func NewDelivery(gateway telephony.Gateway, cfg *config.Config, logger *logrus.Logger, m *metrics.Metrics) *Delivery {
	return &Delivery{
		gateway: gateway,
		config:  cfg,
		logger:  logger,
		metrics: m,
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// Run polls the contact attributes until the queue is exhausted or the
// wall-clock ceiling expires. A failed attribute read is "no ack yet", not
// an error; a failed write is retried on the next tick because the ack
// stays set. The ceiling is checked per tick, so the loop can overshoot by
// at most one poll interval. On exhaustion the farewell is delivered once
// and the contact is stopped here; on ceiling expiry the contact is left
// for the controller to terminate.
func (d *Delivery) Run(ctx context.Context, handle *Handle) models.FlowResult {
	session := handle.Snapshot()
	questions := session.Questions
	contactID := session.ContactID

	result := models.FlowResult{TotalQuestions: len(questions)}
	if len(questions) == 0 {
		result.Message = "No hay preguntas para enviar"
		return result
	}

	cursor := session.DeliveredCount
	if cursor < 1 {
		cursor = 1
	}

	ceiling := d.config.DeliveryCeiling()
	interval := d.config.DeliveryPollInterval()
	start := d.now()

	d.logger.WithFields(logrus.Fields{
		"contact_id":      contactID,
		"total_questions": len(questions),
		"ceiling":         ceiling,
	}).Info("Starting question delivery loop")

	for cursor < len(questions) && d.now().Sub(start) < ceiling {
		if ctx.Err() != nil {
			break
		}
		d.metrics.DeliveryPollTicks.Inc()

		attrs := d.gateway.ReadAttributes(ctx, contactID)
		if len(attrs) == 0 {
			d.metrics.AttributeReadFailures.Inc()
		}

		if attrs[constants.AckAttribute] != "" {
			question := questions[cursor]
			if d.gateway.WriteAttribute(ctx, contactID, constants.PromptAttribute, question) {
				cursor++
				result.QuestionsSent++
				handle.SetDelivered(cursor)
				d.metrics.QuestionsDelivered.Inc()
				d.logger.WithFields(logrus.Fields{
					"contact_id": contactID,
					"question":   cursor,
					"of":         len(questions),
				}).Info("Question delivered")

				if cursor >= len(questions) {
					result.HangupSent = d.farewellAndHangup(ctx, contactID)
					break
				}

				// clear the ack so a stale read cannot re-trigger
				if !d.gateway.WriteAttribute(ctx, contactID, constants.AckAttribute, "") {
					d.logger.WithField("contact_id", contactID).Warn("Failed to clear ack attribute")
				}
			} else {
				d.logger.WithField("contact_id", contactID).Warn("Failed to deliver question, will retry next tick")
			}
		}

		d.sleep(interval)
	}

	elapsed := d.now().Sub(start)
	d.metrics.DeliveryDuration.Observe(elapsed.Seconds())
	result.ElapsedMinutes = math.Round(elapsed.Minutes()*100) / 100

	switch {
	case cursor >= len(questions):
		result.Completed = true
		result.Success = true
		result.Message = fmt.Sprintf("Entrevista completada. Todas las preguntas enviadas (%d) y llamada terminada con despedida", result.QuestionsSent)
	case elapsed >= ceiling:
		result.TimedOut = true
		result.Message = fmt.Sprintf("Tiempo máximo alcanzado. Enviadas %d de %d preguntas", result.QuestionsSent, len(questions))
	default:
		result.Success = result.QuestionsSent > 0
		result.Message = fmt.Sprintf("Flujo terminado. Enviadas %d de %d preguntas", result.QuestionsSent, len(questions))
	}

	d.logger.WithFields(logrus.Fields{
		"contact_id":     contactID,
		"questions_sent": result.QuestionsSent,
		"completed":      result.Completed,
		"timed_out":      result.TimedOut,
	}).Info(result.Message)

	return result
}

// farewellAndHangup pushes the farewell prompt, gives the flow time to play
// it and stops the contact. Called exactly once, after the last question.
func (d *Delivery) farewellAndHangup(ctx context.Context, contactID string) bool {
	if !d.gateway.WriteAttribute(ctx, contactID, constants.PromptAttribute, constants.FarewellMessage) {
		d.logger.WithField("contact_id", contactID).Warn("Failed to deliver farewell message")
		return false
	}
	d.sleep(constants.SecondsToDuration(constants.DefaultFarewellGraceSeconds))
	if !d.gateway.Terminate(ctx, contactID) {
		d.logger.WithField("contact_id", contactID).Warn("Failed to stop contact after farewell")
		return false
	}
	return true
}
