package constants

import "time"

// Contact attribute keys shared with the Connect contact flow.
// The flow reads PromptAttribute to decide what to say next and writes
// AckAttribute when the caller presses a key.
const (
	PromptAttribute    = "NovaPrompt"
	AckAttribute       = "userResponse"
	ContextAttribute   = "InterviewContext"
	SessionIDAttribute = "NovaSessionId"
	QuestionCountAttr  = "QuestionCount"
	InterviewStepAttr  = "InterviewStep"
)

// AckSentinel is the value the contact flow writes into AckAttribute on a
// DTMF keypress. The delivery loop treats any non-empty value as an ack;
// clearing writes the empty string.
const AckSentinel = "1"

// Default interview flow configuration
const (
	// DefaultMaxQuestions - questions beyond this cap are dropped, not queued
	DefaultMaxQuestions = 4

	// DefaultDeliveryCeilingMinutes - wall-clock budget for the question loop
	DefaultDeliveryCeilingMinutes = 10

	// DefaultDeliveryPollSeconds - fixed sleep between attribute polls
	DefaultDeliveryPollSeconds = 2

	// DefaultEstablishGraceSeconds - wait before the first status check
	DefaultEstablishGraceSeconds = 15

	// DefaultEstablishRecheckSeconds - wait before the single status re-check
	DefaultEstablishRecheckSeconds = 10

	// DefaultFarewellGraceSeconds - time the flow gets to play the farewell
	// before the contact is stopped
	DefaultFarewellGraceSeconds = 8
)

// Default transcription pipeline configuration
const (
	// DefaultRecordingWaitMinutes - ceiling for the recording to appear in S3
	DefaultRecordingWaitMinutes = 3

	// DefaultTranscribeWaitSeconds - ceiling for the transcription job
	DefaultTranscribeWaitSeconds = 300

	// RecordingPollSeconds / TranscribePollSeconds - fixed poll intervals
	RecordingPollSeconds  = 10
	TranscribePollSeconds = 10

	// TempTranscribePrefix - S3 prefix for the temporary transcription input
	TempTranscribePrefix = "temp-transcribe/"

	// RecordingExtension - object suffix that identifies a call recording
	RecordingExtension = ".wav"
)

// Prompt texts pushed through PromptAttribute
const (
	OpeningGreeting = "Hola, soy el asistente de IA de Dacodes para recopilar información de tus proyectos. " +
		"La llamada será grabada para poder almacenar el conocimiento que nos transmitas. " +
		"¿Es un buen momento para iniciar?"

	FarewellMessage = "Excelente, hemos terminado con todas las preguntas. " +
		"Muchas gracias por tu tiempo y por compartir tu conocimiento con nosotros. " +
		"¡Que tengas un excelente día!"
)

// Sentinel strings substituted for the transcript on pipeline failure.
// Downstream extraction degrades gracefully on these instead of aborting.
const (
	TranscriptFailed  = "Falló la transcripción"
	TranscriptTimeout = "Timeout en transcripción"
	RecordingNotFound = "No se encontró la grabación de la llamada"

	// NoAnswerSentinel fills QA pairs that have no matching caller turn
	NoAnswerSentinel = "No respondió"
)

// DefaultLanguage is the interview language (Transcribe uses the regional code)
const (
	DefaultLanguage        = "es"
	TranscribeLanguageCode = "es-ES"
)

// Redis key for the cross-process active-session lock
const (
	SessionLockKey = "interview:active_session"

	// DefaultSessionLockTTLMinutes bounds how long a crashed orchestrator
	// can hold the lock
	DefaultSessionLockTTLMinutes = 30

	// DefaultSessionRefreshMinutes is the heartbeat interval that extends
	// the lock TTL while an interview is still running. Must be well under
	// the TTL so a slow transcription never lets the claim lapse.
	DefaultSessionRefreshMinutes = 10
)

// Configuration environment variable names
const (
	EnvMaxQuestions        = "MAX_QUESTIONS"
	EnvDeliveryCeiling     = "DELIVERY_CEILING_MINUTES"
	EnvDeliveryPollSeconds = "DELIVERY_POLL_SECONDS"
	EnvRecordingWait       = "RECORDING_WAIT_MINUTES"
	EnvTranscribeWait      = "TRANSCRIBE_WAIT_SECONDS"
	EnvOutputDir           = "KNOWLEDGE_OUTPUT_DIR"
)

// Helper functions for time conversions
func SecondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

func MinutesToDuration(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}
