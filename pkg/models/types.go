package models

import "time"

// SessionStatus tracks one interview attempt through its lifecycle
type SessionStatus string

const (
	StatusIdle       SessionStatus = "idle"
	StatusInitiating SessionStatus = "initiating"
	StatusActive     SessionStatus = "active"
	StatusFinalizing SessionStatus = "finalizing"
	StatusCompleted  SessionStatus = "completed"
	StatusFailed     SessionStatus = "failed"
)

// InterviewSession is the single live interview record. It is created on
// session start, mutated only by the controller and the delivery loop, and
// reset to idle on finalize.
type InterviewSession struct {
	SessionID      string        `json:"session_id"`
	ContactID      string        `json:"contact_id"`
	UserID         string        `json:"user_id"`
	PhoneNumber    string        `json:"phone_number"`
	Language       string        `json:"language"`
	Status         SessionStatus `json:"status"`
	Questions      []string      `json:"questions"`
	DeliveredCount int           `json:"delivered_count"`
	StartedAt      time.Time     `json:"started_at"`
}

// JobStatus is the lifecycle of one asynchronous transcription job
type JobStatus string

const (
	JobSubmitted JobStatus = "submitted"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobTimedOut  JobStatus = "timed_out"
)

// TranscriptionJob represents one async speech-to-text task. Temporary
// storage artifacts tied to it are deleted on every terminal status.
type TranscriptionJob struct {
	JobID          string    `json:"job_id"`
	SourceAudioRef string    `json:"source_audio_ref"`
	Status         JobStatus `json:"status"`
	ResultText     string    `json:"result_text"`
}

// Speaker attribution for a transcript turn
type Speaker string

const (
	SpeakerSystem Speaker = "system"
	SpeakerUser   Speaker = "user"
)

// TranscriptTurn is one line of the raw transcript with its inferred speaker.
// Ordering is significant once derived.
type TranscriptTurn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"content"`
}

// QAPair pairs a delivered question with the caller's transcribed answer
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Sequence int    `json:"sequence"`
}

// FlowResult summarizes one run of the question delivery loop
type FlowResult struct {
	Success        bool    `json:"success"`
	Completed      bool    `json:"completed"`
	TimedOut       bool    `json:"timed_out"`
	QuestionsSent  int     `json:"questions_sent"`
	TotalQuestions int     `json:"total_questions"`
	ElapsedMinutes float64 `json:"elapsed_minutes"`
	HangupSent     bool    `json:"hangup_sent"`
	Message        string  `json:"message"`
}

// TranscriptResult is the terminal outcome of the transcription pipeline.
// Transcript carries a sentinel string on failure or timeout.
type TranscriptResult struct {
	Transcript     string `json:"transcript"`
	AudioRef       string `json:"audio_s3_url"`
	Bucket         string `json:"s3_bucket"`
	Key            string `json:"s3_key"`
	ReportLocation string `json:"report_location,omitempty"`
}

// KnowledgeFiles holds the locations of the two persisted documents
type KnowledgeFiles struct {
	JSONFile string `json:"json_file"`
	MDFile   string `json:"md_file"`
}

// InterviewResult is the consolidated outcome returned by the controller
type InterviewResult struct {
	Success        bool            `json:"success"`
	UserID         string          `json:"user_id"`
	ContactID      string          `json:"contact_id,omitempty"`
	QuestionsAsked int             `json:"questions_asked"`
	QuestionsSent  int             `json:"questions_sent"`
	Transcript     string          `json:"transcript,omitempty"`
	ReportLocation string          `json:"report_location,omitempty"`
	KnowledgeFiles *KnowledgeFiles `json:"knowledge_files,omitempty"`
	Message        string          `json:"message"`
}
