package knowledge

import (
	"time"

	"github.com/Rmx21/knowledgeKeeper/pkg/models"
)

// CallMetadata describes the telephony session a report belongs to
type CallMetadata struct {
	ContactID        string   `json:"contact_id"`
	Timestamp        string   `json:"timestamp"`
	PhoneNumber      string   `json:"phone_number"`
	InterviewContext string   `json:"interview_context"`
	QuestionsAsked   []string `json:"questions_asked"`
	Language         string   `json:"language"`
}

// CallReport is the structured record uploaded next to the recording
type CallReport struct {
	CallMetadata  CallMetadata `json:"call_metadata"`
	Transcription struct {
		Interactions []models.TranscriptTurn `json:"interactions"`
	} `json:"transcription"`
}

// BuildCallReport parses the raw transcript into speaker turns and wraps
// them with the session metadata.
func BuildCallReport(transcript string, session models.InterviewSession, interviewContext string, now time.Time) CallReport {
	report := CallReport{
		CallMetadata: CallMetadata{
			ContactID:        session.ContactID,
			Timestamp:        now.Format(time.RFC3339),
			PhoneNumber:      session.PhoneNumber,
			InterviewContext: interviewContext,
			QuestionsAsked:   session.Questions,
			Language:         session.Language,
		},
	}
	report.Transcription.Interactions = ParseTranscript(transcript)
	return report
}

// UserProfile identifies the interviewed user
type UserProfile struct {
	UserID        string `json:"user_id"`
	InterviewDate string `json:"interview_date"`
	PhoneNumber   string `json:"phone_number"`
	Language      string `json:"language"`
}

// SessionDetails summarizes the interaction volume of one session
type SessionDetails struct {
	ContactID         string `json:"contact_id"`
	TotalInteractions int    `json:"total_interactions"`
	QuestionsAsked    int    `json:"questions_asked"`
	ResponsesReceived int    `json:"responses_received"`
}

// Extraction carries the QA pairs and the tag lists derived from them
type Extraction struct {
	QAPairs         []models.QAPair `json:"qa_pairs"`
	KeyInsights     []string        `json:"key_insights"`
	TechnicalSkills []string        `json:"technical_skills"`
	ExperienceAreas []string        `json:"experience_areas"`
}

// RepositoryAnalysis records one repository covered by the interview
type RepositoryAnalysis struct {
	Name         string `json:"name"`
	CommitsCount int    `json:"commits_count"`
}

// RecordMetadata stamps the generated document
type RecordMetadata struct {
	GeneratedAt string `json:"generated_at"`
	Version     string `json:"version"`
	Source      string `json:"source"`
}

// Record aggregates everything known about one interview. The tag lists are
// pure functions of the QA pairs; the record is immutable once built and
// both persisted documents render from it alone.
type Record struct {
	UserProfile         UserProfile          `json:"user_profile"`
	InterviewSession    SessionDetails       `json:"interview_session"`
	KnowledgeExtraction Extraction           `json:"knowledge_extraction"`
	RepositoryAnalysis  []RepositoryAnalysis `json:"repository_analysis"`
	Metadata            RecordMetadata       `json:"metadata"`
}

// BuildRecord assembles the knowledge record from a call report
func BuildRecord(userID string, report CallReport, repos []RepositoryAnalysis, now time.Time) Record {
	turns := report.Transcription.Interactions
	pairs := BuildQAPairs(turns)
	_, userTurns := countSpeakers(turns)

	if repos == nil {
		repos = []RepositoryAnalysis{}
	}

	return Record{
		UserProfile: UserProfile{
			UserID:        userID,
			InterviewDate: report.CallMetadata.Timestamp,
			PhoneNumber:   report.CallMetadata.PhoneNumber,
			Language:      report.CallMetadata.Language,
		},
		InterviewSession: SessionDetails{
			ContactID:         report.CallMetadata.ContactID,
			TotalInteractions: len(turns),
			QuestionsAsked:    len(pairs),
			ResponsesReceived: userTurns,
		},
		KnowledgeExtraction: Extraction{
			QAPairs:         pairs,
			KeyInsights:     ExtractKeyInsights(pairs),
			TechnicalSkills: ExtractTechnicalSkills(pairs),
			ExperienceAreas: ExtractExperienceAreas(pairs),
		},
		RepositoryAnalysis: repos,
		Metadata: RecordMetadata{
			GeneratedAt: now.Format(time.RFC3339),
			Version:     "1.0",
			Source:      "knowledge_keeper_interview",
		},
	}
}
