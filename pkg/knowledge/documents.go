package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Rmx21/knowledgeKeeper/pkg/metrics"
	"github.com/Rmx21/knowledgeKeeper/pkg/models"
)

// DocumentNames is the deterministic naming scheme for the two persisted
// artifacts. Two builds for the same user within the same minute produce
// identical names and overwrite each other; documented behavior, not an
// error.
func DocumentNames(userID string, t time.Time) (jsonName, mdName string) {
	stamp := t.Format("20060102-1504")
	return fmt.Sprintf("%s-%s.json", stamp, userID),
		fmt.Sprintf("%s-%s-summary.md", stamp, userID)
}

// BuildSummaryMarkdown renders the human-readable summary from the record.
// Every section reads from the same Record the JSON document serializes, so
// the two artifacts cannot diverge in content.
func BuildSummaryMarkdown(record Record) string {
	var b strings.Builder

	date := record.UserProfile.InterviewDate
	if parsed, err := time.Parse(time.RFC3339, date); err == nil {
		date = parsed.Format("02-01-2006 15:04 MST")
	} else if date == "" {
		date = "Fecha no disponible"
	}

	fmt.Fprintf(&b, "# Resumen de Conocimiento - %s\n\n", record.UserProfile.UserID)

	b.WriteString("## Información General\n")
	fmt.Fprintf(&b, "- **Usuario:** %s\n", record.UserProfile.UserID)
	fmt.Fprintf(&b, "- **Fecha de entrevista:** %s\n", date)
	fmt.Fprintf(&b, "- **Teléfono:** %s\n", valueOr(record.UserProfile.PhoneNumber, "No disponible"))
	fmt.Fprintf(&b, "- **Idioma:** %s\n\n", valueOr(record.UserProfile.Language, "es"))

	b.WriteString("## Detalles de la Sesión\n")
	fmt.Fprintf(&b, "- **ID de contacto:** %s\n", valueOr(record.InterviewSession.ContactID, "N/A"))
	fmt.Fprintf(&b, "- **Total de interacciones:** %d\n", record.InterviewSession.TotalInteractions)
	fmt.Fprintf(&b, "- **Preguntas realizadas:** %d\n", record.InterviewSession.QuestionsAsked)
	fmt.Fprintf(&b, "- **Respuestas recibidas:** %d\n\n", record.InterviewSession.ResponsesReceived)

	b.WriteString("## Preguntas y Respuestas\n\n")
	for _, qa := range record.KnowledgeExtraction.QAPairs {
		fmt.Fprintf(&b, "### %d. %s\n\n", qa.Sequence, qa.Question)
		fmt.Fprintf(&b, "**Respuesta:** %s\n\n", qa.Answer)
	}

	writeList(&b, "## Insights Clave", record.KnowledgeExtraction.KeyInsights)
	writeList(&b, "## Habilidades Técnicas Identificadas", record.KnowledgeExtraction.TechnicalSkills)
	writeList(&b, "## Áreas de Experiencia", record.KnowledgeExtraction.ExperienceAreas)

	if len(record.RepositoryAnalysis) > 0 {
		b.WriteString("## Repositorios Analizados\n")
		for _, repo := range record.RepositoryAnalysis {
			fmt.Fprintf(&b, "- **%s** - %d commits analizados\n", repo.Name, repo.CommitsCount)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "---\n*Generado automáticamente por Knowledge Keeper el %s*\n", date)
	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(heading + "\n")
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Persister writes the two knowledge documents to the output directory
type Persister struct {
	outputDir string
	logger    *logrus.Logger
	metrics   *metrics.Metrics

	now func() time.Time
}

func NewPersister(outputDir string, logger *logrus.Logger, m *metrics.Metrics) *Persister {
	return &Persister{
		outputDir: outputDir,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// SaveDocuments renders and writes both artifacts. Directory creation is
// idempotent. A same-minute rerun for the same user overwrites the
// previous pair.
func (p *Persister) SaveDocuments(userID string, record Record) (models.KnowledgeFiles, error) {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return models.KnowledgeFiles{}, fmt.Errorf("failed to create output directory %s: %w", p.outputDir, err)
	}

	jsonName, mdName := DocumentNames(userID, p.now())
	jsonPath := filepath.Join(p.outputDir, jsonName)
	mdPath := filepath.Join(p.outputDir, mdName)

	body, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return models.KnowledgeFiles{}, fmt.Errorf("failed to encode knowledge record: %w", err)
	}
	if err := os.WriteFile(jsonPath, body, 0o644); err != nil {
		return models.KnowledgeFiles{}, fmt.Errorf("failed to write knowledge record: %w", err)
	}
	p.metrics.DocumentsWritten.WithLabelValues("json").Inc()

	summary := BuildSummaryMarkdown(record)
	if err := os.WriteFile(mdPath, []byte(summary), 0o644); err != nil {
		return models.KnowledgeFiles{}, fmt.Errorf("failed to write summary: %w", err)
	}
	p.metrics.DocumentsWritten.WithLabelValues("markdown").Inc()

	p.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"json":    jsonPath,
		"md":      mdPath,
	}).Info("Knowledge documents saved")

	return models.KnowledgeFiles{JSONFile: jsonPath, MDFile: mdPath}, nil
}
