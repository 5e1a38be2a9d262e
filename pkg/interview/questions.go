package interview

import (
	"regexp"
	"strings"
)

// QuestionSource produces the ordered question list for one interview. The
// orchestrator never depends on where questions come from; the analysis
// heuristic below is one implementation, a literal list is another.
type QuestionSource interface {
	Questions() []string
}

// StaticQuestions is a literal, already-ordered question list
type StaticQuestions []string

func (q StaticQuestions) Questions() []string { return q }

// AnalysisSource extracts questions from free-form analysis text using
// text patterns. Best effort; anything that does not look like a question
// is ignored.
type AnalysisSource struct {
	Analysis     string
	MaxQuestions int
}

func (a AnalysisSource) Questions() []string {
	return ExtractQuestions(a.Analysis, a.MaxQuestions)
}

var questionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)[?¿][^?¿]*[?¿]`),
	regexp.MustCompile(`(?im)^[¿?].+[?¿]$`),
	regexp.MustCompile(`(?im)(?:pregunta|question)[:.]?\s*(.+[?¿])`),
	regexp.MustCompile(`(?im)(?:cuéntame|explica|describe|por qué|cómo|qué).+[?¿]`),
}

var (
	questionLabelRe = regexp.MustCompile(`(?i)^(pregunta\s*\d*[:.]?\s*)`)
	listMarkerRe    = regexp.MustCompile(`^[\d.\-*\s]+`)
)

// ExtractQuestions scans analysis text for question-shaped fragments,
// cleans numbering and labels off them and returns at most max questions
// in discovery order.
func ExtractQuestions(analysis string, max int) []string {
	if max <= 0 {
		return nil
	}

	questions := []string{}
	seen := map[string]bool{}
	add := func(q string) {
		q = strings.TrimSpace(q)
		// the patterns overlap, so the same question can surface with and
		// without its opening mark; dedupe on a normalized key
		key := strings.Trim(strings.ToLower(q), "¿?¡! .")
		if len(q) > 10 && !seen[key] {
			seen[key] = true
			questions = append(questions, q)
		}
	}

	for _, pattern := range questionPatterns {
		for _, match := range pattern.FindAllStringSubmatch(analysis, -1) {
			candidate := match[0]
			if len(match) > 1 && match[1] != "" {
				candidate = match[1]
			}
			add(candidate)
		}
	}

	// fallback: plain lines that end like a question
	if len(questions) == 0 {
		for _, line := range strings.Split(analysis, "\n") {
			line = strings.TrimSpace(line)
			if (strings.HasSuffix(line, "?") || strings.HasSuffix(line, "¿")) && len(line) > 15 {
				add(line)
			}
		}
	}

	if len(questions) > max {
		questions = questions[:max]
	}

	cleaned := make([]string, 0, len(questions))
	for _, q := range questions {
		q = questionLabelRe.ReplaceAllString(q, "")
		q = listMarkerRe.ReplaceAllString(q, "")
		q = strings.TrimSpace(q)
		if len(q) > 10 {
			cleaned = append(cleaned, q)
		}
	}

	if len(cleaned) > max {
		cleaned = cleaned[:max]
	}
	return cleaned
}
