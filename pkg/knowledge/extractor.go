package knowledge

import (
	"strings"

	"github.com/Rmx21/knowledgeKeeper/pkg/constants"
	"github.com/Rmx21/knowledgeKeeper/pkg/models"
)

// dtmfInstructions are flow-injected fragments stripped from system lines
// before they are treated as questions
var dtmfInstructions = []string{
	"responde IDD click en uno para continuar.",
	"responde IDDA click en uno para continuar.",
}

// greetingPrefixes mark a system line as the opening greeting rather than a
// delivered question
var greetingPrefixes = []string{
	"es un buen momento",
	"hola",
}

// ParseTranscript splits a raw newline-delimited transcript into ordered
// speaker turns. Attribution is positional: even lines are the system,
// odd lines the caller. This is a structural assumption about the
// one-question-one-answer call flow, not a semantic one; consecutive turns
// by the same party will be misattributed.
func ParseTranscript(transcript string) []models.TranscriptTurn {
	if strings.TrimSpace(transcript) == "" {
		return nil
	}

	lines := strings.Split(strings.TrimSpace(transcript), "\n")
	turns := make([]models.TranscriptTurn, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		speaker := models.SpeakerSystem
		if i%2 == 1 {
			speaker = models.SpeakerUser
		}
		turns = append(turns, models.TranscriptTurn{Speaker: speaker, Text: line})
	}
	return turns
}

// CleanSystemLine removes flow boilerplate from a system turn
func CleanSystemLine(text string) string {
	for _, instr := range dtmfInstructions {
		text = strings.ReplaceAll(text, instr, "")
	}
	return strings.TrimSpace(text)
}

// isGreeting reports whether a cleaned system line is the opening prompt
func isGreeting(text string) bool {
	lower := strings.ToLower(text)
	for _, prefix := range greetingPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// BuildQAPairs walks the turns as question/answer slots: each system turn
// opens a slot, the immediately following user turn (if any) fills it.
// Slots whose system line is empty after cleaning, or is the opening
// greeting, are dropped whole (question and paired answer together), so
// surviving pairs keep the answers that actually followed them. Missing
// answers resolve to the no-response sentinel.
func BuildQAPairs(turns []models.TranscriptTurn) []models.QAPair {
	pairs := []models.QAPair{}
	for i := 0; i < len(turns); i++ {
		if turns[i].Speaker != models.SpeakerSystem {
			continue
		}
		question := CleanSystemLine(turns[i].Text)
		if question == "" || isGreeting(question) {
			continue
		}

		answer := constants.NoAnswerSentinel
		if i+1 < len(turns) && turns[i+1].Speaker == models.SpeakerUser {
			answer = turns[i+1].Text
		}
		pairs = append(pairs, models.QAPair{
			Question: question,
			Answer:   answer,
			Sequence: len(pairs) + 1,
		})
	}
	return pairs
}

// countSpeakers tallies turns per speaker
func countSpeakers(turns []models.TranscriptTurn) (system, user int) {
	for _, t := range turns {
		if t.Speaker == models.SpeakerSystem {
			system++
		} else {
			user++
		}
	}
	return system, user
}
