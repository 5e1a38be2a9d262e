package knowledge

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Rmx21/knowledgeKeeper/pkg/models"
)

var knownTools = []string{"docker", "kubernetes", "terraform", "jenkins", "git"}

var knownTechnologies = []string{
	"python", "javascript", "java", "c++", "c#", "go", "rust",
	"aws", "azure", "gcp", "docker", "kubernetes", "terraform",
	"react", "vue", "angular", "django", "flask", "fastapi",
	"mysql", "postgresql", "mongodb", "redis",
}

// standalone word, so "experiencia" does not read as AI
var aiWordRe = regexp.MustCompile(`(?i)\bia\b`)

// ExtractKeyInsights derives short observations from the answers. Pure
// keyword scan, case-insensitive, duplicates removed.
func ExtractKeyInsights(pairs []models.QAPair) []string {
	insights := []string{}
	seen := map[string]bool{}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			insights = append(insights, s)
		}
	}

	for _, qa := range pairs {
		answer := strings.ToLower(qa.Answer)
		if strings.Contains(answer, "python") || strings.Contains(answer, "aws") {
			if strings.Contains(answer, "experiencia") {
				add("Tiene experiencia con Python y/o AWS")
			}
		}
		if strings.Contains(answer, "proyecto") || strings.Contains(answer, "desarrollé") || strings.Contains(answer, "implementé") {
			add("Ha participado en desarrollo de proyectos")
		}
		mentioned := []string{}
		for _, tool := range knownTools {
			if strings.Contains(answer, tool) {
				mentioned = append(mentioned, tool)
			}
		}
		if len(mentioned) > 0 {
			add(fmt.Sprintf("Experiencia con herramientas: %s", strings.Join(mentioned, ", ")))
		}
	}
	return insights
}

// ExtractTechnicalSkills lists technologies mentioned in the answers
func ExtractTechnicalSkills(pairs []models.QAPair) []string {
	skills := []string{}
	seen := map[string]bool{}
	for _, qa := range pairs {
		answer := strings.ToLower(qa.Answer)
		for _, tech := range knownTechnologies {
			if !strings.Contains(answer, tech) {
				continue
			}
			label := capitalize(tech)
			if tech == "aws" || tech == "gcp" {
				label = strings.ToUpper(tech)
			}
			if !seen[label] {
				seen[label] = true
				skills = append(skills, label)
			}
		}
	}
	return skills
}

// ExtractExperienceAreas maps answer keywords to broad experience areas
func ExtractExperienceAreas(pairs []models.QAPair) []string {
	areas := []string{}
	seen := map[string]bool{}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			areas = append(areas, s)
		}
	}

	for _, qa := range pairs {
		answer := strings.ToLower(qa.Answer)
		if strings.Contains(answer, "backend") || strings.Contains(answer, "api") {
			add("Desarrollo Backend")
		}
		if strings.Contains(answer, "frontend") || strings.Contains(answer, "ui") || strings.Contains(answer, "interfaz") {
			add("Desarrollo Frontend")
		}
		if strings.Contains(answer, "devops") || strings.Contains(answer, "infraestructura") {
			add("DevOps e Infraestructura")
		}
		if strings.Contains(answer, "base de datos") || strings.Contains(answer, "database") {
			add("Gestión de Bases de Datos")
		}
		if strings.Contains(answer, "machine learning") || strings.Contains(answer, "inteligencia artificial") || aiWordRe.MatchString(qa.Answer) {
			add("Inteligencia Artificial/ML")
		}
	}
	return areas
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
