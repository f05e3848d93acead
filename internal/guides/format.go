package guides

import (
	"net/url"
	"strings"
)

// FormatTopic renders a topic guide as the plain-text reply sent to the
// student: summary, review objectives, study tips, subtopic index and
// resources, followed by generated search links.
func FormatTopic(subject string, topic TopicGuide) string {
	var b strings.Builder
	b.WriteString(subject + " - " + topic.Name + "\n\n")
	b.WriteString("Resumen: " + topic.Summary + "\n\n")

	writeSection(&b, "Objetivos de repaso:", topic.Objectives)
	writeSection(&b, "Consejos de estudio:", topic.StudyTips)

	if len(topic.Subtopics) > 0 {
		b.WriteString("Subtemas relacionados:\n")
		for _, sub := range topic.Subtopics {
			b.WriteString("- " + sub.Name + ": " + sub.Summary + "\n")
		}
		b.WriteString("\n")
	}
	writeSection(&b, "Recursos recomendados:", topic.Resources)

	b.WriteString(StudyLinks(topic.Name, subject))
	return b.String()
}

// FormatSubtopic renders a subtopic guide with its key points and practice
// ideas.
func FormatSubtopic(subject string, topic TopicGuide, sub SubtopicGuide) string {
	var b strings.Builder
	b.WriteString(subject + " - " + sub.Name + "\n\n")
	b.WriteString("Resumen: " + sub.Summary + "\n\n")

	writeSection(&b, "Puntos clave:", sub.KeyPoints)
	writeSection(&b, "Practica sugerida:", sub.PracticeIdeas)
	writeSection(&b, "Recursos recomendados:", sub.Resources)

	b.WriteString(StudyLinks(sub.Name, subject))
	return b.String()
}

// StudyLinks builds search links for a topic so low-grade and review replies
// always point somewhere useful, curated guide or not.
func StudyLinks(topicName, subjectName string) string {
	topic := url.QueryEscape(topicName)
	subject := topic
	if subjectName != "" {
		subject = url.QueryEscape(subjectName)
	}

	lines := []string{
		"Recursos adicionales:",
		"- YouTube: https://www.youtube.com/results?search_query=" + subject + "+" + topic + "+explicacion",
		"- Google Scholar: https://scholar.google.com/scholar?q=" + subject + "+" + topic,
		"- Khan Academy: https://es.khanacademy.org/search?page_search_query=" + topic,
		"- Busqueda general: https://www.google.com/search?q=" + subject + "+" + topic + "+ejercicios",
	}
	return strings.Join(lines, "\n")
}

func writeSection(b *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(header + "\n")
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
	b.WriteString("\n")
}
