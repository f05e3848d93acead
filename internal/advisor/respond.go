package advisor

import (
	"fmt"
	"math"
	"strings"

	"github.com/edubot-ec/edubot/internal/academic"
	"github.com/edubot-ec/edubot/internal/guides"
	"github.com/edubot-ec/edubot/internal/textnorm"
)

// Band classifies a grade on the 0-100 scale. Values are ordered so a
// higher band always means a better grade.
type Band int

const (
	BandNeedsImprovement Band = iota
	BandSatisfactory
	BandVeryGood
	BandExcellent
)

// BandOf maps a grade to its performance band.
func BandOf(grade float64) Band {
	switch {
	case grade >= 90:
		return BandExcellent
	case grade >= 80:
		return BandVeryGood
	case grade >= 70:
		return BandSatisfactory
	default:
		return BandNeedsImprovement
	}
}

// Label returns the student-facing Spanish label.
func (b Band) Label() string {
	switch b {
	case BandExcellent:
		return "Excelente"
	case BandVeryGood:
		return "Muy bueno"
	case BandSatisfactory:
		return "Satisfactorio"
	default:
		return "Necesita mejora"
	}
}

const passingGrade = 70.0

// Responder renders the deterministic Spanish replies for every academic
// intent. It owns no conversation state; handlers that enumerate topics
// write the pending selection into the session they are given.
type Responder struct {
	guides *guides.Library
}

// NewResponder creates a Responder. The guide library may be nil; topic
// details then fall back to syllabus descriptions and search links.
func NewResponder(lib *guides.Library) *Responder {
	return &Responder{guides: lib}
}

func formatGrade(g float64) string {
	return fmt.Sprintf("%.2f", g)
}

// Average returns the mean of graded enrollments only.
func Average(enrollments []academic.Enrollment) (float64, bool) {
	var sum float64
	var n int
	for _, e := range enrollments {
		if e.Graded() {
			sum += *e.Grade
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Best returns the enrollment with the highest grade. Ties keep the first
// enrollment in listing order.
func Best(enrollments []academic.Enrollment) (academic.Enrollment, bool) {
	var best academic.Enrollment
	found := false
	for _, e := range enrollments {
		if !e.Graded() {
			continue
		}
		if !found || *e.Grade > *best.Grade {
			best = e
			found = true
		}
	}
	return best, found
}

// Worst returns the enrollment with the lowest grade, first in listing
// order on ties.
func Worst(enrollments []academic.Enrollment) (academic.Enrollment, bool) {
	var worst academic.Enrollment
	found := false
	for _, e := range enrollments {
		if !e.Graded() {
			continue
		}
		if !found || *e.Grade < *worst.Grade {
			worst = e
			found = true
		}
	}
	return worst, found
}

const noEnrollmentsReply = "No encuentro materias inscritas en tu registro académico. Si crees que es un error, comunícate con secretaría académica."

func (r *Responder) GradesReply(enrollments []academic.Enrollment) string {
	if len(enrollments) == 0 {
		return noEnrollmentsReply
	}
	var b strings.Builder
	b.WriteString("Estas son tus calificaciones actuales:\n")
	for _, e := range enrollments {
		if e.Graded() {
			fmt.Fprintf(&b, "• %s: %s (%s)\n", e.SubjectName, formatGrade(*e.Grade), BandOf(*e.Grade).Label())
		} else {
			fmt.Fprintf(&b, "• %s: aún sin calificación\n", e.SubjectName)
		}
	}
	if avg, ok := Average(enrollments); ok {
		fmt.Fprintf(&b, "\nTu promedio general es %s (%s).", formatGrade(avg), BandOf(avg).Label())
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Responder) AverageReply(enrollments []academic.Enrollment) string {
	if len(enrollments) == 0 {
		return noEnrollmentsReply
	}
	avg, ok := Average(enrollments)
	if !ok {
		return "Aún no tienes calificaciones registradas, así que no puedo calcular tu promedio."
	}
	return fmt.Sprintf("Tu promedio general es %s (%s).", formatGrade(avg), BandOf(avg).Label())
}

func (r *Responder) BestGradeReply(enrollments []academic.Enrollment) string {
	best, ok := Best(enrollments)
	if !ok {
		return "Aún no tienes calificaciones registradas."
	}
	return fmt.Sprintf("Tu mejor calificación es %s en %s (%s). ¡Sigue así!",
		formatGrade(*best.Grade), best.SubjectName, BandOf(*best.Grade).Label())
}

func (r *Responder) WorstGradeReply(enrollments []academic.Enrollment) string {
	worst, ok := Worst(enrollments)
	if !ok {
		return "Aún no tienes calificaciones registradas."
	}
	reply := fmt.Sprintf("Tu calificación más baja es %s en %s (%s).",
		formatGrade(*worst.Grade), worst.SubjectName, BandOf(*worst.Grade).Label())
	if *worst.Grade < passingGrade {
		reply += " Si quieres, puedo armarte un plan de estudio para mejorarla."
	}
	return reply
}

func (r *Responder) SubjectsReply(enrollments []academic.Enrollment) string {
	if len(enrollments) == 0 {
		return noEnrollmentsReply
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Estás inscrito en %d materias:\n", len(enrollments))
	for _, e := range enrollments {
		fmt.Fprintf(&b, "• %s", e.SubjectName)
		if e.Career != "" {
			fmt.Fprintf(&b, " (%s)", e.Career)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Responder) ClassroomReply(enrollments []academic.Enrollment) string {
	if len(enrollments) == 0 {
		return noEnrollmentsReply
	}
	var b strings.Builder
	b.WriteString("Estas son tus aulas:\n")
	for _, e := range enrollments {
		classroom := e.Classroom
		if classroom == "" {
			classroom = "sin aula asignada"
		}
		fmt.Fprintf(&b, "• %s: %s\n", e.SubjectName, classroom)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Responder) SectionReply(enrollments []academic.Enrollment) string {
	if len(enrollments) == 0 {
		return noEnrollmentsReply
	}
	var b strings.Builder
	b.WriteString("Estos son tus paralelos:\n")
	for _, e := range enrollments {
		section := e.SectionNumber
		if section == "" {
			section = "sin paralelo asignado"
		}
		fmt.Fprintf(&b, "• %s: paralelo %s\n", e.SubjectName, section)
	}
	return strings.TrimRight(b.String(), "\n")
}

// SpecificReply answers a subject + facet question. The subject name must
// come from DetectSpecificQuery, so lookup failures here only happen when
// enrollment data changed between detection and rendering.
func (r *Responder) SpecificReply(q SpecificQuery, enrollments []academic.Enrollment) string {
	var e academic.Enrollment
	found := false
	for _, cand := range enrollments {
		if textnorm.Equivalent(cand.SubjectName, q.SubjectName) {
			e = cand
			found = true
			break
		}
	}
	if !found {
		return fmt.Sprintf("No encuentro la materia %s entre tus inscripciones.", q.SubjectName)
	}

	switch q.Facet {
	case FacetClassroom:
		if e.Classroom == "" {
			return fmt.Sprintf("La materia %s aún no tiene aula asignada.", e.SubjectName)
		}
		return fmt.Sprintf("La clase de %s es en el aula %s.", e.SubjectName, e.Classroom)
	case FacetSection:
		if e.SectionNumber == "" {
			return fmt.Sprintf("La materia %s aún no tiene paralelo asignado.", e.SubjectName)
		}
		return fmt.Sprintf("En %s estás en el paralelo %s.", e.SubjectName, e.SectionNumber)
	case FacetGrade:
		if !e.Graded() {
			return fmt.Sprintf("Aún no tienes calificación registrada en %s.", e.SubjectName)
		}
		return fmt.Sprintf("En %s tienes %s (%s).",
			e.SubjectName, formatGrade(*e.Grade), BandOf(*e.Grade).Label())
	default:
		var b strings.Builder
		fmt.Fprintf(&b, "Sobre %s:\n", e.SubjectName)
		if e.Career != "" {
			fmt.Fprintf(&b, "• Carrera: %s\n", e.Career)
		}
		if e.Classroom != "" {
			fmt.Fprintf(&b, "• Aula: %s\n", e.Classroom)
		}
		if e.SectionNumber != "" {
			fmt.Fprintf(&b, "• Paralelo: %s\n", e.SectionNumber)
		}
		if e.Graded() {
			fmt.Fprintf(&b, "• Calificación: %s (%s)\n", formatGrade(*e.Grade), BandOf(*e.Grade).Label())
		} else {
			b.WriteString("• Calificación: aún no registrada\n")
		}
		return strings.TrimRight(b.String(), "\n")
	}
}

func (r *Responder) GeneralReply(enrollments []academic.Enrollment) string {
	if len(enrollments) == 0 {
		return noEnrollmentsReply
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Tienes %d materias inscritas este período.\n", len(enrollments))
	if avg, ok := Average(enrollments); ok {
		fmt.Fprintf(&b, "Tu promedio general es %s (%s).\n", formatGrade(avg), BandOf(avg).Label())
	}
	b.WriteString("Puedo ayudarte con tus calificaciones, promedios, aulas, paralelos, sílabos y planes de estudio.")
	return b.String()
}

const selectionReminder = "Indica el número o el nombre del tema/subtema que deseas repasar."

// weeksNeeded estimates the study weeks to reach the passing grade,
// assuming roughly five points of recovery per week.
func weeksNeeded(grade float64) int {
	if grade >= passingGrade {
		return 0
	}
	return int(math.Ceil((passingGrade - grade) / 5))
}

// RoadmapReply builds a study plan for the subjects below the passing
// grade. When their syllabi are available the topics are enumerated as a
// pending selection written into sess.
func (r *Responder) RoadmapReply(enrollments []academic.Enrollment, syllabi []SubjectSyllabus, sess *Session) string {
	var atRisk []academic.Enrollment
	for _, e := range enrollments {
		if e.Graded() && *e.Grade < passingGrade {
			atRisk = append(atRisk, e)
		}
	}
	if len(atRisk) == 0 {
		return "¡Buenas noticias! Todas tus materias calificadas están en 70 o más, así que no necesitas un plan de recuperación. Si quieres repasar algún tema igual puedo ayudarte."
	}

	var b strings.Builder
	b.WriteString("Este es tu plan de estudio para recuperar las materias en riesgo:\n\n")

	var options []TopicOption
	for _, e := range atRisk {
		weeks := weeksNeeded(*e.Grade)
		fmt.Fprintf(&b, "%s (actual: %s, meta: %.0f)\n", e.SubjectName, formatGrade(*e.Grade), passingGrade)
		fmt.Fprintf(&b, "Tiempo estimado: %d semanas\n", weeks)
		b.WriteString("• Semana 1-2: Fundamentos, repasa la teoría base y resuelve ejercicios guiados.\n")
		b.WriteString("• Semana 3-4: Práctica intensiva, ejercicios por tema y autoevaluaciones.\n")
		if weeks > 4 {
			b.WriteString("• Semana 5+: Consolidación, simulacros de examen y repaso de errores frecuentes.\n")
		}

		if syl, ok := FindSyllabus(e.SubjectName, syllabi); ok {
			b.WriteString("Temas del sílabo para priorizar:\n")
			for _, t := range syl.Topics {
				opt := TopicOption{
					ID:          len(options) + 1,
					Subject:     syl.SubjectName,
					Title:       t.Title,
					Description: t.Description,
				}
				for _, st := range t.Subtopics {
					opt.Subtopics = append(opt.Subtopics, OptionSubtopic{Title: st.Title, Description: st.Description})
				}
				options = append(options, opt)
				fmt.Fprintf(&b, "  %d. %s\n", opt.ID, t.Title)
			}
		}
		b.WriteString("\n")
	}

	reply := strings.TrimRight(b.String(), "\n")
	if len(options) > 0 {
		reply += "\n\n" + selectionReminder
		if sess != nil {
			sess.Context.Selection = &TopicSelection{
				Source:  SelectionFromRoadmap,
				Options: options,
				Prompt:  reply,
			}
		}
	}
	return reply
}

// SyllabusReply answers syllabus content questions. With a resolvable
// subject mention it enumerates that subject's topics as a pending
// selection; otherwise it lists every subject that has syllabus content.
func (r *Responder) SyllabusReply(message string, enrollments []academic.Enrollment, syllabi []SubjectSyllabus, sess *Session) string {
	if len(syllabi) == 0 {
		return "No encuentro contenido de sílabo para tus materias en este momento."
	}

	target, ok := resolveSyllabusTarget(message, enrollments, syllabi, sess)
	if !ok {
		var b strings.Builder
		b.WriteString("Tengo el sílabo de estas materias:\n")
		for _, s := range syllabi {
			fmt.Fprintf(&b, "• %s (%d temas)\n", s.SubjectName, len(s.Topics))
		}
		b.WriteString("Dime de cuál quieres ver los temas.")
		return b.String()
	}

	// A message that already names a topic or subtopic is not ambiguous.
	// Answer it directly instead of arming a selection.
	if opt, sub, found := topicMention(message, target); found {
		if sess != nil {
			sess.Context.LastMentionedSubject = target.SubjectName
		}
		return r.TopicDetailReply(opt, sub)
	}

	var b strings.Builder
	var options []TopicOption
	fmt.Fprintf(&b, "Temas del sílabo de %s:\n", target.SubjectName)
	for _, t := range target.Topics {
		opt := TopicOption{
			ID:          len(options) + 1,
			Subject:     target.SubjectName,
			Title:       t.Title,
			Description: t.Description,
		}
		for _, st := range t.Subtopics {
			opt.Subtopics = append(opt.Subtopics, OptionSubtopic{Title: st.Title, Description: st.Description})
		}
		options = append(options, opt)
		fmt.Fprintf(&b, "%d. %s", opt.ID, t.Title)
		if t.Week > 0 {
			fmt.Fprintf(&b, " (semana %d)", t.Week)
		}
		b.WriteString("\n")
		for _, st := range t.Subtopics {
			fmt.Fprintf(&b, "   - %s\n", st.Title)
		}
	}
	b.WriteString("\n" + selectionReminder)

	reply := b.String()
	if sess != nil {
		sess.Context.Selection = &TopicSelection{
			Source:  SelectionFromSyllabus,
			Options: options,
			Prompt:  reply,
		}
		sess.Context.LastMentionedSubject = target.SubjectName
	}
	return reply
}

// topicMention scans a syllabus for a topic or subtopic title named
// verbatim in the message. Topics win over subtopics; first hit in
// syllabus order wins.
func topicMention(message string, syl SubjectSyllabus) (TopicOption, *OptionSubtopic, bool) {
	norm := textnorm.Normalize(message)

	asOption := func(id int, t Topic) TopicOption {
		opt := TopicOption{
			ID:          id,
			Subject:     syl.SubjectName,
			Title:       t.Title,
			Description: t.Description,
		}
		for _, st := range t.Subtopics {
			opt.Subtopics = append(opt.Subtopics, OptionSubtopic{Title: st.Title, Description: st.Description})
		}
		return opt
	}

	for i, t := range syl.Topics {
		title := textnorm.Normalize(t.Title)
		if len(title) >= 3 && strings.Contains(norm, title) {
			return asOption(i+1, t), nil, true
		}
	}
	for i, t := range syl.Topics {
		for j, st := range t.Subtopics {
			title := textnorm.Normalize(st.Title)
			if len(title) < 3 || !strings.Contains(norm, title) {
				continue
			}
			opt := asOption(i+1, t)
			return opt, &opt.Subtopics[j], true
		}
	}
	return TopicOption{}, nil, false
}

func resolveSyllabusTarget(message string, enrollments []academic.Enrollment, syllabi []SubjectSyllabus, sess *Session) (SubjectSyllabus, bool) {
	if subject, ok := ResolveSubject(message, enrollments); ok {
		if syl, ok := FindSyllabus(subject, syllabi); ok {
			return syl, true
		}
	}
	if sess != nil && sess.Context.LastMentionedSubject != "" {
		if syl, ok := FindSyllabus(sess.Context.LastMentionedSubject, syllabi); ok {
			return syl, true
		}
	}
	if len(syllabi) == 1 {
		return syllabi[0], true
	}
	return SubjectSyllabus{}, false
}

// TopicDetailReply renders study content for a picked option. Curated
// guides win over raw syllabus descriptions; search links close the reply
// either way.
func (r *Responder) TopicDetailReply(opt TopicOption, sub *OptionSubtopic) string {
	if r.guides != nil {
		if sub != nil {
			if topic, g, ok := r.guides.LookupSubtopic(opt.Subject, opt.Title, sub.Title); ok {
				return guides.FormatSubtopic(opt.Subject, topic, g)
			}
		} else if g, ok := r.guides.LookupTopic(opt.Subject, opt.Title); ok {
			return guides.FormatTopic(opt.Subject, g)
		}
	}

	var b strings.Builder
	if sub != nil {
		fmt.Fprintf(&b, "Repasemos %s (tema %s de %s).\n", sub.Title, opt.Title, opt.Subject)
		if sub.Description != "" {
			b.WriteString(sub.Description + "\n")
		}
		b.WriteString("\n" + guides.StudyLinks(sub.Title, opt.Subject))
	} else {
		fmt.Fprintf(&b, "Repasemos %s (%s).\n", opt.Title, opt.Subject)
		if opt.Description != "" {
			b.WriteString(opt.Description + "\n")
		}
		if len(opt.Subtopics) > 0 {
			b.WriteString("Subtemas:\n")
			for _, st := range opt.Subtopics {
				fmt.Fprintf(&b, "• %s\n", st.Title)
			}
		}
		b.WriteString("\n" + guides.StudyLinks(opt.Title, opt.Subject))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RepromptReply re-emits the pending selection prompt. The stored prompt
// already ends with the reminder line, so none is appended here.
func (r *Responder) RepromptReply(sel *TopicSelection) string {
	if sel == nil || sel.Prompt == "" {
		return "No identifiqué esa opción. " + selectionReminder
	}
	return "No identifiqué esa opción.\n\n" + sel.Prompt
}

func (r *Responder) GreetingReply() string {
	return "¡Hola! Soy tu asistente académico. Puedo contarte tus calificaciones, promedio, aulas, paralelos y los temas de tus sílabos. ¿En qué te ayudo?"
}
