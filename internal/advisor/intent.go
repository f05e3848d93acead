// Package advisor implements the academic-advising conversation core:
// intent classification, subject resolution, syllabus aggregation,
// per-session conversation state and deterministic response generation.
package advisor

import (
	"regexp"
	"strings"

	"github.com/edubot-ec/edubot/internal/academic"
	"github.com/edubot-ec/edubot/internal/textnorm"
)

// Intent is one of the recognized academic query intents. A message may
// satisfy several predicates; the engine resolves ties with a fixed
// dispatch priority.
type Intent int

const (
	IntentNone Intent = iota
	IntentSpecific
	IntentSyllabus
	IntentAverage
	IntentBestGrade
	IntentWorstGrade
	IntentRoadmap
	IntentImprovement
	IntentGrade
	IntentSubjectList
	IntentClassroom
	IntentSection
	IntentGreeting
)

func (i Intent) String() string {
	switch i {
	case IntentSpecific:
		return "specific"
	case IntentSyllabus:
		return "syllabus"
	case IntentAverage:
		return "average"
	case IntentBestGrade:
		return "best_grade"
	case IntentWorstGrade:
		return "worst_grade"
	case IntentRoadmap:
		return "roadmap"
	case IntentImprovement:
		return "improvement"
	case IntentGrade:
		return "grade"
	case IntentSubjectList:
		return "subject_list"
	case IntentClassroom:
		return "classroom"
	case IntentSection:
		return "section"
	case IntentGreeting:
		return "greeting"
	default:
		return "none"
	}
}

// Keyword lists are matched as substrings of the lower-cased message, the
// way students actually phrase these questions in Spanish.
var (
	gradeKeywords = []string{
		"calificacion", "nota", "promedio", "calificación", "notas", "nota final",
		"qué nota tengo", "mis calificaciones", "mejor nota", "peor nota",
		"nota mas alta", "nota mas baja", "mayor calificacion", "menor calificacion",
		"puntaje", "puntuación",
	}
	averageKeywords = []string{
		"promedio", "promedio general", "mi promedio", "qué promedio tengo",
		"cual es mi promedio", "promedio de notas", "nota promedio",
	}
	subjectKeywords = []string{
		"materia", "clase", "asignatura", "curso", "mis materias",
		"qué materias tengo", "en qué materias estoy", "cursos",
	}
	classroomKeywords = []string{
		"aula", "salón", "salon", "clase", "dónde es la clase",
		"donde es la clase", "dónde me toca", "donde me toca",
		"ubicación", "ubicacion", "lugar de clase",
	}
	sectionKeywords = []string{
		"paralelo", "grupo", "sección", "seccion", "número de clase",
		"numero de clase", "qué paralelo",
	}
	bestGradeKeywords = []string{
		"mejor nota", "mayor calificacion", "nota mas alta", "mejor calificacion",
		"mayor nota", "calificacion mas alta", "cual es mi mejor", "en que voy mejor",
		"nota más alta",
	}
	worstGradeKeywords = []string{
		"peor nota", "menor calificacion", "nota mas baja", "peor calificacion",
		"menor nota", "calificacion mas baja", "cual es mi peor", "en que voy peor",
		"donde estoy mal", "que materia debo mejorar", "nota más baja", "nota menor",
		"menor puntaje", "peor puntaje", "calificacion menor", "puntaje mas bajo",
		"nota mas pequeña", "calificacion mas pequeña",
		"en que materia voy peor", "cual es mi menor", "mi peor materia",
		"donde tengo menos", "peor rendimiento",
	}
	roadmapKeywords = []string{
		"ayuda", "mejorar", "como mejoro", "que hago", "plan de estudio",
		"roadmap", "estrategia", "consejos", "como puedo mejorar", "recuperar",
		"me ayuda", "necesito ayuda", "qué debo hacer", "recomendación",
	}
	improvementKeywords = []string{
		"subir", "mejorar", "incrementar", "aumentar", "elevar", "subir nota",
		"mejorar calificación", "subir calificación", "recuperar nota",
	}
	syllabusKeywords = []string{
		"silabo", "syllabus", "tema", "temas", "subtema", "subtemas", "unidad",
		"contenido", "repasar contenido", "plan de estudio detallado",
	}
)

// The worst-grade keyword list cannot enumerate every phrasing, so two
// order-insensitive patterns catch the rest.
var (
	worstGradePattern        = regexp.MustCompile(`(menor|peor|baja|bajo).*(nota|calificacion|puntaje|materia)`)
	worstGradePatternFlipped = regexp.MustCompile(`(nota|calificacion|puntaje).*(menor|peor|baja|bajo)`)
	greetingPattern          = regexp.MustCompile(`(?i)\b(hola|buenos|buenas|hey|holi)\b`)
)

func containsAny(message string, keywords []string) bool {
	lower := strings.ToLower(message)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsGradeRelated reports whether the message talks about grades at all.
func IsGradeRelated(message string) bool { return containsAny(message, gradeKeywords) }

// IsAverageQuery reports whether the message asks for the overall average.
func IsAverageQuery(message string) bool { return containsAny(message, averageKeywords) }

// IsSubjectQuery reports whether the message asks about enrolled subjects.
func IsSubjectQuery(message string) bool { return containsAny(message, subjectKeywords) }

// IsClassroomQuery reports whether the message asks where a class happens.
func IsClassroomQuery(message string) bool { return containsAny(message, classroomKeywords) }

// IsSectionQuery reports whether the message asks about section/group info.
func IsSectionQuery(message string) bool { return containsAny(message, sectionKeywords) }

// IsBestGradeQuery reports whether the message asks for the highest grade.
func IsBestGradeQuery(message string) bool { return containsAny(message, bestGradeKeywords) }

// IsWorstGradeQuery reports whether the message asks for the lowest grade,
// by keyword or by either tie-break pattern.
func IsWorstGradeQuery(message string) bool {
	if containsAny(message, worstGradeKeywords) {
		return true
	}
	norm := textnorm.Normalize(message)
	return worstGradePattern.MatchString(norm) || worstGradePatternFlipped.MatchString(norm)
}

// IsRoadmapQuery reports whether the message asks for help or a study plan.
func IsRoadmapQuery(message string) bool { return containsAny(message, roadmapKeywords) }

// IsImprovementQuery reports whether the message asks to raise a grade.
// Improvement wording alone is not enough; the message must also be
// grade-related, otherwise "quiero mejorar mi inglés" would trigger it.
func IsImprovementQuery(message string) bool {
	return containsAny(message, improvementKeywords) && IsGradeRelated(message)
}

// IsSyllabusQuery reports whether the message asks about syllabus content.
// It matches on normalized text so "sílabo" and "silabo" behave the same.
func IsSyllabusQuery(message string) bool {
	norm := textnorm.Normalize(message)
	for _, kw := range syllabusKeywords {
		if strings.Contains(norm, kw) {
			return true
		}
	}
	return false
}

// IsGreeting reports whether the message opens a conversation.
func IsGreeting(message string) bool { return greetingPattern.MatchString(message) }

// IsAcademicQuery reports whether any academic predicate matches, i.e.
// whether the turn needs records from the academic API at all.
func IsAcademicQuery(message string) bool {
	return IsGradeRelated(message) || IsSubjectQuery(message) ||
		IsClassroomQuery(message) || IsSectionQuery(message) ||
		IsBestGradeQuery(message) || IsWorstGradeQuery(message) ||
		IsRoadmapQuery(message) || IsImprovementQuery(message) ||
		IsAverageQuery(message) || IsSyllabusQuery(message)
}

// Classify returns every intent whose predicate matches the message.
// Callers must apply the fixed dispatch priority; Classify itself imposes
// no order beyond listing.
func Classify(message string) []Intent {
	var intents []Intent
	for _, check := range []struct {
		intent Intent
		match  func(string) bool
	}{
		{IntentSyllabus, IsSyllabusQuery},
		{IntentAverage, IsAverageQuery},
		{IntentBestGrade, IsBestGradeQuery},
		{IntentWorstGrade, IsWorstGradeQuery},
		{IntentRoadmap, IsRoadmapQuery},
		{IntentImprovement, IsImprovementQuery},
		{IntentGrade, IsGradeRelated},
		{IntentSubjectList, IsSubjectQuery},
		{IntentClassroom, IsClassroomQuery},
		{IntentSection, IsSectionQuery},
	} {
		if check.match(message) {
			intents = append(intents, check.intent)
		}
	}
	return intents
}

// Facet is what a subject-scoped question asks about.
type Facet int

const (
	FacetGeneral Facet = iota
	FacetClassroom
	FacetSection
	FacetGrade
)

func (f Facet) String() string {
	switch f {
	case FacetClassroom:
		return "classroom"
	case FacetSection:
		return "section"
	case FacetGrade:
		return "grade"
	default:
		return "general"
	}
}

// SpecificQuery is a resolved subject + facet question ("what grade do I
// have in calculus"). It bypasses the general intent predicates entirely.
type SpecificQuery struct {
	SubjectName string
	Facet       Facet
}

// Anchored patterns capture the noun phrase after the preposition; what they
// capture still has to resolve against the enrollment list before the match
// counts. They run on normalized text, so no accent alternatives needed.
var (
	classroomPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:aula|salon|ubicacion).*(?:de|para|del)\s+(.+)`),
		regexp.MustCompile(`(?:donde).*(?:es|queda).*(?:la clase|el curso).*?(?:de|del)\s+(.+)`),
		regexp.MustCompile(`(?:en que aula).*(?:es|esta).*?(?:de|del)\s+(.+)`),
	}
	sectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:paralelo|grupo|seccion).*(?:de|para|del)\s+(.+)`),
		regexp.MustCompile(`(?:que paralelo).*(?:tengo|tengo en).*?(?:de|del)\s+(.+)`),
		regexp.MustCompile(`(?:en que paralelo).*(?:estoy|esta).*?(?:de|del)\s+(.+)`),
	}
	gradePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:calificacion|nota|puntaje).*(?:en|de|para)\s+(.+)`),
		regexp.MustCompile(`(?:que|cual).*(?:calificacion|nota).*(?:tengo|saco).*?(?:en|de)\s+(.+)`),
		regexp.MustCompile(`(?:en|de)\s+(.+?)\s+(?:calificacion|nota|puntaje)`),
		regexp.MustCompile(`(?:mi|la|el).*(?:calificacion|nota).*(?:en|de)\s+(.+)`),
	}
)

// DetectSpecificQuery tries to read the message as a subject + facet
// question. Pattern captures are resolved through ResolveSubject; when no
// pattern lands, a direct scan checks whether an enrolled subject name
// appears verbatim and infers the facet from nearby keywords
// (classroom > section > grade > general).
func DetectSpecificQuery(message string, enrollments []academic.Enrollment) (SpecificQuery, bool) {
	norm := textnorm.Normalize(message)

	for _, probe := range []struct {
		patterns []*regexp.Regexp
		facet    Facet
	}{
		{classroomPatterns, FacetClassroom},
		{sectionPatterns, FacetSection},
		{gradePatterns, FacetGrade},
	} {
		for _, pattern := range probe.patterns {
			m := pattern.FindStringSubmatch(norm)
			if m == nil {
				continue
			}
			if subject, ok := ResolveSubject(m[1], enrollments); ok {
				return SpecificQuery{SubjectName: subject, Facet: probe.facet}, true
			}
		}
	}

	for _, e := range enrollments {
		name := textnorm.Normalize(e.SubjectName)
		if len(name) < 3 || !strings.Contains(norm, name) {
			continue
		}
		q := SpecificQuery{SubjectName: e.SubjectName}
		switch {
		case strings.Contains(norm, "aula") || strings.Contains(norm, "salon") || strings.Contains(norm, "ubicacion"):
			q.Facet = FacetClassroom
		case strings.Contains(norm, "paralelo") || strings.Contains(norm, "grupo") || strings.Contains(norm, "seccion"):
			q.Facet = FacetSection
		case IsGradeRelated(norm):
			q.Facet = FacetGrade
		default:
			q.Facet = FacetGeneral
		}
		return q, true
	}

	return SpecificQuery{}, false
}
