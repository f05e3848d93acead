package advisor_test

import (
	"testing"

	"github.com/edubot-ec/edubot/internal/academic"
	"github.com/edubot-ec/edubot/internal/advisor"
)

func gptr(v float64) *float64 { return &v }

func testEnrollments() []academic.Enrollment {
	return []academic.Enrollment{
		{SubjectName: "Cálculo Integral", SectionID: 11, Classroom: "A-204", SectionNumber: "1", Career: "Software", Grade: gptr(65)},
		{SubjectName: "Física", SectionID: 12, Classroom: "B-101", SectionNumber: "2", Career: "Software", Grade: gptr(90)},
		{SubjectName: "Programación Orientada a Objetos", SectionID: 13, Classroom: "Lab-3", SectionNumber: "1", Career: "Software", Grade: gptr(70)},
	}
}

func TestIsWorstGradeQuery_Keywords(t *testing.T) {
	for _, msg := range []string{
		"¿cuál es mi peor nota?",
		"dime mi nota mas baja",
		"que materia debo mejorar",
	} {
		if !advisor.IsWorstGradeQuery(msg) {
			t.Errorf("IsWorstGradeQuery(%q) = false, want true", msg)
		}
	}
}

func TestIsWorstGradeQuery_Patterns(t *testing.T) {
	// Both keyword orders must match: qualifier-first and noun-first.
	for _, msg := range []string{
		"¿en qué materia tengo la menor calificación?",
		"dime la nota más baja que tengo",
		"¿cuál es el puntaje menor de este semestre?",
	} {
		if !advisor.IsWorstGradeQuery(msg) {
			t.Errorf("IsWorstGradeQuery(%q) = false, want true", msg)
		}
	}
}

func TestIsWorstGradeQuery_Negative(t *testing.T) {
	for _, msg := range []string{
		"hola, ¿cómo estás?",
		"¿qué materias tengo?",
	} {
		if advisor.IsWorstGradeQuery(msg) {
			t.Errorf("IsWorstGradeQuery(%q) = true, want false", msg)
		}
	}
}

func TestIsImprovementQuery_RequiresGradeContext(t *testing.T) {
	if advisor.IsImprovementQuery("quiero mejorar mi inglés") {
		t.Error("improvement wording without grade context should not match")
	}
	if !advisor.IsImprovementQuery("quiero subir mi nota de cálculo") {
		t.Error("improvement wording with grade context should match")
	}
}

func TestIsSyllabusQuery_AccentInsensitive(t *testing.T) {
	for _, msg := range []string{
		"muéstrame el sílabo",
		"que temas vamos a ver",
		"quiero ver el contenido de la materia",
	} {
		if !advisor.IsSyllabusQuery(msg) {
			t.Errorf("IsSyllabusQuery(%q) = false, want true", msg)
		}
	}
}

func TestIsGreeting(t *testing.T) {
	for _, msg := range []string{"hola", "Buenos días", "hey", "holi, qué tal"} {
		if !advisor.IsGreeting(msg) {
			t.Errorf("IsGreeting(%q) = false, want true", msg)
		}
	}
	if advisor.IsGreeting("¿cuál es mi promedio?") {
		t.Error("IsGreeting should not match a plain question")
	}
}

func TestClassify_MultipleIntents(t *testing.T) {
	intents := advisor.Classify("¿cuál es mi peor nota y mi promedio?")

	has := func(want advisor.Intent) bool {
		for _, i := range intents {
			if i == want {
				return true
			}
		}
		return false
	}
	if !has(advisor.IntentWorstGrade) {
		t.Error("Classify should include worst_grade")
	}
	if !has(advisor.IntentAverage) {
		t.Error("Classify should include average")
	}
}

func TestDetectSpecificQuery_ClassroomPattern(t *testing.T) {
	q, ok := advisor.DetectSpecificQuery("¿en qué aula es la clase de cálculo integral?", testEnrollments())
	if !ok {
		t.Fatal("DetectSpecificQuery() = false, want true")
	}
	if q.SubjectName != "Cálculo Integral" {
		t.Errorf("SubjectName = %q, want Cálculo Integral", q.SubjectName)
	}
	if q.Facet != advisor.FacetClassroom {
		t.Errorf("Facet = %v, want classroom", q.Facet)
	}
}

func TestDetectSpecificQuery_GradePattern(t *testing.T) {
	q, ok := advisor.DetectSpecificQuery("¿qué nota tengo en física?", testEnrollments())
	if !ok {
		t.Fatal("DetectSpecificQuery() = false, want true")
	}
	if q.SubjectName != "Física" {
		t.Errorf("SubjectName = %q, want Física", q.SubjectName)
	}
	if q.Facet != advisor.FacetGrade {
		t.Errorf("Facet = %v, want grade", q.Facet)
	}
}

func TestDetectSpecificQuery_SectionPattern(t *testing.T) {
	q, ok := advisor.DetectSpecificQuery("¿qué paralelo tengo de física?", testEnrollments())
	if !ok {
		t.Fatal("DetectSpecificQuery() = false, want true")
	}
	if q.Facet != advisor.FacetSection {
		t.Errorf("Facet = %v, want section", q.Facet)
	}
}

func TestDetectSpecificQuery_DirectScan(t *testing.T) {
	// No anchored pattern applies, but the subject name appears verbatim.
	q, ok := advisor.DetectSpecificQuery("háblame de cálculo integral", testEnrollments())
	if !ok {
		t.Fatal("DetectSpecificQuery() = false, want true")
	}
	if q.SubjectName != "Cálculo Integral" {
		t.Errorf("SubjectName = %q, want Cálculo Integral", q.SubjectName)
	}
	if q.Facet != advisor.FacetGeneral {
		t.Errorf("Facet = %v, want general", q.Facet)
	}
}

func TestDetectSpecificQuery_NoSubject(t *testing.T) {
	if _, ok := advisor.DetectSpecificQuery("¿cuál es mi promedio?", testEnrollments()); ok {
		t.Error("DetectSpecificQuery should not fire without a resolvable subject")
	}
}
