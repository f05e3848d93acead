package advisor_test

import (
	"testing"

	"github.com/edubot-ec/edubot/internal/academic"
	"github.com/edubot-ec/edubot/internal/advisor"
)

func testRecords() []academic.SyllabusRecord {
	return []academic.SyllabusRecord{
		{
			SubjectName: "Calculo Integral",
			SectionID:   11,
			Topics: []academic.RawTopic{
				{Title: "Integrales Definidas", Description: "", Week: 1, Subtopics: []academic.RawSubtopic{
					{Title: "Sumas de Riemann"},
				}},
				{Title: "Métodos de Integración", Description: "Técnicas básicas", Week: 2},
			},
		},
		{
			// Same subject, no section id: merges into any section.
			SubjectName: "Cálculo Integral",
			Topics: []academic.RawTopic{
				{Title: "integrales definidas", Description: "Área bajo la curva", Week: 1, Subtopics: []academic.RawSubtopic{
					{Title: "sumas de riemann"},
					{Title: "Teorema Fundamental"},
				}},
				{Title: "Aplicaciones", Week: 3},
			},
		},
		{
			// Different section of the same subject: must not merge.
			SubjectName: "Cálculo Integral",
			SectionID:   99,
			Topics: []academic.RawTopic{
				{Title: "Tema de Otro Paralelo"},
			},
		},
		{
			SubjectName: "Física",
			SectionID:   12,
			Topics:      []academic.RawTopic{{Title: "Cinemática", Week: 1}},
		},
	}
}

func TestAggregate_MergesByNormalizedTitle(t *testing.T) {
	syllabi := advisor.Aggregate(testEnrollments(), testRecords())

	var calc advisor.SubjectSyllabus
	found := false
	for _, s := range syllabi {
		if s.SubjectName == "Cálculo Integral" {
			calc = s
			found = true
		}
	}
	if !found {
		t.Fatal("no syllabus for Cálculo Integral")
	}

	titles := make([]string, len(calc.Topics))
	for i, topic := range calc.Topics {
		titles[i] = topic.Title
	}
	want := []string{"Integrales Definidas", "Métodos de Integración", "Aplicaciones"}
	if len(titles) != len(want) {
		t.Fatalf("topics = %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("topic[%d] = %q, want %q (first-appearance order)", i, titles[i], want[i])
		}
	}
}

func TestAggregate_KeepsFirstNonEmptyDescription(t *testing.T) {
	syllabi := advisor.Aggregate(testEnrollments(), testRecords())

	topic := syllabi[0].Topics[0]
	if topic.Title != "Integrales Definidas" {
		t.Fatalf("first topic = %q", topic.Title)
	}
	// First record's description is empty; the duplicate fills it in.
	if topic.Description != "Área bajo la curva" {
		t.Errorf("description = %q, want the first non-empty one", topic.Description)
	}
}

func TestAggregate_UnionsSubtopics(t *testing.T) {
	syllabi := advisor.Aggregate(testEnrollments(), testRecords())

	subs := syllabi[0].Topics[0].Subtopics
	if len(subs) != 2 {
		t.Fatalf("subtopics = %d, want 2 (deduplicated union)", len(subs))
	}
	if subs[0].Title != "Sumas de Riemann" {
		t.Errorf("first subtopic = %q, want original casing kept", subs[0].Title)
	}
	if subs[1].Title != "Teorema Fundamental" {
		t.Errorf("second subtopic = %q", subs[1].Title)
	}
}

func TestAggregate_SectionMismatchExcluded(t *testing.T) {
	syllabi := advisor.Aggregate(testEnrollments(), testRecords())

	for _, topic := range syllabi[0].Topics {
		if topic.Title == "Tema de Otro Paralelo" {
			t.Error("record from another section must not merge")
		}
	}
}

func TestAggregate_OmitsSubjectsWithoutTopics(t *testing.T) {
	syllabi := advisor.Aggregate(testEnrollments(), testRecords())

	for _, s := range syllabi {
		if s.SubjectName == "Programación Orientada a Objetos" {
			t.Error("subjects without syllabus records must be omitted")
		}
	}
	if len(syllabi) != 2 {
		t.Errorf("syllabi = %d, want 2", len(syllabi))
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	// Feeding duplicated records must not change the outcome.
	doubled := append(testRecords(), testRecords()...)
	once := advisor.Aggregate(testEnrollments(), testRecords())
	twice := advisor.Aggregate(testEnrollments(), doubled)

	if len(once) != len(twice) {
		t.Fatalf("subject count changed: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if len(once[i].Topics) != len(twice[i].Topics) {
			t.Errorf("topic count for %s changed: %d vs %d",
				once[i].SubjectName, len(once[i].Topics), len(twice[i].Topics))
		}
	}
}

func TestFindSyllabus(t *testing.T) {
	syllabi := advisor.Aggregate(testEnrollments(), testRecords())

	s, ok := advisor.FindSyllabus("calculo", syllabi)
	if !ok {
		t.Fatal("FindSyllabus() = false, want true")
	}
	if s.SubjectName != "Cálculo Integral" {
		t.Errorf("SubjectName = %q", s.SubjectName)
	}

	if _, ok := advisor.FindSyllabus("química", syllabi); ok {
		t.Error("FindSyllabus should not match an unknown subject")
	}
}
