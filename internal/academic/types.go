// Package academic fetches a student's enrollment and syllabus records from
// the university records API and normalizes them into typed structs at the
// boundary.
package academic

import "encoding/json"

// Enrollment is one subject the student is registered in for the active
// term, flattened from the nested wire shape. Optional fields are empty
// strings or nil pointers; SectionID is 0 when the record carries none.
type Enrollment struct {
	SubjectName   string   `json:"subject_name"`
	SectionID     int64    `json:"section_id,omitempty"`
	Classroom     string   `json:"classroom,omitempty"`
	SectionNumber string   `json:"section_number,omitempty"`
	Career        string   `json:"career,omitempty"`
	Grade         *float64 `json:"grade,omitempty"` // 0-100, nil until published
}

// Graded reports whether a grade has been published for this enrollment.
func (e Enrollment) Graded() bool {
	return e.Grade != nil
}

// SyllabusRecord is one raw syllabus entry as returned by the records API.
// Several records may describe the same subject (per-section duplicates);
// the advisor merges them. A zero SectionID matches any section.
type SyllabusRecord struct {
	SubjectName string
	SectionID   int64
	Topics      []RawTopic
}

// RawTopic is a planned topic inside a raw syllabus record.
type RawTopic struct {
	Title       string
	Description string
	Week        int // 0 when unplanned
	Order       int
	Subtopics   []RawSubtopic
}

// RawSubtopic is a planned subtopic inside a raw topic.
type RawSubtopic struct {
	Title       string
	Description string
	Resources   string
	Order       int
}

// Wire DTOs. The records API nests enrollment data three levels deep
// (inscripcion -> paralelo -> materia) and is inconsistent about where the
// subject lives on syllabus records (materia vs id_Materia).

type enrollmentDTO struct {
	Calificacion *float64    `json:"calificacion"`
	Carrera      *careerDTO  `json:"carrera"`
	Paralelo     *sectionDTO `json:"paralelo"`
}

type careerDTO struct {
	Nombre string `json:"nombre"`
}

type sectionDTO struct {
	ID             int64       `json:"id_Paralelo"`
	Aula           string      `json:"aula"`
	NumeroParalelo json.Number `json:"numero_paralelo"`
	Materia        *subjectDTO `json:"materia"`
}

type subjectDTO struct {
	Nombre string `json:"nombre"`
}

type syllabusDTO struct {
	Materia   *subjectDTO `json:"materia"`
	IDMateria *subjectDTO `json:"id_Materia"`
	Paralelo  *sectionDTO `json:"paralelo"`
	Temas     []topicDTO  `json:"temas"`
}

type topicDTO struct {
	Titulo      string        `json:"titulo"`
	Descripcion string        `json:"descripcion"`
	Semana      int           `json:"semana"`
	Orden       int           `json:"orden"`
	Subtemas    []subtopicDTO `json:"subtemas"`
}

type subtopicDTO struct {
	Titulo      string `json:"titulo"`
	Descripcion string `json:"descripcion"`
	Recursos    string `json:"recursos"`
	Orden       int    `json:"orden"`
}

func (d enrollmentDTO) toEnrollment() (Enrollment, bool) {
	if d.Paralelo == nil || d.Paralelo.Materia == nil || d.Paralelo.Materia.Nombre == "" {
		return Enrollment{}, false
	}
	e := Enrollment{
		SubjectName: d.Paralelo.Materia.Nombre,
		SectionID:   d.Paralelo.ID,
		Classroom:   d.Paralelo.Aula,
		Grade:       d.Calificacion,
	}
	if s := d.Paralelo.NumeroParalelo.String(); s != "" && s != "0" {
		e.SectionNumber = s
	}
	if d.Carrera != nil {
		e.Career = d.Carrera.Nombre
	}
	return e, true
}

func (d syllabusDTO) toRecord() (SyllabusRecord, bool) {
	subject := ""
	if d.Materia != nil {
		subject = d.Materia.Nombre
	}
	if subject == "" && d.IDMateria != nil {
		subject = d.IDMateria.Nombre
	}
	if subject == "" {
		return SyllabusRecord{}, false
	}

	rec := SyllabusRecord{SubjectName: subject}
	if d.Paralelo != nil {
		rec.SectionID = d.Paralelo.ID
	}
	for _, t := range d.Temas {
		if t.Titulo == "" {
			continue
		}
		topic := RawTopic{
			Title:       t.Titulo,
			Description: t.Descripcion,
			Week:        t.Semana,
			Order:       t.Orden,
		}
		for _, s := range t.Subtemas {
			if s.Titulo == "" {
				continue
			}
			topic.Subtopics = append(topic.Subtopics, RawSubtopic{
				Title:       s.Titulo,
				Description: s.Descripcion,
				Resources:   s.Recursos,
				Order:       s.Orden,
			})
		}
		rec.Topics = append(rec.Topics, topic)
	}
	return rec, true
}
