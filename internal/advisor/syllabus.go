package advisor

import (
	"strings"

	"github.com/edubot-ec/edubot/internal/academic"
	"github.com/edubot-ec/edubot/internal/textnorm"
)

// SubjectSyllabus is the merged syllabus for one enrolled subject.
type SubjectSyllabus struct {
	SubjectName string
	SectionID   int64
	Topics      []Topic
}

// Topic is a syllabus unit after aggregation. Order preserves first
// appearance across the merged records, not the upstream orden field.
type Topic struct {
	Title       string
	Description string
	Week        int
	Subtopics   []Subtopic
}

// Subtopic is a single item under a topic.
type Subtopic struct {
	Title       string
	Description string
	Resources   string
}

// Aggregate merges raw syllabus records into one syllabus per enrolled
// subject. A record belongs to an enrollment when the subject names are
// equivalent and, if both sides carry a section id, the ids are equal;
// records without a section id match any section of the subject.
//
// Topics are deduplicated by normalized title in first-appearance order,
// keeping the first non-empty description and the union of subtopics
// (themselves deduplicated by normalized title). Subjects that end up with
// zero topics are omitted, as are repeat enrollments in the same subject.
func Aggregate(enrollments []academic.Enrollment, records []academic.SyllabusRecord) []SubjectSyllabus {
	var out []SubjectSyllabus
	seen := make(map[string]bool)

	for _, e := range enrollments {
		key := textnorm.Normalize(e.SubjectName)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		merged := mergeRecords(e, records)
		if len(merged) == 0 {
			continue
		}
		out = append(out, SubjectSyllabus{
			SubjectName: e.SubjectName,
			SectionID:   e.SectionID,
			Topics:      merged,
		})
	}
	return out
}

func recordMatches(e academic.Enrollment, r academic.SyllabusRecord) bool {
	if !textnorm.Equivalent(e.SubjectName, r.SubjectName) {
		return false
	}
	if e.SectionID != 0 && r.SectionID != 0 && e.SectionID != r.SectionID {
		return false
	}
	return true
}

func mergeRecords(e academic.Enrollment, records []academic.SyllabusRecord) []Topic {
	var order []string
	topics := make(map[string]*Topic)
	subSeen := make(map[string]map[string]bool)

	for _, r := range records {
		if !recordMatches(e, r) {
			continue
		}
		for _, raw := range r.Topics {
			key := textnorm.Normalize(raw.Title)
			if key == "" {
				continue
			}
			t, ok := topics[key]
			if !ok {
				t = &Topic{Title: raw.Title, Description: raw.Description, Week: raw.Week}
				topics[key] = t
				subSeen[key] = make(map[string]bool)
				order = append(order, key)
			} else if t.Description == "" && raw.Description != "" {
				t.Description = raw.Description
			}
			for _, sub := range raw.Subtopics {
				subKey := textnorm.Normalize(sub.Title)
				if subKey == "" || subSeen[key][subKey] {
					continue
				}
				subSeen[key][subKey] = true
				t.Subtopics = append(t.Subtopics, Subtopic{
					Title:       sub.Title,
					Description: sub.Description,
					Resources:   sub.Resources,
				})
			}
		}
	}

	out := make([]Topic, 0, len(order))
	for _, key := range order {
		out = append(out, *topics[key])
	}
	return out
}

// FindSyllabus returns the aggregated syllabus for a subject mention, using
// the same resolution rules as free-text subject references.
func FindSyllabus(mention string, syllabi []SubjectSyllabus) (SubjectSyllabus, bool) {
	target := textnorm.Normalize(mention)
	if target == "" {
		return SubjectSyllabus{}, false
	}
	for _, s := range syllabi {
		if textnorm.Equivalent(s.SubjectName, mention) {
			return s, true
		}
	}
	for _, s := range syllabi {
		name := textnorm.Normalize(s.SubjectName)
		if name != "" && (strings.Contains(name, target) || strings.Contains(target, name)) {
			return s, true
		}
	}
	return SubjectSyllabus{}, false
}
