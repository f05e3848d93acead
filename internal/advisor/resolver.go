package advisor

import (
	"strings"

	"github.com/edubot-ec/edubot/internal/academic"
	"github.com/edubot-ec/edubot/internal/textnorm"
)

// ResolveSubject maps a free-form mention to an enrolled subject name.
// Matching runs in two rounds over normalized text: containment in either
// direction first, then a token-overlap pass where any candidate token
// longer than four characters found inside the mention counts. That lets
// "integrales" land on "Cálculo Integral" while keeping short tokens like
// "de" or "las" from matching everything.
//
// The returned name is the enrollment's original spelling. First enrolled
// match wins in both rounds.
func ResolveSubject(mention string, enrollments []academic.Enrollment) (string, bool) {
	target := textnorm.Normalize(mention)
	if target == "" {
		return "", false
	}

	for _, e := range enrollments {
		name := textnorm.Normalize(e.SubjectName)
		if name == "" {
			continue
		}
		// Mentions under three characters match almost any name, so the
		// name-contains-mention direction requires a real word.
		if strings.Contains(target, name) || (len(target) >= 3 && strings.Contains(name, target)) {
			return e.SubjectName, true
		}
	}

	for _, e := range enrollments {
		for _, token := range strings.Fields(textnorm.Normalize(e.SubjectName)) {
			if len(token) > 4 && strings.Contains(target, token) {
				return e.SubjectName, true
			}
		}
	}

	return "", false
}
