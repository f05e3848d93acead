package advisor

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/edubot-ec/edubot/internal/textnorm"
)

// ChatTurn is a single generative-chat exchange kept in the rolling history.
type ChatTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// OptionSubtopic is a subtopic listed under a selectable topic option.
type OptionSubtopic struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// TopicOption is one numbered entry in a pending topic selection.
type TopicOption struct {
	ID          int              `json:"id"`
	Subject     string           `json:"subject"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Subtopics   []OptionSubtopic `json:"subtopics,omitempty"`
}

// Selection sources.
const (
	SelectionFromRoadmap  = "roadmap"
	SelectionFromSyllabus = "syllabus"
)

// TopicSelection is the pending multiple-choice state set after the bot
// enumerates topics and waits for the student to pick one.
type TopicSelection struct {
	Source  string        `json:"source"`
	Options []TopicOption `json:"options"`
	Prompt  string        `json:"prompt"`
}

// SessionContext carries what the conversation remembers between turns.
type SessionContext struct {
	LastMentionedSubject string          `json:"last_mentioned_subject,omitempty"`
	LastQueryType        string          `json:"last_query_type,omitempty"`
	PendingAction        string          `json:"pending_action,omitempty"`
	Selection            *TopicSelection `json:"selection,omitempty"`
}

// Session is one student's conversation with the advisor.
type Session struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Context   SessionContext `json:"context"`
	History   []ChatTurn     `json:"history"`
	StartedAt time.Time      `json:"started_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
}

// ResetContext clears remembered subject, intent and any pending selection.
// The generative history survives a reset; only advising state is dropped.
func (s *Session) ResetContext() {
	s.Context = SessionContext{}
}

// Remember records the subject and intent of the turn just handled.
func (s *Session) Remember(subject string, intent Intent) {
	if subject != "" {
		s.Context.LastMentionedSubject = subject
	}
	s.Context.LastQueryType = intent.String()
}

// SelectionOutcome says how a message relates to a pending selection.
type SelectionOutcome int

const (
	// SelectionNone: the message is an ordinary new turn; state is kept.
	SelectionNone SelectionOutcome = iota
	// SelectionPicked: an option (and possibly a subtopic) was chosen.
	SelectionPicked
	// SelectionReprompt: the student is clearly trying to pick but the
	// reference did not resolve; re-emit the prompt with a reminder.
	SelectionReprompt
)

var (
	optionNumberPattern    = regexp.MustCompile(`\b(\d{1,2})\b`)
	selectionIntentKeyword = []string{"tema", "subtema", "opcion", "numero", "repasar", "contenido"}
)

// ResolveSelection interprets a message against a pending topic selection.
// Resolution order: bare 1-2 digit number matching an option id, then
// topic title by normalized substring, then subtopic title, then selection
// keywords (reprompt). Anything else passes through as a new turn.
func ResolveSelection(message string, sel *TopicSelection) (TopicOption, *OptionSubtopic, SelectionOutcome) {
	if sel == nil || len(sel.Options) == 0 {
		return TopicOption{}, nil, SelectionNone
	}
	norm := textnorm.Normalize(message)

	if m := optionNumberPattern.FindStringSubmatch(norm); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			for _, opt := range sel.Options {
				if opt.ID == n {
					return opt, nil, SelectionPicked
				}
			}
		}
	}

	for _, opt := range sel.Options {
		title := textnorm.Normalize(opt.Title)
		if title == "" {
			continue
		}
		if strings.Contains(norm, title) || (len(norm) >= 4 && strings.Contains(title, norm)) {
			return opt, nil, SelectionPicked
		}
	}

	for _, opt := range sel.Options {
		for i := range opt.Subtopics {
			title := textnorm.Normalize(opt.Subtopics[i].Title)
			if title == "" {
				continue
			}
			if strings.Contains(norm, title) || (len(norm) >= 4 && strings.Contains(title, norm)) {
				return opt, &opt.Subtopics[i], SelectionPicked
			}
		}
	}

	for _, kw := range selectionIntentKeyword {
		if strings.Contains(norm, kw) {
			return TopicOption{}, nil, SelectionReprompt
		}
	}

	return TopicOption{}, nil, SelectionNone
}
