package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/edubot-ec/edubot/internal/academic"
	"github.com/edubot-ec/edubot/internal/ai"
	"github.com/edubot-ec/edubot/internal/textnorm"
)

const historyWindow = 11 // turns kept after the system prompt on generative calls

// EngineConfig holds dependencies for the advising engine.
type EngineConfig struct {
	Source    academic.Source
	AIRouter  *ai.Router
	Responder *Responder
	Store     SessionStore
	Events    EventLogger
	Budget    ai.BudgetChecker
}

// Engine is the conversation core. Each turn it checks pending selection
// state, classifies intent, fetches academic records when the turn needs
// them, renders a deterministic reply, and falls back to the generative
// provider chain for everything else.
type Engine struct {
	source    academic.Source
	aiRouter  *ai.Router
	responder *Responder
	store     SessionStore
	events    EventLogger
	budget    ai.BudgetChecker
}

// NewEngine creates an advising engine. Source and Responder are required;
// everything else has a working default.
func NewEngine(cfg EngineConfig) *Engine {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	var events EventLogger = cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	responder := cfg.Responder
	if responder == nil {
		responder = NewResponder(nil)
	}
	return &Engine{
		source:    cfg.Source,
		aiRouter:  cfg.AIRouter,
		responder: responder,
		store:     store,
		events:    events,
		budget:    cfg.Budget,
	}
}

// Store exposes the session store for transports and reports.
func (e *Engine) Store() SessionStore { return e.store }

// Replies for failure modes outside the student's control.
const (
	unauthenticatedReply = "Tu sesión expiró. Vuelve a iniciar sesión para que pueda consultar tus datos académicos."
	upstreamDownReply    = "No pude acceder a tus datos académicos en este momento. Inténtalo de nuevo en unos minutos."
	technicalReply       = "Estoy teniendo un problema técnico. Inténtalo de nuevo en un momento."
)

// HandleMessage processes one student turn and returns the reply text.
// Failure modes map to fixed replies; the error return is reserved for
// context cancellation.
func (e *Engine) HandleMessage(ctx context.Context, sess *Session, message string, tokens academic.TokenSource) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "Cuéntame qué necesitas saber de tus materias.", nil
	}

	slog.Info("processing message",
		"session_id", sess.ID,
		"user_id", sess.UserID,
		"text_len", len(message),
	)

	reply, err := e.respond(ctx, sess, message, tokens)
	if err != nil {
		return "", err
	}

	if saveErr := e.store.Save(sess); saveErr != nil {
		slog.Error("failed to save session", "session_id", sess.ID, "error", saveErr)
	}
	return reply, nil
}

func (e *Engine) respond(ctx context.Context, sess *Session, message string, tokens academic.TokenSource) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	// A pending topic selection outranks everything else.
	if sel := sess.Context.Selection; sel != nil {
		opt, sub, outcome := ResolveSelection(message, sel)
		switch outcome {
		case SelectionPicked:
			sess.Context.Selection = nil
			sess.Remember(opt.Subject, IntentSyllabus)
			e.logIntent(sess, "topic_selected", map[string]any{"subject": opt.Subject, "topic": opt.Title})
			return e.responder.TopicDetailReply(opt, sub), nil
		case SelectionReprompt:
			return e.responder.RepromptReply(sel), nil
		}
		// SelectionNone: ordinary turn, the selection stays pending.
	}

	if IsAcademicQuery(message) {
		return e.academicReply(ctx, sess, message, tokens)
	}

	if IsGreeting(message) {
		e.logIntent(sess, IntentGreeting.String(), nil)
		return e.responder.GreetingReply(), nil
	}

	return e.generativeReply(ctx, sess, message), nil
}

// academicReply fetches records and walks the dispatch table in fixed
// priority order: specific subject question first, then syllabus, average,
// best, worst, roadmap or improvement, grades, subject list, classroom or
// section, and a general overview last.
func (e *Engine) academicReply(ctx context.Context, sess *Session, message string, tokens academic.TokenSource) (string, error) {
	token, err := tokens.Token(ctx)
	if err != nil {
		slog.Warn("token unavailable", "session_id", sess.ID, "error", err)
		return unauthenticatedReply, nil
	}

	enrollments, err := e.source.Enrollments(ctx, token)
	if err != nil {
		return e.fetchFailureReply(sess, err), nil
	}

	var syllabi []SubjectSyllabus
	wantsSyllabus := IsSyllabusQuery(message) || IsRoadmapQuery(message) || IsImprovementQuery(message)
	if wantsSyllabus {
		records, err := e.source.SyllabusRecords(ctx, token)
		if err != nil {
			slog.Warn("syllabus fetch failed, answering without it",
				"session_id", sess.ID, "error", err)
		} else {
			syllabi = Aggregate(enrollments, records)
		}
	}

	mentioned := mentionedSubject(message, enrollments)

	// A subject-scoped question outranks every general intent. The one
	// exception: a bare subject mention on a syllabus or study-plan turn
	// carries no facet of its own, so those branches keep it.
	if q, ok := DetectSpecificQuery(message, enrollments); ok && !(wantsSyllabus && q.Facet == FacetGeneral) {
		sess.Remember(q.SubjectName, IntentSpecific)
		e.logIntent(sess, IntentSpecific.String(), map[string]any{
			"subject": q.SubjectName,
			"facet":   q.Facet.String(),
		})
		return e.responder.SpecificReply(q, enrollments), nil
	}

	for _, entry := range []struct {
		intent Intent
		match  func(string) bool
		render func() string
	}{
		{IntentSyllabus, IsSyllabusQuery, func() string {
			return e.responder.SyllabusReply(message, enrollments, syllabi, sess)
		}},
		{IntentAverage, IsAverageQuery, func() string { return e.responder.AverageReply(enrollments) }},
		{IntentBestGrade, IsBestGradeQuery, func() string { return e.responder.BestGradeReply(enrollments) }},
		{IntentWorstGrade, IsWorstGradeQuery, func() string { return e.responder.WorstGradeReply(enrollments) }},
		{IntentRoadmap, func(m string) bool { return IsRoadmapQuery(m) || IsImprovementQuery(m) }, func() string {
			return e.responder.RoadmapReply(enrollments, syllabi, sess)
		}},
		{IntentGrade, IsGradeRelated, func() string { return e.responder.GradesReply(enrollments) }},
		{IntentSubjectList, IsSubjectQuery, func() string { return e.responder.SubjectsReply(enrollments) }},
		{IntentClassroom, func(m string) bool { return IsClassroomQuery(m) || IsSectionQuery(m) }, func() string {
			if IsClassroomQuery(message) {
				return e.responder.ClassroomReply(enrollments)
			}
			return e.responder.SectionReply(enrollments)
		}},
	} {
		if entry.match(message) {
			sess.Remember(mentioned, entry.intent)
			e.logIntent(sess, entry.intent.String(), nil)
			return entry.render(), nil
		}
	}

	sess.Remember(mentioned, IntentNone)
	e.logIntent(sess, "general_overview", nil)
	return e.responder.GeneralReply(enrollments), nil
}

// mentionedSubject returns the first enrolled subject whose normalized name
// appears verbatim in the message, or "" when none does. The turn's subject
// memory is refreshed with it regardless of which intent wins.
func mentionedSubject(message string, enrollments []academic.Enrollment) string {
	norm := textnorm.Normalize(message)
	for _, e := range enrollments {
		name := textnorm.Normalize(e.SubjectName)
		if len(name) >= 3 && strings.Contains(norm, name) {
			return e.SubjectName
		}
	}
	return ""
}

func (e *Engine) fetchFailureReply(sess *Session, err error) string {
	var upstream *academic.UpstreamError
	switch {
	case errors.Is(err, academic.ErrUnauthenticated):
		slog.Warn("academic fetch unauthenticated", "session_id", sess.ID)
		return unauthenticatedReply
	case errors.As(err, &upstream):
		slog.Error("academic upstream failed",
			"session_id", sess.ID,
			"endpoint", upstream.Endpoint,
			"status", upstream.Status,
		)
		return upstreamDownReply
	default:
		slog.Error("academic fetch failed", "session_id", sess.ID, "error", err)
		return upstreamDownReply
	}
}

const advisorSystemPrompt = `Eres un asistente académico universitario amable y directo.
Respondes en español, en tono cercano pero profesional.
Ayudas con dudas generales de estudio, organización y motivación.
No inventes calificaciones ni datos académicos del estudiante; si te los piden, indica que los consultas solo desde el registro oficial.
Respuestas cortas, esto es un chat.`

// generativeReply handles non-academic small talk through the provider
// chain, carrying a rolling history truncated to the last turns.
func (e *Engine) generativeReply(ctx context.Context, sess *Session, message string) string {
	sess.History = append(sess.History, ChatTurn{Role: "user", Content: message, CreatedAt: time.Now()})
	if len(sess.History) > historyWindow {
		sess.History = sess.History[len(sess.History)-historyWindow:]
	}

	if e.aiRouter == nil || !e.aiRouter.HasProvider() {
		return e.fallbackReply(message)
	}
	if e.budget != nil {
		ok, err := e.budget.Check(sess.UserID)
		if err != nil {
			slog.Warn("budget check failed", "user_id", sess.UserID, "error", err)
		} else if !ok {
			return "Has alcanzado el límite de consultas generales por hoy. Sigo pudiendo responder sobre tus calificaciones, materias y sílabos."
		}
	}

	messages := []ai.Message{{Role: "system", Content: advisorSystemPrompt}}
	for _, turn := range sess.History {
		messages = append(messages, ai.Message{Role: turn.Role, Content: turn.Content})
	}

	resp, err := e.aiRouter.Complete(ctx, ai.CompletionRequest{
		Messages:  messages,
		Task:      ai.TaskAdvising,
		MaxTokens: 512,
	})
	if err != nil {
		slog.Error("AI completion failed", "session_id", sess.ID, "error", err)
		return e.fallbackReply(message)
	}

	if e.budget != nil {
		if err := e.budget.Record(sess.UserID, resp.TotalTokens()); err != nil {
			slog.Warn("budget record failed", "user_id", sess.UserID, "error", err)
		}
	}

	sess.History = append(sess.History, ChatTurn{Role: "assistant", Content: resp.Content, CreatedAt: time.Now()})
	return resp.Content
}

// fallbackReply keeps the bot useful when no generative provider answers.
func (e *Engine) fallbackReply(message string) string {
	if IsGreeting(message) {
		return e.responder.GreetingReply()
	}
	return "Puedo ayudarte con tus calificaciones, promedio, aulas, paralelos, sílabos y planes de estudio. ¿Qué quieres consultar?"
}

func (e *Engine) logIntent(sess *Session, intent string, data map[string]any) {
	err := e.events.LogEvent(Event{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		EventType: fmt.Sprintf("intent.%s", intent),
		Data:      data,
	})
	if err != nil {
		slog.Debug("event logging failed", "intent", intent, "error", err)
	}
}
