/*
Package agent orchestrates the answer-or-escalate flow for caller questions.

Every incoming question is matched against the knowledge base; a confident
match answers directly and records usage, anything else becomes a deduped
help request for a human supervisor. Supervisor resolutions flow back as
learned knowledge entries so the same question never escalates twice.
*/
package agent

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/frontdesk-ai/reception-hub/internal/convo"
	"github.com/frontdesk-ai/reception-hub/internal/match"
	"github.com/frontdesk-ai/reception-hub/internal/notify"
	"github.com/frontdesk-ai/reception-hub/internal/storage"
)

// Caller-facing responses. The caller always hears natural language, never
// a raw error.
const (
	msgEscalated = "Let me check with my supervisor and get back to you. Please hold for just a moment."
	msgPending   = "I'm still checking with my supervisor on that one. Thank you for your patience."
	msgFallback  = "I'm sorry, I'm having a little trouble right now. I've noted your question and we'll follow up with you shortly."
)

// notifyTimeout bounds a notification delivery so it can never stall the
// caller-facing response.
const notifyTimeout = 10 * time.Second

// Source reports where an answer came from.
type Source string

const (
	SourceKnowledgeBase Source = "knowledge_base"
	SourceEscalation    Source = "escalation"
	SourceAgent         Source = "agent"
)

// AskInput is one caller question within a session.
type AskInput struct {
	Question    string `json:"message"`
	SessionID   string `json:"sessionId"`
	CallerPhone string `json:"callerPhone"`
	CallerName  string `json:"callerName,omitempty"`
}

// Answer is the orchestrator's response for one question.
type Answer struct {
	Text      string `json:"response"`
	Source    Source `json:"source"`
	Escalated bool   `json:"escalated"`

	// RequestID is set when the question escalated (new or deduped).
	RequestID string `json:"requestId,omitempty"`

	// EntryID and Confidence are set when answered from the knowledge base.
	EntryID    string     `json:"entryId,omitempty"`
	Confidence match.Tier `json:"confidence,omitempty"`
}

// Orchestrator routes questions between the match engine, the escalation
// ledger and the notification channels.
type Orchestrator struct {
	store         storage.Store
	engine        *match.Engine
	conversations *convo.Manager
	notifier      notify.Notifier

	// Per-session serialization: the escalation dedup check must observe
	// prior escalations of the same session before creating new ones.
	mu           sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

// New creates an orchestrator. A nil notifier disables notifications.
func New(store storage.Store, engine *match.Engine, conversations *convo.Manager, notifier notify.Notifier) *Orchestrator {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Orchestrator{
		store:         store,
		engine:        engine,
		conversations: conversations,
		notifier:      notifier,
		sessionLocks:  make(map[string]*sync.Mutex),
	}
}

// AnswerQuestion handles one caller question.
//
// Validation failures are returned as errors for the transport to reject.
// Internal failures are logged and produce the safe fallback acknowledgement
// instead of an error: no partial state has been committed in that case and
// the caller still hears a sentence.
func (o *Orchestrator) AnswerQuestion(ctx context.Context, input AskInput) (*Answer, error) {
	if input.Question == "" {
		return nil, &storage.ValidationError{Field: "message"}
	}
	if input.SessionID == "" {
		return nil, &storage.ValidationError{Field: "sessionId"}
	}
	if input.CallerPhone == "" {
		return nil, &storage.ValidationError{Field: "callerPhone"}
	}

	unlock := o.lockSession(input.SessionID)
	defer unlock()

	o.conversations.Append(input.SessionID, convo.SpeakerCaller, input.Question)

	matches, err := o.engine.Match(ctx, input.Question, match.Options{Limit: 1})
	if err != nil {
		log.Printf("Warning: match failed for session %s: %v", input.SessionID, err)
		return o.fallback(input.SessionID), nil
	}

	if len(matches) > 0 && matches[0].Answerable() {
		return o.answerFromKnowledgeBase(input, matches[0]), nil
	}

	return o.escalate(ctx, input), nil
}

// answerFromKnowledgeBase commits to a confident match: usage is recorded
// and the stored answer returned.
func (o *Orchestrator) answerFromKnowledgeBase(input AskInput, m match.Match) *Answer {
	if err := o.store.IncrementUsage(m.Entry.ID); err != nil {
		log.Printf("Warning: failed to record usage for entry %s: %v", m.Entry.ID, err)
	}

	o.conversations.Append(input.SessionID, convo.SpeakerAgent, m.Entry.Answer)

	return &Answer{
		Text:       m.Entry.Answer,
		Source:     SourceKnowledgeBase,
		Escalated:  false,
		EntryID:    m.Entry.ID,
		Confidence: m.Tier,
	}
}

// escalate routes an unanswerable question to the supervisor queue.
// A pending request for the same session and normalized question is reused
// instead of duplicated.
func (o *Orchestrator) escalate(ctx context.Context, input AskInput) *Answer {
	normalized := storage.NormalizeText(input.Question)

	existing, err := o.store.FindPendingBySession(input.SessionID, normalized)
	if err != nil {
		log.Printf("Warning: escalation dedup check failed for session %s: %v", input.SessionID, err)
		return o.fallback(input.SessionID)
	}
	if existing != nil {
		o.conversations.Append(input.SessionID, convo.SpeakerAgent, msgPending)
		return &Answer{
			Text:      msgPending,
			Source:    SourceEscalation,
			Escalated: true,
			RequestID: existing.ID,
		}
	}

	request, err := o.store.CreateHelpRequest(storage.CreateHelpRequestInput{
		Question:    input.Question,
		CallerPhone: input.CallerPhone,
		CallerName:  input.CallerName,
		SessionID:   input.SessionID,
		Context:     o.conversations.Snapshot(input.SessionID),
	})
	if err != nil {
		log.Printf("Warning: failed to create help request for session %s: %v", input.SessionID, err)
		return o.fallback(input.SessionID)
	}

	o.notifySupervisor(request)
	o.conversations.Append(input.SessionID, convo.SpeakerAgent, msgEscalated)

	return &Answer{
		Text:      msgEscalated,
		Source:    SourceEscalation,
		Escalated: true,
		RequestID: request.ID,
	}
}

// fallback produces the safe acknowledgement used on internal failure.
func (o *Orchestrator) fallback(sessionID string) *Answer {
	o.conversations.Append(sessionID, convo.SpeakerAgent, msgFallback)
	return &Answer{
		Text:      msgFallback,
		Source:    SourceAgent,
		Escalated: false,
	}
}

// ResolveEscalation applies a supervisor's answer: the ledger entry is
// resolved (pending-only, guarded), a learned knowledge entry is created
// exactly once, and the caller follow-up goes out best-effort.
func (o *Orchestrator) ResolveEscalation(ctx context.Context, requestID, supervisorResponse string, tags []string) (*storage.HelpRequest, error) {
	request, err := o.store.ResolveHelpRequest(requestID, supervisorResponse)
	if err != nil {
		return nil, err
	}

	// The transition guard above makes this at-most-once per request: a
	// retried resolve fails before reaching entry creation.
	entry, err := o.store.CreateEntry(storage.CreateEntryInput{
		Question:             request.Question,
		Answer:               supervisorResponse,
		Type:                 storage.EntryTypeLearnedAnswer,
		LearnedFromRequestID: request.ID,
		Tags:                 tags,
	})
	if err != nil {
		// The resolution is committed and stands; the knowledge write-back
		// failed and needs supervisor attention.
		log.Printf("Warning: resolved request %s but failed to create learned entry: %v", request.ID, err)
		return request, nil
	}

	if _, err := o.engine.Sync(ctx); err != nil {
		log.Printf("Warning: sync after learning entry %s failed: %v", entry.ID, err)
	}

	o.notifyCallerFollowup(request, supervisorResponse)

	return request, nil
}

// EndSession drops all per-session state for a finished call.
func (o *Orchestrator) EndSession(sessionID string) bool {
	o.mu.Lock()
	delete(o.sessionLocks, sessionID)
	o.mu.Unlock()

	return o.conversations.Remove(sessionID)
}

// notifySupervisor delivers the escalation notification. Failures are
// logged, never propagated: the help request is already durable.
func (o *Orchestrator) notifySupervisor(request *storage.HelpRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	err := o.notifier.NotifySupervisor(ctx, notify.SupervisorNotification{
		RequestID:   request.ID,
		Question:    request.Question,
		CallerPhone: request.CallerPhone,
		CallerName:  request.CallerName,
		Context:     request.Context,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("Warning: supervisor notification for request %s failed: %v", request.ID, err)
	}
}

// notifyCallerFollowup delivers the resolution follow-up. Best-effort.
func (o *Orchestrator) notifyCallerFollowup(request *storage.HelpRequest, supervisorResponse string) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	err := o.notifier.NotifyCallerFollowup(ctx, notify.CallerFollowup{
		RequestID:          request.ID,
		CallerPhone:        request.CallerPhone,
		SupervisorResponse: supervisorResponse,
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("Warning: caller follow-up for request %s failed: %v", request.ID, err)
	}
}

// lockSession serializes question handling within one session. Cross-session
// calls run concurrently.
func (o *Orchestrator) lockSession(sessionID string) func() {
	o.mu.Lock()
	lock, ok := o.sessionLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		o.sessionLocks[sessionID] = lock
	}
	o.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
