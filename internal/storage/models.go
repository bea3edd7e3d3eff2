/*
Package storage provides data models for the knowledge base and escalation ledger.

These models represent knowledge entries (seeded business context plus answers
learned from resolved escalations) and help requests (escalations awaiting a
human supervisor).
*/
package storage

import "time"

// EntryType distinguishes seeded knowledge from answers learned via escalation.
type EntryType string

const (
	// EntryTypeBusinessContext marks seeded/curated entries.
	EntryTypeBusinessContext EntryType = "business_context"

	// EntryTypeLearnedAnswer marks entries created from resolved help requests.
	EntryTypeLearnedAnswer EntryType = "learned_answer"
)

// HelpRequestStatus is the lifecycle state of a help request.
// pending is the only non-terminal state; pending->resolved and
// pending->unresolved are the only legal transitions.
type HelpRequestStatus string

const (
	StatusPending    HelpRequestStatus = "pending"
	StatusResolved   HelpRequestStatus = "resolved"
	StatusUnresolved HelpRequestStatus = "unresolved"
)

// KnowledgeEntry is a single question/answer pair in the knowledge base.
type KnowledgeEntry struct {
	// ID is an opaque unique identifier assigned at creation.
	ID string `json:"id"`

	// Question is the canonical question text.
	Question string `json:"question"`

	// Answer is the response text returned to callers.
	Answer string `json:"answer"`

	// Type is business_context or learned_answer.
	Type EntryType `json:"type"`

	// Variations are alternate phrasings used to widen exact matching.
	Variations []string `json:"variations,omitempty"`

	// Tags are free-form labels used for filtered retrieval.
	Tags []string `json:"tags,omitempty"`

	// LearnedFromRequestID back-references the help request this entry was
	// learned from. Audit/display only, never used for ownership.
	LearnedFromRequestID string `json:"learnedFromRequestId,omitempty"`

	// IsActive controls whether the entry participates in matching.
	// Inactive entries are retained for audit.
	IsActive bool `json:"isActive"`

	// UsageCount counts how often this entry was selected as a confident match.
	UsageCount int `json:"usageCount"`

	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

// CreateEntryInput carries the caller-supplied fields for a new entry.
type CreateEntryInput struct {
	Question             string    `json:"question"`
	Answer               string    `json:"answer"`
	Type                 EntryType `json:"type"`
	Variations           []string  `json:"variations,omitempty"`
	Tags                 []string  `json:"tags,omitempty"`
	LearnedFromRequestID string    `json:"learnedFromRequestId,omitempty"`
	IsActive             *bool     `json:"isActive,omitempty"`
}

// UpdateEntryInput carries a partial update. Nil fields are left untouched.
type UpdateEntryInput struct {
	Question   *string   `json:"question,omitempty"`
	Answer     *string   `json:"answer,omitempty"`
	Variations *[]string `json:"variations,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	IsActive   *bool     `json:"isActive,omitempty"`
}

// HelpRequest is an escalation record awaiting (or past) supervisor action.
type HelpRequest struct {
	ID          string `json:"id"`
	Question    string `json:"question"`
	CallerPhone string `json:"callerPhone"`
	CallerName  string `json:"callerName,omitempty"`

	// SessionID correlates the request to a live conversation.
	SessionID string `json:"sessionId,omitempty"`

	// Context is a serialized snapshot of recent dialogue at escalation time.
	Context string `json:"context,omitempty"`

	Status HelpRequestStatus `json:"status"`

	// SupervisorResponse is set only on resolution.
	SupervisorResponse string `json:"supervisorResponse,omitempty"`

	// Timeout is set when the request aged past the configured threshold
	// without resolution.
	Timeout bool `json:"timeout,omitempty"`

	CreatedAt  time.Time  `json:"createdAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

// CreateHelpRequestInput carries the caller-supplied fields for a new request.
// Status is always forced to pending regardless of input.
type CreateHelpRequestInput struct {
	Question    string `json:"question"`
	CallerPhone string `json:"callerPhone"`
	CallerName  string `json:"callerName,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
	Context     string `json:"context,omitempty"`
}

// EntryEmbedding is a cached embedding vector for a knowledge entry.
type EntryEmbedding struct {
	EntryID   string    `json:"entryId"`
	Vector    []float32 `json:"vector"`
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
}
