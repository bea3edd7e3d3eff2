/*
Package convo tracks recent dialogue per call session.

Each session keeps a bounded ring of the last 10 turns. The snapshot of a
ring is attached to escalation records so the supervisor sees what led up to
the question. Sessions are owned by a Manager instance passed into the
orchestrator; there is no process-wide session state.
*/
package convo

import (
	"strings"
	"sync"
	"time"
)

// WindowSize is the number of turns retained per session.
const WindowSize = 10

// defaultIdleTimeout is how long a session may sit untouched before the
// eviction sweep removes it.
const defaultIdleTimeout = 30 * time.Minute

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerCaller Speaker = "caller"
	SpeakerAgent  Speaker = "agent"
)

// label renders the speaker for snapshots.
func (s Speaker) label() string {
	switch s {
	case SpeakerCaller:
		return "Caller"
	case SpeakerAgent:
		return "Agent"
	default:
		return string(s)
	}
}

// turn is a single utterance.
type turn struct {
	speaker Speaker
	text    string
}

// session is a bounded ring of recent turns.
type session struct {
	mu         sync.Mutex
	turns      []turn
	lastActive time.Time
}

// Manager owns the per-session conversation windows.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*session
	idleTimeout time.Duration
}

// NewManager creates a conversation manager.
// idleTimeout <= 0 selects the default of 30 minutes.
func NewManager(idleTimeout time.Duration) *Manager {
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}
	return &Manager{
		sessions:    make(map[string]*session),
		idleTimeout: idleTimeout,
	}
}

// Append records a turn for a session, creating the session on first use.
// Appends beyond the window evict the oldest turn.
func (m *Manager) Append(sessionID string, speaker Speaker, text string) {
	if sessionID == "" || text == "" {
		return
	}

	s := m.sessionFor(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, turn{speaker: speaker, text: text})
	if len(s.turns) > WindowSize {
		s.turns = s.turns[len(s.turns)-WindowSize:]
	}
	s.lastActive = time.Now()
}

// Snapshot renders the session's recent turns, oldest first, one
// "<Speaker>: <text>" line per turn. An unknown or empty session yields an
// empty string, not an error.
func (m *Manager) Snapshot(sessionID string) string {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]string, 0, len(s.turns))
	for _, t := range s.turns {
		lines = append(lines, t.speaker.label()+": "+t.text)
	}
	return strings.Join(lines, "\n")
}

// Remove drops a session's window, e.g. when the transport ends the call.
func (m *Manager) Remove(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return false
	}
	delete(m.sessions, sessionID)
	return true
}

// EvictIdle removes sessions idle past the timeout and returns the count.
// Called from the periodic sweep.
func (m *Manager) EvictIdle() int {
	cutoff := time.Now().Add(-m.idleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.lastActive.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// sessionFor returns the session for an id, creating it if needed.
func (m *Manager) sessionFor(sessionID string) *session {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.sessions[sessionID]; ok {
		return s
	}
	s = &session{lastActive: time.Now()}
	m.sessions[sessionID] = s
	return s
}
