package convo

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestAppendAndSnapshot(t *testing.T) {
	m := NewManager(0)

	m.Append("s1", SpeakerCaller, "Do you have parking?")
	m.Append("s1", SpeakerAgent, "Yes, we have valet parking.")

	snapshot := m.Snapshot("s1")
	expected := "Caller: Do you have parking?\nAgent: Yes, we have valet parking."
	if snapshot != expected {
		t.Errorf("snapshot mismatch:\n got: %q\nwant: %q", snapshot, expected)
	}
}

func TestSnapshotUnknownSession(t *testing.T) {
	m := NewManager(0)

	if got := m.Snapshot("nope"); got != "" {
		t.Errorf("unknown session must snapshot to empty string, got %q", got)
	}
}

func TestWindowEvictsOldestTurns(t *testing.T) {
	m := NewManager(0)

	for i := 0; i < WindowSize+5; i++ {
		m.Append("s1", SpeakerCaller, fmt.Sprintf("turn %d", i))
	}

	lines := strings.Split(m.Snapshot("s1"), "\n")
	if len(lines) != WindowSize {
		t.Fatalf("expected %d turns retained, got %d", WindowSize, len(lines))
	}
	if lines[0] != "Caller: turn 5" {
		t.Errorf("oldest retained turn wrong: %q", lines[0])
	}
	if lines[len(lines)-1] != fmt.Sprintf("Caller: turn %d", WindowSize+4) {
		t.Errorf("newest turn wrong: %q", lines[len(lines)-1])
	}
}

func TestAppendIgnoresEmpty(t *testing.T) {
	m := NewManager(0)

	m.Append("", SpeakerCaller, "hello")
	m.Append("s1", SpeakerCaller, "")

	if m.Len() != 0 {
		t.Errorf("empty appends must not create sessions, got %d", m.Len())
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	m := NewManager(0)

	m.Append("s1", SpeakerCaller, "question about hours")
	m.Append("s2", SpeakerCaller, "question about parking")

	if got := m.Snapshot("s1"); strings.Contains(got, "parking") {
		t.Errorf("session s1 leaked s2 turns: %q", got)
	}
}

func TestRemove(t *testing.T) {
	m := NewManager(0)

	m.Append("s1", SpeakerCaller, "hello")

	if !m.Remove("s1") {
		t.Error("expected Remove to report true for live session")
	}
	if m.Remove("s1") {
		t.Error("expected Remove to report false for removed session")
	}
	if got := m.Snapshot("s1"); got != "" {
		t.Errorf("removed session still has turns: %q", got)
	}
}

func TestEvictIdle(t *testing.T) {
	m := NewManager(time.Millisecond)

	m.Append("stale", SpeakerCaller, "old turn")
	time.Sleep(5 * time.Millisecond)

	if evicted := m.EvictIdle(); evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if m.Len() != 0 {
		t.Errorf("expected no sessions after eviction, got %d", m.Len())
	}
}
