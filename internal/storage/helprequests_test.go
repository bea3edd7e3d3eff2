package storage

import (
	"errors"
	"testing"
	"time"
)

// backdate rewrites a request's created_at so ordering and timeout behavior
// can be tested deterministically despite second-precision timestamps.
func backdate(t *testing.T, store *SQLiteStore, id string, age time.Duration) {
	t.Helper()

	created := time.Now().UTC().Add(-age).Format(time.RFC3339)
	if _, err := store.db.Exec(
		"UPDATE help_requests SET created_at = ? WHERE id = ?", created, id); err != nil {
		t.Fatalf("failed to backdate request: %v", err)
	}
}

func TestCreateHelpRequest(t *testing.T) {
	store := newTestStore(t)

	request, err := store.CreateHelpRequest(CreateHelpRequestInput{
		Question:    "Do you do keratin treatments?",
		CallerPhone: "+15551234567",
		CallerName:  "Priya",
		SessionID:   "session-1",
		Context:     "Caller: Do you do keratin treatments?",
	})
	if err != nil {
		t.Fatalf("failed to create help request: %v", err)
	}

	if request.Status != StatusPending {
		t.Errorf("new request must be pending, got %s", request.Status)
	}
	if request.Timeout {
		t.Error("new request must not be flagged timed out")
	}

	loaded, err := store.GetHelpRequest(request.ID)
	if err != nil {
		t.Fatalf("failed to get help request: %v", err)
	}
	if loaded.Question != request.Question || loaded.SessionID != "session-1" {
		t.Errorf("round-trip mismatch: %+v", loaded)
	}
}

func TestCreateHelpRequestValidation(t *testing.T) {
	store := newTestStore(t)

	var validationErr *ValidationError

	if _, err := store.CreateHelpRequest(CreateHelpRequestInput{CallerPhone: "+1555"}); !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError for missing question, got %v", err)
	}
	if _, err := store.CreateHelpRequest(CreateHelpRequestInput{Question: "q"}); !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError for missing callerPhone, got %v", err)
	}
}

func TestListPendingFIFO(t *testing.T) {
	store := newTestStore(t)

	oldest, _ := store.CreateHelpRequest(CreateHelpRequestInput{Question: "first", CallerPhone: "+1"})
	middle, _ := store.CreateHelpRequest(CreateHelpRequestInput{Question: "second", CallerPhone: "+1"})
	newest, _ := store.CreateHelpRequest(CreateHelpRequestInput{Question: "third", CallerPhone: "+1"})

	backdate(t, store, oldest.ID, 3*time.Hour)
	backdate(t, store, middle.ID, 2*time.Hour)
	backdate(t, store, newest.ID, 1*time.Hour)

	pending, err := store.ListPendingHelpRequests()
	if err != nil {
		t.Fatalf("failed to list pending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending requests, got %d", len(pending))
	}
	// Supervisors work the queue oldest first
	if pending[0].ID != oldest.ID || pending[2].ID != newest.ID {
		t.Errorf("pending queue not FIFO: %s, %s, %s", pending[0].Question, pending[1].Question, pending[2].Question)
	}

	all, err := store.ListHelpRequests()
	if err != nil {
		t.Fatalf("failed to list all: %v", err)
	}
	// Full listing is newest first
	if all[0].ID != newest.ID || all[2].ID != oldest.ID {
		t.Errorf("full listing not newest-first: %s, %s, %s", all[0].Question, all[1].Question, all[2].Question)
	}
}

func TestResolveHelpRequest(t *testing.T) {
	store := newTestStore(t)

	request, _ := store.CreateHelpRequest(CreateHelpRequestInput{
		Question: "q", CallerPhone: "+1",
	})

	resolved, err := store.ResolveHelpRequest(request.ID, "Yes, we do.")
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}

	if resolved.Status != StatusResolved {
		t.Errorf("expected resolved status, got %s", resolved.Status)
	}
	if resolved.SupervisorResponse != "Yes, we do." {
		t.Errorf("supervisor response not stored: %q", resolved.SupervisorResponse)
	}
	if resolved.ResolvedAt == nil {
		t.Error("expected resolvedAt to be stamped")
	}
}

func TestResolveGuards(t *testing.T) {
	store := newTestStore(t)

	request, _ := store.CreateHelpRequest(CreateHelpRequestInput{Question: "q", CallerPhone: "+1"})

	var validationErr *ValidationError
	if _, err := store.ResolveHelpRequest(request.ID, ""); !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError for empty response, got %v", err)
	}

	var notFound *NotFoundError
	if _, err := store.ResolveHelpRequest("no-such-id", "answer"); !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError for unknown id, got %v", err)
	}

	if _, err := store.ResolveHelpRequest(request.ID, "first answer"); err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}

	// A second resolve must be rejected, not silently repeated
	var stateErr *InvalidStateTransitionError
	_, err := store.ResolveHelpRequest(request.ID, "second answer")
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected InvalidStateTransitionError on double resolve, got %v", err)
	}
	if stateErr.From != StatusResolved {
		t.Errorf("expected transition from resolved, got %s", stateErr.From)
	}

	loaded, _ := store.GetHelpRequest(request.ID)
	if loaded.SupervisorResponse != "first answer" {
		t.Errorf("second resolve overwrote the response: %q", loaded.SupervisorResponse)
	}
}

func TestMarkTimedOut(t *testing.T) {
	store := newTestStore(t)

	stale, _ := store.CreateHelpRequest(CreateHelpRequestInput{Question: "old", CallerPhone: "+1"})
	fresh, _ := store.CreateHelpRequest(CreateHelpRequestInput{Question: "new", CallerPhone: "+1"})
	resolvedStale, _ := store.CreateHelpRequest(CreateHelpRequestInput{Question: "done", CallerPhone: "+1"})

	backdate(t, store, stale.ID, 48*time.Hour)
	backdate(t, store, resolvedStale.ID, 48*time.Hour)
	if _, err := store.ResolveHelpRequest(resolvedStale.ID, "answered"); err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}

	count, err := store.MarkTimedOut(24 * time.Hour)
	if err != nil {
		t.Fatalf("failed to mark timed out: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 timed-out request, got %d", count)
	}

	loaded, _ := store.GetHelpRequest(stale.ID)
	if loaded.Status != StatusUnresolved || !loaded.Timeout {
		t.Errorf("stale request not transitioned: status=%s timeout=%v", loaded.Status, loaded.Timeout)
	}

	// Fresh pending and resolved records are untouched
	if loaded, _ := store.GetHelpRequest(fresh.ID); loaded.Status != StatusPending {
		t.Errorf("fresh request transitioned: %s", loaded.Status)
	}
	if loaded, _ := store.GetHelpRequest(resolvedStale.ID); loaded.Status != StatusResolved {
		t.Errorf("resolved request transitioned: %s", loaded.Status)
	}

	// Idempotent: a second sweep finds nothing
	count, err = store.MarkTimedOut(24 * time.Hour)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 on second sweep, got %d", count)
	}
}

func TestFindPendingBySession(t *testing.T) {
	store := newTestStore(t)

	request, _ := store.CreateHelpRequest(CreateHelpRequestInput{
		Question:    "Do you have parking?",
		CallerPhone: "+1",
		SessionID:   "session-1",
	})

	found, err := store.FindPendingBySession("session-1", NormalizeText("Do You Have Parking?  "))
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if found == nil || found.ID != request.ID {
		t.Fatalf("expected to find pending request, got %+v", found)
	}

	// Other sessions never dedup against it
	if found, _ := store.FindPendingBySession("session-2", NormalizeText("Do you have parking?")); found != nil {
		t.Errorf("found request across sessions: %+v", found)
	}

	// Once resolved it no longer blocks re-escalation
	if _, err := store.ResolveHelpRequest(request.ID, "yes"); err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if found, _ := store.FindPendingBySession("session-1", NormalizeText("Do you have parking?")); found != nil {
		t.Errorf("resolved request still deduping: %+v", found)
	}
}
