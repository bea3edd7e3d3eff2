package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookNotifySupervisor(t *testing.T) {
	var received SupervisorNotification
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, "", 0)
	err := n.NotifySupervisor(context.Background(), SupervisorNotification{
		RequestID:   "req-1",
		Question:    "Do you do keratin?",
		CallerPhone: "+15551234567",
		Context:     "Caller: Do you do keratin?",
		Timestamp:   "2026-09-01T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("notify failed: %v", err)
	}

	if received.RequestID != "req-1" || received.Question != "Do you do keratin?" {
		t.Errorf("payload mismatch: %+v", received)
	}
}

func TestWebhookNotifyCallerFollowup(t *testing.T) {
	var received CallerFollowup
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier("", server.URL, 0)
	err := n.NotifyCallerFollowup(context.Background(), CallerFollowup{
		RequestID:          "req-1",
		CallerPhone:        "+15551234567",
		SupervisorResponse: "Yes, we do keratin treatments.",
		Timestamp:          "2026-09-01T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("notify failed: %v", err)
	}

	if received.SupervisorResponse != "Yes, we do keratin treatments." {
		t.Errorf("payload mismatch: %+v", received)
	}
}

func TestWebhookErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, "", 0)
	if err := n.NotifySupervisor(context.Background(), SupervisorNotification{}); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestWebhookEmptyURLDisablesChannel(t *testing.T) {
	n := NewWebhookNotifier("", "", 0)
	if err := n.NotifySupervisor(context.Background(), SupervisorNotification{}); err != nil {
		t.Fatalf("empty URL must be a no-op, got %v", err)
	}
}

func TestMultiReturnsFirstError(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	calls := 0
	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer working.Close()

	m := Multi{
		NewWebhookNotifier(failing.URL, "", 0),
		NewWebhookNotifier(working.URL, "", 0),
	}

	err := m.NotifySupervisor(context.Background(), SupervisorNotification{})
	if err == nil {
		t.Fatal("expected the failing sink's error")
	}
	// All sinks still get the notification
	if calls != 1 {
		t.Errorf("working sink not called, calls=%d", calls)
	}
}
