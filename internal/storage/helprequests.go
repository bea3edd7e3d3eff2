package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const helpRequestColumns = `id, question, normalized_question, caller_phone, caller_name,
	session_id, context, status, supervisor_response, timeout, created_at, resolved_at`

// CreateHelpRequest inserts a new escalation record.
// Status is always pending regardless of caller-supplied fields; question and
// callerPhone are required since the phone is the follow-up channel.
func (s *SQLiteStore) CreateHelpRequest(input CreateHelpRequestInput) (*HelpRequest, error) {
	if input.Question == "" {
		return nil, &ValidationError{Field: "question"}
	}
	if input.CallerPhone == "" {
		return nil, &ValidationError{Field: "callerPhone"}
	}

	now := time.Now().UTC()
	request := &HelpRequest{
		ID:          uuid.NewString(),
		Question:    input.Question,
		CallerPhone: input.CallerPhone,
		CallerName:  input.CallerName,
		SessionID:   input.SessionID,
		Context:     input.Context,
		Status:      StatusPending,
		CreatedAt:   now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO help_requests
			(id, question, normalized_question, caller_phone, caller_name,
			 session_id, context, status, timeout, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'pending', 0, ?)
	`,
		request.ID, request.Question, NormalizeText(request.Question),
		request.CallerPhone, request.CallerName, request.SessionID,
		request.Context, now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert help request: %w", err)
	}

	return request, nil
}

// GetHelpRequest fetches a single help request by id.
func (s *SQLiteStore) GetHelpRequest(id string) (*HelpRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		"SELECT "+helpRequestColumns+" FROM help_requests WHERE id = ?", id)

	request, err := scanHelpRequest(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "help request", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan help request: %w", err)
	}

	return request, nil
}

// ListPendingHelpRequests returns the supervisor queue, oldest first (FIFO).
func (s *SQLiteStore) ListPendingHelpRequests() ([]HelpRequest, error) {
	return s.listHelpRequests(
		"SELECT " + helpRequestColumns + " FROM help_requests WHERE status = 'pending' ORDER BY created_at ASC")
}

// ListHelpRequests returns all help requests, newest first.
func (s *SQLiteStore) ListHelpRequests() ([]HelpRequest, error) {
	return s.listHelpRequests(
		"SELECT " + helpRequestColumns + " FROM help_requests ORDER BY created_at DESC")
}

func (s *SQLiteStore) listHelpRequests(query string) ([]HelpRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query help requests: %w", err)
	}
	defer rows.Close()

	var requests []HelpRequest
	for rows.Next() {
		request, err := scanHelpRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan help request: %w", err)
		}
		requests = append(requests, *request)
	}

	return requests, rows.Err()
}

// FindPendingBySession returns the pending request matching a session and
// normalized question, or nil when none exists. Used for escalation dedup.
func (s *SQLiteStore) FindPendingBySession(sessionID, normalizedQuestion string) (*HelpRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT `+helpRequestColumns+`
		FROM help_requests
		WHERE session_id = ? AND normalized_question = ? AND status = 'pending'
		ORDER BY created_at ASC
		LIMIT 1
	`, sessionID, normalizedQuestion)

	request, err := scanHelpRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan pending help request: %w", err)
	}

	return request, nil
}

// ResolveHelpRequest transitions a pending request to resolved.
// The transition is guarded: resolving a non-pending record returns an
// InvalidStateTransitionError, which keeps retried resolutions from producing
// duplicate learned entries downstream.
func (s *SQLiteStore) ResolveHelpRequest(id, supervisorResponse string) (*HelpRequest, error) {
	if supervisorResponse == "" {
		return nil, &ValidationError{Field: "supervisorResponse"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resolvedAt := time.Now().UTC()
	result, err := s.db.Exec(`
		UPDATE help_requests
		SET status = 'resolved', supervisor_response = ?, resolved_at = ?
		WHERE id = ? AND status = 'pending'
	`, supervisorResponse, resolvedAt.Format(time.RFC3339), id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve help request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		// Either unknown id or a terminal record; distinguish for the caller.
		row := s.db.QueryRow("SELECT status FROM help_requests WHERE id = ?", id)
		var status string
		if scanErr := row.Scan(&status); scanErr == sql.ErrNoRows {
			return nil, &NotFoundError{Kind: "help request", ID: id}
		} else if scanErr != nil {
			return nil, fmt.Errorf("failed to check help request status: %w", scanErr)
		}
		return nil, &InvalidStateTransitionError{
			ID:   id,
			From: HelpRequestStatus(status),
			To:   StatusResolved,
		}
	}

	row := s.db.QueryRow("SELECT "+helpRequestColumns+" FROM help_requests WHERE id = ?", id)
	request, err := scanHelpRequest(row)
	if err != nil {
		return nil, fmt.Errorf("failed to reload resolved help request: %w", err)
	}

	return request, nil
}

// MarkTimedOut transitions pending requests older than the threshold to
// unresolved and sets their timeout flag. The single UPDATE makes the batch
// atomic, and re-running it is a no-op for already-unresolved records.
func (s *SQLiteStore) MarkTimedOut(threshold time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-threshold).Format(time.RFC3339)

	result, err := s.db.Exec(`
		UPDATE help_requests
		SET status = 'unresolved', timeout = 1
		WHERE status = 'pending' AND created_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to mark timed-out help requests: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return int(affected), nil
}

func scanHelpRequest(row rowScanner) (*HelpRequest, error) {
	var request HelpRequest
	var normalized, status, createdAt string
	var callerName, sessionID, context, supervisorResponse, resolvedAt sql.NullString
	var timeout int

	if err := row.Scan(
		&request.ID, &request.Question, &normalized, &request.CallerPhone,
		&callerName, &sessionID, &context, &status,
		&supervisorResponse, &timeout, &createdAt, &resolvedAt,
	); err != nil {
		return nil, err
	}

	request.CallerName = callerName.String
	request.SessionID = sessionID.String
	request.Context = context.String
	request.Status = HelpRequestStatus(status)
	request.SupervisorResponse = supervisorResponse.String
	request.Timeout = timeout == 1

	var err error
	if request.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at: %w", err)
	}
	if resolvedAt.Valid && resolvedAt.String != "" {
		t, err := time.Parse(time.RFC3339, resolvedAt.String)
		if err != nil {
			return nil, fmt.Errorf("bad resolved_at: %w", err)
		}
		request.ResolvedAt = &t
	}

	return &request, nil
}
