package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/frontdesk-ai/reception-hub/internal/agent"
	"github.com/frontdesk-ai/reception-hub/internal/match"
	"github.com/frontdesk-ai/reception-hub/internal/storage"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{"status": "ok"})
}

// handleStats reports queue and knowledge-base counts for dashboards.
func (s *Server) handleStats(c *gin.Context) {
	entries, err := s.store.ListEntries()
	if err != nil {
		respondError(c, err)
		return
	}
	pending, err := s.store.ListPendingHelpRequests()
	if err != nil {
		respondError(c, err)
		return
	}

	active, learned := 0, 0
	for _, e := range entries {
		if e.IsActive {
			active++
		}
		if e.Type == storage.EntryTypeLearnedAnswer {
			learned++
		}
	}

	respondOK(c, http.StatusOK, gin.H{
		"totalEntries":    len(entries),
		"activeEntries":   active,
		"learnedEntries":  learned,
		"pendingRequests": len(pending),
		"activeSessions":  s.conversations.Len(),
	})
}

// handleChat answers one caller question.
func (s *Server) handleChat(c *gin.Context) {
	var input agent.AskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	answer, err := s.orchestrator.AnswerQuestion(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, answer)
}

// handleEndSession drops conversation state for a finished call.
func (s *Server) handleEndSession(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		respondError(c, &storage.ValidationError{Field: "sessionId"})
		return
	}

	if s.orchestrator.EndSession(sessionID) {
		respondMessage(c, http.StatusOK, "session cleared")
		return
	}
	respondMessage(c, http.StatusOK, "session not found")
}

// handleCreateHelpRequest records an escalation directly, outside the agent
// flow (e.g. from a front-desk form).
func (s *Server) handleCreateHelpRequest(c *gin.Context) {
	var input storage.CreateHelpRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	request, err := s.store.CreateHelpRequest(input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, request)
}

// handleListHelpRequests returns all requests, newest first.
func (s *Server) handleListHelpRequests(c *gin.Context) {
	requests, err := s.store.ListHelpRequests()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, requests)
}

// handleListPending returns the open queue, oldest first so supervisors
// work it in arrival order.
func (s *Server) handleListPending(c *gin.Context) {
	requests, err := s.store.ListPendingHelpRequests()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, requests)
}

func (s *Server) handleGetHelpRequest(c *gin.Context) {
	request, err := s.store.GetHelpRequest(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, request)
}

// handleResolveHelpRequest applies a supervisor answer. Resolution also
// creates a learned knowledge entry and triggers the caller follow-up.
func (s *Server) handleResolveHelpRequest(c *gin.Context) {
	var body struct {
		Response string   `json:"response"`
		Tags     []string `json:"tags,omitempty"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, err)
		return
	}

	request, err := s.orchestrator.ResolveEscalation(c.Request.Context(), c.Param("id"), body.Response, body.Tags)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, request)
}

func (s *Server) handleCreateEntry(c *gin.Context) {
	var input storage.CreateEntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	entry, err := s.store.CreateEntry(input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, entry)
}

// handleListEntries returns knowledge entries, newest first.
// ?active=true restricts to active entries.
func (s *Server) handleListEntries(c *gin.Context) {
	var (
		entries []storage.KnowledgeEntry
		err     error
	)
	if activeOnly, _ := strconv.ParseBool(c.Query("active")); activeOnly {
		entries, err = s.store.ListActiveEntries()
	} else {
		entries, err = s.store.ListEntries()
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, entries)
}

func (s *Server) handleGetEntry(c *gin.Context) {
	entry, err := s.store.GetEntry(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, entry)
}

func (s *Server) handleUpdateEntry(c *gin.Context) {
	var input storage.UpdateEntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	entry, err := s.store.UpdateEntry(c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, entry)
}

// handleDeleteEntry deactivates an entry, keeping the record for audit.
// ?permanent=true removes the row and its cached embedding.
func (s *Server) handleDeleteEntry(c *gin.Context) {
	id := c.Param("id")

	if permanent, _ := strconv.ParseBool(c.Query("permanent")); permanent {
		if err := s.store.DeleteEntry(id); err != nil {
			respondError(c, err)
			return
		}
		respondMessage(c, http.StatusOK, "entry deleted")
		return
	}

	if err := s.store.DeactivateEntry(id); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "entry deactivated")
}

// handleSearch runs an administrative search. GET takes query parameters,
// POST takes the same fields as a JSON body.
func (s *Server) handleSearch(c *gin.Context) {
	var params struct {
		Query string   `json:"query" form:"q"`
		Mode  string   `json:"mode" form:"mode"`
		Limit int      `json:"limit" form:"limit"`
		Tags  []string `json:"tags,omitempty" form:"tags"`
	}

	if c.Request.Method == http.MethodGet {
		if err := c.ShouldBindQuery(&params); err != nil {
			respondBadRequest(c, err)
			return
		}
	} else if err := c.ShouldBindJSON(&params); err != nil {
		respondBadRequest(c, err)
		return
	}

	matches, err := s.engine.Search(c.Request.Context(), params.Query, match.Mode(params.Mode), match.Options{
		Limit: params.Limit,
		Tags:  params.Tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if matches == nil {
		matches = []match.Match{}
	}

	respondOK(c, http.StatusOK, matches)
}

// handleSync rebuilds the derived search views from the primary store.
func (s *Server) handleSync(c *gin.Context) {
	count, err := s.engine.Sync(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"entriesIndexed": count})
}
