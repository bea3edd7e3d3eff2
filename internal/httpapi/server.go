/*
Package httpapi exposes the reception-hub HTTP API.

All responses share one envelope:

	{"success": true, "data": ..., "message": "..."}
	{"success": false, "error": "..."}

Domain errors map onto status codes: validation failures are 400, unknown
ids are 404, and illegal state transitions (e.g. resolving a request twice)
are 409.
*/
package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/frontdesk-ai/reception-hub/internal/agent"
	"github.com/frontdesk-ai/reception-hub/internal/convo"
	"github.com/frontdesk-ai/reception-hub/internal/match"
	"github.com/frontdesk-ai/reception-hub/internal/storage"
)

// envelope is the uniform response shape.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Server wires the domain components to the HTTP routes.
type Server struct {
	store         storage.Store
	engine        *match.Engine
	orchestrator  *agent.Orchestrator
	conversations *convo.Manager
}

// NewServer creates the API server.
func NewServer(store storage.Store, engine *match.Engine, orchestrator *agent.Orchestrator, conversations *convo.Manager) *Server {
	return &Server{
		store:         store,
		engine:        engine,
		orchestrator:  orchestrator,
		conversations: conversations,
	}
}

// Router builds the gin router with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/stats", s.handleStats)

		chat := api.Group("/agent")
		{
			chat.POST("/chat", s.handleChat)
			chat.DELETE("/chat", s.handleEndSession)
		}

		requests := api.Group("/help-requests")
		{
			requests.POST("", s.handleCreateHelpRequest)
			requests.GET("", s.handleListHelpRequests)
			requests.GET("/pending", s.handleListPending)
			requests.GET("/:id", s.handleGetHelpRequest)
			requests.POST("/:id/resolve", s.handleResolveHelpRequest)
		}

		kb := api.Group("/knowledge-base")
		{
			kb.POST("/entries", s.handleCreateEntry)
			kb.GET("/entries", s.handleListEntries)
			kb.GET("/entries/:id", s.handleGetEntry)
			kb.PATCH("/entries/:id", s.handleUpdateEntry)
			kb.DELETE("/entries/:id", s.handleDeleteEntry)
			kb.GET("/search", s.handleSearch)
			kb.POST("/search", s.handleSearch)
			kb.POST("/sync", s.handleSync)
		}
	}

	return router
}

// Run serves the API until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// respondOK writes a success envelope.
func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{Success: true, Data: data})
}

// respondMessage writes a success envelope carrying a message and no data.
func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Success: true, Message: message})
}

// respondError maps a domain error onto the envelope and a status code.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *storage.ValidationError
		notFoundErr   *storage.NotFoundError
		stateErr      *storage.InvalidStateTransitionError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.As(err, &stateErr):
		status = http.StatusConflict
	default:
		log.Printf("Warning: request failed: %v", err)
	}

	c.JSON(status, envelope{Success: false, Error: err.Error()})
}

// respondBadRequest writes a 400 for malformed request bodies.
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Error: "invalid request body: " + err.Error()})
}
