package handlers

import (
	"net/http"

	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/services/tetris"
)

// PublicHandler handles public API endpoints
type PublicHandler struct {
	sessionManager *tetris.SessionManager
}

// NewPublicHandler creates a new instance of PublicHandler
func NewPublicHandler(sm *tetris.SessionManager) *PublicHandler {
	return &PublicHandler{sessionManager: sm}
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
}

// Health reports that the server is up and how many rooms are active.
// GET /api/health
func (h *PublicHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSONResponse(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Rooms:  h.sessionManager.RoomCount(),
	})
}
