package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/services/tetris"
)

// NewRouter は全てのエンドポイントを登録したルーターを返します。
//
//	GET  /api/health
//	POST /api/rooms            (認証が必要)
//	GET  /api/rooms/{roomID}
//	GET  /ws/rooms/{roomID}    (認証は最初のメッセージで行う)
func NewRouter(sm *tetris.SessionManager, cfg *config.Config) http.Handler {
	gameHandler := NewGameHandler(sm, cfg)
	publicHandler := NewPublicHandler(sm)

	r := mux.NewRouter()
	r.HandleFunc("/api/health", publicHandler.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/rooms/{roomID}", gameHandler.GetRoomStatus).Methods(http.MethodGet)
	r.HandleFunc("/ws/rooms/{roomID}", gameHandler.HandleWebSocketConnection)

	protectedRouter := r.PathPrefix("/api").Subrouter()
	protectedRouter.Use(middleware.NewAuthMiddleware(cfg))
	protectedRouter.HandleFunc("/rooms", gameHandler.CreateRoom).Methods(http.MethodPost)

	return middleware.CORSHandler(cfg.CORSAllowedOrigins)(r)
}
