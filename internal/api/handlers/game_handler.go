package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket" // WebSocketライブラリ

	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/services/tetris" // SessionManager をインポート
)

// upgrader はHTTP接続をWebSocketプロトコルにアップグレードするための設定です。
// Origin のチェックは CORS ミドルウェアと同じ許可リストで行います。
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// ブラウザ以外のクライアントは Origin を送らない
			return origin == "" || allowed["*"] || allowed[origin]
		},
	}
}

// GameHandler はゲーム関連のHTTPリクエスト（部屋作成、状態取得、WebSocket接続）を処理します。
type GameHandler struct {
	sessionManager *tetris.SessionManager // ルームの管理サービス
	cfg            *config.Config
	upgrader       websocket.Upgrader
}

// NewGameHandler は新しい GameHandler インスタンスを作成します。
//
// Parameters:
//
//	sm  : セッションマネージャーへのポインタ
//	cfg : 認証とAI難易度の設定
//
// Returns:
//
//	*GameHandler: 新しく作成された GameHandler のポインタ
func NewGameHandler(sm *tetris.SessionManager, cfg *config.Config) *GameHandler {
	return &GameHandler{
		sessionManager: sm,
		cfg:            cfg,
		upgrader:       newUpgrader(cfg.CORSAllowedOrigins),
	}
}

// WriteErrorResponse はエラーレスポンスをJSON形式で書き込みます。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// WriteJSONResponse はJSONレスポンスを書き込みます。
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[GameHandler] Failed to encode response: %v", err)
	}
}

// CreateRoomRequest は部屋作成リクエストのボディです。
type CreateRoomRequest struct {
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty"`
}

// CreateRoomResponse は部屋作成レスポンスのボディです。
// 認証が無効な場合、WebSocket接続で名乗るための user_id を返します。
type CreateRoomResponse struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
	Mode   string `json:"mode"`
}

// CreateRoom は新しいルームを作成するためのHTTPハンドラーです。
// リクエストを送ったユーザーがルームのオーナーになります。
func (h *GameHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req CreateRoomRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "リクエストボディのパースに失敗しました")
			return
		}
	}

	mode, err := tetris.ParseMode(req.Mode)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	difficulty := h.cfg.AIDifficulty
	if mode == tetris.ModeDemo {
		difficulty = config.DemoDifficulty
	}
	if req.Difficulty != "" {
		if difficulty, err = config.ParseDifficulty(req.Difficulty); err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	roomID, err := h.sessionManager.CreateRoom(userID, mode, difficulty)
	if err != nil {
		log.Printf("[GameHandler] Failed to create room for user %s: %v", userID, err)
		WriteErrorResponse(w, http.StatusInternalServerError, fmt.Sprintf("ルームの作成に失敗しました: %v", err))
		return
	}

	WriteJSONResponse(w, http.StatusCreated, CreateRoomResponse{RoomID: roomID, UserID: userID, Mode: string(mode)})
}

// GetRoomStatus は特定のルームの現在の状態を返すハンドラーです。
func (h *GameHandler) GetRoomStatus(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomID"]
	if roomID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "ルームIDが必要です")
		return
	}

	status, err := h.sessionManager.GetRoomStatus(roomID)
	if errors.Is(err, tetris.ErrRoomNotFound) {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたルームは見つかりませんでした")
		return
	}
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSONResponse(w, http.StatusOK, status)
}

// HandleWebSocketConnection はHTTP接続をWebSocketプロトコルにアップグレードし、
// 認証メッセージを受け取った後、コネクションをセッションマネージャーに引き渡します。
func (h *GameHandler) HandleWebSocketConnection(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomID"]
	if roomID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "WebSocket接続にはルームIDが必要です")
		return
	}
	if _, err := h.sessionManager.GetRoomStatus(roomID); err != nil {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたルームは見つかりませんでした")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[GameHandler] Failed to upgrade to websocket for room %s: %v", roomID, err)
		return // アップグレード失敗時はエラーログのみ
	}

	userID, err := authenticateConnection(conn, h.cfg)
	if err != nil {
		log.Printf("[GameHandler] WebSocket auth failed for room %s: %v", roomID, err)
		conn.WriteJSON(tetris.ServerMessage{Type: "error", Error: err.Error()})
		conn.Close()
		return
	}

	// 以降のコネクションは SessionManager が管理する
	if err := h.sessionManager.RegisterClient(roomID, userID, conn); err != nil {
		log.Printf("[GameHandler] Failed to register client %s to room %s: %v", userID, roomID, err)
		conn.WriteJSON(tetris.ServerMessage{Type: "error", Error: err.Error()})
		conn.Close()
		return
	}
}
