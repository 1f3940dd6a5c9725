package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/config"
)

// authTimeout は接続後に認証メッセージを待つ時間です。
const authTimeout = 10 * time.Second

// ExtractUserIDFromContext はリクエストのコンテキストからユーザーIDを抽出します。
func ExtractUserIDFromContext(r *http.Request) (string, error) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || userID == "" {
		return "", errors.New("ユーザーIDがコンテキストに見つかりません")
	}
	return userID, nil
}

// authMessage はWebSocket接続の最初に送られる認証メッセージです。
// 認証が無効な場合は token の代わりに user_id で名乗れます。
type authMessage struct {
	Type   string `json:"type"`
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// authenticateConnection は最初のメッセージを読み、接続したユーザーのIDを返します。
func authenticateConnection(conn *websocket.Conn, cfg *config.Config) (string, error) {
	conn.SetReadDeadline(time.Now().Add(authTimeout))
	defer conn.SetReadDeadline(time.Time{})

	_, message, err := conn.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("failed to read auth message: %w", err)
	}

	var msg authMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return "", fmt.Errorf("failed to parse auth message: %w", err)
	}
	if msg.Type != "auth" {
		return "", fmt.Errorf("expected auth message, got %q", msg.Type)
	}

	if !cfg.AuthEnabled() {
		if msg.UserID != "" {
			return msg.UserID, nil
		}
		return uuid.New().String(), nil
	}
	return middleware.ParseToken(msg.Token, cfg.AuthJWTSecret)
}
