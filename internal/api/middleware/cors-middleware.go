package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// preflightMaxAge はプリフライト結果をブラウザがキャッシュする秒数です。
const preflightMaxAge = 300

// CORSHandler は設定されたオリジンだけを許可するミドルウェアを返します。
// WebSocket のオリジン確認は GameHandler の upgrader が同じリストで行います。
func CORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           preflightMaxAge,
	})
	return c.Handler
}
