package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// contextKey はコンテキスト値のキー衝突を防ぐための非公開型。
type contextKey string

// requestIDKey はリクエストIDをコンテキストに格納するキー。
const requestIDKey contextKey = "request_id"

// NewRequestIDMiddleware は各リクエストにUUIDのリクエストIDを採番し、
// コンテキストとX-Request-IDレスポンスヘッダーに設定するミドルウェアを返す。
// クライアントがX-Request-IDを送ってきた場合はそれを引き継ぐ。
func NewRequestIDMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}

			w.Header().Set("X-Request-ID", requestID)

			ctx := context.WithValue(r.Context(), requestIDKey, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext はコンテキストからリクエストIDを取得する。
func RequestIDFromContext(ctx context.Context) (string, error) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		return "", fmt.Errorf("request ID not found in context")
	}
	return requestID, nil
}
