// Package middleware はローカルAPIのHTTPミドルウェアを提供する。
package middleware

import (
	"net/http"

	"github.com/hitoshi/lovendar/internal/model"
)

// SessionChecker はログイン状態を返す。
// auth.Managerが実装する。
type SessionChecker interface {
	IsAuthenticated() bool
}

// NewSessionMiddleware はログイン済みの場合のみ後続のハンドラーを呼ぶミドルウェアを返す。
// 未ログインのリクエストには401とNOT_AUTHENTICATEDを返す。
func NewSessionMiddleware(session SessionChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !session.IsAuthenticated() {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
