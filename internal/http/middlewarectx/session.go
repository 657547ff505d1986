// Package middlewarectx содержит HTTP middleware сервера.
//
// SessionMiddleware читает cookie сессии, проверяет подписанный токен и
// кладёт claims в контекст запроса. Без cookie или с неверным токеном
// возвращает 401.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/Lordkro/nullupload/internal/http/response"
	"github.com/Lordkro/nullupload/internal/lib/jwt"
	"github.com/Lordkro/nullupload/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// Claims ключ claims сессии в контексте.
const Claims Key = "session_claims"

// TokenParser проверяет токен сессии.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.SessionClaims, error)
}

// CookieReader читает значение cookie сессии.
type CookieReader interface {
	Read(r *http.Request) string
}

// ClaimsFromContext возвращает claims, положенные SessionMiddleware.
func ClaimsFromContext(ctx context.Context) (*jwt.SessionClaims, bool) {
	claims, ok := ctx.Value(Claims).(*jwt.SessionClaims)
	return claims, ok && claims != nil
}

// RequireConfigured отвечает 500, если хотя бы одна из проверок ложна.
func RequireConfigured(log *slog.Logger, checks ...func() bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, configured := range checks {
				if !configured() {
					log.Error("server not configured",
						slog.String("path", r.URL.Path),
						slog.String("request_id", middleware.GetReqID(r.Context())),
					)
					render.Status(r, http.StatusInternalServerError)
					render.JSON(w, r, response.Error("server not configured"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionMiddleware требует действительную cookie сессии.
func SessionMiddleware(log *slog.Logger, tokens TokenParser, cookies CookieReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token := cookies.Read(r)
			if token == "" {
				log.Info("session cookie missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("not authenticated"))
				return
			}

			claims, err := tokens.ParseToken(token)
			if err != nil {
				log.Warn("invalid session token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid session"))
				return
			}

			ctx := context.WithValue(r.Context(), Claims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
