// Package cookie выставляет и очищает httpOnly cookie сессии.
package cookie

import (
	"net/http"
	"time"
)

// DefaultName имя cookie сессии.
const DefaultName = "nullupload_session"

// DefaultMaxAge срок жизни cookie сессии.
const DefaultMaxAge = 30 * 24 * time.Hour

// Session описывает параметры cookie сессии.
type Session struct {
	Name   string
	MaxAge time.Duration
}

// NewSession возвращает Session; пустые значения заменяются значениями по умолчанию.
func NewSession(name string, maxAge time.Duration) Session {
	if name == "" {
		name = DefaultName
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return Session{Name: name, MaxAge: maxAge}
}

// Set выставляет cookie с подписанным токеном.
func (s Session) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, s.cookie(token, int(s.MaxAge.Seconds())))
}

// Clear сбрасывает cookie (Max-Age=0).
func (s Session) Clear(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", -1))
}

// Read возвращает значение cookie из запроса. Пустая строка означает отсутствие cookie.
func (s Session) Read(r *http.Request) string {
	c, err := r.Cookie(s.Name)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s Session) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
