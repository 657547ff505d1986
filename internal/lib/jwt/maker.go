// Package jwt выпускает и проверяет подписанные токены сессии, которые
// связывают браузер с клиентом платёжного провайдера.
package jwt

import (
	"errors"
	"time"
)

// ErrInvalidToken возвращается, если подпись, срок жизни или содержимое токена неверны.
var ErrInvalidToken = errors.New("invalid session token")

// Maker описывает интерфейс для генерации и парсинга токенов сессии.
type Maker interface {
	// GenerateToken подписывает customerID и email клиента.
	GenerateToken(customerID, email string) (string, error)
	// ParseToken проверяет токен и возвращает его claims.
	ParseToken(tokenStr string) (*SessionClaims, error)
	// Configured сообщает, задан ли секрет подписи.
	Configured() bool
}

// MakerImpl реализует Maker на HS256 с секретным ключом и временем жизни токена.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewJWTMaker создаёт MakerImpl. Нулевой ttl означает токен без срока действия.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		now:       time.Now,
	}
}

// Configured сообщает, задан ли секрет подписи.
func (j *MakerImpl) Configured() bool {
	return j != nil && j.secretKey != ""
}
