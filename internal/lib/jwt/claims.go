package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims данные, которые хранятся в cookie сессии.
type SessionClaims struct {
	CustomerID string `json:"customerId"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken создаёт HS256-токен с customerID и email.
func (j *MakerImpl) GenerateToken(customerID, email string) (string, error) {
	const op = "jwt.GenerateToken"
	if !j.Configured() {
		return "", fmt.Errorf("%s: signing secret is not set", op)
	}
	if customerID == "" {
		return "", fmt.Errorf("%s: empty customer id", op)
	}

	now := j.now()
	claims := SessionClaims{
		CustomerID: customerID,
		Email:      email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if j.tokenTTL != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(j.tokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок действия токена и возвращает SessionClaims.
// Любая ошибка проверки оборачивает ErrInvalidToken.
func (j *MakerImpl) ParseToken(tokenStr string) (*SessionClaims, error) {
	const op = "jwt.ParseToken"
	if !j.Configured() {
		return nil, fmt.Errorf("%s: signing secret is not set", op)
	}

	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	if claims.CustomerID == "" {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, errors.New("missing customer id"))
	}
	return claims, nil
}
