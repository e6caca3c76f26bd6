// Package middleware содержит HTTP middleware для сервиса wakeup-challenge.
package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"net/http"
)

// Заголовки с общими секретами входных точек.
const (
	// APIKeyHeader передаёт секрет публичного API.
	APIKeyHeader = "X-Api-Key"
	// InternalSecretHeader передаёт секрет внутреннего периодического триггера.
	InternalSecretHeader = "X-Internal-Router-Secret"
)

// SecretAuth проверяет общий секрет в заголовке запроса до запуска бизнес-логики.
type SecretAuth struct {
	header string
	secret []byte
}

// NewSecretAuth создаёт middleware, ожидающее секрет в указанном заголовке.
func NewSecretAuth(header, secret string) *SecretAuth {
	return &SecretAuth{
		header: header,
		secret: []byte(secret),
	}
}

// Middleware отклоняет запрос с неверным секретом кодом 401.
func (a *SecretAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.valid(r.Header.Get(a.header)) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// valid сравнивает секреты за постоянное время.
func (a *SecretAuth) valid(presented string) bool {
	if len(a.secret) == 0 || presented == "" {
		return false
	}

	expected := sha256.Sum256(a.secret)
	got := sha256.Sum256([]byte(presented))

	return hmac.Equal(expected[:], got[:])
}
