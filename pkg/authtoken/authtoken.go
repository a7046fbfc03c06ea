// Package authtoken provides service-to-service bearer token issuing and
// validation, and a gRPC interceptor that enforces it.
package authtoken

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config настройки бирера токенов между сервисами.
type Config struct {
	Enabled    bool
	SecretKey  string
	Issuer     string
	TokenTTL   time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию (auth отключён).
func DefaultConfig() *Config {
	return &Config{
		Enabled:   false,
		SecretKey: "change-me-in-production",
		Issuer:    "tikapipe-svc",
		TokenTTL:  1 * time.Hour,
	}
}

// Claims claims сервисного токена.
type Claims struct {
	ServiceName string `json:"service_name"`
	jwt.RegisteredClaims
}

// Manager выпускает и проверяет сервисные bearer-токены.
type Manager struct {
	config *Config
}

// NewManager создаёт новый Manager.
func NewManager(cfg *Config) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Manager{config: cfg}
}

// Issue выпускает токен для вызывающего сервиса.
func (m *Manager) Issue(serviceName string) (string, error) {
	now := time.Now()
	claims := &Claims{
		ServiceName: serviceName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   serviceName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// Validate проверяет токен и возвращает claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.config.SecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
