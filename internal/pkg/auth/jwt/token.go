/*
Package jwt handles the bearer credentials that guard every connection.

Tokens themselves are minted by the external auth service; this package
validates them at the gateway and, for development and tests, can
generate compatible tokens.
*/
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"layoutsync/internal/app/session"
)

const (
	// TokenIssuer identifies tokens accepted by this service.
	TokenIssuer = "layoutsync"

	// DevTokenExpiration is the lifetime of locally generated dev tokens.
	DevTokenExpiration = 24 * time.Hour
)

// GenerateToken signs a token for the given identity. Production tokens
// come from the auth service; this exists for development and tests.
func GenerateToken(userID, userName string, role session.Role, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    TokenIssuer,
		},
		UserID:   userID,
		UserName: userName,
		Role:     role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(secretKey))
}

// ParseToken validates the token string and returns its claims.
func ParseToken(tokenString string, secretKey string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	if claims.UserID == "" {
		return nil, errors.New("token missing user identity")
	}

	return claims, nil
}
