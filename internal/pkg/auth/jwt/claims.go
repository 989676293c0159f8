package jwt

import (
	"github.com/golang-jwt/jwt/v5"

	"layoutsync/internal/app/session"
)

// Claims is the JWT claim set minted by the external auth service and
// consumed by the gateway. It carries the identity the collaboration
// engine needs and nothing else.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the stable identifier of the authenticated user.
	UserID string `json:"uid"`

	// UserName is the display name shown to other collaborators.
	UserName string `json:"name"`

	// Role gates elevated operations such as rollback.
	Role session.Role `json:"role"`
}
