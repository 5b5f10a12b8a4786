package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tallyworks/licensing-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	TenantID uuid.UUID
	Role     enums.APIRole
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to billing API clients.
type AccessTokenClaims struct {
	TenantID uuid.UUID     `json:"tenant_id"`
	Role     enums.APIRole `json:"role"`
	jwt.RegisteredClaims
}
