package auth

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/costumerental-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload is what a caller knows about the staff member at mint time.
type AccessTokenPayload struct {
	StaffID   uuid.UUID
	StaffName string
	Role      enums.StaffRole
	JTI       string
}

// AccessTokenClaims is the staff identity carried in the bearer token.
type AccessTokenClaims struct {
	StaffID   uuid.UUID       `json:"staff_id"`
	StaffName string          `json:"staff_name,omitempty"`
	Role      enums.StaffRole `json:"role"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims checks during parsing.
func (c AccessTokenClaims) Validate() error {
	if c.StaffID == uuid.Nil {
		return fmt.Errorf("staff id is required")
	}
	if !c.Role.IsValid() {
		return fmt.Errorf("invalid staff role %q", c.Role)
	}
	if c.Subject != "" && c.Subject != c.StaffID.String() {
		return fmt.Errorf("subject does not match staff id")
	}
	return nil
}

func (p AccessTokenPayload) claims(issuer string, issued, expires *jwt.NumericDate) AccessTokenClaims {
	jti := strings.TrimSpace(p.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	return AccessTokenClaims{
		StaffID:   p.StaffID,
		StaffName: strings.TrimSpace(p.StaffName),
		Role:      p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.StaffID.String(),
			IssuedAt:  issued,
			NotBefore: issued,
			ExpiresAt: expires,
			ID:        jti,
		},
	}
}
