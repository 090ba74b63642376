package jwt

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"quicklift/internal/domain/user"
)

// Claims defines our canonical JWT claims payload.
type Claims struct {
	Role user.Role `json:"role"` // user role for RBAC (RIDER/DRIVER/ADMIN)
	// DriverID carries the driver profile id for driver tokens so handlers
	// don't resolve it per request.
	DriverID string `json:"driver_id,omitempty"`
	jwtlib.RegisteredClaims
}

// ensure Claims implements jwtlib.Claims interface
var _ jwtlib.Claims = (*Claims)(nil)

// NewUserClaims constructs end-user claims (rider/driver/admin).
func NewUserClaims(userID string, role user.Role, driverID string, ttl time.Duration) *Claims {
	now := time.Now().UTC()
	return &Claims{
		Role:     role,
		DriverID: driverID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
}
