// internal/models/types.go
package models

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleResident   Role = "resident"
)

var ErrUnknownRole = errors.New("unknown role")

// landingRoutes holds exactly one landing route per role.
var landingRoutes = map[Role]string{
	RoleSuperadmin: "/superadmin/dashboard",
	RoleAdmin:      "/admin/dashboard",
	RoleResident:   "/resident/dashboard",
}

// ParseRole accepts the backend's role string case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := landingRoutes[r]; !ok {
		return "", ErrUnknownRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := landingRoutes[r]
	return ok
}

// LandingRoute returns the page a role lands on after login.
func LandingRoute(r Role) (string, error) {
	path, ok := landingRoutes[r]
	if !ok {
		return "", ErrUnknownRole
	}
	return path, nil
}

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleSuperadmin, RoleAdmin, RoleResident}
}

type Session struct {
	Token     string    `json:"token" yaml:"token"`
	Role      Role      `json:"role" yaml:"role"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type PaymentStatus string

const (
	PaymentInitiated PaymentStatus = "initiated"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

type PaymentIntent struct {
	PaymentID     string        `json:"payment_id"`
	TransactionID string        `json:"transaction_id"`
	Amount        float64       `json:"amount"`
	BillType      string        `json:"bill_type"`
	Method        string        `json:"method"`
	Status        PaymentStatus `json:"status"`
}
