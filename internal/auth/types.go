package auth

import (
	"strings"
	"time"
)

// Role is drawn from the platform's closed set. Tokens carry a copy of the
// role at issuance time; the identity record stays the source of truth.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSupport  Role = "support"
	RoleAuditor  Role = "auditor"
	RoleAdmin    Role = "admin"
)

// Roles lists every role the platform recognises.
var Roles = []Role{RoleCustomer, RoleSupport, RoleAuditor, RoleAdmin}

// ParseRole normalises and validates a role name against the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(strings.ToLower(s)))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", ErrInvalidRole
}

// Identity is a registered principal. PasswordHash is the only credential
// ever persisted; it never leaves the service.
type Identity struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenKind tags a signed token as usable for requests or for renewal only.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claim is the verified payload of a presented token, derived at validation
// time and never stored.
type Claim struct {
	IdentityID int64
	Role       Role
	Kind       TokenKind
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// TokenPair bundles the credentials minted at login.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}
