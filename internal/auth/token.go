package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultIssuer     = "meridian-auth"
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// tokenClaims is the wire shape of a signed token.
type tokenClaims struct {
	Role      string `json:"role"`
	TokenKind string `json:"token_kind"`
	jwt.RegisteredClaims
}

// Authority mints and validates signed, self-contained tokens. Validation is
// a pure function of the token and the signing secret; no store round-trip.
type Authority struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// AuthorityOption configures an Authority.
type AuthorityOption func(*Authority)

// WithIssuer overrides the issuer claim.
func WithIssuer(issuer string) AuthorityOption {
	return func(a *Authority) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			a.issuer = issuer
		}
	}
}

// WithAccessTTL overrides the access token lifetime.
func WithAccessTTL(ttl time.Duration) AuthorityOption {
	return func(a *Authority) {
		if ttl > 0 {
			a.accessTTL = ttl
		}
	}
}

// WithRefreshTTL overrides the refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) AuthorityOption {
	return func(a *Authority) {
		if ttl > 0 {
			a.refreshTTL = ttl
		}
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(fn func() time.Time) AuthorityOption {
	return func(a *Authority) {
		if fn != nil {
			a.now = fn
		}
	}
}

// NewAuthority constructs the token authority. The signing secret is
// mandatory; a missing secret must abort process startup, not surface later.
func NewAuthority(secret string, opts ...AuthorityOption) (*Authority, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	a := &Authority{
		secret:     []byte(secret),
		issuer:     defaultIssuer,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// AccessTTL reports the configured access token lifetime.
func (a *Authority) AccessTTL() time.Duration { return a.accessTTL }

// IssueAccess signs a short-lived access token for the identity and role.
func (a *Authority) IssueAccess(identityID int64, role Role) (string, time.Time, error) {
	return a.issue(identityID, role, KindAccess, a.accessTTL)
}

// IssueRefresh signs a refresh token whose sole use is exchanging for a new
// access token.
func (a *Authority) IssueRefresh(identityID int64, role Role) (string, time.Time, error) {
	return a.issue(identityID, role, KindRefresh, a.refreshTTL)
}

func (a *Authority) issue(identityID int64, role Role, kind TokenKind, ttl time.Duration) (string, time.Time, error) {
	if identityID <= 0 {
		return "", time.Time{}, errors.New("auth: identity id is required")
	}
	now := a.now().UTC()
	exp := now.Add(ttl)
	claims := tokenClaims{
		Role:      string(role),
		TokenKind: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   strconv.FormatInt(identityID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Validate verifies signature integrity and expiry and returns the decoded
// claim. Expired tokens fail with ErrTokenExpired; everything else with
// ErrTokenInvalid.
func (a *Authority) Validate(token string) (Claim, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claim{}, ErrTokenInvalid
	}
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenInvalid
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now), jwt.WithIssuer(a.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claim{}, ErrTokenExpired
		}
		return Claim{}, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claim{}, ErrTokenInvalid
	}
	return claims.toClaim()
}

func (c *tokenClaims) toClaim() (Claim, error) {
	identityID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || identityID <= 0 {
		return Claim{}, ErrTokenInvalid
	}
	role, err := ParseRole(c.Role)
	if err != nil {
		return Claim{}, ErrTokenInvalid
	}
	kind := TokenKind(c.TokenKind)
	if kind != KindAccess && kind != KindRefresh {
		return Claim{}, ErrTokenInvalid
	}
	if c.IssuedAt == nil || c.ExpiresAt == nil {
		return Claim{}, ErrTokenInvalid
	}
	return Claim{
		IdentityID: identityID,
		Role:       role,
		Kind:       kind,
		IssuedAt:   c.IssuedAt.Time,
		ExpiresAt:  c.ExpiresAt.Time,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The new
// token reuses the identity id and role embedded in the refresh token; the
// identity store is not consulted, so a role change shows up only after the
// next login.
func (a *Authority) Refresh(refreshToken string) (string, time.Time, error) {
	claim, err := a.Validate(refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	if claim.Kind != KindRefresh {
		return "", time.Time{}, ErrWrongTokenKind
	}
	return a.IssueAccess(claim.IdentityID, claim.Role)
}
