package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meridianbank.org/internal/obs"
)

// AuditRecorder is the append-only sink for security-relevant events. Write
// failures are non-fatal to the primary operation.
type AuditRecorder interface {
	Record(ctx context.Context, identityID *int64, action, detail string) error
}

// Service orchestrates registration, login, token refresh and role changes.
// Token issuance and validation are pure computations; the identity store is
// the only shared mutable resource, accessed per request.
type Service struct {
	store  IdentityStore
	tokens *Authority
	audit  AuditRecorder
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithAudit attaches the audit sink.
func WithAudit(rec AuditRecorder) ServiceOption {
	return func(s *Service) {
		if rec != nil {
			s.audit = rec
		}
	}
}

// NewService constructs the orchestration layer.
func NewService(store IdentityStore, tokens *Authority, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: identity store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token authority is required")
	}
	s := &Service{store: store, tokens: tokens}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegisterInput carries the fields required to create an identity.
type RegisterInput struct {
	FullName string
	Email    string
	Phone    string
	Password string
}

// Register creates a new identity with role customer. Only the password hash
// is persisted, never the plaintext.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Identity, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.FullName == "" || in.Email == "" || in.Phone == "" || in.Password == "" {
		return Identity{}, fmt.Errorf("%w: full_name, email, phone and password are required", ErrValidation)
	}
	if !IsStrongPassword(in.Password) {
		return Identity{}, ErrWeakPassword
	}

	// Pre-check is an optimization; the store's uniqueness constraint is the
	// authoritative guard against racing registrations.
	if _, err := s.store.FindByEmail(ctx, in.Email); err == nil {
		return Identity{}, ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return Identity{}, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return Identity{}, err
	}
	identity := Identity{
		FullName:     in.FullName,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         RoleCustomer,
	}
	if err := s.store.Create(ctx, &identity); err != nil {
		return Identity{}, err
	}
	s.record(ctx, &identity.ID, "auth.register", identity.Email)
	return identity, nil
}

// LoginResult bundles the minted tokens with a sanitized identity summary.
type LoginResult struct {
	Identity Identity
	Tokens   TokenPair
}

// Login verifies credentials and mints an access/refresh token pair carrying
// the identity's current role. An unknown email and a wrong password yield
// the identical ErrInvalidCredentials, closing the user-enumeration side
// channel.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	identity, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.record(ctx, nil, "auth.login.failed", email)
			obs.ObserveLoginFailure()
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !VerifyPassword(password, identity.PasswordHash) {
		s.record(ctx, &identity.ID, "auth.login.failed", email)
		obs.ObserveLoginFailure()
		return LoginResult{}, ErrInvalidCredentials
	}

	access, accessExp, err := s.tokens.IssueAccess(identity.ID, identity.Role)
	if err != nil {
		return LoginResult{}, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(identity.ID, identity.Role)
	if err != nil {
		return LoginResult{}, err
	}
	obs.ObserveTokenIssued(string(KindAccess))
	obs.ObserveTokenIssued(string(KindRefresh))
	s.record(ctx, &identity.ID, "auth.login", identity.Email)
	return LoginResult{
		Identity: *identity,
		Tokens: TokenPair{
			AccessToken:      access,
			RefreshToken:     refresh,
			AccessExpiresAt:  accessExp,
			RefreshExpiresAt: refreshExp,
		},
	}, nil
}

// Refresh exchanges a refresh token for a new access token. The role comes
// from the presented token, not the store; a demoted caller keeps the old
// role until the access token expires.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claim, err := s.tokens.Validate(refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	if claim.Kind != KindRefresh {
		return "", time.Time{}, ErrWrongTokenKind
	}
	access, exp, err := s.tokens.IssueAccess(claim.IdentityID, claim.Role)
	if err != nil {
		return "", time.Time{}, err
	}
	obs.ObserveTokenIssued(string(KindAccess))
	s.record(ctx, &claim.IdentityID, "auth.refresh", "")
	return access, exp, nil
}

// ChangeRole mutates the target identity's role. Restricted to callers whose
// claim carries the admin role.
func (s *Service) ChangeRole(ctx context.Context, actor Claim, targetID int64, newRole string) (Identity, error) {
	if err := Authorize(actor, RoleAdmin); err != nil {
		// An unauthenticated claim has no identity row to reference.
		var actorID *int64
		if actor.IdentityID > 0 {
			actorID = &actor.IdentityID
		}
		s.record(ctx, actorID, "auth.role.change.denied",
			fmt.Sprintf("target=%d role=%s", targetID, newRole))
		return Identity{}, err
	}
	role, err := ParseRole(newRole)
	if err != nil {
		return Identity{}, err
	}
	target, err := s.store.FindByID(ctx, targetID)
	if err != nil {
		return Identity{}, err
	}
	if err := s.store.UpdateRole(ctx, target.ID, role); err != nil {
		return Identity{}, err
	}
	target.Role = role
	s.record(ctx, &actor.IdentityID, "auth.role.change",
		fmt.Sprintf("target=%d role=%s", target.ID, role))
	return *target, nil
}

// Identity returns the stored record for an authenticated claim.
func (s *Service) Identity(ctx context.Context, claim Claim) (Identity, error) {
	if err := Authorize(claim); err != nil {
		return Identity{}, err
	}
	identity, err := s.store.FindByID(ctx, claim.IdentityID)
	if err != nil {
		return Identity{}, err
	}
	return *identity, nil
}

// record appends to the audit sink, best effort. A failed write must not fail
// the primary operation, but it leaves a diagnostic trace.
func (s *Service) record(ctx context.Context, identityID *int64, action, detail string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, identityID, action, detail); err != nil {
		obs.Log(map[string]any{
			"level":  "error",
			"msg":    "audit write failed",
			"action": action,
			"error":  err.Error(),
		})
	}
}
