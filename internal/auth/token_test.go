package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestAuthority(t *testing.T, opts ...AuthorityOption) *Authority {
	t.Helper()
	a, err := NewAuthority("test-signing-secret", opts...)
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}
	return a
}

func TestNewAuthorityRequiresSecret(t *testing.T) {
	if _, err := NewAuthority(""); err == nil {
		t.Fatal("expected error for missing secret")
	}
	if _, err := NewAuthority("   "); err == nil {
		t.Fatal("expected error for blank secret")
	}
}

func TestIssueAccessValidatesRoundTrip(t *testing.T) {
	a := newTestAuthority(t)

	token, exp, err := a.IssueAccess(42, RoleAuditor)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected future expiration, got %v", exp)
	}

	claim, err := a.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claim.IdentityID != 42 {
		t.Fatalf("unexpected identity id: %d", claim.IdentityID)
	}
	if claim.Role != RoleAuditor {
		t.Fatalf("unexpected role: %s", claim.Role)
	}
	if claim.Kind != KindAccess {
		t.Fatalf("unexpected kind: %s", claim.Kind)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	a := newTestAuthority(t, WithClock(func() time.Time { return clock() }))

	token, _, err := a.IssueAccess(7, RoleCustomer)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	clock = func() time.Time { return now.Add(16 * time.Minute) }
	_, err = a.Validate(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	a := newTestAuthority(t)

	token, _, err := a.IssueAccess(7, RoleCustomer)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := a.Validate(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	a := newTestAuthority(t)
	other, err := NewAuthority("a-different-secret")
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}

	token, _, err := other.IssueAccess(7, RoleCustomer)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := a.Validate(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	a := newTestAuthority(t)
	for _, token := range []string{"", "   ", "not.a.jwt", strings.Repeat("x", 64)} {
		if _, err := a.Validate(token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("Validate(%q): expected ErrTokenInvalid, got %v", token, err)
		}
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	a := newTestAuthority(t)

	access, _, err := a.IssueAccess(42, RoleSupport)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, _, err := a.Refresh(access); !errors.Is(err, ErrWrongTokenKind) {
		t.Fatalf("expected ErrWrongTokenKind, got %v", err)
	}
}

func TestRefreshIssuesAccessWithSameIdentity(t *testing.T) {
	a := newTestAuthority(t)

	refresh, exp, err := a.IssueRefresh(42, RoleSupport)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if time.Until(exp) < 6*24*time.Hour {
		t.Fatalf("refresh lifetime too short: %v", exp)
	}

	access, _, err := a.Refresh(refresh)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	claim, err := a.Validate(access)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claim.IdentityID != 42 || claim.Role != RoleSupport || claim.Kind != KindAccess {
		t.Fatalf("unexpected claim: %+v", claim)
	}
}

func TestRefreshTokenCannotAuthenticateAsAccess(t *testing.T) {
	a := newTestAuthority(t)

	refresh, _, err := a.IssueRefresh(42, RoleSupport)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	claim, err := a.Validate(refresh)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claim.Kind != KindRefresh {
		t.Fatalf("expected refresh kind, got %s", claim.Kind)
	}
}

func TestAuthorityTTLOptions(t *testing.T) {
	now := time.Now()
	a := newTestAuthority(t,
		WithClock(func() time.Time { return now }),
		WithAccessTTL(5*time.Minute),
		WithRefreshTTL(48*time.Hour),
	)

	_, accessExp, err := a.IssueAccess(1, RoleCustomer)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if got := accessExp.Sub(now.UTC()); got != 5*time.Minute {
		t.Fatalf("unexpected access ttl: %v", got)
	}
	_, refreshExp, err := a.IssueRefresh(1, RoleCustomer)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if got := refreshExp.Sub(now.UTC()); got != 48*time.Hour {
		t.Fatalf("unexpected refresh ttl: %v", got)
	}
}
