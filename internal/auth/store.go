package auth

import "context"

// IdentityStore describes the persistence operations the auth subsystem
// needs. The store's uniqueness constraint on email is the authoritative
// guard under concurrent registration; application-level pre-checks are an
// optimization only.
type IdentityStore interface {
	// Create persists a new identity and fills in its generated id and
	// timestamps. Returns ErrDuplicateEmail if the email is taken.
	Create(ctx context.Context, identity *Identity) error

	// FindByEmail returns the identity registered under email (as stored,
	// case-sensitive), or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*Identity, error)

	// FindByID returns the identity with the given id, or ErrNotFound.
	FindByID(ctx context.Context, id int64) (*Identity, error)

	// UpdateRole mutates the stored role. Returns ErrNotFound if no such
	// identity exists.
	UpdateRole(ctx context.Context, id int64, role Role) error
}
