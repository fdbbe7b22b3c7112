package auth

import "errors"

var (
	// ErrValidation covers missing or malformed caller input.
	ErrValidation = errors.New("auth: invalid input")

	// ErrWeakPassword is returned when a password fails the strength policy.
	ErrWeakPassword = errors.New("auth: password too weak")

	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("auth: email already registered")

	// ErrInvalidCredentials deliberately does not distinguish an unknown
	// email from a wrong password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrUnauthenticated indicates a missing or unverifiable caller claim.
	ErrUnauthenticated = errors.New("auth: unauthenticated")

	// ErrTokenInvalid indicates a malformed token or a bad signature.
	ErrTokenInvalid = errors.New("auth: invalid token")

	// ErrTokenExpired indicates a well-formed token past its lifetime.
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrWrongTokenKind is returned when an access token is presented where
	// a refresh token is required.
	ErrWrongTokenKind = errors.New("auth: wrong token kind")

	// ErrForbidden indicates an authenticated caller with an insufficient role.
	ErrForbidden = errors.New("auth: forbidden")

	// ErrInvalidRole indicates a role outside the closed set.
	ErrInvalidRole = errors.New("auth: invalid role")

	// ErrNotFound indicates a missing identity record.
	ErrNotFound = errors.New("auth: not found")
)
