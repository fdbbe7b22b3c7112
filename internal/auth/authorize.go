package auth

// Authorize gates an operation by the caller's proven role. An empty allowed
// set means the operation only requires authentication. The decision is
// computed purely from the token's embedded role; the identity store is never
// consulted, trading immediate-revocation accuracy for statelessness.
func Authorize(claim Claim, allowed ...Role) error {
	if claim.IdentityID <= 0 {
		return ErrUnauthenticated
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, role := range allowed {
		if claim.Role == role {
			return nil
		}
	}
	return ErrForbidden
}
