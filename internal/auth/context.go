package auth

import "context"

type claimContextKey struct{}
type tokenContextKey struct{}

// ContextWithClaim attaches the verified caller claim to the context.
func ContextWithClaim(ctx context.Context, claim Claim) context.Context {
	return context.WithValue(ctx, claimContextKey{}, claim)
}

// ClaimFromContext extracts the verified caller claim from the context.
func ClaimFromContext(ctx context.Context) (Claim, bool) {
	if ctx == nil {
		return Claim{}, false
	}
	claim, ok := ctx.Value(claimContextKey{}).(Claim)
	if !ok || claim.IdentityID <= 0 {
		return Claim{}, false
	}
	return claim, true
}

// ContextWithToken stores the raw bearer token inside the context.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the bearer token if it was previously attached.
func TokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(tokenContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
