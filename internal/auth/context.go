package auth

import "context"

type contextKey int

const credentialKey contextKey = iota

// WithCredential stores a verified credential in the request context.
func WithCredential(ctx context.Context, cred *Credential) context.Context {
	return context.WithValue(ctx, credentialKey, cred)
}

// CredentialFromContext retrieves the verified credential, or nil if the
// request carried none.
func CredentialFromContext(ctx context.Context) *Credential {
	cred, _ := ctx.Value(credentialKey).(*Credential)
	return cred
}
