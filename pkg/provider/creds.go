package provider

import "context"

// CredentialSource supplies valid credentials for an adapter, typically
// backed by a cache keyed by adapter slug so concurrent requests do not
// re-authenticate on every call.
type CredentialSource interface {
	Credentials(ctx context.Context, a Adapter) (Credentials, error)
	// Invalidate drops any cached credential for the slug, forcing the
	// next Credentials call to authenticate again. Called after an
	// acquirer rejects a token mid-lifetime.
	Invalidate(ctx context.Context, slug string)
}
