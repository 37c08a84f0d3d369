package auth

import "context"

// Identity is the verified caller attached to the request context.
type Identity struct {
	Sub        string
	Role       string
	JuryNumber string
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFromContext(ctx context.Context) Identity {
	if v := ctx.Value(ctxKey{}); v != nil {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Identity{}
}
