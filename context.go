package authvault

import "context"

type clientIPContextKey struct{}

// WithClientIP attaches the caller's network origin to ctx. The Engine uses
// it for per-origin cooldown tracking and audit logging.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
