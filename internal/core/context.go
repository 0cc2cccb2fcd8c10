package core

import "context"

type contextKey string

const (
	ctxKeyRemoteAddr contextKey = "import_remote_addr"
	ctxKeyUserAgent  contextKey = "import_user_agent"
)

// ContextWithRemoteAddr attaches the client address recorded on import runs.
func ContextWithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, ctxKeyRemoteAddr, addr)
}

// ContextWithUserAgent attaches the client User-Agent recorded on import runs.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

func RemoteAddrFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRemoteAddr).(string); ok {
		return v
	}
	return ""
}

func UserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}
