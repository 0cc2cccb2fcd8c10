package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/parkcrm/internal/core"
)

// WithRequestMetadata copies the client IP and User-Agent into ctx so the
// import run history can record who started it.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	ctx = core.ContextWithRemoteAddr(ctx, ip)
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
