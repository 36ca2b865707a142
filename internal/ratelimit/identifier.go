package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// ClientIdentifier derives the limiter key from the request's network address.
// Proxy headers are only honoured upstream (chi's RealIP rewrites RemoteAddr),
// so this reads RemoteAddr alone. Requests without a usable address share the
// UnknownIdentifier bucket.
func ClientIdentifier(r *http.Request) string {
	if r == nil {
		return UnknownIdentifier
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		return UnknownIdentifier
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	addr = strings.Trim(addr, "[]")
	if addr == "" {
		return UnknownIdentifier
	}
	return addr
}
