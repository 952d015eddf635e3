// Package httputil has small HTTP request helpers shared by the handlers.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// Proxy-supplied headers consulted in order before trusting RemoteAddr.
var proxyHeaders = []string{"X-Forwarded-For", "X-Real-IP"}

// GetClientIP returns the originating client address for a request. Header
// values must parse as IP addresses to be trusted; anything else falls
// through to RemoteAddr.
func GetClientIP(r *http.Request) string {
	for _, h := range proxyHeaders {
		if ip := headerIP(r.Header.Get(h)); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// headerIP extracts the first valid address from a comma-separated header
// value such as an X-Forwarded-For chain.
func headerIP(value string) string {
	for _, part := range strings.Split(value, ",") {
		candidate := strings.TrimSpace(part)
		if candidate == "" {
			continue
		}
		if net.ParseIP(candidate) != nil {
			return candidate
		}
	}
	return ""
}
