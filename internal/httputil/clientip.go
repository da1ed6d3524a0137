// Package httputil holds small request helpers shared by the HTTP handlers.
package httputil

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the address used to key per-client limits on the event
// stream. With trustProxy set, the leftmost valid X-Forwarded-For hop wins,
// then X-Real-IP. Headers that do not parse as an address are ignored.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if hop, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); hop != "" {
			if addr, ok := parseAddr(hop); ok {
				return addr
			}
		}
		if addr, ok := parseAddr(r.Header.Get("X-Real-IP")); ok {
			return addr
		}
	}
	return RemoteIP(r)
}

// RemoteIP returns the host part of r.RemoteAddr, or RemoteAddr unchanged
// when it carries no port.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parseAddr(s string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}
