package httpapi

import (
	"net/http"
	"net/netip"
	"strings"
)

// resolveClientIP prefers the first X-Forwarded-For hop, then X-Real-IP,
// then the socket peer. IPv4-mapped IPv6 addresses are unmapped.
func resolveClientIP(r *http.Request) string {
	forwarded, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	for _, candidate := range []string{forwarded, r.Header.Get("X-Real-IP"), r.RemoteAddr} {
		if addr, ok := parseAddr(candidate); ok {
			return addr.String()
		}
	}
	return ""
}

func parseAddr(raw string) (netip.Addr, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(raw); err == nil {
		return ap.Addr().Unmap(), true
	}
	addr, err := netip.ParseAddr(strings.Trim(raw, "[]"))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
