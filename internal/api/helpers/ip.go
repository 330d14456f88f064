package helpers

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the caller's IP address. X-Forwarded-For / X-Real-IP are
// honoured ONLY when trustProxyHeaders is true and RemoteAddr falls inside
// one of trustedCIDRs — spec.md's client-IP extraction requires the reverse
// proxy itself be authenticated before its forwarded headers are believed,
// which the reference's unconditional header trust (GetRealIP) lacks.
func ClientIP(r *http.Request, trustProxyHeaders bool, trustedCIDRs []*net.IPNet) string {
	remoteHost, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteHost = r.RemoteAddr
	}
	remoteIP := net.ParseIP(remoteHost)

	if !trustProxyHeaders || remoteIP == nil || !ipInAny(remoteIP, trustedCIDRs) {
		if remoteIP != nil {
			return remoteIP.String()
		}
		return r.RemoteAddr
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip.String()
			}
		}
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip.String()
		}
	}

	return remoteIP.String()
}

func ipInAny(ip net.IP, cidrs []*net.IPNet) bool {
	for _, n := range cidrs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ParseCIDRs parses a list of CIDR strings, silently skipping malformed
// entries (configuration is operator-controlled, not user input).
func ParseCIDRs(raw []string) []*net.IPNet {
	var out []*net.IPNet
	for _, s := range raw {
		_, n, err := net.ParseCIDR(s)
		if err == nil {
			out = append(out, n)
		}
	}
	return out
}
