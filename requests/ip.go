package requests

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP returns the peer address. Behind a reverse proxy (trustProxy),
// X-Forwarded-For (first entry) and then X-Real-IP take precedence.
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xForwardedFor := r.Header.Get("X-Forwarded-For"); xForwardedFor != "" {
			first, _, _ := strings.Cut(xForwardedFor, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xRealIP := r.Header.Get("X-Real-IP"); xRealIP != "" {
			return strings.TrimSpace(xRealIP)
		}
	}
	hostIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return hostIP
}
