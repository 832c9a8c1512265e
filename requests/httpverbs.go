package requests

import (
	"net/http"
	"net/url"
)

func HasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		// bodiless
		return false
	default:
		return true
	}
}

// SameOrigin reports whether a state-changing request came from a page of this host.
// Requests without Origin and Referer pass; browsers send one of them on form posts.
func SameOrigin(r *http.Request) bool {
	if !HasBody(r) {
		return true
	}
	src := r.Header.Get("Origin")
	if src == "" {
		src = r.Header.Get("Referer")
	}
	if src == "" {
		return true
	}
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
