package portalui

import (
	"net/url"
	"strings"
)

const (
	// CSRFCookieName is the cookie the server stores the anti-forgery token in.
	CSRFCookieName = "csrftoken"
	// CSRFHeader carries the token on every mutating request.
	CSRFHeader = "X-CSRFToken"
)

// CookieValue looks up name in a document-style cookie string ("a=1; b=2").
// Only a fragment starting with exactly "name=" matches, so a cookie whose name
// merely contains name is ignored. The value is percent-decoded; a value with a
// malformed escape is reported as absent.
func CookieValue(cookies, name string) (string, bool) {
	if cookies == "" {
		return "", false
	}
	prefix := name + "="
	for _, fragment := range strings.Split(cookies, ";") {
		fragment = strings.TrimSpace(fragment)
		if !strings.HasPrefix(fragment, prefix) {
			continue
		}
		// PathUnescape leaves '+' alone, like decodeURIComponent.
		decoded, err := url.PathUnescape(fragment[len(prefix):])
		if err != nil {
			return "", false
		}
		return decoded, true
	}
	return "", false
}

// Session holds values captured once when a page loads and reused by every
// request issued from that page.
type Session struct {
	CSRFToken string
	HasToken  bool
}

// NewSession captures the CSRF token from a document-style cookie string.
func NewSession(cookies string) Session {
	token, ok := CookieValue(cookies, CSRFCookieName)
	return Session{CSRFToken: token, HasToken: ok}
}
