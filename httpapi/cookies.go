package httpapi

import (
	"net/http"
	"time"
)

// cookieName is the fixed cookie name used for the person identity.
const cookieName = "netdata_registry_id"

// cookieProbeSentinel is the magic value set by the cookie-capability
// probe and echoed back by a cookie-accepting browser.
const cookieProbeSentinel = "give-me-back-this-cookie-now--please"

// setPersonCookie emits one or two Set-Cookie headers carrying guid, with
// Expires computed as now + cookieMaxAge seconds, RFC 1123 GMT. A second
// header with Domain=a.cookieDomain is added when configured,
// mirroring the source's registry_set_cookie, which always writes the
// domain-less cookie and only conditionally adds the domain-scoped one.
// SameSite=None plus Secure are required for the cookie to be sent on the
// cross-origin credentialed requests the CORS setup in server.go allows.
func (a *API) setPersonCookie(w http.ResponseWriter, guid string) {
	expires := time.Now().UTC().Add(time.Duration(a.cookieMaxAge) * time.Second)

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    guid,
		Expires:  expires,
		Path:     "/",
		SameSite: http.SameSiteNoneMode,
		Secure:   true,
	})

	if a.cookieDomain != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    guid,
			Domain:   a.cookieDomain,
			Expires:  expires,
			Path:     "/",
			SameSite: http.SameSiteNoneMode,
			Secure:   true,
		})
	}
}

// personGUIDFromRequest extracts the caller's person guid from the
// registry cookie. It is intentionally tolerant: a missing cookie just
// yields an empty string, letting package registry's getOrCreate policy
// decide what to do with it.
func personGUIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie == nil {
		return ""
	}
	return cookie.Value
}
