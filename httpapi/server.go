// Package httpapi is the HTTP request-handler layer: it parses query
// parameters and cookies, drives package registry under its own lock,
// sets cookies, and serializes JSON responses. It is kept intentionally
// thin, a straightforward route-registration layer over package registry.
package httpapi

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/fleet-registry/core/logger"
	"github.com/relabs-tech/fleet-registry/registry"
	"github.com/relabs-tech/fleet-registry/telemetry"
)

// API is the registry's HTTP surface: the five hello/access/delete/search/
// switch endpoints.
type API struct {
	registry *registry.Registry
	router   *mux.Router

	hostname      string
	machineGUID   string
	announcedURL  string
	cookieDomain  string
	cookieMaxAge  int // seconds, the person cookie's expiration
	verifyCookies bool

	publisher telemetry.Publisher
}

// Builder is a builder helper for API.
type Builder struct {
	// Registry is the in-memory graph. This is mandatory.
	Registry *registry.Registry
	// Router is a mux router. This is mandatory.
	Router *mux.Router

	// Hostname is reported in every response's "hostname" field.
	Hostname string
	// MachineGUID is this registry node's own machine GUID, reported in
	// every response's "machine_guid" field.
	MachineGUID string
	// AnnouncedURL is the "registry" field returned by hello/disabled/
	// redirect responses: the URL other nodes should use to reach this
	// registry.
	AnnouncedURL string
	// CookieDomain, if non-empty, causes a second Set-Cookie header with
	// Domain=CookieDomain to be emitted alongside the domain-less one.
	CookieDomain string
	// CookieMaxAge is the person cookie's expiration, in seconds.
	CookieMaxAge int
	// VerifyCookies enables the cookie-capability probe on access.
	VerifyCookies bool
	// Publisher is stored on the API. Optional. The API does not publish
	// to it; periodic counter publication is done by telemetry.Run.
	Publisher telemetry.Publisher
}

// New realizes the API and registers its routes on Router.
func New(b *Builder) *API {
	if b.Registry == nil {
		panic("Registry is missing")
	}
	if b.Router == nil {
		panic("Router is missing")
	}

	maxAge := b.CookieMaxAge
	if maxAge <= 0 {
		maxAge = 30 * 24 * 3600 // 30 days, same order of magnitude as the source's default
	}

	a := &API{
		registry:      b.Registry,
		router:        b.Router,
		hostname:      b.Hostname,
		machineGUID:   b.MachineGUID,
		announcedURL:  b.AnnouncedURL,
		cookieDomain:  b.CookieDomain,
		cookieMaxAge:  maxAge,
		verifyCookies: b.VerifyCookies,
		publisher:     b.Publisher,
	}

	a.handleCORS()
	a.handleRoutes()
	return a
}

// handleCORS allows any origin to make credentialed requests. A literal "*"
// Allow-Origin cannot be combined with Allow-Credentials: true — browsers
// refuse to expose the response — so the request's own Origin is echoed
// back instead, with Vary: Origin to keep shared caches honest.
func (a *API) handleCORS() {
	corsMiddleware := func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Cookie")
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			h.ServeHTTP(w, r)
		})
	}
	a.router.Use(corsMiddleware)
}

func (a *API) handleRoutes() {
	logger.Default().Debugln("registry: handle route /api/v1/registry/hello")
	a.router.Handle("/api/v1/registry/hello", handlers.CompressHandler(http.HandlerFunc(a.handleHello))).
		Methods(http.MethodOptions, http.MethodGet)

	logger.Default().Debugln("registry: handle route /api/v1/registry/access")
	a.router.Handle("/api/v1/registry/access", handlers.CompressHandler(http.HandlerFunc(a.handleAccess))).
		Methods(http.MethodOptions, http.MethodGet)

	logger.Default().Debugln("registry: handle route /api/v1/registry/delete")
	a.router.Handle("/api/v1/registry/delete", handlers.CompressHandler(http.HandlerFunc(a.handleDelete))).
		Methods(http.MethodOptions, http.MethodGet)

	logger.Default().Debugln("registry: handle route /api/v1/registry/search")
	a.router.Handle("/api/v1/registry/search", handlers.CompressHandler(http.HandlerFunc(a.handleSearch))).
		Methods(http.MethodOptions, http.MethodGet)

	logger.Default().Debugln("registry: handle route /api/v1/registry/switch")
	a.router.Handle("/api/v1/registry/switch", handlers.CompressHandler(http.HandlerFunc(a.handleSwitch))).
		Methods(http.MethodOptions, http.MethodGet)
}
