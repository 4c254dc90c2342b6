// Package geocode resolves partial place descriptions (city/state/ZIP) to
// coordinates via a Nominatim-compatible provider. A place the provider
// cannot resolve is a non-match, never an error: callers treat misses and
// provider failures identically.
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client geocodes partial places.
type Client interface {
	// Geocode resolves a place to coordinates. The returned error is only
	// non-nil for context cancellation; provider errors and timeouts
	// resolve to Result{Matched: false}.
	Geocode(ctx context.Context, place Place) (*Result, error)
}

// Place is a partial location to resolve. City and ZipCode are the useful
// signals; a place with neither is not worth a provider call.
type Place struct {
	City    string
	State   string
	ZipCode string
}

// Result holds the geocoding output.
type Result struct {
	Latitude  float64
	Longitude float64
	Matched   bool
}

// Query builds the provider query string: "city, state zip", with "USA"
// standing in when no ZIP narrows the search.
func (p Place) Query() string {
	var b strings.Builder
	if p.City != "" {
		b.WriteString(p.City)
		b.WriteString(", ")
	}
	if p.State != "" {
		b.WriteString(p.State)
		b.WriteString(" ")
	}
	if p.ZipCode != "" {
		b.WriteString(p.ZipCode)
	} else {
		b.WriteString("USA")
	}
	return b.String()
}

// resolvable reports whether the place carries enough signal to query the
// provider at all.
func (p Place) resolvable() bool {
	return p.City != "" || p.ZipCode != ""
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL points the client at a Nominatim-compatible endpoint.
func WithBaseURL(u string) Option {
	return func(g *geocoder) { g.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client. Its Timeout bounds every
// provider call.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) { g.httpClient = hc }
}

// WithUserAgent sets the User-Agent header Nominatim's usage policy requires.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) { g.userAgent = ua }
}

// WithRateLimit sets the requests-per-second limit for provider calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) { g.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithCacheTTL enables an in-memory result cache keyed by query string.
// Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(g *geocoder) { g.cacheTTL = ttl }
}

type geocoder struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	cacheTTL   time.Duration
	cache      *resultCache
}

// NewClient creates a geocoding Client. Defaults target the public Nominatim
// instance at its policy limit of one request per second.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		baseURL:    "https://nominatim.openstreetmap.org",
		userAgent:  "auctiondb",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cacheTTL > 0 {
		g.cache = newResultCache(g.cacheTTL)
	}
	return g
}
