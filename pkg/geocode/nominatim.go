package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// nominatimPlace is one entry of the Nominatim search response. Coordinates
// arrive as strings.
type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves a place via the Nominatim search API. Insufficient input,
// provider errors, timeouts and empty result sets all return an unmatched
// Result with a nil error; only context cancellation propagates.
func (g *geocoder) Geocode(ctx context.Context, place Place) (*Result, error) {
	if !place.resolvable() {
		zap.L().Debug("geocode: insufficient input", zap.String("query", place.Query()))
		return &Result{Matched: false}, nil
	}

	query := place.Query()
	if g.cache != nil {
		if r, ok := g.cache.get(query); ok {
			return r, nil
		}
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	result, err := g.search(ctx, query)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			return nil, eris.Wrap(err, "geocode: search")
		}
		// Provider trouble is a non-match, not a caller error.
		zap.L().Warn("geocode: provider error", zap.String("query", query), zap.Error(err))
		result = &Result{Matched: false}
	}

	if g.cache != nil {
		g.cache.put(query, result)
	}
	return result, nil
}

func (g *geocoder) search(ctx context.Context, query string) (*Result, error) {
	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}
	if len(places) == 0 {
		return &Result{Matched: false}, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse latitude")
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse longitude")
	}

	return &Result{Latitude: lat, Longitude: lon, Matched: true}, nil
}
