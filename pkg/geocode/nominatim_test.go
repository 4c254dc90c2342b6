package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeNominatim(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestGeocode_Match(t *testing.T) {
	var gotQuery, gotUA string
	srv := newFakeNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`[{"lat":"29.4241","lon":"-98.4936"}]`))
	})

	c := NewClient(WithBaseURL(srv.URL), WithUserAgent("test-agent"), WithRateLimit(1000))
	res, err := c.Geocode(context.Background(), Place{City: "San Antonio", State: "TX", ZipCode: "78232"})
	require.NoError(t, err)

	assert.True(t, res.Matched)
	assert.InDelta(t, 29.4241, res.Latitude, 1e-6)
	assert.InDelta(t, -98.4936, res.Longitude, 1e-6)
	assert.Equal(t, "San Antonio, TX 78232", gotQuery)
	assert.Equal(t, "test-agent", gotUA)
}

func TestGeocode_NoResults(t *testing.T) {
	srv := newFakeNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	res, err := c.Geocode(context.Background(), Place{ZipCode: "00000"})
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestGeocode_ProviderErrorIsNonMatch(t *testing.T) {
	srv := newFakeNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	res, err := c.Geocode(context.Background(), Place{City: "Austin"})
	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestGeocode_InsufficientInputSkipsProvider(t *testing.T) {
	var calls atomic.Int32
	srv := newFakeNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[]`))
	})

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	res, err := c.Geocode(context.Background(), Place{State: "TX"})
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Zero(t, calls.Load())
}

func TestGeocode_CachesResults(t *testing.T) {
	var calls atomic.Int32
	srv := newFakeNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[{"lat":"30.2672","lon":"-97.7431"}]`))
	})

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000), WithCacheTTL(time.Minute))
	place := Place{City: "Austin", State: "TX"}

	for i := 0; i < 3; i++ {
		res, err := c.Geocode(context.Background(), place)
		require.NoError(t, err)
		assert.True(t, res.Matched)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeocode_CachesNonMatches(t *testing.T) {
	var calls atomic.Int32
	srv := newFakeNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[]`))
	})

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000), WithCacheTTL(time.Minute))
	for i := 0; i < 2; i++ {
		res, err := c.Geocode(context.Background(), Place{City: "Nowhereville"})
		require.NoError(t, err)
		assert.False(t, res.Matched)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeocode_Cancelled(t *testing.T) {
	srv := newFakeNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	_, err := c.Geocode(ctx, Place{City: "Austin"})
	assert.Error(t, err)
}

func TestPlaceQuery(t *testing.T) {
	tests := []struct {
		place Place
		want  string
	}{
		{Place{City: "Austin", State: "TX", ZipCode: "78701"}, "Austin, TX 78701"},
		{Place{City: "Austin", State: "TX"}, "Austin, TX USA"},
		{Place{ZipCode: "78701"}, "78701"},
		{Place{City: "Austin"}, "Austin, USA"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.place.Query())
	}
}
