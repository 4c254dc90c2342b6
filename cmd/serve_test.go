package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/txsurplus/auctiondb/internal/config"
	"github.com/txsurplus/auctiondb/internal/model"
	"github.com/txsurplus/auctiondb/internal/query"
	"github.com/txsurplus/auctiondb/internal/store"
	"github.com/txsurplus/auctiondb/pkg/geocode"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type stubGeocoder struct {
	lat, lon float64
	matched  bool
}

func (g *stubGeocoder) Geocode(context.Context, geocode.Place) (*geocode.Result, error) {
	return &geocode.Result{Latitude: g.lat, Longitude: g.lon, Matched: g.matched}, nil
}

func newServeFixture(t *testing.T) (*chi.Mux, store.Store) {
	t.Helper()

	cfg = &config.Config{
		Query: config.QueryConfig{DefaultZip: "78232", DefaultMaxDistance: 100, PageSize: 20},
	}

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	q := query.NewEngine(st, &stubGeocoder{lat: 29.4241, lon: -98.4936, matched: true}, cfg.Query, "TX")

	r := chi.NewRouter()
	r.Get("/api/auctions", handleListAuctions(q))
	r.Get("/api/auctions/nearby", handleNearbyAuctions(q))
	r.Get("/api/auctions/{id}", handleGetAuction(q))
	r.Get("/api/preferences", handleGetPreference(q))
	r.Post("/api/preferences", handleSetPreference(q))
	return r, st
}

func seedAuction(t *testing.T, st store.Store, title string) int64 {
	t.Helper()
	ctx := context.Background()
	srcID, err := st.EnsureSource(ctx, model.Source{Name: "test source"})
	require.NoError(t, err)
	id, err := st.InsertAuction(ctx, model.Auction{
		SourceID: srcID,
		Title:    title,
		URL:      "https://example.com/" + title,
		EndDate:  time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	return id
}

func TestServe_ListAuctions(t *testing.T) {
	r, st := newServeFixture(t)
	seedAuction(t, st, "Lot 1")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auctions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Auctions []model.AuctionView `json:"auctions"`
		Count    int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Auctions, 1)
	assert.Equal(t, "Lot 1", body.Auctions[0].Title)
}

func TestServe_GetAuction(t *testing.T) {
	r, st := newServeFixture(t)
	id := seedAuction(t, st, "Lot 1")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auctions/"+strconv.FormatInt(id, 10), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var view model.AuctionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, id, view.ID)
}

func TestServe_GetAuction_NotFound(t *testing.T) {
	r, _ := newServeFixture(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auctions/9999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_GetAuction_BadID(t *testing.T) {
	r, _ := newServeFixture(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auctions/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_NearbyAuctions(t *testing.T) {
	r, st := newServeFixture(t)
	ctx := context.Background()

	srcID, err := st.EnsureSource(ctx, model.Source{Name: "test source"})
	require.NoError(t, err)
	lat, lon := 29.5, -98.4936
	locID, err := st.InsertLocation(ctx, model.Location{City: "San Antonio", State: "TX", Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)
	_, err = st.InsertAuction(ctx, model.Auction{
		SourceID:   srcID,
		Title:      "nearby lot",
		URL:        "https://example.com/nearby",
		EndDate:    time.Now().Add(24 * time.Hour),
		LocationID: &locID,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auctions/nearby?zip_code=78232&max_distance=50", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Auctions []model.AuctionView `json:"auctions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Auctions, 1)
	assert.NotNil(t, body.Auctions[0].Distance)
}

func TestServe_Preferences(t *testing.T) {
	r, _ := newServeFixture(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/preferences",
		strings.NewReader(`{"zip_code":"78701","max_distance":50}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/preferences", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var pref model.Preference
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pref))
	assert.Equal(t, "78701", pref.ZipCode)
	assert.Equal(t, 50, pref.MaxDistance)
}

func TestServe_Preferences_Invalid(t *testing.T) {
	r, _ := newServeFixture(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/preferences",
		strings.NewReader(`{"max_distance":50}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/preferences",
		strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
