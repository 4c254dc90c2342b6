// Package query serves read paths: chronological listings, proximity-ranked
// listings around a ZIP code, and the saved location preference.
package query

import (
	"context"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/txsurplus/auctiondb/internal/config"
	"github.com/txsurplus/auctiondb/internal/geo"
	"github.com/txsurplus/auctiondb/internal/model"
	"github.com/txsurplus/auctiondb/internal/store"
	"github.com/txsurplus/auctiondb/pkg/geocode"
)

// Engine answers auction queries. Proximity ranking happens in memory so
// both storage backends share one distance implementation.
type Engine struct {
	store    store.Store
	geocoder geocode.Client
	cfg      config.QueryConfig
	state    string
	log      *zap.Logger
}

// NewEngine wires a query engine. state is the region the anchor ZIP is
// geocoded against.
func NewEngine(st store.Store, gc geocode.Client, cfg config.QueryConfig, state string) *Engine {
	return &Engine{
		store:    st,
		geocoder: gc,
		cfg:      cfg,
		state:    state,
		log:      zap.L().With(zap.String("component", "query")),
	}
}

// ListByEndDate returns active auctions soonest-ending first. A non-positive
// limit falls back to the configured page size.
func (e *Engine) ListByEndDate(ctx context.Context, limit, offset int) ([]model.AuctionView, error) {
	if limit <= 0 {
		limit = e.cfg.PageSize
	}
	if offset < 0 {
		offset = 0
	}
	return e.store.ListByEndDate(ctx, limit, offset)
}

// Get returns one auction with its images, or nil when absent.
func (e *Engine) Get(ctx context.Context, auctionID int64) (*model.AuctionView, error) {
	return e.store.GetAuctionView(ctx, auctionID)
}

// ListByProximity returns active auctions within maxDistance miles of the
// given ZIP, nearest first. An anchor that cannot be geocoded yields an
// empty result, not an error.
func (e *Engine) ListByProximity(ctx context.Context, zip string, maxDistance float64, limit, offset int) ([]model.AuctionView, error) {
	if zip == "" {
		zip = e.cfg.DefaultZip
	}
	if maxDistance <= 0 {
		maxDistance = float64(e.cfg.DefaultMaxDistance)
	}
	if limit <= 0 {
		limit = e.cfg.PageSize
	}
	if offset < 0 {
		offset = 0
	}

	anchor, err := e.geocoder.Geocode(ctx, geocode.Place{State: e.state, ZipCode: zip})
	if err != nil {
		return nil, err
	}
	if !anchor.Matched {
		e.log.Warn("anchor zip did not geocode", zap.String("zip", zip))
		return []model.AuctionView{}, nil
	}

	views, err := e.store.ActiveWithCoordinates(ctx)
	if err != nil {
		return nil, err
	}

	within := make([]model.AuctionView, 0, len(views))
	for _, v := range views {
		if v.Latitude == nil || v.Longitude == nil {
			continue
		}
		d := geo.Miles(anchor.Latitude, anchor.Longitude, *v.Latitude, *v.Longitude)
		if d > maxDistance {
			continue
		}
		d = math.Round(d*100) / 100
		v.Distance = &d
		within = append(within, v)
	}

	// Stable keeps storage order for equidistant auctions.
	sort.SliceStable(within, func(i, j int) bool {
		return *within[i].Distance < *within[j].Distance
	})

	if offset >= len(within) {
		return []model.AuctionView{}, nil
	}
	end := offset + limit
	if end > len(within) {
		end = len(within)
	}
	return within[offset:end], nil
}

// GetPreference returns the saved anchor, falling back to the configured
// defaults when none has been set.
func (e *Engine) GetPreference(ctx context.Context) (model.Preference, error) {
	p, err := e.store.GetPreference(ctx)
	if err != nil {
		return model.Preference{}, err
	}
	if p == nil {
		return model.Preference{
			ZipCode:     e.cfg.DefaultZip,
			MaxDistance: e.cfg.DefaultMaxDistance,
		}, nil
	}
	return *p, nil
}

// SetPreference validates and saves the proximity anchor.
func (e *Engine) SetPreference(ctx context.Context, zipCode string, maxDistance int) error {
	if zipCode == "" {
		return eris.New("query: zip code is required")
	}
	if maxDistance <= 0 {
		maxDistance = e.cfg.DefaultMaxDistance
	}
	return e.store.SetPreference(ctx, zipCode, maxDistance)
}
