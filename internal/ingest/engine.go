// Package ingest turns scraped auction batches into stored rows. Each record
// runs in its own transaction so one malformed listing never costs the rest
// of the batch.
package ingest

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/txsurplus/auctiondb/internal/model"
	"github.com/txsurplus/auctiondb/internal/normalize"
	"github.com/txsurplus/auctiondb/internal/store"
	"github.com/txsurplus/auctiondb/pkg/geocode"
)

// Result counts what happened to a batch.
type Result struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// Engine upserts normalized auction records. The geocoder is optional; when
// nil, locations are stored without coordinates and resolved later.
type Engine struct {
	store      store.Store
	geocoder   geocode.Client
	normalizer *normalize.Normalizer
	log        *zap.Logger
}

// NewEngine wires an ingestion engine.
func NewEngine(st store.Store, gc geocode.Client, n *normalize.Normalizer) *Engine {
	return &Engine{
		store:      st,
		geocoder:   gc,
		normalizer: n,
		log:        zap.L().With(zap.String("component", "ingest")),
	}
}

type outcome int

const (
	outcomeInserted outcome = iota
	outcomeUpdated
)

// Ingest processes records in order under the named source. Records the
// normalizer rejects and records whose transaction fails are counted as
// skipped; only setup failures abort the batch.
func (e *Engine) Ingest(ctx context.Context, records []model.RawRecord, sourceID string) (Result, error) {
	var res Result
	if e.store == nil {
		return res, eris.New("ingest: no store configured")
	}
	if sourceID == "" {
		return res, eris.New("ingest: source id is required")
	}

	if err := e.store.SeedCategories(ctx); err != nil {
		return res, err
	}
	srcID, err := e.store.EnsureSource(ctx, LookupSource(sourceID))
	if err != nil {
		return res, err
	}

	log := e.log.With(zap.String("source", sourceID))
	log.Info("ingesting batch", zap.Int("records", len(records)))

	for i, rec := range records {
		c, err := e.normalizer.Normalize(rec)
		if err != nil {
			if !normalize.IsReject(err) {
				return res, err
			}
			log.Warn("record rejected", zap.Int("index", i), zap.Error(err))
			res.Skipped++
			continue
		}

		var out outcome
		err = e.store.WithTx(ctx, func(tx store.Store) error {
			out, err = e.upsert(ctx, tx, srcID, c)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return res, eris.Wrap(ctx.Err(), "ingest: batch cancelled")
			}
			log.Warn("record failed", zap.Int("index", i), zap.String("title", c.Title), zap.Error(err))
			res.Skipped++
			continue
		}
		switch out {
		case outcomeInserted:
			res.Inserted++
		case outcomeUpdated:
			res.Updated++
		}
	}

	log.Info("batch complete",
		zap.Int("inserted", res.Inserted),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

func (e *Engine) upsert(ctx context.Context, tx store.Store, sourceID int64, c *model.Canonical) (outcome, error) {
	locationID, err := e.resolveLocation(ctx, tx, c.Location)
	if err != nil {
		return 0, err
	}

	var categoryID *int64
	if c.CategoryName != "" {
		id, err := tx.EnsureCategory(ctx, c.CategoryName, "", nil)
		if err != nil {
			return 0, err
		}
		categoryID = &id
	}

	existing, err := e.findExisting(ctx, tx, sourceID, c)
	if err != nil {
		return 0, err
	}

	auction := model.Auction{
		SourceID:      sourceID,
		ExternalID:    c.ExternalID,
		Title:         c.Title,
		Description:   c.Description,
		StartDate:     c.StartDate,
		EndDate:       c.EndDate,
		CurrentPrice:  c.CurrentPrice,
		StartingPrice: c.StartingPrice,
		LocationID:    locationID,
		CategoryID:    categoryID,
		URL:           c.URL,
		Status:        model.StatusActive,
	}

	if existing != nil {
		auction.ID = existing.ID
		if err := tx.UpdateAuction(ctx, auction); err != nil {
			return 0, err
		}
		if err := e.attachImages(ctx, tx, existing.ID, c.Images); err != nil {
			return 0, err
		}
		return outcomeUpdated, nil
	}

	id, err := tx.InsertAuction(ctx, auction)
	if err != nil {
		return 0, err
	}
	if err := e.attachImages(ctx, tx, id, c.Images); err != nil {
		return 0, err
	}
	for key, value := range c.Details {
		if err := tx.InsertDetail(ctx, id, key, value); err != nil {
			return 0, err
		}
	}
	return outcomeInserted, nil
}

// findExisting applies the natural key: source+external id when the source
// supplies one, title+url otherwise.
func (e *Engine) findExisting(ctx context.Context, tx store.Store, sourceID int64, c *model.Canonical) (*model.Auction, error) {
	if c.ExternalID != "" {
		return tx.FindAuctionByExternalID(ctx, sourceID, c.ExternalID)
	}
	return tx.FindAuctionByTitleURL(ctx, c.Title, c.URL)
}

// resolveLocation dedups locations on (city, state, zip) and geocodes only
// when the record carries no coordinates of its own. Geocoder misses are not
// errors; the location row just stays unresolved.
func (e *Engine) resolveLocation(ctx context.Context, tx store.Store, raw *model.RawLocation) (*int64, error) {
	if raw == nil {
		return nil, nil
	}

	existing, err := tx.FindLocation(ctx, raw.City, raw.State, raw.ZipCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Latitude == nil {
			lat, lon, ok, err := e.coordinates(ctx, raw)
			if err != nil {
				return nil, err
			}
			if ok {
				if err := tx.UpdateLocationCoords(ctx, existing.ID, lat, lon); err != nil {
					return nil, err
				}
			}
		}
		return &existing.ID, nil
	}

	loc := model.Location{
		Address: raw.Address,
		City:    raw.City,
		State:   raw.State,
		ZipCode: raw.ZipCode,
	}
	lat, lon, ok, err := e.coordinates(ctx, raw)
	if err != nil {
		return nil, err
	}
	if ok {
		loc.Latitude = &lat
		loc.Longitude = &lon
	}
	id, err := tx.InsertLocation(ctx, loc)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (e *Engine) coordinates(ctx context.Context, raw *model.RawLocation) (lat, lon float64, ok bool, err error) {
	if raw.Latitude != nil && raw.Longitude != nil {
		return *raw.Latitude, *raw.Longitude, true, nil
	}
	if e.geocoder == nil || (raw.City == "" && raw.ZipCode == "") {
		return 0, 0, false, nil
	}
	res, err := e.geocoder.Geocode(ctx, geocode.Place{
		City:    raw.City,
		State:   raw.State,
		ZipCode: raw.ZipCode,
	})
	if err != nil {
		return 0, 0, false, err
	}
	if !res.Matched {
		return 0, 0, false, nil
	}
	return res.Latitude, res.Longitude, true, nil
}

func (e *Engine) attachImages(ctx context.Context, tx store.Store, auctionID int64, images []string) error {
	for i, url := range images {
		if err := tx.InsertImage(ctx, auctionID, url, i == 0); err != nil {
			return err
		}
	}
	return nil
}
