package main

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/txsurplus/auctiondb/internal/ingest"
	"github.com/txsurplus/auctiondb/internal/normalize"
	"github.com/txsurplus/auctiondb/internal/query"
	"github.com/txsurplus/auctiondb/internal/store"
	"github.com/txsurplus/auctiondb/pkg/geocode"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "auctions.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "connect postgres")
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, eris.Wrap(err, "ping postgres")
		}
		return store.NewPostgres(pool), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initGeocoder() geocode.Client {
	return geocode.NewClient(
		geocode.WithBaseURL(cfg.Geocoder.BaseURL),
		geocode.WithUserAgent(cfg.Geocoder.UserAgent),
		geocode.WithRateLimit(cfg.Geocoder.RateLimitRPS),
		geocode.WithCacheTTL(time.Duration(cfg.Geocoder.CacheTTLMinutes)*time.Minute),
		geocode.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Geocoder.TimeoutSecs) * time.Second}),
	)
}

func initNormalizer() *normalize.Normalizer {
	horizon := time.Duration(cfg.Ingest.DefaultHorizonDays) * 24 * time.Hour
	return normalize.New(cfg.Ingest.DefaultState, horizon)
}

func initIngest(st store.Store) *ingest.Engine {
	return ingest.NewEngine(st, initGeocoder(), initNormalizer())
}

func initQuery(st store.Store) *query.Engine {
	return query.NewEngine(st, initGeocoder(), cfg.Query, cfg.Ingest.DefaultState)
}
