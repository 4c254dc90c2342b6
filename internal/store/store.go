// Package store persists auctions and their reference data behind a single
// interface with interchangeable SQLite and Postgres implementations. Dialect
// differences (placeholders, returned ids, conflict handling) stay inside the
// backends; callers never see them.
package store

import (
	"context"

	"github.com/txsurplus/auctiondb/internal/model"
)

// Store is the persistence port for the ingestion and query engines.
type Store interface {
	// Reference data. Ensure* calls are idempotent lookup-or-insert by
	// unique name.
	EnsureSource(ctx context.Context, src model.Source) (int64, error)
	EnsureCategory(ctx context.Context, name, description string, parentID *int64) (int64, error)
	SeedCategories(ctx context.Context) error

	// Locations are deduplicated by (city, state, zip) before insert.
	FindLocation(ctx context.Context, city, state, zipCode string) (*model.Location, error)
	InsertLocation(ctx context.Context, loc model.Location) (int64, error)
	UpdateLocationCoords(ctx context.Context, id int64, lat, lon float64) error

	// Natural-key lookups; both return (nil, nil) when absent.
	FindAuctionByExternalID(ctx context.Context, sourceID int64, externalID string) (*model.Auction, error)
	FindAuctionByTitleURL(ctx context.Context, title, url string) (*model.Auction, error)

	InsertAuction(ctx context.Context, a model.Auction) (int64, error)
	// UpdateAuction rewrites the mutable fields only: title, description,
	// dates, prices, location, category, url, status. created_at and the
	// natural key are preserved; updated_at is refreshed.
	UpdateAuction(ctx context.Context, a model.Auction) error

	// InsertImage is a no-op when the exact URL already exists for the
	// auction.
	InsertImage(ctx context.Context, auctionID int64, url string, primary bool) error
	InsertDetail(ctx context.Context, auctionID int64, key, value string) error

	// Read paths.
	ListByEndDate(ctx context.Context, limit, offset int) ([]model.AuctionView, error)
	ActiveWithCoordinates(ctx context.Context) ([]model.AuctionView, error)
	GetAuctionView(ctx context.Context, auctionID int64) (*model.AuctionView, error)
	ImagesFor(ctx context.Context, auctionID int64) ([]string, error)

	// Single-row preference; Set overwrites.
	GetPreference(ctx context.Context) (*model.Preference, error)
	SetPreference(ctx context.Context, zipCode string, maxDistance int) error

	// WithTx runs fn against a transaction-scoped store. The ingest engine
	// wraps each record in one so a failed record leaves nothing behind.
	WithTx(ctx context.Context, fn func(Store) error) error

	Migrate(ctx context.Context) error
	Close() error
}

// SeedCategory is one member of the fixed taxonomy guaranteed to exist
// before any ingestion runs.
type SeedCategory struct {
	Name        string
	Description string
}

// SeedCategories is the fixed seed set. Ingestion may add inferred categories
// beyond these but never duplicates by name.
var SeedCategories = []SeedCategory{
	{"vehicles", "Vehicles including cars, trucks, motorcycles, and other automotive items"},
	{"equipment", "Heavy equipment, machinery, and tools"},
	{"electronics", "Computers, phones, and other electronic devices"},
	{"furniture", "Office and home furniture"},
	{"real_estate", "Land, buildings, and property"},
	{"jewelry", "Jewelry, watches, and precious metals"},
	{"other", "Miscellaneous items"},
}
