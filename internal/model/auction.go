package model

import "time"

// AuctionStatus represents the lifecycle state of an auction listing.
type AuctionStatus string

const (
	StatusActive    AuctionStatus = "active"
	StatusEnded     AuctionStatus = "ended"
	StatusCancelled AuctionStatus = "cancelled"
)

// Source identifies an auction provider. Sources are created once and looked
// up by their unique name on every ingestion batch.
type Source struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	WebsiteURL   string    `json:"website_url"`
	Description  string    `json:"description,omitempty"`
	IsGovernment bool      `json:"is_government"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Location is a geocodable place. Latitude and longitude are both set or both
// nil; a location stays unresolved until geocoding succeeds.
type Location struct {
	ID        int64    `json:"id"`
	Address   string   `json:"address,omitempty"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	ZipCode   string   `json:"zip_code,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Category is a taxonomy node. Root categories have no parent.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ParentID    *int64 `json:"parent_id,omitempty"`
}

// Auction is the central entity. ExternalID together with SourceID forms the
// natural dedup key; when the source supplies no external id, (Title, URL)
// is used instead.
type Auction struct {
	ID            int64         `json:"id"`
	SourceID      int64         `json:"source_id"`
	ExternalID    string        `json:"external_id,omitempty"`
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	StartDate     *time.Time    `json:"start_date,omitempty"`
	EndDate       time.Time     `json:"end_date"`
	CurrentPrice  *float64      `json:"current_price,omitempty"`
	StartingPrice *float64      `json:"starting_price,omitempty"`
	LocationID    *int64        `json:"location_id,omitempty"`
	CategoryID    *int64        `json:"category_id,omitempty"`
	URL           string        `json:"url"`
	Status        AuctionStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Preference is the saved anchor for proximity queries. The store keeps a
// single preference row that writes overwrite.
type Preference struct {
	ZipCode     string `json:"zip_code"`
	MaxDistance int    `json:"max_distance"`
}

// AuctionView is a read-model row returned by the query engine: the auction
// plus its joined reference data and image URLs. Distance is populated only
// by proximity queries, in miles rounded to two decimals.
type AuctionView struct {
	ID            int64         `json:"id"`
	SourceName    string        `json:"source_name"`
	CategoryName  string        `json:"category_name,omitempty"`
	ExternalID    string        `json:"external_id,omitempty"`
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	StartDate     *time.Time    `json:"start_date,omitempty"`
	EndDate       time.Time     `json:"end_date"`
	CurrentPrice  *float64      `json:"current_price,omitempty"`
	StartingPrice *float64      `json:"starting_price,omitempty"`
	URL           string        `json:"url"`
	Status        AuctionStatus `json:"status"`
	City          string        `json:"city,omitempty"`
	State         string        `json:"state,omitempty"`
	ZipCode       string        `json:"zip_code,omitempty"`
	Latitude      *float64      `json:"latitude,omitempty"`
	Longitude     *float64      `json:"longitude,omitempty"`
	Images        []string      `json:"images,omitempty"`
	Distance      *float64      `json:"distance,omitempty"`
}
