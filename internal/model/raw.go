package model

import (
	"encoding/json"
	"strings"
	"time"
)

// RawBatch is the top-level container produced by a scraper run. A container
// that fails to parse is a fatal ingestion error; individual bad records are
// not.
type RawBatch struct {
	Source       string      `json:"source"`
	SourceURL    string      `json:"source_url,omitempty"`
	ScrapeTime   time.Time   `json:"scrape_time,omitzero"`
	AuctionCount int         `json:"auction_count,omitempty"`
	Auctions     []RawRecord `json:"auctions"`
}

// RawRecord is one loosely-typed auction record as scraped. Every field
// except Title and URL is optional; dates and prices are free-form strings
// and Location may arrive as either a structured object or a bare string.
type RawRecord struct {
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	URL           string         `json:"url"`
	ExternalID    string         `json:"external_id,omitempty"`
	StartDate     string         `json:"start_date,omitempty"`
	EndDate       string         `json:"end_date,omitempty"`
	CurrentPrice  RawPrice       `json:"current_price,omitempty"`
	StartingPrice RawPrice       `json:"starting_price,omitempty"`
	Location      *RawLocation   `json:"location,omitempty"`
	Category      string         `json:"category,omitempty"`
	Images        []string       `json:"images,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

// RawLocation mirrors the scraper location shape. It unmarshals from either
// a JSON object or a free-text string ("Austin, TX 78701"); string input is
// kept verbatim in Text for the normalizer to parse.
type RawLocation struct {
	Address   string   `json:"address,omitempty"`
	City      string   `json:"city,omitempty"`
	State     string   `json:"state,omitempty"`
	ZipCode   string   `json:"zip_code,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Text      string   `json:"-"`
}

func (l *RawLocation) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = RawLocation{Text: s}
		return nil
	}
	type alias RawLocation
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*l = RawLocation(a)
	return nil
}

// RawPrice is a price field that sources emit as either a JSON number or a
// currency string ("$1,234.56"). It preserves the textual form for the
// normalizer's price cleaner.
type RawPrice string

func (p *RawPrice) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*p = ""
		return nil
	}
	if len(s) > 0 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*p = RawPrice(str)
		return nil
	}
	// Bare number: keep its literal text.
	*p = RawPrice(s)
	return nil
}

func (p RawPrice) String() string { return string(p) }

// Canonical is a fully-normalized auction record ready for storage: Title,
// URL and EndDate are always populated, everything else is optional.
type Canonical struct {
	ExternalID    string
	Title         string
	Description   string
	URL           string
	StartDate     *time.Time
	EndDate       time.Time
	CurrentPrice  *float64
	StartingPrice *float64
	Location      *RawLocation
	CategoryName  string
	Images        []string
	Details       map[string]string
}
