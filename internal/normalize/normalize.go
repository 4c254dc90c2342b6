// Package normalize turns loosely-typed scraped auction records into
// canonical auctions with all required fields populated. Helper failures
// (dates, prices, locations) resolve to absent values and never propagate;
// only a record missing its required fields is rejected.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/txsurplus/auctiondb/internal/model"
)

// RejectError marks a record the normalizer dropped. Callers count it as
// skipped and continue the batch.
type RejectError struct {
	Reason string
}

func (e *RejectError) Error() string { return "normalize: record rejected: " + e.Reason }

// IsReject reports whether err is a data-quality rejection rather than a
// structural failure.
func IsReject(err error) bool {
	var re *RejectError
	return eris.As(err, &re)
}

// Normalizer converts raw records to canonical auctions.
type Normalizer struct {
	defaultState string
	horizon      time.Duration
	now          func() time.Time
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock overrides the wall clock, used by relative-date resolution and
// the end-date fallback.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// New creates a Normalizer. defaultState fills unparseable locations and
// horizon is the end-date fallback applied when a source supplies no usable
// end date (the storage schema requires one).
func New(defaultState string, horizon time.Duration, opts ...Option) *Normalizer {
	n := &Normalizer{
		defaultState: defaultState,
		horizon:      horizon,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts one raw record. It returns a *RejectError when the
// record is missing a title or URL; every other malformed field degrades to
// an absent value.
func (n *Normalizer) Normalize(rec model.RawRecord) (*model.Canonical, error) {
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		return nil, &RejectError{Reason: "missing title"}
	}
	u := strings.TrimSpace(rec.URL)
	if u == "" {
		return nil, &RejectError{Reason: "missing url"}
	}

	now := n.now()

	c := &model.Canonical{
		ExternalID:  strings.TrimSpace(rec.ExternalID),
		Title:       title,
		URL:         u,
		Description: strings.TrimSpace(rec.Description),
	}

	// End date is required downstream: unparseable or absent input falls
	// back to the configured horizon.
	if end, ok := ParseDate(rec.EndDate, now); ok {
		c.EndDate = end
	} else {
		c.EndDate = now.Add(n.horizon)
	}
	if start, ok := ParseDate(rec.StartDate, now); ok {
		c.StartDate = &start
	}

	if v, ok := ParsePrice(rec.CurrentPrice.String()); ok {
		c.CurrentPrice = &v
	}
	if v, ok := ParsePrice(rec.StartingPrice.String()); ok {
		c.StartingPrice = &v
	}

	c.Location = n.normalizeLocation(rec.Location)

	category := strings.TrimSpace(strings.ToLower(rec.Category))
	if category == "" {
		category = InferCategory(c.Title, c.Description)
	}
	c.CategoryName = category

	for _, img := range rec.Images {
		if img = strings.TrimSpace(img); img != "" {
			c.Images = append(c.Images, img)
		}
	}

	if len(rec.Details) > 0 {
		c.Details = make(map[string]string, len(rec.Details))
		for k, v := range rec.Details {
			c.Details[k] = fmt.Sprintf("%v", v)
		}
	}

	return c, nil
}

func (n *Normalizer) normalizeLocation(raw *model.RawLocation) *model.RawLocation {
	if raw == nil {
		return nil
	}
	if raw.Text != "" {
		loc := ParseLocation(raw.Text, n.defaultState)
		return &loc
	}

	loc := *raw
	if loc.State == "" {
		loc.State = n.defaultState
	}
	// Coordinates come as a pair or not at all.
	if (loc.Latitude == nil) != (loc.Longitude == nil) {
		loc.Latitude = nil
		loc.Longitude = nil
	}
	if loc.City == "" && loc.ZipCode == "" && loc.Address == "" {
		return nil
	}
	return &loc
}
