package ingest

import "github.com/txsurplus/auctiondb/internal/model"

// Sources is the registry of known auction providers, keyed by the short
// source id that batches and CLI flags use.
var Sources = map[string]model.Source{
	"public_surplus": {
		Name:         "Public Surplus - Texas Facilities Commission",
		WebsiteURL:   "https://www.publicsurplus.com/sms/state,tx/list/current?orgid=871876",
		Description:  "Government surplus auctions from Texas Facilities Commission",
		IsGovernment: true,
	},
	"gaston_sheehan": {
		Name:         "Gaston and Sheehan Auctioneers",
		WebsiteURL:   "https://www.txauction.com/",
		Description:  "Private auction house specializing in government and private auctions in Texas",
		IsGovernment: false,
	},
	"govdeals": {
		Name:         "GovDeals - Texas",
		WebsiteURL:   "https://www.govdeals.com/texas",
		Description:  "Government surplus auctions from various Texas agencies",
		IsGovernment: true,
	},
}

// LookupSource resolves a source id to its registry entry. Unknown ids still
// ingest: the id itself becomes the source name so one-off batches do not
// need registry edits first.
func LookupSource(id string) model.Source {
	if src, ok := Sources[id]; ok {
		return src
	}
	return model.Source{Name: id}
}
