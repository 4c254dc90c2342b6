package ingest

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/txsurplus/auctiondb/internal/model"
)

// ReadBatch loads a scraped batch file. A file that is unreadable or not
// valid JSON is fatal for the whole run; bad individual records are the
// engine's problem.
func ReadBatch(path string) (*model.RawBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read batch file %s", path)
	}
	var batch model.RawBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, eris.Wrapf(err, "ingest: parse batch file %s", path)
	}
	return &batch, nil
}
