package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/txsurplus/auctiondb/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgres(mock), mock
}

func TestPostgres_EnsureSource_Existing(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT id FROM sources").
		WithArgs("GovDeals - Texas").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := st.EnsureSource(context.Background(), model.Source{Name: "GovDeals - Texas"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_EnsureSource_Inserts(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT id FROM sources").
		WithArgs("new source").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectQuery("INSERT INTO sources").
		WithArgs("new source", "", "", false).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))

	id, err := st.EnsureSource(context.Background(), model.Source{Name: "new source"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindLocation_Missing(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT id, address, city, state, zip_code").
		WithArgs("Austin", "TX", "78701").
		WillReturnRows(pgxmock.NewRows([]string{"id", "address", "city", "state", "zip_code", "latitude", "longitude"}))

	loc, err := st.FindLocation(context.Background(), "Austin", "TX", "78701")
	require.NoError(t, err)
	assert.Nil(t, loc)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertAuction_DefaultsStatus(t *testing.T) {
	st, mock := newMockPostgres(t)

	end := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO auctions").
		WithArgs(int64(1), "ext-1", "Lot 1", "", (*time.Time)(nil), end,
			(*float64)(nil), (*float64)(nil), (*int64)(nil), (*int64)(nil),
			"https://example.com/1", "active").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := st.InsertAuction(context.Background(), model.Auction{
		SourceID:   1,
		ExternalID: "ext-1",
		Title:      "Lot 1",
		EndDate:    end,
		URL:        "https://example.com/1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateAuction_NotFound(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectExec("UPDATE auctions SET").
		WithArgs("Lot 1", "", (*time.Time)(nil), pgxmock.AnyArg(),
			(*float64)(nil), (*float64)(nil), (*int64)(nil), (*int64)(nil),
			"https://example.com/1", "active", int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := st.UpdateAuction(context.Background(), model.Auction{
		ID:      99,
		Title:   "Lot 1",
		EndDate: time.Now(),
		URL:     "https://example.com/1",
		Status:  model.StatusActive,
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_WithTx_Rollback(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO auction_details").
		WithArgs(int64(1), "vin", "1FTEW").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectRollback()

	err := st.WithTx(context.Background(), func(tx Store) error {
		if err := tx.InsertDetail(context.Background(), 1, "vin", "1FTEW"); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_WithTx_Commit(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO auction_images").
		WithArgs(int64(1), "https://img/1.jpg", true).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := st.WithTx(context.Background(), func(tx Store) error {
		return tx.InsertImage(context.Background(), 1, "https://img/1.jpg", true)
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetPreference(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO user_preferences").
		WithArgs("78232", 100).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, st.SetPreference(context.Background(), "78232", 100))
	assert.NoError(t, mock.ExpectationsWereMet())
}
