package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "auctions.db", cfg.Store.SQLitePath)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocoder.BaseURL)
	assert.Equal(t, 1.0, cfg.Geocoder.RateLimitRPS)
	assert.Equal(t, "TX", cfg.Ingest.DefaultState)
	assert.Equal(t, 7, cfg.Ingest.DefaultHorizonDays)
	assert.Equal(t, "78232", cfg.Query.DefaultZip)
	assert.Equal(t, 100, cfg.Query.DefaultMaxDistance)
	assert.Equal(t, 20, cfg.Query.PageSize)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("AUCTIONDB_STORE_DRIVER", "postgres")
	t.Setenv("AUCTIONDB_QUERY_DEFAULT_ZIP", "78701")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "78701", cfg.Query.DefaultZip)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "not-a-level"}))
}
