package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"github.com/txsurplus/auctiondb/internal/db"
	"github.com/txsurplus/auctiondb/internal/model"
)

// pgQuerier is the query surface shared by db.Pool and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	pool db.Pool
	q    pgQuerier
}

// NewPostgres wraps an existing pool. The caller owns pool construction so
// tests can hand in pgxmock.
func NewPostgres(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, q: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sources (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL UNIQUE,
	website_url   TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	is_government BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS locations (
	id         BIGSERIAL PRIMARY KEY,
	address    TEXT NOT NULL DEFAULT '',
	city       TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL DEFAULT 'TX',
	zip_code   TEXT NOT NULL DEFAULT '',
	latitude   DOUBLE PRECISION,
	longitude  DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS categories (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	parent_id   BIGINT REFERENCES categories(id),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS auctions (
	id             BIGSERIAL PRIMARY KEY,
	source_id      BIGINT NOT NULL REFERENCES sources(id),
	external_id    TEXT NOT NULL DEFAULT '',
	title          TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	start_date     TIMESTAMPTZ,
	end_date       TIMESTAMPTZ NOT NULL,
	current_price  DOUBLE PRECISION,
	starting_price DOUBLE PRECISION,
	location_id    BIGINT REFERENCES locations(id),
	category_id    BIGINT REFERENCES categories(id),
	url            TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'active',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS auction_images (
	id         BIGSERIAL PRIMARY KEY,
	auction_id BIGINT NOT NULL REFERENCES auctions(id),
	image_url  TEXT NOT NULL,
	is_primary BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (auction_id, image_url)
);

CREATE TABLE IF NOT EXISTS auction_details (
	id         BIGSERIAL PRIMARY KEY,
	auction_id BIGINT NOT NULL REFERENCES auctions(id),
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_preferences (
	id           BIGINT PRIMARY KEY,
	zip_code     TEXT NOT NULL,
	max_distance INTEGER NOT NULL DEFAULT 100,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_auctions_end_date ON auctions(end_date);
CREATE INDEX IF NOT EXISTS idx_auctions_status ON auctions(status);
CREATE INDEX IF NOT EXISTS idx_auctions_status_end_date ON auctions(status, end_date);
CREATE INDEX IF NOT EXISTS idx_auctions_category ON auctions(category_id);
CREATE INDEX IF NOT EXISTS idx_auctions_source ON auctions(source_id);
CREATE INDEX IF NOT EXISTS idx_auctions_natural_key ON auctions(source_id, external_id);
CREATE INDEX IF NOT EXISTS idx_locations_coordinates ON locations(latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_locations_place ON locations(city, state, zip_code);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close is a no-op; pool lifecycle belongs to the caller that built it.
func (s *PostgresStore) Close() error {
	return nil
}

// WithTx runs fn against a transaction-scoped copy of the store.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	txStore := &PostgresStore{pool: s.pool, q: tx}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return eris.Wrap(err, "postgres: tx rolled back with error")
		}
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit tx")
}

func (s *PostgresStore) EnsureSource(ctx context.Context, src model.Source) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx, `SELECT id FROM sources WHERE name = $1`, src.Name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != pgx.ErrNoRows {
		return 0, eris.Wrapf(err, "postgres: find source %s", src.Name)
	}

	err = s.q.QueryRow(ctx,
		`INSERT INTO sources (name, website_url, description, is_government)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		src.Name, src.WebsiteURL, src.Description, src.IsGovernment,
	).Scan(&id)
	return id, eris.Wrapf(err, "postgres: insert source %s", src.Name)
}

func (s *PostgresStore) EnsureCategory(ctx context.Context, name, description string, parentID *int64) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx, `SELECT id FROM categories WHERE name = $1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != pgx.ErrNoRows {
		return 0, eris.Wrapf(err, "postgres: find category %s", name)
	}

	err = s.q.QueryRow(ctx,
		`INSERT INTO categories (name, description, parent_id) VALUES ($1, $2, $3) RETURNING id`,
		name, description, parentID,
	).Scan(&id)
	return id, eris.Wrapf(err, "postgres: insert category %s", name)
}

func (s *PostgresStore) SeedCategories(ctx context.Context) error {
	for _, c := range SeedCategories {
		if _, err := s.EnsureCategory(ctx, c.Name, c.Description, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) FindLocation(ctx context.Context, city, state, zipCode string) (*model.Location, error) {
	var loc model.Location
	err := s.q.QueryRow(ctx,
		`SELECT id, address, city, state, zip_code, latitude, longitude
		 FROM locations WHERE city = $1 AND state = $2 AND zip_code = $3`,
		city, state, zipCode,
	).Scan(&loc.ID, &loc.Address, &loc.City, &loc.State, &loc.ZipCode, &loc.Latitude, &loc.Longitude)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find location")
	}
	return &loc, nil
}

func (s *PostgresStore) InsertLocation(ctx context.Context, loc model.Location) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx,
		`INSERT INTO locations (address, city, state, zip_code, latitude, longitude)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		loc.Address, loc.City, loc.State, loc.ZipCode, loc.Latitude, loc.Longitude,
	).Scan(&id)
	return id, eris.Wrap(err, "postgres: insert location")
}

func (s *PostgresStore) UpdateLocationCoords(ctx context.Context, id int64, lat, lon float64) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE locations SET latitude = $1, longitude = $2, updated_at = now() WHERE id = $3`,
		lat, lon, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update location coords %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("location not found: %d", id)
	}
	return nil
}

const pgAuctionCols = `id, source_id, external_id, title, description, start_date, end_date,
	current_price, starting_price, location_id, category_id, url, status, created_at, updated_at`

func (s *PostgresStore) FindAuctionByExternalID(ctx context.Context, sourceID int64, externalID string) (*model.Auction, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+pgAuctionCols+` FROM auctions WHERE source_id = $1 AND external_id = $2`,
		sourceID, externalID,
	)
	return scanPgAuction(row)
}

func (s *PostgresStore) FindAuctionByTitleURL(ctx context.Context, title, url string) (*model.Auction, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+pgAuctionCols+` FROM auctions WHERE title = $1 AND url = $2`,
		title, url,
	)
	return scanPgAuction(row)
}

func (s *PostgresStore) InsertAuction(ctx context.Context, a model.Auction) (int64, error) {
	if a.Status == "" {
		a.Status = model.StatusActive
	}
	var id int64
	err := s.q.QueryRow(ctx,
		`INSERT INTO auctions (source_id, external_id, title, description, start_date, end_date,
		 current_price, starting_price, location_id, category_id, url, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
		a.SourceID, a.ExternalID, a.Title, a.Description, a.StartDate, a.EndDate,
		a.CurrentPrice, a.StartingPrice, a.LocationID, a.CategoryID, a.URL, string(a.Status),
	).Scan(&id)
	return id, eris.Wrapf(err, "postgres: insert auction %s", a.Title)
}

func (s *PostgresStore) UpdateAuction(ctx context.Context, a model.Auction) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE auctions SET title = $1, description = $2, start_date = $3, end_date = $4,
		 current_price = $5, starting_price = $6, location_id = $7, category_id = $8, url = $9,
		 status = $10, updated_at = now()
		 WHERE id = $11`,
		a.Title, a.Description, a.StartDate, a.EndDate,
		a.CurrentPrice, a.StartingPrice, a.LocationID, a.CategoryID, a.URL,
		string(a.Status), a.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update auction %d", a.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("auction not found: %d", a.ID)
	}
	return nil
}

func (s *PostgresStore) InsertImage(ctx context.Context, auctionID int64, url string, primary bool) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO auction_images (auction_id, image_url, is_primary) VALUES ($1, $2, $3)
		 ON CONFLICT (auction_id, image_url) DO NOTHING`,
		auctionID, url, primary,
	)
	return eris.Wrapf(err, "postgres: insert image for auction %d", auctionID)
}

func (s *PostgresStore) InsertDetail(ctx context.Context, auctionID int64, key, value string) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO auction_details (auction_id, key, value) VALUES ($1, $2, $3)`,
		auctionID, key, value,
	)
	return eris.Wrapf(err, "postgres: insert detail for auction %d", auctionID)
}

const pgViewSelect = `
SELECT a.id, COALESCE(s.name, ''), COALESCE(c.name, ''), a.external_id, a.title, a.description,
       a.start_date, a.end_date, a.current_price, a.starting_price, a.url, a.status,
       COALESCE(l.city, ''), COALESCE(l.state, ''), COALESCE(l.zip_code, ''), l.latitude, l.longitude
FROM auctions a
LEFT JOIN sources s ON a.source_id = s.id
LEFT JOIN categories c ON a.category_id = c.id
LEFT JOIN locations l ON a.location_id = l.id`

func (s *PostgresStore) ListByEndDate(ctx context.Context, limit, offset int) ([]model.AuctionView, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.q.Query(ctx,
		pgViewSelect+`
		WHERE a.status = 'active'
		ORDER BY a.end_date ASC, a.id ASC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list by end date")
	}
	return s.collectViews(ctx, rows)
}

func (s *PostgresStore) ActiveWithCoordinates(ctx context.Context) ([]model.AuctionView, error) {
	rows, err := s.q.Query(ctx,
		pgViewSelect+`
		WHERE a.status = 'active' AND l.latitude IS NOT NULL AND l.longitude IS NOT NULL
		ORDER BY a.id ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: active with coordinates")
	}
	return s.collectViews(ctx, rows)
}

func (s *PostgresStore) GetAuctionView(ctx context.Context, auctionID int64) (*model.AuctionView, error) {
	rows, err := s.q.Query(ctx, pgViewSelect+` WHERE a.id = $1`, auctionID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get auction %d", auctionID)
	}
	views, err := s.collectViews(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, nil
	}
	return &views[0], nil
}

func (s *PostgresStore) ImagesFor(ctx context.Context, auctionID int64) ([]string, error) {
	rows, err := s.q.Query(ctx,
		`SELECT image_url FROM auction_images WHERE auction_id = $1 ORDER BY id ASC`,
		auctionID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: images for auction %d", auctionID)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, eris.Wrap(err, "postgres: scan image url")
		}
		urls = append(urls, u)
	}
	return urls, eris.Wrap(rows.Err(), "postgres: iterate image urls")
}

func (s *PostgresStore) GetPreference(ctx context.Context) (*model.Preference, error) {
	var p model.Preference
	err := s.q.QueryRow(ctx,
		`SELECT zip_code, max_distance FROM user_preferences WHERE id = 1`,
	).Scan(&p.ZipCode, &p.MaxDistance)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get preference")
	}
	return &p, nil
}

func (s *PostgresStore) SetPreference(ctx context.Context, zipCode string, maxDistance int) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO user_preferences (id, zip_code, max_distance, updated_at) VALUES (1, $1, $2, now())
		 ON CONFLICT (id) DO UPDATE SET zip_code = EXCLUDED.zip_code,
		 max_distance = EXCLUDED.max_distance, updated_at = EXCLUDED.updated_at`,
		zipCode, maxDistance,
	)
	return eris.Wrap(err, "postgres: set preference")
}

func (s *PostgresStore) collectViews(ctx context.Context, rows pgx.Rows) ([]model.AuctionView, error) {
	defer rows.Close()

	var views []model.AuctionView
	for rows.Next() {
		var v model.AuctionView
		var status string
		if err := rows.Scan(
			&v.ID, &v.SourceName, &v.CategoryName, &v.ExternalID, &v.Title, &v.Description,
			&v.StartDate, &v.EndDate, &v.CurrentPrice, &v.StartingPrice, &v.URL, &status,
			&v.City, &v.State, &v.ZipCode, &v.Latitude, &v.Longitude,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan auction view")
		}
		v.Status = model.AuctionStatus(status)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate auction views")
	}
	rows.Close()

	for i := range views {
		imgs, err := s.ImagesFor(ctx, views[i].ID)
		if err != nil {
			return nil, err
		}
		views[i].Images = imgs
	}
	return views, nil
}

func scanPgAuction(row pgx.Row) (*model.Auction, error) {
	var a model.Auction
	var status string
	err := row.Scan(
		&a.ID, &a.SourceID, &a.ExternalID, &a.Title, &a.Description, &a.StartDate, &a.EndDate,
		&a.CurrentPrice, &a.StartingPrice, &a.LocationID, &a.CategoryID, &a.URL, &status,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan auction")
	}
	a.Status = model.AuctionStatus(status)
	return &a, nil
}
