package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/txsurplus/auctiondb/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the same methods serve
// autocommit and transactional calls.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
	q  querier
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	s := &SQLiteStore{db: db}
	s.q = db
	return s, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sources (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL UNIQUE,
	website_url   TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	is_government BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS locations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	address    TEXT NOT NULL DEFAULT '',
	city       TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL DEFAULT 'TX',
	zip_code   TEXT NOT NULL DEFAULT '',
	latitude   REAL,
	longitude  REAL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS categories (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	parent_id   INTEGER REFERENCES categories(id),
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS auctions (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id      INTEGER NOT NULL REFERENCES sources(id),
	external_id    TEXT NOT NULL DEFAULT '',
	title          TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	start_date     DATETIME,
	end_date       DATETIME NOT NULL,
	current_price  REAL,
	starting_price REAL,
	location_id    INTEGER REFERENCES locations(id),
	category_id    INTEGER REFERENCES categories(id),
	url            TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'active',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS auction_images (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	auction_id INTEGER NOT NULL REFERENCES auctions(id),
	image_url  TEXT NOT NULL,
	is_primary BOOLEAN NOT NULL DEFAULT FALSE,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (auction_id, image_url)
);

CREATE TABLE IF NOT EXISTS auction_details (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	auction_id INTEGER NOT NULL REFERENCES auctions(id),
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS user_preferences (
	id           INTEGER PRIMARY KEY,
	zip_code     TEXT NOT NULL,
	max_distance INTEGER NOT NULL DEFAULT 100,
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
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

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WithTx runs fn against a transaction-scoped copy of the store.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	txStore := &SQLiteStore{db: s.db, q: tx}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return eris.Wrap(err, "sqlite: tx rolled back with error")
		}
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit tx")
}

func (s *SQLiteStore) EnsureSource(ctx context.Context, src model.Source) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx, `SELECT id FROM sources WHERE name = ?`, src.Name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, eris.Wrapf(err, "sqlite: find source %s", src.Name)
	}

	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO sources (name, website_url, description, is_government, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		src.Name, src.WebsiteURL, src.Description, src.IsGovernment, now, now,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert source %s", src.Name)
	}
	id, err = res.LastInsertId()
	return id, eris.Wrap(err, "sqlite: source id")
}

func (s *SQLiteStore) EnsureCategory(ctx context.Context, name, description string, parentID *int64) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, eris.Wrapf(err, "sqlite: find category %s", name)
	}

	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO categories (name, description, parent_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		name, description, parentID, now, now,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert category %s", name)
	}
	id, err = res.LastInsertId()
	return id, eris.Wrap(err, "sqlite: category id")
}

func (s *SQLiteStore) SeedCategories(ctx context.Context) error {
	for _, c := range SeedCategories {
		if _, err := s.EnsureCategory(ctx, c.Name, c.Description, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) FindLocation(ctx context.Context, city, state, zipCode string) (*model.Location, error) {
	var loc model.Location
	var lat, lon sql.NullFloat64
	err := s.q.QueryRowContext(ctx,
		`SELECT id, address, city, state, zip_code, latitude, longitude
		 FROM locations WHERE city = ? AND state = ? AND zip_code = ?`,
		city, state, zipCode,
	).Scan(&loc.ID, &loc.Address, &loc.City, &loc.State, &loc.ZipCode, &lat, &lon)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find location")
	}
	setCoords(&loc, lat, lon)
	return &loc, nil
}

func (s *SQLiteStore) InsertLocation(ctx context.Context, loc model.Location) (int64, error) {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO locations (address, city, state, zip_code, latitude, longitude, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		loc.Address, loc.City, loc.State, loc.ZipCode, loc.Latitude, loc.Longitude, now, now,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: insert location")
	}
	id, err := res.LastInsertId()
	return id, eris.Wrap(err, "sqlite: location id")
}

func (s *SQLiteStore) UpdateLocationCoords(ctx context.Context, id int64, lat, lon float64) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE locations SET latitude = ?, longitude = ?, updated_at = ? WHERE id = ?`,
		lat, lon, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update location coords %d", id)
	}
	return checkRowsAffected(res, "location", id)
}

const sqliteAuctionCols = `id, source_id, external_id, title, description, start_date, end_date,
	current_price, starting_price, location_id, category_id, url, status, created_at, updated_at`

func (s *SQLiteStore) FindAuctionByExternalID(ctx context.Context, sourceID int64, externalID string) (*model.Auction, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+sqliteAuctionCols+` FROM auctions WHERE source_id = ? AND external_id = ?`,
		sourceID, externalID,
	)
	return scanSQLiteAuction(row)
}

func (s *SQLiteStore) FindAuctionByTitleURL(ctx context.Context, title, url string) (*model.Auction, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+sqliteAuctionCols+` FROM auctions WHERE title = ? AND url = ?`,
		title, url,
	)
	return scanSQLiteAuction(row)
}

func (s *SQLiteStore) InsertAuction(ctx context.Context, a model.Auction) (int64, error) {
	if a.Status == "" {
		a.Status = model.StatusActive
	}
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO auctions (source_id, external_id, title, description, start_date, end_date,
		 current_price, starting_price, location_id, category_id, url, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.SourceID, a.ExternalID, a.Title, a.Description, nullTime(a.StartDate), a.EndDate,
		a.CurrentPrice, a.StartingPrice, a.LocationID, a.CategoryID, a.URL, string(a.Status), now, now,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert auction %s", a.Title)
	}
	id, err := res.LastInsertId()
	return id, eris.Wrap(err, "sqlite: auction id")
}

func (s *SQLiteStore) UpdateAuction(ctx context.Context, a model.Auction) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE auctions SET title = ?, description = ?, start_date = ?, end_date = ?,
		 current_price = ?, starting_price = ?, location_id = ?, category_id = ?, url = ?, status = ?,
		 updated_at = ?
		 WHERE id = ?`,
		a.Title, a.Description, nullTime(a.StartDate), a.EndDate,
		a.CurrentPrice, a.StartingPrice, a.LocationID, a.CategoryID, a.URL, string(a.Status),
		time.Now().UTC(), a.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update auction %d", a.ID)
	}
	return checkRowsAffected(res, "auction", a.ID)
}

func (s *SQLiteStore) InsertImage(ctx context.Context, auctionID int64, url string, primary bool) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO auction_images (auction_id, image_url, is_primary, created_at)
		 VALUES (?, ?, ?, ?)`,
		auctionID, url, primary, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert image for auction %d", auctionID)
}

func (s *SQLiteStore) InsertDetail(ctx context.Context, auctionID int64, key, value string) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO auction_details (auction_id, key, value, created_at) VALUES (?, ?, ?, ?)`,
		auctionID, key, value, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert detail for auction %d", auctionID)
}

const sqliteViewSelect = `
SELECT a.id, s.name, IFNULL(c.name, ''), a.external_id, a.title, a.description,
       a.start_date, a.end_date, a.current_price, a.starting_price, a.url, a.status,
       IFNULL(l.city, ''), IFNULL(l.state, ''), IFNULL(l.zip_code, ''), l.latitude, l.longitude
FROM auctions a
LEFT JOIN sources s ON a.source_id = s.id
LEFT JOIN categories c ON a.category_id = c.id
LEFT JOIN locations l ON a.location_id = l.id`

func (s *SQLiteStore) ListByEndDate(ctx context.Context, limit, offset int) ([]model.AuctionView, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.q.QueryContext(ctx,
		sqliteViewSelect+`
		WHERE a.status = 'active'
		ORDER BY a.end_date ASC, a.id ASC
		LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list by end date")
	}
	return s.collectViews(ctx, rows)
}

func (s *SQLiteStore) ActiveWithCoordinates(ctx context.Context) ([]model.AuctionView, error) {
	rows, err := s.q.QueryContext(ctx,
		sqliteViewSelect+`
		WHERE a.status = 'active' AND l.latitude IS NOT NULL AND l.longitude IS NOT NULL
		ORDER BY a.id ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: active with coordinates")
	}
	return s.collectViews(ctx, rows)
}

func (s *SQLiteStore) GetAuctionView(ctx context.Context, auctionID int64) (*model.AuctionView, error) {
	rows, err := s.q.QueryContext(ctx, sqliteViewSelect+` WHERE a.id = ?`, auctionID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get auction %d", auctionID)
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

func (s *SQLiteStore) ImagesFor(ctx context.Context, auctionID int64) ([]string, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT image_url FROM auction_images WHERE auction_id = ? ORDER BY id ASC`,
		auctionID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: images for auction %d", auctionID)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan image url")
		}
		urls = append(urls, u)
	}
	return urls, eris.Wrap(rows.Err(), "sqlite: iterate image urls")
}

func (s *SQLiteStore) GetPreference(ctx context.Context) (*model.Preference, error) {
	var p model.Preference
	err := s.q.QueryRowContext(ctx,
		`SELECT zip_code, max_distance FROM user_preferences WHERE id = 1`,
	).Scan(&p.ZipCode, &p.MaxDistance)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get preference")
	}
	return &p, nil
}

func (s *SQLiteStore) SetPreference(ctx context.Context, zipCode string, maxDistance int) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO user_preferences (id, zip_code, max_distance, updated_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET zip_code = excluded.zip_code,
		 max_distance = excluded.max_distance, updated_at = excluded.updated_at`,
		zipCode, maxDistance, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: set preference")
}

// helpers

func (s *SQLiteStore) collectViews(ctx context.Context, rows *sql.Rows) ([]model.AuctionView, error) {
	defer rows.Close()

	var views []model.AuctionView
	for rows.Next() {
		var v model.AuctionView
		var start sql.NullTime
		var cur, starting, lat, lon sql.NullFloat64
		if err := rows.Scan(
			&v.ID, &v.SourceName, &v.CategoryName, &v.ExternalID, &v.Title, &v.Description,
			&start, &v.EndDate, &cur, &starting, &v.URL, &v.Status,
			&v.City, &v.State, &v.ZipCode, &lat, &lon,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan auction view")
		}
		if start.Valid {
			t := start.Time
			v.StartDate = &t
		}
		v.CurrentPrice = nullableFloat(cur)
		v.StartingPrice = nullableFloat(starting)
		v.Latitude = nullableFloat(lat)
		v.Longitude = nullableFloat(lon)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate auction views")
	}

	for i := range views {
		imgs, err := s.ImagesFor(ctx, views[i].ID)
		if err != nil {
			return nil, err
		}
		views[i].Images = imgs
	}
	return views, nil
}

func scanSQLiteAuction(row *sql.Row) (*model.Auction, error) {
	var a model.Auction
	var start sql.NullTime
	var cur, starting sql.NullFloat64
	var locID, catID sql.NullInt64
	var status string

	err := row.Scan(
		&a.ID, &a.SourceID, &a.ExternalID, &a.Title, &a.Description, &start, &a.EndDate,
		&cur, &starting, &locID, &catID, &a.URL, &status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan auction")
	}

	if start.Valid {
		t := start.Time
		a.StartDate = &t
	}
	a.CurrentPrice = nullableFloat(cur)
	a.StartingPrice = nullableFloat(starting)
	if locID.Valid {
		a.LocationID = &locID.Int64
	}
	if catID.Valid {
		a.CategoryID = &catID.Int64
	}
	a.Status = model.AuctionStatus(status)
	return &a, nil
}

func checkRowsAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %d", entity, id)
	}
	return nil
}

func nullableFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func setCoords(loc *model.Location, lat, lon sql.NullFloat64) {
	if lat.Valid && lon.Valid {
		loc.Latitude = &lat.Float64
		loc.Longitude = &lon.Float64
	}
}
