package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"farm-market/internal/model"

	_ "modernc.org/sqlite"
)

// PriceStore keeps observed crop prices in SQLite so ranking requests can be
// scored without the caller shipping the full price history.
type PriceStore struct {
	sql  *sql.DB
	path string
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path string) (*PriceStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	s := &PriceStore{sql: sqlDB, path: path}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	log.Printf("[Store] Opened %s", path)
	return s, nil
}

// Close closes the database connection.
func (s *PriceStore) Close() error {
	return s.sql.Close()
}

func (s *PriceStore) migrate() error {
	version := 0
	s.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := s.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS price_points (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				crop_key    TEXT NOT NULL,
				crop        TEXT NOT NULL,
				date        TEXT NOT NULL,
				price       REAL NOT NULL,
				recorded_at TEXT NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_price_points_crop ON price_points(crop_key, id);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return err
		}
	}
	return nil
}

// AddSeries appends every point of every series. Points are kept as given,
// duplicate dates included; ordering by date happens at trend extraction.
// It returns the number of points written.
func (s *PriceStore) AddSeries(ctx context.Context, series []model.MarketTrendSeries) (int, error) {
	return s.write(ctx, series, false)
}

// ReplaceSeries drops the stored history of each crop in series before
// writing the new points.
func (s *PriceStore) ReplaceSeries(ctx context.Context, series []model.MarketTrendSeries) (int, error) {
	return s.write(ctx, series, true)
}

func (s *PriceStore) write(ctx context.Context, series []model.MarketTrendSeries, replace bool) (int, error) {
	tx, err := s.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if replace {
		for _, ser := range series {
			if _, err := tx.ExecContext(ctx, "DELETE FROM price_points WHERE crop_key = ?", model.NormalizeCrop(ser.Crop)); err != nil {
				return 0, fmt.Errorf("clear %s: %w", ser.Crop, err)
			}
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO price_points (crop_key, crop, date, price, recorded_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	n := 0
	for _, ser := range series {
		key := model.NormalizeCrop(ser.Crop)
		if key == "" {
			return 0, &model.InvalidValueError{Field: "crop", Index: -1, Reason: "is required"}
		}
		for _, p := range ser.Series {
			if _, err := stmt.ExecContext(ctx, key, strings.TrimSpace(ser.Crop), p.Date, p.Price, now); err != nil {
				return 0, fmt.Errorf("insert %s: %w", ser.Crop, err)
			}
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// Series returns the stored history of the given crops (all crops when empty),
// one series per crop in crop-key order, points in insertion order.
// Crops without stored points are omitted.
func (s *PriceStore) Series(ctx context.Context, crops []string) ([]model.MarketTrendSeries, error) {
	query := "SELECT crop_key, crop, date, price FROM price_points"
	var args []any
	if len(crops) > 0 {
		placeholders := make([]string, 0, len(crops))
		for _, c := range crops {
			placeholders = append(placeholders, "?")
			args = append(args, model.NormalizeCrop(c))
		}
		query += " WHERE crop_key IN (" + strings.Join(placeholders, ",") + ")"
	}
	query += " ORDER BY crop_key, id"

	rows, err := s.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.MarketTrendSeries{}
	lastKey := ""
	for rows.Next() {
		var key, crop string
		var p model.PricePoint
		if err := rows.Scan(&key, &crop, &p.Date, &p.Price); err != nil {
			return nil, err
		}
		if len(out) == 0 || key != lastKey {
			out = append(out, model.MarketTrendSeries{})
			lastKey = key
		}
		cur := &out[len(out)-1]
		cur.Crop = crop
		cur.Series = append(cur.Series, p)
	}
	return out, rows.Err()
}

// Crops lists the distinct crop keys with stored prices.
func (s *PriceStore) Crops(ctx context.Context) ([]string, error) {
	rows, err := s.sql.QueryContext(ctx, "SELECT DISTINCT crop_key FROM price_points ORDER BY crop_key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
