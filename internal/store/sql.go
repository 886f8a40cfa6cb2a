// Package store provides persist.DocumentStore backends: SQLite, Postgres,
// Redis and plain JSON files.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"sitesketch/internal/persist"
	"sitesketch/internal/pricing"
)

type dialect struct {
	name    string
	schema  string
	upsert  string
	load    string
	setEst  string
	listAll string
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: `
CREATE TABLE IF NOT EXISTS sketches (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL DEFAULT '',
    record_id  TEXT NOT NULL DEFAULT '',
    document   TEXT NOT NULL,
    estimate   TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS sketches_record_id ON sketches(record_id);`,
	upsert: `
INSERT INTO sketches (id, title, record_id, document, estimate, created_at, updated_at)
VALUES (?, ?, ?, ?, NULL, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    record_id = excluded.record_id,
    document = excluded.document,
    estimate = NULL,
    updated_at = excluded.updated_at`,
	load:    `SELECT document, estimate FROM sketches WHERE id = ?`,
	setEst:  `UPDATE sketches SET estimate = ? WHERE id = ?`,
	listAll: `SELECT id, title, record_id, updated_at FROM sketches ORDER BY updated_at DESC LIMIT ?`,
}

var postgresDialect = dialect{
	name: "postgres",
	schema: `
CREATE TABLE IF NOT EXISTS sketches (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL DEFAULT '',
    record_id  TEXT NOT NULL DEFAULT '',
    document   JSONB NOT NULL,
    estimate   JSONB,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS sketches_record_id ON sketches(record_id);`,
	upsert: `
INSERT INTO sketches (id, title, record_id, document, estimate, created_at, updated_at)
VALUES ($1, $2, $3, $4, NULL, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    record_id = EXCLUDED.record_id,
    document = EXCLUDED.document,
    estimate = NULL,
    updated_at = EXCLUDED.updated_at`,
	load:    `SELECT document::text, estimate::text FROM sketches WHERE id = $1`,
	setEst:  `UPDATE sketches SET estimate = $1 WHERE id = $2`,
	listAll: `SELECT id, title, record_id, updated_at::text FROM sketches ORDER BY updated_at DESC LIMIT $1`,
}

// SQLStore keeps one row per sketch with the document as JSON.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// OpenSQLite opens or creates a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &SQLStore{db: db, dialect: sqliteDialect}, nil
}

// OpenPostgres connects to databaseURL through pgx.
func OpenPostgres(ctx context.Context, databaseURL string) (*SQLStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(20)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &SQLStore{db: db, dialect: postgresDialect}, nil
}

// Migrate creates the sketches table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.schema); err != nil {
		return fmt.Errorf("migrate %s: %w", s.dialect.name, err)
	}
	return nil
}

// SaveSketch inserts or replaces a sketch. A stored estimate is cleared
// since it priced the previous geometry.
func (s *SQLStore) SaveSketch(ctx context.Context, doc *persist.Document) error {
	data, err := marshalDocument(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.dialect.upsert,
		doc.ID, doc.Title, doc.RecordID, string(data), doc.Created.UTC(), doc.Updated.UTC())
	if err != nil {
		return fmt.Errorf("save sketch: %w", err)
	}
	return nil
}

// LoadSketch returns the sketch with id, or persist.ErrNotFound.
func (s *SQLStore) LoadSketch(ctx context.Context, id string) (*persist.Document, error) {
	var (
		document string
		estimate sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.dialect.load, id).Scan(&document, &estimate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persist.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load sketch: %w", err)
	}

	doc, err := unmarshalDocument([]byte(document))
	if err != nil {
		return nil, err
	}
	if estimate.Valid && estimate.String != "" {
		if doc.Estimate, err = unmarshalEstimate([]byte(estimate.String)); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// SaveEstimate stores the pricing result of a saved sketch.
func (s *SQLStore) SaveEstimate(ctx context.Context, id string, est *pricing.Estimate) error {
	data, err := json.Marshal(est)
	if err != nil {
		return fmt.Errorf("marshal estimate: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.dialect.setEst, string(data), id)
	if err != nil {
		return fmt.Errorf("save estimate: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return persist.ErrNotFound
	}
	return nil
}

// Summary is a row of the sketch listing.
type Summary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	RecordID string `json:"recordId,omitempty"`
	Updated  string `json:"updated"`
}

// List returns the most recently updated sketches.
func (s *SQLStore) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.listAll, limit)
	if err != nil {
		return nil, fmt.Errorf("list sketches: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.RecordID, &sum.Updated); err != nil {
			return nil, fmt.Errorf("scan sketch: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// marshalDocument encodes a document without its estimate, which is kept
// separately by every backend.
func marshalDocument(doc *persist.Document) ([]byte, error) {
	if doc.ID == "" {
		return nil, errors.New("save sketch: document has no id")
	}
	c := *doc
	c.Estimate = nil
	data, err := json.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal sketch: %w", err)
	}
	return data, nil
}

func unmarshalDocument(data []byte) (*persist.Document, error) {
	var doc persist.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode sketch: %w", err)
	}
	return &doc, nil
}

func unmarshalEstimate(data []byte) (*pricing.Estimate, error) {
	var est pricing.Estimate
	if err := json.Unmarshal(data, &est); err != nil {
		return nil, fmt.Errorf("decode estimate: %w", err)
	}
	return &est, nil
}
