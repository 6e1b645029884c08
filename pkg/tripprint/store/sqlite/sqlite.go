package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/tripprint/pkg/tripprint/internalerr"
	"github.com/cognicore/tripprint/pkg/tripprint/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// PRAGMAs below are per connection
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	// Initialize schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS trips (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT UNIQUE NOT NULL,
	entity_id TEXT NOT NULL,
	symbols TEXT NOT NULL,
	recorded_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS trips_entity ON trips(entity_id, seq);

CREATE TABLE IF NOT EXISTS thresholds (
	entity_id TEXT PRIMARY KEY,
	threshold REAL NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS calibrations (
	id TEXT PRIMARY KEY,
	entity_id TEXT NOT NULL,
	threshold REAL NOT NULL,
	j REAL NOT NULL,
	auc REAL NOT NULL,
	tp INTEGER NOT NULL,
	tn INTEGER NOT NULL,
	fp INTEGER NOT NULL,
	fn INTEGER NOT NULL,
	recall REAL NOT NULL,
	precision REAL NOT NULL,
	specificity REAL NOT NULL,
	samples INTEGER NOT NULL,
	curve_json TEXT,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS calibrations_entity ON calibrations(entity_id, id);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// AppendTrip inserts a trip; the trip id must be new.
func (s *sqliteStore) AppendTrip(ctx context.Context, t store.Trip) (store.Trip, error) {
	if t.EntityID == "" || t.ID == "" {
		return store.Trip{}, fmt.Errorf("%w: trip needs id and entity", internalerr.ErrInvalidInput)
	}
	if t.RecordedAt.IsZero() {
		t.RecordedAt = time.Now().UTC()
	}

	const stmt = `
INSERT INTO trips (id, entity_id, symbols, recorded_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING
RETURNING seq;
`
	err := s.db.QueryRowContext(
		ctx,
		stmt,
		t.ID,
		t.EntityID,
		t.Symbols,
		t.RecordedAt.UTC().Format(time.RFC3339Nano),
	).Scan(&t.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Trip{}, fmt.Errorf("trip %s: %w", t.ID, internalerr.ErrDuplicate)
	}
	if err != nil {
		return store.Trip{}, err
	}
	return t, nil
}

// TripsFor returns the entity's trips in arrival order.
func (s *sqliteStore) TripsFor(ctx context.Context, entityID string) ([]store.Trip, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT seq, id, entity_id, symbols, recorded_at
FROM trips
WHERE entity_id = ?
ORDER BY seq ASC;
`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []store.Trip
	for rows.Next() {
		var t store.Trip
		var recorded string
		if err := rows.Scan(&t.Seq, &t.ID, &t.EntityID, &t.Symbols, &recorded); err != nil {
			return nil, err
		}
		t.RecordedAt = parseTime(recorded)
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// Entities returns every entity with at least one trip, sorted.
func (s *sqliteStore) Entities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT entity_id FROM trips ORDER BY entity_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// UpsertThreshold sets the entity's current threshold.
func (s *sqliteStore) UpsertThreshold(ctx context.Context, entityID string, threshold float64) error {
	if entityID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO thresholds (entity_id, threshold, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(entity_id) DO UPDATE SET
	threshold=excluded.threshold,
	updated_at=excluded.updated_at;
`, entityID, threshold, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// GetThreshold returns the stored threshold if present.
func (s *sqliteStore) GetThreshold(ctx context.Context, entityID string) (float64, bool, error) {
	var th float64
	err := s.db.QueryRowContext(ctx, `SELECT threshold FROM thresholds WHERE entity_id = ?`, entityID).Scan(&th)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return th, true, nil
}

// AppendCalibration records a calibration run.
func (s *sqliteStore) AppendCalibration(ctx context.Context, c store.Calibration) error {
	if c.ID == "" || c.EntityID == "" {
		return fmt.Errorf("%w: calibration needs id and entity", internalerr.ErrInvalidInput)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO calibrations (
	id, entity_id, threshold, j, auc, tp, tn, fp, fn,
	recall, precision, specificity, samples, curve_json, created_at
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
		c.ID, c.EntityID, c.Threshold, c.J, c.AUC, c.TP, c.TN, c.FP, c.FN,
		c.Recall, c.Precision, c.Specificity, c.Samples, c.CurveJSON,
		c.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// CalibrationsFor returns the entity's calibrations, newest first.
func (s *sqliteStore) CalibrationsFor(ctx context.Context, entityID string, limit int) ([]store.Calibration, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, entity_id, threshold, j, auc, tp, tn, fp, fn,
	recall, precision, specificity, samples, curve_json, created_at
FROM calibrations
WHERE entity_id = ?
ORDER BY id DESC
LIMIT ?;
`, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Calibration
	for rows.Next() {
		var c store.Calibration
		var curve sql.NullString
		var created string
		if err := rows.Scan(
			&c.ID, &c.EntityID, &c.Threshold, &c.J, &c.AUC, &c.TP, &c.TN, &c.FP, &c.FN,
			&c.Recall, &c.Precision, &c.Specificity, &c.Samples, &curve, &created,
		); err != nil {
			return nil, err
		}
		c.CurveJSON = curve.String
		c.CreatedAt = parseTime(created)
		out = append(out, c)
	}
	return out, rows.Err()
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
