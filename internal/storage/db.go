package storage

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"stocklens/internal"
)

type DB struct {
	conn *sql.DB
}

// Open creates the database file if needed and initializes the schema.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  file_hash TEXT NOT NULL,
  file_name TEXT NOT NULL,
  processed_at TEXT NOT NULL,
  records INTEGER NOT NULL,
  matched INTEGER NOT NULL,
  right_only INTEGER NOT NULL,
  summary_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
  file_hash TEXT PRIMARY KEY,
  file_name TEXT NOT NULL,
  created_at TEXT NOT NULL,
  payload BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_hash ON runs(file_hash);
`
	_, err := d.conn.Exec(schema)
	return err
}

// RunRow is one entry of the processing-run ledger.
type RunRow struct {
	ID          int    `json:"id"`
	FileHash    string `json:"fileHash"`
	FileName    string `json:"fileName"`
	ProcessedAt string `json:"processedAt"`
	Records     int    `json:"records"`
	Matched     int    `json:"matched"`
	RightOnly   int    `json:"rightOnly"`
}

// InsertRun records a completed pipeline run.
func (d *DB) InsertRun(res *internal.Result) error {
	summary, err := json.Marshal(res.Summary)
	if err != nil {
		return err
	}
	_, err = d.conn.Exec(`
INSERT INTO runs (file_hash, file_name, processed_at, records, matched, right_only, summary_json)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.FileHash, res.FileName, res.ProcessedAt.Format(time.RFC3339),
		len(res.Table.Rows), res.Join.Matched, res.Join.RightOnly, string(summary))
	return err
}

// ListRuns returns the most recent runs, newest first.
func (d *DB) ListRuns(limit int) ([]RunRow, error) {
	rows, err := d.conn.Query(`
SELECT id, file_hash, file_name, processed_at, records, matched, right_only
FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RunRow{}
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.FileHash, &r.FileName, &r.ProcessedAt, &r.Records, &r.Matched, &r.RightOnly); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PutSnapshot stores (or replaces) the memoized pipeline result for a file.
func (d *DB) PutSnapshot(hash, fileName string, payload []byte) error {
	_, err := d.conn.Exec(`
INSERT INTO snapshots (file_hash, file_name, created_at, payload)
VALUES (?, ?, ?, ?)
ON CONFLICT(file_hash) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		hash, fileName, time.Now().UTC().Format(time.RFC3339), payload)
	return err
}

// GetSnapshot returns the cached result payload for a file hash, if any.
func (d *DB) GetSnapshot(hash string) ([]byte, bool, error) {
	var payload []byte
	err := d.conn.QueryRow(`SELECT payload FROM snapshots WHERE file_hash = ?`, hash).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}
