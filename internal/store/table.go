package store

import (
	"database/sql"
	"fmt"
)

// Migrate creates the answers, outcomes and resumes tables. Schema version lives in PRAGMA user_version.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v < 1 {
		if err := migrateV1(tx); err != nil {
			return fmt.Errorf("schema v1: %w", err)
		}
	}
	if v < 2 {
		if err := migrateV2(tx); err != nil {
			return fmt.Errorf("schema v2: %w", err)
		}
	}

	return tx.Commit()
}

func migrateV1(tx *sql.Tx) error {
	stmts := []string{`
CREATE TABLE IF NOT EXISTS answers (
  signature TEXT PRIMARY KEY,
  answer TEXT NOT NULL,
  options TEXT NOT NULL DEFAULT '[]',
  source TEXT NOT NULL,
  question TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS outcomes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id TEXT NOT NULL,
  job_id TEXT NOT NULL,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  url TEXT NOT NULL DEFAULT '',
  outcome TEXT NOT NULL,
  stage TEXT NOT NULL,
  reason TEXT NOT NULL DEFAULT '',
  resume TEXT NOT NULL DEFAULT '',
  started_at TEXT NOT NULL,
  ended_at TEXT NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS resumes (
  job_id TEXT NOT NULL,
  baseline_hash TEXT NOT NULL,
  path TEXT NOT NULL,
  markdown_path TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  PRIMARY KEY (job_id, baseline_hash)
);`, `
CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);`, `
CREATE INDEX IF NOT EXISTS idx_outcomes_ended ON outcomes(ended_at);`, `
PRAGMA user_version = 1;`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// v2 records how far the modal got.
func migrateV2(tx *sql.Tx) error {
	if !columnExists(tx, "outcomes", "pages") {
		if _, err := tx.Exec(`ALTER TABLE outcomes ADD COLUMN pages INTEGER NOT NULL DEFAULT 0;`); err != nil {
			return err
		}
	}
	if !columnExists(tx, "outcomes", "answered") {
		if _, err := tx.Exec(`ALTER TABLE outcomes ADD COLUMN answered INTEGER NOT NULL DEFAULT 0;`); err != nil {
			return err
		}
	}
	_, err := tx.Exec(`PRAGMA user_version = 2;`)
	return err
}

func columnExists(q interface {
	QueryRow(query string, args ...any) *sql.Row
}, table, col string) bool {
	query := fmt.Sprintf(`
SELECT 1
FROM pragma_table_info('%s')
WHERE name = ?
LIMIT 1;
`, table)

	var one int
	err := q.QueryRow(query, col).Scan(&one)
	return err == nil
}
