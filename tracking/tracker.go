// Package tracking 记录模型生命周期的实验运行
package tracking

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Recorder is the experiment-tracking side channel. The registry tags a
// run per lifecycle operation and logs metrics into it; nothing in the
// core reads this back.
type Recorder interface {
	StartRun(tags map[string]string) (int64, error)
	LogMetric(runID int64, name string, value float64) error
	EndRun(runID int64, status string) error
	Close() error
}

// SQLite Recorder backed by a local database file.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        started_at DATETIME NOT NULL,
        ended_at DATETIME,
        status TEXT DEFAULT 'running'
    );
    CREATE TABLE IF NOT EXISTS run_tags (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id INTEGER NOT NULL,
        key TEXT NOT NULL,
        value TEXT,
        UNIQUE(run_id, key)
    );
    CREATE TABLE IF NOT EXISTS run_metrics (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id INTEGER NOT NULL,
        name TEXT NOT NULL,
        value REAL,
        logged_at DATETIME NOT NULL
    );
    `
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) StartRun(tags map[string]string) (int64, error) {
	result, err := s.db.Exec(`INSERT INTO runs (started_at) VALUES (?)`, time.Now())
	if err != nil {
		return 0, err
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	for key, value := range tags {
		if _, err := s.db.Exec(`INSERT OR REPLACE INTO run_tags (run_id, key, value) VALUES (?, ?, ?)`,
			runID, key, value); err != nil {
			return 0, err
		}
	}
	return runID, nil
}

func (s *SQLite) LogMetric(runID int64, name string, value float64) error {
	_, err := s.db.Exec(`INSERT INTO run_metrics (run_id, name, value, logged_at) VALUES (?, ?, ?, ?)`,
		runID, name, value, time.Now())
	return err
}

func (s *SQLite) EndRun(runID int64, status string) error {
	_, err := s.db.Exec(`UPDATE runs SET ended_at = ?, status = ? WHERE id = ?`,
		time.Now(), status, runID)
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Noop satisfies Recorder when tracking is disabled.
type Noop struct{}

func (Noop) StartRun(map[string]string) (int64, error)  { return 0, nil }
func (Noop) LogMetric(int64, string, float64) error     { return nil }
func (Noop) EndRun(int64, string) error                 { return nil }
func (Noop) Close() error                               { return nil }
