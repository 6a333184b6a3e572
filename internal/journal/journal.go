package journal

// #region imports
import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #endregion

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS diagnosis_log (
	entry_id     TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL,
	carrier_id   TEXT NOT NULL,
	hole_id      TEXT NOT NULL,
	phase        TEXT NOT NULL,
	status       TEXT NOT NULL,
	e_codes      TEXT,
	r_codes      TEXT,
	drift_event  INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT NOT NULL
);
`

const diagnosisIndex = `
CREATE INDEX IF NOT EXISTS idx_diagnosis_log_lookup
ON diagnosis_log(carrier_id, hole_id, created_at);
`

// #endregion

// #region entry

// Entry is one row of the diagnosis journal: the provenance of a single
// per-hole decision, kept locally for traceability.
type Entry struct {
	EntryID    string
	SessionID  string
	CarrierID  string
	HoleID     string
	Phase      string
	Status     string
	ECodes     []string
	RCodes     []string
	DriftEvent bool
	CreatedAt  time.Time
}

// #endregion

// #region journal

// Journal persists diagnosis provenance rows in SQLite.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database and runs migrations.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if _, err := db.Exec(diagnosisIndex); err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// #endregion

// #region record

// Record writes one provenance row. Assigns an entry ID and timestamp when absent.
func (j *Journal) Record(e Entry) error {
	if e.EntryID == "" {
		e.EntryID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	drift := 0
	if e.DriftEvent {
		drift = 1
	}
	_, err := j.db.Exec(
		`INSERT INTO diagnosis_log
		 (entry_id, session_id, carrier_id, hole_id, phase, status, e_codes, r_codes, drift_event, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EntryID,
		e.SessionID,
		e.CarrierID,
		e.HoleID,
		e.Phase,
		e.Status,
		strings.Join(e.ECodes, ","),
		strings.Join(e.RCodes, ","),
		drift,
		// Fixed-width UTC text so ORDER BY created_at sorts chronologically.
		e.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000000Z07:00"),
	)
	if err != nil {
		return fmt.Errorf("record diagnosis: %w", err)
	}
	return nil
}

// #endregion

// #region recent

// Recent returns the latest entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	rows, err := j.db.Query(
		`SELECT entry_id, session_id, carrier_id, hole_id, phase, status, e_codes, r_codes, drift_event, created_at
		 FROM diagnosis_log ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var eCodes, rCodes, createdStr string
		var drift int
		if err := rows.Scan(&e.EntryID, &e.SessionID, &e.CarrierID, &e.HoleID,
			&e.Phase, &e.Status, &eCodes, &rCodes, &drift, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.ECodes = splitCodes(eCodes)
		e.RCodes = splitCodes(rCodes)
		e.DriftEvent = drift == 1
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func splitCodes(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// #endregion
