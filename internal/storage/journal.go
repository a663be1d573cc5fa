package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const transferTable string = `
  CREATE TABLE IF NOT EXISTS transfers (
      run TEXT NOT NULL,
      asset TEXT NOT NULL,
      provider TEXT NOT NULL,
      name TEXT NOT NULL,
      location TEXT NOT NULL,
      ok INT NOT NULL,
      bytes INT NOT NULL,
      detail TEXT NOT NULL,
      created INT NOT NULL
  )
`

const transferIndex string = `CREATE INDEX IF NOT EXISTS transfers_run ON transfers (run)`

const DefaultJournalFile string = "data/journal.db"

// Entry is one recorded asset transfer.
type Entry struct {
	Run       string    `json:"run"`
	Asset     string    `json:"asset"`
	Provider  string    `json:"provider"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Succeeded bool      `json:"succeeded"`
	Bytes     int       `json:"bytes"`
	Detail    string    `json:"detail,omitempty"`
	Created   time.Time `json:"created"`
}

// Run summarizes every entry sharing one run ID.
type Run struct {
	Id        string    `json:"id"`
	Started   time.Time `json:"started"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
}

// Journal keeps transfer history in sqlite.
type Journal struct {
	db  *sql.DB
	log *zap.Logger
}

func OpenJournal(filename string, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if filename == "" {
		filename = DefaultJournalFile
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", "file:"+filename)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{transferTable, transferIndex} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init journal: %w", err)
		}
	}
	return &Journal{db: db, log: logger.Named("journal")}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.Created.IsZero() {
		e.Created = time.Now()
	}
	_, err := j.db.ExecContext(ctx, "INSERT INTO transfers VALUES (?,?,?,?,?,?,?,?,?)",
		e.Run,
		e.Asset,
		e.Provider,
		e.Name,
		e.Location,
		e.Succeeded,
		e.Bytes,
		e.Detail,
		e.Created.UnixMilli(),
	)
	if err != nil {
		j.log.Warn("record failed", zap.String("run", e.Run), zap.Error(err))
		return fmt.Errorf("record transfer: %w", err)
	}
	return nil
}

// Runs lists the most recent runs, newest first.
func (j *Journal) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT run, MIN(created), SUM(ok), COUNT(*) - SUM(ok)
		FROM transfers GROUP BY run ORDER BY MIN(created) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started int64
		if err := rows.Scan(&r.Id, &started, &r.Succeeded, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Started = time.UnixMilli(started)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Entries returns the entries of one run in insertion order.
func (j *Journal) Entries(ctx context.Context, run string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run, asset, provider, name, location, ok, bytes, detail, created
		FROM transfers WHERE run = ? ORDER BY rowid`, run)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.Run, &e.Asset, &e.Provider, &e.Name, &e.Location, &e.Succeeded, &e.Bytes, &e.Detail, &created); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Created = time.UnixMilli(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteBefore purges entries recorded before cutoff.
func (j *Journal) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx, "DELETE FROM transfers WHERE created < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge journal: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		j.log.Info("purged", zap.Int64("rows", n), zap.Time("before", cutoff))
	}
	return n, nil
}
