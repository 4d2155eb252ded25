// Package rundb archives runs into sqlite for cross-run balance queries.
// Writes are funneled through one goroutine and dropped under pressure;
// the compressed JSONL logs remain the source of truth.
package rundb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqEvent
	reqSnapshot
)

type req struct {
	kind reqKind

	tick     TickRow
	event    EventRow
	snapshot snapshotRow
}

// TickRow is the per-tick index entry.
type TickRow struct {
	RunID      string
	Tick       uint64
	Day        int
	Minute     float64
	Level      int
	Energy     int
	Water      int
	Gold       int
	ActionKind string
	Executed   bool
	NoAction   bool
	RawJSON    string
}

// EventRow indexes one simulation event. Seq is assigned in the writer
// goroutine.
type EventRow struct {
	RunID   string
	Tick    uint64
	Type    string
	Level   string
	RawJSON string
}

type snapshotRow struct {
	RunID string
	Tick  uint64
	Path  string
}

// RunRow is the per-run summary used by list/report queries.
type RunRow struct {
	RunID       string
	Seed        int64
	Policy      string
	Status      string
	Reason      string
	Ticks       uint64
	Days        int
	Level       int
	StartedAt   string
	CompletedAt string
	StatsJSON   string
}

func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	d := &DB{
		db: db,
		// High buffer: ticks arrive in bursts at high speed multipliers.
		ch: make(chan req, 65536),
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop()
	}()
	return d, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			policy TEXT NOT NULL,
			status TEXT NOT NULL,
			reason TEXT,
			ticks INTEGER NOT NULL DEFAULT 0,
			days INTEGER NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 1,
			items_digest TEXT,
			recipes_digest TEXT,
			stats_json TEXT,
			started_at TEXT NOT NULL,
			completed_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			day INTEGER NOT NULL,
			minute REAL NOT NULL,
			level INTEGER NOT NULL,
			energy INTEGER NOT NULL,
			water INTEGER NOT NULL,
			gold INTEGER NOT NULL,
			action_kind TEXT,
			executed INTEGER NOT NULL,
			no_action INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ticks_run_day ON ticks(run_id, day);`,
		`CREATE TABLE IF NOT EXISTS events (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			level TEXT NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (run_id, tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_run_type ON events(run_id, type);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			path TEXT NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) Close() error {
	var err error
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.ch)
		d.wg.Wait()
		err = d.db.Close()
	})
	return err
}

// StartRun registers a run synchronously so its row exists before any
// tick arrives.
func (d *DB) StartRun(runID string, seed int64, policy, itemsDigest, recipesDigest string) error {
	if d == nil || d.closed.Load() {
		return nil
	}
	_, err := d.db.Exec(
		`INSERT OR REPLACE INTO runs (run_id, seed, policy, status, items_digest, recipes_digest, started_at)
		 VALUES (?, ?, ?, 'running', ?, ?, ?)`,
		runID, seed, policy, itemsDigest, recipesDigest, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// FinishRun records the terminal report synchronously.
func (d *DB) FinishRun(runID, reason string, ticks uint64, days, level int, statsJSON string) error {
	if d == nil || d.closed.Load() {
		return nil
	}
	_, err := d.db.Exec(
		`UPDATE runs SET status='completed', reason=?, ticks=?, days=?, level=?, stats_json=?, completed_at=?
		 WHERE run_id=?`,
		reason, ticks, days, level, statsJSON, time.Now().UTC().Format(time.RFC3339Nano), runID)
	return err
}

func (d *DB) WriteTick(row TickRow) {
	if d == nil || d.closed.Load() {
		return
	}
	select {
	case d.ch <- req{kind: reqTick, tick: row}:
	default:
		// Drop if the indexer falls behind.
	}
}

func (d *DB) WriteEvent(row EventRow) {
	if d == nil || d.closed.Load() {
		return
	}
	select {
	case d.ch <- req{kind: reqEvent, event: row}:
	default:
	}
}

func (d *DB) RecordSnapshot(runID string, tick uint64, path string) {
	if d == nil || d.closed.Load() {
		return
	}
	select {
	case d.ch <- req{kind: reqSnapshot, snapshot: snapshotRow{RunID: runID, Tick: tick, Path: path}}:
	default:
	}
}

func (d *DB) loop() {
	eventSeq := map[string]int{} // run_id|tick -> next seq
	for r := range d.ch {
		switch r.kind {
		case reqTick:
			t := r.tick
			_, _ = d.db.Exec(
				`INSERT OR REPLACE INTO ticks
				 (run_id, tick, day, minute, level, energy, water, gold, action_kind, executed, no_action, raw_json)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				t.RunID, t.Tick, t.Day, t.Minute, t.Level, t.Energy, t.Water, t.Gold,
				t.ActionKind, boolInt(t.Executed), boolInt(t.NoAction), t.RawJSON)
		case reqEvent:
			e := r.event
			key := fmt.Sprintf("%s|%d", e.RunID, e.Tick)
			seq := eventSeq[key]
			eventSeq[key] = seq + 1
			_, _ = d.db.Exec(
				`INSERT OR REPLACE INTO events (run_id, tick, seq, type, level, raw_json)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				e.RunID, e.Tick, seq, e.Type, e.Level, e.RawJSON)
		case reqSnapshot:
			s := r.snapshot
			_, _ = d.db.Exec(
				`INSERT OR REPLACE INTO snapshots (run_id, tick, path) VALUES (?, ?, ?)`,
				s.RunID, s.Tick, s.Path)
		}
	}
}

// ListRuns returns the most recent runs, newest first.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT run_id, seed, policy, status, COALESCE(reason,''), ticks, days, level,
		        started_at, COALESCE(completed_at,''), COALESCE(stats_json,'')
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.RunID, &r.Seed, &r.Policy, &r.Status, &r.Reason,
			&r.Ticks, &r.Days, &r.Level, &r.StartedAt, &r.CompletedAt, &r.StatsJSON); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
