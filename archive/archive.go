// Package archive stores run history in SQLite: the full narration feed,
// telemetry windows and bookmarks of every recorded run.
package archive

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/trail/telemetry"
)

// RunRow is one recorded run.
type RunRow struct {
	ID              string `db:"id"`
	Seed            int64  `db:"seed"`
	StartedAt       string `db:"started_at"`
	EndedAt         string `db:"ended_at"`
	InitialPop      int    `db:"initial_population"`
	FastEvolution   bool   `db:"fast_evolution"`
	Ticks           int64  `db:"ticks"`
	FinalPopulation int    `db:"final_population"`
	Generation      int    `db:"generation"`
	Species         string `db:"species"`
}

// EventRow is one archived narration line.
type EventRow struct {
	Tick int64  `db:"tick"`
	Tone string `db:"tone"`
	Text string `db:"text"`
}

// Archive wraps a SQLite connection. Events are buffered and written in
// batches; all other writes go straight through.
type Archive struct {
	conn    *sqlx.DB
	runID   string
	pending []EventRow
}

// Open opens or creates an archive at the given path.
func Open(path string) (*Archive, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	a := &Archive{conn: conn}
	if err := a.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return a, nil
}

func (a *Archive) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		ended_at TEXT NOT NULL DEFAULT '',
		initial_population INTEGER NOT NULL,
		fast_evolution INTEGER NOT NULL,
		ticks INTEGER NOT NULL DEFAULT 0,
		final_population INTEGER NOT NULL DEFAULT 0,
		generation INTEGER NOT NULL DEFAULT 0,
		species TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		tone TEXT NOT NULL,
		text TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS window_stats (
		run_id TEXT NOT NULL,
		window_end INTEGER NOT NULL,
		population INTEGER NOT NULL,
		generation INTEGER NOT NULL,
		species TEXT NOT NULL,
		births INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		evictions INTEGER NOT NULL,
		speed_mean REAL NOT NULL,
		vision_mean REAL NOT NULL,
		intelligence_mean REAL NOT NULL,
		energy_mean REAL NOT NULL,
		health_mean REAL NOT NULL,
		ledger_food REAL NOT NULL,
		PRIMARY KEY (run_id, window_end)
	);

	CREATE TABLE IF NOT EXISTS bookmarks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		type TEXT NOT NULL,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, tick);
	`
	_, err := a.conn.Exec(schema)
	return err
}

// BeginRun registers a new run and makes it the target of later writes.
func (a *Archive) BeginRun(seed int64, initialPop int, fastEvolution bool) (string, error) {
	if err := a.Flush(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err := a.conn.Exec(
		"INSERT INTO runs (id, seed, started_at, initial_population, fast_evolution) VALUES (?, ?, ?, ?, ?)",
		id, seed, time.Now().UTC().Format(time.RFC3339), initialPop, fastEvolution,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	a.runID = id
	return id, nil
}

// RunID returns the current run, or "" before BeginRun.
func (a *Archive) RunID() string {
	return a.runID
}

// RecordEvent buffers a narration line for the current run.
func (a *Archive) RecordEvent(tick int64, tone, text string) {
	a.pending = append(a.pending, EventRow{Tick: tick, Tone: tone, Text: text})
}

// Flush writes buffered events in one transaction.
func (a *Archive) Flush() error {
	if len(a.pending) == 0 {
		return nil
	}

	tx, err := a.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range a.pending {
		_, err := tx.Exec(
			"INSERT INTO events (run_id, tick, tone, text) VALUES (?, ?, ?, ?)",
			a.runID, e.Tick, e.Tone, e.Text,
		)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	a.pending = a.pending[:0]
	return nil
}

// RecordStats stores a telemetry window and flushes buffered events.
func (a *Archive) RecordStats(s telemetry.WindowStats) error {
	if err := a.Flush(); err != nil {
		return err
	}
	_, err := a.conn.Exec(`INSERT OR REPLACE INTO window_stats
		(run_id, window_end, population, generation, species, births, deaths, evictions,
		 speed_mean, vision_mean, intelligence_mean, energy_mean, health_mean, ledger_food)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.runID, s.WindowEndTick, s.Population, s.Generation, s.Species, s.Births, s.Deaths, s.Evictions,
		s.SpeedMean, s.VisionMean, s.IntelligenceMean, s.EnergyMean, s.HealthMean, s.LedgerFood,
	)
	if err != nil {
		return fmt.Errorf("insert window stats: %w", err)
	}
	return nil
}

// RecordBookmark stores a bookmark.
func (a *Archive) RecordBookmark(b telemetry.Bookmark) error {
	_, err := a.conn.Exec(
		"INSERT INTO bookmarks (run_id, type, tick, description) VALUES (?, ?, ?, ?)",
		a.runID, string(b.Type), b.Tick, b.Description,
	)
	if err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	return nil
}

// FinishRun flushes events and records the final state of the current run.
func (a *Archive) FinishRun(ticks int64, population, generation int, species string) error {
	if err := a.Flush(); err != nil {
		return err
	}
	_, err := a.conn.Exec(
		"UPDATE runs SET ended_at = ?, ticks = ?, final_population = ?, generation = ?, species = ? WHERE id = ?",
		time.Now().UTC().Format(time.RFC3339), ticks, population, generation, species, a.runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	slog.Info("run archived", "run", a.runID, "ticks", ticks, "population", population)
	return nil
}

// RecentEvents returns the newest events of a run, newest first.
func (a *Archive) RecentEvents(runID string, limit int) ([]EventRow, error) {
	var events []EventRow
	err := a.conn.Select(&events,
		"SELECT tick, tone, text FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	return events, err
}

// Runs returns all recorded runs, oldest first.
func (a *Archive) Runs() ([]RunRow, error) {
	var runs []RunRow
	err := a.conn.Select(&runs, `SELECT id, seed, started_at, ended_at, initial_population,
		fast_evolution, ticks, final_population, generation, species FROM runs ORDER BY rowid`)
	return runs, err
}

// BookmarkCount returns how many bookmarks a run recorded.
func (a *Archive) BookmarkCount(runID string) (int, error) {
	var n int
	err := a.conn.Get(&n, "SELECT COUNT(*) FROM bookmarks WHERE run_id = ?", runID)
	return n, err
}

// Close flushes pending events and closes the connection.
func (a *Archive) Close() error {
	flushErr := a.Flush()
	if err := a.conn.Close(); err != nil {
		return err
	}
	return flushErr
}
