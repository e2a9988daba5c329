// Package indexdb maintains a SQLite index of episodes and their event
// batches. Writes go through a single async writer goroutine so the
// simulation loop never blocks on the database.
package indexdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"griddly.ai/internal/sim/grid"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqEpisode reqKind = iota + 1
	reqEvents
)

type req struct {
	kind reqKind

	episode EpisodeRow
	events  eventBatch
}

// EpisodeRow summarises one finished or running episode.
type EpisodeRow struct {
	EpisodeID   string
	Game        string
	GameDigest  string
	Level       string
	Seed        uint32
	Width       int32
	Height      int32
	Players     uint32
	Ticks       int32
	TotalReward int64
	StartedAt   string
}

type eventBatch struct {
	EpisodeID string
	Events    []grid.GridEvent
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
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

	s := &SQLiteIndex{
		db: db,
		// High buffer: event batches arrive in bursts at history flush time.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads; NORMAL is a decent
	// durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
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
		`CREATE TABLE IF NOT EXISTS episodes (
			episode_id TEXT PRIMARY KEY,
			game TEXT NOT NULL,
			game_digest TEXT NOT NULL,
			level TEXT,
			seed INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			players INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			total_reward INTEGER NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			episode_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			player_id INTEGER NOT NULL,
			action_name TEXT NOT NULL,
			source_object TEXT,
			dest_object TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (episode_id, tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_action ON events(episode_id, action_name, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordEpisode upserts the episode row. Safe to call repeatedly as the run
// progresses; later writes update ticks and total_reward, and the other
// columns keep the values of the first write.
func (s *SQLiteIndex) RecordEpisode(row EpisodeRow) {
	s.enqueue(req{kind: reqEpisode, episode: row})
}

// RecordEvents indexes a batch of history events for an episode.
func (s *SQLiteIndex) RecordEvents(episodeID string, events []grid.GridEvent) {
	if len(events) == 0 {
		return
	}
	batch := eventBatch{EpisodeID: episodeID, Events: append([]grid.GridEvent(nil), events...)}
	s.enqueue(req{kind: reqEvents, events: batch})
}

func (s *SQLiteIndex) enqueue(r req) {
	if s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		// Drop rather than stall the simulation.
	}
}

func (s *SQLiteIndex) loop() {
	seqByEpisodeTick := map[string]map[uint32]int{}
	for r := range s.ch {
		switch r.kind {
		case reqEpisode:
			s.writeEpisode(r.episode)
		case reqEvents:
			s.writeEvents(r.events, seqByEpisodeTick)
		}
	}
}

func (s *SQLiteIndex) writeEpisode(row EpisodeRow) {
	_, err := s.db.Exec(`INSERT INTO episodes
		(episode_id, game, game_digest, level, seed, width, height, players, ticks, total_reward, started_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(episode_id) DO UPDATE SET
			ticks=excluded.ticks,
			total_reward=excluded.total_reward`,
		row.EpisodeID, row.Game, row.GameDigest, row.Level, row.Seed,
		row.Width, row.Height, row.Players, row.Ticks, row.TotalReward, row.StartedAt)
	if err != nil {
		fmt.Fprintln(os.Stderr, "indexdb: episode write:", err)
	}
}

func (s *SQLiteIndex) writeEvents(batch eventBatch, seqs map[string]map[uint32]int) {
	tx, err := s.db.Begin()
	if err != nil {
		fmt.Fprintln(os.Stderr, "indexdb: begin:", err)
		return
	}
	byTick := seqs[batch.EpisodeID]
	if byTick == nil {
		byTick = map[uint32]int{}
		seqs[batch.EpisodeID] = byTick
	}
	for _, event := range batch.Events {
		raw, err := json.Marshal(event)
		if err != nil {
			continue
		}
		seq := byTick[event.Tick]
		byTick[event.Tick] = seq + 1
		if _, err := tx.Exec(`INSERT OR REPLACE INTO events
			(episode_id, tick, seq, player_id, action_name, source_object, dest_object, raw_json)
			VALUES (?,?,?,?,?,?,?,?)`,
			batch.EpisodeID, event.Tick, seq, event.PlayerID, event.ActionName,
			event.SourceObjectName, event.DestObjectName, string(raw)); err != nil {
			fmt.Fprintln(os.Stderr, "indexdb: event write:", err)
		}
	}
	if err := tx.Commit(); err != nil {
		fmt.Fprintln(os.Stderr, "indexdb: commit:", err)
	}
}

// EpisodeCount reports how many episodes are indexed.
func (s *SQLiteIndex) EpisodeCount() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM episodes`).Scan(&n)
	return n, err
}

// EventCount reports how many events are indexed for an episode.
func (s *SQLiteIndex) EventCount(episodeID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE episode_id = ?`, episodeID).Scan(&n)
	return n, err
}
