// Package store keeps a SQLite history of training runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"collectorai/internal/ga"
	"collectorai/internal/nn"
)

// ErrNotInitialized is returned when the store is used before Init
var ErrNotInitialized = errors.New("store is not initialized")

// GenerationRow is one stored generation
type GenerationRow struct {
	Generation int
	Stats      ga.Statistics
}

// ChampionRow is one stored champion genome
type ChampionRow struct {
	Generation int
	Fitness    float64
	Genome     nn.Genome
}

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// StartRun registers a new run and returns its id
func (s *SQLiteStore) StartRun(ctx context.Context, seed int64, configYAML string) (string, error) {
	db, err := s.getDB()
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, seed, config, started_at)
		VALUES (?, ?, ?, ?)
	`, id, seed, configYAML, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

// RecordGeneration stores the statistics of one generation
func (s *SQLiteStore) RecordGeneration(ctx context.Context, runID string, gen int, stats ga.Statistics) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (run_id, generation, min_fitness, max_fitness, avg_fitness)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			min_fitness = excluded.min_fitness,
			max_fitness = excluded.max_fitness,
			avg_fitness = excluded.avg_fitness
	`, runID, gen, stats.Min, stats.Max, stats.Avg)
	return err
}

// SaveChampion stores the best genome seen at generation gen
func (s *SQLiteStore) SaveChampion(ctx context.Context, runID string, gen int, fitness float64, genome nn.Genome) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(genome)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO champions (run_id, generation, fitness, genome)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			fitness = excluded.fitness,
			genome = excluded.genome
	`, runID, gen, fitness, payload)
	return err
}

// Generations returns the stored generations of a run in order
func (s *SQLiteStore) Generations(ctx context.Context, runID string) ([]GenerationRow, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT generation, min_fitness, max_fitness, avg_fitness
		FROM generations WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GenerationRow
	for rows.Next() {
		var r GenerationRow
		if err := rows.Scan(&r.Generation, &r.Stats.Min, &r.Stats.Max, &r.Stats.Avg); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestChampion returns the champion with the highest generation of a run
func (s *SQLiteStore) LatestChampion(ctx context.Context, runID string) (ChampionRow, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return ChampionRow{}, false, err
	}

	var (
		c       ChampionRow
		payload []byte
	)
	err = db.QueryRowContext(ctx, `
		SELECT generation, fitness, genome FROM champions
		WHERE run_id = ? ORDER BY generation DESC LIMIT 1
	`, runID).Scan(&c.Generation, &c.Fitness, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ChampionRow{}, false, nil
		}
		return ChampionRow{}, false, err
	}
	if err := json.Unmarshal(payload, &c.Genome); err != nil {
		return ChampionRow{}, false, fmt.Errorf("decode champion of run %s: %w", runID, err)
	}
	return c, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			config TEXT NOT NULL,
			started_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL REFERENCES runs(id),
			generation INTEGER NOT NULL,
			min_fitness REAL NOT NULL,
			max_fitness REAL NOT NULL,
			avg_fitness REAL NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
		CREATE TABLE IF NOT EXISTS champions (
			run_id TEXT NOT NULL REFERENCES runs(id),
			generation INTEGER NOT NULL,
			fitness REAL NOT NULL,
			genome BLOB NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
