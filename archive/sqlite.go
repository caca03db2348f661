// Package archive persists run and generation records to SQLite so
// finished runs can be inspected and their best networks recovered.
package archive

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"snakevolve/config"
	"snakevolve/neural"
	"snakevolve/telemetry"
)

// Store is a SQLite-backed run archive. One Store records one run.
type Store struct {
	db    *sql.DB
	runID string
}

// Open opens or creates the archive database at path and bootstraps
// the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("archive: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging archive: %w", err)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing archive schema: %w", err)
	}

	return &Store{db: db}, nil
}

// BeginRun registers a new run with its seed and effective config and
// returns the generated run ID.
func (s *Store) BeginRun(ctx context.Context, seed int64, cfg *config.Config) (string, error) {
	cfgYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, seed, started_at, config)
		VALUES (?, ?, ?, ?)
	`, id, seed, time.Now().UTC().Format(time.RFC3339), string(cfgYAML))
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}

	s.runID = id
	return id, nil
}

// RecordGeneration stores one generation summary together with the best
// network seen so far, as its JSON document.
func (s *Store) RecordGeneration(ctx context.Context, stats telemetry.GenerationStats, bestNet *neural.Net) error {
	if s.runID == "" {
		return errors.New("archive: BeginRun was not called")
	}

	var payload []byte
	if bestNet != nil {
		var buf bytes.Buffer
		if err := bestNet.Save(&buf); err != nil {
			return fmt.Errorf("encoding best network: %w", err)
		}
		payload = buf.Bytes()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generations (
			run_id, generation, duration_sec,
			max_score, best_score, max_fitness, mean_fitness, total_steps,
			best_net
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			duration_sec = excluded.duration_sec,
			max_score = excluded.max_score,
			best_score = excluded.best_score,
			max_fitness = excluded.max_fitness,
			mean_fitness = excluded.mean_fitness,
			total_steps = excluded.total_steps,
			best_net = excluded.best_net
	`, s.runID, stats.Generation, stats.DurationSec,
		stats.MaxScore, stats.BestScore, stats.MaxFitness, stats.MeanFitness, stats.TotalSteps,
		payload)
	if err != nil {
		return fmt.Errorf("recording generation %d: %w", stats.Generation, err)
	}
	return nil
}

// BestNet loads the best network recorded for the latest generation of
// the given run.
func (s *Store) BestNet(ctx context.Context, runID string) (*neural.Net, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT best_net FROM generations
		WHERE run_id = ? AND best_net IS NOT NULL
		ORDER BY generation DESC LIMIT 1
	`, runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("archive: no network recorded for run %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading best network: %w", err)
	}
	return neural.Load(bytes.NewReader(payload))
}

// Generations returns all generation summaries for a run in order.
func (s *Store) Generations(ctx context.Context, runID string) ([]telemetry.GenerationStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT generation, duration_sec, max_score, best_score,
		       max_fitness, mean_fitness, total_steps
		FROM generations WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying generations: %w", err)
	}
	defer rows.Close()

	var out []telemetry.GenerationStats
	for rows.Next() {
		var st telemetry.GenerationStats
		if err := rows.Scan(&st.Generation, &st.DurationSec, &st.MaxScore, &st.BestScore,
			&st.MaxFitness, &st.MeanFitness, &st.TotalSteps); err != nil {
			return nil, fmt.Errorf("scanning generation: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			config TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL REFERENCES runs(id),
			generation INTEGER NOT NULL,
			duration_sec REAL NOT NULL,
			max_score INTEGER NOT NULL,
			best_score INTEGER NOT NULL,
			max_fitness REAL NOT NULL,
			mean_fitness REAL NOT NULL,
			total_steps INTEGER NOT NULL,
			best_net BLOB,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
