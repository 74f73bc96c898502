// Package db keeps an optional SQLite log of prediction outcomes. Claim
// attributes are never written; only the verdict and its metadata are.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the SQLite handle. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

type PredictionLog struct {
	RequestID    string    `json:"request_id"`
	Fraud        int       `json:"fraud"`
	Probability  float64   `json:"probability"`
	RiskLevel    string    `json:"risk_level"`
	ModelVersion string    `json:"model_version"`
	CreatedAt    time.Time `json:"created_at"`
}

type Stats struct {
	Total       int64      `json:"total"`
	Flagged     int64      `json:"flagged"`
	LastScoreAt *time.Time `json:"last_scored_at,omitempty"`
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	// WAL lets /stats read while predictions are being appended.
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	database, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	database.SetMaxOpenConns(10)

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        request_id TEXT NOT NULL,
        fraud INTEGER NOT NULL CHECK (fraud IN (0, 1)),
        probability REAL NOT NULL,
        risk_level TEXT NOT NULL,
        model_version TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions (created_at);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: database}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SavePrediction appends one outcome. A zero CreatedAt is stamped with the current UTC time.
func (s *Store) SavePrediction(ctx context.Context, entry PredictionLog) error {
	if entry.Fraud != 0 && entry.Fraud != 1 {
		return fmt.Errorf("fraud label %d not in [0 1]", entry.Fraud)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO predictions (request_id, fraud, probability, risk_level, model_version, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		entry.RequestID, entry.Fraud, entry.Probability, entry.RiskLevel, entry.ModelVersion, entry.CreatedAt)
	return err
}

// RecentPredictions returns up to limit outcomes, newest first.
func (s *Store) RecentPredictions(ctx context.Context, limit int) ([]PredictionLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT request_id, fraud, probability, risk_level, model_version, created_at
        FROM predictions
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]PredictionLog, 0)
	for rows.Next() {
		var entry PredictionLog
		if err := rows.Scan(&entry.RequestID, &entry.Fraud, &entry.Probability, &entry.RiskLevel, &entry.ModelVersion, &entry.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	var flagged sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(*), SUM(fraud)
        FROM predictions`).Scan(&stats.Total, &flagged)
	if err != nil {
		return Stats{}, err
	}
	stats.Flagged = flagged.Int64

	if stats.Total > 0 {
		recent, err := s.RecentPredictions(ctx, 1)
		if err != nil {
			return Stats{}, err
		}
		if len(recent) == 1 {
			last := recent[0].CreatedAt
			stats.LastScoreAt = &last
		}
	}
	return stats, nil
}
