package tspd

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
)

const memoryDB = ":memory:"

const schema = `
	CREATE TABLE IF NOT EXISTS iterations (
		run_id        TEXT    NOT NULL,
		iteration     INTEGER NOT NULL,
		best_distance REAL    NOT NULL,
		best_path     TEXT    NOT NULL,
		operation     TEXT    NOT NULL,
		goal          REAL    NOT NULL,
		heatmap       TEXT    NOT NULL,
		created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (run_id, iteration)
	)
`

// IterationRecord is one solver iteration as persisted in the log
type IterationRecord struct {
	RunID        string
	Iteration    int
	BestDistance float64
	BestPath     []int
	Operation    string
	Goal         float64
	Heatmap      []models.HeatmapCell
}

// IterationLog persists solver iterations in SQLite
type IterationLog struct {
	db *sql.DB
}

// OpenIterationLog opens (and creates if needed) the log at path. ":memory:"
// keeps it in process memory.
func OpenIterationLog(path string) (*IterationLog, error) {
	if path == "" {
		path = memoryDB
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open iteration log %s: %w", path, err)
	}

	if path == memoryDB {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to iteration log: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create iterations table: %w", err)
	}
	return &IterationLog{db: db}, nil
}

// Append stores one iteration
func (l *IterationLog) Append(ctx context.Context, rec IterationRecord) error {
	path, err := json.Marshal(rec.BestPath)
	if err != nil {
		return fmt.Errorf("failed to encode best path: %w", err)
	}
	heatmap, err := json.Marshal(rec.Heatmap)
	if err != nil {
		return fmt.Errorf("failed to encode heatmap: %w", err)
	}

	query := `
		INSERT INTO iterations (run_id, iteration, best_distance, best_path, operation, goal, heatmap)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := l.db.ExecContext(ctx, query,
		rec.RunID,
		rec.Iteration,
		rec.BestDistance,
		string(path),
		rec.Operation,
		rec.Goal,
		string(heatmap),
	); err != nil {
		return fmt.Errorf("failed to append iteration %d: %w", rec.Iteration, err)
	}
	return nil
}

// List returns the iterations of a run in order
func (l *IterationLog) List(ctx context.Context, runID string) ([]IterationRecord, error) {
	query := `
		SELECT run_id, iteration, best_distance, best_path, operation, goal, heatmap
		FROM iterations
		WHERE run_id = ?
		ORDER BY iteration
	`
	rows, err := l.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query iterations: %w", err)
	}
	defer rows.Close()

	var out []IterationRecord
	for rows.Next() {
		var (
			rec     IterationRecord
			path    string
			heatmap string
		)
		if err := rows.Scan(&rec.RunID, &rec.Iteration, &rec.BestDistance, &path, &rec.Operation, &rec.Goal, &heatmap); err != nil {
			return nil, fmt.Errorf("failed to scan iteration: %w", err)
		}
		if err := json.Unmarshal([]byte(path), &rec.BestPath); err != nil {
			return nil, fmt.Errorf("failed to decode best path of iteration %d: %w", rec.Iteration, err)
		}
		if err := json.Unmarshal([]byte(heatmap), &rec.Heatmap); err != nil {
			return nil, fmt.Errorf("failed to decode heatmap of iteration %d: %w", rec.Iteration, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read iterations: %w", err)
	}
	return out, nil
}

// Clear removes every stored iteration
func (l *IterationLog) Clear(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, "DELETE FROM iterations"); err != nil {
		return fmt.Errorf("failed to clear iteration log: %w", err)
	}
	return nil
}

// Close closes the database
func (l *IterationLog) Close() error {
	return l.db.Close()
}
